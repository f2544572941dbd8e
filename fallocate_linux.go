//go:build linux

package birthday

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for a run file so that a full disk
// fails here instead of raising SIGBUS on a mapped write.
func fallocateFile(file *os.File, size int64) error {
	fd := int(file.Fd())
	if err := unix.Fallocate(fd, 0, 0, size); err != nil {
		// Some filesystems (NFS, tmpfs on old kernels) lack fallocate
		return unix.Ftruncate(fd, size)
	}
	return unix.Ftruncate(fd, size)
}
