//go:build linux

package birthday

import "golang.org/x/sys/unix"

// fadviseSequential hints that a run file will be read front to back.
// Best-effort: errors are ignored.
func fadviseSequential(fd int, offset, length int64) {
	_ = unix.Fadvise(fd, offset, length, unix.FADV_SEQUENTIAL)
}

// madviseSequential enables aggressive readahead on a mapped run.
func madviseSequential(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
}
