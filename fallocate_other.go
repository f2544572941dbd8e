//go:build !linux && !darwin

package birthday

import "os"

// fallocateFile sets the run file size. Blocks may not be reserved.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
