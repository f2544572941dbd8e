//go:build !linux

package birthday

// Page cache hints are Linux-specific.

func fadviseSequential(fd int, offset, length int64) {}

func madviseSequential(data []byte) {}
