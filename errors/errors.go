// Package errors holds the sentinel errors returned by the birthday package.
//
// Callers match them with errors.Is. Returned errors wrap a sentinel with
// context such as the phase, worker index or file path.
package errors

import "errors"

// Configuration errors. Returned before any work is started.
var (
	ErrInvalidPrefixWidth = errors.New("birthday: invalid prefix width")
	ErrUnknownAlgorithm   = errors.New("birthday: unknown hash algorithm")
	ErrInvalidWorkers     = errors.New("birthday: worker count must be positive")
	ErrInvalidSortChunks  = errors.New("birthday: sort chunk count must be positive")
	ErrInvalidMaxSamples  = errors.New("birthday: max samples must be positive")
)

// Codec errors
var (
	ErrValueTooWide = errors.New("birthday: prefix value exceeds configured prefix width")
)

// Execution errors
var (
	ErrWorkerFailed   = errors.New("birthday: worker failed")
	ErrPrefixMismatch = errors.New("birthday: collision failed re-verification")
	ErrBadDigest      = errors.New("birthday: hash function returned a digest of the wrong size")
)

// Run file errors
var (
	ErrInvalidMagic   = errors.New("birthday: invalid run file magic number")
	ErrInvalidVersion = errors.New("birthday: unsupported run file version")
	ErrTruncatedRun   = errors.New("birthday: run file is truncated")
	ErrChecksumFailed = errors.New("birthday: run file checksum verification failed")
	ErrCorruptedRun   = errors.New("birthday: run file is corrupted")
	ErrUnsortedRun    = errors.New("birthday: run is not sorted")
	ErrRunClosed      = errors.New("birthday: run is closed")
)
