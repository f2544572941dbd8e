package birthday

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	birthdayerrors "github.com/tamirms/birthday/errors"
)

// RunFile is a read-only, memory-mapped sorted run.
//
// Len and At are safe for concurrent use. Close must only be called after
// all reads have completed; after Close no methods may be called.
type RunFile struct {
	mmap mmap.MMap
	data []byte
	body []byte // Key region, len == Count*keySize

	header *runHeader
	path   string

	closed atomic.Bool
}

// OpenRun memory-maps the run file at path and validates its header.
// The file descriptor is closed before OpenRun returns.
// Checksum and ordering are only checked by Verify.
func OpenRun(path string) (*RunFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat run file: %w", err)
	}
	if stat.Size() < runHeaderSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", birthdayerrors.ErrTruncatedRun, path, stat.Size())
	}

	fadviseSequential(int(file.Fd()), 0, stat.Size())

	mm, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap run file: %w", err)
	}
	r := &RunFile{
		mmap: mm,
		data: []byte(mm),
		path: path,
	}
	if err := r.initFromData(); err != nil {
		return nil, errors.Join(err, r.Close())
	}
	madviseSequential(r.body)
	return r, nil
}

// OpenRunBytes reads a run from an in-memory image. Close is a no-op.
// The caller must not modify data while the RunFile is in use.
func OpenRunBytes(data []byte) (*RunFile, error) {
	r := &RunFile{data: data}
	if err := r.initFromData(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RunFile) initFromData() error {
	hdr, err := decodeRunHeader(r.data)
	if err != nil {
		return err
	}
	size := uint64(len(r.data))
	want := runHeaderSize + hdr.regionSize()
	if hdr.Count > (size-runHeaderSize)/keySize || size < want {
		return fmt.Errorf("%w: header claims %d keys, file holds %d bytes",
			birthdayerrors.ErrTruncatedRun, hdr.Count, size)
	}
	if size != want {
		return fmt.Errorf("%w: %d trailing bytes", birthdayerrors.ErrCorruptedRun, size-want)
	}
	r.header = hdr
	r.body = r.data[runHeaderSize:want]
	return nil
}

// Verify checks the key region against the header checksum and confirms the
// keys are in ascending order.
func (r *RunFile) Verify() error {
	if r.closed.Load() {
		return birthdayerrors.ErrRunClosed
	}
	if got := xxhash.Sum64(r.body); got != r.header.Checksum {
		return fmt.Errorf("%w: %s: got %016x, want %016x",
			birthdayerrors.ErrChecksumFailed, r.name(), got, r.header.Checksum)
	}
	n := r.Len()
	for i := 1; i < n; i++ {
		if r.At(i).Compare(r.At(i-1)) < 0 {
			return fmt.Errorf("%w: %s: key %d", birthdayerrors.ErrUnsortedRun, r.name(), i)
		}
	}
	return nil
}

// Len returns the number of keys in the run.
func (r *RunFile) Len() int { return int(r.header.Count) }

// At returns key i.
func (r *RunFile) At(i int) Key {
	off := i * keySize
	return getKey(r.body[off : off+keySize])
}

// PrefixBits returns the prefix width recorded when the run was written.
func (r *RunFile) PrefixBits() int { return int(r.header.PrefixBits) }

// Path returns the file the run was opened from, or "" for OpenRunBytes.
func (r *RunFile) Path() string { return r.path }

func (r *RunFile) name() string {
	if r.path == "" {
		return "<memory>"
	}
	return r.path
}

// Close unmaps the run. Idempotent.
func (r *RunFile) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	var err error
	if r.mmap != nil {
		err = r.mmap.Unmap()
		r.mmap = nil
	}
	r.data = nil
	r.body = nil
	return err
}
