package birthday

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	"golang.org/x/sync/errgroup"

	birthdayerrors "github.com/tamirms/birthday/errors"
)

// runWriter writes one sorted run to disk using mmap-based zero-copy writes.
// File layout: [Header 32B][Key region Count×16B]
type runWriter struct {
	file *os.File
	mmap mmap.MMap // Memory-mapped region
	data []byte    // View into mmap for direct writes
	path string

	prefixBits int
	capacity   uint64 // Keys the file was sized for
	count      uint64 // Keys written so far
	last       Key    // Last key written, for order validation

	// Streaming hash of the key region, fed while data is hot in CPU cache
	hasher *xxhash.Digest
}

// newRunWriter creates a run file in dir sized for capacity keys.
// The file is pre-allocated and memory-mapped for zero-copy writes.
func newRunWriter(dir string, capacity uint64, prefixBits int) (*runWriter, error) {
	file, err := os.CreateTemp(dir, "birthday-run-*.bin")
	if err != nil {
		return nil, fmt.Errorf("create run file: %w", err)
	}
	w := &runWriter{
		file:       file,
		path:       file.Name(),
		prefixBits: prefixBits,
		capacity:   capacity,
		hasher:     xxhash.New(),
	}

	size := int64(runHeaderSize + capacity*keySize)

	// Pre-allocate disk blocks to prevent SIGBUS on disk full
	if err := fallocateFile(file, size); err != nil {
		primaryErr := fmt.Errorf("allocate run file: %w", err)
		return nil, errors.Join(primaryErr, w.abort())
	}

	mm, err := mmap.MapRegion(file, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("mmap run file: %w", err)
		return nil, errors.Join(primaryErr, w.abort())
	}
	w.mmap = mm
	w.data = []byte(mm)

	// Prefault the key region for better write throughput.
	// On Linux 5.14+, uses MADV_POPULATE_WRITE. No-op on other platforms.
	prefaultRegion(w.data[runHeaderSize:])

	return w, nil
}

// write appends sorted keys to the run.
// Returns ErrUnsortedRun if keys would break ascending order.
func (w *runWriter) write(keys []Key) error {
	if w.count+uint64(len(keys)) > w.capacity {
		return fmt.Errorf("%w: run sized for %d keys, writing %d more after %d",
			birthdayerrors.ErrCorruptedRun, w.capacity, len(keys), w.count)
	}
	start := runHeaderSize + w.count*keySize
	off := start
	for i, k := range keys {
		if (w.count > 0 || i > 0) && k.Compare(w.last) < 0 {
			return fmt.Errorf("%w: key %d of %s", birthdayerrors.ErrUnsortedRun, w.count+uint64(i), w.path)
		}
		putKey(w.data[off:], k)
		w.last = k
		off += keySize
	}
	if _, err := w.hasher.Write(w.data[start:off]); err != nil {
		panic("hash.Hash.Write returned unexpected error: " + err.Error())
	}
	w.count += uint64(len(keys))
	return nil
}

// finalize writes the header, flushes, unmaps and closes the file.
// Returns the file path. On error the file is removed.
func (w *runWriter) finalize() (string, error) {
	hdr := runHeader{
		Magic:      runMagic,
		Version:    runVersion,
		PrefixBits: uint8(w.prefixBits),
		Count:      w.count,
		Checksum:   w.hasher.Sum64(),
	}
	hdr.encodeTo(w.data)

	// Flush dirty pages to file (ensures writes visible before unmap)
	if err := w.mmap.Flush(); err != nil {
		primaryErr := fmt.Errorf("mmap flush failed: %w", err)
		return "", errors.Join(primaryErr, w.abort())
	}

	// Unmap before truncate (required order).
	// Nil mmap regardless of outcome to prevent abort() from retrying.
	unmapErr := w.mmap.Unmap()
	w.mmap = nil
	w.data = nil
	if unmapErr != nil {
		primaryErr := fmt.Errorf("mmap unmap failed: %w", unmapErr)
		return "", errors.Join(primaryErr, w.abort())
	}

	// Shrink to actual size if fewer keys than planned were written
	if w.count < w.capacity {
		if err := w.file.Truncate(int64(runHeaderSize + w.count*keySize)); err != nil {
			primaryErr := fmt.Errorf("truncate failed: %w", err)
			return "", errors.Join(primaryErr, w.abort())
		}
	}

	closeErr := w.file.Close()
	w.file = nil
	if closeErr != nil {
		return "", errors.Join(closeErr, w.abort())
	}
	return w.path, nil
}

// abort releases resources and removes the file (for error cleanup).
// Idempotent: safe to call multiple times.
func (w *runWriter) abort() error {
	var unmapErr error
	if w.mmap != nil {
		unmapErr = w.mmap.Unmap()
		w.mmap = nil
		w.data = nil
	}
	var closeErr error
	if w.file != nil {
		closeErr = w.file.Close()
		w.file = nil
	}
	var removeErr error
	if w.path != "" {
		if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
			removeErr = fmt.Errorf("remove run file: %w", err)
		}
		w.path = ""
	}
	return errors.Join(unmapErr, closeErr, removeErr)
}

// WriteRun writes a sorted shard to a new run file in dir and returns its
// path. prefixBits is recorded in the header for validation on open.
func WriteRun(dir string, keys []Key, prefixBits int) (string, error) {
	if prefixBits <= 0 || prefixBits > maxPrefixBits {
		return "", fmt.Errorf("%w: %d bits", birthdayerrors.ErrInvalidPrefixWidth, prefixBits)
	}
	w, err := newRunWriter(dir, uint64(len(keys)), prefixBits)
	if err != nil {
		return "", err
	}
	if err := w.write(keys); err != nil {
		return "", errors.Join(err, w.abort())
	}
	return w.finalize()
}

// spillShards writes each sorted shard to its own run file in dir, at most
// limit at a time. On error every file already written is removed.
func spillShards(ctx context.Context, dir string, shards [][]Key, prefixBits, limit int) ([]string, error) {
	paths := make([]string, len(shards))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for worker, shard := range shards {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path, err := WriteRun(dir, shard, prefixBits)
			if err != nil {
				return workerError(phaseSpill, worker, err)
			}
			paths[worker] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Join(err, removeRuns(paths))
	}
	return paths, nil
}

// removeRuns deletes run files, skipping empty paths.
func removeRuns(paths []string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
