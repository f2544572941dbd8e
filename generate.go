package birthday

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	birthdayerrors "github.com/tamirms/birthday/errors"
)

// contextCheckInterval is how often hot loops poll for context cancellation.
const contextCheckInterval = 10000

// Pool is the key array produced by generation.
//
// Keys is one contiguous allocation. Shards are disjoint sub-slices of Keys,
// one per generation worker, in partition order. Sorting later re-partitions
// Keys independently of Shards.
type Pool struct {
	Keys   []Key
	Shards [][]Key

	// Seed is the seed of the default sample stream, or 0 when a custom
	// SampleStream was supplied.
	Seed uint64
}

// Generate fills a pool of maxSamples keys using the configured number of
// parallel workers. Each worker draws from its own sample source, hashes
// every message and writes packed keys into its own shard.
//
// If any worker fails the whole phase fails with ErrWorkerFailed and no pool
// is returned: a partial pool would silently lower the collision probability.
func Generate(ctx context.Context, maxSamples int, opts ...Option) (*Pool, error) {
	if maxSamples <= 0 {
		return nil, fmt.Errorf("%w: got %d", birthdayerrors.ErrInvalidMaxSamples, maxSamples)
	}
	rc, err := resolve(opts)
	if err != nil {
		return nil, err
	}
	m, err := newSearchMetrics(rc.registerer)
	if err != nil {
		return nil, err
	}
	return generate(ctx, rc, m, uint64(maxSamples))
}

func generate(ctx context.Context, rc *resolvedConfig, m *searchMetrics, n uint64) (*Pool, error) {
	counts := splitCounts(n, rc.workers)
	keys := make([]Key, n)
	pool := &Pool{Keys: keys, Shards: make([][]Key, 0, len(counts))}
	if rc.config.stream == nil {
		pool.Seed = rc.seed
	}

	g, gctx := errgroup.WithContext(ctx)
	var offset uint64
	for worker, count := range counts {
		shard := keys[offset : offset+count]
		src := rc.stream(offset)
		pool.Shards = append(pool.Shards, shard)
		g.Go(func() error {
			err := runGuarded(func() error {
				return generateShard(gctx, shard, src, rc.hasher, rc.codec)
			})
			if err != nil {
				return workerError(phaseGenerate, worker, err)
			}
			m.samples.Add(float64(len(shard)))
			return nil
		})
		offset += count
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	m.poolBytes.Set(float64(n * keySize))
	return pool, nil
}

// generateShard fills dst with keys for messages drawn from src.
// dst is owned exclusively by the caller's goroutine.
func generateShard(ctx context.Context, dst []Key, src SampleSource, h Hasher, codec Codec) error {
	var msg [messageSize]byte
	size := h.Size()
	buf := make([]byte, 0, size)

	for i := range dst {
		if i%contextCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		x := src.Uint64()
		putMessage(msg[:], x)
		buf = h.AppendDigest(buf[:0], msg[:])
		if len(buf) != size {
			return fmt.Errorf("%w: %s returned %d bytes, want %d",
				birthdayerrors.ErrBadDigest, h.Name(), len(buf), size)
		}
		dst[i] = Key{Hi: codec.Prefix(buf), Lo: x}
	}
	return nil
}

// splitCounts divides total into parts near-equal counts, giving the
// remainder to the first parts. Zero counts are dropped.
func splitCounts(total uint64, parts int) []uint64 {
	if parts <= 0 {
		parts = 1
	}
	base := total / uint64(parts)
	rem := total % uint64(parts)
	counts := make([]uint64, 0, parts)
	for i := range uint64(parts) {
		c := base
		if i < rem {
			c++
		}
		if c > 0 {
			counts = append(counts, c)
		}
	}
	return counts
}

// runGuarded calls fn, converting a panic into an error so that a crashing
// hash function fails the phase instead of the process.
func runGuarded(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// workerError wraps a worker's failure in ErrWorkerFailed.
// Cancellation is passed through unchanged: it is not a worker fault.
func workerError(phase string, worker int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s worker %d: %w", birthdayerrors.ErrWorkerFailed, phase, worker, err)
}
