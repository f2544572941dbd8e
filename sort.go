package birthday

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// SortShards re-partitions keys into chunks contiguous shards of near-equal
// size and sorts each one ascending, in parallel, in place. At most limit
// shards are sorted at once; limit <= 0 means GOMAXPROCS.
//
// The returned shards alias keys. Keys are permuted within each shard and
// never filtered, so the shards together hold exactly the input multiset.
// Shards may be empty when chunks exceeds len(keys).
func SortShards(ctx context.Context, keys []Key, chunks, limit int) ([][]Key, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	shards := partition(keys, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for worker, shard := range shards {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := runGuarded(func() error {
				slices.SortFunc(shard, Key.Compare)
				return nil
			})
			if err != nil {
				return workerError(phaseSort, worker, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return shards, nil
}

// partition splits keys into parts contiguous sub-slices whose lengths
// differ by at most one, the longer ones first.
func partition(keys []Key, parts int) [][]Key {
	if parts <= 1 {
		return [][]Key{keys}
	}
	counts := make([]uint64, parts)
	n := uint64(len(keys))
	for i := range counts {
		counts[i] = n / uint64(parts)
		if uint64(i) < n%uint64(parts) {
			counts[i]++
		}
	}
	out := make([][]Key, parts)
	var start uint64
	for i, c := range counts {
		out[i] = keys[start : start+c : start+c]
		start += c
	}
	return out
}
