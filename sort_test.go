package birthday

import (
	"context"
	"slices"
	"testing"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		n, parts int
		want     []int
	}{
		{10, 3, []int{4, 3, 3}},
		{10, 1, []int{10}},
		{10, 0, []int{10}},
		{2, 5, []int{1, 1, 0, 0, 0}},
		{0, 2, []int{0, 0}},
	}
	for _, tc := range tests {
		keys := make([]Key, tc.n)
		parts := partition(keys, tc.parts)
		var got []int
		for _, p := range parts {
			got = append(got, len(p))
		}
		if !slices.Equal(got, tc.want) {
			t.Errorf("partition(%d, %d) sizes = %v, want %v", tc.n, tc.parts, got, tc.want)
		}
	}
}

// Appending to one part must not overwrite the next.
func TestPartitionCapacity(t *testing.T) {
	keys := make([]Key, 6)
	parts := partition(keys, 3)
	_ = append(parts[0], Key{Hi: 9, Lo: 9})
	if parts[1][0] != (Key{}) {
		t.Fatal("append to part 0 overwrote part 1")
	}
}

func TestSortShards(t *testing.T) {
	rng := newTestRNG(t)
	for _, chunks := range []int{1, 3, 8, 50} {
		keys := randomKeys(rng, 997, 100)
		want := slices.SortedFunc(slices.Values(keys), Key.Compare)

		shards, err := SortShards(context.Background(), keys, chunks, 2)
		if err != nil {
			t.Fatalf("chunks=%d: %v", chunks, err)
		}
		if len(shards) != chunks {
			t.Fatalf("chunks=%d: got %d shards", chunks, len(shards))
		}
		var all []Key
		for i, s := range shards {
			if !slices.IsSortedFunc(s, Key.Compare) {
				t.Fatalf("chunks=%d: shard %d not sorted", chunks, i)
			}
			all = append(all, s...)
		}
		slices.SortFunc(all, Key.Compare)
		if !slices.Equal(all, want) {
			t.Fatalf("chunks=%d: shards do not hold the input multiset", chunks)
		}
	}
}

func TestSortShardsMoreChunksThanKeys(t *testing.T) {
	keys := []Key{{3, 1}, {1, 1}}
	shards, err := SortShards(context.Background(), keys, 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, s := range shards {
		n += len(s)
	}
	if n != 2 || len(shards) != 5 {
		t.Fatalf("got %d keys in %d shards", n, len(shards))
	}
}
