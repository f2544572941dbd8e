package birthday

import (
	"context"
	"crypto/sha256"
	"errors"
	"slices"
	"testing"

	birthdayerrors "github.com/tamirms/birthday/errors"
	"github.com/tamirms/birthday/internal/sample"
)

func TestSplitCounts(t *testing.T) {
	tests := []struct {
		total uint64
		parts int
		want  []uint64
	}{
		{10, 3, []uint64{4, 3, 3}},
		{9, 3, []uint64{3, 3, 3}},
		{2, 5, []uint64{1, 1}},
		{0, 4, []uint64{}},
		{7, 1, []uint64{7}},
		{7, 0, []uint64{7}},
	}
	for _, tc := range tests {
		got := splitCounts(tc.total, tc.parts)
		if !slices.Equal(got, tc.want) {
			t.Errorf("splitCounts(%d, %d) = %v, want %v", tc.total, tc.parts, got, tc.want)
		}
	}
}

func TestGenerateKeysMatchHash(t *testing.T) {
	const seed = 99
	pool, err := Generate(context.Background(), 2000,
		WithSeed(seed), WithWorkers(3), WithPrefixBits(20))
	if err != nil {
		t.Fatal(err)
	}
	if len(pool.Keys) != 2000 || len(pool.Shards) != 3 {
		t.Fatalf("pool has %d keys in %d shards", len(pool.Keys), len(pool.Shards))
	}
	if pool.Seed != seed {
		t.Errorf("Seed = %d, want %d", pool.Seed, seed)
	}
	codec, _ := NewCodec(20)
	var msg [messageSize]byte
	for i, k := range pool.Keys {
		if want := sample.At(seed, uint64(i)); k.Lo != want {
			t.Fatalf("key %d sample = %#x, want %#x", i, k.Lo, want)
		}
		putMessage(msg[:], k.Lo)
		d := sha256.Sum256(msg[:])
		if want := codec.Prefix(d[:]); k.Hi != want {
			t.Fatalf("key %d prefix = %#x, want %#x", i, k.Hi, want)
		}
	}
}

// A fixed seed yields the same pool whatever the worker count.
func TestGenerateDeterministicAcrossWorkers(t *testing.T) {
	var first []Key
	for _, workers := range []int{1, 2, 7, 16} {
		pool, err := Generate(context.Background(), 1001,
			WithSeed(7), WithWorkers(workers), WithAlgorithm(AlgoXXH3))
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if first == nil {
			first = pool.Keys
			continue
		}
		if !slices.Equal(pool.Keys, first) {
			t.Fatalf("workers=%d produced a different pool", workers)
		}
	}
}

func TestGenerateMoreWorkersThanSamples(t *testing.T) {
	pool, err := Generate(context.Background(), 3, WithSeed(1), WithWorkers(8))
	if err != nil {
		t.Fatal(err)
	}
	if len(pool.Shards) != 3 {
		t.Fatalf("got %d shards, want 3", len(pool.Shards))
	}
}

func TestGenerateWorkerFailure(t *testing.T) {
	tests := []struct {
		name   string
		hasher Hasher
		cause  error
	}{
		{
			name: "panic",
			hasher: HasherFunc("boom", 32, func(dst, msg []byte) []byte {
				panic("hash exploded")
			}),
		},
		{
			name: "short_digest",
			hasher: HasherFunc("short", 32, func(dst, msg []byte) []byte {
				return append(dst, 1, 2, 3)
			}),
			cause: birthdayerrors.ErrBadDigest,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pool, err := Generate(context.Background(), 100, WithHasher(tc.hasher), WithWorkers(4))
			if !errors.Is(err, birthdayerrors.ErrWorkerFailed) {
				t.Fatalf("err = %v, want ErrWorkerFailed", err)
			}
			if tc.cause != nil && !errors.Is(err, tc.cause) {
				t.Fatalf("err = %v, want it to wrap %v", err, tc.cause)
			}
			if pool != nil {
				t.Fatal("partial pool returned on failure")
			}
		})
	}
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Generate(ctx, 1000, WithWorkers(2))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, birthdayerrors.ErrWorkerFailed) {
		t.Fatal("cancellation reported as a worker failure")
	}
}

func TestGenerateConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		n    int
		opts []Option
		want error
	}{
		{"zero_samples", 0, nil, birthdayerrors.ErrInvalidMaxSamples},
		{"negative_samples", -5, nil, birthdayerrors.ErrInvalidMaxSamples},
		{"zero_workers", 10, []Option{WithWorkers(0)}, birthdayerrors.ErrInvalidWorkers},
		{"zero_chunks", 10, []Option{WithSortChunks(0)}, birthdayerrors.ErrInvalidSortChunks},
		{"zero_chunks_with_workers", 10, []Option{WithWorkers(3), WithSortChunks(0)}, birthdayerrors.ErrInvalidSortChunks},
		{"negative_chunks", 10, []Option{WithSortChunks(-1)}, birthdayerrors.ErrInvalidSortChunks},
		{"zero_prefix", 10, []Option{WithPrefixBits(0)}, birthdayerrors.ErrInvalidPrefixWidth},
		{"prefix_wider_than_digest", 10, []Option{WithAlgorithm(AlgoXXHash64), WithPrefixHex(17)}, birthdayerrors.ErrInvalidPrefixWidth},
		{"prefix_wider_than_key", 10, []Option{WithPrefixBits(65)}, birthdayerrors.ErrInvalidPrefixWidth},
		{"unknown_algorithm", 10, []Option{WithAlgorithm(HashAlgorithm(77))}, birthdayerrors.ErrUnknownAlgorithm},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Generate(context.Background(), tc.n, tc.opts...)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if !IsConfigError(err) {
				t.Fatalf("IsConfigError(%v) = false", err)
			}
		})
	}
}

func TestResolveSortChunksDefault(t *testing.T) {
	rc, err := resolve([]Option{WithWorkers(6)})
	if err != nil {
		t.Fatal(err)
	}
	if rc.sortChunks != 6 {
		t.Fatalf("sortChunks = %d, want worker count 6", rc.sortChunks)
	}

	rc, err = resolve([]Option{WithWorkers(6), WithSortChunks(2)})
	if err != nil {
		t.Fatal(err)
	}
	if rc.sortChunks != 2 {
		t.Fatalf("sortChunks = %d, want 2", rc.sortChunks)
	}
}
