package birthday

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"

	birthdayerrors "github.com/tamirms/birthday/errors"
	"github.com/tamirms/birthday/internal/sample"
)

const (
	// DefaultPrefixHex is the default prefix length in hex characters.
	DefaultPrefixHex = 10

	// DefaultMaxSamples is the default pool size. Sized for a few hundred
	// MiB of keys; raise it for wider prefixes.
	DefaultMaxSamples = 7_000_000
)

// Option is a functional option for configuring a search.
type Option func(*config)

// SampleSource yields the 64-bit messages of one generation partition.
// A SampleSource is owned by a single worker and need not be safe for
// concurrent use.
type SampleSource interface {
	Uint64() uint64
}

// SampleStream opens the message source for one generation partition.
// offset is the global index of the partition's first sample.
type SampleStream func(offset uint64) SampleSource

// SliceStream returns a SampleStream replaying values: the partition
// starting at offset reads values[offset:]. Intended for tests and for
// re-checking a known pool.
func SliceStream(values []uint64) SampleStream {
	return func(offset uint64) SampleSource {
		return sample.NewSlice(values, offset)
	}
}

type config struct {
	prefixBits    int
	algorithm     HashAlgorithm
	hasher        Hasher // overrides algorithm when set
	workers       int
	sortChunks    int
	sortChunksSet bool // false means "same as workers"
	sortLimit     int  // max concurrent sorts; 0 means GOMAXPROCS
	seed          uint64
	seeded        bool
	stream        SampleStream
	spillDir      string
	verify        bool
	logger        *slog.Logger
	registerer    prometheus.Registerer
}

func defaultConfig() *config {
	return &config{
		prefixBits: DefaultPrefixHex * 4,
		algorithm:  AlgoSHA256,
		workers:    runtime.NumCPU(),
		verify:     true,
		logger:     slog.New(slog.DiscardHandler),
	}
}

// WithPrefixHex sets the prefix length in hex characters (4 bits each).
func WithPrefixHex(n int) Option {
	return func(c *config) {
		c.prefixBits = n * 4
	}
}

// WithPrefixBits sets the prefix length in bits.
func WithPrefixBits(n int) Option {
	return func(c *config) {
		c.prefixBits = n
	}
}

// WithAlgorithm selects a built-in hash function. Default is AlgoSHA256.
func WithAlgorithm(a HashAlgorithm) Option {
	return func(c *config) {
		c.algorithm = a
		c.hasher = nil
	}
}

// WithHasher plugs in a custom hash function, overriding WithAlgorithm.
func WithHasher(h Hasher) Option {
	return func(c *config) {
		c.hasher = h
	}
}

// WithWorkers sets the number of parallel generation workers.
// Default is runtime.NumCPU() at the time the options are resolved.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithSortChunks sets the number of shards sorted in parallel and merged.
// Default is the worker count. n must be positive.
func WithSortChunks(n int) Option {
	return func(c *config) {
		c.sortChunks = n
		c.sortChunksSet = true
	}
}

// WithSortParallelism caps how many shards are sorted at once.
// Default is GOMAXPROCS.
func WithSortParallelism(n int) Option {
	return func(c *config) {
		c.sortLimit = n
	}
}

// WithSeed fixes the seed of the default sample stream. The generated pool
// then depends only on the seed and the sample count, not on the number of
// workers. Without it a seed is drawn from crypto/rand.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
		c.seeded = true
	}
}

// WithSampleStream replaces the default SplitMix64 sample stream.
func WithSampleStream(s SampleStream) Option {
	return func(c *config) {
		c.stream = s
	}
}

// WithSpillDir writes each sorted shard to an mmap'd run file in dir and
// releases the in-memory pool before merging. The directory must exist.
// Run files are removed when the search returns.
func WithSpillDir(dir string) Option {
	return func(c *config) {
		c.spillDir = dir
	}
}

// WithVerify toggles re-hashing both messages of a found collision before
// returning it. Enabled by default.
//
// A pair that fails re-hashing ends the search with ErrPrefixMismatch
// instead of resuming the scan: it means the Hasher is not deterministic,
// and no later pair from the same pool can be trusted either.
func WithVerify(v bool) Option {
	return func(c *config) {
		c.verify = v
	}
}

// WithLogger sets the structured logger. Default discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRegisterer registers the search metrics with r.
// Without it metrics are collected but not exported.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = r
	}
}

// resolvedConfig is a validated config with every default filled in.
type resolvedConfig struct {
	*config
	codec  Codec
	hasher Hasher
	stream SampleStream
}

// resolve applies opts over the defaults and validates the result.
// Every error returned wraps one of the configuration sentinels.
func resolve(opts []Option) (*resolvedConfig, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.workers <= 0 {
		return nil, fmt.Errorf("%w: got %d", birthdayerrors.ErrInvalidWorkers, cfg.workers)
	}
	if !cfg.sortChunksSet {
		cfg.sortChunks = cfg.workers
	}
	if cfg.sortChunks <= 0 {
		return nil, fmt.Errorf("%w: got %d", birthdayerrors.ErrInvalidSortChunks, cfg.sortChunks)
	}
	if cfg.sortLimit <= 0 {
		cfg.sortLimit = runtime.GOMAXPROCS(0)
	}

	hasher := cfg.hasher
	if hasher == nil {
		h, err := NewHasher(cfg.algorithm)
		if err != nil {
			return nil, err
		}
		hasher = h
	}

	if cfg.prefixBits <= 0 || cfg.prefixBits > hasher.Size()*8 {
		return nil, fmt.Errorf("%w: %d bits (digest %s is %d bits)",
			birthdayerrors.ErrInvalidPrefixWidth, cfg.prefixBits, hasher.Name(), hasher.Size()*8)
	}
	codec, err := NewCodec(cfg.prefixBits)
	if err != nil {
		return nil, err
	}

	stream := cfg.stream
	if stream == nil {
		if !cfg.seeded {
			cfg.seed = randomSeed()
			cfg.seeded = true
		}
		seed := cfg.seed
		stream = func(offset uint64) SampleSource {
			return sample.NewStream(seed, offset)
		}
	}

	return &resolvedConfig{config: cfg, codec: codec, hasher: hasher, stream: stream}, nil
}

// randomSeed draws a run seed from the operating system's CSPRNG.
func randomSeed() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:]) // crypto/rand.Read never returns an error on supported platforms
	return binary.LittleEndian.Uint64(b[:])
}

// IsConfigError reports whether err was caused by invalid configuration.
func IsConfigError(err error) bool {
	for _, target := range []error{
		birthdayerrors.ErrInvalidPrefixWidth,
		birthdayerrors.ErrUnknownAlgorithm,
		birthdayerrors.ErrInvalidWorkers,
		birthdayerrors.ErrInvalidSortChunks,
		birthdayerrors.ErrInvalidMaxSamples,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
