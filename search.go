package birthday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	birthdayerrors "github.com/tamirms/birthday/errors"
)

// Collision is a pair of distinct messages whose digests share a prefix.
type Collision struct {
	Algorithm  string
	PrefixBits int
	Prefix     uint64
	X1, X2     uint64 // X1 < X2
	Digest1    []byte
	Digest2    []byte
}

// PrefixHex formats the shared prefix as hex, zero-padded to the prefix
// width rounded up to whole hex characters.
func (c *Collision) PrefixHex() string {
	return fmt.Sprintf("%0*x", (c.PrefixBits+3)/4, c.Prefix)
}

// PhaseTiming is the wall-clock duration of one search phase.
type PhaseTiming struct {
	Phase    string
	Duration time.Duration
}

// Result is the outcome of a search. State is StateFound or StateExhausted;
// failures are returned as errors instead.
type Result struct {
	State     ScanState
	Collision *Collision // nil unless State is StateFound

	// Seed of the default sample stream; 0 with a custom SampleStream.
	Seed uint64

	Samples    uint64
	Scanned    uint64
	Duplicates uint64

	Phases []PhaseTiming
}

// Found reports whether a collision was found.
func (r *Result) Found() bool { return r.State == StateFound }

// Search generates maxSamples hashed messages, sorts them into runs and
// merges the runs looking for two distinct messages with the same digest
// prefix.
//
// Phases run one after another: no sort starts before every generation
// worker has finished, and the merge starts only after every run is sorted.
// Configuration errors are reported before any work starts.
func Search(ctx context.Context, maxSamples int, opts ...Option) (*Result, error) {
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
	s := &searcher{rc: rc, m: m, log: rc.logger}
	return s.run(ctx, uint64(maxSamples))
}

type searcher struct {
	rc     *resolvedConfig
	m      *searchMetrics
	log    *slog.Logger
	phases []PhaseTiming
}

// timed runs fn as the named phase, recording its duration in the result,
// the log and the phase summary.
func (s *searcher) timed(phase string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	if err != nil {
		s.log.Error("phase failed", "phase", phase, "duration", d, "err", err)
		return err
	}
	s.phases = append(s.phases, PhaseTiming{Phase: phase, Duration: d})
	s.m.observePhase(phase, d)
	s.log.Info("phase complete", "phase", phase, "duration", d)
	return nil
}

func (s *searcher) run(ctx context.Context, n uint64) (_ *Result, err error) {
	rc := s.rc
	s.log.Info("search started",
		"algorithm", rc.hasher.Name(),
		"prefix_bits", rc.codec.Bits(),
		"samples", n,
		"workers", rc.workers,
		"sort_chunks", rc.sortChunks,
		"spill", rc.spillDir != "")

	var pool *Pool
	if err := s.timed(phaseGenerate, func() error {
		var err error
		pool, err = generate(ctx, rc, s.m, n)
		return err
	}); err != nil {
		return nil, err
	}
	res := &Result{Seed: pool.Seed, Samples: n}

	var shards [][]Key
	if err := s.timed(phaseSort, func() error {
		var err error
		shards, err = SortShards(ctx, pool.Keys, rc.sortChunks, rc.sortLimit)
		return err
	}); err != nil {
		return nil, err
	}

	var runs []Run
	if rc.spillDir == "" {
		runs = make([]Run, len(shards))
		for i, sh := range shards {
			runs[i] = MemRun(sh)
		}
	} else {
		var files []*RunFile
		if err := s.timed(phaseSpill, func() error {
			var err error
			files, err = s.spill(ctx, shards)
			return err
		}); err != nil {
			return nil, err
		}
		defer func() {
			err = errors.Join(err, closeRuns(files))
		}()
		// The runs now hold every key; release the pool before merging
		pool, shards = nil, nil
		s.m.poolBytes.Set(0)
		runs = make([]Run, len(files))
		for i, f := range files {
			runs[i] = f
		}
	}

	var scan ScanResult
	if err := s.timed(phaseMerge, func() error {
		var err error
		scan, err = Scan(ctx, runs)
		return err
	}); err != nil {
		return nil, err
	}
	s.m.scanned.Add(float64(scan.Scanned))
	s.m.duplicates.Add(float64(scan.Duplicates))

	res.State = scan.State
	res.Scanned = scan.Scanned
	res.Duplicates = scan.Duplicates
	res.Phases = s.phases

	if scan.State != StateFound {
		s.log.Info("no collision", "scanned", scan.Scanned, "duplicates", scan.Duplicates)
		return res, nil
	}
	c, err := s.collision(scan.First, scan.Second)
	if err != nil {
		return nil, err
	}
	s.m.collisions.Inc()
	res.Collision = c
	s.log.Info("collision found",
		"prefix", c.PrefixHex(),
		"x1", fmt.Sprintf("%016x", c.X1),
		"x2", fmt.Sprintf("%016x", c.X2))
	return res, nil
}

// spill writes the sorted shards to run files and opens them for the merge.
// The files are unlinked once mapped so they vanish with the process.
func (s *searcher) spill(ctx context.Context, shards [][]Key) ([]*RunFile, error) {
	paths, err := spillShards(ctx, s.rc.spillDir, shards, s.rc.codec.Bits(), s.rc.sortLimit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := removeRuns(paths); rmErr != nil {
			s.log.Warn("remove run files", "err", rmErr)
		}
	}()

	files := make([]*RunFile, 0, len(paths))
	for _, p := range paths {
		f, err := OpenRun(p)
		if err == nil && f.PrefixBits() != s.rc.codec.Bits() {
			err = fmt.Errorf("%w: %s has %d-bit prefixes, want %d",
				birthdayerrors.ErrCorruptedRun, p, f.PrefixBits(), s.rc.codec.Bits())
			err = errors.Join(err, f.Close())
		} else if err == nil {
			if verr := f.Verify(); verr != nil {
				err = errors.Join(verr, f.Close())
			}
		}
		if err != nil {
			return nil, errors.Join(err, closeRuns(files))
		}
		files = append(files, f)
		s.log.Debug("run opened", "path", p, "keys", f.Len())
	}
	return files, nil
}

func closeRuns(files []*RunFile) error {
	var errs []error
	for _, f := range files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

// collision builds the reported collision from two adjacent merged keys,
// re-hashing both messages. With verification enabled the recomputed
// prefixes must match the merged prefix.
func (s *searcher) collision(a, b Key) (*Collision, error) {
	h := s.rc.hasher
	codec := s.rc.codec
	var msg [messageSize]byte

	putMessage(msg[:], a.Lo)
	d1 := h.AppendDigest(nil, msg[:])
	putMessage(msg[:], b.Lo)
	d2 := h.AppendDigest(nil, msg[:])

	if s.rc.verify {
		if len(d1) != h.Size() || len(d2) != h.Size() {
			return nil, fmt.Errorf("%w: %s", birthdayerrors.ErrBadDigest, h.Name())
		}
		p1, p2 := codec.Prefix(d1), codec.Prefix(d2)
		if p1 != a.Hi || p2 != b.Hi {
			return nil, fmt.Errorf("%w: %016x -> %x, %016x -> %x, merged prefix %x",
				birthdayerrors.ErrPrefixMismatch, a.Lo, p1, b.Lo, p2, a.Hi)
		}
	}

	return &Collision{
		Algorithm:  h.Name(),
		PrefixBits: codec.Bits(),
		Prefix:     a.Hi,
		X1:         a.Lo,
		X2:         b.Lo,
		Digest1:    d1,
		Digest2:    d2,
	}, nil
}
