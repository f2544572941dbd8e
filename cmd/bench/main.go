// Bench measures birthday search throughput per hash algorithm: hashing,
// parallel sort and merge scan, plus peak memory.
//
// Usage:
//
//	go run ./cmd/bench --samples 10000000 --algo sha256 --algo xxh3_128
//
// With no --algo every built-in algorithm is measured.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"

	"github.com/tamirms/birthday"
)

type args struct {
	Samples    int      `arg:"-n,--samples" help:"messages per algorithm"`
	Algo       []string `arg:"-a,--algo,separate" help:"algorithms to measure (default all)"`
	Workers    int      `arg:"-w,--workers" help:"generation workers"`
	PrefixHex  int      `arg:"-t,--target-prefix" help:"prefix length in hex characters"`
	SpillDir   string   `arg:"--spill-dir" help:"also time writing runs to this directory"`
	CPUProfile string   `arg:"--cpuprofile" help:"write cpu profile to file"`
	MemProfile string   `arg:"--memprofile" help:"write memory profile to file"`
}

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// peakTracker samples heap and RSS every 10ms.
// Uses runtime/metrics instead of ReadMemStats to avoid stop-the-world pauses.
type peakTracker struct {
	heap atomic.Uint64
	rss  atomic.Uint64
	done chan struct{}
}

func startPeakTracker() *peakTracker {
	p := &peakTracker{done: make(chan struct{})}
	go func() {
		samples := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				storeMax(&p.heap, samples[0].Value.Uint64())
				storeMax(&p.rss, getMaxRSS())
			}
		}
	}()
	return p
}

func (p *peakTracker) stop() (heap, rss uint64) {
	close(p.done)
	return p.heap.Load(), p.rss.Load()
}

func storeMax(v *atomic.Uint64, x uint64) {
	for {
		old := v.Load()
		if x <= old || v.CompareAndSwap(old, x) {
			return
		}
	}
}

type row struct {
	algo       string
	hash, sort time.Duration
	spill      time.Duration
	merge      time.Duration
	state      birthday.ScanState
}

func main() {
	a := args{
		Samples:   10_000_000,
		Workers:   runtime.NumCPU(),
		PrefixHex: birthday.DefaultPrefixHex,
	}
	arg.MustParse(&a)
	if len(a.Algo) == 0 {
		a.Algo = birthday.Algorithms()
	}

	if a.CPUProfile != "" {
		f, err := os.Create(a.CPUProfile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
		defer pprof.StopCPUProfile()
	}

	ctx := context.Background()
	tracker := startPeakTracker()
	var rows []row
	for _, name := range a.Algo {
		algo, err := birthday.ParseAlgorithm(name)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("Benchmarking %s...\n", algo)
		runtime.GC()

		opts := []birthday.Option{
			birthday.WithAlgorithm(algo),
			birthday.WithPrefixHex(a.PrefixHex),
			birthday.WithWorkers(a.Workers),
			birthday.WithSeed(0x1234),
		}
		if a.SpillDir != "" {
			opts = append(opts, birthday.WithSpillDir(a.SpillDir))
		}
		res, err := birthday.Search(ctx, a.Samples, opts...)
		if err != nil {
			fmt.Printf("%s failed: %v\n", algo, err)
			return
		}
		r := row{algo: algo.String(), state: res.State}
		for _, p := range res.Phases {
			switch p.Phase {
			case "generate":
				r.hash = p.Duration
			case "sort":
				r.sort = p.Duration
			case "spill":
				r.spill = p.Duration
			case "merge":
				r.merge = p.Duration
			}
		}
		rows = append(rows, r)
	}
	peakHeap, peakRSS := tracker.stop()

	if a.MemProfile != "" {
		f, err := os.Create(a.MemProfile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	n := float64(a.Samples)
	fmt.Printf("\n%s samples, %d workers, %d-hex prefix\n\n",
		humanize.Comma(int64(a.Samples)), a.Workers, a.PrefixHex)
	fmt.Printf("%-12s %12s %10s %10s %10s %10s  %s\n",
		"algo", "hash M/s", "hash", "sort", "spill", "merge", "result")
	for _, r := range rows {
		fmt.Printf("%-12s %12.2f %10s %10s %10s %10s  %s\n",
			r.algo, n/r.hash.Seconds()/1_000_000,
			r.hash.Round(time.Millisecond), r.sort.Round(time.Millisecond),
			r.spill.Round(time.Millisecond), r.merge.Round(time.Millisecond), r.state)
	}
	fmt.Printf("\nPeak heap %s, peak RSS %s\n", humanize.IBytes(peakHeap), humanize.IBytes(peakRSS))
}
