// Birthday searches for a truncated-hash prefix collision and writes the two
// colliding messages under the report directory.
//
// Usage:
//
//	go run ./cmd/birthday -t 10 -a sha256 -n 7000000
//
// Every flag can also be set through a BIRTHDAY_* environment variable.
// The resolved seed is printed so a run can be repeated with --seed.
// Exit status is 0 when a collision is found, 2 when the pool is exhausted
// without one and 1 on error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/tamirms/birthday"
)

const (
	exitFound     = 0
	exitError     = 1
	exitExhausted = 2
)

type args struct {
	TargetPrefix int     `arg:"-t,--target-prefix,env:BIRTHDAY_TARGET_PREFIX" help:"prefix length in hex characters, 1 to 16 (64 bits)"`
	Algo         string  `arg:"-a,--algo,env:BIRTHDAY_ALGO" help:"hash algorithm"`
	MaxSamples   int     `arg:"-n,--max-samples,env:BIRTHDAY_MAX_SAMPLES" help:"number of messages to hash"`
	Workers      int     `arg:"-w,--workers,env:BIRTHDAY_WORKERS" help:"parallel generation workers"`
	SortChunks   *int    `arg:"-s,--sort-chunks,env:BIRTHDAY_SORT_CHUNKS" help:"sorted runs to merge [default: workers]"`
	Seed         *uint64 `arg:"--seed,env:BIRTHDAY_SEED" help:"sample stream seed [default: random]"`
	SpillDir     string  `arg:"--spill-dir,env:BIRTHDAY_SPILL_DIR" help:"write sorted runs to this directory before merging"`
	Out          string  `arg:"--out,env:BIRTHDAY_OUT" help:"collision report directory"`
	LogLevel     string  `arg:"--log-level,env:BIRTHDAY_LOG_LEVEL" help:"debug, info, warn or error"`
	MetricsAddr  string  `arg:"--metrics-addr,env:BIRTHDAY_METRICS_ADDR" help:"serve Prometheus metrics on this address"`
	Pushgateway  string  `arg:"--pushgateway,env:BIRTHDAY_PUSHGATEWAY" help:"push metrics to this Pushgateway URL when done"`
}

func (args) Description() string {
	return "birthday-attack search for a truncated-hash prefix collision"
}

func main() {
	a := args{
		TargetPrefix: birthday.DefaultPrefixHex,
		Algo:         birthday.AlgoSHA256.String(),
		MaxSamples:   birthday.DefaultMaxSamples,
		Workers:      runtime.NumCPU(),
		Out:          birthday.DefaultReportRoot,
		LogLevel:     "info",
	}
	arg.MustParse(&a)
	os.Exit(run(a, os.Stdout))
}

func run(a args, stdout io.Writer) int {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", a.LogLevel, err)
		return exitError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	algo, err := birthday.ParseAlgorithm(a.Algo)
	if err != nil {
		logger.Error("invalid arguments", "err", err)
		return exitError
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if a.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              a.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", "err", err)
			}
		}()
		defer srv.Close()
	}

	opts := []birthday.Option{
		birthday.WithPrefixHex(a.TargetPrefix),
		birthday.WithAlgorithm(algo),
		birthday.WithWorkers(a.Workers),
		birthday.WithLogger(logger),
		birthday.WithRegisterer(reg),
	}
	if a.SortChunks != nil {
		opts = append(opts, birthday.WithSortChunks(*a.SortChunks))
	}
	if a.Seed != nil {
		opts = append(opts, birthday.WithSeed(*a.Seed))
	}
	if a.SpillDir != "" {
		opts = append(opts, birthday.WithSpillDir(a.SpillDir))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.MaxSamples > 0 {
		fmt.Fprintf(stdout, "Searching %s samples of %s for a %d-hex prefix collision (%s pool, %d workers)...\n",
			humanize.Comma(int64(a.MaxSamples)), algo, a.TargetPrefix,
			humanize.IBytes(uint64(a.MaxSamples)*16), a.Workers)
	}

	start := time.Now()
	res, err := birthday.Search(ctx, a.MaxSamples, opts...)
	if a.Pushgateway != "" {
		if perr := push.New(a.Pushgateway, "birthday").Gatherer(reg).Push(); perr != nil {
			logger.Warn("push metrics", "err", perr)
		}
	}
	if err != nil {
		if birthday.IsConfigError(err) {
			logger.Error("invalid arguments", "err", err)
		} else {
			logger.Error("search failed", "err", err)
		}
		return exitError
	}

	fmt.Fprintf(stdout, "  seed      %d\n", res.Seed)
	for _, p := range res.Phases {
		fmt.Fprintf(stdout, "  %-9s %s\n", p.Phase, p.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(stdout, "  scanned   %s keys (%s duplicate samples) in %s\n",
		humanize.Comma(int64(res.Scanned)), humanize.Comma(int64(res.Duplicates)),
		time.Since(start).Round(time.Millisecond))

	if !res.Found() {
		fmt.Fprintln(stdout, "No collision found; raise --max-samples and try again.")
		return exitExhausted
	}

	c := res.Collision
	fmt.Fprintf(stdout, "\nCollision on %s prefix %s\n", c.Algorithm, c.PrefixHex())
	fmt.Fprintf(stdout, "  x1 = %016x  digest %x\n", c.X1, c.Digest1)
	fmt.Fprintf(stdout, "  x2 = %016x  digest %x\n", c.X2, c.Digest2)

	reporter := birthday.FileReporter{Root: a.Out}
	if err := reporter.Report(ctx, c); err != nil {
		logger.Error("write collision", "err", err)
		return exitError
	}
	p1, p2 := reporter.Paths(c)
	fmt.Fprintf(stdout, "Wrote %s\n      %s\n", p1, p2)
	return exitFound
}
