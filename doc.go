// Package birthday searches for truncated-hash prefix collisions with a
// parallel birthday attack.
//
// A pool of random 64-bit messages is hashed, each digest is truncated to a
// prefix of PrefixBits bits and packed with its message into a 128-bit Key.
// The pool is sorted in parallel chunks and the chunks are k-way merged;
// two adjacent keys with the same prefix but different messages are a
// collision. For an n-bit prefix about 2^(n/2) samples give an even chance.
//
// # Basic Usage
//
//	res, err := birthday.Search(ctx, 7_000_000,
//	    birthday.WithPrefixHex(10),
//	    birthday.WithAlgorithm(birthday.AlgoSHA256),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if res.Found() {
//	    c := res.Collision
//	    fmt.Printf("%s: %016x %016x\n", c.PrefixHex(), c.X1, c.X2)
//	}
//
// # Package Structure
//
//   - Pipeline: search.go (Search), generate.go, sort.go, merge.go
//   - Configuration: options.go (Option, With* functions)
//   - Keys and prefixes: key.go (Key, Codec)
//   - Hash functions: algorithm.go (Hasher, ParseAlgorithm), internal/digest/
//   - Sample streams: internal/sample/ (seekable SplitMix64)
//   - Run files: run_header.go, run_writer.go, run_reader.go
//   - Output: report.go (FileReporter), metrics.go (Prometheus)
//   - Platform: fallocate_*.go, fadvise_*.go, prefault_*.go
package birthday
