package birthday

import (
	"context"
	"fmt"
	"iter"

	birthdayerrors "github.com/tamirms/birthday/errors"
)

// Run is a sorted sequence of keys consumed by the merge.
//
// Implementations: MemRun (an in-memory sorted shard) and *RunFile (a
// memory-mapped run file). A Run is read by a single goroutine.
type Run interface {
	// Len returns the number of keys in the run.
	Len() int

	// At returns key i, 0 <= i < Len().
	At(i int) Key
}

// MemRun is an in-memory sorted shard.
type MemRun []Key

func (r MemRun) Len() int     { return len(r) }
func (r MemRun) At(i int) Key { return r[i] }

// ScanState is the state of the merge scan.
//
//	Merging -> Found      a collision was emitted; scan stopped early
//	Merging -> Exhausted  every key was scanned without a collision
//	Merging -> Failed     a run could not be read (returned with an error)
type ScanState uint8

const (
	StateMerging ScanState = iota
	StateFound
	StateExhausted
	StateFailed
)

// String returns the state name.
func (s ScanState) String() string {
	switch s {
	case StateMerging:
		return "merging"
	case StateFound:
		return "found"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ScanResult is the outcome of a merge scan.
type ScanResult struct {
	State ScanState

	// First and Second are the colliding keys when State is StateFound:
	// adjacent in merged order, equal prefix, First.Lo != Second.Lo.
	First, Second Key

	// Scanned counts keys emitted by the merge.
	Scanned uint64

	// Duplicates counts adjacent keys skipped because the same message
	// was drawn twice.
	Duplicates uint64
}

// mergeIter is a k-way merge over sorted runs.
//
// Memory is one head per live run plus a read position per run; the merged
// sequence is never materialized.
type mergeIter struct {
	runs []Run
	pos  []int
	heap *runHeap
}

func newMergeIter(runs []Run) *mergeIter {
	it := &mergeIter{
		runs: runs,
		pos:  make([]int, len(runs)),
		heap: newRunHeap(len(runs)),
	}
	for i, r := range runs {
		if r.Len() > 0 {
			it.heap.push(r.At(0), i)
		}
	}
	return it
}

// next returns the next key in merged order. ok is false once every run is
// drained. Returns ErrUnsortedRun if a run is found out of order, since the
// merged stream would no longer be ordered.
func (it *mergeIter) next() (k Key, ok bool, err error) {
	if it.heap.len() == 0 {
		return Key{}, false, nil
	}
	k, run := it.heap.top()
	p := it.pos[run] + 1
	it.pos[run] = p
	if p < it.runs[run].Len() {
		nk := it.runs[run].At(p)
		if nk.Compare(k) < 0 {
			return Key{}, false, fmt.Errorf("%w: run %d decreases at index %d",
				birthdayerrors.ErrUnsortedRun, run, p)
		}
		it.heap.replaceTop(nk)
	} else {
		it.heap.pop()
	}
	return k, true, nil
}

// Merged returns the keys of runs in globally non-decreasing order.
// Each run must be sorted; an out-of-order run ends the sequence with an
// ErrUnsortedRun error. Stopping the iteration early releases nothing that
// the caller must clean up.
func Merged(runs []Run) iter.Seq2[Key, error] {
	return func(yield func(Key, error) bool) {
		it := newMergeIter(runs)
		for {
			k, ok, err := it.next()
			if err != nil {
				yield(Key{}, err)
				return
			}
			if !ok || !yield(k, nil) {
				return
			}
		}
	}
}

// Scan merges runs and reports the first pair of adjacent keys that share a
// prefix but differ in sample. Adjacent keys that are fully equal are the
// same message drawn twice; they are counted and skipped.
//
// Finding nothing is not an error: the result is StateExhausted. An error is
// returned only for unreadable or unsorted runs and for cancellation, with
// the result in StateFailed.
func Scan(ctx context.Context, runs []Run) (ScanResult, error) {
	res := ScanResult{State: StateMerging}
	it := newMergeIter(runs)

	var prev Key
	havePrev := false
	for {
		if res.Scanned%contextCheckInterval == 0 {
			select {
			case <-ctx.Done():
				res.State = StateFailed
				return res, ctx.Err()
			default:
			}
		}

		k, ok, err := it.next()
		if err != nil {
			res.State = StateFailed
			return res, err
		}
		if !ok {
			break
		}
		res.Scanned++

		if havePrev && k.Hi == prev.Hi {
			if k.Lo != prev.Lo {
				res.State = StateFound
				res.First, res.Second = prev, k
				return res, nil
			}
			res.Duplicates++
		}
		prev, havePrev = k, true
	}

	res.State = StateExhausted
	return res, nil
}
