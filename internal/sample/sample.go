// Package sample provides the random message sources used by generation
// workers.
package sample

// golden is the SplitMix64 increment (2^64 / phi, rounded to odd).
const golden = 0x9e3779b97f4a7c15

// Stream is a SplitMix64 generator positioned at an arbitrary index of the
// sequence keyed by seed. Element i of the sequence depends only on
// (seed, i), so two Streams opened at different offsets of the same seed
// produce disjoint, non-overlapping windows of one sequence.
type Stream struct {
	state uint64
}

// NewStream returns a Stream whose first value is element offset of the
// sequence for seed.
func NewStream(seed, offset uint64) *Stream {
	return &Stream{state: seed + offset*golden}
}

// Uint64 returns the next element of the sequence.
func (s *Stream) Uint64() uint64 {
	s.state += golden
	return mix(s.state)
}

// At returns element i of the sequence for seed without creating a Stream.
func At(seed, i uint64) uint64 {
	return mix(seed + (i+1)*golden)
}

// mix is the SplitMix64 output function (Stafford variant 13).
func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Slice replays a fixed list of messages starting at an offset.
// Used to feed hand-picked pools through the generation pipeline.
type Slice struct {
	values []uint64
	pos    int
}

// NewSlice returns a generator yielding values[offset:], in order.
// Reading past the end wraps to the start of values.
func NewSlice(values []uint64, offset uint64) *Slice {
	pos := 0
	if len(values) > 0 {
		pos = int(offset % uint64(len(values)))
	}
	return &Slice{values: values, pos: pos}
}

// Uint64 returns the next value.
func (s *Slice) Uint64() uint64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos]
	s.pos++
	if s.pos == len(s.values) {
		s.pos = 0
	}
	return v
}
