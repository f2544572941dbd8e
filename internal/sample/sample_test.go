package sample

import "testing"

func TestStreamMatchesAt(t *testing.T) {
	const seed = 0xDEADBEEF
	s := NewStream(seed, 0)
	for i := range uint64(1000) {
		if got, want := s.Uint64(), At(seed, i); got != want {
			t.Fatalf("element %d: stream %#x, At %#x", i, got, want)
		}
	}
}

// Streams opened at different offsets are windows of one sequence.
func TestStreamOffsets(t *testing.T) {
	const seed = 42
	for _, offset := range []uint64{0, 1, 17, 1 << 40} {
		s := NewStream(seed, offset)
		for i := range uint64(64) {
			if got, want := s.Uint64(), At(seed, offset+i); got != want {
				t.Fatalf("offset %d element %d: got %#x, want %#x", offset, i, got, want)
			}
		}
	}
}

func TestStreamSeedsDiffer(t *testing.T) {
	a, b := NewStream(1, 0), NewStream(2, 0)
	same := 0
	for range 100 {
		if a.Uint64() == b.Uint64() {
			same++
		}
	}
	if same > 0 {
		t.Fatalf("%d of 100 values shared between seeds 1 and 2", same)
	}
}

func TestSlice(t *testing.T) {
	values := []uint64{10, 20, 30}
	tests := []struct {
		offset uint64
		want   []uint64
	}{
		{0, []uint64{10, 20, 30, 10}},
		{2, []uint64{30, 10, 20}},
		{4, []uint64{20, 30}},
	}
	for _, tc := range tests {
		s := NewSlice(values, tc.offset)
		for i, want := range tc.want {
			if got := s.Uint64(); got != want {
				t.Errorf("offset %d value %d = %d, want %d", tc.offset, i, got, want)
			}
		}
	}

	if got := NewSlice(nil, 3).Uint64(); got != 0 {
		t.Errorf("empty slice = %d, want 0", got)
	}
}
