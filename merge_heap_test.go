package birthday

import "testing"

// TestRunHeapPopOrder pops heads in key order with ties broken by run index.
func TestRunHeapPopOrder(t *testing.T) {
	type head struct {
		key Key
		run int
	}
	tests := []struct {
		name   string
		input  []head
		expect []head
	}{
		{
			name:   "distinct",
			input:  []head{{Key{3, 0}, 0}, {Key{1, 0}, 1}, {Key{2, 0}, 2}},
			expect: []head{{Key{1, 0}, 1}, {Key{2, 0}, 2}, {Key{3, 0}, 0}},
		},
		{
			name:   "same_prefix_by_sample",
			input:  []head{{Key{5, 9}, 0}, {Key{5, 1}, 1}, {Key{5, 4}, 2}},
			expect: []head{{Key{5, 1}, 1}, {Key{5, 4}, 2}, {Key{5, 9}, 0}},
		},
		{
			name:   "equal_keys_by_run",
			input:  []head{{Key{7, 7}, 3}, {Key{7, 7}, 0}, {Key{7, 7}, 2}},
			expect: []head{{Key{7, 7}, 0}, {Key{7, 7}, 2}, {Key{7, 7}, 3}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newRunHeap(len(tc.input))
			for _, e := range tc.input {
				h.push(e.key, e.run)
			}
			for i, want := range tc.expect {
				k, run := h.pop()
				if k != want.key || run != want.run {
					t.Fatalf("pop[%d] = (%v, %d), want (%v, %d)", i, k, run, want.key, want.run)
				}
			}
			if h.len() != 0 {
				t.Fatalf("heap not empty after draining: len=%d", h.len())
			}
		})
	}
}

func TestRunHeapReplaceTop(t *testing.T) {
	rng := newTestRNG(t)
	h := newRunHeap(16)
	for i := range 16 {
		h.push(Key{Hi: rng.Uint64N(100)}, i)
	}
	var prev Key
	for range 200 {
		k, _ := h.top()
		if k.Compare(prev) < 0 {
			t.Fatalf("top %v below previous %v", k, prev)
		}
		prev = k
		h.replaceTop(Key{Hi: k.Hi + rng.Uint64N(10)})
	}
}
