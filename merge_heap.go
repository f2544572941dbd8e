package birthday

// runHeap is a min-heap of run heads for the k-way merge.
// Uses parallel slices and an index-based heap for O(log k) replace/pop.
type runHeap struct {
	heads []Key   // Current head key of each live run
	runs  []int32 // Run index owning the head
}

func newRunHeap(capacity int) *runHeap {
	return &runHeap{
		heads: make([]Key, 0, capacity),
		runs:  make([]int32, 0, capacity),
	}
}

func (h *runHeap) len() int {
	return len(h.heads)
}

// push adds a run head and maintains the heap property. O(log k).
func (h *runHeap) push(k Key, run int) {
	h.heads = append(h.heads, k)
	h.runs = append(h.runs, int32(run))
	h.up(len(h.heads) - 1)
}

// top returns the smallest head and its run. The heap must be non-empty.
func (h *runHeap) top() (Key, int) {
	return h.heads[0], int(h.runs[0])
}

// replaceTop overwrites the smallest head with the next key of the same run
// and restores the heap property. Cheaper than pop followed by push.
func (h *runHeap) replaceTop(k Key) {
	h.heads[0] = k
	h.down(0, len(h.heads))
}

// pop removes the smallest head.
func (h *runHeap) pop() (Key, int) {
	n := len(h.heads) - 1
	h.swap(0, n)
	h.down(0, n)
	k := h.heads[n]
	run := h.runs[n]
	h.heads = h.heads[:n]
	h.runs = h.runs[:n]
	return k, int(run)
}

func (h *runHeap) swap(i, j int) {
	h.heads[i], h.heads[j] = h.heads[j], h.heads[i]
	h.runs[i], h.runs[j] = h.runs[j], h.runs[i]
}

func (h *runHeap) less(i, j int) bool {
	if c := h.heads[i].Compare(h.heads[j]); c != 0 {
		return c < 0
	}
	// Deterministic tie-break by run index
	return h.runs[i] < h.runs[j]
}

func (h *runHeap) up(j int) {
	for {
		i := (j - 1) / 2 // parent
		if i == j || !h.less(j, i) {
			break
		}
		h.swap(i, j)
		j = i
	}
}

func (h *runHeap) down(i, n int) {
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1 // left child
		if j2 := j1 + 1; j2 < n && h.less(j2, j1) {
			j = j2 // right child
		}
		if !h.less(j, i) {
			break
		}
		h.swap(i, j)
		i = j
	}
}
