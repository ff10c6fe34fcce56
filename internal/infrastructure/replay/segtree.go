package replay

// sumTree is a complete binary tree over a power-of-two leaf range keeping
// every internal node equal to the sum of its children. Updates and
// prefix-sum descent are O(log n). Node 1 is the root; leaf i lives at
// node i+bound.
type sumTree struct {
	bound int
	nodes []float64
}

func newSumTree(size int) *sumTree {
	bound := 1
	for bound < size {
		bound <<= 1
	}
	return &sumTree{
		bound: bound,
		nodes: make([]float64, 2*bound),
	}
}

func (t *sumTree) update(i int, value float64) {
	node := i + t.bound
	t.nodes[node] = value
	for node >>= 1; node >= 1; node >>= 1 {
		t.nodes[node] = t.nodes[2*node] + t.nodes[2*node+1]
	}
}

func (t *sumTree) get(i int) float64 {
	return t.nodes[i+t.bound]
}

func (t *sumTree) sum() float64 {
	return t.nodes[1]
}

// prefixSumIndex returns the smallest leaf index i with
// sum(leaves[0..i]) > prefix. The caller guarantees 0 <= prefix < sum().
func (t *sumTree) prefixSumIndex(prefix float64) int {
	node := 1
	for node < t.bound {
		left := 2 * node
		if prefix < t.nodes[left] {
			node = left
		} else {
			prefix -= t.nodes[left]
			node = left + 1
		}
	}
	return node - t.bound
}

// leaves returns a copy of the first size leaf values.
func (t *sumTree) leaves(size int) []float64 {
	values := make([]float64, size)
	copy(values, t.nodes[t.bound:t.bound+size])
	return values
}

// setLeaves replaces the first len(values) leaves and rebuilds every
// internal node bottom-up.
func (t *sumTree) setLeaves(values []float64) {
	for i := range t.nodes[t.bound:] {
		t.nodes[t.bound+i] = 0
	}
	copy(t.nodes[t.bound:], values)
	for node := t.bound - 1; node >= 1; node-- {
		t.nodes[node] = t.nodes[2*node] + t.nodes[2*node+1]
	}
}
