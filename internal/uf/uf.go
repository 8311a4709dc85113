// Package uf implements an arena-indexed union-find (disjoint set forest).
//
// Elements are dense integer indices 0..n-1. Parents and ranks live in flat
// slices, so a Forest can be copied or grown without pointer aliasing.
package uf

// Forest is a disjoint set forest over the indices [0, Len()).
type Forest struct {
	parent []int32
	rank   []uint8
	sets   int
}

// New creates a forest of n singleton sets.
func New(n int) *Forest {
	f := &Forest{}
	f.Grow(n)
	return f
}

// Len returns the number of elements in the forest.
func (f *Forest) Len() int {
	return len(f.parent)
}

// Sets returns the current number of disjoint sets.
func (f *Forest) Sets() int {
	return f.sets
}

// Grow appends n new singleton elements and returns the index of the first one.
func (f *Forest) Grow(n int) int {
	first := len(f.parent)
	for i := 0; i < n; i++ {
		f.parent = append(f.parent, int32(first+i))
		f.rank = append(f.rank, 0)
	}
	f.sets += n
	return first
}

// Find returns the representative of the set containing x.
// Uses path halving, which keeps the amortized cost near O(α(n)).
func (f *Forest) Find(x int) int {
	for int(f.parent[x]) != x {
		f.parent[x] = f.parent[f.parent[x]]
		x = int(f.parent[x])
	}
	return x
}

// Union merges the sets containing a and b. It reports whether the sets were
// distinct; merging an element with itself or twice is a no-op.
func (f *Forest) Union(a, b int) bool {
	ra, rb := f.Find(a), f.Find(b)
	if ra == rb {
		return false
	}

	// Union by rank
	switch {
	case f.rank[ra] < f.rank[rb]:
		f.parent[ra] = int32(rb)
	case f.rank[ra] > f.rank[rb]:
		f.parent[rb] = int32(ra)
	default:
		f.parent[rb] = int32(ra)
		f.rank[ra]++
	}
	f.sets--
	return true
}

// Same reports whether a and b are in the same set.
func (f *Forest) Same(a, b int) bool {
	return f.Find(a) == f.Find(b)
}

// Groups returns the members of every set, keyed by representative.
// Members are listed in increasing index order.
func (f *Forest) Groups() map[int][]int {
	groups := make(map[int][]int, f.sets)
	for i := range f.parent {
		r := f.Find(i)
		groups[r] = append(groups[r], i)
	}
	return groups
}

// Clone creates a deep copy of the forest.
func (f *Forest) Clone() *Forest {
	clone := &Forest{
		parent: make([]int32, len(f.parent)),
		rank:   make([]uint8, len(f.rank)),
		sets:   f.sets,
	}
	copy(clone.parent, f.parent)
	copy(clone.rank, f.rank)
	return clone
}
