// Package unionfind implements a disjoint-set forest with path halving and
// union by rank.
package unionfind

// UnionFind partitions the integers [0, n) into disjoint groups.
type UnionFind struct {
	parent []int
	rank   []uint8
}

// New returns n singleton groups.
func New(n int) *UnionFind {
	u := &UnionFind{
		parent: make([]int, n),
		rank:   make([]uint8, n),
	}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

// Find returns the representative of x's group.
func (u *UnionFind) Find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// Union merges the groups of a and b. It reports whether they were
// previously separate.
func (u *UnionFind) Union(a, b int) bool {
	a, b = u.Find(a), u.Find(b)
	if a == b {
		return false
	}
	if u.rank[a] < u.rank[b] {
		a, b = b, a
	}
	u.parent[b] = a
	if u.rank[a] == u.rank[b] {
		u.rank[a]++
	}
	return true
}
