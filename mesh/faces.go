package mesh

import (
	"github.com/gogpu/ridgemesh/internal/unionfind"
	"github.com/paulmach/orb"
)

// Cycle is a face cycle obtained by following Next pointers.
//
// Build links each arriving half-edge to the next outgoing edge in
// ascending-angle order, which leaves a bounded face on the right of its
// half-edges when y points up (on the left in image space, y down). Area
// uses the image-space orientation, so bounded faces come out positive and
// the unbounded face of a component negative.
type Cycle struct {
	Edges  []int
	Area   float64 // signed shoelace area, image-space orientation
	Closed bool    // the walk returned to its first half-edge
}

// Vertices returns the origin vertex of every half-edge in the cycle.
func (c *Cycle) Vertices(m *Mesh) []int {
	vs := make([]int, len(c.Edges))
	for i, he := range c.Edges {
		vs[i] = m.HalfEdges[he].Origin
	}
	return vs
}

// Bounds returns the bounding box of the cycle's origin vertices.
func (c *Cycle) Bounds(m *Mesh) orb.Bound {
	if len(c.Edges) == 0 {
		return orb.Bound{}
	}
	p := m.Vertices[m.HalfEdges[c.Edges[0]].Origin].Pos
	b := orb.Bound{Min: orb.Point{p.X, p.Y}, Max: orb.Point{p.X, p.Y}}
	for _, he := range c.Edges[1:] {
		p := m.Vertices[m.HalfEdges[he].Origin].Pos
		b = b.Extend(orb.Point{p.X, p.Y})
	}
	return b
}

// FaceCycles partitions the half-edges into face cycles, visiting
// half-edges in index order. A walk that hits a missing Next, a half-edge
// already claimed by another cycle, or runs longer than the half-edge
// count is reported as an open cycle. m is not modified.
func (m *Mesh) FaceCycles() []Cycle {
	n := len(m.HalfEdges)
	claimed := make([]bool, n)
	var cycles []Cycle

	for i := range n {
		if claimed[i] {
			continue
		}

		c := Cycle{Closed: true}
		cur := i
		for {
			c.Edges = append(c.Edges, cur)
			claimed[cur] = true

			he := &m.HalfEdges[cur]
			a := m.Vertices[he.Origin].Pos
			b := m.Vertices[m.Dest(cur)].Pos
			c.Area += b.X*a.Y - a.X*b.Y

			next := he.Next
			if next < 0 || next >= n || len(c.Edges) > n {
				c.Closed = false
				break
			}
			if next == i {
				break
			}
			if claimed[next] {
				c.Closed = false
				break
			}
			cur = next
		}
		c.Area *= 0.5
		cycles = append(cycles, c)
	}
	return cycles
}

// Components labels the connected components of the mesh graph. It returns
// the component representative of every vertex.
func (m *Mesh) Components() []int {
	uf := unionfind.New(len(m.Vertices))
	for i := range m.HalfEdges {
		uf.Union(m.HalfEdges[i].Origin, m.Dest(i))
	}
	comp := make([]int, len(m.Vertices))
	for v := range comp {
		comp[v] = uf.Find(v)
	}
	return comp
}

// outerAreaTolerance absorbs rounding in the zero-area cycle of a tree.
const outerAreaTolerance = 1e-6

// OuterCycles marks the unbounded face of every connected component: the
// closed cycle with the most negative signed area among the cycles of that
// component. A tree has a single zero-area cycle, which is its outer face.
// A component whose closed cycles all have positive area has no outer face.
// The result is indexed like cycles.
func (m *Mesh) OuterCycles(cycles []Cycle) []bool {
	comp := m.Components()
	best := make(map[int]int) // component -> cycle index
	for ci := range cycles {
		c := &cycles[ci]
		if !c.Closed || len(c.Edges) == 0 || c.Area > outerAreaTolerance {
			continue
		}
		k := comp[m.HalfEdges[c.Edges[0]].Origin]
		if prev, ok := best[k]; !ok || c.Area < cycles[prev].Area {
			best[k] = ci
		}
	}

	outer := make([]bool, len(cycles))
	for _, ci := range best {
		outer[ci] = true
	}
	return outer
}
