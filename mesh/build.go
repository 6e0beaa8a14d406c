package mesh

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/ridgemesh/internal/logging"
	"gonum.org/v1/gonum/spatial/r2"
)

// Build converts an undirected edge list into a half-edge mesh. Build
// takes ownership of vertices; each vertex's Edge field is overwritten.
//
// Undirected edge i becomes half-edges 2i (V0 -> V1) and 2i+1 (V1 -> V0).
// The outgoing half-edges of every vertex are sorted counter-clockwise by
// atan2 of their tangent, and for each consecutive pair (e_i, e_i+1):
//
//	twin(e_i).Next = e_i+1
//	e_i+1.Prev     = twin(e_i)
//
// Faces and features are left unassigned.
func Build(vertices []Vertex, edges []Edge) (*Mesh, error) {
	nv := len(vertices)
	for i, e := range edges {
		if e.V0 < 0 || e.V0 >= nv || e.V1 < 0 || e.V1 >= nv {
			return nil, fmt.Errorf("%w: edge %d (%d, %d) with %d vertices", ErrInvalidEdge, i, e.V0, e.V1, nv)
		}
	}

	m := &Mesh{
		Vertices:  vertices,
		HalfEdges: make([]HalfEdge, 2*len(edges)),
	}

	for i, e := range edges {
		d := r2.Sub(vertices[e.V1].Pos, vertices[e.V0].Pos)
		length := r2.Norm(d)
		var t r2.Vec
		if length > 1e-6 {
			t = r2.Scale(1/length, d)
		}

		fwd, twn := 2*i, 2*i+1
		m.HalfEdges[fwd] = HalfEdge{
			Origin:  e.V0,
			Twin:    twn,
			Next:    None,
			Prev:    None,
			Face:    FaceUnvisited,
			Type:    e.Type,
			Tangent: t,
			Length:  length,
		}
		m.HalfEdges[twn] = HalfEdge{
			Origin:  e.V1,
			Twin:    fwd,
			Next:    None,
			Prev:    None,
			Face:    FaceUnvisited,
			Type:    e.Type,
			Tangent: r2.Scale(-1, t),
			Length:  length,
		}
	}

	outgoing := make([][]int, nv)
	for i := range m.HalfEdges {
		o := m.HalfEdges[i].Origin
		outgoing[o] = append(outgoing[o], i)
	}

	for v, out := range outgoing {
		if len(out) > 1 {
			slices.SortStableFunc(out, func(a, b int) int {
				return cmp.Compare(m.angle(a), m.angle(b))
			})
		}

		n := len(out)
		for i, e := range out {
			next := out[(i+1)%n]
			twin := m.HalfEdges[e].Twin
			m.HalfEdges[twin].Next = next
			m.HalfEdges[next].Prev = twin
		}

		if n > 0 {
			m.Vertices[v].Edge = out[0]
		} else {
			m.Vertices[v].Edge = None
		}
	}

	logging.Stage("dcel_build").Debug("built half-edges",
		"half_edges", len(m.HalfEdges), "edges", len(edges), "vertices", nv)

	return m, nil
}

func (m *Mesh) angle(he int) float64 {
	t := m.HalfEdges[he].Tangent
	return math.Atan2(t.Y, t.X)
}
