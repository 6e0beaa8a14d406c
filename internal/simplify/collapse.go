// Package simplify reduces the raw pixel-step mesh: CollapseFaces merges
// faces too small to carry a feature into single vertices, and Decimate
// thins degree-2 chains with Ramer-Douglas-Peucker.
//
// Both return a freshly built mesh; the input is not modified.
package simplify

import (
	"math"

	"github.com/gogpu/ridgemesh/internal/logging"
	"github.com/gogpu/ridgemesh/internal/unionfind"
	"github.com/gogpu/ridgemesh/mesh"
)

// Defaults used for non-positive parameters.
const (
	DefaultMinArea = 4.0
	DefaultEpsilon = 1.0
)

// CollapseFaces merges the vertices of every closed bounded face with at
// least three boundary half-edges and |area| < minArea into one vertex at
// the group centroid. Height and divergence are averaged; the group keeps
// the most important (lowest) vertex type. Edges are remapped, self-loops
// dropped and parallel edges merged, and the mesh is rebuilt.
//
// If no face qualifies, m is returned as is.
func CollapseFaces(m *mesh.Mesh, minArea float64) (*mesh.Mesh, error) {
	if minArea <= 0 {
		minArea = DefaultMinArea
	}
	log := logging.Stage("mesh_simplify")

	cycles := m.FaceCycles()
	outer := m.OuterCycles(cycles)

	nv := len(m.Vertices)
	uf := unionfind.New(nv)
	collapsed := 0
	for ci := range cycles {
		c := &cycles[ci]
		if outer[ci] || !c.Closed || len(c.Edges) < 3 || math.Abs(c.Area) >= minArea {
			continue
		}
		vs := c.Vertices(m)
		for _, v := range vs[1:] {
			uf.Union(vs[0], v)
		}
		collapsed++
	}

	if collapsed == 0 {
		log.Debug("no tiny faces", "min_area", minArea)
		return m, nil
	}

	type group struct {
		x, y, h, d float64
		n          int
		typ        mesh.VertexType
	}
	groups := make(map[int]*group)
	for v := range m.Vertices {
		r := uf.Find(v)
		g := groups[r]
		if g == nil {
			g = &group{typ: mesh.Path}
			groups[r] = g
		}
		src := &m.Vertices[v]
		g.x += src.Pos.X
		g.y += src.Pos.Y
		g.h += src.Height
		g.d += src.Divergence
		g.n++
		g.typ = min(g.typ, src.Type)
	}

	remap := make([]int, nv)
	byRoot := make(map[int]int, len(groups))
	verts := make([]mesh.Vertex, 0, len(groups))
	for v := range m.Vertices {
		r := uf.Find(v)
		if nvi, ok := byRoot[r]; ok {
			remap[v] = nvi
			continue
		}
		g := groups[r]
		n := float64(g.n)
		vx := mesh.Vertex{
			Height:     g.h / n,
			Divergence: g.d / n,
			Type:       g.typ,
			Edge:       mesh.None,
		}
		vx.Pos.X, vx.Pos.Y = g.x/n, g.y/n
		byRoot[r] = len(verts)
		remap[v] = len(verts)
		verts = append(verts, vx)
	}

	edges := remapEdges(m.UndirectedEdges(), remap)

	log.Debug("collapsed tiny faces",
		"faces", collapsed, "min_area", minArea,
		"merged_vertices", nv-len(verts), "removed_edges", len(m.HalfEdges)/2-len(edges))

	out, err := mesh.Build(verts, edges)
	if err != nil {
		return nil, err
	}
	log.Debug("result", "vertices", len(out.Vertices), "half_edges", len(out.HalfEdges))
	return out, nil
}

// remapEdges maps edge endpoints through remap, dropping self-loops and
// duplicates of an unordered pair. The first edge of a pair keeps its type.
func remapEdges(edges []mesh.Edge, remap []int) []mesh.Edge {
	seen := make(map[[2]int]struct{}, len(edges))
	out := make([]mesh.Edge, 0, len(edges))
	for _, e := range edges {
		a, b := remap[e.V0], remap[e.V1]
		if a < 0 || b < 0 || a == b {
			continue
		}
		key := [2]int{min(a, b), max(a, b)}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, mesh.Edge{V0: key[0], V1: key[1], Type: e.Type})
	}
	return out
}
