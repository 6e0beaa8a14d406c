// Package skelgraph connects skeleton vertices into a graph by growing
// Dijkstra wavefronts from every vertex at once and recording where two
// fronts meet.
package skelgraph

import (
	"cmp"
	"math"
	"slices"

	"github.com/gogpu/ridgemesh/heightmap"
	"github.com/gogpu/ridgemesh/internal/logging"
	"github.com/gogpu/ridgemesh/internal/pqueue"
	"github.com/gogpu/ridgemesh/mesh"
	"gonum.org/v1/gonum/spatial/r2"
)

// stepEpsilon keeps the step cost finite where divergence is zero.
const stepEpsilon = 0.001

var (
	dx8   = [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy8   = [8]int{-1, -1, -1, 0, 0, 1, 1, 1}
	dist8 = [8]float64{math.Sqrt2, 1, math.Sqrt2, 1, 1, math.Sqrt2, 1, math.Sqrt2}
)

// Path is a discovered connection between two source vertices.
type Path struct {
	A, B   int     // source vertex indices, A < B
	Cost   float64 // combined cost at the cheapest meeting point
	Type   mesh.EdgeType
	Pixels []int // pixel indices from one source to the other
}

// Graph is the expanded skeleton graph: every path pixel is a vertex and
// consecutive path pixels are joined by unit edges.
type Graph struct {
	Vertices []mesh.Vertex // input vertices first, then Path vertices
	Edges    []mesh.Edge
	Paths    []Path
}

type candidate struct {
	cost         float64
	meetA, meetB int
}

// Build grows wavefronts from vertices over the pixels where walkable is
// set (vertex pixels are always enterable). Stepping onto a pixel costs its
// euclidean length divided by |div| + 0.001, so strong curvature is cheap.
// When a front reaches a pixel owned by another source the pair is
// recorded, keeping the cheapest meeting per pair; fronts never overwrite
// each other.
func Build(hm *heightmap.Heightmap, div []float64, walkable []bool, vertices []mesh.Vertex) *Graph {
	w, h := hm.Width, hm.Height
	n := w * h
	log := logging.Stage("skeleton_graph")

	source := make([]int, n)
	cost := make([]float64, n)
	pred := make([]int, n)
	for i := range n {
		source[i] = mesh.None
		cost[i] = math.Inf(1)
		pred[i] = mesh.None
	}

	q := pqueue.New(len(vertices))
	for v := range vertices {
		i := pixelOf(vertices[v], w)
		source[i] = v
		cost[i] = 0
		q.Push(0, i)
	}

	cands := make(map[[2]int]candidate)
	for q.Len() > 0 {
		cur := q.Pop()
		if cur.Cost > cost[cur.Index] {
			continue
		}
		src := source[cur.Index]
		px, py := cur.Index%w, cur.Index/w

		for d := range 8 {
			nx, ny := px+dx8[d], py+dy8[d]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			ni := ny*w + nx
			if !walkable[ni] && source[ni] < 0 {
				continue
			}

			step := dist8[d] / (math.Abs(div[ni]) + stepEpsilon)
			if other := source[ni]; other >= 0 && other != src {
				total := cur.Cost + cost[ni] + step
				key := [2]int{min(src, other), max(src, other)}
				if c, ok := cands[key]; !ok || total < c.cost {
					cands[key] = candidate{cost: total, meetA: cur.Index, meetB: ni}
				}
				continue
			}

			if nc := cur.Cost + step; nc < cost[ni] {
				cost[ni] = nc
				source[ni] = src
				pred[ni] = cur.Index
				q.Push(nc, ni)
			}
		}
	}
	log.Debug("edge candidates", "count", len(cands))

	keys := make([][2]int, 0, len(cands))
	for k := range cands {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b [2]int) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})

	g := &Graph{Paths: make([]Path, 0, len(keys))}
	for _, k := range keys {
		c := cands[k]
		pixels := backtrack(pred, c.meetA)
		slices.Reverse(pixels)
		pixels = append(pixels, backtrack(pred, c.meetB)...)
		g.Paths = append(g.Paths, Path{
			A:      k[0],
			B:      k[1],
			Cost:   c.cost,
			Type:   classify(div, pixels),
			Pixels: pixels,
		})
	}

	g.expand(hm, div, vertices)
	log.Debug("expanded",
		"vertices", len(g.Vertices), "input", len(vertices),
		"path", len(g.Vertices)-len(vertices), "edges", len(g.Edges))
	return g
}

func pixelOf(v mesh.Vertex, w int) int {
	return int(v.Pos.Y)*w + int(v.Pos.X)
}

func pos(x, y int) r2.Vec { return r2.Vec{X: float64(x), Y: float64(y)} }

// backtrack follows predecessors from p back to its seed, inclusive.
func backtrack(pred []int, p int) []int {
	var out []int
	for ; p >= 0; p = pred[p] {
		out = append(out, p)
	}
	return out
}

// classify votes by divergence sign: negative pixels count as ridge,
// positive as valley. Ties go to ridge.
func classify(div []float64, pixels []int) mesh.EdgeType {
	var ridge, valley int
	for _, p := range pixels {
		switch {
		case div[p] < 0:
			ridge++
		case div[p] > 0:
			valley++
		}
	}
	if ridge >= valley {
		return mesh.Ridge
	}
	return mesh.Valley
}

// expand turns every path pixel into a vertex, reusing the input vertex
// at a pixel where one exists, and joins consecutive pixels with edges
// deduplicated by unordered vertex pair.
func (g *Graph) expand(hm *heightmap.Heightmap, div []float64, vertices []mesh.Vertex) {
	w := hm.Width
	g.Vertices = append([]mesh.Vertex(nil), vertices...)

	byPixel := make(map[int]int, len(vertices))
	for v := range g.Vertices {
		byPixel[pixelOf(g.Vertices[v], w)] = v
	}

	vertexAt := func(p int) int {
		if v, ok := byPixel[p]; ok {
			return v
		}
		x, y := hm.Coords(p)
		v := len(g.Vertices)
		g.Vertices = append(g.Vertices, mesh.Vertex{
			Pos:        pos(x, y),
			Height:     hm.Data[p],
			Divergence: div[p],
			Type:       mesh.Path,
			Edge:       mesh.None,
		})
		byPixel[p] = v
		return v
	}

	seen := make(map[[2]int]struct{})
	for _, path := range g.Paths {
		for i := 0; i+1 < len(path.Pixels); i++ {
			va := vertexAt(path.Pixels[i])
			vb := vertexAt(path.Pixels[i+1])
			if va == vb {
				continue
			}
			key := [2]int{min(va, vb), max(va, vb)}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			g.Edges = append(g.Edges, mesh.Edge{V0: key[0], V1: key[1], Type: path.Type})
		}
	}
}
