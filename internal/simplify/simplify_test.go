package simplify

import (
	"math"
	"testing"

	"github.com/gogpu/ridgemesh/mesh"
	"gonum.org/v1/gonum/spatial/r2"
)

func build(t *testing.T, pts []r2.Vec, types []mesh.VertexType, edges []mesh.Edge) *mesh.Mesh {
	t.Helper()
	vs := make([]mesh.Vertex, len(pts))
	for i, p := range pts {
		vs[i] = mesh.Vertex{Pos: p, Height: float64(i), Type: mesh.Path}
		if types != nil {
			vs[i].Type = types[i]
		}
	}
	m, err := mesh.Build(vs, edges)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return m
}

func ring(n int, typ mesh.EdgeType) []mesh.Edge {
	edges := make([]mesh.Edge, n)
	for i := range n {
		edges[i] = mesh.Edge{V0: i, V1: (i + 1) % n, Type: typ}
	}
	return edges
}

func TestCollapseTriangle(t *testing.T) {
	m := build(t,
		[]r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 2}},
		[]mesh.VertexType{mesh.Path, mesh.Junction, mesh.Minimum},
		ring(3, mesh.Ridge))

	out, err := CollapseFaces(m, 4)
	if err != nil {
		t.Fatalf("CollapseFaces() error = %v", err)
	}
	if len(out.Vertices) != 1 {
		t.Fatalf("len(Vertices) = %d, want 1", len(out.Vertices))
	}
	if len(out.HalfEdges) != 0 {
		t.Errorf("len(HalfEdges) = %d, want 0", len(out.HalfEdges))
	}
	v := out.Vertices[0]
	want := r2.Vec{X: 2.0 / 3, Y: 2.0 / 3}
	if r2.Norm(r2.Sub(v.Pos, want)) > 1e-12 {
		t.Errorf("Pos = %v, want %v", v.Pos, want)
	}
	if v.Height != 1 {
		t.Errorf("Height = %v, want 1", v.Height)
	}
	if v.Type != mesh.Minimum {
		t.Errorf("Type = %v, want min", v.Type)
	}
	if v.Edge != mesh.None {
		t.Errorf("Edge = %d, want None", v.Edge)
	}
}

func TestCollapseKeepsLargeFaces(t *testing.T) {
	m := build(t,
		[]r2.Vec{
			{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 2},
			{X: 20, Y: 20}, {X: 30, Y: 20}, {X: 20, Y: 30},
		},
		nil,
		[]mesh.Edge{
			{V0: 0, V1: 1}, {V0: 1, V1: 2}, {V0: 2, V1: 0},
			{V0: 3, V1: 4, Type: mesh.Valley}, {V0: 4, V1: 5, Type: mesh.Valley}, {V0: 5, V1: 3, Type: mesh.Valley},
		})

	out, err := CollapseFaces(m, 4)
	if err != nil {
		t.Fatalf("CollapseFaces() error = %v", err)
	}
	if len(out.Vertices) != 4 {
		t.Errorf("len(Vertices) = %d, want 4", len(out.Vertices))
	}
	edges := out.UndirectedEdges()
	if len(edges) != 3 {
		t.Fatalf("len(edges) = %d, want 3", len(edges))
	}
	for _, e := range edges {
		if e.Type != mesh.Valley {
			t.Errorf("edge %+v type = %v, want valley", e, e.Type)
		}
	}
	if err := mesh.Validate(out); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestCollapseNothing(t *testing.T) {
	m := build(t, []r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 2}}, nil, ring(3, mesh.Ridge))
	out, err := CollapseFaces(m, 1)
	if err != nil {
		t.Fatalf("CollapseFaces() error = %v", err)
	}
	if out != m {
		t.Error("CollapseFaces() rebuilt a mesh with no tiny faces")
	}
}

func TestDecimateCollinear(t *testing.T) {
	m := build(t,
		[]r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}},
		[]mesh.VertexType{mesh.Endpoint, mesh.Path, mesh.Path, mesh.Endpoint},
		[]mesh.Edge{{V0: 0, V1: 1}, {V0: 1, V1: 2}, {V0: 2, V1: 3}})

	out, err := Decimate(m, 1)
	if err != nil {
		t.Fatalf("Decimate() error = %v", err)
	}
	if len(out.Vertices) != 2 {
		t.Fatalf("len(Vertices) = %d, want 2", len(out.Vertices))
	}
	if out.Vertices[0].Pos.X != 0 || out.Vertices[1].Pos.X != 3 {
		t.Errorf("survivors at %v and %v, want x=0 and x=3", out.Vertices[0].Pos, out.Vertices[1].Pos)
	}
	edges := out.UndirectedEdges()
	if len(edges) != 1 || edges[0].V0 != 0 || edges[0].V1 != 1 {
		t.Errorf("edges = %+v, want one edge 0-1", edges)
	}
	if got := out.HalfEdges[0].Length; got != 3 {
		t.Errorf("Length = %v, want 3", got)
	}
}

func TestDecimateSquareLoop(t *testing.T) {
	m := build(t,
		[]r2.Vec{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1},
			{X: 2, Y: 2}, {X: 1, Y: 2}, {X: 0, Y: 2}, {X: 0, Y: 1},
		},
		nil, ring(8, mesh.Valley))

	out, err := Decimate(m, 1)
	if err != nil {
		t.Fatalf("Decimate() error = %v", err)
	}
	if len(out.Vertices) != 4 {
		t.Fatalf("len(Vertices) = %d, want 4", len(out.Vertices))
	}
	for _, v := range out.Vertices {
		if (v.Pos.X != 0 && v.Pos.X != 2) || (v.Pos.Y != 0 && v.Pos.Y != 2) {
			t.Errorf("survivor %v is not a corner", v.Pos)
		}
	}
	edges := out.UndirectedEdges()
	if len(edges) != 4 {
		t.Errorf("len(edges) = %d, want 4", len(edges))
	}
	for _, e := range edges {
		if e.Type != mesh.Valley {
			t.Errorf("edge %+v type = %v, want valley", e, e.Type)
		}
	}
}

func TestDecimateMixedTypes(t *testing.T) {
	// A ridge run turns into a valley at (5,0), which survives RDP.
	chain := build(t,
		[]r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}},
		[]mesh.VertexType{mesh.Endpoint, mesh.Path, mesh.Path, mesh.Endpoint},
		[]mesh.Edge{
			{V0: 0, V1: 1, Type: mesh.Ridge},
			{V0: 1, V1: 2, Type: mesh.Ridge},
			{V0: 2, V1: 3, Type: mesh.Valley},
		})
	// A loop: ridge along the bottom and right, valley along the top and left.
	loop := build(t,
		[]r2.Vec{
			{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2},
			{X: 4, Y: 4}, {X: 2, Y: 4}, {X: 0, Y: 4}, {X: 0, Y: 2},
		},
		nil,
		[]mesh.Edge{
			{V0: 0, V1: 1, Type: mesh.Ridge}, {V0: 1, V1: 2, Type: mesh.Ridge},
			{V0: 2, V1: 3, Type: mesh.Ridge}, {V0: 3, V1: 4, Type: mesh.Ridge},
			{V0: 4, V1: 5, Type: mesh.Valley}, {V0: 5, V1: 6, Type: mesh.Valley},
			{V0: 6, V1: 7, Type: mesh.Valley}, {V0: 7, V1: 0, Type: mesh.Valley},
		})

	type seg struct{ a, b r2.Vec }
	tests := []struct {
		name string
		m    *mesh.Mesh
		want map[seg]mesh.EdgeType
	}{
		{"open chain", chain, map[seg]mesh.EdgeType{
			{r2.Vec{X: 0, Y: 0}, r2.Vec{X: 5, Y: 0}}: mesh.Ridge,
			{r2.Vec{X: 5, Y: 0}, r2.Vec{X: 5, Y: 5}}: mesh.Valley,
		}},
		{"closed loop", loop, map[seg]mesh.EdgeType{
			{r2.Vec{X: 0, Y: 0}, r2.Vec{X: 4, Y: 0}}: mesh.Ridge,
			{r2.Vec{X: 4, Y: 0}, r2.Vec{X: 4, Y: 4}}: mesh.Ridge,
			{r2.Vec{X: 4, Y: 4}, r2.Vec{X: 0, Y: 4}}: mesh.Valley,
			{r2.Vec{X: 0, Y: 4}, r2.Vec{X: 0, Y: 0}}: mesh.Valley,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decimate(tt.m, 1)
			if err != nil {
				t.Fatalf("Decimate() error = %v", err)
			}
			edges := out.UndirectedEdges()
			if len(edges) != len(tt.want) {
				t.Fatalf("len(edges) = %d, want %d", len(edges), len(tt.want))
			}
			for _, e := range edges {
				a, b := out.Vertices[e.V0].Pos, out.Vertices[e.V1].Pos
				want, ok := tt.want[seg{a, b}]
				if !ok {
					want, ok = tt.want[seg{b, a}]
				}
				if !ok {
					t.Errorf("unexpected edge %v-%v", a, b)
					continue
				}
				if e.Type != want {
					t.Errorf("edge %v-%v type = %v, want %v", a, b, e.Type, want)
				}
			}
		})
	}
}

func TestDecimateSmallLoop(t *testing.T) {
	m := build(t, []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}, nil, ring(3, mesh.Ridge))
	out, err := Decimate(m, 5)
	if err != nil {
		t.Fatalf("Decimate() error = %v", err)
	}
	if len(out.Vertices) != 3 || len(out.HalfEdges) != 6 {
		t.Errorf("mesh = %d vertices, %d half-edges; want 3, 6", len(out.Vertices), len(out.HalfEdges))
	}
}

func TestDecimateKeepsJunctions(t *testing.T) {
	// A T: a junction at (5,0) with three arms of collinear pixels.
	pts := []r2.Vec{{X: 5, Y: 0}}
	var edges []mesh.Edge
	arm := func(dx, dy float64) {
		prev := 0
		for k := 1; k <= 4; k++ {
			pts = append(pts, r2.Vec{X: 5 + dx*float64(k), Y: dy * float64(k)})
			edges = append(edges, mesh.Edge{V0: prev, V1: len(pts) - 1})
			prev = len(pts) - 1
		}
	}
	arm(1, 0)
	arm(-1, 0)
	arm(0, 1)
	m := build(t, pts, nil, edges)

	out, err := Decimate(m, 1)
	if err != nil {
		t.Fatalf("Decimate() error = %v", err)
	}
	if len(out.Vertices) != 4 {
		t.Fatalf("len(Vertices) = %d, want 4", len(out.Vertices))
	}
	if out.Vertices[0].Pos != (r2.Vec{X: 5, Y: 0}) {
		t.Errorf("Vertices[0] = %v, want the junction", out.Vertices[0].Pos)
	}
	if got := out.Degree(0); got != 3 {
		t.Errorf("junction degree = %d, want 3", got)
	}
}

// distToSegment returns the distance from p to segment ab.
func distToSegment(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return r2.Norm(r2.Sub(p, a))
	}
	t := math.Max(0, math.Min(1, r2.Dot(r2.Sub(p, a), ab)/l2))
	return r2.Norm(r2.Sub(p, r2.Add(a, r2.Scale(t, ab))))
}

func TestDecimateRDPBound(t *testing.T) {
	const eps = 1.5
	var pts []r2.Vec
	for i := range 40 {
		x := float64(i)
		y := 3*math.Sin(x/5) + 0.4*math.Sin(x*1.7)
		pts = append(pts, r2.Vec{X: x, Y: y})
	}
	types := make([]mesh.VertexType, len(pts))
	for i := range types {
		types[i] = mesh.Path
	}
	types[0], types[len(types)-1] = mesh.Endpoint, mesh.Endpoint
	edges := make([]mesh.Edge, len(pts)-1)
	for i := range edges {
		edges[i] = mesh.Edge{V0: i, V1: i + 1}
	}
	m := build(t, pts, types, edges)

	out, err := Decimate(m, eps)
	if err != nil {
		t.Fatalf("Decimate() error = %v", err)
	}
	if len(out.Vertices) >= len(pts) || len(out.Vertices) < 2 {
		t.Fatalf("len(Vertices) = %d, want 2..%d", len(out.Vertices), len(pts)-1)
	}

	// Survivors keep their x order along the chain.
	kept := make([]r2.Vec, len(out.Vertices))
	for i, v := range out.Vertices {
		kept[i] = v.Pos
	}
	for _, p := range pts {
		best := math.Inf(1)
		for i := 1; i < len(kept); i++ {
			if p.X >= kept[i-1].X && p.X <= kept[i].X {
				best = math.Min(best, distToSegment(p, kept[i-1], kept[i]))
			}
		}
		if best > eps+1e-9 {
			t.Errorf("point %v is %v from the simplified chain, want <= %v", p, best, eps)
		}
	}
	if err := mesh.Validate(mesh.ExtractFeatures(out)); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
