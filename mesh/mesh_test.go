package mesh

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func vertsAt(pts ...r2.Vec) []Vertex {
	vs := make([]Vertex, len(pts))
	for i, p := range pts {
		vs[i] = Vertex{Pos: p, Type: Junction}
	}
	return vs
}

func mustBuild(t *testing.T, vs []Vertex, edges []Edge) *Mesh {
	t.Helper()
	m, err := Build(vs, edges)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return m
}

// triangle returns a right triangle with legs of length 2.
func triangle(t *testing.T) *Mesh {
	return mustBuild(t,
		vertsAt(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 2, Y: 0}, r2.Vec{X: 0, Y: 2}),
		[]Edge{{0, 1, Ridge}, {1, 2, Ridge}, {2, 0, Ridge}})
}

// squareWithHole returns a 4x4 square holding a 1x1 square, joined to the
// outer corner (0,0) by a bridge edge.
func squareWithHole(t *testing.T) *Mesh {
	return mustBuild(t,
		vertsAt(
			r2.Vec{X: 0, Y: 0}, r2.Vec{X: 4, Y: 0}, r2.Vec{X: 4, Y: 4}, r2.Vec{X: 0, Y: 4},
			r2.Vec{X: 1, Y: 1}, r2.Vec{X: 2, Y: 1}, r2.Vec{X: 2, Y: 2}, r2.Vec{X: 1, Y: 2},
		),
		[]Edge{
			{0, 1, Ridge}, {1, 2, Ridge}, {2, 3, Ridge}, {3, 0, Ridge},
			{4, 5, Valley}, {5, 6, Valley}, {6, 7, Valley}, {7, 4, Valley},
			{0, 4, Ridge},
		})
}

func TestBuildSingleEdge(t *testing.T) {
	m := mustBuild(t,
		vertsAt(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 3, Y: 0}),
		[]Edge{{0, 1, Ridge}})

	if len(m.HalfEdges) != 2 {
		t.Fatalf("len(HalfEdges) = %d, want 2", len(m.HalfEdges))
	}
	if m.HalfEdges[0].Twin != 1 || m.HalfEdges[1].Twin != 0 {
		t.Errorf("twins = (%d, %d), want (1, 0)", m.HalfEdges[0].Twin, m.HalfEdges[1].Twin)
	}
	if got := m.HalfEdges[0].Tangent; got != (r2.Vec{X: 1, Y: 0}) {
		t.Errorf("Tangent = %v, want (1, 0)", got)
	}
	if got := m.HalfEdges[1].Tangent; got != (r2.Vec{X: -1, Y: 0}) {
		t.Errorf("twin Tangent = %v, want (-1, 0)", got)
	}
	if got := m.HalfEdges[0].Length; got != 3 {
		t.Errorf("Length = %v, want 3", got)
	}
	if m.Dest(0) != 1 || m.Dest(1) != 0 {
		t.Errorf("Dest = (%d, %d), want (1, 0)", m.Dest(0), m.Dest(1))
	}
	// A lone edge forms one face cycle going out and back.
	if m.HalfEdges[0].Next != 1 || m.HalfEdges[1].Next != 0 {
		t.Errorf("Next = (%d, %d), want (1, 0)", m.HalfEdges[0].Next, m.HalfEdges[1].Next)
	}
	if err := Validate(m); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestBuildInvalidEdge(t *testing.T) {
	_, err := Build(vertsAt(r2.Vec{}), []Edge{{0, 3, Ridge}})
	if !errors.Is(err, ErrInvalidEdge) {
		t.Errorf("Build() error = %v, want ErrInvalidEdge", err)
	}
}

func TestBuildIsolatedVertex(t *testing.T) {
	m := mustBuild(t, vertsAt(r2.Vec{}, r2.Vec{X: 1}, r2.Vec{X: 5, Y: 5}), []Edge{{0, 1, Ridge}})
	if got := m.Vertices[2].Edge; got != None {
		t.Errorf("isolated Vertex.Edge = %d, want None", got)
	}
	if got := m.Outgoing(2); got != nil {
		t.Errorf("Outgoing(isolated) = %v, want nil", got)
	}
}

func TestOutgoingOrder(t *testing.T) {
	m := squareWithHole(t)

	// Corner (0,0) has edges towards (4,0), (1,1) and (0,4), at 0, 45 and
	// 90 degrees.
	out := m.Outgoing(0)
	if len(out) != 3 {
		t.Fatalf("len(Outgoing(0)) = %d, want 3", len(out))
	}
	want := []int{1, 4, 3}
	for i, he := range out {
		if got := m.Dest(he); got != want[i] {
			t.Errorf("Outgoing(0)[%d] dest = %d, want %d", i, got, want[i])
		}
	}
	if got := m.Degree(0); got != 3 {
		t.Errorf("Degree(0) = %d, want 3", got)
	}
	if got := m.Degree(5); got != 2 {
		t.Errorf("Degree(5) = %d, want 2", got)
	}
}

func TestFaceCyclesTriangle(t *testing.T) {
	m := triangle(t)
	cycles := m.FaceCycles()
	if len(cycles) != 2 {
		t.Fatalf("len(FaceCycles()) = %d, want 2", len(cycles))
	}

	var pos, neg int
	for _, c := range cycles {
		if !c.Closed {
			t.Errorf("cycle %v not closed", c.Edges)
		}
		if len(c.Edges) != 3 {
			t.Errorf("cycle length = %d, want 3", len(c.Edges))
		}
		switch {
		case math.Abs(c.Area-2) < 1e-12:
			pos++
		case math.Abs(c.Area+2) < 1e-12:
			neg++
		default:
			t.Errorf("cycle area = %v, want +-2", c.Area)
		}
	}
	if pos != 1 || neg != 1 {
		t.Errorf("areas: %d positive, %d negative; want one of each", pos, neg)
	}
}

func TestExtractFeaturesTriangle(t *testing.T) {
	m := ExtractFeatures(triangle(t))

	if len(m.Features) != 1 {
		t.Fatalf("len(Features) = %d, want 1", len(m.Features))
	}
	f := m.Features[0]
	if f.Type != Closed {
		t.Errorf("Type = %v, want closed", f.Type)
	}
	if f.EdgeCount != 3 {
		t.Errorf("EdgeCount = %d, want 3", f.EdgeCount)
	}
	if math.Abs(f.Area-2) > 1e-12 {
		t.Errorf("Area = %v, want 2", f.Area)
	}
	if f.Parent != None {
		t.Errorf("Parent = %d, want None", f.Parent)
	}
	if f.Bounds.Min[0] != 0 || f.Bounds.Min[1] != 0 || f.Bounds.Max[0] != 2 || f.Bounds.Max[1] != 2 {
		t.Errorf("Bounds = %v, want [0,0]-[2,2]", f.Bounds)
	}

	var infinite int
	for i := range m.HalfEdges {
		he := &m.HalfEdges[i]
		switch {
		case he.Face == FaceInfinite:
			infinite++
		case he.Face == 0:
			// The inside normal of a bounded face points into the triangle.
			p := r2.Add(m.Midpoint(i), r2.Scale(0.1, he.InsideNormal()))
			if p.X <= 0 || p.Y <= 0 || p.X+p.Y >= 2 {
				t.Errorf("half-edge %d: inside point %v outside triangle", i, p)
			}
		default:
			t.Errorf("half-edge %d Face = %d", i, he.Face)
		}
	}
	if infinite != 3 {
		t.Errorf("infinite half-edges = %d, want 3", infinite)
	}
	if err := Validate(m); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestExtractFeaturesOpenCycle(t *testing.T) {
	tests := []struct {
		name    string
		he      int
		next    int
		minOpen int
	}{
		{"missing next", 0, None, 1},
		{"next out of range", 0, 6, 1},
		{"self loop", 2, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := triangle(t)
			m.HalfEdges[tt.he].Next = tt.next

			cycles := m.FaceCycles()
			var open, total int
			for _, c := range cycles {
				if !c.Closed {
					open++
				}
				total += len(c.Edges)
			}
			if open == 0 {
				t.Errorf("FaceCycles() has no open cycle")
			}
			if total != len(m.HalfEdges) {
				t.Errorf("FaceCycles() covers %d half-edges, want %d", total, len(m.HalfEdges))
			}

			out := ExtractFeatures(m)
			var openFeatures, covered int
			for _, f := range out.Features {
				if f.Type == Open {
					openFeatures++
				}
				covered += f.EdgeCount
			}
			if openFeatures < tt.minOpen {
				t.Errorf("open features = %d, want at least %d", openFeatures, tt.minOpen)
			}
			for i := range out.HalfEdges {
				switch f := out.HalfEdges[i].Face; {
				case f == FaceUnvisited:
					t.Errorf("half-edge %d left unvisited", i)
				case f == FaceInfinite:
					covered++
				}
			}
			if covered != len(out.HalfEdges) {
				t.Errorf("faces cover %d half-edges, want %d", covered, len(out.HalfEdges))
			}
		})
	}
}

func TestFaceCyclesMissingNext(t *testing.T) {
	m := triangle(t)
	m.HalfEdges[0].Next = None
	c := m.FaceCycles()[0]
	if c.Closed || len(c.Edges) != 1 || c.Edges[0] != 0 {
		t.Errorf("FaceCycles()[0] = %+v, want open cycle [0]", c)
	}
}

func TestOuterCyclesRequireNonPositiveArea(t *testing.T) {
	m := triangle(t)
	cycles := m.FaceCycles()

	outer := m.OuterCycles(cycles)
	var n int
	for ci, o := range outer {
		if o {
			n++
			if cycles[ci].Area >= 0 {
				t.Errorf("outer cycle area = %v, want negative", cycles[ci].Area)
			}
		}
	}
	if n != 1 {
		t.Errorf("outer cycles = %d, want 1", n)
	}

	for i := range cycles {
		cycles[i].Area = math.Abs(cycles[i].Area)
	}
	for ci, o := range m.OuterCycles(cycles) {
		if o {
			t.Errorf("cycle %d with area %v marked outer, want none", ci, cycles[ci].Area)
		}
	}
}

func TestExtractFeaturesNesting(t *testing.T) {
	m := ExtractFeatures(squareWithHole(t))

	if len(m.Features) != 2 {
		t.Fatalf("len(Features) = %d, want 2", len(m.Features))
	}
	ring, hole := 0, 1
	if math.Abs(m.Features[0].Area) < math.Abs(m.Features[1].Area) {
		ring, hole = 1, 0
	}
	if got := m.Features[ring].Area; math.Abs(got-15) > 1e-9 {
		t.Errorf("ring Area = %v, want 15", got)
	}
	if got := m.Features[hole].Area; math.Abs(got-1) > 1e-9 {
		t.Errorf("hole Area = %v, want 1", got)
	}
	if got := m.Features[hole].Parent; got != ring {
		t.Errorf("hole Parent = %d, want %d", got, ring)
	}
	if got := m.Features[ring].Parent; got != None {
		t.Errorf("ring Parent = %d, want None", got)
	}
	// The ring walks the bridge in both directions.
	if got := m.Features[ring].EdgeCount; got != 10 {
		t.Errorf("ring EdgeCount = %d, want 10", got)
	}
	if err := Validate(m); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestExtractFeaturesDisconnected(t *testing.T) {
	m := ExtractFeatures(mustBuild(t,
		vertsAt(
			r2.Vec{X: 0, Y: 0}, r2.Vec{X: 2, Y: 0}, r2.Vec{X: 0, Y: 2},
			r2.Vec{X: 10, Y: 10}, r2.Vec{X: 16, Y: 10}, r2.Vec{X: 10, Y: 16},
		),
		[]Edge{
			{0, 1, Ridge}, {1, 2, Ridge}, {2, 0, Ridge},
			{3, 4, Valley}, {4, 5, Valley}, {5, 3, Valley},
		}))

	if len(m.Features) != 2 {
		t.Fatalf("len(Features) = %d, want 2", len(m.Features))
	}
	for i, f := range m.Features {
		if f.Area <= 0 {
			t.Errorf("feature %d Area = %v, want > 0", i, f.Area)
		}
		if f.Parent != None {
			t.Errorf("feature %d Parent = %d, want None", i, f.Parent)
		}
	}
	var infinite int
	for _, he := range m.HalfEdges {
		if he.Face == FaceInfinite {
			infinite++
		}
	}
	if infinite != 6 {
		t.Errorf("infinite half-edges = %d, want 6", infinite)
	}
}

func TestExtractFeaturesTree(t *testing.T) {
	m := ExtractFeatures(mustBuild(t,
		vertsAt(r2.Vec{}, r2.Vec{X: 1}, r2.Vec{X: 2}, r2.Vec{X: 1, Y: 1}),
		[]Edge{{0, 1, Ridge}, {1, 2, Ridge}, {1, 3, Valley}}))

	if len(m.Features) != 0 {
		t.Errorf("len(Features) = %d, want 0", len(m.Features))
	}
	for i, he := range m.HalfEdges {
		if he.Face != FaceInfinite {
			t.Errorf("half-edge %d Face = %d, want FaceInfinite", i, he.Face)
		}
	}
}

func TestExtractFeaturesDoesNotModifyInput(t *testing.T) {
	in := triangle(t)
	_ = ExtractFeatures(in)
	for i, he := range in.HalfEdges {
		if he.Face != FaceUnvisited {
			t.Errorf("input half-edge %d Face = %d, want FaceUnvisited", i, he.Face)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(m *Mesh)
	}{
		{"twin", func(m *Mesh) { m.HalfEdges[0].Twin = 2 }},
		{"next", func(m *Mesh) { m.HalfEdges[m.HalfEdges[0].Prev].Next = m.HalfEdges[0].Next }},
		{"energy", func(m *Mesh) {
			m.HalfEdges[0].Energy = 1
			m.HalfEdges[1].Energy = 1
		}},
		{"parent", func(m *Mesh) {
			m.Features = append(m.Features, m.Features[0])
			m.Features[0].Parent = 1
			m.Features[1].Parent = 0
		}},
		{"edge count", func(m *Mesh) { m.Features[0].EdgeCount = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ExtractFeatures(triangle(t))
			if err := Validate(m); err != nil {
				t.Fatalf("Validate() before corruption = %v", err)
			}
			tt.corrupt(m)
			if err := Validate(m); !errors.Is(err, ErrInvariant) {
				t.Errorf("Validate() = %v, want ErrInvariant", err)
			}
		})
	}
}

func TestUndirectedEdges(t *testing.T) {
	m := squareWithHole(t)
	edges := m.UndirectedEdges()
	if len(edges) != 9 {
		t.Fatalf("len(UndirectedEdges()) = %d, want 9", len(edges))
	}
	if e := edges[4]; e.V0 != 4 || e.V1 != 5 || e.Type != Valley {
		t.Errorf("edges[4] = %+v, want {4 5 valley}", e)
	}
}

func TestTypeStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Maximum.String(), "max"},
		{Path.String(), "path"},
		{VertexType(99).String(), "unknown"},
		{Ridge.String(), "ridge"},
		{Valley.String(), "valley"},
		{Open.String(), "open"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}
