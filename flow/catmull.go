package flow

import (
	"github.com/gogpu/ridgemesh/heightmap"
	"github.com/gogpu/ridgemesh/mesh"
	"gonum.org/v1/gonum/spatial/r2"
)

// continuation returns the destination of the outgoing half-edge at the
// origin of he (he itself excluded) that points closest to ref, or
// mesh.None if the origin has no other edge.
func continuation(m *mesh.Mesh, he int, ref r2.Vec) int {
	best, bestAlign := mesh.None, -2.0
	origin := m.Vertices[m.HalfEdges[he].Origin].Pos
	for cur := m.NextAroundVertex(he); cur != he && cur != mesh.None; cur = m.NextAroundVertex(cur) {
		d := m.Dest(cur)
		v := r2.Sub(m.Vertices[d].Pos, origin)
		if n := r2.Norm(v); n > 1e-6 {
			if a := r2.Dot(v, ref) / n; a > bestAlign {
				best, bestAlign = d, a
			}
		}
	}
	return best
}

// CatmullRomTangent returns the unit tangent of the Catmull-Rom spline
// through the chain around half-edge he, evaluated where p projects onto
// the edge. The outer control points are the best-aligned neighbours at
// either end; a chain end reflects the edge instead. A degenerate
// derivative falls back to the edge tangent. he == mesh.None yields the
// zero vector.
func CatmullRomTangent(m *mesh.Mesh, he int, p r2.Vec) r2.Vec {
	if he < 0 {
		return r2.Vec{}
	}
	e := &m.HalfEdges[he]
	p1 := m.Vertices[e.Origin].Pos
	p2 := m.Vertices[m.Dest(he)].Pos

	p0 := r2.Sub(r2.Scale(2, p1), p2)
	if v := continuation(m, he, r2.Scale(-1, e.Tangent)); v != mesh.None {
		p0 = m.Vertices[v].Pos
	}
	p3 := r2.Sub(r2.Scale(2, p2), p1)
	if v := continuation(m, e.Twin, e.Tangent); v != mesh.None {
		p3 = m.Vertices[v].Pos
	}

	edge := r2.Sub(p2, p1)
	t := 0.5
	if l2 := r2.Dot(edge, edge); l2 >= 1e-6 {
		t = min(max(r2.Dot(r2.Sub(p, p1), edge)/l2, 0), 1)
	}

	t2 := t * t
	b0 := -3*t2 + 4*t - 1
	b1 := 9*t2 - 10*t
	b2 := -9*t2 + 8*t + 1
	b3 := 3*t2 - 2*t
	d := r2.Scale(0.5, r2.Add(
		r2.Add(r2.Scale(b0, p0), r2.Scale(b1, p1)),
		r2.Add(r2.Scale(b2, p2), r2.Scale(b3, p3)),
	))
	if n := r2.Norm(d); n > 1e-6 {
		return r2.Scale(1/n, d)
	}
	return e.Tangent
}

// Blend combines both passes into one signed direction per pixel. Each
// pass contributes the Catmull-Rom tangent of its winning edge, flipped
// to agree with the propagated direction and weighted by 1/(cost+1).
// Pixels with height 0 are treated as no data and left zero.
func Blend(m *mesh.Mesh, hm *heightmap.Heightmap, f *Field) ([]r2.Vec, error) {
	if err := hm.Validate(); err != nil {
		return nil, err
	}
	if f.Width() != hm.Width || f.Height() != hm.Height ||
		f.Downhill.Width != hm.Width || f.Downhill.Height != hm.Height {
		return nil, ErrSizeMismatch
	}

	out := make([]r2.Vec, hm.Len())
	for i, h := range hm.Data {
		if h == 0 {
			continue
		}
		p := r2.Vec{X: float64(i % hm.Width), Y: float64(i / hm.Width)}
		sum := r2.Add(contribution(m, f.Uphill, i, p), contribution(m, f.Downhill, i, p))
		if n := r2.Norm(sum); n > 1e-8 {
			out[i] = r2.Scale(1/n, sum)
		}
	}
	return out, nil
}

func contribution(m *mesh.Mesh, pass *Pass, i int, p r2.Vec) r2.Vec {
	if !pass.Reached(i) {
		return r2.Vec{}
	}
	t := CatmullRomTangent(m, pass.Edge[i], p)
	if r2.Dot(t, pass.Dir[i]) < 0 {
		t = r2.Scale(-1, t)
	}
	if n := r2.Norm(t); n > 1e-6 {
		return r2.Scale(1/(n*(pass.Cost[i]+1)), t)
	}
	return r2.Vec{}
}
