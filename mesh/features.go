package mesh

import (
	"context"
	"log/slog"
	"math"

	"github.com/gogpu/ridgemesh/internal/logging"
)

// ExtractFeatures discovers the face cycles of m and returns a copy with
// Face ids and Features filled in.
//
// Each component's outer cycle (see OuterCycles) is assigned FaceInfinite
// and produces no feature. Every other cycle becomes a feature in
// discovery order. A feature's parent is the smallest closed feature
// across its boundary that has strictly larger absolute area and whose
// bounds contain its own; the strict area order keeps the parent relation
// acyclic.
func ExtractFeatures(m *Mesh) *Mesh {
	out := m.Clone()
	out.Features = out.Features[:0]
	for i := range out.HalfEdges {
		out.HalfEdges[i].Face = FaceUnvisited
	}

	cycles := out.FaceCycles()
	outer := out.OuterCycles(cycles)

	var closed, open, infinite int
	var boundaries [][]int
	for ci := range cycles {
		c := &cycles[ci]
		if outer[ci] {
			for _, he := range c.Edges {
				out.HalfEdges[he].Face = FaceInfinite
			}
			infinite++
			continue
		}

		face := FaceID(len(out.Features))
		for _, he := range c.Edges {
			out.HalfEdges[he].Face = face
		}

		f := Feature{
			Type:      Closed,
			FirstEdge: c.Edges[0],
			EdgeCount: len(c.Edges),
			Parent:    None,
			Bounds:    c.Bounds(out),
			Area:      c.Area,
		}
		if !c.Closed {
			f.Type = Open
			open++
		} else {
			closed++
		}
		out.Features = append(out.Features, f)
		boundaries = append(boundaries, c.Edges)
	}

	out.assignParents(boundaries)

	logging.Stage("dcel_features").Debug("features",
		"features", len(out.Features), "closed", closed, "open", open, "infinite", infinite)
	logSizeDistribution(out)

	return out
}

// assignParents sets Feature.Parent. boundaries[i] lists the half-edges of
// feature i.
func (m *Mesh) assignParents(boundaries [][]int) {
	for fi := range m.Features {
		f := &m.Features[fi]
		area := math.Abs(f.Area)
		best := math.Inf(1)

		for _, he := range boundaries[fi] {
			tf := m.HalfEdges[m.HalfEdges[he].Twin].Face
			if tf.IsFeature() && int(tf) != fi {
				c := &m.Features[tf]
				ca := math.Abs(c.Area)
				if c.Type == Closed && ca > area && ca < best &&
					c.Bounds.Contains(f.Bounds.Min) && c.Bounds.Contains(f.Bounds.Max) {
					best = ca
					f.Parent = int(tf)
				}
			}
		}
	}
}

func logSizeDistribution(m *Mesh) {
	log := logging.Stage("dcel_features")
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	limits := []int{3, 8, 20, 50, math.MaxInt}
	counts := make([]int, len(limits))
	areas := make([]float64, len(limits))
	for _, f := range m.Features {
		for b, lim := range limits {
			if f.EdgeCount <= lim {
				counts[b]++
				areas[b] += math.Abs(f.Area)
				break
			}
		}
	}
	log.Debug("feature size distribution",
		"le3", counts[0], "le3_area", areas[0],
		"le8", counts[1], "le8_area", areas[1],
		"le20", counts[2], "le20_area", areas[2],
		"le50", counts[3], "le50_area", areas[3],
		"gt50", counts[4], "gt50_area", areas[4])
}
