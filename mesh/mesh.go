// Package mesh implements the half-edge (DCEL) mesh that carries ridge and
// valley lines.
//
// All records live in flat slices and refer to each other by index. None
// (-1) marks a missing reference. A stage that changes topology builds a
// new Mesh with Build instead of patching an existing one, so face ids,
// features and energies are always consistent with the half-edges they
// were computed from.
package mesh

import (
	"errors"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r2"
)

// None marks a missing vertex, half-edge or feature reference.
const None = -1

// Mesh errors.
var (
	// ErrInvalidEdge is returned when an edge references a vertex outside
	// the vertex slice.
	ErrInvalidEdge = errors.New("mesh: edge references missing vertex")

	// ErrInvariant is returned by Validate when a structural invariant
	// does not hold.
	ErrInvariant = errors.New("mesh: invariant violated")
)

// VertexType classifies a vertex. Lower values are more important when
// vertices are merged.
type VertexType uint8

// Vertex types.
const (
	Maximum VertexType = iota
	Minimum
	Junction
	Endpoint
	Path // intermediate raster pixel along an edge
)

// String returns a short name for the vertex type.
func (t VertexType) String() string {
	switch t {
	case Maximum:
		return "max"
	case Minimum:
		return "min"
	case Junction:
		return "junction"
	case Endpoint:
		return "endpoint"
	case Path:
		return "path"
	default:
		return "unknown"
	}
}

// EdgeType tells ridges from valleys.
type EdgeType uint8

// Edge types.
const (
	Ridge EdgeType = iota
	Valley
)

// String returns "ridge" or "valley".
func (t EdgeType) String() string {
	if t == Ridge {
		return "ridge"
	}
	return "valley"
}

// FeatureType tells whether a face cycle closed on itself.
type FeatureType uint8

// Feature types.
const (
	Closed FeatureType = iota
	Open
)

// String returns "closed" or "open".
func (t FeatureType) String() string {
	if t == Closed {
		return "closed"
	}
	return "open"
}

// FaceID is the face a half-edge belongs to: a feature index (>= 0),
// FaceUnvisited, or FaceInfinite.
type FaceID int

// Face sentinels.
const (
	FaceUnvisited FaceID = -1
	FaceInfinite  FaceID = -2
)

// IsFeature reports whether the face indexes Mesh.Features.
func (f FaceID) IsFeature() bool { return f >= 0 }

// Vertex is a mesh vertex.
type Vertex struct {
	Pos        r2.Vec
	Height     float64
	Divergence float64
	Type       VertexType
	Edge       int // any outgoing half-edge, or None if isolated
}

// HalfEdge is one oriented side of an undirected edge.
type HalfEdge struct {
	Origin  int
	Twin    int
	Next    int
	Prev    int
	Face    FaceID
	Type    EdgeType
	Tangent r2.Vec // unit direction origin -> destination, zero if degenerate
	Energy  float64
	Length  float64
}

// InsideNormal returns the unit normal pointing into the face the
// half-edge bounds (see Cycle for the orientation convention).
func (he *HalfEdge) InsideNormal() r2.Vec {
	return r2.Vec{X: he.Tangent.Y, Y: -he.Tangent.X}
}

// Feature describes one bounded face cycle.
type Feature struct {
	Type      FeatureType
	FirstEdge int
	EdgeCount int
	Parent    int // smallest enclosing closed feature, or None
	Bounds    orb.Bound
	Area      float64 // signed shoelace area; positive for bounded faces
}

// Edge is an undirected edge between two vertices.
type Edge struct {
	V0, V1 int
	Type   EdgeType
}

// Mesh is the vertex, half-edge and feature arena.
type Mesh struct {
	Vertices  []Vertex
	HalfEdges []HalfEdge
	Features  []Feature
}

// Clone returns a deep copy of m.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices:  append([]Vertex(nil), m.Vertices...),
		HalfEdges: append([]HalfEdge(nil), m.HalfEdges...),
		Features:  append([]Feature(nil), m.Features...),
	}
}

// Dest returns the destination vertex of half-edge he.
func (m *Mesh) Dest(he int) int {
	return m.HalfEdges[m.HalfEdges[he].Twin].Origin
}

// NextAroundVertex returns the next outgoing half-edge around the origin
// of he in counter-clockwise order.
func (m *Mesh) NextAroundVertex(he int) int {
	return m.HalfEdges[m.HalfEdges[he].Twin].Next
}

// Canonical returns the energy-bearing half-edge of the pair containing
// he: he itself unless its twin carries strictly more energy.
func (m *Mesh) Canonical(he int) int {
	tw := m.HalfEdges[he].Twin
	if m.HalfEdges[he].Energy >= m.HalfEdges[tw].Energy {
		return he
	}
	return tw
}

// Midpoint returns the midpoint of half-edge he.
func (m *Mesh) Midpoint(he int) r2.Vec {
	a := m.Vertices[m.HalfEdges[he].Origin].Pos
	b := m.Vertices[m.Dest(he)].Pos
	return r2.Scale(0.5, r2.Add(a, b))
}

// Outgoing returns the outgoing half-edges of v in counter-clockwise
// order, starting at the vertex's stored edge.
func (m *Mesh) Outgoing(v int) []int {
	first := m.Vertices[v].Edge
	if first == None {
		return nil
	}
	out := []int{first}
	for he := m.NextAroundVertex(first); he != first && he != None; he = m.NextAroundVertex(he) {
		out = append(out, he)
		if len(out) > len(m.HalfEdges) {
			break
		}
	}
	return out
}

// Degree returns the number of distinct neighbours of v.
func (m *Mesh) Degree(v int) int {
	seen := make(map[int]struct{})
	for _, he := range m.Outgoing(v) {
		seen[m.Dest(he)] = struct{}{}
	}
	return len(seen)
}

// UndirectedEdges returns one Edge per twin pair, in half-edge order.
func (m *Mesh) UndirectedEdges() []Edge {
	edges := make([]Edge, 0, len(m.HalfEdges)/2)
	for i := range m.HalfEdges {
		he := &m.HalfEdges[i]
		if he.Twin < i {
			continue
		}
		edges = append(edges, Edge{V0: he.Origin, V1: m.HalfEdges[he.Twin].Origin, Type: he.Type})
	}
	return edges
}
