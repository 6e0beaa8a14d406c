package mesh

import (
	"fmt"
	"math"
)

// Validate checks the structural invariants every stage relies on:
//
//   - twin(twin(he)) == he
//   - next(prev(he)) == he and prev(next(he)) == he where linked
//   - every half-edge of a closed feature returns to itself after exactly
//     EdgeCount Next steps
//   - feature parents are acyclic with strictly larger |Area|
//   - at most one half-edge of each twin pair carries energy
//
// The first violation is returned wrapped in ErrInvariant.
func Validate(m *Mesh) error {
	n := len(m.HalfEdges)
	valid := func(i int) bool { return i >= 0 && i < n }

	for i := range m.HalfEdges {
		he := &m.HalfEdges[i]
		if he.Origin < 0 || he.Origin >= len(m.Vertices) {
			return fmt.Errorf("%w: half-edge %d origin %d out of range", ErrInvariant, i, he.Origin)
		}
		if !valid(he.Twin) || he.Twin == i || m.HalfEdges[he.Twin].Twin != i {
			return fmt.Errorf("%w: half-edge %d twin symmetry", ErrInvariant, i)
		}
		if valid(he.Prev) && m.HalfEdges[he.Prev].Next != i {
			return fmt.Errorf("%w: next(prev(%d)) != %d", ErrInvariant, i, i)
		}
		if valid(he.Next) && m.HalfEdges[he.Next].Prev != i {
			return fmt.Errorf("%w: prev(next(%d)) != %d", ErrInvariant, i, i)
		}
		if tw := &m.HalfEdges[he.Twin]; min(he.Energy, tw.Energy) != 0 {
			return fmt.Errorf("%w: half-edges %d and %d both carry energy", ErrInvariant, i, he.Twin)
		}
	}

	for i := range m.HalfEdges {
		face := m.HalfEdges[i].Face
		if !face.IsFeature() {
			continue
		}
		if int(face) >= len(m.Features) {
			return fmt.Errorf("%w: half-edge %d face %d out of range", ErrInvariant, i, face)
		}
		f := &m.Features[face]
		if f.Type != Closed {
			continue
		}
		cur := i
		for step := 1; step <= f.EdgeCount; step++ {
			cur = m.HalfEdges[cur].Next
			if !valid(cur) {
				return fmt.Errorf("%w: face %d broken at half-edge %d", ErrInvariant, face, i)
			}
			if m.HalfEdges[cur].Face != face {
				return fmt.Errorf("%w: face %d leaks into face %d", ErrInvariant, face, m.HalfEdges[cur].Face)
			}
			if cur == i && step != f.EdgeCount {
				return fmt.Errorf("%w: face %d closes after %d of %d steps", ErrInvariant, face, step, f.EdgeCount)
			}
		}
		if cur != i {
			return fmt.Errorf("%w: face %d does not close from half-edge %d", ErrInvariant, face, i)
		}
	}

	for fi := range m.Features {
		seen := 0
		for cur := fi; m.Features[cur].Parent != None; cur = m.Features[cur].Parent {
			p := m.Features[cur].Parent
			if p < 0 || p >= len(m.Features) {
				return fmt.Errorf("%w: feature %d parent %d out of range", ErrInvariant, cur, p)
			}
			if math.Abs(m.Features[p].Area) <= math.Abs(m.Features[cur].Area) {
				return fmt.Errorf("%w: feature %d parent %d is not larger", ErrInvariant, cur, p)
			}
			if seen++; seen > len(m.Features) {
				return fmt.Errorf("%w: parent cycle through feature %d", ErrInvariant, fi)
			}
		}
	}
	return nil
}
