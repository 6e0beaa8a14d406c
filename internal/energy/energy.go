// Package energy assigns a confidence value to every ridge and valley
// half-edge and picks one canonical direction per edge.
//
// Half-edges are grouped into chains: maximal runs of same-typed edges
// joined at degree-2 Path vertices. Along a chain, energy is the edge
// length accumulated in both directions and damped by the turn between
// consecutive edges. The half-edge pointing along the chain gets the
// energy and its twin gets zero.
package energy

import (
	"math"

	"github.com/gogpu/ridgemesh/internal/logging"
	"github.com/gogpu/ridgemesh/mesh"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// Defaults used for non-positive Config fields.
const (
	DefaultValleyFactor   = 0.3
	DefaultAlignThreshold = 0.3
)

const ridgeFactor = 1.0

// Config controls propagation.
type Config struct {
	// ValleyFactor scales the per-length seed of valley chains relative to
	// ridges.
	ValleyFactor float64

	// AlignThreshold is the minimum |cos| between a valley edge and its
	// nearest ridge edge for energy to transfer.
	AlignThreshold float64
}

func (c Config) withDefaults() Config {
	if c.ValleyFactor <= 0 {
		c.ValleyFactor = DefaultValleyFactor
	}
	if c.AlignThreshold <= 0 {
		c.AlignThreshold = DefaultAlignThreshold
	}
	return c
}

// Propagate returns a copy of m with half-edge energies assigned. m must
// have its features extracted: the ridge to valley transfer looks up
// ridges through the faces a valley edge borders.
//
// Ridge chains are seeded with their length, valley chains with length
// times ValleyFactor. Each valley edge then picks the nearest ridge edge
// (by midpoint) among the features on either side; if the two are aligned
// the ridge passes on energy/(distance+1) scaled by the alignment, and the
// valley chains are propagated again with that transfer added to their
// seeds.
func Propagate(m *mesh.Mesh, cfg Config) *mesh.Mesh {
	cfg = cfg.withDefaults()
	out := m.Clone()
	for i := range out.HalfEdges {
		out.HalfEdges[i].Energy = 0
	}
	p := &propagator{m: out}
	log := logging.Stage("ridge_energy")

	nr := p.propagate(mesh.Ridge, ridgeFactor, nil)
	nv := p.propagate(mesh.Valley, cfg.ValleyFactor, nil)
	log.Debug("chains", "ridge", nr, "valley", nv)
	logStats("chain propagation", out)

	bonus, assigned, unassigned := p.transfer(cfg.AlignThreshold)
	log.Debug("transfer", "assigned", assigned, "unassigned", unassigned, "features", len(out.Features))

	p.propagate(mesh.Valley, cfg.ValleyFactor, bonus)
	logStats("final", out)
	return out
}

type propagator struct {
	m *mesh.Mesh
}

// continuation returns the half-edge that continues the chain of he past
// its destination, or None at a chain end.
func (p *propagator) continuation(he int) int {
	m := p.m
	tw := m.HalfEdges[he].Twin
	return p.across(tw, m.HalfEdges[he].Type)
}

// across returns the other outgoing half-edge at the origin of out if that
// origin is a degree-2 Path vertex and the edge has type t, else None.
func (p *propagator) across(out int, t mesh.EdgeType) int {
	m := p.m
	v := m.HalfEdges[out].Origin
	if m.Vertices[v].Type != mesh.Path {
		return mesh.None
	}
	other := m.NextAroundVertex(out)
	if other == out || m.NextAroundVertex(other) != out {
		return mesh.None
	}
	if m.HalfEdges[other].Type != t {
		return mesh.None
	}
	return other
}

// chainFrom walks backward from he to the start of its chain and returns
// the chain's half-edges in forward order.
func (p *propagator) chainFrom(he int, visited []bool) []int {
	m := p.m
	t := m.HalfEdges[he].Type
	start := he
	for {
		other := p.across(start, t)
		if other == mesh.None {
			break
		}
		prev := m.HalfEdges[other].Twin
		if prev == he || visited[prev] {
			break
		}
		start = prev
	}

	chain := []int{start}
	for cur := start; ; {
		next := p.continuation(cur)
		if next == mesh.None || next == start {
			break
		}
		chain = append(chain, next)
		cur = next
		if len(chain) > len(m.HalfEdges) {
			break
		}
	}
	return chain
}

// propagate assigns energy along every chain of type t and returns the
// number of chains. A non-nil bonus holds transferred energy per
// half-edge: a chain is then oriented toward the side that received more
// of it, and each position's seed includes the bonus of its half-edge.
func (p *propagator) propagate(t mesh.EdgeType, factor float64, bonus []float64) int {
	m := p.m
	visited := make([]bool, len(m.HalfEdges))
	chains := 0

	for hi := range m.HalfEdges {
		if m.HalfEdges[hi].Type != t || visited[hi] {
			continue
		}
		chain := p.chainFrom(hi, visited)
		for _, he := range chain {
			visited[he] = true
			visited[m.HalfEdges[he].Twin] = true
		}
		if bonus != nil {
			chain = p.orient(chain, bonus)
		}

		n := len(chain)
		seed := make([]float64, n)
		for i, he := range chain {
			seed[i] = m.HalfEdges[he].Length * factor
			if bonus != nil {
				seed[i] += bonus[he]
			}
		}

		fwd := make([]float64, n)
		fwd[0] = seed[0]
		for i := 1; i < n; i++ {
			fwd[i] = seed[i] + p.carry(chain[i-1], chain[i], fwd[i-1])
		}
		bwd := make([]float64, n)
		bwd[n-1] = seed[n-1]
		for i := n - 2; i >= 0; i-- {
			bwd[i] = seed[i] + p.carry(chain[i+1], chain[i], bwd[i+1])
		}

		for i, he := range chain {
			m.HalfEdges[he].Energy = max(fwd[i], bwd[i])
			m.HalfEdges[m.HalfEdges[he].Twin].Energy = 0
		}
		chains++
	}
	return chains
}

// carry returns the share of energy e that flows from half-edge from into
// half-edge to: e scaled by the cosine of the turn, or zero past 90 degrees.
func (p *propagator) carry(from, to int, e float64) float64 {
	dot := r2.Dot(p.m.HalfEdges[from].Tangent, p.m.HalfEdges[to].Tangent)
	if dot > 0 {
		return e * dot
	}
	return 0
}

// orient reverses chain onto its twins when the twins received more
// transferred energy. Ties keep the traced direction.
func (p *propagator) orient(chain []int, bonus []float64) []int {
	var along, against float64
	for _, he := range chain {
		along += bonus[he]
		against += bonus[p.m.HalfEdges[he].Twin]
	}
	if against <= along {
		return chain
	}
	rev := make([]int, len(chain))
	for i, he := range chain {
		rev[len(chain)-1-i] = p.m.HalfEdges[he].Twin
	}
	return rev
}

type ridgeMid struct {
	mid r2.Vec
	he  int
}

// transfer matches every valley edge to the nearest energised ridge
// half-edge on the features it borders and returns the energy each valley
// half-edge receives.
func (p *propagator) transfer(alignThreshold float64) (bonus []float64, assigned, unassigned int) {
	m := p.m
	nf := len(m.Features)
	bonus = make([]float64, len(m.HalfEdges))

	byFace := make([][]ridgeMid, nf)
	for i := range m.HalfEdges {
		he := &m.HalfEdges[i]
		if he.Type != mesh.Ridge || he.Energy <= 0 {
			continue
		}
		rm := ridgeMid{mid: m.Midpoint(i), he: i}
		f0, f1 := he.Face, m.HalfEdges[he.Twin].Face
		if f0.IsFeature() && int(f0) < nf {
			byFace[f0] = append(byFace[f0], rm)
		}
		if f1.IsFeature() && int(f1) < nf && f1 != f0 {
			byFace[f1] = append(byFace[f1], rm)
		}
	}

	for i := range m.HalfEdges {
		he := &m.HalfEdges[i]
		if he.Type != mesh.Valley || he.Twin < i {
			continue
		}
		vm := m.Midpoint(i)

		best, bestD2 := mesh.None, math.Inf(1)
		faces := []mesh.FaceID{he.Face, m.HalfEdges[he.Twin].Face}
		if faces[1] == faces[0] {
			faces = faces[:1]
		}
		for _, f := range faces {
			if !f.IsFeature() || int(f) >= nf {
				continue
			}
			for _, r := range byFace[f] {
				d := r2.Sub(vm, r.mid)
				if d2 := r2.Dot(d, d); d2 < bestD2 {
					best, bestD2 = r.he, d2
				}
			}
		}
		if best == mesh.None {
			unassigned++
			continue
		}

		ridge := &m.HalfEdges[best]
		dot := r2.Dot(he.Tangent, ridge.Tangent)
		if math.Abs(dot) < alignThreshold {
			unassigned++
			continue
		}

		amount := ridge.Energy * math.Abs(dot) / (math.Sqrt(bestD2) + 1)
		target := i
		if dot <= 0 {
			target = he.Twin
		}
		if amount > m.HalfEdges[target].Energy {
			bonus[target] = max(bonus[target], amount)
		}
		assigned++
	}
	return bonus, assigned, unassigned
}

func logStats(phase string, m *mesh.Mesh) {
	var ridge, valley []float64
	for _, he := range m.HalfEdges {
		if he.Energy <= 0 {
			continue
		}
		if he.Type == mesh.Ridge {
			ridge = append(ridge, he.Energy)
		} else {
			valley = append(valley, he.Energy)
		}
	}
	maxOf := func(s []float64) float64 {
		if len(s) == 0 {
			return 0
		}
		return floats.Max(s)
	}
	logging.Stage("ridge_energy").Debug(phase,
		"ridge", len(ridge), "ridge_max", maxOf(ridge),
		"valley", len(valley), "valley_max", maxOf(valley))
}
