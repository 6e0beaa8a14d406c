// Package flow spreads the direction of mesh edges over the whole pixel
// grid.
//
// Every undirected edge is rasterized into seed pixels carrying the
// tangent of its energy-bearing half-edge. Two anisotropic Dijkstra passes
// then flood the grid from those seeds. The uphill pass makes climbing
// expensive, so ridge directions flow down the slopes. The downhill pass
// makes descending expensive, so valley directions flow up. Each pixel
// records the direction, cost, seed position, half-edge and terminal flag
// of the seed that reached it first.
package flow

import (
	"errors"
	"math"

	"github.com/gogpu/ridgemesh/heightmap"
	"github.com/gogpu/ridgemesh/internal/logging"
	"github.com/gogpu/ridgemesh/internal/pqueue"
	"github.com/gogpu/ridgemesh/internal/raster"
	"github.com/gogpu/ridgemesh/mesh"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrSizeMismatch is returned when buffers and heightmap disagree on size.
var ErrSizeMismatch = errors.New("flow: size mismatch")

// Defaults used for non-positive Config fields.
const (
	DefaultHeightBias   = 50
	DefaultDirBias      = 20
	DefaultTangentBias  = 10
	DefaultTerminalCost = 3
)

// Config weights the step cost terms.
type Config struct {
	// HeightBias penalises climbing (uphill pass) or descending (downhill
	// pass) per unit of height.
	HeightBias float64

	// DirBias penalises steps that do not follow the gradient on slopes.
	DirBias float64

	// TangentBias penalises steps along the propagated direction, so the
	// front spreads across an edge rather than along it.
	TangentBias float64

	// TerminalCost is the starting cost of seeds on edges touching an
	// endpoint vertex.
	TerminalCost float64
}

// DefaultConfig returns the default weights.
func DefaultConfig() Config {
	return Config{
		HeightBias:   DefaultHeightBias,
		DirBias:      DefaultDirBias,
		TangentBias:  DefaultTangentBias,
		TerminalCost: DefaultTerminalCost,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HeightBias <= 0 {
		c.HeightBias = d.HeightBias
	}
	if c.DirBias <= 0 {
		c.DirBias = d.DirBias
	}
	if c.TangentBias <= 0 {
		c.TangentBias = d.TangentBias
	}
	if c.TerminalCost <= 0 {
		c.TerminalCost = d.TerminalCost
	}
	return c
}

// Pass holds the per-pixel output of one Dijkstra flood. All slices are
// indexed by y*Width+x. Unreached pixels have Cost +Inf, a zero Dir and
// Edge mesh.None.
type Pass struct {
	Width, Height int

	Dir      []r2.Vec  // propagated tangent
	Cost     []float64 // accumulated cost from the winning seed
	Seed     []r2.Vec  // pixel coordinates of the winning seed
	Edge     []int     // canonical half-edge of the winning seed
	Terminal []bool    // winning seed lies on an edge touching an endpoint
}

func newPass(w, h int) *Pass {
	n := w * h
	p := &Pass{
		Width:    w,
		Height:   h,
		Dir:      make([]r2.Vec, n),
		Cost:     make([]float64, n),
		Seed:     make([]r2.Vec, n),
		Edge:     make([]int, n),
		Terminal: make([]bool, n),
	}
	for i := range n {
		p.Cost[i] = math.Inf(1)
		p.Edge[i] = mesh.None
	}
	return p
}

// Reached reports whether pixel i was reached by any seed.
func (p *Pass) Reached(i int) bool { return !math.IsInf(p.Cost[i], 1) }

// Field is the pair of passes.
type Field struct {
	Uphill   *Pass
	Downhill *Pass
}

// Width returns the grid width.
func (f *Field) Width() int { return f.Uphill.Width }

// Height returns the grid height.
func (f *Field) Height() int { return f.Uphill.Height }

type seed struct {
	dir      r2.Vec
	edge     int
	terminal bool
}

var (
	dx8   = [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy8   = [8]int{-1, -1, -1, 0, 0, 1, 1, 1}
	dist8 = [8]float64{math.Sqrt2, 1, math.Sqrt2, 1, 1, math.Sqrt2, 1, math.Sqrt2}
	step8 = [8]r2.Vec{
		{X: -math.Sqrt2 / 2, Y: -math.Sqrt2 / 2}, {X: 0, Y: -1}, {X: math.Sqrt2 / 2, Y: -math.Sqrt2 / 2},
		{X: -1, Y: 0}, {X: 1, Y: 0},
		{X: -math.Sqrt2 / 2, Y: math.Sqrt2 / 2}, {X: 0, Y: 1}, {X: math.Sqrt2 / 2, Y: math.Sqrt2 / 2},
	}
)

// Compute floods both passes from the edges of m over hm.
func Compute(m *mesh.Mesh, hm *heightmap.Heightmap, cfg Config) (*Field, error) {
	if err := hm.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	log := logging.Stage("edge_dijkstra")

	seeds := rasterize(m, hm.Width, hm.Height)
	count := 0
	for _, s := range seeds {
		if s != nil {
			count++
		}
	}
	log.Debug("seeds",
		"pixels", count,
		"edges", len(m.HalfEdges)/2,
		"height_bias", cfg.HeightBias,
		"dir_bias", cfg.DirBias,
		"tangent_bias", cfg.TangentBias,
		"terminal_cost", cfg.TerminalCost)

	grad := unitGradients(hm)
	f := &Field{
		Uphill:   flood(hm, grad, seeds, cfg, true),
		Downhill: flood(hm, grad, seeds, cfg, false),
	}
	log.Debug("flooded",
		"uphill_reached", reached(f.Uphill),
		"downhill_reached", reached(f.Downhill))
	return f, nil
}

// rasterize draws every undirected edge between rounded vertex positions.
// The first edge to touch a pixel owns it.
func rasterize(m *mesh.Mesh, w, h int) []*seed {
	seeds := make([]*seed, w*h)
	for i := range m.HalfEdges {
		he := &m.HalfEdges[i]
		if he.Twin < i {
			continue
		}
		a := m.Vertices[he.Origin]
		b := m.Vertices[m.Dest(i)]
		canon := m.Canonical(i)
		s := &seed{
			dir:      m.HalfEdges[canon].Tangent,
			edge:     canon,
			terminal: a.Type == mesh.Endpoint || b.Type == mesh.Endpoint,
		}
		x0, y0 := int(math.Round(a.Pos.X)), int(math.Round(a.Pos.Y))
		x1, y1 := int(math.Round(b.Pos.X)), int(math.Round(b.Pos.Y))
		raster.Line(x0, y0, x1, y1, func(x, y int) {
			if x < 0 || y < 0 || x >= w || y >= h {
				return
			}
			if p := y*w + x; seeds[p] == nil {
				seeds[p] = s
			}
		})
	}
	return seeds
}

// unitGradients returns the normalised gradient per pixel, zero where the
// terrain is flat.
func unitGradients(hm *heightmap.Heightmap) []r2.Vec {
	grad := make([]r2.Vec, hm.Len())
	for y := range hm.Height {
		for x := range hm.Width {
			g := hm.GradientClamped(x, y)
			if n := r2.Norm(g); n > 1e-6 {
				grad[y*hm.Width+x] = r2.Scale(1/n, g)
			}
		}
	}
	return grad
}

func flood(hm *heightmap.Heightmap, grad []r2.Vec, seeds []*seed, cfg Config, uphill bool) *Pass {
	w, h := hm.Width, hm.Height
	p := newPass(w, h)
	q := pqueue.New(len(seeds))

	for i, s := range seeds {
		if s == nil {
			continue
		}
		c := 0.0
		if s.terminal {
			c = cfg.TerminalCost
		}
		x, y := i%w, i/w
		p.Cost[i] = c
		p.Dir[i] = s.dir
		p.Seed[i] = r2.Vec{X: float64(x), Y: float64(y)}
		p.Edge[i] = s.edge
		p.Terminal[i] = s.terminal
		q.Push(c, i)
	}

	for q.Len() > 0 {
		e := q.Pop()
		ci := e.Index
		if e.Cost > p.Cost[ci] {
			continue
		}
		cx, cy := ci%w, ci/w
		hc := hm.Data[ci]
		g := grad[ci]
		gmag := r2.Norm(g)
		dir := p.Dir[ci]
		dmag := r2.Norm(dir)

		for d := range 8 {
			nx, ny := cx+dx8[d], cy+dy8[d]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			ni := ny*w + nx
			dh := hm.Data[ni] - hc

			var hpen float64
			if uphill {
				hpen = max(dh, 0)
			} else {
				hpen = max(-dh, 0)
			}

			var dpen float64
			if gmag > 0.1 {
				align := r2.Dot(step8[d], g)
				if uphill {
					align = -align
				}
				dpen = 1 - max(align, 0)
			}

			var tpen float64
			if dmag > 1e-6 {
				tpen = math.Abs(r2.Dot(step8[d], dir)) / dmag
			}

			nc := e.Cost + dist8[d]*(1+cfg.HeightBias*hpen+cfg.DirBias*dpen+cfg.TangentBias*tpen)
			if nc < p.Cost[ni] {
				p.Cost[ni] = nc
				p.Dir[ni] = p.Dir[ci]
				p.Seed[ni] = p.Seed[ci]
				p.Edge[ni] = p.Edge[ci]
				p.Terminal[ni] = p.Terminal[ci]
				q.Push(nc, ni)
			}
		}
	}
	return p
}

func reached(p *Pass) int {
	n := 0
	for i := range p.Cost {
		if p.Reached(i) {
			n++
		}
	}
	return n
}
