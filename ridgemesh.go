package ridgemesh

import (
	"fmt"
	"math"

	"github.com/gogpu/ridgemesh/flow"
	"github.com/gogpu/ridgemesh/heightmap"
	"github.com/gogpu/ridgemesh/internal/divergence"
	"github.com/gogpu/ridgemesh/internal/energy"
	"github.com/gogpu/ridgemesh/internal/logging"
	"github.com/gogpu/ridgemesh/internal/simplify"
	"github.com/gogpu/ridgemesh/internal/skeleton"
	"github.com/gogpu/ridgemesh/internal/skelgraph"
	"github.com/gogpu/ridgemesh/mesh"
)

// Result is the output of Execute.
type Result struct {
	// Heightmap is the heightmap the stages ran on: the input, or its
	// blurred copy when smoothing is enabled.
	Heightmap *heightmap.Heightmap

	// Mesh is the final ridge/valley mesh with features and energies.
	Mesh *mesh.Mesh

	// Divergence is the normalised divergence field, one value per pixel.
	Divergence []float64

	// Ridge and Valley are the thinned, pruned skeleton masks.
	Ridge, Valley []bool

	// Walkable marks the pixels the skeleton graph was allowed to cross.
	Walkable []bool

	// Flow holds the uphill and downhill direction passes.
	Flow *flow.Field
}

// Execute runs the whole pipeline on hm: divergence, skeleton, skeleton
// graph, mesh construction, face collapse, decimation, feature
// extraction, energy propagation and direction flooding. The heightmap is
// not modified; with WithSmoothing every stage sees a blurred copy. The
// first failing stage aborts the run.
func Execute(hm *heightmap.Heightmap, opts ...Option) (*Result, error) {
	if err := hm.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	log := logging.Logger()
	if cfg.Smoothing > 0 {
		hm = hm.Blur(cfg.Smoothing)
	}
	log.Debug("ridgemesh: start",
		"width", hm.Width,
		"height", hm.Height,
		"normal_scale", cfg.NormalScale,
		"high", cfg.HighThreshold,
		"low", cfg.LowThreshold,
		"smoothing", cfg.Smoothing)

	div := divergence.Compute(hm, cfg.NormalScale)

	skel := skeleton.Extract(hm, div, skeleton.Config{
		HighThreshold:   cfg.HighThreshold,
		MinBranchLength: cfg.MinBranchLength,
	})

	walkable := walkableMask(div, cfg.LowThreshold)

	graph := skelgraph.Build(hm, div, walkable, skel.Vertices)

	m, err := mesh.Build(graph.Vertices, graph.Edges)
	if err != nil {
		return nil, fmt.Errorf("ridgemesh: build: %w", err)
	}

	m, err = simplify.CollapseFaces(m, cfg.MinArea)
	if err != nil {
		return nil, fmt.Errorf("ridgemesh: collapse: %w", err)
	}

	m, err = simplify.Decimate(m, cfg.DecimateEpsilon)
	if err != nil {
		return nil, fmt.Errorf("ridgemesh: decimate: %w", err)
	}

	m = mesh.ExtractFeatures(m)

	m = energy.Propagate(m, energy.Config{
		ValleyFactor:   cfg.ValleyFactor,
		AlignThreshold: cfg.AlignThreshold,
	})

	field, err := flow.Compute(m, hm, cfg.Flow)
	if err != nil {
		return nil, fmt.Errorf("ridgemesh: flow: %w", err)
	}

	log.Info("ridgemesh: done",
		"vertices", len(m.Vertices),
		"half_edges", len(m.HalfEdges),
		"features", len(m.Features))

	return &Result{
		Heightmap:  hm,
		Mesh:       m,
		Divergence: div,
		Ridge:      skel.Ridge,
		Valley:     skel.Valley,
		Walkable:   walkable,
		Flow:       field,
	}, nil
}

// walkableMask marks pixels with |div| above low.
func walkableMask(div []float64, low float64) []bool {
	walkable := make([]bool, len(div))
	n := 0
	for i, d := range div {
		if math.Abs(d) > low {
			walkable[i] = true
			n++
		}
	}
	logging.Stage("walkable").Debug("mask", "low", low, "pixels", n)
	return walkable
}
