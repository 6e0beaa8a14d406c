// Package skeleton extracts one-pixel-wide ridge and valley lines from a
// divergence field and emits the sparse vertices the skeleton graph is
// grown from.
package skeleton

import (
	"github.com/gogpu/ridgemesh/heightmap"
	"github.com/gogpu/ridgemesh/internal/logging"
	"github.com/gogpu/ridgemesh/mesh"
)

// Defaults used when a Config field is not positive.
const (
	DefaultHighThreshold   = 0.25
	DefaultMinBranchLength = 5
)

// Config controls extraction.
type Config struct {
	// HighThreshold is the |divergence| above which a pixel seeds the
	// ridge (negative) or valley (positive) mask.
	HighThreshold float64

	// MinBranchLength is the shortest spur, in pixels, that survives
	// pruning.
	MinBranchLength int
}

func (c Config) withDefaults() Config {
	if c.HighThreshold <= 0 {
		c.HighThreshold = DefaultHighThreshold
	}
	if c.MinBranchLength <= 0 {
		c.MinBranchLength = DefaultMinBranchLength
	}
	return c
}

// Result is the output of Extract. Masks are row-major, one entry per pixel.
type Result struct {
	Width, Height int

	// Vertices lists maxima and minima first, then skeleton junctions and
	// endpoints in scan order.
	Vertices []mesh.Vertex

	Ridge  []bool
	Valley []bool
}

// Extract finds extrema of hm, thresholds div, thins and prunes the masks
// and emits the skeleton vertices. div must have one value per pixel.
func Extract(hm *heightmap.Heightmap, div []float64, cfg Config) *Result {
	cfg = cfg.withDefaults()
	w, h := hm.Width, hm.Height
	n := w * h
	log := logging.Stage("skeleton")

	isMax, isMin := findExtrema(hm)
	ridge := newMask(w, h)
	valley := newMask(w, h)
	var nmax, nmin int
	for i := range n {
		ridge.px[i] = div[i] < -cfg.HighThreshold || isMax[i]
		valley.px[i] = div[i] > cfg.HighThreshold || isMin[i]
		if isMax[i] {
			nmax++
		}
		if isMin[i] {
			nmin++
		}
	}
	log.Debug("extrema", "maxima", nmax, "minima", nmin)
	log.Debug("high threshold", "ridge_px", ridge.count(), "valley_px", valley.count())

	ridge.thin()
	valley.thin()
	ridge.prune(cfg.MinBranchLength)
	valley.prune(cfg.MinBranchLength)
	log.Debug("skeleton", "ridge_px", ridge.count(), "valley_px", valley.count())

	skel := newMask(w, h)
	for i := range n {
		skel.px[i] = ridge.px[i] || valley.px[i]
	}

	res := &Result{
		Width:  w,
		Height: h,
		Ridge:  ridge.px,
		Valley: valley.px,
	}

	vertexAt := func(x, y int, t mesh.VertexType) mesh.Vertex {
		i := y*w + x
		return mesh.Vertex{
			Pos:        pos(x, y),
			Height:     hm.Data[i],
			Divergence: div[i],
			Type:       t,
			Edge:       mesh.None,
		}
	}

	for y := range h {
		for x := range w {
			switch i := y*w + x; {
			case isMax[i]:
				res.Vertices = append(res.Vertices, vertexAt(x, y, mesh.Maximum))
			case isMin[i]:
				res.Vertices = append(res.Vertices, vertexAt(x, y, mesh.Minimum))
			}
		}
	}
	extrema := len(res.Vertices)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			if !skel.px[i] || isMax[i] || isMin[i] {
				continue
			}
			switch nn := skel.neighbors(x, y); {
			case nn >= 3:
				res.Vertices = append(res.Vertices, vertexAt(x, y, mesh.Junction))
			case nn != 2:
				res.Vertices = append(res.Vertices, vertexAt(x, y, mesh.Endpoint))
			}
		}
	}
	log.Debug("vertices", "extrema", extrema, "skeleton", len(res.Vertices)-extrema, "total", len(res.Vertices))
	return res
}

// findExtrema marks interior pixels strictly higher (or lower) than all
// eight neighbours.
func findExtrema(hm *heightmap.Heightmap) (isMax, isMin []bool) {
	w, h := hm.Width, hm.Height
	isMax = make([]bool, w*h)
	isMin = make([]bool, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := hm.Data[y*w+x]
			lower, higher := true, true
			for _, d := range neighbours8 {
				v := hm.Data[(y+d[1])*w+x+d[0]]
				if v >= c {
					lower = false
				}
				if v <= c {
					higher = false
				}
			}
			isMax[y*w+x] = lower
			isMin[y*w+x] = higher
		}
	}
	return isMax, isMin
}
