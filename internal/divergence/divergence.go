// Package divergence computes the signed curvature field the skeleton is
// extracted from.
//
// The height gradient is turned into the horizontal part of a surface
// normal whose z component is scaled by F, and the divergence of that
// field is taken with central differences. Ridges diverge (negative),
// valleys converge (positive). The result is normalised to [-1, 1].
package divergence

import (
	"math"

	"github.com/gogpu/ridgemesh/heightmap"
	"github.com/gogpu/ridgemesh/internal/logging"
	"gonum.org/v1/gonum/floats"
)

// DefaultNormalScale is used when Compute is called with a non-positive
// normal scale.
const DefaultNormalScale = 1.0

// Compute returns the normalised divergence of hm, one value per pixel in
// row-major order. Larger normalScale values flatten the normals and damp
// steep slopes.
func Compute(hm *heightmap.Heightmap, normalScale float64) []float64 {
	if normalScale <= 0 {
		normalScale = DefaultNormalScale
	}
	w, h := hm.Width, hm.Height
	n := w * h

	fx := make([]float64, n)
	fy := make([]float64, n)
	for y := range h {
		for x := range w {
			g := hm.Gradient(x, y)
			l := math.Sqrt(g.X*g.X + g.Y*g.Y + normalScale*normalScale)
			if l > 1e-12 {
				i := y*w + x
				fx[i] = g.X / l
				fy[i] = g.Y / l
			}
		}
	}

	at := func(f []float64, x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return f[y*w+x]
	}

	div := make([]float64, n)
	for y := range h {
		for x := range w {
			div[y*w+x] = (at(fx, x+1, y) - at(fx, x-1, y) + at(fy, x, y+1) - at(fy, x, y-1)) * 0.5
		}
	}

	maxAbs := 0.0
	if n > 0 {
		maxAbs = floats.Norm(div, math.Inf(1))
	}
	if maxAbs > 1e-12 {
		floats.Scale(1/maxAbs, div)
	}

	logging.Stage("divergence").Debug("divergence normalised", "max_abs", maxAbs)
	return div
}
