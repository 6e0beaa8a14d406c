package flow

import (
	"math"

	"github.com/gogpu/ridgemesh/heightmap"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// HistogramBuckets is the number of |dot| buckets in Stats.Histogram.
const HistogramBuckets = 16

// Stats measures how well a direction field follows the terrain contours.
type Stats struct {
	// MeanAbsDot is the mean |dot| between the field and the bitangent
	// over Count pixels.
	MeanAbsDot float64
	Count      int

	// Histogram buckets |dot| into HistogramBuckets equal ranges of [0, 1].
	Histogram [HistogramBuckets]int

	// Sign flips between right and lower neighbours, counted over pairs
	// where both vectors are non-zero.
	FieldFlips, FieldPairs int
	TruthFlips, TruthPairs int
}

// FieldFlipRate returns the fraction of neighbour pairs whose field
// vectors point in opposite directions.
func (s *Stats) FieldFlipRate() float64 { return rate(s.FieldFlips, s.FieldPairs) }

// TruthFlipRate is FieldFlipRate for the bitangent field.
func (s *Stats) TruthFlipRate() float64 { return rate(s.TruthFlips, s.TruthPairs) }

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// Bitangent returns the contour direction of hm: the central-difference
// gradient rotated 90 degrees and normalised, zero where flat. Border
// pixels copy their nearest interior neighbour.
func Bitangent(hm *heightmap.Heightmap) []r2.Vec {
	w, h := hm.Width, hm.Height
	out := make([]r2.Vec, hm.Len())
	for y := range h {
		for x := range w {
			g := hm.GradientClamped(interior(x, w), interior(y, h))
			b := r2.Vec{X: -g.Y, Y: g.X}
			if n := r2.Norm(b); n > 1e-6 {
				out[y*w+x] = r2.Scale(1/n, b)
			}
		}
	}
	return out
}

func interior(v, n int) int {
	if n < 3 {
		return v
	}
	return min(max(v, 1), n-2)
}

// Evaluate compares field with the bitangent of hm. Pixels with height 0
// or a flat bitangent are skipped. The flip counts are taken on field as
// given, before any sign alignment.
func Evaluate(hm *heightmap.Heightmap, field []r2.Vec) (*Stats, error) {
	if err := hm.Validate(); err != nil {
		return nil, err
	}
	if len(field) != hm.Len() {
		return nil, ErrSizeMismatch
	}
	truth := Bitangent(hm)

	s := &Stats{}
	s.FieldFlips, s.FieldPairs = signFlips(field, hm.Width, hm.Height)
	s.TruthFlips, s.TruthPairs = signFlips(truth, hm.Width, hm.Height)

	dots := make([]float64, 0, hm.Len())
	for i, h := range hm.Data {
		gm := r2.Norm(truth[i])
		if h == 0 || gm == 0 || math.IsNaN(gm) {
			continue
		}
		d := math.Abs(r2.Dot(truth[i], field[i]))
		dots = append(dots, d)
		b := min(int(d*HistogramBuckets), HistogramBuckets-1)
		s.Histogram[b]++
	}
	s.Count = len(dots)
	if s.Count > 0 {
		s.MeanAbsDot = stat.Mean(dots, nil)
	}
	return s, nil
}

func signFlips(v []r2.Vec, w, h int) (flips, pairs int) {
	nonzero := func(i int) bool { return r2.Dot(v[i], v[i]) > 1e-6 }
	for y := range h {
		for x := range w {
			i := y*w + x
			if !nonzero(i) {
				continue
			}
			for _, j := range [2]int{i + 1, i + w} {
				if (j == i+1 && x+1 >= w) || (j == i+w && y+1 >= h) || !nonzero(j) {
					continue
				}
				pairs++
				if r2.Dot(v[i], v[j]) < 0 {
					flips++
				}
			}
		}
	}
	return flips, pairs
}
