// Package heightmap holds the dense scalar raster the ridge mesh is
// extracted from, together with its derivative helpers and image I/O.
//
// Samples are stored row-major: the sample at (x, y) lives at
// Data[y*Width+x]. Zero is reserved as "no data" by some consumers, which
// is why loaders never shift values below zero.
package heightmap

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Heightmap errors.
var (
	// ErrInvalidSize is returned for zero dimensions or a data slice whose
	// length does not match Width*Height.
	ErrInvalidSize = errors.New("heightmap: invalid size")
)

// Heightmap is a Width x Height grid of heights.
type Heightmap struct {
	Width  int
	Height int
	Data   []float64
}

// New allocates a zeroed heightmap.
func New(width, height int) *Heightmap {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Heightmap{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// FromSlice wraps data without copying.
func FromSlice(width, height int, data []float64) (*Heightmap, error) {
	h := &Heightmap{Width: width, Height: height, Data: data}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks the dimensions against the data length.
func (h *Heightmap) Validate() error {
	if h == nil {
		return fmt.Errorf("%w: nil heightmap", ErrInvalidSize)
	}
	if h.Width <= 0 || h.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, h.Width, h.Height)
	}
	if len(h.Data) != h.Width*h.Height {
		return fmt.Errorf("%w: %dx%d with %d samples", ErrInvalidSize, h.Width, h.Height, len(h.Data))
	}
	return nil
}

// Len returns the number of samples.
func (h *Heightmap) Len() int { return h.Width * h.Height }

// Index returns the linear index of (x, y).
func (h *Heightmap) Index(x, y int) int { return y*h.Width + x }

// Coords returns the (x, y) of a linear index.
func (h *Heightmap) Coords(i int) (x, y int) { return i % h.Width, i / h.Width }

// InBounds reports whether (x, y) lies on the grid.
func (h *Heightmap) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < h.Width && y < h.Height
}

// At returns the height at (x, y), or 0 outside the grid.
func (h *Heightmap) At(x, y int) float64 {
	if !h.InBounds(x, y) {
		return 0
	}
	return h.Data[y*h.Width+x]
}

// Set stores v at (x, y). Out-of-bounds writes are ignored.
func (h *Heightmap) Set(x, y int, v float64) {
	if h.InBounds(x, y) {
		h.Data[y*h.Width+x] = v
	}
}

// Clone returns a deep copy.
func (h *Heightmap) Clone() *Heightmap {
	c := New(h.Width, h.Height)
	copy(c.Data, h.Data)
	return c
}

// Range returns the minimum and maximum sample.
func (h *Heightmap) Range() (lo, hi float64) {
	if len(h.Data) == 0 {
		return 0, 0
	}
	lo, hi = h.Data[0], h.Data[0]
	for _, v := range h.Data[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// Normalize rescales the samples in place to [0, 1]. A constant map is
// left unchanged.
func (h *Heightmap) Normalize() {
	lo, hi := h.Range()
	span := hi - lo
	if span < 1e-12 {
		return
	}
	inv := 1 / span
	for i, v := range h.Data {
		h.Data[i] = (v - lo) * inv
	}
}

// Gradient returns the central-difference gradient at (x, y). Samples
// outside the grid read as zero, so border pixels see a drop-off.
func (h *Heightmap) Gradient(x, y int) r2.Vec {
	return r2.Vec{
		X: (h.At(x+1, y) - h.At(x-1, y)) * 0.5,
		Y: (h.At(x, y+1) - h.At(x, y-1)) * 0.5,
	}
}

// GradientClamped returns the gradient at (x, y) with edge replication:
// border pixels fall back to one-sided differences.
func (h *Heightmap) GradientClamped(x, y int) r2.Vec {
	xm, xp := max(x-1, 0), min(x+1, h.Width-1)
	ym, yp := max(y-1, 0), min(y+1, h.Height-1)

	var g r2.Vec
	if xp > xm {
		g.X = (h.Data[y*h.Width+xp] - h.Data[y*h.Width+xm]) / float64(xp-xm)
	}
	if yp > ym {
		g.Y = (h.Data[yp*h.Width+x] - h.Data[ym*h.Width+x]) / float64(yp-ym)
	}
	return g
}
