package heightmap

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Resize resamples the heightmap to width x height with Catmull-Rom
// filtering. The source is quantised to 16 bits on the way through.
func (h *Heightmap) Resize(width, height int) (*Heightmap, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: resize to %dx%d", ErrInvalidSize, width, height)
	}
	if width == h.Width && height == h.Height {
		return h.Clone(), nil
	}

	src := h.ToImage()
	dst := image.NewGray16(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return FromImage(dst), nil
}

// Fit downsamples the heightmap so that neither side exceeds maxSide,
// preserving aspect ratio. Maps that already fit are returned unchanged.
func (h *Heightmap) Fit(maxSide int) (*Heightmap, error) {
	if maxSide <= 0 || (h.Width <= maxSide && h.Height <= maxSide) {
		return h, nil
	}
	scale := float64(maxSide) / float64(max(h.Width, h.Height))
	w := max(int(float64(h.Width)*scale+0.5), 1)
	ht := max(int(float64(h.Height)*scale+0.5), 1)
	return h.Resize(w, ht)
}
