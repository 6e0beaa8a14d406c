package heightmap

import "math"

// gaussianKernel returns a normalised 1D Gaussian with standard deviation
// sigma covering three deviations on each side. sigma <= 0 yields the
// identity kernel.
func gaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	half := int(math.Ceil(sigma * 3))
	kernel := make([]float64, 2*half+1)
	twoSigmaSq := 2 * sigma * sigma
	sum := 0.0
	for i := range kernel {
		x := float64(i - half)
		kernel[i] = math.Exp(-(x * x) / twoSigmaSq)
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// Blur returns a copy of h smoothed with a separable Gaussian of standard
// deviation sigma. Samples past the border repeat the edge value, so a
// constant map stays constant. sigma <= 0 returns a plain copy.
func (h *Heightmap) Blur(sigma float64) *Heightmap {
	if sigma <= 0 {
		return h.Clone()
	}
	kernel := gaussianKernel(sigma)
	half := len(kernel) / 2
	w, ht := h.Width, h.Height

	tmp := make([]float64, len(h.Data))
	for y := range ht {
		row := h.Data[y*w : (y+1)*w]
		for x := range w {
			var s float64
			for k, wt := range kernel {
				kx := min(max(x+k-half, 0), w-1)
				s += row[kx] * wt
			}
			tmp[y*w+x] = s
		}
	}

	out := New(w, ht)
	for y := range ht {
		for x := range w {
			var s float64
			for k, wt := range kernel {
				ky := min(max(y+k-half, 0), ht-1)
				s += tmp[ky*w+x] * wt
			}
			out.Data[y*w+x] = s
		}
	}
	return out
}
