package raster

// Line visits every pixel of the Bresenham line from (x0, y0) to (x1, y1),
// both endpoints included, in order from the start point. Bounds checking
// is left to plot.
func Line(x0, y0, x1, y1 int, plot func(x, y int)) {
	adx, ady := abs(x1-x0), abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := adx - ady

	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -ady {
			err -= ady
			x0 += sx
		}
		if e2 < adx {
			err += adx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
