package skeleton

import "gonum.org/v1/gonum/spatial/r2"

var neighbours8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

func pos(x, y int) r2.Vec { return r2.Vec{X: float64(x), Y: float64(y)} }

// mask is a binary raster.
type mask struct {
	w, h int
	px   []bool
}

func newMask(w, h int) *mask {
	return &mask{w: w, h: h, px: make([]bool, w*h)}
}

// at returns 1 for a set pixel inside the raster, 0 otherwise.
func (m *mask) at(x, y int) int {
	if x < 0 || y < 0 || x >= m.w || y >= m.h || !m.px[y*m.w+x] {
		return 0
	}
	return 1
}

func (m *mask) count() int {
	n := 0
	for _, p := range m.px {
		if p {
			n++
		}
	}
	return n
}

// neighbors counts the set 8-neighbours of (x, y).
func (m *mask) neighbors(x, y int) int {
	n := 0
	for _, d := range neighbours8 {
		n += m.at(x+d[0], y+d[1])
	}
	return n
}

// thin applies Zhang-Suen thinning until a full pass removes nothing.
// Border pixels are never removed.
//
// Neighbourhood labels:
//
//	P9 P2 P3
//	P8 P1 P4
//	P7 P6 P5
func (m *mask) thin() {
	del := make([]int, 0, 64)
	for {
		changed := false
		for step := range 2 {
			del = del[:0]
			for y := 1; y < m.h-1; y++ {
				for x := 1; x < m.w-1; x++ {
					if m.px[y*m.w+x] && m.removable(x, y, step) {
						del = append(del, y*m.w+x)
					}
				}
			}
			for _, i := range del {
				m.px[i] = false
			}
			changed = changed || len(del) > 0
		}
		if !changed {
			return
		}
	}
}

func (m *mask) removable(x, y, step int) bool {
	p2 := m.at(x, y-1)
	p3 := m.at(x+1, y-1)
	p4 := m.at(x+1, y)
	p5 := m.at(x+1, y+1)
	p6 := m.at(x, y+1)
	p7 := m.at(x-1, y+1)
	p8 := m.at(x-1, y)
	p9 := m.at(x-1, y-1)

	b := p2 + p3 + p4 + p5 + p6 + p7 + p8 + p9
	if b < 2 || b > 6 {
		return false
	}

	ring := [9]int{p2, p3, p4, p5, p6, p7, p8, p9, p2}
	a := 0
	for k := range 8 {
		if ring[k] == 0 && ring[k+1] == 1 {
			a++
		}
	}
	if a != 1 {
		return false
	}

	if step == 0 {
		return p2*p4*p6 == 0 && p4*p6*p8 == 0
	}
	return p2*p4*p8 == 0 && p2*p6*p8 == 0
}

// prune deletes spurs shorter than minLength. A spur is traced from an
// endpoint (one neighbour) and deleted if it ends before reaching a
// junction (three or more neighbours) within minLength pixels. Repeats
// until nothing changes.
func (m *mask) prune(minLength int) {
	trace := make([]int, 0, minLength)
	for changed := true; changed; {
		changed = false
		for y := 1; y < m.h-1; y++ {
			for x := 1; x < m.w-1; x++ {
				if !m.px[y*m.w+x] || m.neighbors(x, y) != 1 {
					continue
				}

				trace = trace[:0]
				cx, cy := x, y
				px, py := -1, -1
				for len(trace) < minLength {
					trace = append(trace, cy*m.w+cx)

					nx, ny := -1, -1
					for _, d := range neighbours8 {
						qx, qy := cx+d[0], cy+d[1]
						if (qx == px && qy == py) || m.at(qx, qy) == 0 {
							continue
						}
						nx, ny = qx, qy
					}
					if nx < 0 || m.neighbors(nx, ny) >= 3 {
						break
					}
					px, py = cx, cy
					cx, cy = nx, ny
				}

				if len(trace) < minLength {
					for _, i := range trace {
						m.px[i] = false
					}
					changed = true
				}
			}
		}
	}
}
