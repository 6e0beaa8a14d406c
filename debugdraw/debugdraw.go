// Package debugdraw renders the ridge mesh and its per-pixel fields as
// images for inspection.
//
// Every function returns a *gg.Context sized to the heightmap; callers
// save it with SavePNG or stream it with EncodePNG and Close it when done.
// Rendering only reads its inputs.
package debugdraw

import (
	"errors"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/ridgemesh/heightmap"
	"github.com/gogpu/ridgemesh/internal/raster"
	"github.com/gogpu/ridgemesh/mesh"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrSizeMismatch is returned when a field does not cover the heightmap.
var ErrSizeMismatch = errors.New("debugdraw: size mismatch")

// Vertex marker colours.
var (
	MaximumColor  = rgb8(0, 255, 0)
	MinimumColor  = rgb8(255, 255, 0)
	JunctionColor = rgb8(255, 255, 255)
	EndpointColor = rgb8(180, 180, 180)
)

func rgb8(r, g, b uint8) gg.RGBA {
	return gg.RGB(float64(r)/255, float64(g)/255, float64(b)/255)
}

// energyColor maps an energy normalised to [0, 1] onto the ridge ramp
// (dark red to yellow) or the valley ramp (dark blue to cyan). Valley
// edges without energy get a dim blue.
func energyColor(t mesh.EdgeType, e float64) gg.RGBA {
	if t == mesh.Ridge {
		return gg.RGB((80+175*e)/255, (30+200*e)/255, 30.0/255)
	}
	if e <= 0 {
		return rgb8(60, 60, 100)
	}
	return gg.RGB(30.0/255, (60+195*e)/255, (120+135*e)/255)
}

// maxEnergy returns the largest energy per edge type, at least 1.
func maxEnergy(m *mesh.Mesh) (ridge, valley float64) {
	ridge, valley = 1, 1
	for i := range m.HalfEdges {
		he := &m.HalfEdges[i]
		if he.Type == mesh.Ridge {
			ridge = max(ridge, he.Energy)
		} else {
			valley = max(valley, he.Energy)
		}
	}
	return ridge, valley
}

func checkSize(hm *heightmap.Heightmap, n int) error {
	if err := hm.Validate(); err != nil {
		return err
	}
	if n != hm.Len() {
		return ErrSizeMismatch
	}
	return nil
}

// Mesh draws the mesh pixel-exact over the heightmap. Pixels whose
// |divergence| exceeds lowThreshold are tinted red (ridge side) or blue
// (valley side); the rest are dimmed. Each undirected edge takes the
// colour of its higher-energy half, and non-path vertices are marked on
// top.
func Mesh(m *mesh.Mesh, hm *heightmap.Heightmap, div []float64, lowThreshold float64) (*gg.Context, error) {
	if err := checkSize(hm, len(div)); err != nil {
		return nil, err
	}
	w, h := hm.Width, hm.Height
	dc := gg.NewContext(w, h)

	for i, v := range hm.Data {
		x, y := i%w, i/w
		d := div[i]
		if math.Abs(d) <= lowThreshold {
			g := float64(uint8(clamp01(v) * 80))
			dc.SetPixel(x, y, gg.RGB(g/255, g/255, g/255))
			continue
		}
		g := float64(uint8(clamp01(v) * 140))
		tint := min(g+50, 255)
		if d < 0 {
			dc.SetPixel(x, y, gg.RGB(tint/255, g/255, g/255))
		} else {
			dc.SetPixel(x, y, gg.RGB(g/255, g/255, tint/255))
		}
	}

	maxRidge, maxValley := maxEnergy(m)
	for i := range m.HalfEdges {
		he := &m.HalfEdges[i]
		if he.Twin < i {
			continue
		}
		e := max(he.Energy, m.HalfEdges[he.Twin].Energy)
		if he.Type == mesh.Ridge {
			e /= maxRidge
		} else {
			e /= maxValley
		}
		col := energyColor(he.Type, e)
		a := m.Vertices[he.Origin].Pos
		b := m.Vertices[m.Dest(i)].Pos
		raster.Line(int(a.X), int(a.Y), int(b.X), int(b.Y), func(x, y int) {
			dc.SetPixel(x, y, col)
		})
	}

	for _, v := range m.Vertices {
		var col gg.RGBA
		radius := 0
		switch v.Type {
		case mesh.Maximum:
			col, radius = MaximumColor, 1
		case mesh.Minimum:
			col, radius = MinimumColor, 1
		case mesh.Junction:
			col = JunctionColor
		case mesh.Endpoint:
			col = EndpointColor
		default:
			continue
		}
		cx, cy := int(math.Round(v.Pos.X)), int(math.Round(v.Pos.Y))
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				dc.SetPixel(cx+dx, cy+dy, col)
			}
		}
	}
	return dc, nil
}

// Energy strokes every half-edge over a grey heightmap, coloured by its
// own energy. Half-edges bounding a closed feature are shifted one pixel
// along their inside normal, so the two sides of a shared edge stay
// apart.
func Energy(m *mesh.Mesh, hm *heightmap.Heightmap) (*gg.Context, error) {
	if err := hm.Validate(); err != nil {
		return nil, err
	}
	w := hm.Width
	dc := gg.NewContext(hm.Width, hm.Height)
	for i, v := range hm.Data {
		g := float64(uint8(clamp01(v)*100)) / 255
		dc.SetPixel(i%w, i/w, gg.RGB(g, g, g))
	}

	maxRidge, maxValley := maxEnergy(m)
	dc.SetLineWidth(1)
	for i := range m.HalfEdges {
		he := &m.HalfEdges[i]
		e := he.Energy
		if he.Type == mesh.Ridge {
			e /= maxRidge
		} else {
			e /= maxValley
		}

		var off r2.Vec
		if he.Face.IsFeature() && m.Features[he.Face].Type == mesh.Closed {
			off = he.InsideNormal()
		}
		a := r2.Add(m.Vertices[he.Origin].Pos, off)
		b := r2.Add(m.Vertices[m.Dest(i)].Pos, off)

		col := energyColor(he.Type, e)
		dc.SetRGB(col.R, col.G, col.B)
		dc.DrawLine(a.X+0.5, a.Y+0.5, b.X+0.5, b.Y+0.5)
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, err
		}
	}
	return dc, nil
}

// Skeleton draws the ridge mask in red and the valley mask in blue over a
// dimmed heightmap. Pixels in both masks are drawn magenta.
func Skeleton(ridge, valley []bool, hm *heightmap.Heightmap) (*gg.Context, error) {
	if err := checkSize(hm, len(ridge)); err != nil {
		return nil, err
	}
	if len(valley) != len(ridge) {
		return nil, ErrSizeMismatch
	}
	w := hm.Width
	dc := gg.NewContext(hm.Width, hm.Height)
	for i, v := range hm.Data {
		x, y := i%w, i/w
		switch {
		case ridge[i] && valley[i]:
			dc.SetPixel(x, y, rgb8(255, 0, 255))
		case ridge[i]:
			dc.SetPixel(x, y, rgb8(255, 60, 60))
		case valley[i]:
			dc.SetPixel(x, y, rgb8(60, 120, 255))
		default:
			g := float64(uint8(clamp01(v)*80)) / 255
			dc.SetPixel(x, y, gg.RGB(g, g, g))
		}
	}
	return dc, nil
}

// Directions encodes a unit vector field as a normal map: (x, y, bias)
// is normalised and mapped from [-1, 1] to [0, 1] per channel. Zero
// vectors come out as the flat normal.
func Directions(field []r2.Vec, hm *heightmap.Heightmap) (*gg.Context, error) {
	if err := checkSize(hm, len(field)); err != nil {
		return nil, err
	}
	const bias = 0.5
	w := hm.Width
	dc := gg.NewContext(hm.Width, hm.Height)
	for i, v := range field {
		nx, ny, nz := v.X*0.5, v.Y*0.5, bias
		if n := math.Sqrt(nx*nx + ny*ny + nz*nz); n > 1e-6 {
			nx, ny, nz = nx/n, ny/n, nz/n
		}
		dc.SetPixel(i%w, i/w, gg.RGB(nx*0.5+0.5, ny*0.5+0.5, nz*0.5+0.5))
	}
	return dc, nil
}

// Divergence renders div on a diverging ramp: negative (ridge) values in
// red, positive (valley) values in blue, zero in white, scaled by the
// largest magnitude.
func Divergence(div []float64, hm *heightmap.Heightmap) (*gg.Context, error) {
	if err := checkSize(hm, len(div)); err != nil {
		return nil, err
	}
	scale := math.Max(math.Abs(floats.Min(div)), math.Abs(floats.Max(div)))
	if scale < 1e-12 {
		scale = 1
	}
	w := hm.Width
	dc := gg.NewContext(hm.Width, hm.Height)
	for i, d := range div {
		t := clamp01(math.Abs(d) / scale)
		if d < 0 {
			dc.SetPixel(i%w, i/w, gg.RGB(1, 1-t, 1-t))
		} else {
			dc.SetPixel(i%w, i/w, gg.RGB(1-t, 1-t, 1))
		}
	}
	return dc, nil
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
