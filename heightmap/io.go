package heightmap

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// I/O errors.
var (
	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("heightmap: empty data")
)

// Load reads a heightmap from an image file. TIFF files are decoded
// directly; PNG and JPEG go through the registered image decoders. Any
// other extension is sniffed from content.
func Load(path string) (*Heightmap, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("heightmap: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return DecodeTIFF(f)
	default:
		return Decode(f)
	}
}

// LoadFromBytes decodes a heightmap from an in-memory image.
func LoadFromBytes(data []byte) (*Heightmap, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	return Decode(bytes.NewReader(data))
}

// Decode decodes an image from r, auto-detecting the format, and converts
// it with FromImage.
func Decode(r io.Reader) (*Heightmap, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("heightmap: decode: %w", err)
	}
	return FromImage(img), nil
}

// DecodeTIFF decodes a TIFF image. 16-bit grayscale TIFF is the usual
// interchange format for terrain heightmaps.
func DecodeTIFF(r io.Reader) (*Heightmap, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("heightmap: decode tiff: %w", err)
	}
	return FromImage(img), nil
}

// FromImage converts img to heights in [0, 1]. Gray images keep their full
// precision; colour images use their luminance.
func FromImage(img image.Image) *Heightmap {
	b := img.Bounds()
	h := New(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.Gray16:
		for y := range h.Height {
			for x := range h.Width {
				h.Data[y*h.Width+x] = float64(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y) / 0xffff
			}
		}
	case *image.Gray:
		for y := range h.Height {
			for x := range h.Width {
				h.Data[y*h.Width+x] = float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y) / 0xff
			}
		}
	default:
		for y := range h.Height {
			for x := range h.Width {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				h.Data[y*h.Width+x] = float64(g.Y) / 0xffff
			}
		}
	}
	return h
}

// ToImage quantises the heightmap to a 16-bit grayscale image. Values are
// clamped to [0, 1].
func (h *Heightmap) ToImage() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, h.Width, h.Height))
	for y := range h.Height {
		for x := range h.Width {
			v := min(max(h.Data[y*h.Width+x], 0), 1)
			img.SetGray16(x, y, color.Gray16{Y: uint16(v*0xffff + 0.5)})
		}
	}
	return img
}
