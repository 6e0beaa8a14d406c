// Command ridgemesh extracts the ridge mesh of a heightmap image and writes
// debug renderings of the mesh and the direction fields.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gg"
	"github.com/gogpu/ridgemesh"
	"github.com/gogpu/ridgemesh/debugdraw"
	"github.com/gogpu/ridgemesh/flow"
	"github.com/gogpu/ridgemesh/heightmap"
	"github.com/gogpu/ridgemesh/mesh"
)

func main() {
	def := ridgemesh.DefaultConfig()
	var (
		input    = flag.String("input", "", "heightmap image (PNG, JPEG or TIFF)")
		outDir   = flag.String("out", ".", "output directory for debug images")
		maxSize  = flag.Int("max-size", 0, "downsample so the longer side is at most this many pixels (0 keeps the size)")
		smooth   = flag.Float64("smooth", 0, "Gaussian pre-blur sigma in pixels (0 disables)")
		normal   = flag.Float64("normal-scale", def.NormalScale, "z scale of the divergence normals")
		high     = flag.Float64("high", def.HighThreshold, "skeleton |divergence| threshold")
		low      = flag.Float64("low", def.LowThreshold, "walkable |divergence| threshold")
		minArea  = flag.Float64("min-area", def.MinArea, "collapse faces smaller than this area")
		epsilon  = flag.Float64("epsilon", def.DecimateEpsilon, "RDP tolerance in pixels")
		hbias    = flag.Float64("height-bias", def.Flow.HeightBias, "height penalty of the direction flooding")
		validate = flag.Bool("validate", false, "check mesh invariants and exit non-zero on failure")
		stats    = flag.Bool("stats", true, "print agreement with the terrain contours")
		noImages = flag.Bool("no-images", false, "skip writing debug images")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	ridgemesh.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	hm, err := heightmap.Load(*input)
	if err != nil {
		log.Fatalf("Failed to load: %v", err)
	}
	if *maxSize > 0 {
		if hm, err = hm.Fit(*maxSize); err != nil {
			log.Fatalf("Failed to resize: %v", err)
		}
	}

	res, err := ridgemesh.Execute(hm,
		ridgemesh.WithSmoothing(*smooth),
		ridgemesh.WithNormalScale(*normal),
		ridgemesh.WithHighThreshold(*high),
		ridgemesh.WithLowThreshold(*low),
		ridgemesh.WithMinArea(*minArea),
		ridgemesh.WithDecimateEpsilon(*epsilon),
		ridgemesh.WithHeightBias(*hbias),
	)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}
	log.Printf("%dx%d: %d vertices, %d half-edges, %d features\n",
		hm.Width, hm.Height, len(res.Mesh.Vertices), len(res.Mesh.HalfEdges), len(res.Mesh.Features))

	if *validate {
		if err := mesh.Validate(res.Mesh); err != nil {
			log.Fatalf("Validation failed: %v", err)
		}
		log.Println("Mesh invariants hold")
	}

	hm = res.Heightmap
	blend, err := flow.Blend(res.Mesh, hm, res.Flow)
	if err != nil {
		log.Fatalf("Blend failed: %v", err)
	}

	if *stats {
		s, err := flow.Evaluate(hm, blend)
		if err != nil {
			log.Fatalf("Evaluate failed: %v", err)
		}
		printStats(s)
	}

	if *noImages {
		return
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", *outDir, err)
	}
	renders := []struct {
		name   string
		render func() (*gg.Context, error)
	}{
		{"ridge_mesh.png", func() (*gg.Context, error) {
			return debugdraw.Mesh(res.Mesh, hm, res.Divergence, *low)
		}},
		{"skeleton.png", func() (*gg.Context, error) { return debugdraw.Skeleton(res.Ridge, res.Valley, hm) }},
		{"energy.png", func() (*gg.Context, error) { return debugdraw.Energy(res.Mesh, hm) }},
		{"divergence.png", func() (*gg.Context, error) { return debugdraw.Divergence(res.Divergence, hm) }},
		{"uphill_dir.png", func() (*gg.Context, error) { return debugdraw.Directions(res.Flow.Uphill.Dir, hm) }},
		{"downhill_dir.png", func() (*gg.Context, error) { return debugdraw.Directions(res.Flow.Downhill.Dir, hm) }},
		{"blend_dir.png", func() (*gg.Context, error) { return debugdraw.Directions(blend, hm) }},
		{"ground_truth_bt.png", func() (*gg.Context, error) { return debugdraw.Directions(flow.Bitangent(hm), hm) }},
	}
	for _, r := range renders {
		if err := save(filepath.Join(*outDir, r.name), r.render); err != nil {
			log.Fatalf("Failed to write %s: %v", r.name, err)
		}
	}
	log.Printf("Images saved to %s\n", *outDir)
}

func save(path string, render func() (*gg.Context, error)) error {
	dc, err := render()
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.SavePNG(path)
}

func printStats(s *flow.Stats) {
	fmt.Printf("|dot| with contours: mean=%.4f (%d pixels)\n", s.MeanAbsDot, s.Count)
	fmt.Printf("sign flips: field %d/%d (%.2f%%), contours %d/%d (%.2f%%)\n",
		s.FieldFlips, s.FieldPairs, 100*s.FieldFlipRate(),
		s.TruthFlips, s.TruthPairs, 100*s.TruthFlipRate())

	peak := 0
	for _, n := range s.Histogram {
		peak = max(peak, n)
	}
	for b, n := range s.Histogram {
		bar := 0
		if peak > 0 {
			bar = (n*40 + peak/2) / peak
		}
		lo := float64(b) / flow.HistogramBuckets
		hi := float64(b+1) / flow.HistogramBuckets
		fmt.Printf("  %4.2f-%4.2f |%s %d\n", lo, hi, strings.Repeat("#", bar), n)
	}
}
