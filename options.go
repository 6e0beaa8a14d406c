package ridgemesh

import (
	"github.com/gogpu/ridgemesh/flow"
	"github.com/gogpu/ridgemesh/internal/divergence"
	"github.com/gogpu/ridgemesh/internal/energy"
	"github.com/gogpu/ridgemesh/internal/simplify"
	"github.com/gogpu/ridgemesh/internal/skeleton"
)

// Config holds every tunable of the pipeline. Non-positive values fall
// back to the matching DefaultConfig value, except Smoothing, which stays
// off unless positive.
type Config struct {
	// Smoothing is the standard deviation of a Gaussian blur applied to
	// the heightmap before anything else. Zero disables it.
	Smoothing float64

	// NormalScale is the z component of the surface normals the
	// divergence is computed from. Larger values damp steep slopes.
	NormalScale float64

	// HighThreshold is the |divergence| that seeds the skeleton masks.
	HighThreshold float64

	// LowThreshold is the |divergence| above which graph fronts may
	// travel.
	LowThreshold float64

	// MinBranchLength is the shortest skeleton spur kept, in pixels.
	MinBranchLength int

	// MinArea is the face area below which a face is collapsed.
	MinArea float64

	// DecimateEpsilon is the RDP tolerance in pixels.
	DecimateEpsilon float64

	// ValleyFactor and AlignThreshold control energy propagation.
	ValleyFactor   float64
	AlignThreshold float64

	// Flow weights the direction flooding.
	Flow flow.Config
}

// Default pipeline values.
const (
	DefaultLowThreshold = 0.10
)

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		NormalScale:     divergence.DefaultNormalScale,
		HighThreshold:   skeleton.DefaultHighThreshold,
		LowThreshold:    DefaultLowThreshold,
		MinBranchLength: skeleton.DefaultMinBranchLength,
		MinArea:         simplify.DefaultMinArea,
		DecimateEpsilon: simplify.DefaultEpsilon,
		ValleyFactor:    energy.DefaultValleyFactor,
		AlignThreshold:  energy.DefaultAlignThreshold,
		Flow:            flow.DefaultConfig(),
	}
}

// withDefaults replaces non-positive fields with their defaults.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	pick := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	pick(&c.NormalScale, d.NormalScale)
	pick(&c.HighThreshold, d.HighThreshold)
	pick(&c.LowThreshold, d.LowThreshold)
	pick(&c.MinArea, d.MinArea)
	pick(&c.DecimateEpsilon, d.DecimateEpsilon)
	pick(&c.ValleyFactor, d.ValleyFactor)
	pick(&c.AlignThreshold, d.AlignThreshold)
	pick(&c.Flow.HeightBias, d.Flow.HeightBias)
	pick(&c.Flow.DirBias, d.Flow.DirBias)
	pick(&c.Flow.TangentBias, d.Flow.TangentBias)
	pick(&c.Flow.TerminalCost, d.Flow.TerminalCost)
	if c.MinBranchLength <= 0 {
		c.MinBranchLength = d.MinBranchLength
	}
	return c
}

// Option configures a pipeline run.
//
// Example:
//
//	res, err := ridgemesh.Execute(hm,
//	    ridgemesh.WithHighThreshold(0.3),
//	    ridgemesh.WithHeightBias(80),
//	)
type Option func(*Config)

// WithConfig replaces the whole configuration. Later options still apply
// on top of it.
func WithConfig(c Config) Option {
	return func(o *Config) {
		*o = c
	}
}

// WithSmoothing blurs the heightmap with a Gaussian of standard deviation
// sigma before extraction.
func WithSmoothing(sigma float64) Option {
	return func(o *Config) {
		o.Smoothing = sigma
	}
}

// WithNormalScale sets the z scale of the divergence normals.
func WithNormalScale(f float64) Option {
	return func(o *Config) {
		o.NormalScale = f
	}
}

// WithHighThreshold sets the |divergence| that seeds the skeleton.
func WithHighThreshold(v float64) Option {
	return func(o *Config) {
		o.HighThreshold = v
	}
}

// WithLowThreshold sets the |divergence| that bounds the walkable area of
// the skeleton graph.
func WithLowThreshold(v float64) Option {
	return func(o *Config) {
		o.LowThreshold = v
	}
}

// WithMinBranchLength sets the shortest skeleton spur kept.
func WithMinBranchLength(n int) Option {
	return func(o *Config) {
		o.MinBranchLength = n
	}
}

// WithMinArea sets the area below which faces are collapsed.
func WithMinArea(a float64) Option {
	return func(o *Config) {
		o.MinArea = a
	}
}

// WithDecimateEpsilon sets the RDP tolerance used by chain decimation.
func WithDecimateEpsilon(eps float64) Option {
	return func(o *Config) {
		o.DecimateEpsilon = eps
	}
}

// WithValleyFactor sets the valley seed factor of energy propagation.
func WithValleyFactor(f float64) Option {
	return func(o *Config) {
		o.ValleyFactor = f
	}
}

// WithAlignThreshold sets the minimum |cos| for ridge to valley energy
// transfer.
func WithAlignThreshold(v float64) Option {
	return func(o *Config) {
		o.AlignThreshold = v
	}
}

// WithHeightBias sets the height penalty of the direction flooding.
func WithHeightBias(b float64) Option {
	return func(o *Config) {
		o.Flow.HeightBias = b
	}
}

// WithFlowBiases sets the gradient-direction and tangent penalties and
// the starting cost of terminal seeds.
func WithFlowBiases(dir, tangent, terminal float64) Option {
	return func(o *Config) {
		o.Flow.DirBias = dir
		o.Flow.TangentBias = tangent
		o.Flow.TerminalCost = terminal
	}
}
