package smoothing

import (
	"math"
	"time"

	"kinemetry/internal/geom"
)

// Params tunes a One-Euro filter.
type Params struct {
	// MinCutoff is the cutoff frequency (Hz) applied when the signal is at
	// rest. Lower values smooth harder.
	MinCutoff float64

	// Beta scales how much the smoothed derivative raises the cutoff.
	// The default keeps added lag under roughly 50 ms of frame time even
	// during fast excursions.
	Beta float64

	// DerivCutoff is the fixed cutoff (Hz) for the derivative's own
	// low-pass step.
	DerivCutoff float64
}

// DefaultParams returns the filter tuning used for joint angle and keypoint
// position signals.
func DefaultParams() Params {
	return Params{
		MinCutoff:   1.0,
		Beta:        0.02,
		DerivCutoff: 1.0,
	}
}

func (p Params) orDefaults() Params {
	d := DefaultParams()
	if p.MinCutoff <= 0 {
		p.MinCutoff = d.MinCutoff
	}
	if p.Beta <= 0 {
		p.Beta = d.Beta
	}
	if p.DerivCutoff <= 0 {
		p.DerivCutoff = d.DerivCutoff
	}
	return p
}

// Filter is the per-signal state for one smoothed scalar: previous filtered
// value, previous derivative estimate, and the previous timestamp.
type Filter struct {
	params      Params
	initialized bool
	prev        float64
	prevDeriv   float64
	prevTime    time.Time
}

// NewFilter builds a scalar One-Euro filter. Zero params fall back to
// DefaultParams.
func NewFilter(params Params) *Filter {
	return &Filter{params: params.orDefaults()}
}

// Sample feeds one raw value with its capture timestamp and returns the
// smoothed value.
//
// Duplicate or out-of-order timestamps make the raw sample the new baseline
// without blending: there is no valid dt to divide by, and stale history is
// worth less than the fresh observation.
func (f *Filter) Sample(value float64, ts time.Time) float64 {
	if !f.initialized || !ts.After(f.prevTime) {
		f.initialized = true
		f.prev = value
		f.prevDeriv = 0
		f.prevTime = ts
		return value
	}

	dt := ts.Sub(f.prevTime).Seconds()
	f.prevTime = ts

	rawDeriv := (value - f.prev) / dt
	deriv := lowpass(rawDeriv, f.prevDeriv, alpha(dt, f.params.DerivCutoff))
	f.prevDeriv = deriv

	cutoff := f.params.MinCutoff + f.params.Beta*math.Abs(deriv)
	f.prev = lowpass(value, f.prev, alpha(dt, cutoff))
	return f.prev
}

// Reset discards all history so the next sample starts a new baseline.
func (f *Filter) Reset() {
	f.initialized = false
	f.prev = 0
	f.prevDeriv = 0
	f.prevTime = time.Time{}
}

// alpha converts a cutoff frequency into the exponential blend factor for a
// sample dt seconds after the previous one.
func alpha(dt, cutoff float64) float64 {
	tau := 1 / (2 * math.Pi * cutoff)
	return 1 / (1 + tau/dt)
}

func lowpass(raw, prev, a float64) float64 {
	return a*raw + (1-a)*prev
}

// VecFilter smooths a 3D position with an independent scalar filter per axis.
type VecFilter struct {
	x, y, z *Filter
}

// NewVecFilter builds a 3-axis filter sharing one tuning.
func NewVecFilter(params Params) *VecFilter {
	return &VecFilter{
		x: NewFilter(params),
		y: NewFilter(params),
		z: NewFilter(params),
	}
}

// Sample smooths one raw position.
func (f *VecFilter) Sample(v geom.Vec, ts time.Time) geom.Vec {
	return geom.Vec{
		X: f.x.Sample(v.X, ts),
		Y: f.y.Sample(v.Y, ts),
		Z: f.z.Sample(v.Z, ts),
	}
}

// Reset clears all three axes.
func (f *VecFilter) Reset() {
	f.x.Reset()
	f.y.Reset()
	f.z.Reset()
}
