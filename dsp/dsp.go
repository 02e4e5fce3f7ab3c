package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// ButterworthQ is the quality factor of a maximally flat second-order section.
const ButterworthQ = 0.7071067811865476

// Biquad implements a second-order IIR filter (no heap allocations in Process)
type Biquad struct {
	// Coefficients, normalized so that a0 == 1
	b0, b1, b2 float64
	a1, a2     float64

	// State (previous samples)
	x1, x2 float64 // input history
	y1, y2 float64 // output history
}

// NewBiquad creates a new biquad filter with the given coefficients
func NewBiquad(c biquad.Coefficients) *Biquad {
	b := &Biquad{}
	b.SetCoefficients(c)
	return b
}

// NewLowpass creates a lowpass biquad filter from the RBJ cookbook design.
func NewLowpass(cutoff, sampleRate, q float64) *Biquad {
	return NewBiquad(design.Lowpass(cutoff, q, sampleRate))
}

// SetCoefficients swaps the coefficient set and keeps the delay registers,
// so a running signal stays continuous across the change.
func (b *Biquad) SetCoefficients(c biquad.Coefficients) {
	b.b0, b.b1, b.b2 = c.B0, c.B1, c.B2
	b.a1, b.a2 = c.A1, c.A2
}

// Coefficients returns the current coefficient set.
func (b *Biquad) Coefficients() biquad.Coefficients {
	return biquad.Coefficients{B0: b.b0, B1: b.b1, B2: b.b2, A1: b.a1, A2: b.a2}
}

// Process processes one sample through the biquad filter
func (b *Biquad) Process(input float64) float64 {
	// Direct Form I implementation
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	output = dspcore.FlushDenormals(output)

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output

	return output
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// DBToGain converts decibels to linear gain. Anything at or below -90 dB is silence.
func DBToGain(db float64) float64 {
	if db <= -90.0 {
		return 0
	}
	return math.Pow(10.0, db*0.05)
}

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
