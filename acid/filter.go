package acid

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/cwbudde/algo-acid/dsp"
)

const (
	// MaxFeedback is the ladder feedback at resonance 1. A linear 4-pole
	// ladder self-oscillates at 4.
	MaxFeedback = 3.9

	// 4th-order Butterworth split into two sections.
	decimatorQ1 = 0.5411961001461971
	decimatorQ2 = 1.3065629648763766

	decimatorCutoffRatio = 0.45
)

// Filter is a 4-pole zero-delay-feedback low-pass ladder running at the
// oversampled rate, followed by a decimator back to the host rate.
//
// Coefficients are meant to be recomputed every sample with CalcCoeffs.
// The frequency must already be clamped to [1, sampleRate/2] and resonance
// is expected in [0, 1].
type Filter struct {
	sampleRate float64
	osRate     float64

	g, bigG  float64
	g2, g3   float64
	g4       float64
	k        float64
	makeup   float64
	s        [4]float64
	decimate [2]dsp.Biquad
}

// Prepare sets the host sample rate, resets the state and computes an
// initial coefficient set.
func (f *Filter) Prepare(sampleRate, cutoff, resonance float64) {
	f.sampleRate = sampleRate
	f.osRate = sampleRate * Oversample
	fc := decimatorCutoffRatio * sampleRate
	f.decimate[0].SetCoefficients(design.Lowpass(fc, decimatorQ1, f.osRate))
	f.decimate[1].SetCoefficients(design.Lowpass(fc, decimatorQ2, f.osRate))
	f.Reset()
	f.CalcCoeffs(cutoff, resonance)
}

// Reset clears the ladder and decimator registers.
func (f *Filter) Reset() {
	f.s = [4]float64{}
	f.decimate[0].Reset()
	f.decimate[1].Reset()
}

// CalcCoeffs derives the ladder coefficients from cutoff (Hz) and resonance.
func (f *Filter) CalcCoeffs(freq, resonance float64) {
	f.g = math.Tan(math.Pi * freq / f.osRate)
	f.bigG = f.g / (1.0 + f.g)
	f.g2 = f.bigG * f.bigG
	f.g3 = f.g2 * f.bigG
	f.g4 = f.g3 * f.bigG
	f.k = MaxFeedback * resonance
	f.makeup = 1.0 + 0.5*f.k
}

// ProcessSample filters one block of oversampled input and returns the
// decimated host-rate sample.
func (f *Filter) ProcessSample(in *[Oversample]float64) float64 {
	var out float64
	for i := 0; i < Oversample; i++ {
		y := f.tick(in[i])
		y = f.decimate[0].Process(y)
		out = f.decimate[1].Process(y)
	}
	return out
}

func (f *Filter) tick(x float64) float64 {
	beta := 1.0 - f.bigG
	sigma := beta * (f.g3*f.s[0] + f.g2*f.s[1] + f.bigG*f.s[2] + f.s[3])
	y4 := (f.g4*x + sigma) / (1.0 + f.k*f.g4)

	u := math.Tanh(x - f.k*y4)
	for i := 0; i < 4; i++ {
		v := (u - f.s[i]) * f.bigG
		y := v + f.s[i]
		f.s[i] = dspcore.FlushDenormals(y + v)
		u = y
	}
	return u * f.makeup
}
