package acid

import "math"

// Formula holds the tunable coefficients of the exponential cutoff converter:
//
//	Ic = (A*Vco + B) * exp(C*Vmod + D*(Vacc*VaccMul + VaccOffset) + E) + Base
//
// Vco is the cutoff knob, Vmod the envelope-modulation voltage and Vacc the
// accent voltage coming out of the wow filter.
type Formula struct {
	A, B, C, D, E float64
	Base          float64
	VaccMul       float64
	VaccOffset    float64
}

// DefaultFormula returns the coefficient set the engine starts with.
func DefaultFormula() Formula {
	return Formula{
		A:       1.633001,
		B:       0.626,
		C:       0.324,
		D:       0.191,
		E:       4.462,
		Base:    -119.205,
		VaccMul: 2.0,
	}
}

// envelope-mod voltage of the Q9 bias stage
const vmodBias = 3.2

// Cutoff maps envelope output, cutoff knob, envelope-mod amount and accent
// voltage to a filter frequency in Hz. The result is not clamped.
func (f *Formula) Cutoff(env, cutoff, envMod, accentCV float64) float64 {
	scale := 6.9*envMod + 1.3
	bias := -1.2*envMod + 3
	mod := (scale*env + bias) - vmodBias
	return (f.A*cutoff+f.B)*math.Exp(f.C*mod+f.D*(accentCV*f.VaccMul+f.VaccOffset)+f.E) + f.Base
}

// CutoffHz is the free-function form of Formula.Cutoff.
func CutoffHz(env, cutoff, envMod, accentCV float64, f *Formula) float64 {
	return f.Cutoff(env, cutoff, envMod, accentCV)
}

// Limits returns the formula output at rest (envelope 0) and at the top of
// the envelope swing (1.01), both without accent.
func (f *Formula) Limits(cutoff, envMod float64) (lo, hi float64) {
	return f.Cutoff(0.0, cutoff, envMod, 0.0), f.Cutoff(1.01, cutoff, envMod, 0.0)
}

// MinCutoffHz is the lowest frequency handed to the filter.
const MinCutoffHz = 1.0

// ClampCutoff limits freq to [MinCutoffHz, sampleRate/2]. The second result
// is true when freq was above Nyquist or not a number.
func ClampCutoff(freq, sampleRate float64) (float64, bool) {
	nyquist := sampleRate / 2.0
	switch {
	case freq != freq:
		return MinCutoffHz, true
	case freq >= nyquist:
		return nyquist, true
	case freq < MinCutoffHz:
		return MinCutoffHz, false
	}
	return freq, false
}
