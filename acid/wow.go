package acid

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/cwbudde/algo-acid/dsp"
)

// Accent network time constants in seconds: the fixed resistor path plus
// the share contributed by the resonance pot.
const (
	wowTauFixed = 0.022
	wowTauPot   = 0.1
	wowQMin     = 0.5
	wowQPot     = 1.5
)

// WowFilter shapes the accent-gated envelope into the accent control
// voltage. Turning the resonance pot up slows the network and adds a
// resonant bump, so stacked accents swell ("wow").
//
// The filter is never bypassed: without accent it is fed zeros, which keeps
// its state continuous across accent boundaries.
type WowFilter struct {
	sampleRate float64
	pot        float64
	lp         dsp.Biquad
}

// Prepare sets the sample rate, clears the state and sets the pot to 0.
func (w *WowFilter) Prepare(sampleRate float64) {
	w.sampleRate = sampleRate
	w.lp.Reset()
	w.pot = -1
	w.SetResonancePot(0)
}

// SetResonancePot sets the pot position in [0, 1]. Coefficients are only
// recomputed when the position changes; the state is kept.
func (w *WowFilter) SetResonancePot(value float64) {
	value = dsp.Clamp(value, 0, 1)
	if value == w.pot {
		return
	}
	w.pot = value
	tau := wowTauFixed + wowTauPot*value
	fc := 1.0 / (2.0 * math.Pi * tau)
	w.lp.SetCoefficients(design.Lowpass(fc, wowQMin+wowQPot*value, w.sampleRate))
}

// ResonancePot returns the current pot position.
func (w *WowFilter) ResonancePot() float64 { return w.pot }

// ProcessSample advances the network by one sample.
func (w *WowFilter) ProcessSample(in float64) float64 {
	return w.lp.Process(in)
}

// Reset clears the state without touching the pot.
func (w *WowFilter) Reset() {
	w.lp.Reset()
}
