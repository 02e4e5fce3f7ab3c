package acid

// DefaultPreviewLength is the number of samples Preview replays when n <= 0.
const DefaultPreviewLength = 48000

// Curve is the cutoff trajectory of one note replayed offline.
type Curve struct {
	X        []float64 // seconds since note-on
	Freq     []float64 // clamped cutoff in Hz
	Clamped  []bool    // formula result was at or above Nyquist
	AccentCV []float64
	Env      []float64
}

// Preview replays n samples of the cutoff modulation of a note struck at
// time 0, accented or not. It runs the same code path as Engine, so Freq
// matches what the voice feeds its filter.
func Preview(sampleRate float64, params *Params, accent bool, n int) Curve {
	if params == nil {
		params = NewDefaultParams()
	}
	if n <= 0 {
		n = DefaultPreviewLength
	}
	bp := params.snapshot()

	var m modulator
	m.prepare(sampleRate)
	m.wow.SetResonancePot(bp.resonance)
	m.trigger()

	c := Curve{
		X:        make([]float64, n),
		Freq:     make([]float64, n),
		Clamped:  make([]bool, n),
		AccentCV: make([]float64, n),
		Env:      make([]float64, n),
	}
	for i := 0; i < n; i++ {
		c.X[i] = float64(i) / sampleRate
		c.Env[i], c.AccentCV[i], c.Freq[i], c.Clamped[i] = m.step(&bp, accent)
	}
	return c
}

// PreviewPair returns the unaccented and the accented curve.
func PreviewPair(sampleRate float64, params *Params, n int) (off, on Curve) {
	return Preview(sampleRate, params, false, n), Preview(sampleRate, params, true, n)
}

// ClampCount returns the number of clamped samples in c.
func (c Curve) ClampCount() int {
	n := 0
	for _, v := range c.Clamped {
		if v {
			n++
		}
	}
	return n
}

// Peak returns the highest cutoff of c and the time it occurs.
func (c Curve) Peak() (hz, at float64) {
	for i, f := range c.Freq {
		if f > hz {
			hz, at = f, c.X[i]
		}
	}
	return hz, at
}
