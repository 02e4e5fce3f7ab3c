package acid

import "github.com/cwbudde/algo-approx"

// Oversample is the oscillator/filter oversampling factor. Each output sample
// is built from this many internal samples.
const Oversample = 4

// cvZeroHz is the pitch at CV 0 (MIDI note 12).
const cvZeroHz = 16.351597831287414

// Oscillator renders band-limited (PolyBLEP) square and saw waves at
// Oversample times the host rate. Both shapes are always produced.
type Oscillator struct {
	osRate float64
	cv     float64
	freq   float64
	inc    float64
	phase  float64
}

// Prepare sets the host sample rate and resets the phase. Pitch CV is set to 1.
func (o *Oscillator) Prepare(sampleRate float64) {
	o.osRate = sampleRate * Oversample
	o.phase = 0
	o.SetPitchCV(1.0)
}

// SetPitchCV sets pitch in volts per octave; CV 0 is 16.35 Hz.
func (o *Oscillator) SetPitchCV(cv float64) {
	o.cv = cv
	o.freq = cvToHz(cv)
	if o.osRate > 0 {
		o.inc = o.freq / o.osRate
	}
}

// PitchCV returns the current pitch CV.
func (o *Oscillator) PitchCV() float64 { return o.cv }

// Frequency returns the current pitch in Hz.
func (o *Oscillator) Frequency() float64 { return o.freq }

// Process renders count (at most Oversample) samples into square and saw.
func (o *Oscillator) Process(square, saw *[Oversample]float64, count int) {
	if count > Oversample {
		count = Oversample
	}
	dt := o.inc
	for i := 0; i < count; i++ {
		p := o.phase

		saw[i] = 2.0*p - 1.0 - polyBLEP(p, dt)

		sq := 1.0
		if p >= 0.5 {
			sq = -1.0
		}
		q := p + 0.5
		if q >= 1.0 {
			q -= 1.0
		}
		square[i] = sq + polyBLEP(p, dt) - polyBLEP(q, dt)

		o.phase += dt
		if o.phase >= 1.0 {
			o.phase -= 1.0
		}
	}
}

func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1.0
	}
	if t > 1.0-dt {
		t = (t - 1.0) / dt
		return t*t + t + t + 1.0
	}
	return 0
}

func cvToHz(cv float64) float64 {
	const ln2 = 0.69314718055994530942
	return cvZeroHz * float64(approx.FastExp(float32(cv*ln2)))
}

// NoteCV converts a MIDI note to pitch CV, clamped to the five-octave range
// from note 12 to note 72.
func NoteCV(note int) float64 {
	if note < minNote {
		note = minNote
	}
	if note > maxNote {
		note = maxNote
	}
	return float64(note-minNote) / 12.0
}

const (
	minNote = 12
	maxNote = 72
)
