package dsp

import "math"

// ParamSmoother is a one-pole low-pass used to de-zipper control values.
type ParamSmoother struct {
	timeMs     float64
	sampleRate float64
	a, b       float64
	z          float64
}

// NewParamSmoother creates a smoother with the given time constant in milliseconds.
func NewParamSmoother(timeMs, sampleRate float64) *ParamSmoother {
	s := &ParamSmoother{timeMs: timeMs}
	s.SetSampleRate(sampleRate)
	return s
}

// SetTimeMs changes the time constant and sample rate together.
func (s *ParamSmoother) SetTimeMs(timeMs, sampleRate float64) {
	s.timeMs = timeMs
	s.SetSampleRate(sampleRate)
}

// SetSampleRate recomputes the pole for a new sample rate. State is kept.
func (s *ParamSmoother) SetSampleRate(sampleRate float64) {
	s.sampleRate = sampleRate
	if s.timeMs <= 0 || sampleRate <= 0 {
		s.a, s.b = 0, 1
		return
	}
	s.a = math.Exp(-2.0 * math.Pi / (s.timeMs * 0.001 * sampleRate))
	s.b = 1.0 - s.a
}

// Process advances the smoother by one sample towards in.
func (s *ParamSmoother) Process(in float64) float64 {
	s.z = in*s.b + s.z*s.a
	return s.z
}

// Value returns the last smoothed value.
func (s *ParamSmoother) Value() float64 { return s.z }

// Flush resets the smoother to zero.
func (s *ParamSmoother) Flush() { s.z = 0 }
