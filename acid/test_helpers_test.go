package acid

import (
	"math"
	"testing"
)

const testSampleRate = 48000

func newTestEngine(t testing.TB, params *Params) *Engine {
	t.Helper()
	e := NewEngine(testSampleRate, params)
	e.SetLogger(nil)
	return e
}

func newOutputs(frames int) [][]float32 {
	out := make([][]float32, NumOutputs)
	for i := range out {
		out[i] = make([]float32, frames)
	}
	return out
}

func firstNonFinite(buf []float32) int {
	for i, v := range buf {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return i
		}
	}
	return -1
}

func peakAbs(buf []float32) float64 {
	peak := 0.0
	for _, v := range buf {
		if a := math.Abs(float64(v)); a > peak {
			peak = a
		}
	}
	return peak
}

// renderSilence renders n frames without events and returns the primary channel.
func renderSilence(e *Engine, n int) []float32 {
	out := newOutputs(n)
	e.RenderBlock(nil, out, n, nil)
	return out[OutMain]
}
