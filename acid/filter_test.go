package acid

import (
	"math"
	"testing"
)

// runFilterSine feeds an oversampled sine through f and returns input and
// output RMS of the second half.
func runFilterSine(f *Filter, freq, amp float64, seconds float64) (inRMS, outRMS float64) {
	osRate := float64(testSampleRate * Oversample)
	n := int(seconds * testSampleRate)
	var block [Oversample]float64
	var inSum, outSum float64
	count := 0
	for i := 0; i < n; i++ {
		for j := 0; j < Oversample; j++ {
			k := i*Oversample + j
			block[j] = amp * math.Sin(2*math.Pi*freq*float64(k)/osRate)
		}
		y := f.ProcessSample(&block)
		if i >= n/2 {
			inSum += block[Oversample-1] * block[Oversample-1]
			outSum += y * y
			count++
		}
	}
	return math.Sqrt(inSum / float64(count)), math.Sqrt(outSum / float64(count))
}

func TestFilterPassband(t *testing.T) {
	var f Filter
	f.Prepare(testSampleRate, 5000, 0)
	in, out := runFilterSine(&f, 100, 0.1, 0.5)
	ratio := out / in
	if ratio < 0.9 || ratio > 1.1 {
		t.Fatalf("passband gain %v, want ~1", ratio)
	}
}

func TestFilterStopband(t *testing.T) {
	var f Filter
	f.Prepare(testSampleRate, 200, 0)
	in, out := runFilterSine(&f, 10000, 0.1, 0.5)
	if out/in > 0.01 {
		t.Fatalf("stopband gain %v, want < 0.01", out/in)
	}
}

func TestFilterResonanceBoostsCutoff(t *testing.T) {
	var flat, peaked Filter
	flat.Prepare(testSampleRate, 1000, 0)
	peaked.Prepare(testSampleRate, 1000, 0.9)
	_, a := runFilterSine(&flat, 1000, 0.01, 0.5)
	_, b := runFilterSine(&peaked, 1000, 0.01, 0.5)
	if b <= a {
		t.Fatalf("expected resonance to boost the cutoff region: flat=%v peaked=%v", a, b)
	}
}

func TestFilterStableUnderModulation(t *testing.T) {
	var f Filter
	f.Prepare(testSampleRate, initCutoffHz, 1)
	var o Oscillator
	o.Prepare(testSampleRate)
	o.SetPitchCV(NoteCV(33))

	var sq, saw [Oversample]float64
	for i := 0; i < testSampleRate*2; i++ {
		freq := 50 + (testSampleRate/2-50)*0.5*(1+math.Sin(2*math.Pi*3*float64(i)/testSampleRate))
		f.CalcCoeffs(freq, 1)
		o.Process(&sq, &saw, Oversample)
		y := f.ProcessSample(&saw)
		if math.IsNaN(y) || math.IsInf(y, 0) || math.Abs(y) > 5 {
			t.Fatalf("unstable output at %d (cutoff %v): %v", i, freq, y)
		}
	}
}

func TestFilterResetClearsState(t *testing.T) {
	var f Filter
	f.Prepare(testSampleRate, 1000, 0.5)
	runFilterSine(&f, 200, 0.5, 0.05)
	f.Reset()
	var zero [Oversample]float64
	if y := f.ProcessSample(&zero); y != 0 {
		t.Fatalf("expected silence after reset, got %v", y)
	}
}

func TestWowFilterDCGain(t *testing.T) {
	var w WowFilter
	w.Prepare(testSampleRate)
	var y float64
	for i := 0; i < testSampleRate*2; i++ {
		y = w.ProcessSample(1)
	}
	if math.Abs(y-1) > 1e-3 {
		t.Fatalf("expected unity DC gain, got %v", y)
	}
}

func TestWowFilterResonanceOvershoots(t *testing.T) {
	step := func(pot float64) float64 {
		var w WowFilter
		w.Prepare(testSampleRate)
		w.SetResonancePot(pot)
		peak := 0.0
		for i := 0; i < testSampleRate*3; i++ {
			if y := w.ProcessSample(1); y > peak {
				peak = y
			}
		}
		return peak
	}
	if p := step(0); p > 1.0+1e-6 {
		t.Fatalf("pot 0 should not overshoot, peak %v", p)
	}
	if p := step(1); p < 1.2 {
		t.Fatalf("pot 1 should swell past the input, peak %v", p)
	}
}

func TestWowFilterPotChangeKeepsState(t *testing.T) {
	var w WowFilter
	w.Prepare(testSampleRate)
	w.SetResonancePot(0.3)
	var last float64
	for i := 0; i < 2000; i++ {
		last = w.ProcessSample(0.5)
	}
	before := w.lp
	w.SetResonancePot(0.3)
	if w.lp != before {
		t.Fatalf("same pot value must not touch the filter")
	}
	w.SetResonancePot(0.8)
	if w.lp.Coefficients() == before.Coefficients() {
		t.Fatalf("pot change must retune the filter")
	}
	if w.ResonancePot() != 0.8 {
		t.Fatalf("expected pot 0.8, got %v", w.ResonancePot())
	}
	if y := w.ProcessSample(0.5); math.Abs(y-last) > 0.01 {
		t.Fatalf("pot change must keep the filter state: %v -> %v", last, y)
	}
}
