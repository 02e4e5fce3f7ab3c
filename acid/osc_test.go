package acid

import (
	"fmt"
	"math"
	"testing"
)

func TestNoteCVRange(t *testing.T) {
	tests := []struct {
		note int
		want float64
	}{
		{0, 0},
		{12, 0},
		{24, 1},
		{60, 4},
		{72, 5},
		{127, 5},
	}
	for _, tt := range tests {
		if got := NoteCV(tt.note); got != tt.want {
			t.Fatalf("NoteCV(%d) = %v, want %v", tt.note, got, tt.want)
		}
	}
}

func TestOscillatorPitch(t *testing.T) {
	tests := []struct {
		note int
		want float64
	}{
		{36, 65.406},
		{45, 110.0},
		{57, 220.0},
		{69, 440.0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("Note%d", tt.note), func(t *testing.T) {
			var o Oscillator
			o.Prepare(testSampleRate)
			o.SetPitchCV(NoteCV(tt.note))

			// One second of oversampled output; each phase wrap is one cycle.
			var sq, saw [Oversample]float64
			wraps := 0
			for i := 0; i < testSampleRate*Oversample; i++ {
				prev := o.phase
				o.Process(&sq, &saw, 1)
				if o.phase < prev {
					wraps++
				}
			}
			got := float64(wraps)
			if math.Abs(got-tt.want) > tt.want*0.01+1 {
				t.Fatalf("measured %v Hz, want %v Hz", got, tt.want)
			}
		})
	}
}

func TestOscillatorBounded(t *testing.T) {
	var o Oscillator
	o.Prepare(testSampleRate)
	o.SetPitchCV(5)
	var sq, saw [Oversample]float64
	for i := 0; i < 4800; i++ {
		o.Process(&sq, &saw, Oversample)
		for j := 0; j < Oversample; j++ {
			if math.Abs(sq[j]) > 1.5 || math.Abs(saw[j]) > 1.5 {
				t.Fatalf("sample out of range: sq=%v saw=%v", sq[j], saw[j])
			}
		}
	}
}

func TestOscillatorPrepareSetsCVOne(t *testing.T) {
	var o Oscillator
	o.Prepare(testSampleRate)
	if o.PitchCV() != 1 {
		t.Fatalf("expected CV 1 after prepare, got %v", o.PitchCV())
	}
	if math.Abs(o.Frequency()-2*cvZeroHz) > 0.5 {
		t.Fatalf("expected ~%v Hz, got %v", 2*cvZeroHz, o.Frequency())
	}
}
