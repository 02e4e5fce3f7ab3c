package wavio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWriteMonoReadBack(t *testing.T) {
	const (
		sr = 44100
		n  = 4410
	)
	x := make([]float32, n)
	for i := range x {
		x[i] = float32(0.5 * math.Sin(2*math.Pi*100*float64(i)/sr))
	}
	path := filepath.Join(t.TempDir(), "sub", "mono.wav")
	if err := WriteMono(path, x, sr); err != nil {
		t.Fatalf("WriteMono: %v", err)
	}
	got, rate, err := ReadMono(path)
	if err != nil {
		t.Fatalf("ReadMono: %v", err)
	}
	if rate != sr || len(got) != n {
		t.Fatalf("got %d frames at %d Hz, want %d at %d", len(got), rate, n, sr)
	}
	// Quarter and three-quarter periods of the 100 Hz sine.
	if !(got[110] > 0 && got[330] < 0) {
		t.Fatalf("waveform polarity lost: %v %v", got[110], got[330])
	}
	if r := got[55] / got[110]; math.Abs(r-math.Sin(math.Pi/4)) > 0.01 {
		t.Fatalf("waveform shape lost: ratio %v", r)
	}
}

func TestWriteChannelsRejectsMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	err := WriteChannels(path, [][]float32{make([]float32, 4), make([]float32, 3)}, 48000)
	if err == nil {
		t.Fatalf("expected length mismatch error")
	}
	if err := WriteChannels(path, nil, 48000); err == nil {
		t.Fatalf("expected error for no channels")
	}
}

func TestWriteChannelsFrameCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.wav")
	chans := make([][]float32, 4)
	for c := range chans {
		chans[c] = make([]float32, 1000)
		for i := range chans[c] {
			chans[c][i] = 0.1 * float32(c+1)
		}
	}
	if err := WriteChannels(path, chans, 48000); err != nil {
		t.Fatalf("WriteChannels: %v", err)
	}
	got, rate, err := ReadMono(path)
	if err != nil {
		t.Fatalf("ReadMono: %v", err)
	}
	if rate != 48000 || len(got) != 1000 {
		t.Fatalf("got %d frames at %d Hz", len(got), rate)
	}
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	x := []float64{1, 2, 3}
	got, err := Resample(x, 48000, 48000)
	if err != nil || &got[0] != &x[0] {
		t.Fatalf("expected the input back, got %v %v", got, err)
	}
}

func TestResampleLength(t *testing.T) {
	x := make([]float64, 44100)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * 220 * float64(i) / 44100)
	}
	got, err := Resample(x, 44100, 48000)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if math.Abs(float64(len(got))-48000) > 480 {
		t.Fatalf("resampled length %d, want ~48000", len(got))
	}
}

func TestNormalize(t *testing.T) {
	x := []float32{0.1, -0.4, 0.2}
	Normalize(x, 0.8)
	if Peak(x) != 0.8 || x[1] != -0.8 {
		t.Fatalf("unexpected normalize result %v", x)
	}
	silent := []float32{0, 0}
	Normalize(silent, 1)
	if silent[0] != 0 {
		t.Fatalf("silence must stay silent")
	}
}
