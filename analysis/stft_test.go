package analysis

import (
	"math"
	"testing"
)

func TestSTFTSinePeak(t *testing.T) {
	const (
		sr   = 48000
		size = 2048
	)
	freq := 40 * float64(sr) / size // exactly on bin 40
	x := make([]float64, sr/2)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / sr)
	}
	s, err := STFT(x, sr, size, 512)
	if err != nil {
		t.Fatalf("STFT: %v", err)
	}
	if want := 1 + (len(x)-size)/512; len(s.Frames) != want {
		t.Fatalf("got %d frames, want %d", len(s.Frames), want)
	}
	mag := s.Frames[3]
	peak := 0
	for k := range mag {
		if mag[k] > mag[peak] {
			peak = k
		}
	}
	if peak != 40 {
		t.Fatalf("peak at bin %d, want 40", peak)
	}
	c := s.Centroids()[3]
	if math.Abs(c-freq) > 2*s.BinHz() {
		t.Fatalf("centroid %f Hz, want near %f Hz", c, freq)
	}
}

func TestSTFTShortSignalPadded(t *testing.T) {
	s, err := STFT([]float64{1, 0, -1}, 48000, 256, 64)
	if err != nil {
		t.Fatalf("STFT: %v", err)
	}
	if len(s.Frames) != 1 || len(s.Frames[0]) != 129 {
		t.Fatalf("expected one padded frame of 129 bins, got %d", len(s.Frames))
	}
}

func TestSTFTRejectsBadSize(t *testing.T) {
	if _, err := STFT(nil, 48000, 1000, 100); err == nil {
		t.Fatalf("expected error for non power of two size")
	}
	if _, err := STFT(nil, 48000, 1024, 0); err == nil {
		t.Fatalf("expected error for zero hop")
	}
}

func TestCentroidTracksFilterSweep(t *testing.T) {
	const sr = 48000
	x := makeSweptSaw(sr, 55, 1.0, 6000, 200)
	s, err := STFT(x, sr, 2048, 512)
	if err != nil {
		t.Fatalf("STFT: %v", err)
	}
	c := s.Centroids()
	if c[1] <= c[len(c)-2] {
		t.Fatalf("centroid should fall with the sweep: start=%f end=%f", c[1], c[len(c)-2])
	}
}
