package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Spectrogram holds STFT magnitudes, one row of FFTSize/2+1 bins per frame.
type Spectrogram struct {
	SampleRate int
	FFTSize    int
	Hop        int
	Frames     [][]float64
}

// STFT computes Hann-windowed magnitude frames of x. Signals shorter than
// one frame are zero padded to a single frame.
func STFT(x []float64, sampleRate, fftSize, hop int) (*Spectrogram, error) {
	if fftSize < 16 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two >= 16, got %d", fftSize)
	}
	if hop <= 0 {
		return nil, fmt.Errorf("hop must be > 0, got %d", hop)
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}

	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
	}

	s := &Spectrogram{SampleRate: sampleRate, FFTSize: fftSize, Hop: hop}
	buf := make([]float64, fftSize)
	spec := make([]complex128, fftSize/2+1)
	for pos := 0; pos == 0 || pos+fftSize <= len(x); pos += hop {
		for i := range buf {
			buf[i] = 0
			if pos+i < len(x) {
				buf[i] = x[pos+i] * window[i]
			}
		}
		plan.Forward(spec, buf)
		mag := make([]float64, len(spec))
		for k, c := range spec {
			mag[k] = cmplx.Abs(c)
		}
		s.Frames = append(s.Frames, mag)
	}
	return s, nil
}

// BinHz is the width of one bin in Hz.
func (s *Spectrogram) BinHz() float64 {
	return float64(s.SampleRate) / float64(s.FFTSize)
}

// Centroids returns the spectral centroid of every frame in Hz. Silent
// frames yield 0.
func (s *Spectrogram) Centroids() []float64 {
	out := make([]float64, len(s.Frames))
	binHz := s.BinHz()
	for i, mag := range s.Frames {
		var num, den float64
		for k := 1; k < len(mag); k++ {
			num += float64(k) * binHz * mag[k]
			den += mag[k]
		}
		if den > 1e-12 {
			out[i] = num / den
		}
	}
	return out
}

// Energy returns the summed magnitude of every frame.
func (s *Spectrogram) Energy() []float64 {
	out := make([]float64, len(s.Frames))
	for i, mag := range s.Frames {
		for _, m := range mag {
			out[i] += m
		}
	}
	return out
}

// spectralRMSEDB is the RMS log-magnitude difference over all shared
// frames and bins, DC excluded.
func spectralRMSEDB(a, b *Spectrogram) float64 {
	n := min(len(a.Frames), len(b.Frames))
	var sum float64
	count := 0
	for i := 0; i < n; i++ {
		fa, fb := a.Frames[i], b.Frames[i]
		for k := 1; k < len(fa) && k < len(fb); k++ {
			d := linToDB(fa[k]) - linToDB(fb[k])
			sum += d * d
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}

// centroidRMSEOctaves compares two centroid tracks in octaves, skipping
// frames that are quiet in either signal.
func centroidRMSEOctaves(a, b *Spectrogram) float64 {
	ca, cb := a.Centroids(), b.Centroids()
	ea, eb := a.Energy(), b.Energy()
	n := min(len(ca), len(cb))
	peak := 0.0
	for i := 0; i < n; i++ {
		peak = math.Max(peak, math.Max(ea[i], eb[i]))
	}
	gate := peak * 1e-3
	var sum float64
	count := 0
	for i := 0; i < n; i++ {
		if ea[i] < gate || eb[i] < gate || ca[i] <= 0 || cb[i] <= 0 {
			continue
		}
		d := math.Log2(ca[i] / cb[i])
		sum += d * d
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}
