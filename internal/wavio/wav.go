// Package wavio reads and writes the WAV files used by the command line tools.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadMono decodes a WAV file, averages its channels and scales integer PCM
// to [-1, 1]. It returns the samples and the file sample rate.
func ReadMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = int(dec.BitDepth)
	}
	scale := 1.0
	if depth > 1 {
		scale = 1.0 / float64(int64(1)<<(depth-1))
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / float64(ch) * scale
	}
	return out, buf.Format.SampleRate, nil
}

// Resample converts in from fromRate to toRate. Equal rates return in as is.
func Resample(in []float64, fromRate, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, fmt.Errorf("resample %d -> %d: %w", fromRate, toRate, err)
	}
	return r.Process(in), nil
}

// ReadMonoAt reads a WAV file and resamples it to sampleRate.
func ReadMonoAt(path string, sampleRate int) ([]float64, error) {
	x, sr, err := ReadMono(path)
	if err != nil {
		return nil, err
	}
	return Resample(x, sr, sampleRate)
}

// WriteMono writes a 16-bit mono WAV file, creating parent directories.
func WriteMono(path string, data []float32, sampleRate int) error {
	return write(path, data, 1, sampleRate)
}

// WriteChannels interleaves equally long channels into one 16-bit WAV file.
func WriteChannels(path string, channels [][]float32, sampleRate int) error {
	if len(channels) == 0 {
		return fmt.Errorf("no channels")
	}
	n := len(channels[0])
	for i, c := range channels {
		if len(c) != n {
			return fmt.Errorf("channel %d has %d frames, want %d", i, len(c), n)
		}
	}
	nc := len(channels)
	data := make([]float32, n*nc)
	for i := 0; i < n; i++ {
		for c := 0; c < nc; c++ {
			data[i*nc+c] = channels[c][i]
		}
	}
	return write(path, data, nc, sampleRate)
}

func write(path string, interleaved []float32, channels, sampleRate int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           interleaved,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

// Float64 converts samples to float64.
func Float64(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}

// Float32 converts samples to float32.
func Float32(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v)
	}
	return out
}

// Peak returns the largest absolute sample.
func Peak(x []float32) float32 {
	var p float32
	for _, v := range x {
		if v < 0 {
			v = -v
		}
		if v > p {
			p = v
		}
	}
	return p
}

// Normalize scales x in place so its peak is target. Silence is left alone.
func Normalize(x []float32, target float32) {
	p := Peak(x)
	if p <= 0 {
		return
	}
	g := target / p
	for i := range x {
		x[i] *= g
	}
}
