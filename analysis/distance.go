// Package analysis measures how close a rendered bass line is to a
// reference recording.
package analysis

import (
	"math"
)

// Metrics contains distance and similarity measurements between two audio signals.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE        float64 `json:"time_rmse"`
	EnvelopeRMSEDB  float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB  float64 `json:"spectral_rmse_db"`
	CentroidRMSEOct float64 `json:"centroid_rmse_oct"`
	RefCentroidHz   float64 `json:"ref_centroid_hz"`
	CandCentroidHz  float64 `json:"cand_centroid_hz"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Options tune Compare.
type Options struct {
	MaxSeconds    float64 // aligned signals are truncated to this length
	MaxLagSeconds float64
	FFTSize       int
	Hop           int
	Weights       Weights
}

// Weights combine the normalized sub-metrics into Score.
type Weights struct {
	Time, Envelope, Spectral, Centroid float64
}

// DefaultOptions returns the settings Compare uses.
func DefaultOptions() Options {
	return Options{
		MaxSeconds:    12,
		MaxLagSeconds: 0.25,
		FFTSize:       2048,
		Hop:           512,
		Weights:       Weights{Time: 0.15, Envelope: 0.25, Spectral: 0.3, Centroid: 0.3},
	}
}

// Compare returns objective distance metrics and a combined score in [0,1].
func Compare(reference, candidate []float64, sampleRate int) Metrics {
	return CompareWith(reference, candidate, sampleRate, DefaultOptions())
}

// CompareWith is Compare with explicit options.
func CompareWith(reference, candidate []float64, sampleRate int, opt Options) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1.0,
	}
	if sampleRate <= 0 {
		return m
	}

	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	if len(ref) < 2 || len(cand) < 2 {
		return m
	}
	ref = normalizeRMS(ref, 0.1)
	cand = normalizeRMS(cand, 0.1)

	maxLag := int(opt.MaxLagSeconds * float64(sampleRate))
	maxLag = max(1, min(maxLag, len(ref)-1, len(cand)-1))
	m.LagSamples = estimateLag(ref, cand, maxLag)

	refA, candA := alignByLag(ref, cand, m.LagSamples)
	n := min(len(refA), len(candA))
	if limit := int(opt.MaxSeconds * float64(sampleRate)); limit > 0 && n > limit {
		n = limit
	}
	if n < 256 {
		return m
	}
	refA, candA = refA[:n], candA[:n]
	m.AlignedFrames = n

	m.TimeRMSE = rmse(refA, candA)

	refEnv := Envelope(refA, 256, 128)
	candEnv := Envelope(candA, 256, 128)
	if envN := min(len(refEnv), len(candEnv)); envN > 0 {
		var sum float64
		for i := 0; i < envN; i++ {
			d := linToDB(refEnv[i]) - linToDB(candEnv[i])
			sum += d * d
		}
		m.EnvelopeRMSEDB = math.Sqrt(sum / float64(envN))
	}

	refSpec, err1 := STFT(refA, sampleRate, opt.FFTSize, opt.Hop)
	candSpec, err2 := STFT(candA, sampleRate, opt.FFTSize, opt.Hop)
	if err1 == nil && err2 == nil {
		m.SpectralRMSEDB = spectralRMSEDB(refSpec, candSpec)
		m.CentroidRMSEOct = centroidRMSEOctaves(refSpec, candSpec)
		m.RefCentroidHz = meanPositive(refSpec.Centroids())
		m.CandCentroidHz = meanPositive(candSpec.Centroids())
	}

	w := opt.Weights
	total := w.Time + w.Envelope + w.Spectral + w.Centroid
	if total <= 0 {
		return m
	}
	score := w.Time*clamp01(m.TimeRMSE/0.25) +
		w.Envelope*clamp01(m.EnvelopeRMSEDB/30.0) +
		w.Spectral*clamp01(m.SpectralRMSEDB/30.0) +
		w.Centroid*clamp01(m.CentroidRMSEOct/2.0)
	m.Score = clamp01(score / total)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

func meanPositive(x []float64) float64 {
	var sum float64
	n := 0
	for _, v := range x {
		if v > 0 && isFinite(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
