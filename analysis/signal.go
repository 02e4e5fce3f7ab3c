package analysis

import "math"

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i, v := range x {
		if math.Abs(v) > threshold {
			return x[i:]
		}
	}
	return nil
}

// normalizeRMS returns a copy of x scaled to the target RMS.
func normalizeRMS(x []float64, target float64) []float64 {
	out := make([]float64, len(x))
	r := RMS(x)
	g := 1.0
	if r > 1e-12 {
		g = target / r
	}
	for i, v := range x {
		out[i] = v * g
	}
	return out
}

// estimateLag returns the shift of cand against ref in [-maxLag, maxLag]
// with the highest cross-correlation. Positive lags mean cand starts late
// in ref.
func estimateLag(ref, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	stride := 1
	if len(ref) > 100000 || len(cand) > 100000 {
		stride = 2
	}
	best, bestLag := math.Inf(-1), 0
	for lag := -maxLag; lag <= maxLag; lag++ {
		if s := correlateAt(ref, cand, lag, stride); s > best {
			best, bestLag = s, lag
		}
	}
	return bestLag
}

func correlateAt(a, b []float64, lag, stride int) float64 {
	ai, bi := 0, 0
	if lag >= 0 {
		ai = lag
	} else {
		bi = -lag
	}
	n := min(len(a)-ai, len(b)-bi)
	var sum float64
	for i := 0; i < n; i += stride {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}

func alignByLag(ref, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	if -lag >= len(cand) {
		return nil, nil
	}
	return ref, cand[-lag:]
}

// RMS returns the root mean square of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmse(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// Envelope returns the frame RMS of x with the given frame and hop sizes.
func Envelope(x []float64, frame, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	out := make([]float64, 1+(len(x)-frame)/hop)
	for i := range out {
		out[i] = RMS(x[i*hop : i*hop+frame])
	}
	return out
}

func linToDB(x float64) float64 {
	return 20.0 * math.Log10(math.Max(x, 1e-12))
}

func clamp01(x float64) float64 {
	return math.Min(math.Max(x, 0), 1)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
