package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-acid/acid"
	"github.com/cwbudde/algo-acid/analysis"
	"github.com/cwbudde/algo-acid/config"
	"github.com/cwbudde/algo-acid/internal/render"
	"github.com/cwbudde/algo-acid/internal/wavio"
	"github.com/cwbudde/algo-acid/pattern"
)

func main() {
	referencePath := flag.String("reference", "reference/line.wav", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path; if empty, render the pattern")
	configPath := flag.String("config", "", "Engine configuration JSON for the rendered candidate")
	patternText := flag.String("pattern", "C2 C2! C3 C2 - D#2 C2! .", "Pattern for the rendered candidate")
	tempo := flag.Float64("tempo", pattern.DefaultTempo, "Tempo in BPM for the rendered candidate")
	passes := flag.Int("passes", 1, "Pattern repetitions for the rendered candidate")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	maxSeconds := flag.Float64("max-seconds", analysis.DefaultOptions().MaxSeconds, "Compare at most this many seconds")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write the rendered candidate WAV")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	ref, err := wavio.ReadMonoAt(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	var cand []float64
	if *candidatePath != "" {
		cand, err = wavio.ReadMonoAt(*candidatePath, *sampleRate)
		if err != nil {
			die("failed to read candidate: %v", err)
		}
	} else {
		out, err := renderCandidate(*configPath, *patternText, *tempo, *passes, *sampleRate)
		if err != nil {
			die("failed to render candidate: %v", err)
		}
		cand = wavio.Float64(out)
		if *writeCandidate != "" {
			if err := wavio.WriteMono(*writeCandidate, out, *sampleRate); err != nil {
				die("failed to write candidate wav: %v", err)
			}
		}
	}

	opt := analysis.DefaultOptions()
	opt.MaxSeconds = *maxSeconds
	metrics := analysis.CompareWith(ref, cand, *sampleRate, opt)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference frames: %d\n", metrics.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", metrics.CandidateFrames)
	fmt.Printf("Aligned frames:   %d\n", metrics.AlignedFrames)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", metrics.LagSamples, 1000.0*float64(metrics.LagSamples)/float64(metrics.SampleRate))
	fmt.Println()
	fmt.Printf("Time RMSE:        %.6f\n", metrics.TimeRMSE)
	fmt.Printf("Envelope RMSE:    %.2f dB\n", metrics.EnvelopeRMSEDB)
	fmt.Printf("Spectral RMSE:    %.2f dB\n", metrics.SpectralRMSEDB)
	fmt.Printf("Centroid RMSE:    %.3f oct (ref %.1f Hz, cand %.1f Hz)\n",
		metrics.CentroidRMSEOct, metrics.RefCentroidHz, metrics.CandCentroidHz)
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)
}

func renderCandidate(configPath, text string, tempo float64, passes, sampleRate int) ([]float32, error) {
	params := acid.NewDefaultParams()
	if configPath != "" {
		var err error
		if params, err = config.LoadJSON(configPath); err != nil {
			return nil, err
		}
	}
	p, err := pattern.Parse(text)
	if err != nil {
		return nil, err
	}
	e := acid.NewEngine(sampleRate, params)
	e.SetLogger(nil)

	opt := render.DefaultOptions()
	opt.Tempo = tempo
	opt.Passes = passes
	res, err := render.Pattern(e, p, opt)
	if err != nil {
		return nil, err
	}
	return res.Main(), nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
