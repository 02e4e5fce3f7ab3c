package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-acid/analysis"
	"github.com/cwbudde/algo-acid/config"
)

type outputPaths struct {
	config    string // fitted engine configuration, readable by config.LoadJSON
	report    string
	reference string
	baseline  string // configuration the fit started from
	pattern   string
}

// snapshot is the state written at a checkpoint or at the end of a run.
type snapshot struct {
	best        candidate
	eval        optimizationEval
	top         []topCandidate
	evals       int
	elapsed     float64
	checkpoints int
}

type runReport struct {
	ReferencePath   string             `json:"reference_path"`
	BaseConfig      string             `json:"base_config,omitempty"`
	OutputConfig    string             `json:"output_config"`
	Pattern         string             `json:"pattern"`
	SampleRate      int                `json:"sample_rate"`
	DurationSec     float64            `json:"elapsed_seconds"`
	Evaluations     int                `json:"evaluations"`
	MayflyVariant   string             `json:"mayfly_variant"`
	BestScore       float64            `json:"best_score"`
	BestSimilarity  float64            `json:"best_similarity"`
	BestMetrics     analysis.Metrics   `json:"best_metrics"`
	BestKnobs       map[string]float64 `json:"best_knobs"`
	ClampEvents     uint64             `json:"clamp_events"`
	CheckpointCount int                `json:"checkpoint_count"`
	TopCandidates   []topCandidate     `json:"top_candidates,omitempty"`
}

func reportPathFor(out outputPaths) string {
	if out.report != "" {
		return out.report
	}
	return out.config + ".report.json"
}

func writeOutputs(cfg *optimizationConfig, variant string, s snapshot) error {
	if s.eval.params == nil {
		return errors.New("no evaluated params to write")
	}
	if err := writeJSON(cfg.out.config, config.FromParams(s.eval.params)); err != nil {
		return err
	}
	rep := runReport{
		ReferencePath:   cfg.out.reference,
		BaseConfig:      cfg.out.baseline,
		OutputConfig:    cfg.out.config,
		Pattern:         cfg.out.pattern,
		SampleRate:      cfg.sampleRate,
		DurationSec:     s.elapsed,
		Evaluations:     s.evals,
		MayflyVariant:   variant,
		BestScore:       s.eval.metrics.Score,
		BestSimilarity:  s.eval.metrics.Similarity,
		BestMetrics:     s.eval.metrics,
		BestKnobs:       knobMap(cfg.defs, s.best),
		ClampEvents:     s.eval.clampEvents,
		CheckpointCount: s.checkpoints,
		TopCandidates:   s.top,
	}
	return writeJSON(reportPathFor(cfg.out), rep)
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

// loadCandidateFromReport resumes from the best_knobs of a previous report.
// A missing report is not an error.
func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}
	var rep struct {
		BestKnobs map[string]float64 `json:"best_knobs"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestKnobs) == 0 {
		return fallback, false, nil
	}
	c, ok := candidateFromKnobs(rep.BestKnobs, defs, fallback)
	if !ok {
		return fallback, false, nil
	}
	return c, true, nil
}
