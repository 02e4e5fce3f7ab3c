package main

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/algo-acid/acid"
	"github.com/cwbudde/algo-acid/analysis"
	"github.com/cwbudde/algo-acid/config"
	"github.com/cwbudde/algo-acid/internal/render"
	"github.com/cwbudde/algo-acid/internal/wavio"
	"github.com/cwbudde/algo-acid/pattern"
)

func TestNewMayflyConfig(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{variant: "ma"},
		{variant: "desma"},
		{variant: "olce"},
		{variant: "eobbma"},
		{variant: "gsasma"},
		{variant: "mpma"},
		{variant: "aoblmoa"},
		{variant: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			cfg, err := newMayflyConfig(tt.variant, 10, 5, 20)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("newMayflyConfig(%q) expected error", tt.variant)
				}
				return
			}
			if err != nil {
				t.Fatalf("newMayflyConfig(%q) unexpected error: %v", tt.variant, err)
			}
			if cfg.ProblemSize != 5 || cfg.NPop != 10 || cfg.MaxIterations != 20 {
				t.Fatalf("got size=%d pop=%d iters=%d, want 5/10/20", cfg.ProblemSize, cfg.NPop, cfg.MaxIterations)
			}
		})
	}
}

func TestReserveEvalCapsAtMax(t *testing.T) {
	const (
		maxEvals = 47
		workers  = 8
	)
	var evals, granted int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, ok := reserveEval(&evals, maxEvals); !ok {
					return
				}
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&granted); got != maxEvals {
		t.Fatalf("granted evaluations = %d, want %d", got, maxEvals)
	}
}

func TestUpdateTopCandidatesKeepsBest(t *testing.T) {
	defs := []knobDef{{Name: "x", Min: 0, Max: 1}}
	var top []topCandidate
	for i, s := range []float64{0.5, 0.2, 0.9, 0.1} {
		top = updateTopCandidates(top, 2, i+1, analysis.Metrics{Score: s}, defs, candidate{Vals: []float64{s}})
	}
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].Score != 0.1 || top[1].Score != 0.2 {
		t.Fatalf("scores = %g, %g; want 0.1, 0.2", top[0].Score, top[1].Score)
	}
}

func testFitConfig(t *testing.T, sr int) *optimizationConfig {
	t.Helper()
	p := pattern.MustParse("C2 C2! - .")
	ropt := render.DefaultOptions()
	ropt.Tempo = 240
	ropt.Passes = 3
	ropt.TailSeconds = 0

	e := acid.NewEngine(sr, nil)
	e.SetLogger(nil)
	ref, err := render.Pattern(e, p, ropt)
	if err != nil {
		t.Fatalf("render reference: %v", err)
	}
	reference := wavio.Float64(ref.Main())

	base := acid.NewDefaultParams()
	defs, init := initCandidate(base, map[string]bool{"knobs": true})
	dir := t.TempDir()
	return &optimizationConfig{
		reference:        reference,
		finalReference:   reference,
		baseParams:       base,
		defs:             defs,
		initCandidate:    init,
		pattern:          p,
		render:           ropt,
		sampleRate:       sr,
		finalSampleRate:  sr,
		seed:             1,
		timeBudget:       30,
		maxEvals:         12,
		reportEvery:      100,
		checkpointEvery:  1,
		refineTopK:       2,
		mayflyVariant:    "ma",
		mayflyPop:        2,
		mayflyRoundEvals: 4,
		workers:          2,
		topK:             3,
		out: outputPaths{
			config:  filepath.Join(dir, "fit.json"),
			pattern: p.String(),
		},
	}
}

func TestEvaluateCandidateMatchesIdenticalRender(t *testing.T) {
	cfg := testFitConfig(t, 16000)
	res, err := evaluateCandidate(cfg, cfg.initCandidate, evalSettings{reference: cfg.reference, sampleRate: cfg.sampleRate})
	if err != nil {
		t.Fatalf("evaluateCandidate: %v", err)
	}
	if res.metrics.Score > 1e-6 {
		t.Fatalf("identical render scored %g, want ~0", res.metrics.Score)
	}
}

func TestRunOptimizationWritesLoadableConfig(t *testing.T) {
	cfg := testFitConfig(t, 16000)
	result, err := runOptimization(cfg)
	if err != nil {
		t.Fatalf("runOptimization: %v", err)
	}
	if result.evals > cfg.maxEvals {
		t.Fatalf("evals = %d, want <= %d", result.evals, cfg.maxEvals)
	}

	final := snapshot{best: result.best, eval: result.bestEval, top: result.top, evals: result.evals}
	if err := writeOutputs(cfg, "ma", final); err != nil {
		t.Fatalf("writeOutputs: %v", err)
	}
	if _, err := config.LoadJSON(cfg.out.config); err != nil {
		t.Fatalf("fitted config not loadable: %v", err)
	}
	if _, err := os.Stat(reportPathFor(cfg.out)); err != nil {
		t.Fatalf("report missing: %v", err)
	}

	resumed, ok, err := loadCandidateFromReport(reportPathFor(cfg.out), cfg.defs, cfg.initCandidate)
	if err != nil || !ok {
		t.Fatalf("resume: ok=%v err=%v", ok, err)
	}
	for i := range resumed.Vals {
		if resumed.Vals[i] != result.best.Vals[i] {
			t.Fatalf("resumed knob %s = %g, want %g", cfg.defs[i].Name, resumed.Vals[i], result.best.Vals[i])
		}
	}
}

func TestLoadCandidateFromMissingReport(t *testing.T) {
	fallback := candidate{Vals: []float64{1}}
	c, ok, err := loadCandidateFromReport(filepath.Join(t.TempDir(), "none.json"), []knobDef{{Name: "x"}}, fallback)
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v, want false/nil", ok, err)
	}
	if c.Vals[0] != 1 {
		t.Fatal("fallback not returned")
	}
}
