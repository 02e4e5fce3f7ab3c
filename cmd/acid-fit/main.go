package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-acid/acid"
	"github.com/cwbudde/algo-acid/config"
	"github.com/cwbudde/algo-acid/internal/render"
	"github.com/cwbudde/algo-acid/internal/wavio"
	"github.com/cwbudde/algo-acid/pattern"
)

func main() {
	referencePath := flag.String("reference", "reference/line.wav", "Reference WAV path")
	configPath := flag.String("config", "", "Base engine configuration JSON (optional)")
	outputConfig := flag.String("output-config", "out/fitted.json", "Path to write the best fitted configuration")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-config>.report.json)")
	patternText := flag.String("pattern", "C2 C2! C3 C2 - D#2 C2! .", "Pattern played in the reference")
	tempo := flag.Float64("tempo", pattern.DefaultTempo, "Tempo of the reference in BPM")
	shuffle := flag.Float64("shuffle", 0, "Shuffle of the reference 0..1")
	gate := flag.Float64("gate", pattern.DefaultGate, "Gate length as a fraction of a step")
	optimize := flag.String("optimize", "formula,knobs", "Comma-separated knob groups to optimize: formula, knobs, level")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	optSampleRate := flag.Int("opt-sample-rate", 0, "Optimization-loop sample rate (0 uses --sample-rate)")
	renderBlockSize := flag.Int("render-block-size", render.DefaultBlockSize, "Audio render block size for candidate evaluation")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 120.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 5000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	checkpointEvery := flag.Int("checkpoint-every", 1, "Write checkpoint every N best-score improvements")
	refineTopK := flag.Int("refine-top-k", 3, "After optimization, re-evaluate best N candidates at full settings")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in report")
	resume := flag.Bool("resume", true, "Resume from previous best_knobs report when available")
	workers := flag.String("workers", "1", "Parallel workers running independent Mayfly rounds (number or 'auto')")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	groups, err := parseOptimizeGroups(*optimize)
	if err != nil {
		die("invalid --optimize: %v", err)
	}
	if *outputConfig == "" {
		die("output-config must not be empty")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	*reportEvery = max(*reportEvery, 1)
	*checkpointEvery = max(*checkpointEvery, 1)
	*mayflyPop = max(*mayflyPop, 2)
	*mayflyRoundEvals = max(*mayflyRoundEvals, *mayflyPop*2)
	*topK = max(*topK, 1)
	*refineTopK = min(max(*refineTopK, 1), *topK)
	*renderBlockSize = max(*renderBlockSize, 16)
	if *optSampleRate <= 0 {
		*optSampleRate = *sampleRate
	}
	parsedWorkers, err := parseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}

	baseParams := acid.NewDefaultParams()
	if *configPath != "" {
		if baseParams, err = config.LoadJSON(*configPath); err != nil {
			die("failed to load config: %v", err)
		}
	}
	p, err := pattern.Parse(*patternText)
	if err != nil {
		die("failed to parse pattern: %v", err)
	}

	refOpt, err := wavio.ReadMonoAt(*referencePath, *optSampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	refFull, err := wavio.ReadMonoAt(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	defs, initCand := initCandidate(baseParams, groups)
	out := outputPaths{
		config:    *outputConfig,
		report:    *reportPath,
		reference: *referencePath,
		baseline:  *configPath,
		pattern:   p.String(),
	}
	if *resume {
		resumePath := reportPathFor(out)
		if resumed, ok, err := loadCandidateFromReport(resumePath, defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", resumePath, err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", resumePath)
		}
	}

	ropt := render.DefaultOptions()
	ropt.BlockSize = *renderBlockSize
	ropt.Tempo = *tempo
	ropt.Shuffle = *shuffle
	ropt.Gate = *gate

	cfg := &optimizationConfig{
		reference:        refOpt,
		finalReference:   refFull,
		baseParams:       baseParams,
		defs:             defs,
		initCandidate:    initCand,
		pattern:          p,
		render:           ropt,
		sampleRate:       *optSampleRate,
		finalSampleRate:  *sampleRate,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		checkpointEvery:  *checkpointEvery,
		refineTopK:       *refineTopK,
		mayflyVariant:    *mayflyVariant,
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          parsedWorkers,
		topK:             *topK,
		out:              out,
	}

	fmt.Printf("Fitting %d knobs (%s) against %s\n", len(defs), *optimize, *referencePath)
	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}

	variant := strings.ToLower(*mayflyVariant)
	final := snapshot{
		best:        result.best,
		eval:        result.bestEval,
		top:         result.top,
		evals:       result.evals,
		elapsed:     result.elapsed,
		checkpoints: result.checkpoints,
	}
	if err := writeOutputs(cfg, variant, final); err != nil {
		die("failed to write outputs: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		result.evals, result.elapsed, result.bestEval.metrics.Score, result.bestEval.metrics.Similarity*100.0, variant)
}

// parseWorkers accepts a positive count or "auto" (returned as 0).
func parseWorkers(raw string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return 0, fmt.Errorf("empty value (use integer >= 1 or 'auto')")
	}
	if v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q (use integer >= 1 or 'auto')", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d (must be >= 1 or 'auto')", n)
	}
	return n, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
