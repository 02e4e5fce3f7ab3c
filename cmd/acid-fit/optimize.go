package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-acid/acid"
	"github.com/cwbudde/algo-acid/analysis"
	"github.com/cwbudde/algo-acid/internal/render"
	"github.com/cwbudde/algo-acid/internal/wavio"
	"github.com/cwbudde/algo-acid/pattern"
	"github.com/cwbudde/mayfly"
)

type topCandidate struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`
}

type optimizationConfig struct {
	reference        []float64
	finalReference   []float64
	baseParams       *acid.Params
	defs             []knobDef
	initCandidate    candidate
	pattern          *pattern.Pattern
	render           render.Options
	sampleRate       int
	finalSampleRate  int
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	checkpointEvery  int
	refineTopK       int
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
	topK             int
	out              outputPaths
}

type evalSettings struct {
	reference  []float64
	sampleRate int
}

type optimizationEval struct {
	metrics     analysis.Metrics
	params      *acid.Params
	clampEvents uint64
}

type optimizationResult struct {
	best        candidate
	bestEval    optimizationEval
	top         []topCandidate
	evals       int
	elapsed     float64
	checkpoints int
}

type optimizationState struct {
	mu          sync.Mutex
	best        candidate
	bestEval    optimizationEval
	top         []topCandidate
	checkpoints int
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))
	variant := strings.ToLower(cfg.mayflyVariant)
	optSettings := evalSettings{reference: cfg.reference, sampleRate: cfg.sampleRate}
	finalSettings := evalSettings{reference: cfg.finalReference, sampleRate: cfg.finalSampleRate}

	best := cloneCandidate(cfg.initCandidate)
	initialEval, err := evaluateCandidate(cfg, best, optSettings)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	fmt.Printf("Start score=%.4f similarity=%.2f%% clamps=%d\n",
		initialEval.metrics.Score, initialEval.metrics.Similarity*100.0, initialEval.clampEvents)

	state := &optimizationState{
		best:     best,
		bestEval: initialEval,
		top:      updateTopCandidates(nil, cfg.topK, 1, initialEval.metrics, cfg.defs, best),
	}

	var evals int64 = 1
	var rounds int64
	var improves int64
	var outputMu sync.Mutex
	var latestPersistedImprove int64

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(workers, 1)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if time.Now().After(deadline) || atomic.LoadInt64(&evals) >= int64(cfg.maxEvals) {
					return
				}
				round := int(atomic.AddInt64(&rounds, 1))
				remaining := cfg.maxEvals - int(atomic.LoadInt64(&evals))
				if remaining <= 0 {
					return
				}
				budget := min(cfg.mayflyRoundEvals, remaining)
				iters := max(1, budget/(2*cfg.mayflyPop))

				mayflyConfig, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), iters)
				if err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d setup failed: %v\n", round, err)
					return
				}
				mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
				mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return currentBestScore(state) + 1.0
					}
					evalNum, ok := reserveEval(&evals, cfg.maxEvals)
					if !ok {
						return currentBestScore(state) + 1.0
					}

					cand := fromNormalized(pos, cfg.defs)
					res, err := evaluateCandidate(cfg, cand, optSettings)
					if err != nil {
						return currentBestScore(state) + 0.8
					}

					var snap snapshot
					improved := false
					checkpointDue := false
					var improveNum int64

					state.mu.Lock()
					state.top = updateTopCandidates(state.top, cfg.topK, int(evalNum), res.metrics, cfg.defs, cand)
					if res.metrics.Score < state.bestEval.metrics.Score {
						state.best = cloneCandidate(cand)
						state.bestEval = res
						improved = true
						improveNum = atomic.AddInt64(&improves, 1)
						checkpointDue = improveNum%int64(cfg.checkpointEvery) == 0
						snap = snapshot{best: cloneCandidate(cand), eval: res, top: cloneTopCandidates(state.top)}
					}
					bestScore := state.bestEval.metrics.Score
					state.mu.Unlock()

					if improved {
						fmt.Printf("Improved #%d eval=%d score=%.4f sim=%.2f%%\n",
							improveNum, evalNum, snap.eval.metrics.Score, snap.eval.metrics.Similarity*100.0)
						outputMu.Lock()
						if checkpointDue && improveNum > latestPersistedImprove {
							latestPersistedImprove = improveNum
							state.mu.Lock()
							snap.checkpoints = state.checkpoints + 1
							state.mu.Unlock()
							snap.evals = int(atomic.LoadInt64(&evals))
							snap.elapsed = time.Since(start).Seconds()
							if err := writeOutputs(cfg, variant, snap); err != nil {
								fmt.Fprintf(os.Stderr, "checkpoint write failed: %v\n", err)
							} else {
								state.mu.Lock()
								state.checkpoints = max(state.checkpoints, snap.checkpoints)
								state.mu.Unlock()
							}
						}
						outputMu.Unlock()
					}

					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.4f\n",
							evalNum, cfg.maxEvals, time.Since(start).Seconds(), bestScore)
					}
					return res.metrics.Score
				}

				if _, err := runMayfly(mayflyConfig); err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
				}
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	finalBest := cloneCandidate(state.best)
	finalEval := state.bestEval
	finalTop := cloneTopCandidates(state.top)
	finalCheckpoints := state.checkpoints
	state.mu.Unlock()

	// Re-evaluate the leaders at the full sample rate.
	candidates := refineCandidates(finalBest, finalTop, cfg.defs, max(cfg.refineTopK, 1))
	refinedTop := make([]topCandidate, 0, cfg.topK)
	hasRefined := false
	for i, cand := range candidates {
		res, err := evaluateCandidate(cfg, cand, finalSettings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "refine eval %d failed: %v\n", i+1, err)
			continue
		}
		refinedTop = updateTopCandidates(refinedTop, cfg.topK, i+1, res.metrics, cfg.defs, cand)
		if !hasRefined || res.metrics.Score < finalEval.metrics.Score {
			finalBest = cloneCandidate(cand)
			finalEval = res
			hasRefined = true
		}
	}
	if len(refinedTop) > 0 {
		finalTop = refinedTop
	}

	return &optimizationResult{
		best:        finalBest,
		bestEval:    finalEval,
		top:         finalTop,
		evals:       int(atomic.LoadInt64(&evals)),
		elapsed:     time.Since(start).Seconds(),
		checkpoints: finalCheckpoints,
	}, nil
}

// evaluateCandidate renders the pattern with the candidate's settings,
// trimmed to the reference length, and scores it.
func evaluateCandidate(cfg *optimizationConfig, cand candidate, settings evalSettings) (optimizationEval, error) {
	params := applyCandidate(cfg.baseParams, cfg.defs, cand)
	e := acid.NewEngine(settings.sampleRate, params)
	e.SetLogger(nil)

	opt := cfg.render
	opt.Frames = len(settings.reference)
	opt.Passes = passesFor(cfg.pattern, opt, settings.sampleRate)
	opt.Diagnostics = false
	res, err := render.Pattern(e, cfg.pattern, opt)
	if err != nil {
		return optimizationEval{}, err
	}
	m := analysis.Compare(settings.reference, wavio.Float64(res.Main()), settings.sampleRate)
	if math.IsNaN(m.Score) {
		return optimizationEval{}, fmt.Errorf("candidate produced a non-finite score")
	}
	return optimizationEval{metrics: m, params: params, clampEvents: res.ClampEvents}, nil
}

// passesFor returns how many pattern passes cover opt.Frames.
func passesFor(p *pattern.Pattern, opt render.Options, sampleRate int) int {
	seq := pattern.NewSequencer(float64(sampleRate), p)
	seq.SetTempo(opt.Tempo)
	seq.SetShuffle(opt.Shuffle)
	pass := seq.PassLength()
	if pass <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(float64(opt.Frames)/pass)))
}

func refineCandidates(best candidate, top []topCandidate, defs []knobDef, k int) []candidate {
	seen := make(map[string]struct{}, k)
	out := make([]candidate, 0, k)
	add := func(c candidate) {
		if len(out) >= k {
			return
		}
		key := candidateKey(c)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	add(best)
	for _, entry := range top {
		c, _ := candidateFromKnobs(entry.Knobs, defs, best)
		add(c)
	}
	return out
}

func cloneCandidate(c candidate) candidate {
	return candidate{Vals: append([]float64(nil), c.Vals...)}
}

func cloneTopCandidates(in []topCandidate) []topCandidate {
	out := make([]topCandidate, len(in))
	for i, e := range in {
		knobs := make(map[string]float64, len(e.Knobs))
		for k, v := range e.Knobs {
			knobs[k] = v
		}
		e.Knobs = knobs
		out[i] = e
	}
	return out
}

func candidateKey(c candidate) string {
	var b strings.Builder
	for i, v := range c.Vals {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%.6g", v)
	}
	return b.String()
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func reserveEval(evals *int64, maxEvals int) (int64, bool) {
	for {
		cur := atomic.LoadInt64(evals)
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if atomic.CompareAndSwapInt64(evals, cur, cur+1) {
			return cur + 1, true
		}
	}
}

func currentBestScore(state *optimizationState) float64 {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.bestEval.metrics.Score
}

func updateTopCandidates(top []topCandidate, topK int, eval int, metrics analysis.Metrics, defs []knobDef, cand candidate) []topCandidate {
	top = append(top, topCandidate{
		Eval:       eval,
		Score:      metrics.Score,
		Similarity: metrics.Similarity,
		Knobs:      knobMap(defs, cand),
	})
	sort.Slice(top, func(i, j int) bool {
		if top[i].Score == top[j].Score {
			return top[i].Eval < top[j].Eval
		}
		return top[i].Score < top[j].Score
	})
	if len(top) > topK {
		top = top[:topK]
	}
	return top
}
