// Package render drives an acid.Engine offline with a step pattern.
package render

import (
	"fmt"

	"github.com/cwbudde/algo-acid/acid"
	"github.com/cwbudde/algo-acid/pattern"
)

const DefaultBlockSize = 128

// Options control an offline render.
type Options struct {
	BlockSize   int
	Tempo       float64
	Shuffle     float64
	Gate        float64
	Passes      int     // pattern repetitions, at least 1
	TailSeconds float64 // extra time after the last pass
	Frames      int     // fixed length; overrides Passes and TailSeconds when > 0
	Diagnostics bool    // keep accent CV, envelope and cutoff channels
}

// DefaultOptions returns one pass at 120 BPM with half-step gates and a
// half second tail.
func DefaultOptions() Options {
	return Options{
		BlockSize:   DefaultBlockSize,
		Tempo:       pattern.DefaultTempo,
		Gate:        pattern.DefaultGate,
		Passes:      1,
		TailSeconds: 0.5,
	}
}

// Result is a rendered take.
type Result struct {
	SampleRate  int
	Channels    [][]float32 // Channels[acid.OutMain] always, others with Diagnostics
	ClampEvents uint64
	Events      int
}

// Main returns the primary output channel.
func (r *Result) Main() []float32 { return r.Channels[acid.OutMain] }

// Pattern renders p through e. The engine is activated first so every take
// starts from the same state.
func Pattern(e *acid.Engine, p *pattern.Pattern, opt Options) (*Result, error) {
	if e == nil || p == nil {
		return nil, fmt.Errorf("render: nil engine or pattern")
	}
	if opt.BlockSize <= 0 {
		opt.BlockSize = DefaultBlockSize
	}
	if opt.Passes < 1 {
		opt.Passes = 1
	}
	sr := e.SampleRate()

	seq := pattern.NewSequencer(sr, p)
	seq.SetTempo(opt.Tempo)
	seq.SetShuffle(opt.Shuffle)
	if opt.Gate > 0 {
		seq.SetGate(opt.Gate)
	}
	seq.SetPasses(opt.Passes)

	total := opt.Frames
	if total <= 0 {
		total = int(seq.PassLength()*float64(opt.Passes) + opt.TailSeconds*sr)
	}
	if total <= 0 {
		return nil, fmt.Errorf("render: empty take")
	}

	nch := 1
	if opt.Diagnostics {
		nch = acid.NumOutputs
	}
	res := &Result{SampleRate: int(sr), Channels: make([][]float32, nch)}
	for c := range res.Channels {
		res.Channels[c] = make([]float32, total)
	}

	e.Activate()
	before := e.ClampEvents()
	block := make([][]float32, nch)
	events := make([]acid.MidiEvent, 0, 16)
	for pos := 0; pos < total; pos += opt.BlockSize {
		n := min(opt.BlockSize, total-pos)
		for c := range block {
			block[c] = res.Channels[c][pos : pos+n]
		}
		events = seq.Next(n, events[:0])
		res.Events += len(events)
		e.RenderBlock(nil, block, n, events)
	}
	res.ClampEvents = e.ClampEvents() - before
	return res, nil
}
