package main

import (
	"context"
	"io"
	"sync"

	"github.com/cwbudde/algo-acid/acid"
	"github.com/cwbudde/algo-acid/pattern"
)

const (
	channelNum      = 2
	bitDepthInBytes = 2
	bytesPerFrame   = channelNum * bitDepthInBytes
	maxPending      = 256
)

// player renders the engine for the audio device. Read is called from the
// device goroutine; enqueue from any other.
type player struct {
	ctx       context.Context
	engine    *acid.Engine
	seq       *pattern.Sequencer
	blockSize int

	mu      sync.Mutex
	pending []acid.MidiEvent

	events []acid.MidiEvent
	out    [][]float32
}

var _ io.Reader = (*player)(nil)

func newPlayer(ctx context.Context, e *acid.Engine, seq *pattern.Sequencer, blockSize int) *player {
	return &player{
		ctx:       ctx,
		engine:    e,
		seq:       seq,
		blockSize: blockSize,
		pending:   make([]acid.MidiEvent, 0, maxPending),
		events:    make([]acid.MidiEvent, 0, maxPending),
		out:       [][]float32{make([]float32, blockSize)},
	}
}

// enqueue schedules a raw MIDI message for the start of the next block. It
// reports false when the queue is full. Single-byte realtime messages are
// skipped.
func (p *player) enqueue(data []byte) bool {
	if len(data) < 2 {
		return true
	}
	ev := acid.MidiEvent{}
	copy(ev.Data[:], data)
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) >= maxPending {
		return false
	}
	p.pending = append(p.pending, ev)
	return true
}

func (p *player) Read(buf []byte) (int, error) {
	select {
	case <-p.ctx.Done():
		return 0, io.EOF
	default:
	}
	frames := len(buf) / bytesPerFrame
	for pos := 0; pos < frames; {
		n := min(p.blockSize, frames-pos)
		p.renderBlock(n)
		writeFrames(buf[pos*bytesPerFrame:], p.out[0][:n])
		pos += n
	}
	return frames * bytesPerFrame, nil
}

func (p *player) renderBlock(n int) {
	p.events = p.events[:0]
	p.mu.Lock()
	p.events = append(p.events, p.pending...)
	p.pending = p.pending[:0]
	p.mu.Unlock()
	if p.seq != nil {
		p.events = p.seq.Next(n, p.events)
	}
	p.engine.RenderBlock(nil, p.out, n, p.events)
}

// writeFrames converts mono samples to interleaved little-endian 16-bit
// stereo.
func writeFrames(buf []byte, mono []float32) {
	for i, v := range mono {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		s := int16(v * 32767)
		for ch := 0; ch < channelNum; ch++ {
			j := i*bytesPerFrame + ch*bitDepthInBytes
			buf[j] = byte(s)
			buf[j+1] = byte(s >> 8)
		}
	}
}
