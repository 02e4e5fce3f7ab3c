package pattern

import (
	"math"

	"github.com/cwbudde/algo-acid/acid"
)

const (
	DefaultTempo = 120.0
	DefaultGate  = 0.5
	minGate      = 0.01
)

// Sequencer plays a Pattern as MIDI events with frame offsets, one audio
// block at a time. Step times are kept in fractional samples so long runs
// do not drift.
type Sequencer struct {
	sampleRate float64
	tempoBPM   float64
	shuffle    float64
	gate       float64
	limit      int // passes to play, 0 plays forever

	pattern *Pattern

	frame       int64   // first frame of the next block
	step        int     // next step to trigger
	passes      int     // completed passes over the pattern
	nextStepAt  float64 // absolute sample time of the next step
	gateOffAt   float64
	gatePending bool
	heldNote    uint8
	done        bool
}

// NewSequencer creates a sequencer at the default tempo and gate length.
// The pattern plays once unless SetLoop or SetPasses say otherwise.
func NewSequencer(sampleRate float64, p *Pattern) *Sequencer {
	return &Sequencer{
		sampleRate: sampleRate,
		tempoBPM:   DefaultTempo,
		gate:       DefaultGate,
		limit:      1,
		pattern:    p,
	}
}

// SetTempo sets the tempo in quarter notes per minute. Non-positive values
// are ignored.
func (s *Sequencer) SetTempo(bpm float64) {
	if bpm > 0 {
		s.tempoBPM = bpm
	}
}

// SetShuffle sets the swing amount in [0, 1].
func (s *Sequencer) SetShuffle(amount float64) {
	s.shuffle = math.Min(math.Max(amount, 0), 1)
}

// SetGate sets the note length as a fraction of a step.
func (s *Sequencer) SetGate(fraction float64) {
	s.gate = math.Min(math.Max(fraction, minGate), 1)
}

// SetLoop makes the pattern repeat forever, or play once when false.
func (s *Sequencer) SetLoop(loop bool) {
	s.limit = 1
	if loop {
		s.limit = 0
	}
}

// SetPasses plays the pattern n times, at least once.
func (s *Sequencer) SetPasses(n int) {
	s.limit = max(n, 1)
}

// Reset rewinds to the first step at frame 0.
func (s *Sequencer) Reset() {
	s.frame = 0
	s.step = 0
	s.passes = 0
	s.nextStepAt = 0
	s.gatePending = false
	s.done = false
}

// Done reports whether a finite run has played out, including the final
// note-off.
func (s *Sequencer) Done() bool {
	return s.done && !s.gatePending
}

// Passes returns how many times the pattern was played to its end.
func (s *Sequencer) Passes() int { return s.passes }

// StepLength returns the length in samples of step i, shuffle applied.
func (s *Sequencer) StepLength(i int) float64 {
	base := s.sampleRate * 60.0 / s.tempoBPM / 4.0
	ratio := shuffleRatio(s.shuffle)
	if ratio <= 0 {
		return base
	}
	if i%2 == 0 {
		return base * (1 + ratio)
	}
	return base * (1 - ratio)
}

// PassLength returns the length in samples of one pass over the pattern.
func (s *Sequencer) PassLength() float64 {
	if s.pattern == nil {
		return 0
	}
	total := 0.0
	for i := range s.pattern.Steps {
		total += s.StepLength(i)
	}
	return total
}

func shuffleRatio(shuffle float64) float64 {
	return (1.0 / 3.0) * math.Pow(math.Min(math.Max(shuffle, 0), 1), 1.6)
}

// Next appends the events of the next frames samples to events and returns
// the extended slice. Frame offsets are relative to the start of the block.
// Nothing is allocated when events has enough capacity.
func (s *Sequencer) Next(frames int, events []acid.MidiEvent) []acid.MidiEvent {
	if frames <= 0 {
		return events
	}
	end := s.frame + int64(frames)
	for {
		t, isGate, ok := s.nextEvent()
		if !ok {
			break
		}
		at := int64(math.Ceil(t))
		if at < s.frame {
			at = s.frame
		}
		if at >= end {
			break
		}
		offset := uint32(at - s.frame)
		if isGate {
			events = append(events, acid.NoteOff(offset, s.heldNote))
			s.gatePending = false
			continue
		}
		events = s.trigger(offset, events)
	}
	s.frame = end
	return events
}

// nextEvent returns the time of the next gate-off or step. Gate-offs win ties.
func (s *Sequencer) nextEvent() (t float64, isGate, ok bool) {
	stepDue := !s.done && s.pattern != nil && len(s.pattern.Steps) > 0
	switch {
	case s.gatePending && (!stepDue || s.gateOffAt <= s.nextStepAt):
		return s.gateOffAt, true, true
	case stepDue:
		return s.nextStepAt, false, true
	}
	return 0, false, false
}

func (s *Sequencer) trigger(offset uint32, events []acid.MidiEvent) []acid.MidiEvent {
	steps := s.pattern.Steps
	st := steps[s.step]
	start := s.nextStepAt

	if st.Kind == Note {
		note := uint8(st.Note)
		events = append(events, acid.NoteOn(offset, note, st.Velocity()))
		s.heldNote = note
		s.gatePending = true
		s.gateOffAt = start + s.heldLength(s.step)
	}

	s.nextStepAt += s.StepLength(s.step)
	s.step++
	if s.step >= len(steps) {
		s.step = 0
		s.passes++
		if s.limit > 0 && s.passes >= s.limit {
			s.done = true
		}
	}
	return events
}

// heldLength is how long the note at step i sounds: through any ties that
// follow it, and the gate fraction of the last step.
func (s *Sequencer) heldLength(i int) float64 {
	steps := s.pattern.Steps
	length := 0.0
	for {
		next := i + 1
		if next >= len(steps) {
			if s.limit > 0 && s.passes+1 >= s.limit {
				break
			}
			next = 0
		}
		if steps[next].Kind != Tie {
			break
		}
		length += s.StepLength(i)
		i = next
	}
	return length + s.gate*s.StepLength(i)
}
