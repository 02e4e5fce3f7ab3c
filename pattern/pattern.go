// Package pattern parses 16th-note bass line patterns and plays them as
// frame-accurate MIDI events for the acid engine.
//
// A pattern is a whitespace separated list of steps:
//
//	C2     note (C-1 is MIDI note 0, so C4 is 60)
//	D#3!   accented note
//	Bb1    flats are accepted too
//	-      tie: the previous note keeps sounding
//	.      rest
package pattern

import (
	"errors"
	"fmt"
	"strings"
)

// Velocities used for plain and accented steps.
const (
	NormalVelocity = 90
	AccentVelocity = 127
)

// StepKind is what a step does.
type StepKind int

const (
	Rest StepKind = iota
	Note
	Tie
)

// Step is one 16th note of a pattern.
type Step struct {
	Kind   StepKind
	Note   int
	Accent bool
}

// Velocity returns the note-on velocity of the step.
func (s Step) Velocity() uint8 {
	if s.Accent {
		return AccentVelocity
	}
	return NormalVelocity
}

func (s Step) String() string {
	switch s.Kind {
	case Tie:
		return "-"
	case Note:
		name := NoteName(s.Note)
		if s.Accent {
			name += "!"
		}
		return name
	default:
		return "."
	}
}

// Pattern is a sequence of steps.
type Pattern struct {
	Steps []Step
}

// ErrEmpty is returned when a pattern has no steps.
var ErrEmpty = errors.New("pattern: no steps")

// Parse reads a pattern from its text form.
func Parse(text string) (*Pattern, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, ErrEmpty
	}
	p := &Pattern{Steps: make([]Step, 0, len(fields))}
	for i, tok := range fields {
		st, err := parseStep(tok)
		if err != nil {
			return nil, fmt.Errorf("pattern: step %d: %w", i+1, err)
		}
		p.Steps = append(p.Steps, st)
	}
	return p, nil
}

// MustParse is like Parse but panics on error. Meant for literals.
func MustParse(text string) *Pattern {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern) String() string {
	parts := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

func parseStep(tok string) (Step, error) {
	switch tok {
	case "-":
		return Step{Kind: Tie}, nil
	case ".":
		return Step{Kind: Rest}, nil
	}
	accent := strings.HasSuffix(tok, "!")
	name := strings.TrimSuffix(tok, "!")
	note, err := ParseNote(name)
	if err != nil {
		return Step{}, err
	}
	return Step{Kind: Note, Note: note, Accent: accent}, nil
}

var pitchClass = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParseNote converts a note name such as "C2", "F#3" or "Bb1" to a MIDI
// note number.
func ParseNote(name string) (int, error) {
	if len(name) < 2 {
		return 0, fmt.Errorf("invalid note %q", name)
	}
	pc, ok := pitchClass[upper(name[0])]
	if !ok {
		return 0, fmt.Errorf("invalid note %q", name)
	}
	rest := name[1:]
	switch rest[0] {
	case '#':
		pc++
		rest = rest[1:]
	case 'b':
		pc--
		rest = rest[1:]
	}
	if len(rest) != 1 || rest[0] < '0' || rest[0] > '9' {
		return 0, fmt.Errorf("invalid octave in note %q", name)
	}
	note := (int(rest[0]-'0')+1)*12 + pc
	if note < 0 || note > 127 {
		return 0, fmt.Errorf("note %q out of midi range", name)
	}
	return note, nil
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName is the inverse of ParseNote using sharps.
func NoteName(note int) string {
	if note < 0 || note > 127 {
		return "?"
	}
	return fmt.Sprintf("%s%d", noteNames[note%12], note/12-1)
}
