package acid

import (
	"fmt"
	"strings"
)

// MIDI status bytes understood by the engine (channel 1 only).
const (
	StatusNoteOff = 0x80
	StatusNoteOn  = 0x90
)

// AccentVelocity is the highest velocity that still plays unaccented.
const AccentVelocity = 100

// MidiEvent is a raw three-byte MIDI message at a frame offset within the
// block it is delivered with.
type MidiEvent struct {
	Frame uint32
	Data  [3]byte
}

// NoteOn builds a note-on event.
func NoteOn(frame uint32, note, velocity uint8) MidiEvent {
	return MidiEvent{Frame: frame, Data: [3]byte{StatusNoteOn, note & 0x7f, velocity & 0x7f}}
}

// NoteOff builds a note-off event.
func NoteOff(frame uint32, note uint8) MidiEvent {
	return MidiEvent{Frame: frame, Data: [3]byte{StatusNoteOff, note & 0x7f, 0}}
}

// MIDITiming selects where within a block MIDI events take effect.
type MIDITiming int

const (
	// TimingSampleAccurate applies each event at its frame offset. This is the
	// default, unlike the block-start behaviour of TimingBlock.
	TimingSampleAccurate MIDITiming = iota
	// TimingBlock applies every event of a block before its first frame.
	TimingBlock
)

func (m MIDITiming) String() string {
	switch m {
	case TimingSampleAccurate:
		return "sample"
	case TimingBlock:
		return "block"
	default:
		return fmt.Sprintf("MIDITiming(%d)", int(m))
	}
}

// ParseMIDITiming accepts "sample" or "block".
func ParseMIDITiming(s string) (MIDITiming, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sample", "sample-accurate", "":
		return TimingSampleAccurate, nil
	case "block":
		return TimingBlock, nil
	}
	return 0, fmt.Errorf("invalid midi timing %q (want sample or block)", s)
}
