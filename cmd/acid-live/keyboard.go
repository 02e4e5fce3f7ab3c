package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/term"

	"github.com/cwbudde/algo-acid/acid"
	"github.com/cwbudde/algo-acid/dsp"
	"github.com/cwbudde/algo-acid/pattern"
)

const (
	lowerKeys = "zsxdcvgbhnjm,"
	upperKeys = "q2w3er5t6y7ui"

	keyCtrlC = 0x03
	keyCtrlD = 0x04
	keyEsc   = 0x1b
)

const keyboardHelp = "keys: z..m and q..i play, a accent, space release, - = octave, " +
	"[ ] cutoff, ; ' resonance, . / decay, 9 0 gain, p print, esc quit"

// keyboard turns computer-keyboard presses into notes and knob changes. A
// terminal reports no key releases, so each note is released after hold.
type keyboard struct {
	player *player
	engine *acid.Engine
	out    io.Writer

	baseNote int
	accent   bool
	hold     time.Duration
	gen      atomic.Uint64
}

func newKeyboard(p *player, e *acid.Engine, out io.Writer, hold time.Duration) *keyboard {
	return &keyboard{player: p, engine: e, out: out, baseNote: 36, hold: hold}
}

// handleKey applies one key press. It reports true for a quit key.
func (k *keyboard) handleKey(b byte) bool {
	if i := strings.IndexByte(lowerKeys, b); i >= 0 {
		k.play(k.baseNote + i)
		return false
	}
	if i := strings.IndexByte(upperKeys, b); i >= 0 {
		k.play(k.baseNote + 12 + i)
		return false
	}
	switch b {
	case keyCtrlC, keyCtrlD, keyEsc:
		return true
	case ' ':
		k.gen.Add(1)
		k.player.enqueue([]byte{acid.StatusNoteOff, 0, 0})
	case 'a':
		k.accent = !k.accent
		k.printf("accent %v", k.accent)
	case '-':
		k.baseNote = max(k.baseNote-12, 12)
		k.printf("octave base %s", pattern.NoteName(k.baseNote))
	case '=':
		k.baseNote = min(k.baseNote+12, 60)
		k.printf("octave base %s", pattern.NoteName(k.baseNote))
	case '[':
		k.nudge(acid.ParamCutoff, -0.25)
	case ']':
		k.nudge(acid.ParamCutoff, 0.25)
	case ';':
		k.nudge(acid.ParamResonance, -0.05)
	case '\'':
		k.nudge(acid.ParamResonance, 0.05)
	case '.':
		k.nudge(acid.ParamDecay, -0.25)
	case '/':
		k.nudge(acid.ParamDecay, 0.25)
	case '9':
		k.nudge(acid.ParamGain, -1)
	case '0':
		k.nudge(acid.ParamGain, 1)
	case 'p':
		k.engine.SetParameter(acid.ParamPrint, 1)
	}
	return false
}

func (k *keyboard) play(note int) {
	note = min(max(note, 0), 127)
	vel := byte(pattern.NormalVelocity)
	if k.accent {
		vel = pattern.AccentVelocity
	}
	gen := k.gen.Add(1)
	k.player.enqueue([]byte{acid.StatusNoteOn, byte(note), vel})
	time.AfterFunc(k.hold, func() {
		// A newer press owns the gate.
		if k.gen.Load() == gen {
			k.player.enqueue([]byte{acid.StatusNoteOff, byte(note), 0})
		}
	})
}

func (k *keyboard) nudge(id acid.ParamID, delta float64) {
	v := id.Clamp(k.engine.Parameter(id) + delta)
	k.engine.SetParameter(id, v)
	if id == acid.ParamGain {
		g := dsp.DBToGain(v)
		k.printf("%s %.1f dB (x%.3f)", id, v, g)
		return
	}
	k.printf("%s %.3f", id, v)
}

func (k *keyboard) printf(format string, args ...any) {
	if k.out != nil {
		fmt.Fprintf(k.out, format+"\r\n", args...)
	}
}

// runKeyboard reads stdin in raw mode until a quit key or ctx is done. It
// returns errQuit when the user quits.
func runKeyboard(ctx context.Context, k *keyboard) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		<-ctx.Done()
		return nil
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()
	k.printf("%s", keyboardHelp)

	keys := make(chan byte, 16)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 1 {
				keys <- buf[0]
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-keys:
			if !ok {
				return nil
			}
			if k.handleKey(b) {
				return errQuit
			}
		}
	}
}
