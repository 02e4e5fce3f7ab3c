package acid

import (
	"math"
	"testing"
)

func TestEnvelopeAttackLength(t *testing.T) {
	var e Envelope
	e.Activate(testSampleRate)
	e.AttackFrom(0, 1, false, false)

	n := 0
	for e.Stage() == StageAttack && n < testSampleRate {
		e.Process(-10, -2, 1, 1, false)
		n++
	}
	// 2^-10 s at 48 kHz is 46.875 samples.
	if n < 46 || n > 48 {
		t.Fatalf("attack took %d samples, want ~47", n)
	}
	if e.Output != 1.0 {
		t.Fatalf("attack should end at 1, got %v", e.Output)
	}
}

func TestEnvelopeRunsToIdleWithoutGate(t *testing.T) {
	var e Envelope
	e.Activate(testSampleRate)
	e.AttackFrom(0, 3, false, false)

	prev := 0.0
	prevStage := e.Stage()
	peaked := false
	for i := 0; i < testSampleRate; i++ {
		e.Process(-9.482, -2.223, 3, 1, true)
		if e.Output < 0 || e.Output > 1 {
			t.Fatalf("output out of range at %d: %v", i, e.Output)
		}
		if e.Stage() == StageDecay {
			peaked = true
			if prevStage == StageDecay && e.Output > prev {
				t.Fatalf("decay rose at %d: %v > %v", i, e.Output, prev)
			}
		}
		prev = e.Output
		prevStage = e.Stage()
	}
	if !peaked || e.Stage() != StageIdle || e.Output != 0 {
		t.Fatalf("expected idle after one second, stage=%v out=%v", e.Stage(), e.Output)
	}
}

func TestEnvelopeGatedHold(t *testing.T) {
	var e Envelope
	e.Activate(testSampleRate)
	e.AttackFrom(0, 1, false, true)

	for i := 0; i < 4800; i++ {
		e.Process(-10, -7, 1, 1, true)
	}
	if e.Stage() != StageHold || e.Output != 1 {
		t.Fatalf("expected hold at 1, stage=%v out=%v", e.Stage(), e.Output)
	}
	e.Process(-10, -7, 1, 1, false)
	if e.Stage() != StageDecay {
		t.Fatalf("expected decay after gate release, got %v", e.Stage())
	}
}

func TestEnvelopeRetriggerFromZero(t *testing.T) {
	var e Envelope
	e.Activate(testSampleRate)
	e.AttackFrom(0, 3, false, false)
	for i := 0; i < 200; i++ {
		e.Process(-9.482, -2.223, 3, 1, false)
	}
	if e.Output == 0 {
		t.Fatalf("expected a running envelope")
	}
	e.AttackFrom(0, 3, false, false)
	if e.Stage() != StageAttack || e.Output != 0 || e.phase != 0 {
		t.Fatalf("retrigger should restart attack from 0: stage=%v out=%v phase=%v", e.Stage(), e.Output, e.phase)
	}
}

func TestEnvelopeAttackFromLevelContinues(t *testing.T) {
	for shape := 0; shape <= MaxEnvShape; shape++ {
		var e Envelope
		e.Activate(testSampleRate)
		e.AttackFrom(0.5, shape, false, false)
		e.Process(-6, -2, shape, 1, false)
		if math.Abs(e.Output-0.5) > 0.05 {
			t.Fatalf("shape %d: expected output near 0.5 after one step, got %v", shape, e.Output)
		}
	}
}

func TestEnvelopeDecayTimeChangeIsContinuous(t *testing.T) {
	var e Envelope
	e.Activate(testSampleRate)
	e.AttackFrom(0, 1, false, false)
	for e.Stage() != StageDecay {
		e.Process(-10.2877, vcaHoldTime, 1, 1, false)
	}
	for i := 0; i < 100; i++ {
		e.Process(-10.2877, vcaHoldTime, 1, 1, false)
	}
	before := e.Output
	e.Process(-10.2877, vcaReleaseTime, 1, 1, false)
	if math.Abs(e.Output-before) > 0.02 {
		t.Fatalf("decay jump on time change: %v -> %v", before, e.Output)
	}
}

func TestImmediatelyEnd(t *testing.T) {
	var e Envelope
	e.Activate(testSampleRate)
	e.AttackFrom(0.3, 0, true, true)
	e.ImmediatelyEnd()
	if e.Stage() != StageIdle || e.Output != 0 {
		t.Fatalf("expected idle, stage=%v out=%v", e.Stage(), e.Output)
	}
	if StageDecay.String() != "decay" {
		t.Fatalf("unexpected stage name %q", StageDecay.String())
	}
}
