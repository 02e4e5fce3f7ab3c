package acid

import "math"

// EnvStage is the current segment of an Envelope.
type EnvStage int

const (
	StageIdle EnvStage = iota
	StageAttack
	StageHold
	StageDecay
)

func (s EnvStage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageHold:
		return "hold"
	case StageDecay:
		return "decay"
	default:
		return "unknown"
	}
}

// MaxEnvShape is the largest accepted attack/decay curve index.
const MaxEnvShape = 3

// Envelope is an attack/decay generator with an optional gated hold.
//
// Stage times are given in log2 seconds, so a time of -2 lasts 250 ms.
// Curves are power laws: attack rises as 1-(1-p)^(shape+1) and decay falls
// as L*(1-p)^(shape+1), L being the level the decay started from. Shape 0
// is linear, higher shapes are progressively snappier.
//
// Shapes outside [0, MaxEnvShape] and non-finite times are not checked.
type Envelope struct {
	Output float64

	srInv     float64
	stage     EnvStage
	phase     float64
	decayFrom float64
	gatedMode bool
}

// Activate prepares the envelope for a sample rate and puts it to rest.
func (e *Envelope) Activate(sampleRate float64) {
	e.srInv = 1.0 / sampleRate
	e.ImmediatelyEnd()
}

// Stage reports the current segment.
func (e *Envelope) Stage() EnvStage { return e.stage }

// AttackFrom forces the envelope into its attack segment starting at level
// from. With isDigital the level is used directly as the attack phase,
// otherwise the phase is solved so the curve continues from that level.
// isGated arms the hold segment: after the attack the level stays at 1 for
// as long as Process is called with gated set.
func (e *Envelope) AttackFrom(from float64, shape int, isDigital, isGated bool) {
	e.gatedMode = isGated
	e.stage = StageAttack
	if isDigital {
		e.phase = from
	} else {
		e.phase = invertAttackCurve(from, shape)
	}
	e.Output = from
}

// ImmediatelyEnd drops the envelope to its idle state and zero output.
func (e *Envelope) ImmediatelyEnd() {
	e.stage = StageIdle
	e.phase = 0
	e.decayFrom = 0
	e.gatedMode = false
	e.Output = 0
}

// Process advances the envelope by one sample.
func (e *Envelope) Process(attack, decay float64, attackShape, decayShape int, gated bool) {
	switch e.stage {
	case StageAttack:
		if e.gatedMode && !gated {
			e.startDecay()
			e.advanceDecay(decay, decayShape)
			return
		}
		e.phase += e.srInv * math.Exp2(-attack)
		if e.phase >= 1.0 {
			e.Output = 1.0
			if e.gatedMode {
				e.stage = StageHold
				return
			}
			e.startDecay()
			return
		}
		e.Output = attackCurve(e.phase, attackShape)
	case StageHold:
		e.Output = 1.0
		if !gated {
			e.startDecay()
		}
	case StageDecay:
		e.advanceDecay(decay, decayShape)
	default:
		e.Output = 0
	}
}

func (e *Envelope) startDecay() {
	e.stage = StageDecay
	e.phase = 0
	e.decayFrom = e.Output
}

func (e *Envelope) advanceDecay(decay float64, shape int) {
	e.phase += e.srInv * math.Exp2(-decay)
	if e.phase >= 1.0 {
		e.stage = StageIdle
		e.phase = 0
		e.Output = 0
		return
	}
	e.Output = e.decayFrom * decayCurve(e.phase, shape)
}

func attackCurve(p float64, shape int) float64 {
	return 1.0 - ipow(1.0-p, shape+1)
}

func decayCurve(p float64, shape int) float64 {
	return ipow(1.0-p, shape+1)
}

func invertAttackCurve(level float64, shape int) float64 {
	if level <= 0 {
		return 0
	}
	if level >= 1 {
		return 1
	}
	return 1.0 - math.Pow(1.0-level, 1.0/float64(shape+1))
}

func ipow(x float64, n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= x
	}
	return r
}
