package acid

// Envelope constants of the voice.
const (
	vcfAttackShape = 3
	vcfDecayShape  = 1
	// Decay time used instead of the Decay knob while a note is accented.
	accentDecayTime = -2.223

	vcaAttackShape = 1
	vcaDecayShape  = 1
	vcaAttackTime  = -10.2877
	// log2(10): the level sags over ten seconds while the gate is held.
	vcaHoldTime    = 3.321928094887362
	vcaReleaseTime = -7.38
)

// modulator is the cutoff modulation path: VCF envelope, wow filter and
// cutoff formula. Engine and Preview both step it, so the preview replays
// exactly what the voice computes.
type modulator struct {
	sampleRate float64
	env        Envelope
	wow        WowFilter
}

func (m *modulator) prepare(sampleRate float64) {
	m.sampleRate = sampleRate
	m.env.Activate(sampleRate)
	m.wow.Prepare(sampleRate)
}

func (m *modulator) trigger() {
	m.env.AttackFrom(0, vcfAttackShape, false, false)
}

// step advances one sample. freq is already clamped; clamped reports a
// formula result at or above Nyquist (or NaN).
func (m *modulator) step(bp *blockParams, accent bool) (env, accentCV, freq float64, clamped bool) {
	decay := bp.decay
	if accent {
		decay = accentDecayTime
	}
	m.env.Process(bp.vcfAttack, decay, vcfAttackShape, vcfDecayShape, false)
	env = m.env.Output

	var in float64
	if accent {
		in = env * bp.accent
	}
	accentCV = m.wow.ProcessSample(in)

	freq, clamped = ClampCutoff(bp.formula.Cutoff(env, bp.cutoff, bp.envMod, accentCV), m.sampleRate)
	return env, accentCV, freq, clamped
}
