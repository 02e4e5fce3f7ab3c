package acid

import (
	"log"
	"math"
	"os"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/cwbudde/algo-acid/dsp"
)

// Output channel layout of RenderBlock.
const (
	OutMain = iota
	OutAccentCV
	OutVcfEnv
	OutCutoff

	NumOutputs
)

// NumInputs is the number of audio inputs a host provides. They are unused.
const NumInputs = 2

const (
	gainSmoothMs = 20.0
	initCutoffHz = 300.0
	initRes      = 0.66
	// Output low-pass is limited to this fraction of the sample rate.
	outputLPFMaxRatio = 0.45
)

// VoiceState is the note state of the monophonic voice.
type VoiceState struct {
	Gate    bool
	Accent  bool
	PitchCV float64
}

// Engine is a monophonic bass voice: oscillator, resonant ladder filter, VCF
// and VCA envelopes and the accent network, driven by MIDI and parameters.
//
// RenderBlock runs on the audio thread and neither allocates, locks nor
// logs. SetParameter may be called from any single control thread.
type Engine struct {
	sampleRate float64
	logger     *log.Logger

	params     paramStore
	clampTotal atomic.Uint64
	reported   atomic.Uint64

	bp    blockParams
	voice VoiceState

	mod    modulator
	vca    Envelope
	osc    Oscillator
	filter Filter
	gain   dsp.ParamSmoother

	outLPF   dsp.Biquad
	outLPFHz float64

	square [Oversample]float64
	saw    [Oversample]float64
}

// blockStats collects report values while a block renders.
type blockStats struct {
	clamps   uint64
	peakNorm float64
}

// NewEngine creates an engine for sampleRate. A nil params uses defaults.
func NewEngine(sampleRate int, params *Params) *Engine {
	if params == nil {
		params = NewDefaultParams()
	}
	e := &Engine{
		logger: log.New(os.Stderr, "acid: ", log.LstdFlags),
	}
	e.params.init(params)
	e.setRate(float64(sampleRate))
	e.reset()
	return e
}

// SetLogger replaces the diagnostic logger. Nil silences diagnostics.
func (e *Engine) SetLogger(l *log.Logger) {
	e.logger = l
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

// SampleRate returns the engine sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// SetSampleRate changes the sample rate and resets the voice. Not realtime safe.
func (e *Engine) SetSampleRate(sampleRate int) {
	e.setRate(float64(sampleRate))
	e.reset()
}

func (e *Engine) setRate(sampleRate float64) {
	e.sampleRate = sampleRate
	e.gain.SetTimeMs(gainSmoothMs, sampleRate)
}

// reset puts every component into its initial state.
func (e *Engine) reset() {
	e.mod.prepare(e.sampleRate)
	e.vca.Activate(e.sampleRate)
	e.osc.Prepare(e.sampleRate)
	e.filter.Prepare(e.sampleRate, initCutoffHz, initRes)
	e.gain.Flush()
	e.outLPF.Reset()
	e.outLPFHz = 0
	e.voice = VoiceState{PitchCV: e.osc.PitchCV()}
}

// Activate resets the voice before the host starts calling RenderBlock.
func (e *Engine) Activate() {
	e.reset()
	e.logf("activated at %g Hz", e.sampleRate)
}

// Deactivate ends processing and reports outstanding clamp events.
func (e *Engine) Deactivate() {
	e.ReportClamps()
	e.logf("deactivated after %d clamp events", e.clampTotal.Load())
}

// SetParameter writes a parameter, clamped to its declared range. Output
// parameters are ignored. Setting Print to 1 logs the current settings.
func (e *Engine) SetParameter(id ParamID, value float64) {
	if !id.Settable() {
		return
	}
	if id == ParamPrint {
		if value >= 0.5 {
			e.PrintParameters()
		}
		e.params.store(id, 0)
		return
	}
	e.params.store(id, id.Clamp(value))
}

// Parameter reads the current value of id, including output parameters.
func (e *Engine) Parameter(id ParamID) float64 {
	if id < 0 || id >= NumParams {
		return 0
	}
	return e.params.load(id)
}

// SetMIDITiming selects block or sample-accurate event handling.
func (e *Engine) SetMIDITiming(m MIDITiming) {
	e.params.timing.Store(int32(m))
}

// Params returns a copy of the current settings.
func (e *Engine) Params() Params {
	return e.params.params()
}

// Voice returns the current gate, accent and pitch state.
func (e *Engine) Voice() VoiceState { return e.voice }

// ClampEvents returns the number of clamped cutoff samples since creation.
func (e *Engine) ClampEvents() uint64 { return e.clampTotal.Load() }

// ReportClamps logs clamp events counted since the previous report and
// returns their number.
func (e *Engine) ReportClamps() uint64 {
	total := e.clampTotal.Load()
	n := total - e.reported.Swap(total)
	if n > 0 {
		e.logf("cutoff clamped to nyquist on %d samples", n)
	}
	return n
}

// PrintParameters logs the formula coefficients, the knob settings and the
// formula output at the ends of the envelope swing.
func (e *Engine) PrintParameters() {
	p := e.params.params()
	f := p.Formula
	e.logf("formula A=%g B=%g C=%g D=%g E=%g base=%g vacc_mul=%g vacc_offset=%g",
		f.A, f.B, f.C, f.D, f.E, f.Base, f.VaccMul, f.VaccOffset)
	e.logf("cutoff=%g resonance=%g envmod=%g accent=%g decay=%g vcf_attack=%g gain=%gdB",
		p.Cutoff, p.Resonance, p.EnvMod, p.Accent, p.Decay, p.VcfAttack, p.Gain)
	lo, hi := f.Limits(p.Cutoff, p.EnvMod)
	nyquist := e.sampleRate / 2
	e.logf("limits lo=%.3f Hz hi=%.3f Hz nyquist=%g Hz", lo, hi, nyquist)
	if hi >= nyquist {
		e.logf("envelope peak exceeds nyquist by %.3f Hz", hi-nyquist)
	}
	if lo < MinCutoffHz {
		e.logf("envelope floor below %g Hz", MinCutoffHz)
	}
	e.logf("clamp events: %d", e.clampTotal.Load())
}

// RenderBlock renders frames samples into outputs. outputs[0] is the voice,
// 1 the accent CV, 2 the VCF envelope and 3 the cutoff as a fraction of
// Nyquist; missing or short channels are skipped. inputs are ignored.
//
// Events must be in frame order. With TimingSampleAccurate each event is
// applied at its frame; frames past the block end apply after the last
// frame. With TimingBlock all events apply before frame 0.
func (e *Engine) RenderBlock(inputs, outputs [][]float32, frames int, events []MidiEvent) {
	if frames <= 0 {
		for _, ev := range events {
			e.handleMIDI(ev)
		}
		return
	}

	e.params.snapshot(&e.bp)
	bp := &e.bp
	e.mod.wow.SetResonancePot(bp.resonance)
	e.updateOutputLPF(bp.outputLPF)
	gain := dsp.DBToGain(dsp.Clamp(bp.gain, -90, 30))

	var st blockStats
	if bp.timing == TimingBlock {
		for _, ev := range events {
			e.handleMIDI(ev)
		}
		e.render(outputs, 0, frames, gain, &st)
	} else {
		pos := 0
		for _, ev := range events {
			at := int(ev.Frame)
			if at > frames {
				at = frames
			}
			if at > pos {
				e.render(outputs, pos, at, gain, &st)
				pos = at
			}
			e.handleMIDI(ev)
		}
		if pos < frames {
			e.render(outputs, pos, frames, gain, &st)
		}
	}

	e.params.store(ParamD, st.peakNorm)
	e.params.store(ParamLimiter, float64(st.clamps))
	if st.clamps > 0 {
		e.clampTotal.Add(st.clamps)
	}
}

func (e *Engine) render(outputs [][]float32, from, to int, gain float64, st *blockStats) {
	bp := &e.bp
	nyquist := e.sampleRate / 2
	vcaDecay := vcaReleaseTime
	if e.voice.Gate {
		vcaDecay = vcaHoldTime
	}
	lpfOn := e.outLPFHz > 0

	for i := from; i < to; i++ {
		env, accentCV, freq, clamped := e.mod.step(bp, e.voice.Accent)
		if clamped {
			st.clamps++
		}

		e.filter.CalcCoeffs(freq, bp.resonance)
		e.osc.Process(&e.square, &e.saw, Oversample)
		y := e.filter.ProcessSample(&e.saw)

		e.vca.Process(vcaAttackTime, vcaDecay, vcaAttackShape, vcaDecayShape, false)
		out := y * e.vca.Output * e.gain.Process(gain)
		if lpfOn {
			out = e.outLPF.Process(out)
		}

		norm := freq / nyquist
		if norm > st.peakNorm {
			st.peakNorm = norm
		}

		writeOut(outputs, OutMain, i, out)
		writeOut(outputs, OutAccentCV, i, accentCV)
		writeOut(outputs, OutVcfEnv, i, env)
		writeOut(outputs, OutCutoff, i, norm)
	}
}

func writeOut(outputs [][]float32, ch, i int, v float64) {
	if ch < len(outputs) && i < len(outputs[ch]) {
		outputs[ch][i] = float32(v)
	}
}

func (e *Engine) handleMIDI(ev MidiEvent) {
	switch ev.Data[0] {
	case StatusNoteOn:
		if ev.Data[2] == 0 {
			e.voice.Gate = false
			return
		}
		e.noteOn(int(ev.Data[1]&0x7f), int(ev.Data[2]&0x7f))
	case StatusNoteOff:
		e.voice.Gate = false
	}
}

func (e *Engine) noteOn(note, velocity int) {
	e.voice.Gate = true
	e.voice.Accent = velocity > AccentVelocity
	e.voice.PitchCV = NoteCV(note)
	e.osc.SetPitchCV(e.voice.PitchCV)
	e.mod.trigger()
	e.vca.AttackFrom(0, vcaAttackShape, false, false)
}

// updateOutputLPF retunes the output stage when the knob moved.
func (e *Engine) updateOutputLPF(hz float64) {
	if hz == e.outLPFHz {
		return
	}
	if hz <= 0 || math.IsNaN(hz) {
		e.outLPFHz = 0
		e.outLPF.Reset()
		return
	}
	if e.outLPFHz == 0 {
		e.outLPF.Reset()
	}
	e.outLPFHz = hz
	fc := math.Min(hz, outputLPFMaxRatio*e.sampleRate)
	e.outLPF.SetCoefficients(design.Lowpass(fc, dsp.ButterworthQ, e.sampleRate))
}
