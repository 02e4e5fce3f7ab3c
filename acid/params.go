package acid

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// ParamID identifies an engine parameter. The order is the host port order.
type ParamID int

const (
	ParamGain ParamID = iota
	ParamCutoff
	ParamResonance
	ParamEnvMod
	ParamAccent
	ParamDecay
	ParamVcfAttack
	ParamFormulaA
	ParamFormulaB
	ParamFormulaC
	ParamFormulaD
	ParamFormulaE
	ParamFormulaBase
	ParamFormulaVaccMul
	ParamFormulaVaccOffset
	ParamOutputLPF
	ParamD
	ParamLimiter
	ParamPrint

	NumParams
)

// ParamFlags describe how a parameter is used.
type ParamFlags uint8

const (
	// FlagOutput marks report values written by the engine.
	FlagOutput ParamFlags = 1 << iota
	// FlagTrigger marks momentary parameters that fire an action.
	FlagTrigger
	// FlagSmoothed marks parameters that are de-zippered on the audio path.
	FlagSmoothed
)

// ParamInfo is the metadata of one parameter.
type ParamInfo struct {
	Name   string
	Symbol string
	Unit   string
	Min    float64
	Max    float64
	Def    float64
	Flags  ParamFlags
}

// ErrUnknownParam is returned by LookupParam for symbols not in the table.
var ErrUnknownParam = errors.New("unknown parameter")

var paramTable = [NumParams]ParamInfo{
	ParamGain:              {Name: "Gain", Symbol: "gain", Unit: "dB", Min: -90, Max: 30, Def: 0, Flags: FlagSmoothed},
	ParamCutoff:            {Name: "Cutoff", Symbol: "cutoff", Min: 1.321, Max: 12, Def: 12},
	ParamResonance:         {Name: "Resonance", Symbol: "resonance", Min: 0, Max: 1, Def: 1},
	ParamEnvMod:            {Name: "Envmod", Symbol: "envmod", Min: 0, Max: 1, Def: 1},
	ParamAccent:            {Name: "Accent", Symbol: "accent", Min: 0, Max: 1, Def: 0},
	ParamDecay:             {Name: "Decay", Symbol: "decay", Unit: "log2 s", Min: -2.223, Max: 1.32, Def: -2.223},
	ParamVcfAttack:         {Name: "Vcf Attack", Symbol: "vcf_attack", Unit: "log2 s", Min: -9.482, Max: -4, Def: -9.482},
	ParamFormulaA:          {Name: "Formula A", Symbol: "formula_a", Min: 0, Max: 10, Def: 1.633001},
	ParamFormulaB:          {Name: "Formula B", Symbol: "formula_b", Min: 0, Max: 10, Def: 0.626},
	ParamFormulaC:          {Name: "Formula C", Symbol: "formula_c", Min: 0, Max: 10, Def: 0.324},
	ParamFormulaD:          {Name: "Formula D", Symbol: "formula_d", Min: 0, Max: 10, Def: 0.191},
	ParamFormulaE:          {Name: "Formula E", Symbol: "formula_e", Min: 0, Max: 10, Def: 4.462},
	ParamFormulaBase:       {Name: "Formula base", Symbol: "formula_base", Unit: "Hz", Min: -200, Max: 200, Def: -119.205},
	ParamFormulaVaccMul:    {Name: "Formula VaccMul", Symbol: "formula_vacc_mul", Min: 0, Max: 20, Def: 2},
	ParamFormulaVaccOffset: {Name: "Formula VaccOffset", Symbol: "formula_vacc_offset", Min: 0, Max: 10, Def: 0},
	ParamOutputLPF:         {Name: "Output LPF", Symbol: "output_lpf", Unit: "Hz", Min: 0, Max: 20000, Def: 0},
	ParamD:                 {Name: "D", Symbol: "d", Min: 0, Max: 1, Flags: FlagOutput},
	ParamLimiter:           {Name: "Limiter", Symbol: "limiter", Min: 0, Max: math.MaxInt32, Flags: FlagOutput},
	ParamPrint:             {Name: "Print", Symbol: "print", Min: 0, Max: 1, Flags: FlagTrigger},
}

// Info returns the metadata of id. Unknown IDs yield the zero ParamInfo.
func (id ParamID) Info() ParamInfo {
	if id < 0 || id >= NumParams {
		return ParamInfo{}
	}
	return paramTable[id]
}

func (id ParamID) String() string {
	if id < 0 || id >= NumParams {
		return fmt.Sprintf("ParamID(%d)", int(id))
	}
	return paramTable[id].Symbol
}

// Settable reports whether the host may write id.
func (id ParamID) Settable() bool {
	return id >= 0 && id < NumParams && paramTable[id].Flags&FlagOutput == 0
}

// Clamp limits v to the declared range of id.
func (id ParamID) Clamp(v float64) float64 {
	info := id.Info()
	if v != v {
		return info.Def
	}
	return math.Min(math.Max(v, info.Min), info.Max)
}

// LookupParam finds a parameter by its symbol.
func LookupParam(symbol string) (ParamID, error) {
	for id := ParamID(0); id < NumParams; id++ {
		if paramTable[id].Symbol == symbol {
			return id, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownParam, symbol)
}

// Params holds the knob and formula settings the engine starts with.
type Params struct {
	Gain      float64 // dB
	Cutoff    float64
	Resonance float64
	EnvMod    float64
	Accent    float64
	Decay     float64 // log2 seconds
	VcfAttack float64 // log2 seconds

	Formula Formula

	// OutputLPFHz enables a low-pass on the primary output when > 0.
	OutputLPFHz float64

	MIDITiming MIDITiming
}

// NewDefaultParams creates default parameters.
func NewDefaultParams() *Params {
	return &Params{
		Gain:       paramTable[ParamGain].Def,
		Cutoff:     paramTable[ParamCutoff].Def,
		Resonance:  paramTable[ParamResonance].Def,
		EnvMod:     paramTable[ParamEnvMod].Def,
		Accent:     paramTable[ParamAccent].Def,
		Decay:      paramTable[ParamDecay].Def,
		VcfAttack:  paramTable[ParamVcfAttack].Def,
		Formula:    DefaultFormula(),
		MIDITiming: TimingSampleAccurate,
	}
}

func (p *Params) field(id ParamID) *float64 {
	switch id {
	case ParamGain:
		return &p.Gain
	case ParamCutoff:
		return &p.Cutoff
	case ParamResonance:
		return &p.Resonance
	case ParamEnvMod:
		return &p.EnvMod
	case ParamAccent:
		return &p.Accent
	case ParamDecay:
		return &p.Decay
	case ParamVcfAttack:
		return &p.VcfAttack
	case ParamFormulaA:
		return &p.Formula.A
	case ParamFormulaB:
		return &p.Formula.B
	case ParamFormulaC:
		return &p.Formula.C
	case ParamFormulaD:
		return &p.Formula.D
	case ParamFormulaE:
		return &p.Formula.E
	case ParamFormulaBase:
		return &p.Formula.Base
	case ParamFormulaVaccMul:
		return &p.Formula.VaccMul
	case ParamFormulaVaccOffset:
		return &p.Formula.VaccOffset
	case ParamOutputLPF:
		return &p.OutputLPFHz
	}
	return nil
}

// Value returns the value of id, or 0 for parameters Params does not hold.
func (p *Params) Value(id ParamID) float64 {
	if f := p.field(id); f != nil {
		return *f
	}
	return 0
}

// SetValue stores v for id without range checks. It reports false for
// parameters Params does not hold.
func (p *Params) SetValue(id ParamID, v float64) bool {
	f := p.field(id)
	if f == nil {
		return false
	}
	*f = v
	return true
}

// Validate checks every stored value against its declared range.
func (p *Params) Validate() error {
	for id := ParamID(0); id < NumParams; id++ {
		f := p.field(id)
		if f == nil {
			continue
		}
		info := paramTable[id]
		if !(*f >= info.Min && *f <= info.Max) {
			return fmt.Errorf("%s must be in [%g, %g], got %g", info.Symbol, info.Min, info.Max, *f)
		}
	}
	if p.MIDITiming != TimingSampleAccurate && p.MIDITiming != TimingBlock {
		return fmt.Errorf("invalid midi timing %d", int(p.MIDITiming))
	}
	return nil
}

// blockParams is the per-block snapshot read by the audio path.
type blockParams struct {
	gain      float64
	cutoff    float64
	resonance float64
	envMod    float64
	accent    float64
	decay     float64
	vcfAttack float64
	outputLPF float64
	formula   Formula
	timing    MIDITiming
}

func (p *Params) snapshot() blockParams {
	return blockParams{
		gain:      p.Gain,
		cutoff:    p.Cutoff,
		resonance: p.Resonance,
		envMod:    p.EnvMod,
		accent:    p.Accent,
		decay:     p.Decay,
		vcfAttack: p.VcfAttack,
		outputLPF: p.OutputLPFHz,
		formula:   p.Formula,
		timing:    p.MIDITiming,
	}
}

// paramStore holds parameter values as float64 bits so the control thread
// can write while the audio thread reads without locks.
type paramStore struct {
	v      [NumParams]atomic.Uint64
	timing atomic.Int32
}

func (s *paramStore) load(id ParamID) float64 {
	return math.Float64frombits(s.v[id].Load())
}

func (s *paramStore) store(id ParamID, value float64) {
	s.v[id].Store(math.Float64bits(value))
}

func (s *paramStore) init(p *Params) {
	for id := ParamID(0); id < NumParams; id++ {
		s.store(id, paramTable[id].Def)
		if f := p.field(id); f != nil {
			s.store(id, *f)
		}
	}
	s.timing.Store(int32(p.MIDITiming))
}

// params copies the store back into a Params value.
func (s *paramStore) params() Params {
	var p Params
	for id := ParamID(0); id < NumParams; id++ {
		p.SetValue(id, s.load(id))
	}
	p.MIDITiming = MIDITiming(s.timing.Load())
	return p
}

func (s *paramStore) snapshot(bp *blockParams) {
	bp.gain = s.load(ParamGain)
	bp.cutoff = s.load(ParamCutoff)
	bp.resonance = s.load(ParamResonance)
	bp.envMod = s.load(ParamEnvMod)
	bp.accent = s.load(ParamAccent)
	bp.decay = s.load(ParamDecay)
	bp.vcfAttack = s.load(ParamVcfAttack)
	bp.outputLPF = s.load(ParamOutputLPF)
	bp.formula.A = s.load(ParamFormulaA)
	bp.formula.B = s.load(ParamFormulaB)
	bp.formula.C = s.load(ParamFormulaC)
	bp.formula.D = s.load(ParamFormulaD)
	bp.formula.E = s.load(ParamFormulaE)
	bp.formula.Base = s.load(ParamFormulaBase)
	bp.formula.VaccMul = s.load(ParamFormulaVaccMul)
	bp.formula.VaccOffset = s.load(ParamFormulaVaccOffset)
	bp.timing = MIDITiming(s.timing.Load())
}
