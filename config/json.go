// Package config loads engine settings from JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/cwbudde/algo-acid/acid"
)

// File is the JSON schema of an engine configuration. Every field is
// optional; missing fields keep their defaults.
type File struct {
	Gain       *float64 `json:"gain"`
	Cutoff     *float64 `json:"cutoff"`
	Resonance  *float64 `json:"resonance"`
	EnvMod     *float64 `json:"envmod"`
	Accent     *float64 `json:"accent"`
	Decay      *float64 `json:"decay"`
	VcfAttack  *float64 `json:"vcf_attack"`
	OutputLPF  *float64 `json:"output_lpf"`
	MIDITiming string   `json:"midi_timing"`

	Formula *FormulaSetting `json:"formula"`

	// Params overrides parameters by symbol, applied after the named fields.
	Params map[string]float64 `json:"params"`
}

// FormulaSetting is a partial override of the cutoff formula.
type FormulaSetting struct {
	A          *float64 `json:"a"`
	B          *float64 `json:"b"`
	C          *float64 `json:"c"`
	D          *float64 `json:"d"`
	E          *float64 `json:"e"`
	Base       *float64 `json:"base"`
	VaccMul    *float64 `json:"vacc_mul"`
	VaccOffset *float64 `json:"vacc_offset"`
}

// LoadJSON loads a configuration file and applies it on top of default params.
func LoadJSON(path string) (*acid.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse applies JSON configuration bytes on top of default params.
func Parse(b []byte) (*acid.Params, error) {
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	p := acid.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyFile applies a parsed configuration onto existing params and
// validates the result.
func ApplyFile(dst *acid.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	set := func(id acid.ParamID, v *float64) {
		if v != nil {
			dst.SetValue(id, *v)
		}
	}
	set(acid.ParamGain, f.Gain)
	set(acid.ParamCutoff, f.Cutoff)
	set(acid.ParamResonance, f.Resonance)
	set(acid.ParamEnvMod, f.EnvMod)
	set(acid.ParamAccent, f.Accent)
	set(acid.ParamDecay, f.Decay)
	set(acid.ParamVcfAttack, f.VcfAttack)
	set(acid.ParamOutputLPF, f.OutputLPF)

	if fs := f.Formula; fs != nil {
		set(acid.ParamFormulaA, fs.A)
		set(acid.ParamFormulaB, fs.B)
		set(acid.ParamFormulaC, fs.C)
		set(acid.ParamFormulaD, fs.D)
		set(acid.ParamFormulaE, fs.E)
		set(acid.ParamFormulaBase, fs.Base)
		set(acid.ParamFormulaVaccMul, fs.VaccMul)
		set(acid.ParamFormulaVaccOffset, fs.VaccOffset)
	}

	if f.MIDITiming != "" {
		m, err := acid.ParseMIDITiming(f.MIDITiming)
		if err != nil {
			return err
		}
		dst.MIDITiming = m
	}

	keys := make([]string, 0, len(f.Params))
	for k := range f.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		id, err := acid.LookupParam(k)
		if err != nil {
			return fmt.Errorf("params: %w", err)
		}
		if !dst.SetValue(id, f.Params[k]) {
			return fmt.Errorf("params: %q is not a settable parameter", k)
		}
	}

	return dst.Validate()
}

// FromParams builds a complete File from params, the inverse of ApplyFile.
func FromParams(p *acid.Params) *File {
	v := func(x float64) *float64 { return &x }
	return &File{
		Gain:       v(p.Gain),
		Cutoff:     v(p.Cutoff),
		Resonance:  v(p.Resonance),
		EnvMod:     v(p.EnvMod),
		Accent:     v(p.Accent),
		Decay:      v(p.Decay),
		VcfAttack:  v(p.VcfAttack),
		OutputLPF:  v(p.OutputLPFHz),
		MIDITiming: p.MIDITiming.String(),
		Formula: &FormulaSetting{
			A:          v(p.Formula.A),
			B:          v(p.Formula.B),
			C:          v(p.Formula.C),
			D:          v(p.Formula.D),
			E:          v(p.Formula.E),
			Base:       v(p.Formula.Base),
			VaccMul:    v(p.Formula.VaccMul),
			VaccOffset: v(p.Formula.VaccOffset),
		},
	}
}
