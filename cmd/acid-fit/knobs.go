package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-acid/acid"
)

type knobDef struct {
	Name string
	ID   acid.ParamID
	Min  float64
	Max  float64
}

type candidate struct {
	Vals []float64
}

// groupOrder fixes the knob order so reports and resumes line up.
var groupOrder = []string{"formula", "knobs", "level"}

var knobGroups = map[string][]acid.ParamID{
	"formula": {
		acid.ParamFormulaA,
		acid.ParamFormulaB,
		acid.ParamFormulaC,
		acid.ParamFormulaD,
		acid.ParamFormulaE,
		acid.ParamFormulaBase,
		acid.ParamFormulaVaccMul,
	},
	"knobs": {
		acid.ParamCutoff,
		acid.ParamResonance,
		acid.ParamEnvMod,
		acid.ParamAccent,
		acid.ParamDecay,
		acid.ParamVcfAttack,
	},
	"level": {acid.ParamGain},
}

// searchRanges narrows parameters whose declared range is far wider than
// anything a fit should explore.
var searchRanges = map[acid.ParamID][2]float64{
	acid.ParamGain:     {-24, 12},
	acid.ParamFormulaA: {0.2, 5},
	acid.ParamFormulaB: {0, 3},
	acid.ParamFormulaC: {0, 1.5},
	acid.ParamFormulaD: {0, 1},
	acid.ParamFormulaE: {2, 7},
}

// parseOptimizeGroups parses a comma-separated string of group names.
// Valid groups: formula, knobs, level.
func parseOptimizeGroups(raw string) (map[string]bool, error) {
	groups := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := knobGroups[s]; !ok {
			return nil, fmt.Errorf("unknown optimize group %q (valid: %s)", s, strings.Join(groupOrder, ", "))
		}
		groups[s] = true
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no optimize groups specified")
	}
	return groups, nil
}

func knobFor(id acid.ParamID) knobDef {
	info := id.Info()
	d := knobDef{Name: info.Symbol, ID: id, Min: info.Min, Max: info.Max}
	if r, ok := searchRanges[id]; ok {
		d.Min = math.Max(d.Min, r[0])
		d.Max = math.Min(d.Max, r[1])
	}
	return d
}

func initCandidate(base *acid.Params, groups map[string]bool) ([]knobDef, candidate) {
	var defs []knobDef
	var vals []float64
	for _, g := range groupOrder {
		if !groups[g] {
			continue
		}
		for _, id := range knobGroups[g] {
			d := knobFor(id)
			defs = append(defs, d)
			vals = append(vals, clamp(base.Value(id), d.Min, d.Max))
		}
	}
	return defs, candidate{Vals: vals}
}

// applyCandidate returns a copy of base with the candidate's knob values.
func applyCandidate(base *acid.Params, defs []knobDef, c candidate) *acid.Params {
	p := *base
	for i, d := range defs {
		p.SetValue(d.ID, d.ID.Clamp(c.Vals[i]))
	}
	return &p
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = clamp(pos[i], 0, 1)
		}
		vals[i] = defs[i].Min + x*(defs[i].Max-defs[i].Min)
	}
	return candidate{Vals: vals}
}

func knobMap(defs []knobDef, c candidate) map[string]float64 {
	m := make(map[string]float64, len(defs))
	for i, d := range defs {
		m[d.Name] = c.Vals[i]
	}
	return m
}

// candidateFromKnobs overrides fallback with the named values in knobs. It
// reports false when none of the names matched.
func candidateFromKnobs(knobs map[string]float64, defs []knobDef, fallback candidate) (candidate, bool) {
	vals := append([]float64(nil), fallback.Vals...)
	updated := false
	for i, d := range defs {
		if v, ok := knobs[d.Name]; ok {
			vals[i] = clamp(v, d.Min, d.Max)
			updated = true
		}
	}
	return candidate{Vals: vals}, updated
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
