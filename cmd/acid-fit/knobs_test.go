package main

import (
	"testing"

	"github.com/cwbudde/algo-acid/acid"
)

func TestParseOptimizeGroups(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]bool
		wantErr bool
	}{
		{name: "single group", input: "formula", want: map[string]bool{"formula": true}},
		{name: "multiple groups", input: "formula,level", want: map[string]bool{"formula": true, "level": true}},
		{name: "with whitespace", input: " knobs , formula ", want: map[string]bool{"knobs": true, "formula": true}},
		{name: "invalid group", input: "formula,bogus", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "only whitespace", input: "  ,  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOptimizeGroups(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseOptimizeGroups(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOptimizeGroups(%q) unexpected error: %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseOptimizeGroups(%q) returned %d groups, want %d", tt.input, len(got), len(tt.want))
			}
			for k := range tt.want {
				if !got[k] {
					t.Fatalf("parseOptimizeGroups(%q) missing group %q", tt.input, k)
				}
			}
		})
	}
}

func TestInitCandidateFollowsGroupOrder(t *testing.T) {
	base := acid.NewDefaultParams()
	defs, c := initCandidate(base, map[string]bool{"level": true, "formula": true})

	want := len(knobGroups["formula"]) + len(knobGroups["level"])
	if len(defs) != want || len(c.Vals) != want {
		t.Fatalf("got %d defs / %d vals, want %d", len(defs), len(c.Vals), want)
	}
	if defs[0].ID != acid.ParamFormulaA {
		t.Fatalf("first knob = %s, want formula_a", defs[0].Name)
	}
	if last := defs[len(defs)-1]; last.ID != acid.ParamGain {
		t.Fatalf("last knob = %s, want gain", last.Name)
	}
	for i, d := range defs {
		if d.Min >= d.Max {
			t.Fatalf("%s: empty range [%g, %g]", d.Name, d.Min, d.Max)
		}
		if c.Vals[i] < d.Min || c.Vals[i] > d.Max {
			t.Fatalf("%s: initial value %g outside [%g, %g]", d.Name, c.Vals[i], d.Min, d.Max)
		}
	}
}

func TestSearchRangesStayInsideDeclaredRange(t *testing.T) {
	for id := range searchRanges {
		d := knobFor(id)
		info := id.Info()
		if d.Min < info.Min || d.Max > info.Max {
			t.Fatalf("%s: search range [%g, %g] outside [%g, %g]", d.Name, d.Min, d.Max, info.Min, info.Max)
		}
	}
}

func TestApplyCandidateLeavesBaseUntouched(t *testing.T) {
	base := acid.NewDefaultParams()
	defs, c := initCandidate(base, map[string]bool{"knobs": true})
	for i, d := range defs {
		if d.ID == acid.ParamResonance {
			c.Vals[i] = 0.25
		}
	}

	got := applyCandidate(base, defs, c)
	if got.Resonance != 0.25 {
		t.Fatalf("resonance = %g, want 0.25", got.Resonance)
	}
	if base.Resonance == 0.25 {
		t.Fatal("applyCandidate mutated base params")
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("applied params invalid: %v", err)
	}
}

func TestFromNormalizedMapsBounds(t *testing.T) {
	defs := []knobDef{
		{Name: "a", Min: -2, Max: 2},
		{Name: "b", Min: 10, Max: 20},
	}
	c := fromNormalized([]float64{0, 1.5}, defs)
	if c.Vals[0] != -2 {
		t.Fatalf("vals[0] = %g, want -2", c.Vals[0])
	}
	if c.Vals[1] != 20 {
		t.Fatalf("vals[1] = %g, want 20 (clamped)", c.Vals[1])
	}

	short := fromNormalized(nil, defs)
	if short.Vals[1] != 10 {
		t.Fatalf("missing position should map to Min, got %g", short.Vals[1])
	}
}

func TestCandidateFromKnobs(t *testing.T) {
	defs := []knobDef{{Name: "cutoff", Min: 2, Max: 12}, {Name: "decay", Min: -2, Max: 1}}
	fallback := candidate{Vals: []float64{5, 0}}

	c, ok := candidateFromKnobs(map[string]float64{"cutoff": 40}, defs, fallback)
	if !ok {
		t.Fatal("expected a match")
	}
	if c.Vals[0] != 12 || c.Vals[1] != 0 {
		t.Fatalf("got %v, want [12 0]", c.Vals)
	}
	if fallback.Vals[0] != 5 {
		t.Fatal("fallback mutated")
	}

	if _, ok := candidateFromKnobs(map[string]float64{"other": 1}, defs, fallback); ok {
		t.Fatal("expected no match for unknown names")
	}
}
