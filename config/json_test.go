package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-acid/acid"
)

func TestLoadJSONAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acid.json")
	content := `{
  "cutoff": 7.604,
  "resonance": 0.8,
  "midi_timing": "block",
  "formula": {"a": 2.0, "base": -100},
  "params": {"accent": 0.5, "formula_vacc_offset": 0.25}
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	p, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if p.Cutoff != 7.604 || p.Resonance != 0.8 {
		t.Fatalf("knobs not applied: cutoff=%v resonance=%v", p.Cutoff, p.Resonance)
	}
	if p.Formula.A != 2.0 || p.Formula.Base != -100 || p.Formula.VaccOffset != 0.25 {
		t.Fatalf("formula not applied: %+v", p.Formula)
	}
	if p.Formula.C != acid.DefaultFormula().C {
		t.Fatalf("untouched coefficient changed: %v", p.Formula.C)
	}
	if p.Accent != 0.5 {
		t.Fatalf("symbol override not applied: %v", p.Accent)
	}
	if p.MIDITiming != acid.TimingBlock {
		t.Fatalf("midi timing not applied: %v", p.MIDITiming)
	}
	if p.Gain != 0 {
		t.Fatalf("gain should keep its default, got %v", p.Gain)
	}
}

func TestApplyFileRejectsOutOfRange(t *testing.T) {
	_, err := Parse([]byte(`{"resonance": 1.5}`))
	if err == nil || !strings.Contains(err.Error(), "resonance") {
		t.Fatalf("expected resonance range error, got %v", err)
	}
}

func TestApplyFileRejectsUnknownSymbol(t *testing.T) {
	_, err := Parse([]byte(`{"params": {"wobble": 1}}`))
	if !errors.Is(err, acid.ErrUnknownParam) {
		t.Fatalf("expected ErrUnknownParam, got %v", err)
	}
	_, err = Parse([]byte(`{"params": {"limiter": 1}}`))
	if err == nil {
		t.Fatalf("expected error for output parameter")
	}
}

func TestApplyFileRejectsBadTiming(t *testing.T) {
	if _, err := Parse([]byte(`{"midi_timing": "tick"}`)); err == nil {
		t.Fatalf("expected timing error")
	}
}

func TestFromParamsRoundTrip(t *testing.T) {
	src := acid.NewDefaultParams()
	src.Cutoff = 5.5
	src.Formula.E = 3.25
	src.MIDITiming = acid.TimingBlock

	b, err := json.Marshal(FromParams(src))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if *got != *src {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *got, *src)
	}
}
