package main

import (
	"testing"

	"github.com/cwbudde/algo-acid/pattern"
)

func TestStripComments(t *testing.T) {
	text := "# intro line\nC2 D#2 # rest of bar\n  . C2!\n"
	p, err := pattern.Parse(stripComments(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := len(p.Steps); got != 4 {
		t.Fatalf("got %d steps, want 4", got)
	}
	if p.Steps[1].Note != 39 {
		t.Fatalf("step 1 note = %d, want D#2 (39)", p.Steps[1].Note)
	}
}
