package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-acid/acid"
	"github.com/cwbudde/algo-acid/config"
	"github.com/cwbudde/algo-acid/internal/render"
	"github.com/cwbudde/algo-acid/internal/wavio"
	"github.com/cwbudde/algo-acid/pattern"
)

const defaultPattern = "C2 C2! C3 C2 - D#2 C2! . G1 G1 C2 Bb1! - C2 D#2! C3"

func main() {
	patternText := flag.String("pattern", defaultPattern, "Step pattern (e.g. \"C2 C2! - . D#2\")")
	patternFile := flag.String("pattern-file", "", "Read the pattern from a text file instead")
	configPath := flag.String("config", "", "Engine configuration JSON (optional)")
	tempo := flag.Float64("tempo", pattern.DefaultTempo, "Tempo in BPM")
	shuffle := flag.Float64("shuffle", 0, "Shuffle amount 0..1")
	gate := flag.Float64("gate", pattern.DefaultGate, "Gate length as a fraction of a step")
	passes := flag.Int("passes", 2, "Number of pattern repetitions")
	tail := flag.Float64("tail", 0.5, "Extra seconds after the last pass")
	timing := flag.String("midi-timing", "", "Override MIDI timing: sample or block")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	outputRate := flag.Int("output-rate", 0, "Resample the written WAV to this rate (0 = render rate)")
	blockSize := flag.Int("block-size", render.DefaultBlockSize, "Render block size in frames")
	output := flag.String("output", "acid.wav", "Output WAV file path")
	diagOutput := flag.String("diagnostics", "", "Optional 4-channel WAV with output, accent CV, envelope and cutoff")
	normalize := flag.Float64("normalize", 0, "Peak normalize the output to this level (0 = off)")
	printParams := flag.Bool("print", false, "Print the formula and its limits before rendering")
	flag.Parse()

	params := acid.NewDefaultParams()
	if *configPath != "" {
		var err error
		params, err = config.LoadJSON(*configPath)
		if err != nil {
			die("Error loading config %q: %v", *configPath, err)
		}
	}
	if *timing != "" {
		m, err := acid.ParseMIDITiming(*timing)
		if err != nil {
			die("%v", err)
		}
		params.MIDITiming = m
	}

	text := *patternText
	if *patternFile != "" {
		b, err := os.ReadFile(*patternFile)
		if err != nil {
			die("Error reading pattern: %v", err)
		}
		text = string(b)
	}
	p, err := pattern.Parse(stripComments(text))
	if err != nil {
		die("Error parsing pattern: %v", err)
	}

	e := acid.NewEngine(*sampleRate, params)
	if !*printParams {
		e.SetLogger(nil)
	}
	e.PrintParameters()

	opt := render.DefaultOptions()
	opt.BlockSize = *blockSize
	opt.Tempo = *tempo
	opt.Shuffle = *shuffle
	opt.Gate = *gate
	opt.Passes = *passes
	opt.TailSeconds = *tail
	opt.Diagnostics = *diagOutput != ""

	fmt.Printf("Rendering %d steps x %d at %.1f BPM, %d Hz (%s timing)...\n",
		len(p.Steps), *passes, *tempo, *sampleRate, params.MIDITiming)
	res, err := render.Pattern(e, p, opt)
	if err != nil {
		die("Error rendering: %v", err)
	}

	out := res.Main()
	if *normalize > 0 {
		wavio.Normalize(out, float32(*normalize))
	}
	rate := *sampleRate
	if *outputRate > 0 && *outputRate != rate {
		resampled, err := wavio.Resample(wavio.Float64(out), rate, *outputRate)
		if err != nil {
			die("Error resampling: %v", err)
		}
		out = wavio.Float32(resampled)
		rate = *outputRate
	}
	if err := wavio.WriteMono(*output, out, rate); err != nil {
		die("Error writing WAV file: %v", err)
	}
	if opt.Diagnostics {
		if err := wavio.WriteChannels(*diagOutput, res.Channels, res.SampleRate); err != nil {
			die("Error writing diagnostics: %v", err)
		}
		fmt.Printf("Wrote diagnostics to %s\n", *diagOutput)
	}

	fmt.Printf("Successfully wrote %s (%d frames, peak %.3f, %d events, %d clamped samples)\n",
		*output, len(out), wavio.Peak(out), res.Events, res.ClampEvents)
}

// stripComments drops everything after '#' on each line of a pattern file.
// Sharps inside note names are kept because they never start a token.
func stripComments(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		for j := 0; j < len(l); j++ {
			if l[j] == '#' && (j == 0 || l[j-1] == ' ' || l[j-1] == '\t') {
				lines[i] = l[:j]
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
