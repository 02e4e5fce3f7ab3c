package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cwbudde/algo-acid/acid"
	"github.com/cwbudde/algo-acid/config"
)

func main() {
	configPath := flag.String("config", "", "Engine configuration JSON (optional)")
	sampleRate := flag.Int("sample-rate", 48000, "Sample rate in Hz")
	samples := flag.Int("samples", acid.DefaultPreviewLength, "Number of samples to replay")
	stride := flag.Int("stride", 48, "Write every n-th sample")
	output := flag.String("output", "", "CSV output path (default stdout)")
	flag.Parse()

	params := acid.NewDefaultParams()
	if *configPath != "" {
		var err error
		params, err = config.LoadJSON(*configPath)
		if err != nil {
			die("Error loading config %q: %v", *configPath, err)
		}
	}
	if *stride < 1 {
		*stride = 1
	}

	sr := float64(*sampleRate)
	off, on := acid.PreviewPair(sr, params, *samples)

	lo, hi := params.Formula.Limits(params.Cutoff, params.EnvMod)
	fmt.Fprintf(os.Stderr, "limits: lo=%.3f Hz hi=%.3f Hz nyquist=%g Hz\n", lo, hi, sr/2)
	for _, c := range []struct {
		name  string
		curve acid.Curve
	}{{"normal", off}, {"accent", on}} {
		peak, at := c.curve.Peak()
		fmt.Fprintf(os.Stderr, "%-7s peak %.1f Hz at %.1f ms, %d clamped samples\n",
			c.name, peak, at*1000, c.curve.ClampCount())
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			die("Error creating %s: %v", *output, err)
		}
		defer f.Close()
		w = f
	}
	if err := writeCSV(w, off, on, *stride); err != nil {
		die("Error writing CSV: %v", err)
	}
}

func writeCSV(w io.Writer, off, on acid.Curve, stride int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"t", "freq", "freq_accent", "env", "env_accent", "accent_cv", "clamped", "clamped_accent"}); err != nil {
		return err
	}
	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', 8, 64) }
	fb := func(v bool) string {
		if v {
			return "1"
		}
		return "0"
	}
	for i := 0; i < len(off.X) && i < len(on.X); i += stride {
		rec := []string{
			ff(off.X[i]), ff(off.Freq[i]), ff(on.Freq[i]),
			ff(off.Env[i]), ff(on.Env[i]), ff(on.AccentCV[i]),
			fb(off.Clamped[i]), fb(on.Clamped[i]),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
