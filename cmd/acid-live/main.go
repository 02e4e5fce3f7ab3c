package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hajimehoshi/oto"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-acid/acid"
	"github.com/cwbudde/algo-acid/config"
	"github.com/cwbudde/algo-acid/pattern"
)

// errQuit ends the session when the user presses a quit key.
var errQuit = errors.New("quit")

func main() {
	configPath := flag.String("config", "", "Engine configuration JSON (optional)")
	sampleRate := flag.Int("sample-rate", 48000, "Device sample rate in Hz")
	blockSize := flag.Int("block-size", 128, "Engine block size in frames")
	bufferFrames := flag.Int("buffer", 1024, "Device buffer size in frames")
	midiPort := flag.Int("midi-port", 0, "MIDI input port index")
	midiChannel := flag.Int("midi-channel", 1, "MIDI channel (1-16) to play")
	noMIDI := flag.Bool("no-midi", false, "Do not open a MIDI input")
	patternText := flag.String("pattern", "", "Loop this pattern instead of waiting for notes")
	tempo := flag.Float64("tempo", pattern.DefaultTempo, "Pattern tempo in BPM")
	shuffle := flag.Float64("shuffle", 0, "Pattern shuffle 0..1")
	hold := flag.Duration("hold", 150*time.Millisecond, "Gate length of computer-keyboard notes")
	reportEvery := flag.Duration("report-every", 2*time.Second, "Clamp report interval")
	flag.Parse()
	log.SetFlags(log.Ltime)

	params := acid.NewDefaultParams()
	if *configPath != "" {
		var err error
		if params, err = config.LoadJSON(*configPath); err != nil {
			log.Fatalf("error: %v", err)
		}
	}
	if *blockSize < 1 {
		*blockSize = 128
	}

	var seq *pattern.Sequencer
	if *patternText != "" {
		p, err := pattern.Parse(*patternText)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		seq = pattern.NewSequencer(float64(*sampleRate), p)
		seq.SetTempo(*tempo)
		seq.SetShuffle(*shuffle)
		seq.SetLoop(true)
	}

	engine := acid.NewEngine(*sampleRate, params)
	engine.SetLogger(log.New(os.Stderr, "acid: ", log.Ltime))

	otoContext, err := oto.NewContext(*sampleRate, channelNum, bitDepthInBytes, *bufferFrames*bytesPerFrame)
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	defer otoContext.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine.Activate()
	defer engine.Deactivate()

	g, ctx := errgroup.WithContext(ctx)
	p := newPlayer(ctx, engine, seq, *blockSize)
	kb := newKeyboard(p, engine, os.Stdout, *hold)
	g.Go(func() error {
		return play(otoContext, p, *bufferFrames)
	})
	if !*noMIDI {
		g.Go(func() error {
			if err := listenMIDI(ctx, p, *midiPort, *midiChannel); err != nil {
				log.Printf("MIDI input disabled: %v", err)
				<-ctx.Done()
			}
			return nil
		})
	}
	g.Go(func() error {
		return runKeyboard(ctx, kb)
	})
	g.Go(func() error {
		return reportClamps(ctx, engine, *reportEvery)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		log.Printf("error: %v", err)
	}
	log.Println("stopped")
}

// play copies rendered audio to the device until the player's context ends.
func play(c *oto.Context, p *player, bufferFrames int) error {
	pl := c.NewPlayer()
	defer func() {
		if err := pl.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	// Blocks until p.Read sees ctx done.
	_, err := io.CopyBuffer(pl, p, make([]byte, bufferFrames*bytesPerFrame))
	return err
}

func reportClamps(ctx context.Context, e *acid.Engine, every time.Duration) error {
	if every <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			e.ReportClamps()
		}
	}
}
