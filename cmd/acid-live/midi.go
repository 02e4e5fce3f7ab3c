package main

import (
	"context"
	"fmt"
	"log"

	"gitlab.com/gomidi/rtmididrv"
)

// toEngineChannel rewrites note messages on channel (1-based) to channel 1,
// the only channel the engine listens to. Other messages are returned
// unchanged; the engine ignores them.
func toEngineChannel(data []byte, channel int) []byte {
	if len(data) == 0 || channel < 1 || channel > 16 {
		return data
	}
	kind := data[0] & 0xf0
	if (kind == 0x80 || kind == 0x90) && int(data[0]&0x0f) == channel-1 {
		out := append([]byte(nil), data...)
		out[0] = kind
		return out
	}
	return data
}

// listenMIDI forwards messages from MIDI input port to p until ctx is done.
// A system without MIDI inputs is not an error.
func listenMIDI(ctx context.Context, p *player, port, channel int) error {
	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	defer func() {
		if err := drv.Close(); err != nil {
			log.Printf("failed to close MIDI driver: %v", err)
		}
	}()
	ins, err := drv.Ins()
	if err != nil {
		return fmt.Errorf("failed to get MIDI IN: %w", err)
	}
	log.Printf("MIDI IN: %v", ins)
	if len(ins) == 0 {
		log.Println("WARN: MIDI IN not found")
		<-ctx.Done()
		return nil
	}
	if port < 0 || port >= len(ins) {
		return fmt.Errorf("MIDI port %d out of range (have %d)", port, len(ins))
	}

	in := ins[port]
	if err := in.Open(); err != nil {
		return fmt.Errorf("failed to open MIDI IN: %w", err)
	}
	log.Println("opened " + in.String())
	defer func() {
		if err := in.Close(); err != nil {
			log.Printf("failed to close MIDI IN: %v", err)
		}
	}()

	if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
		if !p.enqueue(toEngineChannel(data, channel)) {
			log.Printf("dropped MIDI message %x", data)
		}
	}); err != nil {
		return fmt.Errorf("failed to set listener: %w", err)
	}
	defer func() {
		if err := in.StopListening(); err != nil {
			log.Printf("failed to stop listening: %v", err)
		}
	}()
	<-ctx.Done()
	return nil
}
