package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/neonsynth-go"
	"github.com/cbegin/neonsynth-go/internal/midiin"
)

func runPlay(cmd *cobra.Command, args []string) error {
	if listPorts {
		names, err := midiin.Ports()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no MIDI inputs (is a gomidi driver linked in?)")
		}
		for i, n := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", i, n)
		}
		return nil
	}
	if channel < 0 || channel > 16 {
		return fmt.Errorf("--channel %d out of range (0-16)", channel)
	}
	if watch && patchPath == "" {
		return errors.New("--watch needs --patch")
	}

	logger := newLogger()
	in, err := newInstrument(logger, neonsynth.WithBackend(backend))
	if err != nil {
		return err
	}
	defer in.Close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()
	if watch {
		if err := in.WatchPatch(ctx, patchPath); err != nil {
			return err
		}
	}
	if err := in.Start(); err != nil {
		return err
	}

	switch {
	case demo:
		return playEvents(ctx, in, neonsynth.DemoPhrase())
	case keyboard:
		return playKeyboard(ctx, in, cmd.OutOrStdout())
	}

	port, err := midiin.FindPort(portName)
	if err != nil {
		return fmt.Errorf("%w (try --list-ports or --keyboard)", err)
	}
	stopListen, err := midiin.Listen(port, in, channel-1, logger)
	if err != nil {
		return err
	}
	defer stopListen()
	<-ctx.Done()
	in.AllNotesOff()
	return nil
}

// playEvents schedules events against the wall clock while the backend
// renders.
func playEvents(ctx context.Context, in *neonsynth.Instrument, events []midiin.TimedEvent) error {
	start := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	for _, ev := range events {
		if wait := time.Until(start.Add(ev.At)); wait > 0 {
			timer.Reset(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				in.AllNotesOff()
				return nil
			}
		}
		ev.Apply(in, midiin.Omni)
	}
	select {
	case <-time.After(neonsynth.DefaultTail):
	case <-ctx.Done():
	}
	return nil
}
