package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/neonsynth-go"
	"github.com/cbegin/neonsynth-go/internal/param"
)

func runRender(cmd *cobra.Command, args []string) error {
	if tailSec < 0 {
		return fmt.Errorf("--tail must not be negative")
	}
	logger := newLogger()
	in, err := newInstrument(logger)
	if err != nil {
		return err
	}
	defer in.Close()

	tail := time.Duration(tailSec * float64(time.Second))
	var samples []float32
	if midiPath == "" {
		samples, err = in.RenderEvents(neonsynth.DemoPhrase(), tail)
	} else {
		f, ferr := os.Open(midiPath)
		if ferr != nil {
			return fmt.Errorf("open midi file: %w", ferr)
		}
		samples, err = in.RenderSMF(f, tail)
		f.Close()
	}
	if err != nil {
		return err
	}
	if err := neonsynth.WriteWAVFile(outputPath, samples, in.SampleRate()); err != nil {
		return err
	}
	logger.Info("wrote wav", "path", outputPath, "seconds", float64(len(samples)/2)/float64(in.SampleRate()))
	return nil
}

func runParamsList(cmd *cobra.Command, args []string) error {
	in, err := newInstrument(newLogger())
	if err != nil {
		return err
	}
	defer in.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tKIND\tRANGE\tVALUE")
	for _, p := range in.Params().All() {
		if p.UIOnly {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Key, p.Kind, describeRange(p), p.Label(p.Value()))
	}
	return w.Flush()
}

func describeRange(p *param.Param) string {
	switch p.Kind {
	case param.Boolean:
		return p.Labels[0] + "|" + p.Labels[1]
	case param.Choice:
		return fmt.Sprintf("%d choices", len(p.Choices))
	}
	return fmt.Sprintf("%g..%g", p.Min, p.Max)
}

func runParamsDump(cmd *cobra.Command, args []string) error {
	in, err := newInstrument(newLogger())
	if err != nil {
		return err
	}
	defer in.Close()
	name := "init"
	if patchPath != "" {
		name = patchPath
	}
	return param.Capture(in.Params(), name).Encode(cmd.OutOrStdout())
}
