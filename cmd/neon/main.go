package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cbegin/neonsynth-go"
)

var (
	// shared flags
	sampleRate int
	blockSize  int
	voices     int
	seed       int64
	patchPath  string
	bankDir    string
	verbose    bool

	// play flags
	backend   string
	portName  string
	channel   int
	keyboard  bool
	demo      bool
	watch     bool
	listPorts bool

	// render flags
	midiPath   string
	outputPath string
	tailSec    float64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "neon",
	Short: "Polyphonic subtractive synthesizer",
	Long: `neon plays a polyphonic synthesizer from a MIDI port or the computer
keyboard, renders MIDI files to WAV, and lists the patch parameters.

Examples:
  neon play --port "Keystation" --patch pad.yaml --watch
  neon play --keyboard
  neon render --midi song.mid -o song.wav --patch lead.yaml
  neon params dump > init.yaml`,
	SilenceUsage: true,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play live from a MIDI input, the keyboard or the demo phrase",
	RunE:  runPlay,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a MIDI file (or the demo phrase) to WAV",
	RunE:  runRender,
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List every parameter with its range and default",
	RunE:  runParamsList,
}

var paramsDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write the current values (defaults, or --patch) as a YAML patch",
	RunE:  runParamsDump,
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(paramsCmd)
	paramsCmd.AddCommand(paramsDumpCmd)

	pf := rootCmd.PersistentFlags()
	pf.IntVar(&sampleRate, "sample-rate", neonsynth.DefaultSampleRate, "output sample rate")
	pf.IntVar(&blockSize, "block", neonsynth.DefaultBlockSize, "largest render block in frames")
	pf.IntVar(&voices, "voices", 16, "polyphony")
	pf.Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	pf.StringVarP(&patchPath, "patch", "p", "", "YAML patch to load")
	pf.StringVar(&bankDir, "bank", "", "directory of single-cycle WAV wavetables")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	playCmd.Flags().StringVar(&backend, "backend", "ebiten", "audio backend: ebiten|oto")
	playCmd.Flags().StringVar(&portName, "port", "", "MIDI input port (substring match; empty picks the first). Needs a gomidi driver linked into the build; without one no ports are listed, use --keyboard or --demo")
	playCmd.Flags().IntVar(&channel, "channel", 0, "MIDI channel 1-16 (0 = omni)")
	playCmd.Flags().BoolVarP(&keyboard, "keyboard", "k", false, "play from the computer keyboard")
	playCmd.Flags().BoolVar(&demo, "demo", false, "play the demo phrase and exit")
	playCmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload --patch when the file changes")
	playCmd.Flags().BoolVar(&listPorts, "list-ports", false, "list MIDI inputs and exit")

	renderCmd.Flags().StringVarP(&midiPath, "midi", "m", "", "Standard MIDI File to render (default: demo phrase)")
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "neon.wav", "output WAV file")
	renderCmd.Flags().Float64Var(&tailSec, "tail", neonsynth.DefaultTail.Seconds(), "seconds rendered after the last event")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newInstrument builds an instrument from the shared flags.
func newInstrument(logger *slog.Logger, extra ...neonsynth.Option) (*neonsynth.Instrument, error) {
	opts := []neonsynth.Option{
		neonsynth.WithSampleRate(sampleRate),
		neonsynth.WithBlockSize(blockSize),
		neonsynth.WithVoices(voices),
		neonsynth.WithLogger(logger),
	}
	if seed != 0 {
		opts = append(opts, neonsynth.WithSeed(seed))
	}
	in, err := neonsynth.New(append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	if bankDir != "" {
		if err := in.LoadBankDir(bankDir); err != nil {
			in.Close()
			return nil, err
		}
	}
	if patchPath != "" {
		if err := in.LoadPatch(patchPath); err != nil {
			in.Close()
			return nil, err
		}
	}
	return in, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
