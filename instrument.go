// Package neonsynth is a polyphonic subtractive synthesizer: a voice engine
// with a modulation matrix, an effects rack, realtime output and offline
// rendering to WAV.
package neonsynth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	intaudio "github.com/cbegin/neonsynth-go/internal/audio"
	"github.com/cbegin/neonsynth-go/internal/effects"
	"github.com/cbegin/neonsynth-go/internal/osc"
	"github.com/cbegin/neonsynth-go/internal/param"
	"github.com/cbegin/neonsynth-go/internal/synth"
)

const (
	DefaultSampleRate = 48000
	DefaultBlockSize  = 512
)

// ErrNotPrepared is returned when rendering or starting an instrument that
// has been closed.
var ErrNotPrepared = errors.New("neonsynth: instrument not prepared")

type Option func(*config)

type config struct {
	sampleRate int
	blockSize  int
	voices     int
	backend    string
	logger     *slog.Logger
	seed       int64
	seeded     bool
	sampleTap  func([]float32)
	bank       *osc.Bank
}

func defaultConfig() config {
	return config{
		sampleRate: DefaultSampleRate,
		blockSize:  DefaultBlockSize,
		voices:     synth.DefaultVoices,
		backend:    intaudio.Ebiten,
	}
}

func WithSampleRate(sr int) Option {
	return func(cfg *config) { cfg.sampleRate = sr }
}

// WithBlockSize sets the largest block the engine renders in one pass.
func WithBlockSize(frames int) Option {
	return func(cfg *config) { cfg.blockSize = frames }
}

func WithVoices(n int) Option {
	return func(cfg *config) { cfg.voices = n }
}

// WithBackend picks the realtime output, "ebiten" or "oto".
func WithBackend(name string) Option {
	return func(cfg *config) { cfg.backend = name }
}

func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// WithSeed makes renders repeatable.
func WithSeed(seed int64) Option {
	return func(cfg *config) {
		cfg.seed = seed
		cfg.seeded = true
	}
}

// WithSampleTap installs a callback invoked with each rendered stereo block.
// In realtime it runs on the audio goroutine; keep work brief and
// non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(cfg *config) { cfg.sampleTap = tap }
}

// WithBank sets the initial wavetable bank.
func WithBank(b *osc.Bank) Option {
	return func(cfg *config) { cfg.bank = b }
}

// Instrument owns a parameter registry, an engine with its effects rack and,
// once started, an audio backend. Its note and controller methods may be
// called from any goroutine.
type Instrument struct {
	mu       sync.Mutex // producer side of the input queue, backend
	renderMu sync.Mutex // the engine has a single consumer
	active   atomic.Int32
	reg      *param.Registry
	engine   *synth.Engine
	rack     *effects.Rack
	backend  intaudio.Backend
	logger   *slog.Logger
	cfg      config
	closed   bool
}

func New(opts ...Option) (*Instrument, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if cfg.blockSize <= 0 {
		return nil, errors.New("blockSize must be positive")
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	reg := param.NewRegistry()
	if err := synth.RegisterParams(reg); err != nil {
		return nil, fmt.Errorf("register synth params: %w", err)
	}
	if err := effects.RegisterParams(reg); err != nil {
		return nil, fmt.Errorf("register effect params: %w", err)
	}

	rack := effects.NewRack()
	engineOpts := []synth.Option{
		synth.WithVoices(cfg.voices),
		synth.WithEffects(rack),
		synth.WithBank(cfg.bank),
	}
	if cfg.seeded {
		engineOpts = append(engineOpts, synth.WithSeed(cfg.seed))
	}
	engine := synth.New(reg, engineOpts...)
	engine.Prepare(float64(cfg.sampleRate), cfg.blockSize)

	return &Instrument{
		reg:    reg,
		engine: engine,
		rack:   rack,
		logger: cfg.logger,
		cfg:    cfg,
	}, nil
}

func (in *Instrument) SampleRate() int { return in.cfg.sampleRate }

// Params is the live parameter registry.
func (in *Instrument) Params() *param.Registry { return in.reg }

// SetParam sets "Module/Name" to v.
func (in *Instrument) SetParam(key string, v float64) error {
	k, err := param.ParseKey(key)
	if err != nil {
		return err
	}
	return in.reg.SetValue(k, v)
}

// Param reads "Module/Name", reporting false for unknown keys.
func (in *Instrument) Param(key string) (float64, bool) {
	k, err := param.ParseKey(key)
	if err != nil {
		return 0, false
	}
	p, ok := in.reg.Lookup(k)
	if !ok {
		return 0, false
	}
	return p.Value(), true
}

// RenderBlock renders len(dst)/2 stereo frames. It is what the audio
// backend pulls; call it directly only while stopped.
func (in *Instrument) RenderBlock(dst []float32) {
	in.renderMu.Lock()
	in.engine.RenderBlock(dst)
	in.active.Store(int32(in.engine.ActiveVoices()))
	in.renderMu.Unlock()
	if in.cfg.sampleTap != nil {
		in.cfg.sampleTap(dst)
	}
}

// ActiveVoices is the number of sounding voices after the last block.
func (in *Instrument) ActiveVoices() int {
	return int(in.active.Load())
}

// NoteOn queues a note. Velocity is in [0, 1]. It reports false when the
// queue is full.
func (in *Instrument) NoteOn(note int, velocity float64) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.engine.Input().NoteOn(note, velocity)
}

func (in *Instrument) NoteOff(note int) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.engine.Input().NoteOff(note)
}

func (in *Instrument) AllNotesOff() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.engine.Input().AllNotesOff()
}

func (in *Instrument) SetPolyAftertouch(note int, v float64) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.engine.Input().SetPolyAftertouch(note, v)
}

func (in *Instrument) SetPitchWheel(v float64)        { in.engine.Input().SetPitchWheel(v) }
func (in *Instrument) SetModWheel(v float64)          { in.engine.Input().SetModWheel(v) }
func (in *Instrument) SetChannelAftertouch(v float64) { in.engine.Input().SetChannelAftertouch(v) }

// SetBpm sets the host tempo used while Control/Tempo Sync is on.
func (in *Instrument) SetBpm(bpm float64) { in.engine.Input().SetBpm(bpm) }

// SetBank swaps the wavetable bank at the next block.
func (in *Instrument) SetBank(b *osc.Bank) {
	in.engine.SetBank(b)
	in.logger.Info("wavetable bank loaded", "tables", b.Len())
}

// LoadBankDir loads a directory of single-cycle WAV files. Files that fail to
// decode are logged and skipped; an empty result keeps the current bank.
func (in *Instrument) LoadBankDir(dir string) error {
	b, err := osc.LoadBankDir(dir)
	if b == nil {
		return err
	}
	if err != nil {
		in.logger.Warn("some wavetables were skipped", "dir", dir, "err", err)
	}
	if b.Len() == 0 {
		return fmt.Errorf("no wavetables in %s", dir)
	}
	in.SetBank(b)
	return nil
}

// Start opens the configured backend and begins playback.
func (in *Instrument) Start() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return ErrNotPrepared
	}
	if in.backend == nil {
		b, err := intaudio.Open(in.cfg.backend, in.cfg.sampleRate, in)
		if err != nil {
			return fmt.Errorf("open %s backend: %w", in.cfg.backend, err)
		}
		in.backend = b
	}
	in.backend.Play()
	in.logger.Info("audio started", "backend", in.cfg.backend, "sample_rate", in.cfg.sampleRate, "block", in.cfg.blockSize)
	return nil
}

// Stop closes the backend. Start may be called again.
func (in *Instrument) Stop() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.backend == nil {
		return nil
	}
	err := in.backend.Close()
	in.backend = nil
	in.logger.Info("audio stopped", "backend", in.cfg.backend)
	return err
}

// Close stops playback and releases the engine.
func (in *Instrument) Close() error {
	err := in.Stop()
	in.mu.Lock()
	in.closed = true
	in.mu.Unlock()
	in.renderMu.Lock()
	in.engine.Release()
	in.active.Store(0)
	in.renderMu.Unlock()
	return err
}

// LoadPatch applies a YAML patch file.
func (in *Instrument) LoadPatch(path string) error {
	p, err := param.ReadPatchFile(path)
	if err != nil {
		return err
	}
	if err := p.ApplyTo(in.reg); err != nil {
		return err
	}
	in.logger.Info("patch loaded", "path", path, "name", p.Name)
	return nil
}

// SavePatch writes the current parameter values to path.
func (in *Instrument) SavePatch(path, name string) error {
	return param.WritePatchFile(path, param.Capture(in.reg, name))
}

// WatchPatch reapplies path every time it changes until ctx is done. Reload
// failures are logged and the previous values stay in place.
func (in *Instrument) WatchPatch(ctx context.Context, path string) error {
	patches := make(chan *param.Patch)
	errs := make(chan error)
	if err := param.WatchPatch(path, patches, errs, ctx.Done()); err != nil {
		return err
	}
	go func() {
		for {
			select {
			case p := <-patches:
				if err := p.ApplyTo(in.reg); err != nil {
					in.logger.Warn("patch reload incomplete", "path", path, "err", err)
					continue
				}
				in.logger.Info("patch reloaded", "path", path, "name", p.Name)
			case err := <-errs:
				in.logger.Warn("patch watch", "path", path, "err", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	in.logger.Info("watching patch", "path", path)
	return nil
}
