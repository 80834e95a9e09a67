// Package synth is the polyphonic voice engine: allocation, per-voice
// modulation and the block renderer.
package synth

import (
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/cbegin/neonsynth-go/internal/arp"
	"github.com/cbegin/neonsynth-go/internal/osc"
	"github.com/cbegin/neonsynth-go/internal/param"
)

const (
	DefaultVoices = 16
	MaxVoices     = 64
	DefaultBpm    = 120
)

// Effects processes the interleaved stereo mix in place. Update is called
// once per block before ProcessBlock so the chain can poll its own
// parameters.
type Effects interface {
	Prepare(sampleRate float64, maxBlockSize int)
	Update(store param.Store, bpm float64)
	ProcessBlock(buf []float32)
}

type Option func(*Engine)

// WithVoices sets the polyphony, clamped to [1, MaxVoices].
func WithVoices(n int) Option {
	return func(e *Engine) {
		e.voices = make([]voice, max(1, min(n, MaxVoices)))
	}
}

// WithSeed makes voice desynchronization, S&H and random arps repeatable.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

func WithEffects(fx Effects) Option {
	return func(e *Engine) { e.fx = fx }
}

func WithBank(b *osc.Bank) Option {
	return func(e *Engine) {
		if b != nil {
			e.bank.Store(b)
		}
	}
}

// Engine owns the voice pool. All methods except SetBank, Bank and Input
// must be called from the audio goroutine.
type Engine struct {
	store  param.Store
	voices []voice
	rng    *rand.Rand
	fx     Effects
	input  *Input
	arp    *arp.Arp

	bank      atomic.Pointer[osc.Bank]
	blockBank *osc.Bank

	snap       snapshot
	sampleRate float64
	maxBlock   int
	prepared   bool

	clock     uint64
	held      monoStack
	lastFreq  float64
	lastVoice int
	glideCoef float64

	pitchWheel float64
	modWheel   float64
	aftertouch float64
	hostBpm    float64
	bpm        float64
}

// New builds an engine reading its parameters from store.
func New(store param.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		input:     newInput(),
		hostBpm:   DefaultBpm,
		bpm:       DefaultBpm,
		lastVoice: -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.voices == nil {
		e.voices = make([]voice, DefaultVoices)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	if e.bank.Load() == nil {
		e.bank.Store(osc.DefaultBank())
	}
	e.arp = arp.New(e.rng)
	e.blockBank = e.bank.Load()
	e.snap.poll(store)
	e.arp.SetConfig(e.snap.arp, arpSink{e})
	return e
}

// Prepare sizes the engine for playback. It may allocate.
func (e *Engine) Prepare(sampleRate float64, maxBlockSize int) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		sampleRate = 44100
	}
	if maxBlockSize < 1 {
		maxBlockSize = 512
	}
	e.sampleRate = sampleRate
	e.maxBlock = maxBlockSize
	for i := range e.voices {
		v := &e.voices[i]
		for j := range v.env {
			v.env[j].SetSampleRate(sampleRate)
		}
	}
	if e.fx != nil {
		e.fx.Prepare(sampleRate, maxBlockSize)
	}
	e.snap.poll(e.store)
	e.arp.SetConfig(e.snap.arp, arpSink{e})
	e.prepared = true
}

// Release silences every voice and returns to the unprepared state.
func (e *Engine) Release() {
	for i := range e.voices {
		e.voices[i] = voice{}
	}
	e.arp.Reset(arpSink{e})
	e.held.clear()
	e.lastFreq = 0
	e.lastVoice = -1
	e.prepared = false
}

func (e *Engine) SampleRate() float64 { return e.sampleRate }
func (e *Engine) Prepared() bool      { return e.prepared }

// Input is the queue other goroutines use to reach the engine.
func (e *Engine) Input() *Input { return e.input }

// SetBank swaps the wavetable bank. Safe from any goroutine; voices see the
// new bank from the next block.
func (e *Engine) SetBank(b *osc.Bank) {
	if b != nil {
		e.bank.Store(b)
	}
}

func (e *Engine) Bank() *osc.Bank { return e.bank.Load() }

// RenderBlock overwrites dst with len(dst)/2 interleaved stereo frames.
// Blocks longer than the prepared size are rendered in pieces. Before
// Prepare it writes silence.
func (e *Engine) RenderBlock(dst []float32) {
	clear(dst)
	if !e.prepared {
		return
	}
	frames := len(dst) / 2
	for frames > 0 {
		n := min(frames, e.maxBlock)
		e.renderChunk(dst[:n*2])
		dst = dst[n*2:]
		frames -= n
	}
}

func (e *Engine) renderChunk(out []float32) {
	frames := len(out) / 2
	e.drain()
	e.snap.poll(e.store)
	e.blockBank = e.bank.Load()
	e.bpm = e.hostBpm
	if !e.snap.tempoSync {
		e.bpm = e.snap.tempo
	}
	e.glideCoef = 0
	if e.snap.glide > 0 {
		e.glideCoef = 1 - math.Exp(-1/(e.snap.glide*e.sampleRate))
	}

	sink := arpSink{e}
	e.arp.SetConfig(e.snap.arp, sink)
	for i := range e.voices {
		if v := &e.voices[i]; v.active {
			for j := range v.env {
				v.env[j].SetSettings(e.snap.env[j])
			}
		}
	}
	// arp events split the chunk so each lands on its own frame
	for off := 0; off < frames; {
		n := e.arp.Process(frames-off, e.sampleRate, e.bpm, sink)
		e.renderVoices(out[2*off : 2*(off+n)])
		off += n
	}

	if e.fx != nil {
		e.fx.Update(e.store, e.bpm)
		e.fx.ProcessBlock(out)
	}
}

func (e *Engine) renderVoices(out []float32) {
	frames := len(out) / 2
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			continue
		}
		for f := 0; f < frames; f++ {
			l, r := v.render(e)
			if !v.active {
				break
			}
			out[2*f] += float32(l)
			out[2*f+1] += float32(r)
		}
	}
}

// ActiveVoices counts voices that are still producing sound.
func (e *Engine) ActiveVoices() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

// Voices is the pool size.
func (e *Engine) Voices() int { return len(e.voices) }

func (e *Engine) SetPitchWheel(v float64)        { e.pitchWheel = clamp(v, -1, 1) }
func (e *Engine) SetModWheel(v float64)          { e.modWheel = clamp(v, 0, 1) }
func (e *Engine) SetChannelAftertouch(v float64) { e.aftertouch = clamp(v, 0, 1) }

// SetPolyAftertouch sets the pressure of every active voice holding note.
func (e *Engine) SetPolyAftertouch(note int, v float64) {
	v = clamp(v, 0, 1)
	for i := range e.voices {
		if e.voices[i].active && e.voices[i].note == note {
			e.voices[i].aftertouch = v
		}
	}
}

// SetBpm sets the host tempo, used while Control/Tempo Sync is on.
func (e *Engine) SetBpm(bpm float64) {
	if bpm > 0 && !math.IsInf(bpm, 0) {
		e.hostBpm = bpm
	}
}

// Bpm is the tempo used by the last block.
func (e *Engine) Bpm() float64 { return e.bpm }
