// Package audio moves rendered blocks to the sound card.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// BlockRenderer fills dst with interleaved stereo frames, overwriting it.
type BlockRenderer interface {
	RenderBlock(dst []float32)
}

// StreamReader turns a BlockRenderer into a little-endian float32 stereo
// byte stream, the format both backends pull.
type StreamReader struct {
	mu     sync.Mutex
	source BlockRenderer
	buf    []float32
	closed bool
}

func NewStreamReader(source BlockRenderer) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, io.EOF
	}

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.RenderBlock(r.buf)
	for i, s := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return frames * 8, nil
}

// Close makes the next Read return io.EOF.
func (r *StreamReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Backend is a running output device.
type Backend interface {
	Play()
	Pause()
	Close() error
}

// Backend names accepted by Open.
const (
	Ebiten = "ebiten"
	Oto    = "oto"
)

// Open starts a paused backend named kind pulling from source.
func Open(kind string, sampleRate int, source BlockRenderer) (Backend, error) {
	switch kind {
	case "", Ebiten:
		return NewPlayer(sampleRate, source)
	case Oto:
		return NewOtoPlayer(sampleRate, source)
	}
	return nil, fmt.Errorf("unknown audio backend %q", kind)
}

// Player plays through ebiten's audio context.
type Player struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func NewPlayer(sampleRate int, source BlockRenderer) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, fmt.Errorf("create ebiten player: %w", err)
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }

// Position returns what the listener actually hears.
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Close() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
