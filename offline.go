package neonsynth

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/neonsynth-go/internal/midiin"
)

// DefaultTail is rendered after the last event so releases and effect
// tails are not cut off.
const DefaultTail = 2 * time.Second

func (in *Instrument) frames(d time.Duration) int {
	return int(math.Round(d.Seconds() * float64(in.cfg.sampleRate)))
}

func (in *Instrument) prepared() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return ErrNotPrepared
	}
	return nil
}

// Render renders d of audio with whatever notes are currently queued or
// held. Do not call it while the instrument is started.
func (in *Instrument) Render(d time.Duration) ([]float32, error) {
	if err := in.prepared(); err != nil {
		return nil, err
	}
	out := make([]float32, in.frames(d)*2)
	in.RenderBlock(out)
	return out, nil
}

// RenderEvents plays events in time order and keeps rendering for tail
// after the last one. Each event lands on its exact frame.
func (in *Instrument) RenderEvents(events []midiin.TimedEvent, tail time.Duration) ([]float32, error) {
	if err := in.prepared(); err != nil {
		return nil, err
	}
	total := in.frames(midiin.Duration(events) + tail)
	out := make([]float32, total*2)
	pos := 0
	for _, ev := range events {
		at := min(max(in.frames(ev.At), pos), total)
		if at > pos {
			in.RenderBlock(out[pos*2 : at*2])
			pos = at
		}
		ev.Apply(in, midiin.Omni)
	}
	if pos < total {
		in.RenderBlock(out[pos*2:])
	}
	return out, nil
}

// RenderSMF renders a Standard MIDI File on all channels.
func (in *Instrument) RenderSMF(rd io.Reader, tail time.Duration) ([]float32, error) {
	events, err := midiin.ReadSMF(rd)
	if err != nil {
		return nil, err
	}
	in.logger.Info("rendering midi file", "events", len(events), "length", midiin.Duration(events))
	return in.RenderEvents(events, tail)
}

// DemoPhrase is a short four-chord progression with a melody on top, for
// auditioning patches without a MIDI file.
func DemoPhrase() []midiin.TimedEvent {
	const beat = 500 * time.Millisecond
	chords := [][]uint8{
		{48, 55, 60, 63},
		{44, 51, 56, 60},
		{46, 53, 58, 62},
		{43, 50, 55, 59},
	}
	melody := []uint8{72, 75, 79, 77, 75, 72, 70, 74}

	var events []midiin.TimedEvent
	add := func(at time.Duration, msg midi.Message) {
		events = append(events, midiin.TimedEvent{At: at, Msg: msg})
	}
	events = append(events, midiin.TimedEvent{At: 0, Bpm: 120})
	for i, chord := range chords {
		start := time.Duration(i*2) * beat
		for _, n := range chord {
			add(start, midi.NoteOn(0, n, 80))
		}
		for _, n := range chord {
			add(start+2*beat-beat/8, midi.NoteOff(0, n))
		}
		for j := 0; j < 2; j++ {
			n := melody[i*2+j]
			at := start + time.Duration(j)*beat
			add(at, midi.NoteOn(0, n, 100))
			add(at+beat*3/4, midi.NoteOff(0, n))
		}
	}
	slices.SortStableFunc(events, func(a, b midiin.TimedEvent) int {
		return cmp.Compare(a.At, b.At)
	})
	return events
}

// WriteWAV encodes interleaved stereo samples as 16-bit PCM. Samples are
// clipped to [-1, 1].
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		if s != s {
			s = 0
		}
		buf.Data[i] = int(math.Round(float64(max(-1, min(s, 1))) * 32767))
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}

// WriteWAVFile writes samples to a new file at path.
func WriteWAVFile(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	if err := WriteWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
