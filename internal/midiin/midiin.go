// Package midiin translates MIDI messages from live ports and Standard MIDI
// Files into note and controller calls on the synth input queue.
package midiin

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Omni accepts every channel.
const Omni = -1

// Controller numbers handled by Dispatch.
const (
	CCModWheel    = 1
	CCAllSoundOff = 120
	CCAllNotesOff = 123
)

// Sink receives translated events. *synth.Input implements it.
type Sink interface {
	NoteOn(note int, velocity float64) bool
	NoteOff(note int) bool
	AllNotesOff() bool
	SetPolyAftertouch(note int, v float64) bool
	SetPitchWheel(v float64)
	SetModWheel(v float64)
	SetChannelAftertouch(v float64)
	SetBpm(bpm float64)
}

// ErrNoPort is returned when no input port matches.
var ErrNoPort = errors.New("midi input port not found")

// Dispatch forwards msg to sink when it is on channel (or channel is Omni).
// It reports whether the message was understood. A full queue drops the
// event.
func Dispatch(msg midi.Message, sink Sink, channel int) bool {
	var ch, key, vel, cc, val uint8
	var rel int16
	var abs uint16
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		if !onChannel(ch, channel) {
			return false
		}
		sink.NoteOn(int(key), float64(vel)/127)
	case msg.GetNoteEnd(&ch, &key):
		if !onChannel(ch, channel) {
			return false
		}
		sink.NoteOff(int(key))
	case msg.GetPitchBend(&ch, &rel, &abs):
		if !onChannel(ch, channel) {
			return false
		}
		sink.SetPitchWheel(float64(rel) / 8192)
	case msg.GetControlChange(&ch, &cc, &val):
		if !onChannel(ch, channel) {
			return false
		}
		switch cc {
		case CCModWheel:
			sink.SetModWheel(float64(val) / 127)
		case CCAllSoundOff, CCAllNotesOff:
			sink.AllNotesOff()
		default:
			return false
		}
	case msg.GetAfterTouch(&ch, &val):
		if !onChannel(ch, channel) {
			return false
		}
		sink.SetChannelAftertouch(float64(val) / 127)
	case msg.GetPolyAfterTouch(&ch, &key, &val):
		if !onChannel(ch, channel) {
			return false
		}
		sink.SetPolyAftertouch(int(key), float64(val)/127)
	default:
		return false
	}
	return true
}

func onChannel(ch uint8, want int) bool {
	return want == Omni || int(ch) == want
}

// Ports lists the names of the registered input ports.
func Ports() ([]string, error) {
	ins, err := drivers.Ins()
	if err != nil {
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// FindPort returns the first input whose name contains name, ignoring case.
// An empty name picks the first port.
func FindPort(name string) (drivers.In, error) {
	ins, err := drivers.Ins()
	if err != nil {
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}
	for _, in := range ins {
		if name == "" || strings.Contains(strings.ToLower(in.String()), strings.ToLower(name)) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoPort, name)
}

// Listen dispatches everything arriving on port to sink until stop is
// called.
func Listen(port drivers.In, sink Sink, channel int, logger *slog.Logger) (stop func(), err error) {
	if logger == nil {
		logger = slog.Default()
	}
	stopFn, err := midi.ListenTo(port, func(msg midi.Message, _ int32) {
		Dispatch(msg, sink, channel)
	})
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", port, err)
	}
	logger.Info("midi input open", "port", port.String(), "channel", channel)
	return func() {
		stopFn()
		logger.Info("midi input closed", "port", port.String())
	}, nil
}
