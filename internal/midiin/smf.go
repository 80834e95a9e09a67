package midiin

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// TimedEvent is a channel message or a tempo change at a time from the
// start of the file.
type TimedEvent struct {
	At  time.Duration
	Msg midi.Message
	Bpm float64 // set for tempo changes, Msg is nil
}

// Apply sends the event to sink.
func (ev TimedEvent) Apply(sink Sink, channel int) {
	if ev.Bpm > 0 {
		sink.SetBpm(ev.Bpm)
		return
	}
	Dispatch(ev.Msg, sink, channel)
}

// ReadSMF flattens every track of a Standard MIDI File into one time-ordered
// list. Tempo changes are already folded into At.
func ReadSMF(rd io.Reader) ([]TimedEvent, error) {
	var events []TimedEvent
	err := smf.ReadTracksFrom(rd).Do(func(te smf.TrackEvent) {
		at := time.Duration(te.AbsMicroSeconds) * time.Microsecond
		var bpm float64
		if te.Message.GetMetaTempo(&bpm) {
			events = append(events, TimedEvent{At: at, Bpm: bpm})
			return
		}
		if !te.Message.IsPlayable() {
			return
		}
		events = append(events, TimedEvent{At: at, Msg: midi.Message(slices.Clone(te.Message))})
	}).Error()
	if err != nil {
		return nil, fmt.Errorf("read midi file: %w", err)
	}
	slices.SortStableFunc(events, func(a, b TimedEvent) int {
		return cmp.Compare(a.At, b.At)
	})
	return events, nil
}

// Duration is the time of the last event.
func Duration(events []TimedEvent) time.Duration {
	if len(events) == 0 {
		return 0
	}
	return events[len(events)-1].At
}
