package synth

import (
	"math"
	"sync/atomic"
)

// InputCapacity is the number of note events the ring can hold.
const InputCapacity = 1024

type EventKind uint8

const (
	EventNoteOn EventKind = iota + 1
	EventNoteOff
	EventAllNotesOff
	EventPolyAftertouch
)

// Event is one queued note event. Value is the velocity or pressure.
type Event struct {
	Kind  EventKind
	Note  int
	Value float64
}

var unset = math.Float64bits(math.NaN())

// Input carries events from one non-audio goroutine to the engine. Note
// events go through a single-producer single-consumer ring; controllers are
// last-writer-wins atomics. Nothing here blocks.
type Input struct {
	ring [InputCapacity]Event
	head atomic.Uint64 // written by the producer
	tail atomic.Uint64 // written by the consumer

	pitchWheel atomic.Uint64
	modWheel   atomic.Uint64
	aftertouch atomic.Uint64
	bpm        atomic.Uint64
}

func newInput() *Input {
	in := &Input{}
	in.pitchWheel.Store(unset)
	in.modWheel.Store(unset)
	in.aftertouch.Store(unset)
	in.bpm.Store(unset)
	return in
}

// Push enqueues ev. It reports false when the ring is full.
func (in *Input) Push(ev Event) bool {
	h := in.head.Load()
	if h-in.tail.Load() >= InputCapacity {
		return false
	}
	in.ring[h%InputCapacity] = ev
	in.head.Store(h + 1)
	return true
}

// pop is called from the audio thread only.
func (in *Input) pop() (Event, bool) {
	t := in.tail.Load()
	if t == in.head.Load() {
		return Event{}, false
	}
	ev := in.ring[t%InputCapacity]
	in.tail.Store(t + 1)
	return ev, true
}

// Len is the number of queued events.
func (in *Input) Len() int {
	return int(in.head.Load() - in.tail.Load())
}

func (in *Input) NoteOn(note int, velocity float64) bool {
	return in.Push(Event{Kind: EventNoteOn, Note: note, Value: velocity})
}

func (in *Input) NoteOff(note int) bool {
	return in.Push(Event{Kind: EventNoteOff, Note: note})
}

func (in *Input) AllNotesOff() bool {
	return in.Push(Event{Kind: EventAllNotesOff})
}

func (in *Input) SetPolyAftertouch(note int, v float64) bool {
	return in.Push(Event{Kind: EventPolyAftertouch, Note: note, Value: v})
}

func (in *Input) SetPitchWheel(v float64)        { storeFinite(&in.pitchWheel, v) }
func (in *Input) SetModWheel(v float64)          { storeFinite(&in.modWheel, v) }
func (in *Input) SetChannelAftertouch(v float64) { storeFinite(&in.aftertouch, v) }
func (in *Input) SetBpm(bpm float64)             { storeFinite(&in.bpm, bpm) }

func storeFinite(a *atomic.Uint64, v float64) {
	if v != v || math.IsInf(v, 0) {
		return
	}
	a.Store(math.Float64bits(v))
}

// take returns a pending controller value and clears it.
func take(a *atomic.Uint64) (float64, bool) {
	bits := a.Swap(unset)
	if bits == unset {
		return 0, false
	}
	return math.Float64frombits(bits), true
}

// drain applies everything queued since the last block.
func (e *Engine) drain() {
	in := e.input
	if v, ok := take(&in.pitchWheel); ok {
		e.SetPitchWheel(v)
	}
	if v, ok := take(&in.modWheel); ok {
		e.SetModWheel(v)
	}
	if v, ok := take(&in.aftertouch); ok {
		e.SetChannelAftertouch(v)
	}
	if v, ok := take(&in.bpm); ok {
		e.SetBpm(v)
	}
	for range InputCapacity {
		ev, ok := in.pop()
		if !ok {
			return
		}
		switch ev.Kind {
		case EventNoteOn:
			e.NoteOn(ev.Note, ev.Value)
		case EventNoteOff:
			e.NoteOff(ev.Note)
		case EventAllNotesOff:
			e.AllNotesOff()
		case EventPolyAftertouch:
			e.SetPolyAftertouch(ev.Note, ev.Value)
		}
	}
}
