package synth

import (
	"math"
	"sync"
	"testing"
)

func TestInputRingFull(t *testing.T) {
	in := newInput()
	for i := 0; i < InputCapacity; i++ {
		if !in.NoteOn(i%128, 1) {
			t.Fatalf("push %d rejected", i)
		}
	}
	if in.NoteOff(1) {
		t.Fatal("push into a full ring succeeded")
	}
	if in.Len() != InputCapacity {
		t.Fatalf("len %d", in.Len())
	}
	if _, ok := in.pop(); !ok {
		t.Fatal("pop from a full ring failed")
	}
	if !in.NoteOff(1) {
		t.Fatal("push after pop rejected")
	}
}

func TestInputOrder(t *testing.T) {
	in := newInput()
	want := []Event{
		{Kind: EventNoteOn, Note: 60, Value: 0.5},
		{Kind: EventPolyAftertouch, Note: 60, Value: 0.2},
		{Kind: EventNoteOff, Note: 60},
		{Kind: EventAllNotesOff},
	}
	for _, ev := range want {
		in.Push(ev)
	}
	for i, w := range want {
		got, ok := in.pop()
		if !ok || got != w {
			t.Fatalf("event %d: got %+v %v, want %+v", i, got, ok, w)
		}
	}
	if _, ok := in.pop(); ok {
		t.Fatal("ring should be empty")
	}
}

func TestInputControllersLastWriterWins(t *testing.T) {
	in := newInput()
	in.SetModWheel(0.1)
	in.SetModWheel(0.9)
	in.SetBpm(0) // stored, rejected by the engine
	in.SetPitchWheel(math.NaN())

	if v, ok := take(&in.modWheel); !ok || v != 0.9 {
		t.Fatalf("mod wheel %v %v", v, ok)
	}
	if _, ok := take(&in.modWheel); ok {
		t.Fatal("value should be consumed")
	}
	if _, ok := take(&in.pitchWheel); ok {
		t.Fatal("NaN should not be stored")
	}
	if v, ok := take(&in.bpm); !ok || v != 0 {
		t.Fatalf("bpm %v %v", v, ok)
	}
}

func TestInputConcurrentProducer(t *testing.T) {
	const total = 5000
	in := newInput()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if in.NoteOn(i%128, float64(i)) {
				i++
			}
		}
	}()
	for i := 0; i < total; {
		ev, ok := in.pop()
		if !ok {
			continue
		}
		if ev.Note != i%128 || ev.Value != float64(i) {
			t.Fatalf("event %d out of order: %+v", i, ev)
		}
		i++
	}
	wg.Wait()
}

func TestEngineDrainBounded(t *testing.T) {
	e := newEngine(t, testRate, nil)
	in := e.Input()
	for i := 0; i < InputCapacity; i++ {
		in.NoteOn(60, 1)
	}
	render(e, 1)
	if in.Len() != 0 {
		t.Fatalf("%d events left after drain", in.Len())
	}
	if n := e.ActiveVoices(); n != e.Voices() {
		t.Fatalf("%d voices active, want the whole pool", n)
	}
}
