package arp

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"
)

type recorder struct {
	events []string
}

func (r *recorder) ArpNoteOn(note int, velocity float64) {
	r.events = append(r.events, fmt.Sprintf("on %d", note))
}

func (r *recorder) ArpNoteOff(note int) {
	r.events = append(r.events, fmt.Sprintf("off %d", note))
}

func newArp(cfg Config, notes ...int) (*Arp, *recorder) {
	rec := &recorder{}
	a := New(rand.New(rand.NewSource(7)))
	cfg.Enabled = true
	a.SetConfig(cfg, rec)
	for _, n := range notes {
		a.Press(n, 1)
	}
	return a, rec
}

func TestSequences(t *testing.T) {
	cases := []struct {
		name    string
		mode    Mode
		octaves int
		notes   []int
		want    []int
	}{
		{"up", ModeUp, 1, []int{67, 60, 64}, []int{60, 64, 67}},
		{"up two octaves", ModeUp, 2, []int{60, 64, 67}, []int{60, 64, 67, 72, 76, 79}},
		{"down", ModeDown, 1, []int{60, 64, 67}, []int{67, 64, 60}},
		{"updown", ModeUpDown, 1, []int{60, 64, 67, 71}, []int{60, 64, 67, 71, 67, 64}},
		{"updown two notes", ModeUpDown, 1, []int{60, 64}, []int{60, 64}},
		{"duplicates", ModeUp, 1, []int{60, 60, 64}, []int{60, 64}},
		{"top of range", ModeUp, 3, []int{110}, []int{110, 122}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := newArp(Config{Mode: tc.mode, Octaves: tc.octaves, Gate: 0.5}, tc.notes...)
			if got := a.Sequence(); !slices.Equal(got, tc.want) {
				t.Fatalf("sequence %v want %v", got, tc.want)
			}
		})
	}
}

func TestRandomIsPermutation(t *testing.T) {
	a, _ := newArp(Config{Mode: ModeRandom, Octaves: 2, Gate: 0.5}, 60, 62, 64, 65, 67)
	got := slices.Clone(a.Sequence())
	slices.Sort(got)
	want := []int{60, 62, 64, 65, 67, 72, 74, 76, 77, 79}
	if !slices.Equal(got, want) {
		t.Fatalf("random sequence %v is not a permutation of %v", a.Sequence(), want)
	}
}

func TestDisabledDoesNotConsume(t *testing.T) {
	a := New(nil)
	if a.Press(60, 1) || a.Release(60) {
		t.Fatal("disabled arp consumed a note")
	}
	if len(a.Sequence()) != 0 {
		t.Fatalf("sequence %v", a.Sequence())
	}
}

// 120 bpm, quarter-note division: 2 steps per second, 500 samples at 1 kHz.
const (
	testRate = 1000.0
	testBpm  = 120.0
	quarter  = 4
)

// run processes n samples the way the engine does, span by span.
func run(a *Arp, n int, rec *recorder) {
	for n > 0 {
		n -= a.Process(n, testRate, testBpm, rec)
	}
}

func TestStepsAndGate(t *testing.T) {
	a, rec := newArp(Config{Mode: ModeUp, Octaves: 1, Division: quarter, Gate: 0.5}, 60, 64, 67)
	run(a, 100, rec)
	if !slices.Equal(rec.events, []string{"on 60"}) {
		t.Fatalf("entering sequencing should fire step 0 at once: %v", rec.events)
	}
	if a.State() != Sequencing {
		t.Fatalf("state %v", a.State())
	}
	run(a, 200, rec)
	run(a, 300, rec)
	want := []string{"on 60", "off 60", "on 64"}
	if !slices.Equal(rec.events, want) {
		t.Fatalf("events %v want %v", rec.events, want)
	}
}

func TestManyStepsInOneBlock(t *testing.T) {
	a, rec := newArp(Config{Mode: ModeUp, Octaves: 1, Division: quarter, Gate: 0.5}, 60, 64, 67)
	run(a, 1900, rec)
	want := []string{
		"on 60", "off 60",
		"on 64", "off 64",
		"on 67", "off 67",
		"on 60", "off 60",
	}
	if !slices.Equal(rec.events, want) {
		t.Fatalf("events %v want %v", rec.events, want)
	}
}

func TestFullGateHoldsUntilNextStep(t *testing.T) {
	a, rec := newArp(Config{Mode: ModeUp, Octaves: 1, Division: quarter, Gate: 1}, 60, 64)
	run(a, 700, rec)
	want := []string{"on 60", "off 60", "on 64"}
	if !slices.Equal(rec.events, want) {
		t.Fatalf("events %v want %v", rec.events, want)
	}
}

func TestLatch(t *testing.T) {
	a, _ := newArp(Config{Mode: ModeUp, Octaves: 1, Gate: 0.5, Latch: true})
	a.Press(60, 1)
	a.Release(60)
	if !slices.Equal(a.Sequence(), []int{60}) {
		t.Fatalf("latched sequence %v", a.Sequence())
	}
	// a new press with no keys down starts a new chord
	a.Press(64, 1)
	a.Press(67, 1)
	if !slices.Equal(a.Sequence(), []int{64, 67}) {
		t.Fatalf("after re-press %v", a.Sequence())
	}
	a.Release(64)
	a.Release(67)
	rec := &recorder{}
	cfg := a.Config()
	cfg.Latch = false
	a.SetConfig(cfg, rec)
	if len(a.Sequence()) != 0 {
		t.Fatalf("unlatching with no keys down should clear, got %v", a.Sequence())
	}
}

func TestReleaseWithoutLatchDropsNote(t *testing.T) {
	a, _ := newArp(Config{Mode: ModeUp, Octaves: 1, Gate: 0.5}, 60, 64)
	a.Release(60)
	if !slices.Equal(a.Sequence(), []int{64}) {
		t.Fatalf("sequence %v", a.Sequence())
	}
	if !a.Release(64) {
		t.Fatal("a key pressed into the arp is the arp's to release")
	}
	if len(a.Sequence()) != 0 {
		t.Fatalf("sequence %v", a.Sequence())
	}
}

func TestReleaseOfUntakenKey(t *testing.T) {
	a := New(nil)
	// held before the arp was switched on
	cfg := Config{Enabled: true, Octaves: 1, Gate: 0.5}
	a.SetConfig(cfg, &recorder{})
	a.Press(64, 1)
	if a.Release(60) {
		t.Fatal("arp claimed a key it never took")
	}
	if !slices.Equal(a.Sequence(), []int{64}) {
		t.Fatalf("sequence %v", a.Sequence())
	}
	if !a.Release(64) || a.Release(64) {
		t.Fatal("a key is released once")
	}
}

func TestProcessStopsAtEvents(t *testing.T) {
	a, rec := newArp(Config{Mode: ModeUp, Octaves: 1, Division: quarter, Gate: 0.5}, 60, 64)
	var spans []int
	for total := 0; total < 1000; {
		n := a.Process(1000-total, testRate, testBpm, rec)
		spans = append(spans, n)
		total += n
	}
	if want := []int{250, 250, 250, 250}; !slices.Equal(spans, want) {
		t.Fatalf("spans %v want %v", spans, want)
	}
	want := []string{"on 60", "off 60", "on 64", "off 64"}
	if !slices.Equal(rec.events, want) {
		t.Fatalf("events %v want %v", rec.events, want)
	}
}

func TestFractionalStepsDoNotDrift(t *testing.T) {
	// 1/16 at 105 bpm is 7 steps a second, 142.857 samples each
	a, rec := newArp(Config{Mode: ModeUp, Octaves: 1, Division: 2, Gate: 1}, 60)
	total := 0
	for total < 10050 {
		total += a.Process(10050-total, testRate, 105, rec)
	}
	// step 0 fires at once, then one per elapsed step
	if got, want := len(rec.events), 1+2*70; got != want {
		t.Fatalf("%d events, want %d", got, want)
	}
}

func TestDisableReleasesSoundingNote(t *testing.T) {
	a, rec := newArp(Config{Mode: ModeUp, Octaves: 1, Division: quarter, Gate: 0.9}, 60)
	run(a, 10, rec)
	cfg := a.Config()
	cfg.Enabled = false
	a.SetConfig(cfg, rec)
	want := []string{"on 60", "off 60"}
	if !slices.Equal(rec.events, want) {
		t.Fatalf("events %v want %v", rec.events, want)
	}
	if a.State() != Idle || len(a.Sequence()) != 0 {
		t.Fatalf("state %v sequence %v", a.State(), a.Sequence())
	}
}

func TestEmptySequenceGoesIdle(t *testing.T) {
	a, rec := newArp(Config{Mode: ModeUp, Octaves: 1, Division: quarter, Gate: 0.9}, 60)
	run(a, 10, rec)
	a.Release(60)
	run(a, 10, rec)
	if a.State() != Idle {
		t.Fatalf("state %v", a.State())
	}
	if !slices.Equal(rec.events, []string{"on 60", "off 60"}) {
		t.Fatalf("events %v", rec.events)
	}
}
