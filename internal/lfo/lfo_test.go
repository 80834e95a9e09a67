package lfo

import (
	"math"
	"math/rand"
	"testing"
)

func TestLFOTriangleBasicShape(t *testing.T) {
	l := &LFO{}
	l.Set(1.0, 1.0, ShapeTriangle)

	sr := 100.0 // 100 samples per cycle
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = l.Sample(sr)
	}
	if math.Abs(samples[0]-(-1.0)) > 0.05 {
		t.Errorf("triangle at phase 0: got %f, want -1.0", samples[0])
	}
	if math.Abs(samples[25]) > 0.05 {
		t.Errorf("triangle at phase 0.25: got %f, want ~0", samples[25])
	}
	if math.Abs(samples[50]-1.0) > 0.05 {
		t.Errorf("triangle at phase 0.5: got %f, want 1.0", samples[50])
	}
}

func TestLFOSquareShape(t *testing.T) {
	l := &LFO{}
	l.Set(2.0, 1.0, ShapeSquare)

	sr := 100.0
	v := l.Sample(sr)
	if math.Abs(v-2.0) > 0.01 {
		t.Errorf("square first half: got %f, want 2.0", v)
	}
	for i := 1; i < 50; i++ {
		l.Sample(sr)
	}
	v = l.Sample(sr)
	if math.Abs(v-(-2.0)) > 0.01 {
		t.Errorf("square second half: got %f, want -2.0", v)
	}
}

func TestShapes(t *testing.T) {
	cases := []struct {
		name  string
		shape int
		phase float64
		want  float64
	}{
		{"ramp up start", ShapeRampUp, 0, -1},
		{"ramp up mid", ShapeRampUp, 0.5, 0},
		{"ramp down start", ShapeRampDown, 0, 1},
		{"ramp down late", ShapeRampDown, 0.75, -0.5},
		{"triangle quarter", ShapeTriangle, 0.75, 0},
		{"square late", ShapeSquare, 0.9, -1},
		{"s&h holds", ShapeSampleHold, 0.3, 0.42},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Shape(tc.shape, tc.phase, 0.42); math.Abs(got-tc.want) > 1e-12 {
				t.Fatalf("got %f want %f", got, tc.want)
			}
		})
	}
}

func TestLFOZeroDepthReturnsZero(t *testing.T) {
	l := &LFO{}
	l.Set(0, 5.0, ShapeTriangle)
	if v := l.Sample(44100); v != 0 {
		t.Errorf("zero depth should return 0, got %f", v)
	}
}

func TestLFOActive(t *testing.T) {
	l := &LFO{}
	if l.Active() {
		t.Error("default LFO should not be active")
	}
	l.Set(1.0, 5.0, ShapeTriangle)
	if !l.Active() {
		t.Error("configured LFO should be active")
	}
}

func TestDivisionHz(t *testing.T) {
	// a quarter note at 120 bpm is 2 Hz, a whole note 0.5 Hz
	if got := DivisionHz(4, 120); got != 2 {
		t.Fatalf("1/4 @120 = %f", got)
	}
	if got := DivisionHz(6, 120); got != 0.5 {
		t.Fatalf("1/1 @120 = %f", got)
	}
	if got := DivisionHz(99, 120); got != DivisionHz(len(Divisions)-1, 120) {
		t.Fatalf("out-of-range index not clamped")
	}
}

func TestStateKeySyncResetsPhase(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := Settings{Shape: ShapeRampUp, RateHz: 3, KeySync: true, Phase: 0.25}
	var st State
	st.Trigger(s, 1000)
	for i := 0; i < 100; i++ {
		st.Step(s, 1000, 120, 8, rng)
	}
	st.Trigger(s, 1000)
	if st.Phase() != 0.25 {
		t.Fatalf("phase after key-sync trigger = %f", st.Phase())
	}

	s.KeySync = false
	st.Step(s, 1000, 120, 8, rng)
	before := st.Phase()
	st.Trigger(s, 1000)
	if st.Phase() != before {
		t.Fatalf("free-running phase moved on trigger: %f -> %f", before, st.Phase())
	}
}

func TestStateDelayEmitsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := Settings{Shape: ShapeSquare, RateHz: 1, KeySync: true, Delay: 0.1}
	var st State
	st.Trigger(s, 1000)
	for i := 0; i < 12; i++ { // 96 samples
		if v := st.Step(s, 1000, 120, 8, rng); v != 0 {
			t.Fatalf("step %d during delay = %f", i, v)
		}
	}
	st.Step(s, 1000, 120, 8, rng)
	if v := st.Step(s, 1000, 120, 8, rng); v != 1 {
		t.Fatalf("after delay square = %f, want 1", v)
	}
}

func TestSampleHoldChangesOncePerCycle(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := Settings{Shape: ShapeSampleHold, RateHz: 10, KeySync: true}
	var st State
	st.Trigger(s, 1000)
	changes := 0
	prev := st.Step(s, 1000, 120, 1, rng)
	for i := 1; i < 1000; i++ {
		v := st.Step(s, 1000, 120, 1, rng)
		if v != prev {
			changes++
		}
		if v < -1 || v > 1 {
			t.Fatalf("s&h out of range: %f", v)
		}
		prev = v
	}
	// 10 Hz over one second wraps 9 or 10 times
	if changes < 9 || changes > 10 {
		t.Fatalf("s&h changed %d times, want ~10", changes)
	}
}

func TestTempoSyncedRate(t *testing.T) {
	s := Settings{Sync: true, Division: 4, RateHz: 99}
	if got := s.Rate(90); got != 1.5 {
		t.Fatalf("synced rate = %f", got)
	}
	s.Sync = false
	if got := s.Rate(90); got != 99 {
		t.Fatalf("free rate = %f", got)
	}
}

func TestLFOSetPhaseWraps(t *testing.T) {
	l := &LFO{}
	l.Set(1.0, 1.0, ShapeTriangle)
	l.SetPhase(1.5)
	if v := l.Sample(100); math.Abs(v-1.0) > 0.05 {
		t.Errorf("triangle after SetPhase(1.5): got %f, want 1.0", v)
	}
	l.SetPhase(-0.75)
	if v := l.Sample(100); math.Abs(v) > 0.05 {
		t.Errorf("triangle after SetPhase(-0.75): got %f, want ~0", v)
	}
}
