package lfo

import (
	"math"
	"math/rand"
)

// Settings is the per-LFO configuration polled once per block.
type Settings struct {
	Shape    int
	Sync     bool    // tempo-synced when true
	RateHz   float64 // free-running rate
	Division int     // index into Divisions when synced
	KeySync  bool
	Phase    float64 // start phase in [0, 1)
	Delay    float64 // seconds of silence after note-on
}

func (s Settings) Rate(bpm float64) float64 {
	if s.Sync {
		return DivisionHz(s.Division, bpm)
	}
	if s.RateHz > 0 && !math.IsInf(s.RateHz, 0) {
		return s.RateHz
	}
	return 0
}

// State is one voice's instance of an LFO. Each voice keeps its own so that
// key-synced LFOs restart independently.
type State struct {
	phase     float64
	last      float64
	triggered bool
	delayLeft int
}

func (st *State) Phase() float64 { return st.phase }

// Trigger handles note-on: restart the delay and, with key-sync, the phase.
func (st *State) Trigger(s Settings, sampleRate float64) {
	if s.KeySync || !st.triggered {
		st.phase = wrap(s.Phase)
	}
	st.triggered = false
	st.delayLeft = 0
	if s.Delay > 0 && sampleRate > 0 {
		st.delayLeft = int(s.Delay*sampleRate + 0.5)
	}
}

// Step returns the output at the current phase, then advances n samples.
// Sample-and-hold draws from rng exactly once per phase wrap.
func (st *State) Step(s Settings, sampleRate, bpm float64, n int, rng *rand.Rand) float64 {
	if !st.triggered {
		st.triggered = true
		st.last = rng.Float64()*2 - 1
	}
	out := Shape(s.Shape, st.phase, st.last)
	if st.delayLeft > 0 {
		out = 0
		st.delayLeft -= n
	}
	if sampleRate > 0 {
		st.phase += s.Rate(bpm) * float64(n) / sampleRate
	}
	if st.phase >= 1 || st.phase != st.phase {
		st.phase = wrap(st.phase)
		if s.Shape == ShapeSampleHold {
			st.last = rng.Float64()*2 - 1
		}
	}
	return out
}

func wrap(p float64) float64 {
	if p != p || math.IsInf(p, 0) {
		return 0
	}
	p -= math.Floor(p)
	if p >= 1 {
		p = 0
	}
	return p
}
