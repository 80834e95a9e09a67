package lfo

import (
	"math"
	"math/rand"
)

// Shapes, in the order of the "Shape" choice parameter.
const (
	ShapeTriangle = iota
	ShapeRampUp
	ShapeRampDown
	ShapeSquare
	ShapeSampleHold
)

var ShapeNames = []string{"Triangle", "Ramp Up", "Ramp Down", "Square", "S&H"}

// Divisions are tempo-synced step lengths in beats (quarter notes).
var Divisions = [...]float64{0.0625, 0.125, 0.25, 0.5, 1, 2, 4, 8, 16}

var DivisionNames = []string{"1/64", "1/32", "1/16", "1/8", "1/4", "1/2", "1/1", "2/1", "4/1"}

// DivisionHz converts a division index to a rate at the given tempo.
func DivisionHz(index int, bpm float64) float64 {
	if index < 0 {
		index = 0
	}
	if index >= len(Divisions) {
		index = len(Divisions) - 1
	}
	if bpm <= 0 {
		bpm = 120
	}
	return (bpm / 60) / Divisions[index]
}

// Shape evaluates shape at phase p in [0, 1). held is the S&H value.
func Shape(shape int, p, held float64) float64 {
	switch shape {
	case ShapeRampUp:
		return 2*p - 1
	case ShapeRampDown:
		return 1 - 2*p
	case ShapeSquare:
		if p < 0.5 {
			return 1
		}
		return -1
	case ShapeSampleHold:
		return held
	default:
		if p < 0.5 {
			return 4*p - 1
		}
		return 3 - 4*p
	}
}

// LFO is a free-running modulator shared by a whole processor, e.g. the
// chorus sweep. Per-voice modulators use State instead.
type LFO struct {
	depth   float64
	rateHz  float64
	shape   int
	phase   float64
	randVal float64
	rng     *rand.Rand
}

// Set configures the LFO parameters.
func (l *LFO) Set(depth, rateHz float64, shape int) {
	l.depth = depth
	l.rateHz = rateHz
	if shape < ShapeTriangle || shape > ShapeSampleHold {
		shape = ShapeTriangle
	}
	l.shape = shape
}

// Sample advances the LFO by one sample and returns a value in [-depth, +depth].
// Returns 0 if depth or rate is zero.
func (l *LFO) Sample(sampleRate float64) float64 {
	if l.depth == 0 || l.rateHz == 0 || sampleRate == 0 {
		return 0
	}
	v := Shape(l.shape, l.phase, l.randVal)
	l.phase += l.rateHz / sampleRate
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
		if l.shape == ShapeSampleHold {
			if l.rng == nil {
				l.rng = rand.New(rand.NewSource(1))
			}
			l.randVal = l.rng.Float64()*2 - 1
		}
	}
	return v * l.depth
}

// Active returns true if the LFO has non-zero depth and rate.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

// SetPhase moves the LFO to p, wrapped into [0, 1).
func (l *LFO) SetPhase(p float64) { l.phase = wrap(p) }

// Reset zeros the LFO phase.
func (l *LFO) Reset() {
	l.phase = 0
	l.randVal = 0
}
