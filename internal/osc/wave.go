// Package osc renders oscillator samples: wavetable lookup, algebraic analog
// shapes and chip-style dividers and noise, with shaping and unison.
package osc

import "math"

// MinFreq is the lowest frequency rendered; anything at or below is silent.
const MinFreq = 0.01

type Family int

const (
	FamilyTable Family = iota
	FamilyAnalog
	FamilyChip
)

var FamilyNames = []string{"Wavetable", "Analog", "Chip"}

const (
	AnalogSine = iota
	AnalogSaw
	AnalogTriangle
	AnalogSquare
	AnalogPulse
	AnalogFM
)

var AnalogNames = []string{"Sine", "Saw", "Triangle", "Square", "Pulse", "FM"}

const (
	ChipSquare = iota
	ChipDiv6
	ChipDiv31
	ChipPoly4
	ChipPoly5
	ChipPoly9
)

var ChipNames = []string{"Square", "Div 6", "Div 31", "Poly 4", "Poly 5", "Poly 9"}

// Wave selects a generator.
type Wave struct {
	Family Family
	Index  int
}

// Name resolves the display name of w; tables are named from bank.
func (w Wave) Name(bank *Bank) string {
	switch w.Family {
	case FamilyAnalog:
		return AnalogNames[clampIndex(w.Index, len(AnalogNames))]
	case FamilyChip:
		return ChipNames[clampIndex(w.Index, len(ChipNames))]
	}
	return bank.Table(w.Index).Name
}

// LFSR seeds.
const (
	poly4Seed = 0xF
	poly5Seed = 0x1F
	poly9Seed = 0x1FF
)

// Phase is one accumulator plus the noise registers clocked by it.
type Phase struct {
	pos   float64
	poly4 uint32
	poly5 uint32
	poly9 uint32
}

func (p *Phase) Reset(start float64) {
	p.pos = wrapPhase(start)
	p.poly4, p.poly5, p.poly9 = poly4Seed, poly5Seed, poly9Seed
}

func (p *Phase) Pos() float64 { return p.pos }

// Render returns the raw sample of w at the current phase and then advances
// the phase by freq/sampleRate. t is only used by the table family; nil means
// the fallback table.
func Render(p *Phase, w Wave, t *Table, freq, sampleRate, symmetry float64) float64 {
	if !(freq > MinFreq) || math.IsInf(freq, 0) || !(sampleRate > 0) {
		return 0
	}
	if p.pos != p.pos || math.IsInf(p.pos, 0) {
		p.pos = 0
	}
	if symmetry != symmetry {
		symmetry = 0.5
	}
	if p.poly4 == 0 {
		p.poly4, p.poly5, p.poly9 = poly4Seed, poly5Seed, poly9Seed
	}
	dt := freq / sampleRate
	var v float64
	switch w.Family {
	case FamilyAnalog:
		v = analog(w.Index, p.pos, dt, symmetry)
	case FamilyChip:
		v = chip(w.Index, p)
	default:
		if t == nil {
			t = fallbackTable
		}
		v = t.Lookup(warp(p.pos, symmetry))
	}
	next := math.Mod(p.pos+dt, 1)
	if next < p.pos {
		p.clockNoise()
	}
	p.pos = next
	return v
}

// warp remaps phase so the first half of the cycle takes s of the period.
func warp(p, s float64) float64 {
	s = clamp(s, 0.01, 0.99)
	if p < s {
		return p * 0.5 / s
	}
	return 0.5 + (p-s)*0.5/(1-s)
}

func analog(index int, p, dt, sym float64) float64 {
	var v float64
	switch clampIndex(index, len(AnalogNames)) {
	case AnalogSaw:
		v = 2*p - 1 - polyBLEP(p, dt)
	case AnalogTriangle:
		s := clamp(sym, 0.01, 0.99)
		if p < s {
			v = -1 + 2*p/s
		} else {
			v = 1 - 2*(p-s)/(1-s)
		}
	case AnalogSquare:
		v = pulse(p, dt, clamp(sym, 0.01, 0.99))
	case AnalogPulse:
		v = pulse(p, dt, clamp(sym*0.5, 0.01, 0.5))
	case AnalogFM:
		v = math.Sin(twoPi*p + 4*sym*math.Sin(2*twoPi*p))
	default:
		v = math.Sin(twoPi * warp(p, sym))
	}
	return clamp(v, -1, 1)
}

func pulse(p, dt, duty float64) float64 {
	v := -1.0
	if p < duty {
		v = 1
	}
	v += polyBLEP(p, dt)
	v -= polyBLEP(math.Mod(p-duty+1, 1), dt)
	return v
}

// polyBLEP reduces aliasing at waveform discontinuities.
// t is the phase position [0,1), dt is the phase increment per sample.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func chip(index int, p *Phase) float64 {
	var on bool
	switch clampIndex(index, len(ChipNames)) {
	case ChipDiv6:
		on = math.Mod(p.pos*6, 1) < 0.5
	case ChipDiv31:
		on = math.Mod(p.pos*31, 1) < 0.5
	case ChipPoly4:
		on = p.poly4&1 == 1
	case ChipPoly5:
		on = p.poly5&1 == 1
	case ChipPoly9:
		on = p.poly9&1 == 1
	default:
		on = p.pos < 0.5
	}
	if on {
		return 1
	}
	return -1
}

// clockNoise steps the three registers once per cycle:
// x^4+x+1, x^5+x^2+1 and x^9+x^4+1.
func (p *Phase) clockNoise() {
	p.poly4 = lfsrStep(p.poly4, 4, 1)
	p.poly5 = lfsrStep(p.poly5, 5, 2)
	p.poly9 = lfsrStep(p.poly9, 9, 4)
}

func lfsrStep(r uint32, width, tap uint) uint32 {
	bit := (r ^ (r >> tap)) & 1
	return (r >> 1) | (bit << (width - 1))
}

func wrapPhase(p float64) float64 {
	if p != p || math.IsInf(p, 0) {
		return 0
	}
	p -= math.Floor(p)
	if p >= 1 {
		return 0
	}
	return p
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
