// Package filter provides the per-voice state-variable filter stage.
package filter

import "github.com/chewxy/math32"

type Mode int

const (
	LowPass Mode = iota
	HighPass
	BandPass
)

var ModeNames = []string{"Low Pass", "High Pass", "Band Pass"}

// SVF is a stereo zero-delay-feedback state-variable filter. State lives in
// fixed arrays so voices can hold it by value.
type SVF struct {
	g float32 // frequency coefficient
	k float32 // damping coefficient (1/Q)

	a1, a2, a3 float32

	ic1eq [2]float32
	ic2eq [2]float32
}

// Reset clears the filter state
func (s *SVF) Reset() {
	s.ic1eq = [2]float32{}
	s.ic2eq = [2]float32{}
}

// SetFrequencyAndQ prewarps cutoff for the bilinear transform and derives the
// per-sample coefficients.
func (s *SVF) SetFrequencyAndQ(sampleRate, cutoff, q float32) {
	s.g = math32.Tan(math32.Pi * cutoff / sampleRate)
	if q < 0.01 {
		q = 0.01
	}
	s.k = 1 / q
	s.a1 = 1 / (1 + s.g*(s.g+s.k))
	s.a2 = s.g * s.a1
	s.a3 = s.g * s.a2
}

// Process filters one sample on channel ch (0 left, 1 right).
func (s *SVF) Process(in float32, ch int, mode Mode) float32 {
	ic1eq := s.ic1eq[ch]
	ic2eq := s.ic2eq[ch]

	v3 := in - ic2eq
	v1 := s.a1*ic1eq + s.a2*v3
	v2 := ic2eq + s.a2*ic1eq + s.a3*v3

	ic1eq = 2*v1 - ic1eq
	ic2eq = 2*v2 - ic2eq
	if !finite(ic1eq) || !finite(ic2eq) {
		ic1eq, ic2eq = 0, 0
	}
	s.ic1eq[ch] = ic1eq
	s.ic2eq[ch] = ic2eq

	switch mode {
	case HighPass:
		return in - s.k*v1 - v2
	case BandPass:
		return v1
	default:
		return v2
	}
}

func finite(v float32) bool {
	return v == v && !math32.IsInf(v, 0)
}
