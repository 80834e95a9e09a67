package filter

import (
	"math"

	"github.com/chewxy/math32"
)

const (
	MinCutoff = 20.0
	// MaxCutoffRatio bounds the cutoff as a fraction of the sample rate.
	MaxCutoffRatio = 0.45
	// ModOctaves is the octave swing of a full-scale cutoff modulation.
	ModOctaves = 5.0
	// ReferenceNote is the key-tracking pivot.
	ReferenceNote = 60
)

// Cutoff computes the modulated cutoff in Hz. Contributions add in octaves,
// so a bipolar modulation moves the cutoff by equal ratios up and down.
// envOctaves and modAmount are already scaled by their amounts; modAmount is
// the matrix offset, where 1 spans ModOctaves.
func Cutoff(base float64, note int, keyTrack, envOctaves, modAmount, sampleRate float64) float64 {
	hi := sampleRate * MaxCutoffRatio
	if !(hi > MinCutoff) {
		return MinCutoff
	}
	base = clamp(base, MinCutoff, hi)
	if base != base {
		base = hi
	}
	oct := math.Log2(base/MinCutoff) +
		float64(note-ReferenceNote)/12*keyTrack +
		envOctaves +
		modAmount*ModOctaves
	hz := MinCutoff * math.Exp2(oct)
	if hz != hz {
		return base
	}
	return clamp(hz, MinCutoff, hi)
}

// Q maps resonance in [0, 1] to the filter's Q.
func Q(res float64) float64 {
	if res != res {
		res = 0
	}
	return 0.707 + clamp(res, 0, 1)*15
}

// Stage is one or two cascaded SVFs with optional drive.
type Stage struct {
	first, second SVF
	mode          Mode
	cascade       bool
	drive         float32
}

func (s *Stage) Reset() {
	s.first.Reset()
	s.second.Reset()
}

// Configure sets coefficients. slope24 chains the second filter; drive in
// [1, 5] boosts the input and saturates between stages.
func (s *Stage) Configure(mode Mode, slope24 bool, cutoff, q, drive, sampleRate float64) {
	s.mode = mode
	s.cascade = slope24
	s.drive = float32(clamp(drive, 1, 5))
	sr, fc, fq := float32(sampleRate), float32(cutoff), float32(q)
	s.first.SetFrequencyAndQ(sr, fc, fq)
	if slope24 {
		s.second.SetFrequencyAndQ(sr, fc, fq)
	}
}

// Process filters one stereo frame.
func (s *Stage) Process(l, r float32) (float32, float32) {
	if s.drive > 1 {
		g := 1 + (s.drive-1)*3
		l *= g
		r *= g
	}
	l = s.first.Process(l, 0, s.mode)
	r = s.first.Process(r, 1, s.mode)
	if s.cascade {
		if s.drive > 1.1 {
			l = math32.Tanh(l)
			r = math32.Tanh(r)
		}
		l = s.second.Process(l, 0, s.mode)
		r = s.second.Process(r, 1, s.mode)
	}
	return l, r
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
