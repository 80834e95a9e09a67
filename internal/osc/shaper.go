package osc

import "math"

// FullDepth is the bit depth at which bit reduction is bypassed.
const FullDepth = 16

const foldIterations = 4

// Shaping is the post-processing applied to every raw oscillator sample.
// All amounts are in [0, 1]; out-of-range values are clamped.
type Shaping struct {
	Symmetry float64
	Drive    float64
	Fold     float64
	BitRedux float64
	Volume   float64
}

// Bits maps a bit-reduction amount to a bit depth in [1, FullDepth].
func Bits(redux float64) int {
	if redux != redux {
		return FullDepth
	}
	return FullDepth - int(math.Round(clamp(redux, 0, 1)*(FullDepth-1)))
}

// Shape applies drive, fold and bit reduction in that order.
func Shape(v, drive, fold, redux float64) float64 {
	if v != v || math.IsInf(v, 0) {
		return 0
	}
	if drive = clamp(drive, 0, 1); drive > 0 {
		v = math.Tanh(v * (1 + drive*4))
	}
	if fold = clamp(fold, 0, 1); fold > 0 {
		v *= 1 + fold*3
		for i := 0; i < foldIterations; i++ {
			switch {
			case v > 1:
				v = 2 - v
			case v < -1:
				v = -2 - v
			default:
				i = foldIterations
			}
		}
		v = clamp(v, -1, 1)
	}
	if bits := Bits(redux); bits < FullDepth {
		levels := math.Exp2(float64(bits))
		v = math.Round(v*levels) / levels
	}
	return v
}

// Apply renders the shaped, volume-scaled value of raw.
func (s *Shaping) Apply(raw float64) float64 {
	return Shape(raw, s.Drive, s.Fold, s.BitRedux) * clamp(s.Volume, 0, 1)
}
