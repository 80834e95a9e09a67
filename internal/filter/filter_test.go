package filter

import (
	"math"
	"testing"
)

func TestCutoffAlwaysInRange(t *testing.T) {
	rates := []float64{22050, 44100, 48000, 96000}
	extremes := []float64{-1e9, -100, -1, 0, 1, 100, 1e9, math.Inf(1), math.Inf(-1), math.NaN()}
	for _, sr := range rates {
		for _, base := range []float64{-5, 0, 20, 1000, 20000, 1e6, math.NaN()} {
			for _, mod := range extremes {
				for _, env := range extremes {
					for _, note := range []int{0, 60, 127} {
						hz := Cutoff(base, note, 1, env, mod, sr)
						if !(hz >= 20 && hz <= sr*0.49) {
							t.Fatalf("sr=%v base=%v env=%v mod=%v note=%d -> %v", sr, base, env, mod, note, hz)
						}
					}
				}
			}
		}
	}
}

func TestCutoffSymmetricUnderBipolarModulation(t *testing.T) {
	const sr = 48000
	base := 800.0
	centre := Cutoff(base, 60, 0.5, 0, 0, sr)
	if math.Abs(centre-base) > 1e-9 {
		t.Fatalf("unmodulated cutoff %v, want %v", centre, base)
	}
	for _, depth := range []float64{0.1, 0.25, 0.5} {
		up := Cutoff(base, 60, 0.5, 0, depth, sr)
		down := Cutoff(base, 60, 0.5, 0, -depth, sr)
		if math.Abs(math.Log2(up/base)+math.Log2(down/base)) > 1e-9 {
			t.Fatalf("depth %v: up %v down %v not symmetric around %v", depth, up, down, base)
		}
		if math.Abs(up*down-base*base) > 1e-6*base*base {
			t.Fatalf("geometric mean of %v and %v is not %v", up, down, base)
		}
	}
}

func TestCutoffKeyTrackAndEnvelope(t *testing.T) {
	const sr = 48000
	// one octave up the keyboard at full tracking doubles the cutoff
	if got := Cutoff(500, 72, 1, 0, 0, sr); math.Abs(got-1000) > 1e-6 {
		t.Fatalf("key tracked = %v", got)
	}
	if got := Cutoff(500, 72, 0, 0, 0, sr); math.Abs(got-500) > 1e-6 {
		t.Fatalf("untracked = %v", got)
	}
	if got := Cutoff(500, 60, 0, -2, 0, sr); math.Abs(got-125) > 1e-6 {
		t.Fatalf("envelope -2 oct = %v", got)
	}
}

func TestQ(t *testing.T) {
	cases := []struct{ res, want float64 }{
		{0, 0.707},
		{0.5, 8.207},
		{1, 15.707},
		{5, 15.707},
		{-1, 0.707},
		{math.NaN(), 0.707},
	}
	for _, tc := range cases {
		if got := Q(tc.res); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Q(%v) = %v want %v", tc.res, got, tc.want)
		}
	}
}

func rms(f func(l, r float32) (float32, float32), freq, sr float64) float64 {
	var sum float64
	n := 4800
	for i := 0; i < n; i++ {
		in := float32(math.Sin(2 * math.Pi * freq * float64(i) / sr))
		l, _ := f(in, in)
		if i >= n/2 {
			sum += float64(l * l)
		}
	}
	return math.Sqrt(sum / float64(n/2))
}

func TestStageModes(t *testing.T) {
	const sr = 48000.0
	cases := []struct {
		name      string
		mode      Mode
		slope24   bool
		passFreq  float64
		blockFreq float64
	}{
		{"lp12", LowPass, false, 100, 10000},
		{"lp24", LowPass, true, 100, 10000},
		{"hp12", HighPass, false, 10000, 100},
		{"bp24", BandPass, true, 1000, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var pass, block Stage
			pass.Configure(tc.mode, tc.slope24, 1000, Q(0), 1, sr)
			block.Configure(tc.mode, tc.slope24, 1000, Q(0), 1, sr)
			p := rms(pass.Process, tc.passFreq, sr)
			b := rms(block.Process, tc.blockFreq, sr)
			if p < 4*b {
				t.Fatalf("pass rms %v not well above stop rms %v", p, b)
			}
		})
	}
}

func TestCascadeAttenuatesMore(t *testing.T) {
	const sr = 48000.0
	var two, four Stage
	two.Configure(LowPass, false, 500, Q(0), 1, sr)
	four.Configure(LowPass, true, 500, Q(0), 1, sr)
	if a, b := rms(two.Process, 8000, sr), rms(four.Process, 8000, sr); b >= a {
		t.Fatalf("24dB (%v) should attenuate more than 12dB (%v)", b, a)
	}
}

func TestDriveStaysFinite(t *testing.T) {
	var s Stage
	s.Configure(LowPass, true, 19000, Q(1), 5, 48000)
	for i := 0; i < 48000; i++ {
		in := float32(math.Sin(float64(i) * 0.3))
		l, r := s.Process(in, -in)
		if l != l || r != r {
			t.Fatalf("non-finite output at %d", i)
		}
	}
}
