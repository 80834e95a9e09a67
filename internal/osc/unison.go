package osc

import "math"

// MaxUnison caps sub-oscillators per oscillator.
const MaxUnison = 8

// CenterGain is the equal-power gain of a centred single oscillator.
var CenterGain = math.Sqrt(0.5)

// UnisonParams is recomputed on decimation ticks only.
type UnisonParams struct {
	Count  int
	Spread float64 // unison spread in [0, 1]
	Cents  float64 // transpose + detune + modulation, in cents
	Pan    float64 // base pan in [-1, 1]
}

// Unison is a stack of detuned, panned sub-oscillators sharing one waveform.
type Unison struct {
	phases [MaxUnison]Phase
	freq   [MaxUnison]float64
	gainL  [MaxUnison]float64
	gainR  [MaxUnison]float64
	count  int
}

// Reset restarts every phase at start when keySync is set, otherwise phases
// carry over from the previous note.
func (u *Unison) Reset(start float64, keySync bool) {
	for i := range u.phases {
		if keySync {
			u.phases[i].Reset(start)
		} else if u.phases[i].poly4 == 0 {
			u.phases[i].Reset(0)
		}
		u.freq[i] = 0
	}
	u.count = 0
}

func (u *Unison) Count() int { return u.count }

// Phase is the position of sub-oscillator i in [0, 1).
func (u *Unison) Phase(i int) float64 { return u.phases[i].Pos() }

// Freq returns the frequency of sub-oscillator i as of the last Update.
func (u *Unison) Freq(i int) float64 { return u.freq[i] }

// Gains returns the left/right gains of sub-oscillator i.
func (u *Unison) Gains(i int) (float64, float64) { return u.gainL[i], u.gainR[i] }

// Update recomputes per-sub-oscillator frequency and pan. base is the voice
// frequency in Hz before detune.
func (u *Unison) Update(base float64, p UnisonParams) {
	n := p.Count
	if n < 1 {
		n = 1
	}
	if n > MaxUnison {
		n = MaxUnison
	}
	u.count = n
	spread := clamp(p.Spread, 0, 1)
	if spread != spread {
		spread = 0
	}
	norm := 1 / math.Sqrt(float64(n))
	for i := 0; i < n; i++ {
		offset := 0.0
		if n > 1 {
			offset = float64(i)/float64(n-1)*2 - 1
		}
		cents := p.Cents + spread*50*offset
		f := base * math.Exp2(cents/1200)
		if f != f || math.IsInf(f, 0) {
			f = 0
		}
		u.freq[i] = f
		pan := clamp(p.Pan+offset*spread, -1, 1)
		if pan != pan {
			pan = 0
		}
		u.gainL[i] = math.Sqrt((1-pan)/2) * norm
		u.gainR[i] = math.Sqrt((1+pan)/2) * norm
	}
}

// Render sums one stereo sample across the active sub-oscillators.
func (u *Unison) Render(w Wave, t *Table, sampleRate float64, sh *Shaping) (l, r float64) {
	for i := 0; i < u.count; i++ {
		s := sh.Apply(Render(&u.phases[i], w, t, u.freq[i], sampleRate, sh.Symmetry))
		l += s * u.gainL[i]
		r += s * u.gainR[i]
	}
	return l, r
}
