package synth

import (
	"math"

	"github.com/cbegin/neonsynth-go/internal/envelope"
	"github.com/cbegin/neonsynth-go/internal/filter"
	"github.com/cbegin/neonsynth-go/internal/lfo"
	"github.com/cbegin/neonsynth-go/internal/modmatrix"
	"github.com/cbegin/neonsynth-go/internal/osc"
)

type voice struct {
	active     bool
	note       int
	velocity   float64
	aftertouch float64
	noteOnTime uint64

	osc     [2]osc.Unison
	wave    [2]osc.Wave
	shaping [2]osc.Shaping
	filter  filter.Stage
	env     [numEnvs]envelope.Envelope
	lfo     [modmatrix.NumLFOs]lfo.State

	dec    modmatrix.Decimator
	mod    modmatrix.Offsets
	cutoff float64 // last realized cutoff in Hz

	freq   float64 // current played frequency, gliding toward target
	target float64
}

// envActive reports whether any envelope still runs. A voice is freed only
// once all of them have stopped.
func (v *voice) envActive() bool {
	for i := range v.env {
		if v.env[i].Active() {
			return true
		}
	}
	return false
}

func (v *voice) release() {
	for i := range v.env {
		v.env[i].NoteOff()
	}
}

// render produces one stereo sample. Order: envelopes, lifecycle, matrix
// tick, glide, oscillators, filter, amp.
func (v *voice) render(e *Engine) (float64, float64) {
	s := &e.snap
	envA := v.env[envAmp].Next()
	envF := v.env[envFilter].Next()
	envP := v.env[envPitch].Next()
	envM := v.env[envMod].Next()
	if !v.envActive() {
		v.active = false
		return 0, 0
	}

	if v.dec.Tick() {
		v.evaluate(e, v.dec.Span(), envF, envP, envM)
	}

	if e.glideCoef > 0 {
		v.freq += (v.target - v.freq) * e.glideCoef
	} else {
		v.freq = v.target
	}

	bank := e.blockBank
	l1, r1 := v.osc[0].Render(v.wave[0], bank.Table(v.wave[0].Index), e.sampleRate, &v.shaping[0])
	l2, r2 := v.osc[1].Render(v.wave[1], bank.Table(v.wave[1].Index), e.sampleRate, &v.shaping[1])
	fl, fr := v.filter.Process(float32((l1+l2)*0.5), float32((r1+r2)*0.5))

	gain := envA * v.velocity * s.level
	return float64(fl) * gain, float64(fr) * gain
}

// evaluate runs on decimation ticks: LFOs advance by the span until the
// next tick, the matrix is rebuilt, then unison and filter coefficients
// follow from it.
func (v *voice) evaluate(e *Engine, span int, envF, envP, envM float64) {
	s := &e.snap
	in := modmatrix.Inputs{
		ModEnv: envM,
		Controls: modmatrix.Controls{
			PitchBend:  e.pitchWheel,
			ModWheel:   e.modWheel,
			Aftertouch: math.Min(1, e.aftertouch+v.aftertouch),
			Velocity:   v.velocity,
			Note:       v.note,
		},
	}
	for i := range v.lfo {
		in.LFO[i] = v.lfo[i].Step(s.lfo[i], e.sampleRate, e.bpm, span, e.rng)
	}
	s.matrix.Evaluate(&in, &v.mod)

	base := v.freq * math.Exp2(envP*s.pitchEnvAmount*PitchEnvSemitones/12)
	for i := range v.osc {
		o, m := &s.osc[i], &v.mod.Osc[i]
		v.osc[i].Update(base, osc.UnisonParams{
			Count:  o.unison,
			Spread: o.spread,
			Cents:  o.transpose*100 + o.detune + m.Detune + m.Pitch*100,
			Pan:    o.pan + m.Pan,
		})
		v.shaping[i] = osc.Shaping{
			Symmetry: clamp(o.symmetry+m.Symmetry, 0.01, 0.99),
			Drive:    clamp(o.drive+m.Drive, 0, 1),
			Fold:     clamp(o.fold+m.Fold, 0, 1),
			BitRedux: clamp(o.bitRedux+m.BitRedux, 0, 1),
			Volume:   clamp(o.volume+m.Level, 0, 1),
		}
	}

	v.cutoff = filter.Cutoff(s.cutoff, v.note, s.keyTrack, envF*s.filterEnvAmount/10, v.mod.FilterCutoff, e.sampleRate)
	v.filter.Configure(s.filterMode, s.slope24, v.cutoff, filter.Q(s.res+v.mod.FilterRes), s.drive, e.sampleRate)
}

func clamp(v, lo, hi float64) float64 {
	if v != v {
		v = 0
	}
	return math.Max(lo, math.Min(v, hi))
}
