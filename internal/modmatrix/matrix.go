package modmatrix

import "math"

// Interval is the number of samples between matrix evaluations per voice.
const Interval = 8

// Decimator fires once every Interval ticks. A voice seeds it with a random
// offset at note-on so voices do not all evaluate on the same sample.
type Decimator struct {
	count int
	force bool
}

// Seed makes the next Tick fire and offsets the following ones by offset.
func (d *Decimator) Seed(offset int) {
	d.count = ((offset % Interval) + Interval) % Interval
	d.force = true
}

// Tick advances one sample and reports whether to re-evaluate.
func (d *Decimator) Tick() bool {
	fire := d.force || d.count == 0
	d.force = false
	d.count++
	if d.count >= Interval {
		d.count = 0
	}
	return fire
}

// Span is the number of samples from the last tick up to, not including,
// the next firing one. Values computed on a fire hold for that many samples.
func (d *Decimator) Span() int {
	if d.count == 0 {
		return 1
	}
	return 1 + Interval - d.count
}

// Slot is one routing. Amount is a percentage in [-100, 100].
type Slot struct {
	Source Source
	Target Target
	Amount float64
}

// Config is the full routing table, polled once per block.
type Config struct {
	ModEnv  [ModEnvSlots]Slot
	Control [ControlSlots]Slot
	LFO     [NumLFOs][SlotsPerLFO]Slot
	// PitchBendRange in semitones.
	PitchBendRange float64
}

// Controls are the continuous sources of one voice.
type Controls struct {
	PitchBend  float64 // [-1, 1]
	ModWheel   float64 // [0, 1]
	Aftertouch float64 // [0, 1]
	Velocity   float64 // [0, 1]
	Note       int
}

func (c *Controls) Value(src Source) float64 {
	switch src {
	case SourcePitchBend:
		return c.PitchBend
	case SourceModWheel:
		return c.ModWheel
	case SourceAftertouch:
		return c.Aftertouch
	case SourceVelocity:
		return c.Velocity
	case SourceKeyTrack:
		return float64(c.Note-60) / 60
	}
	return 0
}

// Inputs carries the per-voice source values for one evaluation.
type Inputs struct {
	ModEnv   float64
	LFO      [NumLFOs]float64
	Controls Controls
}

// OscOffsets are the destinations of one oscillator.
type OscOffsets struct {
	Pitch    float64 // semitones
	Symmetry float64
	Fold     float64
	Drive    float64
	BitRedux float64
	Level    float64
	Pan      float64
	Detune   float64 // cents
}

// Offsets accumulate additively; Osc 1+2 targets land in both oscillators.
type Offsets struct {
	Osc          [2]OscOffsets
	FilterCutoff float64
	FilterRes    float64
	LFOAmount    [NumLFOs][SlotsPerLFO]float64
}

// Apply adds amount (a fraction, not a percentage) to target t.
func (o *Offsets) Apply(t Target, amount float64) {
	if t == TargetNone || amount != amount || math.IsInf(amount, 0) {
		return
	}
	switch {
	case t >= osc1Base && t < oscBothBase+oscParamCount:
		i := int(t) - osc1Base
		osc, param := i/oscParamCount, i%oscParamCount
		if osc == 2 {
			o.Osc[0].add(param, amount)
			o.Osc[1].add(param, amount)
		} else {
			o.Osc[osc].add(param, amount)
		}
	case t == FilterCutoff:
		o.FilterCutoff += amount
	case t == FilterRes:
		o.FilterRes += amount
	case t >= lfoAmtBase && int(t) < NumTargets:
		i := int(t - lfoAmtBase)
		o.LFOAmount[i/SlotsPerLFO][i%SlotsPerLFO] += amount
	}
}

func (o *OscOffsets) add(param int, amount float64) {
	switch param {
	case OscPitch:
		o.Pitch += amount * 12
	case OscSymmetry:
		o.Symmetry += amount
	case OscFold:
		o.Fold += amount
	case OscDrive:
		o.Drive += amount
	case OscBitRedux:
		o.BitRedux += amount
	case OscLevel:
		o.Level += amount
	case OscPan:
		o.Pan += amount
	case OscDetune:
		o.Detune += amount * 100
	}
}

// Evaluate recomputes out from scratch. Order matters: the mod envelope and
// control slots run first so they can scale LFO slot amounts.
func (c *Config) Evaluate(in *Inputs, out *Offsets) {
	*out = Offsets{}
	bend := in.Controls.PitchBend * c.PitchBendRange
	if bend == bend && !math.IsInf(bend, 0) {
		out.Osc[0].Pitch = bend
		out.Osc[1].Pitch = bend
	}
	for i := range c.ModEnv {
		s := &c.ModEnv[i]
		out.Apply(s.Target, in.ModEnv*s.Amount/100)
	}
	for i := range c.Control {
		s := &c.Control[i]
		if s.Source == SourceNone {
			continue
		}
		out.Apply(s.Target, in.Controls.Value(s.Source)*s.Amount/100)
	}
	for l := range c.LFO {
		for m := range c.LFO[l] {
			s := &c.LFO[l][m]
			amount := s.Amount/100 + out.LFOAmount[l][m]
			out.Apply(s.Target, in.LFO[l]*amount)
		}
	}
}
