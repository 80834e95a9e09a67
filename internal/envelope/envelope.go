// Package envelope implements a linear delay/attack/hold/decay/sustain/release
// generator advanced one sample at a time.
package envelope

// MinSustain keeps the decay target off zero.
const MinSustain = 1e-4

type Stage int

const (
	StageIdle Stage = iota
	StageDelay
	StageAttack
	StageHold
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageDelay:
		return "delay"
	case StageAttack:
		return "attack"
	case StageHold:
		return "hold"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "idle"
	}
}

// Settings holds segment times in seconds and the sustain level in [0, 1].
type Settings struct {
	Delay   float64
	Attack  float64
	Hold    float64
	Decay   float64
	Sustain float64
	Release float64
}

// Envelope is a value type; voices embed one per envelope slot.
type Envelope struct {
	sampleRate float64
	settings   Settings
	stage      Stage
	level      float64
	counter    int     // samples left in the current segment
	rate       float64 // per-sample step of the current ramp
}

func New(sampleRate float64, s Settings) Envelope {
	e := Envelope{}
	e.SetSampleRate(sampleRate)
	e.SetSettings(s)
	return e
}

func (e *Envelope) SetSampleRate(sr float64) {
	if sr <= 0 {
		sr = 44100
	}
	e.sampleRate = sr
}

// SetSettings takes effect at the next segment boundary, except for the
// sustain level which applies immediately while sustaining.
func (e *Envelope) SetSettings(s Settings) {
	s.Delay = nonNegative(s.Delay)
	s.Attack = nonNegative(s.Attack)
	s.Hold = nonNegative(s.Hold)
	s.Decay = nonNegative(s.Decay)
	s.Release = nonNegative(s.Release)
	switch {
	case s.Sustain != s.Sustain:
		s.Sustain = 1
	case s.Sustain < MinSustain:
		s.Sustain = MinSustain
	case s.Sustain > 1:
		s.Sustain = 1
	}
	e.settings = s
	if e.stage == StageSustain {
		e.level = s.Sustain
	}
}

func (e *Envelope) Settings() Settings { return e.settings }

func (e *Envelope) NoteOn() {
	e.level = 0
	e.enter(StageDelay)
}

// NoteOff starts the release from wherever the envelope currently is.
func (e *Envelope) NoteOff() {
	if e.stage == StageIdle || e.stage == StageRelease {
		return
	}
	e.enter(StageRelease)
}

func (e *Envelope) Reset() {
	e.stage = StageIdle
	e.level = 0
	e.counter = 0
	e.rate = 0
}

func (e *Envelope) Active() bool { return e.stage != StageIdle }
func (e *Envelope) Stage() Stage { return e.stage }
func (e *Envelope) Level() float64 { return e.level }

// Next advances one sample and returns the new level.
func (e *Envelope) Next() float64 {
	switch e.stage {
	case StageIdle, StageSustain:
		return e.level
	case StageAttack, StageDecay, StageRelease:
		e.level += e.rate
	}
	e.counter--
	if e.counter <= 0 {
		switch e.stage {
		case StageAttack:
			e.level = 1
		case StageDecay:
			e.level = e.settings.Sustain
		case StageRelease:
			e.Reset()
			return 0
		}
		e.enter(e.stage + 1)
	}
	return e.level
}

// enter switches stage, skipping zero-length segments. Ramps are counted in
// samples so every segment lands exactly on its target.
func (e *Envelope) enter(s Stage) {
	for {
		e.stage = s
		switch s {
		case StageDelay, StageHold:
			t := e.settings.Delay
			if s == StageHold {
				t = e.settings.Hold
			}
			e.counter = e.samples(t)
			if e.counter > 0 {
				return
			}
		case StageAttack:
			if e.ramp(e.settings.Attack, 1) {
				return
			}
			e.level = 1
		case StageDecay:
			if e.level > e.settings.Sustain && e.ramp(e.settings.Decay, e.settings.Sustain) {
				return
			}
			e.level = e.settings.Sustain
		case StageSustain:
			return
		case StageRelease:
			if e.level > 0 && e.ramp(e.settings.Release, 0) {
				return
			}
			e.Reset()
			return
		default:
			e.Reset()
			return
		}
		s++
	}
}

func (e *Envelope) ramp(sec, target float64) bool {
	n := e.samples(sec)
	if n <= 0 {
		return false
	}
	e.counter = n
	e.rate = (target - e.level) / float64(n)
	return true
}

func (e *Envelope) samples(sec float64) int {
	return int(sec*e.sampleRate + 0.5)
}

func nonNegative(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
