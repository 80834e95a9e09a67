// Package arp turns held notes into a tempo-synced sequence of note events.
package arp

import (
	"math"
	"math/rand"
	"slices"
	"sort"

	"github.com/cbegin/neonsynth-go/internal/lfo"
)

type Mode int

const (
	ModeUp Mode = iota
	ModeDown
	ModeUpDown
	ModeRandom
)

var ModeNames = []string{"Up", "Down", "Up/Down", "Random"}

// MaxOctaves bounds the octave span of a sequence.
const MaxOctaves = 4

// DefaultVelocity is used until a key has been pressed.
const DefaultVelocity = 0.8

const (
	maxHeld     = 128
	maxSequence = maxHeld * MaxOctaves * 2
)

type State int

const (
	Idle State = iota
	Sequencing
)

// Config is polled from the parameter store once per block.
type Config struct {
	Enabled  bool
	Mode     Mode
	Octaves  int
	Division int     // index into lfo.Divisions
	Gate     float64 // fraction of a step the note sounds for
	Latch    bool
}

// Sink receives the synthesized notes.
type Sink interface {
	ArpNoteOn(note int, velocity float64)
	ArpNoteOff(note int)
}

// Arp holds the pressed notes and steps through the derived sequence. All
// storage is allocated up front so the audio thread never allocates.
type Arp struct {
	cfg      Config
	rng      *rand.Rand
	held     []int
	sequence []int
	down     [maxHeld]bool // keys pressed into the arp and not yet released
	keysDown int
	velocity float64

	state    State
	index    int
	timer    float64
	active   int
	gateOpen bool
}

func New(rng *rand.Rand) *Arp {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Arp{
		rng:      rng,
		held:     make([]int, 0, maxHeld),
		sequence: make([]int, 0, maxSequence),
		velocity: DefaultVelocity,
		active:   -1,
		cfg:      Config{Octaves: 1, Gate: 0.8},
	}
}

func (a *Arp) Config() Config { return a.cfg }
func (a *Arp) State() State   { return a.state }

// Sequence is the current step order. The slice is owned by the Arp.
func (a *Arp) Sequence() []int { return a.sequence }

// Enabled reports whether pressed keys are routed to the arp.
func (a *Arp) Enabled() bool { return a.cfg.Enabled }

// Press adds a key. It reports whether the arp consumed the note, in which
// case the caller must not start a voice for it.
func (a *Arp) Press(note int, velocity float64) bool {
	if !a.cfg.Enabled || note < 0 || note >= maxHeld {
		return false
	}
	if a.cfg.Latch && a.keysDown == 0 {
		a.held = a.held[:0]
	}
	if !a.down[note] {
		a.down[note] = true
		a.keysDown++
	}
	if velocity > 0 {
		a.velocity = velocity
	}
	i := sort.SearchInts(a.held, note)
	if i == len(a.held) || a.held[i] != note {
		a.held = slices.Insert(a.held, i, note)
	}
	a.rebuild()
	return true
}

// Release lifts a key pressed into the arp; a latched note stays in the
// sequence. It reports false for keys the arp never took, whose voices the
// caller must release itself.
func (a *Arp) Release(note int) bool {
	if note < 0 || note >= maxHeld || !a.down[note] {
		return false
	}
	a.down[note] = false
	a.keysDown--
	if !a.cfg.Latch {
		if i := sort.SearchInts(a.held, note); i < len(a.held) && a.held[i] == note {
			a.held = slices.Delete(a.held, i, i+1)
			a.rebuild()
		}
	}
	return true
}

// SetConfig applies a new configuration. Disabling silences the sounding
// note; dropping latch forgets every note whose key is up.
func (a *Arp) SetConfig(cfg Config, sink Sink) {
	cfg.Octaves = max(1, min(cfg.Octaves, MaxOctaves))
	if cfg.Gate != cfg.Gate {
		cfg.Gate = 1
	}
	cfg.Gate = math.Max(0.01, math.Min(cfg.Gate, 1))
	old := a.cfg
	a.cfg = cfg
	if old.Enabled && !cfg.Enabled {
		a.Reset(sink)
		return
	}
	if old.Latch && !cfg.Latch {
		a.held = slices.DeleteFunc(a.held, func(n int) bool { return !a.down[n] })
		a.rebuild()
		return
	}
	if old.Mode != cfg.Mode || old.Octaves != cfg.Octaves {
		a.rebuild()
	}
}

// Reset releases the sounding note and forgets every held key.
func (a *Arp) Reset(sink Sink) {
	a.silence(sink)
	a.held = a.held[:0]
	a.sequence = a.sequence[:0]
	a.down = [maxHeld]bool{}
	a.keysDown = 0
	a.index = 0
	a.timer = 0
	a.state = Idle
}

// Process emits the step or gate event due at the current sample, then
// advances the step timer up to the next event. It returns the number of
// samples advanced, at most n and at least 1, so a block is rendered in
// spans that each begin on an event.
func (a *Arp) Process(n int, sampleRate, bpm float64, sink Sink) int {
	n = max(n, 1)
	if !a.cfg.Enabled || len(a.sequence) == 0 {
		a.silence(sink)
		a.state = Idle
		return n
	}
	rate := lfo.DivisionHz(a.cfg.Division, bpm)
	if !(rate > 0) || !(sampleRate > 0) {
		return n
	}
	step := math.Max(1, sampleRate/rate)
	gate := step * a.cfg.Gate

	switch {
	case a.state == Idle:
		a.state = Sequencing
		a.index = 0
		a.timer = 0
		a.fire(sink)
	case a.timer >= step:
		// the fractional overshoot carries into the next step
		a.timer = math.Mod(a.timer, step)
		a.index = (a.index + 1) % len(a.sequence)
		a.fire(sink)
	case a.gateOpen && gate < step && a.timer >= gate:
		a.gateOpen = false
		sink.ArpNoteOff(a.active)
	}

	next := step
	if a.gateOpen && gate < step && a.timer < gate {
		next = gate
	}
	span := min(n, max(1, int(math.Ceil(next-a.timer))))
	a.timer += float64(span)
	return span
}

func (a *Arp) fire(sink Sink) {
	if a.gateOpen && a.active >= 0 {
		sink.ArpNoteOff(a.active)
	}
	a.active = a.sequence[a.index]
	a.gateOpen = true
	sink.ArpNoteOn(a.active, a.velocity)
}

func (a *Arp) silence(sink Sink) {
	if a.gateOpen && a.active >= 0 {
		sink.ArpNoteOff(a.active)
	}
	a.active = -1
	a.gateOpen = false
}

func (a *Arp) rebuild() {
	a.sequence = a.sequence[:0]
	if len(a.held) == 0 {
		a.index = 0
		return
	}
	for o := 0; o < a.cfg.Octaves; o++ {
		for _, n := range a.held {
			if note := n + 12*o; note <= 127 {
				a.sequence = append(a.sequence, note)
			}
		}
	}
	switch a.cfg.Mode {
	case ModeDown:
		slices.Reverse(a.sequence)
	case ModeUpDown:
		if n := len(a.sequence); n > 2 {
			for i := n - 2; i > 0; i-- {
				a.sequence = append(a.sequence, a.sequence[i])
			}
		}
	case ModeRandom:
		for i := len(a.sequence) - 1; i > 0; i-- {
			j := a.rng.Intn(i + 1)
			a.sequence[i], a.sequence[j] = a.sequence[j], a.sequence[i]
		}
	}
	if a.index >= len(a.sequence) {
		a.index = 0
	}
}
