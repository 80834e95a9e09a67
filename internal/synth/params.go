package synth

import (
	"fmt"
	"math"
	"slices"

	"github.com/cbegin/neonsynth-go/internal/arp"
	"github.com/cbegin/neonsynth-go/internal/envelope"
	"github.com/cbegin/neonsynth-go/internal/filter"
	"github.com/cbegin/neonsynth-go/internal/lfo"
	"github.com/cbegin/neonsynth-go/internal/modmatrix"
	"github.com/cbegin/neonsynth-go/internal/osc"
	"github.com/cbegin/neonsynth-go/internal/param"
)

const (
	envAmp = iota
	envFilter
	envPitch
	envMod
	numEnvs
)

var envModules = [numEnvs]string{"Amp Env", "Filter Env", "Pitch Env", "Mod Env"}

// MaxWaveIndex bounds the per-family waveform index parameter.
const MaxWaveIndex = 127

// PitchEnvSemitones is the pitch envelope swing at full amount.
const PitchEnvSemitones = 24

// field is a precomputed key plus the range the engine clamps it to.
type field struct {
	key    param.Key
	def    float64
	lo, hi float64
}

func (f field) read(s param.Store) float64 {
	v := s.Value(f.key, f.def)
	if v != v {
		return f.def
	}
	return math.Max(f.lo, math.Min(v, f.hi))
}

func (f field) on(s param.Store) bool    { return f.read(s) > 0.5 }
func (f field) index(s param.Store) int  { return int(math.Round(f.read(s))) }
func (f field) ms(s param.Store) float64 { return f.read(s) / 1000 }

type oscFields struct {
	family, wave, symmetry, detune, transp, phase, keySync field
	volume, pan, drive, bitRedux, fold, unison, spread     field
}

type slotFields struct {
	source, target, amount field
}

type lfoFields struct {
	shape, sync, rate, note, keySync, phase, delay field
	slots                                          [modmatrix.SlotsPerLFO]slotFields
}

type envFields struct {
	delay, attack, hold, decay, sustain, release field
}

// layout is the full parameter set of the instrument.
type layout struct {
	specs []param.Spec

	osc [2]oscFields
	lfo [modmatrix.NumLFOs]lfoFields

	filterType, cutoff, res, drive, keyTrack, slope field

	env                             [numEnvs]envFields
	filterEnvAmount, pitchEnvAmount field
	modEnv                          [modmatrix.ModEnvSlots]slotFields
	ctrl                            [modmatrix.ControlSlots]slotFields

	pbRange, mode, glide, tempo, tempoSync field
	level                                  field

	arpOn, arpRate, arpMode, arpOctave, arpGate, arpLatch field
}

func (l *layout) add(s param.Spec) field {
	l.specs = append(l.specs, s)
	return field{key: s.Key, def: s.Default, lo: s.Min, hi: s.Max}
}

var paramLayout = newLayout()

func newLayout() *layout {
	l := &layout{}
	for i := range l.osc {
		m := fmt.Sprintf("Oscillator %d", i+1)
		volume := 0.8
		if i > 0 {
			volume = 0
		}
		l.osc[i] = oscFields{
			family:   l.add(param.Enum(m, "Family", int(osc.FamilyTable), osc.FamilyNames...)),
			wave:     l.add(param.Float(m, "Waveform", 0, MaxWaveIndex, 1).WithInterval(1)),
			symmetry: l.add(param.Float(m, "Symmetry", 0, 1, 0.5)),
			detune:   l.add(param.Float(m, "Detune", -100, 100, 0).WithUnit("ct")),
			transp:   l.add(param.Float(m, "Transp", -24, 24, 0).WithInterval(1).WithUnit("st")),
			phase:    l.add(param.Float(m, "Phase", 0, 360, 0).WithUnit("deg")),
			keySync:  l.add(param.Bool(m, "KeySync", true)),
			volume:   l.add(param.Float(m, "Volume", 0, 1, volume)),
			pan:      l.add(param.Float(m, "Pan", -1, 1, 0)),
			drive:    l.add(param.Float(m, "Drive", 0, 1, 0)),
			bitRedux: l.add(param.Float(m, "BitRedux", 0, 1, 0)),
			fold:     l.add(param.Float(m, "Fold", 0, 1, 0)),
			unison:   l.add(param.Float(m, "Unison", 1, osc.MaxUnison, 1).WithInterval(1)),
			spread:   l.add(param.Float(m, "USpread", 0, 1, 0.2)),
		}
	}
	for i := range l.lfo {
		m := fmt.Sprintf("LFO %d", i+1)
		f := &l.lfo[i]
		f.shape = l.add(param.Enum(m, "Shape", lfo.ShapeTriangle, lfo.ShapeNames...))
		f.sync = l.add(param.Bool(m, "Sync", false))
		f.rate = l.add(param.Float(m, "Rate Hz", 0.01, 50, 1).WithCentre(2).WithUnit("Hz"))
		f.note = l.add(param.Enum(m, "Rate Note", 4, lfo.DivisionNames...))
		f.keySync = l.add(param.Bool(m, "KeySync", true))
		f.phase = l.add(param.Float(m, "Phase", 0, 360, 0).WithUnit("deg"))
		f.delay = l.add(param.Float(m, "Delay", 0, 5000, 0).WithCentre(500).WithUnit("ms"))
		for s := range f.slots {
			f.slots[s] = l.slot(m, s, false)
		}
	}

	l.filterType = l.add(param.Enum("Ladder Filter", "Type", int(filter.LowPass), filter.ModeNames...))
	l.cutoff = l.add(param.Float("Ladder Filter", "Cutoff", 20, 20000, 20000).WithCentre(1000).WithUnit("Hz"))
	l.res = l.add(param.Float("Ladder Filter", "Res", 0, 1, 0))
	l.drive = l.add(param.Float("Ladder Filter", "Drive", 1, 5, 1))
	l.keyTrack = l.add(param.Float("Ladder Filter", "KeyTrack", 0, 1, 0.5))
	l.slope = l.add(param.Bool("Ladder Filter", "Slope", true).WithLabels("12dB", "24dB"))

	for i, m := range envModules {
		l.env[i] = envFields{
			delay:   l.add(param.Float(m, "Delay", 0, 5000, 0).WithCentre(500).WithUnit("ms")),
			attack:  l.add(param.Float(m, "Attack", 0, 10000, 10).WithCentre(1000).WithUnit("ms")),
			hold:    l.add(param.Float(m, "Hold", 0, 5000, 0).WithCentre(500).WithUnit("ms")),
			decay:   l.add(param.Float(m, "Decay", 0, 10000, 500).WithCentre(1000).WithUnit("ms")),
			sustain: l.add(param.Float(m, "Sustain", 0, 1, 0.7)),
			release: l.add(param.Float(m, "Release", 0, 10000, 500).WithCentre(1000).WithUnit("ms")),
		}
		switch i {
		case envFilter:
			l.filterEnvAmount = l.add(param.Float(m, "Amount", -80, 80, 0))
		case envPitch:
			l.pitchEnvAmount = l.add(param.Float(m, "Amount", -1, 1, 0))
		case envMod:
			for s := range l.modEnv {
				l.modEnv[s] = l.slot(m, s, false)
			}
		}
	}
	for s := range l.ctrl {
		l.ctrl[s] = l.slot("Mod", s, true)
	}

	l.pbRange = l.add(param.Float("Control", "PB Range", 0, 24, 2).WithInterval(1).WithUnit("st"))
	l.mode = l.add(param.Enum("Control", "Mode", 0, "Poly", "Mono"))
	l.glide = l.add(param.Float("Control", "Glide", 0, 2000, 0).WithCentre(200).WithUnit("ms"))
	l.tempo = l.add(param.Float("Control", "Tempo", 20, 300, 120).WithUnit("bpm"))
	l.tempoSync = l.add(param.Bool("Control", "Tempo Sync", true).WithLabels("Internal", "Host"))

	l.level = l.add(param.Float("Amp Output", "Level", 0, 1, 0.8))

	l.arpOn = l.add(param.Bool("Arp", "Arp On", false))
	l.arpRate = l.add(param.Enum("Arp", "Rate Note", 2, lfo.DivisionNames...))
	l.arpMode = l.add(param.Enum("Arp", "Mode", int(arp.ModeUp), arp.ModeNames...))
	l.arpOctave = l.add(param.Float("Arp", "Octave", 1, arp.MaxOctaves, 1).WithInterval(1))
	l.arpGate = l.add(param.Float("Arp", "Gate", 1, 100, 80).WithUnit("%"))
	l.arpLatch = l.add(param.Bool("Arp", "Latch", false))

	page := param.Enum("UI", "Page", 0, "Main", "Mod", "FX")
	page.UIOnly = true
	l.add(page)
	return l
}

func (l *layout) slot(module string, i int, withSource bool) slotFields {
	prefix := fmt.Sprintf("Slot %d ", i+1)
	var f slotFields
	if withSource {
		f.source = l.add(param.Enum(module, prefix+"Source", 0, modmatrix.SourceNames...))
	}
	f.target = l.add(param.Enum(module, prefix+"Target", 0, modmatrix.TargetNames...))
	f.amount = l.add(param.Float(module, prefix+"Amount", -100, 100, 0).WithUnit("%"))
	return f
}

// Specs returns the instrument's parameter layout in registration order.
func Specs() []param.Spec {
	return slices.Clone(paramLayout.specs)
}

// RegisterParams adds the instrument's parameters to r.
func RegisterParams(r *param.Registry) error {
	return r.Register(paramLayout.specs...)
}

type oscSettings struct {
	wave      osc.Wave
	symmetry  float64
	detune    float64
	transpose float64
	phase     float64
	keySync   bool
	volume    float64
	pan       float64
	drive     float64
	bitRedux  float64
	fold      float64
	unison    int
	spread    float64
}

// snapshot is the block-constant view of the store. It is refreshed before
// any voice renders and read-only for the rest of the block.
type snapshot struct {
	osc    [2]oscSettings
	lfo    [modmatrix.NumLFOs]lfo.Settings
	matrix modmatrix.Config

	filterMode filter.Mode
	cutoff     float64
	res        float64
	drive      float64
	keyTrack   float64
	slope24    bool

	env             [numEnvs]envelope.Settings
	filterEnvAmount float64
	pitchEnvAmount  float64

	mono      bool
	glide     float64 // seconds
	tempo     float64
	tempoSync bool
	level     float64

	arp arp.Config
}

func (s *snapshot) poll(st param.Store) {
	l := paramLayout
	for i := range s.osc {
		f, o := &l.osc[i], &s.osc[i]
		o.wave = osc.Wave{Family: osc.Family(f.family.index(st)), Index: f.wave.index(st)}
		o.symmetry = f.symmetry.read(st)
		o.detune = f.detune.read(st)
		o.transpose = math.Round(f.transp.read(st))
		o.phase = f.phase.read(st) / 360
		o.keySync = f.keySync.on(st)
		o.volume = f.volume.read(st)
		o.pan = f.pan.read(st)
		o.drive = f.drive.read(st)
		o.bitRedux = f.bitRedux.read(st)
		o.fold = f.fold.read(st)
		o.unison = f.unison.index(st)
		o.spread = f.spread.read(st)
	}
	for i := range s.lfo {
		f, o := &l.lfo[i], &s.lfo[i]
		o.Shape = f.shape.index(st)
		o.Sync = f.sync.on(st)
		o.RateHz = f.rate.read(st)
		o.Division = f.note.index(st)
		o.KeySync = f.keySync.on(st)
		o.Phase = f.phase.read(st) / 360
		o.Delay = f.delay.ms(st)
		for m := range f.slots {
			s.matrix.LFO[i][m] = f.slots[m].read(st)
		}
	}
	for m := range l.modEnv {
		s.matrix.ModEnv[m] = l.modEnv[m].read(st)
	}
	for m := range l.ctrl {
		s.matrix.Control[m] = l.ctrl[m].read(st)
	}
	s.matrix.PitchBendRange = l.pbRange.read(st)

	s.filterMode = filter.Mode(l.filterType.index(st))
	s.cutoff = l.cutoff.read(st)
	s.res = l.res.read(st)
	s.drive = l.drive.read(st)
	s.keyTrack = l.keyTrack.read(st)
	s.slope24 = l.slope.on(st)

	for i := range s.env {
		f := &l.env[i]
		s.env[i] = envelope.Settings{
			Delay:   f.delay.ms(st),
			Attack:  f.attack.ms(st),
			Hold:    f.hold.ms(st),
			Decay:   f.decay.ms(st),
			Sustain: f.sustain.read(st),
			Release: f.release.ms(st),
		}
	}
	s.filterEnvAmount = l.filterEnvAmount.read(st)
	s.pitchEnvAmount = l.pitchEnvAmount.read(st)

	s.mono = l.mode.index(st) == 1
	s.glide = l.glide.ms(st)
	s.tempo = l.tempo.read(st)
	s.tempoSync = l.tempoSync.on(st)
	s.level = l.level.read(st)

	s.arp = arp.Config{
		Enabled:  l.arpOn.on(st),
		Mode:     arp.Mode(l.arpMode.index(st)),
		Octaves:  l.arpOctave.index(st),
		Division: l.arpRate.index(st),
		Gate:     l.arpGate.read(st) / 100,
		Latch:    l.arpLatch.on(st),
	}
}

func (f *slotFields) read(st param.Store) modmatrix.Slot {
	slot := modmatrix.Slot{
		Target: modmatrix.ParseTarget(f.target.read(st)),
		Amount: f.amount.read(st),
	}
	if f.source.key != (param.Key{}) {
		slot.Source = modmatrix.ParseSource(f.source.read(st))
	}
	return slot
}
