package effects

import (
	"fmt"
	"math"
	"slices"

	"github.com/cbegin/neonsynth-go/internal/lfo"
	"github.com/cbegin/neonsynth-go/internal/param"
)

// Module is the parameter module of the rack.
const Module = "FX"

// Modulation effect types, in the order of "FX/Mod Type".
const (
	ModOff = iota
	ModChorus
	ModPhaser
	ModFlanger
)

var ModTypeNames = []string{"Off", "Chorus", "Phaser", "Flanger"}

// Centre delays of the two modulated-delay flavours, in ms.
const (
	chorusCentreMs  = 20.0
	flangerCentreMs = 7.0
)

var (
	modType     = param.Enum(Module, "Mod Type", ModChorus, ModTypeNames...)
	modRate     = param.Float(Module, "Mod Rate", 0.1, 10, 1).WithCentre(1).WithUnit("Hz")
	modDepth    = param.Float(Module, "Mod Depth", 0, 1, 0.5)
	modFeedback = param.Float(Module, "Mod Feedback", 0, 0.95, 0)
	modMix      = param.Float(Module, "Mod Mix", 0, 1, 0)

	dlyTime = param.Float(Module, "Dly Time", 1, MaxDelayMs, 400).WithCentre(400).WithUnit("ms")
	dlyNote = param.Enum(Module, "Dly Note", 4, lfo.DivisionNames...)
	dlySync = param.Bool(Module, "Dly Sync", false)
	dlyFB   = param.Float(Module, "Dly FB", 0, 0.95, 0.3)
	dlyMix  = param.Float(Module, "Dly Mix", 0, 1, 0)

	rvbSize  = param.Float(Module, "Rvb Size", 0, 1, 0.5)
	rvbDamp  = param.Float(Module, "Rvb Damp", 0, 1, 0.5)
	rvbWidth = param.Float(Module, "Rvb Width", 0, 1, 1)
	rvbMix   = param.Float(Module, "Rvb Mix", 0, 1, 0)

	eqOn   = param.Bool(Module, "EQ On", false)
	eqGain = eqGains()
)

func eqGains() [EQBands]param.Spec {
	var specs [EQBands]param.Spec
	for i, hz := range []string{"Low", "Low Mid", "Mid", "High Mid", "High"} {
		specs[i] = param.Float(Module, fmt.Sprintf("EQ %s", hz), -12, 12, 0).WithUnit("dB")
	}
	return specs
}

var specs = slices.Concat([]param.Spec{
	modType, modRate, modDepth, modFeedback, modMix,
	dlyTime, dlyNote, dlySync, dlyFB, dlyMix,
	rvbSize, rvbDamp, rvbWidth, rvbMix,
	eqOn,
}, eqGain[:])

// Specs returns the FX parameters in registration order.
func Specs() []param.Spec {
	return slices.Clone(specs)
}

// RegisterParams adds the FX parameters to r.
func RegisterParams(r *param.Registry) error {
	return r.Register(specs...)
}

// read returns the value of s from st, clamped to its range. NaN reads as
// the default.
func read(st param.Store, s *param.Spec) float64 {
	v := st.Value(s.Key, s.Default)
	if v != v {
		return s.Default
	}
	return math.Max(s.Min, math.Min(v, s.Max))
}

func readInt(st param.Store, s *param.Spec) int { return int(math.Round(read(st, s))) }
func readBool(st param.Store, s *param.Spec) bool { return read(st, s) > 0.5 }

// DelayMs converts a note division to milliseconds at bpm, within the delay
// buffer.
func DelayMs(division int, bpm float64) float64 {
	hz := lfo.DivisionHz(division, bpm)
	return math.Min(1000/hz, MaxDelayMs)
}
