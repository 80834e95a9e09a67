// Package modmatrix maps modulation sources onto per-voice destination
// offsets.
package modmatrix

import "fmt"

type Target int

const TargetNone Target = 0

// Per-oscillator destinations, in block order.
const (
	OscPitch = iota
	OscSymmetry
	OscFold
	OscDrive
	OscBitRedux
	OscLevel
	OscPan
	OscDetune
	oscParamCount
)

var oscParamNames = [oscParamCount]string{"Pitch", "Symmetry", "Fold", "Drive", "Bit Redux", "Level", "Pan", "Detune"}

const (
	NumLFOs      = 3
	SlotsPerLFO  = 4
	ModEnvSlots  = 4
	ControlSlots = 8
)

// Target layout: None, three oscillator blocks (Osc 1, Osc 2, Osc 1+2),
// filter cutoff and resonance, then one amount target per LFO slot.
const (
	osc1Base     = 1
	osc2Base     = osc1Base + oscParamCount
	oscBothBase  = osc2Base + oscParamCount
	FilterCutoff = Target(oscBothBase + oscParamCount)
	FilterRes    = FilterCutoff + 1
	lfoAmtBase   = FilterRes + 1
	NumTargets   = int(lfoAmtBase) + NumLFOs*SlotsPerLFO
)

// OscTarget returns the destination for oscillator osc (0, 1, or 2 for both).
func OscTarget(osc, param int) Target {
	switch osc {
	case 0:
		return Target(osc1Base + param)
	case 1:
		return Target(osc2Base + param)
	default:
		return Target(oscBothBase + param)
	}
}

// LFOAmountTarget returns the destination scaling LFO lfo's slot.
func LFOAmountTarget(lfo, slot int) Target {
	return lfoAmtBase + Target(lfo*SlotsPerLFO+slot)
}

// TargetNames lists every destination in enum order, for choice parameters.
var TargetNames = buildTargetNames()

func buildTargetNames() []string {
	names := make([]string, NumTargets)
	names[TargetNone] = "None"
	for i, prefix := range []string{"Osc 1", "Osc 2", "Osc 1+2"} {
		for p := 0; p < oscParamCount; p++ {
			names[OscTarget(i, p)] = prefix + " " + oscParamNames[p]
		}
	}
	names[FilterCutoff] = "Filter Cutoff"
	names[FilterRes] = "Filter Res"
	for l := 0; l < NumLFOs; l++ {
		for s := 0; s < SlotsPerLFO; s++ {
			names[LFOAmountTarget(l, s)] = fmt.Sprintf("LFO %d Amount %d", l+1, s+1)
		}
	}
	return names
}

func (t Target) String() string {
	if t >= 0 && int(t) < NumTargets {
		return TargetNames[t]
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// ParseTarget converts a stored choice value to a Target. Out-of-range values
// become TargetNone.
func ParseTarget(v float64) Target {
	i := int(v + 0.5)
	if v != v || i < 0 || i >= NumTargets {
		return TargetNone
	}
	return Target(i)
}

type Source int

const (
	SourceNone Source = iota
	SourcePitchBend
	SourceModWheel
	SourceAftertouch
	SourceVelocity
	SourceKeyTrack
	numSources
)

var SourceNames = []string{"None", "Pitch Bend", "Mod Wheel", "Aftertouch", "Velocity", "Key Track"}

func ParseSource(v float64) Source {
	i := int(v + 0.5)
	if v != v || i < 0 || i >= int(numSources) {
		return SourceNone
	}
	return Source(i)
}
