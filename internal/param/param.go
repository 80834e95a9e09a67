package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
)

// Key addresses a parameter by module and name, e.g. {"Oscillator 1", "Detune"}.
type Key struct {
	Module string
	Name   string
}

func K(module, name string) Key { return Key{Module: module, Name: name} }

// String renders the key as "Module/Name", the form used in patch files.
func (k Key) String() string { return k.Module + "/" + k.Name }

// ParseKey is the inverse of Key.String. The module may not contain '/'.
func ParseKey(s string) (Key, error) {
	i := strings.IndexByte(s, '/')
	if i <= 0 || i == len(s)-1 {
		return Key{}, fmt.Errorf("param: malformed key %q", s)
	}
	return Key{Module: s[:i], Name: s[i+1:]}, nil
}

type Kind int

const (
	Continuous Kind = iota
	Boolean
	Choice
)

func (k Kind) String() string {
	switch k {
	case Boolean:
		return "bool"
	case Choice:
		return "choice"
	default:
		return "float"
	}
}

// Spec describes one parameter. Min/Max/Interval apply to Continuous; Choice
// ranges over [0, len(Choices)-1] and Boolean over {0, 1}.
type Spec struct {
	Key      Key
	Kind     Kind
	Min      float64
	Max      float64
	Interval float64
	// Centre, when inside (Min, Max), places that value at the middle of the
	// normalized range.
	Centre   float64
	Default  float64
	Labels   [2]string // off/on labels for Boolean
	Choices  []string
	Unit     string
	// UIOnly parameters are never written to patches.
	UIOnly   bool
}

// Float registers a continuous parameter.
func Float(module, name string, lo, hi, def float64) Spec {
	return Spec{Key: K(module, name), Kind: Continuous, Min: lo, Max: hi, Default: def}
}

// Bool registers a boolean parameter with "Off"/"On" labels.
func Bool(module, name string, def bool) Spec {
	d := 0.0
	if def {
		d = 1
	}
	return Spec{Key: K(module, name), Kind: Boolean, Max: 1, Default: d, Labels: [2]string{"Off", "On"}}
}

// Enum registers a choice parameter.
func Enum(module, name string, def int, choices ...string) Spec {
	return Spec{Key: K(module, name), Kind: Choice, Max: float64(len(choices) - 1), Default: float64(def), Choices: choices}
}

func (s Spec) WithCentre(c float64) Spec   { s.Centre = c; return s }
func (s Spec) WithInterval(i float64) Spec { s.Interval = i; return s }
func (s Spec) WithUnit(u string) Spec      { s.Unit = u; return s }
func (s Spec) WithLabels(off, on string) Spec {
	s.Labels = [2]string{off, on}
	return s
}

// Param is a registered parameter. The current value is held as float64 bits
// so the audio thread can read it without locking.
type Param struct {
	Spec
	skew  float64
	value atomic.Uint64
}

func newParam(s Spec) *Param {
	p := &Param{Spec: s, skew: 1}
	if s.Kind == Continuous && s.Centre > s.Min && s.Centre < s.Max {
		p.skew = math.Log(0.5) / math.Log((s.Centre-s.Min)/(s.Max-s.Min))
	}
	p.value.Store(math.Float64bits(s.Default))
	return p
}

// Value returns the raw stored value.
func (p *Param) Value() float64 { return math.Float64frombits(p.value.Load()) }

// Set stores v verbatim. Range handling is left to the reader.
func (p *Param) Set(v float64) { p.value.Store(math.Float64bits(v)) }

// Reset restores the default value.
func (p *Param) Reset() { p.Set(p.Default) }

// Normalized maps the current value into [0, 1] honouring the skew.
func (p *Param) Normalized() float64 {
	return p.ToNormalized(p.Value())
}

func (p *Param) ToNormalized(v float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	n := (v - p.Min) / (p.Max - p.Min)
	n = math.Max(0, math.Min(1, n))
	if p.skew != 1 && n > 0 {
		n = math.Exp(math.Log(n) * p.skew)
	}
	return n
}

func (p *Param) FromNormalized(n float64) float64 {
	n = math.Max(0, math.Min(1, n))
	if p.skew != 1 && n > 0 {
		n = math.Exp(math.Log(n) / p.skew)
	}
	v := p.Min + n*(p.Max-p.Min)
	switch {
	case p.Kind != Continuous:
		v = math.Round(v)
	case p.Interval > 0:
		v = p.Min + math.Round((v-p.Min)/p.Interval)*p.Interval
	}
	return v
}

// Label formats v for display.
func (p *Param) Label(v float64) string {
	switch p.Kind {
	case Boolean:
		if v >= 0.5 {
			return p.Labels[1]
		}
		return p.Labels[0]
	case Choice:
		i := int(math.Round(v))
		if i >= 0 && i < len(p.Choices) {
			return p.Choices[i]
		}
		return strconv.Itoa(i)
	}
	s := strconv.FormatFloat(v, 'g', 5, 64)
	if p.Unit != "" {
		s += " " + p.Unit
	}
	return s
}
