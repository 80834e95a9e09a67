package effects

import (
	"github.com/cbegin/neonsynth-go/internal/lfo"
)

// MaxChorusDelayMs bounds the centre delay plus its sweep.
const MaxChorusDelayMs = 40.0

// Chorus implements a modulated delay for chorus/flanger effects. The right
// channel sweeps a quarter cycle behind the left.
type Chorus struct {
	bufL, bufR []float32
	pos        int
	sampleRate float64
	centre     float64 // ms
	depth      float64 // sweep as a fraction of the centre delay
	feedback   float32
	wet        float32
	sweepL     lfo.LFO
	sweepR     lfo.LFO
}

// NewChorus allocates the delay lines for sampleRate. Defaults: 20 ms centre,
// 1 Hz, depth 0.5, no feedback, fully dry.
func NewChorus(sampleRate float64) *Chorus {
	size := int(MaxChorusDelayMs*sampleRate/1000) + 2
	if size < 4 {
		size = 4
	}
	c := &Chorus{
		bufL:       make([]float32, size),
		bufR:       make([]float32, size),
		sampleRate: sampleRate,
		centre:     20,
		depth:      0.5,
	}
	c.SetRate(1)
	c.sweepR.SetPhase(0.25)
	return c
}

func (c *Chorus) SetRate(hz float64) {
	hz = clamp64(hz, 0.01, 20)
	c.sweepL.Set(1, hz, lfo.ShapeTriangle)
	c.sweepR.Set(1, hz, lfo.ShapeTriangle)
}

func (c *Chorus) SetDepth(depth float64) { c.depth = clamp64(depth, 0, 1) }

// SetCentreDelay picks the flavour: around 20 ms is a chorus, under 10 ms a
// flanger.
func (c *Chorus) SetCentreDelay(ms float64) { c.centre = clamp64(ms, 1, MaxChorusDelayMs/2) }

func (c *Chorus) SetFeedback(fb float32) { c.feedback = clamp(fb, 0, 0.95) }
func (c *Chorus) SetMix(wet float32)     { c.wet = clamp(wet, 0, 1) }

func (c *Chorus) Process(l, r float32) (float32, float32) {
	perMs := c.sampleRate / 1000
	dL := c.centre * (1 + 0.5*c.depth*c.sweepL.Sample(c.sampleRate)) * perMs
	dR := c.centre * (1 + 0.5*c.depth*c.sweepR.Sample(c.sampleRate)) * perMs

	c.bufL[c.pos] = l
	c.bufR[c.pos] = r
	delL := c.tap(c.bufL, dL)
	delR := c.tap(c.bufR, dR)
	c.bufL[c.pos] += delL * c.feedback
	c.bufR[c.pos] += delR * c.feedback

	c.pos++
	if c.pos >= len(c.bufL) {
		c.pos = 0
	}
	return l*(1-c.wet) + delL*c.wet, r*(1-c.wet) + delR*c.wet
}

// tap reads buf delay samples behind the write head with linear
// interpolation.
func (c *Chorus) tap(buf []float32, delay float64) float32 {
	size := len(buf)
	delay = clamp64(delay, 1, float64(size-2))
	readPos := float64(c.pos) - delay
	if readPos < 0 {
		readPos += float64(size)
	}
	idx := int(readPos)
	frac := float32(readPos - float64(idx))
	idx2 := idx + 1
	if idx2 >= size {
		idx2 = 0
	}
	return buf[idx]*(1-frac) + buf[idx2]*frac
}

func (c *Chorus) Reset() {
	clear(c.bufL)
	clear(c.bufR)
	c.pos = 0
	c.sweepL.Reset()
	c.sweepR.Reset()
	c.sweepR.SetPhase(0.25)
}
