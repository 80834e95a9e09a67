package effects

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/cbegin/neonsynth-go/internal/lfo"
)

const (
	phaserStages = 4
	// PhaserCentreHz is the sweep centre; full depth moves two octaves each way.
	PhaserCentreHz = 1300.0
)

// allpass1 is a first-order allpass section.
type allpass1 struct {
	z float32
}

func (a *allpass1) process(x, coef float32) float32 {
	y := coef*x + a.z
	a.z = x - coef*y
	return y
}

// Phaser sweeps a cascade of first-order allpass stages and mixes the result
// with the dry signal.
type Phaser struct {
	sampleRate float64
	stagesL    [phaserStages]allpass1
	stagesR    [phaserStages]allpass1
	lastL      float32
	lastR      float32
	sweepL     lfo.LFO
	sweepR     lfo.LFO
	depth      float32
	feedback   float32
	wet        float32
}

func NewPhaser(sampleRate float64) *Phaser {
	p := &Phaser{sampleRate: sampleRate, depth: 0.5}
	p.SetRate(1)
	p.sweepR.SetPhase(0.25)
	return p
}

func (p *Phaser) SetRate(hz float64) {
	hz = clamp64(hz, 0.01, 20)
	p.sweepL.Set(1, hz, lfo.ShapeTriangle)
	p.sweepR.Set(1, hz, lfo.ShapeTriangle)
}

func (p *Phaser) SetDepth(depth float32) { p.depth = clamp(depth, 0, 1) }
func (p *Phaser) SetFeedback(fb float32) { p.feedback = clamp(fb, 0, 0.95) }
func (p *Phaser) SetMix(wet float32)     { p.wet = clamp(wet, 0, 1) }

// coefficient maps a sweep value in [-1, 1] to the allpass coefficient.
func (p *Phaser) coefficient(sweep float32) float32 {
	sr := float32(p.sampleRate)
	fc := PhaserCentreHz * math32.Pow(2, 2*p.depth*sweep)
	fc = clamp(fc, 20, sr*0.45)
	t := float32(math.Tan(math.Pi * float64(fc/sr)))
	return (t - 1) / (t + 1)
}

func (p *Phaser) Process(l, r float32) (float32, float32) {
	cl := p.coefficient(float32(p.sweepL.Sample(p.sampleRate)))
	cr := p.coefficient(float32(p.sweepR.Sample(p.sampleRate)))

	yl := l + p.lastL*p.feedback
	yr := r + p.lastR*p.feedback
	for i := range p.stagesL {
		yl = p.stagesL[i].process(yl, cl)
		yr = p.stagesR[i].process(yr, cr)
	}
	p.lastL, p.lastR = yl, yr
	return l*(1-p.wet) + yl*p.wet, r*(1-p.wet) + yr*p.wet
}

func (p *Phaser) Reset() {
	p.stagesL = [phaserStages]allpass1{}
	p.stagesR = [phaserStages]allpass1{}
	p.lastL, p.lastR = 0, 0
	p.sweepL.Reset()
	p.sweepR.Reset()
	p.sweepR.SetPhase(0.25)
}
