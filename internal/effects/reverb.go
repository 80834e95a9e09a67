package effects

const (
	// stereoSpread offsets the right channel's delay lines, in samples at 44.1 kHz.
	stereoSpread = 23
	dampScale    = 0.4
)

// Comb and allpass lengths relative to the base length.
var (
	combRatios    = [4]int{1000, 1117, 1271, 1437}
	allpassRatios = [2]int{347, 213}
)

// Reverb implements a Schroeder-style reverb with multiple comb filters
// and two allpass filters per channel. Room size scales the line lengths and
// the comb feedback; damping lowpasses the feedback path.
type Reverb struct {
	sampleRate float64
	combsL     [4]combFilter
	combsR     [4]combFilter
	allpassL   [2]allpassFilter
	allpassR   [2]allpassFilter
	size       float32
	damp       float32
	width      float32
	wet        float32
}

type combFilter struct {
	buf   []float32
	n     int
	pos   int
	fb    float32
	damp  float32
	store float32
}

type allpassFilter struct {
	buf []float32
	n   int
	pos int
	fb  float32
}

// NewReverb allocates lines for the largest room. Defaults: size and damping
// 0.5, full width, fully dry.
func NewReverb(sampleRate float64) *Reverb {
	r := &Reverb{sampleRate: sampleRate, width: 1}
	spread := r.spread()
	maxBase := r.base(1)
	for i := range r.combsL {
		n := maxBase*combRatios[i]/1000 + 1
		r.combsL[i].buf = make([]float32, n)
		r.combsR[i].buf = make([]float32, n+spread)
	}
	for i := range r.allpassL {
		n := max(maxBase*allpassRatios[i]/1000, 1) + 1
		r.allpassL[i] = allpassFilter{buf: make([]float32, n), fb: 0.5}
		r.allpassR[i] = allpassFilter{buf: make([]float32, n+spread), fb: 0.5}
	}
	r.SetSize(0.5)
	r.SetDamp(0.5)
	return r
}

func (r *Reverb) base(size float32) int {
	return max(int(r.sampleRate*float64(0.01+0.04*size)), 10)
}

func (r *Reverb) spread() int {
	return int(stereoSpread * r.sampleRate / 44100)
}

// SetSize sets the room size in [0, 1].
func (r *Reverb) SetSize(size float32) {
	r.size = clamp(size, 0, 1)
	base := r.base(r.size)
	spread := r.spread()
	fb := 0.7 + 0.28*r.size
	for i := range r.combsL {
		n := max(base*combRatios[i]/1000, 1)
		r.combsL[i].resize(n, fb)
		r.combsR[i].resize(n+spread, fb)
	}
	for i := range r.allpassL {
		n := max(base*allpassRatios[i]/1000, 1)
		r.allpassL[i].resize(n)
		r.allpassR[i].resize(n + spread)
	}
}

func (r *Reverb) SetDamp(damp float32) {
	r.damp = clamp(damp, 0, 1)
	for i := range r.combsL {
		r.combsL[i].damp = r.damp * dampScale
		r.combsR[i].damp = r.damp * dampScale
	}
}

// SetWidth sets the stereo width in [0, 1]; 0 folds the tail to mono.
func (r *Reverb) SetWidth(width float32) { r.width = clamp(width, 0, 1) }

// SetMix sets the wet level. The dry level falls to half at full mix.
func (r *Reverb) SetMix(wet float32) { r.wet = clamp(wet, 0, 1) }

func (r *Reverb) Process(l, r2 float32) (float32, float32) {
	mono := (l + r2) * 0.5
	var outL, outR float32
	for i := range r.combsL {
		outL += r.combsL[i].process(mono)
		outR += r.combsR[i].process(mono)
	}
	outL *= 0.25
	outR *= 0.25
	for i := range r.allpassL {
		outL = r.allpassL[i].process(outL)
		outR = r.allpassR[i].process(outR)
	}
	wet1 := r.wet * (r.width/2 + 0.5)
	wet2 := r.wet * (1 - r.width) / 2
	dry := 1 - r.wet*0.5
	return l*dry + outL*wet1 + outR*wet2, r2*dry + outR*wet1 + outL*wet2
}

func (r *Reverb) Reset() {
	for i := range r.combsL {
		r.combsL[i].reset()
		r.combsR[i].reset()
	}
	for i := range r.allpassL {
		r.allpassL[i].reset()
		r.allpassR[i].reset()
	}
}

func (c *combFilter) resize(n int, fb float32) {
	c.n = min(n, len(c.buf))
	c.fb = fb
	if c.pos >= c.n {
		c.pos = 0
	}
}

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	c.store = out*(1-c.damp) + c.store*c.damp
	c.buf[c.pos] = in + c.store*c.fb
	c.pos++
	if c.pos >= c.n {
		c.pos = 0
	}
	return out
}

func (c *combFilter) reset() {
	clear(c.buf)
	c.pos = 0
	c.store = 0
}

func (a *allpassFilter) resize(n int) {
	a.n = min(n, len(a.buf))
	if a.pos >= a.n {
		a.pos = 0
	}
}

func (a *allpassFilter) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= a.n {
		a.pos = 0
	}
	return out
}

func (a *allpassFilter) reset() {
	clear(a.buf)
	a.pos = 0
}
