package effects

// MaxDelayMs is the longest echo the delay line can hold.
const MaxDelayMs = 2000.0

// Delay implements a stereo feedback delay whose time can change while it
// runs.
type Delay struct {
	bufL, bufR []float32
	pos        int
	length     int // current delay in samples, 1..len(bufL)
	sampleRate float64
	feedback   float32
	wet        float32
}

// NewDelay allocates maxMs of buffer. The delay starts at maxMs, fully dry.
func NewDelay(sampleRate, maxMs float64) *Delay {
	samples := int(maxMs * sampleRate / 1000.0)
	if samples < 1 {
		samples = 1
	}
	return &Delay{
		bufL:       make([]float32, samples),
		bufR:       make([]float32, samples),
		length:     samples,
		sampleRate: sampleRate,
	}
}

// SetTime sets the delay in milliseconds, clamped to the buffer.
func (d *Delay) SetTime(ms float64) {
	n := int(clamp64(ms, 0, MaxDelayMs)*d.sampleRate/1000 + 0.5)
	d.length = max(1, min(n, len(d.bufL)))
}

// Length is the current delay in samples.
func (d *Delay) Length() int { return d.length }

func (d *Delay) SetFeedback(fb float32) { d.feedback = clamp(fb, 0, 0.95) }
func (d *Delay) SetMix(wet float32)     { d.wet = clamp(wet, 0, 1) }

func (d *Delay) Process(l, r float32) (float32, float32) {
	read := d.pos - d.length
	if read < 0 {
		read += len(d.bufL)
	}
	delL := d.bufL[read]
	delR := d.bufR[read]
	d.bufL[d.pos] = l + delL*d.feedback
	d.bufR[d.pos] = r + delR*d.feedback
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	return l*(1-d.wet) + delL*d.wet, r*(1-d.wet) + delR*d.wet
}

func (d *Delay) Reset() {
	clear(d.bufL)
	clear(d.bufR)
	d.pos = 0
}
