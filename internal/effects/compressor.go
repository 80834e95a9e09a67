package effects

import "math"

// Compressor implements basic dynamic range compression. With a high ratio
// and a threshold just under full scale it serves as the output limiter.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32 // coefficient
	release   float32 // coefficient
	makeup    float32
	envL      float32
	envR      float32
}

// NewCompressor creates a compressor effect.
// thresholdDB: threshold in dB (e.g., -20)
// ratio: compression ratio (e.g., 4 for 4:1)
// attackMs: attack time in ms
// releaseMs: release time in ms
// makeupDB: makeup gain in dB
func NewCompressor(sampleRate float64, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	return &Compressor{
		threshold: dbToGain(thresholdDB),
		ratio:     max(ratio, 1),
		attack:    follow(attackMs, sampleRate),
		release:   follow(releaseMs, sampleRate),
		makeup:    dbToGain(makeupDB),
	}
}

// NewLimiter is the fixed output stage: -0.3 dB ceiling, 20:1, fast attack.
func NewLimiter(sampleRate float64) *Compressor {
	return NewCompressor(sampleRate, -0.3, 20, 0.5, 80, 0)
}

func dbToGain(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

// follow is the one-pole coefficient reaching 63% in ms.
func follow(ms float32, sampleRate float64) float32 {
	n := float64(ms) * sampleRate / 1000
	if !(n > 0) {
		return 1
	}
	return float32(1 - math.Exp(-1/n))
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	c.envL = c.track(c.envL, l)
	c.envR = c.track(c.envR, r)
	// Linked stereo: both sides take the larger reduction.
	g := min(c.computeGain(c.envL), c.computeGain(c.envR)) * c.makeup
	return l * g, r * g
}

// track moves env toward |x|, attacking on rises and releasing on falls.
func (c *Compressor) track(env, x float32) float32 {
	x = float32(math.Abs(float64(x)))
	coef := c.release
	if x > env {
		coef = c.attack
	}
	return env + coef*(x-env)
}

func (c *Compressor) computeGain(env float32) float32 {
	if env <= c.threshold || c.threshold <= 0 || env != env {
		return 1.0
	}
	over := env / c.threshold
	return float32(math.Pow(float64(over), float64(1.0/c.ratio-1)))
}

func (c *Compressor) Reset() {
	c.envL = 0
	c.envR = 0
}
