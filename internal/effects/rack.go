package effects

import (
	"github.com/cbegin/neonsynth-go/internal/param"
)

// Rack is the instrument's global effects section: modulation (chorus,
// phaser or flanger), delay, reverb, EQ and an output limiter. It reads the
// FX parameters once per block and processes the mix in place.
type Rack struct {
	chorus  *Chorus
	phaser  *Phaser
	delay   *Delay
	reverb  *Reverb
	eq      *EQ5Band
	limiter *Compressor
	chain   *Chain

	sampleRate float64
}

func NewRack() *Rack { return &Rack{} }

// Prepare allocates every delay line for sampleRate. It may allocate and
// must not run concurrently with ProcessBlock.
func (r *Rack) Prepare(sampleRate float64, maxBlockSize int) {
	if !(sampleRate > 0) {
		sampleRate = 44100
	}
	r.sampleRate = sampleRate
	r.chorus = NewChorus(sampleRate)
	r.phaser = NewPhaser(sampleRate)
	r.delay = NewDelay(sampleRate, MaxDelayMs)
	r.reverb = NewReverb(sampleRate)
	r.eq = NewEQ5Band(sampleRate)
	r.limiter = NewLimiter(sampleRate)
	r.chain = NewChain(r.chorus, r.phaser, r.delay, r.reverb, r.eq, r.limiter)
}

// Prepared reports whether Prepare has run.
func (r *Rack) Prepared() bool { return r.chain != nil }

// Update polls the FX parameters. bpm drives the synced delay time.
func (r *Rack) Update(st param.Store, bpm float64) {
	if r.chain == nil {
		return
	}
	kind := readInt(st, &modType)
	rate := read(st, &modRate)
	depth := read(st, &modDepth)
	fb := float32(read(st, &modFeedback))
	mix := float32(read(st, &modMix))

	r.chorus.SetRate(rate)
	r.chorus.SetDepth(depth)
	r.chorus.SetFeedback(fb)
	r.phaser.SetRate(rate)
	r.phaser.SetDepth(float32(depth))
	r.phaser.SetFeedback(fb)
	switch kind {
	case ModChorus, ModFlanger:
		centre := chorusCentreMs
		if kind == ModFlanger {
			centre = flangerCentreMs
		}
		r.chorus.SetCentreDelay(centre)
		r.chorus.SetMix(mix)
		r.phaser.SetMix(0)
	case ModPhaser:
		r.chorus.SetMix(0)
		r.phaser.SetMix(mix)
	default:
		r.chorus.SetMix(0)
		r.phaser.SetMix(0)
	}

	ms := read(st, &dlyTime)
	if readBool(st, &dlySync) {
		ms = DelayMs(readInt(st, &dlyNote), bpm)
	}
	r.delay.SetTime(ms)
	r.delay.SetFeedback(float32(read(st, &dlyFB)))
	r.delay.SetMix(float32(read(st, &dlyMix)))

	r.reverb.SetSize(float32(read(st, &rvbSize)))
	r.reverb.SetDamp(float32(read(st, &rvbDamp)))
	r.reverb.SetWidth(float32(read(st, &rvbWidth)))
	r.reverb.SetMix(float32(read(st, &rvbMix)))

	if !readBool(st, &eqOn) {
		r.eq.SetFlat()
		return
	}
	for i := range eqGain {
		r.eq.SetGainDB(i, float32(read(st, &eqGain[i])))
	}
}

// ProcessBlock runs the chain over interleaved stereo frames in place.
func (r *Rack) ProcessBlock(buf []float32) {
	if r.chain == nil {
		return
	}
	r.chain.ProcessBlock(buf)
}

// Reset clears every tail.
func (r *Rack) Reset() {
	if r.chain != nil {
		r.chain.Reset()
	}
}

// DelayLength is the current delay in samples, for inspection.
func (r *Rack) DelayLength() int {
	if r.delay == nil {
		return 0
	}
	return r.delay.Length()
}
