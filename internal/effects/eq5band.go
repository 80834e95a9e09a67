package effects

import (
	"math"
	"sync/atomic"
)

// EQBands is the number of EQ5Band bands.
const EQBands = 5

// EQ5Band implements a 5-band equalizer with runtime-adjustable gains.
// Bands are split at 200Hz, 800Hz, 2.5kHz, and 8kHz.
// Gains are stored as uint32 (bit-cast float32) for lock-free reads from the audio thread.
type EQ5Band struct {
	gains  [EQBands]atomic.Uint32 // float32 bit patterns; 1.0 = unity
	alphas [EQBands - 1]float32   // crossover filter coefficients
	lpL    [EQBands - 1]float32   // lowpass state per crossover, left
	lpR    [EQBands - 1]float32   // lowpass state per crossover, right
}

var defaultCrossovers = [EQBands - 1]float64{200, 800, 2500, 8000}

// NewEQ5Band creates a 5-band EQ with all gains at unity.
func NewEQ5Band(sampleRate float64) *EQ5Band {
	eq := &EQ5Band{}
	dt := 1.0 / sampleRate
	for i, freq := range defaultCrossovers {
		rc := 1.0 / (2.0 * math.Pi * freq)
		eq.alphas[i] = float32(dt / (rc + dt))
	}
	eq.SetFlat()
	return eq
}

// SetGain sets the gain for band (0-4). 1.0 = unity, 0.0 = silence, 2.0 = +6dB.
func (eq *EQ5Band) SetGain(band int, gain float32) {
	if band >= 0 && band < EQBands && gain == gain {
		eq.gains[band].Store(math.Float32bits(max(gain, 0)))
	}
}

// SetGainDB sets a band gain in decibels.
func (eq *EQ5Band) SetGainDB(band int, db float32) {
	eq.SetGain(band, dbToGain(db))
}

// SetFlat puts every band at unity.
func (eq *EQ5Band) SetFlat() {
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1.0))
	}
}

// Gain returns the current gain for band (0-4).
func (eq *EQ5Band) Gain(band int) float32 {
	if band >= 0 && band < EQBands {
		return math.Float32frombits(eq.gains[band].Load())
	}
	return 1.0
}

func (eq *EQ5Band) Process(l, r float32) (float32, float32) {
	// Band i sits below crossover i; the remainder above the last one is band 4.
	var bandL, bandR [EQBands]float32
	remL, remR := l, r
	for i := range eq.alphas {
		eq.lpL[i] += eq.alphas[i] * (remL - eq.lpL[i])
		eq.lpR[i] += eq.alphas[i] * (remR - eq.lpR[i])
		bandL[i] = eq.lpL[i]
		bandR[i] = eq.lpR[i]
		remL -= bandL[i]
		remR -= bandR[i]
	}
	bandL[EQBands-1] = remL
	bandR[EQBands-1] = remR

	var outL, outR float32
	for i := range bandL {
		g := math.Float32frombits(eq.gains[i].Load())
		outL += bandL[i] * g
		outR += bandR[i] * g
	}
	return outL, outR
}

func (eq *EQ5Band) Reset() {
	eq.lpL = [EQBands - 1]float32{}
	eq.lpR = [EQBands - 1]float32{}
}
