// Package engine implements the six operator FM synthesis engine: the
// envelope generators, LFO, operators, voices and the polyphonic synth
// that ties them together. All DSP runs in float32; parameter curves
// are precomputed into lookup tables at init.
package engine

import "github.com/chewxy/math32"

// minRateTime is the fastest full-scale envelope transition, 0.5 ms.
const minRateTime = 0.0005

var (
	// rateTimes maps envelope rate 0-99 to the time in seconds of a
	// full-scale (0 to 1) transition. Rate 0 is about 40 s; the curve
	// hits the minRateTime floor around rate 71, so all faster rates
	// share it.
	rateTimes [100]float32

	// levelAmps maps envelope level 0-99 to linear amplitude. The curve
	// is dB-linear over roughly 41 dB, with the endpoints pinned to
	// exact silence and unity.
	levelAmps [100]float32
)

func init() {
	for r := 0; r < 99; r++ {
		t := math32.Pow(10, 4.6-float32(r)*0.0693) * 0.001
		if t < minRateTime {
			t = minRateTime
		}
		rateTimes[r] = t
	}
	rateTimes[99] = minRateTime
	for l := 1; l < 99; l++ {
		db := (float32(l) - 99) * 0.4134
		levelAmps[l] = math32.Pow(10, db/20)
	}
	levelAmps[99] = 1
}

// randState is a linear congruential generator. Every random decision
// in the engine draws from it so renders are bit-for-bit reproducible
// from the same seed and event sequence.
type randState uint32

func (r *randState) next() float32 {
	*r *= 16007
	return float32(int32(*r)) / -2147483648.0
}
