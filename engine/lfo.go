package engine

import (
	"github.com/chewxy/math32"

	"github.com/vx7synth/vx7"
)

// lfo is the per-voice low frequency oscillator. It produces a bipolar
// pitch modulation signal, scaled by the pitch depth plus whatever the
// mod wheel adds, and a unipolar amplitude modulation signal where 1
// means no attenuation. The sample & hold waveform latches a new value
// from the shared generator on every phase wrap, which keeps renders
// deterministic as long as voices are processed in a fixed order.
type lfo struct {
	waveform     int
	phaseInc     float32
	pmd          float32 // 0..1
	amd          float32 // 0..1
	delaySamples int
	keySync      bool

	phase       float32 // normalized 0..1
	sampleCount int     // samples since gate on, drives the delay fade
	shValue     float32
	shLastPhase float32
}

func (l *lfo) setup(params *vx7.LFOParams, sampleRate float32) {
	l.waveform = params.Waveform
	freq := 0.062 * math32.Exp(float32(params.Speed)*0.0684)
	l.phaseInc = freq / sampleRate
	l.pmd = float32(params.PitchDepth) / 99
	l.amd = float32(params.AmpDepth) / 99
	delayTime := float32(params.Delay*params.Delay) * 0.0005
	l.delaySamples = int(math32.Round(delayTime * sampleRate))
	l.keySync = params.KeySync
}

func (l *lfo) gateOn() {
	if l.keySync {
		l.phase = 0
	}
	l.sampleCount = 0
	l.shValue = 0
	l.shLastPhase = 0
}

// next advances the LFO one sample. extraPMD is the mod wheel amount
// 0..1, added on top of the patch pitch depth and clamped to full.
func (l *lfo) next(extraPMD float32, rand *randState) (pitchMod, ampMod float32) {
	var raw float32
	switch l.waveform {
	case vx7.LFOTriangle:
		raw = 2*math32.Abs(2*l.phase-1) - 1
		raw = -raw
	case vx7.LFOSawDown:
		raw = 1 - 2*l.phase
	case vx7.LFOSawUp:
		raw = 2*l.phase - 1
	case vx7.LFOSquare:
		if l.phase < 0.5 {
			raw = 1
		} else {
			raw = -1
		}
	case vx7.LFOSampleHold:
		if l.phase < l.shLastPhase-0.5 {
			// Phase wrapped, latch a new value.
			l.shValue = rand.next()
		}
		l.shLastPhase = l.phase
		raw = l.shValue
	default: // vx7.LFOSine
		raw = math32.Sin(2 * math32.Pi * l.phase)
	}

	if l.delaySamples > 0 {
		fade := float32(l.sampleCount) / float32(l.delaySamples)
		if fade > 1 {
			fade = 1
		}
		raw *= fade
	}

	pmd := l.pmd + extraPMD
	if pmd > 1 {
		pmd = 1
	}
	pitchMod = raw * pmd
	ampMod = 1 - l.amd*(1-raw)*0.5

	l.phase += l.phaseInc
	if l.phase >= 1 {
		l.phase -= 1
	}
	l.sampleCount++
	return pitchMod, ampMod
}
