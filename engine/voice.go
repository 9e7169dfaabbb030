package engine

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/vx7synth/vx7"
)

const twoPi = 2 * math32.Pi

// operator is the runtime state of one FM operator: a sine oscillator
// with a phase accumulator in radians, its envelope, and the gains
// derived once at trigger time from output level, velocity and keyboard
// level scaling.
type operator struct {
	env       envelope
	phase     float32
	phaseInc  float32 // radians per sample before pitch modulation
	amplitude float32 // carrier gain
	modIndex  float32 // modulator gain, in radians
	fixed     bool    // fixed-frequency operators ignore pitch bend and LFO
}

func (o *operator) trigger(params *vx7.OperatorParams, note, velocity byte, baseFreq, sampleRate float64) {
	freq := params.Frequency(baseFreq)
	scale := params.VelocityGain(velocity) * params.Scaling.Gain(note)
	o.amplitude = float32(params.Amplitude() * scale)
	o.modIndex = float32(params.ModIndex() * scale)
	o.phaseInc = float32(2 * math.Pi * freq / sampleRate)
	o.fixed = params.Mode == vx7.ModeFixed
	o.phase = 0
	o.env.setup(params, note, float32(sampleRate))
	o.env.gateOn()
}

// voice renders one sounding note: six operators routed through the
// patch's algorithm, one LFO, and the feedback loop state. A voice
// keeps the patch it was triggered with for its whole lifetime; patch
// changes only affect voices allocated afterwards.
type voice struct {
	patch vx7.Patch
	algo  *vx7.AlgorithmDef

	ops         [vx7.NumOperators]operator
	lfo         lfo
	fbLevel     float32
	fb          [2]float32 // previous two raw samples of the feedback op
	carrierNorm float32

	note     byte
	velocity byte
	gate     bool
	sounding bool
	stamp    uint64 // trigger order, used for voice stealing
}

func (v *voice) trigger(patch *vx7.Patch, note, velocity byte, stamp uint64, sampleRate int) {
	v.patch = *patch
	v.algo = vx7.Algorithm(patch.Algorithm)
	v.fbLevel = float32(vx7.FeedbackLevel(patch.Feedback))
	v.carrierNorm = float32(v.algo.CarrierNorm())
	v.note = note
	v.velocity = velocity
	v.gate = true
	v.sounding = true
	v.stamp = stamp
	v.fb[0] = 0
	v.fb[1] = 0

	played := byte(clampInt(int(note)+patch.Transpose, 0, 127))
	base := vx7.NoteToFrequency(played)
	for i := range v.ops {
		v.ops[i].trigger(&patch.Ops[i], played, velocity, base, float64(sampleRate))
	}
	v.lfo.setup(&patch.LFO, float32(sampleRate))
	v.lfo.gateOn()
}

func (v *voice) release() {
	v.gate = false
	for i := range v.ops {
		v.ops[i].env.gateOff()
	}
}

// reset silences the voice immediately, skipping the release stage.
func (v *voice) reset() {
	v.gate = false
	v.sounding = false
	for i := range v.ops {
		v.ops[i].env.reset()
	}
	v.fb[0] = 0
	v.fb[1] = 0
}

func (v *voice) free() bool { return !v.sounding }

// released reports whether the voice is still sounding but has had its
// note released. These are preferred over held notes when stealing.
func (v *voice) released() bool { return v.sounding && !v.gate }

func (v *voice) carriersIdle() bool {
	for _, c := range v.algo.Carriers {
		if !v.ops[c].env.idle() {
			return false
		}
	}
	return true
}

// renderSample produces one output sample. bendRatio is the global
// pitch bend as a frequency multiplier, modWheel the extra pitch depth
// 0..1. Operators run in the precomputed order, so every modulation
// source is up to date when its destination reads it; the feedback
// operator instead reads the mean of its own previous two raw samples,
// so no same-sample cycle exists.
func (v *voice) renderSample(bendRatio, modWheel float32, rand *randState) float32 {
	pitchMod, ampMod := v.lfo.next(modWheel, rand)
	freqRatio := bendRatio
	if pitchMod != 0 {
		// Full pitch depth spans plus or minus one octave.
		freqRatio *= math32.Exp2(pitchMod)
	}

	var outs [vx7.NumOperators]float32
	var mix float32
	for _, op := range v.algo.RenderOrder() {
		o := &v.ops[op]
		var mod float32
		for _, src := range v.algo.ModSources(op) {
			mod += outs[src]
		}
		feedbackOp := op == v.algo.FeedbackOp && v.fbLevel > 0
		if feedbackOp {
			mod += v.fbLevel * (v.fb[0] + v.fb[1]) * 0.5
		}
		env := o.env.next()
		raw := math32.Sin(o.phase + mod)
		if o.fixed {
			o.phase += o.phaseInc
		} else {
			o.phase += o.phaseInc * freqRatio
		}
		if o.phase >= twoPi {
			o.phase = math32.Mod(o.phase, twoPi)
		}
		if feedbackOp {
			v.fb[0] = v.fb[1]
			v.fb[1] = raw
		}
		outs[op] = raw * env * o.modIndex
		if v.algo.IsCarrier(op) {
			mix += raw * env * o.amplitude * ampMod
		}
	}
	mix *= v.carrierNorm

	if !v.gate && v.carriersIdle() {
		v.sounding = false
	}
	return mix
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
