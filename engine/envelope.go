package engine

import (
	"github.com/chewxy/math32"

	"github.com/vx7synth/vx7"
)

type envStage int8

const (
	envStageIdle envStage = iota - 1
	envStageAttack
	envStageDecay1
	envStageDecay2
	envStageRelease
)

// envelope is a four rate / four level generator. The stage constants
// double as indices into rates and levelAmps: attack targets L1 at R1,
// decay1 targets L2 at R2, decay2 targets the L3 sustain at R3 and then
// holds, release targets L4 at R4 and then goes idle. Segment duration
// scales with the level delta, so a small step at a slow rate still
// completes quickly.
type envelope struct {
	rates      [4]int
	levelAmps  [4]float32
	sampleRate float32

	stage     envStage
	value     float32
	target    float32
	increment float32
	remaining int
}

// setup loads operator parameters, applying keyboard rate scaling for
// the given note. It leaves the envelope idle at zero.
func (e *envelope) setup(params *vx7.OperatorParams, note byte, sampleRate float32) {
	for i := range e.rates {
		e.rates[i] = params.ScaledRate(i, note)
	}
	for i, l := range params.Env.Levels {
		e.levelAmps[i] = levelAmps[l]
	}
	e.sampleRate = sampleRate
	e.reset()
}

func (e *envelope) reset() {
	e.stage = envStageIdle
	e.value = 0
	e.target = 0
	e.increment = 0
	e.remaining = 0
}

// gateOn starts the envelope from the L4 amplitude toward L1 at R1.
func (e *envelope) gateOn() {
	e.value = e.levelAmps[3]
	e.enterStage(envStageAttack)
}

// gateOff moves to the release stage from wherever the envelope is.
// An idle envelope stays idle.
func (e *envelope) gateOff() {
	if e.stage == envStageIdle {
		return
	}
	e.enterStage(envStageRelease)
}

func (e *envelope) idle() bool { return e.stage == envStageIdle }

func (e *envelope) enterStage(stage envStage) {
	e.stage = stage
	if stage == envStageIdle {
		e.increment = 0
		e.remaining = 0
		return
	}
	target := e.levelAmps[stage]
	e.target = target
	delta := target - e.value
	if math32.Abs(delta) < 1e-9 {
		// Zero-length stage.
		e.value = target
		e.increment = 0
		e.remaining = 0
		return
	}
	// The rate table gives the full-scale transition time; scale it by
	// the actual delta, at least one sample.
	stageTime := rateTimes[e.rates[stage]] * math32.Abs(delta)
	if stageTime < 1/e.sampleRate {
		stageTime = 1 / e.sampleRate
	}
	e.remaining = int(math32.Round(stageTime * e.sampleRate))
	if e.remaining < 1 {
		e.remaining = 1
	}
	e.increment = delta / float32(e.remaining)
}

func (e *envelope) advanceStage() {
	switch e.stage {
	case envStageAttack:
		e.enterStage(envStageDecay1)
	case envStageDecay1:
		e.enterStage(envStageDecay2)
	case envStageDecay2:
		// Sustain hold.
		e.remaining = 0
	case envStageRelease:
		e.value = e.target
		e.stage = envStageIdle
	}
}

// next advances the envelope one sample and returns its value in [0,1].
func (e *envelope) next() float32 {
	for {
		switch {
		case e.stage == envStageIdle:
			return e.value
		case e.stage == envStageDecay2 && e.remaining <= 0:
			// At sustain level, hold until gate off.
			return e.value
		case e.remaining <= 0:
			e.value = e.target
			e.advanceStage()
			continue
		}
		e.value += e.increment
		e.remaining--
		if e.remaining <= 0 {
			e.value = e.target
		}
		if e.value < 0 {
			e.value = 0
		} else if e.value > 1 {
			e.value = 1
		}
		return e.value
	}
}
