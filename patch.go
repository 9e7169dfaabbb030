package vx7

import (
	"math"
)

const (
	// NumOperators is the number of FM operators in a voice. The whole
	// engine is built around six; the algorithm tables hard-code it.
	NumOperators = 6

	// MaxModulationIndex is the modulation index, in radians, that an
	// operator at output level 99 applies to the operator it modulates.
	MaxModulationIndex = 13.0
)

// Oscillator modes for an operator.
const (
	ModeRatio = iota // frequency = note frequency * ratio
	ModeFixed        // frequency independent of the played note
)

// LFO waveforms.
const (
	LFOTriangle = iota
	LFOSawDown
	LFOSawUp
	LFOSquare
	LFOSine
	LFOSampleHold
)

// Keyboard level scaling curve shapes.
const (
	CurveLinDown = iota // attenuation grows linearly with distance
	CurveExpDown        // attenuation grows exponentially
	CurveExpUp          // boost grows exponentially
	CurveLinUp          // boost grows linearly
)

type (
	// Patch is a complete timbre definition: six operators, one LFO, an
	// algorithm selection and a global transpose. A patch is plain data;
	// the engine copies it on SetPatch and a sounding voice keeps the
	// copy it was triggered with, so editing a Patch never reaches into
	// a running render.
	Patch struct {
		Name      string `yaml:",omitempty"`
		Algorithm int    // 1-32, selects one of the fixed topologies
		Feedback  int    // 0-7, depth of the single feedback loop
		Transpose int    `yaml:",omitempty"` // semitones added to every note
		LFO       LFOParams
		Ops       [NumOperators]OperatorParams `yaml:"operators"`
	}

	// OperatorParams holds everything one operator needs except its
	// runtime state: oscillator tuning, output level, sensitivities,
	// envelope and keyboard scaling.
	OperatorParams struct {
		Mode        int `yaml:",omitempty"` // ModeRatio or ModeFixed
		Coarse      int // 0-31; in ratio mode 0 means ratio 0.5
		Fine        int `yaml:",omitempty"` // 0-99
		Detune      int `yaml:",omitempty"` // -7..7, about a cent per step
		Level       int // output level 0-99
		Velocity    int `yaml:",omitempty"`             // velocity sensitivity 0-7
		RateScaling int `yaml:"ratescaling,omitempty"` // keyboard rate scaling 0-7
		Env         EnvelopeParams
		Scaling     KeyScalingParams `yaml:",omitempty"`
	}

	// EnvelopeParams is the four rate / four level contour, ordered
	// R1..R4 / L1..L4: attack to L1 at R1, decay to L2 at R2, decay to
	// the L3 sustain at R3, release to L4 at R4.
	EnvelopeParams struct {
		Rates  [4]int `yaml:",flow"`
		Levels [4]int `yaml:",flow"`
	}

	// KeyScalingParams attenuates or boosts an operator depending on how
	// far the played note is from a breakpoint, with separate depth and
	// curve on each side.
	KeyScalingParams struct {
		Breakpoint int `yaml:",omitempty"` // MIDI note of the breakpoint
		LeftDepth  int `yaml:"leftdepth,omitempty"`  // 0-99
		RightDepth int `yaml:"rightdepth,omitempty"` // 0-99
		LeftCurve  int `yaml:"leftcurve,omitempty"`
		RightCurve int `yaml:"rightcurve,omitempty"`
	}

	// LFOParams describes the per-voice low frequency oscillator.
	LFOParams struct {
		Speed      int  // 0-99
		Delay      int  `yaml:",omitempty"`   // 0-99, fade-in after note on
		PitchDepth int  `yaml:"pitchdepth,omitempty"` // 0-99
		AmpDepth   int  `yaml:"ampdepth,omitempty"`   // 0-99
		Waveform   int  // one of the LFO* constants
		KeySync    bool `yaml:"keysync,omitempty"`
	}
)

// outputLevelAmp maps output level 0-99 to linear amplitude. The curve
// is dB-linear, 0.75 dB per step below maximum; level 0 is silence.
var outputLevelAmp [100]float64

func init() {
	for lvl := 1; lvl < 100; lvl++ {
		db := float64(99-lvl) * 0.75
		outputLevelAmp[lvl] = math.Pow(10, -db/20)
	}
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Clamped returns a copy of the patch with every parameter forced into
// its documented range, so malformed preset data can never put a voice
// into an invalid state. The engine calls this on SetPatch; out of
// range values are silently corrected, never an error.
func (p Patch) Clamped() Patch {
	p.Algorithm = clamp(p.Algorithm, 1, NumAlgorithms)
	p.Feedback = clamp(p.Feedback, 0, 7)
	p.Transpose = clamp(p.Transpose, -24, 24)
	p.LFO.Speed = clamp(p.LFO.Speed, 0, 99)
	p.LFO.Delay = clamp(p.LFO.Delay, 0, 99)
	p.LFO.PitchDepth = clamp(p.LFO.PitchDepth, 0, 99)
	p.LFO.AmpDepth = clamp(p.LFO.AmpDepth, 0, 99)
	p.LFO.Waveform = clamp(p.LFO.Waveform, LFOTriangle, LFOSampleHold)
	for i := range p.Ops {
		o := &p.Ops[i]
		o.Mode = clamp(o.Mode, ModeRatio, ModeFixed)
		o.Coarse = clamp(o.Coarse, 0, 31)
		o.Fine = clamp(o.Fine, 0, 99)
		o.Detune = clamp(o.Detune, -7, 7)
		o.Level = clamp(o.Level, 0, 99)
		o.Velocity = clamp(o.Velocity, 0, 7)
		o.RateScaling = clamp(o.RateScaling, 0, 7)
		for j := range o.Env.Rates {
			o.Env.Rates[j] = clamp(o.Env.Rates[j], 0, 99)
			o.Env.Levels[j] = clamp(o.Env.Levels[j], 0, 99)
		}
		o.Scaling.Breakpoint = clamp(o.Scaling.Breakpoint, 0, 127)
		o.Scaling.LeftDepth = clamp(o.Scaling.LeftDepth, 0, 99)
		o.Scaling.RightDepth = clamp(o.Scaling.RightDepth, 0, 99)
		o.Scaling.LeftCurve = clamp(o.Scaling.LeftCurve, CurveLinDown, CurveLinUp)
		o.Scaling.RightCurve = clamp(o.Scaling.RightCurve, CurveLinDown, CurveLinUp)
	}
	return p
}

// Frequency returns the oscillator frequency in Hz for the given note
// base frequency. In ratio mode coarse 0 selects the 0.5 sub-octave
// ratio and fine adds a percentage on top; in fixed mode coarse picks a
// power of ten (1, 10, 100 or 1000 Hz) and fine scales it the same way.
// Detune shifts the result by about a cent per step.
func (o *OperatorParams) Frequency(base float64) float64 {
	var freq float64
	if o.Mode == ModeFixed {
		freq = math.Pow(10, float64(clamp(o.Coarse, 0, 3))) * (1 + float64(o.Fine)*0.01)
	} else {
		ratio := float64(o.Coarse)
		if o.Coarse == 0 {
			ratio = 0.5
		}
		freq = base * ratio * (1 + float64(o.Fine)*0.01)
	}
	return freq * detuneMultiplier(o.Detune)
}

const detuneCentsPerStep = 1.018

func detuneMultiplier(detune int) float64 {
	cents := float64(clamp(detune, -7, 7)) * detuneCentsPerStep
	return math.Exp2(cents / 1200)
}

// Amplitude returns the linear amplitude for the operator output level,
// before velocity and keyboard scaling are applied.
func (o *OperatorParams) Amplitude() float64 {
	return outputLevelAmp[clamp(o.Level, 0, 99)]
}

// ModIndex returns the phase modulation index in radians the operator
// contributes when it modulates another operator.
func (o *OperatorParams) ModIndex() float64 {
	return o.Amplitude() * MaxModulationIndex
}

// VelocityGain maps MIDI velocity to an amplitude multiplier.
// Sensitivity 0 ignores velocity; at sensitivity 7 the softest touch
// fades the operator all the way to silence.
func (o *OperatorParams) VelocityGain(velocity byte) float64 {
	sens := clamp(o.Velocity, 0, 7)
	if sens == 0 {
		return 1
	}
	if velocity > 127 {
		velocity = 127
	}
	floor := 1 - float64(sens)/7
	return floor + (1-floor)*float64(velocity)/127
}

// ScaledRate applies keyboard rate scaling to envelope rate index i for
// the given note. Higher notes get faster envelopes; notes at or below
// 36 are unaffected.
func (o *OperatorParams) ScaledRate(i int, note byte) int {
	rate := clamp(o.Env.Rates[i], 0, 99)
	krs := clamp(o.RateScaling, 0, 7)
	if krs == 0 {
		return rate
	}
	adj := float64(krs) * math.Max(0, float64(note)-36) / 36
	return clamp(int(math.Round(float64(rate)+adj)), 0, 99)
}

// Gain returns the keyboard level scaling multiplier for a note. Depth
// maps to a dB offset reached four octaves from the breakpoint; the
// curve constants select linear or squared growth and whether the
// offset attenuates or boosts.
func (s *KeyScalingParams) Gain(note byte) float64 {
	distance := int(note) - s.Breakpoint
	var depth, curve int
	if distance < 0 {
		depth, curve = s.LeftDepth, s.LeftCurve
		distance = -distance
	} else if distance > 0 {
		depth, curve = s.RightDepth, s.RightCurve
	} else {
		return 1
	}
	if depth == 0 {
		return 1
	}
	norm := math.Min(float64(distance)/48, 1)
	maxDB := float64(depth) * 0.75
	var db float64
	switch curve {
	case CurveLinDown:
		db = -maxDB * norm
	case CurveExpDown:
		db = -maxDB * norm * norm
	case CurveExpUp:
		db = maxDB * norm * norm
	case CurveLinUp:
		db = maxDB * norm
	}
	return math.Pow(10, db/20)
}
