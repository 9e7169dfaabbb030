package vx7_test

import (
	"math"
	"testing"

	"github.com/vx7synth/vx7"
)

const tolerance = 1e-9

func closeTo(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNoteToFrequency(t *testing.T) {
	cases := []struct {
		note byte
		freq float64
	}{
		{69, 440},
		{81, 880},
		{57, 220},
		{60, 261.6255653},
	}
	for _, c := range cases {
		if got := vx7.NoteToFrequency(c.note); !closeTo(got, c.freq, 1e-6) {
			t.Errorf("note %d: %v Hz, want %v", c.note, got, c.freq)
		}
	}
}

func TestOperatorFrequencyRatioMode(t *testing.T) {
	op := vx7.OperatorParams{Coarse: 2}
	if got := op.Frequency(440); !closeTo(got, 880, tolerance) {
		t.Errorf("coarse 2: %v, want 880", got)
	}
	op = vx7.OperatorParams{Coarse: 0}
	if got := op.Frequency(440); !closeTo(got, 220, tolerance) {
		t.Errorf("coarse 0 should be the half ratio: %v, want 220", got)
	}
	op = vx7.OperatorParams{Coarse: 1, Fine: 50}
	if got := op.Frequency(100); !closeTo(got, 150, tolerance) {
		t.Errorf("fine 50: %v, want 150", got)
	}
}

func TestOperatorFrequencyFixedMode(t *testing.T) {
	for coarse, want := range map[int]float64{0: 1, 1: 10, 2: 100, 3: 1000} {
		op := vx7.OperatorParams{Mode: vx7.ModeFixed, Coarse: coarse}
		if got := op.Frequency(440); !closeTo(got, want, tolerance) {
			t.Errorf("fixed coarse %d: %v Hz, want %v", coarse, got, want)
		}
	}
	// Fixed mode ignores the note frequency entirely.
	op := vx7.OperatorParams{Mode: vx7.ModeFixed, Coarse: 2}
	if op.Frequency(100) != op.Frequency(5000) {
		t.Errorf("fixed mode frequency depends on the note")
	}
}

func TestOperatorDetune(t *testing.T) {
	center := vx7.OperatorParams{Coarse: 1}
	up := vx7.OperatorParams{Coarse: 1, Detune: 7}
	down := vx7.OperatorParams{Coarse: 1, Detune: -7}
	base := center.Frequency(440)
	if hi := up.Frequency(440); hi <= base {
		t.Errorf("positive detune should raise the frequency: %v vs %v", hi, base)
	}
	if lo := down.Frequency(440); lo >= base {
		t.Errorf("negative detune should lower the frequency: %v vs %v", lo, base)
	}
	// About seven cents at full detune.
	cents := 1200 * math.Log2(up.Frequency(440)/base)
	if cents < 6 || cents > 8 {
		t.Errorf("full detune is %v cents, want about 7", cents)
	}
}

func TestOperatorAmplitudeCurve(t *testing.T) {
	full := vx7.OperatorParams{Level: 99}
	if got := full.Amplitude(); !closeTo(got, 1, tolerance) {
		t.Errorf("level 99 amplitude %v, want 1", got)
	}
	silent := vx7.OperatorParams{Level: 0}
	if got := silent.Amplitude(); got != 0 {
		t.Errorf("level 0 amplitude %v, want 0", got)
	}
	// 0.75 dB per step below maximum.
	prev := full.Amplitude()
	for level := 98; level > 0; level-- {
		op := vx7.OperatorParams{Level: level}
		db := 20 * math.Log10(prev/op.Amplitude())
		if !closeTo(db, 0.75, 1e-6) {
			t.Fatalf("level %d step is %v dB, want 0.75", level, db)
		}
		prev = op.Amplitude()
	}
}

func TestOperatorModIndex(t *testing.T) {
	op := vx7.OperatorParams{Level: 99}
	if got := op.ModIndex(); !closeTo(got, vx7.MaxModulationIndex, tolerance) {
		t.Errorf("level 99 mod index %v, want %v", got, vx7.MaxModulationIndex)
	}
}

func TestVelocityGain(t *testing.T) {
	insensitive := vx7.OperatorParams{Velocity: 0}
	if got := insensitive.VelocityGain(1); got != 1 {
		t.Errorf("sensitivity 0 gain %v, want 1", got)
	}
	full := vx7.OperatorParams{Velocity: 7}
	if got := full.VelocityGain(0); !closeTo(got, 0, tolerance) {
		t.Errorf("sensitivity 7 at velocity 0: %v, want 0", got)
	}
	if got := full.VelocityGain(127); !closeTo(got, 1, tolerance) {
		t.Errorf("sensitivity 7 at velocity 127: %v, want 1", got)
	}
	mid := vx7.OperatorParams{Velocity: 3}
	floor := 1 - 3.0/7
	if got := mid.VelocityGain(0); !closeTo(got, floor, tolerance) {
		t.Errorf("sensitivity 3 floor %v, want %v", got, floor)
	}
}

func TestScaledRate(t *testing.T) {
	op := vx7.OperatorParams{RateScaling: 0, Env: vx7.EnvelopeParams{Rates: [4]int{50, 50, 50, 50}}}
	if got := op.ScaledRate(0, 127); got != 50 {
		t.Errorf("scaling 0 changed the rate to %d", got)
	}
	op.RateScaling = 7
	if got := op.ScaledRate(0, 36); got != 50 {
		t.Errorf("note 36 should be unaffected, got %d", got)
	}
	if got := op.ScaledRate(0, 108); got <= 50 {
		t.Errorf("high note rate %d, want above 50", got)
	}
	op.Env.Rates[0] = 99
	if got := op.ScaledRate(0, 127); got != 99 {
		t.Errorf("scaled rate %d exceeds 99", got)
	}
}

func TestKeyScalingGain(t *testing.T) {
	s := vx7.KeyScalingParams{Breakpoint: 60, LeftDepth: 99, RightDepth: 99,
		LeftCurve: vx7.CurveLinDown, RightCurve: vx7.CurveLinDown}
	if got := s.Gain(60); got != 1 {
		t.Errorf("gain at the breakpoint %v, want 1", got)
	}
	if got := s.Gain(72); got >= 1 {
		t.Errorf("negative curve should attenuate above the breakpoint: %v", got)
	}
	if got := s.Gain(48); got >= 1 {
		t.Errorf("negative curve should attenuate below the breakpoint: %v", got)
	}
	boost := vx7.KeyScalingParams{Breakpoint: 60, RightDepth: 50, RightCurve: vx7.CurveLinUp}
	if got := boost.Gain(72); got <= 1 {
		t.Errorf("positive curve should boost: %v", got)
	}
	if got := boost.Gain(48); got != 1 {
		t.Errorf("zero left depth should leave the gain at 1: %v", got)
	}
	// The exponential curve attenuates less than the linear one close
	// to the breakpoint.
	lin := vx7.KeyScalingParams{Breakpoint: 60, RightDepth: 99, RightCurve: vx7.CurveLinDown}
	exp := vx7.KeyScalingParams{Breakpoint: 60, RightDepth: 99, RightCurve: vx7.CurveExpDown}
	if !(exp.Gain(66) > lin.Gain(66)) {
		t.Errorf("exp curve %v should be gentler than lin %v near the breakpoint", exp.Gain(66), lin.Gain(66))
	}
}

func TestClampedForcesRanges(t *testing.T) {
	p := vx7.Patch{Algorithm: 99, Feedback: 12, Transpose: 100}
	p.LFO = vx7.LFOParams{Speed: 200, Delay: -5, PitchDepth: 150, AmpDepth: -1, Waveform: 17}
	p.Ops[0] = vx7.OperatorParams{Coarse: 77, Fine: 200, Detune: 55, Level: 300, Velocity: 9, RateScaling: 12}
	p.Ops[0].Env = vx7.EnvelopeParams{Rates: [4]int{-1, 200, 50, 99}, Levels: [4]int{100, -100, 0, 99}}
	c := p.Clamped()
	if c.Algorithm != vx7.NumAlgorithms || c.Feedback != 7 || c.Transpose != 24 {
		t.Errorf("patch globals not clamped: %+v", c)
	}
	if c.LFO.Speed != 99 || c.LFO.Delay != 0 || c.LFO.PitchDepth != 99 || c.LFO.AmpDepth != 0 || c.LFO.Waveform != vx7.LFOSampleHold {
		t.Errorf("lfo not clamped: %+v", c.LFO)
	}
	op := c.Ops[0]
	if op.Coarse != 31 || op.Fine != 99 || op.Detune != 7 || op.Level != 99 || op.Velocity != 7 || op.RateScaling != 7 {
		t.Errorf("operator not clamped: %+v", op)
	}
	if op.Env.Rates != [4]int{0, 99, 50, 99} || op.Env.Levels != [4]int{99, 0, 0, 99} {
		t.Errorf("envelope not clamped: %+v", op.Env)
	}
}

func TestRenderFramesRejectsBadCounts(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := vx7.RenderFrames(nil, n); err == nil {
			t.Errorf("RenderFrames accepted %d frames", n)
		}
	}
}
