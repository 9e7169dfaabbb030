package vx7

import (
	"errors"
	"fmt"
)

// Synth is a polyphonic instrument. NoteOn, NoteOff, SetPatch and the
// controller methods may be called from any goroutine; they enqueue and
// never block. Render drains the queue and then fills the buffer with
// mono float32 samples, so control changes take effect exactly at block
// boundaries.
type Synth interface {
	NoteOn(note, velocity byte)
	NoteOff(note byte)
	SetPatch(patch Patch)
	PitchBend(semitones float64)
	ModWheel(amount float64)
	AllNotesOff()
	Panic()
	Render(buffer []float32) error
}

// RenderFrames allocates a buffer of numFrames samples and renders into
// it. Convenience wrapper for offline use; real-time callers should
// reuse their own buffer with Render.
func RenderFrames(synth Synth, numFrames int) ([]float32, error) {
	if numFrames <= 0 {
		return nil, errors.New("RenderFrames: frame count must be positive")
	}
	buffer := make([]float32, numFrames)
	if err := synth.Render(buffer); err != nil {
		return nil, fmt.Errorf("RenderFrames failed: %v", err)
	}
	return buffer, nil
}
