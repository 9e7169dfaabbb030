package vx7

import "math"

// NoteToFrequency converts a MIDI note number to a frequency in Hz,
// equal temperament with A4 (note 69) at 440 Hz.
func NoteToFrequency(note byte) float64 {
	return 440 * math.Exp2((float64(note)-69)/12)
}
