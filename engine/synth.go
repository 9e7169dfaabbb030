package engine

import (
	"fmt"
	"math"

	"github.com/viterin/vek/vek32"

	"github.com/vx7synth/vx7"
)

const (
	// MaxVoices is the fixed polyphony of the synth.
	MaxVoices = 16

	// commandQueueSize bounds the control queue. Enqueueing never
	// blocks; commands beyond this are dropped.
	commandQueueSize = 1024

	defaultMasterVolume = 0.8
)

type commandKind int

const (
	cmdNoteOn commandKind = iota
	cmdNoteOff
	cmdSetPatch
	cmdPitchBend
	cmdModWheel
	cmdMasterVolume
	cmdAllNotesOff
	cmdPanic
)

type command struct {
	kind     commandKind
	note     byte
	velocity byte
	value    float64
	patch    *vx7.Patch
}

// Synth is the 16-voice polyphonic engine. The control methods may be
// called from any goroutine; they push onto a bounded queue and never
// block. Render, which must be called from a single goroutine, drains
// the queue first, so every control change takes effect exactly at a
// block boundary and a render of the same events from the same state is
// bit-for-bit reproducible.
type Synth struct {
	sampleRate   int
	commands     chan command
	patch        vx7.Patch
	voices       [MaxVoices]voice
	scratch      []float32
	bendRatio    float32
	modWheel     float32
	masterVolume float32
	stamp        uint64
	rand         randState
}

var _ vx7.Synth = (*Synth)(nil)

// NewSynth creates a synth rendering at the given sample rate with the
// given initial patch.
func NewSynth(sampleRate int, patch vx7.Patch) (*Synth, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	s := &Synth{
		sampleRate:   sampleRate,
		commands:     make(chan command, commandQueueSize),
		patch:        patch.Clamped(),
		bendRatio:    1,
		masterVolume: defaultMasterVolume,
		rand:         1,
	}
	return s, nil
}

// SampleRate returns the rate the synth renders at, in Hz.
func (s *Synth) SampleRate() int { return s.sampleRate }

// trySend enqueues a command, dropping it if the queue is full so that
// callers never block on a stalled render goroutine.
func (s *Synth) trySend(c command) {
	select {
	case s.commands <- c:
	default:
	}
}

// NoteOn triggers a note. Velocity 0 is treated as a note off.
func (s *Synth) NoteOn(note, velocity byte) {
	s.trySend(command{kind: cmdNoteOn, note: note, velocity: velocity})
}

// NoteOff releases the most recently triggered sounding voice playing
// the note.
func (s *Synth) NoteOff(note byte) {
	s.trySend(command{kind: cmdNoteOff, note: note})
}

// SetPatch replaces the patch used for subsequent note ons. Voices
// already sounding keep the patch they were triggered with.
func (s *Synth) SetPatch(patch vx7.Patch) {
	p := patch.Clamped()
	s.trySend(command{kind: cmdSetPatch, patch: &p})
}

// PitchBend sets the global pitch bend in semitones.
func (s *Synth) PitchBend(semitones float64) {
	s.trySend(command{kind: cmdPitchBend, value: semitones})
}

// ModWheel sets the mod wheel amount 0..1, which adds pitch modulation
// depth on top of the patch's LFO setting.
func (s *Synth) ModWheel(amount float64) {
	s.trySend(command{kind: cmdModWheel, value: amount})
}

// SetMasterVolume sets the output gain applied before the final clamp.
func (s *Synth) SetMasterVolume(volume float64) {
	s.trySend(command{kind: cmdMasterVolume, value: volume})
}

// AllNotesOff releases every sounding voice, letting releases ring out.
func (s *Synth) AllNotesOff() {
	s.trySend(command{kind: cmdAllNotesOff})
}

// Panic silences every voice immediately.
func (s *Synth) Panic() {
	s.trySend(command{kind: cmdPanic})
}

// Render drains the pending commands and fills buffer with mono
// samples. It never blocks; an empty buffer is a no-op.
func (s *Synth) Render(buffer []float32) (err error) {
	// The control methods should make invalid state unrepresentable,
	// but a bug in the render path must not take the audio thread down
	// with it.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panicked: %v", r)
		}
	}()
	s.drainCommands()
	if len(buffer) == 0 {
		return nil
	}
	if cap(s.scratch) < len(buffer) {
		s.scratch = make([]float32, len(buffer))
	}
	scratch := s.scratch[:len(buffer)]
	vek32.Zeros_Into(buffer, len(buffer))
	for i := range s.voices {
		v := &s.voices[i]
		if v.free() {
			continue
		}
		for j := range scratch {
			scratch[j] = v.renderSample(s.bendRatio, s.modWheel, &s.rand)
		}
		vek32.Add_Inplace(buffer, scratch)
	}
	vek32.MulNumber_Inplace(buffer, s.masterVolume)
	for i, x := range buffer {
		if x > 1 {
			buffer[i] = 1
		} else if x < -1 {
			buffer[i] = -1
		}
	}
	return nil
}

func (s *Synth) drainCommands() {
	for {
		select {
		case c := <-s.commands:
			s.apply(c)
		default:
			return
		}
	}
}

func (s *Synth) apply(c command) {
	switch c.kind {
	case cmdNoteOn:
		if c.velocity == 0 {
			s.noteOff(c.note)
			return
		}
		s.noteOn(c.note, c.velocity)
	case cmdNoteOff:
		s.noteOff(c.note)
	case cmdSetPatch:
		s.patch = *c.patch
	case cmdPitchBend:
		s.bendRatio = float32(math.Exp2(c.value / 12))
	case cmdModWheel:
		s.modWheel = float32(clampFloat(c.value, 0, 1))
	case cmdMasterVolume:
		s.masterVolume = float32(clampFloat(c.value, 0, 1))
	case cmdAllNotesOff:
		for i := range s.voices {
			if !s.voices[i].free() {
				s.voices[i].release()
			}
		}
	case cmdPanic:
		for i := range s.voices {
			s.voices[i].reset()
		}
	}
}

func (s *Synth) noteOn(note, velocity byte) {
	idx := s.allocateVoice()
	s.stamp++
	s.voices[idx].trigger(&s.patch, note, velocity, s.stamp, s.sampleRate)
}

// allocateVoice picks the voice for a new note: a free voice if there
// is one, otherwise the oldest released voice, otherwise the oldest
// held voice. Ties go to the lowest index, so allocation is fully
// deterministic.
func (s *Synth) allocateVoice() int {
	for i := range s.voices {
		if s.voices[i].free() {
			return i
		}
	}
	best := -1
	for i := range s.voices {
		if s.voices[i].released() && (best < 0 || s.voices[i].stamp < s.voices[best].stamp) {
			best = i
		}
	}
	if best >= 0 {
		return best
	}
	best = 0
	for i := 1; i < MaxVoices; i++ {
		if s.voices[i].stamp < s.voices[best].stamp {
			best = i
		}
	}
	return best
}

// noteOff releases the most recently triggered sounding voice playing
// the note. Voices already in release are left alone, so retriggered
// notes release in reverse trigger order.
func (s *Synth) noteOff(note byte) {
	best := -1
	for i := range s.voices {
		v := &s.voices[i]
		if v.sounding && v.gate && v.note == note {
			if best < 0 || v.stamp > s.voices[best].stamp {
				best = i
			}
		}
	}
	if best >= 0 {
		s.voices[best].release()
	}
}

// ActiveVoices returns the number of voices currently sounding. Only
// meaningful from the render goroutine; mainly for tests and status
// display.
func (s *Synth) ActiveVoices() int {
	n := 0
	for i := range s.voices {
		if !s.voices[i].free() {
			n++
		}
	}
	return n
}

func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
