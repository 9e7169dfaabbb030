// Package midiin feeds MIDI input into a synth. It opens an rtmidi
// input port and translates channel messages into the synth's
// non-blocking control calls, so the listening callback can never stall
// the audio thread.
package midiin

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/vx7synth/vx7"
)

// bendRangeSemitones is the pitch bend wheel range, the conventional
// plus or minus two semitones.
const bendRangeSemitones = 2

type Input struct {
	driver *rtmididrv.Driver
	in     drivers.In
	stop   func()
}

// Ports lists the names of the available MIDI input ports.
func Ports() ([]string, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("opening MIDI driver failed: %w", err)
	}
	defer driver.Close()
	ins, err := driver.Ins()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI inputs failed: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// Open connects the first MIDI input whose name starts with namePrefix
// to the synth. An empty prefix takes the first available port.
func Open(namePrefix string, synth vx7.Synth) (*Input, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("opening MIDI driver failed: %w", err)
	}
	ins, err := driver.Ins()
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("listing MIDI inputs failed: %w", err)
	}
	var in drivers.In
	for _, candidate := range ins {
		if namePrefix == "" || strings.HasPrefix(candidate.String(), namePrefix) {
			in = candidate
			break
		}
	}
	if in == nil {
		driver.Close()
		if namePrefix == "" {
			return nil, errors.New("no MIDI inputs available")
		}
		return nil, fmt.Errorf("no MIDI input starting with %q", namePrefix)
	}
	if err := in.Open(); err != nil {
		driver.Close()
		return nil, fmt.Errorf("opening MIDI input %q failed: %w", in.String(), err)
	}
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		handleMessage(synth, msg)
	})
	if err != nil {
		in.Close()
		driver.Close()
		return nil, fmt.Errorf("listening to MIDI input %q failed: %w", in.String(), err)
	}
	return &Input{driver: driver, in: in, stop: stop}, nil
}

// String returns the name of the open port.
func (i *Input) String() string { return i.in.String() }

func (i *Input) Close() error {
	i.stop()
	i.in.Close()
	return i.driver.Close()
}

func handleMessage(synth vx7.Synth, msg midi.Message) {
	var channel, key, velocity, controller, value uint8
	var relative int16
	var absolute uint16
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		synth.NoteOn(key, velocity)
	case msg.GetNoteEnd(&channel, &key):
		synth.NoteOff(key)
	case msg.GetPitchBend(&channel, &relative, &absolute):
		synth.PitchBend(float64(relative) / 8192 * bendRangeSemitones)
	case msg.GetControlChange(&channel, &controller, &value):
		switch controller {
		case 1: // mod wheel
			synth.ModWheel(float64(value) / 127)
		case 120: // all sound off
			synth.Panic()
		case 123: // all notes off
			synth.AllNotesOff()
		}
	}
}
