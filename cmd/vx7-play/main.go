package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vx7synth/vx7"
	"github.com/vx7synth/vx7/engine"
	"github.com/vx7synth/vx7/midiin"
	"github.com/vx7synth/vx7/oto"
	"github.com/vx7synth/vx7/presets"
	"github.com/vx7synth/vx7/version"
)

const blockSize = 1024

func main() {
	list := flag.Bool("l", false, "List the factory presets and MIDI inputs, then exit.")
	presetFlag := flag.String("p", "0", "Factory preset to load, by index (0-31) or name.")
	patchFile := flag.String("f", "", "Load the patch from a YAML file instead of a factory preset.")
	rate := flag.Int("rate", 44100, "Sample rate in Hz.")
	midiFlag := flag.Bool("m", false, "Play live from a MIDI input instead of the demo phrase.")
	port := flag.String("port", "", "MIDI input port name prefix; empty takes the first port.")
	seconds := flag.Float64("t", 4, "Length of the rendered demo phrase in seconds.")
	wavOut := flag.String("w", "", "Render the demo phrase to a .wav file instead of playing.")
	rawOut := flag.String("r", "", "Render the demo phrase to a .raw float32 file instead of playing.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	versionFlag := flag.Bool("v", false, "Print version.")
	help := flag.Bool("h", false, "Show help.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	if *list {
		listEverything()
		os.Exit(0)
	}
	patch, err := loadPatch(*presetFlag, *patchFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	synth, err := engine.NewSynth(*rate, patch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create synth: %v\n", err)
		os.Exit(1)
	}
	switch {
	case *wavOut != "" || *rawOut != "":
		err = export(synth, *rate, *seconds, *wavOut, *rawOut, *pcm)
	case *midiFlag:
		err = playMIDI(synth, *rate, *port, patch.Name)
	default:
		err = playDemo(synth, *rate, *seconds, patch.Name)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func listEverything() {
	fmt.Println("Factory presets:")
	for i, name := range presets.Names() {
		fmt.Printf("  %2d  %s\n", i, name)
	}
	ports, err := midiin.Ports()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not list MIDI inputs: %v\n", err)
		return
	}
	fmt.Println("MIDI inputs:")
	for _, p := range ports {
		fmt.Printf("  %s\n", p)
	}
}

func loadPatch(preset, patchFile string) (vx7.Patch, error) {
	if patchFile != "" {
		contents, err := os.ReadFile(patchFile)
		if err != nil {
			return vx7.Patch{}, fmt.Errorf("could not read patch file %v: %v", patchFile, err)
		}
		var patch vx7.Patch
		if err := yaml.Unmarshal(contents, &patch); err != nil {
			return vx7.Patch{}, fmt.Errorf("could not parse patch file %v: %v", patchFile, err)
		}
		return patch.Clamped(), nil
	}
	if index, err := strconv.Atoi(preset); err == nil {
		return presets.ByIndex(index)
	}
	patch, ok := presets.ByName(preset)
	if !ok {
		return vx7.Patch{}, fmt.Errorf("no factory preset named %q, use -l to list them", preset)
	}
	return patch, nil
}

// demoPhrase queues a short rising phrase ending in a chord, so both
// single notes and the polyphony are audible.
func demoPhrase(synth vx7.Synth, rate int, renderAndWait func(frames int) error) error {
	notes := []byte{48, 52, 55, 60}
	step := rate / 4
	for _, note := range notes {
		synth.NoteOn(note, 100)
		if err := renderAndWait(step); err != nil {
			return err
		}
		synth.NoteOff(note)
	}
	for _, note := range notes {
		synth.NoteOn(note, 100)
	}
	return nil
}

func playDemo(synth *engine.Synth, rate int, seconds float64, name string) error {
	audioContext, err := oto.NewContext(rate)
	if err != nil {
		return fmt.Errorf("could not acquire audio context: %v", err)
	}
	defer audioContext.Close()
	output := audioContext.Output()
	defer output.Close()
	fmt.Printf("playing %s\n", name)

	buffer := make([]float32, blockSize)
	render := func(frames int) error {
		for frames > 0 {
			n := frames
			if n > blockSize {
				n = blockSize
			}
			if err := synth.Render(buffer[:n]); err != nil {
				return err
			}
			if err := output.WriteAudio(buffer[:n]); err != nil {
				return err
			}
			frames -= n
		}
		return nil
	}
	if err := demoPhrase(synth, rate, render); err != nil {
		return err
	}
	tail := int(seconds * float64(rate))
	if err := render(tail); err != nil {
		return err
	}
	synth.AllNotesOff()
	return render(rate / 2)
}

func playMIDI(synth *engine.Synth, rate int, port, name string) error {
	audioContext, err := oto.NewContext(rate)
	if err != nil {
		return fmt.Errorf("could not acquire audio context: %v", err)
	}
	defer audioContext.Close()
	output := audioContext.Output()
	defer output.Close()

	input, err := midiin.Open(port, synth)
	if err != nil {
		return err
	}
	defer input.Close()
	fmt.Printf("playing %s from %s, ctrl-c to quit\n", name, input)

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	buffer := make([]float32, blockSize)
	for {
		select {
		case <-interrupted:
			return nil
		default:
		}
		if err := synth.Render(buffer); err != nil {
			return err
		}
		if err := output.WriteAudio(buffer); err != nil {
			return err
		}
	}
}

func export(synth *engine.Synth, rate int, seconds float64, wavOut, rawOut string, pcm bool) error {
	var rendered []float32
	render := func(frames int) error {
		buffer, err := vx7.RenderFrames(synth, frames)
		if err != nil {
			return err
		}
		rendered = append(rendered, buffer...)
		return nil
	}
	if err := demoPhrase(synth, rate, render); err != nil {
		return err
	}
	if err := render(int(seconds * float64(rate))); err != nil {
		return err
	}
	if wavOut != "" {
		wav, err := vx7.Wav(rendered, rate, pcm)
		if err != nil {
			return fmt.Errorf("could not generate .wav file: %v", err)
		}
		if err := os.WriteFile(wavOut, wav, 0644); err != nil {
			return fmt.Errorf("could not write file %v: %v", wavOut, err)
		}
	}
	if rawOut != "" {
		raw, err := vx7.Raw(rendered, pcm)
		if err != nil {
			return fmt.Errorf("could not generate .raw file: %v", err)
		}
		if err := os.WriteFile(rawOut, raw, 0644); err != nil {
			return fmt.Errorf("could not write file %v: %v", rawOut, err)
		}
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Command line utility for playing the factory presets and patch files.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n  %s -p \"E.PIANO 1\"\n  %s -p 0 -w brass.wav\n  %s -m -port \"MyKeyboard\"\n",
		os.Args[0], os.Args[0], os.Args[0])
}
