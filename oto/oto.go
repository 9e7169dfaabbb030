// Package oto outputs audio through the ebitengine/oto/v3 library. The
// oto player pulls from an io.Reader, while the synth side pushes
// rendered blocks, so the output buffers the pushed audio in a channel
// of byte chunks and the player's read side drains it, substituting
// silence when the producer falls behind.
package oto

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/vx7synth/vx7"
)

// chunkQueueSize bounds how far the producer may run ahead of
// playback, in blocks. A full queue blocks WriteAudio, which paces an
// offline renderer to real time.
const chunkQueueSize = 16

type OtoContext struct {
	ctx        *oto.Context
	sampleRate int
}

type OtoOutput struct {
	player  *oto.Player
	chunks  chan []byte
	pending []byte
	closed  bool
}

// NewContext opens the system audio device for mono float32 output at
// the given sample rate.
func NewContext(sampleRate int) (*OtoContext, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{ctx: ctx, sampleRate: sampleRate}, nil
}

func (c *OtoContext) Output() vx7.AudioSink {
	o := &OtoOutput{chunks: make(chan []byte, chunkQueueSize)}
	o.player = c.ctx.NewPlayer(o)
	o.player.Play()
	return o
}

func (c *OtoContext) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// WriteAudio queues a rendered block for playback. It blocks while the
// queue is full and must not be called after Close.
func (o *OtoOutput) WriteAudio(buffer []float32) error {
	if o.closed {
		return fmt.Errorf("cannot write to closed output")
	}
	o.chunks <- floatBufferToBytes(buffer)
	return nil
}

// Read hands queued audio to the oto player. When no block is ready it
// returns silence rather than blocking the audio thread.
func (o *OtoOutput) Read(p []byte) (int, error) {
	for len(o.pending) == 0 {
		select {
		case chunk, ok := <-o.chunks:
			if !ok {
				return 0, io.EOF
			}
			o.pending = chunk
		default:
			for i := range p {
				p[i] = 0
			}
			return len(p), nil
		}
	}
	n := copy(p, o.pending)
	o.pending = o.pending[n:]
	return n, nil
}

// Close drains the queued audio, then stops the player.
func (o *OtoOutput) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	close(o.chunks)
	for o.player.IsPlaying() {
		time.Sleep(time.Millisecond)
	}
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
