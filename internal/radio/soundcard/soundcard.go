// Package soundcard implements radio.Driver over an analog I/Q pair
// carried on a stereo audio interface (I on the left channel, Q on the
// right) — the arrangement used by cheap front ends such as a Funcube
// Dongle or an SSB receiver's discriminator output, captured the same
// way any sound-card-based packet modem moves audio in and out of
// OSS/ALSA.
package soundcard

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/radarwolf/rmfsk/internal/radio"
)

// Driver reads interleaved stereo float32 frames from the default input
// device and repacks each (I, Q) pair into one complex64 sample.
type Driver struct {
	settings radio.Settings
	stream   *portaudio.Stream
	buf      []float32 // interleaved L/R, length 2*framesPerBuffer
}

// New creates a Driver for the given settings. framesPerBuffer caps how
// many complex samples ReadSamples returns per call.
func New(settings radio.Settings, framesPerBuffer int) *Driver {
	return &Driver{
		settings: settings,
		buf:      make([]float32, 2*framesPerBuffer),
	}
}

func (d *Driver) Open(ctx context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("soundcard: initialize: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(
		2, 0, // 2 input channels (I/Q), no output
		float64(d.settings.SampleRateSPS),
		len(d.buf)/2,
		d.buf,
	)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("soundcard: open default stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("soundcard: start stream: %w", err)
	}

	d.stream = stream
	return nil
}

// ReadSamples blocks for one buffer of audio and repacks it into IQ
// samples. An input overflow (portaudio.InputOverflowed) surfaces as a
// transient empty read, not an error, matching radio.Driver's
// "no samples" non-error condition.
func (d *Driver) ReadSamples() ([]complex64, error) {
	if err := d.stream.Read(); err != nil {
		if err == portaudio.InputOverflowed {
			return nil, nil
		}
		return nil, fmt.Errorf("soundcard: read: %w", err)
	}

	out := make([]complex64, len(d.buf)/2)
	for i := range out {
		out[i] = complex(d.buf[2*i], d.buf[2*i+1])
	}
	return out, nil
}

func (d *Driver) Close() error {
	if d.stream == nil {
		return nil
	}
	stopErr := d.stream.Stop()
	closeErr := d.stream.Close()
	termErr := portaudio.Terminate()
	switch {
	case stopErr != nil:
		return fmt.Errorf("soundcard: stop: %w", stopErr)
	case closeErr != nil:
		return fmt.Errorf("soundcard: close: %w", closeErr)
	case termErr != nil:
		return fmt.Errorf("soundcard: terminate: %w", termErr)
	default:
		return nil
	}
}
