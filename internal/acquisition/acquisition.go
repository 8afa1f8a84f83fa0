// Package acquisition runs the top-level receive loop: pull IQ buffers
// from a radio.Driver, fan each buffer through every configured
// channel's DSP/framer/payload pipeline, and forward the resulting
// records to the reclog and feed sinks: audio in, demodulators out,
// generalized to a multi-channel, multi-sink pipeline with no hidden
// globals. All state lives in the Loop and its Channels.
package acquisition

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/radarwolf/rmfsk/internal/dsp"
	"github.com/radarwolf/rmfsk/internal/feed"
	"github.com/radarwolf/rmfsk/internal/framer"
	"github.com/radarwolf/rmfsk/internal/indicator"
	"github.com/radarwolf/rmfsk/internal/payload"
	"github.com/radarwolf/rmfsk/internal/radio"
	"github.com/radarwolf/rmfsk/internal/reclog"
)

// channelSamplesBuffer bounds how many IQ buffers a channel worker may
// lag behind the acquisition source before the loop blocks on it.
const channelSamplesBuffer = 4

// Channel is one receive channel's configuration: its frequency offset
// from the tuned center and an optional GPIO lock indicator.
type Channel struct {
	Tag          string
	FreqOffsetHz float64
	DSP          dsp.Channel
	Indicator    *indicator.Line
}

// Sinks groups the places a decoded record is forwarded to. Either may
// be nil to disable that sink.
type Sinks struct {
	Reclog *reclog.Logger
	Feed   *feed.Server
}

// Loop drives one radio.Driver across a fixed set of Channels until
// its context is canceled.
type Loop struct {
	driver   radio.Driver
	channels []Channel
	sinks    Sinks
	logger   *log.Logger
}

// New builds a Loop over driver and channels, forwarding records to
// sinks and logging through logger.
func New(driver radio.Driver, channels []Channel, sinks Sinks, logger *log.Logger) *Loop {
	return &Loop{driver: driver, channels: channels, sinks: sinks, logger: logger}
}

// Run opens the driver, starts one worker goroutine per channel, and
// pumps IQ buffers to every worker until ctx is canceled or the driver
// returns a persistent error.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.driver.Open(ctx); err != nil {
		return fmt.Errorf("acquisition: open driver: %w", err)
	}
	defer func() {
		if err := l.driver.Close(); err != nil {
			l.logger.Error("acquisition: closing driver", "err", err)
		}
	}()

	feeds := make([]chan []complex64, len(l.channels))
	done := make(chan struct{}, len(l.channels))

	for i, ch := range l.channels {
		feeds[i] = make(chan []complex64, channelSamplesBuffer)
		go func(ch Channel, samples <-chan []complex64) {
			l.runChannel(ctx, ch, samples)
			done <- struct{}{}
		}(ch, feeds[i])
	}

	defer func() {
		for _, f := range feeds {
			close(f)
		}
		for range l.channels {
			<-done
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		iq, err := l.driver.ReadSamples()
		if err != nil {
			return fmt.Errorf("acquisition: read samples: %w", err)
		}
		if len(iq) == 0 {
			continue
		}

		for _, f := range feeds {
			select {
			case f <- iq:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// runChannel processes one channel's IQ buffers in order, preserving
// per-channel in-order byte delivery to its framer even though
// channels run concurrently with each other.
func (l *Loop) runChannel(ctx context.Context, ch Channel, samples <-chan []complex64) {
	fr := framer.New(ch.Tag, l.logger)

	for {
		select {
		case iq, ok := <-samples:
			if !ok {
				return
			}
			bits := ch.DSP.Process(iq, ch.FreqOffsetHz)
			frames := fr.PushBits(bits)

			for _, f := range frames {
				l.handleFrame(ch, f)
			}

			if ch.Indicator != nil {
				if err := ch.Indicator.SetLocked(len(frames) > 0); err != nil {
					l.logger.Warn("acquisition: indicator update failed", "chan", ch.Tag, "err", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (l *Loop) handleFrame(ch Channel, f framer.Frame) {
	rec := payload.Parse(f.CmdID, f.Payload)
	now := time.Now()

	if l.sinks.Reclog != nil {
		if err := l.sinks.Reclog.Write(now, ch.Tag, f.CmdID, rec); err != nil {
			l.logger.Warn("acquisition: reclog write failed", "chan", ch.Tag, "err", err)
		}
	}

	if l.sinks.Feed != nil {
		env := feed.Envelope{Time: now, ChannelTag: ch.Tag, CmdID: f.CmdID, Record: rec}
		if err := l.sinks.Feed.Publish(env); err != nil {
			l.logger.Warn("acquisition: feed publish failed", "chan", ch.Tag, "err", err)
		}
	}

	if rec.Type == "error" {
		l.logger.Debug("acquisition: payload decode error", "chan", ch.Tag, "cmd_id", fmt.Sprintf("0x%04X", f.CmdID), "err", rec.Error, "payload", hex.EncodeToString(f.Payload))
	}
}
