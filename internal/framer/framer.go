package framer

import (
	"encoding/binary"

	"github.com/charmbracelet/log"
)

// SOF is the fixed start-of-frame marker byte.
const SOF = 0xA5

// HeaderLen is the number of bytes covered by the CRC-8 header check
// (SOF, data_len lo/hi, seq, crc8).
const HeaderLen = 5

// MinFrameLen is the smallest possible total frame length (header +
// cmd_id + crc16, zero-length payload).
const MinFrameLen = 9

// MaxBufferLen bounds the framer's resync buffer: once exceeded, the
// oldest bytes are discarded down to the cap.
const MaxBufferLen = 64 * 1024

// Frame is one validated protocol packet: a command id and its raw
// payload bytes, tagged with the channel it arrived on.
type Frame struct {
	CmdID      uint16
	Payload    []byte
	ChannelTag string
}

// Framer is a byte-oriented resynchronizing frame scanner. It owns a
// single mutable byte buffer across calls for one channel; there is no
// per-bit state, so resynchronization always happens on byte boundaries.
type Framer struct {
	channelTag string
	logger     *log.Logger
	buf        []byte
}

// New creates a Framer for one channel. logger may be nil, in which case
// CRC-16 warnings are silently dropped.
func New(channelTag string, logger *log.Logger) *Framer {
	return &Framer{channelTag: channelTag, logger: logger}
}

// PushBits packs bits (each 0 or 1) into bytes MSB-first, 8 bits per
// byte, discarding any trailing 0..7 bits from this call, appends the
// resulting bytes to the channel's persistent buffer, and runs the scan
// loop to completion, returning every frame produced.
func (f *Framer) PushBits(bits []byte) []Frame {
	f.buf = append(f.buf, packBits(bits)...)
	if over := len(f.buf) - MaxBufferLen; over > 0 {
		f.buf = f.buf[over:]
	}
	return f.scan()
}

// packBits packs consecutive groups of 8 bits into bytes, MSB-first.
func packBits(bits []byte) []byte {
	n := len(bits) / 8
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		var b byte
		for j := 0; j < 8; j++ {
			b = (b << 1) | (bits[i*8+j] & 1)
		}
		out[i] = b
	}
	return out
}

// scan repeatedly tries to locate and validate a frame at the front of
// the buffer, dropping bytes on alignment/header failure and consuming
// complete frames (valid or CRC-16-invalid) as it goes. It stops when
// fewer than MinFrameLen bytes remain, or when a candidate frame's
// declared length has not fully arrived yet.
func (f *Framer) scan() []Frame {
	var frames []Frame

	for len(f.buf) >= MinFrameLen {
		if f.buf[0] != SOF {
			f.buf = f.buf[1:]
			continue
		}

		if crc8(f.buf[:HeaderLen-1]) != f.buf[HeaderLen-1] {
			f.buf = f.buf[1:]
			continue
		}

		dataLen := int(binary.LittleEndian.Uint16(f.buf[1:3]))
		total := MinFrameLen + dataLen

		if len(f.buf) < total {
			break // wait for more bytes; do not consume
		}

		gotCRC := binary.LittleEndian.Uint16(f.buf[total-2 : total])
		wantCRC := crc16(f.buf[:total-2])

		if gotCRC != wantCRC {
			if f.logger != nil {
				f.logger.Warn("crc-16 mismatch, dropping candidate frame", "chan", f.channelTag, "data_len", dataLen)
			}
			f.buf = f.buf[total:]
			continue
		}

		cmdID := binary.LittleEndian.Uint16(f.buf[5:7])
		payload := make([]byte, dataLen)
		copy(payload, f.buf[7:7+dataLen])

		frames = append(frames, Frame{CmdID: cmdID, Payload: payload, ChannelTag: f.channelTag})
		f.buf = f.buf[total:]
	}

	return frames
}
