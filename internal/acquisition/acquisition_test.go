package acquisition

import (
	"context"
	"encoding/binary"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radarwolf/rmfsk/internal/dsp"
	"github.com/radarwolf/rmfsk/internal/reclog"
)

// fskModulate synthesizes a baseband IQ buffer whose instantaneous
// frequency steps through the 4-FSK levels implied by bits, two bits
// (one dibit) per symbol, at the given sample rate and symbols/sec.
func fskModulate(bits []byte, sampleRate, symbolRate, deviationHz float64) []complex64 {
	sps := int(math.Round(sampleRate / symbolRate))
	levels := map[[2]byte]float64{{0, 0}: -3, {0, 1}: -1, {1, 0}: 1, {1, 1}: 3}

	var out []complex64
	phase := 0.0
	for i := 0; i+1 < len(bits); i += 2 {
		freq := levels[[2]byte{bits[i], bits[i+1]}] * deviationHz
		w := 2 * math.Pi * freq / sampleRate
		for n := 0; n < sps; n++ {
			phase += w
			out = append(out, complex64(complex(math.Cos(phase), math.Sin(phase))))
		}
	}
	return out
}

func encodeWireFrame(seq byte, cmdID uint16, payload []byte) []byte {
	buf := make([]byte, 5, 5+2+len(payload)+2)
	buf[0] = 0xA5
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(payload)))
	buf[3] = seq
	buf[4] = crc8ForTest(buf[:4])

	cmdBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(cmdBuf, cmdID)
	buf = append(buf, cmdBuf...)
	buf = append(buf, payload...)

	crcBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(crcBuf, crc16ForTest(buf))
	return append(buf, crcBuf...)
}

func bitsOf(data []byte) []byte {
	bits := make([]byte, 0, 8*len(data))
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>uint(i))&1)
		}
	}
	return bits
}

// fixedSamplesDriver yields one fixed IQ buffer, then an empty
// "no samples" read about once a millisecond until the loop stops,
// simulating a radio.Driver for an acquisition test without real
// hardware.
type fixedSamplesDriver struct {
	buf  []complex64
	sent bool
}

func (d *fixedSamplesDriver) Open(ctx context.Context) error { return nil }
func (d *fixedSamplesDriver) Close() error                    { return nil }
func (d *fixedSamplesDriver) ReadSamples() ([]complex64, error) {
	if !d.sent {
		d.sent = true
		return d.buf, nil
	}
	time.Sleep(time.Millisecond)
	return nil, nil
}

func TestLoopDecodesOneChannelEndToEnd(t *testing.T) {
	const sampleRate = 2_000_000.0
	const symbolRate = 50_000.0
	const deviationHz = 37_500.0

	wire := encodeWireFrame(1, 0x0A06, []byte("HI1234"))
	bits := bitsOf(wire)
	iq := fskModulate(bits, sampleRate, symbolRate, deviationHz)

	kernels := dsp.Kernels{
		Lowpass: dsp.DesignLowpass(sampleRate, 40000),
		RRC:     dsp.DesignRRC(sampleRate/symbolRate, 0.35, 81),
	}
	ch, err := dsp.NewChannel(sampleRate, symbolRate, deviationHz, kernels)
	require.NoError(t, err)

	driver := &fixedSamplesDriver{buf: iq}
	logger := log.New(io.Discard)

	recPath := filepath.Join(t.TempDir(), "records.csv")
	rl, err := reclog.New(false, recPath)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	loop := New(driver, []Channel{{Tag: "broadcast", FreqOffsetHz: 0, DSP: ch}}, Sinks{Reclog: rl}, logger)

	err = loop.Run(ctx)
	assert.NoError(t, err)
	require.NoError(t, rl.Close())

	f, err := os.Open(recPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "broadcast", rows[0][1])
	assert.Equal(t, "key", rows[0][3])
	assert.Equal(t, "HI1234", rows[0][4])
}

// crc8ForTest and crc16ForTest are bitwise reference implementations of
// the wire CRCs (reflected polynomials 0x8C and 0x8408), used here to
// build a valid test frame without reaching into the framer package's
// unexported lookup tables.
func crc8ForTest(msg []byte) byte {
	uc := byte(0xFF)
	for _, b := range msg {
		uc ^= b
		for i := 0; i < 8; i++ {
			if uc&1 != 0 {
				uc = (uc >> 1) ^ 0x8C
			} else {
				uc >>= 1
			}
		}
	}
	return uc
}

func crc16ForTest(msg []byte) uint16 {
	w := uint16(0xFFFF)
	for _, b := range msg {
		w ^= uint16(b)
		for i := 0; i < 8; i++ {
			if w&1 != 0 {
				w = (w >> 1) ^ 0x8408
			} else {
				w >>= 1
			}
		}
	}
	return w
}
