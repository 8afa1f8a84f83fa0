package framer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCRC8Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var msg = rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "msg")
		assert.Equal(t, crc8(msg), crc8(msg))
	})
}

func TestCRC8DetectsSingleBitFlip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var msg = rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "msg")
		var byteIdx = rapid.IntRange(0, len(msg)-1).Draw(t, "byteIdx")
		var bit = rapid.IntRange(0, 7).Draw(t, "bit")

		var want = crc8(msg)

		var corrupted = append([]byte(nil), msg...)
		corrupted[byteIdx] ^= 1 << bit

		assert.NotEqual(t, want, crc8(corrupted), "single bit flip at byte %d bit %d went undetected", byteIdx, bit)
	})
}

func TestCRC16Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var msg = rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(t, "msg")
		assert.Equal(t, crc16(msg), crc16(msg))
	})
}

func TestCRC16DetectsSingleBitFlip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var msg = rapid.SliceOfN(rapid.Byte(), 1, 256).Draw(t, "msg")
		var byteIdx = rapid.IntRange(0, len(msg)-1).Draw(t, "byteIdx")
		var bit = rapid.IntRange(0, 7).Draw(t, "bit")

		var want = crc16(msg)

		var corrupted = append([]byte(nil), msg...)
		corrupted[byteIdx] ^= 1 << bit

		assert.NotEqual(t, want, crc16(corrupted), "single bit flip at byte %d bit %d went undetected", byteIdx, bit)
	})
}

func TestCRC8KnownInit(t *testing.T) {
	// CRC-8 of an empty message is just the init value run through zero
	// update rounds, i.e. the init value itself.
	assert.Equal(t, byte(crc8Init), crc8(nil))
}

func TestCRC16KnownInit(t *testing.T) {
	assert.Equal(t, uint16(crc16Init), crc16(nil))
}

// TestCRC8TableMatchesGeneratingPolynomial rebuilds the reflected
// CRC-8 table (polynomial 0x8C) from scratch and checks every one of
// the 256 entries against the shipped table, including the six that
// the commonly circulated reference table leaves unpopulated.
func TestCRC8TableMatchesGeneratingPolynomial(t *testing.T) {
	for i := 0; i < 256; i++ {
		c := byte(i)
		for b := 0; b < 8; b++ {
			if c&1 != 0 {
				c = (c >> 1) ^ 0x8C
			} else {
				c >>= 1
			}
		}
		assert.Equalf(t, c, crc8Table[i], "table entry %d diverges from the generating polynomial", i)
	}
}

// TestCRC16TableMatchesGeneratingPolynomial is the CRC-16 counterpart
// (polynomial 0x8408).
func TestCRC16TableMatchesGeneratingPolynomial(t *testing.T) {
	for i := 0; i < 256; i++ {
		c := uint16(i)
		for b := 0; b < 8; b++ {
			if c&1 != 0 {
				c = (c >> 1) ^ 0x8408
			} else {
				c >>= 1
			}
		}
		assert.Equalf(t, c, crc16Table[i], "table entry %d diverges from the generating polynomial", i)
	}
}
