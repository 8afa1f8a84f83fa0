package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositionsTooShortPayload(t *testing.T) {
	// Seven bytes against the 24-byte minimum for a positions payload.
	rec := Parse(cmdPositions, make([]byte, 7))
	assert.Equal(t, "error", rec.Type)
	assert.Equal(t, "payload too short (0x0A01)", rec.Error)
}

func TestParseHPsAllHundred(t *testing.T) {
	pl := []byte{0x64, 0x00, 0x64, 0x00, 0x64, 0x00, 0x64, 0x00, 0x00, 0x00, 0x64, 0x00}
	rec := Parse(cmdHPs, pl)
	require.Equal(t, "hps", rec.Type)
	require.NotNil(t, rec.HPs)
	assert.Equal(t, HPs{Hero: 100, Engineer: 100, Infantry3: 100, Infantry4: 100, Reserved: 0, Sentry: 100}, *rec.HPs)
}

func TestParseKeyASCII(t *testing.T) {
	rec := Parse(cmdKey, []byte{0x48, 0x49, 0x31, 0x32, 0x33, 0x34})
	require.Equal(t, "key", rec.Type)
	assert.Equal(t, "HI1234", rec.Key.Value)
}

func TestParseKeyNonASCIIFallsBackToHex(t *testing.T) {
	rec := Parse(cmdKey, []byte{0xFF, 0xFE, 0x01, 0x02, 0x03, 0x04})
	require.Equal(t, "key", rec.Type)
	assert.Equal(t, "fffe01020304", rec.Key.Value)
}

func TestParseUnknownCmdIDHexEncodesPayload(t *testing.T) {
	rec := Parse(0xBEEF, []byte{0x01, 0x02, 0x03})
	require.Equal(t, "unknown", rec.Type)
	assert.Equal(t, uint16(0xBEEF), rec.Unknown.CmdID)
	assert.Equal(t, "010203", rec.Unknown.RawHex)
}

func TestParseAmmo(t *testing.T) {
	pl := []byte{
		0x0A, 0x00, // hero
		0x14, 0x00, // infantry3
		0x1E, 0x00, // infantry4
		0x28, 0x00, // aerial
		0x32, 0x00, // sentry
	}
	rec := Parse(cmdAmmo, pl)
	require.Equal(t, "ammo", rec.Type)
	assert.Equal(t, Ammo{Hero: 10, Infantry3: 20, Infantry4: 30, Aerial: 40, Sentry: 50}, *rec.Ammo)
}

func TestParseMacro(t *testing.T) {
	pl := []byte{0xE8, 0x03, 0x10, 0x27, 0x01, 0x00, 0x00, 0x80}
	rec := Parse(cmdMacro, pl)
	require.Equal(t, "macro", rec.Type)
	assert.Equal(t, uint16(1000), rec.Macro.GoldRemaining)
	assert.Equal(t, uint16(10000), rec.Macro.GoldTotal)
	assert.Equal(t, uint32(0x80000001), rec.Macro.MacroBits)
}

func TestParseBuffsSentryPostureAtByte35(t *testing.T) {
	pl := make([]byte, 36)
	pl[35] = 2 // standing, say
	// Hero block is the first 7 bytes; set a distinguishing value.
	pl[0] = 5 // recovery
	rec := Parse(cmdBuffs, pl)
	require.Equal(t, "buffs", rec.Type)
	assert.Equal(t, uint8(5), rec.Buffs.Hero.Recovery)
	assert.Equal(t, uint8(2), rec.Buffs.SentryPosture)
}
