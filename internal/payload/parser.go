package payload

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

const (
	cmdPositions uint16 = 0x0A01
	cmdHPs       uint16 = 0x0A02
	cmdAmmo      uint16 = 0x0A03
	cmdMacro     uint16 = 0x0A04
	cmdBuffs     uint16 = 0x0A05
	cmdKey       uint16 = 0x0A06
)

// decoder is one entry of the cmd_id -> layout dispatch table: it
// validates the minimum length itself isn't its job (Parse does that
// centrally from minLen) and only has to decode a payload known to be
// long enough.
type decoder func(payload []byte) Record

type commandSpec struct {
	minLen int
	decode decoder
}

var commands = map[uint16]commandSpec{
	cmdPositions: {minLen: 24, decode: decodePositions},
	cmdHPs:       {minLen: 12, decode: decodeHPs},
	cmdAmmo:      {minLen: 10, decode: decodeAmmo},
	cmdMacro:     {minLen: 8, decode: decodeMacro},
	cmdBuffs:     {minLen: 36, decode: decodeBuffs},
	cmdKey:       {minLen: 6, decode: decodeKey},
}

// Parse interprets a frame's payload according to its cmd_id. A
// payload shorter than the command's minimum length yields an Error
// record; an unrecognized cmd_id yields an Unknown record carrying the
// raw hex payload.
func Parse(cmdID uint16, pl []byte) Record {
	spec, known := commands[cmdID]
	if !known {
		return Record{
			Type:    "unknown",
			Unknown: &Unknown{CmdID: cmdID, RawHex: hex.EncodeToString(pl)},
		}
	}

	if len(pl) < spec.minLen {
		return Record{
			Type:  "error",
			Error: fmt.Sprintf("payload too short (0x%04X)", cmdID),
		}
	}

	return spec.decode(pl)
}

func decodePositions(pl []byte) Record {
	u := le16Reader(pl)
	return Record{
		Type: "positions",
		Positions: &Positions{
			Hero:      Point{X: u(0), Y: u(1)},
			Engineer:  Point{X: u(2), Y: u(3)},
			Infantry3: Point{X: u(4), Y: u(5)},
			Infantry4: Point{X: u(6), Y: u(7)},
			Aerial:    Point{X: u(8), Y: u(9)},
			Sentry:    Point{X: u(10), Y: u(11)},
		},
	}
}

func decodeHPs(pl []byte) Record {
	u := le16Reader(pl)
	return Record{
		Type: "hps",
		HPs: &HPs{
			Hero:      u(0),
			Engineer:  u(1),
			Infantry3: u(2),
			Infantry4: u(3),
			Reserved:  u(4),
			Sentry:    u(5),
		},
	}
}

func decodeAmmo(pl []byte) Record {
	u := le16Reader(pl)
	return Record{
		Type: "ammo",
		Ammo: &Ammo{
			Hero:      u(0),
			Infantry3: u(1),
			Infantry4: u(2),
			Aerial:    u(3),
			Sentry:    u(4),
		},
	}
}

func decodeMacro(pl []byte) Record {
	return Record{
		Type: "macro",
		Macro: &Macro{
			GoldRemaining: binary.LittleEndian.Uint16(pl[0:2]),
			GoldTotal:     binary.LittleEndian.Uint16(pl[2:4]),
			MacroBits:     binary.LittleEndian.Uint32(pl[4:8]),
		},
	}
}

// buffBlockLen is the per-robot buff block size: recovery(1) +
// cooling(2) + defence(1) + vulnerability(1) + attack(2).
const buffBlockLen = 7

func decodeBuffs(pl []byte) Record {
	readBuff := func(off int) Buff {
		b := pl[off : off+buffBlockLen]
		return Buff{
			Recovery:      b[0],
			Cooling:       binary.LittleEndian.Uint16(b[1:3]),
			Defence:       b[3],
			Vulnerability: b[4],
			Attack:        binary.LittleEndian.Uint16(b[5:7]),
		}
	}

	return Record{
		Type: "buffs",
		Buffs: &Buffs{
			Hero:          readBuff(0 * buffBlockLen),
			Engineer:      readBuff(1 * buffBlockLen),
			Infantry3:     readBuff(2 * buffBlockLen),
			Infantry4:     readBuff(3 * buffBlockLen),
			Sentry:        readBuff(4 * buffBlockLen),
			SentryPosture: pl[35],
		},
	}
}

func decodeKey(pl []byte) Record {
	key := pl[:6]
	if isPrintableASCII(key) {
		return Record{Type: "key", Key: &Key{Value: string(key)}}
	}
	return Record{Type: "key", Key: &Key{Value: hex.EncodeToString(key)}}
}

func isPrintableASCII(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// le16Reader returns a function that reads the n'th little-endian
// uint16 out of pl, to keep the u16[k] layouts above terse.
func le16Reader(pl []byte) func(n int) uint16 {
	return func(n int) uint16 {
		return binary.LittleEndian.Uint16(pl[n*2 : n*2+2])
	}
}
