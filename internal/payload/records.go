// Package payload implements the command-dispatched decoder that turns a
// framer.Frame's cmd_id and payload bytes into a typed, tagged Record.
package payload

// Point is one robot's arena position, in whatever integer units the
// link transmits (not geographic coordinates).
type Point struct {
	X, Y uint16
}

// Positions is the 0x0A01 record: one arena position per robot.
type Positions struct {
	Hero      Point
	Engineer  Point
	Infantry3 Point
	Infantry4 Point
	Aerial    Point
	Sentry    Point
}

// HPs is the 0x0A02 record: robot health points.
type HPs struct {
	Hero      uint16
	Engineer  uint16
	Infantry3 uint16
	Infantry4 uint16
	Reserved  uint16
	Sentry    uint16
}

// Ammo is the 0x0A03 record: remaining ammunition counts.
type Ammo struct {
	Hero      uint16
	Infantry3 uint16
	Infantry4 uint16
	Aerial    uint16
	Sentry    uint16
}

// Macro is the 0x0A04 record: economy and macro-control state.
type Macro struct {
	GoldRemaining uint16
	GoldTotal     uint16
	MacroBits     uint32
}

// Buff is one robot's buff block within a Buffs record.
type Buff struct {
	Recovery      uint8
	Cooling       uint16
	Defence       uint8
	Vulnerability uint8
	Attack        uint16
}

// Buffs is the 0x0A05 record: per-robot buffs plus the sentry's posture.
type Buffs struct {
	Hero          Buff
	Engineer      Buff
	Infantry3     Buff
	Infantry4     Buff
	Sentry        Buff
	SentryPosture uint8
}

// Key is the 0x0A06 record: a 6-byte game key, decoded as ASCII when
// every byte is printable, else rendered as lowercase hex.
type Key struct {
	Value string
}

// Unknown is the record for any cmd_id not in the known table: the raw
// payload, hex-encoded.
type Unknown struct {
	CmdID  uint16
	RawHex string
}

// Record is the tagged union returned by Parse. Exactly one of the
// typed fields is non-nil for a successful decode of a known command;
// Error is set (and the others left zero) when decoding failed.
type Record struct {
	Type string // "positions", "hps", "ammo", "macro", "buffs", "key", "unknown", "error"

	Positions *Positions
	HPs       *HPs
	Ammo      *Ammo
	Macro     *Macro
	Buffs     *Buffs
	Key       *Key
	Unknown   *Unknown

	Error string
}
