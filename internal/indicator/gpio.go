// Package indicator drives a GPIO line that reflects a channel's frame
// lock state, a front-panel LED or logic-analyzer trigger showing
// hardware when the framer is byte-aligned and decoding.
package indicator

import "github.com/warthog618/go-gpiocdev"

// Line is a single channel-lock indicator. A nil *Line is a valid
// no-op, so headless or CI runs don't need real GPIO hardware.
type Line struct {
	line *gpiocdev.Line
	// locked tracks the last value written, so repeated identical
	// updates don't touch the kernel line.
	locked bool
	armed  bool
}

// Open requests offset on chip as an output line, initially low
// (unlocked).
func Open(chip string, offset int) (*Line, error) {
	l, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return &Line{line: l, armed: true}, nil
}

// SetLocked updates the indicator to reflect whether the framer's most
// recent scan produced a frame (locked) or only dropped resync bytes
// (unlocked). A nil Line is a no-op.
func (l *Line) SetLocked(locked bool) error {
	if l == nil || !l.armed || locked == l.locked {
		return nil
	}
	l.locked = locked
	v := 0
	if locked {
		v = 1
	}
	return l.line.SetValue(v)
}

// Close releases the underlying GPIO line. A nil Line is a no-op.
func (l *Line) Close() error {
	if l == nil || !l.armed {
		return nil
	}
	return l.line.Close()
}
