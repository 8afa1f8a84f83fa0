// Package reclog saves parsed payload.Records as CSV rows, one row per
// decoded radar packet. Supports either a fixed log file or
// strftime-named daily files that roll over at midnight.
package reclog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/radarwolf/rmfsk/internal/payload"
)

// dailyPattern is the strftime pattern used when daily naming is
// enabled.
const dailyPattern = "%Y%m%d.rmradar.log"

// Logger appends decoded records to a CSV file, opening a new file
// when the day rolls over if daily naming is enabled.
type Logger struct {
	dailyNames bool
	dir        string
	fixedPath  string

	openName string
	file     *os.File
	w        *csv.Writer
}

// New creates a Logger. When dailyNames is true, path is treated as a
// directory and one file per day is created inside it, named per
// dailyPattern; otherwise path is the single fixed log file.
func New(dailyNames bool, path string) (*Logger, error) {
	if dailyNames {
		return &Logger{dailyNames: true, dir: path}, nil
	}
	return &Logger{fixedPath: path}, nil
}

// Write appends one record as a CSV row: timestamp, channel tag,
// cmd_id, record type, and a type-specific summary field.
func (l *Logger) Write(ts time.Time, channelTag string, cmdID uint16, rec payload.Record) error {
	if err := l.ensureOpen(ts); err != nil {
		return err
	}

	row := []string{
		ts.UTC().Format(time.RFC3339Nano),
		channelTag,
		fmt.Sprintf("0x%04X", cmdID),
		rec.Type,
		summarize(rec),
	}

	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("reclog: writing row: %w", err)
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *Logger) ensureOpen(ts time.Time) error {
	name := l.fixedPath
	if l.dailyNames {
		formatted, err := strftime.Format(dailyPattern, ts)
		if err != nil {
			return fmt.Errorf("reclog: formatting daily name: %w", err)
		}
		name = filepath.Join(l.dir, formatted)
	}

	if name == l.openName && l.file != nil {
		return nil
	}

	if l.file != nil {
		l.w.Flush()
		_ = l.file.Close()
	}

	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("reclog: opening %s: %w", name, err)
	}

	l.file = f
	l.w = csv.NewWriter(f)
	l.openName = name
	return nil
}

// Close flushes and closes the currently open log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	l.w.Flush()
	return l.file.Close()
}

func summarize(rec payload.Record) string {
	switch rec.Type {
	case "positions":
		p := rec.Positions
		return fmt.Sprintf("hero=(%d,%d) engineer=(%d,%d) inf3=(%d,%d) inf4=(%d,%d) aerial=(%d,%d) sentry=(%d,%d)",
			p.Hero.X, p.Hero.Y, p.Engineer.X, p.Engineer.Y, p.Infantry3.X, p.Infantry3.Y,
			p.Infantry4.X, p.Infantry4.Y, p.Aerial.X, p.Aerial.Y, p.Sentry.X, p.Sentry.Y)
	case "hps":
		h := rec.HPs
		return fmt.Sprintf("hero=%d engineer=%d inf3=%d inf4=%d sentry=%d", h.Hero, h.Engineer, h.Infantry3, h.Infantry4, h.Sentry)
	case "ammo":
		a := rec.Ammo
		return fmt.Sprintf("hero=%d inf3=%d inf4=%d aerial=%d sentry=%d", a.Hero, a.Infantry3, a.Infantry4, a.Aerial, a.Sentry)
	case "macro":
		m := rec.Macro
		return fmt.Sprintf("gold=%d/%d macro_bits=0x%08X", m.GoldRemaining, m.GoldTotal, m.MacroBits)
	case "buffs":
		b := rec.Buffs
		return fmt.Sprintf("hero=%s engineer=%s inf3=%s inf4=%s sentry=%s posture=%d",
			summarizeBuff(b.Hero), summarizeBuff(b.Engineer), summarizeBuff(b.Infantry3),
			summarizeBuff(b.Infantry4), summarizeBuff(b.Sentry), b.SentryPosture)
	case "key":
		return rec.Key.Value
	case "unknown":
		return rec.Unknown.RawHex
	case "error":
		return rec.Error
	default:
		return ""
	}
}

func summarizeBuff(b payload.Buff) string {
	return fmt.Sprintf("recovery=%d cooling=%d defence=%d vuln=%d attack=%d", b.Recovery, b.Cooling, b.Defence, b.Vulnerability, b.Attack)
}
