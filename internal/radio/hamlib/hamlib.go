// Package hamlib tunes a physical rig's center frequency and RF gain via
// github.com/xylo04/goHamlib before IQ samples start flowing, then
// delegates actual sample capture to a wrapped radio.Driver (typically
// soundcard.Driver).
package hamlib

import (
	"context"
	"fmt"

	"github.com/xylo04/goHamlib"

	"github.com/radarwolf/rmfsk/internal/radio"
)

// Driver tunes a rig on Open and otherwise behaves exactly like the
// radio.Driver it wraps.
type Driver struct {
	modelID  int
	devPath  string
	settings radio.Settings
	wrapped  radio.Driver

	rig goHamlib.Rig
}

// New wraps an existing radio.Driver (the thing that actually yields IQ
// samples) with rig tuning for the given Hamlib model ID and device
// path, typically sourced from a configuration document's
// device.driver/device.args.
func New(modelID int, devPath string, settings radio.Settings, wrapped radio.Driver) *Driver {
	return &Driver{modelID: modelID, devPath: devPath, settings: settings, wrapped: wrapped}
}

func (d *Driver) Open(ctx context.Context) error {
	rig := goHamlib.RigInit(d.modelID)
	rig.SetConf("rig_pathname", d.devPath)

	if err := rig.Open(); err != nil {
		return fmt.Errorf("hamlib: opening rig model %d on %s: %w", d.modelID, d.devPath, err)
	}

	if err := rig.SetFreq(goHamlib.VFOCurr, d.settings.CenterFreqHz); err != nil {
		_ = rig.Close()
		return fmt.Errorf("hamlib: set frequency %.0fHz: %w", d.settings.CenterFreqHz, err)
	}

	if err := rig.SetLevel(goHamlib.LevelRF, float32(d.settings.GainDB)); err != nil {
		_ = rig.Close()
		return fmt.Errorf("hamlib: set gain %.1fdB: %w", d.settings.GainDB, err)
	}

	d.rig = rig

	return d.wrapped.Open(ctx)
}

func (d *Driver) ReadSamples() ([]complex64, error) {
	return d.wrapped.ReadSamples()
}

func (d *Driver) Close() error {
	wrapErr := d.wrapped.Close()
	rigErr := d.rig.Close()
	if wrapErr != nil {
		return wrapErr
	}
	return rigErr
}
