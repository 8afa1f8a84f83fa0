// Package radio defines the narrow interface the acquisition loop uses
// to pull IQ buffers from a physical or virtual radio front end. The
// core DSP/framer/payload packages never import this package; it
// exists only for the collaborators that sit above them.
package radio

import "context"

// Driver is the external collaborator that yields complex-baseband IQ
// buffers from a radio tuned to a center frequency. An empty slice with
// a nil error is a transient "no samples" condition, not an error; the
// acquisition loop simply continues. A non-nil error is persistent and
// surfaced to the caller.
type Driver interface {
	Open(ctx context.Context) error
	ReadSamples() ([]complex64, error)
	Close() error
}

// Settings is the subset of a configuration document's sdr_settings/
// device fields a Driver needs to open a physical front end.
type Settings struct {
	CenterFreqHz  float64
	SampleRateSPS int
	GainDB        float64
	BandwidthHz   float64 // optional, 0 if unspecified
	DeviceArgs    []string
}
