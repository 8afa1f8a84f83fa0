package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDesignLowpassSymmetricAndUnityDC(t *testing.T) {
	taps := DesignLowpass(48000, 8000)
	require := assert.New(t)
	require.Len(taps, LowpassTaps)

	for i := 0; i < len(taps); i++ {
		require.InDelta(taps[i], taps[len(taps)-1-i], 1e-9, "tap %d not symmetric", i)
	}

	var sum float64
	for _, v := range taps {
		sum += v
	}
	require.InDelta(1.0, sum, 1e-9, "lowpass kernel should sum to unity DC gain")
}

func TestDesignRRCOddTapsSymmetricAndSumNormalized(t *testing.T) {
	taps := DesignRRC(8, 0.35, 81)
	a := assert.New(t)
	a.Len(taps, 81)

	for i := 0; i < len(taps); i++ {
		a.InDelta(taps[i], taps[len(taps)-1-i], 1e-9, "tap %d not symmetric", i)
	}

	var sum float64
	for _, v := range taps {
		sum += v
	}
	a.InDelta(1.0, sum, 1e-6)
}

func TestDesignRRCEvenTapsSymmetric(t *testing.T) {
	taps := DesignRRC(8, 0.35, 80)
	a := assert.New(t)
	a.Len(taps, 80)
	for i := 0; i < len(taps); i++ {
		a.InDelta(taps[i], taps[len(taps)-1-i], 1e-9, "tap %d not symmetric", i)
	}
}

func TestRRCSampleAtOriginMatchesClosedForm(t *testing.T) {
	alpha := 0.25
	got := rrcSample(0, alpha)
	want := 1 - alpha + 4*alpha/math.Pi
	assert.InDelta(t, want, got, 1e-12)
}

func TestRRCSampleAtSingularityMatchesClosedForm(t *testing.T) {
	alpha := 0.25
	t0 := 1 / (4 * alpha)
	got := rrcSample(t0, alpha)
	want := (alpha / math.Sqrt2) * ((1+2/math.Pi)*math.Sin(math.Pi/(4*alpha)) + (1-2/math.Pi)*math.Cos(math.Pi/(4*alpha)))
	assert.InDelta(t, want, got, 1e-12)
}
