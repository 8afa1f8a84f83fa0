// Package dsp implements the per-channel digital signal processing chain:
// digital down-conversion, low-pass filtering, FM discrimination, RRC
// matched filtering, symbol sampling and 4-FSK slicing to bits.
package dsp

import "math"

// LowpassTaps is the fixed tap count for the LPF kernel (spec: 101-tap
// Hamming-windowed FIR).
const LowpassTaps = 101

// DesignLowpass builds a 101-tap Hamming-windowed low-pass FIR kernel.
//
// bandwidthHz is the target two-sided bandwidth; the cutoff used is
// bandwidthHz/2, normalized by the Nyquist rate (sampleRate/2). The
// result is real, symmetric, and normalized to unity gain at DC.
func DesignLowpass(sampleRate, bandwidthHz float64) []float64 {
	const n = LowpassTaps
	cutoffHz := bandwidthHz / 2
	fc := cutoffHz / sampleRate // fraction of sampling frequency; Nyquist = 0.5
	taps := make([]float64, n)
	center := 0.5 * float64(n-1)

	for j := 0; j < n; j++ {
		x := float64(j) - center
		var sinc float64
		if x == 0 {
			sinc = 2 * fc
		} else {
			sinc = math.Sin(2*math.Pi*fc*x) / (math.Pi * x)
		}
		taps[j] = sinc * hamming(n, j)
	}

	// Normalize for unity gain at DC.
	var sum float64
	for _, t := range taps {
		sum += t
	}
	for i := range taps {
		taps[i] /= sum
	}
	return taps
}

func hamming(size, j int) float64 {
	return 0.53836 - 0.46164*math.Cos((float64(j)*2*math.Pi)/float64(size-1))
}

// DesignRRC builds a root-raised-cosine matched-filter kernel of numTaps
// taps for a link running at sps samples per symbol, with roll-off alpha.
//
// Tap indexing follows: for odd numTaps, t ranges over
// {-M..+M}/sps with M = numTaps/2; for even numTaps, t ranges over
// {-M+0.5..M-0.5}/sps with M = numTaps/2. The kernel is sum-normalized.
func DesignRRC(sps float64, alpha float64, numTaps int) []float64 {
	taps := make([]float64, numTaps)
	m := numTaps / 2

	for k := 0; k < numTaps; k++ {
		var idx float64
		if numTaps%2 == 1 {
			idx = float64(k - m)
		} else {
			idx = float64(k-m) + 0.5
		}
		t := idx / sps
		taps[k] = rrcSample(t, alpha)
	}

	var sum float64
	for _, t := range taps {
		sum += t
	}
	for i := range taps {
		taps[i] /= sum
	}
	return taps
}

// rrcSample evaluates the closed-form root-raised-cosine impulse
// response at symbol-normalized time t for roll-off alpha, across its
// three analytic cases.
func rrcSample(t, alpha float64) float64 {
	switch {
	case t == 0:
		return 1 - alpha + 4*alpha/math.Pi
	case alpha != 0 && math.Abs(t) == 1/(4*alpha):
		return (alpha / math.Sqrt2) * ((1+2/math.Pi)*math.Sin(math.Pi/(4*alpha)) + (1-2/math.Pi)*math.Cos(math.Pi/(4*alpha)))
	default:
		num := math.Sin(math.Pi*t*(1-alpha)) + 4*alpha*t*math.Cos(math.Pi*t*(1+alpha))
		den := math.Pi * t * (1 - math.Pow(4*alpha*t, 2))
		return num / den
	}
}
