package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// fskLevels are the nominal 4-FSK instantaneous-frequency levels as
// multiples of scale, in the fixed dibit order:
// -3 -> 00, -1 -> 01, +1 -> 10, +3 -> 11.
var fskLevels = [4]float64{-3, -1, 1, 3}

// Kernels holds the immutable LPF and RRC FIR kernels shared by every
// Channel Processor call. Built once at startup by DesignLowpass and
// DesignRRC and never mutated afterward.
type Kernels struct {
	Lowpass []float64
	RRC     []float64
}

// GroupDelay returns the combined group delay, in samples, of the two
// linear-phase FIRs applied back to back: (len(LPF)-1)/2 + (len(RRC)-1)/2.
func (k Kernels) GroupDelay() int {
	return (len(k.Lowpass)-1)/2 + (len(k.RRC)-1)/2
}

// Channel holds the static configuration for one narrow-band 4-RRC-FSK
// channel. It carries no per-call mutable state: every Process call is a
// pure function of its inputs and the shared Kernels.
type Channel struct {
	SampleRate    float64
	SamplesPerSym int
	DeviationHz   float64
	Kernels       Kernels
}

// NewChannel derives samplesPerSym = round(sampleRate/symbolRate) and
// validates it is at least 2.
func NewChannel(sampleRate, symbolRate, deviationHz float64, k Kernels) (Channel, error) {
	sps := int(math.Round(sampleRate / symbolRate))
	if sps < 2 {
		return Channel{}, fmt.Errorf("dsp: samples_per_symbol = round(%v/%v) = %d, must be >= 2", sampleRate, symbolRate, sps)
	}
	return Channel{
		SampleRate:    sampleRate,
		SamplesPerSym: sps,
		DeviationHz:   deviationHz,
		Kernels:       k,
	}, nil
}

// Process runs one IQ buffer through DDC, LPF, FM discrimination, RRC
// matched filtering, symbol sampling and 4-FSK slicing, and returns the
// resulting bit stream (one byte per bit, value 0 or 1), MSB-first per
// dibit, in production order.
//
// An empty buffer, or a buffer shorter than the combined group delay,
// yields zero bits — this is not an error.
func (c Channel) Process(iq []complex64, freqOffsetHz float64) []byte {
	if len(iq) == 0 {
		return nil
	}

	mixed := ddc(iq, freqOffsetHz, c.SampleRate)
	filtered := convolveComplex(mixed, c.Kernels.Lowpass)
	freqSamples := discriminate(filtered, c.SampleRate)
	matched := convolveReal(freqSamples, c.Kernels.RRC)

	delay := c.Kernels.GroupDelay()
	symbols := sampleSymbols(matched, delay, c.SamplesPerSym)

	scale := levelScale(symbols, c.DeviationHz)
	return sliceSymbols(symbols, scale)
}

// ddc performs digital down-conversion: multiply by exp(-j*2*pi*(fOff/fs)*n).
// Phase continuity across buffers is not required.
func ddc(iq []complex64, fOff, fs float64) []complex128 {
	out := make([]complex128, len(iq))
	w := -2 * math.Pi * fOff / fs
	for n, s := range iq {
		rot := cmplx.Exp(complex(0, w*float64(n)))
		out[n] = complex128(s) * rot
	}
	return out
}

// convolveComplex is a causal direct-form FIR convolution (equivalent to
// lfilter(taps, 1, x) with zero initial conditions) over complex input.
func convolveComplex(x []complex128, taps []float64) []complex128 {
	out := make([]complex128, len(x))
	for n := range x {
		var acc complex128
		for k, h := range taps {
			if n-k < 0 {
				break
			}
			acc += complex(h, 0) * x[n-k]
		}
		out[n] = acc
	}
	return out
}

// convolveReal is the real-valued counterpart of convolveComplex, used for
// the RRC matched filter stage over the instantaneous-frequency samples.
func convolveReal(x []float64, taps []float64) []float64 {
	out := make([]float64, len(x))
	for n := range x {
		var acc float64
		for k, h := range taps {
			if n-k < 0 {
				break
			}
			acc += h * x[n-k]
		}
		out[n] = acc
	}
	return out
}

// discriminate computes the instantaneous frequency estimate for n >= 1:
//
//	f[n] = arg(exp(j*(phi[n]-phi[n-1]))) * sampleRate / (2*pi)
//
// The arg(exp(j*delta)) formulation performs modulo-2pi unwrapping of the
// phase difference, which keeps the discriminator correct across
// wraparound. Output has the same length as the input,
// with element 0 set equal to element 1 for continuity (there is no
// element -1 to differentiate against).
func discriminate(x []complex128, sampleRate float64) []float64 {
	out := make([]float64, len(x))
	if len(x) < 2 {
		return out
	}
	for n := 1; n < len(x); n++ {
		delta := cmplx.Phase(x[n]) - cmplx.Phase(x[n-1])
		out[n] = cmplx.Phase(cmplx.Exp(complex(0, delta))) * sampleRate / (2 * math.Pi)
	}
	out[0] = out[1]
	return out
}

// sampleSymbols samples the matched-filtered sequence at indices
// delay, delay+sps, delay+2*sps, ... until the end. If delay >= len(x),
// the result is empty.
func sampleSymbols(x []float64, delay, sps int) []float64 {
	if delay >= len(x) {
		return nil
	}
	var out []float64
	for i := delay; i < len(x); i += sps {
		out = append(out, x[i])
	}
	return out
}

// levelScale computes the 4-FSK level-estimation scale:
// the 90th percentile of |symbol| / 3 when more than 10 symbols are
// present, else the nominal deviation; and falls back to the nominal
// deviation whenever the computed scale would be <= 0.
func levelScale(symbols []float64, deviationHz float64) float64 {
	if len(symbols) <= 10 {
		return deviationHz
	}

	mags := make([]float64, len(symbols))
	for i, s := range symbols {
		mags[i] = math.Abs(s)
	}
	sort.Float64s(mags)

	scale := percentile90(mags) / 3
	if scale <= 0 {
		return deviationHz
	}
	return scale
}

// percentile90 returns the 90th percentile of a sorted slice using
// linear interpolation between closest ranks.
func percentile90(sorted []float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := 0.9 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// sliceSymbols slices each symbol to the nearest of {-3,-1,+1,+3}*scale,
// ties going to the lower index, and emits the corresponding dibit
// MSB-first, concatenated across all symbols in order.
func sliceSymbols(symbols []float64, scale float64) []byte {
	bits := make([]byte, 0, 2*len(symbols))
	for _, s := range symbols {
		idx := nearestLevel(s, scale)
		bits = append(bits, dibitMSB(idx), dibitLSB(idx))
	}
	return bits
}

func nearestLevel(sample, scale float64) int {
	best := 0
	bestDist := math.Abs(sample - fskLevels[0]*scale)
	for i := 1; i < len(fskLevels); i++ {
		d := math.Abs(sample - fskLevels[i]*scale)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// dibitMSB/dibitLSB return the two bits of the fixed dibit encoding for
// level index 0..3: 0->00, 1->01, 2->10, 3->11.
func dibitMSB(idx int) byte { return byte((idx >> 1) & 1) }
func dibitLSB(idx int) byte { return byte(idx & 1) }
