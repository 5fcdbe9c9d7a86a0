// synth_filter.go - Biquad filter (2nd order IIR) with lazy coefficient updates

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import "math"

const (
	FILTER_LOWPASS = iota
	FILTER_HIGHPASS
	FILTER_BANDPASS
	FILTER_NOTCH
	FILTER_ALLPASS
	FILTER_MODE_COUNT
)

const (
	MIN_FILTER_CUTOFF = 20.0
	MIN_FILTER_Q      = 0.1
	MAX_FILTER_Q      = 20.0
)

// FilterModeName returns a display name for a filter mode
func FilterModeName(mode int) string {
	switch mode {
	case FILTER_LOWPASS:
		return "Lowpass"
	case FILTER_HIGHPASS:
		return "Highpass"
	case FILTER_BANDPASS:
		return "Bandpass"
	case FILTER_NOTCH:
		return "Notch"
	case FILTER_ALLPASS:
		return "Allpass"
	}
	return "Unknown"
}

// NextFilterMode cycles to the next mode, wrapping after allpass
func NextFilterMode(mode int) int {
	return (mode + 1) % FILTER_MODE_COUNT
}

// BiquadFilter implements lowpass, highpass, bandpass, notch and allpass
// responses using the RBJ audio-EQ-cookbook coefficient formulas and a
// Direct Form II Transposed structure for numerical stability.
//
// Coefficient calculation is lazy: setters mark the coefficients dirty and
// ProcessSample recomputes them only when a parameter actually changed.
// An envelope sweeping the cutoff still forces a recompute every sample;
// that cost is accepted rather than rate-limiting the sweep.
type BiquadFilter struct {
	sampleRate float32

	mode     int
	cutoffHz float32
	q        float32

	// normalized coefficients
	b0, b1, b2 float32
	a1, a2     float32

	// delay registers (Direct Form II Transposed)
	z1, z2 float32

	coeffsDirty bool
}

func NewBiquadFilter(sampleRate float32) *BiquadFilter {
	f := &BiquadFilter{
		sampleRate: sampleRate,
		mode:       FILTER_LOWPASS,
		cutoffHz:   1000.0,
		q:          0.707,
		b0:         1.0,
	}
	f.Reset()
	f.updateCoefficients()
	return f
}

func (f *BiquadFilter) SetMode(mode int) {
	if f.mode != mode {
		f.mode = mode
		f.coeffsDirty = true
	}
}

// SetCutoff sets the cutoff frequency in Hz, clamped to [20, 0.99*Nyquist]
func (f *BiquadFilter) SetCutoff(frequencyHz float32) {
	nyquist := f.sampleRate * 0.5
	if frequencyHz < MIN_FILTER_CUTOFF {
		frequencyHz = MIN_FILTER_CUTOFF
	}
	if frequencyHz > nyquist*0.99 {
		frequencyHz = nyquist * 0.99
	}

	if f.cutoffHz != frequencyHz {
		f.cutoffHz = frequencyHz
		f.coeffsDirty = true
	}
}

// SetQ sets the resonance, clamped to [0.1, 20]. 0.707 is Butterworth.
func (f *BiquadFilter) SetQ(q float32) {
	if q < MIN_FILTER_Q {
		q = MIN_FILTER_Q
	}
	if q > MAX_FILTER_Q {
		q = MAX_FILTER_Q
	}

	if f.q != q {
		f.q = q
		f.coeffsDirty = true
	}
}

// ProcessSample filters one sample, recomputing coefficients first if a
// parameter changed since the last call.
func (f *BiquadFilter) ProcessSample(input float32) float32 {
	if f.coeffsDirty {
		f.updateCoefficients()
	}

	output := f.b0*input + f.z1
	f.z1 = f.b1*input - f.a1*output + f.z2
	f.z2 = f.b2*input - f.a2*output

	return output
}

// Reset clears the delay registers. Call on note trigger and on output
// algorithm switches to avoid clicks from stale state.
func (f *BiquadFilter) Reset() {
	f.z1 = 0.0
	f.z2 = 0.0
}

func (f *BiquadFilter) Cutoff() float32 { return f.cutoffHz }
func (f *BiquadFilter) Q() float32      { return f.q }
func (f *BiquadFilter) Mode() int       { return f.mode }

func (f *BiquadFilter) updateCoefficients() {
	w0 := 2.0 * math.Pi * float64(f.cutoffHz) / float64(f.sampleRate)
	cosw0 := float32(math.Cos(w0))
	sinw0 := float32(math.Sin(w0))
	alpha := sinw0 / (2.0 * f.q)

	var a0, a1, a2, b0, b1, b2 float32

	switch f.mode {
	case FILTER_LOWPASS:
		b0 = (1.0 - cosw0) / 2.0
		b1 = 1.0 - cosw0
		b2 = (1.0 - cosw0) / 2.0
		a0 = 1.0 + alpha
		a1 = -2.0 * cosw0
		a2 = 1.0 - alpha
	case FILTER_HIGHPASS:
		b0 = (1.0 + cosw0) / 2.0
		b1 = -(1.0 + cosw0)
		b2 = (1.0 + cosw0) / 2.0
		a0 = 1.0 + alpha
		a1 = -2.0 * cosw0
		a2 = 1.0 - alpha
	case FILTER_BANDPASS:
		b0 = alpha
		b1 = 0.0
		b2 = -alpha
		a0 = 1.0 + alpha
		a1 = -2.0 * cosw0
		a2 = 1.0 - alpha
	case FILTER_NOTCH:
		b0 = 1.0
		b1 = -2.0 * cosw0
		b2 = 1.0
		a0 = 1.0 + alpha
		a1 = -2.0 * cosw0
		a2 = 1.0 - alpha
	case FILTER_ALLPASS:
		b0 = 1.0 - alpha
		b1 = -2.0 * cosw0
		b2 = 1.0 + alpha
		a0 = 1.0 + alpha
		a1 = -2.0 * cosw0
		a2 = 1.0 - alpha
	}

	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = a1 / a0
	f.a2 = a2 / a0

	f.coeffsDirty = false
}
