// synth_oscillator.go - Wavetable oscillator with runtime-morphable waveforms

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

const WAVETABLE_SIZE = 256

// WavetableOscillator generates a periodic waveform by table lookup with
// linear interpolation. The table blends between sawtooth, triangle and
// square depending on the shape parameter, and is regenerated only when
// the shape changes, never per sample.
type WavetableOscillator struct {
	table      [WAVETABLE_SIZE]float32
	phase      float32
	sampleRate float32
	shape      float32
}

func NewWavetableOscillator(sampleRate float32) *WavetableOscillator {
	osc := &WavetableOscillator{sampleRate: sampleRate}
	osc.UpdateWavetable(0.0) // start with sawtooth
	return osc
}

// UpdateWavetable regenerates the table for the given shape parameter:
// 0.0 = sawtooth, 0.5 = triangle, 1.0 = square. Values in between blend
// the two nearest waveforms. Call on timbre change only.
func (osc *WavetableOscillator) UpdateWavetable(shape float32) {
	if shape < 0.0 {
		shape = 0.0
	}
	if shape > 1.0 {
		shape = 1.0
	}
	osc.shape = shape

	for i := 0; i < WAVETABLE_SIZE; i++ {
		t := float32(i) / WAVETABLE_SIZE

		saw := 2.0*t - 1.0
		var triangle float32
		if t < 0.5 {
			triangle = 4.0*t - 1.0
		} else {
			triangle = 3.0 - 4.0*t
		}
		var square float32 = 1.0
		if t >= 0.5 {
			square = -1.0
		}

		var sample float32
		if shape < 0.5 {
			blend := shape * 2.0
			sample = saw*(1.0-blend) + triangle*blend
		} else {
			blend := (shape - 0.5) * 2.0
			sample = triangle*(1.0-blend) + square*blend
		}

		osc.table[i] = sample
	}
}

// NextSample reads the table at the current phase with linear interpolation
// and advances the phase by frequency/sampleRate, wrapping into [0, 1).
func (osc *WavetableOscillator) NextSample(frequency float32) float32 {
	tablePos := osc.phase * WAVETABLE_SIZE
	index0 := int(tablePos) % WAVETABLE_SIZE
	index1 := (index0 + 1) % WAVETABLE_SIZE

	frac := tablePos - float32(int(tablePos))
	sample := osc.table[index0]*(1.0-frac) + osc.table[index1]*frac

	osc.phase += frequency / osc.sampleRate
	if osc.phase >= 1.0 {
		osc.phase -= 1.0
	}

	return sample
}

// Reset zeroes the phase for a phase-coherent attack on note trigger
func (osc *WavetableOscillator) Reset() {
	osc.phase = 0.0
}

func (osc *WavetableOscillator) Phase() float32 {
	return osc.phase
}

func (osc *WavetableOscillator) SetPhase(phase float32) {
	for phase >= 1.0 {
		phase -= 1.0
	}
	for phase < 0.0 {
		phase += 1.0
	}
	osc.phase = phase
}

// Shape returns the morph parameter the table was last built from
func (osc *WavetableOscillator) Shape() float32 {
	return osc.shape
}
