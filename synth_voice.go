// synth_voice.go - Wavetable synth voice: oscillator -> filter -> envelopes

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import "math"

// The filter envelope modulates the cutoff upward only, up to this many
// times the base cutoff at full envelope level and full amount.
const FILTER_ENV_CUTOFF_RANGE = 9.0

// WavetableVoice is the unit of polyphony: one oscillator, one filter and
// two ADSR envelopes (amplitude, filter cutoff), with inline pitch bend.
// Components are composed by value for cache locality; a voice is never
// shared between allocator slots.
type WavetableVoice struct {
	sampleRate float32

	oscillator WavetableOscillator
	filter     BiquadFilter
	ampEnv     AdsrEnvelope
	filterEnv  AdsrEnvelope

	baseFrequency   float32
	volume          float32
	timbre          float32
	pitchBend       float32
	pitchBendRange  float32
	baseCutoff      float32
	filterEnvAmount float32
}

func NewWavetableVoice(sampleRate float32) *WavetableVoice {
	v := &WavetableVoice{
		sampleRate:      sampleRate,
		oscillator:      *NewWavetableOscillator(sampleRate),
		filter:          *NewBiquadFilter(sampleRate),
		ampEnv:          *NewAdsrEnvelope(sampleRate),
		filterEnv:       *NewAdsrEnvelope(sampleRate),
		baseFrequency:   440.0,
		volume:          1.0,
		timbre:          0.5,
		pitchBendRange:  2.0,
		baseCutoff:      1000.0,
		filterEnvAmount: 0.5,
	}
	v.filter.SetMode(FILTER_LOWPASS)
	v.filter.SetQ(0.707) // Butterworth response
	return v
}

// Trigger starts a note: both envelopes enter attack, the oscillator phase
// and the filter delay registers are cleared for a click-free onset.
func (v *WavetableVoice) Trigger(frequencyHz, volume float32) {
	v.baseFrequency = frequencyHz
	v.volume = volume
	v.oscillator.Reset()
	v.filter.Reset()
	v.ampEnv.Trigger()
	v.filterEnv.Trigger()
}

func (v *WavetableVoice) Release() {
	v.ampEnv.Release()
	v.filterEnv.Release()
}

// NextSample generates one sample of the voice. Silent voices return 0
// without touching the oscillator or filter.
func (v *WavetableVoice) NextSample() float32 {
	if !v.ampEnv.IsActive() {
		return 0.0
	}

	semitoneShift := v.pitchBend * v.pitchBendRange
	frequency := v.baseFrequency * float32(math.Pow(2.0, float64(semitoneShift)/12.0))

	sample := v.oscillator.NextSample(frequency)

	// Filter envelope sweeps the cutoff upward from its base value.
	// Changing the cutoff every sample forces a coefficient recompute in
	// the filter; see BiquadFilter.
	filterEnvLevel := v.filterEnv.NextSample()
	cutoff := v.baseCutoff * (1.0 + filterEnvLevel*v.filterEnvAmount*FILTER_ENV_CUTOFF_RANGE)
	v.filter.SetCutoff(cutoff)
	sample = v.filter.ProcessSample(sample)

	return sample * v.ampEnv.NextSample() * v.volume
}

func (v *WavetableVoice) SetFrequency(frequencyHz float32) {
	v.baseFrequency = frequencyHz
}

func (v *WavetableVoice) SetTimbre(timbre float32) {
	v.timbre = timbre
	v.oscillator.UpdateWavetable(timbre)
}

func (v *WavetableVoice) SetVolume(volume float32) {
	v.volume = volume
}

func (v *WavetableVoice) SetPitchBend(bendAmount float32) {
	v.pitchBend = bendAmount
}

func (v *WavetableVoice) PitchBendRange() float32 {
	return v.pitchBendRange
}

func (v *WavetableVoice) SetPitchBendRange(semitones float32) {
	v.pitchBendRange = semitones
}

// IsActive reports whether the amplitude envelope has left idle
func (v *WavetableVoice) IsActive() bool {
	return v.ampEnv.IsActive()
}

// SetBaseCutoff sets the filter cutoff before envelope modulation
func (v *WavetableVoice) SetBaseCutoff(cutoffHz float32) {
	v.baseCutoff = cutoffHz
}

func (v *WavetableVoice) BaseCutoff() float32 {
	return v.baseCutoff
}

// SetFilterEnvAmount sets the cutoff modulation depth in [0, 1]
func (v *WavetableVoice) SetFilterEnvAmount(amount float32) {
	if amount < 0.0 {
		amount = 0.0
	}
	if amount > 1.0 {
		amount = 1.0
	}
	v.filterEnvAmount = amount
}

func (v *WavetableVoice) FilterEnvAmount() float32 {
	return v.filterEnvAmount
}

func (v *WavetableVoice) Oscillator() *WavetableOscillator {
	return &v.oscillator
}

func (v *WavetableVoice) Filter() *BiquadFilter {
	return &v.filter
}

func (v *WavetableVoice) AmplitudeEnvelope() *AdsrEnvelope {
	return &v.ampEnv
}

func (v *WavetableVoice) FilterEnvelope() *AdsrEnvelope {
	return &v.filterEnv
}
