// synth_voice_test.go - Wavetable voice tests

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import (
	"math"
	"testing"
)

func TestVoiceSilentUntilTriggered(t *testing.T) {
	v := NewWavetableVoice(44100)

	if v.IsActive() {
		t.Fatal("fresh voice must be inactive")
	}
	for i := 0; i < 100; i++ {
		if s := v.NextSample(); s != 0.0 {
			t.Fatalf("inactive voice made sound: %f", s)
		}
	}
}

func TestVoiceProducesSoundAfterTrigger(t *testing.T) {
	v := NewWavetableVoice(44100)

	v.Trigger(440, 1.0)
	if !v.IsActive() {
		t.Fatal("voice must be active after trigger")
	}

	var energy float64
	for i := 0; i < 4410; i++ {
		s := v.NextSample()
		energy += float64(s * s)
	}
	if energy == 0.0 {
		t.Error("triggered voice produced no output")
	}
}

func TestVoiceDecaysToSilenceAfterRelease(t *testing.T) {
	v := NewWavetableVoice(44100)
	v.AmplitudeEnvelope().SetParameters(0.001, 0.001, 0.5, 0.01)
	v.FilterEnvelope().SetParameters(0.001, 0.001, 0.5, 0.01)

	v.Trigger(440, 1.0)
	for i := 0; i < 1000; i++ {
		v.NextSample()
	}
	v.Release()
	// 0.01s release = 441 samples; run past it
	for i := 0; i < 2000; i++ {
		v.NextSample()
	}
	if v.IsActive() {
		t.Error("voice should be inactive after the release time")
	}
	if s := v.NextSample(); s != 0.0 {
		t.Errorf("released voice output = %f, want 0", s)
	}
}

func TestVoiceVolumeScalesOutput(t *testing.T) {
	peak := func(volume float32) float32 {
		v := NewWavetableVoice(44100)
		v.SetBaseCutoff(20000) // open the filter so amplitude dominates
		v.Trigger(440, volume)
		var p float32
		for i := 0; i < 4410; i++ {
			if a := float32(math.Abs(float64(v.NextSample()))); a > p {
				p = a
			}
		}
		return p
	}

	loud := peak(1.0)
	quiet := peak(0.25)
	if quiet >= loud {
		t.Errorf("quarter-volume peak %f should be below full-volume peak %f", quiet, loud)
	}
}

func TestVoicePitchBendShiftsFrequency(t *testing.T) {
	// Measure the oscillator phase advance over a fixed run with and
	// without a full-up bend; +2 semitones is a factor of 2^(1/6).
	advance := func(bend float32) float64 {
		v := NewWavetableVoice(44100)
		v.SetPitchBend(bend)
		v.Trigger(100, 1.0)
		cycles := 0.0
		last := float64(v.Oscillator().Phase())
		for i := 0; i < 4410; i++ {
			v.NextSample()
			p := float64(v.Oscillator().Phase())
			if p < last {
				cycles += 1.0
			}
			last = p
		}
		return cycles
	}

	unbent := advance(0.0)
	bent := advance(1.0)
	ratio := bent / unbent
	want := math.Pow(2.0, 2.0/12.0)
	if math.Abs(ratio-want) > 0.05 {
		t.Errorf("bend frequency ratio = %f, want %f", ratio, want)
	}
}

func TestVoicePitchBendRangeDefault(t *testing.T) {
	v := NewWavetableVoice(44100)
	if v.PitchBendRange() != 2.0 {
		t.Errorf("default bend range = %f semitones, want 2", v.PitchBendRange())
	}
	v.SetPitchBendRange(12.0)
	if v.PitchBendRange() != 12.0 {
		t.Errorf("bend range = %f, want 12", v.PitchBendRange())
	}
}

func TestVoiceTriggerResetsPhase(t *testing.T) {
	v := NewWavetableVoice(44100)

	v.Trigger(440, 1.0)
	for i := 0; i < 100; i++ {
		v.NextSample()
	}
	v.Trigger(440, 1.0)
	if p := v.Oscillator().Phase(); p != 0.0 {
		t.Errorf("oscillator phase after retrigger = %f, want 0", p)
	}
}

func TestVoiceFilterEnvelopeRaisesCutoff(t *testing.T) {
	v := NewWavetableVoice(44100)
	v.SetBaseCutoff(500)
	v.SetFilterEnvAmount(1.0)
	v.FilterEnvelope().SetParameters(0.001, 1.0, 1.0, 0.1)

	v.Trigger(440, 1.0)
	for i := 0; i < 1000; i++ {
		v.NextSample()
	}

	// At full envelope level and amount the cutoff is base * (1 + range)
	got := v.Filter().Cutoff()
	want := float32(500 * (1.0 + FILTER_ENV_CUTOFF_RANGE))
	if math.Abs(float64(got-want)) > 1.0 {
		t.Errorf("modulated cutoff = %f, want %f", got, want)
	}
}

func TestVoiceFilterEnvAmountClamped(t *testing.T) {
	v := NewWavetableVoice(44100)

	v.SetFilterEnvAmount(-1.0)
	if v.FilterEnvAmount() != 0.0 {
		t.Errorf("negative amount clamps to 0, got %f", v.FilterEnvAmount())
	}
	v.SetFilterEnvAmount(2.0)
	if v.FilterEnvAmount() != 1.0 {
		t.Errorf("excess amount clamps to 1, got %f", v.FilterEnvAmount())
	}
}

func TestVoiceTimbreChangesWavetable(t *testing.T) {
	v := NewWavetableVoice(44100)

	v.SetTimbre(1.0)
	if v.Oscillator().Shape() != 1.0 {
		t.Errorf("timbre 1.0 shape = %f", v.Oscillator().Shape())
	}
}

func TestVoiceNextSampleDoesNotAllocate(t *testing.T) {
	v := NewWavetableVoice(44100)
	v.Trigger(440, 1.0)

	allocs := testing.AllocsPerRun(1000, func() {
		v.NextSample()
	})
	if allocs != 0 {
		t.Errorf("voice sample path allocated %.1f times per run, want 0", allocs)
	}
}
