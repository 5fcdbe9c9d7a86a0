// synth_engine_test.go - Engine render path tests

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

func newTestEngine() *SynthEngine {
	return NewSynthEngine(SynthEngineConfig{
		SampleRate:   44100,
		MaxVoices:    4,
		BufferFrames: 128,
	})
}

func TestEngineDefaults(t *testing.T) {
	e := NewSynthEngine(SynthEngineConfig{})

	if e.SampleRate() != DEFAULT_SAMPLE_RATE {
		t.Errorf("sample rate = %d, want %d", e.SampleRate(), DEFAULT_SAMPLE_RATE)
	}
	if e.BufferFrames() != DEFAULT_BUFFER_FRAMES {
		t.Errorf("buffer frames = %d, want %d", e.BufferFrames(), DEFAULT_BUFFER_FRAMES)
	}
	if e.Allocator().VoiceCount() != DEFAULT_MAX_VOICES {
		t.Errorf("voices = %d, want %d", e.Allocator().VoiceCount(), DEFAULT_MAX_VOICES)
	}
	if e.CurrentProgram() != FACTORY_PROGRAM {
		t.Errorf("startup program = %d, want %d", e.CurrentProgram(), FACTORY_PROGRAM)
	}
}

func TestEngineStartupProgramApplied(t *testing.T) {
	e := newTestEngine()

	// Without storage the factory sound comes from the startup defaults
	startup := StartupProgramData()
	got := e.CaptureProgram()
	if got.WaveformShape != startup.WaveformShape {
		t.Errorf("waveform shape = %f, want %f", got.WaveformShape, startup.WaveformShape)
	}
	if got.BaseCutoff != startup.BaseCutoff {
		t.Errorf("base cutoff = %f, want %f", got.BaseCutoff, startup.BaseCutoff)
	}
}

func TestEngineSilentWithoutNotes(t *testing.T) {
	e := newTestEngine()

	buf := make([]float32, 256)
	e.RenderAudio(buf, 128)

	for i, s := range buf {
		if s != 0.0 {
			t.Fatalf("sample %d = %f, want silence", i, s)
		}
	}
}

func TestEngineNoteOnProducesStereoAudio(t *testing.T) {
	e := newTestEngine()

	for _, b := range []byte{0x90, 69, 127} {
		e.ProcessMIDIByte(b)
	}

	buf := make([]float32, 2048)
	e.RenderAudio(buf, 1024)

	var energy float64
	for _, s := range buf {
		energy += float64(s * s)
	}
	if energy == 0.0 {
		t.Fatal("note on produced no audio")
	}

	// Mono source duplicated to both channels
	for frame := 0; frame < 1024; frame++ {
		if buf[frame*2] != buf[frame*2+1] {
			t.Fatalf("frame %d left %f != right %f", frame, buf[frame*2], buf[frame*2+1])
		}
	}
}

func TestEngineNoteOffDecaysToSilence(t *testing.T) {
	e := newTestEngine()

	// Short release so the tail fits in a few buffers
	e.Allocator().ForEachVoice(func(v Voice) {
		if wv, ok := v.(*WavetableVoice); ok {
			wv.AmplitudeEnvelope().SetParameters(0.001, 0.01, 0.7, 0.01)
		}
	})

	for _, b := range []byte{0x90, 60, 100} {
		e.ProcessMIDIByte(b)
	}
	buf := make([]float32, 2048)
	e.RenderAudio(buf, 1024)

	for _, b := range []byte{0x80, 60, 0} {
		e.ProcessMIDIByte(b)
	}
	// 0.01s release = 441 samples; render well past it
	for i := 0; i < 4; i++ {
		e.RenderAudio(buf, 1024)
	}

	e.RenderAudio(buf, 1024)
	for i, s := range buf {
		if s != 0.0 {
			t.Fatalf("sample %d = %f after release tail, want silence", i, s)
		}
	}
}

func TestEngineOutputBounded(t *testing.T) {
	e := newTestEngine()

	// All voices fortissimo; the output shaper must keep the sum in range
	notes := []byte{60, 64, 67, 72}
	for _, n := range notes {
		for _, b := range []byte{0x90, n, 127} {
			e.ProcessMIDIByte(b)
		}
	}

	buf := make([]float32, 2048)
	for i := 0; i < 20; i++ {
		e.RenderAudio(buf, 1024)
		for j, s := range buf {
			if s < -1.0 || s > 1.0 || math.IsNaN(float64(s)) {
				t.Fatalf("buffer %d sample %d out of range: %f", i, j, s)
			}
		}
	}
}

func TestEngineStatsAccumulate(t *testing.T) {
	e := newTestEngine()

	buf := make([]float32, 256)
	for i := 0; i < 5; i++ {
		e.RenderAudio(buf, 128)
	}

	stats := e.Stats()
	if stats.Type != "audio" {
		t.Errorf("stats type = %q, want audio", stats.Type)
	}
	if stats.FrameCount != 5 {
		t.Errorf("frame count = %d, want 5", stats.FrameCount)
	}
	wantBufferUs := uint32(128 * 1000000 / 44100)
	if stats.BufferDuration != wantBufferUs {
		t.Errorf("buffer duration = %d us, want %d", stats.BufferDuration, wantBufferUs)
	}
}

func TestEngineSetTelemetrySinkPublishesStats(t *testing.T) {
	e := newTestEngine()
	sink := &recordingTelemetrySink{}
	e.SetTelemetrySink(sink)

	buf := make([]float32, 256)
	for i := 0; i < STATS_INTERVAL; i++ {
		e.RenderAudio(buf, 128)
	}

	if sink.audioCalls != 1 {
		t.Fatalf("sink received %d publishes after %d buffers, want 1", sink.audioCalls, STATS_INTERVAL)
	}
	if sink.lastAudio.FrameCount != STATS_INTERVAL {
		t.Errorf("published frame count = %d, want %d", sink.lastAudio.FrameCount, STATS_INTERVAL)
	}
	if sink.lastAudio.Type != "audio" {
		t.Errorf("published stats type = %q, want audio", sink.lastAudio.Type)
	}
}

func TestEngineApplyProgramReachesAllVoices(t *testing.T) {
	e := newTestEngine()

	p := DefaultProgramData()
	p.FilterMode = FILTER_BANDPASS
	p.BaseCutoff = 3000
	e.ApplyProgram(p)

	e.Allocator().ForEachVoice(func(v Voice) {
		wv := v.(*WavetableVoice)
		if wv.Filter().Mode() != FILTER_BANDPASS {
			t.Errorf("voice filter mode = %d, want bandpass", wv.Filter().Mode())
		}
		if wv.BaseCutoff() != 3000 {
			t.Errorf("voice base cutoff = %f, want 3000", wv.BaseCutoff())
		}
	})
}

func TestEngineRenderDoesNotAllocate(t *testing.T) {
	e := newTestEngine()

	for _, b := range []byte{0x90, 60, 100, 64, 100, 67, 100} {
		e.ProcessMIDIByte(b)
	}

	buf := make([]float32, 256)
	e.RenderAudio(buf, 128) // warm up

	allocs := testing.AllocsPerRun(100, func() {
		e.RenderAudio(buf, 128)
	})
	if allocs != 0 {
		t.Errorf("render path allocated %.1f times per run, want 0", allocs)
	}
}
