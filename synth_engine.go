// synth_engine.go - Engine tying MIDI decode, voice pool and render path together

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import (
	"log/slog"
	"sync"
	"time"
)

const (
	DEFAULT_SAMPLE_RATE   = 44100
	DEFAULT_MAX_VOICES    = 8
	DEFAULT_BUFFER_FRAMES = 256
	DEFAULT_DRIVE         = 0.5
	OUTPUT_CHANNELS       = 2

	// Program slot loaded at startup; CC104 refuses to overwrite it
	FACTORY_PROGRAM = 1

	// Telemetry cadence in rendered buffers
	STATS_INTERVAL = 100
)

type SynthEngineConfig struct {
	SampleRate   int
	MaxVoices    int
	BufferFrames int
	MIDIChannel  uint8
	Storage      ProgramStorage // nil: startup program only, CC104 disabled
	Clipboard    Clipboard      // nil: CC103/CC104 disabled
	Telemetry    TelemetrySink  // nil: no telemetry
}

// SynthEngine owns the voice pool, the MIDI stream decoder and the output
// processor, and renders interleaved stereo buffers on demand.
//
// One mutex serializes MIDI writes against render reads; inside it the
// core runs lock-free and allocation-free on a single logical thread.
type SynthEngine struct {
	mutex sync.Mutex

	sampleRate int
	channels   int

	allocator *VoiceAllocator
	decoder   *StreamDecoder
	output    *OutputProcessor

	monoBuf      []float32
	voiceScratch []Voice

	currentProgram uint8
	storage        ProgramStorage
	clipboard      Clipboard
	telemetry      TelemetrySink

	// render telemetry
	frameCount      uint32
	underrunCount   uint32
	totalRenderTime time.Duration
	maxRenderTime   time.Duration
	bufferFrames    int
}

func NewSynthEngine(cfg SynthEngineConfig) *SynthEngine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DEFAULT_SAMPLE_RATE
	}
	if cfg.MaxVoices <= 0 {
		cfg.MaxVoices = DEFAULT_MAX_VOICES
	}
	if cfg.BufferFrames <= 0 {
		cfg.BufferFrames = DEFAULT_BUFFER_FRAMES
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = NoTelemetrySink{}
	}

	slog.Info("initializing synthesizer",
		"sample_rate", cfg.SampleRate, "voices", cfg.MaxVoices, "buffer_frames", cfg.BufferFrames)

	sampleRate := float32(cfg.SampleRate)
	e := &SynthEngine{
		sampleRate: cfg.SampleRate,
		channels:   OUTPUT_CHANNELS,
		allocator: NewVoiceAllocator(cfg.MaxVoices, func() Voice {
			return NewWavetableVoice(sampleRate)
		}),
		output:         NewOutputProcessor(DEFAULT_DRIVE, sampleRate),
		monoBuf:        make([]float32, cfg.BufferFrames),
		voiceScratch:   make([]Voice, 0, cfg.MaxVoices),
		currentProgram: FACTORY_PROGRAM,
		storage:        cfg.Storage,
		clipboard:      cfg.Clipboard,
		telemetry:      cfg.Telemetry,
		bufferFrames:   cfg.BufferFrames,
	}

	if e.storage != nil && e.storage.LoadProgram(FACTORY_PROGRAM, e.allocator) {
		slog.Info("loaded startup program from storage", "program", FACTORY_PROGRAM)
	} else {
		startup := StartupProgramData()
		startup.ApplyToVoices(e.allocator)
		slog.Info("using startup program defaults")
	}

	e.decoder = NewStreamDecoder(e.allocator, cfg.MIDIChannel,
		e.handleControlChange, e.handleProgramChange, e.handlePolyAftertouch)

	return e
}

// ProcessMIDIByte feeds one raw MIDI byte to the stream decoder.
// Bytes are applied strictly in arrival order; their effects are visible
// to the next render call.
func (e *SynthEngine) ProcessMIDIByte(b byte) {
	e.mutex.Lock()
	e.decoder.Process(b)
	e.mutex.Unlock()
}

// RenderAudio fills buffer with frames interleaved stereo samples: all
// voices are summed into a mono buffer, the output processor shapes it,
// then the result is duplicated to both channels.
// buffer must hold at least frames*2 samples.
func (e *SynthEngine) RenderAudio(buffer []float32, frames int) {
	start := time.Now()

	e.mutex.Lock()

	if len(e.monoBuf) < frames {
		e.monoBuf = make([]float32, frames)
	}
	mono := e.monoBuf[:frames]

	e.voiceScratch = e.voiceScratch[:0]
	e.allocator.ForEachVoice(e.collectVoice)

	for frame := 0; frame < frames; frame++ {
		var sample float32
		for _, v := range e.voiceScratch {
			sample += v.NextSample()
		}
		mono[frame] = sample
	}

	e.output.ProcessBuffer(mono)

	for frame := 0; frame < frames; frame++ {
		buffer[frame*2] = mono[frame]
		buffer[frame*2+1] = mono[frame]
	}

	elapsed := time.Since(start)
	e.frameCount++
	e.totalRenderTime += elapsed
	if elapsed > e.maxRenderTime {
		e.maxRenderTime = elapsed
	}
	bufferDuration := time.Duration(frames) * time.Second / time.Duration(e.sampleRate)
	if elapsed > bufferDuration {
		e.underrunCount++
	}
	sendStats := e.frameCount%STATS_INTERVAL == 0
	stats := e.audioStatsLocked()
	sink := e.telemetry

	e.mutex.Unlock()

	if sendStats {
		sink.SendAudioStats(stats)
	}
}

func (e *SynthEngine) collectVoice(v Voice) {
	e.voiceScratch = append(e.voiceScratch, v)
}

// SetTelemetrySink replaces the stats destination. Sinks that need the
// engine to exist first, like the telemetry server, attach through here
// after construction. A nil sink disables telemetry.
func (e *SynthEngine) SetTelemetrySink(sink TelemetrySink) {
	if sink == nil {
		sink = NoTelemetrySink{}
	}
	e.mutex.Lock()
	e.telemetry = sink
	e.mutex.Unlock()
}

// Stats returns a snapshot of the render telemetry
func (e *SynthEngine) Stats() AudioStats {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.audioStatsLocked()
}

func (e *SynthEngine) audioStatsLocked() AudioStats {
	var avg time.Duration
	if e.frameCount > 0 {
		avg = e.totalRenderTime / time.Duration(e.frameCount)
	}
	return AudioStats{
		Type:           "audio",
		FrameCount:     e.frameCount,
		AvgRenderTime:  uint32(avg.Microseconds()),
		MaxRenderTime:  uint32(e.maxRenderTime.Microseconds()),
		BufferDuration: uint32((time.Duration(e.bufferFrames) * time.Second / time.Duration(e.sampleRate)).Microseconds()),
		UnderrunCount:  e.underrunCount,
	}
}

// CaptureProgram returns the current voice parameters as a preset
func (e *SynthEngine) CaptureProgram() ProgramData {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	var p ProgramData
	p.CaptureFromVoices(e.allocator)
	return p
}

// ApplyProgram pushes a preset to every voice
func (e *SynthEngine) ApplyProgram(p ProgramData) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	p.ApplyToVoices(e.allocator)
}

// SaveProgram persists the current voice parameters to a program slot
func (e *SynthEngine) SaveProgram(program uint8) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.storage == nil {
		return nil
	}
	return e.storage.SaveProgram(program, e.allocator)
}

// CurrentProgram returns the last selected program number
func (e *SynthEngine) CurrentProgram() uint8 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.currentProgram
}

func (e *SynthEngine) SampleRate() int {
	return e.sampleRate
}

// BufferFrames returns the configured render buffer size in frames
func (e *SynthEngine) BufferFrames() int {
	return e.bufferFrames
}

// Allocator exposes the voice pool for tests and program management.
// Callers other than the engine's own callbacks must not mutate voices
// while audio is running.
func (e *SynthEngine) Allocator() *VoiceAllocator {
	return e.allocator
}

// OutputProcessor exposes the post-mix processor for tests and CC control
func (e *SynthEngine) OutputProcessor() *OutputProcessor {
	return e.output
}
