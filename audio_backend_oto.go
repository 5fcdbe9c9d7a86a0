//go:build !headless

// audio_backend_oto.go - oto v3 audio output implementation

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

const (
	AUDIO_BACKEND_OTO = iota
	AUDIO_BACKEND_ALSA
)

// NewAudioOutput builds the selected audio backend for the engine.
func NewAudioOutput(backend int, engine *SynthEngine) (AudioOutput, error) {
	switch backend {
	case AUDIO_BACKEND_OTO:
		out, err := NewOtoOutput(engine.SampleRate())
		if err != nil {
			return nil, err
		}
		out.SetupEngine(engine)
		return out, nil
	case AUDIO_BACKEND_ALSA:
		return NewALSAOutput(engine)
	}
	return nil, fmt.Errorf("unknown audio backend %d", backend)
}

type OtoOutput struct {
	ctx       *oto.Context
	player    *oto.Player
	engine    atomic.Pointer[SynthEngine] // Atomic for lock-free Read()
	sampleBuf []float32                   // Pre-allocated sample buffer
	started   bool
	mutex     sync.Mutex // Only for setup/control operations
}

func NewOtoOutput(sampleRate int) (*OtoOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: OUTPUT_CHANNELS,
		Format:       oto.FormatFloat32LE,
		BufferSize:   10 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready

	return &OtoOutput{
		ctx:     ctx,
		started: false,
	}, nil
}

func (oo *OtoOutput) SetupEngine(engine *SynthEngine) {
	oo.mutex.Lock()
	defer oo.mutex.Unlock()

	oo.engine.Store(engine)
	oo.player = oo.ctx.NewPlayer(oo)
	// Pre-allocate buffer for typical oto request sizes (4096 bytes = 512 stereo frames)
	oo.sampleBuf = make([]float32, 4096)
}

func (oo *OtoOutput) Read(p []byte) (n int, err error) {
	// Load engine pointer atomically - no lock needed for the hot path
	engine := oo.engine.Load()
	if engine == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numSamples := len(p) / 4
	frames := numSamples / OUTPUT_CHANNELS

	// Ensure our pre-allocated buffer is large enough
	// This should rarely happen after initial SetupEngine
	if len(oo.sampleBuf) < numSamples {
		oo.sampleBuf = make([]float32, numSamples)
	}
	samples := oo.sampleBuf[:numSamples]

	engine.RenderAudio(samples, frames)

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:len(p)])
	return len(p), nil
}

func (oo *OtoOutput) Start() {
	oo.mutex.Lock()
	defer oo.mutex.Unlock()

	if !oo.started && oo.player != nil {
		oo.player.Play()
		oo.started = true
	}
}

func (oo *OtoOutput) Stop() {
	oo.mutex.Lock()
	defer oo.mutex.Unlock()

	if oo.started && oo.player != nil {
		oo.player.Close()
		oo.started = false
	}
}

func (oo *OtoOutput) Close() {
	oo.Stop()
	oo.mutex.Lock()
	defer oo.mutex.Unlock()

	if oo.player != nil {
		oo.player.Close()
		oo.player = nil
	}
}

func (oo *OtoOutput) IsStarted() bool {
	oo.mutex.Lock()
	defer oo.mutex.Unlock()
	return oo.started
}
