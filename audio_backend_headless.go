//go:build headless

// audio_backend_headless.go - no-op audio output for headless builds

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

const (
	AUDIO_BACKEND_OTO = iota
	AUDIO_BACKEND_ALSA
)

type NullOutput struct {
	started bool
	engine  *SynthEngine
}

func NewAudioOutput(backend int, engine *SynthEngine) (AudioOutput, error) {
	return &NullOutput{engine: engine}, nil
}

func (no *NullOutput) Start() {
	no.started = true
}

func (no *NullOutput) Stop() {
	no.started = false
}

func (no *NullOutput) Close() {
	no.started = false
}

func (no *NullOutput) IsStarted() bool {
	return no.started
}
