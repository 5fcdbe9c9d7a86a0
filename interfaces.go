// interfaces.go - Common interfaces between the synth core and its collaborators

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

// Voice is implemented by all monophonic synthesizer voices.
// Each Voice generates audio at a fundamental frequency, volume and timbre;
// the VoiceAllocator maps MIDI notes onto a fixed pool of these.
type Voice interface {
	// Trigger starts a note at the given frequency and volume.
	// Voices with an envelope begin their attack phase.
	Trigger(frequencyHz, volume float32)
	// Release tells the voice the note has ended. The voice may keep
	// sounding until its envelope reaches idle; see IsActive.
	Release()
	// NextSample generates one audio sample in [-1, 1].
	NextSample() float32
	// SetFrequency updates the base frequency of the current note
	SetFrequency(frequencyHz float32)
	// SetTimbre updates the timbre characteristics (0.0 to 1.0)
	SetTimbre(timbre float32)
	// SetVolume updates the volume level (0.0 to 1.0)
	SetVolume(volume float32)
	// SetPitchBend applies a normalized bend (-1.0 to +1.0, 0.0 = center).
	// The frequency change it causes depends on the bend range.
	SetPitchBend(bendAmount float32)
	// PitchBendRange returns the bend range in semitones
	PitchBendRange() float32
	// SetPitchBendRange sets the range in semitones for a full bend
	SetPitchBendRange(semitones float32)
	// IsActive reports whether the voice is still sounding. Allocators
	// use this to prefer silent voices when stealing.
	IsActive() bool
}

// AudioOutput is implemented by all audio backends (oto, ALSA, headless)
type AudioOutput interface {
	Start()
	Stop()
	Close()
	IsStarted() bool
}

// MIDIInput is implemented by MIDI byte sources (port watcher, serial reader)
type MIDIInput interface {
	// Start begins delivering bytes to the engine
	Start() error
	// Close stops the source and releases its transport
	Close()
}

// KeyScanner is implemented by capacitive-touch key hardware.
// ScanReadings must return a slice of KeyCount() raw sensor values;
// the slice is owned by the scanner and valid until the next scan.
type KeyScanner interface {
	KeyCount() int
	ScanReadings() []uint16
}

// ProgramStorage is implemented by preset persistence backends
type ProgramStorage interface {
	// LoadProgram loads the numbered program and applies it to every voice.
	// A missing program applies defaults and returns false.
	LoadProgram(program uint8, allocator *VoiceAllocator) bool
	// SaveProgram captures the current voice settings as the numbered program
	SaveProgram(program uint8, allocator *VoiceAllocator) error
}

// Clipboard is implemented by preset copy/paste backends
type Clipboard interface {
	// Copy captures the current voice settings onto the clipboard
	Copy(allocator *VoiceAllocator)
	// Paste applies the clipboard contents to every voice.
	// Returns false if the clipboard is empty.
	Paste(allocator *VoiceAllocator) bool
	// PasteAndSave pastes and persists the result to the numbered program
	PasteAndSave(allocator *VoiceAllocator, program uint8, storage ProgramStorage) bool
	// HasData reports whether the clipboard holds a preset
	HasData() bool
}

// TelemetrySink is implemented by telemetry transports.
// Sends must be non-blocking; the audio and scan loops call them directly.
type TelemetrySink interface {
	SendAudioStats(stats AudioStats)
	SendKeyScanStats(stats KeyScanStats)
}
