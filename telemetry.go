// telemetry.go - Render and key-scan statistics with pluggable sinks

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import "log/slog"

// AudioStats describes audio rendering performance. Times in microseconds.
type AudioStats struct {
	Type           string `json:"type"` // always "audio"
	FrameCount     uint32 `json:"frameCount"`
	AvgRenderTime  uint32 `json:"avgRenderTime"`
	MaxRenderTime  uint32 `json:"maxRenderTime"`
	BufferDuration uint32 `json:"bufferDuration"`
	UnderrunCount  uint32 `json:"underrunCount"`
}

const MAX_SCAN_KEYS = 16

// KeyScanStats describes per-key touch scanner state for debugging and
// visualization.
type KeyScanStats struct {
	Type             string                 `json:"type"` // always "keys"
	KeyCount         uint8                  `json:"keyCount"`
	Readings         [MAX_SCAN_KEYS]uint16  `json:"readings"`
	Baselines        [MAX_SCAN_KEYS]float32 `json:"baselines"`
	Ratios           [MAX_SCAN_KEYS]float32 `json:"ratios"`
	NoteStates       [MAX_SCAN_KEYS]bool    `json:"noteStates"`
	AftertouchValues [MAX_SCAN_KEYS]uint8   `json:"aftertouchValues"`
	NoteOnThreshold  float32                `json:"noteOnThreshold"`
	NoteOffThreshold float32                `json:"noteOffThreshold"`
	IsCalibrated     bool                   `json:"isCalibrated"`
	CalibrationCount uint16                 `json:"calibrationCount"`
}

// NoTelemetrySink discards all telemetry. The null object avoids nil
// checks on the hot paths.
type NoTelemetrySink struct{}

func (NoTelemetrySink) SendAudioStats(AudioStats)     {}
func (NoTelemetrySink) SendKeyScanStats(KeyScanStats) {}

// MultiTelemetrySink fans stats out to several sinks in order
type MultiTelemetrySink []TelemetrySink

func (m MultiTelemetrySink) SendAudioStats(s AudioStats) {
	for _, sink := range m {
		sink.SendAudioStats(s)
	}
}

func (m MultiTelemetrySink) SendKeyScanStats(s KeyScanStats) {
	for _, sink := range m {
		sink.SendKeyScanStats(s)
	}
}

// SlogTelemetrySink logs telemetry through the structured logger
type SlogTelemetrySink struct{}

func (SlogTelemetrySink) SendAudioStats(s AudioStats) {
	slog.Info("audio stats",
		"frames", s.FrameCount,
		"avg_render_us", s.AvgRenderTime,
		"max_render_us", s.MaxRenderTime,
		"buffer_us", s.BufferDuration,
		"underruns", s.UnderrunCount)
}

func (SlogTelemetrySink) SendKeyScanStats(s KeyScanStats) {
	slog.Debug("key scan stats",
		"keys", s.KeyCount,
		"calibrated", s.IsCalibrated)
}
