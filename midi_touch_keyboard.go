// midi_touch_keyboard.go - Capacitive key scan readings to MIDI bytes

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import "log/slog"

const (
	CALIBRATION_SCANS   = 100
	NOTE_ON_THRESHOLD   = 1.20 // reading 20% above baseline
	NOTE_OFF_THRESHOLD  = 1.10 // 10% above baseline (hysteresis)
	BASELINE_ALPHA      = 0.001
	AFTERTOUCH_DEADBAND = 2
	PRESSURE_FULL_RATIO = 2.0

	DEFAULT_BASE_NOTE = 60 // C4
	DEFAULT_VELOCITY  = 64
)

// TouchKeyboard converts capacitive key scanner readings into MIDI bytes.
//
// The first CALIBRATION_SCANS scans establish a per-key baseline. After
// that, each key runs a hysteresis state machine: Note On above 1.20x
// baseline, Note Off below 1.10x. While a key is down, pressure between
// the thresholds becomes poly aftertouch; baseline tracking freezes so a
// long press keeps its full aftertouch range.
type TouchKeyboard struct {
	scanner   KeyScanner
	send      func(byte)
	telemetry TelemetrySink

	baseNote      uint8
	fixedVelocity uint8

	calibrationCount uint16
	isCalibrated     bool
	calibrationSums  []uint32

	baselines      []float32
	keyStates      []bool
	lastAftertouch []uint8

	telemetryEnabled bool
}

// NewTouchKeyboard connects a scanner to a MIDI byte sink. The telemetry
// sink must be non-nil; pass NoTelemetrySink when unused.
func NewTouchKeyboard(scanner KeyScanner, send func(byte), telemetry TelemetrySink) *TouchKeyboard {
	keyCount := scanner.KeyCount()
	kb := &TouchKeyboard{
		scanner:         scanner,
		send:            send,
		telemetry:       telemetry,
		baseNote:        DEFAULT_BASE_NOTE,
		fixedVelocity:   DEFAULT_VELOCITY,
		calibrationSums: make([]uint32, keyCount),
		baselines:       make([]float32, keyCount),
		keyStates:       make([]bool, keyCount),
		lastAftertouch:  make([]uint8, keyCount),
	}
	slog.Info("touch keyboard initialized",
		"keys", keyCount, "base_note", kb.baseNote, "velocity", kb.fixedVelocity)
	return kb
}

// ProcessScan consumes one round of scanner readings and emits MIDI
// events. Call at the scan rate.
func (kb *TouchKeyboard) ProcessScan() {
	readings := kb.scanner.ScanReadings()
	keyCount := kb.scanner.KeyCount()

	if !kb.isCalibrated {
		for i := 0; i < keyCount; i++ {
			kb.calibrationSums[i] += uint32(readings[i])
		}
		kb.calibrationCount++
		if kb.calibrationCount >= CALIBRATION_SCANS {
			for i := 0; i < keyCount; i++ {
				kb.baselines[i] = float32(kb.calibrationSums[i]) / CALIBRATION_SCANS
			}
			kb.isCalibrated = true
			slog.Info("touch keyboard calibration complete")
		}
		return
	}

	for i := 0; i < keyCount; i++ {
		kb.processKey(i, readings[i])
	}

	if kb.telemetryEnabled {
		kb.telemetry.SendKeyScanStats(kb.buildStats(readings))
	}
}

func (kb *TouchKeyboard) processKey(keyIndex int, reading uint16) {
	baseline := kb.baselines[keyIndex]
	ratio := float32(reading) / baseline
	midiNote := kb.baseNote + uint8(keyIndex)

	if !kb.keyStates[keyIndex] {
		if ratio >= NOTE_ON_THRESHOLD {
			kb.keyStates[keyIndex] = true
			kb.sendNoteOn(midiNote)
			kb.lastAftertouch[keyIndex] = 0
			// baseline tracking freezes while the key is touched
		} else {
			kb.baselines[keyIndex] = baseline*(1.0-BASELINE_ALPHA) + float32(reading)*BASELINE_ALPHA
		}
		return
	}

	if ratio < NOTE_OFF_THRESHOLD {
		kb.keyStates[keyIndex] = false
		kb.sendNoteOff(midiNote)
		kb.baselines[keyIndex] = baseline*(1.0-BASELINE_ALPHA) + float32(reading)*BASELINE_ALPHA
		return
	}

	// higher capacitance ratio = more pressure
	pressure := (ratio - NOTE_OFF_THRESHOLD) / (PRESSURE_FULL_RATIO - NOTE_OFF_THRESHOLD)
	if pressure < 0.0 {
		pressure = 0.0
	}
	if pressure > 1.0 {
		pressure = 1.0
	}
	aftertouch := uint8(pressure * 127.0)

	diff := int(aftertouch) - int(kb.lastAftertouch[keyIndex])
	if diff < 0 {
		diff = -diff
	}
	if diff > AFTERTOUCH_DEADBAND {
		kb.sendPolyAftertouch(midiNote, aftertouch)
		kb.lastAftertouch[keyIndex] = aftertouch
	}
}

// SetFixedVelocity sets the velocity used for note-on events
func (kb *TouchKeyboard) SetFixedVelocity(velocity uint8) {
	kb.fixedVelocity = velocity & 0x7F
}

// SetBaseNote transposes the keyboard (MIDI note of the first key)
func (kb *TouchKeyboard) SetBaseNote(baseNote uint8) {
	kb.baseNote = baseNote & 0x7F
}

func (kb *TouchKeyboard) IsCalibrated() bool {
	return kb.isCalibrated
}

func (kb *TouchKeyboard) SetTelemetryEnabled(enabled bool) {
	kb.telemetryEnabled = enabled
}

func (kb *TouchKeyboard) buildStats(readings []uint16) KeyScanStats {
	stats := KeyScanStats{
		Type:             "keys",
		KeyCount:         uint8(kb.scanner.KeyCount()),
		NoteOnThreshold:  NOTE_ON_THRESHOLD,
		NoteOffThreshold: NOTE_OFF_THRESHOLD,
		IsCalibrated:     true,
		CalibrationCount: CALIBRATION_SCANS,
	}
	for i := 0; i < len(readings) && i < MAX_SCAN_KEYS; i++ {
		stats.Readings[i] = readings[i]
		stats.Baselines[i] = kb.baselines[i]
		stats.Ratios[i] = float32(readings[i]) / kb.baselines[i]
		stats.NoteStates[i] = kb.keyStates[i]
		stats.AftertouchValues[i] = kb.lastAftertouch[i]
	}
	return stats
}

func (kb *TouchKeyboard) sendNoteOn(note uint8) {
	kb.send(MIDI_NOTE_ON)
	kb.send(note & 0x7F)
	kb.send(kb.fixedVelocity & 0x7F)
}

func (kb *TouchKeyboard) sendNoteOff(note uint8) {
	kb.send(MIDI_NOTE_OFF)
	kb.send(note & 0x7F)
	kb.send(0x00)
}

func (kb *TouchKeyboard) sendPolyAftertouch(note, pressure uint8) {
	kb.send(MIDI_POLY_AFTERTOUCH)
	kb.send(note & 0x7F)
	kb.send(pressure & 0x7F)
}
