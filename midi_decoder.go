// midi_decoder.go - Resumable byte-at-a-time MIDI channel message decoder

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import "math"

const (
	MIDI_STATUS_BIT = 0x80

	MIDI_NOTE_OFF         = 0x80
	MIDI_NOTE_ON          = 0x90
	MIDI_POLY_AFTERTOUCH  = 0xA0
	MIDI_CONTROL_CHANGE   = 0xB0
	MIDI_PROGRAM_CHANGE   = 0xC0
	MIDI_CHANNEL_PRESSURE = 0xD0
	MIDI_PITCH_BEND       = 0xE0
	MIDI_SYSTEM           = 0xF0

	// System Real-Time range; these may appear anywhere in the stream
	MIDI_REALTIME_FIRST = 0xF8

	// Controller numbers >= 120 are Channel Mode messages, not handled here
	MIDI_CC_MODE_FIRST = 120

	MIDI_PITCH_BEND_CENTER = 8192
)

// Decoder states: how many data bytes the current command still needs
const (
	DECODE_INITIAL = iota
	DECODE_NEED_2_BYTES
	DECODE_NEED_1_BYTE
)

// ControlChangeFunc handles a completed Control Change message (cc < 120)
type ControlChangeFunc func(channel, cc, value uint8, allocator *VoiceAllocator)

// ProgramChangeFunc handles a completed Program Change message
type ProgramChangeFunc func(channel, program uint8, allocator *VoiceAllocator)

// PolyAftertouchFunc handles per-note pressure for a currently-assigned voice
type PolyAftertouchFunc func(channel, note, pressure uint8, voice Voice)

// StreamDecoder reconstructs MIDI channel messages from a raw byte stream,
// one byte at a time, and drives the voice allocator. It supports running
// status, tolerates System Real-Time bytes inside partial messages, and
// recovers from malformed input by resetting; it never reports an error.
type StreamDecoder struct {
	allocator     *VoiceAllocator
	listenChannel uint8

	state          int
	currentCommand uint8
	messageByte1   uint8

	onControlChange  ControlChangeFunc
	onProgramChange  ProgramChangeFunc
	onPolyAftertouch PolyAftertouchFunc
}

// NewStreamDecoder creates a decoder listening on the given channel (0-15).
// Nil callbacks cause the corresponding messages to be dropped silently.
func NewStreamDecoder(allocator *VoiceAllocator, listenChannel uint8,
	onControlChange ControlChangeFunc,
	onProgramChange ProgramChangeFunc,
	onPolyAftertouch PolyAftertouchFunc) *StreamDecoder {
	return &StreamDecoder{
		allocator:        allocator,
		listenChannel:    listenChannel & 0x0F,
		onControlChange:  onControlChange,
		onProgramChange:  onProgramChange,
		onPolyAftertouch: onPolyAftertouch,
	}
}

// Process consumes one MIDI byte. Side effects only; never blocks,
// never allocates.
func (d *StreamDecoder) Process(b byte) {
	// System Real-Time bytes are ignored in place without disturbing a
	// partial message.
	if b >= MIDI_REALTIME_FIRST {
		return
	}

	if b&MIDI_STATUS_BIT != 0 {
		d.handleStatusByte(b)
		return
	}

	switch d.state {
	case DECODE_NEED_2_BYTES:
		d.messageByte1 = b
		d.state = DECODE_NEED_1_BYTE
	case DECODE_NEED_1_BYTE:
		d.dispatch(b)
	default:
		// stray data byte with no pending command
	}
}

// A new status byte discards any partial message.
func (d *StreamDecoder) handleStatusByte(b byte) {
	command := b & 0xF0
	channel := b & 0x0F

	if command == MIDI_SYSTEM {
		// System Common; the low nibble is a message type, not a channel
		d.currentCommand = 0
		d.state = DECODE_INITIAL
		return
	}

	if channel != d.listenChannel {
		d.currentCommand = 0
		d.state = DECODE_INITIAL
		return
	}

	d.currentCommand = command
	d.state = d.waitingState()
}

// waitingState returns the decode state that expects the first data byte
// of the current command. Re-entering it after dispatch is what enables
// running status.
func (d *StreamDecoder) waitingState() int {
	switch d.currentCommand {
	case MIDI_NOTE_OFF, MIDI_NOTE_ON, MIDI_POLY_AFTERTOUCH, MIDI_CONTROL_CHANGE, MIDI_PITCH_BEND:
		return DECODE_NEED_2_BYTES
	case MIDI_PROGRAM_CHANGE, MIDI_CHANNEL_PRESSURE:
		return DECODE_NEED_1_BYTE
	}
	return DECODE_INITIAL
}

// dispatch completes the current message with its final data byte.
func (d *StreamDecoder) dispatch(b byte) {
	channel := d.listenChannel

	switch d.currentCommand {
	case MIDI_NOTE_ON:
		note, velocity := d.messageByte1, b
		if velocity == 0 {
			// Note On with velocity 0 is a Note Off
			d.allocator.Allocate(note).Release()
		} else {
			voice := d.allocator.Allocate(note)
			voice.Trigger(NoteToFrequency(note), float32(velocity)/127.0)
		}

	case MIDI_NOTE_OFF:
		// Deliberately the same Allocate path as Note On: a Note Off for
		// a note whose voice was stolen releases the slot's current
		// occupant. Observed source behavior, kept as-is.
		note := d.messageByte1
		d.allocator.Allocate(note).Release()

	case MIDI_POLY_AFTERTOUCH:
		note, pressure := d.messageByte1, b
		if voice := d.allocator.FindAllocated(note); voice != nil && d.onPolyAftertouch != nil {
			d.onPolyAftertouch(channel, note, pressure, voice)
		}

	case MIDI_CONTROL_CHANGE:
		cc, value := d.messageByte1, b
		if cc < MIDI_CC_MODE_FIRST && d.onControlChange != nil {
			d.onControlChange(channel, cc, value, d.allocator)
		}

	case MIDI_PROGRAM_CHANGE:
		if d.onProgramChange != nil {
			d.onProgramChange(channel, b, d.allocator)
		}

	case MIDI_PITCH_BEND:
		// 14-bit value, LSB first; idle voices get the bend too so they
		// carry correct state into their next trigger.
		value := int(b)<<7 | int(d.messageByte1)
		bend := float32(value-MIDI_PITCH_BEND_CENTER) / float32(MIDI_PITCH_BEND_CENTER)
		d.allocator.ForEachVoice(func(v Voice) {
			v.SetPitchBend(bend)
		})

	case MIDI_CHANNEL_PRESSURE:
		// decoded but unmapped; consumed to keep running status intact
	}

	d.state = d.waitingState()
}

// NoteToFrequency converts a MIDI note number to Hz (equal temperament,
// A4 = note 69 = 440 Hz).
func NoteToFrequency(note uint8) float32 {
	return 440.0 * float32(math.Pow(2.0, float64(int(note)-69)/12.0))
}
