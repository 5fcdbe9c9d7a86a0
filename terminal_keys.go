// terminal_keys.go - Musical typing: QWERTY keys to MIDI notes in raw mode

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// Home row plays a chromatic octave from C; 'z'/'x' shift octaves.
// Terminals deliver no key-up events, so each press retriggers the note
// and releases the previous one.
var typingKeymap = map[byte]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5,
	't': 6, 'g': 7, 'y': 8, 'h': 9, 'u': 10, 'j': 11,
	'k': 12, 'o': 13, 'l': 14,
}

const (
	TYPING_VELOCITY    = 100
	TYPING_BASE_OCTAVE = 5 // MIDI octave of C4 = 60
	TYPING_MIN_OCTAVE  = 1
	TYPING_MAX_OCTAVE  = 9
)

// TerminalKeys turns the controlling terminal into a toy MIDI keyboard.
// Run blocks until 'q', Ctrl-C or stdin EOF.
type TerminalKeys struct {
	send   func(byte)
	octave int
}

func NewTerminalKeys(send func(byte)) *TerminalKeys {
	return &TerminalKeys{send: send, octave: TYPING_BASE_OCTAVE}
}

func (tk *TerminalKeys) Run() error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	fmt.Print("musical typing: a-l play notes, z/x octave down/up, q quits\r\n")

	lastNote := -1
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			break
		}
		key := buf[0]

		if key == 'q' || key == 0x03 { // Ctrl-C
			break
		}

		switch key {
		case 'z':
			if tk.octave > TYPING_MIN_OCTAVE {
				tk.octave--
			}
			fmt.Printf("octave %d\r\n", tk.octave-1)
			continue
		case 'x':
			if tk.octave < TYPING_MAX_OCTAVE {
				tk.octave++
			}
			fmt.Printf("octave %d\r\n", tk.octave-1)
			continue
		}

		offset, ok := typingKeymap[key]
		if !ok {
			continue
		}
		note := tk.octave*12 + offset
		if note > 127 {
			continue
		}

		if lastNote >= 0 && lastNote != note {
			tk.noteOff(uint8(lastNote))
		}
		tk.noteOn(uint8(note))
		lastNote = note
	}

	if lastNote >= 0 {
		tk.noteOff(uint8(lastNote))
	}
	slog.Info("musical typing ended")
	return nil
}

func (tk *TerminalKeys) noteOn(note uint8) {
	tk.send(MIDI_NOTE_ON)
	tk.send(note)
	tk.send(TYPING_VELOCITY)
}

func (tk *TerminalKeys) noteOff(note uint8) {
	tk.send(MIDI_NOTE_OFF)
	tk.send(note)
	tk.send(0x00)
}
