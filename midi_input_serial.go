// midi_input_serial.go - Raw MIDI bytes from a serial/UART device

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.bug.st/serial"
)

// Standard MIDI DIN baud rate; hardware controllers on a UART use this
const MIDI_BAUD_RATE = 31250

// SerialMIDIInput reads raw MIDI bytes from a serial port and feeds them
// to the engine one at a time. The stream decoder's resumability means no
// framing is needed here.
type SerialMIDIInput struct {
	port    serial.Port
	device  string
	send    func(byte)
	started bool
	done    chan struct{}
}

func NewSerialMIDIInput(device string, baud int, send func(byte)) (*SerialMIDIInput, error) {
	if baud <= 0 {
		baud = MIDI_BAUD_RATE
	}
	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}
	slog.Info("serial MIDI port opened", "device", device, "baud", baud)
	return &SerialMIDIInput{
		port:   port,
		device: device,
		send:   send,
		done:   make(chan struct{}),
	}, nil
}

// Start launches the reader goroutine
func (s *SerialMIDIInput) Start() error {
	s.started = true
	go s.readLoop()
	return nil
}

// Close stops the reader by closing the underlying port. There is no
// goroutine to wait for unless Start ran.
func (s *SerialMIDIInput) Close() {
	_ = s.port.Close()
	if s.started {
		<-s.done
	}
}

func (s *SerialMIDIInput) readLoop() {
	defer close(s.done)

	buf := make([]byte, 64)
	for {
		n, err := s.port.Read(buf)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Warn("serial MIDI read ended", "device", s.device, "err", err)
			}
			return
		}
		for _, b := range buf[:n] {
			s.send(b)
		}
	}
}

// ListSerialPorts enumerates the system's serial device names
func ListSerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
