// midi_demo.go - Demo arpeggiator emitting a C major arpeggio as MIDI bytes

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import (
	"log/slog"
	"time"
)

var arpeggioNotes = [4]uint8{60, 64, 67, 72} // C4 E4 G4 C5

const (
	ARPEGGIO_VELOCITY  = 100
	ARPEGGIO_STEP_TIME = 300 * time.Millisecond
)

// DemoArpeggiator plays an endless C major arpeggio into a MIDI byte sink,
// one Note On and Note Off per step. Useful for exercising the audio path
// without a controller attached.
type DemoArpeggiator struct {
	send     func(byte)
	stepTime time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewDemoArpeggiator(send func(byte), stepTime time.Duration) *DemoArpeggiator {
	if stepTime <= 0 {
		stepTime = ARPEGGIO_STEP_TIME
	}
	return &DemoArpeggiator{
		send:     send,
		stepTime: stepTime,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the arpeggio in a background goroutine until Stop
func (d *DemoArpeggiator) Start() {
	slog.Info("demo arpeggiator started", "step", d.stepTime)
	go d.run()
}

// Stop halts the arpeggio and releases the sounding note
func (d *DemoArpeggiator) Stop() {
	close(d.stop)
	<-d.done
	slog.Info("demo arpeggiator stopped")
}

func (d *DemoArpeggiator) run() {
	defer close(d.done)

	ticker := time.NewTicker(d.stepTime)
	defer ticker.Stop()

	step := 0
	for {
		note := arpeggioNotes[step%len(arpeggioNotes)]
		d.noteOn(note)

		select {
		case <-d.stop:
			d.noteOff(note)
			return
		case <-ticker.C:
		}

		d.noteOff(note)
		step++
	}
}

func (d *DemoArpeggiator) noteOn(note uint8) {
	d.send(MIDI_NOTE_ON)
	d.send(note)
	d.send(ARPEGGIO_VELOCITY)
}

func (d *DemoArpeggiator) noteOff(note uint8) {
	d.send(MIDI_NOTE_OFF)
	d.send(note)
	d.send(0x00)
}
