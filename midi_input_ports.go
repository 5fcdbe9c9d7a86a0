// midi_input_ports.go - MIDI input ports with hot-plug watching (rtmidi)

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
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Ports matching any of these patterns are never auto-connected
// (virtual/system ports).
var excludedPortPatterns = []string{"Midi Through", "Through Port", "Dummy"}

const midiRescanInterval = time.Second

// MIDIPortInput delivers raw MIDI bytes from a system MIDI input port to
// the engine. It scans for ports on a regular interval and reconnects
// transparently on hot-plug and hot-unplug.
//
// An empty portName auto-connects to the first non-virtual port found.
type MIDIPortInput struct {
	mu           sync.Mutex
	drv          *rtmididrv.Driver
	inPort       drivers.In
	stopListen   func()
	connected    bool
	selectedName string
	lastRescanAt time.Time
	portName     string
	send         func(byte)

	started   bool
	watchStop chan struct{}
	watchDone chan struct{}
}

func NewMIDIPortInput(portName string, send func(byte)) (*MIDIPortInput, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &MIDIPortInput{
		drv:       drv,
		portName:  portName,
		send:      send,
		watchStop: make(chan struct{}),
		watchDone: make(chan struct{}),
	}, nil
}

// Start launches the watcher goroutine; connection happens on its first tick
func (m *MIDIPortInput) Start() error {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	go func() {
		defer close(m.watchDone)
		ticker := time.NewTicker(midiRescanInterval)
		defer ticker.Stop()
		m.tick()
		for {
			select {
			case <-m.watchStop:
				return
			case <-ticker.C:
				m.tick()
			}
		}
	}()
	return nil
}

// Close stops the watcher, the active connection and the rtmidi driver.
// The watcher goroutine only exists once Start ran.
func (m *MIDIPortInput) Close() {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if started {
		close(m.watchStop)
		<-m.watchDone
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeConn()
	if m.drv != nil {
		m.drv.Close()
	}
}

func (m *MIDIPortInput) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if !m.lastRescanAt.IsZero() && now.Sub(m.lastRescanAt) < midiRescanInterval {
		return
	}
	m.lastRescanAt = now

	inputs := m.listInputs()

	if m.connected {
		for _, n := range inputs {
			if n == m.selectedName {
				return // still there
			}
		}
		slog.Warn("midi: device disappeared", "device", m.selectedName)
		m.closeConn()
		m.lastRescanAt = time.Time{} // rescan immediately next tick
		return
	}

	if len(inputs) == 0 {
		return
	}
	cand, ok := m.pickPort(inputs)
	if !ok {
		return
	}
	if err := m.openByName(cand); err != nil {
		slog.Error("midi: connect failed", "device", cand, "err", err)
	}
}

func (m *MIDIPortInput) listInputs() []string {
	ins, err := m.drv.Ins()
	if err != nil {
		slog.Error("midi: list inputs failed", "err", err)
		return nil
	}
	var names []string
	for _, in := range ins {
		name := in.String()
		excluded := false
		for _, pat := range excludedPortPatterns {
			if containsCI(name, pat) {
				excluded = true
				break
			}
		}
		if !excluded {
			names = append(names, name)
		}
	}
	return names
}

func (m *MIDIPortInput) pickPort(inputs []string) (string, bool) {
	if m.portName != "" {
		for _, name := range inputs {
			if containsCI(name, m.portName) {
				return name, true
			}
		}
		return "", false
	}
	return inputs[0], true
}

func (m *MIDIPortInput) closeConn() {
	if m.stopListen != nil {
		m.stopListen()
		m.stopListen = nil
	}
	if m.inPort != nil {
		_ = m.inPort.Close()
		m.inPort = nil
	}
	m.connected = false
	m.selectedName = ""
}

func (m *MIDIPortInput) openByName(name string) error {
	ins, err := m.drv.Ins()
	if err != nil {
		return err
	}
	var found drivers.In
	for _, in := range ins {
		if in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		return fmt.Errorf("input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}

	// A midi.Message is the raw wire bytes of the event, which is exactly
	// what the engine's stream decoder wants.
	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		for _, b := range msg {
			m.send(b)
		}
	}, midi.HandleError(func(listenErr error) {
		slog.Warn("midi: listener error", "device", name, "err", listenErr)
		// Must not tear down the connection from inside the listener
		// goroutine; dispatch and re-acquire the mutex.
		go func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.connected && m.selectedName == name {
				m.closeConn()
				m.lastRescanAt = time.Time{}
			}
		}()
	}))
	if err != nil {
		_ = found.Close()
		return fmt.Errorf("listen %q: %w", name, err)
	}

	m.inPort = found
	m.stopListen = stop
	m.connected = true
	m.selectedName = name
	slog.Info("midi: connected", "device", name)
	return nil
}

// ListMIDIInputs enumerates the system's MIDI input port names
func ListMIDIInputs() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
