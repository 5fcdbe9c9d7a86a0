// preset_clipboard.go - Preset copy/paste (in-memory and OS clipboard)

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.design/x/clipboard"
)

// MemoryClipboard holds a single preset in memory. Used in tests and on
// headless targets with no system clipboard.
type MemoryClipboard struct {
	data    ProgramData
	hasData bool
}

func NewMemoryClipboard() *MemoryClipboard {
	return &MemoryClipboard{}
}

func (c *MemoryClipboard) Copy(allocator *VoiceAllocator) {
	c.data.CaptureFromVoices(allocator)
	c.hasData = true
	slog.Info("copied current settings to clipboard")
}

func (c *MemoryClipboard) Paste(allocator *VoiceAllocator) bool {
	if !c.hasData {
		slog.Warn("clipboard is empty")
		return false
	}
	c.data.ApplyToVoices(allocator)
	slog.Info("pasted clipboard to voices")
	return true
}

func (c *MemoryClipboard) PasteAndSave(allocator *VoiceAllocator, program uint8, storage ProgramStorage) bool {
	if !c.Paste(allocator) {
		return false
	}
	if err := storage.SaveProgram(program, allocator); err != nil {
		slog.Error("save pasted program failed", "program", program, "err", err)
		return false
	}
	return true
}

func (c *MemoryClipboard) HasData() bool {
	return c.hasData
}

// SystemClipboard exchanges presets with the OS clipboard as JSON text, so
// a preset can be pasted into an editor or shared between instances.
type SystemClipboard struct{}

// NewSystemClipboard initializes the OS clipboard; fails when no display
// is available (use MemoryClipboard then).
func NewSystemClipboard() (*SystemClipboard, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("clipboard init: %w", err)
	}
	return &SystemClipboard{}, nil
}

func (c *SystemClipboard) Copy(allocator *VoiceAllocator) {
	var data ProgramData
	data.CaptureFromVoices(allocator)

	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("encode preset for clipboard failed", "err", err)
		return
	}
	clipboard.Write(clipboard.FmtText, text)
	slog.Info("copied current settings to system clipboard")
}

func (c *SystemClipboard) Paste(allocator *VoiceAllocator) bool {
	data, ok := c.read()
	if !ok {
		return false
	}
	data.ApplyToVoices(allocator)
	slog.Info("pasted system clipboard to voices")
	return true
}

func (c *SystemClipboard) PasteAndSave(allocator *VoiceAllocator, program uint8, storage ProgramStorage) bool {
	if !c.Paste(allocator) {
		return false
	}
	if err := storage.SaveProgram(program, allocator); err != nil {
		slog.Error("save pasted program failed", "program", program, "err", err)
		return false
	}
	return true
}

func (c *SystemClipboard) HasData() bool {
	_, ok := c.read()
	return ok
}

func (c *SystemClipboard) read() (ProgramData, bool) {
	text := clipboard.Read(clipboard.FmtText)
	if len(text) == 0 {
		slog.Warn("system clipboard is empty")
		return ProgramData{}, false
	}
	data := DefaultProgramData()
	if err := json.Unmarshal(text, &data); err != nil {
		slog.Warn("system clipboard does not hold a preset", "err", err)
		return ProgramData{}, false
	}
	return data, true
}
