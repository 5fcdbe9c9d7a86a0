// program_storage.go - Filesystem preset persistence

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
	"os"
	"path/filepath"
)

// FilesystemProgramStorage stores programs as JSON files under
// <base>/bank_0/program_<n>.json.
type FilesystemProgramStorage struct {
	basePath string
}

func NewFilesystemProgramStorage(basePath string) *FilesystemProgramStorage {
	if basePath == "" {
		basePath = "patches"
	}
	return &FilesystemProgramStorage{basePath: basePath}
}

func (s *FilesystemProgramStorage) programPath(program uint8) string {
	return filepath.Join(s.basePath, "bank_0", fmt.Sprintf("program_%d.json", program))
}

// LoadProgram loads the numbered program and applies it to every voice.
// A missing or unreadable file applies defaults and returns false; loading
// never fails outright.
func (s *FilesystemProgramStorage) LoadProgram(program uint8, allocator *VoiceAllocator) bool {
	programData := DefaultProgramData()
	path := s.programPath(program)

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Info("program not found, using defaults", "program", program)
		programData.ApplyToVoices(allocator)
		return false
	}

	if err := json.Unmarshal(data, &programData); err != nil {
		slog.Error("error loading program", "program", program, "err", err)
		programData = DefaultProgramData()
		programData.ApplyToVoices(allocator)
		return false
	}

	programData.ApplyToVoices(allocator)
	slog.Info("loaded program", "program", program, "path", path)
	return true
}

// SaveProgram captures the current voice settings and writes them as the
// numbered program, creating the bank directory if needed.
func (s *FilesystemProgramStorage) SaveProgram(program uint8, allocator *VoiceAllocator) error {
	var programData ProgramData
	programData.CaptureFromVoices(allocator)

	path := s.programPath(program)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create program directory: %w", err)
	}

	data, err := json.MarshalIndent(programData, "", "  ")
	if err != nil {
		return fmt.Errorf("encode program %d: %w", program, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write program %d: %w", program, err)
	}

	slog.Info("saved program", "program", program, "path", path)
	return nil
}
