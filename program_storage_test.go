// program_storage_test.go - Filesystem preset persistence tests

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveThenLoadProgram(t *testing.T) {
	dir := t.TempDir()
	storage := NewFilesystemProgramStorage(dir)

	pool := newVoicePool(2)
	want := DefaultProgramData()
	want.WaveformShape = 0.9
	want.BaseCutoff = 5000
	want.FilterMode = FILTER_HIGHPASS
	want.ApplyToVoices(pool)

	if err := storage.SaveProgram(12, pool); err != nil {
		t.Fatal(err)
	}

	// Load into a fresh pool
	other := newVoicePool(2)
	if !storage.LoadProgram(12, other) {
		t.Fatal("LoadProgram returned false for a saved program")
	}

	var got ProgramData
	got.CaptureFromVoices(other)
	if got != want {
		t.Errorf("loaded program mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestLoadMissingProgramAppliesDefaults(t *testing.T) {
	storage := NewFilesystemProgramStorage(t.TempDir())

	pool := newVoicePool(2)
	startup := StartupProgramData()
	startup.ApplyToVoices(pool)

	if storage.LoadProgram(42, pool) {
		t.Fatal("LoadProgram returned true for a program that was never saved")
	}

	var got ProgramData
	got.CaptureFromVoices(pool)
	if got != DefaultProgramData() {
		t.Errorf("missing program should apply defaults, got %+v", got)
	}
}

func TestLoadCorruptProgramAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	storage := NewFilesystemProgramStorage(dir)

	bankDir := filepath.Join(dir, "bank_0")
	if err := os.MkdirAll(bankDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bankDir, "program_9.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	pool := newVoicePool(2)
	if storage.LoadProgram(9, pool) {
		t.Fatal("LoadProgram returned true for a corrupt program file")
	}

	var got ProgramData
	got.CaptureFromVoices(pool)
	if got != DefaultProgramData() {
		t.Errorf("corrupt program should apply defaults, got %+v", got)
	}
}

func TestSaveCreatesBankDirectory(t *testing.T) {
	dir := t.TempDir()
	storage := NewFilesystemProgramStorage(filepath.Join(dir, "nested", "patches"))

	pool := newVoicePool(1)
	if err := storage.SaveProgram(3, pool); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "nested", "patches", "bank_0", "program_3.json")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected program file at %s: %v", path, err)
	}
}

func TestLoadProgramOlderFormat(t *testing.T) {
	dir := t.TempDir()
	storage := NewFilesystemProgramStorage(dir)

	bankDir := filepath.Join(dir, "bank_0")
	if err := os.MkdirAll(bankDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// A preset written before the filter envelope fields existed
	old := []byte(`{"waveformShape": 1.0, "baseCutoff": 800, "filterQ": 2.0, "filterMode": 0}`)
	if err := os.WriteFile(filepath.Join(bankDir, "program_2.json"), old, 0o644); err != nil {
		t.Fatal(err)
	}

	pool := newVoicePool(2)
	if !storage.LoadProgram(2, pool) {
		t.Fatal("older format preset should still load")
	}

	var got ProgramData
	got.CaptureFromVoices(pool)
	if got.WaveformShape != 1.0 || got.BaseCutoff != 800 {
		t.Errorf("stored fields not applied: %+v", got)
	}
	if got.FilterEnvAttack != DefaultProgramData().FilterEnvAttack {
		t.Errorf("missing fields should default, got attack %f", got.FilterEnvAttack)
	}
}
