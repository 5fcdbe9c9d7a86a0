// voice_allocator_test.go - Voice allocation and stealing policy tests

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import "testing"

// fakeVoice records allocator-driven lifecycle calls without doing DSP
type fakeVoice struct {
	id        int
	active    bool
	triggers  int
	releases  int
	frequency float32
	volume    float32
	bend      float32
	bendRange float32
}

func (f *fakeVoice) Trigger(frequencyHz, volume float32) {
	f.triggers++
	f.frequency = frequencyHz
	f.volume = volume
	f.active = true
}

func (f *fakeVoice) Release() {
	f.releases++
	f.active = false
}

func (f *fakeVoice) NextSample() float32              { return 0.0 }
func (f *fakeVoice) SetFrequency(frequencyHz float32) { f.frequency = frequencyHz }
func (f *fakeVoice) SetTimbre(timbre float32)         {}
func (f *fakeVoice) SetVolume(volume float32)         { f.volume = volume }
func (f *fakeVoice) SetPitchBend(bendAmount float32)  { f.bend = bendAmount }
func (f *fakeVoice) PitchBendRange() float32          { return f.bendRange }
func (f *fakeVoice) SetPitchBendRange(s float32)      { f.bendRange = s }
func (f *fakeVoice) IsActive() bool                   { return f.active }

func newFakePool(size int) (*VoiceAllocator, []*fakeVoice) {
	voices := make([]*fakeVoice, 0, size)
	alloc := NewVoiceAllocator(size, func() Voice {
		v := &fakeVoice{id: len(voices)}
		voices = append(voices, v)
		return v
	})
	return alloc, voices
}

func TestAllocateSameNoteReturnsSameVoice(t *testing.T) {
	alloc, _ := newFakePool(4)

	first := alloc.Allocate(60)
	second := alloc.Allocate(60)

	if first != second {
		t.Error("re-allocating the same note should return the same voice")
	}
}

func TestAllocateDistinctNotesGetDistinctVoices(t *testing.T) {
	alloc, _ := newFakePool(4)

	seen := map[Voice]uint8{}
	for _, note := range []uint8{60, 62, 64, 65} {
		v := alloc.Allocate(note)
		if prev, ok := seen[v]; ok {
			t.Fatalf("note %d shares a voice with note %d before the pool is full", note, prev)
		}
		seen[v] = note
	}
}

func TestAllocatePrefersInactiveVoiceWhenPoolFull(t *testing.T) {
	alloc, voices := newFakePool(3)

	for _, note := range []uint8{60, 62, 64} {
		alloc.Allocate(note).Trigger(NoteToFrequency(note), 1.0)
	}

	// The middle voice finishes sounding but stays assigned
	voices[1].active = false

	v := alloc.Allocate(70)
	if v != voices[1] {
		t.Errorf("expected the inactive voice to be stolen, got voice %d", v.(*fakeVoice).id)
	}
	if alloc.FindAllocated(62) != nil {
		t.Error("stolen note 62 should no longer be assigned")
	}
}

func TestAllocateRoundRobinStealWhenAllActive(t *testing.T) {
	alloc, voices := newFakePool(3)

	for _, note := range []uint8{60, 62, 64} {
		alloc.Allocate(note).Trigger(NoteToFrequency(note), 1.0)
	}

	// All voices active: steals proceed round-robin from index 1
	stolen := []int{}
	for _, note := range []uint8{70, 72, 74, 76} {
		v := alloc.Allocate(note)
		v.Trigger(NoteToFrequency(note), 1.0)
		stolen = append(stolen, v.(*fakeVoice).id)
	}

	want := []int{1, 2, 0, 1}
	for i := range want {
		if stolen[i] != want[i] {
			t.Fatalf("steal sequence %v, want %v", stolen, want)
		}
	}
	_ = voices
}

func TestPoolConstructsExactlyMaxVoices(t *testing.T) {
	built := 0
	alloc := NewVoiceAllocator(3, func() Voice {
		built++
		return &fakeVoice{id: built - 1}
	})

	// One more distinct note than the pool holds: allocation must steal,
	// never construct
	for _, note := range []uint8{60, 62, 64, 66} {
		alloc.Allocate(note).Trigger(NoteToFrequency(note), 1.0)
	}

	if built != 3 {
		t.Errorf("voice factory ran %d times, want 3", built)
	}
}

func TestStealReleasesVoiceBeforeReassignment(t *testing.T) {
	alloc, voices := newFakePool(1)

	alloc.Allocate(60).Trigger(NoteToFrequency(60), 1.0)

	alloc.Allocate(64)
	if voices[0].releases != 1 {
		t.Errorf("stolen voice release count = %d, want 1", voices[0].releases)
	}
}

func TestStealReleasesEvenInactiveVoices(t *testing.T) {
	alloc, voices := newFakePool(2)

	alloc.Allocate(60).Trigger(NoteToFrequency(60), 1.0)
	alloc.Allocate(62).Trigger(NoteToFrequency(62), 1.0)
	voices[0].active = false

	alloc.Allocate(64)
	if voices[0].releases != 1 {
		t.Errorf("inactive stolen voice release count = %d, want 1", voices[0].releases)
	}
}

func TestFindAllocatedReturnsNilForUnknownNote(t *testing.T) {
	alloc, _ := newFakePool(4)

	alloc.Allocate(60)
	if alloc.FindAllocated(61) != nil {
		t.Error("FindAllocated should return nil for a note that was never allocated")
	}
}

func TestFindAllocatedDoesNotSteal(t *testing.T) {
	alloc, voices := newFakePool(2)

	alloc.Allocate(60)
	alloc.Allocate(62)

	if alloc.FindAllocated(64) != nil {
		t.Error("FindAllocated must not allocate")
	}
	for _, v := range voices {
		if v.releases != 0 {
			t.Error("FindAllocated must not release voices")
		}
	}
}

func TestForEachVoiceVisitsWholePool(t *testing.T) {
	alloc, _ := newFakePool(5)

	alloc.Allocate(60) // assignment state must not matter

	count := 0
	alloc.ForEachVoice(func(v Voice) { count++ })
	if count != 5 {
		t.Errorf("ForEachVoice visited %d voices, want 5", count)
	}
	if alloc.VoiceCount() != 5 {
		t.Errorf("VoiceCount() = %d, want 5", alloc.VoiceCount())
	}
}

func TestAllocatorHotPathDoesNotAllocate(t *testing.T) {
	alloc, _ := newFakePool(8)

	// Saturate the pool so Allocate exercises the steal path too
	for note := uint8(60); note < 76; note++ {
		alloc.Allocate(note).Trigger(NoteToFrequency(note), 1.0)
	}

	note := uint8(40)
	allocs := testing.AllocsPerRun(100, func() {
		v := alloc.Allocate(note)
		v.Trigger(NoteToFrequency(note), 1.0)
		alloc.FindAllocated(note)
		alloc.ForEachVoice(func(v Voice) {
			v.SetPitchBend(0.1)
		})
		note++
	})
	if allocs != 0 {
		t.Errorf("allocator hot path allocated %.1f times per run, want 0", allocs)
	}
}
