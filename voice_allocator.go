// voice_allocator.go - Fixed-pool polyphonic voice allocation with stealing

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

type voiceSlot struct {
	voice        Voice
	assignedNote uint8
	assigned     bool
}

// VoiceAllocator owns a fixed pool of voices and maps MIDI notes onto them.
//
// Contract: every voice is built by the factory during construction and the
// pool is never resized. Outside the constructor no allocation happens in
// Allocate, FindAllocated, ForEachVoice or any voice method; the audio
// thread depends on this.
type VoiceAllocator struct {
	slots      []voiceSlot
	lastStolen int
}

// NewVoiceAllocator builds a pool of maxVoices voices, invoking the factory
// exactly once per slot.
func NewVoiceAllocator(maxVoices int, factory func() Voice) *VoiceAllocator {
	a := &VoiceAllocator{
		slots: make([]voiceSlot, maxVoices),
	}
	for i := range a.slots {
		a.slots[i].voice = factory()
	}
	return a
}

// Allocate returns the voice for the note, never failing. Policy, in order:
// the slot already assigned to this note; any unassigned slot; the first
// slot whose voice reports inactive; round-robin steal after the last
// stolen index. A stolen voice is released before reassignment so its
// envelope and filter state are cleared, even if it was already idle.
func (a *VoiceAllocator) Allocate(note uint8) Voice {
	for i := range a.slots {
		if a.slots[i].assigned && a.slots[i].assignedNote == note {
			return a.slots[i].voice
		}
	}

	for i := range a.slots {
		if !a.slots[i].assigned {
			a.slots[i].assignedNote = note
			a.slots[i].assigned = true
			return a.slots[i].voice
		}
	}

	for i := range a.slots {
		if !a.slots[i].voice.IsActive() {
			return a.steal(i, note)
		}
	}

	return a.steal((a.lastStolen+1)%len(a.slots), note)
}

func (a *VoiceAllocator) steal(index int, note uint8) Voice {
	a.lastStolen = index
	slot := &a.slots[index]
	slot.voice.Release()
	slot.assignedNote = note
	slot.assigned = true
	return slot.voice
}

// FindAllocated returns the voice currently assigned to the note, or nil.
// It never allocates and never steals; a note whose voice was stolen for
// another note returns nil.
func (a *VoiceAllocator) FindAllocated(note uint8) Voice {
	for i := range a.slots {
		if a.slots[i].assigned && a.slots[i].assignedNote == note {
			return a.slots[i].voice
		}
	}
	return nil
}

// ForEachVoice applies f to every pool voice regardless of assignment,
// for global operations like pitch bend broadcast and audio mixing.
// f must not re-enter the allocator.
func (a *VoiceAllocator) ForEachVoice(f func(Voice)) {
	for i := range a.slots {
		f(a.slots[i].voice)
	}
}

// VoiceCount returns the fixed pool size
func (a *VoiceAllocator) VoiceCount() int {
	return len(a.slots)
}
