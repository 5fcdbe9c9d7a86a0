// control_map.go - Default MIDI controller mapping onto engine parameters

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import (
	"log/slog"
	"math"
)

// Controller numbers understood by the default map
const (
	CC_MOD_WHEEL          = 1
	CC_FILTER_CUTOFF      = 20
	CC_FILTER_Q           = 21
	CC_FILTER_ENV_SUSTAIN = 25
	CC_POST_FILTER_Q      = 63
	CC_POST_FILTER_CUTOFF = 70
	CC_FILTER_ENV_ATTACK  = 71
	CC_FILTER_ENV_DECAY   = 72
	CC_FILTER_ENV_RELEASE = 73
	CC_OUTPUT_DRIVE       = 74
	CC_CYCLE_FILTER_MODE  = 96
	CC_CYCLE_OUTPUT_MODE  = 102
	CC_PRESET_COPY        = 103
	CC_PRESET_PASTE       = 104
)

const (
	CC_CUTOFF_MIN_HZ      = 100.0
	CC_CUTOFF_MAX_HZ      = 10000.0
	CC_POST_CUTOFF_MAX_HZ = 20000.0
)

// expCutoff maps a normalized controller value to an exponential
// frequency range, so equal fader movement sounds like equal pitch change.
func expCutoff(normalized, minHz, maxHz float32) float32 {
	return minHz * float32(math.Pow(float64(maxHz/minHz), float64(normalized)))
}

func (e *SynthEngine) handleControlChange(channel, cc, value uint8, allocator *VoiceAllocator) {
	normalized := float32(value) / 127.0

	switch cc {
	case CC_MOD_WHEEL:
		allocator.ForEachVoice(func(v Voice) {
			v.SetTimbre(normalized)
		})

	case CC_FILTER_CUTOFF:
		cutoff := expCutoff(normalized, CC_CUTOFF_MIN_HZ, CC_CUTOFF_MAX_HZ)
		allocator.ForEachVoice(func(v Voice) {
			if wv, ok := v.(*WavetableVoice); ok {
				wv.SetBaseCutoff(cutoff)
			}
		})

	case CC_FILTER_Q:
		allocator.ForEachVoice(func(v Voice) {
			if wv, ok := v.(*WavetableVoice); ok {
				wv.Filter().SetQ(MIN_FILTER_Q + normalized*(MAX_FILTER_Q-MIN_FILTER_Q))
			}
		})

	case CC_FILTER_ENV_ATTACK:
		attack := 0.001 + normalized*2.0
		allocator.ForEachVoice(func(v Voice) {
			if wv, ok := v.(*WavetableVoice); ok {
				wv.FilterEnvelope().SetAttackTime(attack)
			}
		})

	case CC_FILTER_ENV_DECAY:
		decay := 0.01 + normalized*5.0
		allocator.ForEachVoice(func(v Voice) {
			if wv, ok := v.(*WavetableVoice); ok {
				wv.FilterEnvelope().SetDecayTime(decay)
			}
		})

	case CC_FILTER_ENV_SUSTAIN:
		allocator.ForEachVoice(func(v Voice) {
			if wv, ok := v.(*WavetableVoice); ok {
				wv.FilterEnvelope().SetSustainLevel(normalized)
			}
		})

	case CC_FILTER_ENV_RELEASE:
		release := 0.01 + normalized*5.0
		allocator.ForEachVoice(func(v Voice) {
			if wv, ok := v.(*WavetableVoice); ok {
				wv.FilterEnvelope().SetReleaseTime(release)
			}
		})

	case CC_OUTPUT_DRIVE:
		e.output.SetDrive(normalized)

	case CC_POST_FILTER_CUTOFF:
		e.output.PostFilter().SetCutoff(expCutoff(normalized, CC_CUTOFF_MIN_HZ, CC_POST_CUTOFF_MAX_HZ))

	case CC_POST_FILTER_Q:
		e.output.PostFilter().SetQ(MIN_FILTER_Q + normalized*(MAX_FILTER_Q-MIN_FILTER_Q))

	case CC_CYCLE_FILTER_MODE:
		if normalized > 0.5 {
			e.cycleFilterMode(allocator)
		}

	case CC_CYCLE_OUTPUT_MODE:
		if normalized > 0.5 {
			e.output.NextMode()
			slog.Info("output mode", "mode", e.output.Name(), "drive", e.output.Drive())
		}

	case CC_PRESET_COPY:
		if normalized > 0.5 && e.clipboard != nil {
			e.clipboard.Copy(allocator)
		}

	case CC_PRESET_PASTE:
		if normalized > 0.5 && e.clipboard != nil {
			if e.currentProgram == FACTORY_PROGRAM {
				slog.Error("cannot paste into factory program", "program", FACTORY_PROGRAM)
			} else if e.storage != nil {
				e.clipboard.PasteAndSave(allocator, e.currentProgram, e.storage)
			} else {
				e.clipboard.Paste(allocator)
			}
		}
	}
}

// cycleFilterMode advances every voice to the mode after the first voice's
// current one, keeping the pool consistent.
func (e *SynthEngine) cycleFilterMode(allocator *VoiceAllocator) {
	newMode := -1
	allocator.ForEachVoice(func(v Voice) {
		wv, ok := v.(*WavetableVoice)
		if !ok {
			return
		}
		if newMode < 0 {
			newMode = NextFilterMode(wv.Filter().Mode())
			slog.Info("filter mode", "mode", FilterModeName(newMode))
		}
		wv.Filter().SetMode(newMode)
	})
}

func (e *SynthEngine) handleProgramChange(channel, program uint8, allocator *VoiceAllocator) {
	e.currentProgram = program
	if e.storage != nil {
		e.storage.LoadProgram(program, allocator)
		return
	}
	defaults := DefaultProgramData()
	defaults.ApplyToVoices(allocator)
	slog.Info("program change without storage, applied defaults", "program", program)
}

// The touch keyboard's pressure stream arrives as poly aftertouch; the
// default map plays it as per-voice volume.
func (e *SynthEngine) handlePolyAftertouch(channel, note, pressure uint8, voice Voice) {
	voice.SetVolume(float32(pressure) / 127.0)
}
