// program_data.go - Preset parameter block with JSON round-trip

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import "encoding/json"

// ProgramData is the serializable parameter block of a preset.
//
// When adding a parameter: add the field with its JSON tag, then add its
// default to DefaultProgramData so presets saved before the change still
// load.
type ProgramData struct {
	// Oscillator
	WaveformShape float32 `json:"waveformShape"`

	// Filter
	BaseCutoff float32 `json:"baseCutoff"`
	FilterQ    float32 `json:"filterQ"`
	FilterMode int     `json:"filterMode"`

	// Filter envelope
	FilterEnvAmount  float32 `json:"filterEnvAmount"`
	FilterEnvAttack  float32 `json:"filterEnvAttack"`
	FilterEnvDecay   float32 `json:"filterEnvDecay"`
	FilterEnvSustain float32 `json:"filterEnvSustain"`
	FilterEnvRelease float32 `json:"filterEnvRelease"`
}

// DefaultProgramData returns the defaults used for fields missing from a
// stored preset.
func DefaultProgramData() ProgramData {
	return ProgramData{
		WaveformShape:    0.0,
		BaseCutoff:       1000.0,
		FilterQ:          0.707,
		FilterMode:       FILTER_LOWPASS,
		FilterEnvAmount:  0.5,
		FilterEnvAttack:  0.005,
		FilterEnvDecay:   0.2,
		FilterEnvSustain: 0.3,
		FilterEnvRelease: 0.1,
	}
}

// StartupProgramData is the factory sound applied when no stored program
// exists at startup.
func StartupProgramData() ProgramData {
	return ProgramData{
		WaveformShape:    0.5,
		BaseCutoff:       2000.0,
		FilterQ:          1.0,
		FilterMode:       FILTER_LOWPASS,
		FilterEnvAmount:  1.0,
		FilterEnvAttack:  0.01,
		FilterEnvDecay:   0.5,
		FilterEnvSustain: 0.3,
		FilterEnvRelease: 0.2,
	}
}

// UnmarshalJSON fills missing fields with defaults so older presets stay
// loadable after new parameters are added.
func (p *ProgramData) UnmarshalJSON(data []byte) error {
	type programDataJSON ProgramData
	defaults := programDataJSON(DefaultProgramData())
	if err := json.Unmarshal(data, &defaults); err != nil {
		return err
	}
	*p = ProgramData(defaults)
	return nil
}

// CaptureFromVoices reads the parameter block from the first voice in the
// pool. All voices share program parameters, so one is representative.
func (p *ProgramData) CaptureFromVoices(allocator *VoiceAllocator) {
	captured := false
	allocator.ForEachVoice(func(voice Voice) {
		if captured {
			return
		}
		wv, ok := voice.(*WavetableVoice)
		if !ok {
			return
		}
		p.WaveformShape = wv.Oscillator().Shape()
		p.BaseCutoff = wv.BaseCutoff()
		p.FilterQ = wv.Filter().Q()
		p.FilterMode = wv.Filter().Mode()
		p.FilterEnvAmount = wv.FilterEnvAmount()
		p.FilterEnvAttack = wv.FilterEnvelope().AttackTime()
		p.FilterEnvDecay = wv.FilterEnvelope().DecayTime()
		p.FilterEnvSustain = wv.FilterEnvelope().SustainLevel()
		p.FilterEnvRelease = wv.FilterEnvelope().ReleaseTime()
		captured = true
	})
}

// ApplyToVoices pushes the parameter block to every voice in the pool
func (p *ProgramData) ApplyToVoices(allocator *VoiceAllocator) {
	allocator.ForEachVoice(func(voice Voice) {
		wv, ok := voice.(*WavetableVoice)
		if !ok {
			return
		}
		wv.Oscillator().UpdateWavetable(p.WaveformShape)
		wv.SetBaseCutoff(p.BaseCutoff)
		wv.Filter().SetQ(p.FilterQ)
		wv.Filter().SetMode(p.FilterMode)
		wv.SetFilterEnvAmount(p.FilterEnvAmount)
		wv.FilterEnvelope().SetAttackTime(p.FilterEnvAttack)
		wv.FilterEnvelope().SetDecayTime(p.FilterEnvDecay)
		wv.FilterEnvelope().SetSustainLevel(p.FilterEnvSustain)
		wv.FilterEnvelope().SetReleaseTime(p.FilterEnvRelease)
	})
}
