// synth_envelope.go - ADSR envelope generator

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

const (
	ENV_IDLE = iota
	ENV_ATTACK
	ENV_DECAY
	ENV_SUSTAIN
	ENV_RELEASE
)

// AdsrEnvelope generates a level curve from 0.0 to 1.0 driven by
// trigger/release events. Per-sample rates are derived from the time
// parameters when they are set, not in the sample loop.
type AdsrEnvelope struct {
	sampleRate float32

	attackTime   float32
	decayTime    float32
	sustainLevel float32
	releaseTime  float32

	attackRate  float32
	decayRate   float32
	releaseRate float32

	phase int
	level float32
}

func NewAdsrEnvelope(sampleRate float32) *AdsrEnvelope {
	env := &AdsrEnvelope{
		sampleRate:   sampleRate,
		attackTime:   0.01,
		decayTime:    0.05,
		sustainLevel: 0.7,
		releaseTime:  0.1,
	}
	env.updateRates()
	return env
}

// SetParameters sets all four ADSR parameters at once.
// Times are in seconds, sustain is a level in [0, 1].
func (env *AdsrEnvelope) SetParameters(attack, decay, sustain, release float32) {
	env.attackTime = attack
	env.decayTime = decay
	env.sustainLevel = sustain
	env.releaseTime = release
	env.updateRates()
}

func (env *AdsrEnvelope) SetAttackTime(time float32) {
	env.attackTime = time
	env.updateRates()
}

func (env *AdsrEnvelope) SetDecayTime(time float32) {
	env.decayTime = time
	env.updateRates()
}

func (env *AdsrEnvelope) SetSustainLevel(level float32) {
	env.sustainLevel = level
	env.updateRates()
}

func (env *AdsrEnvelope) SetReleaseTime(time float32) {
	env.releaseTime = time
	env.updateRates()
}

// Trigger starts the attack phase from level 0
func (env *AdsrEnvelope) Trigger() {
	env.phase = ENV_ATTACK
	env.level = 0.0
}

// Release starts the release phase; no-op when already idle
func (env *AdsrEnvelope) Release() {
	if env.phase != ENV_IDLE {
		env.phase = ENV_RELEASE
	}
}

// NextSample advances the envelope one sample and returns the new level
func (env *AdsrEnvelope) NextSample() float32 {
	switch env.phase {
	case ENV_ATTACK:
		env.level += env.attackRate
		if env.level >= 1.0 {
			env.level = 1.0
			env.phase = ENV_DECAY
		}
	case ENV_DECAY:
		env.level -= env.decayRate
		if env.level <= env.sustainLevel {
			env.level = env.sustainLevel
			env.phase = ENV_SUSTAIN
		}
	case ENV_SUSTAIN:
		env.level = env.sustainLevel
	case ENV_RELEASE:
		env.level -= env.releaseRate
		if env.level <= 0.0 {
			env.level = 0.0
			env.phase = ENV_IDLE
		}
	case ENV_IDLE:
		env.level = 0.0
	}

	return env.level
}

// IsActive reports whether the envelope has left the idle phase
func (env *AdsrEnvelope) IsActive() bool {
	return env.phase != ENV_IDLE
}

func (env *AdsrEnvelope) Level() float32 {
	return env.level
}

func (env *AdsrEnvelope) Phase() int {
	return env.phase
}

func (env *AdsrEnvelope) AttackTime() float32   { return env.attackTime }
func (env *AdsrEnvelope) DecayTime() float32    { return env.decayTime }
func (env *AdsrEnvelope) SustainLevel() float32 { return env.sustainLevel }
func (env *AdsrEnvelope) ReleaseTime() float32  { return env.releaseTime }

// Reset forces the envelope back to idle at level 0
func (env *AdsrEnvelope) Reset() {
	env.phase = ENV_IDLE
	env.level = 0.0
}

// Non-positive times collapse to a rate of 1, i.e. an instantaneous phase.
func (env *AdsrEnvelope) updateRates() {
	if env.attackTime > 0.0 {
		env.attackRate = 1.0 / (env.attackTime * env.sampleRate)
	} else {
		env.attackRate = 1.0
	}
	if env.decayTime > 0.0 {
		env.decayRate = (1.0 - env.sustainLevel) / (env.decayTime * env.sampleRate)
	} else {
		env.decayRate = 1.0
	}
	if env.releaseTime > 0.0 {
		env.releaseRate = env.sustainLevel / (env.releaseTime * env.sampleRate)
	} else {
		env.releaseRate = 1.0
	}
}
