// audio_output_processor.go - Post-mix waveshaping and shared post-filter

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import "math"

const (
	CLIP_TANH = iota
	CLIP_WAVEFOLD
	CLIP_SOFT_WAVEFOLD
	CLIP_ALGORITHM_COUNT
)

const (
	FOLD_THRESHOLD = 1.0
	FOLD_SOFTNESS  = 3.0

	POST_FILTER_CUTOFF = 10000.0
	POST_FILTER_Q      = 0.707
)

// clipFunc is a pure transfer function applied to an already-driven sample
type clipFunc func(x float32) float32

type clipAlgorithm struct {
	name string
	fn   clipFunc
}

var clipAlgorithms = [CLIP_ALGORITHM_COUNT]clipAlgorithm{
	{name: "TanhClip", fn: tanhClip},
	{name: "WaveFold", fn: waveFold},
	{name: "SoftWaveFold", fn: softWaveFold},
}

// OutputProcessor operates on the mixed mono buffer after all voices are
// summed: a selectable nonlinear waveshaper followed by a shared lowpass.
// The shaper set is fixed; switching resets the post-filter registers so
// the new curve starts from silence.
type OutputProcessor struct {
	activeIndex int
	drive       float32
	postFilter  BiquadFilter
}

func NewOutputProcessor(drive, sampleRate float32) *OutputProcessor {
	p := &OutputProcessor{
		postFilter: *NewBiquadFilter(sampleRate),
	}
	p.SetDrive(drive)
	p.postFilter.SetMode(FILTER_LOWPASS)
	p.postFilter.SetCutoff(POST_FILTER_CUTOFF)
	p.postFilter.SetQ(POST_FILTER_Q)
	return p
}

// ProcessBuffer shapes and filters the mono buffer in place.
// Normalized drive [0, 1] maps exponentially to an input gain of
// [0.1, 10]; 0.5 is unity.
func (p *OutputProcessor) ProcessBuffer(buffer []float32) {
	actualDrive := 0.1 * float32(math.Pow(100.0, float64(p.drive)))
	fn := clipAlgorithms[p.activeIndex].fn

	for i := range buffer {
		buffer[i] = fn(buffer[i] * actualDrive)
	}

	for i := range buffer {
		buffer[i] = p.postFilter.ProcessSample(buffer[i])
	}
}

// SetDrive sets the normalized drive, clamped to [0, 1]
func (p *OutputProcessor) SetDrive(drive float32) {
	if drive < 0.0 {
		drive = 0.0
	}
	if drive > 1.0 {
		drive = 1.0
	}
	p.drive = drive
}

func (p *OutputProcessor) Drive() float32 {
	return p.drive
}

// NextMode cycles to the next shaping algorithm
func (p *OutputProcessor) NextMode() {
	p.activeIndex = (p.activeIndex + 1) % CLIP_ALGORITHM_COUNT
	p.postFilter.Reset()
}

func (p *OutputProcessor) ModeIndex() int {
	return p.activeIndex
}

// SetModeIndex selects a shaping algorithm by index; out-of-range indices
// are ignored.
func (p *OutputProcessor) SetModeIndex(index int) {
	if index < 0 || index >= CLIP_ALGORITHM_COUNT {
		return
	}
	if index != p.activeIndex {
		p.activeIndex = index
		p.postFilter.Reset()
	}
}

// Name returns the active algorithm's display name
func (p *OutputProcessor) Name() string {
	return clipAlgorithms[p.activeIndex].name
}

// PostFilter exposes the shared post lowpass for CC control
func (p *OutputProcessor) PostFilter() *BiquadFilter {
	return &p.postFilter
}

// tanhClip saturates smoothly; tanh naturally compresses to [-1, 1]
func tanhClip(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}

// waveFold folds peaks back at the +-1 boundaries, producing a triangle
// pattern from overdriven input.
func waveFold(x float32) float32 {
	x = (x/FOLD_THRESHOLD)*0.5 + 0.5

	x = float32(math.Mod(float64(x), 2.0))
	if x < 0.0 {
		x += 2.0
	}
	if x > 1.0 {
		x = 2.0 - x
	}

	return (x*2.0 - 1.0) * FOLD_THRESHOLD
}

// softWaveFold folds like waveFold but smooths the fold points with tanh
// for a warmer character with fewer high harmonics.
func softWaveFold(x float32) float32 {
	x = (x/FOLD_THRESHOLD)*0.5 + 0.5

	x = float32(math.Mod(float64(x), 2.0))
	if x < 0.0 {
		x += 2.0
	}
	if x > 1.0 {
		x = 2.0 - x
	}

	x = x*2.0 - 1.0
	x = float32(math.Tanh(float64(x)*FOLD_SOFTNESS) / math.Tanh(FOLD_SOFTNESS))
	x = x*0.5 + 0.5

	return (x*2.0 - 1.0) * FOLD_THRESHOLD
}
