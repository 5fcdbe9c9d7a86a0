//go:build !headless

// audio_backend_alsa.go - ALSA audio output implementation

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* openPCM(const char* device, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, SND_PCM_STREAM_PLAYBACK, 0);
    return handle;
}

static int setupPCM(snd_pcm_t* handle, unsigned int rate, unsigned int channels) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_FLOAT);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, channels);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate(handle, params, rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static int writePCM(snd_pcm_t* handle, float* buffer, int frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static void closePCM(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"
import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"
)

// ALSAOutput drives the engine from a push-style render goroutine into
// the default PCM device. Unlike OtoOutput there is no pull callback,
// so the loop renders one engine buffer at a time and blocks in writei.
type ALSAOutput struct {
	handle  *C.snd_pcm_t
	engine  *SynthEngine
	samples []float32
	frames  int
	started bool
	stop    chan struct{}
	done    chan struct{}
	mutex   sync.Mutex
}

func NewALSAOutput(engine *SynthEngine) (*ALSAOutput, error) {
	var cerr C.int
	device := C.CString("default")
	defer C.free(unsafe.Pointer(device))

	handle := C.openPCM(device, &cerr)
	if cerr < 0 {
		return nil, fmt.Errorf("failed to open PCM device: %s", C.GoString(C.snd_strerror(cerr)))
	}

	if cerr = C.setupPCM(handle, C.uint(engine.SampleRate()), C.uint(OUTPUT_CHANNELS)); cerr < 0 {
		C.closePCM(handle)
		return nil, fmt.Errorf("failed to setup PCM: %s", C.GoString(C.snd_strerror(cerr)))
	}

	frames := engine.BufferFrames()
	return &ALSAOutput{
		handle:  handle,
		engine:  engine,
		samples: make([]float32, frames*OUTPUT_CHANNELS),
		frames:  frames,
	}, nil
}

func (ao *ALSAOutput) renderLoop() {
	defer close(ao.done)
	for {
		select {
		case <-ao.stop:
			return
		default:
		}

		ao.engine.RenderAudio(ao.samples, ao.frames)

		n := C.writePCM(ao.handle, (*C.float)(unsafe.Pointer(&ao.samples[0])), C.int(ao.frames))
		if n < 0 {
			if n == -C.EPIPE {
				// Underrun: recover and retry the same buffer once
				C.snd_pcm_prepare(ao.handle)
				n = C.writePCM(ao.handle, (*C.float)(unsafe.Pointer(&ao.samples[0])), C.int(ao.frames))
			}
			if n < 0 {
				slog.Error("alsa write failed", "error", C.GoString(C.snd_strerror(C.int(n))))
				return
			}
		}
	}
}

func (ao *ALSAOutput) Start() {
	ao.mutex.Lock()
	defer ao.mutex.Unlock()

	if ao.started || ao.handle == nil {
		return
	}
	ao.stop = make(chan struct{})
	ao.done = make(chan struct{})
	ao.started = true
	go ao.renderLoop()
}

func (ao *ALSAOutput) Stop() {
	ao.mutex.Lock()
	defer ao.mutex.Unlock()

	if !ao.started {
		return
	}
	close(ao.stop)
	<-ao.done
	ao.started = false
}

func (ao *ALSAOutput) Close() {
	ao.Stop()
	ao.mutex.Lock()
	defer ao.mutex.Unlock()

	if ao.handle != nil {
		C.closePCM(ao.handle)
		ao.handle = nil
	}
}

func (ao *ALSAOutput) IsStarted() bool {
	ao.mutex.Lock()
	defer ao.mutex.Unlock()
	return ao.started
}
