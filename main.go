// main.go - Command line entry point for the Pressense synthesizer

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147mPressense\033[0m - polyphonic wavetable MIDI synthesizer")
	fmt.Println("(c) 2025 - 2026 Jonathan Fuerth")
	fmt.Println("https://github.com/jfuerth/pressense")
	fmt.Println("License: GPLv3 or later")
	fmt.Println()
}

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

type runOptions struct {
	portName   string
	serialDev  string
	baudRate   int
	channel    int
	voices     int
	sampleRate int
	frames     int
	patchDir   string
	telemetry  string
	backend    string
	demo       bool
	keys       bool
	debug      bool
}

func main() {
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "pressense",
		Short: "Polyphonic wavetable MIDI synthesizer",
		Long: "Pressense is a polyphonic wavetable synthesizer driven by MIDI\n" +
			"from hardware ports, a serial DIN interface, or the terminal keyboard.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.portName, "port", "p", "", "MIDI input port name substring (default: first available)")
	flags.StringVar(&opts.serialDev, "serial", "", "serial device for DIN MIDI input (e.g. /dev/ttyUSB0)")
	flags.IntVar(&opts.baudRate, "baud", MIDI_BAUD_RATE, "serial baud rate")
	flags.IntVarP(&opts.channel, "channel", "c", 1, "MIDI channel to listen on (1-16)")
	flags.IntVar(&opts.voices, "voices", DEFAULT_MAX_VOICES, "polyphony voice count")
	flags.IntVar(&opts.sampleRate, "rate", DEFAULT_SAMPLE_RATE, "sample rate in Hz")
	flags.IntVar(&opts.frames, "frames", DEFAULT_BUFFER_FRAMES, "render buffer size in frames")
	flags.StringVar(&opts.patchDir, "patches", "patches", "program storage directory")
	flags.StringVar(&opts.telemetry, "telemetry", "", "telemetry HTTP listen address (e.g. :8880)")
	flags.StringVar(&opts.backend, "backend", "oto", "audio backend (oto, alsa)")
	flags.BoolVar(&opts.demo, "demo", false, "play the demo arpeggio")
	flags.BoolVarP(&opts.keys, "keys", "k", false, "play notes from the terminal keyboard")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "ports",
		Short: "List available MIDI and serial input ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPorts()
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func listPorts() error {
	midiPorts, err := ListMIDIInputs()
	if err != nil {
		return fmt.Errorf("listing MIDI inputs: %w", err)
	}
	fmt.Println("MIDI input ports:")
	if len(midiPorts) == 0 {
		fmt.Println("  (none)")
	}
	for _, p := range midiPorts {
		fmt.Printf("  %s\n", p)
	}

	serialPorts, err := ListSerialPorts()
	if err != nil {
		return fmt.Errorf("listing serial ports: %w", err)
	}
	fmt.Println("Serial ports:")
	if len(serialPorts) == 0 {
		fmt.Println("  (none)")
	}
	for _, p := range serialPorts {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

func run(opts *runOptions) error {
	boilerPlate()
	initLogger(opts.debug)

	if opts.channel < 1 || opts.channel > 16 {
		return fmt.Errorf("MIDI channel %d out of range 1-16", opts.channel)
	}

	var clip Clipboard
	sysClip, err := NewSystemClipboard()
	if err != nil {
		slog.Warn("system clipboard unavailable, using in-memory clipboard", "error", err)
		clip = NewMemoryClipboard()
	} else {
		clip = sysClip
	}

	engine := NewSynthEngine(SynthEngineConfig{
		SampleRate:   opts.sampleRate,
		MaxVoices:    opts.voices,
		BufferFrames: opts.frames,
		MIDIChannel:  uint8(opts.channel - 1),
		Storage:      NewFilesystemProgramStorage(opts.patchDir),
		Clipboard:    clip,
	})

	// The telemetry server doubles as the engine's stats sink, so wire it
	// up before audio starts publishing.
	sinks := MultiTelemetrySink{}
	if opts.debug {
		sinks = append(sinks, SlogTelemetrySink{})
	}
	if opts.telemetry != "" {
		server := NewTelemetryServer(engine)
		sinks = append(sinks, server)
		server.Start(opts.telemetry)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				slog.Warn("telemetry server shutdown", "error", err)
			}
		}()
	}
	if len(sinks) > 0 {
		engine.SetTelemetrySink(sinks)
	}

	backend := AUDIO_BACKEND_OTO
	if opts.backend == "alsa" {
		backend = AUDIO_BACKEND_ALSA
	}
	output, err := NewAudioOutput(backend, engine)
	if err != nil {
		return fmt.Errorf("audio output: %w", err)
	}
	defer output.Close()
	output.Start()

	if opts.serialDev != "" {
		serialIn, err := NewSerialMIDIInput(opts.serialDev, opts.baudRate, engine.ProcessMIDIByte)
		if err != nil {
			return fmt.Errorf("serial MIDI input: %w", err)
		}
		if err := serialIn.Start(); err != nil {
			return fmt.Errorf("serial MIDI input: %w", err)
		}
		defer serialIn.Close()
	} else if !opts.keys {
		portIn, err := NewMIDIPortInput(opts.portName, engine.ProcessMIDIByte)
		if err != nil {
			return fmt.Errorf("MIDI port input: %w", err)
		}
		if err := portIn.Start(); err != nil {
			return fmt.Errorf("MIDI port input: %w", err)
		}
		defer portIn.Close()
	}

	if opts.demo {
		arp := NewDemoArpeggiator(engine.ProcessMIDIByte, ARPEGGIO_STEP_TIME)
		arp.Start()
		defer arp.Stop()
	}

	if opts.keys {
		// Terminal keyboard owns the foreground; exits on 'q' or Ctrl-C
		return NewTerminalKeys(engine.ProcessMIDIByte).Run()
	}

	slog.Info("running, press Ctrl-C to exit")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")
	return nil
}
