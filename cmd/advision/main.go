// This file is part of Advision.
//
// Advision is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Advision is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Advision.  If not, see <https://www.gnu.org/licenses/>.

// Command advision is the Adventure Vision emulator's entry point: a mode
// switch over a handful of flag.FlagSets, the same shape this codebase's
// own command line uses to dispatch between play, headless and diagnostic
// modes without a third-party CLI framework.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/pandamystique/advision/capture"
	"github.com/pandamystique/advision/gui/sdlaudio"
	"github.com/pandamystique/advision/gui/sdlvideo"
	"github.com/pandamystique/advision/hardware/cpu"
	"github.com/pandamystique/advision/hardware/memory"
	"github.com/pandamystique/advision/hardware/ports"
	"github.com/pandamystique/advision/hardware/sound"
	"github.com/pandamystique/advision/hardware/system"
	"github.com/pandamystique/advision/logger"
	"github.com/pandamystique/advision/prefs"
	"github.com/pandamystique/advision/savestate"
)

const applicationName = "advision"

// samplesPerFrame is the audio engine's output cadence per video frame:
// 44100Hz divided by the console's ~15fps refresh.
const samplesPerFrame = sdlaudio.SampleRate / 15

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", applicationName, err)
		os.Exit(1)
	}
}

// nilWriter discards everything written to it, used to silence flag's
// default usage output so unrecognised arguments can be handled here.
type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }

func run(args []string) error {
	flgs := flag.NewFlagSet(applicationName, flag.ContinueOnError)
	flgs.SetOutput(nilWriter{})

	if err := flgs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flgs.Usage()
			fmt.Println("Execution Modes: PLAY, HEADLESS, TEST, VERSION")
			return nil
		}
		return err
	}
	args = flgs.Args()

	var mode string
	if len(args) > 0 {
		mode = strings.ToUpper(args[0])
		args = args[1:]
	}

	switch mode {
	case "HEADLESS":
		return headlessMode(args)
	case "TEST":
		return testMode(args)
	case "VERSION":
		fmt.Println(applicationName, "development build")
		return nil
	default:
		return playMode(args)
	}
}

// loadImages reads the firmware and cartridge images named by the first two
// positional arguments.
func loadImages(args []string) (firmware, cartridge []byte, rest []string, err error) {
	if len(args) < 1 {
		return nil, nil, nil, fmt.Errorf("usage: %s [mode] <bios> [game]", applicationName)
	}
	firmware, err = os.ReadFile(args[0])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading firmware: %w", err)
	}
	rest = args[1:]
	if len(rest) > 0 {
		cartridge, err = os.ReadFile(rest[0])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("reading cartridge: %w", err)
		}
		rest = rest[1:]
	}
	return firmware, cartridge, rest, nil
}

// playMode opens an SDL window and audio device and runs the emulator
// interactively until the window is closed or Escape is pressed. SDL's
// window and audio APIs must run on the process's initial OS thread, so
// this is the only mode that locks to it.
func playMode(args []string) error {
	runtime.LockOSThread()

	flgs := flag.NewFlagSet("PLAY", flag.ExitOnError)
	scale := flgs.Int("scale", 0, "window scale factor (0: use preferences)")
	prefsPath := flgs.String("prefs", "advision.ini", "preferences file")
	if err := flgs.Parse(args); err != nil {
		return err
	}

	firmware, cartridge, _, err := loadImages(flgs.Args())
	if err != nil {
		return err
	}

	cfg := prefs.NewConfig(*prefsPath)
	if err := cfg.Load(); err != nil {
		logger.Logf(logger.Allow, applicationName, "preferences not loaded: %s", err)
	}

	useScale := int32(*scale)
	if useScale <= 0 {
		useScale = int32(cfg.Scale.Get())
	}
	if useScale <= 0 {
		useScale = 4
	}

	sys := system.New(firmware, cartridge)
	sys.Phosphor = float32(cfg.Phosphor.Get())
	sys.T1PulseStart = cfg.T1PulseStart.Get()
	sys.T1PulseEnd = cfg.T1PulseEnd.Get()

	video, err := sdlvideo.NewVideo(useScale, cfg.IntegerScale.Get())
	if err != nil {
		return fmt.Errorf("opening display: %w", err)
	}
	defer video.Close()
	video.SetGamma(cfg.Gamma.Get())
	video.SetScanlines(cfg.Scanlines.Get())
	if err := video.SetFullscreen(cfg.Fullscreen.Get()); err != nil {
		logger.Logf(logger.Allow, applicationName, "fullscreen: %s", err)
	}

	audio, err := sdlaudio.NewAudio(sys.Sound)
	if err != nil {
		return fmt.Errorf("opening audio: %w", err)
	}
	defer audio.Close()
	audio.SetVolume(cfg.Volume.Get())
	audio.SetProfile(cfg.AudioProfile.Get())

	var buttons ports.Buttons
	var muted bool
	ticker := time.NewTicker(time.Second / 15)
	defer ticker.Stop()

	for {
		frame := sys.FrameStep(buttons)
		if err := video.Render(frame); err != nil {
			return fmt.Errorf("rendering frame: %w", err)
		}
		if err := audio.Feed(samplesPerFrame); err != nil {
			logger.Logf(logger.Allow, applicationName, "audio feed: %s", err)
		}

		var quit, muteToggled bool
		buttons, quit, muteToggled = video.PollInput(buttons)
		if muteToggled {
			muted = !muted
			audio.Mute(muted)
		}
		if quit {
			return nil
		}
		<-ticker.C
	}
}

// headlessMode steps the emulator without opening a GUI, for scripted
// playback, WAV capture, and savestate generation.
func headlessMode(args []string) error {
	flgs := flag.NewFlagSet("HEADLESS", flag.ExitOnError)
	frames := flgs.Int("frames", 60, "number of video frames to run")
	input := flgs.String("input", "", "comma-separated per-frame button holds (U,D,L,R,1,2,3,4 combined)")
	dump := flgs.Bool("dump", false, "print the log tail after running")
	load := flgs.String("load", "", "restore a savestate from this path before running")
	save := flgs.String("save", "", "write a savestate to this path after running")
	wavOut := flgs.String("wav", "", "capture audio to this WAV path while running")
	if err := flgs.Parse(args); err != nil {
		return err
	}

	firmware, cartridge, _, err := loadImages(flgs.Args())
	if err != nil {
		return err
	}

	sys := system.New(firmware, cartridge)
	if *load != "" {
		data, err := os.ReadFile(*load)
		if err != nil {
			return fmt.Errorf("reading savestate: %w", err)
		}
		if err := savestate.Decode(data, sys); err != nil {
			return fmt.Errorf("decoding savestate: %w", err)
		}
	}
	sequence := parseInputSequence(*input)

	var wavWriter *capture.Writer
	if *wavOut != "" {
		f, err := os.Create(*wavOut)
		if err != nil {
			return fmt.Errorf("creating wav file: %w", err)
		}
		wavWriter = capture.NewWriter(f)
		defer wavWriter.Close()
	}

	for i := 0; i < *frames; i++ {
		var btn ports.Buttons
		if len(sequence) > 0 {
			btn = sequence[i%len(sequence)]
		}
		sys.FrameStep(btn)
		if wavWriter != nil {
			capture.Drain(sys.Sound, samplesPerFrame, wavWriter)
		}
	}

	if *save != "" {
		if err := os.WriteFile(*save, savestate.Encode(sys), 0o644); err != nil {
			return fmt.Errorf("writing savestate: %w", err)
		}
	}
	if *dump {
		logger.Global.Tail(os.Stdout, 200)
	}
	return nil
}

// parseInputSequence turns a comma-separated list of button-hold tokens
// (each token a combination of U, D, L, R, 1, 2, 3, 4) into one
// ports.Buttons snapshot per frame.
func parseInputSequence(s string) []ports.Buttons {
	if s == "" {
		return nil
	}
	tokens := strings.Split(s, ",")
	out := make([]ports.Buttons, len(tokens))
	for i, tok := range tokens {
		var b ports.Buttons
		for _, c := range tok {
			switch c {
			case 'U':
				b.Up = true
			case 'D':
				b.Down = true
			case 'L':
				b.Left = true
			case 'R':
				b.Right = true
			case '1':
				b.B1 = true
			case '2':
				b.B2 = true
			case '3':
				b.B3 = true
			case '4':
				b.B4 = true
			}
		}
		out[i] = b
	}
	return out
}

// testMode runs a small set of self-contained regression checks against
// the sound and CPU cores and reports PASS/FAIL for each — a fixed sanity
// sweep rather than a full test suite, intended to catch a gross behavioral
// regression in an installed binary with no Go toolchain available.
func testMode(args []string) error {
	checks := []struct {
		name string
		run  func() error
	}{
		{"pure tone 0xE5 frequency", checkPureToneFrequency},
		{"continuous noise command 0x10", checkContinuousNoise},
		{"decimal adjust standard case", checkDecimalAdjust},
	}

	failed := 0
	for _, c := range checks {
		err := c.run()
		status := "PASS"
		if err != nil {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s", status, c.name)
		if err != nil {
			fmt.Printf(": %s", err)
		}
		fmt.Println()
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	return nil
}

func checkPureToneFrequency() error {
	e := sound.NewEngine()
	e.HandleP2(0xC0)
	e.HandleP2(0xE0)
	e.HandleP2(0x50)
	got := e.ExportState().CurFreq
	const want = 320.92
	if d := got - want; d < -0.01 || d > 0.01 {
		return fmt.Errorf("frequency = %v, want %v +/- 0.01", got, want)
	}
	return nil
}

func checkContinuousNoise() error {
	e := sound.NewEngine()
	e.HandleP2(0xC0)
	e.HandleP2(0x10)
	e.HandleP2(0x00)
	s := e.ExportState()
	if !s.IsNoise {
		return errors.New("command 0x10 did not select noise")
	}
	if !s.Active {
		return errors.New("command 0x10 did not mark the engine active")
	}
	return nil
}

func checkDecimalAdjust() error {
	firmware := make([]byte, 1024)
	copy(firmware, []byte{
		0x23, 0x39, // MOV A,#0x39
		0x03, 0x28, // ADD A,#0x28
		0x57, // DA A
	})
	mem := memory.New(firmware, nil)
	c := cpu.NewCPU(mem, noopPorts{})
	for i := 0; i < 3; i++ {
		c.Step()
	}
	if c.A != 0x67 {
		return fmt.Errorf("DAA(0x39+0x28) = %#02x, want 0x67", c.A)
	}
	return nil
}

// noopPorts satisfies cpu.PortIO for the TEST mode's self-contained CPU
// check, which never touches P1/P2/XRAM.
type noopPorts struct{}

func (noopPorts) ReadPort(port, shadow uint8) uint8 { return shadow }
func (noopPorts) WritePort(port, val uint8)         {}
func (noopPorts) LatchXRAMRead(p2, data uint8)      {}
