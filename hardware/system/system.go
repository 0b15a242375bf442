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

// Package system wires the CPU, memory map, port electronics, display, and
// sound engine into the single cycle-stepped whole the frame driver runs:
// one FrameStep call executes exactly one video frame's worth of
// instructions and leaves a freshly updated phosphor buffer behind. Laid
// out the way this codebase's own top-level hardware type composes its
// sub-packages — a struct that owns every component and a handful of
// methods that are the only way to advance it.
package system

import (
	"github.com/pandamystique/advision/hardware/cpu"
	"github.com/pandamystique/advision/hardware/display"
	"github.com/pandamystique/advision/hardware/memory"
	"github.com/pandamystique/advision/hardware/ports"
	"github.com/pandamystique/advision/hardware/sound"
)

// CyclesPerFrame is the fixed per-frame cycle budget: 733,333 Hz / 15 fps,
// rounded.
const CyclesPerFrame = 48889

// FallbackWindowCycles is the BIOS display routine's estimated column-output
// window used by the mid-frame VRAM-scan fallback: roughly 17 cycles per
// column (P2 setup, five MOVX reads, a P2.4 strobe) times 150 columns.
const FallbackWindowCycles = 2550

// Input is a single frame's controller snapshot.
type Input = ports.Buttons

// System is the complete Adventure Vision core.
type System struct {
	CPU     *cpu.CPU
	Mem     *memory.Map
	Ports   *ports.Ports
	Display *display.Display
	Sound   *sound.Engine

	T1PulseStart int
	T1PulseEnd   int
	MidFrameScan bool
	Phosphor     float32

	syncCycle int
	syncSeen  bool
	frames    uint64
}

// New builds a System from loaded firmware and cartridge images, wired with
// default T1 pulse timing, mid-frame scan enabled, and the default phosphor
// decay.
func New(firmware, cartridge []byte) *System {
	mem := memory.New(firmware, cartridge)
	disp := display.New()
	snd := sound.NewEngine()
	io := ports.New(disp, snd)

	s := &System{
		Mem:          mem,
		Ports:        io,
		Display:      disp,
		Sound:        snd,
		T1PulseStart: 200,
		T1PulseEnd:   400,
		MidFrameScan: true,
		Phosphor:     0.45,
	}
	s.CPU = cpu.NewCPU(mem, io)
	return s
}

// Reset performs the soft reset a power cycle or front-end "reset" action
// triggers: the CPU core resets, internal and external RAM return to their
// power-on pattern, the display clears, and the sound engine's control
// register survives through SoftReset since it lives in the COP411L's own
// RAM.
func (s *System) Reset() {
	s.CPU.Reset()
	s.Mem.ResetIRAM()
	s.Mem.ResetXRAM()
	s.Display.Reset()
	s.Sound.Lock()
	s.Sound.SoftReset()
	s.Sound.Unlock()
	s.syncCycle = 0
	s.syncSeen = false
}

// SetInput applies a controller snapshot for the frame about to run.
func (s *System) SetInput(in Input) {
	s.Ports.Buttons = in
}

// t1Low reports whether the T1 test pin should read low at cycle elapsed
// within the frame: low for [T1PulseStart, T1PulseEnd), high otherwise.
func (s *System) t1Low(elapsed int) bool {
	return elapsed >= s.T1PulseStart && elapsed < s.T1PulseEnd
}

// FrameStep applies in as the controller snapshot for this frame, runs one
// CyclesPerFrame-cycle video frame — decode-execute the CPU instruction by
// instruction, track the T1 mirror-sync pulse, advance the counter-mode
// timer on T1 falling edges, drive the mid-frame capture fallback — and
// returns the freshly updated phosphor buffer.
func (s *System) FrameStep(in Input) display.Frame {
	s.SetInput(in)
	s.Display.BeginFrame()
	s.syncCycle = 0
	s.syncSeen = false

	elapsed := 0
	for elapsed < CyclesPerFrame {
		prevT1 := s.CPU.T1
		result := s.CPU.Step()
		elapsed += result.Cycles

		newT1 := !s.t1Low(elapsed)

		if !prevT1 && newT1 && !s.syncSeen {
			s.syncCycle = elapsed
			s.syncSeen = true
			s.Display.ResyncColumn()
		}

		if s.MidFrameScan && !s.Display.Active() && s.syncSeen {
			dispElapsed := elapsed - s.syncCycle
			if dispElapsed >= 0 && dispElapsed <= FallbackWindowCycles {
				col := dispElapsed * display.Width / FallbackWindowCycles
				if col >= 0 && col < display.Width {
					s.Display.CaptureColumn(s.Mem.XRAM[:], col)
				}
			}
		}

		if s.CPU.CounterEnable && prevT1 && !newT1 {
			s.CPU.IncrementCounter()
		}
		s.CPU.T1 = newT1
	}

	if !s.Display.Active() && !s.MidFrameScan {
		for col := 0; col < display.Width; col++ {
			s.Display.CaptureColumn(s.Mem.XRAM[:], col)
		}
	}

	s.Display.Update(s.Phosphor)
	s.frames++
	return s.Display.Snapshot()
}

// Frames returns the number of frames run so far.
func (s *System) Frames() uint64 { return s.frames }

// AudioSink is the interface the host audio subsystem pulls samples
// through, at its own cadence and independent of the frame-stepping thread.
type AudioSink interface {
	Sample() int16
}
