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

// Package ports implements the CPU's outside world: the button matrix on
// P1, the BUS port's unused pull-up, and P2's dual role as LED-strobe line
// and COP411L command channel. It is the concrete type behind the CPU
// package's PortIO interface, the way this codebase keeps a component's
// core logic free of its neighbors' concrete types.
package ports

import "github.com/pandamystique/advision/hardware/sound"

// ledLatch is the subset of the display package's API this package depends
// on, kept narrow so ports doesn't need to import the display's buffer
// types.
type ledLatch interface {
	LatchLEDByte(p2, data byte)
	StrobeColumn()
}

// Buttons is a single-frame snapshot of controller state. All eight inputs
// are active-low on real hardware; callers pass true for "pressed".
type Buttons struct {
	Up, Down, Left, Right bool
	B1, B2, B3, B4        bool
}

// mask returns the AND-mask to apply to P1: each pressed input clears its
// assigned bits.
func (b Buttons) mask() uint8 {
	m := uint8(0xFF)
	if b.B1 {
		m &^= 0x30
	}
	if b.B2 {
		m &^= 0x50
	}
	if b.B3 {
		m &^= 0x08
	}
	if b.B4 {
		m &^= 0x90
	}
	if b.Up {
		m &^= 0x20
	}
	if b.Down {
		m &^= 0x10
	}
	if b.Right {
		m &^= 0x40
	}
	if b.Left {
		m &^= 0x80
	}
	return m
}

// Ports wires the button matrix, the LED display's strobe/latch side of P2,
// and the COP411L command handshake into the three-method surface the CPU
// core expects.
type Ports struct {
	Buttons Buttons

	disp   ledLatch
	snd    *sound.Engine
	prevP2 uint8
}

// New builds a Ports bound to a display and sound engine. Either may be nil
// for tests that only exercise the button matrix.
func New(disp ledLatch, snd *sound.Engine) *Ports {
	return &Ports{disp: disp, snd: snd}
}

// ReadPort implements cpu.PortIO. port 0 (BUS) is pulled high and unused;
// port 1 is the button-masked P1 shadow; port 2 is read back unmodified —
// the P2 observer only runs on writes.
func (p *Ports) ReadPort(port uint8, shadow uint8) uint8 {
	switch port {
	case 0:
		return 0xFF
	case 1:
		return shadow & p.Buttons.mask()
	case 2:
		return shadow
	default:
		return 0xFF
	}
}

// WritePort implements cpu.PortIO. Port 2 carries two independent hardware
// behaviors on every write: a P2.4 rising edge strobes the latched LED
// registers to the current column, and the raw byte is always fed to the
// COP411L command handshake, which tracks its own four-state protocol and
// ignores bytes that don't belong to it.
func (p *Ports) WritePort(port uint8, val uint8) {
	if port != 2 {
		return
	}

	if val&0x10 != 0 && p.prevP2&0x10 == 0 && p.disp != nil {
		p.disp.StrobeColumn()
	}
	p.prevP2 = val

	if p.snd != nil {
		p.snd.HandleP2(val)
	}
}

// LatchXRAMRead implements cpu.PortIO: a MOVX A,@Rr read simultaneously
// latches its data byte into the LED register p2's select bits name.
func (p *Ports) LatchXRAMRead(p2 uint8, data uint8) {
	if p.disp != nil {
		p.disp.LatchLEDByte(p2, data)
	}
}
