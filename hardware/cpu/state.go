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

package cpu

// State is the persisted subset of CPU state the binary savestate format
// writes: every architectural register plus the flags the C source's
// on-disk layout packs as two bitfield bytes, internal RAM, the timer
// prescaler, and the running cycle count. ROM images are not part of this
// state — they are supplied fresh by the caller on every load.
type State struct {
	A      uint8
	PC     uint16
	PSW    uint8
	SP     uint8
	Timer  uint8
	P1, P2, BUS uint8

	// Flags is the packed byte: bit0 MB, 1 C, 2 AC, 3 F0, 4 F1, 5 BS,
	// 6 TimerEnable, 7 CounterEnable.
	Flags uint8
	// Flags2 is the packed byte: bit0 TimerOverflow, 1 TCNTIEnable,
	// 2 IRQEnable, 3 IRQPending, 4 InIRQ.
	Flags2 uint8

	IRAM [64]byte
	XRAM [1024]byte

	Prescaler uint32
	Cycles    uint64
}

func boolBit(b bool, bit uint) uint8 {
	if b {
		return 1 << bit
	}
	return 0
}

// ExportState packs the CPU's current architectural state for the
// savestate writer.
func (c *CPU) ExportState() State {
	var s State
	s.A = c.A
	s.PC = c.PC
	s.PSW = c.packPSW()
	s.SP = c.SP
	s.Timer = c.Timer
	s.P1, s.P2, s.BUS = c.P1, c.P2, c.BUS

	s.Flags = boolBit(c.MB, 0) | boolBit(c.C, 1) | boolBit(c.AC, 2) |
		boolBit(c.F0, 3) | boolBit(c.F1, 4) | boolBit(c.BS, 5) |
		boolBit(c.TimerEnable, 6) | boolBit(c.CounterEnable, 7)
	s.Flags2 = boolBit(c.TimerOverflow, 0) | boolBit(c.TCNTIEnable, 1) |
		boolBit(c.IRQEnable, 2) | boolBit(c.IRQPending, 3) | boolBit(c.InIRQ, 4)

	copy(s.IRAM[:], c.mem.IRAM[:])
	copy(s.XRAM[:], c.mem.XRAM[:])

	s.Prescaler = uint32(c.prescaler)
	s.Cycles = c.Cycles
	return s
}

// ImportState restores architectural state from a loaded savestate. PC and
// SP are masked to their real bit widths and T0 is forced high, matching
// hardware (the expansion port reads constant on this console) rather than
// trusting a crafted save.
func (c *CPU) ImportState(s State) {
	c.A = s.A
	c.PC = s.PC & 0xFFF
	c.SP = s.SP & 7
	c.Timer = s.Timer
	c.P1, c.P2, c.BUS = s.P1, s.P2, s.BUS

	c.MB = s.Flags&(1<<0) != 0
	c.C = s.Flags&(1<<1) != 0
	c.AC = s.Flags&(1<<2) != 0
	c.F0 = s.Flags&(1<<3) != 0
	c.F1 = s.Flags&(1<<4) != 0
	c.BS = s.Flags&(1<<5) != 0
	c.TimerEnable = s.Flags&(1<<6) != 0
	c.CounterEnable = s.Flags&(1<<7) != 0

	c.TimerOverflow = s.Flags2&(1<<0) != 0
	c.TCNTIEnable = s.Flags2&(1<<1) != 0
	c.IRQEnable = s.Flags2&(1<<2) != 0
	c.IRQPending = s.Flags2&(1<<3) != 0
	c.InIRQ = s.Flags2&(1<<4) != 0

	c.T0 = true

	copy(c.mem.IRAM[:], s.IRAM[:])
	copy(c.mem.XRAM[:], s.XRAM[:])

	c.prescaler = int(s.Prescaler)
	c.Cycles = s.Cycles
}
