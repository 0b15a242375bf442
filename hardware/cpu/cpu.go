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

// Package cpu implements the Intel 8048 (MCS-48 family) CPU found in the
// Entex Adventure Vision. It is a faithful instruction-level interpreter:
// one Step call decodes and executes exactly one opcode, advances the
// timer/counter prescaler, and dispatches a pending interrupt if the
// post-EI delay has elapsed. Laid out as a self-contained struct with a PSW
// sub-type (see the registers sub-package) and a single step-the-core entry
// point, the same way this codebase's other CPU cores are organized.
package cpu

import (
	"github.com/pandamystique/advision/hardware/cpu/execution"
	"github.com/pandamystique/advision/hardware/cpu/registers"
	"github.com/pandamystique/advision/hardware/memory"
	"github.com/pandamystique/advision/logger"
)

// PortIO is the CPU's view of the outside world for port 0 (BUS), port 1,
// and port 2 instructions. ReadPort returns the electrical value seen by
// IN/INS given the CPU's own latched register value (buttons pull the bus
// low externally; the CPU's output latch never see its own writes reflected
// back except through this path). WritePort reports a new port value for any
// side effects (LED latching, the COP411L command protocol) — the CPU keeps
// its own copy of P1/P2/BUS independently of this call.
type PortIO interface {
	ReadPort(port uint8, reg uint8) uint8
	WritePort(port uint8, val uint8)

	// LatchXRAMRead reports the data byte returned by a MOVX A,@Rr read
	// alongside the CPU's current P2 value, so the LED-register latch side
	// effect can be applied without MOVX itself knowing about display
	// hardware.
	LatchXRAMRead(p2 uint8, data uint8)
}

// CPU is the 8048 core. Register bank 0 is iram[0:8], bank 1 is iram[24:32];
// BS selects between them. The stack lives in iram[8:24] as 8 two-byte
// slots addressed by SP.
type CPU struct {
	mem   *memory.Map
	ports PortIO

	A      uint8
	PC     uint16 // 12 bits
	SP     uint8  // 3 bits
	C      bool
	AC     bool
	F0     bool
	F1     bool
	BS     bool
	MB     bool // memory bank: selects JMP/CALL destination page 0x000-0x7FF or 0x800-0xFFF

	Timer        uint8
	TimerEnable  bool
	CounterEnable bool
	TimerOverflow bool
	TCNTIEnable  bool
	prescaler    int // increments every 32 cycles while TimerEnable

	T0, T1 bool // test pins; T0 is tied high (expansion port, unused)

	P1, P2, BUS uint8

	IRQEnable bool
	IRQPending bool
	InIRQ      bool
	eiDelay    uint8 // >0 suppresses interrupt dispatch for this many Steps

	Cycles uint64

	LastResult execution.Result

	// unknownLogged records which PCs have already had their unknown-opcode
	// warning printed, so a firmware that keeps re-executing a bad opcode
	// (e.g. in a loop) logs it once per site instead of flooding the log.
	unknownLogged map[uint16]bool
}

// NewCPU is the preferred method of initialisation for the CPU structure.
// mem must already hold the firmware/cartridge images; ports handles
// electrical side effects of port reads/writes.
func NewCPU(mem *memory.Map, ports PortIO) *CPU {
	c := &CPU{mem: mem, ports: ports, unknownLogged: make(map[uint16]bool)}
	c.Reset()
	return c
}

// Reset restores power-on register state: P1=0xFB, P2=0xFF, T0 tied high,
// everything else zeroed. It does not touch
// IRAM, XRAM, or ROM images — those are the memory.Map's responsibility.
func (c *CPU) Reset() {
	c.A = 0
	c.PC = 0
	c.SP = 0
	c.C, c.AC, c.F0, c.F1, c.BS, c.MB = false, false, false, false, false, false
	c.Timer = 0
	c.TimerEnable, c.CounterEnable, c.TimerOverflow, c.TCNTIEnable = false, false, false, false
	c.prescaler = 0
	c.T0 = true
	c.T1 = false
	c.P1 = 0xFB
	c.P2 = 0xFF
	c.BUS = 0
	c.IRQEnable, c.IRQPending, c.InIRQ = false, false, false
	c.eiDelay = 0
	c.Cycles = 0
	c.LastResult = execution.Result{}
}

// register returns a pointer into the active bank (BS=0 -> iram[0:8], BS=1
// -> iram[24:32]) for register r (0-7).
func (c *CPU) register(r uint8) *uint8 {
	base := uint8(0)
	if c.BS {
		base = 24
	}
	return &c.mem.IRAM[(base+(r&7))&(memory.IRAMSize-1)]
}

func (c *CPU) indirect(r uint8) *uint8 {
	return &c.mem.IRAM[*c.register(r&1)&(memory.IRAMSize-1)]
}

// fetch reads the next opcode/operand byte at PC and advances PC, wrapping
// at 12 bits. The P1 bit 2 gate selects firmware vs. cartridge.
func (c *CPU) fetch() uint8 {
	v := c.mem.FetchROM(c.PC, c.P1&0x04 != 0)
	c.PC = (c.PC + 1) & 0xFFF
	return v
}

func (c *CPU) packPSW() uint8 {
	return registers.PSW{C: c.C, AC: c.AC, F0: c.F0, BS: c.BS, SP: c.SP}.Pack()
}

func (c *CPU) unpackPSW(b uint8) {
	p := registers.Unpack(b)
	c.C, c.AC, c.F0, c.BS, c.SP = p.C, p.AC, p.F0, p.BS, p.SP
}

// pushReturn pushes PC and the packed PSW onto the stack, as CALL does.
func (c *CPU) pushReturn() {
	a := uint16(8 + c.SP*2)
	c.mem.IRAM[a&(memory.IRAMSize-1)] = uint8(c.PC)
	c.mem.IRAM[(a+1)&(memory.IRAMSize-1)] = uint8((c.PC>>8)&0x0F) | (c.packPSW() & 0xF0)
	c.SP = (c.SP + 1) & 7
}

// popPC pops only the return address, as RET does: PSW is untouched.
func (c *CPU) popPC() {
	c.SP = (c.SP - 1) & 7
	a := uint16(8 + c.SP*2)
	lo := c.mem.IRAM[a&(memory.IRAMSize-1)]
	hi := c.mem.IRAM[(a+1)&(memory.IRAMSize-1)]
	c.PC = uint16(lo) | (uint16(hi&0x0F) << 8)
}

// popPCAndFlags pops the return address and restores C/AC/F0/BS from the
// stacked high nibble, leaving SP's own low-nibble bits alone, as RETR
// does — the stack never carries SP itself, only the flag nibble.
func (c *CPU) popPCAndFlags() {
	c.SP = (c.SP - 1) & 7
	a := uint16(8 + c.SP*2)
	lo := c.mem.IRAM[a&(memory.IRAMSize-1)]
	hi := c.mem.IRAM[(a+1)&(memory.IRAMSize-1)]
	c.PC = uint16(lo) | (uint16(hi&0x0F) << 8)
	c.unpackPSW((hi & 0xF0) | c.SP)
}

// Step decodes and executes exactly one instruction, updates the timer
// prescaler, and dispatches a pending interrupt if due. It returns the
// execution.Result describing what happened.
func (c *CPU) Step() execution.Result {
	// Interrupt dispatch is suppressed for the instruction that executes EI
	// and for the one instruction after it; decrementing here, before this
	// Step's opcode runs, means a fresh EI (which sets eiDelay below) is
	// unaffected by this Step's own countdown.
	if c.eiDelay > 0 {
		c.eiDelay--
	}

	opPC := c.PC
	op := c.fetch()
	cy := 1
	unknown := false

	switch op {
	case 0x00: // NOP

	// MOV A,Rr / MOV Rr,A / MOV A,#data / MOV Rr,#data / MOV A,@Rr / MOV @Rr,A / MOV @Rr,#data
	case 0xF8, 0xF9, 0xFA, 0xFB, 0xFC, 0xFD, 0xFE, 0xFF:
		c.A = *c.register(op & 7)
	case 0xA8, 0xA9, 0xAA, 0xAB, 0xAC, 0xAD, 0xAE, 0xAF:
		*c.register(op & 7) = c.A
	case 0x23:
		c.A = c.fetch()
		cy = 2
	case 0xB8, 0xB9, 0xBA, 0xBB, 0xBC, 0xBD, 0xBE, 0xBF:
		*c.register(op & 7) = c.fetch()
		cy = 2
	case 0xF0, 0xF1:
		c.A = *c.indirect(op)
	case 0xA0, 0xA1:
		*c.indirect(op) = c.A
	case 0xB0, 0xB1:
		*c.indirect(op) = c.fetch()
		cy = 2

	// XCH / XCHD
	case 0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D, 0x2E, 0x2F:
		r := c.register(op & 7)
		c.A, *r = *r, c.A
	case 0x20, 0x21:
		r := c.indirect(op)
		c.A, *r = *r, c.A
	case 0x30, 0x31:
		r := c.indirect(op)
		t := c.A & 0xF
		c.A = (c.A & 0xF0) | (*r & 0xF)
		*r = (*r & 0xF0) | t

	// ADD
	case 0x68, 0x69, 0x6A, 0x6B, 0x6C, 0x6D, 0x6E, 0x6F:
		c.add(*c.register(op&7), false)
	case 0x03:
		c.add(c.fetch(), false)
		cy = 2
	case 0x60, 0x61:
		c.add(*c.indirect(op), false)

	// ADDC
	case 0x78, 0x79, 0x7A, 0x7B, 0x7C, 0x7D, 0x7E, 0x7F:
		c.add(*c.register(op&7), true)
	case 0x13:
		c.add(c.fetch(), true)
		cy = 2
	case 0x70, 0x71:
		c.add(*c.indirect(op), true)

	// ANL / ORL / XRL
	case 0x58, 0x59, 0x5A, 0x5B, 0x5C, 0x5D, 0x5E, 0x5F:
		c.A &= *c.register(op & 7)
	case 0x53:
		c.A &= c.fetch()
		cy = 2
	case 0x50, 0x51:
		c.A &= *c.indirect(op)
	case 0x48, 0x49, 0x4A, 0x4B, 0x4C, 0x4D, 0x4E, 0x4F:
		c.A |= *c.register(op & 7)
	case 0x43:
		c.A |= c.fetch()
		cy = 2
	case 0x40, 0x41:
		c.A |= *c.indirect(op)
	case 0xD8, 0xD9, 0xDA, 0xDB, 0xDC, 0xDD, 0xDE, 0xDF:
		c.A ^= *c.register(op & 7)
	case 0xD3:
		c.A ^= c.fetch()
		cy = 2
	case 0xD0, 0xD1:
		c.A ^= *c.indirect(op)

	// INC / DEC / CLR / CPL
	case 0x17:
		c.A++
	case 0x18, 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F:
		*c.register(op & 7)++
	case 0x10, 0x11:
		*c.indirect(op)++
	case 0x07:
		c.A--
	case 0xC8, 0xC9, 0xCA, 0xCB, 0xCC, 0xCD, 0xCE, 0xCF:
		*c.register(op & 7)--
	case 0x27:
		c.A = 0
	case 0x37:
		c.A = ^c.A

	// DA A / SWAP A / rotates
	case 0x57:
		c.decimalAdjust()
	case 0x47:
		c.A = (c.A << 4) | (c.A >> 4)
	case 0xE7:
		c.A = (c.A << 1) | (c.A >> 7)
	case 0xF7:
		t := boolToBit(c.C)
		c.C = c.A&0x80 != 0
		c.A = (c.A << 1) | t
	case 0x77:
		c.A = (c.A >> 1) | (c.A << 7)
	case 0x67:
		t := boolToBit(c.C)
		c.C = c.A&1 != 0
		c.A = (c.A >> 1) | (t << 7)

	// Flags
	case 0x97:
		c.C = false
	case 0xA7:
		c.C = !c.C
	case 0x85:
		c.F0 = false
	case 0x95:
		c.F0 = !c.F0
	case 0xA5:
		c.F1 = false
	case 0xB5:
		c.F1 = !c.F1
	case 0xC5:
		c.BS = false
	case 0xD5:
		c.BS = true
	case 0xE5:
		c.MB = false
	case 0xF5:
		c.MB = true

	// JMP
	case 0x04, 0x24, 0x44, 0x64, 0x84, 0xA4, 0xC4, 0xE4:
		lo := c.fetch()
		c.PC = (uint16(op&0xE0) << 3) | uint16(lo)
		if c.MB {
			c.PC |= 0x800
		}
		cy = 2
	case 0xB3: // JMPP @A
		c.PC = (c.PC & 0xF00) | uint16(c.mem.FetchROM((c.PC&0xF00)|uint16(c.A), c.P1&0x04 != 0))
		cy = 2

	// DJNZ
	case 0xE8, 0xE9, 0xEA, 0xEB, 0xEC, 0xED, 0xEE, 0xEF:
		lo := c.fetch()
		r := c.register(op & 7)
		*r--
		if *r != 0 {
			c.PC = (c.PC & 0xF00) | uint16(lo)
		}
		cy = 2

	// Conditional jumps
	case 0xF6:
		lo := c.fetch()
		if c.C {
			c.PC = (c.PC & 0xF00) | uint16(lo)
		}
		cy = 2
	case 0xE6:
		lo := c.fetch()
		if !c.C {
			c.PC = (c.PC & 0xF00) | uint16(lo)
		}
		cy = 2
	case 0xC6:
		lo := c.fetch()
		if c.A == 0 {
			c.PC = (c.PC & 0xF00) | uint16(lo)
		}
		cy = 2
	case 0x96:
		lo := c.fetch()
		if c.A != 0 {
			c.PC = (c.PC & 0xF00) | uint16(lo)
		}
		cy = 2
	case 0x26:
		lo := c.fetch()
		if !c.T0 {
			c.PC = (c.PC & 0xF00) | uint16(lo)
		}
		cy = 2
	case 0x36:
		lo := c.fetch()
		if c.T0 {
			c.PC = (c.PC & 0xF00) | uint16(lo)
		}
		cy = 2
	case 0x46:
		lo := c.fetch()
		if !c.T1 {
			c.PC = (c.PC & 0xF00) | uint16(lo)
		}
		cy = 2
	case 0x56:
		lo := c.fetch()
		if c.T1 {
			c.PC = (c.PC & 0xF00) | uint16(lo)
		}
		cy = 2
	case 0xB6:
		lo := c.fetch()
		if c.F0 {
			c.PC = (c.PC & 0xF00) | uint16(lo)
		}
		cy = 2
	case 0x76:
		lo := c.fetch()
		if c.F1 {
			c.PC = (c.PC & 0xF00) | uint16(lo)
		}
		cy = 2
	case 0x16:
		lo := c.fetch()
		if c.TimerOverflow {
			c.PC = (c.PC & 0xF00) | uint16(lo)
			c.TimerOverflow = false
		}
		cy = 2
	case 0x86: // JNI — INT pin not connected on this hardware
		c.fetch()
		cy = 2
	case 0x12, 0x32, 0x52, 0x72, 0x92, 0xB2, 0xD2, 0xF2:
		lo := c.fetch()
		if c.A&(1<<((op>>5)&7)) != 0 {
			c.PC = (c.PC & 0xF00) | uint16(lo)
		}
		cy = 2

	// CALL / RET
	case 0x14, 0x34, 0x54, 0x74, 0x94, 0xB4, 0xD4, 0xF4:
		lo := c.fetch()
		c.pushReturn()
		c.PC = (uint16(op&0xE0) << 3) | uint16(lo)
		if c.MB {
			c.PC |= 0x800
		}
		cy = 2
	case 0x83: // RET
		c.popPC()
		cy = 2
	case 0x93: // RETR
		c.popPCAndFlags()
		c.IRQEnable = true
		c.InIRQ = false
		cy = 2

	// Interrupts & timer control
	case 0x05: // EI
		c.IRQEnable = true
		// 2 so that both this Step (the EI instruction itself) and the next
		// one (the "first opcode after EI") finish with dispatch suppressed;
		// the per-Step decrement above consumes one of these two before
		// either instruction's dispatch check runs.
		c.eiDelay = 2
	case 0x15: // DI
		c.IRQEnable = false
	case 0x25: // EN TCNTI
		c.TCNTIEnable = true
	case 0x35: // DIS TCNTI
		c.TCNTIEnable = false
	case 0x55: // STRT T
		c.TimerEnable = true
		c.CounterEnable = false
		c.prescaler = 0
	case 0x45: // STRT CNT
		c.CounterEnable = true
		c.TimerEnable = false
		c.prescaler = 0
	case 0x65: // STOP TCNT
		c.TimerEnable = false
		c.CounterEnable = false
		c.prescaler = 0
	case 0x42: // MOV A,T
		c.A = c.Timer
	case 0x62: // MOV T,A
		c.Timer = c.A
		c.prescaler = 0

	// PSW
	case 0xC7: // MOV A,PSW
		c.A = c.packPSW()
	case 0xD7: // MOV PSW,A
		c.unpackPSW(c.A)

	// I/O ports
	case 0x08: // INS A,BUS
		c.A = c.ports.ReadPort(0, c.BUS)
		cy = 2
	case 0x02: // OUTL BUS,A
		c.BUS = c.A
		c.ports.WritePort(0, c.BUS)
		cy = 2
	case 0x88:
		c.BUS |= c.fetch()
		c.ports.WritePort(0, c.BUS)
		cy = 2
	case 0x98:
		c.BUS &= c.fetch()
		c.ports.WritePort(0, c.BUS)
		cy = 2
	case 0x09: // IN A,P1
		c.A = c.ports.ReadPort(1, c.P1)
		cy = 2
	case 0x0A: // IN A,P2
		c.A = c.ports.ReadPort(2, c.P2)
		cy = 2
	case 0x39: // OUTL P1,A
		c.P1 = c.A
		c.ports.WritePort(1, c.P1)
		cy = 2
	case 0x3A: // OUTL P2,A
		c.P2 = c.A
		c.ports.WritePort(2, c.P2)
		cy = 2
	case 0x99:
		c.P1 &= c.fetch()
		c.ports.WritePort(1, c.P1)
		cy = 2
	case 0x9A:
		c.P2 &= c.fetch()
		c.ports.WritePort(2, c.P2)
		cy = 2
	case 0x89:
		c.P1 |= c.fetch()
		c.ports.WritePort(1, c.P1)
		cy = 2
	case 0x8A:
		c.P2 |= c.fetch()
		c.ports.WritePort(2, c.P2)
		cy = 2

	// MOVX A,@Rr — external RAM read. The BIOS relies on the hardware
	// side effect that the data read is simultaneously latched into the LED
	// register selected by P2, so the port layer is notified of the fetched
	// value alongside the read itself.
	case 0x80, 0x81:
		r := c.register(op & 1)
		xval := c.mem.ReadXRAM(c.P1&0x03, *r)
		c.A = xval
		c.ports.LatchXRAMRead(c.P2, xval)
		cy = 2
	case 0x90, 0x91:
		r := c.register(op & 1)
		c.mem.WriteXRAM(c.P1&0x03, *r, c.A)
		cy = 2

	// MOVP / MOVP3
	case 0xA3:
		c.A = c.mem.FetchROM((c.PC&0xF00)|uint16(c.A), c.P1&0x04 != 0)
		cy = 2
	case 0xE3:
		c.A = c.mem.FetchROM(0x300|uint16(c.A), c.P1&0x04 != 0)
		cy = 2

	// MOVD — 8243 port expander, not wired on this hardware
	case 0x0C, 0x0D, 0x0E, 0x0F:
		c.A = 0x0F
		cy = 2
	case 0x3C, 0x3D, 0x3E, 0x3F, 0x8C, 0x8D, 0x8E, 0x8F, 0x9C, 0x9D, 0x9E, 0x9F:
		cy = 2

	case 0x75: // ENT0 CLK

	default:
		if !c.unknownLogged[opPC] {
			c.unknownLogged[opPC] = true
			logger.Logf(logger.Allow, "cpu", "unknown opcode %#02x at PC=%#03x", op, opPC)
		}
		unknown = true
	}

	c.Cycles += uint64(cy)

	// Timer prescaler: increments every 32 cycles.
	interruptTaken := false
	if c.TimerEnable {
		c.prescaler += cy
		for c.prescaler >= 32 {
			c.prescaler -= 32
			c.Timer++
			if c.Timer == 0 {
				c.TimerOverflow = true
				if c.TCNTIEnable && c.IRQEnable && !c.InIRQ {
					c.IRQPending = true
				}
			}
		}
	}

	// Interrupt dispatch: suppressed while eiDelay is nonzero (see the
	// decrement at the top of this Step).
	if c.IRQPending && c.IRQEnable && !c.InIRQ && c.eiDelay == 0 {
		c.IRQPending = false
		c.InIRQ = true
		c.IRQEnable = false
		c.pushReturn()
		c.PC = 0x007
		interruptTaken = true
	}

	c.LastResult = execution.Result{
		Address:        opPC,
		Opcode:         op,
		Cycles:         cy,
		Unknown:        unknown,
		InterruptTaken: interruptTaken,
	}
	return c.LastResult
}

func (c *CPU) add(operand uint8, withCarry bool) {
	carryIn := uint8(0)
	if withCarry && c.C {
		carryIn = 1
	}
	sum := uint16(c.A) + uint16(operand) + uint16(carryIn)
	c.AC = (c.A&0xF)+(operand&0xF)+carryIn > 0xF
	c.C = sum > 0xFF
	c.A = uint8(sum)
}

func (c *CPU) decimalAdjust() {
	if (c.A&0xF) > 9 || c.AC {
		t := c.A
		c.A += 6
		if c.A < t {
			c.C = true
		}
	}
	if (c.A>>4) > 9 || c.C {
		c.A += 0x60
		c.C = true
	}
}

func boolToBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SetT1 sets the T1 test pin, driven externally by the system's frame loop
// as it tracks the mirror-sync pulse. Counter-mode timer increments happen
// in the frame loop, not here, because the falling-edge detection needs the
// previous and new pin values in the same place that generates them.
func (c *CPU) SetT1(v bool) { c.T1 = v }

// IncrementCounter applies one falling-edge counter tick: "STRT CNT" mode
// increments on T1 high-to-low transitions. Called by the system frame loop
// when it detects such a transition while CounterEnable is set.
func (c *CPU) IncrementCounter() {
	c.Timer++
	if c.Timer == 0 {
		c.TimerOverflow = true
		if c.TCNTIEnable && c.IRQEnable && !c.InIRQ {
			c.IRQPending = true
		}
	}
}
