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

// Package execution records the outcome of a single MCS-48 instruction
// step, separated from the CPU core so callers (debuggers, disassembly, the
// headless --dump CLI) can inspect what happened without reaching into the
// CPU's internals.
package execution

// Result describes one instruction dispatched by the CPU. It is overwritten
// on every call to CPU.Step.
type Result struct {
	// Address is the PC value the instruction was fetched from, before
	// auto-increment.
	Address uint16

	// Opcode is the raw fetched opcode byte.
	Opcode byte

	// Cycles is the number of clock cycles this instruction consumed —
	// most instructions take 1 or 2 cycles on the 8048's 1-state-per-cycle
	// model.
	Cycles int

	// Unknown is true when Opcode did not match any decoded instruction. The
	// CPU treats an unknown opcode as a NOP but still reports it so tooling
	// can flag a decode failure.
	Unknown bool

	// InterruptTaken is true when this Step also dispatched a pending timer
	// interrupt — dispatch happens after the instruction's own side
	// effects, in the same Step.
	InterruptTaken bool
}
