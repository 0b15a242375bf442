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

package cpu_test

import (
	"testing"

	"github.com/pandamystique/advision/hardware/cpu"
	"github.com/pandamystique/advision/hardware/memory"
)

// fakePorts is a minimal PortIO double recording every call it receives.
type fakePorts struct {
	reads       []uint8
	writes      [][2]uint8
	latched     [][2]uint8
	readReturns uint8
}

func (f *fakePorts) ReadPort(port uint8, reg uint8) uint8 {
	f.reads = append(f.reads, port)
	return f.readReturns
}

func (f *fakePorts) WritePort(port uint8, val uint8) {
	f.writes = append(f.writes, [2]uint8{port, val})
}

func (f *fakePorts) LatchXRAMRead(p2 uint8, data uint8) {
	f.latched = append(f.latched, [2]uint8{p2, data})
}

// newCPU builds a CPU over a blank 1024-byte firmware image with prog loaded
// at address 0, and a fakePorts double.
func newCPU(prog []byte) (*cpu.CPU, *memory.Map, *fakePorts) {
	firmware := make([]byte, 1024)
	copy(firmware, prog)
	mem := memory.New(firmware, nil)
	fp := &fakePorts{}
	return cpu.NewCPU(mem, fp), mem, fp
}

func TestNopConsumesOneCycleAndAdvancesPC(t *testing.T) {
	c, _, _ := newCPU([]byte{0x00, 0x00})
	r := c.Step()
	if r.Cycles != 1 {
		t.Fatalf("Cycles = %d, want 1", r.Cycles)
	}
	if c.PC != 1 {
		t.Fatalf("PC = %d, want 1", c.PC)
	}
	if r.Unknown {
		t.Fatal("NOP reported as unknown")
	}
}

func TestUnknownOpcodeIsFlaggedAndTreatedAsNop(t *testing.T) {
	// 0x01 is not decoded by this interpreter.
	c, _, _ := newCPU([]byte{0x01})
	r := c.Step()
	if !r.Unknown {
		t.Fatal("expected Unknown = true for undecoded opcode")
	}
	if c.A != 0 {
		t.Fatalf("A = %#x, want unchanged 0", c.A)
	}
}

func TestMovImmediateToAccumulator(t *testing.T) {
	c, _, _ := newCPU([]byte{0x23, 0x42}) // MOV A,#0x42
	r := c.Step()
	if c.A != 0x42 {
		t.Fatalf("A = %#x, want 0x42", c.A)
	}
	if r.Cycles != 2 {
		t.Fatalf("Cycles = %d, want 2", r.Cycles)
	}
}

func TestRegisterBankSwitchSelectsDistinctStorage(t *testing.T) {
	// MOV A,#1 ; MOV R0,A ; SEL RB1 ; MOV A,#2 ; MOV R0,A ; SEL RB0 ; MOV A,R0
	prog := []byte{
		0x23, 0x01, // A = 1
		0xA8,       // R0 = A
		0xD5,       // SEL RB1
		0x23, 0x02, // A = 2
		0xA8, // R0 = A (bank 1's R0)
		0xC5, // SEL RB0
		0xF8, // A = R0 (bank 0's R0, should still be 1)
	}
	c, _, _ := newCPU(prog)
	for i := 0; i < 7; i++ {
		c.Step()
	}
	if c.A != 1 {
		t.Fatalf("bank-0 R0 = %d, want 1 (banks must not alias)", c.A)
	}
}

func TestAddSetsCarryAndAuxCarry(t *testing.T) {
	prog := []byte{
		0x23, 0xFF, // A = 0xFF
		0x13, 0x01, // ADDC A,#1 (carry in clear) -> A=0, C=1, AC=1
	}
	c, _, _ := newCPU(prog)
	c.Step()
	c.Step()
	if c.A != 0 {
		t.Fatalf("A = %#x, want 0", c.A)
	}
	if !c.C {
		t.Fatal("C not set on overflow")
	}
	if !c.AC {
		t.Fatal("AC not set on nibble overflow")
	}
}

func TestDecimalAdjustStandardCase(t *testing.T) {
	// 0x39 + 0x28 = 0x61 in raw binary add; BCD-correct result is 0x67.
	prog := []byte{
		0x23, 0x39, // A = 0x39
		0x03, 0x28, // ADD A,#0x28 -> A = 0x61, AC set (9+8>0xF)
		0x57, // DA A
	}
	c, _, _ := newCPU(prog)
	for i := 0; i < 3; i++ {
		c.Step()
	}
	if c.A != 0x67 {
		t.Fatalf("DAA(0x39+0x28) = %#02x, want 0x67", c.A)
	}
}

func TestDecimalAdjustHighNibbleOnly(t *testing.T) {
	// A = 0xA0: low nibble is valid BCD (0), high nibble needs +0x60, no
	// carry or AC going in.
	prog := []byte{
		0x23, 0xA0,
		0x57,
	}
	c, _, _ := newCPU(prog)
	c.Step()
	c.Step()
	if c.A != 0x00 {
		t.Fatalf("DAA(0xA0) = %#02x, want 0x00 (with carry out)", c.A)
	}
	if !c.C {
		t.Fatal("expected carry out of high-nibble-only adjustment")
	}
}

func TestDecimalAdjustLowNibbleOnly(t *testing.T) {
	// A = 0x0A: low nibble invalid (>9), high nibble valid (0) and no
	// carry, so only the low-nibble +6 adjustment applies.
	prog := []byte{
		0x23, 0x0A,
		0x57,
	}
	c, _, _ := newCPU(prog)
	c.Step()
	c.Step()
	if c.A != 0x10 {
		t.Fatalf("DAA(0x0A) = %#02x, want 0x10", c.A)
	}
	if c.C {
		t.Fatal("expected no carry out of low-nibble-only adjustment")
	}
}

func TestIncDecWrapAround(t *testing.T) {
	prog := []byte{
		0x23, 0xFF, // A = 0xFF
		0x17, // INC A -> 0x00
		0x07, // DEC A -> 0xFF
	}
	c, _, _ := newCPU(prog)
	c.Step()
	c.Step()
	if c.A != 0 {
		t.Fatalf("A after INC overflow = %#x, want 0", c.A)
	}
	c.Step()
	if c.A != 0xFF {
		t.Fatalf("A after DEC underflow = %#x, want 0xFF", c.A)
	}
}

func TestRotateInstructions(t *testing.T) {
	prog := []byte{
		0x23, 0x81, // A = 1000_0001
		0xE7, // RL A -> 0000_0011
	}
	c, _, _ := newCPU(prog)
	c.Step()
	c.Step()
	if c.A != 0x03 {
		t.Fatalf("RL A = %#02x, want 0x03", c.A)
	}
}

func TestJmpForcedByMBBit(t *testing.T) {
	prog := make([]byte, 0x30)
	prog[0] = 0xF5 // SEL MB1
	prog[1] = 0x04 // JMP low byte 0x00, page bits from opcode top 3 bits = 0
	prog[2] = 0x00
	c, _, _ := newCPU(prog)
	c.Step() // SEL MB1
	c.Step() // JMP 0x000 with MB forcing -> 0x800
	if c.PC != 0x800 {
		t.Fatalf("PC after MB-forced JMP = %#03x, want 0x800", c.PC)
	}
}

func TestCallPushesReturnAddressAndRetPopsIt(t *testing.T) {
	prog := make([]byte, 0x10)
	prog[0] = 0x14 // CALL addr low=0x08, page 0
	prog[1] = 0x08
	prog[8] = 0x83 // RET
	c, _, _ := newCPU(prog)
	c.Step() // CALL
	if c.PC != 0x008 {
		t.Fatalf("PC after CALL = %#03x, want 0x008", c.PC)
	}
	if c.SP != 1 {
		t.Fatalf("SP after CALL = %d, want 1", c.SP)
	}
	c.Step() // RET
	if c.PC != 0x002 {
		t.Fatalf("PC after RET = %#03x, want 0x002 (return address after 2-byte CALL)", c.PC)
	}
	if c.SP != 0 {
		t.Fatalf("SP after RET = %d, want 0", c.SP)
	}
}

func TestDjnzLoopsUntilZero(t *testing.T) {
	prog := []byte{
		0x23, 0x03, // 0: A = 3
		0xA8,       // 2: R0 = A (=3)
		0xE8, 0x03, // 3: DJNZ R0, addr 3 (this instruction's own address)
	}
	c, _, _ := newCPU(prog)
	c.Step() // MOV A,#3
	c.Step() // MOV R0,A
	// DJNZ decrements R0 and branches back to itself until R0==0, after
	// which it falls through to address 5.
	for i := 0; i < 3; i++ {
		c.Step()
	}
	if c.PC != 5 {
		t.Fatalf("PC after loop exits = %d, want 5 (falls through)", c.PC)
	}
}

func TestTimerPrescalerIncrementsEvery32Cycles(t *testing.T) {
	prog := []byte{0x55, 0x00, 0x00} // STRT T, then NOPs
	c, _, _ := newCPU(prog)
	c.Step() // STRT T
	for i := 0; i < 32; i++ {
		c.Step()
	}
	if c.Timer != 1 {
		t.Fatalf("Timer = %d, want 1 after 32 cycles", c.Timer)
	}
}

func TestMovxReadLatchesLEDPortAlongsideData(t *testing.T) {
	prog := []byte{0x80} // MOVX A,@R0
	c, mem, fp := newCPU(prog)
	mem.WriteXRAM(0, 0, 0x5A)
	c.P1 = 0x00 // bank 0 (reset's power-on P1 would select bank 3)
	c.P2 = 0x99
	c.Step()
	if c.A != 0x5A {
		t.Fatalf("A after MOVX = %#02x, want 0x5A", c.A)
	}
	if len(fp.latched) != 1 || fp.latched[0] != [2]uint8{0x99, 0x5A} {
		t.Fatalf("LatchXRAMRead not called with (P2, data) = (0x99, 0x5A): got %v", fp.latched)
	}
}

func TestOutlP2WritesPortAndUpdatesRegister(t *testing.T) {
	prog := []byte{0x23, 0xAB, 0x3A} // MOV A,#0xAB ; OUTL P2,A
	c, _, fp := newCPU(prog)
	c.Step()
	c.Step()
	if c.P2 != 0xAB {
		t.Fatalf("P2 = %#02x, want 0xAB", c.P2)
	}
	if len(fp.writes) != 1 || fp.writes[0] != [2]uint8{2, 0xAB} {
		t.Fatalf("WritePort not called with (2, 0xAB): got %v", fp.writes)
	}
}

func TestEIDelaysDispatchByOneInstruction(t *testing.T) {
	// EI, NOP, NOP: a pending interrupt must not dispatch on the Step that
	// executes EI itself, nor on the Step for the instruction immediately
	// after it — only once that following instruction has completed.
	prog := []byte{0x05, 0x00, 0x00}
	c, _, _ := newCPU(prog)
	c.IRQPending = true

	c.Step() // EI
	if c.PC != 1 || c.InIRQ {
		t.Fatalf("after EI: PC=%d InIRQ=%v, want PC=1 InIRQ=false (no dispatch on EI's own Step)", c.PC, c.InIRQ)
	}

	c.Step() // first NOP after EI
	if c.PC != 2 || c.InIRQ {
		t.Fatalf("after first post-EI instruction: PC=%d InIRQ=%v, want PC=2 InIRQ=false", c.PC, c.InIRQ)
	}

	c.Step() // second NOP: dispatch may now occur
	if !c.InIRQ || c.PC != 0x007 {
		t.Fatalf("after second post-EI instruction: PC=%#03x InIRQ=%v, want PC=0x007 InIRQ=true", c.PC, c.InIRQ)
	}
}

func TestResetRestoresPowerOnPortValues(t *testing.T) {
	c, _, _ := newCPU(nil)
	c.P1 = 0x00
	c.P2 = 0x00
	c.A = 0xFF
	c.Reset()
	if c.P1 != 0xFB || c.P2 != 0xFF {
		t.Fatalf("P1/P2 after reset = %#02x/%#02x, want 0xFB/0xFF", c.P1, c.P2)
	}
	if c.A != 0 {
		t.Fatalf("A after reset = %#02x, want 0", c.A)
	}
	if !c.T0 {
		t.Fatal("T0 must remain tied high after reset")
	}
}
