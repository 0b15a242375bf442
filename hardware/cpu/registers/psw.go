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

// Package registers implements the MCS-48 program status word: the packed
// byte representation of the carry, auxiliary-carry, flag-0, register-bank,
// and stack-pointer bits, and the unpacking/repacking rules CALL, RET, RETR,
// and the explicit MOV PSW,A / MOV A,PSW instructions rely on. A small value
// type with explicit pack/unpack methods keeps this bit-twiddling out of the
// CPU core itself.
package registers

// PSW is the unpacked program status word. Bit 4 (BS, the register-bank
// selector) and bits 0-2 (SP) are carried in their own fields rather than as
// a raw byte so the CPU core can read/write them without re-deriving masks.
type PSW struct {
	C  bool
	AC bool
	F0 bool
	BS bool
	SP uint8 // 3 bits, 0-7
}

// Pack returns the byte representation written by CALL/PUSH and read back by
// MOV A,PSW. F1 has no bit in the packed word (bit 5 holds F0) —
// the packed byte only ever carries C, AC, F0, BS and SP.
func (p PSW) Pack() uint8 {
	var b uint8
	if p.C {
		b |= 1 << 7
	}
	if p.AC {
		b |= 1 << 6
	}
	if p.F0 {
		b |= 1 << 5
	}
	if p.BS {
		b |= 1 << 4
	}
	b |= p.SP & 0x07
	return b
}

// Unpack decodes a packed PSW byte, as used by RETR and the explicit MOV
// PSW,A instruction.
func Unpack(b uint8) PSW {
	return PSW{
		C:  b&(1<<7) != 0,
		AC: b&(1<<6) != 0,
		F0: b&(1<<5) != 0,
		BS: b&(1<<4) != 0,
		SP: b & 0x07,
	}
}
