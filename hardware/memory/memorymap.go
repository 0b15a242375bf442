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

// Package memory implements the Adventure Vision's address space: 64 bytes
// of internal RAM, 1 KiB of internal ROM, up to 4 KiB of cartridge ROM, and
// 1 KiB of external RAM presented as four 256-byte banks selected by P1
// bits 0-1. Laid out the way this codebase's other memory-map packages are:
// a single struct owning every backing array, generalized from a linear
// address space to the 8048's ROM-gate/bank-window scheme.
package memory

import (
	"github.com/pandamystique/advision/advierrors"
	"github.com/pandamystique/advision/logger"
)

// Fixed sizes for the address space.
const (
	IRAMSize      = 64
	FirmwareSize  = 1024
	CartridgeSize = 4096
	XRAMSize      = 1024
	XRAMBankSize  = 256
	FirmwareGate  = 0x400 // internal ROM occupies addresses below this
)

// Map is the Adventure Vision address space.
type Map struct {
	IRAM [IRAMSize]byte

	firmware  [FirmwareSize]byte
	cartridge [CartridgeSize]byte
	XRAM      [XRAMSize]byte
}

// New builds a Map from a firmware image (padded/truncated to 1024 bytes)
// and a cartridge image (truncated to 4096 bytes). External RAM banks 1-3
// reset filled with 0xFF; bank 0 resets zeroed.
func New(firmware, cartridge []byte) *Map {
	m := &Map{}

	n := copy(m.firmware[:], firmware)
	if n < FirmwareSize {
		logger.Log(logger.Allow, "memory", advierrors.Errorf(advierrors.FirmwareSize, len(firmware)))
	}

	n = copy(m.cartridge[:], cartridge)
	if len(cartridge) > CartridgeSize {
		logger.Log(logger.Allow, "memory", advierrors.Errorf(advierrors.CartridgeOversize, len(cartridge)))
	}
	_ = n

	m.ResetXRAM()
	return m
}

// ResetXRAM fills banks 1-3 with 0xFF and clears bank 0, matching the
// hardware's power-on and soft-reset state. The COP411L's own control
// register survives a soft reset through a separate path, not this one.
func (m *Map) ResetXRAM() {
	for i := range m.XRAM {
		m.XRAM[i] = 0
	}
	for i := XRAMBankSize; i < XRAMSize; i++ {
		m.XRAM[i] = 0xFF
	}
}

// ResetIRAM clears all 64 bytes of internal RAM — registers, the stack, and
// scratch — matching the hardware's power-on and soft-reset state. The CPU
// core deliberately leaves IRAM alone on its own Reset, since IRAM is the
// memory map's responsibility, not the CPU's.
func (m *Map) ResetIRAM() {
	for i := range m.IRAM {
		m.IRAM[i] = 0
	}
}

// FetchROM implements the fetch rule: internal ROM services any address
// below FirmwareGate iff p1Bit2 (P1 bit 2) is low; otherwise — and for every
// address at or above FirmwareGate — the cartridge services it.
func (m *Map) FetchROM(addr uint16, p1Bit2 bool) byte {
	addr &= 0xFFF
	if addr < FirmwareGate && !p1Bit2 {
		return m.firmware[addr]
	}
	return m.cartridge[addr&(CartridgeSize-1)]
}

// XRAMAddress forms the 10-bit external-RAM index from the P1 bank-select
// bits and the Rr register value: addr = (P1[1:0] << 8) | rN.
func XRAMAddress(p1Bank uint8, rr uint8) uint16 {
	return (uint16(p1Bank&0x03) << 8) | uint16(rr)
}

// ReadXRAM reads external RAM at the banked address.
func (m *Map) ReadXRAM(p1Bank, rr uint8) byte {
	return m.XRAM[XRAMAddress(p1Bank, rr)&(XRAMSize-1)]
}

// WriteXRAM writes external RAM at the banked address.
func (m *Map) WriteXRAM(p1Bank, rr, val uint8) {
	m.XRAM[XRAMAddress(p1Bank, rr)&(XRAMSize-1)] = val
}
