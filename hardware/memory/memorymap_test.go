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

package memory_test

import (
	"testing"

	"github.com/pandamystique/advision/hardware/memory"
)

func TestFetchROMGate(t *testing.T) {
	firmware := make([]byte, memory.FirmwareSize)
	firmware[0x010] = 0xAA
	cart := make([]byte, memory.CartridgeSize)
	cart[0x010] = 0xBB
	cart[0x500] = 0xCC

	m := memory.New(firmware, cart)

	if got := m.FetchROM(0x010, false); got != 0xAA {
		t.Fatalf("internal ROM fetch = %#x, want 0xAA", got)
	}
	if got := m.FetchROM(0x010, true); got != 0xBB {
		t.Fatalf("cartridge fetch with P1.2 high = %#x, want 0xBB", got)
	}
	if got := m.FetchROM(0x500, false); got != 0xCC {
		t.Fatalf("cartridge fetch above gate = %#x, want 0xCC", got)
	}
}

func TestXRAMAddressing(t *testing.T) {
	// boundary case: P1 = 0x03, Rr = 0x55 -> offset 0x355.
	if got := memory.XRAMAddress(0x03, 0x55); got != 0x355 {
		t.Fatalf("XRAMAddress(0x03, 0x55) = %#x, want 0x355", got)
	}
}

func TestXRAMBankReset(t *testing.T) {
	m := memory.New(nil, nil)
	for i := 0; i < memory.XRAMBankSize; i++ {
		if m.XRAM[i] != 0 {
			t.Fatalf("bank 0 byte %d = %#x, want 0", i, m.XRAM[i])
		}
	}
	for i := memory.XRAMBankSize; i < memory.XRAMSize; i++ {
		if m.XRAM[i] != 0xFF {
			t.Fatalf("bank byte %d = %#x, want 0xFF", i, m.XRAM[i])
		}
	}
}

func TestReadWriteXRAM(t *testing.T) {
	m := memory.New(nil, nil)
	m.WriteXRAM(0x02, 0x10, 0x42)
	if got := m.ReadXRAM(0x02, 0x10); got != 0x42 {
		t.Fatalf("ReadXRAM = %#x, want 0x42", got)
	}
}
