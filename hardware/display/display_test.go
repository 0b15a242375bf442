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

package display_test

import (
	"testing"

	"github.com/pandamystique/advision/hardware/display"
)

func TestLEDRegisterDecodeAndStrobe(t *testing.T) {
	d := display.New()

	// select register 0 (P2[7:5] = 100), latch 0x00 (all eight LEDs lit).
	d.LatchLEDByte(0x80, 0x00)
	// an unselectable code (000) must not disturb any register.
	d.LatchLEDByte(0x00, 0xAA)
	d.StrobeColumn()

	out := make([]float32, display.Width*display.Height)
	d.Update(1.0)
	d.FrameCopy(out)

	for y := 32; y < 40; y++ {
		if out[0+y*display.Width] != 1.0 {
			t.Fatalf("pixel (0,%d) = %v, want lit", y, out[0+y*display.Width])
		}
	}
}

func TestStrobeAdvancesColumnAndSetsActive(t *testing.T) {
	d := display.New()
	if d.Active() {
		t.Fatal("Active before any strobe")
	}
	d.StrobeColumn()
	if !d.Active() {
		t.Fatal("Active after a strobe, want true")
	}
	d.BeginFrame()
	if d.Active() {
		t.Fatal("Active after BeginFrame, want false")
	}
}

func TestCaptureColumnVRAMLayout(t *testing.T) {
	d := display.New()
	xram := make([]byte, 1024)
	// column 0 lives in bank 1 at offset 6.
	copy(xram[256+6:256+11], []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x7F})
	d.CaptureColumn(xram, 0)
	d.Update(1.0)

	if got := d.Pixel(0, 0); got != 1.0 {
		t.Fatalf("pixel (0,0) = %v, want lit (byte 4 bit 7 clear)", got)
	}
	if got := d.Pixel(0, 39); got != 0 {
		t.Fatalf("pixel (0,39) = %v, want dark", got)
	}
}

func TestDecayFloorsNearZero(t *testing.T) {
	d := display.New()
	d.LatchLEDByte(0x80, 0x00)
	d.StrobeColumn()
	d.Update(1.0)

	for i := 0; i < 10; i++ {
		d.Update(0.1)
	}
	if got := d.Pixel(0, 39); got != 0 {
		t.Fatalf("pixel after repeated decay = %v, want floored to 0", got)
	}
}
