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

// Package display implements the Adventure Vision's 40-LED spinning-mirror
// POV display as a float phosphor buffer: 150 columns by 40 rows, refreshed
// by whichever of two independent capture paths a cartridge actually drives,
// then decayed and re-lit once per frame. Organized the same way this
// codebase's other small stateful hardware models are: one struct owning its
// buffers plus a handful of methods that are the only way to mutate them.
package display

const (
	// Width is the number of LED columns swept per mirror revolution.
	Width = 150
	// Height is the number of LEDs per column.
	Height = 40

	// DefaultDecay is the per-frame phosphor multiplier absent configuration.
	DefaultDecay = 0.45

	// decayFloor is the brightness below which a pixel is snapped to off.
	decayFloor = 0.01
)

// Display holds the phosphor buffer and the two capture paths that feed it:
// the hardware LED-register/strobe path driven by MOVX reads and a P2.4
// rising edge, and the mid-frame VRAM-scan fallback used when a cartridge
// drives video RAM directly without ever strobing P2.4.
type Display struct {
	phosphor [Width * Height]float32

	colData      [Width][5]byte
	colsCaptured int
	ledReg       [5]byte
	ledCol       int
	ledActive    bool
}

// New returns a Display with LED registers at their power-on value (all
// bits set, i.e. all LEDs off) and an empty phosphor buffer.
func New() *Display {
	d := &Display{}
	d.Reset()
	return d
}

// Reset restores power-on state: LED registers all-high, column counter and
// active flag cleared, phosphor buffer blanked.
func (d *Display) Reset() {
	for i := range d.ledReg {
		d.ledReg[i] = 0xFF
	}
	d.ledCol = 0
	d.ledActive = false
	d.colsCaptured = 0
	for i := range d.phosphor {
		d.phosphor[i] = 0
	}
}

// BeginFrame resets all per-frame LED-latch state: the five LED registers
// return to all-high (off), the column counter rewinds to zero, and the
// active flag clears. The frame driver calls this once at the start of each
// frame, before the mirror-sync edge is even detected.
func (d *Display) BeginFrame() {
	for i := range d.ledReg {
		d.ledReg[i] = 0xFF
	}
	d.ledCol = 0
	d.ledActive = false
}

// ResyncColumn rewinds only the column counter, leaving the active flag and
// latched registers untouched. The frame driver calls this at the
// display-sync edge (T1 LOW->HIGH): the mirror has reached its start
// position, so column output resumes at zero, but a strobe seen moments
// earlier (unlikely but not impossible) still counts toward Active.
func (d *Display) ResyncColumn() {
	d.ledCol = 0
}

// Active reports whether any P2.4 strobe has been observed since the last
// BeginFrame — the frame driver uses this to decide whether the mid-frame
// fallback capture path needs to run at all.
func (d *Display) Active() bool {
	return d.ledActive
}

// decodeLEDRegister maps P2 bits 7-5 to an LED-register index, or -1 if the
// select code does not address a register.
func decodeLEDRegister(p2 byte) int {
	switch (p2 >> 5) & 7 {
	case 4: // 100
		return 0
	case 2: // 010
		return 1
	case 6: // 110
		return 2
	case 1: // 001
		return 3
	case 5: // 101
		return 4
	default:
		return -1
	}
}

// LatchLEDByte is the MOVX-read side effect: data is captured into whichever
// LED register p2's select bits name, or dropped if they name none.
func (d *Display) LatchLEDByte(p2, data byte) {
	if ri := decodeLEDRegister(p2); ri >= 0 {
		d.ledReg[ri] = data
	}
}

// StrobeColumn commits the five LED registers to the current column and
// advances the column counter — the P2.4 rising-edge action.
func (d *Display) StrobeColumn() {
	col := d.ledCol
	if col >= 0 && col < Width {
		d.colData[col] = d.ledReg
		if col >= d.colsCaptured {
			d.colsCaptured = col + 1
		}
	}
	d.ledCol++
	d.ledActive = true
}

// CaptureColumn reads column col's five bytes directly from external RAM —
// the mid-frame and end-of-frame fallback path, used when the hardware LED
// strobe path above was never driven this frame.
func (d *Display) CaptureColumn(xram []byte, col int) {
	if col < 0 || col >= Width {
		return
	}
	bank := 1 + col/50
	offset := 6 + (col%50)*5
	base := bank*256 + offset
	if base+4 >= len(xram) {
		return
	}
	copy(d.colData[col][:], xram[base:base+5])
	if col >= d.colsCaptured {
		d.colsCaptured = col + 1
	}
}

// Update decays every phosphor pixel by decay, floors near-zero values to
// zero, then lights every pixel named by a captured column's clear bits. It
// resets the captured-column count for the next frame.
func (d *Display) Update(decay float32) {
	for i := range d.phosphor {
		d.phosphor[i] *= decay
		if d.phosphor[i] < decayFloor {
			d.phosphor[i] = 0
		}
	}

	cols := d.colsCaptured
	if cols > Width {
		cols = Width
	}
	for col := 0; col < cols; col++ {
		for bi := 0; bi < 5; bi++ {
			val := d.colData[col][bi]
			for bit := 0; bit < 8; bit++ {
				y := (4-bi)*8 + (7 - bit)
				if y < 0 || y >= Height {
					continue
				}
				if val&(1<<uint(bit)) == 0 {
					d.phosphor[col+y*Width] = 1.0
				}
			}
		}
	}
	d.colsCaptured = 0
}

// Pixel returns the phosphor brightness at (x, y), or 0 outside bounds.
func (d *Display) Pixel(x, y int) float32 {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return 0
	}
	return d.phosphor[x+y*Width]
}

// FrameCopy copies the entire phosphor buffer into out, which must be at
// least Width*Height long, row-major with y varying slowest.
func (d *Display) FrameCopy(out []float32) {
	copy(out, d.phosphor[:])
}

// Frame is a value-typed snapshot of one rendered phosphor buffer, returned
// by Snapshot so callers can hold onto a frame after the display moves on
// to the next one.
type Frame [Width * Height]float32

// Snapshot returns a copy of the current phosphor buffer.
func (d *Display) Snapshot() Frame {
	var f Frame
	copy(f[:], d.phosphor[:])
	return f
}

// Pixel reads a snapshot's brightness at (x, y), or 0 outside bounds.
func (f Frame) Pixel(x, y int) float32 {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return 0
	}
	return f[x+y*Width]
}
