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

// Package savestate implements the binary save/restore format: a fixed,
// little-endian layout covering CPU architectural state, both RAM regions,
// and the full COP411L sound engine state, magic-stamped and
// version-stamped so a foreign or stale file is rejected outright rather
// than partially loaded. Modeled as a pair of free functions over a
// system.System, the same shape this codebase's other binary-format
// packages use: Encode/Decode plus a small set of named curated errors for
// the ways a file can be corrupt.
package savestate

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pandamystique/advision/advierrors"
	"github.com/pandamystique/advision/hardware/cpu"
	"github.com/pandamystique/advision/hardware/sound"
	"github.com/pandamystique/advision/hardware/system"
)

// Magic and Version identify the format. A file with either mismatched is
// rejected before any field is applied.
const (
	Magic   uint32 = 0x41563133 // "AV13"
	Version uint32 = 18
)

const stepRecordSize = 16 // freq f32 + noise u8 + 3 pad + dur_ms i32 + volume f32

// Encode serializes sys into the binary savestate format.
func Encode(sys *system.System) []byte {
	cs := sys.CPU.ExportState()

	sys.Sound.Lock()
	ss := sys.Sound.ExportState()
	sys.Sound.Unlock()

	var buf bytes.Buffer
	buf.Grow(4 + 4 + 8 + 2 + 1 + 64 + 1024 + 4 + 8 + 64)

	w32 := func(v uint32) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	w16 := func(v uint16) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	w8 := func(v uint8) { buf.WriteByte(v) }
	wf32 := func(v float64) { _ = binary.Write(&buf, binary.LittleEndian, float32(v)) }
	wi32 := func(v int) { _ = binary.Write(&buf, binary.LittleEndian, int32(v)) }
	wbool := func(v bool) {
		if v {
			w8(1)
		} else {
			w8(0)
		}
	}

	w32(Magic)
	w32(Version)

	w8(cs.A)
	w16(cs.PC)
	w8(cs.PSW)
	w8(cs.SP)
	w8(cs.Flags)
	w8(cs.Flags2)
	w8(cs.Timer)
	w8(cs.P1)
	w8(cs.P2)
	w8(cs.BUS)
	buf.Write(cs.IRAM[:])
	buf.Write(cs.XRAM[:])
	w32(cs.Prescaler)
	_ = binary.Write(&buf, binary.LittleEndian, cs.Cycles)

	wbool(ss.CtrlLoop)
	w8(ss.CtrlVol)
	wbool(ss.CtrlFast)
	w8(ss.ProtoState)
	w8(ss.ProtoHi)
	w16(ss.LFSR)
	wbool(ss.Active)
	wbool(ss.IsNoise)
	w8(ss.Command)
	wf32(ss.CurFreq)
	wf32(ss.CurVol)
	w32(ss.PhaseAcc)
	w32(ss.PhaseInc)
	wi32(ss.CurStep)
	wi32(ss.StepCount)
	wi32(ss.StepSamplesLeft)
	wi32(ss.Segment)
	wi32(ss.SegSamplesLeft)
	wi32(ss.SegSamplesTotal)
	wf32(ss.Seg1Vol)
	wf32(ss.Seg2Vol)

	for i := 0; i < sound.MaxSteps; i++ {
		st := ss.Steps[i]
		wf32(st.FreqHz)
		wbool(st.Noise)
		buf.Write([]byte{0, 0, 0})
		wi32(st.DurMS)
		wf32(st.Volume)
	}

	return buf.Bytes()
}

// Decode parses data and applies it to sys. On any error sys is left
// completely untouched — every field is validated against a local copy
// before anything is written back, mirroring the restore-on-failure
// behavior of the format this was modeled on.
func Decode(data []byte, sys *system.System) error {
	r := bytes.NewReader(data)

	r32 := func() (uint32, bool) {
		var v uint32
		return v, binary.Read(r, binary.LittleEndian, &v) == nil
	}
	r16 := func() (uint16, bool) {
		var v uint16
		return v, binary.Read(r, binary.LittleEndian, &v) == nil
	}
	r8 := func() (uint8, bool) {
		b, err := r.ReadByte()
		return b, err == nil
	}
	rf32 := func() (float64, bool) {
		var v float32
		if binary.Read(r, binary.LittleEndian, &v) != nil {
			return 0, false
		}
		return float64(v), true
	}
	ri32 := func() (int, bool) {
		var v int32
		if binary.Read(r, binary.LittleEndian, &v) != nil {
			return 0, false
		}
		return int(v), true
	}
	rbool := func() (bool, bool) {
		b, ok := r8()
		return b != 0, ok
	}
	skip := func(n int) bool {
		buf := make([]byte, n)
		_, err := r.Read(buf)
		return err == nil
	}

	magic, ok := r32()
	if !ok || magic != Magic {
		return advierrors.Errorf(advierrors.SaveStateMagic)
	}
	ver, ok := r32()
	if !ok {
		return advierrors.Errorf(advierrors.SaveStateTruncated)
	}
	if ver != Version {
		return advierrors.Errorf(advierrors.SaveStateVersion, ver, Version)
	}

	var cs cpu.State
	var fail bool
	read := func(f func() bool) {
		if !fail && !f() {
			fail = true
		}
	}

	read(func() bool { v, ok := r8(); cs.A = v; return ok })
	read(func() bool { v, ok := r16(); cs.PC = v; return ok })
	read(func() bool { v, ok := r8(); cs.PSW = v; return ok })
	read(func() bool { v, ok := r8(); cs.SP = v; return ok })
	read(func() bool { v, ok := r8(); cs.Flags = v; return ok })
	read(func() bool { v, ok := r8(); cs.Flags2 = v; return ok })
	read(func() bool { v, ok := r8(); cs.Timer = v; return ok })
	read(func() bool { v, ok := r8(); cs.P1 = v; return ok })
	read(func() bool { v, ok := r8(); cs.P2 = v; return ok })
	read(func() bool { v, ok := r8(); cs.BUS = v; return ok })
	read(func() bool {
		n, err := r.Read(cs.IRAM[:])
		return err == nil && n == len(cs.IRAM)
	})
	read(func() bool {
		n, err := r.Read(cs.XRAM[:])
		return err == nil && n == len(cs.XRAM)
	})
	read(func() bool { v, ok := r32(); cs.Prescaler = v; return ok })
	read(func() bool {
		var v uint64
		ok := binary.Read(r, binary.LittleEndian, &v) == nil
		cs.Cycles = v
		return ok
	})

	var ss sound.State
	read(func() bool { v, ok := rbool(); ss.CtrlLoop = v; return ok })
	read(func() bool { v, ok := r8(); ss.CtrlVol = v; return ok })
	read(func() bool { v, ok := rbool(); ss.CtrlFast = v; return ok })
	read(func() bool { v, ok := r8(); ss.ProtoState = v; return ok })
	read(func() bool { v, ok := r8(); ss.ProtoHi = v; return ok })
	read(func() bool { v, ok := r16(); ss.LFSR = v; return ok })
	read(func() bool { v, ok := rbool(); ss.Active = v; return ok })
	read(func() bool { v, ok := rbool(); ss.IsNoise = v; return ok })
	read(func() bool { v, ok := r8(); ss.Command = v; return ok })
	read(func() bool { v, ok := rf32(); ss.CurFreq = v; return ok })
	read(func() bool { v, ok := rf32(); ss.CurVol = v; return ok })
	read(func() bool { v, ok := r32(); ss.PhaseAcc = v; return ok })
	read(func() bool { v, ok := r32(); ss.PhaseInc = v; return ok })
	read(func() bool { v, ok := ri32(); ss.CurStep = v; return ok })
	read(func() bool { v, ok := ri32(); ss.StepCount = v; return ok })
	read(func() bool { v, ok := ri32(); ss.StepSamplesLeft = v; return ok })
	read(func() bool { v, ok := ri32(); ss.Segment = v; return ok })
	read(func() bool { v, ok := ri32(); ss.SegSamplesLeft = v; return ok })
	read(func() bool { v, ok := ri32(); ss.SegSamplesTotal = v; return ok })
	read(func() bool { v, ok := rf32(); ss.Seg1Vol = v; return ok })
	read(func() bool { v, ok := rf32(); ss.Seg2Vol = v; return ok })

	for i := 0; i < sound.MaxSteps; i++ {
		idx := i
		read(func() bool { v, ok := rf32(); ss.Steps[idx].FreqHz = v; return ok })
		read(func() bool { v, ok := rbool(); ss.Steps[idx].Noise = v; return ok })
		read(func() bool { return skip(3) })
		read(func() bool { v, ok := ri32(); ss.Steps[idx].DurMS = v; return ok })
		read(func() bool { v, ok := rf32(); ss.Steps[idx].Volume = v; return ok })
	}

	if fail {
		return advierrors.Errorf(advierrors.SaveStateTruncated)
	}

	// Replace a NaN/Inf cur_freq or cur_vol with 0 here, ahead of the
	// range-sanitizing ImportState does for the rest of the sound fields —
	// these two are checked first in the format this was modeled on.
	if math.IsNaN(ss.CurFreq) || math.IsInf(ss.CurFreq, 0) {
		ss.CurFreq = 0
	}
	if math.IsNaN(ss.CurVol) || math.IsInf(ss.CurVol, 0) {
		ss.CurVol = 0
	}

	sys.CPU.ImportState(cs)
	sys.Sound.Lock()
	sys.Sound.ImportState(ss)
	sys.Sound.Unlock()
	return nil
}
