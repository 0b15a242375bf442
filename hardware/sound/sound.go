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

// Package sound is a behavioral emulation of the COP411L sound
// co-processor: a 4-bit microcontroller addressed over the main CPU's P2
// port via a two-nibble command handshake, producing one of 13 scripted
// sound effects (commands 0x1-0xD), two pure tones per note (commands 0xE/0xF), or silence.
// Because the ROM firmware of the real COP411L was never dumped, this is a
// from-documentation reconstruction of its observed behavior, not a
// bytecode interpreter — shaped after a small, mutex-guarded audio-producer
// type with a channel/step-table layout for scripted effects.
package sound

import (
	"math"
	"sync"

	"github.com/pandamystique/advision/logger"
)

// step describes one segment of a scripted effect: a frequency (for noise
// steps, the rate at which the LFSR is re-clocked), whether it is rendered
// as noise or a square wave, a duration, and a relative volume.
type step struct {
	freqHz float64
	noise  bool
	durMS  int
	volume float64
}

// Engine is the COP411L's behavioral state. Every field is guarded by the
// embedded mutex — the producer (CPU/frame thread, via HandleP2) and the
// consumer (the audio callback thread, via Sample) share this single lock,
// since nothing else coordinates access between them.
type Engine struct {
	sync.Mutex

	// Control register. Persists across soft reset — it lives in the
	// COP411L's own RAM, which the main CPU reset does not touch.
	ctrlLoop bool
	ctrlVol  uint8 // 0-3, packed bits 1-2 of the control nibble
	ctrlFast bool

	protoState uint8 // 0=idle, 1=got 0xC0, 2=got hi nibble, 3=dispatched
	protoHi    uint8

	active      bool
	isNoise     bool
	forceLoop   bool
	forceNoLoop bool
	command8    uint8

	steps           [MaxSteps]step
	stepCount       int
	curStep         int
	stepSamplesLeft int

	curFreq  float64
	phaseAcc uint32
	phaseInc uint32

	lfsr uint16

	seg1Vol, seg2Vol, curVol float64
	segment                  int

	segSamplesTotal, segSamplesLeft int

	chainCmd uint8
}

// NewEngine returns a freshly power-on-reset engine: a non-zero LFSR seed
// and the default segment volumes.
func NewEngine() *Engine {
	e := &Engine{}
	e.hardReset()
	return e
}

func (e *Engine) hardReset() {
	// Field by field, so the embedded mutex (possibly held by the caller)
	// is left alone.
	e.ctrlLoop, e.ctrlVol, e.ctrlFast = false, 0, false
	e.protoState, e.protoHi = 0, 0
	e.active, e.isNoise, e.forceLoop, e.forceNoLoop = false, false, false, false
	e.command8, e.chainCmd = 0, 0
	e.steps, e.stepCount, e.curStep, e.stepSamplesLeft = [MaxSteps]step{}, 0, 0, 0
	e.curFreq, e.phaseAcc, e.phaseInc, e.lfsr = 0, 0, 0, 0x7FFF
	e.seg1Vol, e.seg2Vol, e.curVol, e.segment = 1.0, 0.5, 0, 0
	e.segSamplesTotal, e.segSamplesLeft = 0, 0
}

// SoftReset reinitializes playback state while preserving the control
// register, since it lives in the COP411L's own RAM rather than the main
// CPU's. Callers must hold the lock spanning this call and any CPU-side
// reset they're performing alongside it.
func (e *Engine) SoftReset() {
	loop, vol, fast := e.ctrlLoop, e.ctrlVol, e.ctrlFast
	e.hardReset()
	e.ctrlLoop, e.ctrlVol, e.ctrlFast = loop, vol, fast
	e.updateCtrlVolume()
}

// HandleP2 drives the two-nibble command handshake observed on P2: a write
// of 0xC0 while idle resets the protocol, the next write supplies the
// command's high nibble, and the write after that supplies either the low
// nibble (dispatching the command immediately) or 0x00 (dispatching with a
// zero low nibble). A trailing 0x00 returns to idle.
func (e *Engine) HandleP2(val uint8) {
	e.Lock()
	defer e.Unlock()

	switch e.protoState {
	case 0:
		if val == 0xC0 {
			e.protoState = 1
			e.protoHi = 0
		}
	case 1:
		e.protoHi = (val >> 4) & 0x0F
		e.protoState = 2
	case 2:
		if val == 0x00 {
			e.dispatch(e.protoHi << 4)
			e.protoState = 0
		} else {
			lo := (val >> 4) & 0x0F
			e.dispatch((e.protoHi << 4) | lo)
			e.protoState = 3
		}
	case 3:
		if val == 0x00 {
			e.protoState = 0
		}
	}
}

// dispatch decodes a reconstructed command byte (hi nibble = command,
// lo nibble = data) and starts the matching behavior. Caller holds the lock.
func (e *Engine) dispatch(cmdByte uint8) {
	cmd := (cmdByte >> 4) & 0x0F
	data := cmdByte & 0x0F

	switch {
	case cmd == 0x00:
		e.ctrlFast = data&0x01 != 0
		e.ctrlVol = (data >> 1) & 0x03
		e.ctrlLoop = (data>>3)&0x01 != 0
		e.updateCtrlVolume()
		e.active = false
	case cmd == 0x0E || cmd == 0x0F:
		e.startTone(data)
	case cmd >= 0x01 && cmd <= 0x0D:
		e.buildEffect(cmd)
	}
}

// updateCtrlVolume maps the control register's volume-pair bits to the
// segment volumes used by pure tones.
func (e *Engine) updateCtrlVolume() {
	switch e.ctrlVol {
	case 0:
		e.seg1Vol, e.seg2Vol = 0.4, 0.4
	case 1:
		e.seg1Vol, e.seg2Vol = 1.0, 0.4
	default:
		e.seg1Vol, e.seg2Vol = 1.0, 1.0
	}
}

func (e *Engine) speed() float64 {
	if e.ctrlFast {
		return 0.5
	}
	return 1.0
}

// buildEffect constructs the step table for commands 0x01-0x0D. Each case's
// frequencies, counts, and durations are taken verbatim from the documented
// behavior; commands 0x0A-0x0D have no documented script and fall back to a
// single brief pitch blip.
func (e *Engine) buildEffect(cmd uint8) {
	e.command8 = cmd
	e.active = true
	e.curStep = 0
	e.stepCount = 0
	e.chainCmd = 0
	e.forceLoop = false
	e.forceNoLoop = false
	e.segment = 0
	e.phaseAcc = 0

	spd := e.speed()

	switch cmd {
	case 0x01:
		e.forceLoop = true
		e.stepCount = 1
		e.steps[0] = step{800.0, true, int(200 * spd), 0.8}
	case 0x02:
		const n = 8
		e.stepCount = n
		for i := 0; i < n; i++ {
			f := 1200.0 - float64(i)*(900.0/n)
			e.steps[i] = step{f, false, int(25 * spd), 1.0 - float64(i)*0.08}
		}
	case 0x03:
		e.stepCount = 5
		pitches := [5]float64{1000.0, 800.0, 600.0, 400.0, 250.0}
		for i, f := range pitches {
			e.steps[i] = step{f, true, int(60 * spd), 1.0 - float64(i)*0.12}
		}
		if e.ctrlLoop {
			e.chainCmd = 0x02
		}
	case 0x04:
		const n = 8
		e.stepCount = n
		for i := 0; i < n; i++ {
			f := 300.0 + float64(i)*(900.0/n)
			e.steps[i] = step{f, false, int(30 * spd), 0.7 + float64(i)*0.04}
		}
	case 0x05:
		const n = 10
		e.stepCount = n
		for i := 0; i < n; i++ {
			f := 200.0 + float64(i)*(600.0/n)
			dur := int(float64(40+i*8) * spd)
			e.steps[i] = step{f, true, dur, 0.6 + float64(i)*0.04}
		}
		e.forceLoop = e.ctrlLoop
	case 0x06:
		e.forceNoLoop = true
		const n = 12
		e.stepCount = n
		for i := 0; i < n; i++ {
			f := 1200.0 - float64(i)*(900.0/n)
			dur := int(float64(30+i*10) * spd)
			e.steps[i] = step{f, true, dur, 1.0 - float64(i)*0.06}
		}
	case 0x07:
		const n = 6
		e.stepCount = n
		for i := 0; i < n; i++ {
			f := 800.0 - float64(i)*(500.0/n)
			e.steps[i] = step{f, false, int(30 * spd), 0.9 - float64(i)*0.1}
		}
	case 0x08:
		const n = 6
		e.stepCount = n
		for i := 0; i < n; i++ {
			f := 400.0 + float64(i)*(800.0/n)
			e.steps[i] = step{f, false, int(12 * spd), 0.8}
		}
	case 0x09:
		const n = 8
		e.stepCount = n
		for i := 0; i < n; i++ {
			f := 300.0 + float64(i)*(600.0/n)
			e.steps[i] = step{f, false, int(18 * spd), 0.85}
		}
	case 0x0A, 0x0B, 0x0C, 0x0D:
		e.stepCount = 1
		f := 300.0 + float64(cmd-0x0A)*100.0
		e.steps[0] = step{f, false, int(50 * spd), 0.5}
	default:
		e.active = false
		return
	}

	if e.stepCount > 0 {
		s := e.steps[0]
		e.loadStep(s)
	}
}

func (e *Engine) loadStep(s step) {
	e.curFreq = s.freqHz
	e.isNoise = s.noise
	e.curVol = s.volume
	e.phaseInc = freqToPhaseInc(s.freqHz)
	e.stepSamplesLeft = s.durMS * AudioRate / 1000
	if e.stepSamplesLeft < 1 {
		e.stepSamplesLeft = 1
	}
}

// startTone begins a pure-tone command (0xE/0xF), whose two-segment
// playback durations depend on ctrlFast.
func (e *Engine) startTone(note uint8) {
	e.active = true
	e.isNoise = false
	e.command8 = 0x0E
	e.curStep = 0
	e.stepCount = 0
	e.chainCmd = 0
	e.forceLoop = false
	e.forceNoLoop = false

	freq := noteFrequency[note&0x0F]
	e.curFreq = freq
	e.phaseInc = freqToPhaseInc(freq)

	e.segment = 0
	e.updateCtrlVolume()
	e.curVol = e.seg1Vol

	fastIdx := 0
	if e.ctrlFast {
		fastIdx = 1
	}
	e.segSamplesTotal = toneSegment1MS[fastIdx] * AudioRate / 1000
	e.segSamplesLeft = e.segSamplesTotal
}

// freqToPhaseInc converts a frequency to a 32-bit phase-accumulator step.
func freqToPhaseInc(freq float64) uint32 {
	if freq <= 0 {
		return 0
	}
	return uint32(freq / AudioRate * 4294967296.0)
}

// lfsrClock advances the 15-bit noise LFSR (taps at bits 0 and 1) and
// returns its new low bit.
func (e *Engine) lfsrClock() uint16 {
	bit := (e.lfsr ^ (e.lfsr >> 1)) & 1
	e.lfsr = (e.lfsr >> 1) | (bit << 14)
	return e.lfsr & 1
}

// sample synthesizes exactly one audio sample in [-1, 1], advancing every
// piece of playback state (step sequencer or tone segment). Caller must
// hold the lock.
func (e *Engine) sample() float64 {
	if !e.active {
		return 0
	}

	var out float64
	if e.isNoise {
		prev := e.phaseAcc
		e.phaseAcc += e.phaseInc
		if e.phaseAcc < prev {
			e.lfsrClock()
		}
		if e.lfsr&1 != 0 {
			out = 1.0
		} else {
			out = -1.0
		}
	} else {
		e.phaseAcc += e.phaseInc
		if e.phaseAcc&0x80000000 != 0 {
			out = 1.0
		} else {
			out = -1.0
		}
	}
	out *= e.curVol

	if e.stepCount > 0 {
		e.advanceSteps()
	} else {
		e.advanceTone()
	}

	return out
}

// Sample is the AudioSink entry point: it takes the engine's lock, advances
// playback by exactly one sample, and returns it scaled to int16 — the host
// audio subsystem calls this once per output sample, at its own cadence.
func (e *Engine) Sample() int16 {
	e.Lock()
	defer e.Unlock()
	v := e.sample()
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}

func (e *Engine) advanceSteps() {
	e.stepSamplesLeft--
	if e.stepSamplesLeft > 0 {
		return
	}
	e.curStep++
	if e.curStep >= e.stepCount {
		if e.chainCmd != 0 {
			e.buildEffect(e.chainCmd)
			return
		}
		shouldLoop := e.ctrlLoop
		if e.forceNoLoop {
			shouldLoop = false
		} else if e.forceLoop {
			shouldLoop = true
		}
		if !shouldLoop {
			e.active = false
			return
		}
		if e.command8 == 0x05 {
			e.curStep = e.stepCount - 1
		} else {
			e.curStep = 0
		}
	}
	if e.curStep < 0 || e.curStep >= MaxSteps {
		e.active = false
		return
	}
	e.loadStep(e.steps[e.curStep])
}

func (e *Engine) advanceTone() {
	e.segSamplesLeft--
	if e.segSamplesLeft > 0 {
		return
	}
	if e.segment == 0 {
		e.segment = 1
		e.curVol = e.seg2Vol
		fastIdx := 0
		if e.ctrlFast {
			fastIdx = 1
		}
		e.segSamplesLeft = toneSegment2MS[fastIdx] * AudioRate / 1000
		return
	}
	if e.ctrlLoop {
		e.segment = 0
		e.curVol = e.seg1Vol
		e.segSamplesLeft = e.segSamplesTotal
		return
	}
	e.active = false
}

// Active reports whether the engine is currently producing sound.
func (e *Engine) Active() bool { return e.active }

// StepState is the persisted form of one scripted-effect step.
type StepState struct {
	FreqHz float64
	Noise  bool
	DurMS  int
	Volume float64
}

// State is the full engine state the binary savestate format persists: the
// control register, the protocol handshake state, and the entire playback
// state (so a save made mid-effect resumes exactly where it left off, not
// silent).
type State struct {
	CtrlLoop, CtrlFast  bool
	CtrlVol             uint8
	ProtoState, ProtoHi uint8
	LFSR                uint16

	Active, IsNoise bool
	Command         uint8
	CurFreq, CurVol float64
	PhaseAcc        uint32
	PhaseInc        uint32

	CurStep, StepCount, StepSamplesLeft          int
	Segment, SegSamplesLeft, SegSamplesTotal     int
	Seg1Vol, Seg2Vol                             float64

	Steps [MaxSteps]StepState
}

// ExportState returns the full persisted engine state without exposing
// unexported engine internals to the savestate package.
func (e *Engine) ExportState() State {
	s := State{
		CtrlLoop: e.ctrlLoop, CtrlFast: e.ctrlFast, CtrlVol: e.ctrlVol,
		ProtoState: e.protoState, ProtoHi: e.protoHi,
		LFSR: e.lfsr,

		Active: e.active, IsNoise: e.isNoise, Command: e.command8,
		CurFreq: e.curFreq, CurVol: e.curVol,
		PhaseAcc: e.phaseAcc, PhaseInc: e.phaseInc,

		CurStep: e.curStep, StepCount: e.stepCount, StepSamplesLeft: e.stepSamplesLeft,
		Segment: e.segment, SegSamplesLeft: e.segSamplesLeft, SegSamplesTotal: e.segSamplesTotal,
		Seg1Vol: e.seg1Vol, Seg2Vol: e.seg2Vol,
	}
	for i, st := range e.steps {
		s.Steps[i] = StepState{FreqHz: st.freqHz, Noise: st.noise, DurMS: st.durMS, Volume: st.volume}
	}
	return s
}

// ImportState restores exported state, applying the same defensive range
// checks the engine would apply to state it built itself: an out-of-range
// cursor or sample count is clamped rather than trusted, since a savestate
// file is untrusted input.
func (e *Engine) ImportState(s State) {
	e.ctrlLoop, e.ctrlFast, e.ctrlVol = s.CtrlLoop, s.CtrlFast, s.CtrlVol&0x03
	if s.ProtoState > 3 {
		s.ProtoState = 0
	}
	e.protoState, e.protoHi = s.ProtoState, s.ProtoHi&0x0F

	if s.LFSR == 0 {
		logger.Log(logger.Allow, "sound", "savestate lfsr was zero, correcting to power-on seed")
		s.LFSR = 0x7FFF
	}
	e.lfsr = s.LFSR

	e.active, e.isNoise, e.command8 = s.Active, s.IsNoise, s.Command
	e.curFreq = sanitizeNonNegative(s.CurFreq, 0)
	e.curVol = sanitizeVolume(s.CurVol)
	e.phaseAcc, e.phaseInc = s.PhaseAcc, s.PhaseInc

	e.stepCount = s.StepCount
	if e.stepCount < 0 || e.stepCount > MaxSteps {
		e.stepCount = 0
	}
	e.curStep = s.CurStep
	if e.curStep < 0 || e.curStep >= e.stepCount {
		e.curStep = 0
	}
	e.segment = s.Segment
	if e.segment < 0 || e.segment > 1 {
		e.segment = 0
	}
	e.stepSamplesLeft = max0(s.StepSamplesLeft)
	e.segSamplesLeft = max0(s.SegSamplesLeft)
	e.segSamplesTotal = max0(s.SegSamplesTotal)

	e.seg1Vol = sanitizeFinite(s.Seg1Vol, 1.0)
	e.seg2Vol = sanitizeFinite(s.Seg2Vol, 0.5)
	e.chainCmd = 0

	for i, st := range s.Steps {
		dur := st.DurMS
		if dur < 0 {
			dur = 1
		}
		e.steps[i] = step{
			freqHz: sanitizeNonNegative(st.FreqHz, 0),
			noise:  st.Noise,
			durMS:  dur,
			volume: sanitizeVolume(st.Volume),
		}
	}

	e.updateCtrlVolume()
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// sanitizeFinite replaces a NaN or infinite value with def.
func sanitizeFinite(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// sanitizeNonNegative replaces a NaN, infinite, or negative value with def.
func sanitizeNonNegative(v, def float64) float64 {
	v = sanitizeFinite(v, def)
	if v < 0 {
		return def
	}
	return v
}

// sanitizeVolume clamps a loaded relative-volume value to the range the
// engine's mixing math expects, rejecting NaN/Inf and the occasional
// corrupt save that stores a wildly out-of-range gain.
func sanitizeVolume(v float64) float64 {
	v = sanitizeNonNegative(v, 0)
	if v > 2.0 {
		return 1.0
	}
	return v
}
