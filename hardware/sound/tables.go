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

package sound

// AudioRate is the sample rate the engine synthesizes at.
const AudioRate = 44100

// MaxSteps bounds the step sequencer used by the multi-step effect commands
// (the longest documented effect, command 0x06, uses 12 steps).
const MaxSteps = 16

// noteFrequency holds the 16 hardware-measured COP411L pure-tone
// frequencies for commands 0xE/0xF, taken from the firmware's measured
// RC-clock output rather than equal temperament.
var noteFrequency = [16]float64{
	239.23, 253.03, 268.53, 286.04,
	302.48, 320.92, 337.38, 360.49,
	381.38, 404.85, 424.44, 453.72,
	478.46, 506.07, 537.05, 572.08,
}

// Tone segment durations in milliseconds, indexed by ctrlFast.
var toneSegment1MS = [2]int{117, 46} // [slow, fast]
var toneSegment2MS = [2]int{240, 104}
