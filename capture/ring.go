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

// Package capture implements WAV recording of the sound engine's output: a
// lock-free single-producer/single-consumer ring decouples the audio
// callback thread (producer) from the disk-writing thread (consumer), the
// same separation this codebase draws between its real-time audio path and
// everything that merely observes it.
package capture

import "sync/atomic"

// ringSize must be a power of two; 8192 samples is about 186
// milliseconds of headroom at 44.1 kHz, enough to absorb one disk-flush
// interval without the producer ever blocking.
const ringSize = 8192

// ring is a fixed-capacity SPSC ring buffer of int16 samples. The producer
// calls push, the consumer calls drain; neither ever blocks the other.
type ring struct {
	buf [ringSize]int16
	wr  atomic.Uint32 // written only by the producer
	rd  uint32        // written only by the consumer
}

// push appends one sample, overwriting the oldest unread sample if the
// consumer has fallen behind by a full buffer's worth — recording audio
// must never stall frame stepping.
func (r *ring) push(v int16) {
	w := r.wr.Load()
	r.buf[w&(ringSize-1)] = v
	r.wr.Store(w + 1)
}

// drain copies every sample the producer has written since the last drain
// into out, returning how many were copied.
func (r *ring) drain(out []int16) int {
	w := r.wr.Load()
	n := 0
	for r.rd != w && n < len(out) {
		out[n] = r.buf[r.rd&(ringSize-1)]
		r.rd++
		n++
	}
	return n
}
