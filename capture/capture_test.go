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

package capture

import (
	"errors"
	"testing"
)

// memWriteSeekCloser is a minimal in-memory WriteSeekCloser for tests — a
// WAV encoder backpatches chunk sizes, so a plain bytes.Buffer (no Seek)
// will not serve.
type memWriteSeekCloser struct {
	data   []byte
	pos    int64
	closed bool
}

func (m *memWriteSeekCloser) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeekCloser) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case 0:
		base = 0
	case 1:
		base = m.pos
	case 2:
		base = int64(len(m.data))
	default:
		return 0, errors.New("invalid whence")
	}
	m.pos = base + offset
	return m.pos, nil
}

func (m *memWriteSeekCloser) Close() error {
	m.closed = true
	return nil
}

func (m *memWriteSeekCloser) Len() int { return len(m.data) }

func TestPushAndFlushWritesSamples(t *testing.T) {
	buf := &memWriteSeekCloser{}
	w := NewWriter(buf)

	for i := 0; i < 100; i++ {
		w.Push(int16(i * 10))
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if w.Samples() != 100 {
		t.Fatalf("Samples() = %d, want 100", w.Samples())
	}
}

func TestFlushWithNothingPendingIsNoop(t *testing.T) {
	buf := &memWriteSeekCloser{}
	w := NewWriter(buf)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush on empty ring: %v", err)
	}
	if w.Samples() != 0 {
		t.Fatalf("Samples() = %d, want 0", w.Samples())
	}
}

func TestCloseFlushesAndClosesUnderlyingWriter(t *testing.T) {
	buf := &memWriteSeekCloser{}
	w := NewWriter(buf)
	w.Push(42)
	w.Push(-42)

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !buf.closed {
		t.Fatal("underlying writer not closed")
	}
	if w.Samples() != 2 {
		t.Fatalf("Samples() = %d, want 2", w.Samples())
	}
	if buf.Len() == 0 {
		t.Fatal("expected WAV header/data to be written")
	}
}

func TestRingDropsOldestWhenConsumerFallsBehind(t *testing.T) {
	var r ring
	for i := 0; i < ringSize+10; i++ {
		r.push(int16(i))
	}
	out := make([]int16, ringSize)
	n := r.drain(out)
	if n != ringSize {
		t.Fatalf("drain() = %d, want %d", n, ringSize)
	}
	if out[0] != ringSize {
		t.Fatalf("out[0] = %d, want %d (slot 0 last overwritten by push index ringSize)", out[0], ringSize)
	}
}

func TestDrainPullsFromAudioSink(t *testing.T) {
	buf := &memWriteSeekCloser{}
	w := NewWriter(buf)
	Drain(constSink(7), 5, w)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if w.Samples() != 5 {
		t.Fatalf("Samples() = %d, want 5", w.Samples())
	}
}

type constSink int16

func (c constSink) Sample() int16 { return int16(c) }
