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
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/pandamystique/advision/hardware/system"
)

// SampleRate is the fixed output rate the sound engine synthesizes at, and
// therefore the only rate a capture file is ever written at.
const SampleRate = 44100

// WriteSeekCloser is what the WAV encoder needs of its destination: the
// format chunk's sizes are backpatched on Close, which requires seeking, so
// a plain io.WriteCloser (e.g. a network socket) will not do — callers
// typically pass an *os.File.
type WriteSeekCloser interface {
	io.WriteSeeker
	io.Closer
}

// Writer records a running WAV capture of the sound engine's output. Push
// is called from the audio callback thread; Flush is called periodically
// (once per video frame is enough) from the frame-stepping thread to drain
// the ring into the encoder.
type Writer struct {
	ring ring
	enc  *wav.Encoder
	wsc  WriteSeekCloser

	flushBuf []int16
	samples  uint32
}

// NewWriter opens a mono 16-bit PCM WAV encoder over wsc. The caller owns
// wsc's lifetime up to Close, which finalizes the WAV header and closes it.
func NewWriter(wsc WriteSeekCloser) *Writer {
	return &Writer{
		enc:      wav.NewEncoder(wsc, SampleRate, 16, 1, 1),
		wsc:      wsc,
		flushBuf: make([]int16, ringSize),
	}
}

// Push enqueues one sample produced by the audio callback. Never blocks.
func (w *Writer) Push(sample int16) {
	w.ring.push(sample)
}

// Flush drains every sample enqueued since the last Flush and writes it to
// the WAV encoder.
func (w *Writer) Flush() error {
	n := w.ring.drain(w.flushBuf)
	if n == 0 {
		return nil
	}

	data := make([]int, n)
	for i := 0; i < n; i++ {
		data[i] = int(w.flushBuf[i])
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := w.enc.Write(buf); err != nil {
		return err
	}
	w.samples += uint32(n)
	return nil
}

// Samples returns the total number of samples written so far.
func (w *Writer) Samples() uint32 { return w.samples }

// Close flushes any remaining buffered samples, finalizes the WAV header,
// and closes the underlying writer.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if err := w.enc.Close(); err != nil {
		return err
	}
	return w.wsc.Close()
}

// Drain pulls samples directly from an AudioSink (the sound engine) and
// feeds them to Push — a convenience for callers that want capture driven
// from the same place audio playback is pulled, rather than tapped off a
// separate callback.
func Drain(sink system.AudioSink, n int, w *Writer) {
	for i := 0; i < n; i++ {
		w.Push(sink.Sample())
	}
}
