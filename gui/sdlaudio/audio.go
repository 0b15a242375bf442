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

// Package sdlaudio outputs the sound engine's synthesized samples using
// SDL's queued audio device: Feed is called once per video frame with the
// number of samples that frame represents, pulls that many samples from
// the sink, and queues them for playback — a queue-and-measure discipline
// simplified here for a single mono channel and a sink that is pulled
// rather than pushed to.
package sdlaudio

import (
	"fmt"
	"math"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/pandamystique/advision/logger"
)

// SampleRate is the fixed rate the sound engine synthesizes at.
const SampleRate = 44100

// Audio profile identifiers, matching advision.ini's audio_profile key.
const (
	ProfileRaw = iota
	ProfileSpeaker
	ProfileHeadphone
)

// profileCutoffHz is the single-pole lowpass cutoff frequency for each
// profile; ProfileRaw is unfiltered.
var profileCutoffHz = map[int]float64{
	ProfileSpeaker:   4000,
	ProfileHeadphone: 8000,
}

// Sink is anything that can be pulled for one int16 sample at a time —
// satisfied by *hardware/sound.Engine.
type Sink interface {
	Sample() int16
}

const (
	rateDrop  = 16384 // bytes queued before we start dropping instead of queueing
	rateReset = 32768 // bytes queued before we flush the queue outright
)

// Audio outputs sound using SDL's queued audio device.
type Audio struct {
	id   sdl.AudioDeviceID
	spec sdl.AudioSpec

	sink  Sink
	muted bool
	gain  float64
	buf   []byte

	profile  int
	lpAlpha  float64
	lpState  float64
	softClip bool

	QueuedBytes int
}

// SetProfile selects the output-shaping profile: ProfileRaw passes samples
// through unmodified, ProfileSpeaker applies a single-pole ~4kHz lowpass
// plus a soft clip (approximating a small cone's physical response and its
// amplifier's limiter), and ProfileHeadphone applies only a gentler ~8kHz
// lowpass.
func (aud *Audio) SetProfile(profile int) {
	aud.profile = profile
	aud.softClip = profile == ProfileSpeaker
	cutoff, filtered := profileCutoffHz[profile]
	if !filtered {
		aud.lpAlpha = 0
		return
	}
	// RC lowpass: alpha = dt / (RC + dt), RC = 1/(2*pi*cutoff).
	dt := 1.0 / float64(SampleRate)
	rc := 1.0 / (2 * math.Pi * cutoff)
	aud.lpAlpha = dt / (rc + dt)
}

// NewAudio opens an SDL audio device for mono, 16-bit signed, SampleRate Hz
// playback, matching the sound engine's fixed output format, and pulls
// samples from sink as Feed is called.
func NewAudio(sink Sink) (*Audio, error) {
	aud := &Audio{sink: sink, gain: 1}

	request := &sdl.AudioSpec{
		Freq:     SampleRate,
		Format:   sdl.AUDIO_S16SYS,
		Channels: 1,
		Samples:  1024,
	}

	var actual sdl.AudioSpec
	id, err := sdl.OpenAudioDevice("", false, request, &actual, 0)
	if err != nil {
		return nil, fmt.Errorf("sdlaudio: %w", err)
	}
	aud.id = id
	aud.spec = actual

	logger.Logf(logger.Allow, "sdlaudio", "id: %d", aud.id)
	logger.Logf(logger.Allow, "sdlaudio", "frequency: %d", aud.spec.Freq)
	logger.Logf(logger.Allow, "sdlaudio", "format: %d", aud.spec.Format)

	sdl.PauseAudioDevice(aud.id, false)
	return aud, nil
}

// Feed pulls n samples from the sink and queues them for playback. A queue
// grown past rateReset is flushed outright, and feeding is skipped entirely
// (rather than queued) past rateDrop, since at 44.1kHz a dropped frame's
// worth of samples is inaudible but an ever-growing queue is not.
func (aud *Audio) Feed(n int) error {
	if aud.id == 0 {
		return nil
	}

	queued := int(sdl.GetQueuedAudioSize(aud.id))
	aud.QueuedBytes = queued

	if queued > rateReset {
		logger.Logf(logger.Allow, "sdlaudio", "flushed audio queue: %d bytes", queued)
		sdl.ClearQueuedAudio(aud.id)
	} else if queued > rateDrop {
		return nil
	}

	aud.fill(n)

	if err := sdl.QueueAudio(aud.id, aud.buf); err != nil {
		return fmt.Errorf("sdlaudio: %w", err)
	}
	return nil
}

// fill pulls n samples from the sink (or silence, if muted or sinkless)
// into aud.buf as little-endian 16-bit frames, growing the buffer as
// needed. Split out from Feed so the byte-packing logic can be tested
// without an open SDL audio device.
func (aud *Audio) fill(n int) {
	if cap(aud.buf) < n*2 {
		aud.buf = make([]byte, n*2)
	}
	aud.buf = aud.buf[:n*2]

	for i := 0; i < n; i++ {
		var v int16
		if !aud.muted && aud.sink != nil {
			v = aud.sink.Sample()
			v = aud.shape(v)
			if aud.gain < 1 {
				v = int16(float64(v) * aud.gain)
			}
		}
		aud.buf[i*2] = byte(v)
		aud.buf[i*2+1] = byte(v >> 8)
	}
}

// shape applies the active output profile's lowpass filter and (for the
// speaker profile) soft clip to one raw sample. ProfileRaw passes v through
// byte-for-byte, with no float round-trip.
func (aud *Audio) shape(v int16) int16 {
	if aud.profile == ProfileRaw {
		return v
	}

	f := float64(v) / 32768.0

	if aud.lpAlpha > 0 {
		aud.lpState += aud.lpAlpha * (f - aud.lpState)
		f = aud.lpState
	}
	if aud.softClip {
		f = softClip(f)
	}

	if f > 1 {
		f = 1
	} else if f < -1 {
		f = -1
	}
	return int16(f * 32767)
}

// softClip applies a tanh-shaped soft limiter, rounding off peaks instead
// of the hard digital clipping a small driven speaker amplifier avoids.
func softClip(f float64) float64 {
	return math.Tanh(f * 1.6)
}

// Mute silences output without closing the device or draining the sink.
func (aud *Audio) Mute(muted bool) { aud.muted = muted }

// SetVolume scales every sample by level/10, advision.ini's volume key range.
// level is clamped to 0-10; 0 attenuates to silence without engaging Mute.
func (aud *Audio) SetVolume(level int) {
	if level < 0 {
		level = 0
	} else if level > 10 {
		level = 10
	}
	aud.gain = float64(level) / 10
}

// Reset clears any queued audio.
func (aud *Audio) Reset() {
	if aud.id == 0 {
		return
	}
	sdl.ClearQueuedAudio(aud.id)
}

// Close stops and releases the audio device.
func (aud *Audio) Close() error {
	if aud.id == 0 {
		return nil
	}
	sdl.CloseAudioDevice(aud.id)
	aud.id = 0
	return nil
}
