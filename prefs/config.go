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

package prefs

import (
	"github.com/pandamystique/advision/advierrors"
	"github.com/pandamystique/advision/logger"
)

// Default T1 pulse window. start < end must always hold.
const (
	DefaultT1PulseStart = 200
	DefaultT1PulseEnd   = 400
	DefaultPhosphor     = 0.45
	DefaultGamma        = 1.0
)

// Audio profile identifiers.
const (
	AudioRaw = iota
	AudioSpeaker
	AudioHeadphone
)

// Config holds every advision.ini key recognized by the emulator.
type Config struct {
	Volume       *Int
	Fullscreen   *Bool
	Scale        *Int
	AudioProfile *Int
	Gamma        *Float
	Phosphor     *Float
	Scanlines    *Bool
	IntegerScale *Bool
	T1PulseStart *Int
	T1PulseEnd   *Int

	disk *Disk
}

// NewConfig declares every key at its documented default and range and
// binds them to path (typically "advision.ini").
func NewConfig(path string) *Config {
	c := &Config{
		Volume:       NewInt("volume", 7, 0, 10),
		Fullscreen:   NewBool("fullscreen", false),
		Scale:        NewInt("scale", 0, 0, 10),
		AudioProfile: NewInt("audio_profile", AudioSpeaker, AudioRaw, AudioHeadphone),
		Gamma:        NewFloat("gamma", DefaultGamma, 0.2, 3.0),
		Phosphor:     NewFloat("phosphor", DefaultPhosphor, 0.0, 1.0),
		Scanlines:    NewBool("scanlines", false),
		IntegerScale: NewBool("integer_scale", true),
		T1PulseStart: NewInt("t1_pulse_start", DefaultT1PulseStart, 0, 999),
		T1PulseEnd:   NewInt("t1_pulse_end", DefaultT1PulseEnd, 0, 1999),
	}
	c.disk = NewDisk(path, "advision")
	c.disk.Add(c.Volume)
	c.disk.Add(c.Fullscreen)
	c.disk.Add(c.Scale)
	c.disk.Add(c.AudioProfile)
	c.disk.Add(c.Gamma)
	c.disk.Add(c.Phosphor)
	c.disk.Add(c.Scanlines)
	c.disk.Add(c.IntegerScale)
	c.disk.Add(c.T1PulseStart)
	c.disk.Add(c.T1PulseEnd)
	return c
}

// Load reads the configuration file (if present) and validates the T1 pulse
// window: an inverted window reverts both values to their defaults. This
// check happens after the per-key range checks in Disk.Load, since
// each key is independently in-range but the pair may still be inverted.
func (c *Config) Load() error {
	if err := c.disk.Load(); err != nil {
		return err
	}
	if c.T1PulseStart.Get() >= c.T1PulseEnd.Get() {
		logger.Log(logger.Allow, "prefs", advierrors.Errorf(advierrors.ConfigT1Window))
		c.T1PulseStart.Set(DefaultT1PulseStart)
		c.T1PulseEnd.Set(DefaultT1PulseEnd)
	}
	return nil
}

// Save writes the current configuration back to disk.
func (c *Config) Save() error { return c.disk.Save() }
