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

// Package prefs implements the advision.ini configuration file: a flat set
// of recognized `key=value` lines, each with a valid range. An out-of-range
// or unparsable value is silently replaced by the value's default and
// reported to the logger rather than rejecting the whole file. Named and
// shaped after the Disk/Bool/Int preference pattern used elsewhere in this
// codebase's GUI preference files.
package prefs

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pandamystique/advision/logger"
)

// Value is a single named, range-checked preference.
type Value interface {
	// key returns the advision.ini key this value is stored under.
	key() string
	// parse attempts to apply raw to the value; it returns false (and
	// changes nothing) if raw is malformed or out of range.
	parse(raw string) bool
	// format renders the current value back to an advision.ini line body.
	format() string
}

// Bool is a 0/1 preference.
type Bool struct {
	k   string
	val bool
	def bool
}

// NewBool declares a boolean preference with the given default.
func NewBool(key string, def bool) *Bool {
	return &Bool{k: key, val: def, def: def}
}

// Get returns the current value.
func (b *Bool) Get() bool { return b.val }

// Set assigns v directly, bypassing file parsing.
func (b *Bool) Set(v bool) { b.val = v }

// SetDefault reverts to the declared default.
func (b *Bool) SetDefault() { b.val = b.def }

func (b *Bool) key() string { return b.k }
func (b *Bool) format() string {
	if b.val {
		return "1"
	}
	return "0"
}
func (b *Bool) parse(raw string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	b.val = n != 0
	return true
}

// Int is a bounded integer preference.
type Int struct {
	k        string
	val      int
	def      int
	min, max int
}

// NewInt declares an integer preference with an inclusive [min,max] range.
func NewInt(key string, def, min, max int) *Int {
	return &Int{k: key, val: def, def: def, min: min, max: max}
}

// Get returns the current value.
func (i *Int) Get() int { return i.val }

// Set assigns v directly if it is within range.
func (i *Int) Set(v int) bool {
	if v < i.min || v > i.max {
		return false
	}
	i.val = v
	return true
}

// SetDefault reverts to the declared default.
func (i *Int) SetDefault() { i.val = i.def }

func (i *Int) key() string     { return i.k }
func (i *Int) format() string  { return strconv.Itoa(i.val) }
func (i *Int) parse(raw string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < i.min || n > i.max {
		return false
	}
	i.val = n
	return true
}

// Float is a bounded float preference.
type Float struct {
	k        string
	val      float64
	def      float64
	min, max float64
}

// NewFloat declares a float preference with an inclusive [min,max] range.
func NewFloat(key string, def, min, max float64) *Float {
	return &Float{k: key, val: def, def: def, min: min, max: max}
}

// Get returns the current value.
func (f *Float) Get() float64 { return f.val }

// Set assigns v directly if it is within range and finite.
func (f *Float) Set(v float64) bool {
	if v < f.min || v > f.max || !isFinite(v) {
		return false
	}
	f.val = v
	return true
}

// SetDefault reverts to the declared default.
func (f *Float) SetDefault() { f.val = f.def }

func (f *Float) key() string    { return f.k }
func (f *Float) format() string { return strconv.FormatFloat(f.val, 'f', 2, 64) }
func (f *Float) parse(raw string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < f.min || v > f.max || !isFinite(v) {
		return false
	}
	f.val = v
	return true
}

func isFinite(v float64) bool {
	return v == v && v > -1e308 && v < 1e308
}

// Disk is a flat file of key=value preferences.
type Disk struct {
	path    string
	section string
	values  []Value
}

// NewDisk is the preferred method of initialisation for the Disk type.
// section is written as a `[section]` header on Save (cosmetic only: Load
// ignores section headers and comments).
func NewDisk(path, section string) *Disk {
	return &Disk{path: path, section: section}
}

// Add registers v to be loaded/saved under its own key. Re-adding the same
// key replaces the prior registration.
func (d *Disk) Add(v Value) {
	for i, existing := range d.values {
		if existing.key() == v.key() {
			d.values[i] = v
			return
		}
	}
	d.values = append(d.values, v)
}

// Load reads d.path and applies every recognized key to its matching Value.
// A missing file is not an error (defaults stand). An out-of-range or
// unparsable value is logged and the Value's existing (default) setting is
// kept untouched.
func (d *Disk) Load() error {
	f, err := os.Open(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	byKey := make(map[string]Value, len(d.values))
	for _, v := range d.values {
		byKey[v.key()] = v
	}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[") {
			continue
		}
		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		v, ok := byKey[key]
		if !ok {
			continue
		}
		if !v.parse(kv[1]) {
			logger.Logf(logger.Allow, "prefs", "ignoring out-of-range value for %q: %q", key, kv[1])
		}
	}
	return sc.Err()
}

// Save writes every registered value to d.path as advision.ini.
func (d *Disk) Save() error {
	f, err := os.Create(d.path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if d.section != "" {
		fmt.Fprintf(w, "[%s]\n", d.section)
	}
	for _, v := range d.values {
		fmt.Fprintf(w, "%s=%s\n", v.key(), v.format())
	}
	return w.Flush()
}

// String renders the current in-memory values, one per line.
func (d *Disk) String() string {
	var b strings.Builder
	for _, v := range d.values {
		fmt.Fprintf(&b, "%s=%s\n", v.key(), v.format())
	}
	return b.String()
}
