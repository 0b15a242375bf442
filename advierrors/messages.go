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

package advierrors

// Curated message heads used across the core. Each takes the listed
// printf-style arguments via Errorf.
const (
	// FirmwareSize: args (int actual length). Firmware shorter than 1024
	// bytes is padded, not rejected.
	FirmwareSize = "advision: firmware image is %d bytes, expected 1024"

	// CartridgeOversize: args (int actual length). Cartridges larger than 4096
	// bytes are truncated, not rejected.
	CartridgeOversize = "advision: cartridge image is %d bytes, truncating to 4096"

	// SaveStateMagic: no args. The savestate's magic number did not match.
	SaveStateMagic = "advision: corrupt savestate (bad magic)"

	// SaveStateVersion: args (uint32 got, uint32 want).
	SaveStateVersion = "advision: savestate version mismatch (got %d, want %d)"

	// SaveStateTruncated: no args. The buffer ended before every field was read.
	SaveStateTruncated = "advision: corrupt savestate (truncated)"

	// ConfigT1Window: no args. t1_pulse_start >= t1_pulse_end.
	ConfigT1Window = "advision: t1_pulse_start >= t1_pulse_end, reverting to defaults"
)
