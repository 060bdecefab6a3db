// Package logtail reads back the engine's JSON log for `frontdesk logs` and
// the TUI log pane.
//
// # Overview
//
// frontdesk owns the terminal while the TUI runs, so zerolog writes JSON
// lines to a file (~/.local/state/frontdesk/frontdesk.log by default). This
// package tails that file, parses each line into an Entry and renders it
// for humans.
//
// # Reading Log Files
//
// Read uses a ring buffer to extract the last maxLines from a file in one
// pass with O(maxLines) memory. A non-positive maxLines returns every line;
// a missing file is treated as empty, not an error.
//
//	lines, err := logtail.Read(cfg.EngineLogPath(), 400)
//
// # Ring Buffer Algorithm
//
//	1. Allocate ring buffer of size maxLines
//	2. For each line in file:
//	   - Store line at current index
//	   - Advance index (wrapping at maxLines)
//	3. Unroll the ring starting at the oldest line
//
// # Entries
//
// Parse understands the zerolog field names (time, level, message, error)
// plus the "component" field every frontdesk logger carries. Anything else
// lands in Fields. Lines that are not JSON, such as a panic trace, come back
// as a message-only entry so nothing is hidden.
//
// Filter drops entries below a level or from other components. Format and
// Colorize render one line each:
//
//	09:30:00 WRN [realtime] socket dropped error="EOF" attempt=2
//
// Colorize uses fatih/color and degrades to plain text when stdout is not a
// terminal or NO_COLOR is set.
package logtail
