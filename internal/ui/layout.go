package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which only the focused pane
	// is shown.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show the reservations pane
	// beside the chat at full size.
	LayoutWideWidth = 150
)

// Toast limits.
const (
	maxToasts     = 4
	toastTTL      = 5 * time.Second
	errorToastTTL = 8 * time.Second
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = 500 * time.Millisecond

	// typingIdle is how long after the last keystroke the typing indicator
	// is cleared.
	typingIdle = 3 * time.Second
)
