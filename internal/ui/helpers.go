package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/five82/frontdesk/internal/realtime"
)

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}

// truncate shortens a string to the given limit, adding ellipsis if needed.
// Newlines are folded so chat previews stay on one row.
func truncate(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// padRight pads value with spaces to width runes, truncating when longer.
func padRight(value string, width int) string {
	value = truncate(value, width)
	if n := len([]rune(value)); n < width {
		return value + strings.Repeat(" ", width-n)
	}
	return value
}

// classifyConnectionError turns a dial error into a short header label.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, realtime.ErrNotConnected) {
		return "DISCONNECTED"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	case strings.Contains(msg, "status code"), strings.Contains(msg, "handshake"):
		return "REJECTED"
	default:
		return "ERROR"
	}
}

func ternary(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
