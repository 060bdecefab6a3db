// Package ui provides the terminal front desk for frontdesk.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program over a realtime engine. It never touches
// the socket directly: it reads state snapshots on a tick, listens on the
// engine's notification bus and calls engine actions from commands so the
// update loop never blocks on the network.
//
// # Package Structure
//
//   - app.go: Model, Update loop, commands and the Run entry point
//   - view.go: pane layout and rendering of conversations, chat and reservations
//   - header.go: connection badge, counters and footer hints
//   - toast.go: transient notification and result messages
//   - viewmodel.go: pure helpers that shape state for display
//   - theme.go, style_helpers.go: Lipgloss palettes and styling helpers
//   - keys.go, help.go: key bindings and the help overlay
//
// # Panes
//
//   - Conversations: every customer with a chat or a reservation, newest first
//   - Chat: the transcript for the selected customer and the reply input
//   - Reservations: the selected customer's bookings, cancellable in place
//
// Below 100 columns only the focused pane is drawn.
//
// # Notifications
//
// Frames that pass the engine's notification gate become toasts. Frames
// the operator caused (Local) and everything while muted are dropped. Muting
// and the theme live in prefs.toml, which is watched and applied while the
// program runs.
//
// # Subscription
//
// New registers a subscriber with the engine so the socket is dialled while
// the UI is open; Close releases it and the engine disconnects after its
// grace period.
//
// # Usage Example
//
//	err := ui.Run(ui.Options{
//		Context:   ctx,
//		Engine:    engine,
//		Prefs:     p,
//		PrefsPath: prefsPath,
//		Logger:    logger,
//	})
package ui
