package ui

import "fmt"

// renderHeader renders the status bar: connection, counts and queue depth.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{bg.Render("frontdesk", styles.Logo)}
	parts = append(parts, m.connectionBadge(styles, bg))

	if m.width >= LayoutCompactWidth {
		active, cancelled := countReservations(m.snapshot.State.Reservations)
		parts = append(parts,
			bg.Render("Customers:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", len(m.rows)), styles.Text),
			bg.Render("Reservations:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", active), styles.Text)+
				bg.Render(ternary(cancelled > 0, fmt.Sprintf(" (+%d cancelled)", cancelled), ""), styles.FaintText),
		)
		if n := len(m.snapshot.Vacations); n > 0 {
			parts = append(parts, bg.Render(fmt.Sprintf("Vacations: %d", n), styles.InfoText))
		}
	}

	if m.engine != nil {
		if q := m.engine.QueueLen(); q > 0 {
			parts = append(parts, bg.Render(fmt.Sprintf("Queued: %d", q), styles.WarningText.Bold(true)))
		}
	}
	if m.muted {
		parts = append(parts, bg.Render("muted", styles.FaintText))
	}
	if !m.snapshot.LastUpdate.IsZero() && m.width >= LayoutWideWidth {
		since := humanizeDuration(m.now().Sub(m.snapshot.LastUpdate))
		parts = append(parts, bg.Render("updated "+since+ternary(since == "now", "", " ago"), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// connectionBadge shows LIVE, CONNECTING or the classified failure.
func (m Model) connectionBadge(styles Styles, bg BgStyle) string {
	snap := m.snapshot
	switch {
	case snap.IsConnected:
		return bg.Render("● LIVE", styles.SuccessText)
	case snap.IsOffline():
		label := classifyConnectionError(snap.LastError)
		if label == "" {
			label = "OFFLINE"
		}
		retry := "Retrying..."
		if !snap.LastErrorAt.IsZero() {
			retry = fmt.Sprintf("Retrying (%d failures, last %s)", snap.ConsecutiveFailures, snap.LastErrorAt.Format("15:04:05"))
		}
		return bg.Render("○ "+label, styles.DangerText) + bg.Spaces(2) + bg.Render(retry, styles.WarningText)
	default:
		return bg.Render("◌ Connecting...", styles.WarningText.Bold(true))
	}
}

// renderFooter renders the key hints for the current focus.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd
	switch {
	case m.composing:
		commands = []cmd{{"enter", "Send"}, {"esc", "Close"}}
	case m.focus == PaneReservations:
		commands = []cmd{{"j/k", "Move"}, {"x", "Cancel"}, {"R", "Reinstate"}, {"u", "Undo"}, {"U", "Undo toast"}, {"tab", "Pane"}, {"?", "More"}}
	case m.focus == PaneChat:
		commands = []cmd{{"i", "Write"}, {"j/k", "Scroll"}, {"pgup/pgdn", "Page"}, {"tab", "Pane"}, {"?", "More"}}
	default:
		commands = []cmd{{"j/k", "Move"}, {"i", "Write"}, {"r", "Refresh"}, {"u", "Undo"}, {"m", "Mute"}, {"tab", "Pane"}, {"?", "More"}}
	}

	parts := make([]string, 0, len(commands))
	for _, c := range commands {
		parts = append(parts, bg.Render(c.key, styles.AccentText)+bg.Space()+bg.Render(c.desc, styles.MutedText))
	}
	return styles.Footer.Width(m.width).Render(bg.Join(parts, "  "))
}
