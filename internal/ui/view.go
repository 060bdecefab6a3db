package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/frontdesk/internal/protocol"
)

// renderMain renders header, panes, toast line and footer.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderPanes())
	b.WriteString("\n")
	b.WriteString(m.renderToasts())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// paneWidths returns the outer widths of the three columns. In compact
// mode only the focused pane gets space.
func (m Model) paneWidths() (conv, chat, res int) {
	if m.width < LayoutCompactWidth {
		switch m.focus {
		case PaneConversations:
			return m.width, 0, 0
		case PaneReservations:
			return 0, 0, m.width
		default:
			return 0, m.width, 0
		}
	}
	conv = m.width * 28 / 100
	res = m.width * 24 / 100
	if m.width >= LayoutWideWidth {
		res = m.width * 28 / 100
	}
	chat = m.width - conv - res
	return conv, chat, res
}

// paneHeight is the outer height of the pane row.
func (m Model) paneHeight() int {
	h := m.height - 3 // header, toast line, footer
	if h < 3 {
		h = 3
	}
	return h
}

// chatSize is the viewport size inside the chat pane: borders, a title
// line and the input line are reserved.
func (m Model) chatSize() (int, int) {
	_, chat, _ := m.paneWidths()
	if chat == 0 {
		chat = m.width
	}
	w := chat - 2
	h := m.paneHeight() - 4
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func (m Model) renderPanes() string {
	convW, chatW, resW := m.paneWidths()
	h := m.paneHeight()

	var cols []string
	if convW > 0 {
		cols = append(cols, m.pane(PaneConversations, convW, h, m.renderConversations(convW-2, h-2)))
	}
	if chatW > 0 {
		cols = append(cols, m.pane(PaneChat, chatW, h, m.renderChat()))
	}
	if resW > 0 {
		cols = append(cols, m.pane(PaneReservations, resW, h, m.renderReservations(resW-2, h-2)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// pane draws a bordered box, highlighted when focused.
func (m Model) pane(p Pane, width, height int, content string) string {
	styles := m.theme.Styles()
	style := styles.Pane
	if m.focus == p {
		style = styles.FocusedPane
	}
	return style.
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(content)
}

func (m Model) renderConversations(width, height int) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Conversations"))

	if len(m.rows) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("No conversations yet"))
		return b.String()
	}

	// Two lines per row; keep the selection in view.
	visible := (height - 1) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.selectedRow >= visible {
		start = m.selectedRow - visible + 1
	}
	end := min(len(m.rows), start+visible)

	for i := start; i < end; i++ {
		row := m.rows[i]
		name := row.Name
		if row.Upcoming > 0 {
			name = fmt.Sprintf("%s [%d]", name, row.Upcoming)
		}
		preview := row.LastMessage
		if preview != "" && !isCustomerRole(row.LastRole) {
			preview = "you: " + preview
		}
		line1 := padRight(name, width)
		line2 := padRight("  "+preview, width)

		b.WriteString("\n")
		if i == m.selectedRow {
			b.WriteString(styles.Selected.Render(line1))
			b.WriteString("\n")
			b.WriteString(styles.Selected.Render(line2))
			continue
		}
		b.WriteString(styles.Text.Render(line1))
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render(line2))
	}
	return b.String()
}

func (m Model) renderChat() string {
	styles := m.theme.Styles()
	title := "Chat"
	if m.selected != "" {
		title = "Chat with " + customerName(m.snapshot.State, m.selected)
	}

	var input string
	switch {
	case m.composing:
		input = m.input.View()
	case m.selected != "":
		input = styles.FaintText.Render("press i to reply")
	}
	return styles.AccentText.Bold(true).Render(title) + "\n" + m.chat.View() + "\n" + input
}

// renderMessages builds the chat transcript for the viewport.
func (m Model) renderMessages() string {
	styles := m.theme.Styles()
	msgs := m.snapshot.Conversations[m.selected]
	if m.selected == "" || len(msgs) == 0 {
		return styles.FaintText.Render("No messages")
	}

	width := m.chat.Width
	if width <= 0 {
		width = 40
	}
	body := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	lastDate := ""
	for i, msg := range msgs {
		if msg.Date != lastDate && msg.Date != "" {
			b.WriteString(styles.FaintText.Render("── " + msg.Date + " ──"))
			b.WriteString("\n")
			lastDate = msg.Date
		}
		who, style := "You", styles.OperatorText
		if isCustomerRole(msg.Role) {
			who, style = customerName(m.snapshot.State, m.selected), styles.CustomerText
		}
		b.WriteString(style.Bold(true).Render(who))
		if msg.Time != "" {
			b.WriteString(" ")
			b.WriteString(styles.FaintText.Render(msg.Time))
		}
		b.WriteString("\n")
		b.WriteString(body.Render(msg.Message))
		if i < len(msgs)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderReservations(width, height int) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Reservations"))

	list := sortedReservations(m.snapshot.State, m.selected)
	if len(list) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("None"))
		return b.String()
	}

	for i, r := range list {
		if i >= height-1 {
			break
		}
		line := padRight(formatReservation(r), width)
		b.WriteString("\n")
		switch {
		case m.focus == PaneReservations && i == m.resCursor:
			b.WriteString(styles.Selected.Render(line))
		case r.Cancelled:
			b.WriteString(styles.FaintText.Strikethrough(true).Render(line))
		default:
			b.WriteString(styles.Text.Render(line))
		}
	}
	return b.String()
}

// formatReservation renders "2026-10-20 11:00 #12 type 1".
func formatReservation(r protocol.Reservation) string {
	s := fmt.Sprintf("%s %s #%d", r.Date, r.TimeSlot, r.ID)
	if r.Type != 0 {
		s += fmt.Sprintf(" t%d", r.Type)
	}
	if r.Cancelled {
		s += " cancelled"
	}
	return s
}

// renderToasts shows the newest toast and how many others are pending.
func (m Model) renderToasts() string {
	styles := m.theme.Styles()
	if len(m.toasts) == 0 {
		return ""
	}
	t := m.toasts[len(m.toasts)-1]

	var b strings.Builder
	switch t.Kind {
	case toastEvent:
		b.WriteString(styles.EventStyle(t.EventType).Render(EventLabel(t.EventType)))
		b.WriteString(" ")
		b.WriteString(styles.Text.Render(t.Text))
	case toastError:
		b.WriteString(styles.DangerText.Render(t.Text))
	default:
		b.WriteString(styles.InfoText.Render(t.Text))
	}
	if n := len(m.toasts) - 1; n > 0 {
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("  (+%d)", n)))
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
}

// countReservations splits the dataset into active and cancelled counts.
func countReservations(all map[protocol.WaID][]protocol.Reservation) (active, cancelled int) {
	for _, list := range all {
		for _, r := range list {
			if r.Cancelled {
				cancelled++
			} else {
				active++
			}
		}
	}
	return active, cancelled
}
