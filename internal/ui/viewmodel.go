package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/five82/frontdesk/internal/protocol"
	"github.com/five82/frontdesk/internal/realtime"
	"github.com/five82/frontdesk/internal/state"
)

// conversationRow is one line of the conversations pane.
type conversationRow struct {
	WaID        protocol.WaID
	Name        string
	LastMessage string
	LastRole    string
	LastAt      string // "2006-01-02 15:04" as sent by the server
	Upcoming    int    // active reservations
}

// buildConversationRows lists every customer that has a conversation or a
// reservation, most recent message first.
func buildConversationRows(st state.State) []conversationRow {
	seen := make(map[protocol.WaID]bool, len(st.Conversations)+len(st.Reservations))
	rows := make([]conversationRow, 0, len(st.Conversations)+len(st.Reservations))

	add := func(waID protocol.WaID) {
		if waID == "" || seen[waID] {
			return
		}
		seen[waID] = true
		row := conversationRow{WaID: waID, Name: customerName(st, waID)}
		if msgs := st.Conversations[waID]; len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			row.LastMessage = last.Message
			row.LastRole = last.Role
			row.LastAt = strings.TrimSpace(last.Date + " " + last.Time)
		}
		for _, r := range st.Reservations[waID] {
			if !r.Cancelled {
				row.Upcoming++
			}
		}
		rows = append(rows, row)
	}
	for waID := range st.Conversations {
		add(waID)
	}
	for waID := range st.Reservations {
		add(waID)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LastAt != rows[j].LastAt {
			return rows[i].LastAt > rows[j].LastAt
		}
		return rows[i].WaID < rows[j].WaID
	})
	return rows
}

// customerName returns the first non-empty name on the customer's
// reservations, or the wa_id itself.
func customerName(st state.State, waID protocol.WaID) string {
	for _, r := range st.Reservations[waID] {
		if name := strings.TrimSpace(r.CustomerName); name != "" {
			return name
		}
	}
	return string(waID)
}

// sortedReservations returns waID's reservations by date and slot, active
// ones first.
func sortedReservations(st state.State, waID protocol.WaID) []protocol.Reservation {
	src := st.Reservations[waID]
	out := make([]protocol.Reservation, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Cancelled != out[j].Cancelled {
			return !out[i].Cancelled
		}
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].TimeSlot < out[j].TimeSlot
	})
	return out
}

// indexOf returns the row index for waID, or -1.
func indexOf(rows []conversationRow, waID protocol.WaID) int {
	for i, row := range rows {
		if row.WaID == waID {
			return i
		}
	}
	return -1
}

// isCustomerRole reports whether a chat message came from the customer side.
func isCustomerRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case protocol.RoleUser, protocol.RoleCustomer:
		return true
	default:
		return false
	}
}

// DescribeNotification renders a one-line summary for a toast or the tail
// command.
func DescribeNotification(n realtime.Notification) string {
	f := protocol.FieldsOf(n.Data)
	who := string(f.WaID)
	if who == "" {
		who = "unknown"
	}
	when := strings.TrimSpace(f.Date + " " + f.Slot())

	switch n.Type {
	case protocol.TypeConversationMessage:
		return fmt.Sprintf("%s: %s", who, truncate(f.Message, 60))
	case protocol.TypeReservationCreated:
		return fmt.Sprintf("New reservation for %s %s", who, when)
	case protocol.TypeReservationUpdated:
		return fmt.Sprintf("Reservation updated for %s %s", who, when)
	case protocol.TypeReservationCancelled:
		return fmt.Sprintf("Reservation cancelled for %s %s", who, when)
	case protocol.TypeReservationReinstated:
		return fmt.Sprintf("Reservation reinstated for %s %s", who, when)
	case protocol.TypeVacationUpdated:
		var v protocol.VacationUpdate
		if err := json.Unmarshal(n.Data, &v); err == nil {
			return fmt.Sprintf("Vacation periods updated (%d)", len(v.Periods))
		}
		return "Vacation periods updated"
	default:
		return n.Type
	}
}

// EventLabel is the short badge text for a notification type.
func EventLabel(typ string) string {
	switch typ {
	case protocol.TypeConversationMessage:
		return "MSG"
	case protocol.TypeReservationCreated:
		return "NEW"
	case protocol.TypeReservationUpdated:
		return "UPD"
	case protocol.TypeReservationCancelled:
		return "CXL"
	case protocol.TypeReservationReinstated:
		return "RIN"
	case protocol.TypeVacationUpdated:
		return "VAC"
	default:
		return "EVT"
	}
}
