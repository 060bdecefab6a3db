package ui

import (
	"encoding/json"
	"testing"

	"github.com/five82/frontdesk/internal/protocol"
	"github.com/five82/frontdesk/internal/realtime"
	"github.com/five82/frontdesk/internal/state"
)

func sampleState() state.State {
	return state.State{
		Conversations: map[protocol.WaID][]protocol.Message{
			"111": {
				{Role: "user", Message: "hi", Date: "2026-10-16", Time: "09:00"},
				{Role: "secretary", Message: "hello", Date: "2026-10-16", Time: "09:05"},
			},
			"222": {
				{Role: "customer", Message: "can I book?", Date: "2026-10-17", Time: "08:00"},
			},
		},
		Reservations: map[protocol.WaID][]protocol.Reservation{
			"111": {
				{ID: 2, WaID: "111", Date: "2026-10-21", TimeSlot: "10:00", Cancelled: true},
				{ID: 1, WaID: "111", CustomerName: "Ana", Date: "2026-10-20", TimeSlot: "11:00"},
				{ID: 3, WaID: "111", Date: "2026-10-20", TimeSlot: "09:00"},
			},
			"333": {
				{ID: 4, WaID: "333", Date: "2026-10-22", TimeSlot: "12:00"},
			},
		},
	}
}

func TestBuildConversationRows(t *testing.T) {
	rows := buildConversationRows(sampleState())
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	// Most recent message first; customers without chat sort last.
	want := []protocol.WaID{"222", "111", "333"}
	for i, id := range want {
		if rows[i].WaID != id {
			t.Fatalf("rows[%d] = %s, want %s", i, rows[i].WaID, id)
		}
	}
	if rows[1].Name != "Ana" {
		t.Fatalf("name = %q, want Ana", rows[1].Name)
	}
	if rows[1].Upcoming != 2 {
		t.Fatalf("upcoming = %d, want 2", rows[1].Upcoming)
	}
	if rows[1].LastMessage != "hello" || rows[1].LastRole != "secretary" {
		t.Fatalf("last message = %q/%q", rows[1].LastMessage, rows[1].LastRole)
	}
	if rows[0].Name != "222" {
		t.Fatalf("name without reservations = %q, want wa_id", rows[0].Name)
	}
}

func TestSortedReservationsActiveFirst(t *testing.T) {
	list := sortedReservations(sampleState(), "111")
	got := []int64{list[0].ID, list[1].ID, list[2].ID}
	want := []int64{3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if sortedReservations(sampleState(), "999") == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}

func TestIsCustomerRole(t *testing.T) {
	for _, role := range []string{"user", "Customer", " USER "} {
		if !isCustomerRole(role) {
			t.Fatalf("isCustomerRole(%q) = false", role)
		}
	}
	for _, role := range []string{"assistant", "secretary", ""} {
		if isCustomerRole(role) {
			t.Fatalf("isCustomerRole(%q) = true", role)
		}
	}
}

func TestDescribeNotification(t *testing.T) {
	cases := []struct {
		name string
		typ  string
		data string
		want string
	}{
		{"message", protocol.TypeConversationMessage, `{"wa_id":"111","role":"user","message":"hi there"}`, "111: hi there"},
		{"created", protocol.TypeReservationCreated, `{"wa_id":"111","date":"2026-10-20","time_slot":"11:00"}`, "New reservation for 111 2026-10-20 11:00"},
		{"cancelled", protocol.TypeReservationCancelled, `{"wa_id":"111","date":"2026-10-20","time_slot":"11:00"}`, "Reservation cancelled for 111 2026-10-20 11:00"},
		{"vacation", protocol.TypeVacationUpdated, `{"periods":[{"start":"2026-12-24","end":"2026-12-26"}]}`, "Vacation periods updated (1)"},
		{"unknown", "something_else", `{}`, "something_else"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := realtime.Notification{Type: tc.typ, Data: json.RawMessage(tc.data)}
			if got := DescribeNotification(n); got != tc.want {
				t.Fatalf("DescribeNotification = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEventLabel(t *testing.T) {
	if got := EventLabel(protocol.TypeReservationReinstated); got != "RIN" {
		t.Fatalf("EventLabel = %q, want RIN", got)
	}
	if got := EventLabel("other"); got != "EVT" {
		t.Fatalf("EventLabel(other) = %q, want EVT", got)
	}
}
