package state

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/five82/frontdesk/internal/protocol"
)

var t0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func frame(typ, data string) protocol.Frame {
	return protocol.Frame{Type: typ, Data: json.RawMessage(data), ReceivedAt: t0}
}

func TestReduce_SnapshotReplacesEverything(t *testing.T) {
	prev := Empty()
	prev.IsConnected = true
	prev.Reservations["old"] = []protocol.Reservation{{ID: 1, WaID: "old"}}

	next := Reduce(prev, frame(protocol.TypeSnapshot, `{
		"reservations": {"123": [{"id": 5, "date": "2024-01-01", "time_slot": "10:00"}]},
		"conversations": {"123": [
			{"role": "user", "message": "hi", "date": "2024-01-01", "time": "09:00"},
			{"role": "user", "message": "hi", "date": "2024-01-01", "time": "09:00"}
		]},
		"vacations": [{"start": "2024-02-01", "end": "2024-02-07"}]
	}`))

	if _, ok := next.Reservations["old"]; ok {
		t.Fatalf("snapshot kept stale customer")
	}
	got := next.Reservations["123"]
	if len(got) != 1 || got[0].ID != 5 || got[0].WaID != "123" {
		t.Fatalf("reservations = %#v, want id 5 owned by 123", got)
	}
	if len(next.Conversations["123"]) != 1 {
		t.Fatalf("conversations = %#v, want deduped to 1", next.Conversations["123"])
	}
	if len(next.Vacations) != 1 {
		t.Fatalf("vacations = %#v, want 1", next.Vacations)
	}
	if !next.IsConnected {
		t.Fatalf("snapshot should not change IsConnected")
	}
	if !next.LastUpdate.Equal(t0) {
		t.Fatalf("LastUpdate = %v, want %v", next.LastUpdate, t0)
	}
	if len(prev.Reservations["old"]) != 1 {
		t.Fatalf("snapshot mutated previous state")
	}
}

func TestReduce_SnapshotMissingFieldsEmpties(t *testing.T) {
	prev := Empty()
	prev.Vacations = []protocol.VacationPeriod{{Start: "a", End: "b"}}
	next := Reduce(prev, frame(protocol.TypeSnapshot, `{}`))
	if len(next.Reservations) != 0 || len(next.Conversations) != 0 || len(next.Vacations) != 0 {
		t.Fatalf("next = %#v, want empty dataset", next)
	}
	if next.Reservations == nil || next.Conversations == nil {
		t.Fatalf("maps should be initialized")
	}
}

func TestReduce_ConversationMessageIsIdempotent(t *testing.T) {
	msg := `{"wa_id": 123, "role": "user", "message": "hello", "date": "2024-01-01", "time": "10:00"}`
	st := Reduce(Empty(), frame(protocol.TypeConversationMessage, msg))
	st = Reduce(st, frame(protocol.TypeConversationMessage, msg))

	if got := len(st.Conversations["123"]); got != 1 {
		t.Fatalf("len(messages) = %d, want 1", got)
	}

	st = Reduce(st, frame(protocol.TypeConversationMessage,
		`{"wa_id": 123, "role": "user", "message": "hello", "date": "2024-01-01", "time": "10:01"}`))
	if got := len(st.Conversations["123"]); got != 2 {
		t.Fatalf("len(messages) = %d, want 2 for a different time", got)
	}
}

func TestReduce_ConversationMessageWithoutWaIDIgnored(t *testing.T) {
	prev := Empty()
	next := Reduce(prev, frame(protocol.TypeConversationMessage, `{"message": "x"}`))
	if len(next.Conversations) != 0 {
		t.Fatalf("message without wa_id applied: %#v", next.Conversations)
	}
}

func TestReduce_ReservationUpsertLastWriteWins(t *testing.T) {
	st := Reduce(Empty(), frame(protocol.TypeReservationUpdated,
		`{"id": 9, "wa_id": "123", "date": "2024-01-01", "time_slot": "10:00", "customer_name": "A"}`))
	st = Reduce(st, frame(protocol.TypeReservationUpdated,
		`{"id": 9, "wa_id": "123", "date": "2024-01-02", "time_slot": "11:00", "customer_name": "B"}`))

	list := st.Reservations["123"]
	if len(list) != 1 {
		t.Fatalf("len(reservations) = %d, want 1", len(list))
	}
	if list[0].Date != "2024-01-02" || list[0].TimeSlot != "11:00" || list[0].CustomerName != "B" {
		t.Fatalf("reservation = %#v, want latest payload", list[0])
	}
}

func TestReduce_CancelKeepsHistoryAndReinstateClears(t *testing.T) {
	st := Reduce(Empty(), frame(protocol.TypeReservationCreated,
		`{"id": 3, "wa_id": "77", "date": "2024-03-01", "time_slot": "12:00", "type": 1}`))

	// Cancel frames may omit wa_id and most fields.
	st = Reduce(st, frame(protocol.TypeReservationCancelled, `{"id": 3}`))
	list := st.Reservations["77"]
	if len(list) != 1 {
		t.Fatalf("cancel removed entry: %#v", list)
	}
	if !list[0].Cancelled || list[0].Status != "cancelled" {
		t.Fatalf("reservation = %#v, want cancelled", list[0])
	}
	if list[0].Date != "2024-03-01" || list[0].Type != 1 {
		t.Fatalf("cancel lost fields: %#v", list[0])
	}

	st = Reduce(st, frame(protocol.TypeReservationReinstated, `{"id": 3, "status": "active"}`))
	list = st.Reservations["77"]
	if list[0].Cancelled || list[0].Status != "active" {
		t.Fatalf("reservation = %#v, want reinstated", list[0])
	}
}

func TestReduce_CancelUnknownAppends(t *testing.T) {
	st := Reduce(Empty(), frame(protocol.TypeReservationCancelled,
		`{"id": 4, "wa_id": "5", "date": "2024-03-01", "time_slot": "12:00"}`))
	if list := st.Reservations["5"]; len(list) != 1 || !list[0].Cancelled {
		t.Fatalf("reservations = %#v, want one cancelled entry", list)
	}

	unchanged := Reduce(st, frame(protocol.TypeReservationCancelled, `{"id": 999}`))
	if len(unchanged.Reservations) != 1 {
		t.Fatalf("cancel of unknown id without wa_id should be ignored")
	}
}

func TestReduce_ReservationMovesBetweenCustomers(t *testing.T) {
	st := Reduce(Empty(), frame(protocol.TypeReservationCreated,
		`{"id": 1, "wa_id": "a", "date": "2024-01-01", "time_slot": "10:00"}`))
	st = Reduce(st, frame(protocol.TypeReservationUpdated,
		`{"id": 1, "wa_id": "b", "date": "2024-01-01", "time_slot": "10:00"}`))

	if _, ok := st.Reservations["a"]; ok {
		t.Fatalf("old owner still listed: %#v", st.Reservations)
	}
	if len(st.Reservations["b"]) != 1 {
		t.Fatalf("new owner list = %#v", st.Reservations["b"])
	}
}

func TestReduce_DoesNotMutatePrevious(t *testing.T) {
	prev := Reduce(Empty(), frame(protocol.TypeReservationCreated,
		`{"id": 1, "wa_id": "a", "date": "2024-01-01", "time_slot": "10:00"}`))
	before := prev.Reservations["a"][0]

	_ = Reduce(prev, frame(protocol.TypeReservationUpdated,
		`{"id": 1, "wa_id": "a", "date": "2024-06-06", "time_slot": "18:00"}`))
	_ = Reduce(prev, frame(protocol.TypeConversationMessage,
		`{"wa_id": "a", "role": "user", "message": "x", "date": "d", "time": "t"}`))

	if prev.Reservations["a"][0] != before {
		t.Fatalf("previous reservation mutated: %#v", prev.Reservations["a"][0])
	}
	if len(prev.Conversations) != 0 {
		t.Fatalf("previous conversations mutated: %#v", prev.Conversations)
	}
}

func TestReduce_VacationsAndPassThrough(t *testing.T) {
	st := Reduce(Empty(), frame(protocol.TypeVacationUpdated,
		`{"periods": [{"start": "2024-07-01", "end": "2024-07-10"}, {"start": "2024-12-20", "end": "2024-12-31"}]}`))
	if len(st.Vacations) != 2 {
		t.Fatalf("vacations = %#v, want 2", st.Vacations)
	}

	st = Reduce(st, frame(protocol.TypeVacationUpdated, `{"vacations": []}`))
	if len(st.Vacations) != 0 {
		t.Fatalf("vacations = %#v, want cleared", st.Vacations)
	}

	for _, typ := range []string{protocol.TypeMetricsUpdated, "conversation_send_message_ack", "mystery"} {
		before := st
		after := Reduce(st, frame(typ, `{"anything": true}`))
		if !sameState(before, after) {
			t.Fatalf("Reduce(%q) changed state", typ)
		}
	}
}

func TestReduce_MalformedPayloadIsIgnored(t *testing.T) {
	prev := Empty()
	next := Reduce(prev, frame(protocol.TypeReservationCreated, `{"id": "not-a-number"}`))
	if !sameState(prev, next) {
		t.Fatalf("malformed payload changed state")
	}
}

func TestReduce_UsesServerTimestamp(t *testing.T) {
	f := frame(protocol.TypeVacationUpdated, `{"periods": []}`)
	f.Timestamp = "2024-04-04T04:04:04Z"
	st := Reduce(Empty(), f)
	want := time.Date(2024, 4, 4, 4, 4, 4, 0, time.UTC)
	if !st.LastUpdate.Equal(want) {
		t.Fatalf("LastUpdate = %v, want %v", st.LastUpdate, want)
	}
}
