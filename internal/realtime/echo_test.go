package realtime

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/five82/frontdesk/internal/clock"
	"github.com/five82/frontdesk/internal/protocol"
)

func TestEchoKeys(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		f    protocol.Fields
		want []string
	}{
		{
			name: "reservation with slot and id",
			typ:  protocol.TypeReservationCreated,
			f:    protocol.Fields{ID: 42, WaID: "123", Date: "2024-01-01", TimeSlot: "10:00"},
			want: []string{"reservation_created:123:2024-01-01:10:00", "reservation_created:id:42"},
		},
		{
			name: "reservation falls back to time",
			typ:  protocol.TypeReservationUpdated,
			f:    protocol.Fields{WaID: "123", Date: "2024-01-01", Time: "11:00"},
			want: []string{"reservation_updated:123:2024-01-01:11:00"},
		},
		{
			name: "reservation id only",
			typ:  protocol.TypeReservationCancelled,
			f:    protocol.Fields{ID: 7},
			want: []string{"reservation_cancelled:id:7"},
		},
		{
			name: "chat",
			typ:  protocol.TypeConversationMessage,
			f:    protocol.Fields{WaID: "123", Message: "hello"},
			want: []string{"conversation_new_message:123:hello"},
		},
		{
			name: "chat without text",
			typ:  protocol.TypeConversationMessage,
			f:    protocol.Fields{WaID: "123"},
			want: nil,
		},
		{
			name: "vacation",
			typ:  protocol.TypeVacationUpdated,
			want: []string{"vacation_period_updated"},
		},
		{
			name: "other with wa_id",
			typ:  "customer_document_updated",
			f:    protocol.Fields{WaID: "9"},
			want: []string{"customer_document_updated:9"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EchoKeys(tt.typ, tt.f)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("EchoKeys = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEchoRegistry_MarkedOperationIsLocalUntilTTL(t *testing.T) {
	clk := clock.NewManual(t0)
	r := NewEchoRegistry(clk, 0)

	r.Mark("reservation_created:123:2024-01-01:10:00", 15*time.Second)
	data := json.RawMessage(`{"id":1,"wa_id":123,"date":"2024-01-01","time_slot":"10:00"}`)

	if !r.IsLocalOperation(protocol.TypeReservationCreated, data) {
		t.Fatalf("fresh marker not detected")
	}
	if r.IsLocalOperation(protocol.TypeReservationUpdated, data) {
		t.Fatalf("marker matched a different type")
	}

	clk.Advance(14 * time.Second)
	if !r.IsLocalOperation(protocol.TypeReservationCreated, data) {
		t.Fatalf("marker expired early")
	}
	clk.Advance(time.Second)
	if r.IsLocalOperation(protocol.TypeReservationCreated, data) {
		t.Fatalf("marker still live at TTL")
	}
	if n := r.Sweep(); n != 1 || r.Len() != 0 {
		t.Fatalf("Sweep = %d, Len = %d", n, r.Len())
	}
}

func TestEchoRegistry_MarkOperationByID(t *testing.T) {
	clk := clock.NewManual(t0)
	r := NewEchoRegistry(clk, 5*time.Second)
	r.MarkOperation(protocol.TypeReservationCancelled, protocol.Fields{ID: 55}, 0)

	if !r.IsLocalOperation(protocol.TypeReservationCancelled, json.RawMessage(`{"id":"55"}`)) {
		t.Fatalf("id marker not matched")
	}
	clk.Advance(5 * time.Second)
	if r.IsLocalOperation(protocol.TypeReservationCancelled, json.RawMessage(`{"id":55}`)) {
		t.Fatalf("default TTL not applied")
	}
}

func TestEchoRegistry_RemarkExtends(t *testing.T) {
	clk := clock.NewManual(t0)
	r := NewEchoRegistry(clk, 0)
	r.Mark("k", 2*time.Second)
	clk.Advance(time.Second)
	r.Mark("k", 5*time.Second)
	r.Mark("k", time.Second) // shorter mark never shortens
	clk.Advance(3 * time.Second)
	if n := r.Sweep(); n != 0 || r.Len() != 1 {
		t.Fatalf("Sweep = %d, Len = %d; extended marker swept early", n, r.Len())
	}
	clk.Advance(2 * time.Second)
	if n := r.Sweep(); n != 1 {
		t.Fatalf("Sweep after extended TTL = %d, want 1", n)
	}
}
