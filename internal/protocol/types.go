package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Inbound message types pushed by the server.
const (
	TypeSnapshot              = "snapshot"
	TypeReservationCreated    = "reservation_created"
	TypeReservationUpdated    = "reservation_updated"
	TypeReservationReinstated = "reservation_reinstated"
	TypeReservationCancelled  = "reservation_cancelled"
	TypeConversationMessage   = "conversation_new_message"
	TypeVacationUpdated       = "vacation_period_updated"
	TypeMetricsUpdated        = "metrics_updated"
	TypeCustomerTyping        = "customer_typing"
	TypeDocumentUpdated       = "customer_document_updated"
)

// Outbound message types sent by the client.
const (
	TypeSendMessage     = "conversation_send_message"
	TypeSecretaryTyping = "secretary_typing"
	TypeGetSnapshot     = "get_snapshot"
)

// Message roles as reported by the server.
const (
	RoleUser      = "user"
	RoleCustomer  = "customer"
	RoleAssistant = "assistant"
	RoleSecretary = "secretary"
	RoleSystem    = "system"
)

// WaID identifies a customer. The server emits it either as a JSON string or
// a bare number; both decode to the same value.
type WaID string

// UnmarshalJSON accepts strings and numbers.
func (w *WaID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*w = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*w = WaID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*w = WaID(n.String())
	return nil
}

// Frame is one inbound message from the socket.
type Frame struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`

	// ReceivedAt is stamped locally when the frame is read.
	ReceivedAt time.Time `json:"-"`
}

// At returns the server timestamp when it parses, otherwise ReceivedAt.
func (f Frame) At() time.Time {
	if ts := strings.TrimSpace(f.Timestamp); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			return t
		}
	}
	return f.ReceivedAt
}

// Outbound is one message written to the socket.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Reservation is a booking owned by a customer.
type Reservation struct {
	ID           int64  `json:"id"`
	WaID         WaID   `json:"wa_id"`
	CustomerName string `json:"customer_name,omitempty"`
	Date         string `json:"date"`
	TimeSlot     string `json:"time_slot"`
	Type         int    `json:"type"`
	Cancelled    bool   `json:"cancelled,omitempty"`
	Status       string `json:"status,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// Message is one chat line in a conversation.
type Message struct {
	Role    string `json:"role"`
	Message string `json:"message"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// DedupKey identifies a message for idempotent apply.
func (m Message) DedupKey() string {
	return m.Date + "\x00" + m.Time + "\x00" + m.Message
}

// ConversationMessage is the data of a conversation_new_message frame.
type ConversationMessage struct {
	WaID WaID `json:"wa_id"`
	Message
}

// VacationPeriod blocks a date range from bookings.
type VacationPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Title string `json:"title,omitempty"`
}

// VacationUpdate is the data of a vacation_period_updated frame.
type VacationUpdate struct {
	Periods []VacationPeriod `json:"periods"`
}

// SnapshotData is the data of a snapshot frame.
type SnapshotData struct {
	Reservations  map[WaID][]Reservation `json:"reservations"`
	Conversations map[WaID][]Message     `json:"conversations"`
	Vacations     []VacationPeriod       `json:"vacations"`
}

// SendMessageData is the data of a conversation_send_message frame.
type SendMessageData struct {
	WaID    WaID   `json:"wa_id"`
	Message string `json:"message"`
}

// TypingData is the data of a secretary_typing frame.
type TypingData struct {
	WaID   WaID `json:"wa_id"`
	Typing bool `json:"typing"`
}

// Fields is a flat view over the identifying fields of any payload. Echo
// keys and notification fingerprints are built from it.
type Fields struct {
	ID       int64  `json:"-"`
	WaID     WaID   `json:"wa_id"`
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
	Time     string `json:"time"`
	Role     string `json:"role"`
	Message  string `json:"message"`
}

// FieldsOf decodes the identifying fields of data. Malformed input yields
// the zero value.
func FieldsOf(data json.RawMessage) Fields {
	var f Fields
	if len(data) == 0 {
		return f
	}
	_ = json.Unmarshal(data, &f)
	var idHolder struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &idHolder); err == nil && len(idHolder.ID) > 0 {
		raw := strings.Trim(string(idHolder.ID), `" `)
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.ID = n
		}
	}
	return f
}

// Slot returns time_slot, falling back to time.
func (f Fields) Slot() string {
	if f.TimeSlot != "" {
		return f.TimeSlot
	}
	return f.Time
}
