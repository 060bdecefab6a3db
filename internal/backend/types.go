package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/five82/frontdesk/internal/protocol"
)

// envelope wraps every REST response.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// APIError is returned when the server answers with success=false or a
// non-retryable HTTP status.
type APIError struct {
	Status  int
	Path    string
	Message string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "request failed"
	}
	if e.Status > 0 {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, msg)
	}
	return fmt.Sprintf("api %s: %s", e.Path, msg)
}

// ReservationRequest is the body of create and modify calls. Zero fields
// are omitted so a modify only touches what changed.
type ReservationRequest struct {
	ID           int64         `json:"id,omitempty"`
	WaID         protocol.WaID `json:"wa_id,omitempty"`
	CustomerName string        `json:"customer_name,omitempty"`
	Date         string        `json:"date,omitempty"`
	TimeSlot     string        `json:"time_slot,omitempty"`
	Type         *int          `json:"type,omitempty"`
}

type sendMessageRequest struct {
	WaID    protocol.WaID `json:"wa_id"`
	Message string        `json:"message"`
}

type idRequest struct {
	ID int64 `json:"id"`
}
