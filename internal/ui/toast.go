package ui

import (
	"time"

	"github.com/google/uuid"
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastEvent
	toastError
)

// toast is a transient message shown above the footer.
type toast struct {
	ID        string
	Kind      toastKind
	Text      string
	EventType string
	UndoID    string // set while the toast can undo its action
	ExpiresAt time.Time
}

// pushToast adds a toast and evicts the oldest past maxToasts. Errors stay
// up longer than events.
func (m *Model) pushToast(kind toastKind, text, eventType string) {
	ttl := toastTTL
	if kind == toastError {
		ttl = errorToastTTL
	}
	m.toasts = append(m.toasts, toast{
		ID:        uuid.NewString(),
		Kind:      kind,
		Text:      text,
		EventType: eventType,
		ExpiresAt: m.now().Add(ttl),
	})
	if over := len(m.toasts) - maxToasts; over > 0 {
		m.toasts = append(m.toasts[:0:0], m.toasts[over:]...)
	}
}

// expireToasts drops toasts whose time is up.
func (m *Model) expireToasts(now time.Time) {
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if now.Before(t.ExpiresAt) {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

// dropEventToasts removes notification toasts, used when muting.
func (m *Model) dropEventToasts() {
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if t.Kind != toastEvent {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

// takeToastUndo returns the undo id of the newest toast that still offers
// one and clears it there.
func (m *Model) takeToastUndo() string {
	for i := len(m.toasts) - 1; i >= 0; i-- {
		if id := m.toasts[i].UndoID; id != "" {
			m.toasts[i].UndoID = ""
			return id
		}
	}
	return ""
}

// clearToastUndo drops the undo offer for an operation that already ran.
func (m *Model) clearToastUndo(id string) {
	for i := range m.toasts {
		if m.toasts[i].UndoID == id {
			m.toasts[i].UndoID = ""
		}
	}
}
