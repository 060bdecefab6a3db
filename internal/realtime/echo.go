package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/five82/frontdesk/internal/clock"
	"github.com/five82/frontdesk/internal/protocol"
)

const (
	// DefaultEchoTTL covers REST round trips for reservation mutations.
	DefaultEchoTTL = 15 * time.Second

	// DefaultChatEchoTTL is shorter; chat echoes arrive quickly.
	DefaultChatEchoTTL = 5 * time.Second
)

// EchoRegistry remembers operations this client just performed so their
// server broadcasts can be recognised as local.
type EchoRegistry struct {
	clock      clock.Clock
	defaultTTL time.Duration

	mu      sync.Mutex
	markers map[string]time.Time
}

// NewEchoRegistry returns an empty registry.
func NewEchoRegistry(clk clock.Clock, defaultTTL time.Duration) *EchoRegistry {
	if defaultTTL <= 0 {
		defaultTTL = DefaultEchoTTL
	}
	return &EchoRegistry{
		clock:      clock.Or(clk),
		defaultTTL: defaultTTL,
		markers:    make(map[string]time.Time),
	}
}

// Mark records key until ttl elapses. A non-positive ttl uses the default.
func (r *EchoRegistry) Mark(key string, ttl time.Duration) {
	if key == "" {
		return
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	expires := r.clock.Now().Add(ttl)

	r.mu.Lock()
	if r.markers == nil {
		r.markers = make(map[string]time.Time)
	}
	if prev, ok := r.markers[key]; !ok || expires.After(prev) {
		r.markers[key] = expires
	}
	r.mu.Unlock()
}

// MarkOperation records every echo key derived from typ and f.
func (r *EchoRegistry) MarkOperation(typ string, f protocol.Fields, ttl time.Duration) {
	for _, key := range EchoKeys(typ, f) {
		r.Mark(key, ttl)
	}
}

// IsLocalOperation reports whether an inbound frame matches a live marker.
func (r *EchoRegistry) IsLocalOperation(typ string, data json.RawMessage) bool {
	keys := EchoKeys(typ, protocol.FieldsOf(data))
	if len(keys) == 0 {
		return false
	}
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		if expires, ok := r.markers[key]; ok && now.Before(expires) {
			return true
		}
	}
	return false
}

// Sweep drops expired markers and returns how many were removed.
func (r *EchoRegistry) Sweep() int {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, expires := range r.markers {
		if !now.Before(expires) {
			delete(r.markers, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored markers, expired or not.
func (r *EchoRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.markers)
}

// EchoKeys derives the marker keys for an operation. Reservation events get
// a slot key and, when the id is known, an id key.
func EchoKeys(typ string, f protocol.Fields) []string {
	switch {
	case strings.HasPrefix(typ, "reservation_"):
		var keys []string
		if f.WaID != "" && f.Date != "" && f.Slot() != "" {
			keys = append(keys, fmt.Sprintf("%s:%s:%s:%s", typ, f.WaID, f.Date, f.Slot()))
		}
		if f.ID != 0 {
			keys = append(keys, fmt.Sprintf("%s:id:%d", typ, f.ID))
		}
		return keys
	case typ == protocol.TypeConversationMessage:
		if f.WaID == "" || f.Message == "" {
			return nil
		}
		return []string{fmt.Sprintf("%s:%s:%s", typ, f.WaID, f.Message)}
	case typ == protocol.TypeVacationUpdated:
		return []string{typ}
	default:
		if f.WaID == "" {
			return nil
		}
		return []string{fmt.Sprintf("%s:%s", typ, f.WaID)}
	}
}
