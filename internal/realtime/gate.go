package realtime

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/five82/frontdesk/internal/clock"
	"github.com/five82/frontdesk/internal/protocol"
)

// DefaultDedupWindow collapses repeated notifications for the same event.
const DefaultDedupWindow = 4 * time.Second

var notifiable = map[string]bool{
	protocol.TypeReservationCreated:    true,
	protocol.TypeReservationUpdated:    true,
	protocol.TypeReservationReinstated: true,
	protocol.TypeReservationCancelled:  true,
	protocol.TypeConversationMessage:   true,
	protocol.TypeVacationUpdated:       true,
}

// Notification is what the UI and the tail command receive.
type Notification struct {
	Type  string
	Data  json.RawMessage
	TS    time.Time
	Local bool
}

// Decision is the gate's verdict on one inbound frame.
type Decision struct {
	Allowed   bool
	Local     bool
	Duplicate bool
}

// Notify reports whether a notification should be published.
func (d Decision) Notify() bool {
	return d.Allowed && !d.Duplicate
}

// IsAllowedNotificationEvent reports whether typ may raise a notification.
// Chat messages qualify only when they come from the customer side.
func IsAllowedNotificationEvent(typ string, data json.RawMessage) bool {
	if typ == "" || typ == protocol.TypeSnapshot {
		return false
	}
	if strings.HasSuffix(typ, "_ack") || strings.HasSuffix(typ, "_nack") {
		return false
	}
	if strings.Contains(typ, "typing") || strings.Contains(typ, "document") || strings.Contains(typ, "metrics") {
		return false
	}
	if !notifiable[typ] {
		return false
	}
	if typ == protocol.TypeConversationMessage {
		switch strings.ToLower(strings.TrimSpace(protocol.FieldsOf(data).Role)) {
		case protocol.RoleUser, protocol.RoleCustomer:
			return true
		default:
			return false
		}
	}
	return true
}

// Gate filters and deduplicates notifications.
type Gate struct {
	clock  clock.Clock
	echo   *EchoRegistry
	window time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewGate returns a gate. echo may be nil, in which case nothing is local.
func NewGate(clk clock.Clock, echo *EchoRegistry, window time.Duration) *Gate {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &Gate{
		clock:  clock.Or(clk),
		echo:   echo,
		window: window,
		seen:   make(map[string]time.Time),
	}
}

// IsDuplicate reports whether the same event was seen within the window
// and records this sighting.
func (g *Gate) IsDuplicate(typ string, data json.RawMessage) bool {
	key := fingerprint(typ, data)
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = make(map[string]time.Time)
	}
	if last, ok := g.seen[key]; ok && now.Sub(last) < g.window {
		return true
	}
	g.seen[key] = now
	return false
}

// Decide applies the allow-list, the echo registry and deduplication.
// Disallowed frames are not recorded.
func (g *Gate) Decide(typ string, data json.RawMessage) Decision {
	if !IsAllowedNotificationEvent(typ, data) {
		return Decision{}
	}
	d := Decision{Allowed: true}
	if g.echo != nil {
		d.Local = g.echo.IsLocalOperation(typ, data)
	}
	d.Duplicate = g.IsDuplicate(typ, data)
	return d
}

// Sweep forgets sightings older than the window.
func (g *Gate) Sweep() int {
	now := g.clock.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	removed := 0
	for key, at := range g.seen {
		if now.Sub(at) >= g.window {
			delete(g.seen, key)
			removed++
		}
	}
	return removed
}

func fingerprint(typ string, data json.RawMessage) string {
	f := protocol.FieldsOf(data)
	if f == (protocol.Fields{}) {
		sum := sha256.Sum256(data)
		return typ + "|" + hex.EncodeToString(sum[:8])
	}
	return fmt.Sprintf("%s|%d|%s|%s|%s|%s|%s", typ, f.ID, f.WaID, f.Date, f.Slot(), f.Time, f.Message)
}
