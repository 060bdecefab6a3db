// Package cache persists the last known state so the UI can paint before the
// socket reconnects. Entries older than their TTL are treated as absent.
package cache

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/five82/frontdesk/internal/clock"
	"github.com/five82/frontdesk/internal/protocol"
	"github.com/five82/frontdesk/internal/state"
)

// Storage keys.
const (
	SnapshotKey = "ws_snapshot_v1"
	TabIDKey    = "ws_tab_id_v1"
)

const (
	// DefaultTTL bounds how stale a cached paint may be.
	DefaultTTL = 5 * time.Minute

	// DefaultThrottle is the minimum spacing between two persists.
	DefaultThrottle = time.Second
)

// Entry is the stored form of a state.
type Entry struct {
	Reservations   map[protocol.WaID][]protocol.Reservation `json:"reservations"`
	Conversations  map[protocol.WaID][]protocol.Message     `json:"conversations"`
	Vacations      []protocol.VacationPeriod                `json:"vacations"`
	LastUpdateAtMs *int64                                   `json:"lastUpdateAtMs"`
	PersistedAtMs  int64                                    `json:"persistedAtMs"`
}

// Options configure a Cache.
type Options struct {
	Storage  Storage
	Clock    clock.Clock
	Logger   zerolog.Logger
	Throttle time.Duration
}

// Cache reads and writes the snapshot entry.
type Cache struct {
	storage  Storage
	clock    clock.Clock
	logger   zerolog.Logger
	throttle time.Duration

	mu          sync.Mutex
	lastPersist time.Time
	lastVersion uint64
	persisted   bool
}

// New returns a Cache over opts.Storage. A nil storage yields a cache that
// always loads empty and never persists.
func New(opts Options) *Cache {
	throttle := opts.Throttle
	if throttle <= 0 {
		throttle = DefaultThrottle
	}
	return &Cache{
		storage:  opts.Storage,
		clock:    clock.Or(opts.Clock),
		logger:   opts.Logger.With().Str("component", "cache").Logger(),
		throttle: throttle,
	}
}

// Load returns the cached state, or an empty one when the entry is missing,
// unreadable, or at least ttl old. A non-positive ttl uses DefaultTTL.
func (c *Cache) Load(ttl time.Duration) state.State {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if c.storage == nil {
		return state.Empty()
	}
	raw, ok, err := c.storage.Get(SnapshotKey)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache read failed")
		return state.Empty()
	}
	if !ok {
		return state.Empty()
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn().Err(err).Msg("cached snapshot is malformed")
		return state.Empty()
	}
	persistedAt := time.UnixMilli(entry.PersistedAtMs)
	if age := c.clock.Now().Sub(persistedAt); age >= ttl {
		c.logger.Debug().Dur("age", age).Msg("cached snapshot expired")
		return state.Empty()
	}

	st := state.Empty()
	for k, v := range entry.Reservations {
		st.Reservations[k] = v
	}
	for k, v := range entry.Conversations {
		st.Conversations[k] = v
	}
	st.Vacations = entry.Vacations
	if entry.LastUpdateAtMs != nil {
		st.LastUpdate = time.UnixMilli(*entry.LastUpdateAtMs)
	}
	return st
}

// Persist writes st immediately and reports whether the write succeeded.
// Failures are logged and swallowed.
func (c *Cache) Persist(st state.State) bool {
	if c.storage == nil {
		return false
	}
	now := c.clock.Now()
	entry := Entry{
		Reservations:  st.Reservations,
		Conversations: st.Conversations,
		Vacations:     st.Vacations,
		PersistedAtMs: now.UnixMilli(),
	}
	if !st.LastUpdate.IsZero() {
		ms := st.LastUpdate.UnixMilli()
		entry.LastUpdateAtMs = &ms
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn().Err(err).Msg("encode snapshot failed")
		return false
	}
	if err := c.storage.Set(SnapshotKey, raw); err != nil {
		c.logger.Warn().Err(err).Msg("cache write failed")
		return false
	}
	return true
}

// Seed records version as already stored. The engine calls it with the
// version of the state it was booted from, so a state that came out of the
// cache is not written back with a fresh timestamp.
func (c *Cache) Seed(version uint64) {
	c.mu.Lock()
	c.persisted = true
	c.lastVersion = version
	c.mu.Unlock()
}

// MaybePersist writes st when version moved since the last successful write
// and the throttle interval has passed. It reports whether a write was
// attempted.
func (c *Cache) MaybePersist(st state.State, version uint64) bool {
	now := c.clock.Now()
	c.mu.Lock()
	if c.persisted && version == c.lastVersion {
		c.mu.Unlock()
		return false
	}
	if !c.lastPersist.IsZero() && now.Sub(c.lastPersist) < c.throttle {
		c.mu.Unlock()
		return false
	}
	c.lastPersist = now
	c.mu.Unlock()

	c.write(st, version)
	return true
}

// Flush writes st when version has not been stored yet, ignoring the
// throttle. It reports whether a write succeeded.
func (c *Cache) Flush(st state.State, version uint64) bool {
	c.mu.Lock()
	clean := c.persisted && version == c.lastVersion
	c.mu.Unlock()
	if clean {
		return false
	}
	return c.write(st, version)
}

func (c *Cache) write(st state.State, version uint64) bool {
	if !c.Persist(st) {
		return false
	}
	c.mu.Lock()
	c.persisted = true
	c.lastVersion = version
	c.mu.Unlock()
	return true
}

// Clear removes the cached snapshot.
func (c *Cache) Clear() {
	if c.storage == nil {
		return
	}
	if err := c.storage.Delete(SnapshotKey); err != nil {
		c.logger.Warn().Err(err).Msg("cache clear failed")
	}
}

// TabID returns the identity of this client, generating and storing one on
// first use.
func TabID(s Storage) string {
	if s == nil {
		return uuid.NewString()
	}
	if raw, ok, err := s.Get(TabIDKey); err == nil && ok {
		if id := strings.TrimSpace(string(raw)); id != "" {
			return id
		}
	}
	id := uuid.NewString()
	_ = s.Set(TabIDKey, []byte(id))
	return id
}
