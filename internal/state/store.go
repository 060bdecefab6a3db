package state

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/five82/frontdesk/internal/clock"
	"github.com/five82/frontdesk/internal/protocol"
)

// Snapshot is the latest state plus connection bookkeeping for the UI.
type Snapshot struct {
	State
	Version             uint64 // bumped on every change to the dataset
	LastError           error
	LastErrorAt         time.Time
	ConsecutiveFailures int // failed connect attempts since the last success
}

// IsOffline returns true when the socket has failed repeatedly.
func (s Snapshot) IsOffline() bool {
	return !s.IsConnected && s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent access to the current state. The engine is the
// only writer; the UI and cache read snapshots.
type Store struct {
	clock clock.Clock

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewStore returns a store seeded with initial. A nil clk reads the system
// clock.
func NewStore(initial State, clk clock.Clock) *Store {
	s := &Store{clock: clk}
	s.snapshot.State = normalize(initial)
	return s
}

// Apply reduces f into the current state and reports whether the dataset
// changed.
func (s *Store) Apply(f protocol.Frame) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensure()
	prev := s.snapshot.State
	next := Reduce(prev, f)
	changed := !sameState(prev, next)
	if changed {
		s.snapshot.State = next
		s.snapshot.Version++
	}
	return s.snapshot.State, changed
}

// SetConnected records the socket status. A non-nil err counts as a failed
// attempt; a true connected resets the failure counter.
func (s *Store) SetConnected(connected bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensure()
	s.snapshot.IsConnected = connected
	if connected {
		s.snapshot.ConsecutiveFailures = 0
		s.snapshot.LastError = nil
		return
	}
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastErrorAt = clock.Or(s.clock).Now()
		s.snapshot.ConsecutiveFailures++
	}
}

// Snapshot returns the current snapshot. The embedded State shares maps with
// the store and must not be mutated.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if snap.Reservations == nil {
		snap.State = normalize(snap.State)
	}
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// Version returns the change counter.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Version
}

func (s *Store) ensure() {
	if s.snapshot.Reservations == nil || s.snapshot.Conversations == nil {
		s.snapshot.State = normalize(s.snapshot.State)
	}
}

func normalize(st State) State {
	if st.Reservations == nil {
		st.Reservations = map[protocol.WaID][]protocol.Reservation{}
	}
	if st.Conversations == nil {
		st.Conversations = map[protocol.WaID][]protocol.Message{}
	}
	return st
}

// sameState is an identity check: Reduce returns prev untouched when nothing
// applies, so comparing map and slice headers is enough.
func sameState(a, b State) bool {
	return sameMap(a.Reservations, b.Reservations) &&
		sameMap(a.Conversations, b.Conversations) &&
		sameSlice(a.Vacations, b.Vacations) &&
		a.LastUpdate.Equal(b.LastUpdate)
}

func sameMap[V any](a, b map[protocol.WaID]V) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}
	return &a[0] == &b[0]
}
