package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/frontdesk/internal/clock"
)

// ErrNotConnected is returned by writes while no socket is open.
var ErrNotConnected = errors.New("socket not connected")

// DefaultDisconnectGrace absorbs quick release/register churn before the
// socket is closed.
const DefaultDisconnectGrace = 2 * time.Second

// dialAttempt is shared by every caller waiting on the same in-flight dial.
type dialAttempt struct {
	done   chan struct{}
	socket Socket
	err    error
}

// ConnectionManager owns the single socket of the process.
type ConnectionManager struct {
	dialer Dialer
	url    string
	clock  clock.Clock
	logger zerolog.Logger
	grace  time.Duration

	mu           sync.Mutex
	socket       Socket
	inflight     *dialAttempt
	connectedAt  time.Time
	subscribers  int
	disconnectAt time.Time
	dials        int

	wake chan struct{}
}

// NewConnectionManager returns a manager that dials url with dialer.
func NewConnectionManager(dialer Dialer, url string, clk clock.Clock, logger zerolog.Logger, grace time.Duration) *ConnectionManager {
	if grace <= 0 {
		grace = DefaultDisconnectGrace
	}
	return &ConnectionManager{
		dialer: dialer,
		url:    url,
		clock:  clock.Or(clk),
		logger: logger.With().Str("component", "connection").Logger(),
		grace:  grace,
		wake:   make(chan struct{}, 1),
	}
}

// Acquire returns the open socket, dialing when none exists. Concurrent
// callers share one dial and get the same socket or the same error.
func (m *ConnectionManager) Acquire(ctx context.Context) (Socket, error) {
	m.mu.Lock()
	if m.socket != nil {
		s := m.socket
		m.mu.Unlock()
		return s, nil
	}
	if attempt := m.inflight; attempt != nil {
		m.mu.Unlock()
		select {
		case <-attempt.done:
			return attempt.socket, attempt.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	attempt := &dialAttempt{done: make(chan struct{})}
	m.inflight = attempt
	m.dials++
	m.mu.Unlock()

	sock, err := m.dialer.Dial(ctx, m.url)

	m.mu.Lock()
	m.inflight = nil
	if err == nil {
		m.socket = sock
		m.connectedAt = m.clock.Now()
	}
	attempt.socket, attempt.err = sock, err
	close(attempt.done)
	m.mu.Unlock()

	if err != nil {
		m.logger.Debug().Err(err).Str("url", m.url).Msg("dial failed")
		return nil, err
	}
	m.logger.Info().Str("url", m.url).Msg("socket connected")
	return sock, nil
}

// Current returns the open socket or nil.
func (m *ConnectionManager) Current() Socket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.socket
}

// Open implements Transport.
func (m *ConnectionManager) Open() bool {
	return m.Current() != nil
}

// Write implements Transport.
func (m *ConnectionManager) Write(ctx context.Context, data []byte) error {
	s := m.Current()
	if s == nil {
		return ErrNotConnected
	}
	return s.Write(ctx, data)
}

// Drop forgets sock if it is the current socket and closes it. It reports
// whether sock was current; false means someone else already tore it down.
func (m *ConnectionManager) Drop(sock Socket, reason string) bool {
	m.mu.Lock()
	current := sock != nil && m.socket == sock
	if current {
		m.socket = nil
		m.connectedAt = time.Time{}
	}
	m.mu.Unlock()
	if current {
		_ = sock.Close(reason)
	}
	return current
}

// ConnectedAt returns when the current socket opened, zero when closed.
func (m *ConnectionManager) ConnectedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectedAt
}

// Dials returns how many dial attempts were started.
func (m *ConnectionManager) Dials() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dials
}

// RegisterSubscriber counts a consumer in and cancels a pending disconnect.
func (m *ConnectionManager) RegisterSubscriber() int {
	m.mu.Lock()
	m.subscribers++
	n := m.subscribers
	m.disconnectAt = time.Time{}
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return n
}

// ReleaseSubscriber counts a consumer out. The last release schedules a
// disconnect after the grace period.
func (m *ConnectionManager) ReleaseSubscriber() int {
	m.mu.Lock()
	if m.subscribers > 0 {
		m.subscribers--
	}
	n := m.subscribers
	m.mu.Unlock()

	if n == 0 {
		m.ScheduleDisconnect(m.grace)
	}
	return n
}

// Subscribers returns the current subscriber count.
func (m *ConnectionManager) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribers
}

// Wanted reports whether anyone needs the socket.
func (m *ConnectionManager) Wanted() bool {
	return m.Subscribers() > 0
}

// Wake is signalled when a subscriber registers.
func (m *ConnectionManager) Wake() <-chan struct{} {
	return m.wake
}

// ScheduleDisconnect arranges for the socket to close after delay unless a
// subscriber registers first.
func (m *ConnectionManager) ScheduleDisconnect(delay time.Duration) {
	m.mu.Lock()
	m.disconnectAt = m.clock.Now().Add(delay)
	m.mu.Unlock()
}

// CancelScheduledDisconnect drops a pending disconnect.
func (m *ConnectionManager) CancelScheduledDisconnect() {
	m.mu.Lock()
	m.disconnectAt = time.Time{}
	m.mu.Unlock()
}

// DisconnectPending reports whether a disconnect is scheduled.
func (m *ConnectionManager) DisconnectPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.disconnectAt.IsZero()
}

// Tick closes the socket once a scheduled disconnect is due and nobody has
// subscribed since. It reports whether a socket was closed.
func (m *ConnectionManager) Tick(now time.Time) bool {
	m.mu.Lock()
	if m.disconnectAt.IsZero() || now.Before(m.disconnectAt) {
		m.mu.Unlock()
		return false
	}
	m.disconnectAt = time.Time{}
	if m.subscribers > 0 || m.socket == nil {
		m.mu.Unlock()
		return false
	}
	sock := m.socket
	m.socket = nil
	m.connectedAt = time.Time{}
	m.mu.Unlock()

	_ = sock.Close("no subscribers")
	m.logger.Info().Msg("socket closed after grace period")
	return true
}

// Close tears the socket down immediately.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	sock := m.socket
	m.socket = nil
	m.connectedAt = time.Time{}
	m.disconnectAt = time.Time{}
	m.mu.Unlock()
	if sock != nil {
		_ = sock.Close("shutdown")
	}
}
