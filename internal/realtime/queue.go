package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/frontdesk/internal/clock"
	"github.com/five82/frontdesk/internal/protocol"
)

// DefaultQueueTimeout is how long an outbound message may wait for a socket.
const DefaultQueueTimeout = 10 * time.Second

const writeTimeout = 5 * time.Second

// Transport is what the queue writes to.
type Transport interface {
	Open() bool
	Write(ctx context.Context, data []byte) error
}

type queued struct {
	msg        protocol.Outbound
	payload    []byte
	enqueuedAt time.Time
	result     chan bool
}

// Queue holds outbound messages while the socket is down and delivers them
// in submission order once it is back. A message that waits past the
// timeout resolves false.
type Queue struct {
	transport Transport
	clock     clock.Clock
	timeout   time.Duration
	logger    zerolog.Logger

	mu    sync.Mutex
	items []*queued
}

// NewQueue returns a queue writing to transport.
func NewQueue(transport Transport, clk clock.Clock, timeout time.Duration, logger zerolog.Logger) *Queue {
	if timeout <= 0 {
		timeout = DefaultQueueTimeout
	}
	return &Queue{
		transport: transport,
		clock:     clock.Or(clk),
		timeout:   timeout,
		logger:    logger.With().Str("component", "queue").Logger(),
	}
}

// Submit sends msg now when the socket is open and nothing is waiting ahead
// of it, and otherwise enqueues it. The returned channel yields exactly one
// value: true once written, false on expiry or encode failure.
func (q *Queue) Submit(ctx context.Context, msg protocol.Outbound) <-chan bool {
	result := make(chan bool, 1)
	payload, err := protocol.Encode(msg)
	if err != nil {
		q.logger.Warn().Err(err).Str("type", msg.Type).Msg("drop unencodable message")
		result <- false
		return result
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 && q.transport.Open() {
		err := q.write(ctx, payload)
		if err == nil {
			result <- true
			return result
		}
		q.logger.Debug().Err(err).Str("type", msg.Type).Msg("immediate send failed, queueing")
	}
	q.items = append(q.items, &queued{
		msg:        msg,
		payload:    payload,
		enqueuedAt: q.clock.Now(),
		result:     result,
	})
	return result
}

// Send is Submit followed by a wait. It returns false when ctx ends first.
func (q *Queue) Send(ctx context.Context, msg protocol.Outbound) bool {
	select {
	case ok := <-q.Submit(ctx, msg):
		return ok
	case <-ctx.Done():
		return false
	}
}

// Flush expires stale entries from the head and writes the rest in order
// while the socket accepts them. It returns how many were sent and expired.
func (q *Queue) Flush(ctx context.Context) (sent, expired int) {
	now := q.clock.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) > 0 {
		head := q.items[0]
		if now.Sub(head.enqueuedAt) >= q.timeout {
			q.items = q.items[1:]
			head.result <- false
			expired++
			q.logger.Warn().Str("type", head.msg.Type).Msg("outbound message expired")
			continue
		}
		if !q.transport.Open() {
			break
		}
		if err := q.write(ctx, head.payload); err != nil {
			q.logger.Debug().Err(err).Str("type", head.msg.Type).Msg("flush write failed")
			break
		}
		q.items = q.items[1:]
		head.result <- true
		sent++
	}
	if len(q.items) == 0 {
		q.items = nil
	}
	return sent, expired
}

// Len returns the number of waiting messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain resolves every waiting message false.
func (q *Queue) Drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	for _, item := range q.items {
		item.result <- false
	}
	q.items = nil
	return n
}

func (q *Queue) write(ctx context.Context, payload []byte) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return q.transport.Write(wctx, payload)
}
