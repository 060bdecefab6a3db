package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/five82/frontdesk/internal/backend"
	"github.com/five82/frontdesk/internal/protocol"
)

var errClosed = errors.New("socket closed")

type fakeSocket struct {
	incoming chan []byte
	done     chan struct{}

	mu     sync.Mutex
	writes [][]byte
	closed bool
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{incoming: make(chan []byte, 16), done: make(chan struct{})}
}

func (s *fakeSocket) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-s.incoming:
		return data, nil
	case <-s.done:
		return nil, errClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeSocket) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	s.writes = append(s.writes, append([]byte(nil), data...))
	return nil
}

func (s *fakeSocket) Close(string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

func (s *fakeSocket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSocket) written() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.writes...)
}

// fakeDialer hands out fresh fakeSockets. When gate is non-nil each Dial
// blocks until it is closed; entered is signalled on every Dial.
type fakeDialer struct {
	gate    chan struct{}
	entered chan struct{}
	err     error

	mu      sync.Mutex
	sockets []*fakeSocket
}

func (d *fakeDialer) Dial(ctx context.Context, _ string) (Socket, error) {
	if d.entered != nil {
		select {
		case d.entered <- struct{}{}:
		default:
		}
	}
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	s := newFakeSocket()
	d.mu.Lock()
	d.sockets = append(d.sockets, s)
	d.mu.Unlock()
	return s, nil
}

func (d *fakeDialer) last() *fakeSocket {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sockets) == 0 {
		return nil
	}
	return d.sockets[len(d.sockets)-1]
}

type fakeTransport struct {
	mu      sync.Mutex
	open    bool
	failing error
	writes  []string
}

func (t *fakeTransport) Open() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *fakeTransport) Write(_ context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return ErrNotConnected
	}
	if t.failing != nil {
		return t.failing
	}
	t.writes = append(t.writes, string(data))
	return nil
}

func (t *fakeTransport) set(open bool, failing error) {
	t.mu.Lock()
	t.open = open
	t.failing = failing
	t.mu.Unlock()
}

func (t *fakeTransport) written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.writes...)
}

type fakeFallback struct {
	mu         sync.Mutex
	sent       []string
	created    []backend.ReservationRequest
	modified   []backend.ReservationRequest
	cancelled  []int64
	reinstated []int64
	nextID     int64
	failCancel error
	failReinst error
}

func (f *fakeFallback) SendMessage(_ context.Context, waID protocol.WaID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, string(waID)+":"+message)
	return nil
}

func (f *fakeFallback) CreateReservation(_ context.Context, req backend.ReservationRequest) (protocol.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	f.nextID++
	return protocol.Reservation{ID: f.nextID, WaID: req.WaID, Date: req.Date, TimeSlot: req.TimeSlot}, nil
}

func (f *fakeFallback) ModifyReservation(_ context.Context, req backend.ReservationRequest) (protocol.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modified = append(f.modified, req)
	return protocol.Reservation{ID: req.ID, WaID: req.WaID, Date: req.Date, TimeSlot: req.TimeSlot}, nil
}

func (f *fakeFallback) CancelReservation(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCancel != nil {
		return f.failCancel
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeFallback) ReinstateReservation(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReinst != nil {
		return f.failReinst
	}
	f.reinstated = append(f.reinstated, id)
	return nil
}
