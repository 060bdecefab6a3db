package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/frontdesk/internal/backend"
	"github.com/five82/frontdesk/internal/cache"
	"github.com/five82/frontdesk/internal/clock"
	"github.com/five82/frontdesk/internal/events"
	"github.com/five82/frontdesk/internal/protocol"
	"github.com/five82/frontdesk/internal/state"
	"github.com/five82/frontdesk/internal/undo"
)

// DefaultFlushInterval is the scheduler period.
const DefaultFlushInterval = 500 * time.Millisecond

// Options configure an Engine. Zero durations take the package defaults.
type Options struct {
	URL      string
	Dialer   Dialer
	Fallback backend.Fallback
	Cache    *cache.Cache
	Initial  state.State
	Clock    clock.Clock
	Logger   zerolog.Logger

	QueueTimeout    time.Duration
	FlushInterval   time.Duration
	EchoTTL         time.Duration
	ChatEchoTTL     time.Duration
	DisconnectGrace time.Duration
	DedupWindow     time.Duration
	ReconnectBase   time.Duration
	UndoDepth       int
}

// Metrics is the last metrics_updated payload. It is kept apart from the
// domain state so dashboard refreshes do not churn it.
type Metrics struct {
	Data       json.RawMessage
	ReceivedAt time.Time
}

// Engine is the process-wide realtime context: one socket, one queue, one
// state store and the buses that fan updates out to consumers.
type Engine struct {
	clock  clock.Clock
	logger zerolog.Logger

	conn     *ConnectionManager
	queue    *Queue
	echo     *EchoRegistry
	gate     *Gate
	store    *state.Store
	cache    *cache.Cache
	undo     *undo.Stack
	fallback backend.Fallback
	decoder  *protocol.Decoder

	realtime      *events.Bus[protocol.Frame]
	notifications *events.Bus[Notification]
	metrics       atomic.Pointer[Metrics]

	flushInterval time.Duration
	echoTTL       time.Duration
	chatEchoTTL   time.Duration
	reconnectBase time.Duration

	inbound chan protocol.Frame
}

// New wires an Engine. Nothing is dialled until Run is called and a
// subscriber registers.
func New(opts Options) (*Engine, error) {
	decoder, err := protocol.NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("init frame decoder: %w", err)
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = WebSocketDialer{}
	}
	clk := clock.Or(opts.Clock)
	logger := opts.Logger.With().Str("component", "realtime").Logger()

	flush := opts.FlushInterval
	if flush <= 0 {
		flush = DefaultFlushInterval
	}
	echoTTL := opts.EchoTTL
	if echoTTL <= 0 {
		echoTTL = DefaultEchoTTL
	}
	chatTTL := opts.ChatEchoTTL
	if chatTTL <= 0 {
		chatTTL = DefaultChatEchoTTL
	}
	base := opts.ReconnectBase
	if base <= 0 {
		base = DefaultReconnectBase
	}

	conn := NewConnectionManager(dialer, opts.URL, clk, opts.Logger, opts.DisconnectGrace)
	echo := NewEchoRegistry(clk, echoTTL)
	e := &Engine{
		clock:         clk,
		logger:        logger,
		conn:          conn,
		queue:         NewQueue(conn, clk, opts.QueueTimeout, opts.Logger),
		echo:          echo,
		gate:          NewGate(clk, echo, opts.DedupWindow),
		store:         state.NewStore(opts.Initial, clk),
		cache:         opts.Cache,
		undo:          undo.NewStack(opts.UndoDepth),
		fallback:      opts.Fallback,
		decoder:       decoder,
		realtime:      events.NewBus[protocol.Frame](),
		notifications: events.NewBus[Notification](),
		flushInterval: flush,
		echoTTL:       echoTTL,
		chatEchoTTL:   chatTTL,
		reconnectBase: base,
		inbound:       make(chan protocol.Frame, 64),
	}
	if e.cache != nil {
		e.cache.Seed(e.store.Version())
	}
	return e, nil
}

// Run drives the engine until ctx ends: a connect loop that (re)dials while
// anyone is subscribed, and a single scheduler that applies frames in order
// and does the periodic queue, marker, disconnect and cache work.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.connectLoop(ctx)
	}()

	ticker := time.NewTicker(e.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.conn.Close()
			wg.Wait()
			if n := e.queue.Drain(); n > 0 {
				e.logger.Warn().Int("count", n).Msg("dropping unsent messages on shutdown")
			}
			if e.cache != nil {
				snap := e.store.Snapshot()
				e.cache.Flush(snap.State, snap.Version)
			}
			e.realtime.Close()
			e.notifications.Close()
			return nil
		case f := <-e.inbound:
			e.Handle(f)
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

func (e *Engine) connectLoop(ctx context.Context) {
	policy := reconnectPolicy{base: e.reconnectBase}
	for ctx.Err() == nil {
		if !e.conn.Wanted() {
			select {
			case <-ctx.Done():
				return
			case <-e.conn.Wake():
				continue
			}
		}

		sock, err := e.conn.Acquire(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.store.SetConnected(false, err)
			delay := withJitter(policy.dialFailed())
			e.logger.Warn().Err(err).Int("attempt", policy.failures).Dur("retry_in", delay).Msg("connect failed")
			if !sleepContext(ctx, delay) {
				return
			}
			continue
		}
		connectedAt := e.clock.Now()
		e.store.SetConnected(true, nil)
		e.queue.Flush(ctx)

		err = e.readLoop(ctx, sock)
		current := e.conn.Drop(sock, "read failed")
		if ctx.Err() != nil {
			return
		}
		if !current {
			// Closed on purpose, typically after the grace period.
			e.store.SetConnected(false, nil)
			continue
		}
		e.store.SetConnected(false, err)
		uptime := e.clock.Now().Sub(connectedAt)
		delay := withJitter(policy.dropped(uptime))
		e.logger.Warn().Err(err).Dur("uptime", uptime).Dur("retry_in", delay).Msg("socket dropped")
		if !sleepContext(ctx, delay) {
			return
		}
	}
}

func (e *Engine) readLoop(ctx context.Context, sock Socket) error {
	for {
		data, err := sock.Read(ctx)
		if err != nil {
			return err
		}
		f, err := e.decoder.Decode(data)
		if err != nil {
			e.logger.Warn().Err(err).Int("bytes", len(data)).Msg("skipping invalid frame")
			continue
		}
		f.ReceivedAt = e.clock.Now()
		select {
		case e.inbound <- f:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Handle applies one inbound frame: state, then the realtime bus, then the
// notification gate.
func (e *Engine) Handle(f protocol.Frame) {
	defer e.recoverPanic("handle " + f.Type)

	if f.ReceivedAt.IsZero() {
		f.ReceivedAt = e.clock.Now()
	}
	if f.Type == protocol.TypeMetricsUpdated {
		e.metrics.Store(&Metrics{Data: f.Data, ReceivedAt: f.ReceivedAt})
	}
	if _, changed := e.store.Apply(f); changed {
		e.logger.Debug().Str("type", f.Type).Uint64("version", e.store.Version()).Msg("state updated")
	}
	e.realtime.Publish(f)

	if d := e.gate.Decide(f.Type, f.Data); d.Notify() {
		e.notifications.Publish(Notification{
			Type:  f.Type,
			Data:  f.Data,
			TS:    f.At(),
			Local: d.Local,
		})
	}
}

// HandleRaw decodes and applies a raw frame. Invalid frames are logged and
// reported.
func (e *Engine) HandleRaw(raw []byte) error {
	f, err := e.decoder.Decode(raw)
	if err != nil {
		e.logger.Warn().Err(err).Msg("skipping invalid frame")
		return err
	}
	e.Handle(f)
	return nil
}

// Tick runs one scheduler pass.
func (e *Engine) Tick(ctx context.Context) {
	defer e.recoverPanic("tick")

	now := e.clock.Now()
	if sent, expired := e.queue.Flush(ctx); sent+expired > 0 {
		e.logger.Debug().Int("sent", sent).Int("expired", expired).Msg("queue flushed")
	}
	e.echo.Sweep()
	e.gate.Sweep()
	e.conn.Tick(now)
	if e.cache != nil {
		snap := e.store.Snapshot()
		e.cache.MaybePersist(snap.State, snap.Version)
	}
}

// Subscribe counts a consumer of the socket in. The returned release func
// counts it out; it is safe to call more than once.
func (e *Engine) Subscribe() (release func()) {
	e.conn.RegisterSubscriber()
	var once sync.Once
	return func() {
		once.Do(func() { e.conn.ReleaseSubscriber() })
	}
}

// State returns the current state snapshot.
func (e *Engine) State() state.Snapshot {
	return e.store.Snapshot()
}

// Metrics returns the last metrics payload, if any arrived.
func (e *Engine) Metrics() (Metrics, bool) {
	m := e.metrics.Load()
	if m == nil {
		return Metrics{}, false
	}
	return *m, true
}

// Realtime is the bus of every applied inbound frame.
func (e *Engine) Realtime() *events.Bus[protocol.Frame] {
	return e.realtime
}

// Notifications is the bus of frames that passed the notification gate.
func (e *Engine) Notifications() *events.Bus[Notification] {
	return e.notifications
}

// Connection exposes the connection manager.
func (e *Engine) Connection() *ConnectionManager {
	return e.conn
}

// QueueLen returns the number of messages waiting for the socket.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// CanUndo reports whether Undo has something to run.
func (e *Engine) CanUndo() bool {
	return e.undo.CanUndo()
}

func (e *Engine) recoverPanic(where string) {
	if r := recover(); r != nil {
		e.logger.Error().Interface("panic", r).Str("where", where).Msg("recovered panic")
	}
}
