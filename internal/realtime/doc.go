// Package realtime keeps one WebSocket connection to the reservation server
// and turns its frames into state, bus events and notifications.
//
// # Overview
//
// An Engine is built once by the application and passed to every consumer.
// It owns:
//
//   - ConnectionManager: the single socket, subscriber counting and the
//     delayed disconnect
//   - Queue: outbound messages waiting for the socket
//   - EchoRegistry: markers for operations this client just performed
//   - Gate: which frames raise notifications, with deduplication
//   - state.Store, undo.Stack and two event buses
//
// # Goroutines
//
//	connectLoop ──dial/read──> inbound chan ──> Run loop ──> Handle(frame)
//	                                               └─ ticker ──> Tick()
//
// connectLoop dials while at least one subscriber is registered and feeds
// decoded frames into a channel. The Run loop is the only goroutine that
// applies frames, so frames are reduced in delivery order. Every
// FlushInterval (500ms) Tick flushes the queue, sweeps expired echo markers
// and gate entries, closes the socket once a scheduled disconnect is due and
// persists the state to the cache when its version moved.
//
// # Connection Lifecycle
//
// Concurrent Acquire calls share one in-flight dial and receive the same
// socket or error. When the last subscriber releases, a disconnect is
// scheduled after a grace period (2s); registering again inside the grace
// cancels it. Failed dials back off exponentially from 1s to 30s with ±20%
// jitter, resetting after a successful connect.
//
// # Outbound Messages
//
// Queue.Submit writes immediately when the socket is open and nothing is
// waiting, and otherwise enqueues. Entries older than the timeout (10s)
// resolve false at the next flush. SendChatMessage falls back to the REST
// client when that happens. Reservation mutations always go over REST.
//
// # Local Echo
//
// Before a mutation is sent, its echo keys are marked for a TTL (15s, chat
// 5s). When the server broadcasts the result, the notification carries
// Local=true so the UI can skip the toast for the operator's own action:
//
//	reservation_*             <type>:<wa_id>:<date>:<time_slot> and <type>:id:<id>
//	conversation_new_message  conversation_new_message:<wa_id>:<message>
//	vacation_period_updated   vacation_period_updated
//
// # Notifications
//
// Only reservation changes, vacation updates and chat messages from the
// customer side (role user or customer) are notifiable. Snapshots, acks,
// typing, document and metrics frames never are. The same event seen again
// within 4s is dropped.
//
// # Undo
//
// Reservation mutations push a compensating action (create ↔ cancel,
// cancel ↔ reinstate, modify ↔ modify back). Undo pops and runs it without
// recording a new entry; a failure is returned and not re-pushed.
//
// # Testing Considerations
//
// All timing reads go through clock.Clock, and Tick and Handle can be called
// directly, so tests drive the queue, markers and disconnect deadline with a
// clock.Manual and fake Dialer/Socket implementations.
package realtime
