// Package state holds the client's canonical copy of the reservation/chat
// dataset and the pure reducer that advances it.
//
// # Overview
//
// Every inbound socket frame is folded into a State by Reduce. The Store wraps
// the current State behind a readers-writer lock so the engine (single
// writer) and the UI and cache (readers) can share it.
//
//	socket frame ──> Reduce(prev, frame) ──> next State ──> Store
//	                                                     ├──> cache persist
//	                                                     └──> UI Snapshot()
//
// # Reducer Semantics
//
//	snapshot                  full replace of reservations, conversations, vacations
//	reservation_created       upsert by id inside the wa_id list (last write wins)
//	reservation_updated       same as created
//	reservation_reinstated    overlay onto the stored entry, cancelled=false
//	reservation_cancelled     overlay onto the stored entry, cancelled=true (kept, not deleted)
//	conversation_new_message  append unless (date, time, message) already present
//	vacation_period_updated   replace the vacation list
//	anything else             unchanged
//
// Redelivering a conversation_new_message is idempotent. When a reservation
// frame omits wa_id the entry is located by id across all customers; when the
// wa_id differs from where the id currently lives the entry moves.
//
// # Immutability
//
// Reduce never writes into maps or slices reachable from its input. Changed
// maps and the touched per-customer slice are copied; untouched slices are
// shared between old and new states. Consumers must treat State as
// read-only. Because unchanged frames return the previous value as-is, the
// Store detects "no change" by identity and only bumps Version for real
// changes; the cache uses Version as its dirty flag.
//
// # Connection Bookkeeping
//
// Snapshot also carries IsConnected, the last connect error, and a
// consecutive failure counter. Two or more failures without a successful
// connect mark the snapshot offline, which the UI shows in the header.
//
// # Testing Considerations
//
// Reduce is a pure function and is tested with literal frames. The zero
// Store is usable; NewStore seeds it from the cache at boot.
package state
