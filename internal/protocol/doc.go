// Package protocol defines the wire format shared with the reservation server.
//
// # Overview
//
// Every message on the socket is a JSON object with a string "type" and an
// object "data". Inbound frames may also carry an ISO-8601 "timestamp".
//
//	inbound:  {"type": "reservation_updated", "data": {...}, "timestamp": "2024-01-01T10:00:00Z"}
//	outbound: {"type": "conversation_send_message", "data": {"wa_id": "123", "message": "hi"}}
//
// # Validation
//
// Decoder checks the envelope against a JSON Schema before decoding. Payload
// shapes are not validated here; the reducer decodes them per type and
// ignores what it cannot read.
//
// # Identifiers
//
// WaID is the customer identifier and the grouping key for reservations and
// conversations. The server is inconsistent about emitting it as a string or a
// number, so WaID decodes both.
//
// Fields extracts the handful of identifying members (wa_id, id, date,
// time_slot, time, role, message) used by echo suppression and notification
// dedup without committing to a full payload type.
package protocol
