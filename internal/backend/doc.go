// Package backend provides an HTTP client for the reservation server's REST
// API.
//
// # Overview
//
// The realtime socket is the primary channel; this client is the fallback
// used when a queued socket message expires, and the only channel for
// reservation mutations. Every response is wrapped in a common envelope:
//
//	{"success": true, "message": "optional", "data": {...}}
//
// A response with success=false, or a non-retryable HTTP status, surfaces
// as *APIError carrying the server's message.
//
// # Endpoints
//
//   - POST /api/message/send             {wa_id, message}
//   - POST /api/reservations/create      {wa_id, customer_name, date, time_slot, type}
//   - POST /api/reservations/modify      {id, ...changed fields}
//   - POST /api/reservations/cancel      {id}
//   - POST /api/reservations/reinstate   {id}
//
// # Retries
//
// Transport errors, 429 and 5xx answers are retried up to twice with an
// exponential delay (200ms doubling, capped at 2s). A Retry-After header in
// seconds overrides the computed delay, still under the cap. The context
// bounds the whole exchange including waits.
//
// # Usage
//
//	client, err := backend.NewClient("reservations.local", false)
//	if err != nil {
//		return err
//	}
//	if err := client.SendMessage(ctx, "201234567890", "See you at 10"); err != nil {
//		var apiErr *backend.APIError
//		if errors.As(err, &apiErr) {
//			// show apiErr.Message to the user
//		}
//	}
package backend
