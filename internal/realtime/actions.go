package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/five82/frontdesk/internal/backend"
	"github.com/five82/frontdesk/internal/protocol"
	"github.com/five82/frontdesk/internal/undo"
)

var (
	// ErrQueueTimeout means a socket message expired and no REST fallback
	// was available.
	ErrQueueTimeout = errors.New("message not delivered before timeout")

	// ErrNoFallback means a REST-only action was attempted without a client.
	ErrNoFallback = errors.New("rest client not configured")

	// ErrNothingToUndo is returned by Undo on an empty stack.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// SendChatMessage sends text to a customer over the socket, falling back to
// REST when the queued message expires.
func (e *Engine) SendChatMessage(ctx context.Context, waID protocol.WaID, text string) error {
	if waID == "" {
		return fmt.Errorf("wa_id required")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message is empty")
	}
	e.echo.MarkOperation(protocol.TypeConversationMessage, protocol.Fields{WaID: waID, Message: text}, e.chatEchoTTL)

	msg := protocol.Outbound{
		Type: protocol.TypeSendMessage,
		Data: protocol.SendMessageData{WaID: waID, Message: text},
	}
	if e.queue.Send(ctx, msg) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.fallback == nil {
		return ErrQueueTimeout
	}
	e.logger.Info().Str("wa_id", string(waID)).Msg("socket send expired, using rest fallback")
	if err := e.fallback.SendMessage(ctx, waID, text); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SetTyping tells the server whether the operator is typing to waID. It is
// best effort and never queued.
func (e *Engine) SetTyping(ctx context.Context, waID protocol.WaID, typing bool) error {
	if !e.conn.Open() {
		return ErrNotConnected
	}
	payload, err := protocol.Encode(protocol.Outbound{
		Type: protocol.TypeSecretaryTyping,
		Data: protocol.TypingData{WaID: waID, Typing: typing},
	})
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := e.conn.Write(wctx, payload); err != nil {
		e.logger.Debug().Err(err).Msg("typing indicator not sent")
		return err
	}
	return nil
}

// RequestSnapshot asks the server to resend the full dataset.
func (e *Engine) RequestSnapshot(ctx context.Context) bool {
	return e.queue.Send(ctx, protocol.Outbound{Type: protocol.TypeGetSnapshot})
}

// CreateReservation books a slot and records a cancel as its undo.
func (e *Engine) CreateReservation(ctx context.Context, req backend.ReservationRequest) (protocol.Reservation, error) {
	return e.createReservation(ctx, req, true)
}

// ModifyReservation changes a reservation and records the previous values
// as its undo when they are known.
func (e *Engine) ModifyReservation(ctx context.Context, req backend.ReservationRequest) (protocol.Reservation, error) {
	return e.modifyReservation(ctx, req, true)
}

// CancelReservation cancels a reservation and records a reinstate as its
// undo. It returns the undo operation's id for UndoByID.
func (e *Engine) CancelReservation(ctx context.Context, id int64) (string, error) {
	if err := e.cancelReservation(ctx, id); err != nil {
		return "", err
	}
	return e.undo.Add(undo.Operation{
		Description: fmt.Sprintf("cancel reservation %d", id),
		Execute: func(ctx context.Context) error {
			return e.reinstateReservation(ctx, id)
		},
	}), nil
}

// ReinstateReservation reverses a cancellation and records a cancel as its
// undo. It returns the undo operation's id for UndoByID.
func (e *Engine) ReinstateReservation(ctx context.Context, id int64) (string, error) {
	if err := e.reinstateReservation(ctx, id); err != nil {
		return "", err
	}
	return e.undo.Add(undo.Operation{
		Description: fmt.Sprintf("reinstate reservation %d", id),
		Execute: func(ctx context.Context) error {
			return e.cancelReservation(ctx, id)
		},
	}), nil
}

// Undo runs the most recent compensating action. A failed undo is not put
// back on the stack.
func (e *Engine) Undo(ctx context.Context) (undo.Operation, error) {
	op, ok := e.undo.Pop()
	if !ok {
		return undo.Operation{}, ErrNothingToUndo
	}
	return op, e.runUndo(ctx, op)
}

// UndoByID runs a specific compensating action, as offered inline on a
// toast.
func (e *Engine) UndoByID(ctx context.Context, id string) (undo.Operation, error) {
	op, ok := e.undo.Take(id)
	if !ok {
		return undo.Operation{}, ErrNothingToUndo
	}
	return op, e.runUndo(ctx, op)
}

func (e *Engine) runUndo(ctx context.Context, op undo.Operation) error {
	if op.Execute == nil {
		return nil
	}
	if err := op.Execute(ctx); err != nil {
		e.logger.Warn().Err(err).Str("op", op.Description).Msg("undo failed")
		return fmt.Errorf("undo %s: %w", op.Description, err)
	}
	e.logger.Info().Str("op", op.Description).Msg("undo applied")
	return nil
}

func (e *Engine) createReservation(ctx context.Context, req backend.ReservationRequest, record bool) (protocol.Reservation, error) {
	if e.fallback == nil {
		return protocol.Reservation{}, ErrNoFallback
	}
	e.echo.MarkOperation(protocol.TypeReservationCreated, requestFields(req), e.echoTTL)

	res, err := e.fallback.CreateReservation(ctx, req)
	if err != nil {
		return protocol.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	e.echo.MarkOperation(protocol.TypeReservationCreated, reservationFields(res), e.echoTTL)

	if record && res.ID != 0 {
		id := res.ID
		e.undo.Add(undo.Operation{
			Description: fmt.Sprintf("create reservation %d", id),
			Execute: func(ctx context.Context) error {
				return e.cancelReservation(ctx, id)
			},
		})
	}
	return res, nil
}

func (e *Engine) modifyReservation(ctx context.Context, req backend.ReservationRequest, record bool) (protocol.Reservation, error) {
	if e.fallback == nil {
		return protocol.Reservation{}, ErrNoFallback
	}
	prev, known := e.findReservation(req.ID)

	marked := requestFields(req)
	if known {
		if marked.WaID == "" {
			marked.WaID = prev.WaID
		}
		if marked.Date == "" {
			marked.Date = prev.Date
		}
		if marked.TimeSlot == "" {
			marked.TimeSlot = prev.TimeSlot
		}
	}
	e.echo.MarkOperation(protocol.TypeReservationUpdated, marked, e.echoTTL)

	res, err := e.fallback.ModifyReservation(ctx, req)
	if err != nil {
		return protocol.Reservation{}, fmt.Errorf("modify reservation %d: %w", req.ID, err)
	}
	if res.ID != 0 {
		e.echo.MarkOperation(protocol.TypeReservationUpdated, reservationFields(res), e.echoTTL)
	}

	if record && known {
		typ := prev.Type
		restore := backend.ReservationRequest{
			ID:           prev.ID,
			WaID:         prev.WaID,
			CustomerName: prev.CustomerName,
			Date:         prev.Date,
			TimeSlot:     prev.TimeSlot,
			Type:         &typ,
		}
		e.undo.Add(undo.Operation{
			Description: fmt.Sprintf("modify reservation %d", prev.ID),
			Execute: func(ctx context.Context) error {
				_, err := e.modifyReservation(ctx, restore, false)
				return err
			},
		})
	}
	return res, nil
}

func (e *Engine) cancelReservation(ctx context.Context, id int64) error {
	if e.fallback == nil {
		return ErrNoFallback
	}
	e.markReservation(protocol.TypeReservationCancelled, id)

	if err := e.fallback.CancelReservation(ctx, id); err != nil {
		return fmt.Errorf("cancel reservation %d: %w", id, err)
	}
	return nil
}

func (e *Engine) reinstateReservation(ctx context.Context, id int64) error {
	if e.fallback == nil {
		return ErrNoFallback
	}
	e.markReservation(protocol.TypeReservationReinstated, id)

	if err := e.fallback.ReinstateReservation(ctx, id); err != nil {
		return fmt.Errorf("reinstate reservation %d: %w", id, err)
	}
	return nil
}

func (e *Engine) markReservation(typ string, id int64) {
	f := protocol.Fields{ID: id}
	if prev, ok := e.findReservation(id); ok {
		f = reservationFields(prev)
	}
	e.echo.MarkOperation(typ, f, e.echoTTL)
}

func (e *Engine) findReservation(id int64) (protocol.Reservation, bool) {
	if id == 0 {
		return protocol.Reservation{}, false
	}
	snap := e.store.Snapshot()
	for waID, list := range snap.Reservations {
		for _, r := range list {
			if r.ID == id {
				if r.WaID == "" {
					r.WaID = waID
				}
				return r, true
			}
		}
	}
	return protocol.Reservation{}, false
}

func requestFields(req backend.ReservationRequest) protocol.Fields {
	return protocol.Fields{ID: req.ID, WaID: req.WaID, Date: req.Date, TimeSlot: req.TimeSlot}
}

func reservationFields(r protocol.Reservation) protocol.Fields {
	return protocol.Fields{ID: r.ID, WaID: r.WaID, Date: r.Date, TimeSlot: r.TimeSlot}
}
