package state

import (
	"encoding/json"
	"time"

	"github.com/five82/frontdesk/internal/protocol"
)

// State is the canonical client view of the server dataset. Values are
// treated as immutable: Reduce never writes into maps or slices reachable
// from its input.
type State struct {
	Reservations  map[protocol.WaID][]protocol.Reservation
	Conversations map[protocol.WaID][]protocol.Message
	Vacations     []protocol.VacationPeriod
	IsConnected   bool
	LastUpdate    time.Time // zero until the first applied frame
}

// Empty returns a state with initialized maps.
func Empty() State {
	return State{
		Reservations:  map[protocol.WaID][]protocol.Reservation{},
		Conversations: map[protocol.WaID][]protocol.Message{},
	}
}

// Reduce applies one inbound frame and returns the next state. Unknown types
// and undecodable payloads return prev unchanged.
func Reduce(prev State, f protocol.Frame) State {
	switch f.Type {
	case protocol.TypeSnapshot:
		return reduceSnapshot(prev, f)
	case protocol.TypeReservationCreated, protocol.TypeReservationUpdated:
		var r protocol.Reservation
		if !decode(f.Data, &r) {
			return prev
		}
		return upsertReservation(prev, r, f.At(), false)
	case protocol.TypeReservationReinstated:
		var r protocol.Reservation
		if !decode(f.Data, &r) {
			return prev
		}
		r.Cancelled = false
		return upsertReservation(prev, r, f.At(), true)
	case protocol.TypeReservationCancelled:
		var r protocol.Reservation
		if !decode(f.Data, &r) {
			return prev
		}
		r.Cancelled = true
		if r.Status == "" {
			r.Status = "cancelled"
		}
		return upsertReservation(prev, r, f.At(), true)
	case protocol.TypeConversationMessage:
		var m protocol.ConversationMessage
		if !decode(f.Data, &m) || m.WaID == "" {
			return prev
		}
		return appendMessage(prev, m, f.At())
	case protocol.TypeVacationUpdated:
		periods, ok := decodeVacations(f.Data)
		if !ok {
			return prev
		}
		next := prev
		next.Vacations = periods
		next.LastUpdate = f.At()
		return next
	default:
		// metrics_updated and protocol signals do not touch the dataset.
		return prev
	}
}

func reduceSnapshot(prev State, f protocol.Frame) State {
	var snap protocol.SnapshotData
	if !decode(f.Data, &snap) {
		return prev
	}
	next := Empty()
	next.IsConnected = prev.IsConnected
	next.LastUpdate = f.At()
	for waID, list := range snap.Reservations {
		dup := make([]protocol.Reservation, len(list))
		copy(dup, list)
		for i := range dup {
			if dup[i].WaID == "" {
				dup[i].WaID = waID
			}
		}
		next.Reservations[waID] = dup
	}
	for waID, list := range snap.Conversations {
		next.Conversations[waID] = dedupMessages(list)
	}
	if len(snap.Vacations) > 0 {
		next.Vacations = append([]protocol.VacationPeriod(nil), snap.Vacations...)
	}
	return next
}

// upsertReservation replaces the entry with the same identity or appends.
// With overlay set, only non-zero incoming fields replace the stored ones;
// cancel/reinstate frames often carry little more than the id.
func upsertReservation(prev State, r protocol.Reservation, at time.Time, overlay bool) State {
	owner := r.WaID
	foundOwner, foundIdx := locateReservation(prev.Reservations, r)
	if owner == "" {
		owner = foundOwner
	}
	if owner == "" {
		return prev
	}
	r.WaID = owner

	next := prev
	next.Reservations = cloneReservationMap(prev.Reservations)
	next.LastUpdate = at

	if foundOwner != "" && foundOwner != owner {
		// Reassigned to another customer: move it.
		existing := prev.Reservations[foundOwner][foundIdx]
		if overlay {
			r = overlayReservation(existing, r)
		}
		next.Reservations[foundOwner] = removeAt(prev.Reservations[foundOwner], foundIdx)
		if len(next.Reservations[foundOwner]) == 0 {
			delete(next.Reservations, foundOwner)
		}
		foundIdx = -1
	}

	list := prev.Reservations[owner]
	idx := -1
	if foundOwner == owner {
		idx = foundIdx
	}
	dup := make([]protocol.Reservation, len(list), len(list)+1)
	copy(dup, list)
	if idx >= 0 {
		if overlay {
			r = overlayReservation(dup[idx], r)
		}
		dup[idx] = r
	} else {
		dup = append(dup, r)
	}
	next.Reservations[owner] = dup
	return next
}

func locateReservation(all map[protocol.WaID][]protocol.Reservation, r protocol.Reservation) (protocol.WaID, int) {
	if r.WaID != "" {
		if idx := indexReservation(all[r.WaID], r); idx >= 0 {
			return r.WaID, idx
		}
	}
	if r.ID == 0 {
		return "", -1
	}
	for waID, list := range all {
		if idx := indexReservation(list, r); idx >= 0 {
			return waID, idx
		}
	}
	return "", -1
}

func indexReservation(list []protocol.Reservation, r protocol.Reservation) int {
	for i, existing := range list {
		if r.ID != 0 {
			if existing.ID == r.ID {
				return i
			}
			continue
		}
		if existing.ID == 0 && existing.Date == r.Date && existing.TimeSlot == r.TimeSlot {
			return i
		}
	}
	return -1
}

func overlayReservation(base, in protocol.Reservation) protocol.Reservation {
	out := base
	if in.ID != 0 {
		out.ID = in.ID
	}
	if in.WaID != "" {
		out.WaID = in.WaID
	}
	if in.CustomerName != "" {
		out.CustomerName = in.CustomerName
	}
	if in.Date != "" {
		out.Date = in.Date
	}
	if in.TimeSlot != "" {
		out.TimeSlot = in.TimeSlot
	}
	if in.Type != 0 {
		out.Type = in.Type
	}
	if in.Status != "" {
		out.Status = in.Status
	}
	if in.UpdatedAt != "" {
		out.UpdatedAt = in.UpdatedAt
	}
	out.Cancelled = in.Cancelled
	return out
}

func appendMessage(prev State, m protocol.ConversationMessage, at time.Time) State {
	list := prev.Conversations[m.WaID]
	key := m.Message.DedupKey()
	for _, existing := range list {
		if existing.DedupKey() == key {
			return prev
		}
	}
	next := prev
	next.Conversations = cloneConversationMap(prev.Conversations)
	dup := make([]protocol.Message, len(list), len(list)+1)
	copy(dup, list)
	next.Conversations[m.WaID] = append(dup, m.Message)
	next.LastUpdate = at
	return next
}

func dedupMessages(list []protocol.Message) []protocol.Message {
	seen := make(map[string]struct{}, len(list))
	out := make([]protocol.Message, 0, len(list))
	for _, m := range list {
		key := m.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}

func decodeVacations(data json.RawMessage) ([]protocol.VacationPeriod, bool) {
	var payload struct {
		Periods   *[]protocol.VacationPeriod `json:"periods"`
		Vacations *[]protocol.VacationPeriod `json:"vacations"`
	}
	if !decode(data, &payload) {
		return nil, false
	}
	switch {
	case payload.Periods != nil:
		return append([]protocol.VacationPeriod(nil), (*payload.Periods)...), true
	case payload.Vacations != nil:
		return append([]protocol.VacationPeriod(nil), (*payload.Vacations)...), true
	}
	return nil, false
}

func decode(data json.RawMessage, dest any) bool {
	if len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func removeAt(list []protocol.Reservation, idx int) []protocol.Reservation {
	out := make([]protocol.Reservation, 0, len(list)-1)
	out = append(out, list[:idx]...)
	return append(out, list[idx+1:]...)
}

func cloneReservationMap(in map[protocol.WaID][]protocol.Reservation) map[protocol.WaID][]protocol.Reservation {
	out := make(map[protocol.WaID][]protocol.Reservation, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneConversationMap(in map[protocol.WaID][]protocol.Message) map[protocol.WaID][]protocol.Message {
	out := make(map[protocol.WaID][]protocol.Message, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
