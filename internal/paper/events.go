package paper

import (
	"fmt"

	"solana-revival-lab/internal/domain"
)

// EventType identifies a position lifecycle change.
type EventType string

const (
	EventOpened  EventType = "opened"
	EventPartial EventType = "partial"
	EventClosed  EventType = "closed"
)

// Event is delivered on Manager.Events. Position and Trade are copies.
type Event struct {
	Type     EventType
	Position domain.Position
	// Trade is nil for EventOpened.
	Trade *domain.Trade
}

// RejectReason explains why Open refused a position.
type RejectReason string

const (
	RejectMaxPositions     RejectReason = "MAX_POSITIONS"
	RejectInsufficientCash RejectReason = "INSUFFICIENT_CASH"
	RejectPriceUnavailable RejectReason = "PRICE_UNAVAILABLE"
	RejectAlreadyOpen      RejectReason = "ALREADY_OPEN"
)

// Rejection is returned by Open when the position cannot be taken.
// Use errors.As to inspect it.
type Rejection struct {
	Reason RejectReason
	Detail string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("position rejected: %s: %s", r.Reason, r.Detail)
}

// emit sends without blocking. Caller holds m.mu.
func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		m.log.Warn().Str("event", string(ev.Type)).Str("position", ev.Position.ID).Msg("event buffer full, dropping event")
	}
}
