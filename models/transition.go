package models

import "time"

// TransitionKind names a committed state change.
type TransitionKind string

const (
	TransitionOrderCreated         TransitionKind = "order.created"
	TransitionOrderStatusChanged   TransitionKind = "order.status_changed"
	TransitionPaymentStatusChanged TransitionKind = "order.payment_changed"
	TransitionRatingsSubmitted     TransitionKind = "order.ratings_submitted"
	TransitionOrderAttached        TransitionKind = "order.attached"
	TransitionReservationCreated   TransitionKind = "reservation.created"
	TransitionSessionStarted       TransitionKind = "session.started"
	TransitionSessionEnded         TransitionKind = "session.ended"
	TransitionBillGenerated        TransitionKind = "bill.generated"
	TransitionBillSettled          TransitionKind = "bill.settled"
	TransitionTableStatusChanged   TransitionKind = "table.status_changed"
)

// Transition is the record emitted after a mutation is committed. Only the
// fields relevant to Kind are set; all entity values are post-commit copies.
type Transition struct {
	Kind           TransitionKind `json:"kind"`
	Order          *Order         `json:"order,omitempty"`
	PreviousStatus string         `json:"previous_status,omitempty"`
	Session        *TableSession  `json:"session,omitempty"`
	Table          *Table         `json:"table,omitempty"`
	Bill           *Bill          `json:"bill,omitempty"`
	Reservation    *Reservation   `json:"reservation,omitempty"`
	CommittedAt    time.Time      `json:"committed_at"`
}

// EntityID returns the id of the primary entity of the transition.
func (t Transition) EntityID() string {
	switch {
	case t.Order != nil:
		return t.Order.ID
	case t.Bill != nil:
		return t.Bill.ID
	case t.Session != nil:
		return t.Session.ID
	case t.Reservation != nil:
		return t.Reservation.ID
	case t.Table != nil:
		return t.Table.ID
	}
	return ""
}
