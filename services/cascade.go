package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/store"
)

// closeSessionCascade closes a settled session, releases its table to cleaning
// and its client, and marks a still-pending bill paid. Every step is a conditional single-row
// update recomputed from stored data, so the cascade can be re-run after a
// partial failure and does nothing once complete.
func (e *Engine) closeSessionCascade(ctx context.Context, sessionID string) error {
	session, err := e.store.FindSession(ctx, sessionID)
	if err != nil {
		return err
	}
	now := e.now()

	var errs []error
	var transitions []models.Transition

	billPaid, err := e.store.MarkSessionBillPaid(ctx, session.ID, now)
	if err != nil {
		errs = append(errs, err)
	}
	if billPaid {
		if bill, err := e.store.FindBillBySession(ctx, session.ID); err == nil {
			transitions = append(transitions, models.Transition{Kind: models.TransitionBillSettled, Bill: bill, Session: session})
		}
	}

	closed, err := e.store.TransitionSession(ctx, session.ID,
		[]string{models.SessionStatusActive, models.SessionStatusPaymentPending},
		models.SessionStatusClosed, &now)
	if err != nil {
		errs = append(errs, err)
	}
	if closed {
		session.Status = models.SessionStatusClosed
		session.EndTime = &now
	}
	if !session.Open() {
		if _, err := e.store.ReleaseClient(ctx, session.ClientID, session.ID); err != nil {
			errs = append(errs, err)
		}
	}

	released, err := e.store.ReleaseTable(ctx, session.TableID, session.ID, models.TableStatusCleaning)
	if err != nil {
		errs = append(errs, err)
	}

	var table *models.Table
	if closed || released {
		table, _ = store.FindByID[models.Table](ctx, e.store, session.TableID)
	}
	switch {
	case closed:
		transitions = append(transitions, models.Transition{Kind: models.TransitionSessionEnded, Session: session, Table: table})
	case released && table != nil:
		transitions = append(transitions, models.Transition{Kind: models.TransitionTableStatusChanged, Table: table})
	}

	e.commit(ctx, transitions...)
	return errors.Join(errs...)
}

// sessionSettled reports whether every billable order of the session is paid.
// A session without billable orders is never settled by payments alone.
func (e *Engine) sessionSettled(ctx context.Context, session *models.TableSession) (bool, error) {
	orders, err := e.store.FindOrdersByIDs(ctx, session.OrderIDs)
	if err != nil {
		return false, err
	}
	billable := 0
	for _, o := range orders {
		if o.Status == models.OrderStatusCancelled {
			continue
		}
		billable++
		if o.PaymentStatus != models.PaymentStatusPaid {
			return false, nil
		}
	}
	return billable > 0, nil
}

// cascadeIfSettled runs the close cascade for a payment_pending session whose
// orders are all paid.
func (e *Engine) cascadeIfSettled(ctx context.Context, sessionID string) error {
	session, err := e.store.FindSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != models.SessionStatusPaymentPending {
		return nil
	}
	settled, err := e.sessionSettled(ctx, session)
	if err != nil || !settled {
		return err
	}
	return e.closeSessionCascade(ctx, sessionID)
}
