package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/store"
)

// EndSessionResult is returned by EndTableSession.
type EndSessionResult struct {
	Session *models.TableSession `json:"session"`
	Bill    *models.Bill         `json:"bill"`
}

var paymentMethods = map[string]bool{
	models.PaymentMethodCash:         true,
	models.PaymentMethodCard:         true,
	models.PaymentMethodQRIS:         true,
	models.PaymentMethodBankTransfer: true,
}

// ensureBill returns the session's bill, generating it from the attached
// orders if there is none. created reports whether this call generated it.
func (e *Engine) ensureBill(ctx context.Context, session *models.TableSession) (*models.Bill, bool, error) {
	orders, err := e.store.FindOrdersByIDs(ctx, session.OrderIDs)
	if err != nil {
		return nil, false, Unexpected(err, "failed to load orders of session %s", session.ID)
	}
	total := billableTotal(orders)

	bill, created, err := e.store.CreateBillOnce(ctx, &models.Bill{
		SessionID:     session.ID,
		Total:         total,
		PaymentStatus: models.PaymentStatusPending,
	})
	if err != nil {
		return nil, false, Unexpected(err, "failed to generate bill for session %s", session.ID)
	}
	if created {
		if err := e.store.UpdateSessionTotal(ctx, session.ID, total); err != nil {
			logDerived("update session total", session.ID, err)
		}
		session.TotalAmount = total
	}
	return bill, created, nil
}

// GenerateBill snapshots the session total into a bill and moves the session to
// payment_pending. An existing bill is returned unchanged; if its session is
// still active the move to payment_pending is completed first.
func (e *Engine) GenerateBill(ctx context.Context, sessionID string) (*models.Bill, error) {
	session, err := e.store.FindSession(ctx, sessionID)
	if err != nil {
		return nil, lookupErr(err, "session", sessionID)
	}

	bill, err := e.store.FindBillBySession(ctx, sessionID)
	created := false
	switch {
	case err == nil:
		if session.Status != models.SessionStatusActive {
			return bill, nil
		}
	case !errors.Is(err, store.ErrNotFound):
		return nil, Unexpected(err, "failed to load bill of session %s", sessionID)
	case !session.Open():
		return nil, Conflict("session %s is %s", sessionID, session.Status).With("status", session.Status)
	default:
		bill, created, err = e.ensureBill(ctx, session)
		if err != nil {
			return nil, err
		}
	}

	moved, err := e.moveToPaymentPending(ctx, session)
	if err != nil {
		logDerived("move session to payment_pending", sessionID, err)
	}
	if created || moved {
		e.commit(ctx, models.Transition{Kind: models.TransitionBillGenerated, Bill: bill, Session: session})
	}
	return bill, nil
}

// moveToPaymentPending stops an active session from taking orders once it has
// a bill. It reports false when the session was not active.
func (e *Engine) moveToPaymentPending(ctx context.Context, session *models.TableSession) (bool, error) {
	moved, err := e.store.TransitionSession(ctx, session.ID,
		[]string{models.SessionStatusActive}, models.SessionStatusPaymentPending, nil)
	if moved {
		session.Status = models.SessionStatusPaymentPending
	}
	return moved, err
}

// EndTableSession bills the session if needed, closes it and sends its table
// to cleaning. Ending a session that is already over returns it unchanged.
func (e *Engine) EndTableSession(ctx context.Context, sessionID string) (*EndSessionResult, error) {
	session, err := e.store.FindSession(ctx, sessionID)
	if err != nil {
		return nil, lookupErr(err, "session", sessionID)
	}

	if !session.Open() {
		bill, err := e.store.FindBillBySession(ctx, sessionID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, Unexpected(err, "failed to load bill of session %s", sessionID)
		}
		return &EndSessionResult{Session: session, Bill: bill}, nil
	}

	bill, created, err := e.ensureBill(ctx, session)
	if err != nil {
		return nil, err
	}

	var transitions []models.Transition
	if created {
		transitions = append(transitions, models.Transition{Kind: models.TransitionBillGenerated, Bill: bill, Session: session})
	}

	now := e.now()
	closed, err := e.store.TransitionSession(ctx, sessionID,
		[]string{models.SessionStatusActive, models.SessionStatusPaymentPending},
		models.SessionStatusClosed, &now)
	if err != nil {
		e.commit(ctx, transitions...)
		return nil, Unexpected(err, "failed to close session %s", sessionID)
	}
	if !closed {
		// a concurrent cascade or forced release finished it first
		current, err := e.store.FindSession(ctx, sessionID)
		if err != nil {
			return nil, lookupErr(err, "session", sessionID)
		}
		e.commit(ctx, transitions...)
		return &EndSessionResult{Session: current, Bill: bill}, nil
	}
	session.Status = models.SessionStatusClosed
	session.EndTime = &now
	e.releaseClient(ctx, session.ClientID, session.ID)

	if _, err := e.store.ReleaseTable(ctx, session.TableID, session.ID, models.TableStatusCleaning); err != nil {
		logDerived("release table", session.TableID, err)
	}
	table, err := store.FindByID[models.Table](ctx, e.store, session.TableID)
	if err != nil {
		logDerived("load table", session.TableID, err)
	}

	transitions = append(transitions, models.Transition{Kind: models.TransitionSessionEnded, Session: session, Table: table})
	e.commit(ctx, transitions...)
	return &EndSessionResult{Session: session, Bill: bill}, nil
}

// SettleBill records the payment of a bill. A paid bill closes its session.
func (e *Engine) SettleBill(ctx context.Context, billID, paymentStatus, paymentMethod, processedBy string) (*models.Bill, error) {
	if !models.IsPaymentStatus(paymentStatus) {
		return nil, InvalidInput("unknown payment status %q", paymentStatus)
	}
	paymentMethod = strings.ToLower(strings.TrimSpace(paymentMethod))
	if paymentMethod != "" && !paymentMethods[paymentMethod] {
		return nil, InvalidInput("unknown payment method %q", paymentMethod)
	}

	bill, err := store.FindByID[models.Bill](ctx, e.store, billID)
	if err != nil {
		return nil, lookupErr(err, "bill", billID)
	}

	if bill.PaymentStatus != paymentStatus || (paymentMethod != "" && bill.PaymentMethod != paymentMethod) {
		var processor *string
		if processedBy != "" {
			processor = strPtr(processedBy)
		}
		var paidAt = bill.PaidAt
		if paymentStatus == models.PaymentStatusPaid && paidAt == nil {
			now := e.now()
			paidAt = &now
		}
		if err := e.store.UpdateBillPayment(ctx, bill.ID, paymentStatus, paymentMethod, processor, paidAt); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, NotFound("bill %s not found", billID)
			}
			return nil, Unexpected(err, "failed to settle bill %s", billID)
		}
		bill.PaymentStatus = paymentStatus
		if paymentMethod != "" {
			bill.PaymentMethod = paymentMethod
		}
		if processor != nil {
			bill.ProcessedBy = processor
		}
		bill.PaidAt = paidAt

		e.commit(ctx, models.Transition{Kind: models.TransitionBillSettled, Bill: bill})
	}

	if paymentStatus == models.PaymentStatusPaid {
		if err := e.closeSessionCascade(ctx, bill.SessionID); err != nil {
			logDerived("close settled session", bill.SessionID, err)
		}
	}
	return bill, nil
}
