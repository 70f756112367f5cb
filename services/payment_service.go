package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/store"
)

// UpdatePaymentStatus records the payment result of an order. Paying the last
// unpaid order of a payment_pending session closes the session.
func (e *Engine) UpdatePaymentStatus(ctx context.Context, orderID, paymentStatus, paymentID string) (*models.Order, error) {
	if !models.IsPaymentStatus(paymentStatus) {
		return nil, InvalidInput("unknown payment status %q", paymentStatus)
	}

	order, err := e.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "order", orderID)
	}

	unchanged := order.PaymentStatus == paymentStatus &&
		(paymentID == "" || (order.PaymentID != nil && *order.PaymentID == paymentID))

	if !unchanged {
		updates := map[string]interface{}{"payment_status": paymentStatus}
		if paymentID != "" {
			updates["payment_id"] = paymentID
			order.PaymentID = strPtr(paymentID)
		}
		if err := e.store.UpdateOrderFields(ctx, orderID, updates); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, NotFound("order %s not found", orderID)
			}
			return nil, Unexpected(err, "failed to update payment of order %s", orderID)
		}
		order.PaymentStatus = paymentStatus
		order.UpdatedAt = e.now()

		e.commit(ctx, models.Transition{Kind: models.TransitionPaymentStatusChanged, Order: order})
	}

	// re-checked on repeats too so an interrupted cascade completes
	if paymentStatus == models.PaymentStatusPaid && order.SessionID != nil {
		if err := e.cascadeIfSettled(ctx, *order.SessionID); err != nil {
			logDerived("close settled session", *order.SessionID, err)
		}
	}
	return order, nil
}
