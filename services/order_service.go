package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/store"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

// OrderItemDraft is one requested line of a new order.
type OrderItemDraft struct {
	MenuItemID          string `json:"menu_item_id" binding:"required"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions"`
}

// OrderDraft is the input of PlaceOrder. DineIn orders need SessionID; the
// table and client are taken from the session when omitted.
type OrderDraft struct {
	SessionID string           `json:"session_id"`
	TableCode string           `json:"table_id"`
	ClientID  string           `json:"client_id"`
	OrderType string           `json:"order_type"`
	Items     []OrderItemDraft `json:"items"`
}

// OrderStatusChange is the result of UpdateOrderStatus. Changed is false when
// the order already had the requested status.
type OrderStatusChange struct {
	Order          *models.Order `json:"order"`
	PreviousStatus string        `json:"previous_status"`
	Changed        bool          `json:"changed"`
}

func (d OrderDraft) validate() error {
	if !models.IsOrderType(d.OrderType) {
		return InvalidInput("unknown order type %q", d.OrderType)
	}
	if d.OrderType == models.OrderTypeDineIn && strings.TrimSpace(d.SessionID) == "" {
		return InvalidInput("session_id is required for dine-in orders")
	}
	if len(d.Items) == 0 {
		return InvalidInput("order must contain at least one item")
	}
	for i, it := range d.Items {
		if strings.TrimSpace(it.MenuItemID) == "" {
			return InvalidInput("item %d has no menu_item_id", i+1)
		}
		if it.Quantity < 1 {
			return InvalidInput("item %d quantity must be at least 1", i+1)
		}
	}
	return nil
}

// PlaceOrder creates an order with its items and attaches it to its session.
func (e *Engine) PlaceOrder(ctx context.Context, draft OrderDraft) (*models.Order, error) {
	if draft.OrderType == "" {
		draft.OrderType = models.OrderTypeDineIn
	}
	if err := draft.validate(); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.NewString(),
		OrderType:     draft.OrderType,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		DeliveryFee:   decimal.Zero,
	}

	var session *models.TableSession
	if draft.SessionID != "" {
		s, err := store.FindByID[models.TableSession](ctx, e.store, draft.SessionID)
		if err != nil {
			return nil, lookupErr(err, "session", draft.SessionID)
		}
		if s.Status != models.SessionStatusActive {
			return nil, Conflict("session %s is %s and no longer takes orders", s.ID, s.Status).With("status", s.Status)
		}
		session = s
		order.SessionID = strPtr(s.ID)
		order.TableID = strPtr(s.TableID)
		order.ClientID = strPtr(s.ClientID)
	}

	var table *models.Table
	if draft.TableCode != "" {
		t, err := e.store.FindTableByCode(ctx, draft.TableCode)
		if err != nil {
			return nil, lookupErr(err, "table", draft.TableCode)
		}
		if session != nil && session.TableID != t.ID {
			return nil, Conflict("session %s is not seated at table %s", session.ID, draft.TableCode)
		}
		table = t
		order.TableID = strPtr(t.ID)
	}

	if draft.ClientID != "" {
		if session != nil && session.ClientID != draft.ClientID {
			return nil, Conflict("session %s belongs to another client", session.ID)
		}
		if err := e.requireClient(ctx, draft.ClientID); err != nil {
			return nil, err
		}
		order.ClientID = strPtr(draft.ClientID)
	}

	items, err := e.priceItems(ctx, order.ID, draft.Items)
	if err != nil {
		return nil, err
	}
	order.Items = items
	order.Subtotal = models.SubtotalOf(items)
	if order.OrderType == models.OrderTypeDelivery {
		order.DeliveryFee = e.deliveryFee
	}
	order.Total = order.Subtotal.Add(order.DeliveryFee)

	if err := store.Create(ctx, e.store, order); err != nil {
		return nil, Unexpected(err, "failed to save order")
	}

	transitions := []models.Transition{{Kind: models.TransitionOrderCreated, Order: order, Table: table}}

	if session != nil {
		if err := e.store.AppendSessionOrder(ctx, session.ID, order.ID); err != nil {
			// the reconciler re-attaches orders left out here
			utils.ErrorLogger.WithFields(logrus.Fields{
				"order_id":   order.ID,
				"session_id": session.ID,
			}).Errorf("Failed to attach order to session: %v", err)
		} else {
			e.refreshSessionTotal(ctx, session.ID)
		}
	}

	e.commit(ctx, transitions...)
	return order, nil
}

// priceItems snapshots name and price of every requested menu item.
func (e *Engine) priceItems(ctx context.Context, orderID string, drafts []OrderItemDraft) ([]models.OrderItem, error) {
	ids := make([]string, 0, len(drafts))
	for _, d := range drafts {
		ids = append(ids, d.MenuItemID)
	}
	menu, err := e.store.FindMenuItems(ctx, ids)
	if err != nil {
		return nil, Unexpected(err, "failed to load menu items")
	}

	items := make([]models.OrderItem, 0, len(drafts))
	for i, d := range drafts {
		m, ok := menu[d.MenuItemID]
		if !ok {
			return nil, NotFound("menu item %s not found", d.MenuItemID)
		}
		if !m.IsAvailable {
			return nil, Conflict("menu item %s is not available", m.Name).With("menuItemId", m.ID)
		}
		items = append(items, models.OrderItem{
			ID:                  uuid.NewString(),
			OrderID:             orderID,
			MenuItemID:          m.ID,
			Name:                m.Name,
			UnitPrice:           m.Price,
			Quantity:            d.Quantity,
			LineTotal:           m.Price.Mul(decimal.NewFromInt(int64(d.Quantity))),
			SpecialInstructions: d.SpecialInstructions,
			Position:            i,
		})
	}
	return items, nil
}

// UpdateOrderStatus moves an order to status if the transition policy allows it.
// Requesting the current status is a successful no-op.
func (e *Engine) UpdateOrderStatus(ctx context.Context, orderID, status string) (*OrderStatusChange, error) {
	if !models.IsOrderStatus(status) {
		return nil, InvalidInput("unknown order status %q", status).With("allowed", models.OrderStatuses)
	}

	order, err := e.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "order", orderID)
	}

	previous := order.Status
	if previous == status {
		return &OrderStatusChange{Order: order, PreviousStatus: previous, Changed: false}, nil
	}
	if !e.policy.Allows(previous, status) {
		return nil, Conflict("order %s cannot move from %s to %s", orderID, previous, status).
			With("status", previous)
	}

	if err := e.store.UpdateOrderFields(ctx, orderID, map[string]interface{}{"status": status}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFound("order %s not found", orderID)
		}
		return nil, Unexpected(err, "failed to update order %s", orderID)
	}
	order.Status = status
	order.UpdatedAt = e.now()

	if order.SessionID != nil && (status == models.OrderStatusCancelled || previous == models.OrderStatusCancelled) {
		e.refreshSessionTotal(ctx, *order.SessionID)
	}

	e.commit(ctx, models.Transition{
		Kind:           models.TransitionOrderStatusChanged,
		Order:          order,
		PreviousStatus: previous,
	})
	return &OrderStatusChange{Order: order, PreviousStatus: previous, Changed: true}, nil
}
