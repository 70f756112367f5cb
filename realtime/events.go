package realtime

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/dinein-lifecycle/models"
)

// Event types
const (
	EventNewOrder           = "new_order"
	EventOrderStatusUpdated = "order_status_updated"
	EventSessionStarted     = "session_started"
	EventSessionEnded       = "session_ended"
	EventBillReady          = "bill_ready"
	EventTableStatusUpdated = "table_status_updated"
)

// Inbound events sent by the kitchen connection.
const (
	EventUpdateOrderStatus = "update_order_status"
	EventError             = "error"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// GroupForTable names the group of every device associated with a table.
func GroupForTable(tableID string) string {
	return "table:" + tableID
}

type OrderStatusPayload struct {
	OrderID        string        `json:"order_id"`
	Status         string        `json:"status"`
	PreviousStatus string        `json:"previous_status"`
	TableID        *string       `json:"table_id"`
	SessionID      *string       `json:"session_id"`
	Order          *models.Order `json:"order"`
}

type SessionPayload struct {
	SessionID   string          `json:"session_id"`
	TableID     string          `json:"table_id"`
	ClientID    string          `json:"client_id"`
	Status      string          `json:"status"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     *time.Time      `json:"end_time,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type BillPayload struct {
	BillID        string          `json:"bill_id"`
	SessionID     string          `json:"session_id"`
	Total         decimal.Decimal `json:"total"`
	PaymentStatus string          `json:"payment_status"`
}

func orderStatusPayload(order *models.Order, previous string) OrderStatusPayload {
	return OrderStatusPayload{
		OrderID:        order.ID,
		Status:         order.Status,
		PreviousStatus: previous,
		TableID:        order.TableID,
		SessionID:      order.SessionID,
		Order:          order,
	}
}

func sessionPayload(s *models.TableSession) SessionPayload {
	return SessionPayload{
		SessionID:   s.ID,
		TableID:     s.TableID,
		ClientID:    s.ClientID,
		Status:      s.Status,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		TotalAmount: s.TotalAmount,
	}
}

func billPayload(b *models.Bill) BillPayload {
	return BillPayload{
		BillID:        b.ID,
		SessionID:     b.SessionID,
		Total:         b.Total,
		PaymentStatus: b.PaymentStatus,
	}
}
