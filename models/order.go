package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status order
const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusPreparing      = "preparing"
	OrderStatusReadyForPickup = "ready_for_pickup"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// Status pembayaran
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Tipe order
const (
	OrderTypeTakeAway = "TakeAway"
	OrderTypeDelivery = "Delivery"
	OrderTypeDineIn   = "DineIn"
)

// OrderStatuses lists every order status in lifecycle order.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReadyForPickup,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

type Order struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SessionID     *string         `gorm:"type:varchar(36);index" json:"session_id"`
	TableID       *string         `gorm:"type:varchar(36);index" json:"table_id"`
	ClientID      *string         `gorm:"type:varchar(36);index" json:"client_id"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DeliveryFee   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"delivery_fee"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	OrderType     string          `gorm:"type:varchar(20);not null" json:"order_type"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus string          `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaymentID     *string         `gorm:"type:varchar(100)" json:"payment_id,omitempty"`
	CreatedAt     time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem is a line of an order. Name and UnitPrice are snapshotted from the
// menu when the order is placed.
type OrderItem struct {
	ID                  string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID             string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	MenuItemID          string          `gorm:"type:varchar(36);not null" json:"menu_item_id"`
	Name                string          `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity            int             `gorm:"not null" json:"quantity"`
	LineTotal           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions,omitempty"`
	Rating              *int            `json:"rating,omitempty"`
	RatingComment       string          `gorm:"type:text" json:"rating_comment,omitempty"`
	Position            int             `gorm:"not null" json:"position"`
	CreatedAt           time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null" json:"updated_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func IsOrderStatus(s string) bool {
	for _, st := range OrderStatuses {
		if st == s {
			return true
		}
	}
	return false
}

func IsPaymentStatus(s string) bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid || s == PaymentStatusFailed
}

func IsOrderType(s string) bool {
	return s == OrderTypeTakeAway || s == OrderTypeDelivery || s == OrderTypeDineIn
}

// KitchenActive reports whether the status belongs to the kitchen's active queue.
// delivered and cancelled are the completed side.
func KitchenActive(status string) bool {
	switch status {
	case OrderStatusDelivered, OrderStatusCancelled:
		return false
	}
	return true
}

// SubtotalOf sums the line totals of items.
func SubtotalOf(items []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal)
	}
	return sum
}
