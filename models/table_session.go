package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status sesi meja
const (
	SessionStatusActive         = "active"
	SessionStatusPaymentPending = "payment_pending"
	SessionStatusClosed         = "closed"
	SessionStatusCompleted      = "completed"
)

// TableSession is the period a table is occupied by one party.
type TableSession struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TableID     string          `gorm:"type:varchar(36);not null;index" json:"table_id"`
	ClientID    string          `gorm:"type:varchar(36);not null;index" json:"client_id"`
	Status      string          `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	StartTime   time.Time       `gorm:"not null" json:"start_time"`
	EndTime     *time.Time      `json:"end_time"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	OrderIDs    []string        `gorm:"-" json:"order_ids"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

func (s *TableSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Open reports whether the session still holds its table.
func (s *TableSession) Open() bool {
	return s.Status == SessionStatusActive || s.Status == SessionStatusPaymentPending
}

// SessionOrder is the append-only association between a session and its orders.
// Position preserves placement order.
type SessionOrder struct {
	SessionID string    `gorm:"primaryKey;type:varchar(36)" json:"session_id"`
	OrderID   string    `gorm:"primaryKey;type:varchar(36)" json:"order_id"`
	Position  int64     `gorm:"not null;index" json:"position"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
