package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Metode pembayaran
const (
	PaymentMethodCash         = "cash"
	PaymentMethodCard         = "card"
	PaymentMethodQRIS         = "qris"
	PaymentMethodBankTransfer = "bank_transfer"
)

// Bill is generated once per session. Total is a snapshot taken at generation
// time and is never recomputed.
type Bill struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SessionID     string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"session_id"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentStatus string          `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaymentMethod string          `gorm:"type:varchar(50)" json:"payment_method"`
	ProcessedBy   *string         `gorm:"type:varchar(36)" json:"processed_by,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
