package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status meja
const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
	TableStatusCleaning  = "cleaning"
)

// Table is a physical table registered by its device. CurrentSessionID is a weak
// reference: it is set iff Status is occupied and cleared when the session ends.
type Table struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TableCode        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"table_id"`
	Capacity         int       `gorm:"not null;default:4" json:"capacity"`
	Status           string    `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	IsActive         bool      `gorm:"not null" json:"is_active"`
	CurrentSessionID *string   `gorm:"type:varchar(36)" json:"current_session_id"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (t *Table) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Consistent reports whether the occupied/session invariant holds.
func (t *Table) Consistent() bool {
	return (t.CurrentSessionID != nil) == (t.Status == TableStatusOccupied)
}

func IsTableStatus(s string) bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusCleaning:
		return true
	}
	return false
}
