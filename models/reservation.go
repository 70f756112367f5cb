package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCancelled = "cancelled"
)

// ReservationDateLayout is the layout of Reservation.Date.
const ReservationDateLayout = "2006-01-02"

type Reservation struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TableID    string    `gorm:"type:varchar(36);not null;index:idx_reservation_slot" json:"table_id"`
	ClientID   string    `gorm:"type:varchar(36);not null;index" json:"client_id"`
	Date       string    `gorm:"type:varchar(10);not null;index:idx_reservation_slot" json:"date"`
	TimeSlot   string    `gorm:"type:varchar(20);not null;index:idx_reservation_slot" json:"time_slot"`
	GuestCount int       `gorm:"not null" json:"guest_count"`
	Status     string    `gorm:"type:varchar(20);not null;default:'confirmed'" json:"status"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
