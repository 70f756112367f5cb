package models

import "time"

// Peran endpoint real-time
const (
	EndpointRoleKitchen = "kitchen"
)

// EndpointBinding records the single live endpoint for a logical role. A new
// registration overwrites the previous one.
type EndpointBinding struct {
	Role       string    `gorm:"primaryKey;type:varchar(50)" json:"role"`
	EndpointID string    `gorm:"type:varchar(36);not null" json:"endpoint_id"`
	InstanceID string    `gorm:"type:varchar(100);not null" json:"instance_id"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}
