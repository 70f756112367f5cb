package store

import (
	"context"
	"time"

	"github.com/yeremiapane/dinein-lifecycle/models"
	"gorm.io/gorm/clause"
)

// UpsertBinding makes endpointID the current endpoint for role.
func (s *Store) UpsertBinding(ctx context.Context, role, endpointID, instanceID string) error {
	binding := models.EndpointBinding{
		Role:       role,
		EndpointID: endpointID,
		InstanceID: instanceID,
		UpdatedAt:  time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "role"}},
			DoUpdates: clause.AssignmentColumns([]string{"endpoint_id", "instance_id", "updated_at"}),
		}).
		Create(&binding).Error
}

// ClearBinding removes the binding for role only if it still points at endpointID.
func (s *Store) ClearBinding(ctx context.Context, role, endpointID string) error {
	return s.db.WithContext(ctx).
		Where("role = ? AND endpoint_id = ?", role, endpointID).
		Delete(&models.EndpointBinding{}).Error
}

func (s *Store) FindBinding(ctx context.Context, role string) (*models.EndpointBinding, error) {
	var binding models.EndpointBinding
	if err := s.db.WithContext(ctx).Where("role = ?", role).First(&binding).Error; err != nil {
		return nil, translate(err)
	}
	return &binding, nil
}
