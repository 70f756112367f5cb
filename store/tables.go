package store

import (
	"context"

	"github.com/yeremiapane/dinein-lifecycle/models"
)

func (s *Store) FindTableByCode(ctx context.Context, code string) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).Where("table_code = ?", code).First(&table).Error; err != nil {
		return nil, translate(err)
	}
	return &table, nil
}

// ClaimTable occupies an active, available table for sessionID. It reports
// false when another writer got there first or the table is not claimable.
func (s *Store) ClaimTable(ctx context.Context, tableID, sessionID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND status = ? AND is_active = ?", tableID, models.TableStatusAvailable, true).
		Updates(map[string]interface{}{
			"status":             models.TableStatusOccupied,
			"current_session_id": sessionID,
		})
	return res.RowsAffected == 1, res.Error
}

// ReleaseTable detaches sessionID from its table and moves the table to
// status. It is a no-op (false) if the table no longer points at sessionID.
func (s *Store) ReleaseTable(ctx context.Context, tableID, sessionID, status string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND current_session_id = ?", tableID, sessionID).
		Updates(map[string]interface{}{
			"status":             status,
			"current_session_id": nil,
		})
	return res.RowsAffected == 1, res.Error
}

// SetUnboundTableStatus changes the status of a table that has no session.
func (s *Store) SetUnboundTableStatus(ctx context.Context, tableID, status string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND current_session_id IS NULL", tableID).
		Update("status", status)
	return res.RowsAffected == 1, res.Error
}

// SetTableActive flips IsActive on a table without a session.
func (s *Store) SetTableActive(ctx context.Context, tableID string, active bool) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND current_session_id IS NULL", tableID).
		Update("is_active", active)
	return res.RowsAffected == 1, res.Error
}

// ActiveTablesWithCapacity lists active tables seating at least guests.
func (s *Store) ActiveTablesWithCapacity(ctx context.Context, guests int) ([]models.Table, error) {
	var tables []models.Table
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND capacity >= ?", true, guests).
		Order("table_code asc").
		Find(&tables).Error
	return tables, err
}

// ReactivateTable marks a table active again and updates its capacity.
func (s *Store) ReactivateTable(ctx context.Context, tableID string, capacity int) error {
	return s.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ?", tableID).
		Updates(map[string]interface{}{
			"is_active": true,
			"capacity":  capacity,
		}).Error
}

// OccupiedTables lists tables that currently point at a session.
func (s *Store) OccupiedTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := s.db.WithContext(ctx).
		Where("current_session_id IS NOT NULL").
		Find(&tables).Error
	return tables, err
}
