package store

import (
	"context"
	"time"

	"github.com/yeremiapane/dinein-lifecycle/models"
)

// ClaimClient records sessionID as the client's current session. It reports
// false while the client still holds a session that is not closed or
// completed. A claim pointing at a finished session is taken over.
func (s *Store) ClaimClient(ctx context.Context, clientID, sessionID string) (bool, error) {
	finished := s.db.Model(&models.TableSession{}).
		Select("id").
		Where("status NOT IN ?", openSessionStatuses)

	res := s.db.WithContext(ctx).Model(&models.Client{}).
		Where("id = ?", clientID).
		Where("(current_session_id IS NULL OR current_session_id IN (?))", finished).
		Update("current_session_id", sessionID)
	return res.RowsAffected == 1, res.Error
}

// ReleaseClient clears the client's claim if it still points at sessionID.
func (s *Store) ReleaseClient(ctx context.Context, clientID, sessionID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Client{}).
		Where("id = ? AND current_session_id = ?", clientID, sessionID).
		Update("current_session_id", nil)
	return res.RowsAffected == 1, res.Error
}

// StaleClientClaims lists clients, last touched before before, whose claim
// points at a session that is missing or no longer open. That happens when a
// process stops between claiming the client and creating the session, or
// between closing a session and releasing its client.
func (s *Store) StaleClientClaims(ctx context.Context, before time.Time, limit int) ([]models.Client, error) {
	var clients []models.Client
	err := s.db.WithContext(ctx).
		Where("current_session_id IS NOT NULL AND updated_at < ?", before).
		Where("NOT EXISTS (SELECT 1 FROM table_sessions ts WHERE ts.id = clients.current_session_id AND ts.status IN ?)", openSessionStatuses).
		Order("updated_at asc").
		Limit(limit).
		Find(&clients).Error
	return clients, err
}
