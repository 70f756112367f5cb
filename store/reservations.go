package store

import (
	"context"

	"github.com/yeremiapane/dinein-lifecycle/models"
)

func (s *Store) FindReservationsByClient(ctx context.Context, clientID string) ([]models.Reservation, error) {
	return Find[models.Reservation](ctx, s, Filter{"client_id": clientID}, "date asc, time_slot asc")
}

// ReservedTableIDs lists tables holding a confirmed reservation on date.
func (s *Store) ReservedTableIDs(ctx context.Context, date string) (map[string]bool, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("date = ? AND status = ?", date, models.ReservationStatusConfirmed).
		Distinct().
		Pluck("table_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
