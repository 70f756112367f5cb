package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"gorm.io/gorm/clause"
)

var openSessionStatuses = []string{models.SessionStatusActive, models.SessionStatusPaymentPending}

// FindSession loads a session with its ordered order ids.
func (s *Store) FindSession(ctx context.Context, id string) (*models.TableSession, error) {
	session, err := FindByID[models.TableSession](ctx, s, id)
	if err != nil {
		return nil, err
	}
	ids, err := s.SessionOrderIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	session.OrderIDs = ids
	return session, nil
}

// FindOpenSessionByClient returns the client's active or payment_pending
// session, or ErrNotFound.
func (s *Store) FindOpenSessionByClient(ctx context.Context, clientID string) (*models.TableSession, error) {
	var session models.TableSession
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND status IN ?", clientID, openSessionStatuses).
		Order("start_time desc").
		First(&session).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (s *Store) FindSessionsByStatus(ctx context.Context, status string) ([]models.TableSession, error) {
	return Find[models.TableSession](ctx, s, Filter{"status": status}, "start_time asc")
}

// TransitionSession moves a session from one of from to to. It reports false
// when the session is not in any of the from statuses.
func (s *Store) TransitionSession(ctx context.Context, id string, from []string, to string, endTime *time.Time) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if endTime != nil {
		updates["end_time"] = *endTime
	}
	res := s.db.WithContext(ctx).Model(&models.TableSession{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

// ActiveSessionsWithBill returns active sessions that already have a bill,
// left behind when a process stops between generating the bill and moving the
// session to payment_pending.
func (s *Store) ActiveSessionsWithBill(ctx context.Context, limit int) ([]models.TableSession, error) {
	var sessions []models.TableSession
	err := s.db.WithContext(ctx).
		Where("status = ?", models.SessionStatusActive).
		Where("EXISTS (SELECT 1 FROM bills b WHERE b.session_id = table_sessions.id)").
		Order("start_time asc").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func (s *Store) UpdateSessionTotal(ctx context.Context, id string, total decimal.Decimal) error {
	return s.db.WithContext(ctx).Model(&models.TableSession{}).
		Where("id = ?", id).
		Update("total_amount", total).Error
}

// AppendSessionOrder attaches orderID to the session. Appending an order that
// is already attached is a no-op, so the call can be retried freely.
func (s *Store) AppendSessionOrder(ctx context.Context, sessionID, orderID string) error {
	link := models.SessionOrder{
		SessionID: sessionID,
		OrderID:   orderID,
		Position:  time.Now().UnixNano(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
}

func (s *Store) SessionOrderIDs(ctx context.Context, sessionID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.SessionOrder{}).
		Where("session_id = ?", sessionID).
		Order("position asc").
		Pluck("order_id", &ids).Error
	return ids, err
}

// UnattachedSessionOrders returns orders that name a session but are missing
// from its order list, which happens when a crash hits between the two writes
// of order placement.
func (s *Store) UnattachedSessionOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("session_id IS NOT NULL").
		Where("NOT EXISTS (SELECT 1 FROM session_orders so WHERE so.order_id = orders.id AND so.session_id = orders.session_id)").
		Order("created_at asc").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
