package store

import (
	"context"
	"time"

	"github.com/yeremiapane/dinein-lifecycle/models"
	"gorm.io/gorm/clause"
)

func (s *Store) FindBillBySession(ctx context.Context, sessionID string) (*models.Bill, error) {
	var bill models.Bill
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&bill).Error; err != nil {
		return nil, translate(err)
	}
	return &bill, nil
}

// CreateBillOnce inserts bill unless its session already has one and returns
// the stored bill. created is false when an existing bill was returned.
func (s *Store) CreateBillOnce(ctx context.Context, bill *models.Bill) (*models.Bill, bool, error) {
	if bill.ID == "" {
		if err := bill.BeforeCreate(nil); err != nil {
			return nil, false, err
		}
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(bill).Error
	if err != nil {
		return nil, false, err
	}
	stored, err := s.FindBillBySession(ctx, bill.SessionID)
	if err != nil {
		return nil, false, err
	}
	return stored, stored.ID == bill.ID, nil
}

// UpdateBillPayment records a payment result on the bill.
func (s *Store) UpdateBillPayment(ctx context.Context, id, status, method string, processedBy *string, paidAt *time.Time) error {
	updates := map[string]interface{}{"payment_status": status}
	if method != "" {
		updates["payment_method"] = method
	}
	if processedBy != nil {
		updates["processed_by"] = *processedBy
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}
	res := s.db.WithContext(ctx).Model(&models.Bill{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSessionBillPaid settles a still-pending bill of the session. It reports
// whether a bill changed.
func (s *Store) MarkSessionBillPaid(ctx context.Context, sessionID string, paidAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Bill{}).
		Where("session_id = ? AND payment_status <> ?", sessionID, models.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"paid_at":        paidAt,
		})
	return res.RowsAffected == 1, res.Error
}
