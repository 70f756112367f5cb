package store

import (
	"context"

	"github.com/yeremiapane/dinein-lifecycle/models"
	"gorm.io/gorm"
)

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

// FindOrder loads an order with its items in line order.
func (s *Store) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// FindOrdersByIDs returns the orders in the order of ids. Unknown ids are skipped.
func (s *Store) FindOrdersByIDs(ctx context.Context, ids []string) ([]models.Order, error) {
	if len(ids) == 0 {
		return []models.Order{}, nil
	}
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("id IN ?", ids).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	out := make([]models.Order, 0, len(orders))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) FindOrdersByClient(ctx context.Context, clientID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("client_id = ?", clientID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

// FindOrdersByStatuses lists orders in any of statuses, oldest first, or newest
// first when newestFirst is set.
func (s *Store) FindOrdersByStatuses(ctx context.Context, statuses []string, newestFirst bool, limit int) ([]models.Order, error) {
	order := "created_at asc"
	if newestFirst {
		order = "updated_at desc"
	}
	var orders []models.Order
	q := s.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("status IN ?", statuses).
		Order(order)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&orders).Error
	return orders, err
}

// UpdateOrderFields applies updates to a single order row.
func (s *Store) UpdateOrderFields(ctx context.Context, id string, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ItemRating is one rating submitted for a line of an order.
type ItemRating struct {
	ItemID  string
	Rating  int
	Comment string
}

// SaveItemRatings writes ratings onto the order's items.
func (s *Store) SaveItemRatings(ctx context.Context, orderID string, ratings []ItemRating) error {
	for _, r := range ratings {
		rating := r.Rating
		res := s.db.WithContext(ctx).Model(&models.OrderItem{}).
			Where("id = ? AND order_id = ?", r.ItemID, orderID).
			Updates(map[string]interface{}{
				"rating":         rating,
				"rating_comment": r.Comment,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// RatedItemsByClient returns every rated line across the client's orders.
func (s *Store) RatedItemsByClient(ctx context.Context, clientID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.client_id = ? AND order_items.rating IS NOT NULL", clientID).
		Order("order_items.updated_at desc").
		Find(&items).Error
	return items, err
}

// FindMenuItems returns the menu items for ids keyed by id.
func (s *Store) FindMenuItems(ctx context.Context, ids []string) (map[string]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	out := make(map[string]models.MenuItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}
