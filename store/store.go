// Package store is the durable entity store. Each exported mutation touches a
// single row (or a single order document with its items) so it is atomic on
// its own; callers compose multi-entity changes and must tolerate a crash
// between two calls.
package store

import (
	"context"
	"errors"

	"github.com/yeremiapane/dinein-lifecycle/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("store: record not found")

// Filter is an equality filter on column names.
type Filter map[string]interface{}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// AutoMigrate creates or updates every table the engine uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Table{},
		&models.Client{},
		&models.TableSession{},
		&models.SessionOrder{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Bill{},
		&models.Reservation{},
		&models.EndpointBinding{},
	)
}

// FindByID loads one record by primary key.
func FindByID[T any](ctx context.Context, s *Store, id string) (*T, error) {
	var out T
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// Find returns every record matching filter, ordered by order when non-empty.
func Find[T any](ctx context.Context, s *Store, filter Filter, order string) ([]T, error) {
	var out []T
	q := s.db.WithContext(ctx).Where(map[string]interface{}(filter))
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Exists reports whether any record matches filter.
func Exists[T any](ctx context.Context, s *Store, filter Filter) (bool, error) {
	var count int64
	var model T
	if err := s.db.WithContext(ctx).Model(&model).Where(map[string]interface{}(filter)).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save upserts a record.
func Save[T any](ctx context.Context, s *Store, entity *T) error {
	return s.db.WithContext(ctx).Save(entity).Error
}

// Create inserts a record together with its has-many associations.
func Create[T any](ctx context.Context, s *Store, entity *T) error {
	return s.db.WithContext(ctx).Create(entity).Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
