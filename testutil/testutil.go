// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the schema migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, store.AutoMigrate(db))
	return db
}

func NewStore(t testing.TB) *store.Store {
	return store.New(NewDB(t))
}

// NewRedis starts a miniredis server and returns it with a connected client.
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func SeedTable(t testing.TB, st *store.Store, code string, capacity int) *models.Table {
	t.Helper()
	table := &models.Table{
		TableCode: code,
		Capacity:  capacity,
		Status:    models.TableStatusAvailable,
		IsActive:  true,
	}
	require.NoError(t, store.Create(context.Background(), st, table))
	return table
}

func SeedClient(t testing.TB, st *store.Store, name string) *models.Client {
	t.Helper()
	client := &models.Client{Name: name, Phone: "0800000000"}
	require.NoError(t, store.Create(context.Background(), st, client))
	return client
}

func SeedMenuItem(t testing.TB, st *store.Store, name, price string, available bool) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{
		ID:          uuid.NewString(),
		Name:        name,
		Price:       decimal.RequireFromString(price),
		IsAvailable: available,
	}
	require.NoError(t, store.Create(context.Background(), st, item))
	return item
}

// Recorder is a transition handler that keeps everything it receives.
type Recorder struct {
	mu          sync.Mutex
	transitions []models.Transition
}

func (r *Recorder) HandleTransition(_ context.Context, t models.Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
	return nil
}

func (r *Recorder) Transitions() []models.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Transition, len(r.transitions))
	copy(out, r.transitions)
	return out
}

func (r *Recorder) Kinds() []models.TransitionKind {
	var kinds []models.TransitionKind
	for _, t := range r.Transitions() {
		kinds = append(kinds, t.Kind)
	}
	return kinds
}
