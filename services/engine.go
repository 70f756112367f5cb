package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/store"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

// Engine applies lifecycle transitions across tables, sessions, orders and
// bills. Each operation validates against stored state, commits single-row
// mutations and then hands the committed transitions to the post-commit path:
// cache invalidation first, notification second.
type Engine struct {
	store       *store.Store
	coordinator *Coordinator
	dispatcher  *Dispatcher
	policy      *TransitionPolicy
	now         func() time.Time
	deliveryFee decimal.Decimal
}

type EngineOption func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithDeliveryFee sets the fee added to Delivery orders.
func WithDeliveryFee(fee decimal.Decimal) EngineOption {
	return func(e *Engine) { e.deliveryFee = fee }
}

func NewEngine(st *store.Store, coordinator *Coordinator, dispatcher *Dispatcher, policy *TransitionPolicy, opts ...EngineOption) *Engine {
	if policy == nil {
		policy = PermissivePolicy()
	}
	e := &Engine{
		store:       st,
		coordinator: coordinator,
		dispatcher:  dispatcher,
		policy:      policy,
		now:         time.Now,
		deliveryFee: decimal.Zero,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy() *TransitionPolicy {
	return e.policy
}

// commit runs the post-commit path for transitions already durable in the
// store. Failures are logged and never returned.
func (e *Engine) commit(ctx context.Context, transitions ...models.Transition) {
	ctx = context.WithoutCancel(ctx)
	for _, t := range transitions {
		t.CommittedAt = e.now()

		if e.coordinator != nil {
			if err := e.coordinator.Invalidate(ctx, t); err != nil {
				utils.ErrorLogger.WithFields(logrus.Fields{
					"transition": t.Kind,
					"entity_id":  t.EntityID(),
				}).Errorf("Cache invalidation failed: %v", err)
			}
		}
		if e.dispatcher != nil {
			e.dispatcher.Enqueue(t)
		}
	}
}

// logDerived records a failure to update derived state after the primary write
// has already been committed.
func logDerived(what, id string, err error) {
	utils.ErrorLogger.WithFields(logrus.Fields{
		"entity_id": id,
	}).Errorf("Failed to %s: %v", what, err)
}

// refreshSessionTotal recomputes the session total from its attached orders.
func (e *Engine) refreshSessionTotal(ctx context.Context, sessionID string) {
	ids, err := e.store.SessionOrderIDs(ctx, sessionID)
	if err != nil {
		logDerived("load session orders", sessionID, err)
		return
	}
	orders, err := e.store.FindOrdersByIDs(ctx, ids)
	if err != nil {
		logDerived("load session orders", sessionID, err)
		return
	}
	if err := e.store.UpdateSessionTotal(ctx, sessionID, billableTotal(orders)); err != nil {
		logDerived("update session total", sessionID, err)
	}
}

func (e *Engine) requireClient(ctx context.Context, clientID string) error {
	ok, err := store.Exists[models.Client](ctx, e.store, store.Filter{"id": clientID})
	if err != nil {
		return Unexpected(err, "failed to load client %s", clientID)
	}
	if !ok {
		return NotFound("client %s not found", clientID)
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}
