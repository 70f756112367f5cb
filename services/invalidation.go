package services

import (
	"context"
	"strconv"
	"time"

	"github.com/yeremiapane/dinein-lifecycle/cache"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/utils"
	"golang.org/x/sync/errgroup"
)

// Coordinator drops the cache keys made stale by a committed transition.
type Coordinator struct {
	cache   cache.Store
	timeout time.Duration
}

func NewCoordinator(c cache.Store, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Coordinator{cache: c, timeout: timeout}
}

// KeysFor returns the keys invalidated by t. Reservation transitions also
// read the guest-count buckets tracked for the date.
func (c *Coordinator) KeysFor(ctx context.Context, t models.Transition) []string {
	var keys []string
	add := func(k ...string) { keys = append(keys, k...) }

	switch t.Kind {
	case models.TransitionOrderCreated:
		if o := t.Order; o != nil {
			addSessionOrders(&keys, o.SessionID)
			addUserOrders(&keys, o.ClientID)
			add(cache.KeyKitchenActiveOrders)
		}

	case models.TransitionOrderStatusChanged:
		if o := t.Order; o != nil {
			add(cache.OrderKey(o.ID))
			addUserOrders(&keys, o.ClientID)
			addSessionOrders(&keys, o.SessionID)
			add(kitchenKeysFor(t.PreviousStatus, o.Status)...)
		}

	case models.TransitionPaymentStatusChanged:
		if o := t.Order; o != nil {
			add(cache.OrderKey(o.ID))
			addUserOrders(&keys, o.ClientID)
			addSessionOrders(&keys, o.SessionID)
		}

	case models.TransitionOrderAttached:
		if o := t.Order; o != nil {
			addSessionOrders(&keys, o.SessionID)
		}

	case models.TransitionRatingsSubmitted:
		if o := t.Order; o != nil {
			add(cache.OrderKey(o.ID))
			if o.ClientID != nil {
				add(cache.UserOrdersKey(*o.ClientID), cache.RatingsKey(*o.ClientID))
			}
		}

	case models.TransitionReservationCreated:
		if r := t.Reservation; r != nil {
			add(cache.UserReservationsKey(r.ClientID), cache.AvailabilityKey(r.Date, r.GuestCount))
			add(c.trackedBuckets(ctx, r.Date, r.GuestCount)...)
		}

	case models.TransitionSessionStarted, models.TransitionSessionEnded:
		if s := t.Session; s != nil {
			add(cache.SessionOrdersKey(s.ID), cache.BillKey(s.ID))
		}
		if t.Table != nil {
			add(cache.TableKey(t.Table.TableCode))
		}

	case models.TransitionBillGenerated, models.TransitionBillSettled:
		if b := t.Bill; b != nil {
			add(cache.BillKey(b.SessionID), cache.SessionOrdersKey(b.SessionID))
		}

	case models.TransitionTableStatusChanged:
		if t.Table != nil {
			add(cache.TableKey(t.Table.TableCode))
		}
	}
	return keys
}

// kitchenKeysFor returns both kitchen aggregates when the change crosses the
// active/completed boundary, otherwise only the side it stays on.
func kitchenKeysFor(previous, current string) []string {
	wasActive, isActive := models.KitchenActive(previous), models.KitchenActive(current)
	switch {
	case wasActive != isActive:
		return []string{cache.KeyKitchenActiveOrders, cache.KeyKitchenCompletedOrders}
	case isActive:
		return []string{cache.KeyKitchenActiveOrders}
	default:
		return []string{cache.KeyKitchenCompletedOrders}
	}
}

func addSessionOrders(keys *[]string, sessionID *string) {
	if sessionID != nil {
		*keys = append(*keys, cache.SessionOrdersKey(*sessionID))
	}
}

func addUserOrders(keys *[]string, clientID *string) {
	if clientID != nil {
		*keys = append(*keys, cache.UserOrdersKey(*clientID))
	}
}

// trackedBuckets lists availability keys of every other guest count cached for date.
func (c *Coordinator) trackedBuckets(ctx context.Context, date string, except int) []string {
	members, err := c.cache.SetMembers(ctx, cache.AvailabilityBucketsKey(date))
	if err != nil {
		return nil
	}
	var keys []string
	for _, m := range members {
		guests, err := strconv.Atoi(m)
		if err != nil || guests == except {
			continue
		}
		keys = append(keys, cache.AvailabilityKey(date, guests))
	}
	return keys
}

// Invalidate deletes the keys of t concurrently. An unavailable cache is
// skipped silently; other failures are returned for logging only.
func (c *Coordinator) Invalidate(ctx context.Context, t models.Transition) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if !c.cache.IsAvailable(ctx) {
		return nil
	}

	keys := c.KeysFor(ctx, t)
	if len(keys) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range dedupe(keys) {
		key := key
		g.Go(func() error {
			return c.cache.Delete(gctx, key)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	utils.InfoLogger.WithField("transition", t.Kind).Debugf("Invalidated %d cache keys", len(keys))
	return nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
