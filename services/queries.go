package services

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/dinein-lifecycle/cache"
	"github.com/yeremiapane/dinein-lifecycle/config"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/store"
)

// completedQueueLimit bounds the kitchen's completed list.
const completedQueueLimit = 100

var kitchenActiveStatuses = []string{
	models.OrderStatusPending,
	models.OrderStatusConfirmed,
	models.OrderStatusPreparing,
	models.OrderStatusReadyForPickup,
}

var kitchenCompletedStatuses = []string{
	models.OrderStatusDelivered,
	models.OrderStatusCancelled,
}

// SessionOrdersView is the cached aggregate of a session and its orders.
type SessionOrdersView struct {
	Session     models.TableSession `json:"session"`
	Orders      []models.Order      `json:"orders"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
}

// KitchenQueue is one side of the kitchen display.
type KitchenQueue struct {
	Orders []models.Order `json:"orders"`
	Count  int            `json:"count"`
}

// AvailabilityView lists the tables free for a party on a date.
type AvailabilityView struct {
	Date       string         `json:"date"`
	GuestCount int            `json:"guest_count"`
	Tables     []models.Table `json:"tables"`
}

// Queries serves the read side through the ReadPath.
type Queries struct {
	store    *store.Store
	readPath *ReadPath
	ttl      config.CacheTTLConfig
}

func NewQueries(st *store.Store, rp *ReadPath, ttl config.CacheTTLConfig) *Queries {
	return &Queries{store: st, readPath: rp, ttl: ttl}
}

func (q *Queries) OrderDetail(ctx context.Context, orderID string) (*models.Order, error) {
	return Fetch(ctx, q.readPath, cache.OrderKey(orderID), q.ttl.OrderDetail, func(ctx context.Context) (*models.Order, error) {
		order, err := q.store.FindOrder(ctx, orderID)
		if err != nil {
			return nil, lookupErr(err, "order", orderID)
		}
		return order, nil
	})
}

func (q *Queries) UserOrders(ctx context.Context, clientID string) ([]models.Order, error) {
	return Fetch(ctx, q.readPath, cache.UserOrdersKey(clientID), q.ttl.UserOrders, func(ctx context.Context) ([]models.Order, error) {
		if err := q.requireClient(ctx, clientID); err != nil {
			return nil, err
		}
		orders, err := q.store.FindOrdersByClient(ctx, clientID)
		if err != nil {
			return nil, Unexpected(err, "failed to load orders")
		}
		return orders, nil
	})
}

// SessionOrders returns the session with its orders in placement order.
func (q *Queries) SessionOrders(ctx context.Context, sessionID string) (*SessionOrdersView, error) {
	return Fetch(ctx, q.readPath, cache.SessionOrdersKey(sessionID), q.ttl.SessionOrders, func(ctx context.Context) (*SessionOrdersView, error) {
		session, err := q.store.FindSession(ctx, sessionID)
		if err != nil {
			return nil, lookupErr(err, "session", sessionID)
		}
		orders, err := q.store.FindOrdersByIDs(ctx, session.OrderIDs)
		if err != nil {
			return nil, Unexpected(err, "failed to load session orders")
		}
		return &SessionOrdersView{
			Session:     *session,
			Orders:      orders,
			TotalAmount: billableTotal(orders),
		}, nil
	})
}

func (q *Queries) KitchenActiveOrders(ctx context.Context) (*KitchenQueue, error) {
	return Fetch(ctx, q.readPath, cache.KeyKitchenActiveOrders, q.ttl.KitchenActive, func(ctx context.Context) (*KitchenQueue, error) {
		return q.kitchenQueue(ctx, kitchenActiveStatuses, false, 0)
	})
}

func (q *Queries) KitchenCompletedOrders(ctx context.Context) (*KitchenQueue, error) {
	return Fetch(ctx, q.readPath, cache.KeyKitchenCompletedOrders, q.ttl.KitchenCompleted, func(ctx context.Context) (*KitchenQueue, error) {
		return q.kitchenQueue(ctx, kitchenCompletedStatuses, true, completedQueueLimit)
	})
}

func (q *Queries) kitchenQueue(ctx context.Context, statuses []string, newestFirst bool, limit int) (*KitchenQueue, error) {
	orders, err := q.store.FindOrdersByStatuses(ctx, statuses, newestFirst, limit)
	if err != nil {
		return nil, Unexpected(err, "failed to load kitchen orders")
	}
	return &KitchenQueue{Orders: orders, Count: len(orders)}, nil
}

// UserRatings lists every rated order line of the client.
func (q *Queries) UserRatings(ctx context.Context, clientID string) ([]models.OrderItem, error) {
	return Fetch(ctx, q.readPath, cache.RatingsKey(clientID), q.ttl.Ratings, func(ctx context.Context) ([]models.OrderItem, error) {
		if err := q.requireClient(ctx, clientID); err != nil {
			return nil, err
		}
		items, err := q.store.RatedItemsByClient(ctx, clientID)
		if err != nil {
			return nil, Unexpected(err, "failed to load ratings")
		}
		return items, nil
	})
}

func (q *Queries) UserReservations(ctx context.Context, clientID string) ([]models.Reservation, error) {
	return Fetch(ctx, q.readPath, cache.UserReservationsKey(clientID), q.ttl.Reservations, func(ctx context.Context) ([]models.Reservation, error) {
		if err := q.requireClient(ctx, clientID); err != nil {
			return nil, err
		}
		reservations, err := q.store.FindReservationsByClient(ctx, clientID)
		if err != nil {
			return nil, Unexpected(err, "failed to load reservations")
		}
		return reservations, nil
	})
}

// Availability lists active tables seating guests that hold no confirmed
// reservation on date. The guest count is recorded so reservations on that
// date can drop every cached bucket.
func (q *Queries) Availability(ctx context.Context, date string, guests int) (*AvailabilityView, error) {
	if _, err := time.Parse(models.ReservationDateLayout, date); err != nil {
		return nil, InvalidInput("date must be formatted as YYYY-MM-DD")
	}
	if guests < 1 {
		return nil, InvalidInput("guests must be at least 1")
	}

	view, err := Fetch(ctx, q.readPath, cache.AvailabilityKey(date, guests), q.ttl.Availability, func(ctx context.Context) (*AvailabilityView, error) {
		tables, err := q.store.ActiveTablesWithCapacity(ctx, guests)
		if err != nil {
			return nil, Unexpected(err, "failed to load tables")
		}
		reserved, err := q.store.ReservedTableIDs(ctx, date)
		if err != nil {
			return nil, Unexpected(err, "failed to load reservations")
		}
		free := make([]models.Table, 0, len(tables))
		for _, t := range tables {
			if !reserved[t.ID] {
				free = append(free, t)
			}
		}
		return &AvailabilityView{Date: date, GuestCount: guests, Tables: free}, nil
	})
	if err != nil {
		return nil, err
	}

	c := q.readPath.Cache()
	if c.IsAvailable(ctx) {
		// the bucket set outlives every availability entry it points at
		_ = c.AddToSet(ctx, cache.AvailabilityBucketsKey(date), strconv.Itoa(guests), 2*q.ttl.Availability)
	}
	return view, nil
}

func (q *Queries) TableByCode(ctx context.Context, code string) (*models.Table, error) {
	return Fetch(ctx, q.readPath, cache.TableKey(code), q.ttl.Table, func(ctx context.Context) (*models.Table, error) {
		table, err := q.store.FindTableByCode(ctx, code)
		if err != nil {
			return nil, lookupErr(err, "table", code)
		}
		return table, nil
	})
}

func (q *Queries) BillForSession(ctx context.Context, sessionID string) (*models.Bill, error) {
	return Fetch(ctx, q.readPath, cache.BillKey(sessionID), q.ttl.SessionOrders, func(ctx context.Context) (*models.Bill, error) {
		bill, err := q.store.FindBillBySession(ctx, sessionID)
		if err != nil {
			return nil, lookupErr(err, "bill for session", sessionID)
		}
		return bill, nil
	})
}

func (q *Queries) requireClient(ctx context.Context, clientID string) error {
	ok, err := store.Exists[models.Client](ctx, q.store, store.Filter{"id": clientID})
	if err != nil {
		return Unexpected(err, "failed to load client %s", clientID)
	}
	if !ok {
		return NotFound("client %s not found", clientID)
	}
	return nil
}

// billableTotal sums order totals, leaving cancelled orders out.
func billableTotal(orders []models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.Status == models.OrderStatusCancelled {
			continue
		}
		total = total.Add(o.Total)
	}
	return total
}
