package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/dinein-lifecycle/cache"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/testutil"
)

func TestKitchenQueuesFollowStatusChanges(t *testing.T) {
	h := newHarness(t, nil)
	nasi := testutil.SeedMenuItem(t, h.store, "Nasi Goreng", "25000", true)
	_, _, session := h.seat("T1")
	order := h.order(session.ID, OrderItemDraft{MenuItemID: nasi.ID, Quantity: 1})

	active, err := h.queries.KitchenActiveOrders(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active.Count)

	completed, err := h.queries.KitchenCompletedOrders(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, completed.Count)
	assert.True(t, h.mr.Exists(cache.KeyKitchenCompletedOrders))

	_, err = h.engine.UpdateOrderStatus(h.ctx, order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)

	active, err = h.queries.KitchenActiveOrders(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, active.Count)

	completed, err = h.queries.KitchenCompletedOrders(h.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, completed.Count)
	assert.Equal(t, order.ID, completed.Orders[0].ID)
}

func TestSessionOrdersReadYourWrites(t *testing.T) {
	h := newHarness(t, nil)
	nasi := testutil.SeedMenuItem(t, h.store, "Nasi Goreng", "25000", true)
	_, _, session := h.seat("T1")
	first := h.order(session.ID, OrderItemDraft{MenuItemID: nasi.ID, Quantity: 1})

	view, err := h.queries.SessionOrders(h.ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, view.Orders, 1)
	assert.True(t, h.mr.Exists(cache.SessionOrdersKey(session.ID)))

	second := h.order(session.ID, OrderItemDraft{MenuItemID: nasi.ID, Quantity: 2})

	view, err = h.queries.SessionOrders(h.ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, view.Orders, 2)
	assert.Equal(t, first.ID, view.Orders[0].ID)
	assert.Equal(t, second.ID, view.Orders[1].ID)

	_, err = h.queries.SessionOrders(h.ctx, "missing")
	requireKind(t, err, KindNotFound)
	assert.False(t, h.mr.Exists(cache.SessionOrdersKey("missing")))
}

func TestOrderDetailReflectsPayment(t *testing.T) {
	h := newHarness(t, nil)
	nasi := testutil.SeedMenuItem(t, h.store, "Nasi Goreng", "25000", true)
	_, _, session := h.seat("T1")
	order := h.order(session.ID, OrderItemDraft{MenuItemID: nasi.ID, Quantity: 1})

	detail, err := h.queries.OrderDetail(h.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, detail.PaymentStatus)
	require.Len(t, detail.Items, 1)

	_, err = h.engine.UpdatePaymentStatus(h.ctx, order.ID, models.PaymentStatusPaid, "")
	require.NoError(t, err)

	detail, err = h.queries.OrderDetail(h.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, detail.PaymentStatus)
}

func TestSubmitRatings(t *testing.T) {
	h := newHarness(t, nil)
	nasi := testutil.SeedMenuItem(t, h.store, "Nasi Goreng", "25000", true)
	teh := testutil.SeedMenuItem(t, h.store, "Es Teh", "5000", true)
	_, client, session := h.seat("T1")
	order := h.order(session.ID,
		OrderItemDraft{MenuItemID: nasi.ID, Quantity: 1},
		OrderItemDraft{MenuItemID: teh.ID, Quantity: 1},
	)
	line := order.Items[0].ID

	ratings, err := h.queries.UserRatings(h.ctx, client.ID)
	require.NoError(t, err)
	assert.Empty(t, ratings)

	_, err = h.engine.SubmitRatings(h.ctx, order.ID, []ItemRatingDraft{{ItemID: line, Rating: 5}})
	e := requireKind(t, err, KindConflict)
	assert.Equal(t, models.OrderStatusPending, e.Details["status"])

	_, err = h.engine.UpdateOrderStatus(h.ctx, order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)

	_, err = h.engine.SubmitRatings(h.ctx, order.ID, []ItemRatingDraft{{ItemID: line, Rating: 6}})
	requireKind(t, err, KindInvalidInput)

	_, err = h.engine.SubmitRatings(h.ctx, order.ID, nil)
	requireKind(t, err, KindInvalidInput)

	_, err = h.engine.SubmitRatings(h.ctx, order.ID, []ItemRatingDraft{{ItemID: "other", Rating: 4}})
	requireKind(t, err, KindInvalidInput)

	rated, err := h.engine.SubmitRatings(h.ctx, order.ID, []ItemRatingDraft{{ItemID: line, Rating: 5, Comment: "enak"}})
	require.NoError(t, err)
	require.NotNil(t, rated.Items[0].Rating)
	assert.Equal(t, 5, *rated.Items[0].Rating)
	assert.Nil(t, rated.Items[1].Rating)

	ratings, err = h.queries.UserRatings(h.ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, "enak", ratings[0].RatingComment)

	_, err = h.queries.UserRatings(h.ctx, "missing")
	requireKind(t, err, KindNotFound)
}

func TestReservationsAndAvailability(t *testing.T) {
	h := newHarness(t, nil)
	testutil.SeedTable(t, h.store, "T1", 2)
	testutil.SeedTable(t, h.store, "T2", 6)
	client := testutil.SeedClient(t, h.store, "Rina")
	const date = "2026-11-01"

	pair, err := h.queries.Availability(h.ctx, date, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2"}, tableCodes(pair.Tables))

	party, err := h.queries.Availability(h.ctx, date, 6)
	require.NoError(t, err)
	assert.Equal(t, []string{"T2"}, tableCodes(party.Tables))

	assert.True(t, h.mr.Exists(cache.AvailabilityKey(date, 2)))
	assert.True(t, h.mr.Exists(cache.AvailabilityKey(date, 6)))

	reservation, err := h.engine.CreateReservation(h.ctx, ReservationDraft{
		TableCode:  "T2",
		ClientID:   client.ID,
		Date:       date,
		TimeSlot:   "19:00",
		GuestCount: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, reservation.Status)

	// every guest-count bucket of the date is dropped
	assert.False(t, h.mr.Exists(cache.AvailabilityKey(date, 2)))
	assert.False(t, h.mr.Exists(cache.AvailabilityKey(date, 6)))

	pair, err = h.queries.Availability(h.ctx, date, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, tableCodes(pair.Tables))

	party, err = h.queries.Availability(h.ctx, date, 6)
	require.NoError(t, err)
	assert.Empty(t, party.Tables)

	_, err = h.engine.CreateReservation(h.ctx, ReservationDraft{
		TableCode: "T2", ClientID: client.ID, Date: date, TimeSlot: "19:00", GuestCount: 4,
	})
	requireKind(t, err, KindConflict)

	_, err = h.engine.CreateReservation(h.ctx, ReservationDraft{
		TableCode: "T1", ClientID: client.ID, Date: date, TimeSlot: "19:00", GuestCount: 5,
	})
	e := requireKind(t, err, KindConflict)
	assert.Equal(t, 2, e.Details["capacity"])

	_, err = h.engine.CreateReservation(h.ctx, ReservationDraft{
		TableCode: "T1", ClientID: client.ID, Date: "01/11/2026", TimeSlot: "19:00", GuestCount: 2,
	})
	requireKind(t, err, KindInvalidInput)

	_, err = h.engine.CreateReservation(h.ctx, ReservationDraft{
		TableCode: "T1", ClientID: client.ID, Date: date, TimeSlot: "19:00",
	})
	requireKind(t, err, KindInvalidInput)

	_, err = h.engine.CreateReservation(h.ctx, ReservationDraft{
		TableCode: "T1", ClientID: "missing", Date: date, TimeSlot: "19:00", GuestCount: 2,
	})
	requireKind(t, err, KindNotFound)

	_, err = h.queries.Availability(h.ctx, "tomorrow", 2)
	requireKind(t, err, KindInvalidInput)

	_, err = h.queries.Availability(h.ctx, date, 0)
	requireKind(t, err, KindInvalidInput)

	reservations, err := h.queries.UserReservations(h.ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, reservations, 1)
	assert.Equal(t, reservation.ID, reservations[0].ID)
}

func TestEngineWorksWithoutCache(t *testing.T) {
	h := newHarness(t, nil)
	nasi := testutil.SeedMenuItem(t, h.store, "Nasi Goreng", "25000", true)
	h.mr.Close()

	_, _, session := h.seat("T1")
	h.order(session.ID, OrderItemDraft{MenuItemID: nasi.ID, Quantity: 1})

	view, err := h.queries.SessionOrders(h.ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, view.Orders, 1)

	h.order(session.ID, OrderItemDraft{MenuItemID: nasi.ID, Quantity: 1})
	view, err = h.queries.SessionOrders(h.ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, view.Orders, 2)

	bill, err := h.engine.GenerateBill(h.ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, bill.PaymentStatus)
}

func tableCodes(tables []models.Table) []string {
	codes := make([]string, 0, len(tables))
	for _, t := range tables {
		codes = append(codes, t.TableCode)
	}
	return codes
}
