package services

import (
	"context"
	"strings"
	"time"

	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/store"
)

// ReservationDraft is the input of CreateReservation.
type ReservationDraft struct {
	TableCode  string `json:"table_id"`
	ClientID   string `json:"client_id"`
	Date       string `json:"date"`
	TimeSlot   string `json:"time_slot"`
	GuestCount int    `json:"guest_count"`
}

// CreateReservation books a table for a date and time slot.
func (e *Engine) CreateReservation(ctx context.Context, draft ReservationDraft) (*models.Reservation, error) {
	draft.TimeSlot = strings.TrimSpace(draft.TimeSlot)
	if draft.TableCode == "" || draft.ClientID == "" || draft.TimeSlot == "" {
		return nil, InvalidInput("table_id, client_id and time_slot are required")
	}
	if _, err := time.Parse(models.ReservationDateLayout, draft.Date); err != nil {
		return nil, InvalidInput("date must be formatted as YYYY-MM-DD")
	}
	if draft.GuestCount < 1 {
		return nil, InvalidInput("guest_count must be at least 1")
	}

	table, err := e.store.FindTableByCode(ctx, draft.TableCode)
	if err != nil {
		return nil, lookupErr(err, "table", draft.TableCode)
	}
	if err := e.requireClient(ctx, draft.ClientID); err != nil {
		return nil, err
	}
	if !table.IsActive {
		return nil, Conflict("table %s is not active", draft.TableCode)
	}
	if table.Capacity < draft.GuestCount {
		return nil, Conflict("table %s seats %d guests", draft.TableCode, table.Capacity).With("capacity", table.Capacity)
	}

	taken, err := store.Exists[models.Reservation](ctx, e.store, store.Filter{
		"table_id":  table.ID,
		"date":      draft.Date,
		"time_slot": draft.TimeSlot,
		"status":    models.ReservationStatusConfirmed,
	})
	if err != nil {
		return nil, Unexpected(err, "failed to check reservations")
	}
	if taken {
		return nil, Conflict("table %s is already reserved for %s %s", draft.TableCode, draft.Date, draft.TimeSlot)
	}

	reservation := &models.Reservation{
		TableID:    table.ID,
		ClientID:   draft.ClientID,
		Date:       draft.Date,
		TimeSlot:   draft.TimeSlot,
		GuestCount: draft.GuestCount,
		Status:     models.ReservationStatusConfirmed,
	}
	if err := store.Create(ctx, e.store, reservation); err != nil {
		return nil, Unexpected(err, "failed to create reservation")
	}

	e.commit(ctx, models.Transition{Kind: models.TransitionReservationCreated, Reservation: reservation})
	return reservation, nil
}
