package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/store"
)

// DefaultTableCapacity is used when a device registers without a capacity.
const DefaultTableCapacity = 4

// UpdateTableStatus sets the status of a table. Leaving occupied force-completes
// the attached session; entering occupied is only possible through StartSession.
func (e *Engine) UpdateTableStatus(ctx context.Context, tableCode, status string) (*models.Table, error) {
	if !models.IsTableStatus(status) {
		return nil, InvalidInput("unknown table status %q", status)
	}

	table, err := e.store.FindTableByCode(ctx, tableCode)
	if err != nil {
		return nil, lookupErr(err, "table", tableCode)
	}
	if table.Status == status {
		return table, nil
	}
	if status == models.TableStatusOccupied {
		return nil, Conflict("table %s can only become occupied by starting a session", tableCode)
	}

	if table.CurrentSessionID == nil {
		ok, err := e.store.SetUnboundTableStatus(ctx, table.ID, status)
		if err != nil {
			return nil, Unexpected(err, "failed to update table %s", tableCode)
		}
		if !ok {
			return nil, Conflict("table %s changed concurrently", tableCode)
		}
		table.Status = status
		e.commit(ctx, models.Transition{Kind: models.TransitionTableStatusChanged, Table: table})
		return table, nil
	}

	sessionID := *table.CurrentSessionID
	now := e.now()
	completed, err := e.store.TransitionSession(ctx, sessionID,
		[]string{models.SessionStatusActive, models.SessionStatusPaymentPending},
		models.SessionStatusCompleted, &now)
	if err != nil {
		return nil, Unexpected(err, "failed to complete session %s", sessionID)
	}

	released, err := e.store.ReleaseTable(ctx, table.ID, sessionID, status)
	if err != nil {
		return nil, Unexpected(err, "failed to release table %s", tableCode)
	}
	if !released {
		return nil, Conflict("table %s changed concurrently", tableCode)
	}
	table.Status = status
	table.CurrentSessionID = nil

	var transitions []models.Transition
	if completed {
		session, err := e.store.FindSession(ctx, sessionID)
		if err != nil {
			logDerived("load completed session", sessionID, err)
		} else {
			e.releaseClient(ctx, session.ClientID, session.ID)
			transitions = append(transitions, models.Transition{Kind: models.TransitionSessionEnded, Session: session, Table: table})
		}
	}
	if len(transitions) == 0 {
		transitions = append(transitions, models.Transition{Kind: models.TransitionTableStatusChanged, Table: table})
	}
	e.commit(ctx, transitions...)
	return table, nil
}

// RegisterTable registers a table device. Registering a known code reactivates
// the table and updates its capacity.
func (e *Engine) RegisterTable(ctx context.Context, tableCode string, capacity int) (*models.Table, error) {
	tableCode = strings.TrimSpace(tableCode)
	if tableCode == "" {
		return nil, InvalidInput("tableId is required")
	}
	if capacity == 0 {
		capacity = DefaultTableCapacity
	}
	if capacity < 1 {
		return nil, InvalidInput("capacity must be at least 1")
	}

	table, err := e.store.FindTableByCode(ctx, tableCode)
	switch {
	case err == nil:
		if err := e.store.ReactivateTable(ctx, table.ID, capacity); err != nil {
			return nil, Unexpected(err, "failed to reactivate table %s", tableCode)
		}
		table.IsActive = true
		table.Capacity = capacity
	case errors.Is(err, store.ErrNotFound):
		table = &models.Table{
			TableCode: tableCode,
			Capacity:  capacity,
			Status:    models.TableStatusAvailable,
			IsActive:  true,
		}
		if err := store.Create(ctx, e.store, table); err != nil {
			// lost a race with another registration of the same code
			if existing, findErr := e.store.FindTableByCode(ctx, tableCode); findErr == nil {
				return existing, nil
			}
			return nil, Unexpected(err, "failed to register table %s", tableCode)
		}
	default:
		return nil, Unexpected(err, "failed to load table %s", tableCode)
	}

	e.commit(ctx, models.Transition{Kind: models.TransitionTableStatusChanged, Table: table})
	return table, nil
}

// DeactivateTable takes a table out of service. Tables are never deleted.
func (e *Engine) DeactivateTable(ctx context.Context, tableCode string) (*models.Table, error) {
	table, err := e.store.FindTableByCode(ctx, tableCode)
	if err != nil {
		return nil, lookupErr(err, "table", tableCode)
	}
	if !table.IsActive {
		return table, nil
	}
	if table.CurrentSessionID != nil {
		return nil, Conflict("table %s has an active session", tableCode).With("sessionId", *table.CurrentSessionID)
	}

	ok, err := e.store.SetTableActive(ctx, table.ID, false)
	if err != nil {
		return nil, Unexpected(err, "failed to deactivate table %s", tableCode)
	}
	if !ok {
		return nil, Conflict("table %s changed concurrently", tableCode)
	}
	table.IsActive = false

	e.commit(ctx, models.Transition{Kind: models.TransitionTableStatusChanged, Table: table})
	return table, nil
}

// RegisterClient creates the customer record used by sessions and orders.
func (e *Engine) RegisterClient(ctx context.Context, name, phone string) (*models.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, InvalidInput("name is required")
	}
	client := &models.Client{Name: name, Phone: strings.TrimSpace(phone)}
	if err := store.Create(ctx, e.store, client); err != nil {
		return nil, Unexpected(err, "failed to register client")
	}
	return client, nil
}
