package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/store"
)

// StartSession seats clientID at the table registered as tableCode.
func (e *Engine) StartSession(ctx context.Context, tableCode, clientID string) (*models.TableSession, error) {
	tableCode, clientID = strings.TrimSpace(tableCode), strings.TrimSpace(clientID)
	if tableCode == "" || clientID == "" {
		return nil, InvalidInput("tableId and clientId are required")
	}

	table, err := e.store.FindTableByCode(ctx, tableCode)
	if err != nil {
		return nil, lookupErr(err, "table", tableCode)
	}
	if err := e.requireClient(ctx, clientID); err != nil {
		return nil, err
	}

	if !table.IsActive {
		return nil, Conflict("table %s is not active", tableCode)
	}
	if table.Status != models.TableStatusAvailable {
		conflict := Conflict("table %s is %s", tableCode, table.Status).With("status", table.Status)
		if table.CurrentSessionID != nil {
			conflict.With("sessionId", *table.CurrentSessionID)
		}
		return nil, conflict
	}

	existing, err := e.store.FindOpenSessionByClient(ctx, clientID)
	switch {
	case err == nil:
		return nil, Conflict("client %s already has an active session", clientID).With("sessionId", existing.ID)
	case !errors.Is(err, store.ErrNotFound):
		return nil, Unexpected(err, "failed to check sessions of client %s", clientID)
	}

	session := &models.TableSession{
		ID:          uuid.NewString(),
		TableID:     table.ID,
		ClientID:    clientID,
		Status:      models.SessionStatusActive,
		StartTime:   e.now(),
		TotalAmount: decimal.Zero,
	}

	held, err := e.store.ClaimClient(ctx, clientID, session.ID)
	if err != nil {
		return nil, Unexpected(err, "failed to claim client %s", clientID)
	}
	if !held {
		return nil, e.clientBusy(ctx, clientID)
	}

	claimed, err := e.store.ClaimTable(ctx, table.ID, session.ID)
	if err != nil {
		e.releaseClient(ctx, clientID, session.ID)
		return nil, Unexpected(err, "failed to claim table %s", tableCode)
	}
	if !claimed {
		e.releaseClient(ctx, clientID, session.ID)
		return nil, Conflict("table %s is no longer available", tableCode)
	}

	if err := store.Create(ctx, e.store, session); err != nil {
		if _, relErr := e.store.ReleaseTable(ctx, table.ID, session.ID, models.TableStatusAvailable); relErr != nil {
			logDerived("release claimed table", table.ID, relErr)
		}
		e.releaseClient(ctx, clientID, session.ID)
		return nil, Unexpected(err, "failed to create session")
	}
	session.OrderIDs = []string{}

	table.Status = models.TableStatusOccupied
	table.CurrentSessionID = strPtr(session.ID)

	e.commit(ctx, models.Transition{
		Kind:    models.TransitionSessionStarted,
		Session: session,
		Table:   table,
	})
	return session, nil
}

// clientBusy builds the conflict returned when another session holds the client.
func (e *Engine) clientBusy(ctx context.Context, clientID string) error {
	conflict := Conflict("client %s already has an active session", clientID)
	if client, err := store.FindByID[models.Client](ctx, e.store, clientID); err == nil && client.CurrentSessionID != nil {
		conflict.With("sessionId", *client.CurrentSessionID)
	}
	return conflict
}

// releaseClient frees the client for its next session. A failed release is
// only logged: the claim stops counting once the session is finished.
func (e *Engine) releaseClient(ctx context.Context, clientID, sessionID string) {
	if _, err := e.store.ReleaseClient(ctx, clientID, sessionID); err != nil {
		logDerived("release client", clientID, err)
	}
}

// AttachOrder appends an already placed order to its session. It is safe to
// call repeatedly and is how a failed association is retried.
func (e *Engine) AttachOrder(ctx context.Context, sessionID, orderID string) (*models.TableSession, error) {
	session, err := e.store.FindSession(ctx, sessionID)
	if err != nil {
		return nil, lookupErr(err, "session", sessionID)
	}
	order, err := e.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "order", orderID)
	}
	if order.SessionID == nil || *order.SessionID != sessionID {
		return nil, Conflict("order %s does not belong to session %s", orderID, sessionID)
	}

	for _, id := range session.OrderIDs {
		if id == orderID {
			return session, nil
		}
	}

	if err := e.store.AppendSessionOrder(ctx, sessionID, orderID); err != nil {
		return nil, Unexpected(err, "failed to attach order %s", orderID)
	}
	session.OrderIDs = append(session.OrderIDs, orderID)
	e.refreshSessionTotal(ctx, sessionID)

	e.commit(ctx, models.Transition{
		Kind:    models.TransitionOrderAttached,
		Order:   order,
		Session: session,
	})
	return session, nil
}
