package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/dinein-lifecycle/cache"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

const kitchenDropTimeout = 2 * time.Second

// Notifier turns committed transitions into realtime events. Payloads depend
// only on the post-commit entities and, for status changes, the previous status.
type Notifier struct {
	transport Transport
	bindings  *BindingRegistry
	cache     cache.Store
	pending   sync.WaitGroup
}

func NewNotifier(transport Transport, bindings *BindingRegistry, c cache.Store) *Notifier {
	if c == nil {
		c = cache.Noop{}
	}
	return &Notifier{transport: transport, bindings: bindings, cache: c}
}

// HandleTransition routes a committed transition to its notifications.
func (n *Notifier) HandleTransition(ctx context.Context, t models.Transition) error {
	switch t.Kind {
	case models.TransitionOrderCreated:
		return n.NotifyNewOrder(ctx, t.Order)
	case models.TransitionOrderStatusChanged:
		return n.NotifyOrderStatusChanged(ctx, t.Order, t.PreviousStatus)
	case models.TransitionSessionStarted:
		if err := n.NotifySessionStarted(ctx, t.Session); err != nil {
			return err
		}
		return n.NotifyTableStatusChanged(ctx, t.Table)
	case models.TransitionSessionEnded:
		if err := n.NotifySessionEnded(ctx, t.Session); err != nil {
			return err
		}
		return n.NotifyTableStatusChanged(ctx, t.Table)
	case models.TransitionBillGenerated:
		return n.NotifyBillReady(ctx, t.Bill, t.Session)
	case models.TransitionTableStatusChanged:
		return n.NotifyTableStatusChanged(ctx, t.Table)
	}
	return nil
}

// NotifyNewOrder tells the kitchen about a placed order.
func (n *Notifier) NotifyNewOrder(ctx context.Context, order *models.Order) error {
	if order == nil {
		return nil
	}
	n.dropKitchenAggregates()
	return n.emitToKitchen(ctx, EventNewOrder, order)
}

// NotifyOrderStatusChanged tells the kitchen and the order's table.
func (n *Notifier) NotifyOrderStatusChanged(ctx context.Context, order *models.Order, previous string) error {
	if order == nil {
		return nil
	}
	n.dropKitchenAggregates()

	payload := orderStatusPayload(order, previous)
	var errs []error
	if err := n.emitToKitchen(ctx, EventOrderStatusUpdated, payload); err != nil {
		errs = append(errs, err)
	}
	if order.TableID != nil {
		if err := n.transport.EmitToGroup(ctx, GroupForTable(*order.TableID), EventOrderStatusUpdated, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) NotifySessionStarted(ctx context.Context, session *models.TableSession) error {
	if session == nil {
		return nil
	}
	return n.transport.EmitToGroup(ctx, GroupForTable(session.TableID), EventSessionStarted, sessionPayload(session))
}

func (n *Notifier) NotifySessionEnded(ctx context.Context, session *models.TableSession) error {
	if session == nil {
		return nil
	}
	return n.transport.EmitToGroup(ctx, GroupForTable(session.TableID), EventSessionEnded, sessionPayload(session))
}

// NotifyBillReady tells the devices of the session's table that the bill exists.
func (n *Notifier) NotifyBillReady(ctx context.Context, bill *models.Bill, session *models.TableSession) error {
	if bill == nil || session == nil {
		return nil
	}
	return n.transport.EmitToGroup(ctx, GroupForTable(session.TableID), EventBillReady, billPayload(bill))
}

// NotifyTableStatusChanged broadcasts a table's new state to every connection.
func (n *Notifier) NotifyTableStatusChanged(ctx context.Context, table *models.Table) error {
	if table == nil {
		return nil
	}
	return n.transport.EmitToAll(ctx, EventTableStatusUpdated, table)
}

func (n *Notifier) emitToKitchen(ctx context.Context, event string, payload interface{}) error {
	endpointID, ok, err := n.bindings.Current(ctx, models.EndpointRoleKitchen)
	if err != nil {
		return err
	}
	if !ok {
		utils.InfoLogger.WithField("event", event).Debug("No kitchen endpoint registered")
		return nil
	}
	return n.transport.EmitToEndpoint(ctx, endpointID, event, payload)
}

// dropKitchenAggregates deletes both kitchen lists in the background.
func (n *Notifier) dropKitchenAggregates() {
	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), kitchenDropTimeout)
		defer cancel()

		if !n.cache.IsAvailable(ctx) {
			return
		}
		if err := n.cache.Delete(ctx, cache.KeyKitchenActiveOrders, cache.KeyKitchenCompletedOrders); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"keys": []string{cache.KeyKitchenActiveOrders, cache.KeyKitchenCompletedOrders},
			}).Errorf("Failed to drop kitchen aggregates: %v", err)
		}
	}()
}

// Wait blocks until background cache drops have finished.
func (n *Notifier) Wait() {
	n.pending.Wait()
}
