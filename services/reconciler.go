package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

// ReconcileReport counts what one reconciliation pass repaired.
type ReconcileReport struct {
	Reattached int `json:"reattached"`
	Cascaded   int `json:"cascaded"`
	Released   int `json:"released"`
	Promoted   int `json:"promoted"`
	Unclaimed  int `json:"unclaimed"`
}

// Reconciler repairs state left behind when a process stops between two
// single-row writes of one operation.
type Reconciler struct {
	engine    *Engine
	StopChan  chan struct{}
	Interval  time.Duration
	BatchSize int
	stopOnce  sync.Once
}

func NewReconciler(engine *Engine, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reconciler{
		engine:    engine,
		StopChan:  make(chan struct{}),
		Interval:  interval,
		BatchSize: 100,
	}
}

func (r *Reconciler) Start() {
	go func() {
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), r.Interval)
				report, err := r.RunOnce(ctx)
				cancel()
				if err != nil {
					utils.ErrorLogger.Errorf("Reconciliation failed: %v", err)
					continue
				}
				if report.Reattached+report.Cascaded+report.Released+report.Promoted+report.Unclaimed > 0 {
					utils.InfoLogger.WithFields(logrus.Fields{
						"reattached": report.Reattached,
						"cascaded":   report.Cascaded,
						"released":   report.Released,
						"promoted":   report.Promoted,
						"unclaimed":  report.Unclaimed,
					}).Info("Reconciled interrupted operations")
				}
			case <-r.StopChan:
				return
			}
		}
	}()
}

func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.StopChan) })
}

// RunOnce performs a single pass: orders missing from their session are
// re-attached, billed sessions still active move to payment_pending,
// payment_pending sessions that are fully paid are closed, tables still
// pointing at a finished session are released, and so are clients whose claim
// outlived its session.
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	e := r.engine

	orphans, err := e.store.UnattachedSessionOrders(ctx, r.BatchSize)
	if err != nil {
		return report, err
	}
	for _, o := range orphans {
		if _, err := e.AttachOrder(ctx, *o.SessionID, o.ID); err != nil {
			utils.ErrorLogger.WithField("order_id", o.ID).Errorf("Failed to re-attach order: %v", err)
			continue
		}
		report.Reattached++
	}

	billed, err := e.store.ActiveSessionsWithBill(ctx, r.BatchSize)
	if err != nil {
		return report, err
	}
	for _, s := range billed {
		if _, err := e.GenerateBill(ctx, s.ID); err != nil {
			utils.ErrorLogger.WithField("session_id", s.ID).Errorf("Failed to move billed session to payment_pending: %v", err)
			continue
		}
		report.Promoted++
	}

	pending, err := e.store.FindSessionsByStatus(ctx, models.SessionStatusPaymentPending)
	if err != nil {
		return report, err
	}
	for _, s := range pending {
		settled, err := r.settled(ctx, s.ID)
		if err != nil {
			utils.ErrorLogger.WithField("session_id", s.ID).Errorf("Failed to check session payment: %v", err)
			continue
		}
		if !settled {
			continue
		}
		if err := e.closeSessionCascade(ctx, s.ID); err != nil {
			utils.ErrorLogger.WithField("session_id", s.ID).Errorf("Failed to close session: %v", err)
			continue
		}
		report.Cascaded++
	}

	tables, err := e.store.OccupiedTables(ctx)
	if err != nil {
		return report, err
	}
	for _, t := range tables {
		session, err := e.store.FindSession(ctx, *t.CurrentSessionID)
		if err != nil || session.Open() {
			continue
		}
		// the session finished but the table release never landed
		released, err := e.store.ReleaseTable(ctx, t.ID, session.ID, models.TableStatusCleaning)
		if err != nil {
			utils.ErrorLogger.WithField("table_id", t.ID).Errorf("Failed to release table: %v", err)
			continue
		}
		if !released {
			continue
		}
		table := t
		table.Status = models.TableStatusCleaning
		table.CurrentSessionID = nil
		e.commit(ctx, models.Transition{Kind: models.TransitionTableStatusChanged, Table: &table})
		report.Released++
	}

	// a claim younger than one interval may belong to a StartSession in flight
	claims, err := e.store.StaleClientClaims(ctx, time.Now().Add(-r.Interval), r.BatchSize)
	if err != nil {
		return report, err
	}
	for _, c := range claims {
		released, err := e.store.ReleaseClient(ctx, c.ID, *c.CurrentSessionID)
		if err != nil {
			utils.ErrorLogger.WithField("client_id", c.ID).Errorf("Failed to release client: %v", err)
			continue
		}
		if released {
			report.Unclaimed++
		}
	}
	return report, nil
}

// settled reports whether a pending session's orders or bill are fully paid.
func (r *Reconciler) settled(ctx context.Context, sessionID string) (bool, error) {
	e := r.engine
	session, err := e.store.FindSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if bill, err := e.store.FindBillBySession(ctx, sessionID); err == nil && bill.PaymentStatus == models.PaymentStatusPaid {
		return true, nil
	}
	return e.sessionSettled(ctx, session)
}
