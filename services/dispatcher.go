package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

// TransitionHandler consumes committed transitions after the response path.
type TransitionHandler interface {
	HandleTransition(ctx context.Context, t models.Transition) error
}

// HandlerFunc adapts a function to TransitionHandler.
type HandlerFunc func(ctx context.Context, t models.Transition) error

func (f HandlerFunc) HandleTransition(ctx context.Context, t models.Transition) error {
	return f(ctx, t)
}

// DispatcherMetrics menyimpan metrik pengiriman side effect
type DispatcherMetrics struct {
	Enqueued    int64 `json:"enqueued"`
	Delivered   int64 `json:"delivered"`
	Failed      int64 `json:"failed"`
	Dropped     int64 `json:"dropped"`
	QueueLength int   `json:"queue_length"`
	QueueSize   int   `json:"queue_size"`
}

// Dispatcher runs transition handlers on a single worker so events leave in
// commit order. Enqueue never blocks: a full queue drops the transition.
type Dispatcher struct {
	queue          chan models.Transition
	handlers       []TransitionHandler
	handlerTimeout time.Duration
	metrics        DispatcherMetrics
	mutex          sync.Mutex
	stopChan       chan struct{}
	done           chan struct{}
	startOnce      sync.Once
	stopOnce       sync.Once
}

// NewDispatcher membuat instance baru Dispatcher
func NewDispatcher(queueSize int, handlers ...TransitionHandler) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Dispatcher{
		queue:          make(chan models.Transition, queueSize),
		handlers:       handlers,
		handlerTimeout: 5 * time.Second,
		metrics:        DispatcherMetrics{QueueSize: queueSize},
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// AddHandler registers h. It must be called before Start.
func (d *Dispatcher) AddHandler(h TransitionHandler) {
	d.handlers = append(d.handlers, h)
}

// Start memulai worker
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		go d.run()
		utils.InfoLogger.Info("Dispatcher started")
	})
}

// Stop delivers what is already queued and waits for the worker to exit.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopChan)
	})
	d.startOnce.Do(func() { close(d.done) })
	<-d.done
}

// Enqueue schedules t for delivery and reports whether it was accepted.
func (d *Dispatcher) Enqueue(t models.Transition) bool {
	select {
	case <-d.stopChan:
		d.count(func(m *DispatcherMetrics) { m.Dropped++ })
		return false
	default:
	}

	select {
	case d.queue <- t:
		d.count(func(m *DispatcherMetrics) { m.Enqueued++ })
		return true
	default:
		d.count(func(m *DispatcherMetrics) { m.Dropped++ })
		utils.InfoLogger.WithFields(logrus.Fields{
			"transition": t.Kind,
			"entity_id":  t.EntityID(),
		}).Warn("Dispatcher queue full, dropping transition")
		return false
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case t := <-d.queue:
			d.deliver(t)
		case <-d.stopChan:
			for {
				select {
				case t := <-d.queue:
					d.deliver(t)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(t models.Transition) {
	failed := false
	for _, h := range d.handlers {
		if err := d.invoke(h, t); err != nil {
			failed = true
			utils.ErrorLogger.WithFields(logrus.Fields{
				"transition": t.Kind,
				"entity_id":  t.EntityID(),
			}).Errorf("Transition handler failed: %v", err)
		}
	}
	if failed {
		d.count(func(m *DispatcherMetrics) { m.Failed++ })
		return
	}
	d.count(func(m *DispatcherMetrics) { m.Delivered++ })
}

func (d *Dispatcher) invoke(h TransitionHandler, t models.Transition) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.handlerTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.HandleTransition(ctx, t)
}

func (d *Dispatcher) count(update func(m *DispatcherMetrics)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	update(&d.metrics)
}

// GetMetrics mengembalikan metrik dispatcher saat ini
func (d *Dispatcher) GetMetrics() DispatcherMetrics {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	m := d.metrics
	m.QueueLength = len(d.queue)
	return m
}
