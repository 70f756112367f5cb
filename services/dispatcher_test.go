package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/testutil"
)

func TestDispatcherDeliversInCommitOrder(t *testing.T) {
	rec := &testutil.Recorder{}
	d := NewDispatcher(16, rec)
	d.Start()

	kinds := []models.TransitionKind{
		models.TransitionOrderCreated,
		models.TransitionOrderStatusChanged,
		models.TransitionPaymentStatusChanged,
		models.TransitionBillGenerated,
	}
	for _, k := range kinds {
		require.True(t, d.Enqueue(models.Transition{Kind: k}))
	}
	d.Stop()

	assert.Equal(t, kinds, rec.Kinds())

	m := d.GetMetrics()
	assert.Equal(t, int64(4), m.Enqueued)
	assert.Equal(t, int64(4), m.Delivered)
	assert.Equal(t, 16, m.QueueSize)

	assert.False(t, d.Enqueue(models.Transition{Kind: models.TransitionOrderCreated}))
	assert.Equal(t, int64(1), d.GetMetrics().Dropped)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	rec := &testutil.Recorder{}
	d := NewDispatcher(1, rec)

	assert.True(t, d.Enqueue(models.Transition{Kind: models.TransitionOrderCreated}))
	assert.False(t, d.Enqueue(models.Transition{Kind: models.TransitionOrderStatusChanged}))

	m := d.GetMetrics()
	assert.Equal(t, 1, m.QueueLength)
	assert.Equal(t, int64(1), m.Dropped)

	d.Start()
	d.Stop()
	assert.Equal(t, []models.TransitionKind{models.TransitionOrderCreated}, rec.Kinds())
}

func TestDispatcherIsolatesFailingHandlers(t *testing.T) {
	rec := &testutil.Recorder{}
	panicky := HandlerFunc(func(context.Context, models.Transition) error { panic("boom") })
	failing := HandlerFunc(func(context.Context, models.Transition) error { return errors.New("broker down") })

	d := NewDispatcher(8, panicky, failing)
	d.AddHandler(rec)
	d.Start()
	d.Enqueue(models.Transition{Kind: models.TransitionSessionStarted})
	d.Enqueue(models.Transition{Kind: models.TransitionSessionEnded})
	d.Stop()

	assert.Len(t, rec.Kinds(), 2)
	m := d.GetMetrics()
	assert.Equal(t, int64(2), m.Failed)
	assert.Zero(t, m.Delivered)
}

func TestDispatcherStopWithoutStart(t *testing.T) {
	d := NewDispatcher(0)
	d.Stop()
	assert.Equal(t, 1024, d.GetMetrics().QueueSize)
	assert.False(t, d.Enqueue(models.Transition{Kind: models.TransitionOrderCreated}))
}
