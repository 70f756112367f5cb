package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/dinein-lifecycle/testutil"
)

func startRelay(t *testing.T, relay *Relay) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.Run(ctx, ready)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not subscribe")
	}
}

func TestRelayReachesEndpointOnOtherInstance(t *testing.T) {
	_, rdb := testutil.NewRedis(t)

	hubA, hubB := NewHub(), NewHub()
	relayA := NewRelay(hubA, rdb, "node-a")
	relayB := NewRelay(hubB, rdb, "node-b")
	startRelay(t, relayA)
	startRelay(t, relayB)

	srvB := newSocketServer(t, hubB)
	kitchen := dial(t, srvB, hubB, "id=kitchen-1")
	table := dial(t, srvB, hubB, "id=dev-a&group="+GroupForTable("A"))
	waitForEndpoint(t, hubB, "kitchen-1")
	waitForEndpoint(t, hubB, "dev-a")

	ctx := context.Background()
	require.NoError(t, relayA.EmitToEndpoint(ctx, "kitchen-1", EventNewOrder, map[string]string{"order_id": "o-1"}))
	require.NoError(t, relayA.EmitToGroup(ctx, GroupForTable("A"), EventSessionStarted, map[string]string{"session_id": "s-1"}))
	require.NoError(t, relayA.EmitToAll(ctx, EventTableStatusUpdated, nil))

	msg := read(t, kitchen)
	assert.Equal(t, EventNewOrder, msg.Event)
	assert.JSONEq(t, `{"order_id":"o-1"}`, string(msg.Data))
	assert.Equal(t, EventTableStatusUpdated, read(t, kitchen).Event)

	assert.Equal(t, EventSessionStarted, read(t, table).Event)
	assert.Equal(t, EventTableStatusUpdated, read(t, table).Event)
}

func TestRelayFallsBackToLocalDelivery(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	hub := NewHub()
	relay := NewRelay(hub, rdb, "node-a")

	srv := newSocketServer(t, hub)
	conn := dial(t, srv, hub, "id=dev-a&group="+GroupForTable("A"))
	waitForEndpoint(t, hub, "dev-a")

	mr.Close()
	require.NoError(t, relay.EmitToGroup(context.Background(), GroupForTable("A"), EventBillReady, nil))
	assert.Equal(t, EventBillReady, read(t, conn).Event)
}

func TestRelayResubscribesAfterRedisReturns(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	hub := NewHub()
	relay := NewRelay(hub, rdb, "node-a")
	relay.MinBackoff = 10 * time.Millisecond
	relay.MaxBackoff = 50 * time.Millisecond

	srv := newSocketServer(t, hub)
	kitchen := dial(t, srv, hub, "id=kitchen-1")
	waitForEndpoint(t, hub, "kitchen-1")

	mr.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.Run(ctx, nil)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Redis mati: tetap terkirim lewat hub lokal
	require.NoError(t, relay.EmitToEndpoint(context.Background(), "kitchen-1", EventNewOrder, nil))
	assert.Equal(t, EventNewOrder, read(t, kitchen).Event)
	assert.False(t, relay.Subscribed())

	require.NoError(t, mr.Restart())
	require.Eventually(t, relay.Subscribed, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, relay.EmitToEndpoint(context.Background(), "kitchen-1", EventOrderStatusUpdated, map[string]string{"order_id": "o-1"}))
	msg := read(t, kitchen)
	assert.Equal(t, EventOrderStatusUpdated, msg.Event)
	assert.JSONEq(t, `{"order_id":"o-1"}`, string(msg.Data))
}

func TestRelayDeliversLocallyBeforeSubscribing(t *testing.T) {
	_, rdb := testutil.NewRedis(t)
	hub := NewHub()
	relay := NewRelay(hub, rdb, "node-a")

	srv := newSocketServer(t, hub)
	conn := dial(t, srv, hub, "id=dev-a&group="+GroupForTable("A"))
	waitForEndpoint(t, hub, "dev-a")

	require.NoError(t, relay.EmitToGroup(context.Background(), GroupForTable("A"), EventSessionStarted, nil))
	assert.Equal(t, EventSessionStarted, read(t, conn).Event)
}
