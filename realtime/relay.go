package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

// RelayChannel is the pub/sub channel shared by every instance.
const RelayChannel = "dinein:realtime"

const (
	targetEndpoint = "endpoint"
	targetGroup    = "group"
	targetAll      = "all"
)

type envelope struct {
	Target  string          `json:"target"`
	Address string          `json:"address,omitempty"`
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

// Relay is a Transport that publishes each emission to every instance through
// Redis, so an endpoint is reached whichever instance holds its connection.
// When publishing fails, or while this instance is not subscribed, the
// emission is also delivered to the local Hub.
type Relay struct {
	hub        *Hub
	redis      *redis.Client
	channel    string
	instanceID string
	subscribed atomic.Bool

	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func NewRelay(hub *Hub, client *redis.Client, instanceID string) *Relay {
	return &Relay{
		hub:        hub,
		redis:      client,
		channel:    RelayChannel,
		instanceID: instanceID,
		MinBackoff: 500 * time.Millisecond,
		MaxBackoff: 30 * time.Second,
	}
}

// Subscribed reports whether the relay currently receives the channel.
func (r *Relay) Subscribed() bool {
	return r.subscribed.Load()
}

func (r *Relay) EmitToEndpoint(ctx context.Context, endpointID, event string, payload interface{}) error {
	return r.publish(ctx, targetEndpoint, endpointID, event, payload)
}

func (r *Relay) EmitToGroup(ctx context.Context, group, event string, payload interface{}) error {
	return r.publish(ctx, targetGroup, group, event, payload)
}

func (r *Relay) EmitToAll(ctx context.Context, event string, payload interface{}) error {
	return r.publish(ctx, targetAll, "", event, payload)
}

func (r *Relay) publish(ctx context.Context, target, address, event string, payload interface{}) error {
	msg, err := encode(event, payload)
	if err != nil {
		return err
	}
	env := envelope{Target: target, Address: address, Origin: r.instanceID, Message: msg}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}

	if err := r.redis.Publish(ctx, r.channel, raw).Err(); err != nil {
		utils.InfoLogger.WithFields(logrus.Fields{
			"event":  event,
			"target": target,
		}).Warnf("Relay publish failed, delivering locally: %v", err)
		r.deliver(env)
		return nil
	}
	if !r.subscribed.Load() {
		// our own subscription will not echo it back
		r.deliver(env)
	}
	return nil
}

var errSubscriptionClosed = errors.New("subscription closed")

// Run keeps the relay subscribed and delivers every envelope to the local Hub
// until ctx is done, resubscribing with backoff whenever Redis is lost. ready
// is closed the first time the subscription is active.
func (r *Relay) Run(ctx context.Context, ready chan<- struct{}) error {
	backoff := r.MinBackoff
	for {
		active, err := r.subscribe(ctx, &ready)
		if ctx.Err() != nil {
			return nil
		}
		if active {
			backoff = r.MinBackoff
		}
		utils.ErrorLogger.Errorf("Realtime relay on %s interrupted, retrying in %s: %v", r.channel, backoff, err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > r.MaxBackoff {
			backoff = r.MaxBackoff
		}
	}
}

// subscribe runs one subscription until it fails. active reports whether the
// subscription was established before failing.
func (r *Relay) subscribe(ctx context.Context, ready *chan<- struct{}) (active bool, err error) {
	sub := r.redis.Subscribe(ctx, r.channel)
	defer sub.Close()
	defer r.subscribed.Store(false)

	if _, err := sub.Receive(ctx); err != nil {
		return false, fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.subscribed.Store(true)
	if *ready != nil {
		close(*ready)
		*ready = nil
	}
	utils.InfoLogger.Infof("Realtime relay subscribed to %s", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return true, errSubscriptionClosed
			}
			var env envelope
			if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
				utils.ErrorLogger.Errorf("Dropping malformed relay message: %v", err)
				continue
			}
			r.deliver(env)
		}
	}
}

func (r *Relay) deliver(env envelope) {
	switch env.Target {
	case targetEndpoint:
		r.hub.deliverToEndpoint(env.Address, env.Message)
	case targetGroup:
		r.hub.deliverToGroup(env.Address, env.Message)
	case targetAll:
		r.hub.deliverToAll(env.Message)
	}
}
