// Package cache is the key/value adapter in front of Redis. Every caller treats
// an unavailable cache as a miss and goes to the database instead.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by every operation while the backend is down.
var ErrUnavailable = errors.New("cache: backend unavailable")

type Store interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	IsAvailable(ctx context.Context) bool

	// AddToSet and SetMembers track small sets of related keys, such as the
	// guest-count buckets cached for a date.
	AddToSet(ctx context.Context, key string, member string, ttl time.Duration) error
	SetMembers(ctx context.Context, key string) ([]string, error)
}

// Noop is a Store that is never available. It is used when Redis is disabled.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, ErrUnavailable }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return ErrUnavailable }

func (Noop) Delete(context.Context, ...string) error { return ErrUnavailable }

func (Noop) IsAvailable(context.Context) bool { return false }

func (Noop) AddToSet(context.Context, string, string, time.Duration) error { return ErrUnavailable }

func (Noop) SetMembers(context.Context, string) ([]string, error) { return nil, ErrUnavailable }
