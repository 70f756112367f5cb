package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/dinein-lifecycle/cache"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

// ReadPath serves cached reads in front of the store. The cache is never
// required: every cache failure degrades to a store read.
type ReadPath struct {
	cache cache.Store
}

func NewReadPath(c cache.Store) *ReadPath {
	if c == nil {
		c = cache.Noop{}
	}
	return &ReadPath{cache: c}
}

// Cache exposes the underlying store for bookkeeping such as bucket tracking.
func (rp *ReadPath) Cache() cache.Store {
	return rp.cache
}

// Fetch returns the cached value for key or loads it, caching the result for ttl.
// Loader errors are returned as is and never cached.
func Fetch[T any](ctx context.Context, rp *ReadPath, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	available := rp.cache.IsAvailable(ctx)

	if available {
		raw, ok, err := rp.cache.Get(ctx, key)
		switch {
		case err != nil:
			utils.InfoLogger.WithField("key", key).Debugf("Cache read failed: %v", err)
		case ok:
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			utils.InfoLogger.WithField("key", key).Warn("Dropping undecodable cache entry")
			_ = rp.cache.Delete(ctx, key)
		}
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if available {
		raw, err := json.Marshal(value)
		if err == nil {
			err = rp.cache.Set(ctx, key, raw, ttl)
		}
		if err != nil {
			utils.InfoLogger.WithFields(logrus.Fields{"key": key}).Debugf("Cache write skipped: %v", err)
		}
	}
	return value, nil
}
