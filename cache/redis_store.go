package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

const defaultRetryAfter = 5 * time.Second

// RedisStore implements Store on go-redis. After a connection error the store
// reports itself unavailable and only pings again once retryAfter has passed.
type RedisStore struct {
	client     redis.Cmdable
	retryAfter time.Duration

	mu       sync.Mutex
	down     bool
	downTime time.Time
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, retryAfter: defaultRetryAfter}
}

// WithRetryAfter sets how long the store stays unavailable after a failure.
func (s *RedisStore) WithRetryAfter(d time.Duration) *RedisStore {
	s.retryAfter = d
	return s
}

func (s *RedisStore) IsAvailable(ctx context.Context) bool {
	s.mu.Lock()
	if !s.down {
		s.mu.Unlock()
		return true
	}
	if time.Since(s.downTime) < s.retryAfter {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.client.Ping(pingCtx).Err(); err != nil {
		s.mu.Lock()
		s.downTime = time.Now()
		s.mu.Unlock()
		return false
	}

	s.mu.Lock()
	s.down = false
	s.mu.Unlock()
	utils.InfoLogger.Println("Cache backend reachable again")
	return true
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !s.IsAvailable(ctx) {
		return nil, false, ErrUnavailable
	}
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.markDown(err)
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !s.IsAvailable(ctx) {
		return ErrUnavailable
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.markDown(err)
		return err
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if !s.IsAvailable(ctx) {
		return ErrUnavailable
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.markDown(err)
		return err
	}
	return nil
}

func (s *RedisStore) AddToSet(ctx context.Context, key string, member string, ttl time.Duration) error {
	if !s.IsAvailable(ctx) {
		return ErrUnavailable
	}
	if err := s.client.SAdd(ctx, key, member).Err(); err != nil {
		s.markDown(err)
		return err
	}
	if ttl > 0 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			s.markDown(err)
			return err
		}
	}
	return nil
}

func (s *RedisStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	if !s.IsAvailable(ctx) {
		return nil, ErrUnavailable
	}
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		s.markDown(err)
		return nil, err
	}
	return members, nil
}

func (s *RedisStore) markDown(err error) {
	// A cancelled caller says nothing about the backend.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.down {
		utils.ErrorLogger.Printf("Cache backend unavailable, falling back to database: %v", err)
	}
	s.down = true
	s.downTime = time.Now()
}
