package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	raw      string
	deadline time.Time
}

// InMemory is a map-backed Store for tests and local runs. Values go through
// the same JSON encoding as the redis backend so payload semantics match.
type InMemory struct {
	mu  sync.RWMutex
	mem map[string]entry
	now func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		mem: make(map[string]entry),
		now: time.Now,
	}
}

func (s *InMemory) CacheGet(_ context.Context, key string) (any, error) {
	s.mu.RLock()
	e, ok := s.mem[key]
	s.mu.RUnlock()
	if !ok || (!e.deadline.IsZero() && s.now().After(e.deadline)) {
		return nil, nil
	}
	var value any
	if err := json.Unmarshal([]byte(e.raw), &value); err != nil {
		return nil, fmt.Errorf("malformed payload at key %s: %w", key, err)
	}
	return value, nil
}

func (s *InMemory) CacheSet(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for key %s: %w", key, err)
	}
	e := entry{raw: string(raw)}
	if ttl > 0 {
		e.deadline = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.mem[key] = e
	s.mu.Unlock()
	return nil
}

func (s *InMemory) Get(ctx context.Context, key string) (any, error) {
	value, err := s.CacheGet(ctx, key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotSet, key)
	}
	return value, nil
}
