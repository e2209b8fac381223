package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
	MGet(ctx context.Context, keys ...string) (map[string]string, error)
	// PushCapped prepends value to the list at key and keeps the newest keep entries.
	// Lists have no TTL unless Expire sets one.
	PushCapped(ctx context.Context, key string, value interface{}, keep int) error
	// Range returns up to n entries of the list at key, newest first.
	Range(ctx context.Context, key string, n int) ([]string, error)
	Close() error
}

// MGetTyped retrieves multiple keys and unmarshals to typed map.
func MGetTyped[T any](ctx context.Context, c Service, keys ...string) (map[string]T, error) {
	if len(keys) == 0 {
		return make(map[string]T), nil
	}

	rawResults, err := c.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	typedResults := make(map[string]T, len(rawResults))
	for key, rawValue := range rawResults {
		var obj T
		if err := json.Unmarshal([]byte(rawValue), &obj); err != nil {
			continue // Skip invalid JSON
		}
		typedResults[key] = obj
	}

	return typedResults, nil
}

// RangeTyped is Range with every entry decoded into T. Undecodable entries are skipped.
func RangeTyped[T any](ctx context.Context, c Service, key string, n int) ([]T, error) {
	raw, err := c.Range(ctx, key, n)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var obj T
		if err := json.Unmarshal([]byte(r), &obj); err != nil {
			continue
		}
		out = append(out, obj)
	}
	return out, nil
}

// encode is the wire form shared by all backends: strings are stored as-is,
// everything else as JSON.
func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cache: encode: %w", err)
		}
		return data, nil
	}
}

func decode(data []byte, dest interface{}) error {
	if strPtr, ok := dest.(*string); ok {
		*strPtr = string(data)
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache: decode: %w", err)
	}
	return nil
}

// New builds the backend named by cfg.Backend.
func New(cfg Config) (Service, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize), WithMemoryDefaultTTL(cfg.DefaultTTL)), nil
	case BackendRedis, BackendLayered:
		rc, err := NewRedisCache(cfg.RedisOptions()...)
		if err != nil {
			return nil, err
		}
		if cfg.Backend == BackendRedis {
			return rc, nil
		}
		return NewLayeredCache(rc, WithLayeredMemorySize(cfg.MemoryMaxSize), WithLayeredMemoryTTL(cfg.MemoryTTL)), nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}
