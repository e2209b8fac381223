package cache

import "time"

const (
	BackendMemory  = "memory"
	BackendRedis   = "redis"
	BackendLayered = "layered"
)

// Config selects and sizes a backend for New.
type Config struct {
	Backend       string
	MemoryMaxSize int

	// DefaultTTL applies to memory entries written without an expiration.
	DefaultTTL time.Duration

	// MemoryTTL caps L1 entries of the layered backend.
	MemoryTTL time.Duration

	Redis RedisConfig
}

// RedisOptions turns the non-zero Redis fields into options.
func (c Config) RedisOptions() []RedisOption {
	var opts []RedisOption
	if c.Redis.Host != "" {
		opts = append(opts, WithRedisHost(c.Redis.Host))
	}
	if c.Redis.Port != 0 {
		opts = append(opts, WithRedisPort(c.Redis.Port))
	}
	if c.Redis.Password != "" {
		opts = append(opts, WithRedisPassword(c.Redis.Password))
	}
	if c.Redis.DB != 0 {
		opts = append(opts, WithRedisDB(c.Redis.DB))
	}
	if c.Redis.PoolSize > 0 {
		opts = append(opts, WithRedisPool(c.Redis.PoolSize, c.Redis.MinIdleConns, c.Redis.PoolTimeout))
	}
	if c.Redis.Prefix != "" {
		opts = append(opts, WithRedisPrefix(c.Redis.Prefix))
	}
	return opts
}

// RedisOption configures Redis cache.
type RedisOption func(*RedisConfig)

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	PoolTimeout  time.Duration
	MinIdleConns int
	Prefix       string
}

// WithRedisHost sets Redis host.
func WithRedisHost(host string) RedisOption {
	return func(c *RedisConfig) {
		c.Host = host
	}
}

// WithRedisPort sets Redis port.
func WithRedisPort(port int) RedisOption {
	return func(c *RedisConfig) {
		c.Port = port
	}
}

// WithRedisPassword sets Redis password.
func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
	}
}

// WithRedisDB sets Redis database number.
func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) {
		c.DB = db
	}
}

// WithRedisPool sets connection pool settings. Zero values keep the defaults.
func WithRedisPool(poolSize, minIdleConns int, timeout time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if poolSize > 0 {
			c.PoolSize = poolSize
		}
		if minIdleConns > 0 {
			c.MinIdleConns = minIdleConns
		}
		if timeout > 0 {
			c.PoolTimeout = timeout
		}
	}
}

// WithRedisPrefix sets key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}

// MemoryOption configures Memory cache.
type MemoryOption func(*MemoryConfig)

type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration

	// DefaultTTL applies when Set is called without an expiration.
	DefaultTTL time.Duration
}

func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		if size > 0 {
			c.MaxSize = size
		}
	}
}

func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		if interval > 0 {
			c.CleanupInterval = interval
		}
	}
}

func WithMemoryDefaultTTL(ttl time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		if ttl > 0 {
			c.DefaultTTL = ttl
		}
	}
}

// LayeredOption configures Layered cache.
type LayeredOption func(*LayeredConfig)

// LayeredConfig holds layered cache configuration.
type LayeredConfig struct {
	MemoryMaxSize int

	// MemoryTTL bounds how stale an L1 copy can get relative to L2.
	MemoryTTL time.Duration
}

// WithLayeredMemorySize sets L1 cache size.
func WithLayeredMemorySize(size int) LayeredOption {
	return func(c *LayeredConfig) {
		if size > 0 {
			c.MemoryMaxSize = size
		}
	}
}

func WithLayeredMemoryTTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredConfig) {
		if ttl > 0 {
			c.MemoryTTL = ttl
		}
	}
}
