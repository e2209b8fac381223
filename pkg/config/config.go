package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
		// Aggregated error logs are shipped to kafka.log_topic when enabled.
		Collector struct {
			Enabled        bool          `yaml:"enabled"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100" validate:"gte=1"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Server struct {
		Enabled         bool          `yaml:"enabled" default:"true"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"1s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Backend struct {
		BaseURL        string        `yaml:"base_url" default:"http://localhost:5000" validate:"required,url"`
		APIPath        string        `yaml:"api_path" default:"/api" validate:"startswith=/"`
		RequestTimeout time.Duration `yaml:"request_timeout" default:"30s"`
	} `yaml:"backend"`
	Realtime struct {
		Path                 string        `yaml:"path" default:"/socket.io/"`
		Reconnection         bool          `yaml:"reconnection" default:"true"`
		ReconnectionAttempts int           `yaml:"reconnection_attempts" default:"5" validate:"gte=0"`
		ReconnectionDelay    time.Duration `yaml:"reconnection_delay" default:"1s"`
		ReconnectionDelayMax time.Duration `yaml:"reconnection_delay_max" default:"5s"`
		RandomizationFactor  float64       `yaml:"randomization_factor" default:"0.5" validate:"gte=0,lte=1"`
		DialTimeout          time.Duration `yaml:"dial_timeout" default:"20s"`
	} `yaml:"realtime"`
	Monitor struct {
		Topics           []string      `yaml:"topics" default:"[\"risk_alerts\"]" validate:"dive,oneof=market_data indicators signals monitor risk_alerts portfolio news"`
		Symbols          []string      `yaml:"symbols"`
		LoadWatchlist    bool          `yaml:"load_watchlist" default:"true"`
		Heartbeat        time.Duration `yaml:"heartbeat" default:"30s"`
		AlertsKeep       int           `yaml:"alerts_keep" default:"100" validate:"gte=1"`
		MaxUpdatesPerSec int           `yaml:"max_updates_per_sec" default:"20" validate:"gte=0"`
		BufferSize       int           `yaml:"buffer_size" default:"1000" validate:"gte=1"`
	} `yaml:"monitor"`
	Cache struct {
		Backend       string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
		TTL           time.Duration `yaml:"ttl" default:"10m"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"5000" validate:"gte=1"`
		MemoryTTL     time.Duration `yaml:"memory_ttl" default:"30s"`
		Redis         struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"stockwatch"`
			PoolSize int    `yaml:"pool_size" default:"10" validate:"gte=1"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers" validate:"required_if=Enabled true"`
		AlertTopic   string        `yaml:"alert_topic" default:"stockwatch.risk_alerts"`
		LogTopic     string        `yaml:"log_topic" default:"stockwatch.logs"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
}

var validate = validator.New()

// APIBaseURL is the REST root, e.g. http://localhost:5000/api.
func (c *Config) APIBaseURL() string {
	return strings.TrimRight(c.Backend.BaseURL, "/") + c.Backend.APIPath
}

// Default returns a config populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML over them and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file next to the working directory is honoured when present.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STOCKWATCH_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("STOCKWATCH_SYMBOLS"); v != "" {
		c.Monitor.Symbols = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if c.Realtime.ReconnectionDelayMax < c.Realtime.ReconnectionDelay {
		return fmt.Errorf("realtime.reconnection_delay_max must be >= reconnection_delay")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
