package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	platformstrings "paddock/pkg/platform/strings"
)

// Storage backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Id allocator backends. "store" uses the counter of the selected store.
const (
	AllocatorStore = "store"
	AllocatorRedis = "redis"
)

// Config is the complete process configuration.
type Config struct {
	Server   Server      `yaml:"server"`
	Postgres Postgres    `yaml:"postgres"`
	Redis    RedisConfig `yaml:"redis"`
	Kafka    Kafka       `yaml:"kafka"`
	Ledger   Ledger      `yaml:"ledger"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	AdminToken      string        `yaml:"admin_token"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig is optional; an empty URL disables Redis.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Kafka is optional; no brokers disables event publishing to Kafka.
type Kafka struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	ClientID          string   `yaml:"client_id"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replication_factor"`
	// InboxSize bounds the events waiting for the broker; DeliveryTimeout
	// bounds one produce call.
	InboxSize       int           `yaml:"inbox_size"`
	DeliveryTimeout time.Duration `yaml:"delivery_timeout"`
}

type Ledger struct {
	Store       string        `yaml:"store"`
	IDAllocator string        `yaml:"id_allocator"`
	TxTimeout   time.Duration `yaml:"tx_timeout"`
}

// Defaults returns a configuration that runs in-process with no backing services.
func Defaults() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			LogLevel:        "info",
			LogFormat:       "json",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Postgres: Postgres{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			Topic:             "paddock.ledger",
			ClientID:          "paddock",
			Partitions:        3,
			ReplicationFactor: 1,
			InboxSize:         1024,
			DeliveryTimeout:   10 * time.Second,
		},
		Ledger: Ledger{
			Store:       StoreMemory,
			IDAllocator: AllocatorStore,
			TxTimeout:   5 * time.Second,
		},
	}
}

// FromEnv builds the config from defaults and PADDOCK_* environment variables.
func FromEnv() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// Load reads defaults, overlays the YAML file at path when one is given, then
// applies environment variables, which win over the file.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	switch c.Ledger.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("config: postgres store requires PADDOCK_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("config: unknown store %q", c.Ledger.Store)
	}
	switch c.Ledger.IDAllocator {
	case AllocatorStore:
	case AllocatorRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("config: redis id allocator requires PADDOCK_REDIS_URL")
		}
	default:
		return fmt.Errorf("config: unknown id allocator %q", c.Ledger.IDAllocator)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("config: kafka brokers set without a topic")
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "PADDOCK_ADDR")
	setString(&cfg.Server.AdminToken, "PADDOCK_ADMIN_TOKEN")
	setString(&cfg.Server.LogLevel, "PADDOCK_LOG_LEVEL")
	setString(&cfg.Server.LogFormat, "PADDOCK_LOG_FORMAT")
	setDuration(&cfg.Server.RequestTimeout, "PADDOCK_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "PADDOCK_SHUTDOWN_TIMEOUT")

	setString(&cfg.Postgres.DSN, "PADDOCK_POSTGRES_DSN")
	setInt(&cfg.Postgres.MaxOpenConns, "PADDOCK_POSTGRES_MAX_OPEN_CONNS")
	setInt(&cfg.Postgres.MaxIdleConns, "PADDOCK_POSTGRES_MAX_IDLE_CONNS")

	setString(&cfg.Redis.URL, "PADDOCK_REDIS_URL")
	setInt(&cfg.Redis.PoolSize, "PADDOCK_REDIS_POOL_SIZE")

	if brokers := os.Getenv("PADDOCK_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = platformstrings.SplitList(brokers, ",")
	}
	setString(&cfg.Kafka.Topic, "PADDOCK_KAFKA_TOPIC")
	setInt(&cfg.Kafka.InboxSize, "PADDOCK_KAFKA_INBOX_SIZE")
	setDuration(&cfg.Kafka.DeliveryTimeout, "PADDOCK_KAFKA_DELIVERY_TIMEOUT")

	setString(&cfg.Ledger.Store, "PADDOCK_STORE")
	setString(&cfg.Ledger.IDAllocator, "PADDOCK_ID_ALLOCATOR")
	setDuration(&cfg.Ledger.TxTimeout, "PADDOCK_TX_TIMEOUT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Malformed numeric values keep the previous setting.
func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
