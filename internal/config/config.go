// config предоставляет структуру конфигурации directory-сервиса
// и функции загрузки из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Бэкенды хранилища сессий.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// minSecretLen — минимальная длина ключа подписи токенов сессии.
const minSecretLen = 16

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь через флаг --config;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
//
// Значения из файла перекрываются переменными окружения.
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	GRPC     GRPCConfig    `yaml:"grpc"`
	Fetcher  FetcherConfig `yaml:"fetcher"`
	Session  SessionConfig `yaml:"session"`
	Redis    RedisConfig   `yaml:"redis"`
	DB       DBConfig      `yaml:"db"`
	Mongo    MongoConfig   `yaml:"mongo"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	// Service — верхняя граница обработки одного запроса (HTTP и gRPC).
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"15s"`
	// Shutdown — время на graceful shutdown.
	Shutdown time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// HTTPConfig — публичный REST-сервер.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50086"`
}

// GRPCConfig — сервер grpc.health.v1.
type GRPCConfig struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50056"`
	// ProbeInterval — период проверки доступности хранилища сессий.
	ProbeInterval time.Duration `yaml:"probe_interval" env:"GRPC_PROBE_INTERVAL" env-default:"10s"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Addr возвращает адрес в формате host:port.
func (g GRPCConfig) Addr() string {
	return net.JoinHostPort(g.Host, g.Port)
}

// FetcherConfig — внешний источник профилей.
type FetcherConfig struct {
	URL string `yaml:"url" env:"FETCHER_URL" env-default:"https://randomuser.me/api/"`
	// DefaultCount применяется при results <= 0.
	DefaultCount int `yaml:"default_count" env:"FETCHER_DEFAULT_COUNT" env-default:"20"`
	// MaxCount — верхняя граница results.
	MaxCount int           `yaml:"max_count" env:"FETCHER_MAX_COUNT" env-default:"5000"`
	Timeout  time.Duration `yaml:"timeout" env:"FETCHER_TIMEOUT" env-default:"10s"`
}

// SessionConfig — сессии и их хранилище.
type SessionConfig struct {
	// Backend — memory | redis | postgres | mongo.
	Backend string        `yaml:"backend" env:"SESSION_BACKEND" env-default:"memory"`
	TTL     time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
	// Secret — ключ HS256 для токенов сессии.
	Secret string `yaml:"secret" env:"SESSION_SECRET"`
	Issuer string `yaml:"issuer" env:"SESSION_ISSUER" env-default:"users-directory"`
	// Cookie — имя cookie с токеном сессии.
	Cookie       string `yaml:"cookie" env:"SESSION_COOKIE" env-default:"directory_session"`
	CookieSecure bool   `yaml:"cookie_secure" env:"SESSION_COOKIE_SECURE" env-default:"false"`
	// SweepInterval — период очистки просроченных сессий (memory/postgres).
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SESSION_SWEEP_INTERVAL" env-default:"5m"`
}

// RedisConfig — подключение к Redis (backend=redis).
type RedisConfig struct {
	URL    string `yaml:"url" env:"REDIS_URL"`
	Prefix string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"directory:session:"`
}

// DBConfig — подключение к PostgreSQL (backend=postgres).
type DBConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

// MongoConfig — подключение к MongoDB (backend=mongo).
type MongoConfig struct {
	URL string `yaml:"url" env:"MONGO_URL"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла поверх значений из YAML накладываются ENV-переменные.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		if err := cfg.validate(); err != nil {
			return nil, err
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	if c.Fetcher.DefaultCount <= 0 {
		return fmt.Errorf("fetcher.default_count must be > 0")
	}

	if c.Fetcher.MaxCount <= 0 {
		return fmt.Errorf("fetcher.max_count must be > 0")
	}

	if c.Fetcher.DefaultCount > c.Fetcher.MaxCount {
		return fmt.Errorf("fetcher.default_count must be <= fetcher.max_count")
	}

	if c.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetcher.timeout must be > 0")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be > 0")
	}

	if len(c.Session.Secret) < minSecretLen {
		return fmt.Errorf("session.secret must be at least %d characters", minSecretLen)
	}

	if c.Session.Cookie == "" {
		return fmt.Errorf("session.cookie is required")
	}

	switch c.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url is required for session.backend=redis")
		}
	case BackendPostgres:
		if c.DB.URL == "" {
			return fmt.Errorf("db.url is required for session.backend=postgres")
		}
	case BackendMongo:
		if c.Mongo.URL == "" {
			return fmt.Errorf("mongo.url is required for session.backend=mongo")
		}
	default:
		return fmt.Errorf("session.backend must be one of memory, redis, postgres, mongo: got %q", c.Session.Backend)
	}

	return nil
}
