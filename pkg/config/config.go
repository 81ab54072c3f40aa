package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	DBDriver      string `env:"DB_DRIVER" envDefault:"postgres"`
	PostgresURL   string `env:"POSTGRES_URL"`
	MongoURL      string `env:"MONGODB_URL" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"rightmycv"`
	SeedPlans     bool   `env:"SEED_PLANS" envDefault:"true"`

	Cache    CacheConfig
	Redis    RedisConfig
	Paystack PaystackConfig
	Payments PaymentsConfig
	Throttle ThrottleConfig

	JWTSecret string `env:"JWT_SECRET"`
}

type CacheConfig struct {
	Driver        string        `env:"CACHE_DRIVER" envDefault:"memory"`
	TTL           time.Duration `env:"VERIFICATION_CACHE_TTL" envDefault:"5m"`
	Capacity      int           `env:"VERIFICATION_CACHE_CAPACITY" envDefault:"1000"`
	SweepInterval time.Duration `env:"VERIFICATION_CACHE_SWEEP_INTERVAL" envDefault:"5m"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// PaystackConfig holds gateway credentials. An empty secret key leaves the gateway unconfigured.
type PaystackConfig struct {
	SecretKey string        `env:"PAYSTACK_SECRET_KEY"`
	PublicKey string        `env:"PAYSTACK_PUBLIC_KEY"`
	BaseURL   string        `env:"PAYSTACK_BASE_URL" envDefault:"https://api.paystack.co"`
	Timeout   time.Duration `env:"PAYSTACK_TIMEOUT" envDefault:"10s"`
}

type PaymentsConfig struct {
	MinorUnitDivisor       int64  `env:"MINOR_UNIT_DIVISOR" envDefault:"100"`
	SerializeConfirmations bool   `env:"SERIALIZE_CONFIRMATIONS" envDefault:"true"`
	FrontendURL            string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
}

type ThrottleConfig struct {
	Limit  int           `env:"THROTTLE_LIMIT" envDefault:"100"`
	Window time.Duration `env:"THROTTLE_WINDOW" envDefault:"1m"`
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required when DB_DRIVER=%s", DriverPostgres)
		}
	case DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.Cache.Driver {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unsupported CACHE_DRIVER %q", c.Cache.Driver)
	}

	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("VERIFICATION_CACHE_CAPACITY must be positive")
	}
	if c.Payments.MinorUnitDivisor <= 0 {
		return fmt.Errorf("MINOR_UNIT_DIVISOR must be positive")
	}
	return nil
}
