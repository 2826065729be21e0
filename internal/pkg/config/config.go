package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/microtask/taskhub/internal/core/domain"
)

const (
	StoreFile  = "file"
	StoreRedis = "redis"
	StoreMongo = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend      BackendConfig
	Credentials  CredentialConfig
	Economy      EconomyConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	Notification NotificationConfig

	IdentityRevokeURL string `env:"IDENTITY_REVOKE_URL"`
}

type BackendConfig struct {
	URL     string        `env:"BACKEND_URL,     default=http://localhost:5000/api"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=15s"`
}

type CredentialConfig struct {
	Store   string `env:"CREDENTIAL_STORE,   default=file"`
	Path    string `env:"CREDENTIAL_PATH"`
	Key     string `env:"CREDENTIAL_KEY"`
	Profile string `env:"CREDENTIAL_PROFILE, default=default"`
}

type EconomyConfig struct {
	CoinsPerDollar     int `env:"COINS_PER_DOLLAR,     default=20"`
	MinWithdrawalCoins int `env:"MIN_WITHDRAWAL_COINS, default=200"`
	WorkerSignupBonus  int `env:"WORKER_SIGNUP_BONUS,  default=10"`
	BuyerSignupBonus   int `env:"BUYER_SIGNUP_BONUS,   default=50"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=taskhub"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type NotificationConfig struct {
	PollInterval time.Duration `env:"NOTIFICATION_POLL_INTERVAL, default=30s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from an arbitrary lookuper and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if cfg.Credentials.Path == "" {
		cfg.Credentials.Path = defaultCredentialPath()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Credentials.Store) {
	case StoreFile, StoreRedis, StoreMongo:
	default:
		errs = append(errs, fmt.Errorf("CREDENTIAL_STORE: unknown driver %q", c.Credentials.Store))
	}
	if c.Backend.URL == "" {
		errs = append(errs, errors.New("BACKEND_URL: must not be empty"))
	}
	if c.Economy.CoinsPerDollar <= 0 {
		errs = append(errs, errors.New("COINS_PER_DOLLAR: must be positive"))
	}
	if c.Economy.MinWithdrawalCoins <= 0 {
		errs = append(errs, errors.New("MIN_WITHDRAWAL_COINS: must be positive"))
	}
	if c.Economy.WorkerSignupBonus < 0 || c.Economy.WorkerSignupBonus >= c.Economy.BuyerSignupBonus {
		errs = append(errs, errors.New("WORKER_SIGNUP_BONUS: must be non-negative and below BUYER_SIGNUP_BONUS"))
	}
	if c.Notification.PollInterval <= 0 {
		errs = append(errs, errors.New("NOTIFICATION_POLL_INTERVAL: must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// DomainEconomy converts the economy settings into the domain rules.
func (c *Config) DomainEconomy() domain.Economy {
	return domain.Economy{
		CoinsPerDollar:     c.Economy.CoinsPerDollar,
		MinWithdrawalCoins: c.Economy.MinWithdrawalCoins,
		SignupBonus: map[domain.Role]int{
			domain.RoleWorker: c.Economy.WorkerSignupBonus,
			domain.RoleBuyer:  c.Economy.BuyerSignupBonus,
		},
	}
}

func defaultCredentialPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".taskhub", "credentials.json")
	}
	return filepath.Join(home, ".taskhub", "credentials.json")
}
