package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string `env:"PORT" envDefault:"8080"`
	Environment    string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	TierPolicyFile string `env:"TIER_POLICY_FILE"`

	Upstream  Upstream
	RateLimit RateLimit
}

// Upstream is handed to each upstream client at construction.
type Upstream struct {
	AccountURL   string `env:"ACCOUNT_SERVICE_URL" envDefault:"http://localhost:9001"`
	DashboardURL string `env:"DASHBOARD_SERVICE_URL" envDefault:"http://localhost:9002"`
	IncentiveURL string `env:"INCENTIVE_SERVICE_URL" envDefault:"http://localhost:9003"`
	ResellerURL  string `env:"RESELLER_SERVICE_URL" envDefault:"http://localhost:9004"`

	Timeout            time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"5s"`
	BreakerMaxFailures uint32        `env:"BREAKER_MAX_FAILURES" envDefault:"5"`
	BreakerOpenTimeout time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
}

type RateLimit struct {
	RequestsPerSecond float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	Burst             int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// Load reads an optional .env file from the working directory and then
// parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	urls := map[string]string{
		"ACCOUNT_SERVICE_URL":   c.Upstream.AccountURL,
		"DASHBOARD_SERVICE_URL": c.Upstream.DashboardURL,
		"INCENTIVE_SERVICE_URL": c.Upstream.IncentiveURL,
		"RESELLER_SERVICE_URL":  c.Upstream.ResellerURL,
	}
	for name, u := range urls {
		if u == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.Upstream.Timeout)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}
