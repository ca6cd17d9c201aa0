package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"eventhub/utils"
)

type Config struct {
	// Server configuration
	Port        string `env:"PORT"        envDefault:"8090"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Redis configuration
	RedisURL string `env:"REDIS_URL" envDefault:"localhost:6379"`

	// PubNub configuration
	PubNubPublishKey   string `env:"PUBNUB_PUBLISH_KEY"`
	PubNubSubscribeKey string `env:"PUBNUB_SUBSCRIBE_KEY"`
	PubNubSecretKey    string `env:"PUBNUB_SECRET_KEY"`

	// Session and booking configuration
	SessionTTL        time.Duration `env:"SESSION_TTL"        envDefault:"168h"`
	SessionRevalidate time.Duration `env:"SESSION_REVALIDATE" envDefault:"1m"`
	BookingNonceTTL   time.Duration `env:"BOOKING_NONCE_TTL"  envDefault:"10m"`
	AuthRateLimit     int           `env:"AUTH_RATE_LIMIT"    envDefault:"10"`

	// Display configuration
	Locale         string `env:"LOCALE"          envDefault:"en-US"`
	CurrencySymbol string `env:"CURRENCY_SYMBOL" envDefault:"$"`

	// Notification circuit breaker
	BreakerMaxRequests  uint32        `env:"BREAKER_MAX_REQUESTS"  envDefault:"20"`
	BreakerInterval     time.Duration `env:"BREAKER_INTERVAL"      envDefault:"60s"`
	BreakerTimeout      time.Duration `env:"BREAKER_TIMEOUT"       envDefault:"30s"`
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.6"`

	// Monitoring
	EnableMetrics bool   `env:"ENABLE_METRICS" envDefault:"true"`
	MetricsPort   string `env:"METRICS_PORT"   envDefault:"9090"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.AuthRateLimit < 1 {
		return nil, fmt.Errorf("AUTH_RATE_LIMIT must be positive, got %d", cfg.AuthRateLimit)
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) BreakerSettings() utils.BreakerSettings {
	return utils.BreakerSettings{
		MaxRequests:  c.BreakerMaxRequests,
		Interval:     c.BreakerInterval,
		Timeout:      c.BreakerTimeout,
		FailureRatio: c.BreakerFailureRatio,
	}
}
