package dispatcher

import (
	"errors"
	"time"

	"github.com/smallbiznis/payflow/internal/config"
)

var ErrInvalidConfig = errors.New("dispatcher: invalid config")

type Config struct {
	SweepInterval  time.Duration
	BatchSize      int
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RequestTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 5 * time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Minute
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	return c
}

// backoff returns the delay before the next attempt after `attempts`
// failures: base doubled per failure, capped at MaxDelay.
func (c Config) backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := c.BaseDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		SweepInterval:  cfg.WebhookSweepInterval,
		BatchSize:      cfg.WebhookBatchSize,
		MaxAttempts:    cfg.WebhookMaxAttempts,
		BaseDelay:      cfg.WebhookBaseDelay,
		MaxDelay:       cfg.WebhookMaxDelay,
		RequestTimeout: cfg.WebhookRequestTimeout,
	}.withDefaults()
}
