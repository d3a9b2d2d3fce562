package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	// Webhook delivery engine settings.
	WebhookSweepInterval  time.Duration
	WebhookBatchSize      int
	WebhookMaxAttempts    int
	WebhookBaseDelay      time.Duration
	WebhookMaxDelay       time.Duration
	WebhookRequestTimeout time.Duration

	IdempotencyTTL time.Duration

	SeedDemoMerchant bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "payflow"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "payflow"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		WebhookSweepInterval:  getenvDuration("WEBHOOK_SWEEP_INTERVAL", 5*time.Second),
		WebhookBatchSize:      getenvInt("WEBHOOK_BATCH_SIZE", 50),
		WebhookMaxAttempts:    getenvInt("WEBHOOK_MAX_ATTEMPTS", 5),
		WebhookBaseDelay:      getenvDuration("WEBHOOK_BASE_DELAY", 5*time.Second),
		WebhookMaxDelay:       getenvDuration("WEBHOOK_MAX_DELAY", 10*time.Minute),
		WebhookRequestTimeout: getenvDuration("WEBHOOK_REQUEST_TIMEOUT", 30*time.Second),

		IdempotencyTTL: getenvDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		SeedDemoMerchant: getenvBool("SEED_DEMO_MERCHANT", false),
	}
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

func getenv(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}

func getenvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}

func getenvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return value
}

func getenvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return value
}
