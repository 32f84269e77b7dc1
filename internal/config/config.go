package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Gateway    GatewayConfig
	Reconciler ReconcilerConfig
	Redis      RedisConfig
	Secrets    SecretsConfig
	Cron       CronConfig
	Logger     LoggerConfig
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL      string // takes precedence over the individual fields
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// GatewayConfig holds Payflow Pro configuration
type GatewayConfig struct {
	URL       string // e.g. https://pilot-payflowpro.paypal.com
	VendorID  string
	UserID    string
	Subject   string // overrides UserID when set
	PartnerID string

	// Password is used as-is when set; otherwise PasswordSecretPath is
	// resolved through the secrets backend.
	Password           string
	PasswordSecretPath string

	IsTest                  bool
	VerifySSL               bool
	IntegrationProduct      string
	HistoryType             string // Y, N or O
	SettlePendingInTestMode bool

	AttemptTimeout time.Duration
	MaxAttempts    int
	RetryDelay     time.Duration

	// Circuit breaker stays off while BreakerMaxFailures is 0
	BreakerMaxFailures int
	BreakerTimeout     time.Duration
}

// ReconcilerConfig tunes the import run
type ReconcilerConfig struct {
	Workers int
	LockTTL time.Duration
	// Interval runs the import in-process; 0 leaves scheduling to the cron endpoint
	Interval time.Duration
}

// RedisConfig enables the shared profile lock when Addr is set
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether Redis locking is configured
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// SecretsConfig selects where the gateway password lives
type SecretsConfig struct {
	Backend   string // local, aws or vault
	LocalPath string
	CacheTTL  time.Duration

	AWSRegion   string
	AWSEndpoint string

	VaultAddress    string
	VaultAuthMethod string
	VaultToken      string
	VaultRoleID     string
	VaultSecretID   string
	VaultMountPath  string
	VaultKVVersion  string
}

// CronConfig holds cron endpoint settings
type CronConfig struct {
	Secret            string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "payflow"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 2)),
		},
		Gateway: GatewayConfig{
			URL:                     getEnv("PAYFLOW_URL", "https://pilot-payflowpro.paypal.com"),
			VendorID:                getEnv("PAYFLOW_VENDOR", ""),
			UserID:                  getEnv("PAYFLOW_USER", ""),
			Subject:                 getEnv("PAYFLOW_SUBJECT", ""),
			PartnerID:               getEnv("PAYFLOW_PARTNER", "PayPal"),
			Password:                getEnv("PAYFLOW_PASSWORD", ""),
			PasswordSecretPath:      getEnv("PAYFLOW_PASSWORD_SECRET", ""),
			IsTest:                  getEnvAsBool("PAYFLOW_TEST_MODE", true),
			VerifySSL:               getEnvAsBool("PAYFLOW_VERIFY_SSL", true),
			IntegrationProduct:      getEnv("PAYFLOW_INTEGRATION_PRODUCT", "payflow-reconciler"),
			HistoryType:             strings.ToUpper(getEnv("PAYFLOW_HISTORY_TYPE", "Y")),
			SettlePendingInTestMode: getEnvAsBool("PAYFLOW_TEST_MODE_SETTLEMENT", false),
			AttemptTimeout:          getEnvAsDuration("PAYFLOW_ATTEMPT_TIMEOUT", 90*time.Second),
			MaxAttempts:             getEnvAsInt("PAYFLOW_MAX_ATTEMPTS", 3),
			RetryDelay:              getEnvAsDuration("PAYFLOW_RETRY_DELAY", 5*time.Second),
			BreakerMaxFailures:      getEnvAsInt("PAYFLOW_BREAKER_MAX_FAILURES", 0),
			BreakerTimeout:          getEnvAsDuration("PAYFLOW_BREAKER_TIMEOUT", 60*time.Second),
		},
		Reconciler: ReconcilerConfig{
			Workers:  getEnvAsInt("RECONCILER_WORKERS", 1),
			LockTTL:  getEnvAsDuration("RECONCILER_LOCK_TTL", 10*time.Minute),
			Interval: getEnvAsDuration("RECONCILER_INTERVAL", 0),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Secrets: SecretsConfig{
			Backend:         strings.ToLower(getEnv("SECRET_MANAGER", "local")),
			LocalPath:       getEnv("SECRETS_LOCAL_PATH", "./secrets"),
			CacheTTL:        getEnvAsDuration("SECRET_CACHE_TTL", 5*time.Minute),
			AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
			AWSEndpoint:     getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress:    getEnv("VAULT_ADDR", ""),
			VaultAuthMethod: getEnv("VAULT_AUTH_METHOD", "token"),
			VaultToken:      getEnv("VAULT_TOKEN", ""),
			VaultRoleID:     getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID:   getEnv("VAULT_SECRET_ID", ""),
			VaultMountPath:  getEnv("VAULT_MOUNT_PATH", "secret"),
			VaultKVVersion:  getEnv("VAULT_KV_VERSION", "v2"),
		},
		Cron: CronConfig{
			Secret:            getEnv("CRON_SECRET", ""),
			RequestsPerSecond: getEnvAsFloat("CRON_RATE_LIMIT", 1),
			Burst:             getEnvAsInt("CRON_RATE_BURST", 5),
			Timeout:           getEnvAsDuration("CRON_TIMEOUT", 30*time.Minute),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and allowed values
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" && c.Database.Password == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL or DB_PASSWORD is required"))
	}
	if c.Gateway.VendorID == "" {
		errs = append(errs, fmt.Errorf("PAYFLOW_VENDOR is required"))
	}
	if c.Gateway.URL == "" {
		errs = append(errs, fmt.Errorf("PAYFLOW_URL is required"))
	}
	if c.Gateway.Password == "" && c.Gateway.PasswordSecretPath == "" {
		errs = append(errs, fmt.Errorf("PAYFLOW_PASSWORD or PAYFLOW_PASSWORD_SECRET is required"))
	}
	switch c.Gateway.HistoryType {
	case "Y", "N", "O":
	default:
		errs = append(errs, fmt.Errorf("PAYFLOW_HISTORY_TYPE must be Y, N or O, got %q", c.Gateway.HistoryType))
	}
	if c.Gateway.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("PAYFLOW_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Reconciler.Workers < 1 {
		errs = append(errs, fmt.Errorf("RECONCILER_WORKERS must be at least 1"))
	}
	switch c.Secrets.Backend {
	case "local", "aws":
	case "vault":
		if c.Secrets.VaultAddress == "" {
			errs = append(errs, fmt.Errorf("VAULT_ADDR is required when SECRET_MANAGER=vault"))
		}
	default:
		errs = append(errs, fmt.Errorf("SECRET_MANAGER must be local, aws or vault, got %q", c.Secrets.Backend))
	}

	return errors.Join(errs...)
}

// ConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
