// Package app wires the gateway, persistence, locks and services shared by
// the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kevin07696/payflow-reconciler/internal/adapters/locks"
	"github.com/kevin07696/payflow-reconciler/internal/adapters/payflow"
	"github.com/kevin07696/payflow-reconciler/internal/adapters/postgres"
	"github.com/kevin07696/payflow-reconciler/internal/adapters/secrets"
	"github.com/kevin07696/payflow-reconciler/internal/config"
	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
	"github.com/kevin07696/payflow-reconciler/internal/services/payment"
	"github.com/kevin07696/payflow-reconciler/internal/services/reconciliation"
	"github.com/kevin07696/payflow-reconciler/pkg/observability"
	"github.com/kevin07696/payflow-reconciler/pkg/security"
)

// Components holds everything built from one Config
type Components struct {
	DB          *postgres.DBExecutor
	Redis       *redis.Client // nil unless REDIS_ADDR is set
	Credentials ports.CredentialProvider
	Gateway     *payflow.Gateway
	Reconciler  *reconciliation.Service
	Payments    *payment.Service

	logger *zap.Logger
}

// Build connects to the database (and Redis when configured) and wires the
// services. Close releases what Build opened.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{logger: logger}

	dbCfg := postgres.DefaultPostgreSQLConfig(cfg.Database.ConnectionString())
	dbCfg.MaxConns = cfg.Database.MaxConns
	dbCfg.MinConns = cfg.Database.MinConns
	db, err := postgres.Connect(ctx, dbCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	gateway, creds, err := BuildGateway(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Gateway = gateway
	c.Credentials = creds

	var locker ports.ProfileLocker = locks.NewKeyedMutex()
	if cfg.Redis.Enabled() {
		client, err := locks.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Redis = client
		lockCfg := locks.DefaultRedisLockConfig()
		lockCfg.TTL = cfg.Reconciler.LockTTL
		locker = locks.NewRedisLocker(client, lockCfg, logger)
		logger.Info("Using Redis profile locks", zap.String("addr", cfg.Redis.Addr))
	}

	appLogger := security.NewZapLogger(logger)
	ledger := postgres.NewLedgerRepository(db)
	profiles := postgres.NewRecurringProfileRepository(db)

	c.Reconciler = reconciliation.NewService(c.Gateway, ledger, profiles, creds, locker, reconciliation.Config{
		Workers:      cfg.Reconciler.Workers,
		DefaultScope: domain.HistoryScope(cfg.Gateway.HistoryType),
	}, appLogger)
	c.Payments = payment.NewService(c.Gateway, profiles, creds, appLogger)

	return c, nil
}

// BuildGateway wires the gateway without touching the database
func BuildGateway(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*payflow.Gateway, ports.CredentialProvider, error) {
	creds, err := NewCredentialProvider(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	gateway := payflow.NewGateway(NewTransport(&cfg.Gateway, logger), creds, payflow.GatewayConfig{
		SettlePendingInTestMode: cfg.Gateway.SettlePendingInTestMode,
		DefaultHistoryScope:     domain.HistoryScope(cfg.Gateway.HistoryType),
	}, security.NewZapLogger(logger))
	return gateway, creds, nil
}

// NewTransport builds the gateway transport, with a circuit breaker when
// PAYFLOW_BREAKER_MAX_FAILURES is positive.
func NewTransport(cfg *config.GatewayConfig, logger *zap.Logger) *payflow.Transport {
	tc := payflow.DefaultTransportConfig()
	tc.IntegrationProduct = cfg.IntegrationProduct
	tc.AttemptTimeout = cfg.AttemptTimeout
	tc.MaxAttempts = cfg.MaxAttempts
	tc.RetryDelay = cfg.RetryDelay
	tc.VerifySSL = cfg.VerifySSL
	if !cfg.VerifySSL {
		logger.Warn("TLS verification disabled for the payment gateway")
	}

	var opts []payflow.TransportOption
	if cfg.BreakerMaxFailures > 0 {
		bc := payflow.DefaultCircuitBreakerConfig()
		bc.MaxFailures = uint32(cfg.BreakerMaxFailures)
		bc.Timeout = cfg.BreakerTimeout
		opts = append(opts, payflow.WithCircuitBreaker(payflow.NewCircuitBreaker(bc)))
	}
	return payflow.NewTransport(tc, logger, opts...)
}

// NewCredentialProvider returns a static provider when PAYFLOW_PASSWORD is
// set and one backed by the configured secret manager otherwise.
func NewCredentialProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.CredentialProvider, error) {
	base := domain.GatewayCredentials{
		VendorID:  cfg.Gateway.VendorID,
		UserID:    cfg.Gateway.UserID,
		Subject:   cfg.Gateway.Subject,
		PartnerID: cfg.Gateway.PartnerID,
		Password:  cfg.Gateway.Password,
		URL:       cfg.Gateway.URL,
		IsTest:    cfg.Gateway.IsTest,
	}

	if cfg.Gateway.Password != "" {
		logger.Warn("Gateway password read from environment; prefer PAYFLOW_PASSWORD_SECRET outside development")
		return secrets.NewStaticCredentialProvider(base), nil
	}

	sm, err := NewSecretManager(ctx, &cfg.Secrets, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secret manager: %w", err)
	}
	return secrets.NewSecretCredentialProvider(base, cfg.Gateway.PasswordSecretPath, sm, cfg.Secrets.CacheTTL, logger), nil
}

// NewSecretManager builds the backend selected by SECRET_MANAGER:
//   - local: files under SECRETS_LOCAL_PATH (development)
//   - aws:   AWS Secrets Manager in AWS_REGION
//   - vault: HashiCorp Vault KV at VAULT_ADDR
func NewSecretManager(ctx context.Context, cfg *config.SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Backend {
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Endpoint = cfg.AWSEndpoint
		awsCfg.CacheTTL = cfg.CacheTTL
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.AuthMethod = cfg.VaultAuthMethod
		vaultCfg.Token = cfg.VaultToken
		vaultCfg.RoleID = cfg.VaultRoleID
		vaultCfg.SecretID = cfg.VaultSecretID
		vaultCfg.MountPath = cfg.VaultMountPath
		vaultCfg.KVVersion = cfg.VaultKVVersion
		vaultCfg.CacheTTL = cfg.CacheTTL
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)
	case "local":
		logger.Info("Using local secret manager", zap.String("path", cfg.LocalPath))
		return secrets.NewLocalSecretManager(cfg.LocalPath, logger), nil
	default:
		return nil, fmt.Errorf("unknown secret manager %q", cfg.Backend)
	}
}

// HealthChecks returns the pingers reported on /health
func (c *Components) HealthChecks() map[string]observability.Pinger {
	checks := map[string]observability.Pinger{"database": c.DB}
	if c.Redis != nil {
		checks["redis"] = redisPinger{c.Redis}
	}
	return checks
}

// Close releases the Redis client and the database pool
func (c *Components) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
