package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
	"github.com/kevin07696/payflow-reconciler/pkg/resilience"
)

// RedisLockConfig configures the distributed profile lock
type RedisLockConfig struct {
	// Prefix namespaces lock keys
	Prefix string
	// TTL must outlast one reconciliation pass; the lock expires on its own
	// if the holder dies
	TTL time.Duration
	// MaxTries bounds how often a held lock is polled before giving up
	MaxTries int
}

// DefaultRedisLockConfig returns default configuration
func DefaultRedisLockConfig() RedisLockConfig {
	return RedisLockConfig{
		Prefix:   "payflow:profile-lock:",
		TTL:      10 * time.Minute,
		MaxTries: 600,
	}
}

// RedisLocker is a ProfileLocker shared by every instance using the same Redis.
// Locks are SET NX PX with a random token; release only deletes the key when
// the token still matches.
type RedisLocker struct {
	rs      *redsync.Redsync
	config  RedisLockConfig
	backoff resilience.BackoffStrategy
	logger  *zap.Logger
}

var _ ports.ProfileLocker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker on top of an existing client
func NewRedisLocker(client redis.UniversalClient, config RedisLockConfig, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		rs:      redsync.New(goredis.NewPool(client)),
		config:  config,
		backoff: resilience.LockPollBackoff(),
		logger:  logger,
	}
}

// Lock polls until the key is acquired, MaxTries is exhausted or ctx ends
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(l.config.Prefix+key,
		redsync.WithExpiry(l.config.TTL),
		redsync.WithTries(l.config.MaxTries),
		redsync.WithRetryDelayFunc(func(tries int) time.Duration {
			return l.backoff.NextDelay(tries)
		}),
		redsync.WithGenValueFunc(func() (string, error) {
			return uuid.NewString(), nil
		}),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.WrapError(domain.ErrorCodeLockNotAcquired,
			fmt.Sprintf("profile lock %q not acquired", key), err)
	}

	l.logger.Debug("Acquired profile lock", zap.String("key", key))

	return func() {
		// a fresh context so a cancelled caller still releases
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(ctx); err != nil || !ok {
			l.logger.Warn("Failed to release profile lock",
				zap.String("key", key),
				zap.Bool("released", ok),
				zap.Error(err),
			)
		}
	}, nil
}

// NewRedisClient connects to Redis at addr and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
