// Package redis provides the Redis-backed coordination primitives used when
// the service runs with more than one instance.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openbaseline/compliance/internal/config"
	domain "github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/pkg/logger"
)

// releaseScript deletes the lock key only when it still holds our token, so
// an instance whose lock expired cannot release a successor's lock.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

const lockRetryInterval = 50 * time.Millisecond

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg *config.RedisConfig, log logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addresses[0],
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info(ctx, "Redis connection established",
		logger.Fields{"addr": cfg.Addresses[0], "db": cfg.DB})
	return client, nil
}

// PolicyLocker implements the per-policy lock on Redis so that sibling
// profile recomputation stays serialized across service instances.
type PolicyLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewPolicyLocker creates a Redis-backed PolicyLocker. The TTL bounds how long
// a crashed holder can block a policy.
func NewPolicyLocker(client *redis.Client, ttl time.Duration, log logger.Logger) domain.PolicyLocker {
	return &PolicyLocker{
		client: client,
		ttl:    ttl,
		logger: log.WithComponent("PolicyLocker"),
	}
}

// WithPolicyLock acquires the policy's lock, runs fn, and releases the lock.
// Acquisition polls until the context is cancelled.
func (l *PolicyLocker) WithPolicyLock(ctx context.Context, policyID uuid.UUID, fn func(ctx context.Context) error) error {
	key := lockKey(policyID)
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}
	defer l.release(key, token)

	return fn(ctx)
}

func (l *PolicyLocker) acquire(ctx context.Context, key, token string) error {
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire policy lock: %w", err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("acquire policy lock: %w", ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
}

func (l *PolicyLocker) release(key, token string) {
	// Release outlives the request context; a short deadline still bounds it.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	released, err := l.client.Eval(ctx, releaseScript, []string{key}, token).Int()
	if err != nil {
		l.logger.Error(ctx, "Failed to release policy lock", err,
			logger.Fields{"key": key})
		return
	}
	if released == 0 {
		l.logger.Warn(ctx, "Policy lock expired before release",
			logger.Fields{"key": key})
	}
}

func lockKey(policyID uuid.UUID) string {
	return "compliance:policy-lock:" + policyID.String()
}
