package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbaseline/compliance/pkg/logger"
)

func newTestLocker(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *PolicyLocker) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	locker := NewPolicyLocker(client, ttl, logger.NewNoopLogger()).(*PolicyLocker)
	return srv, locker
}

func TestPolicyLocker_SerializesSamePolicy(t *testing.T) {
	_, locker := newTestLocker(t, time.Minute)
	ctx := context.Background()
	policyID := uuid.New()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithPolicyLock(ctx, policyID, func(ctx context.Context) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "holders of the same policy lock must not overlap")
}

func TestPolicyLocker_ReleasesOnCompletion(t *testing.T) {
	srv, locker := newTestLocker(t, time.Minute)
	ctx := context.Background()
	policyID := uuid.New()

	require.NoError(t, locker.WithPolicyLock(ctx, policyID, func(ctx context.Context) error {
		assert.True(t, srv.Exists(lockKey(policyID)))
		return nil
	}))

	assert.False(t, srv.Exists(lockKey(policyID)), "lock must be released after fn returns")
}

func TestPolicyLocker_AcquireHonorsContextCancellation(t *testing.T) {
	srv, locker := newTestLocker(t, time.Minute)
	policyID := uuid.New()

	// Simulate a foreign holder.
	srv.Set(lockKey(policyID), "someone-else")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := locker.WithPolicyLock(ctx, policyID, func(ctx context.Context) error {
		t.Fatal("must not run while the lock is held elsewhere")
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPolicyLocker_ExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	srv, locker := newTestLocker(t, 50*time.Millisecond)
	ctx := context.Background()
	policyID := uuid.New()

	err := locker.WithPolicyLock(ctx, policyID, func(ctx context.Context) error {
		// Let the TTL lapse and a successor take the lock.
		srv.FastForward(time.Second)
		srv.Set(lockKey(policyID), "successor-token")
		return nil
	})
	require.NoError(t, err)

	val, err := srv.Get(lockKey(policyID))
	require.NoError(t, err)
	assert.Equal(t, "successor-token", val, "stale holder must not delete the successor's lock")
}

func TestPolicyLocker_DistinctPoliciesDoNotBlock(t *testing.T) {
	_, locker := newTestLocker(t, time.Minute)
	ctx := context.Background()

	outer := uuid.New()
	inner := uuid.New()

	err := locker.WithPolicyLock(ctx, outer, func(ctx context.Context) error {
		return locker.WithPolicyLock(ctx, inner, func(ctx context.Context) error {
			return nil
		})
	})
	require.NoError(t, err)
}
