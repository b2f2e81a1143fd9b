package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

//go:generate mockery --name PolicyLocker --output mocks --outpkg mocks

// PolicyLocker serializes aggregate recomputation per policy. The lock is
// policy-scoped rather than profile-scoped because sibling profiles under one
// policy contribute to the same cached counters.
type PolicyLocker interface {
	WithPolicyLock(ctx context.Context, policyID uuid.UUID, fn func(ctx context.Context) error) error
}

// localPolicyLocker serializes per policy within a single process. Suitable
// for single-instance deployments and tests; multi-instance deployments use
// the Redis-backed locker.
type localPolicyLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewLocalPolicyLocker returns an in-process PolicyLocker.
func NewLocalPolicyLocker() PolicyLocker {
	return &localPolicyLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *localPolicyLocker) WithPolicyLock(ctx context.Context, policyID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	lock, ok := l.locks[policyID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[policyID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}
