// Package denylist remembers revoked access tokens by their jti until the
// token would have expired on its own.
package denylist

import (
	"context"
	"sync"
	"time"
)

type Denylist interface {
	// Revoke marks jti as revoked until the given instant. Revoking an
	// already expired token is a no-op.
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Memory is an in-process Denylist. Entries are lost on restart.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) Revoke(_ context.Context, jti string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.purge(now)
	if !until.After(now) {
		return nil
	}
	m.entries[jti] = until
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.entries[jti]
	if !ok {
		return false, nil
	}
	if !until.After(m.now()) {
		delete(m.entries, jti)
		return false, nil
	}
	return true, nil
}

// purge drops expired entries; callers hold mu.
func (m *Memory) purge(now time.Time) {
	for k, until := range m.entries {
		if !until.After(now) {
			delete(m.entries, k)
		}
	}
}
