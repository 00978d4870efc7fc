// Package lock provides the in-process bootstrap lock used when no Redis
// instance is configured.
package lock

import (
	"context"
	"sync"

	"github.com/grocerypos/accounts/internal/core/domain"
)

// Local serialises administrator provisioning within one process. Acquire
// never waits: a held lock reports ErrBootstrapInProgress.
type Local struct {
	mu sync.Mutex
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !l.mu.TryLock() {
		return nil, domain.ErrBootstrapInProgress
	}
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, nil
}
