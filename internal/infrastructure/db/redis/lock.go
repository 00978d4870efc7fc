package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/grocerypos/accounts/internal/core/domain"
)

const (
	bootstrapLockKey = "grocerypos:accounts:bootstrap-lock"
	bootstrapLockTTL = 30 * time.Second
	releaseTimeout   = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// BootstrapLock serialises administrator provisioning across every process
// sharing the Redis instance. The key expires after ttl so a crashed holder
// cannot block setup forever.
type BootstrapLock struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
	log    zerolog.Logger
}

func NewBootstrapLock(client redis.Cmdable, log zerolog.Logger) *BootstrapLock {
	return &BootstrapLock{client: client, key: bootstrapLockKey, ttl: bootstrapLockTTL, log: log}
}

// Acquire takes the lock without waiting. A held lock reports
// domain.ErrBootstrapInProgress.
func (l *BootstrapLock) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("bootstrap lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrBootstrapInProgress
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", l.key).Msg("bootstrap lock release failed, waiting for expiry")
		}
	}, nil
}
