package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/solarb/internal/domain"
)

// Both scripts act only while KEYS[1] still holds the caller's token.
var (
	releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)
	extendScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`)
)

// releaseTimeout bounds the DEL issued when a lock is released.
const releaseTimeout = 5 * time.Second

// LockManager implements domain.LockManager. A held lock is extended every
// half TTL until released, so a scan that outlives the TTL keeps it.
type LockManager struct {
	rdb *redis.Client
}

// NewLockManager creates a LockManager backed by the given Client.
func NewLockManager(c *Client) *LockManager {
	return &LockManager{rdb: c.Underlying()}
}

func lockKey(key string) string {
	return "lock:" + key
}

// Acquire takes the lock for key or returns domain.ErrLockHeld. The returned
// release function is idempotent and safe for concurrent use.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("redis: acquire lock %s: ttl must be positive", key)
	}

	h := &heldLock{
		rdb:   lm.rdb,
		key:   lockKey(key),
		token: uuid.NewString(),
		ttl:   ttl,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	err := lm.rdb.SetArgs(ctx, h.key, h.token, redis.SetArgs{Mode: "NX", TTL: ttl}).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, domain.ErrLockHeld
	case err != nil:
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}

	go h.keepAlive()
	return h.release, nil
}

type heldLock struct {
	rdb   *redis.Client
	key   string
	token string
	ttl   time.Duration

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

// keepAlive re-arms the TTL until released or until the key no longer holds
// our token.
func (h *heldLock) keepAlive() {
	defer close(h.done)

	ticker := time.NewTicker(max(h.ttl/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), h.ttl/2)
			n, err := extendScript.Run(ctx, h.rdb, []string{h.key}, h.token, h.ttl.Milliseconds()).Int()
			cancel()
			if err == nil && n == 0 {
				return
			}
		}
	}
}

func (h *heldLock) release() {
	h.once.Do(func() {
		close(h.stop)
		<-h.done

		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		_ = releaseScript.Run(ctx, h.rdb, []string{h.key}, h.token).Err()
	})
}

var _ domain.LockManager = (*LockManager)(nil)
