// Package lock provides a Redis-backed lease lock used to serialize
// processing per lead identity. Two messages from the same contact must
// never interleave their read-score-write cycles.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock is already held.
var ErrNotAcquired = errors.New("lock: not acquired")

// releaseScript deletes the key only when the caller still owns it, so an
// expired lease cannot release a lock acquired by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires short-lived leases keyed by lead identity.
type Locker struct {
	client    redis.UniversalClient
	ttl       time.Duration
	retryWait time.Duration
}

// Lease is a held lock. Release it when the critical section is done.
type Lease struct {
	locker *Locker
	key    string
	token  string
}

// New creates a Locker with the given lease TTL. The TTL bounds how long a
// crashed worker can block an identity.
func New(client redis.UniversalClient, ttl time.Duration) *Locker {
	return &Locker{
		client:    client,
		ttl:       ttl,
		retryWait: 50 * time.Millisecond,
	}
}

// Acquire blocks until the lock for the identity is obtained or the context
// is cancelled. Each attempt uses SET NX with the lease TTL.
func (l *Locker) Acquire(ctx context.Context, identity string) (*Lease, error) {
	key := "lock:lead:" + identity
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return &Lease{locker: l, key: key, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryWait):
		}
	}
}

// TryAcquire attempts the lock once and returns ErrNotAcquired if it is held.
func (l *Locker) TryAcquire(ctx context.Context, identity string) (*Lease, error) {
	key := "lock:lead:" + identity
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return &Lease{locker: l, key: key, token: token}, nil
}

// Release gives up the lease. Releasing an already-expired lease is a no-op.
func (le *Lease) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, le.locker.client, []string{le.key}, le.token).Err()
}
