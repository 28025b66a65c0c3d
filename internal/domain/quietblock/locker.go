package quietblock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// OwnerLocker serializes block creation per owner. The returned unlock func
// must be called exactly once.
type OwnerLocker interface {
	Lock(ctx context.Context, ownerID uuid.UUID) (unlock func(), err error)
}

// LocalLocker is an in-process keyed mutex
type LocalLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*localLock
}

type localLock struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates in-process owner locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[uuid.UUID]*localLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, ownerID uuid.UUID) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[ownerID]
	if !ok {
		entry = &localLock{sem: make(chan struct{}, 1)}
		l.locks[ownerID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(ownerID, entry, false)
		return nil, fmt.Errorf("acquire owner lock: %w", ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(ownerID, entry, true) })
	}, nil
}

func (l *LocalLocker) release(ownerID uuid.UUID, entry *localLock, held bool) {
	if held {
		<-entry.sem
	}
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, ownerID)
	}
	l.mu.Unlock()
}

// compare-and-delete so a lock that outlived its TTL is never released by the
// previous holder
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds owner locks in Redis so several API instances share them
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker creates Redis backed owner locker
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
	}
}

func lockKey(ownerID uuid.UUID) string {
	return "quiet_blocks:lock:" + ownerID.String()
}

func (l *RedisLocker) Lock(ctx context.Context, ownerID uuid.UUID) (func(), error) {
	key := lockKey(ownerID)
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire owner lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire owner lock: %w", ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("failed to release owner lock")
			}
		})
	}, nil
}
