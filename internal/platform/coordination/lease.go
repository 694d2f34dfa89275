package coordination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLeaseHeld is returned when another worker owns the stage lease.
var ErrLeaseHeld = errors.New("stage lease held by another worker")

// Lease grants single-writer execution of a named pipeline stage.
type Lease interface {
	Acquire(ctx context.Context, name string) (release func(context.Context) error, err error)
}

// releaseScript deletes the key only when the caller still owns the token.
// KEYS[1] = lease key, ARGV[1] = owner token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLease struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisLease(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *RedisLease {
	if prefix == "" {
		prefix = "girthgov:lease:"
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLease{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (l *RedisLease) Acquire(ctx context.Context, name string) (func(context.Context) error, error) {
	key := l.prefix + name
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		l.logger.Error("stage lease acquire failed",
			"event", "coordination_lease_acquire_failed",
			"module", "internal/platform/coordination",
			"layer", "platform",
			"lease", name,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLeaseHeld
	}
	return func(releaseCtx context.Context) error {
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("stage lease release failed",
				"event", "coordination_lease_release_failed",
				"module", "internal/platform/coordination",
				"layer", "platform",
				"lease", name,
				"error", err.Error(),
			)
			return err
		}
		return nil
	}, nil
}

// MemoryLease serves single-process runs and tests.
type MemoryLease struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMemoryLease() *MemoryLease {
	return &MemoryLease{held: make(map[string]bool)}
}

func (l *MemoryLease) Acquire(_ context.Context, name string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, ErrLeaseHeld
	}
	l.held[name] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, name)
		return nil
	}, nil
}
