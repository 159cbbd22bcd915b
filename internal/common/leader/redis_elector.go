package leader

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisElectorConfig holds configuration for Redis-based leader election
type RedisElectorConfig struct {
	// InstanceID uniquely identifies this instance (defaults to hostname)
	InstanceID string

	// LockName is the name of the lease key (e.g., "scan-scheduler-leader")
	LockName string

	// TTL is how long the lease is valid before expiring
	TTL time.Duration

	// RefreshInterval is how often to refresh the lease while primary
	RefreshInterval time.Duration
}

// DefaultRedisElectorConfig returns sensible defaults
func DefaultRedisElectorConfig(lockName string) *RedisElectorConfig {
	instanceID, _ := os.Hostname()
	if instanceID == "" {
		instanceID = "instance-" + time.Now().Format("20060102150405")
	}

	return &RedisElectorConfig{
		InstanceID:      instanceID,
		LockName:        lockName,
		TTL:             30 * time.Second,
		RefreshInterval: 10 * time.Second,
	}
}

// RedisElector provides leader election over a Redis lease.
//
// The lease uses the SET NX EX pattern for atomic acquisition; while
// primary, the elector extends the lease with an ownership-checked Lua
// script. Losing a refresh demotes the instance until it re-acquires.
type RedisElector struct {
	client    *redis.Client
	config    *RedisElectorConfig
	isPrimary atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewRedisElector creates a Redis-based elector
func NewRedisElector(client *redis.Client, config *RedisElectorConfig) *RedisElector {
	if config == nil {
		config = DefaultRedisElectorConfig("scan-scheduler-leader")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &RedisElector{
		client: client,
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the election loop
func (e *RedisElector) Start() error {
	e.wg.Add(1)
	go e.electionLoop()

	slog.Info("Redis leader election started",
		"instanceId", e.config.InstanceID,
		"lockName", e.config.LockName,
		"ttl", e.config.TTL)

	return nil
}

// Stop stops the election loop and releases the lease if held
func (e *RedisElector) Stop() {
	e.cancel()
	e.wg.Wait()

	if e.isPrimary.Load() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		e.release(ctx)
	}

	slog.Info("Redis leader election stopped", "instanceId", e.config.InstanceID)
}

// IsPrimary returns true if this instance currently leads
func (e *RedisElector) IsPrimary() bool {
	return e.isPrimary.Load()
}

func (e *RedisElector) electionLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.RefreshInterval)
	defer ticker.Stop()

	e.tryAcquireOrRefresh()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.tryAcquireOrRefresh()
		}
	}
}

func (e *RedisElector) tryAcquireOrRefresh() {
	ctx, cancel := context.WithTimeout(e.ctx, 5*time.Second)
	defer cancel()

	if e.isPrimary.Load() {
		if e.refresh(ctx) {
			return
		}
		e.isPrimary.Store(false)
		slog.Warn("Lost leadership - refresh failed",
			"instanceId", e.config.InstanceID,
			"lockName", e.config.LockName)
	}

	if e.tryAcquire(ctx) {
		if !e.isPrimary.Load() {
			slog.Info("Acquired leadership",
				"instanceId", e.config.InstanceID,
				"lockName", e.config.LockName)
		}
		e.isPrimary.Store(true)
	}
}

// tryAcquire attempts SET NX EX; an existing lease owned by this instance
// (e.g. after a restart) is refreshed instead.
func (e *RedisElector) tryAcquire(ctx context.Context) bool {
	acquired, err := e.client.SetNX(ctx, e.config.LockName, e.config.InstanceID, e.config.TTL).Result()
	if err != nil {
		slog.Error("Failed to acquire leader lease",
			"error", err,
			"lockName", e.config.LockName)
		return false
	}
	if acquired {
		return true
	}

	owner, err := e.client.Get(ctx, e.config.LockName).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Error("Failed to check lease owner", "error", err)
		}
		return false
	}
	if owner == e.config.InstanceID {
		return e.refresh(ctx)
	}
	return false
}

// refresh atomically extends the lease only if this instance still owns it
func (e *RedisElector) refresh(ctx context.Context) bool {
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("expire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)

	ttlSeconds := int(e.config.TTL.Seconds())
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	result, err := script.Run(ctx, e.client, []string{e.config.LockName}, e.config.InstanceID, ttlSeconds).Int()
	if err != nil {
		slog.Error("Failed to refresh leader lease",
			"error", err,
			"lockName", e.config.LockName)
		return false
	}
	return result != 0
}

// release atomically deletes the lease only if this instance owns it
func (e *RedisElector) release(ctx context.Context) {
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	if _, err := script.Run(ctx, e.client, []string{e.config.LockName}, e.config.InstanceID).Int(); err != nil {
		slog.Error("Failed to release leader lease",
			"error", err,
			"lockName", e.config.LockName)
		return
	}

	e.isPrimary.Store(false)
}
