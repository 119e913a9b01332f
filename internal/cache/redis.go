package cache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/greentravel/greentravel_core/internal/models"
	"github.com/redis/go-redis/v9"
)

var (
	client     *redis.Client
	clientOnce sync.Once
	clientErr  error
)

// ErrLockTimeout is returned when another holder keeps a lock past maxWait
var ErrLockTimeout = errors.New("timeout waiting for lock")

// Config holds Redis configuration
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
	MutexTTL time.Duration
	TLS      bool
}

// LoadConfigFromEnv loads Redis configuration from environment variables
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := time.ParseDuration(getEnv("CACHE_TTL", "24h"))
	if err != nil {
		ttl = 24 * time.Hour
	}
	mutexTTL, err := time.ParseDuration(getEnv("CACHE_MUTEX_TTL", "5s"))
	if err != nil {
		mutexTTL = 5 * time.Second
	}

	return &Config{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     port,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
		TTL:      ttl,
		MutexTTL: mutexTTL,
		TLS:      getEnv("REDIS_TLS_ENABLED", "false") == "true",
	}
}

// Options converts the configuration into go-redis options
func (c *Config) Options() *redis.Options {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.Host, c.Port),
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}

	// Enable TLS if configured (required for Upstash)
	if c.TLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	return opts
}

// GetClient returns the global Redis client (singleton pattern)
func GetClient() (*redis.Client, error) {
	clientOnce.Do(func() {
		client = redis.NewClient(LoadConfigFromEnv().Options())

		// Test connection
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			clientErr = fmt.Errorf("failed to connect to Redis: %w", err)
			return
		}
	})

	return client, clientErr
}

// Close closes the Redis client
func Close() {
	if client != nil {
		client.Close()
	}
}

// DistanceKey generates a cache key for a normalised place pair
func DistanceKey(lookupKey string) string {
	hash := sha256.Sum256([]byte(lookupKey))
	return fmt.Sprintf("distance:%x", hash[:12])
}

// LockKey generates a mutex lock key
func LockKey(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

// Store is the Redis-backed distance cache. It is safe for concurrent use.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore wraps an existing client. ttl <= 0 means entries never expire.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// GetDistance retrieves a cached distance. A miss returns (nil, nil).
func (s *Store) GetDistance(ctx context.Context, lookupKey string) (*models.DistanceInfo, error) {
	data, err := s.rdb.Get(ctx, DistanceKey(lookupKey)).Bytes()
	if err == redis.Nil {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}

	var info models.DistanceInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached distance: %w", err)
	}

	return &info, nil
}

// SetDistance caches a distance
func (s *Store) SetDistance(ctx context.Context, lookupKey string, info *models.DistanceInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal distance: %w", err)
	}

	return s.rdb.Set(ctx, DistanceKey(lookupKey), data, s.ttl).Err()
}

// AcquireLock attempts to acquire a distributed lock
// Returns true if lock was acquired, false if already locked
func (s *Store) AcquireLock(ctx context.Context, lookupKey string, ttl time.Duration) (bool, error) {
	// Try to set the lock key with NX (only if not exists)
	ok, err := s.rdb.SetNX(ctx, LockKey(DistanceKey(lookupKey)), "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseLock releases a distributed lock
func (s *Store) ReleaseLock(ctx context.Context, lookupKey string) error {
	return s.rdb.Del(ctx, LockKey(DistanceKey(lookupKey))).Err()
}

// WaitForDistance waits for a lock to be released and then retrieves the result
// This implements the "wait for result" pattern to avoid thundering herd
func (s *Store) WaitForDistance(ctx context.Context, lookupKey string, maxWait time.Duration) (*models.DistanceInfo, error) {
	lockKey := LockKey(DistanceKey(lookupKey))
	deadline := time.Now().Add(maxWait)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		// Check if lock is released
		exists, err := s.rdb.Exists(ctx, lockKey).Result()
		if err != nil {
			return nil, err
		}

		if exists == 0 {
			// Lock released, try to get cached result
			return s.GetDistance(ctx, lookupKey)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return nil, ErrLockTimeout
}

// HealthCheck performs a health check on the Redis connection
func HealthCheck(ctx context.Context) error {
	client, err := GetClient()
	if err != nil {
		return fmt.Errorf("Redis client not initialized: %w", err)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}

	return nil
}

// Stats returns Redis pool stats
func Stats(ctx context.Context) (map[string]interface{}, error) {
	client, err := GetClient()
	if err != nil {
		return nil, err
	}

	keys, err := client.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}

	poolStats := client.PoolStats()

	return map[string]interface{}{
		"keys":        keys,
		"hits":        poolStats.Hits,
		"misses":      poolStats.Misses,
		"timeouts":    poolStats.Timeouts,
		"total_conns": poolStats.TotalConns,
		"idle_conns":  poolStats.IdleConns,
		"stale_conns": poolStats.StaleConns,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
