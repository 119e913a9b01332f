package distance

import (
	"context"
	"strings"
	"time"

	"github.com/greentravel/greentravel_core/internal/models"
	"github.com/greentravel/greentravel_core/internal/monitoring"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLRUSize = 1024
	defaultLockTTL = 5 * time.Second
	lockWait       = 3 * time.Second

	// sharedLoadTimeout bounds a collapsed lookup, which no longer follows
	// any single caller's deadline
	sharedLoadTimeout = 15 * time.Second
)

// RemoteCache is a shared cache tier, typically Redis.
// GetDistance returns (nil, nil) on a miss.
type RemoteCache interface {
	GetDistance(ctx context.Context, key string) (*models.DistanceInfo, error)
	SetDistance(ctx context.Context, key string, info *models.DistanceInfo) error
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
	WaitForDistance(ctx context.Context, key string, maxWait time.Duration) (*models.DistanceInfo, error)
}

// Cached memoises a provider in a process-local LRU, optionally backed by a
// shared remote tier. Concurrent identical lookups are collapsed into one.
type Cached struct {
	next   Provider
	local  *lru.Cache[string, *models.DistanceInfo]
	remote RemoteCache
	group  singleflight.Group

	lockTTL time.Duration
}

// NewCached wraps next. remote may be nil.
func NewCached(next Provider, size int, remote RemoteCache) *Cached {
	if size <= 0 {
		size = defaultLRUSize
	}
	local, err := lru.New[string, *models.DistanceInfo](size)
	if err != nil {
		local, _ = lru.New[string, *models.DistanceInfo](16)
	}
	return &Cached{next: next, local: local, remote: remote, lockTTL: defaultLockTTL}
}

// WithLockTTL sets how long a remote lookup lock is held before it expires
func (c *Cached) WithLockTTL(ttl time.Duration) *Cached {
	if ttl > 0 {
		c.lockTTL = ttl
	}
	return c
}

// Name implements Provider
func (c *Cached) Name() string {
	return "cached:" + c.next.Name()
}

// LookupKey normalises a place pair into a cache key
func LookupKey(source, destination string) string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return norm(source) + "|" + norm(destination)
}

// Lookup implements Provider
func (c *Cached) Lookup(ctx context.Context, source, destination string) (*models.DistanceInfo, error) {
	key := LookupKey(source, destination)

	if info, ok := c.local.Get(key); ok {
		monitoring.CacheHits.WithLabelValues("distance_lru").Inc()
		return copyInfo(info), nil
	}
	monitoring.CacheMisses.WithLabelValues("distance_lru").Inc()

	// The shared load must outlive any one caller: waiters on the same key
	// keep their own deadlines through the select below.
	ch := c.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		info, err := c.load(loadCtx, key, source, destination)
		if err != nil {
			return nil, err
		}
		c.local.Add(key, info)
		return info, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return copyInfo(res.Val.(*models.DistanceInfo)), nil
	}
}

// load consults the remote tier, then the wrapped provider
func (c *Cached) load(ctx context.Context, key, source, destination string) (*models.DistanceInfo, error) {
	if c.remote == nil {
		return c.next.Lookup(ctx, source, destination)
	}

	if info, err := c.remote.GetDistance(ctx, key); err == nil && info != nil {
		monitoring.CacheHits.WithLabelValues("distance_redis").Inc()
		return info, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("remote distance cache read failed")
	}
	monitoring.CacheMisses.WithLabelValues("distance_redis").Inc()

	acquired, err := c.remote.AcquireLock(ctx, key, c.lockTTL)
	if err != nil {
		log.Warn().Err(err).Msg("failed to acquire distance lock")
	} else if !acquired {
		// another instance is resolving this pair
		if info, err := c.remote.WaitForDistance(ctx, key, lockWait); err == nil && info != nil {
			return info, nil
		}
	}
	defer func() {
		if acquired {
			if err := c.remote.ReleaseLock(ctx, key); err != nil {
				log.Warn().Err(err).Msg("failed to release distance lock")
			}
		}
	}()

	info, err := c.next.Lookup(ctx, source, destination)
	if err != nil {
		return nil, err
	}

	if err := c.remote.SetDistance(ctx, key, info); err != nil {
		log.Warn().Err(err).Msg("failed to cache distance")
	}
	return info, nil
}

func copyInfo(info *models.DistanceInfo) *models.DistanceInfo {
	out := *info
	if info.Durations != nil {
		out.Durations = make(map[string]int, len(info.Durations))
		for k, v := range info.Durations {
			out.Durations[k] = v
		}
	}
	return &out
}
