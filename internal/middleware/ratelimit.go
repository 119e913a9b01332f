package middleware

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/greentravel/greentravel_core/internal/monitoring"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimitConfig holds per-client request limits. A limit <= 0 disables it.
type RateLimitConfig struct {
	PerSecond int
	PerDay    int
}

// LoadRateLimitConfigFromEnv loads limits from environment variables
func LoadRateLimitConfigFromEnv() RateLimitConfig {
	perSecond, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_SECOND", "10"))
	if err != nil {
		perSecond = 10
	}
	perDay, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_DAY", "10000"))
	if err != nil {
		perDay = 10000
	}
	return RateLimitConfig{PerSecond: perSecond, PerDay: perDay}
}

// Counter increments a fixed-window counter and refreshes its expiry
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter implements Counter with INCR + EXPIRE in one round trip
type RedisCounter struct {
	rdb *redis.Client
}

// NewRedisCounter wraps a Redis client
func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

// Incr implements Counter
func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimitMiddleware limits requests per client IP per second and per day.
// Counter failures let the request through.
func RateLimitMiddleware(counter Counter, cfg RateLimitConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		now := time.Now()
		client := c.IP()

		// Check per-second rate limit
		if cfg.PerSecond > 0 {
			keySecond := fmt.Sprintf("rl:ip:%s:second:%d", client, now.Unix())
			countSecond, err := counter.Incr(ctx, keySecond, 2*time.Second)
			if err != nil {
				log.Warn().Err(err).Msg("rate limit counter unavailable")
			} else {
				c.Set("X-RateLimit-Limit-Second", strconv.Itoa(cfg.PerSecond))
				c.Set("X-RateLimit-Remaining-Second", strconv.FormatInt(maxInt64(0, int64(cfg.PerSecond)-countSecond), 10))

				if countSecond > int64(cfg.PerSecond) {
					monitoring.RateLimitExceeded.WithLabelValues("second").Inc()
					c.Set("X-RateLimit-Reset-Second", strconv.FormatInt(now.Unix()+1, 10))
					c.Set("Retry-After", "1")

					return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
						"error":       "rate_limit_exceeded",
						"message":     "Too many requests per second",
						"limit_type":  "per_second",
						"limit":       cfg.PerSecond,
						"retry_after": 1,
					})
				}
			}
		}

		// Check per-day rate limit
		if cfg.PerDay > 0 {
			keyDay := fmt.Sprintf("rl:ip:%s:day:%s", client, now.Format("2006-01-02"))
			// 25 hours to handle timezone differences
			countDay, err := counter.Incr(ctx, keyDay, 25*time.Hour)
			if err != nil {
				log.Warn().Err(err).Msg("rate limit counter unavailable")
			} else {
				c.Set("X-RateLimit-Limit-Day", strconv.Itoa(cfg.PerDay))
				c.Set("X-RateLimit-Remaining-Day", strconv.FormatInt(maxInt64(0, int64(cfg.PerDay)-countDay), 10))

				if countDay > int64(cfg.PerDay) {
					monitoring.RateLimitExceeded.WithLabelValues("day").Inc()

					// Calculate seconds until midnight
					tomorrow := now.AddDate(0, 0, 1)
					midnight := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, tomorrow.Location())
					retryAfter := int64(midnight.Sub(now).Seconds())

					c.Set("X-RateLimit-Reset-Day", strconv.FormatInt(midnight.Unix(), 10))
					c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))

					return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
						"error":       "daily_quota_exceeded",
						"message":     "Daily quota exceeded",
						"limit_type":  "per_day",
						"limit":       cfg.PerDay,
						"used":        countDay,
						"retry_after": retryAfter,
						"reset_at":    midnight.Format(time.RFC3339),
					})
				}
			}
		}

		return c.Next()
	}
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
