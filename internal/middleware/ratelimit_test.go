package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{counts: map[string]int64{}}
}

func (m *memoryCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func newLimitedApp(counter Counter, cfg RateLimitConfig) *fiber.App {
	app := fiber.New()
	app.Use(RateLimitMiddleware(counter, cfg))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func TestRateLimitPerDay(t *testing.T) {
	app := newLimitedApp(newMemoryCounter(), RateLimitConfig{PerDay: 2})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit-Day"))
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining-Day"))
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "daily_quota_exceeded", body["error"])
	assert.Equal(t, float64(3), body["used"])
}

func TestRateLimitPerSecond(t *testing.T) {
	app := newLimitedApp(newMemoryCounter(), RateLimitConfig{PerSecond: 1})

	statuses := map[int]int{}
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		statuses[resp.StatusCode]++
	}

	// the three requests can straddle a second boundary
	assert.GreaterOrEqual(t, statuses[fiber.StatusTooManyRequests], 1)
	assert.GreaterOrEqual(t, statuses[fiber.StatusOK], 1)
}

func TestRateLimitFailsOpen(t *testing.T) {
	counter := newMemoryCounter()
	counter.err = errors.New("redis down")
	app := newLimitedApp(counter, RateLimitConfig{PerSecond: 1, PerDay: 1})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	counter := newMemoryCounter()
	app := newLimitedApp(counter, RateLimitConfig{})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, counter.counts)
}

func TestLoadRateLimitConfigFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_SECOND", "5")
	t.Setenv("RATE_LIMIT_PER_DAY", "bogus")

	cfg := LoadRateLimitConfigFromEnv()
	assert.Equal(t, 5, cfg.PerSecond)
	assert.Equal(t, 10000, cfg.PerDay)
}
