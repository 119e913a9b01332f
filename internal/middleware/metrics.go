package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/greentravel/greentravel_core/internal/monitoring"
	"github.com/rs/zerolog/log"
)

// MetricsMiddleware records request count and latency per route, and logs
// each request at debug level.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Record start time
		start := time.Now()

		// Process the request
		err := c.Next()

		// Calculate response time
		responseTime := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		// route pattern, not the raw path, keeps label cardinality bounded
		route := c.Route().Path
		if status == fiber.StatusNotFound && route != c.Path() {
			route = "unmatched"
		}

		monitoring.HTTPRequestsTotal.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		monitoring.HTTPRequestDuration.WithLabelValues(route).Observe(responseTime.Seconds())

		log.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("took", responseTime).
			Str("ip", c.IP()).
			Msg("request")

		// Add custom response headers for debugging
		c.Set("X-Response-Time", responseTime.String())

		return err
	}
}
