package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/greentravel/greentravel_core/internal/api"
	"github.com/greentravel/greentravel_core/internal/cache"
	"github.com/greentravel/greentravel_core/internal/db"
	"github.com/greentravel/greentravel_core/internal/destinations"
	"github.com/greentravel/greentravel_core/internal/distance"
	"github.com/greentravel/greentravel_core/internal/history"
	"github.com/greentravel/greentravel_core/internal/logging"
	"github.com/greentravel/greentravel_core/internal/middleware"
	"github.com/greentravel/greentravel_core/internal/recommend"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local") // Overload forces override of existing values

	logging.Init(getEnv("LOG_LEVEL", "info"), getEnvBool("LOG_PRETTY", false))
	log.Info().Msg("Starting GreenTravel API server...")

	// Load transport mode catalog
	catalog := recommend.DefaultCatalog()
	if path := getEnv("MODE_CATALOG_FILE", ""); path != "" {
		c, err := recommend.LoadCatalog(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to load mode catalog")
		}
		catalog = c
		log.Info().Str("path", path).Int("modes", c.Len()).Msg("✓ Mode catalog loaded")
	}
	engine := recommend.NewEngine(catalog)

	ctx := context.Background()
	dests := destinations.NewCatalog()
	var store api.HistoryStore

	// Initialize database connection
	if getEnvBool("ENABLE_HISTORY", true) {
		pool, err := db.GetDB()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		log.Info().Msg("✓ Database connection established")

		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}

		store = history.NewStore(pool)
		if err := dests.LoadFromDB(ctx, pool); err != nil {
			log.Warn().Err(err).Msg("Destination catalog unavailable")
		}
	} else {
		log.Warn().Msg("History disabled, running without database")
	}

	// Initialize Redis connection; the service degrades to in-process caching without it
	var remote distance.RemoteCache
	cacheCfg := cache.LoadConfigFromEnv()
	rdb, err := cache.GetClient()
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, shared cache and rate limiting disabled")
		rdb = nil
	} else {
		defer cache.Close()
		remote = cache.NewStore(rdb, cacheCfg.TTL)
		log.Info().Msg("✓ Redis connection established")
	}

	// Distance providers
	distCfg := distance.LoadConfigFromEnv()
	chain := distance.NewFromConfig(distCfg)
	provider := distance.NewCached(chain, distCfg.LRUSize, remote).WithLockTTL(cacheCfg.MutexTTL)
	log.Info().Strs("providers", chain.Providers()).Msg("✓ Distance providers configured")

	handler := api.NewHandler(engine, provider, store, dests)
	if store != nil {
		handler.WithHealthCheck("database", db.HealthCheck)
	}
	if rdb != nil {
		handler.WithHealthCheck("redis", cache.HealthCheck)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "GreenTravel API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.MetricsMiddleware())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if rdb != nil && getEnvBool("ENABLE_RATE_LIMIT", true) {
		cfg := middleware.LoadRateLimitConfigFromEnv()
		app.Use("/v1", middleware.RateLimitMiddleware(middleware.NewRedisCounter(rdb), cfg))
		log.Info().Int("per_second", cfg.PerSecond).Int("per_day", cfg.PerDay).Msg("✓ Rate limiting enabled")
	}

	// Routes
	handler.Register(app)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{
			"error": "endpoint not found",
		})
	})

	// Get port from environment
	port := getEnv("API_PORT", "8080")
	addr := fmt.Sprintf(":%s", port)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	// Start server
	log.Info().Msgf("🚀 Server listening on http://localhost%s", addr)
	log.Info().Msgf("🌱 Recommend: http://localhost%s/v1/recommend?from=Delhi&to=Jaipur&passengers=2", addr)
	log.Info().Msgf("❤️  Health check: http://localhost%s/health", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

// customErrorHandler handles errors returned from handlers
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Error().Err(err).Int("status", code).Str("path", c.Path()).Msg("request failed")

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}
