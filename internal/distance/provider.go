package distance

import (
	"context"
	"errors"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/greentravel/greentravel_core/internal/models"
)

var (
	// ErrNotFound is returned when a provider cannot resolve a place or route
	ErrNotFound = errors.New("distance: route not found")
	// ErrUnavailable is returned when a provider cannot be reached or is not configured
	ErrUnavailable = errors.New("distance: provider unavailable")
)

// Provider resolves the distance and per-mode durations between two places
type Provider interface {
	Name() string
	Lookup(ctx context.Context, source, destination string) (*models.DistanceInfo, error)
}

// placeholderAPIKey is shipped in sample configs and means "not configured"
const placeholderAPIKey = "YOUR_GOOGLE_MAPS_API_KEY_HERE"

// Config holds distance provider configuration
type Config struct {
	GoogleAPIKey string
	NominatimURL string
	NominatimRPS float64
	UserAgent    string
	LRUSize      int
	EnableMock   bool
	EnableOSM    bool
}

// LoadConfigFromEnv loads provider configuration from environment variables
func LoadConfigFromEnv() *Config {
	rps, _ := strconv.ParseFloat(getEnv("NOMINATIM_RPS", "1"), 64)
	lruSize, _ := strconv.Atoi(getEnv("DISTANCE_LRU_SIZE", "1024"))
	enableMock, _ := strconv.ParseBool(getEnv("ENABLE_MOCK_DISTANCES", "true"))
	enableOSM, _ := strconv.ParseBool(getEnv("ENABLE_OSM_FALLBACK", "true"))

	return &Config{
		GoogleAPIKey: strings.TrimSpace(getEnv("GOOGLE_MAPS_API_KEY", "")),
		NominatimURL: getEnv("NOMINATIM_URL", DefaultNominatimURL),
		NominatimRPS: rps,
		UserAgent:    getEnv("NOMINATIM_USER_AGENT", DefaultUserAgent),
		LRUSize:      lruSize,
		EnableMock:   enableMock,
		EnableOSM:    enableOSM,
	}
}

// HasGoogle reports whether a usable Google Maps key is configured
func (c *Config) HasGoogle() bool {
	return c.GoogleAPIKey != "" && c.GoogleAPIKey != placeholderAPIKey
}

// NewFromConfig builds the provider chain: Google when a key is configured,
// then OpenStreetMap, then the built-in city table.
func NewFromConfig(cfg *Config) *Chain {
	var providers []Provider
	if cfg.HasGoogle() {
		providers = append(providers, NewGoogleProvider(nil, cfg.GoogleAPIKey))
	}
	if cfg.EnableOSM {
		providers = append(providers, NewNominatimProvider(nil, cfg.NominatimURL, cfg.UserAgent, cfg.NominatimRPS))
	}
	if cfg.EnableMock {
		providers = append(providers, NewMockProvider())
	}
	return NewChain(providers...)
}

// SynthesizeDurations estimates per-mode durations from a straight distance.
// Used by providers that know the distance but not real travel times.
func SynthesizeDurations(distanceKM float64) map[string]int {
	drivingSpeed, transitSpeed := 60.0, 70.0
	if distanceKM < 50 {
		drivingSpeed, transitSpeed = 40.0, 50.0
	}
	return map[string]int{
		models.DurationDriving:   int(distanceKM / drivingSpeed * 3600),
		models.DurationTransit:   int(distanceKM / transitSpeed * 3600),
		models.DurationBicycling: int(distanceKM / 15.0 * 3600),
		models.DurationWalking:   int(distanceKM / 5.0 * 3600),
	}
}

// haversineKM calculates the great-circle distance between two points in kilometers
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371.0088 // km

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
