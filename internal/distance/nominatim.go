package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/greentravel/greentravel_core/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultNominatimURL is the public OpenStreetMap geocoder
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies us to Nominatim, as its usage policy requires
	DefaultUserAgent = "greentravel-core/1.0"
)

// NominatimProvider geocodes both places with OpenStreetMap Nominatim and
// measures the straight-line distance between them. Durations are estimated.
type NominatimProvider struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

// NewNominatimProvider constructs a Nominatim client limited to rps requests per second
func NewNominatimProvider(httpClient *http.Client, baseURL, userAgent string, rps float64) *NominatimProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if rps <= 0 {
		rps = 1
	}
	return &NominatimProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Name implements Provider
func (n *NominatimProvider) Name() string {
	return "osm"
}

// Lookup implements Provider
func (n *NominatimProvider) Lookup(ctx context.Context, source, destination string) (*models.DistanceInfo, error) {
	srcLat, srcLon, err := n.Geocode(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("geocode source: %w", err)
	}
	dstLat, dstLon, err := n.Geocode(ctx, destination)
	if err != nil {
		return nil, fmt.Errorf("geocode destination: %w", err)
	}

	distanceKM := round2(haversineKM(srcLat, srcLon, dstLat, dstLon))
	return &models.DistanceInfo{
		DistanceKM: distanceKM,
		Durations:  SynthesizeDurations(distanceKM),
		Source:     n.Name(),
	}, nil
}

// Geocode returns the coordinates of the best match for query
func (n *NominatimProvider) Geocode(ctx context.Context, query string) (lat, lon float64, err error) {
	if strings.TrimSpace(query) == "" {
		return 0, 0, fmt.Errorf("nominatim: empty query: %w", ErrNotFound)
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return 0, 0, fmt.Errorf("nominatim: rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("nominatim: build request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("nominatim: do request: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return 0, 0, fmt.Errorf("nominatim: http %s: %s: %w", resp.Status, strings.TrimSpace(string(b)), ErrUnavailable)
	}

	var places []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return 0, 0, fmt.Errorf("nominatim: decode: %w", err)
	}
	if len(places) == 0 {
		return 0, 0, fmt.Errorf("nominatim: no results for %q: %w", query, ErrNotFound)
	}

	lat, err = strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("nominatim: invalid latitude: %w", err)
	}
	lon, err = strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("nominatim: invalid longitude: %w", err)
	}
	return lat, lon, nil
}
