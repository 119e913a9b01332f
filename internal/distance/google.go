package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/greentravel/greentravel_core/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultGoogleBaseURL is the Google Maps web services endpoint
const DefaultGoogleBaseURL = "https://maps.googleapis.com"

// GoogleProvider resolves routes with the Google Distance Matrix API
type GoogleProvider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewGoogleProvider constructs a Distance Matrix client
func NewGoogleProvider(httpClient *http.Client, apiKey string) *GoogleProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleProvider{httpClient: httpClient, apiKey: apiKey, baseURL: DefaultGoogleBaseURL}
}

// WithBaseURL points the client at another endpoint (used by tests)
func (g *GoogleProvider) WithBaseURL(baseURL string) *GoogleProvider {
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

// Name implements Provider
func (g *GoogleProvider) Name() string {
	return "google"
}

type matrixValue struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []struct {
			Status   string       `json:"status"`
			Distance *matrixValue `json:"distance"`
			Duration *matrixValue `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// Lookup implements Provider. The driving request is authoritative for the
// distance; transit, bicycling and walking durations are best-effort.
func (g *GoogleProvider) Lookup(ctx context.Context, source, destination string) (*models.DistanceInfo, error) {
	if g.apiKey == "" {
		return nil, ErrUnavailable
	}

	driving, err := g.matrix(ctx, source, destination, models.DurationDriving)
	if err != nil {
		return nil, err
	}
	if driving.Distance == nil {
		return nil, fmt.Errorf("google: driving element without distance: %w", ErrNotFound)
	}

	info := &models.DistanceInfo{
		DistanceKM: round2(driving.Distance.Value / 1000),
		Durations:  map[string]int{},
		Source:     g.Name(),
	}
	if driving.Duration != nil {
		info.Durations[models.DurationDriving] = int(driving.Duration.Value)
	}

	// Individual duration failures are dropped; only the caller's context
	// going away aborts the group, since no sibling can succeed after that.
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	for _, mode := range []string{models.DurationTransit, models.DurationBicycling, models.DurationWalking} {
		mode := mode
		eg.Go(func() error {
			elem, err := g.matrix(egCtx, source, destination, mode)
			if err != nil {
				if ctxErr := egCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Debug().Err(err).Str("mode", mode).Msg("google duration lookup failed")
				return nil
			}
			if elem.Duration == nil {
				return nil
			}
			mu.Lock()
			info.Durations[mode] = int(elem.Duration.Value)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("google: duration lookups: %w", err)
	}

	return info, nil
}

type matrixElement struct {
	Distance *matrixValue
	Duration *matrixValue
}

// matrix performs one Distance Matrix request and returns its single element
func (g *GoogleProvider) matrix(ctx context.Context, source, destination, mode string) (*matrixElement, error) {
	params := url.Values{}
	params.Set("origins", source)
	params.Set("destinations", destination)
	params.Set("mode", mode)
	params.Set("units", "metric")
	params.Set("key", g.apiKey)

	endpoint := fmt.Sprintf("%s/maps/api/distancematrix/json?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("google: build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: do request: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("google: http %s: %s: %w", resp.Status, strings.TrimSpace(string(b)), ErrUnavailable)
	}

	var payload matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("google: decode: %w", err)
	}

	if payload.Status != "OK" {
		return nil, fmt.Errorf("google: status %s %s: %w", payload.Status, payload.ErrorMessage, ErrNotFound)
	}
	if len(payload.Rows) == 0 || len(payload.Rows[0].Elements) == 0 {
		return nil, fmt.Errorf("google: empty matrix: %w", ErrNotFound)
	}

	elem := payload.Rows[0].Elements[0]
	if elem.Status != "OK" {
		return nil, fmt.Errorf("google: element status %s: %w", elem.Status, ErrNotFound)
	}

	return &matrixElement{Distance: elem.Distance, Duration: elem.Duration}, nil
}
