package distance

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/greentravel/greentravel_core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider is a scripted Provider that counts its calls
type stubProvider struct {
	name  string
	info  *models.DistanceInfo
	err   error
	calls atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Lookup(ctx context.Context, source, destination string) (*models.DistanceInfo, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := *s.info
	return &out, nil
}

func TestChainFallsBack(t *testing.T) {
	failing := &stubProvider{name: "google", err: ErrUnavailable}
	working := &stubProvider{name: "osm", info: &models.DistanceInfo{DistanceKM: 12, Source: "osm"}}
	never := &stubProvider{name: "mock", info: &models.DistanceInfo{DistanceKM: 500, Source: "mock"}}

	chain := NewChain(failing, working, never)
	info, err := chain.Lookup(context.Background(), "a", "b")
	require.NoError(t, err)

	assert.Equal(t, "osm", info.Source)
	assert.Equal(t, int32(1), failing.calls.Load())
	assert.Equal(t, int32(1), working.calls.Load())
	assert.Equal(t, int32(0), never.calls.Load())
	assert.Equal(t, []string{"google", "osm", "mock"}, chain.Providers())
}

func TestChainSkipsZeroDistance(t *testing.T) {
	zero := &stubProvider{name: "osm", info: &models.DistanceInfo{DistanceKM: 0}}
	mock := &stubProvider{name: "mock", info: &models.DistanceInfo{DistanceKM: 500, Source: "mock"}}

	info, err := NewChain(zero, mock).Lookup(context.Background(), "here", "here")
	require.NoError(t, err)
	assert.Equal(t, "mock", info.Source)
}

func TestChainAllFail(t *testing.T) {
	chain := NewChain(
		&stubProvider{name: "google", err: ErrUnavailable},
		&stubProvider{name: "osm", err: ErrNotFound},
	)

	_, err := chain.Lookup(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all distance providers failed")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewChain().Lookup(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestChainStopsOnCancelledContext(t *testing.T) {
	p := &stubProvider{name: "mock", info: &models.DistanceInfo{DistanceKM: 1}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChain(p).Lookup(ctx, "a", "b")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestNewFromConfig(t *testing.T) {
	t.Run("placeholder key skips google", func(t *testing.T) {
		cfg := &Config{GoogleAPIKey: placeholderAPIKey, EnableOSM: true, EnableMock: true}
		chain := NewFromConfig(cfg)
		assert.Equal(t, []string{"osm", "mock"}, chain.Providers())
	})

	t.Run("all providers", func(t *testing.T) {
		cfg := &Config{GoogleAPIKey: "real", EnableOSM: true, EnableMock: true}
		chain := NewFromConfig(cfg)
		assert.Equal(t, []string{"google", "osm", "mock"}, chain.Providers())
	})
}
