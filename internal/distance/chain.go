package distance

import (
	"context"
	"fmt"
	"time"

	"github.com/greentravel/greentravel_core/internal/models"
	"github.com/greentravel/greentravel_core/internal/monitoring"
	"github.com/rs/zerolog/log"
)

// Chain tries providers in order and returns the first successful answer
type Chain struct {
	providers []Provider
}

// NewChain creates a fallback chain
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Name implements Provider
func (c *Chain) Name() string {
	return "chain"
}

// Providers returns the names of the chained providers in order
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Lookup implements Provider
func (c *Chain) Lookup(ctx context.Context, source, destination string) (*models.DistanceInfo, error) {
	if len(c.providers) == 0 {
		return nil, ErrUnavailable
	}

	var lastErr error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		info, err := p.Lookup(ctx, source, destination)
		monitoring.DistanceLookupDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

		if err == nil && info != nil && info.DistanceKM > 0 {
			monitoring.DistanceLookupsTotal.WithLabelValues(p.Name(), monitoring.StatusSuccess).Inc()
			return info, nil
		}
		if err == nil {
			err = fmt.Errorf("%s: non-positive distance: %w", p.Name(), ErrNotFound)
		}

		monitoring.DistanceLookupsTotal.WithLabelValues(p.Name(), monitoring.StatusError).Inc()
		log.Warn().Err(err).
			Str("provider", p.Name()).
			Str("source", source).
			Str("destination", destination).
			Msg("distance provider failed, trying next")
		lastErr = err
	}

	return nil, fmt.Errorf("all distance providers failed: %w", lastErr)
}
