package destinations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/greentravel/greentravel_core/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// Querier is the subset of pgxpool.Pool the catalog reads with
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Catalog holds all destinations in memory. Reloads swap the whole set.
type Catalog struct {
	mu       sync.RWMutex
	items    []models.Destination
	loaded   bool
	loadedAt time.Time
}

// NewCatalog creates a catalog seeded with dests
func NewCatalog(dests ...models.Destination) *Catalog {
	c := &Catalog{}
	if len(dests) > 0 {
		c.Replace(dests)
	}
	return c
}

// LoadFromDB reads every destination from PostgreSQL and swaps it in
func (c *Catalog) LoadFromDB(ctx context.Context, db Querier) error {
	startTime := time.Now()

	rows, err := db.Query(ctx, `
		SELECT id, name, country, description, carbon_score, transports, tags
		FROM destination
		ORDER BY id
	`)
	if err != nil {
		return fmt.Errorf("failed to load destinations: %w", err)
	}
	defer rows.Close()

	var dests []models.Destination
	for rows.Next() {
		var d models.Destination
		if err := rows.Scan(&d.ID, &d.Name, &d.Country, &d.Description,
			&d.CarbonScore, &d.Transports, &d.Tags); err != nil {
			log.Warn().Err(err).Msg("failed to scan destination")
			continue
		}
		dests = append(dests, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read destinations: %w", err)
	}

	c.Replace(dests)
	log.Info().
		Int("destinations", len(dests)).
		Dur("took", time.Since(startTime)).
		Msg("destination catalog loaded")
	return nil
}

// Replace swaps in a new destination set
func (c *Catalog) Replace(dests []models.Destination) {
	items := make([]models.Destination, len(dests))
	copy(items, dests)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.loaded = true
	c.loadedAt = time.Now()
}

// IsLoaded returns true once a destination set has been swapped in
func (c *Catalog) IsLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Len returns the number of destinations
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Search filters and ranks the current destination set
func (c *Catalog) Search(q Query) []models.Destination {
	c.mu.RLock()
	items := c.items
	c.mu.RUnlock()

	// items is never mutated after Replace, so Filter can read it unlocked
	return Filter(items, q)
}
