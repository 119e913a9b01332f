package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/greentravel/greentravel_core/internal/destinations"
	"github.com/greentravel/greentravel_core/internal/distance"
	"github.com/greentravel/greentravel_core/internal/history"
	"github.com/greentravel/greentravel_core/internal/models"
	"github.com/greentravel/greentravel_core/internal/monitoring"
	"github.com/greentravel/greentravel_core/internal/recommend"
	"github.com/rs/zerolog/log"
)

// Passenger bounds accepted by the API
const (
	MinPassengers = 1
	MaxPassengers = 20
)

const (
	lookupTimeout = 15 * time.Second
	saveTimeout   = 3 * time.Second
)

// HistoryStore persists and lists travel records
type HistoryStore interface {
	Save(ctx context.Context, rec *models.TravelRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.TravelRecord, error)
}

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// Handler serves the HTTP API
type Handler struct {
	engine       *recommend.Engine
	distances    distance.Provider
	history      HistoryStore
	destinations *destinations.Catalog
	checks       map[string]HealthCheck
}

// NewHandler wires the API. history and dests may be nil, which disables
// the endpoints that need them.
func NewHandler(engine *recommend.Engine, distances distance.Provider, history HistoryStore, dests *destinations.Catalog) *Handler {
	if engine == nil {
		engine = recommend.NewEngine(nil)
	}
	if dests == nil {
		dests = destinations.NewCatalog()
	}
	return &Handler{
		engine:       engine,
		distances:    distances,
		history:      history,
		destinations: dests,
		checks:       map[string]HealthCheck{},
	}
}

// WithHealthCheck adds a named dependency check to /health
func (h *Handler) WithHealthCheck(name string, check HealthCheck) *Handler {
	h.checks[name] = check
	return h
}

// Register mounts every endpoint on router
func (h *Handler) Register(router fiber.Router) {
	router.Get("/health", h.Health)

	v1 := router.Group("/v1")
	v1.Get("/modes", h.Modes)
	v1.Get("/estimate", h.Estimate)
	v1.Get("/recommend", h.Recommend)
	v1.Get("/history", h.History)
	v1.Get("/destinations", h.Destinations)
}

// RecommendResponse is the API response for /v1/estimate and /v1/recommend
type RecommendResponse struct {
	Source          string                  `json:"source,omitempty"`
	Destination     string                  `json:"destination,omitempty"`
	DistanceKM      float64                 `json:"distance_km"`
	DistanceSource  string                  `json:"distance_source,omitempty"`
	Passengers      int                     `json:"passengers"`
	Best            models.ModeEvaluation   `json:"best"`
	Recommendations []models.ModeEvaluation `json:"recommendations"`
	Selected        *models.ModeEvaluation  `json:"selected,omitempty"`
	ExtraCO2KG      *float64                `json:"extra_co2_kg,omitempty"`
	EcoMessage      string                  `json:"eco_message"`
	CO2SavedKG      float64                 `json:"co2_saved_vs_flight_kg"`
	RecordID        string                  `json:"record_id,omitempty"`
}

// Modes handles the /v1/modes endpoint
func (h *Handler) Modes(c *fiber.Ctx) error {
	modes := h.engine.Catalog().Modes()
	return c.JSON(fiber.Map{
		"modes": modes,
		"total": len(modes),
	})
}

// Estimate handles the /v1/estimate endpoint. It runs the engine on a known
// distance without any provider lookup.
func (h *Handler) Estimate(c *fiber.Ctx) error {
	distanceKM, err := strconv.ParseFloat(c.Query("distance_km"), 64)
	if err != nil || distanceKM <= 0 || math.IsInf(distanceKM, 0) || math.IsNaN(distanceKM) {
		return c.Status(400).JSON(fiber.Map{
			"error": "distance_km must be a positive number",
		})
	}

	passengers, err := parsePassengers(c.Query("passengers"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// Raw strings are passed through; the engine ignores malformed values
	durations := models.Durations{}
	for _, key := range []string{models.DurationDriving, models.DurationTransit, models.DurationBicycling, models.DurationWalking} {
		if v := c.Query(key); v != "" {
			durations[key] = v
		}
	}

	resp, ok := h.evaluate(distanceKM, durations, passengers, "")
	if !ok {
		return c.Status(422).JSON(fiber.Map{
			"error": "no transport mode available for this distance",
		})
	}
	return c.JSON(resp)
}

// Recommend handles the /v1/recommend endpoint
func (h *Handler) Recommend(c *fiber.Ctx) error {
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "missing required parameters: from and to",
		})
	}

	passengers, err := parsePassengers(c.Query("passengers"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	travelType := strings.ToLower(strings.TrimSpace(c.Query("travel_type")))
	if travelType != "" && !models.ModeID(travelType).Valid() {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("unknown travel_type %q", travelType),
		})
	}

	if h.distances == nil {
		return c.Status(503).JSON(fiber.Map{
			"error": "distance lookup is not configured",
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), lookupTimeout)
	defer cancel()

	info, err := h.distances.Lookup(ctx, from, to)
	if err != nil {
		log.Warn().Err(err).Str("from", from).Str("to", to).Msg("distance lookup failed")
		status, msg := lookupFailure(err)
		return c.Status(status).JSON(fiber.Map{
			"error": msg,
		})
	}

	resp, ok := h.evaluate(info.DistanceKM, models.DurationsFromSeconds(info.Durations), passengers, models.ModeID(travelType))
	if !ok {
		return c.Status(422).JSON(fiber.Map{
			"error": "no transport mode available for this distance",
		})
	}
	resp.Source = from
	resp.Destination = to
	resp.DistanceSource = info.Source

	monitoring.RecommendationsTotal.WithLabelValues(string(resp.Best.Transport)).Inc()
	monitoring.CO2SavedKG.Add(resp.CO2SavedKG)

	if userID := strings.TrimSpace(c.Query("user_id")); userID != "" && h.history != nil {
		rec := history.NewRecord(history.Trip{
			UserID:             userID,
			Source:             from,
			Destination:        to,
			DistanceKM:         info.DistanceKM,
			Passengers:         passengers,
			SelectedTravelType: travelType,
		}, resp.Best, resp.CO2SavedKG)

		saveCtx, cancelSave := context.WithTimeout(context.Background(), saveTimeout)
		defer cancelSave()
		if err := h.history.Save(saveCtx, rec); err != nil {
			// the recommendation is still useful without a stored record
			log.Error().Err(err).Str("user_id", userID).Msg("failed to save travel record")
		} else {
			resp.RecordID = rec.ID.String()
		}
	}

	return c.JSON(resp)
}

// statusClientClosedRequest is the non-standard code used when the client
// went away before the response was ready
const statusClientClosedRequest = 499

// lookupFailure maps a distance lookup error to a status code and message
func lookupFailure(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return 504, "distance lookup timed out"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "request cancelled"
	case errors.Is(err, distance.ErrUnavailable):
		return 503, "distance providers are unavailable"
	default:
		return 404, "could not determine the distance between the specified places"
	}
}

// evaluate runs the engine and assembles the response body
func (h *Handler) evaluate(distanceKM float64, durations models.Durations, passengers int, selected models.ModeID) (*RecommendResponse, bool) {
	ranked := h.engine.Recommend(distanceKM, durations, passengers)
	if len(ranked) == 0 {
		return nil, false
	}
	best := ranked[0]

	name := string(best.Transport)
	if mode, ok := h.engine.Catalog().Get(best.Transport); ok {
		name = mode.Name
	}

	resp := &RecommendResponse{
		DistanceKM:      distanceKM,
		Passengers:      passengers,
		Best:            best,
		Recommendations: ranked,
		EcoMessage:      recommend.EcoMessage(best.GreenScore, name, distanceKM),
		CO2SavedKG:      h.engine.CO2SavedVsFlight(best, distanceKM),
	}

	if selected != "" {
		if mode, ok := h.engine.Catalog().Get(selected); ok {
			eval := h.engine.Evaluate(mode, distanceKM, durations, passengers)
			extra := math.Round((eval.EmissionKG-best.EmissionKG)*100) / 100
			resp.Selected = &eval
			resp.ExtraCO2KG = &extra
		}
	}

	return resp, true
}

// History handles the /v1/history endpoint
func (h *Handler) History(c *fiber.Ctx) error {
	if h.history == nil {
		return c.Status(503).JSON(fiber.Map{
			"error": "history is not available",
		})
	}

	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "missing required parameter: user_id",
		})
	}

	limit := history.MaxListLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return c.Status(400).JSON(fiber.Map{
				"error": "limit must be a positive integer",
			})
		}
		limit = parsed
	}

	records, err := h.history.ListByUser(c.UserContext(), userID, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to list travel records")
		return c.Status(500).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"records": records,
		"summary": history.Summarize(records),
	})
}

// Destinations handles the /v1/destinations endpoint
func (h *Handler) Destinations(c *fiber.Ctx) error {
	var q destinations.Query

	if s := c.Query("max_carbon"); s != "" {
		maxCarbon, err := strconv.Atoi(s)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{
				"error": "max_carbon must be an integer",
			})
		}
		q.MaxCarbon = &maxCarbon
	}
	q.Transport = c.Query("transport")
	q.Tags = destinations.SplitList(c.Query("tags"))

	results := h.destinations.Search(q)
	return c.JSON(fiber.Map{
		"destinations": results,
		"total":        len(results),
	})
}

// Health handles the /health endpoint
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()

	checks := fiber.Map{}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	// Overall status
	status := "healthy"
	httpStatus := 200
	if !healthy {
		status = "unhealthy"
		httpStatus = 503
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":       status,
		"checks":       checks,
		"modes":        h.engine.Catalog().Len(),
		"destinations": h.destinations.Len(),
	})
}

// parsePassengers parses an optional passenger count within API bounds
func parsePassengers(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return MinPassengers, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < MinPassengers || n > MaxPassengers {
		return 0, fmt.Errorf("passengers must be an integer between %d and %d", MinPassengers, MaxPassengers)
	}
	return n, nil
}
