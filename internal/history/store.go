package history

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/greentravel/greentravel_core/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MaxListLimit caps how many records a single history query returns
const MaxListLimit = 200

// DBTX is the subset of pgxpool.Pool the store needs
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store persists travel records in PostgreSQL
type Store struct {
	db  DBTX
	now func() time.Time
}

// NewStore creates a history store
func NewStore(db DBTX) *Store {
	return &Store{db: db, now: time.Now}
}

// Trip describes the request a recommendation was made for
type Trip struct {
	UserID             string
	Source             string
	Destination        string
	DistanceKM         float64
	Passengers         int
	SelectedTravelType string
}

// NewRecord builds a record for the best-ranked evaluation of a trip
func NewRecord(trip Trip, best models.ModeEvaluation, savedKG float64) *models.TravelRecord {
	passengers := trip.Passengers
	if passengers < 1 {
		passengers = 1
	}
	return &models.TravelRecord{
		ID:                   uuid.New(),
		UserID:               strings.TrimSpace(trip.UserID),
		Source:               trip.Source,
		Destination:          trip.Destination,
		DistanceKM:           trip.DistanceKM,
		PassengerCount:       passengers,
		SelectedTravelType:   trip.SelectedTravelType,
		RecommendedTransport: best.Transport,
		CO2EstimatedKG:       best.EmissionKG,
		CO2SavedKG:           savedKG,
	}
}

// Save inserts a record. A zero ID or CreatedAt is filled in.
func (s *Store) Save(ctx context.Context, rec *models.TravelRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO travel_record (
			id, user_id, source, destination, distance_km, passenger_count,
			selected_travel_type, recommended_transport, co2_estimated_kg,
			co2_saved_kg, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.UserID, rec.Source, rec.Destination, rec.DistanceKM, rec.PassengerCount,
		rec.SelectedTravelType, string(rec.RecommendedTransport), rec.CO2EstimatedKG,
		rec.CO2SavedKG, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save travel record: %w", err)
	}
	return nil
}

// ListByUser returns a user's records, newest first
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]models.TravelRecord, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, source, destination, distance_km, passenger_count,
		       selected_travel_type, recommended_transport, co2_estimated_kg,
		       co2_saved_kg, created_at
		FROM travel_record
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query travel records: %w", err)
	}
	defer rows.Close()

	records := []models.TravelRecord{}
	for rows.Next() {
		var rec models.TravelRecord
		var transport string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Source, &rec.Destination,
			&rec.DistanceKM, &rec.PassengerCount, &rec.SelectedTravelType, &transport,
			&rec.CO2EstimatedKG, &rec.CO2SavedKG, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan travel record: %w", err)
		}
		rec.RecommendedTransport = models.ModeID(transport)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read travel records: %w", err)
	}

	return records, nil
}

// Summary aggregates a user's records
type Summary struct {
	Trips             int     `json:"trips"`
	TotalCO2SavedKG   float64 `json:"total_co2_saved_kg"`
	TotalCO2EmittedKG float64 `json:"total_co2_emitted_kg"`
}

// Summarize totals the records, rounding sums to 2 decimals
func Summarize(records []models.TravelRecord) Summary {
	var saved, emitted float64
	for _, r := range records {
		saved += r.CO2SavedKG
		emitted += r.CO2EstimatedKG
	}
	return Summary{
		Trips:             len(records),
		TotalCO2SavedKG:   math.Round(saved*100) / 100,
		TotalCO2EmittedKG: math.Round(emitted*100) / 100,
	}
}
