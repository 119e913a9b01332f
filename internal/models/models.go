package models

import (
	"time"

	"github.com/google/uuid"
)

// ModeID identifies a transport mode in the catalog
type ModeID string

const (
	ModeBus    ModeID = "bus"
	ModeTrain  ModeID = "train"
	ModeEV     ModeID = "ev"
	ModeCar    ModeID = "car"
	ModeFlight ModeID = "flight"
	ModeBike   ModeID = "bike"
)

// AllModeIDs lists every known mode in catalog order
var AllModeIDs = []ModeID{ModeBus, ModeTrain, ModeEV, ModeCar, ModeFlight, ModeBike}

// Valid reports whether id names a known mode
func (id ModeID) Valid() bool {
	for _, m := range AllModeIDs {
		if m == id {
			return true
		}
	}
	return false
}

// Duration keys supplied by external routing providers
const (
	DurationDriving   = "driving"
	DurationTransit   = "transit"
	DurationBicycling = "bicycling"
	DurationWalking   = "walking"
)

// TransportMode is a static catalog entry
type TransportMode struct {
	ID             ModeID  `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	EmissionFactor float64 `json:"emission_factor_kg_per_km" yaml:"emission_factor"` // kg CO2 per km
	BaseScore      int     `json:"base_score" yaml:"base_score"`                     // 0-100
	CostPerKM      float64 `json:"cost_per_km" yaml:"cost_per_km"`
	AvgSpeedKMH    float64 `json:"avg_speed_kmh" yaml:"avg_speed_kmh"`
}

// ModeEvaluation holds the computed metrics of one candidate mode for a request
type ModeEvaluation struct {
	Transport           ModeID  `json:"transport"`
	EmissionKG          float64 `json:"emission_kg"`
	EmissionPerPersonKG float64 `json:"emission_per_person_kg"`
	GreenScore          int     `json:"green_score"`
	Cost                float64 `json:"cost"`
	CostPerPerson       float64 `json:"cost_per_person"`
	DurationSeconds     int     `json:"duration_seconds"`
	DurationText        string  `json:"duration_text"`
}

// Durations maps a duration key (driving, transit, ...) to a raw value.
// Values come from external providers and are parsed leniently.
type Durations map[string]any

// DurationsFromSeconds wraps provider output as engine input
func DurationsFromSeconds(m map[string]int) Durations {
	if m == nil {
		return nil
	}
	d := make(Durations, len(m))
	for k, v := range m {
		d[k] = v
	}
	return d
}

// DistanceInfo is what a distance provider returns for a place pair
type DistanceInfo struct {
	DistanceKM float64        `json:"distance_km"`
	Durations  map[string]int `json:"durations"`
	Source     string         `json:"source"` // google, osm or mock
}

// TravelRecord is a persisted recommendation
type TravelRecord struct {
	ID                   uuid.UUID `json:"id"`
	UserID               string    `json:"user_id,omitempty"`
	Source               string    `json:"source"`
	Destination          string    `json:"destination"`
	DistanceKM           float64   `json:"distance_km"`
	PassengerCount       int       `json:"passenger_count"`
	SelectedTravelType   string    `json:"selected_travel_type,omitempty"`
	RecommendedTransport ModeID    `json:"recommended_transport"`
	CO2EstimatedKG       float64   `json:"co2_estimated_kg"`
	CO2SavedKG           float64   `json:"co2_saved_kg"`
	CreatedAt            time.Time `json:"created_at"`
}

// Destination is a browsable travel destination
type Destination struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Country     string   `json:"country,omitempty"`
	Description string   `json:"description,omitempty"`
	CarbonScore int      `json:"carbon_score"` // lower is greener
	Transports  []string `json:"transports"`
	Tags        []string `json:"tags"`
}
