package recommend

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/greentravel/greentravel_core/internal/models"
)

const (
	shortHaulMaxKM  = 100.0
	mediumHaulMaxKM = 300.0
	regionalMaxKM   = 700.0
	cityMaxKM       = 50.0

	minSpeedKMH = 1e-6
)

// City speeds used for short trips when no external duration is known (km/h)
var citySpeedKMH = map[models.ModeID]float64{
	models.ModeCar:   40,
	models.ModeEV:    40,
	models.ModeBus:   50,
	models.ModeTrain: 50,
	models.ModeBike:  15,
}

// preferredDuration maps a mode to the external duration key it should use
var preferredDuration = map[models.ModeID]string{
	models.ModeCar:   models.DurationDriving,
	models.ModeEV:    models.DurationDriving,
	models.ModeBus:   models.DurationTransit,
	models.ModeTrain: models.DurationTransit,
	models.ModeBike:  models.DurationBicycling,
}

// Engine computes ranked mode evaluations for a trip.
// It holds only the read-only catalog and is safe for concurrent use.
type Engine struct {
	catalog *Catalog
}

// NewEngine creates an engine over catalog (nil means the default catalog)
func NewEngine(catalog *Catalog) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Engine{catalog: catalog}
}

// Catalog returns the engine's catalog
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Candidates returns the modes considered for a distance bracket.
// Modes missing from the catalog are skipped.
func (e *Engine) Candidates(distanceKM float64) []models.ModeID {
	var bracket []models.ModeID
	switch {
	case distanceKM <= shortHaulMaxKM:
		bracket = []models.ModeID{models.ModeBike, models.ModeBus, models.ModeTrain, models.ModeCar, models.ModeEV}
	case distanceKM <= mediumHaulMaxKM:
		bracket = []models.ModeID{models.ModeTrain, models.ModeEV, models.ModeBus, models.ModeCar, models.ModeFlight}
	default:
		bracket = []models.ModeID{models.ModeFlight, models.ModeTrain, models.ModeEV, models.ModeCar}
	}

	out := bracket[:0]
	for _, id := range bracket {
		if _, ok := e.catalog.Get(id); ok {
			out = append(out, id)
		}
	}
	return out
}

// Recommend evaluates every candidate mode and returns them ranked by
// green score (highest first), ties broken by lowest emission.
// A non-positive or non-finite distance yields an empty list.
func (e *Engine) Recommend(distanceKM float64, durations models.Durations, passengers int) []models.ModeEvaluation {
	results := []models.ModeEvaluation{}
	if !validDistance(distanceKM) {
		return results
	}

	for _, id := range e.Candidates(distanceKM) {
		mode, _ := e.catalog.Get(id)
		results = append(results, e.Evaluate(mode, distanceKM, durations, passengers))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].GreenScore != results[j].GreenScore {
			return results[i].GreenScore > results[j].GreenScore
		}
		return results[i].EmissionKG < results[j].EmissionKG
	})
	return results
}

// Best returns the top-ranked evaluation, or false when there is none
func (e *Engine) Best(distanceKM float64, durations models.Durations, passengers int) (models.ModeEvaluation, bool) {
	ranked := e.Recommend(distanceKM, durations, passengers)
	if len(ranked) == 0 {
		return models.ModeEvaluation{}, false
	}
	return ranked[0], true
}

// Evaluate computes the metrics of a single mode
func (e *Engine) Evaluate(mode models.TransportMode, distanceKM float64, durations models.Durations, passengers int) models.ModeEvaluation {
	if passengers < 1 {
		passengers = 1
	}

	emission := round2(mode.EmissionFactor * distanceKM)
	cost := round2(mode.CostPerKM * distanceKM)
	seconds := e.durationSeconds(mode, distanceKM, durations)

	return models.ModeEvaluation{
		Transport:           mode.ID,
		EmissionKG:          emission,
		EmissionPerPersonKG: round2(emission / float64(passengers)),
		GreenScore:          adjustedScore(mode, distanceKM),
		Cost:                cost,
		CostPerPerson:       round2(cost / float64(passengers)),
		DurationSeconds:     seconds,
		DurationText:        FormatDuration(seconds),
	}
}

// CO2SavedVsFlight returns how much CO2 best saves against flying the same
// distance. Never negative.
func (e *Engine) CO2SavedVsFlight(best models.ModeEvaluation, distanceKM float64) float64 {
	flight, ok := e.catalog.Get(models.ModeFlight)
	if !ok {
		return 0
	}
	saved := round2(round2(flight.EmissionFactor*distanceKM) - best.EmissionKG)
	if saved < 0 {
		return 0
	}
	return saved
}

// adjustedScore applies the distance suitability bonus and clamps to 0-100
func adjustedScore(mode models.TransportMode, distanceKM float64) int {
	score := mode.BaseScore
	switch {
	case distanceKM < mediumHaulMaxKM && (mode.ID == models.ModeBus || mode.ID == models.ModeBike):
		score += 10
	case distanceKM >= mediumHaulMaxKM && distanceKM < regionalMaxKM && (mode.ID == models.ModeTrain || mode.ID == models.ModeEV):
		score += 5
	}
	return clamp(score, 0, 100)
}

func (e *Engine) durationSeconds(mode models.TransportMode, distanceKM float64, durations models.Durations) int {
	if key, ok := preferredDuration[mode.ID]; ok {
		if raw, present := durations[key]; present {
			if secs, ok := parseSeconds(raw); ok {
				return secs
			}
		}
	}

	speed := mode.AvgSpeedKMH
	if mode.ID != models.ModeFlight && distanceKM < cityMaxKM {
		if city, ok := citySpeedKMH[mode.ID]; ok {
			speed = city
		}
	}
	return int(math.Round(distanceKM / math.Max(minSpeedKMH, speed) * 3600))
}

// maxDurationSeconds caps provider durations; anything larger is treated as
// garbage rather than risking a platform-dependent conversion
const maxDurationSeconds = math.MaxInt32

// parseSeconds accepts integer-like provider values. Anything else is
// reported as unusable so the caller falls back to a speed estimate.
func parseSeconds(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return boundSeconds(int64(t))
	case int8:
		return boundSeconds(int64(t))
	case int16:
		return boundSeconds(int64(t))
	case int32:
		return boundSeconds(int64(t))
	case int64:
		return boundSeconds(t)
	case uint:
		return boundUnsigned(uint64(t))
	case uint8:
		return boundUnsigned(uint64(t))
	case uint16:
		return boundUnsigned(uint64(t))
	case uint32:
		return boundUnsigned(uint64(t))
	case uint64:
		return boundUnsigned(t)
	case float32:
		return boundFloat(float64(t))
	case float64:
		return boundFloat(t)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return boundSeconds(n)
	case fmt.Stringer:
		return parseSeconds(t.String())
	default:
		return 0, false
	}
}

func boundSeconds(n int64) (int, bool) {
	if n < 0 || n > maxDurationSeconds {
		return 0, false
	}
	return int(n), true
}

func boundUnsigned(n uint64) (int, bool) {
	if n > maxDurationSeconds {
		return 0, false
	}
	return int(n), true
}

func boundFloat(f float64) (int, bool) {
	// NaN fails both comparisons, so test the accepted range positively
	if !(f >= 0 && f <= maxDurationSeconds) {
		return 0, false
	}
	return int(f), true
}

// FormatDuration renders seconds as "1h 5m" or "42m"
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func validDistance(d float64) bool {
	return d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
