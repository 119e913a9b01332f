package recommend

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/greentravel/greentravel_core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modeIDs(evals []models.ModeEvaluation) []models.ModeID {
	ids := make([]models.ModeID, len(evals))
	for i, e := range evals {
		ids[i] = e.Transport
	}
	return ids
}

func TestCandidates(t *testing.T) {
	engine := NewEngine(nil)

	tests := []struct {
		name     string
		distance float64
		expected []models.ModeID
	}{
		{"short haul", 50, []models.ModeID{models.ModeBike, models.ModeBus, models.ModeTrain, models.ModeCar, models.ModeEV}},
		{"short haul upper bound", 100, []models.ModeID{models.ModeBike, models.ModeBus, models.ModeTrain, models.ModeCar, models.ModeEV}},
		{"medium haul", 100.5, []models.ModeID{models.ModeTrain, models.ModeEV, models.ModeBus, models.ModeCar, models.ModeFlight}},
		{"medium haul upper bound", 300, []models.ModeID{models.ModeTrain, models.ModeEV, models.ModeBus, models.ModeCar, models.ModeFlight}},
		{"long haul", 300.01, []models.ModeID{models.ModeFlight, models.ModeTrain, models.ModeEV, models.ModeCar}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.Candidates(tt.distance))
		})
	}
}

func TestCandidatesSkipsModesMissingFromCatalog(t *testing.T) {
	catalog, err := NewCatalog([]models.TransportMode{
		{ID: models.ModeTrain, Name: "Train", EmissionFactor: 0.041, BaseScore: 85, CostPerKM: 3, AvgSpeedKMH: 80},
	})
	require.NoError(t, err)

	engine := NewEngine(catalog)
	assert.Equal(t, []models.ModeID{models.ModeTrain}, engine.Candidates(50))
	assert.Equal(t, []models.ModeID{models.ModeTrain}, engine.Candidates(5000))
}

func TestRecommendShortTrip(t *testing.T) {
	engine := NewEngine(nil)

	results := engine.Recommend(50, nil, 1)
	require.Len(t, results, 5)

	assert.Equal(t, []models.ModeID{
		models.ModeBike, models.ModeBus, models.ModeTrain, models.ModeEV, models.ModeCar,
	}, modeIDs(results))

	bike := results[0]
	assert.Equal(t, 100, bike.GreenScore)
	assert.Equal(t, 4.0, bike.EmissionKG)
	assert.Equal(t, 4.0, bike.EmissionPerPersonKG)
	assert.Equal(t, 125.0, bike.Cost)

	// bus is boosted to 100 too but emits more, so it ranks second
	bus := results[1]
	assert.Equal(t, 100, bus.GreenScore)
	assert.Equal(t, 5.25, bus.EmissionKG)

	best, ok := engine.Best(50, nil, 1)
	require.True(t, ok)
	assert.Equal(t, models.ModeBike, best.Transport)
	assert.Equal(t, 100, best.GreenScore)
	assert.Equal(t, 4.0, best.EmissionKG)
}

func TestRecommendRegionalTripWithPassengers(t *testing.T) {
	engine := NewEngine(nil)

	results := engine.Recommend(500, nil, 2)
	assert.Equal(t, []models.ModeID{
		models.ModeTrain, models.ModeEV, models.ModeCar, models.ModeFlight,
	}, modeIDs(results))

	train := results[0]
	assert.Equal(t, 90, train.GreenScore)
	assert.Equal(t, 20.5, train.EmissionKG)
	assert.Equal(t, 10.25, train.EmissionPerPersonKG)
	assert.Equal(t, 1500.0, train.Cost)
	assert.Equal(t, 750.0, train.CostPerPerson)
	assert.Equal(t, 22500, train.DurationSeconds)
	assert.Equal(t, "6h 15m", train.DurationText)

	assert.Equal(t, 85, results[1].GreenScore)
	assert.Equal(t, 45, results[2].GreenScore)
	assert.Equal(t, 30, results[3].GreenScore)
}

func TestExternalDurations(t *testing.T) {
	engine := NewEngine(nil)

	t.Run("transit value used verbatim", func(t *testing.T) {
		results := engine.Recommend(100, models.Durations{"transit": 5000}, 1)
		for _, r := range results {
			if r.Transport == models.ModeTrain {
				assert.Equal(t, 5000, r.DurationSeconds)
				assert.Equal(t, "1h 23m", r.DurationText)
				return
			}
		}
		t.Fatal("train missing from results")
	})

	t.Run("flight ignores ground durations", func(t *testing.T) {
		results := engine.Recommend(1000, models.Durations{"driving": 100, "transit": 200}, 1)
		require.Len(t, results, 4)
		byMode := map[models.ModeID]models.ModeEvaluation{}
		for _, r := range results {
			byMode[r.Transport] = r
		}
		assert.Equal(t, 4500, byMode[models.ModeFlight].DurationSeconds)
		assert.Equal(t, "1h 15m", byMode[models.ModeFlight].DurationText)
		assert.Equal(t, 100, byMode[models.ModeCar].DurationSeconds)
		assert.Equal(t, 200, byMode[models.ModeTrain].DurationSeconds)
	})

	t.Run("string values are parsed", func(t *testing.T) {
		results := engine.Recommend(20, models.Durations{"bicycling": " 3600 "}, 1)
		assert.Equal(t, models.ModeBike, results[0].Transport)
		assert.Equal(t, 3600, results[0].DurationSeconds)
	})

	t.Run("malformed values fall back to speed estimate", func(t *testing.T) {
		durations := models.Durations{
			"driving":   "soon",
			"transit":   -5,
			"bicycling": []int{1},
		}
		results := engine.Recommend(20, durations, 1)
		byMode := map[models.ModeID]models.ModeEvaluation{}
		for _, r := range results {
			byMode[r.Transport] = r
		}
		assert.Equal(t, 1800, byMode[models.ModeCar].DurationSeconds)  // 20 km at 40 km/h
		assert.Equal(t, 1440, byMode[models.ModeBus].DurationSeconds)  // 20 km at 50 km/h
		assert.Equal(t, 4800, byMode[models.ModeBike].DurationSeconds) // 20 km at 15 km/h
	})
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
		ok   bool
	}{
		{"int", 90, 90, true},
		{"int8", int8(12), 12, true},
		{"uint16", uint16(600), 600, true},
		{"uint64", uint64(3600), 3600, true},
		{"float32", float32(120.7), 120, true},
		{"float64", 5000.0, 5000, true},
		{"json number", json.Number("42"), 42, true},
		{"upper bound", int64(math.MaxInt32), math.MaxInt32, true},
		{"negative", -1, 0, false},
		{"int64 above bound", int64(math.MaxInt32) + 1, 0, false},
		{"uint64 huge", uint64(math.MaxUint64), 0, false},
		{"float above int64", 1e19, 0, false},
		{"float above bound", 3e9, 0, false},
		{"negative float", -0.5, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"string huge", "99999999999999999999", 0, false},
		{"string", " 7 ", 7, true},
		{"slice", []int{1}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseSeconds(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("oversized float falls back to speed estimate", func(t *testing.T) {
		results := NewEngine(nil).Recommend(20, models.Durations{"driving": 1e19}, 1)
		for _, r := range results {
			if r.Transport == models.ModeCar {
				assert.Equal(t, 1800, r.DurationSeconds)
				return
			}
		}
		t.Fatal("car missing from results")
	})
}

func TestSpeedEstimates(t *testing.T) {
	engine := NewEngine(nil)
	catalog := engine.Catalog()

	tests := []struct {
		name     string
		mode     models.ModeID
		distance float64
		expected int
	}{
		{"city car", models.ModeCar, 10, 900},
		{"city ev", models.ModeEV, 10, 900},
		{"city train", models.ModeTrain, 10, 720},
		{"city bike", models.ModeBike, 10, 2400},
		{"highway car", models.ModeCar, 120, 7200},
		{"highway bike uses catalog speed", models.ModeBike, 50, 3600},
		{"short flight still uses flight speed", models.ModeFlight, 40, 180},
		{"rounded to nearest second", models.ModeTrain, 100.001, 4500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, ok := catalog.Get(tt.mode)
			require.True(t, ok)
			eval := engine.Evaluate(mode, tt.distance, nil, 1)
			assert.Equal(t, tt.expected, eval.DurationSeconds)
		})
	}
}

func TestZeroSpeedIsGuarded(t *testing.T) {
	catalog, err := NewCatalog([]models.TransportMode{
		{ID: models.ModeFlight, Name: "Flight", EmissionFactor: 0.255, BaseScore: 30, CostPerKM: 20, AvgSpeedKMH: 0},
	})
	require.NoError(t, err)

	engine := NewEngine(catalog)
	results := engine.Recommend(1000, nil, 1)
	require.Len(t, results, 1)
	assert.GreaterOrEqual(t, results[0].DurationSeconds, 0)
}

func TestRecommendInvalidDistance(t *testing.T) {
	engine := NewEngine(nil)

	for _, d := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		results := engine.Recommend(d, nil, 1)
		assert.NotNil(t, results)
		assert.Empty(t, results)

		_, ok := engine.Best(d, nil, 1)
		assert.False(t, ok)
	}
}

func TestRankingInvariants(t *testing.T) {
	engine := NewEngine(nil)
	distances := []float64{0.5, 12, 49.9, 50, 99, 100, 150, 299.9, 300, 450, 699, 700, 1500, 12000}

	for _, d := range distances {
		results := engine.Recommend(d, nil, 3)
		require.NotEmpty(t, results, "distance %v", d)

		for _, r := range results {
			assert.GreaterOrEqual(t, r.GreenScore, 0)
			assert.LessOrEqual(t, r.GreenScore, 100)
			assert.GreaterOrEqual(t, r.EmissionKG, 0.0)
			assert.GreaterOrEqual(t, r.Cost, 0.0)
			assert.GreaterOrEqual(t, r.DurationSeconds, 0)
		}

		for i := 1; i < len(results); i++ {
			a, b := results[i-1], results[i]
			ordered := a.GreenScore > b.GreenScore ||
				(a.GreenScore == b.GreenScore && a.EmissionKG <= b.EmissionKG)
			assert.True(t, ordered, "distance %v: %s before %s", d, a.Transport, b.Transport)
		}
	}
}

func TestRecommendIsIdempotent(t *testing.T) {
	engine := NewEngine(nil)
	durations := models.Durations{"driving": 4000, "transit": "5200"}

	first := engine.Recommend(240, durations, 2)
	second := engine.Recommend(240, durations, 2)
	assert.Equal(t, first, second)
}

func TestRecommendConcurrentCallers(t *testing.T) {
	engine := NewEngine(nil)
	want := engine.Recommend(480, nil, 4)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, engine.Recommend(480, nil, 4))
		}()
	}
	wg.Wait()
}

func TestPerPersonValues(t *testing.T) {
	engine := NewEngine(nil)
	mode, _ := engine.Catalog().Get(models.ModeCar)

	for _, passengers := range []int{-3, 0, 1, 2, 3, 7, 20} {
		eval := engine.Evaluate(mode, 333, nil, passengers)
		divisor := float64(passengers)
		if passengers < 1 {
			divisor = 1
		}
		assert.Equal(t, round2(eval.Cost/divisor), eval.CostPerPerson, "passengers=%d", passengers)
		assert.Equal(t, round2(eval.EmissionKG/divisor), eval.EmissionPerPersonKG, "passengers=%d", passengers)
	}
}

func TestCO2SavedVsFlight(t *testing.T) {
	engine := NewEngine(nil)

	t.Run("train against flight", func(t *testing.T) {
		best, ok := engine.Best(500, nil, 1)
		require.True(t, ok)
		assert.Equal(t, 107.0, engine.CO2SavedVsFlight(best, 500))
	})

	t.Run("flight itself saves nothing", func(t *testing.T) {
		flight := models.ModeEvaluation{Transport: models.ModeFlight, EmissionKG: 255}
		assert.Equal(t, 0.0, engine.CO2SavedVsFlight(flight, 1000))
	})

	t.Run("never negative", func(t *testing.T) {
		dirty := models.ModeEvaluation{Transport: models.ModeCar, EmissionKG: 9999}
		assert.Equal(t, 0.0, engine.CO2SavedVsFlight(dirty, 10))
	})

	t.Run("all distances", func(t *testing.T) {
		for _, d := range []float64{1, 50, 250, 650, 5000} {
			for _, r := range engine.Recommend(d, nil, 1) {
				assert.GreaterOrEqual(t, engine.CO2SavedVsFlight(r, d), 0.0)
			}
		}
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "0m"},
		{59, "0m"},
		{60, "1m"},
		{3599, "59m"},
		{3600, "1h 0m"},
		{5000, "1h 23m"},
		{90061, "25h 1m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDuration(tt.seconds))
	}
}
