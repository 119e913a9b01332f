package recommend

import (
	"fmt"
	"os"

	"github.com/greentravel/greentravel_core/internal/models"
	"gopkg.in/yaml.v3"
)

// defaultModes are the compiled-in catalog values
var defaultModes = []models.TransportMode{
	{ID: models.ModeBus, Name: "Bus", EmissionFactor: 0.105, BaseScore: 90, CostPerKM: 6.0, AvgSpeedKMH: 50},
	{ID: models.ModeTrain, Name: "Train", EmissionFactor: 0.041, BaseScore: 85, CostPerKM: 3.0, AvgSpeedKMH: 80},
	{ID: models.ModeEV, Name: "Electric Vehicle", EmissionFactor: 0.075, BaseScore: 80, CostPerKM: 1.5, AvgSpeedKMH: 60},
	{ID: models.ModeCar, Name: "Car (Petrol)", EmissionFactor: 0.192, BaseScore: 45, CostPerKM: 10.0, AvgSpeedKMH: 60},
	{ID: models.ModeFlight, Name: "Flight", EmissionFactor: 0.255, BaseScore: 30, CostPerKM: 20.0, AvgSpeedKMH: 800},
	{ID: models.ModeBike, Name: "Bike/Walk", EmissionFactor: 0.08, BaseScore: 100, CostPerKM: 2.5, AvgSpeedKMH: 50},
}

// Catalog is the immutable set of transport modes.
// It is built once and shared by pointer; nothing mutates it after construction.
type Catalog struct {
	modes map[models.ModeID]models.TransportMode
}

// DefaultCatalog returns the compiled-in catalog
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(defaultModes)
	return c
}

// NewCatalog validates modes and builds a catalog from them
func NewCatalog(modes []models.TransportMode) (*Catalog, error) {
	c := &Catalog{modes: make(map[models.ModeID]models.TransportMode, len(modes))}
	for _, m := range modes {
		if err := validateMode(m); err != nil {
			return nil, err
		}
		if _, dup := c.modes[m.ID]; dup {
			return nil, fmt.Errorf("duplicate mode %q", m.ID)
		}
		c.modes[m.ID] = m
	}
	return c, nil
}

// catalogFile is the on-disk shape of a catalog override
type catalogFile struct {
	Modes []modeOverride `yaml:"modes"`
}

// modeOverride carries only the fields an entry sets; nil keeps the default
type modeOverride struct {
	ID             models.ModeID `yaml:"id"`
	Name           *string       `yaml:"name"`
	EmissionFactor *float64      `yaml:"emission_factor"`
	BaseScore      *int          `yaml:"base_score"`
	CostPerKM      *float64      `yaml:"cost_per_km"`
	AvgSpeedKMH    *float64      `yaml:"avg_speed_kmh"`
}

func (o modeOverride) apply(m models.TransportMode) models.TransportMode {
	if o.Name != nil {
		m.Name = *o.Name
	}
	if o.EmissionFactor != nil {
		m.EmissionFactor = *o.EmissionFactor
	}
	if o.BaseScore != nil {
		m.BaseScore = *o.BaseScore
	}
	if o.CostPerKM != nil {
		m.CostPerKM = *o.CostPerKM
	}
	if o.AvgSpeedKMH != nil {
		m.AvgSpeedKMH = *o.AvgSpeedKMH
	}
	return m
}

// LoadCatalog reads a YAML override file. Modes missing from the file keep
// their default values, and fields missing from an entry keep the default
// for that mode. An explicit average speed must be positive.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	overrides := make(map[models.ModeID]modeOverride, len(file.Modes))
	for _, o := range file.Modes {
		if _, dup := overrides[o.ID]; dup {
			return nil, fmt.Errorf("duplicate mode %q", o.ID)
		}
		if o.AvgSpeedKMH != nil && *o.AvgSpeedKMH <= 0 {
			return nil, fmt.Errorf("mode %s: average speed must be positive", o.ID)
		}
		overrides[o.ID] = o
	}

	merged := make([]models.TransportMode, 0, len(defaultModes))
	for _, def := range defaultModes {
		o, ok := overrides[def.ID]
		if !ok {
			merged = append(merged, def)
			continue
		}
		m := o.apply(def)
		if m.Name == "" {
			m.Name = def.Name
		}
		merged = append(merged, m)
		delete(overrides, def.ID)
	}
	for id := range overrides {
		return nil, fmt.Errorf("unknown mode %q", id)
	}

	return NewCatalog(merged)
}

func validateMode(m models.TransportMode) error {
	switch {
	case !m.ID.Valid():
		return fmt.Errorf("unknown mode %q", m.ID)
	case m.BaseScore < 0 || m.BaseScore > 100:
		return fmt.Errorf("mode %s: base score %d out of range 0-100", m.ID, m.BaseScore)
	case m.EmissionFactor < 0:
		return fmt.Errorf("mode %s: negative emission factor", m.ID)
	case m.CostPerKM < 0:
		return fmt.Errorf("mode %s: negative cost per km", m.ID)
	case m.AvgSpeedKMH < 0:
		return fmt.Errorf("mode %s: negative average speed", m.ID)
	}
	return nil
}

// Get returns the mode with the given id
func (c *Catalog) Get(id models.ModeID) (models.TransportMode, bool) {
	m, ok := c.modes[id]
	return m, ok
}

// Modes returns a copy of all modes in catalog order
func (c *Catalog) Modes() []models.TransportMode {
	out := make([]models.TransportMode, 0, len(c.modes))
	for _, id := range models.AllModeIDs {
		if m, ok := c.modes[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the number of modes
func (c *Catalog) Len() int {
	return len(c.modes)
}
