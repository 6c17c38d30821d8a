package engine

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidConfig is returned when the engine refuses to build a degenerate farm
var ErrInvalidConfig = errors.New("invalid engine config")

// TransportParams drives the transport unit charge controller
type TransportParams struct {
	Drain       float64 // battery percent lost per tick while active
	Charge      float64 // battery percent gained per tick while charging
	ChargeBelow float64 // enter charging below this level
	ResumeAbove float64 // leave charging above this level
	MaxSpeed    float64 // m/s
	TripChance  float64 // per tick probability of completing a trip while active
}

// AlertThresholds are the trip points of the alert engine
type AlertThresholds struct {
	HouseTemperatureMax float64
	HouseCO2Min         float64
	HoistLoadMax        float64
	BatteryMin          float64
}

// Config parameterizes every engine behavior
type Config struct {
	HouseCount    int
	RacksPerHouse int
	LayersPerRack int
	CellsPerLayer int
	TickInterval  time.Duration
	RandomSeed    *int64 // nil seeds from the wall clock

	TransportUnits int
	MaxAlerts      int

	ActiveProbability    float64
	HoistWorkProbability float64
	HoistMaxLoad         float64
	HoistLiftChance      float64
	RackMoveProbability  float64

	Bounds     BoundsTable
	Transport  TransportParams
	Thresholds AlertThresholds
}

// DefaultConfig returns the five house layout of the reference farm
func DefaultConfig() Config {
	return Config{
		HouseCount:    5,
		RacksPerHouse: 6,
		LayersPerRack: 4,
		CellsPerLayer: 28,
		TickInterval:  5 * time.Second,

		TransportUnits: 3,
		MaxAlerts:      5,

		ActiveProbability:    0.98,
		HoistWorkProbability: 0.2,
		HoistMaxLoad:         50,
		HoistLiftChance:      0.3,
		RackMoveProbability:  0.02,

		Bounds: DefaultBounds,
		Transport: TransportParams{
			Drain:       0.5,
			Charge:      2,
			ChargeBelow: 25,
			ResumeAbove: 80,
			MaxSpeed:    1.2,
			TripChance:  0.05,
		},
		Thresholds: AlertThresholds{
			HouseTemperatureMax: 26,
			HouseCO2Min:         900,
			HoistLoadMax:        45,
			BatteryMin:          30,
		},
	}
}

// TotalCells returns the number of cells the topology will hold
func (c Config) TotalCells() int {
	return c.HouseCount * c.RacksPerHouse * c.LayersPerRack * c.CellsPerLayer
}

// Validate checks the config before any topology is built
func (c Config) Validate() error {
	counts := []struct {
		name  string
		value int
	}{
		{"house count", c.HouseCount},
		{"racks per house", c.RacksPerHouse},
		{"layers per rack", c.LayersPerRack},
		{"cells per layer", c.CellsPerLayer},
	}
	for _, n := range counts {
		if n.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, n.name, n.value)
		}
	}

	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive, got %s", ErrInvalidConfig, c.TickInterval)
	}
	if c.TransportUnits < 0 {
		return fmt.Errorf("%w: transport units must not be negative, got %d", ErrInvalidConfig, c.TransportUnits)
	}
	if c.MaxAlerts <= 0 {
		return fmt.Errorf("%w: max alerts must be positive, got %d", ErrInvalidConfig, c.MaxAlerts)
	}

	probabilities := []struct {
		name  string
		value float64
	}{
		{"active probability", c.ActiveProbability},
		{"hoist work probability", c.HoistWorkProbability},
		{"hoist lift chance", c.HoistLiftChance},
		{"rack move probability", c.RackMoveProbability},
		{"transport trip chance", c.Transport.TripChance},
	}
	for _, p := range probabilities {
		if math.IsNaN(p.value) || p.value < 0 || p.value > 1 {
			return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidConfig, p.name, p.value)
		}
	}

	if c.HoistMaxLoad < 0 {
		return fmt.Errorf("%w: hoist max load must not be negative", ErrInvalidConfig)
	}
	if c.Transport.ChargeBelow >= c.Transport.ResumeAbove {
		return fmt.Errorf("%w: charge threshold %.1f must be below resume threshold %.1f",
			ErrInvalidConfig, c.Transport.ChargeBelow, c.Transport.ResumeAbove)
	}
	if c.Transport.Drain <= 0 || c.Transport.Charge <= 0 {
		return fmt.Errorf("%w: transport drain and charge rates must be positive", ErrInvalidConfig)
	}

	return c.Bounds.Validate()
}
