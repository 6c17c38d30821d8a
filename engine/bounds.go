package engine

import (
	"fmt"
	"math"
)

// Walk is one row of the bounds table: a bounded random walk
// v' = clamp(v + (u-0.5)*Step, Min, Max) with initial values drawn from [InitMin, InitMax).
type Walk struct {
	Step    float64
	Min     float64
	Max     float64
	InitMin float64
	InitMax float64
}

// Apply advances v by one step using the uniform draw u
func (w Walk) Apply(v, u float64) float64 {
	return clamp(v+(u-0.5)*w.Step, w.Min, w.Max)
}

// Initial draws a starting value
func (w Walk) Initial(rng RandomSource) float64 {
	return clamp(uniform(rng, w.InitMin, w.InitMax), w.Min, w.Max)
}

// BoundsTable is the single source of step sizes and physical bands used by
// every simulated entity. Cell and house rows are separate because a house
// ambient sensor moves slower than a single cell probe.
type BoundsTable struct {
	// per cell
	Temperature Walk
	Humidity    Walk
	PH          Walk
	EC          Walk
	Light       Walk
	CO2         Walk
	Health      Walk

	// GrowthIncrement caps the per tick growth draw U(0, GrowthIncrement)
	GrowthIncrement float64

	// per house
	HouseTemperature Walk
	HouseHumidity    Walk
	HouseCO2         Walk
	HousePower       Walk
	HouseWater       Walk
}

// DefaultBounds is the canonical table
var DefaultBounds = BoundsTable{
	Temperature: Walk{Step: 0.5, Min: 18, Max: 28, InitMin: 18, InitMax: 25},
	Humidity:    Walk{Step: 2, Min: 50, Max: 85, InitMin: 60, InitMax: 80},
	PH:          Walk{Step: 0.05, Min: 5.5, Max: 6.8, InitMin: 5.5, InitMax: 6.8},
	EC:          Walk{Step: 0.05, Min: 1.0, Max: 2.5, InitMin: 1.0, InitMax: 2.5},
	Light:       Walk{Step: 500, Min: 8000, Max: 20000, InitMin: 10000, InitMax: 18000},
	CO2:         Walk{Step: 50, Min: 600, Max: 1500, InitMin: 800, InitMax: 1200},
	Health:      Walk{Step: 2, Min: 70, Max: 100, InitMin: 85, InitMax: 100},

	GrowthIncrement: 0.5,

	HouseTemperature: Walk{Step: 0.3, Min: 18, Max: 28, InitMin: 20, InitMax: 25},
	HouseHumidity:    Walk{Step: 1.5, Min: 55, Max: 80, InitMin: 65, InitMax: 80},
	HouseCO2:         Walk{Step: 20, Min: 800, Max: 1500, InitMin: 1000, InitMax: 1200},
	HousePower:       Walk{Step: 5, Min: 70, Max: 150, InitMin: 80, InitMax: 120},
	HouseWater:       Walk{Step: 10, Min: 200, Max: 400, InitMin: 250, InitMax: 350},
}

func (w Walk) validate(name string) error {
	switch {
	case math.IsNaN(w.Step) || w.Step < 0:
		return fmt.Errorf("%w: %s step must not be negative, got %v", ErrInvalidConfig, name, w.Step)
	case math.IsNaN(w.Min) || math.IsNaN(w.Max) || w.Min > w.Max:
		return fmt.Errorf("%w: %s band [%v,%v] is inverted", ErrInvalidConfig, name, w.Min, w.Max)
	case math.IsNaN(w.InitMin) || math.IsNaN(w.InitMax) || w.InitMin > w.InitMax:
		return fmt.Errorf("%w: %s initial range [%v,%v] is inverted", ErrInvalidConfig, name, w.InitMin, w.InitMax)
	case w.InitMin < w.Min || w.InitMax > w.Max:
		return fmt.Errorf("%w: %s initial range [%v,%v] leaves band [%v,%v]",
			ErrInvalidConfig, name, w.InitMin, w.InitMax, w.Min, w.Max)
	}
	return nil
}

// Validate rejects rows that would let a value leave its band or growth run backwards
func (b BoundsTable) Validate() error {
	if math.IsNaN(b.GrowthIncrement) || b.GrowthIncrement < 0 {
		return fmt.Errorf("%w: growth increment must not be negative, got %v", ErrInvalidConfig, b.GrowthIncrement)
	}
	rows := []struct {
		name string
		walk Walk
	}{
		{"temperature", b.Temperature},
		{"humidity", b.Humidity},
		{"pH", b.PH},
		{"EC", b.EC},
		{"light", b.Light},
		{"CO2", b.CO2},
		{"health", b.Health},
		{"house temperature", b.HouseTemperature},
		{"house humidity", b.HouseHumidity},
		{"house CO2", b.HouseCO2},
		{"house power", b.HousePower},
		{"house water", b.HouseWater},
	}
	for _, r := range rows {
		if err := r.walk.validate(r.name); err != nil {
			return err
		}
	}
	return nil
}
