package engine

import (
	"math"

	"nurifarm/models"
)

// advancePlanting applies one tick to an occupied cell. Growth is the only
// monotonic variable; everything else walks inside its band.
func advancePlanting(p *models.Planting, b BoundsTable, rng RandomSource) {
	p.GrowthStage = math.Min(100, p.GrowthStage+rng.Float64()*b.GrowthIncrement)
	p.Temperature = b.Temperature.Apply(p.Temperature, rng.Float64())
	p.Humidity = b.Humidity.Apply(p.Humidity, rng.Float64())
	p.PH = b.PH.Apply(p.PH, rng.Float64())
	p.EC = b.EC.Apply(p.EC, rng.Float64())
	p.Light = b.Light.Apply(p.Light, rng.Float64())
	p.CO2 = b.CO2.Apply(p.CO2, rng.Float64())
	p.Health = b.Health.Apply(p.Health, rng.Float64())
}

// advanceHouse steps every active cell, the mobile racks and the ambient sensors of one house
func advanceHouse(h *houseState, cfg Config, rng RandomSource) {
	b := cfg.Bounds
	for r := range h.racks {
		rack := &h.racks[r]
		for l := range rack.layers {
			cells := rack.layers[l].cells
			for c := range cells {
				if cells[c].Planting == nil {
					continue
				}
				advancePlanting(cells[c].Planting, b, rng)
			}
		}

		if rack.kind.IsMobile() {
			rack.moving = chance(rng, cfg.RackMoveProbability)
			if rack.moving {
				if rack.position == models.PositionOpen {
					rack.position = models.PositionClosed
				} else {
					rack.position = models.PositionOpen
				}
			}
		}
	}

	h.ambient.Temperature = b.HouseTemperature.Apply(h.ambient.Temperature, rng.Float64())
	h.ambient.Humidity = b.HouseHumidity.Apply(h.ambient.Humidity, rng.Float64())
	h.ambient.CO2 = b.HouseCO2.Apply(h.ambient.CO2, rng.Float64())
	h.ambient.Power = b.HousePower.Apply(h.ambient.Power, rng.Float64())
	h.ambient.WaterUsage = b.HouseWater.Apply(h.ambient.WaterUsage, rng.Float64())
}
