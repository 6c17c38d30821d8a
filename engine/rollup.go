package engine

import (
	"nurifarm/models"
)

// tally accumulates cell readings. Every level folds over its own cells so
// that a rack or house average is weighted per cell, never a mean of means.
type tally struct {
	total  int
	active int
	temp   float64
	hum    float64
	health float64
}

func (t *tally) add(c models.Cell) {
	t.total++
	if c.Planting == nil {
		return
	}
	t.active++
	t.temp += c.Planting.Temperature
	t.hum += c.Planting.Humidity
	t.health += c.Planting.Health
}

func (t tally) stats() models.Stats {
	return models.Stats{
		ActiveCells:    t.active,
		TotalCells:     t.total,
		AvgTemperature: mean(t.temp, t.active),
		AvgHumidity:    mean(t.hum, t.active),
		AvgHealth:      mean(t.health, t.active),
	}
}

// mean divides by n, returning 0 for an empty set
func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// RollupLayer summarizes a row of cells
func RollupLayer(cells []models.Cell) models.Stats {
	var t tally
	for _, c := range cells {
		t.add(c)
	}
	return t.stats()
}

// RollupRack summarizes every cell of a rack
func RollupRack(layers []models.Layer) models.Stats {
	var t tally
	for _, l := range layers {
		for _, c := range l.Cells {
			t.add(c)
		}
	}
	return t.stats()
}

// RollupHouse summarizes every cell of a house
func RollupHouse(racks []models.Rack) models.Stats {
	var t tally
	for _, r := range racks {
		for _, l := range r.Layers {
			for _, c := range l.Cells {
				t.add(c)
			}
		}
	}
	return t.stats()
}

// harvestReadyStage is the growth stage from which a cell counts toward projected harvest
const harvestReadyStage = 95

// SummarizeFarm folds all houses into the farm overview
func SummarizeFarm(houses []models.House) models.FarmSummary {
	var (
		s                             models.FarmSummary
		temp, hum, co2, light, ph, ec float64
	)

	s.TotalHouses = len(houses)
	for _, h := range houses {
		s.TotalPower += h.Power
		s.TotalWaterUsage += h.WaterUsage
		s.TotalRacks += len(h.Racks)
		for _, r := range h.Racks {
			s.TotalLayers += len(r.Layers)
			for _, l := range r.Layers {
				for _, c := range l.Cells {
					s.TotalCells++
					p := c.Planting
					if p == nil {
						continue
					}
					s.ActiveCells++
					temp += p.Temperature
					hum += p.Humidity
					co2 += p.CO2
					light += p.Light
					ph += p.PH
					ec += p.EC
					if p.GrowthStage >= harvestReadyStage {
						s.HarvestReadyCells++
						s.ProjectedHarvest += p.Crop.HarvestWeight
						s.ProjectedRevenue += p.Crop.HarvestValue()
					}
				}
			}
		}
	}

	s.SystemHealth = mean(float64(s.ActiveCells)*100, s.TotalCells)
	s.AvgTemperature = mean(temp, s.ActiveCells)
	s.AvgHumidity = mean(hum, s.ActiveCells)
	s.AvgCO2 = mean(co2, s.ActiveCells)
	s.AvgLight = mean(light, s.ActiveCells)
	s.AvgPH = mean(ph, s.ActiveCells)
	s.AvgEC = mean(ec, s.ActiveCells)
	return s
}
