package engine

import (
	"math"
	"testing"

	"nurifarm/models"
)

func activeCell(col int, temp, hum, health, growth float64, crop models.Crop) models.Cell {
	return models.Cell{
		Coordinate: models.Coordinate{House: 1, Rack: 1, Layer: 1, Column: col},
		Planting: &models.Planting{
			Crop:        crop,
			GrowthStage: growth,
			Health:      health,
			Temperature: temp,
			Humidity:    hum,
		},
	}
}

func emptyCell(col int) models.Cell {
	return models.Cell{Coordinate: models.Coordinate{House: 1, Rack: 1, Layer: 1, Column: col}}
}

func TestRollupLayerZeroActive(t *testing.T) {
	tests := []struct {
		name  string
		cells []models.Cell
		total int
	}{
		{"no cells", nil, 0},
		{"all empty", []models.Cell{emptyCell(1), emptyCell(2), emptyCell(3)}, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := RollupLayer(tc.cells)
			if s.ActiveCells != 0 || s.TotalCells != tc.total {
				t.Fatalf("counts=%d/%d want 0/%d", s.ActiveCells, s.TotalCells, tc.total)
			}
			for name, v := range map[string]float64{"temperature": s.AvgTemperature, "humidity": s.AvgHumidity, "health": s.AvgHealth} {
				if v != 0 || math.IsNaN(v) {
					t.Fatalf("avg %s=%v want 0", name, v)
				}
			}
		})
	}
}

func TestRollupLayerSkipsInactive(t *testing.T) {
	cells := []models.Cell{
		activeCell(1, 20, 60, 90, 10, models.Crop{}),
		emptyCell(2),
		activeCell(3, 24, 70, 80, 10, models.Crop{}),
	}
	s := RollupLayer(cells)
	if s.ActiveCells != 2 || s.TotalCells != 3 {
		t.Fatalf("counts=%d/%d want 2/3", s.ActiveCells, s.TotalCells)
	}
	if s.AvgTemperature != 22 || s.AvgHumidity != 65 || s.AvgHealth != 85 {
		t.Fatalf("averages=%v/%v/%v want 22/65/85", s.AvgTemperature, s.AvgHumidity, s.AvgHealth)
	}
}

func TestRollupRackWeightsByCell(t *testing.T) {
	sparse := []models.Cell{activeCell(1, 20, 60, 90, 0, models.Crop{}), emptyCell(2), emptyCell(3)}
	dense := []models.Cell{
		activeCell(1, 24, 60, 90, 0, models.Crop{}),
		activeCell(2, 24, 60, 90, 0, models.Crop{}),
		activeCell(3, 24, 60, 90, 0, models.Crop{}),
	}
	layers := []models.Layer{
		{ID: 1, Cells: sparse, Stats: RollupLayer(sparse)},
		{ID: 2, Cells: dense, Stats: RollupLayer(dense)},
	}

	rack := RollupRack(layers)
	if rack.ActiveCells != 4 || rack.TotalCells != 6 {
		t.Fatalf("counts=%d/%d want 4/6", rack.ActiveCells, rack.TotalCells)
	}
	if rack.AvgTemperature != 23 {
		t.Fatalf("avg temperature=%v want 23 (cell weighted)", rack.AvgTemperature)
	}

	house := RollupHouse([]models.Rack{{ID: 1, Layers: layers}, {ID: 2}})
	if house != rack {
		t.Fatalf("house stats=%+v want %+v", house, rack)
	}
}

func TestSummarizeFarm(t *testing.T) {
	lettuce := models.Crop{Name: "Lettuce", HarvestWeight: 0.25, PricePerKg: 8000}
	cells := []models.Cell{
		activeCell(1, 20, 60, 90, 96, lettuce),
		activeCell(2, 22, 70, 90, 40, lettuce),
		emptyCell(3),
		emptyCell(4),
	}
	houses := []models.House{{
		ID:      1,
		Ambient: models.Ambient{Power: 100, WaterUsage: 300},
		Racks:   []models.Rack{{ID: 1, Layers: []models.Layer{{ID: 1, Cells: cells}}}},
	}, {
		ID:      2,
		Ambient: models.Ambient{Power: 50, WaterUsage: 200},
	}}

	s := SummarizeFarm(houses)
	if s.TotalHouses != 2 || s.TotalRacks != 1 || s.TotalLayers != 1 || s.TotalCells != 4 {
		t.Fatalf("totals=%d/%d/%d/%d want 2/1/1/4", s.TotalHouses, s.TotalRacks, s.TotalLayers, s.TotalCells)
	}
	if s.ActiveCells != 2 || s.SystemHealth != 50 {
		t.Fatalf("active=%d health=%v want 2/50", s.ActiveCells, s.SystemHealth)
	}
	if s.AvgTemperature != 21 || s.AvgHumidity != 65 {
		t.Fatalf("averages=%v/%v want 21/65", s.AvgTemperature, s.AvgHumidity)
	}
	if s.TotalPower != 150 || s.TotalWaterUsage != 500 {
		t.Fatalf("power/water=%v/%v want 150/500", s.TotalPower, s.TotalWaterUsage)
	}
	if s.HarvestReadyCells != 1 || s.ProjectedHarvest != 0.25 || s.ProjectedRevenue != 2000 {
		t.Fatalf("harvest=%d/%v/%v want 1/0.25/2000", s.HarvestReadyCells, s.ProjectedHarvest, s.ProjectedRevenue)
	}

	empty := SummarizeFarm(nil)
	if empty.SystemHealth != 0 || empty.AvgCO2 != 0 {
		t.Fatalf("empty farm summary=%+v want zeros", empty)
	}
}
