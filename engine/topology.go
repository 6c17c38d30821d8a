package engine

import (
	"fmt"

	"nurifarm/models"
)

// The working copy of the farm. It never leaves the engine; snapshots are
// deep copies with stats attached.
type layerState struct {
	id    int
	cells []models.Cell
}

type rackState struct {
	id       int
	kind     models.RackType
	position models.RackPosition
	moving   bool
	layers   []layerState
}

type houseState struct {
	id      int
	name    string
	ambient models.Ambient
	racks   []rackState
}

// rackTypeAt assigns the structural variant by position: the outer racks are
// fixed, the two after the first are mobile-a, the rest mobile-b.
func rackTypeAt(index, count int) models.RackType {
	switch {
	case index == 0 || index == count-1:
		return models.RackFixed
	case index <= 2:
		return models.RackMobileA
	default:
		return models.RackMobileB
	}
}

// buildTopology creates every house, rack, layer and cell of the farm.
// It is the only place cell identities come into existence.
func buildTopology(cfg Config, crops []models.Crop, rng RandomSource) ([]houseState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(crops) == 0 {
		return nil, fmt.Errorf("%w: crop catalog is empty", ErrInvalidConfig)
	}

	b := cfg.Bounds
	houses := make([]houseState, cfg.HouseCount)
	for h := range houses {
		racks := make([]rackState, cfg.RacksPerHouse)
		for r := range racks {
			kind := rackTypeAt(r, cfg.RacksPerHouse)
			position := models.PositionFixed
			if kind.IsMobile() {
				position = models.PositionClosed
				if chance(rng, 0.5) {
					position = models.PositionOpen
				}
			}

			layers := make([]layerState, cfg.LayersPerRack)
			for l := range layers {
				cells := make([]models.Cell, cfg.CellsPerLayer)
				for c := range cells {
					cells[c] = newCell(models.Coordinate{House: h + 1, Rack: r + 1, Layer: l + 1, Column: c + 1}, cfg, b, crops, rng)
				}
				layers[l] = layerState{id: l + 1, cells: cells}
			}

			racks[r] = rackState{id: r + 1, kind: kind, position: position, layers: layers}
		}

		houses[h] = houseState{
			id:   h + 1,
			name: fmt.Sprintf("House %d", h+1),
			ambient: models.Ambient{
				Temperature: b.HouseTemperature.Initial(rng),
				Humidity:    b.HouseHumidity.Initial(rng),
				CO2:         b.HouseCO2.Initial(rng),
				Power:       b.HousePower.Initial(rng),
				WaterUsage:  b.HouseWater.Initial(rng),
			},
			racks: racks,
		}
	}

	return houses, nil
}

func newCell(at models.Coordinate, cfg Config, b BoundsTable, crops []models.Crop, rng RandomSource) models.Cell {
	crop := crops[pick(rng, len(crops))]
	if !chance(rng, cfg.ActiveProbability) {
		return models.Cell{Coordinate: at}
	}

	return models.Cell{
		Coordinate: at,
		Planting: &models.Planting{
			Crop:        crop,
			GrowthStage: uniform(rng, 0, 100),
			Health:      b.Health.Initial(rng),
			Temperature: b.Temperature.Initial(rng),
			Humidity:    b.Humidity.Initial(rng),
			PH:          b.PH.Initial(rng),
			EC:          b.EC.Initial(rng),
			Light:       b.Light.Initial(rng),
			CO2:         b.CO2.Initial(rng),
		},
	}
}
