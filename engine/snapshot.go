package engine

import (
	"time"

	"nurifarm/models"
)

// freezeHouses deep copies the working state into published houses and
// attaches the rollups. Nothing in the result aliases engine memory.
func freezeHouses(houses []houseState) []models.House {
	out := make([]models.House, len(houses))
	for h, hs := range houses {
		racks := make([]models.Rack, len(hs.racks))
		for r, rs := range hs.racks {
			layers := make([]models.Layer, len(rs.layers))
			for l, ls := range rs.layers {
				cells := make([]models.Cell, len(ls.cells))
				for c, cell := range ls.cells {
					cells[c] = copyCell(cell)
				}
				layers[l] = models.Layer{ID: ls.id, Cells: cells, Stats: RollupLayer(cells)}
			}
			racks[r] = models.Rack{
				ID:       rs.id,
				Type:     rs.kind,
				Position: rs.position,
				IsMoving: rs.moving,
				Layers:   layers,
				Stats:    RollupRack(layers),
			}
		}
		out[h] = models.House{
			ID:      hs.id,
			Name:    hs.name,
			Racks:   racks,
			Ambient: hs.ambient,
			Stats:   RollupHouse(racks),
		}
	}
	return out
}

func copyCell(c models.Cell) models.Cell {
	if c.Planting == nil {
		return c
	}
	p := *c.Planting
	c.Planting = &p
	return c
}

func copyEquipment(eq models.Equipment) models.Equipment {
	return models.Equipment{
		Hoists:         append([]models.Hoist(nil), eq.Hoists...),
		TransportUnits: append([]models.TransportUnit(nil), eq.TransportUnits...),
	}
}

// freeze assembles one immutable snapshot
func freeze(runID string, seq uint64, now time.Time, houses []houseState, eq models.Equipment, cfg Config) *models.Snapshot {
	frozen := freezeHouses(houses)
	equipment := copyEquipment(eq)
	return &models.Snapshot{
		RunID:     runID,
		Sequence:  seq,
		Timestamp: now,
		Houses:    frozen,
		Equipment: equipment,
		Alerts:    EvaluateAlerts(frozen, equipment, cfg.Thresholds, cfg.MaxAlerts, now),
		Farm:      SummarizeFarm(frozen),
	}
}
