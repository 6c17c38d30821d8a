package engine

import (
	"fmt"

	"nurifarm/models"
)

// initialActiveShare is the probability that a transport unit starts in service rather than on the charger
const initialActiveShare = 0.9

func buildEquipment(cfg Config, rng RandomSource) models.Equipment {
	hoists := make([]models.Hoist, cfg.HouseCount)
	for i := range hoists {
		hoists[i] = models.Hoist{
			ID:       fmt.Sprintf("hoist-%d", i+1),
			House:    i + 1,
			Status:   models.HoistIdle,
			Position: randomHoistPosition(cfg, rng),
		}
	}

	units := make([]models.TransportUnit, cfg.TransportUnits)
	for i := range units {
		u := models.TransportUnit{
			ID:           fmt.Sprintf("avg-%d", i+1),
			Name:         fmt.Sprintf("AVG-%d", i+1),
			Status:       models.TransportCharging,
			Battery:      uniform(rng, 40, 100),
			CurrentHouse: pick(rng, cfg.HouseCount) + 1,
		}
		if chance(rng, initialActiveShare) {
			u.Status = models.TransportActive
			u.Speed = uniform(rng, 0, cfg.Transport.MaxSpeed)
		}
		units[i] = u
	}

	return models.Equipment{Hoists: hoists, TransportUnits: units}
}

func randomHoistPosition(cfg Config, rng RandomSource) models.HoistPosition {
	return models.HoistPosition{
		Rack:   pick(rng, cfg.RacksPerHouse) + 1,
		Layer:  pick(rng, cfg.LayersPerRack) + 1,
		Column: pick(rng, cfg.CellsPerLayer) + 1,
	}
}

// stepHoist redraws the duty state of a hoist. A hoist works on a tick with
// probability HoistWorkProbability; load and position are only drawn while
// it works, and an idle hoist keeps its last position with zero load.
func stepHoist(h *models.Hoist, cfg Config, rng RandomSource) {
	if !chance(rng, cfg.HoistWorkProbability) {
		h.Status = models.HoistIdle
		h.CurrentLoad = 0
		return
	}

	h.Status = models.HoistWorking
	h.CurrentLoad = uniform(rng, 0, cfg.HoistMaxLoad)
	h.Position = randomHoistPosition(cfg, rng)
	if chance(rng, cfg.HoistLiftChance) {
		h.TodayLifts++
	}
}

// stepTransport runs the hysteresis charge controller for one unit. The
// battery moves first, then the status is re-evaluated against the two
// asymmetric thresholds.
func stepTransport(u *models.TransportUnit, cfg Config, rng RandomSource) {
	p := cfg.Transport

	switch u.Status {
	case models.TransportCharging:
		u.Battery = clamp(u.Battery+p.Charge, 0, 100)
		if u.Battery > p.ResumeAbove {
			u.Status = models.TransportActive
		}
	default:
		u.Battery = clamp(u.Battery-p.Drain, 0, 100)
		if u.Battery < p.ChargeBelow {
			u.Status = models.TransportCharging
		}
	}

	if u.Status == models.TransportCharging {
		u.Speed = 0
		return
	}

	u.CurrentHouse = pick(rng, cfg.HouseCount) + 1
	u.Speed = uniform(rng, 0, p.MaxSpeed)
	if chance(rng, p.TripChance) {
		u.TodayTrips++
	}
}

// advanceEquipment steps every hoist and transport unit in place
func advanceEquipment(eq *models.Equipment, cfg Config, rng RandomSource) {
	for i := range eq.Hoists {
		stepHoist(&eq.Hoists[i], cfg, rng)
	}
	for i := range eq.TransportUnits {
		stepTransport(&eq.TransportUnits[i], cfg, rng)
	}
}
