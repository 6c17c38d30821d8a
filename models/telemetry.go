package models

import (
	"fmt"
	"time"
)

// HouseTelemetry is the per-house message published to the broker on every tick
type HouseTelemetry struct {
	RunID     string    `json:"run_id"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	HouseID   int       `json:"house_id"`
	Name      string    `json:"name"`

	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	CO2         float64 `json:"co2"`
	Power       float64 `json:"power"`
	WaterUsage  float64 `json:"water_usage"`

	ActiveCells  int     `json:"active_cells"`
	TotalCells   int     `json:"total_cells"`
	AvgCellTemp  float64 `json:"avg_cell_temperature"`
	AvgCellHum   float64 `json:"avg_cell_humidity"`
	AvgHealth    float64 `json:"avg_health"`
	MovingRacks  int     `json:"moving_racks"`
	HoistStatus  string  `json:"hoist_status,omitempty"`
	HoistLoadKg  float64 `json:"hoist_load_kg"`
	ActiveAlerts int     `json:"active_alerts"`
}

// NewHouseTelemetry flattens one house of a snapshot
func NewHouseTelemetry(s *Snapshot, h *House) HouseTelemetry {
	t := HouseTelemetry{
		RunID:       s.RunID,
		Sequence:    s.Sequence,
		Timestamp:   s.Timestamp,
		HouseID:     h.ID,
		Name:        h.Name,
		Temperature: h.Temperature,
		Humidity:    h.Humidity,
		CO2:         h.CO2,
		Power:       h.Power,
		WaterUsage:  h.WaterUsage,
		ActiveCells: h.ActiveCells,
		TotalCells:  h.TotalCells,
		AvgCellTemp: h.AvgTemperature,
		AvgCellHum:  h.AvgHumidity,
		AvgHealth:   h.AvgHealth,
	}
	for _, r := range h.Racks {
		if r.IsMoving {
			t.MovingRacks++
		}
	}
	if hoist, err := s.Hoist(h.ID); err == nil {
		t.HoistStatus = string(hoist.Status)
		t.HoistLoadKg = hoist.CurrentLoad
	}
	source := HouseSourceID(h.ID)
	for _, a := range s.Alerts {
		if a.SourceID == source {
			t.ActiveAlerts++
		}
	}
	return t
}

// HouseSourceID is the alert source id of a house
func HouseSourceID(id int) string {
	return fmt.Sprintf("house-%d", id)
}
