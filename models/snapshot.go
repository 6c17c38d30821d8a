package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a lookup falls outside the configured topology
var ErrNotFound = errors.New("not found")

// FarmSummary is the farm-wide rollup shown on the overview dashboards
type FarmSummary struct {
	TotalHouses       int     `json:"totalHouses"`
	TotalRacks        int     `json:"totalRacks"`
	TotalLayers       int     `json:"totalLayers"`
	TotalCells        int     `json:"totalCells"`
	ActiveCells       int     `json:"activeCells"`
	SystemHealth      float64 `json:"systemHealth"` // percent of cells active
	AvgTemperature    float64 `json:"avgTemperature"`
	AvgHumidity       float64 `json:"avgHumidity"`
	AvgCO2            float64 `json:"avgCo2"`
	AvgLight          float64 `json:"avgLight"`
	AvgPH             float64 `json:"avgPH"`
	AvgEC             float64 `json:"avgEC"`
	TotalPower        float64 `json:"totalPower"`
	TotalWaterUsage   float64 `json:"totalWaterUsage"`
	HarvestReadyCells int     `json:"harvestReadyCells"`
	ProjectedHarvest  float64 `json:"projectedHarvestKg"`
	ProjectedRevenue  float64 `json:"projectedRevenue"`
}

// Snapshot is one frozen view of the farm at a point in time.
// A snapshot is never modified after publication; the next tick supersedes it.
// Consumers must treat every slice reachable from it as read-only.
type Snapshot struct {
	RunID     string      `json:"runId"`
	Sequence  uint64      `json:"sequence"`
	Timestamp time.Time   `json:"timestamp"`
	Houses    []House     `json:"houses"`
	Equipment Equipment   `json:"equipment"`
	Alerts    []Alert     `json:"alerts"`
	Farm      FarmSummary `json:"farm"`
}

// House returns the house with the given 1-based id
func (s *Snapshot) House(houseID int) (*House, error) {
	if houseID < 1 || houseID > len(s.Houses) {
		return nil, fmt.Errorf("house %d: %w", houseID, ErrNotFound)
	}
	return &s.Houses[houseID-1], nil
}

// Rack returns a rack by house and rack id
func (s *Snapshot) Rack(houseID, rackID int) (*Rack, error) {
	house, err := s.House(houseID)
	if err != nil {
		return nil, err
	}
	if rackID < 1 || rackID > len(house.Racks) {
		return nil, fmt.Errorf("rack H%d-R%d: %w", houseID, rackID, ErrNotFound)
	}
	return &house.Racks[rackID-1], nil
}

// Layer returns a layer by house, rack and layer id
func (s *Snapshot) Layer(houseID, rackID, layerID int) (*Layer, error) {
	rack, err := s.Rack(houseID, rackID)
	if err != nil {
		return nil, err
	}
	if layerID < 1 || layerID > len(rack.Layers) {
		return nil, fmt.Errorf("layer H%d-R%d-L%d: %w", houseID, rackID, layerID, ErrNotFound)
	}
	return &rack.Layers[layerID-1], nil
}

// Cell returns the cell at the given coordinate
func (s *Snapshot) Cell(at Coordinate) (*Cell, error) {
	layer, err := s.Layer(at.House, at.Rack, at.Layer)
	if err != nil {
		return nil, err
	}
	if at.Column < 1 || at.Column > len(layer.Cells) {
		return nil, fmt.Errorf("cell %s: %w", at, ErrNotFound)
	}
	return &layer.Cells[at.Column-1], nil
}

// Hoist returns the hoist serving the given house
func (s *Snapshot) Hoist(houseID int) (*Hoist, error) {
	for i := range s.Equipment.Hoists {
		if s.Equipment.Hoists[i].House == houseID {
			return &s.Equipment.Hoists[i], nil
		}
	}
	return nil, fmt.Errorf("hoist for house %d: %w", houseID, ErrNotFound)
}
