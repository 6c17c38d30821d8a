package models

import (
	"encoding/json"
	"fmt"
)

// RackType is the structural variant of a rack
type RackType string

const (
	RackFixed   RackType = "fixed"
	RackMobileA RackType = "mobile-a"
	RackMobileB RackType = "mobile-b"
)

// IsMobile reports whether racks of this type slide on rails
func (t RackType) IsMobile() bool {
	return t == RackMobileA || t == RackMobileB
}

// RackPosition is the rail position of a rack
type RackPosition string

const (
	PositionFixed  RackPosition = "fixed"
	PositionOpen   RackPosition = "open"
	PositionClosed RackPosition = "closed"
)

// GrowthPhase is the display bucket of a growth stage percentage
type GrowthPhase string

const (
	PhaseGermination  GrowthPhase = "germination"
	PhaseEarly        GrowthPhase = "early"
	PhaseMid          GrowthPhase = "mid"
	PhaseLate         GrowthPhase = "late"
	PhaseHarvestReady GrowthPhase = "harvest-ready"
)

// PhaseOf maps a growth stage in [0,100] to its phase
func PhaseOf(stage float64) GrowthPhase {
	switch {
	case stage >= 80:
		return PhaseHarvestReady
	case stage >= 60:
		return PhaseLate
	case stage >= 40:
		return PhaseMid
	case stage >= 20:
		return PhaseEarly
	default:
		return PhaseGermination
	}
}

// Coordinate locates a cell. All indices are 1-based.
type Coordinate struct {
	House  int `json:"house"`
	Rack   int `json:"rack"`
	Layer  int `json:"layer"`
	Column int `json:"column"`
}

// String renders the coordinate as H1-R1-L1-C1
func (c Coordinate) String() string {
	return fmt.Sprintf("H%d-R%d-L%d-C%d", c.House, c.Rack, c.Layer, c.Column)
}

// Planting is the live state of an occupied cell
type Planting struct {
	Crop        Crop    `json:"crop"`
	GrowthStage float64 `json:"growthStage"`
	Health      float64 `json:"health"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"pH"`
	EC          float64 `json:"EC"`
	Light       float64 `json:"light"`
	CO2         float64 `json:"co2"`
}

// Cell is the smallest cultivation unit. A nil Planting means the slot is
// inactive: it holds no crop, reports zero health and is left out of every average.
type Cell struct {
	Coordinate
	Planting *Planting
}

// ID returns the display identifier of the cell
func (c Cell) ID() string {
	return c.Coordinate.String()
}

// IsActive reports whether the cell is occupied
func (c Cell) IsActive() bool {
	return c.Planting != nil
}

// Health returns the cell health, zero for inactive cells
func (c Cell) Health() float64 {
	if c.Planting == nil {
		return 0
	}
	return c.Planting.Health
}

// cellJSON is the flat wire shape of a cell
type cellJSON struct {
	ID          string      `json:"id"`
	House       int         `json:"house"`
	Rack        int         `json:"rack"`
	Layer       int         `json:"layer"`
	Column      int         `json:"column"`
	Crop        *Crop       `json:"crop,omitempty"`
	Phase       GrowthPhase `json:"phase,omitempty"`
	GrowthStage float64     `json:"growthStage"`
	Health      float64     `json:"health"`
	Temperature float64     `json:"temperature"`
	Humidity    float64     `json:"humidity"`
	PH          float64     `json:"pH"`
	EC          float64     `json:"EC"`
	Light       float64     `json:"light"`
	CO2         float64     `json:"co2"`
	IsActive    bool        `json:"isActive"`
}

// MarshalJSON flattens the cell into the dashboard schema
func (c Cell) MarshalJSON() ([]byte, error) {
	out := cellJSON{
		ID:     c.ID(),
		House:  c.House,
		Rack:   c.Rack,
		Layer:  c.Layer,
		Column: c.Column,
	}
	if p := c.Planting; p != nil {
		crop := p.Crop
		out.Crop = &crop
		out.Phase = PhaseOf(p.GrowthStage)
		out.GrowthStage = p.GrowthStage
		out.Health = p.Health
		out.Temperature = p.Temperature
		out.Humidity = p.Humidity
		out.PH = p.PH
		out.EC = p.EC
		out.Light = p.Light
		out.CO2 = p.CO2
		out.IsActive = true
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a cell from the dashboard schema
func (c *Cell) UnmarshalJSON(data []byte) error {
	var in cellJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	c.Coordinate = Coordinate{House: in.House, Rack: in.Rack, Layer: in.Layer, Column: in.Column}
	c.Planting = nil
	if !in.IsActive {
		return nil
	}
	if in.Crop == nil {
		return fmt.Errorf("active cell %s has no crop", in.ID)
	}

	c.Planting = &Planting{
		Crop:        *in.Crop,
		GrowthStage: in.GrowthStage,
		Health:      in.Health,
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		PH:          in.PH,
		EC:          in.EC,
		Light:       in.Light,
		CO2:         in.CO2,
	}
	return nil
}

// Stats is the rolled-up summary of a layer, rack or house.
// Averages cover active cells only and are zero when none are active.
type Stats struct {
	ActiveCells    int     `json:"activeCells"`
	TotalCells     int     `json:"totalCells"`
	AvgTemperature float64 `json:"avgTemperature"`
	AvgHumidity    float64 `json:"avgHumidity"`
	AvgHealth      float64 `json:"avgHealth"`
}

// Layer is a horizontal tier of a rack
type Layer struct {
	ID    int    `json:"id"`
	Cells []Cell `json:"cells"`
	Stats
}

// Rack is a vertical structure of layers
type Rack struct {
	ID       int          `json:"id"`
	Type     RackType     `json:"type"`
	Position RackPosition `json:"position"`
	IsMoving bool         `json:"isMoving"`
	Layers   []Layer      `json:"layers"`
	Stats
}

// Ambient holds the house-level environment, simulated directly rather than rolled up
type Ambient struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	CO2         float64 `json:"co2"`
	Power       float64 `json:"power"`      // kW
	WaterUsage  float64 `json:"waterUsage"` // L/day
}

// House is a growing structure containing racks
type House struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Racks []Rack `json:"racks"`
	Ambient
	Stats
}
