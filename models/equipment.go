package models

// HoistStatus represents the duty state of a hoist
type HoistStatus string

const (
	HoistIdle    HoistStatus = "idle"
	HoistWorking HoistStatus = "working"
)

// TransportStatus represents the state of an autonomous transport vehicle
type TransportStatus string

const (
	TransportActive   TransportStatus = "active"
	TransportCharging TransportStatus = "charging"
)

// HoistPosition is the rack/layer/column a hoist is serving
type HoistPosition struct {
	Rack   int `json:"rack"`
	Layer  int `json:"layer"`
	Column int `json:"column"`
}

// Hoist is the overhead lifting unit of a house
type Hoist struct {
	ID          string        `json:"id"`
	House       int           `json:"house"`
	Status      HoistStatus   `json:"status"`
	Position    HoistPosition `json:"position"`
	CurrentLoad float64       `json:"currentLoad"` // kg, zero while idle
	TodayLifts  int           `json:"todayLifts"`
}

// TransportUnit is an AVG moving material between houses
type TransportUnit struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Status       TransportStatus `json:"status"`
	Battery      float64         `json:"battery"` // percent
	CurrentHouse int             `json:"currentHouse"`
	Speed        float64         `json:"speed"` // m/s
	TodayTrips   int             `json:"todayTrips"`
}

// Equipment groups every simulated machine
type Equipment struct {
	Hoists         []Hoist         `json:"hoists"`
	TransportUnits []TransportUnit `json:"transportUnits"`
}
