package models

import "time"

// FarmReport is the compact farm view mirrored to the realtime database
type FarmReport struct {
	RunID     string           `json:"runId"`
	Sequence  uint64           `json:"sequence"`
	Timestamp time.Time        `json:"timestamp"`
	Farm      FarmSummary      `json:"farm"`
	Houses    []HouseTelemetry `json:"houses"`
	Equipment Equipment        `json:"equipment"`
	Alerts    []Alert          `json:"alerts"`
}

// NewFarmReport drops the per-cell detail of a snapshot
func NewFarmReport(s *Snapshot) *FarmReport {
	r := &FarmReport{
		RunID:     s.RunID,
		Sequence:  s.Sequence,
		Timestamp: s.Timestamp,
		Farm:      s.Farm,
		Houses:    make([]HouseTelemetry, 0, len(s.Houses)),
		Equipment: s.Equipment,
		Alerts:    s.Alerts,
	}
	for i := range s.Houses {
		r.Houses = append(r.Houses, NewHouseTelemetry(s, &s.Houses[i]))
	}
	if r.Alerts == nil {
		r.Alerts = []Alert{}
	}
	return r
}
