package models

import (
	"time"
)

// EngineHealthStatus represents whether snapshots are still arriving
type EngineHealthStatus string

const (
	EngineWaiting EngineHealthStatus = "waiting"
	EngineHealthy EngineHealthStatus = "healthy"
	EngineStalled EngineHealthStatus = "stalled"
)

// EngineHealth tracks the liveness of the tick loop as seen by a subscriber
type EngineHealth struct {
	Status       EngineHealthStatus `json:"status"`
	LastSeen     time.Time          `json:"lastSeen"`
	LastSequence uint64             `json:"lastSequence"`
	StalledAt    time.Time          `json:"stalledAt,omitempty"` // when the stall was detected (if applicable)
}
