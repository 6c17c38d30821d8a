package services

import (
	"time"

	"nurifarm/models"
)

// Transition says whether an alert condition started or ended
type Transition string

const (
	AlertRaised  Transition = "raised"
	AlertCleared Transition = "cleared"
)

// AlertEvent is an alert condition changing state between two snapshots
type AlertEvent struct {
	Transition Transition   `json:"transition"`
	Alert      models.Alert `json:"alert"`
	RunID      string       `json:"runId"`
	Sequence   uint64       `json:"sequence"`
	At         time.Time    `json:"at"`
}

// AlertTracker turns the per-tick alert lists into raised and cleared events.
// It is not safe for concurrent use; feed it from a single subscriber.
type AlertTracker struct {
	active map[string]models.Alert
	order  []string
}

func NewAlertTracker() *AlertTracker {
	return &AlertTracker{active: make(map[string]models.Alert)}
}

// Observe compares s with the previously observed snapshot. Raised events
// follow the snapshot's alert order, cleared events the order they were raised in.
func (t *AlertTracker) Observe(s *models.Snapshot) []AlertEvent {
	var events []AlertEvent

	current := make(map[string]models.Alert, len(s.Alerts))
	for _, a := range s.Alerts {
		key := a.Key()
		current[key] = a
		if _, seen := t.active[key]; !seen {
			events = append(events, AlertEvent{Transition: AlertRaised, Alert: a, RunID: s.RunID, Sequence: s.Sequence, At: s.Timestamp})
			t.order = append(t.order, key)
		}
	}

	kept := t.order[:0]
	for _, key := range t.order {
		if a, still := current[key]; still {
			t.active[key] = a
			kept = append(kept, key)
			continue
		}
		if prev, was := t.active[key]; was {
			events = append(events, AlertEvent{Transition: AlertCleared, Alert: prev, RunID: s.RunID, Sequence: s.Sequence, At: s.Timestamp})
			delete(t.active, key)
		}
	}
	t.order = kept

	return events
}

// Active returns the number of alert conditions currently raised
func (t *AlertTracker) Active() int {
	return len(t.active)
}
