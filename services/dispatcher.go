package services

import (
	"go.uber.org/zap"

	"nurifarm/models"
)

// SinkMetrics receives drop and transition counts; *metrics.Metrics satisfies it
type SinkMetrics interface {
	SinkDropped(sink string)
	AlertTransition(metric models.AlertMetric, transition string)
}

type snapshotQueue struct {
	name string
	ch   chan *models.Snapshot
}

type eventQueue struct {
	name string
	ch   chan AlertEvent
}

// Dispatcher is the single engine subscriber for every I/O sink. It runs on
// the tick goroutine, so it only ever does non-blocking sends: a sink that
// falls behind loses items instead of stalling the simulation.
type Dispatcher struct {
	tracker   *AlertTracker
	snapshots []snapshotQueue
	events    []eventQueue
	metrics   SinkMetrics
	logger    *zap.Logger
}

func NewDispatcher(m SinkMetrics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		tracker: NewAlertTracker(),
		metrics: m,
		logger:  logger,
	}
}

// SnapshotQueue registers a sink that wants every snapshot. Register all
// sinks before subscribing the dispatcher to the engine.
func (d *Dispatcher) SnapshotQueue(name string, size int) <-chan *models.Snapshot {
	ch := make(chan *models.Snapshot, size)
	d.snapshots = append(d.snapshots, snapshotQueue{name: name, ch: ch})
	return ch
}

// EventQueue registers a sink that wants alert transitions
func (d *Dispatcher) EventQueue(name string, size int) <-chan AlertEvent {
	ch := make(chan AlertEvent, size)
	d.events = append(d.events, eventQueue{name: name, ch: ch})
	return ch
}

// Handle is the engine subscription callback
func (d *Dispatcher) Handle(s *models.Snapshot) {
	for _, q := range d.snapshots {
		select {
		case q.ch <- s:
		default:
			d.dropped(q.name, zap.Uint64("sequence", s.Sequence))
		}
	}

	for _, ev := range d.tracker.Observe(s) {
		if d.metrics != nil {
			d.metrics.AlertTransition(ev.Alert.Metric, string(ev.Transition))
		}
		d.logger.Info("Alert "+string(ev.Transition),
			zap.String("metric", string(ev.Alert.Metric)),
			zap.String("source_id", ev.Alert.SourceID),
			zap.String("severity", string(ev.Alert.Severity)),
			zap.Float64("value", ev.Alert.Value),
			zap.Uint64("sequence", ev.Sequence))

		for _, q := range d.events {
			select {
			case q.ch <- ev:
			default:
				d.dropped(q.name, zap.String("alert", ev.Alert.Key()))
			}
		}
	}
}

func (d *Dispatcher) dropped(sink string, field zap.Field) {
	if d.metrics != nil {
		d.metrics.SinkDropped(sink)
	}
	d.logger.Warn("Sink queue full, dropping item", zap.String("sink", sink), field)
}

// Close closes every queue. Call it only after unsubscribing from the engine.
func (d *Dispatcher) Close() {
	for _, q := range d.snapshots {
		close(q.ch)
	}
	for _, q := range d.events {
		close(q.ch)
	}
}
