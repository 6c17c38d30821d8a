package services

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"nurifarm/models"
)

type recordingNotifier struct {
	stalls     []uint64
	recoveries []time.Duration
}

func (n *recordingNotifier) SendStallAlert(_ time.Time, _ time.Duration, lastSequence uint64) error {
	n.stalls = append(n.stalls, lastSequence)
	return nil
}

func (n *recordingNotifier) SendRecoveryAlert(down time.Duration, _ uint64) error {
	n.recoveries = append(n.recoveries, down)
	return nil
}

func TestWatchdogStallAndRecovery(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	notifier := &recordingNotifier{}
	w := NewWatchdogService(30*time.Second, notifier, zap.NewNop())
	w.now = func() time.Time { return now }

	w.checkTimeout()
	if got := w.Health().Status; got != models.EngineWaiting {
		t.Fatalf("status=%s want waiting before the first snapshot", got)
	}

	w.observe(&models.Snapshot{Sequence: 1})
	now = now.Add(20 * time.Second)
	w.checkTimeout()
	if got := w.Health().Status; got != models.EngineHealthy {
		t.Fatalf("status=%s want healthy inside timeout", got)
	}

	now = now.Add(15 * time.Second)
	w.checkTimeout()
	w.checkTimeout()
	if got := w.Health().Status; got != models.EngineStalled {
		t.Fatalf("status=%s want stalled", got)
	}
	if len(notifier.stalls) != 1 || notifier.stalls[0] != 1 {
		t.Fatalf("stall alerts=%v want one for sequence 1", notifier.stalls)
	}

	now = now.Add(time.Minute)
	w.observe(&models.Snapshot{Sequence: 2})
	if got := w.Health(); got.Status != models.EngineHealthy || got.LastSequence != 2 {
		t.Fatalf("health=%+v want healthy at 2", got)
	}
	if len(notifier.recoveries) != 1 || notifier.recoveries[0] != time.Minute {
		t.Fatalf("recoveries=%v want [1m]", notifier.recoveries)
	}
}

func TestWatchdogWithoutNotifier(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	w := NewWatchdogService(time.Second, nil, zap.NewNop())
	w.now = func() time.Time { return now }

	w.observe(&models.Snapshot{Sequence: 3})
	now = now.Add(2 * time.Second)
	w.checkTimeout()
	w.observe(&models.Snapshot{Sequence: 4})

	if got := w.Health().Status; got != models.EngineHealthy {
		t.Fatalf("status=%s want healthy", got)
	}
}
