package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"nurifarm/models"
)

// StallNotifier is told when the engine stops and resumes ticking;
// *TelegramService satisfies it
type StallNotifier interface {
	SendStallAlert(lastSeen time.Time, since time.Duration, lastSequence uint64) error
	SendRecoveryAlert(downDuration time.Duration, sequence uint64) error
}

// WatchdogService raises a stall alert when no snapshot arrives within the timeout
type WatchdogService struct {
	timeout       time.Duration
	checkInterval time.Duration
	notifier      StallNotifier
	logger        *zap.Logger
	now           func() time.Time

	mu     sync.RWMutex
	health models.EngineHealth
}

// NewWatchdogService creates the watchdog. notifier may be nil, in which
// case stalls are only logged.
func NewWatchdogService(timeout time.Duration, notifier StallNotifier, logger *zap.Logger) *WatchdogService {
	return &WatchdogService{
		timeout:       timeout,
		checkInterval: 10 * time.Second,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
		health:        models.EngineHealth{Status: models.EngineWaiting},
	}
}

// Start records every snapshot heartbeat until ctx is done
func (w *WatchdogService) Start(ctx context.Context, snapshots <-chan *models.Snapshot) {
	w.logger.Info("Starting tick watchdog", zap.Duration("timeout", w.timeout))

	go w.runTimeoutChecker(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Tick watchdog stopped")
			return
		case snap, ok := <-snapshots:
			if !ok {
				w.logger.Info("Watchdog snapshot channel closed")
				return
			}
			w.observe(snap)
		}
	}
}

// observe updates the heartbeat and reports a recovery after a stall
func (w *WatchdogService) observe(snap *models.Snapshot) {
	w.mu.Lock()
	now := w.now()
	wasStalled := w.health.Status == models.EngineStalled
	stalledAt := w.health.StalledAt

	w.health = models.EngineHealth{
		Status:       models.EngineHealthy,
		LastSeen:     now,
		LastSequence: snap.Sequence,
	}
	w.mu.Unlock()

	if !wasStalled {
		return
	}

	downDuration := now.Sub(stalledAt)
	w.logger.Info("Engine recovered from stall",
		zap.Uint64("sequence", snap.Sequence),
		zap.Duration("down_duration", downDuration))

	if w.notifier != nil {
		if err := w.notifier.SendRecoveryAlert(downDuration, snap.Sequence); err != nil {
			w.logger.Error("Failed to send recovery alert", zap.Error(err))
		}
	}
}

// runTimeoutChecker periodically checks for a stall
func (w *WatchdogService) runTimeoutChecker(ctx context.Context) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkTimeout()
		}
	}
}

// checkTimeout marks the engine stalled once the heartbeat is older than the timeout
func (w *WatchdogService) checkTimeout() {
	w.mu.Lock()
	if w.health.Status != models.EngineHealthy {
		w.mu.Unlock()
		return
	}

	now := w.now()
	since := now.Sub(w.health.LastSeen)
	if since <= w.timeout {
		w.mu.Unlock()
		return
	}

	w.health.Status = models.EngineStalled
	w.health.StalledAt = now
	lastSeen, lastSeq := w.health.LastSeen, w.health.LastSequence
	w.mu.Unlock()

	w.logger.Warn("Engine stall detected",
		zap.Time("last_seen", lastSeen),
		zap.Uint64("last_sequence", lastSeq),
		zap.Duration("since", since))

	if w.notifier != nil {
		if err := w.notifier.SendStallAlert(lastSeen, since, lastSeq); err != nil {
			w.logger.Error("Failed to send stall alert", zap.Error(err))
		}
	}
}

// Health returns the current liveness state
func (w *WatchdogService) Health() models.EngineHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.health
}
