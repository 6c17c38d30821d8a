package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nurifarm/models"
)

// ReportStore persists farm reports; *FirebaseService satisfies it
type ReportStore interface {
	WriteReport(ctx context.Context, r *models.FarmReport) error
}

// MirrorWriter keeps only the newest snapshot and writes it to the store on
// a fixed interval, so the database sees at most one write per interval
// however fast the engine ticks
type MirrorWriter struct {
	store        ReportStore
	logger       *zap.Logger
	interval     time.Duration
	retryDelay   time.Duration
	maxRetries   int
	pending      *models.Snapshot
	lastWritten  uint64
	written      int
	shutdownChan chan bool
}

func NewMirrorWriter(store ReportStore, interval time.Duration, logger *zap.Logger) *MirrorWriter {
	return &MirrorWriter{
		store:        store,
		logger:       logger,
		interval:     interval,
		retryDelay:   time.Second,
		maxRetries:   3,
		shutdownChan: make(chan bool, 1),
	}
}

// Start consumes snapshots until ctx is done or the channel closes, then
// writes whatever is still pending
func (mw *MirrorWriter) Start(ctx context.Context, snapshots <-chan *models.Snapshot) {
	mw.logger.Info("Starting report mirror", zap.Duration("interval", mw.interval))

	flushTimer := time.NewTicker(mw.interval)
	defer flushTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			mw.logger.Info("Report mirror received shutdown signal")
			// ctx is already cancelled; give the final write its own deadline
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			mw.flush(final)
			cancel()
			mw.shutdownChan <- true
			return

		case snap, ok := <-snapshots:
			if !ok {
				mw.logger.Warn("Snapshot channel closed")
				mw.flush(ctx)
				mw.shutdownChan <- true
				return
			}
			mw.pending = snap

		case <-flushTimer.C:
			mw.flush(ctx)
		}
	}
}

// flush writes the pending snapshot if it is newer than the last write
func (mw *MirrorWriter) flush(ctx context.Context) {
	snap := mw.pending
	if snap == nil || (mw.written > 0 && snap.Sequence == mw.lastWritten) {
		return
	}
	report := models.NewFarmReport(snap)

	var err error
	for attempt := 1; attempt <= mw.maxRetries; attempt++ {
		err = mw.store.WriteReport(ctx, report)
		if err == nil {
			mw.lastWritten = snap.Sequence
			mw.written++
			mw.logger.Debug("Mirrored farm report", zap.Uint64("sequence", snap.Sequence))
			return
		}

		mw.logger.Error("Failed to mirror farm report",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", mw.maxRetries),
			zap.Uint64("sequence", snap.Sequence),
			zap.Error(err))

		if attempt < mw.maxRetries {
			select {
			case <-time.After(time.Duration(attempt) * mw.retryDelay):
			case <-ctx.Done():
				return
			}
		}
	}

	mw.logger.Error("Failed to mirror report after all retries, skipping",
		zap.Uint64("sequence", snap.Sequence),
		zap.Error(err))
}

// WaitForShutdown waits for the final write to complete
func (mw *MirrorWriter) WaitForShutdown(timeout time.Duration) bool {
	select {
	case <-mw.shutdownChan:
		return true
	case <-time.After(timeout):
		return false
	}
}
