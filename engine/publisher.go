package engine

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"nurifarm/models"
)

// SnapshotFunc receives every published snapshot. It runs on the ticking
// goroutine, so it must return quickly and must not call Tick or Stop.
type SnapshotFunc func(*models.Snapshot)

type subscription struct {
	id     uint64
	fn     SnapshotFunc
	active atomic.Bool
}

// Publisher hands frozen snapshots to subscribers and keeps the latest one
type Publisher struct {
	mu     sync.Mutex
	nextID uint64
	subs   []*subscription
	latest atomic.Pointer[models.Snapshot]
	logger *zap.Logger
}

// NewPublisher creates an empty publisher
func NewPublisher(logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{logger: logger}
}

// Subscribe registers fn for every future snapshot. The returned func
// unsubscribes; once it returns no new delivery to fn is started.
func (p *Publisher) Subscribe(fn SnapshotFunc) func() {
	p.mu.Lock()
	p.nextID++
	sub := &subscription{id: p.nextID, fn: fn}
	sub.active.Store(true)
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, s := range p.subs {
				if s.id == sub.id {
					p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish stores s as the latest snapshot and delivers it to subscribers in
// subscription order. A panicking subscriber is logged and skipped.
func (p *Publisher) Publish(s *models.Snapshot) {
	p.latest.Store(s)

	p.mu.Lock()
	subs := make([]*subscription, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		p.deliver(sub, s)
	}
}

func (p *Publisher) deliver(sub *subscription, s *models.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Subscriber panicked",
				zap.Uint64("subscription", sub.id),
				zap.Uint64("sequence", s.Sequence),
				zap.Any("panic", r))
		}
	}()
	sub.fn(s)
}

// Latest returns the most recently published snapshot, or nil before the first one
func (p *Publisher) Latest() *models.Snapshot {
	return p.latest.Load()
}

// Subscribers returns the number of registered subscriptions
func (p *Publisher) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}
