package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nurifarm/models"
)

// ErrAlreadyRunning is returned by Start when the ticker is already active
var ErrAlreadyRunning = errors.New("engine already running")

// TickObserver is notified after every completed tick
type TickObserver interface {
	ObserveTick(took time.Duration, s *models.Snapshot)
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRandomSource replaces the seeded source, mainly for tests that need a fixed draw sequence
func WithRandomSource(rng RandomSource) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithClock sets the time source used for scheduled ticks and seeding
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithObserver registers a tick observer such as the metrics collector
func WithObserver(o TickObserver) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// Engine owns the working farm state and produces one snapshot per tick
type Engine struct {
	cfg      Config
	crops    []models.Crop
	rng      RandomSource
	logger   *zap.Logger
	clock    func() time.Time
	observer TickObserver
	runID    string

	mu        sync.Mutex
	seq       uint64
	houses    []houseState
	equipment models.Equipment
	publisher *Publisher

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds the topology and equipment and freezes the initial snapshot
func New(cfg Config, crops []models.Crop, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    cfg,
		crops:  crops,
		logger: zap.NewNop(),
		clock:  time.Now,
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.rng == nil {
		seed := e.clock().UnixNano()
		if cfg.RandomSeed != nil {
			seed = *cfg.RandomSeed
		}
		e.rng = NewRandomSource(seed)
		e.logger.Debug("Seeded random source", zap.Int64("seed", seed))
	}

	houses, err := buildTopology(cfg, crops, e.rng)
	if err != nil {
		return nil, err
	}
	e.houses = houses
	e.equipment = buildEquipment(cfg, e.rng)
	e.publisher = NewPublisher(e.logger)

	initial := freeze(e.runID, 0, e.clock(), e.houses, e.equipment, cfg)
	e.publisher.Publish(initial)

	e.logger.Info("Farm engine created",
		zap.String("run_id", e.runID),
		zap.Int("houses", cfg.HouseCount),
		zap.Int("total_cells", cfg.TotalCells()),
		zap.Int("active_cells", initial.Farm.ActiveCells),
		zap.Int("transport_units", cfg.TransportUnits),
		zap.Duration("tick_interval", cfg.TickInterval))

	return e, nil
}

// Tick advances the farm by one step and publishes the resulting snapshot.
// Ticks never interleave: concurrent callers are serialized.
func (e *Engine) Tick(now time.Time) *models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now()
	for i := range e.houses {
		advanceHouse(&e.houses[i], e.cfg, e.rng)
	}
	advanceEquipment(&e.equipment, e.cfg, e.rng)

	e.seq++
	snap := freeze(e.runID, e.seq, now, e.houses, e.equipment, e.cfg)
	e.publisher.Publish(snap)

	took := time.Since(started)
	if e.observer != nil {
		e.observer.ObserveTick(took, snap)
	}

	e.logger.Debug("Tick completed",
		zap.Uint64("sequence", snap.Sequence),
		zap.Int("active_cells", snap.Farm.ActiveCells),
		zap.Int("alerts", len(snap.Alerts)),
		zap.Duration("took", took))

	return snap
}

// Start runs the ticker until ctx is cancelled or Stop is called
func (e *Engine) Start(ctx context.Context) error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()

	if e.done != nil {
		select {
		case <-e.done:
		default:
			return ErrAlreadyRunning
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done

	go e.run(ctx, done)
	return nil
}

func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	e.logger.Info("Farm engine started", zap.Duration("tick_interval", e.cfg.TickInterval))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Farm engine stopped", zap.Uint64("last_sequence", e.Latest().Sequence))
			return
		case <-ticker.C:
			e.Tick(e.clock())
		}
	}
}

// Stop cancels the ticker and waits for the loop to exit. It is safe to call
// when the engine is not running.
func (e *Engine) Stop() {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()

	if e.done == nil {
		return
	}
	e.cancel()
	<-e.done
	e.cancel = nil
	e.done = nil
}

// Subscribe registers fn for every future snapshot and returns its unsubscribe func
func (e *Engine) Subscribe(fn SnapshotFunc) func() {
	return e.publisher.Subscribe(fn)
}

// Latest returns the most recent snapshot; it is never nil after New succeeds
func (e *Engine) Latest() *models.Snapshot {
	return e.publisher.Latest()
}

// Config returns the configuration the engine was built with
func (e *Engine) Config() Config {
	return e.cfg
}

// Crops returns the catalog the topology draws from
func (e *Engine) Crops() []models.Crop {
	return e.crops
}

// RunID identifies this engine instance on every snapshot
func (e *Engine) RunID() string {
	return e.runID
}
