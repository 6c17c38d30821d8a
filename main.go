package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"nurifarm/api"
	"nurifarm/catalog"
	"nurifarm/config"
	"nurifarm/engine"
	"nurifarm/log"
	"nurifarm/metrics"
	"nurifarm/models"
	"nurifarm/services"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run wires the simulator and blocks until a signal or a fatal server error.
// Deferred closes run before main decides the exit code.
func run() error {
	logger := log.GetInstance()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if loc, err := time.LoadLocation(cfg.Timezone); err != nil {
		logger.Warn("Failed to load timezone, keeping system default", zap.String("timezone", cfg.Timezone), zap.Error(err))
	} else {
		time.Local = loc
	}

	crops, err := catalog.Load(cfg.CropCatalogPath)
	if err != nil {
		logger.Fatal("Failed to load crop catalog", zap.String("path", cfg.CropCatalogPath), zap.Error(err))
	}

	m := metrics.NewDefault()

	farm, err := engine.New(cfg.EngineConfig(), crops,
		engine.WithLogger(log.Named("engine")),
		engine.WithObserver(m))
	if err != nil {
		logger.Fatal("Failed to create farm engine", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	// Every sink hangs off one dispatcher so a slow broker never delays a tick
	dispatcher := services.NewDispatcher(m, log.Named("dispatcher"))

	var notifier services.StallNotifier
	if cfg.TelegramEnabled() {
		telegramService, err := services.NewTelegramService(cfg, log.Named("telegram"))
		if err != nil {
			logger.Fatal("Failed to initialize Telegram service", zap.Error(err))
		}
		notifier = telegramService
		events := dispatcher.EventQueue("telegram", 64)
		spawn(func() { telegramService.Start(ctx, events) })

		if err := telegramService.SendStartupMessage(cfg); err != nil {
			logger.Warn("Failed to send startup message", zap.Error(err))
		}
	}

	watchdog := services.NewWatchdogService(time.Duration(cfg.WatchdogTimeout)*time.Second, notifier, log.Named("watchdog"))
	heartbeats := dispatcher.SnapshotQueue("watchdog", 1)
	spawn(func() { watchdog.Start(ctx, heartbeats) })

	if cfg.MQTTEnabled() {
		telemetryService, err := services.NewTelemetryService(cfg, log.Named("mqtt"))
		if err != nil {
			logger.Fatal("Failed to initialize MQTT telemetry", zap.Error(err))
		}
		defer telemetryService.Close()
		snaps := dispatcher.SnapshotQueue("mqtt", 4)
		spawn(func() { telemetryService.Start(ctx, snaps) })
	}

	if cfg.RabbitMQEnabled() {
		rabbitService, err := services.NewRabbitMQService(cfg, log.Named("rabbitmq"))
		if err != nil {
			logger.Fatal("Failed to initialize RabbitMQ service", zap.Error(err))
		}
		defer rabbitService.Close()
		events := dispatcher.EventQueue("rabbitmq", 256)
		spawn(func() { rabbitService.Start(ctx, events) })
	}

	if cfg.WebhookEnabled() {
		webhookService := services.NewWebhookService(log.Named("webhook"), cfg.AlertWebhookURL)
		events := dispatcher.EventQueue("webhook", 64)
		spawn(func() { webhookService.Start(ctx, events) })
	}

	var mirror *services.MirrorWriter
	if cfg.FirebaseMirrorEnabled() {
		firebaseService, err := services.NewFirebaseService(ctx, cfg, log.Named("firebase"))
		if err != nil {
			logger.Fatal("Failed to initialize Firebase service", zap.Error(err))
		}
		defer firebaseService.Close()
		mirror = services.NewMirrorWriter(firebaseService, time.Duration(cfg.FirebaseMirrorInterval)*time.Second, log.Named("mirror"))
		snaps := dispatcher.SnapshotQueue("firebase", 1)
		spawn(func() { mirror.Start(ctx, snaps) })
	}

	hub := api.NewHub(farm.Latest, m, log.Named("ws"))
	spawn(func() { hub.Run(ctx) })

	unsubscribeHub := farm.Subscribe(func(s *models.Snapshot) { hub.PublishSnapshot(s) })
	unsubscribeSinks := farm.Subscribe(dispatcher.Handle)

	server := api.NewServer(farm, crops, hub, m, log.Named("http"))
	server.SetHealthReporter(watchdog)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if err := farm.Start(ctx); err != nil {
		logger.Fatal("Failed to start farm engine", zap.Error(err))
	}

	logger.Info("NuriFarm simulator started",
		zap.String("run_id", farm.RunID()),
		zap.Int("houses", cfg.HouseCount),
		zap.Int("racks_per_house", cfg.RacksPerHouse),
		zap.Int("layers_per_rack", cfg.LayersPerRack),
		zap.Int("cells_per_layer", cfg.CellsPerLayer),
		zap.Int("tick_interval_ms", cfg.TickIntervalMs),
		zap.Bool("mqtt", cfg.MQTTEnabled()),
		zap.Bool("rabbitmq", cfg.RabbitMQEnabled()),
		zap.Bool("firebase", cfg.FirebaseMirrorEnabled()),
		zap.Bool("telegram", cfg.TelegramEnabled()),
		zap.Bool("webhook", cfg.WebhookEnabled()),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, stopping services")
	case runErr = <-serverErr:
		logger.Error("HTTP server failed, stopping services", zap.Error(runErr))
	}

	// Stop ticking before the sinks go away so nothing publishes into closed queues
	farm.Stop()
	unsubscribeSinks()
	unsubscribeHub()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	cancel()
	if mirror != nil && !mirror.WaitForShutdown(5*time.Second) {
		logger.Warn("Report mirror did not finish its final write")
	}
	wg.Wait()
	dispatcher.Close()

	logger.Info("NuriFarm simulator stopped")
	return runErr
}
