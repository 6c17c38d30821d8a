package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"nurifarm/models"
)

var (
	mqttBroker  = flag.String("broker", "localhost:1883", "MQTT broker address (host:port)")
	mqttUser    = flag.String("user", "", "MQTT username")
	mqttPass    = flag.String("pass", "", "MQTT password")
	topicPrefix = flag.String("prefix", "nurifarm/houses", "Telemetry topic prefix")
	house       = flag.String("house", "+", "House id to follow, + for all")
	verbose     = flag.Bool("v", false, "Log every message")
)

// houseStats keeps a running view of the telemetry seen per house
type houseStats struct {
	mu       sync.Mutex
	messages int
	latest   map[int]models.HouseTelemetry
}

func (s *houseStats) record(t models.HouseTelemetry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages++
	s.latest[t.HouseID] = t
}

func (s *houseStats) summary(logger *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.latest))
	for id := range s.latest {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		t := s.latest[id]
		logger.Info("House status",
			zap.Int("house_id", t.HouseID),
			zap.Uint64("sequence", t.Sequence),
			zap.Float64("temperature", t.Temperature),
			zap.Float64("co2", t.CO2),
			zap.Int("active_cells", t.ActiveCells),
			zap.Int("total_cells", t.TotalCells),
			zap.String("hoist_status", t.HoistStatus),
			zap.Int("active_alerts", t.ActiveAlerts))
	}
}

func main() {
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	topic := fmt.Sprintf("%s/%s", *topicPrefix, *house)
	logger.Info("Telemetry watcher started",
		zap.String("mqtt_broker", *mqttBroker),
		zap.String("topic", topic))
	logger.Info("Press Ctrl+C to stop gracefully")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", *mqttBroker))
	opts.SetClientID(fmt.Sprintf("telemetrywatch-%d", os.Getpid()))
	opts.SetUsername(*mqttUser)
	opts.SetPassword(*mqttPass)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)

	stats := &houseStats{latest: make(map[int]models.HouseTelemetry)}
	handler := func(client mqtt.Client, msg mqtt.Message) {
		var t models.HouseTelemetry
		if err := json.Unmarshal(msg.Payload(), &t); err != nil {
			logger.Warn("Invalid telemetry payload", zap.String("topic", msg.Topic()), zap.Error(err))
			return
		}
		stats.record(t)
		if *verbose {
			logger.Debug("Telemetry received",
				zap.String("topic", msg.Topic()),
				zap.Uint64("sequence", t.Sequence),
				zap.Float64("temperature", t.Temperature),
				zap.Int("active_alerts", t.ActiveAlerts))
		}
	}

	// Subscribe again after every reconnect
	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("Connected to MQTT broker", zap.String("broker", *mqttBroker))
		if token := client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
			logger.Error("Failed to subscribe", zap.String("topic", topic), zap.Error(token.Error()))
		}
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Error("MQTT connection lost", zap.Error(err))
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		logger.Fatal("Failed to connect to MQTT broker", zap.Error(token.Error()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping watcher")
		cancel()
	}()

	statsTicker := time.NewTicker(10 * time.Second)
	defer statsTicker.Stop()
	startTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			stats.mu.Lock()
			total := stats.messages
			stats.mu.Unlock()
			logger.Info("Shutting down gracefully",
				zap.Int("total_messages", total),
				zap.Duration("total_uptime", time.Since(startTime)))
			client.Disconnect(250)
			return
		case <-statsTicker.C:
			stats.summary(logger)
		}
	}
}
