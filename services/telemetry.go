package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"nurifarm/config"
	"nurifarm/models"
)

// TelemetryMessage is one topic/payload pair ready for the broker
type TelemetryMessage struct {
	Topic   string
	Payload []byte
}

// TelemetryService publishes per-house telemetry to the MQTT broker every tick
type TelemetryService struct {
	client      mqtt.Client
	topicPrefix string
	logger      *zap.Logger
	published   int
}

// NewTelemetryService connects to the broker configured by MQTT_BROKER
func NewTelemetryService(cfg *config.Config, logger *zap.Logger) (*TelemetryService, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg.MQTTBroker))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetUsername(cfg.MQTTUser)
	opts.SetPassword(cfg.MQTTPass)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)

	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("Connected to MQTT broker", zap.String("broker", cfg.MQTTBroker))
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Error("MQTT connection lost", zap.Error(err))
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.MQTTBroker, token.Error())
	}

	return &TelemetryService{
		client:      client,
		topicPrefix: strings.TrimSuffix(cfg.MQTTTopicPrefix, "/"),
		logger:      logger,
	}, nil
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Start publishes every snapshot received on snapshots until ctx is done
func (t *TelemetryService) Start(ctx context.Context, snapshots <-chan *models.Snapshot) {
	t.logger.Info("Starting telemetry publisher", zap.String("topic_prefix", t.topicPrefix))

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Telemetry publisher stopped", zap.Int("published", t.published))
			return
		case snap, ok := <-snapshots:
			if !ok {
				t.logger.Info("Telemetry channel closed")
				return
			}
			t.publishSnapshot(snap)
		}
	}
}

func (t *TelemetryService) publishSnapshot(snap *models.Snapshot) {
	messages, err := BuildTelemetry(t.topicPrefix, snap)
	if err != nil {
		t.logger.Error("Failed to build telemetry", zap.Uint64("sequence", snap.Sequence), zap.Error(err))
		return
	}

	for _, msg := range messages {
		token := t.client.Publish(msg.Topic, 0, false, msg.Payload)
		if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
			t.logger.Error("Failed to publish MQTT message",
				zap.String("topic", msg.Topic),
				zap.Uint64("sequence", snap.Sequence),
				zap.Error(token.Error()))
			continue
		}
		t.published++
	}

	t.logger.Debug("Published house telemetry",
		zap.Uint64("sequence", snap.Sequence),
		zap.Int("messages", len(messages)))
}

// BuildTelemetry renders one message per house under prefix/<house id>
func BuildTelemetry(prefix string, snap *models.Snapshot) ([]TelemetryMessage, error) {
	messages := make([]TelemetryMessage, 0, len(snap.Houses))
	for i := range snap.Houses {
		h := &snap.Houses[i]
		payload, err := json.Marshal(models.NewHouseTelemetry(snap, h))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal telemetry for house %d: %w", h.ID, err)
		}
		messages = append(messages, TelemetryMessage{
			Topic:   fmt.Sprintf("%s/%d", prefix, h.ID),
			Payload: payload,
		})
	}
	return messages, nil
}

// Close disconnects from the broker
func (t *TelemetryService) Close() {
	t.logger.Info("Disconnecting from MQTT broker")
	t.client.Disconnect(250)
}
