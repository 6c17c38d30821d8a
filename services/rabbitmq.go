package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"nurifarm/config"
)

// RabbitMQService publishes alert transitions to a topic exchange
type RabbitMQService struct {
	config    *config.Config
	logger    *zap.Logger
	mu        sync.RWMutex
	conn      *amqp.Connection
	channel   *amqp.Channel
	isClosing atomic.Bool
}

// NewRabbitMQService creates a new RabbitMQ service instance
func NewRabbitMQService(cfg *config.Config, logger *zap.Logger) (*RabbitMQService, error) {
	service := &RabbitMQService{
		config: cfg,
		logger: logger,
	}

	if err := service.connect(); err != nil {
		return nil, err
	}

	return service, nil
}

// connect dials the broker with retry and declares the alert exchange
func (r *RabbitMQService) connect() error {
	var (
		conn *amqp.Connection
		err  error
	)

	r.logger.Info("Connecting to RabbitMQ", zap.String("exchange", r.config.RabbitMQExchange))

	maxRetries := 5
	for attempt := 1; attempt <= maxRetries; attempt++ {
		conn, err = amqp.Dial(r.config.RabbitMQURL)
		if err == nil {
			break
		}

		r.logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err))

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		r.config.RabbitMQExchange, // name
		"topic",                   // type
		true,                      // durable
		false,                     // auto-deleted
		false,                     // internal
		false,                     // no-wait
		nil,                       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	r.mu.Lock()
	r.conn = conn
	r.channel = channel
	r.mu.Unlock()

	r.logger.Info("Connected to RabbitMQ successfully", zap.String("exchange", r.config.RabbitMQExchange))

	go r.handleReconnect(conn)

	return nil
}

// handleReconnect redials once the given connection drops
func (r *RabbitMQService) handleReconnect(conn *amqp.Connection) {
	closeErr := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if r.isClosing.Load() {
		r.logger.Info("RabbitMQ connection closed gracefully")
		return
	}

	r.logger.Error("RabbitMQ connection lost", zap.Error(closeErr))

	for !r.isClosing.Load() {
		r.logger.Info("Attempting to reconnect to RabbitMQ...")
		err := r.connect()
		if err == nil {
			r.logger.Info("Successfully reconnected to RabbitMQ")
			return
		}
		r.logger.Error("Failed to reconnect", zap.Error(err))
		time.Sleep(5 * time.Second)
	}
}

// Start publishes every alert event until ctx is done or events is closed
func (r *RabbitMQService) Start(ctx context.Context, events <-chan AlertEvent) {
	r.logger.Info("Starting alert publisher", zap.String("exchange", r.config.RabbitMQExchange))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping alert publisher")
			return
		case event, ok := <-events:
			if !ok {
				r.logger.Info("Alert event channel closed")
				return
			}
			if err := r.Publish(ctx, event); err != nil {
				r.logger.Error("Failed to publish alert event",
					zap.String("key", event.Alert.Key()),
					zap.String("transition", string(event.Transition)),
					zap.Error(err))
			}
		}
	}
}

// Publish sends one alert transition to the exchange
func (r *RabbitMQService) Publish(ctx context.Context, event AlertEvent) error {
	routingKey, body, err := encodeAlertEvent(event)
	if err != nil {
		return err
	}

	r.mu.RLock()
	channel := r.channel
	r.mu.RUnlock()
	if channel == nil {
		return fmt.Errorf("rabbitmq channel not open")
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = channel.PublishWithContext(pubCtx,
		r.config.RabbitMQExchange, // exchange
		routingKey,                // routing key
		false,                     // mandatory
		false,                     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.At,
			MessageId:    fmt.Sprintf("%s-%d-%s", event.RunID, event.Sequence, event.Alert.Key()),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	r.logger.Debug("Published alert event",
		zap.String("routing_key", routingKey),
		zap.String("source_id", event.Alert.SourceID))

	return nil
}

// encodeAlertEvent returns the routing key and JSON body for an event.
// Keys look like alerts.raised.house_temperature_high.
func encodeAlertEvent(event AlertEvent) (string, []byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal alert event: %w", err)
	}
	return fmt.Sprintf("alerts.%s.%s", event.Transition, event.Alert.Metric), body, nil
}

// Close gracefully closes RabbitMQ connection
func (r *RabbitMQService) Close() error {
	r.isClosing.Store(true)

	r.logger.Info("Closing RabbitMQ connection")

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.logger.Error("Error closing channel", zap.Error(err))
		}
	}

	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			r.logger.Error("Error closing connection", zap.Error(err))
			return err
		}
	}

	r.logger.Info("RabbitMQ connection closed")
	return nil
}
