package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"nurifarm/models"
)

// WebhookService forwards high severity alert transitions to an external
// alarm endpoint, such as the on-site siren controller
type WebhookService struct {
	logger     *zap.Logger
	apiURL     string
	httpClient *http.Client
}

// WebhookPayload represents the payload sent to the alarm API
type WebhookPayload struct {
	Transition Transition   `json:"transition"`
	Alert      models.Alert `json:"alert"`
	RunID      string       `json:"run_id"`
	Sequence   uint64       `json:"sequence"`
	AlertType  string       `json:"alert_type"`
}

// NewWebhookService creates a new webhook service
func NewWebhookService(logger *zap.Logger, apiURL string) *WebhookService {
	return &WebhookService{
		logger: logger,
		apiURL: strings.TrimSuffix(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Start posts qualifying events until ctx is done
func (h *WebhookService) Start(ctx context.Context, events <-chan AlertEvent) {
	h.logger.Info("Starting alert webhook", zap.String("url", h.apiURL))

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Alert webhook stopped")
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if !shouldForward(event) {
				continue
			}
			if err := h.Send(ctx, event); err != nil {
				h.logger.Error("Failed to forward alert", zap.String("key", event.Alert.Key()), zap.Error(err))
			}
		}
	}
}

// shouldForward keeps high severity transitions only, so the alarm is both
// switched on and switched off
func shouldForward(event AlertEvent) bool {
	return event.Alert.Severity == models.SeverityHigh
}

// Send posts a single alert transition
func (h *WebhookService) Send(ctx context.Context, event AlertEvent) error {
	payload := WebhookPayload{
		Transition: event.Transition,
		Alert:      event.Alert,
		RunID:      event.RunID,
		Sequence:   event.Sequence,
		AlertType:  "farm_alert",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/farm-alert", h.apiURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "NuriFarm-Simulator/1.0")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		h.logger.Info("Alert forwarded",
			zap.String("key", event.Alert.Key()),
			zap.String("transition", string(event.Transition)),
			zap.Int("status_code", resp.StatusCode))
		return nil
	}

	h.logger.Error("Alarm API returned error",
		zap.String("key", event.Alert.Key()),
		zap.Int("status_code", resp.StatusCode),
		zap.String("status", resp.Status))
	return fmt.Errorf("alarm API error: %s", resp.Status)
}
