package services

import (
	"encoding/json"
	"testing"
	"time"

	"nurifarm/models"
)

func TestEncodeAlertEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	event := AlertEvent{
		Transition: AlertCleared,
		Alert:      alert(models.MetricTransportBattery, "avg-2", models.SeverityHigh),
		RunID:      "run-7",
		Sequence:   40,
		At:         at,
	}

	key, body, err := encodeAlertEvent(event)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if key != "alerts.cleared.transport_battery_low" {
		t.Fatalf("routing key=%q", key)
	}

	var got AlertEvent
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("body decode: %v", err)
	}
	if got.Transition != AlertCleared || got.Sequence != 40 || got.Alert.SourceID != "avg-2" || !got.At.Equal(at) {
		t.Fatalf("body=%+v", got)
	}
}
