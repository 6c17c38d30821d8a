package services

import (
	"testing"

	"nurifarm/models"
)

func alert(metric models.AlertMetric, source string, severity models.Severity) models.Alert {
	return models.Alert{Metric: metric, SourceID: source, Severity: severity}
}

func TestAlertTracker(t *testing.T) {
	hot := alert(models.MetricHouseTemperature, "house-1", models.SeverityHigh)
	lowCO2 := alert(models.MetricHouseCO2, "house-2", models.SeverityMedium)
	battery := alert(models.MetricTransportBattery, "avg-1", models.SeverityHigh)

	steps := []struct {
		alerts []models.Alert
		want   []string
	}{
		{[]models.Alert{hot}, []string{"raised " + hot.Key()}},
		{[]models.Alert{hot}, nil},
		{[]models.Alert{battery, hot, lowCO2}, []string{"raised " + battery.Key(), "raised " + lowCO2.Key()}},
		{[]models.Alert{lowCO2}, []string{"cleared " + hot.Key(), "cleared " + battery.Key()}},
		{nil, []string{"cleared " + lowCO2.Key()}},
		{[]models.Alert{hot}, []string{"raised " + hot.Key()}},
	}

	tracker := NewAlertTracker()
	for i, step := range steps {
		snap := &models.Snapshot{Sequence: uint64(i + 1), Alerts: step.alerts}
		events := tracker.Observe(snap)

		var got []string
		for _, ev := range events {
			got = append(got, string(ev.Transition)+" "+ev.Alert.Key())
			if ev.Sequence != snap.Sequence {
				t.Fatalf("step %d: event sequence=%d want %d", i, ev.Sequence, snap.Sequence)
			}
		}
		if len(got) != len(step.want) {
			t.Fatalf("step %d: events=%v want %v", i, got, step.want)
		}
		for j := range got {
			if got[j] != step.want[j] {
				t.Fatalf("step %d: events=%v want %v", i, got, step.want)
			}
		}
		if tracker.Active() != len(step.alerts) {
			t.Fatalf("step %d: active=%d want %d", i, tracker.Active(), len(step.alerts))
		}
	}
}
