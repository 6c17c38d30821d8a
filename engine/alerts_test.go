package engine

import (
	"testing"
	"time"

	"nurifarm/models"
)

func TestEvaluateAlerts(t *testing.T) {
	th := DefaultConfig().Thresholds
	now := time.Unix(1700000000, 0)

	calm := models.Ambient{Temperature: 22, CO2: 1100}
	tests := []struct {
		name    string
		houses  []models.House
		eq      models.Equipment
		max     int
		metrics []models.AlertMetric
	}{
		{
			name:   "nothing fires",
			houses: []models.House{{ID: 1, Name: "House 1", Ambient: calm}},
			eq: models.Equipment{
				Hoists:         []models.Hoist{{ID: "hoist-1", CurrentLoad: 45}},
				TransportUnits: []models.TransportUnit{{ID: "avg-1", Battery: 30}},
			},
			max: 5,
		},
		{
			name:    "hot house",
			houses:  []models.House{{ID: 1, Name: "House 1", Ambient: models.Ambient{Temperature: 26.1, CO2: 1100}}},
			max:     5,
			metrics: []models.AlertMetric{models.MetricHouseTemperature},
		},
		{
			name: "severity first then generation order",
			houses: []models.House{
				{ID: 1, Name: "House 1", Ambient: models.Ambient{Temperature: 22, CO2: 850}},
				{ID: 2, Name: "House 2", Ambient: models.Ambient{Temperature: 27, CO2: 1000}},
			},
			eq: models.Equipment{
				Hoists:         []models.Hoist{{ID: "hoist-1", House: 1, CurrentLoad: 48}},
				TransportUnits: []models.TransportUnit{{ID: "avg-1", Name: "AVG-1", Battery: 12}},
			},
			max: 5,
			metrics: []models.AlertMetric{
				models.MetricHouseTemperature,
				models.MetricTransportBattery,
				models.MetricHouseCO2,
				models.MetricHoistLoad,
			},
		},
		{
			name: "truncated to max",
			houses: []models.House{
				{ID: 1, Ambient: models.Ambient{Temperature: 27, CO2: 800}},
				{ID: 2, Ambient: models.Ambient{Temperature: 27, CO2: 800}},
				{ID: 3, Ambient: models.Ambient{Temperature: 27, CO2: 800}},
			},
			max: 4,
			metrics: []models.AlertMetric{
				models.MetricHouseTemperature,
				models.MetricHouseTemperature,
				models.MetricHouseTemperature,
				models.MetricHouseCO2,
			},
		},
		{
			name:    "duplicate source reported once",
			houses:  []models.House{{ID: 1, Ambient: models.Ambient{Temperature: 27, CO2: 1000}}, {ID: 1, Ambient: models.Ambient{Temperature: 28, CO2: 1000}}},
			max:     5,
			metrics: []models.AlertMetric{models.MetricHouseTemperature},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			alerts := EvaluateAlerts(tc.houses, tc.eq, th, tc.max, now)
			if len(alerts) != len(tc.metrics) {
				t.Fatalf("alerts=%d want %d: %+v", len(alerts), len(tc.metrics), alerts)
			}
			for i, a := range alerts {
				if a.Metric != tc.metrics[i] {
					t.Fatalf("alert %d metric=%s want %s", i, a.Metric, tc.metrics[i])
				}
				if !a.Timestamp.Equal(now) {
					t.Fatalf("alert %d timestamp=%v want %v", i, a.Timestamp, now)
				}
			}
		})
	}
}

func TestAlertSeverities(t *testing.T) {
	th := DefaultConfig().Thresholds
	houses := []models.House{{ID: 3, Name: "House 3", Ambient: models.Ambient{Temperature: 27, CO2: 850}}}
	eq := models.Equipment{
		Hoists:         []models.Hoist{{ID: "hoist-3", House: 3, CurrentLoad: 49}},
		TransportUnits: []models.TransportUnit{{ID: "avg-2", Name: "AVG-2", Battery: 20}},
	}

	want := map[models.AlertMetric]struct {
		severity models.Severity
		kind     models.AlertKind
		source   string
	}{
		models.MetricHouseTemperature: {models.SeverityHigh, models.KindWarning, "house-3"},
		models.MetricHouseCO2:         {models.SeverityMedium, models.KindInfo, "house-3"},
		models.MetricHoistLoad:        {models.SeverityMedium, models.KindWarning, "hoist-3"},
		models.MetricTransportBattery: {models.SeverityHigh, models.KindAlert, "avg-2"},
	}

	alerts := EvaluateAlerts(houses, eq, th, 10, time.Now())
	if len(alerts) != len(want) {
		t.Fatalf("alerts=%d want %d", len(alerts), len(want))
	}
	for _, a := range alerts {
		w := want[a.Metric]
		if a.Severity != w.severity || a.Kind != w.kind || a.SourceID != w.source {
			t.Fatalf("%s got %s/%s/%s want %s/%s/%s", a.Metric, a.Severity, a.Kind, a.SourceID, w.severity, w.kind, w.source)
		}
		if a.Message == "" {
			t.Fatalf("%s has no message", a.Metric)
		}
	}
}
