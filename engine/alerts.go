package engine

import (
	"fmt"
	"sort"
	"time"

	"nurifarm/models"
)

// EvaluateAlerts checks the frozen houses and equipment against the thresholds.
// Alerts are derived fresh on every call: nothing carries over from a previous
// tick. The result is deduplicated by condition, ordered most severe first
// (ties keep evaluation order) and truncated to max entries.
func EvaluateAlerts(houses []models.House, eq models.Equipment, th AlertThresholds, max int, now time.Time) []models.Alert {
	var alerts []models.Alert

	for _, h := range houses {
		source := models.HouseSourceID(h.ID)

		// Check house temperature
		if h.Temperature > th.HouseTemperatureMax {
			alerts = append(alerts, models.Alert{
				Severity:  models.SeverityHigh,
				Kind:      models.KindWarning,
				Metric:    models.MetricHouseTemperature,
				SourceID:  source,
				Value:     h.Temperature,
				Threshold: th.HouseTemperatureMax,
				Timestamp: now,
				Message:   fmt.Sprintf("%s temperature %.1f°C exceeds %.1f°C", h.Name, h.Temperature, th.HouseTemperatureMax),
			})
		}

		// Check house CO2
		if h.CO2 < th.HouseCO2Min {
			alerts = append(alerts, models.Alert{
				Severity:  models.SeverityMedium,
				Kind:      models.KindInfo,
				Metric:    models.MetricHouseCO2,
				SourceID:  source,
				Value:     h.CO2,
				Threshold: th.HouseCO2Min,
				Timestamp: now,
				Message:   fmt.Sprintf("%s CO2 %.0f ppm is below %.0f ppm", h.Name, h.CO2, th.HouseCO2Min),
			})
		}
	}

	for _, hoist := range eq.Hoists {
		if hoist.CurrentLoad > th.HoistLoadMax {
			alerts = append(alerts, models.Alert{
				Severity:  models.SeverityMedium,
				Kind:      models.KindWarning,
				Metric:    models.MetricHoistLoad,
				SourceID:  hoist.ID,
				Value:     hoist.CurrentLoad,
				Threshold: th.HoistLoadMax,
				Timestamp: now,
				Message:   fmt.Sprintf("Hoist in House %d carrying %.1f kg, above %.1f kg", hoist.House, hoist.CurrentLoad, th.HoistLoadMax),
			})
		}
	}

	for _, u := range eq.TransportUnits {
		if u.Battery < th.BatteryMin {
			alerts = append(alerts, models.Alert{
				Severity:  models.SeverityHigh,
				Kind:      models.KindAlert,
				Metric:    models.MetricTransportBattery,
				SourceID:  u.ID,
				Value:     u.Battery,
				Threshold: th.BatteryMin,
				Timestamp: now,
				Message:   fmt.Sprintf("%s battery at %.0f%%, below %.0f%%", u.Name, u.Battery, th.BatteryMin),
			})
		}
	}

	return rankAlerts(alerts, max)
}

// rankAlerts drops repeated conditions, sorts by severity and keeps at most max
func rankAlerts(alerts []models.Alert, max int) []models.Alert {
	seen := make(map[string]struct{}, len(alerts))
	out := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if _, dup := seen[a.Key()]; dup {
			continue
		}
		seen[a.Key()] = struct{}{}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() > out[j].Severity.Rank()
	})

	if max >= 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
