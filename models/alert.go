package models

import (
	"fmt"
	"time"
)

// Severity ranks how urgently an alert needs attention
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank orders severities, higher is more severe
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AlertKind is the display category of an alert
type AlertKind string

const (
	KindWarning AlertKind = "warning"
	KindInfo    AlertKind = "info"
	KindAlert   AlertKind = "alert"
)

// AlertMetric identifies which threshold fired
type AlertMetric string

const (
	MetricHouseTemperature AlertMetric = "house_temperature_high"
	MetricHouseCO2         AlertMetric = "house_co2_low"
	MetricHoistLoad        AlertMetric = "hoist_load_high"
	MetricTransportBattery AlertMetric = "transport_battery_low"
)

// Alert is a threshold violation observed on one tick
type Alert struct {
	Severity  Severity    `json:"severity"`
	Kind      AlertKind   `json:"type"`
	Metric    AlertMetric `json:"metric"`
	Message   string      `json:"message"`
	SourceID  string      `json:"sourceId"`
	Value     float64     `json:"value"`
	Threshold float64     `json:"threshold"`
	Timestamp time.Time   `json:"timestamp"`
}

// Key identifies the condition behind an alert, independent of its value
func (a Alert) Key() string {
	return fmt.Sprintf("%s/%s", a.Metric, a.SourceID)
}

// Title returns a human friendly headline for the alert
func (a Alert) Title() string {
	switch a.Metric {
	case MetricHouseTemperature:
		return "High Temperature Alert"
	case MetricHouseCO2:
		return "CO2 Replenishment Advised"
	case MetricHoistLoad:
		return "Hoist Overload Warning"
	case MetricTransportBattery:
		return "Low Battery Alert"
	default:
		return "Farm Alert"
	}
}

// Emoji returns the icon used by notification channels
func (a Alert) Emoji() string {
	switch a.Metric {
	case MetricHouseTemperature:
		return "🔥"
	case MetricHouseCO2:
		return "🌫️"
	case MetricHoistLoad:
		return "🏗️"
	case MetricTransportBattery:
		return "🔋"
	default:
		return "⚠️"
	}
}

// SeverityColor returns the colored marker for the alert severity
func (a Alert) SeverityColor() string {
	switch a.Severity {
	case SeverityHigh:
		return "🔴"
	case SeverityMedium:
		return "🟡"
	case SeverityLow:
		return "🔵"
	default:
		return "⚪"
	}
}
