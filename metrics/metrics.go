package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nurifarm/models"
)

const namespace = "nurifarm"

// Metrics collects engine, sink and HTTP metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	ticksTotal   prometheus.Counter
	tickDuration prometheus.Histogram
	lastSequence prometheus.Gauge
	activeCells  *prometheus.GaugeVec
	houseAmbient *prometheus.GaugeVec
	alertsActive *prometheus.GaugeVec
	transitions  *prometheus.CounterVec
	sinkDrops    *prometheus.CounterVec
	wsClients    prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in
// tests; main uses the default registry.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: gatherer,
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total simulation ticks completed.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Histogram of simulation tick durations.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		lastSequence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_sequence",
			Help:      "Sequence number of the latest published snapshot.",
		}),
		activeCells: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_cells",
			Help:      "Active cells per house.",
		}, []string{"house"}),
		houseAmbient: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "house_ambient",
			Help:      "House ambient readings by variable.",
		}, []string{"house", "variable"}),
		alertsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts_active",
			Help:      "Alerts in the latest snapshot by severity.",
		}, []string{"severity"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_transitions_total",
			Help:      "Alert raised and cleared transitions by metric.",
		}, []string{"metric", "transition"}),
		sinkDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_dropped_total",
			Help:      "Snapshots or events dropped because a sink queue was full.",
		}, []string{"sink"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected dashboard websocket clients.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.ticksTotal,
		m.tickDuration,
		m.lastSequence,
		m.activeCells,
		m.houseAmbient,
		m.alertsActive,
		m.transitions,
		m.sinkDrops,
		m.wsClients,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// NewDefault registers on the process wide default registry
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// ObserveTick records one completed tick
func (m *Metrics) ObserveTick(took time.Duration, s *models.Snapshot) {
	if m == nil || s == nil {
		return
	}
	m.ticksTotal.Inc()
	m.tickDuration.Observe(took.Seconds())
	m.lastSequence.Set(float64(s.Sequence))

	for _, h := range s.Houses {
		house := strconv.Itoa(h.ID)
		m.activeCells.WithLabelValues(house).Set(float64(h.ActiveCells))
		m.houseAmbient.WithLabelValues(house, "temperature").Set(h.Temperature)
		m.houseAmbient.WithLabelValues(house, "humidity").Set(h.Humidity)
		m.houseAmbient.WithLabelValues(house, "co2").Set(h.CO2)
		m.houseAmbient.WithLabelValues(house, "power").Set(h.Power)
		m.houseAmbient.WithLabelValues(house, "water_usage").Set(h.WaterUsage)
	}

	counts := map[models.Severity]int{
		models.SeverityHigh:   0,
		models.SeverityMedium: 0,
		models.SeverityLow:    0,
	}
	for _, a := range s.Alerts {
		counts[a.Severity]++
	}
	for severity, n := range counts {
		m.alertsActive.WithLabelValues(string(severity)).Set(float64(n))
	}
}

// AlertTransition counts a raised or cleared alert
func (m *Metrics) AlertTransition(metric models.AlertMetric, transition string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(metric), transition).Inc()
}

// SinkDropped counts an item a sink had to discard
func (m *Metrics) SinkDropped(sink string) {
	if m == nil {
		return
	}
	m.sinkDrops.WithLabelValues(sink).Inc()
}

// SetWebsocketClients reports the number of connected dashboards
func (m *Metrics) SetWebsocketClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and latency for one route
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler exposes the gathered metrics in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
