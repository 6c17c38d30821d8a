package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"nurifarm/metrics"
	"nurifarm/models"
)

// SnapshotSource yields the latest frozen farm snapshot
type SnapshotSource interface {
	Latest() *models.Snapshot
}

// HealthReporter reports tick loop liveness
type HealthReporter interface {
	Health() models.EngineHealth
}

// Server serves read-only views of the latest snapshot
type Server struct {
	source  SnapshotSource
	crops   []models.Crop
	hub     *Hub
	metrics *metrics.Metrics
	health  HealthReporter
	logger  *zap.Logger
}

// NewServer wires the handlers. hub and m may be nil.
func NewServer(source SnapshotSource, crops []models.Crop, hub *Hub, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{source: source, crops: crops, hub: hub, metrics: m, logger: logger}
}

// SetHealthReporter makes /health report stalls detected by h
func (s *Server) SetHealthReporter(h HealthReporter) {
	s.health = h
}

// Handler builds the full HTTP handler: routes, metrics, CORS, access log and panic recovery
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/health", s.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", s.snapshot).Methods(http.MethodGet)
	api.HandleFunc("/farm", s.farm).Methods(http.MethodGet)
	api.HandleFunc("/houses", s.houses).Methods(http.MethodGet)
	api.HandleFunc("/houses/{house}", s.house).Methods(http.MethodGet)
	api.HandleFunc("/houses/{house}/hoist", s.hoist).Methods(http.MethodGet)
	api.HandleFunc("/houses/{house}/racks/{rack}", s.rack).Methods(http.MethodGet)
	api.HandleFunc("/houses/{house}/racks/{rack}/layers/{layer}", s.layer).Methods(http.MethodGet)
	api.HandleFunc("/houses/{house}/racks/{rack}/layers/{layer}/cells/{cell}", s.cell).Methods(http.MethodGet)
	api.HandleFunc("/equipment", s.equipment).Methods(http.MethodGet)
	api.HandleFunc("/alerts", s.alerts).Methods(http.MethodGet)
	api.HandleFunc("/crops", s.cropList).Methods(http.MethodGet)

	if s.hub != nil {
		r.HandleFunc("/ws", s.hub.ServeWs).Methods(http.MethodGet)
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{s.logger}))

	return recovery(handlers.CustomLoggingHandler(io.Discard, cors(r), s.accessLog))
}

// instrument records request metrics per route template. The websocket
// route is left unwrapped so the connection can still be hijacked.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		if route == "/ws" || s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		s.metrics.WrapHandler(route, next).ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Debug("HTTP request",
		zap.String("method", p.Request.Method),
		zap.String("path", p.URL.Path),
		zap.Int("status", p.StatusCode),
		zap.Int("size", p.Size),
		zap.String("remote", p.Request.RemoteAddr))
}

type recoveryLogger struct {
	logger *zap.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("HTTP handler panic", zap.String("panic", fmt.Sprint(v...)))
}

// latest fetches the current snapshot or answers 503
func (s *Server) latest(w http.ResponseWriter) (*models.Snapshot, bool) {
	snap := s.source.Latest()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot published yet")
		return nil, false
	}
	return snap, true
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Latest()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "starting"})
		return
	}
	body := map[string]any{
		"status":    "ok",
		"runId":     snap.RunID,
		"sequence":  snap.Sequence,
		"timestamp": snap.Timestamp,
	}
	if s.health != nil {
		h := s.health.Health()
		body["engine"] = h
		if h.Status == models.EngineStalled {
			body["status"] = "stalled"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.latest(w); ok {
		writeJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) farm(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.latest(w); ok {
		writeJSON(w, http.StatusOK, snap.Farm)
	}
}

// houseSummary is a house without its rack tree
type houseSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	models.Ambient
	models.Stats
	Racks int `json:"racks"`
}

func (s *Server) houses(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.latest(w)
	if !ok {
		return
	}
	out := make([]houseSummary, len(snap.Houses))
	for i, h := range snap.Houses {
		out[i] = houseSummary{ID: h.ID, Name: h.Name, Ambient: h.Ambient, Stats: h.Stats, Racks: len(h.Racks)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) house(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathInts(w, r, "house")
	if !ok {
		return
	}
	snap, ok := s.latest(w)
	if !ok {
		return
	}
	house, err := snap.House(ids[0])
	respond(w, house, err)
}

func (s *Server) hoist(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathInts(w, r, "house")
	if !ok {
		return
	}
	snap, ok := s.latest(w)
	if !ok {
		return
	}
	hoist, err := snap.Hoist(ids[0])
	respond(w, hoist, err)
}

func (s *Server) rack(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathInts(w, r, "house", "rack")
	if !ok {
		return
	}
	snap, ok := s.latest(w)
	if !ok {
		return
	}
	rack, err := snap.Rack(ids[0], ids[1])
	respond(w, rack, err)
}

func (s *Server) layer(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathInts(w, r, "house", "rack", "layer")
	if !ok {
		return
	}
	snap, ok := s.latest(w)
	if !ok {
		return
	}
	layer, err := snap.Layer(ids[0], ids[1], ids[2])
	respond(w, layer, err)
}

func (s *Server) cell(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathInts(w, r, "house", "rack", "layer", "cell")
	if !ok {
		return
	}
	snap, ok := s.latest(w)
	if !ok {
		return
	}
	cell, err := snap.Cell(models.Coordinate{House: ids[0], Rack: ids[1], Layer: ids[2], Column: ids[3]})
	respond(w, cell, err)
}

func (s *Server) equipment(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.latest(w); ok {
		writeJSON(w, http.StatusOK, snap.Equipment)
	}
}

func (s *Server) alerts(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.latest(w)
	if !ok {
		return
	}
	alerts := snap.Alerts
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) cropList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.crops)
}

// pathInts parses the named route variables as positive integers
func pathInts(w http.ResponseWriter, r *http.Request, names ...string) ([]int, bool) {
	vars := mux.Vars(r)
	out := make([]int, len(names))
	for i, name := range names {
		v, err := strconv.Atoi(vars[name])
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s id %q", name, vars[name]))
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func respond(w http.ResponseWriter, v any, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
