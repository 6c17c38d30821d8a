package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"nurifarm/catalog"
	"nurifarm/engine"
	"nurifarm/metrics"
	"nurifarm/models"
)

type staticSource struct {
	snap *models.Snapshot
}

func (s staticSource) Latest() *models.Snapshot { return s.snap }

func newTestEngine(t *testing.T) (*engine.Engine, []models.Crop) {
	t.Helper()
	crops, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	seed := int64(17)
	cfg := engine.DefaultConfig()
	cfg.HouseCount, cfg.RacksPerHouse, cfg.LayersPerRack, cfg.CellsPerLayer = 2, 3, 2, 4
	cfg.RandomSeed = &seed
	e, err := engine.New(cfg, crops)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	e.Tick(time.Now())
	return e, crops
}

func newTestHandler(t *testing.T) (http.Handler, *engine.Engine) {
	t.Helper()
	e, crops := newTestEngine(t)
	reg := prometheus.NewRegistry()
	srv := NewServer(e, crops, nil, metrics.New(reg, reg), nil)
	return srv.Handler(), e
}

func TestRoutes(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name   string
		path   string
		status int
		expect string
	}{
		{"health", "/health", http.StatusOK, `"status":"ok"`},
		{"snapshot", "/api/snapshot", http.StatusOK, `"houses"`},
		{"farm", "/api/farm", http.StatusOK, `"totalCells":48`},
		{"houses", "/api/houses", http.StatusOK, `"racks":3`},
		{"house", "/api/houses/2", http.StatusOK, `"name":"House 2"`},
		{"house missing", "/api/houses/9", http.StatusNotFound, "not found"},
		{"house bad id", "/api/houses/abc", http.StatusBadRequest, "invalid house id"},
		{"rack", "/api/houses/1/racks/3", http.StatusOK, `"type":"fixed"`},
		{"rack missing", "/api/houses/1/racks/4", http.StatusNotFound, "not found"},
		{"layer", "/api/houses/1/racks/2/layers/2", http.StatusOK, `"cells"`},
		{"cell", "/api/houses/1/racks/2/layers/2/cells/4", http.StatusOK, `"id":"H1-R2-L2-C4"`},
		{"cell missing", "/api/houses/1/racks/2/layers/2/cells/5", http.StatusNotFound, "not found"},
		{"hoist", "/api/houses/2/hoist", http.StatusOK, `"id":"hoist-2"`},
		{"equipment", "/api/equipment", http.StatusOK, `"transportUnits"`},
		{"alerts", "/api/alerts", http.StatusOK, `[`},
		{"crops", "/api/crops", http.StatusOK, `"nameEn":"Lettuce"`},
		{"metrics", "/metrics", http.StatusOK, "nurifarm_http_requests_total"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != tc.status {
				t.Fatalf("GET %s status=%d want %d body=%s", tc.path, rec.Code, tc.status, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.expect) {
				t.Fatalf("GET %s body missing %q:\n%s", tc.path, tc.expect, rec.Body.String())
			}
		})
	}
}

func TestNoSnapshotYet(t *testing.T) {
	srv := NewServer(staticSource{}, nil, nil, nil, nil)
	h := srv.Handler()

	for _, path := range []string{"/health", "/api/snapshot", "/api/houses/1"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("GET %s status=%d want 503", path, rec.Code)
		}
	}
}

type fixedHealth models.EngineHealth

func (f fixedHealth) Health() models.EngineHealth { return models.EngineHealth(f) }

func TestHealthReportsStall(t *testing.T) {
	srv := NewServer(staticSource{snap: &models.Snapshot{Sequence: 4}}, nil, nil, nil, nil)
	srv.SetHealthReporter(fixedHealth{Status: models.EngineStalled, LastSequence: 4})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"stalled"`) {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestHealthIncludesEngineStatus(t *testing.T) {
	srv := NewServer(staticSource{snap: &models.Snapshot{Sequence: 7}}, nil, nil, nil, nil)
	srv.SetHealthReporter(fixedHealth{Status: models.EngineHealthy, LastSequence: 7})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"status":"ok"`) || !strings.Contains(body, `"engine":`) {
		t.Fatalf("body=%s", body)
	}
}

func TestCORSHeaders(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/farm", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("missing Access-Control-Allow-Origin header")
	}
}

func TestWebsocketReceivesSnapshots(t *testing.T) {
	e, crops := newTestEngine(t)
	hub := NewHub(e.Latest, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	ts := httptest.NewServer(NewServer(e, crops, hub, nil, nil).Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() uint64 {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg struct {
			Type    string          `json:"type"`
			Payload models.Snapshot `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type != MessageFarmSnapshot {
			t.Fatalf("message type=%q want %q", msg.Type, MessageFarmSnapshot)
		}
		return msg.Payload.Sequence
	}

	if seq := read(); seq != 1 {
		t.Fatalf("initial frame sequence=%d want 1", seq)
	}

	next := e.Tick(time.Now())
	if !hub.PublishSnapshot(next) {
		t.Fatalf("publish dropped")
	}
	if seq := read(); seq != next.Sequence {
		t.Fatalf("broadcast sequence=%d want %d", seq, next.Sequence)
	}
}

func TestSnapshotJSONShape(t *testing.T) {
	e, _ := newTestEngine(t)
	raw, err := json.Marshal(e.Latest())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"timestamp", "houses", "equipment", "alerts", "farm", "runId", "sequence"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("snapshot JSON missing %q", key)
		}
	}
	house := doc["houses"].([]any)[0].(map[string]any)
	for _, key := range []string{"id", "activeCells", "totalCells", "temperature", "humidity", "co2", "power", "racks"} {
		if _, ok := house[key]; !ok {
			t.Fatalf("house JSON missing %q", key)
		}
	}
}
