package engine

import (
	"testing"

	"nurifarm/models"
)

func TestHoistDutyCycle(t *testing.T) {
	cfg := DefaultConfig()
	h := models.Hoist{ID: "hoist-1", House: 1, Status: models.HoistIdle, Position: models.HoistPosition{Rack: 2, Layer: 2, Column: 2}}

	stepHoist(&h, cfg, &sequenceSource{values: []float64{0, 0.5, 0.1, 0.2, 0.3, 0.1}})
	if h.Status != models.HoistWorking {
		t.Fatalf("status=%s want working", h.Status)
	}
	if h.CurrentLoad < 0 || h.CurrentLoad > cfg.HoistMaxLoad {
		t.Fatalf("load=%v outside [0,%v]", h.CurrentLoad, cfg.HoistMaxLoad)
	}
	if h.CurrentLoad != 25 {
		t.Fatalf("load=%v want 25", h.CurrentLoad)
	}
	wantPos := models.HoistPosition{Rack: 1, Layer: 1, Column: 9}
	if h.Position != wantPos {
		t.Fatalf("position=%+v want %+v", h.Position, wantPos)
	}
	if h.TodayLifts != 1 {
		t.Fatalf("todayLifts=%d want 1", h.TodayLifts)
	}

	stepHoist(&h, cfg, &sequenceSource{values: []float64{0.99}})
	if h.Status != models.HoistIdle || h.CurrentLoad != 0 {
		t.Fatalf("after failed draw status=%s load=%v want idle/0", h.Status, h.CurrentLoad)
	}
	if h.Position != wantPos {
		t.Fatalf("idle hoist moved to %+v", h.Position)
	}
}

func TestTransportHysteresis(t *testing.T) {
	cfg := DefaultConfig()
	rng := NewRandomSource(21)
	u := models.TransportUnit{ID: "avg-1", Status: models.TransportActive, Battery: 24}

	stepTransport(&u, cfg, rng)
	if u.Status != models.TransportCharging || u.Battery != 23.5 {
		t.Fatalf("status=%s battery=%v want charging/23.5", u.Status, u.Battery)
	}

	steps := 0
	for u.Status == models.TransportCharging {
		if u.Battery > cfg.Transport.ResumeAbove {
			t.Fatalf("still charging at battery %v", u.Battery)
		}
		if u.Speed != 0 {
			t.Fatalf("charging unit moving at %v m/s", u.Speed)
		}
		stepTransport(&u, cfg, rng)
		steps++
		if steps > 100 {
			t.Fatalf("unit never left charging")
		}
	}
	if steps != 29 || u.Battery != 81.5 {
		t.Fatalf("left charging after %d steps at %v, want 29 steps at 81.5", steps, u.Battery)
	}

	// once active it drains down to the lower threshold without flicker
	for u.Status == models.TransportActive {
		if u.Battery < cfg.Transport.ChargeBelow {
			t.Fatalf("active below charge threshold: %v", u.Battery)
		}
		stepTransport(&u, cfg, rng)
	}
	if u.Battery >= cfg.Transport.ChargeBelow {
		t.Fatalf("entered charging at %v", u.Battery)
	}
}

func TestTransportBatteryClamp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transport.ChargeBelow = -1
	tests := []struct {
		name   string
		unit   models.TransportUnit
		want   float64
		status models.TransportStatus
	}{
		{"charging caps at 100", models.TransportUnit{Status: models.TransportCharging, Battery: 99.5}, 100, models.TransportActive},
		{"active floors at 0", models.TransportUnit{Status: models.TransportActive, Battery: 0.2}, 0, models.TransportActive},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := tc.unit
			stepTransport(&u, cfg, NewRandomSource(1))
			if u.Battery != tc.want || u.Status != tc.status {
				t.Fatalf("battery=%v status=%s want %v/%s", u.Battery, u.Status, tc.want, tc.status)
			}
		})
	}
}

func TestBuildEquipment(t *testing.T) {
	cfg := testConfig(4, 6, 4, 28, 1)
	eq := buildEquipment(cfg, NewRandomSource(1))

	if len(eq.Hoists) != 4 {
		t.Fatalf("hoists=%d want 4", len(eq.Hoists))
	}
	for i, h := range eq.Hoists {
		if h.House != i+1 || h.Status != models.HoistIdle || h.CurrentLoad != 0 {
			t.Fatalf("hoist %d=%+v want idle in house %d", i, h, i+1)
		}
	}
	if len(eq.TransportUnits) != cfg.TransportUnits {
		t.Fatalf("transport units=%d want %d", len(eq.TransportUnits), cfg.TransportUnits)
	}
	for _, u := range eq.TransportUnits {
		if u.Battery < 40 || u.Battery > 100 {
			t.Fatalf("%s battery=%v outside [40,100]", u.ID, u.Battery)
		}
		if u.CurrentHouse < 1 || u.CurrentHouse > cfg.HouseCount {
			t.Fatalf("%s house=%d outside farm", u.ID, u.CurrentHouse)
		}
	}
}
