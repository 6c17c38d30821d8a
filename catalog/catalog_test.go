package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	crops, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if len(crops) != 10 {
		t.Fatalf("len(crops)=%d want 10", len(crops))
	}

	lettuce := crops[0]
	if lettuce.NameEn != "Lettuce" || lettuce.CycleDays != 28 {
		t.Fatalf("unexpected first crop: %+v", lettuce)
	}
	if lettuce.Temperature.Min != 18 || lettuce.Temperature.Max != 23 {
		t.Fatalf("lettuce temperature range = %+v", lettuce.Temperature)
	}
	if got := lettuce.HarvestValue(); got != 0.15*12000 {
		t.Fatalf("HarvestValue()=%v want %v", got, 0.15*12000)
	}
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "empty", yaml: "crops: []"},
		{name: "missing name", yaml: "crops:\n  - id: 1\n    cycle_days: 10"},
		{name: "duplicate id", yaml: "crops:\n  - {id: 1, name: a, cycle_days: 1}\n  - {id: 1, name: b, cycle_days: 1}"},
		{name: "inverted range", yaml: "crops:\n  - {id: 1, name: a, cycle_days: 1, ph: {min: 7, max: 6}}"},
		{name: "zero cycle", yaml: "crops:\n  - {id: 1, name: a}"},
		{name: "malformed", yaml: "crops: ["},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tc.yaml)
			}
		})
	}

	if _, err := Parse([]byte("crops: []")); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("empty catalog error = %v, want ErrEmptyCatalog", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crops.yaml")
	content := "crops:\n  - id: 7\n    name: 무\n    name_en: Radish\n    cycle_days: 30\n    harvest_weight: 0.5\n    price_per_kg: 3000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	crops, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(crops) != 1 || crops[0].NameEn != "Radish" {
		t.Fatalf("unexpected crops: %+v", crops)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() on a missing file succeeded")
	}
}
