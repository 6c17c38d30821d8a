package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"nurifarm/models"

	"gopkg.in/yaml.v3"
)

//go:embed crops.yaml
var defaultCatalog []byte

// ErrEmptyCatalog is returned when a catalog file lists no crops
var ErrEmptyCatalog = errors.New("crop catalog is empty")

type catalogFile struct {
	Crops []models.Crop `yaml:"crops"`
}

// Default returns the built-in crop catalog
func Default() ([]models.Crop, error) {
	return Parse(defaultCatalog)
}

// Load reads a crop catalog from a YAML file. An empty path selects the built-in catalog.
func Load(path string) ([]models.Crop, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read crop catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML crop catalog
func Parse(data []byte) ([]models.Crop, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse crop catalog: %w", err)
	}
	if len(file.Crops) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[int]bool, len(file.Crops))
	for _, crop := range file.Crops {
		if crop.Name == "" {
			return nil, fmt.Errorf("crop %d: missing name", crop.ID)
		}
		if seen[crop.ID] {
			return nil, fmt.Errorf("crop %d: duplicate id", crop.ID)
		}
		seen[crop.ID] = true

		for label, r := range map[string]models.Range{
			"temperature": crop.Temperature,
			"humidity":    crop.Humidity,
			"ph":          crop.PH,
			"ec":          crop.EC,
			"lux":         crop.Light,
		} {
			if r.Min > r.Max {
				return nil, fmt.Errorf("crop %s: %s range min %.2f exceeds max %.2f", crop.Name, label, r.Min, r.Max)
			}
		}
		if crop.CycleDays <= 0 {
			return nil, fmt.Errorf("crop %s: cycle_days must be positive", crop.Name)
		}
	}

	return file.Crops, nil
}
