package models

// Range is an inclusive [Min, Max] band
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies inside the band
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Crop is static reference data for a cultivated variety
type Crop struct {
	ID            int     `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	NameEn        string  `json:"nameEn" yaml:"name_en"`
	Temperature   Range   `json:"temperature" yaml:"temperature"`
	Humidity      Range   `json:"humidity" yaml:"humidity"`
	PH            Range   `json:"pH" yaml:"ph"`
	EC            Range   `json:"EC" yaml:"ec"`
	Light         Range   `json:"lux" yaml:"lux"`
	CycleDays     int     `json:"cycle" yaml:"cycle_days"`
	HarvestWeight float64 `json:"harvestWeight" yaml:"harvest_weight"` // kg per cell
	PricePerKg    float64 `json:"pricePerKg" yaml:"price_per_kg"`
}

// HarvestValue returns the expected revenue of one harvested cell
func (c Crop) HarvestValue() float64 {
	return c.HarvestWeight * c.PricePerKg
}
