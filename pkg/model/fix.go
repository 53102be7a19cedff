package model

import (
	"math"
	"time"
)

// Fix is a single position sample in WGS84 degrees.
type Fix struct {
	Latitude  float64
	Longitude float64
	Timestamp time.Time
}

// Valid reports whether the fix carries usable coordinates.
func (f Fix) Valid() bool {
	if math.IsNaN(f.Latitude) || math.IsNaN(f.Longitude) ||
		math.IsInf(f.Latitude, 0) || math.IsInf(f.Longitude, 0) {
		return false
	}
	return f.Latitude >= -90 && f.Latitude <= 90 &&
		f.Longitude >= -180 && f.Longitude <= 180
}
