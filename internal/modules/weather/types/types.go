package types

import (
	"fmt"
	"math"
	"time"
)

// Conditions is a single reading. Nil fields were not reported upstream and are
// distinct from zero.
type Conditions struct {
	Temperature   *float64 `json:"temperature"`
	Humidity      *float64 `json:"humidity"`
	Precipitation *float64 `json:"precipitation"`
	Windspeed     *float64 `json:"windspeed"`
}

// ForecastEntry is one hourly forecast step. Time is kept as the upstream
// local timestamp string ("2006-01-02T15:04").
type ForecastEntry struct {
	Time string `json:"time"`
	Conditions
}

// Snapshot is a stored current reading for a location.
type Snapshot struct {
	LocationKey string
	FetchedAt   time.Time
	Conditions
}

// Location is a distinct crag coordinate.
type Location struct {
	Latitude  float64
	Longitude float64
}

func (l Location) Key() string {
	return LocationKey(l.Latitude, l.Longitude)
}

// LocationKey identifies a coordinate pair rounded to 4 decimals ("lat_lon").
// Cache entries, snapshots and MQTT topics share it.
func LocationKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f_%.4f", round4(lat), round4(lon))
}

func round4(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		// avoid "-0.0000"
		return 0
	}
	return r
}
