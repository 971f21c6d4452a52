// Package severity maps weather readings to the coarse good/mild/bad labels used
// to colour metric badges.
package severity

import (
	"math"
	"strings"
)

type Metric string

const (
	Temperature   Metric = "temperature"
	Humidity      Metric = "humidity"
	Precipitation Metric = "precipitation"
	Windspeed     Metric = "windspeed"
)

// Metrics lists the classified metrics in display order.
var Metrics = []Metric{Temperature, Humidity, Precipitation, Windspeed}

type Label string

const (
	Good    Label = "good"
	Mild    Label = "mild"
	Bad     Label = "bad"
	Default Label = "default"
)

// BadgeClass is the CSS class for the label, e.g. "badge-good".
func (l Label) BadgeClass() string {
	return "badge-" + string(l)
}

// Classify labels a reading. A nil value or an unknown metric yields Default.
// NaN never classifies as good.
func Classify(metric Metric, value *float64) Label {
	if value == nil {
		return Default
	}
	v := *value

	switch metric {
	case Temperature:
		switch {
		case math.IsNaN(v), v < 10, v > 30:
			return Bad
		case v <= 15:
			return Mild
		case v <= 25:
			return Good
		default:
			return Mild
		}
	case Humidity:
		switch {
		case math.IsNaN(v), v > 70:
			return Bad
		case v > 50:
			return Mild
		case v < 50:
			return Good
		default:
			// exactly 50 sits between the mild and good bands
			return Default
		}
	case Precipitation:
		if v == 0 {
			return Good
		}
		return Bad
	case Windspeed:
		switch {
		case v <= 20:
			return Good
		case v < 30:
			return Mild
		default:
			return Bad
		}
	default:
		return Default
	}
}

// ParseMetric resolves a row label such as "Temperature (℃)" or "windspeed"
// from its first word, case-insensitively.
func ParseMetric(label string) (Metric, bool) {
	fields := strings.Fields(strings.ToLower(label))
	if len(fields) == 0 {
		return "", false
	}
	m := Metric(fields[0])
	for _, known := range Metrics {
		if m == known {
			return m, true
		}
	}
	return "", false
}
