package views

import (
	"strconv"
	"time"

	"cragcast/internal/modules/weather/severity"
	"cragcast/internal/modules/weather/types"
)

// HeaderLayout formats forecast column headers: day, numeric month, year and
// 24h time.
const HeaderLayout = "02/01/2006, 15:04"

const notAvailable = "N/A"

// timestamp layouts accepted for forecast entries, most common first.
var timeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

type metricRow struct {
	metric severity.Metric
	title  string
	unit   string
	value  func(types.Conditions) *float64
}

var metricRows = []metricRow{
	{severity.Temperature, "Temperature (℃)", "℃", func(c types.Conditions) *float64 { return c.Temperature }},
	{severity.Humidity, "Humidity (%)", "%", func(c types.Conditions) *float64 { return c.Humidity }},
	{severity.Precipitation, "Precipitation (mm)", " mm", func(c types.Conditions) *float64 { return c.Precipitation }},
	{severity.Windspeed, "Windspeed (km/h)", " km/h", func(c types.Conditions) *float64 { return c.Windspeed }},
}

// Cell is a classified value ready for display.
type Cell struct {
	Text  string
	Label severity.Label
}

func (c Cell) Class() string {
	return c.Label.BadgeClass()
}

// MetricBadge is one metric of the current-conditions card.
type MetricBadge struct {
	Metric severity.Metric
	Title  string
	Cell
}

type CurrentCard struct {
	Metrics []MetricBadge
}

type ForecastRow struct {
	Metric severity.Metric
	Title  string
	Cells  []Cell
}

// ForecastTable has one column per entry, in the order received.
type ForecastTable struct {
	Headers []string
	Rows    []ForecastRow
}

func NewCurrentCard(p CurrentPayload) CurrentCard {
	card := CurrentCard{Metrics: make([]MetricBadge, 0, len(metricRows))}
	for _, row := range metricRows {
		card.Metrics = append(card.Metrics, MetricBadge{
			Metric: row.metric,
			Title:  row.title,
			Cell:   newCell(row, row.value(p.Conditions)),
		})
	}
	return card
}

func NewForecastTable(p ForecastPayload) ForecastTable {
	table := ForecastTable{
		Headers: make([]string, 0, len(p.Forecast)),
		Rows:    make([]ForecastRow, 0, len(metricRows)),
	}
	for _, e := range p.Forecast {
		table.Headers = append(table.Headers, FormatHeader(e.Time))
	}
	for _, row := range metricRows {
		r := ForecastRow{Metric: row.metric, Title: row.title, Cells: make([]Cell, 0, len(p.Forecast))}
		for _, e := range p.Forecast {
			r.Cells = append(r.Cells, newCell(row, row.value(e.Conditions)))
		}
		table.Rows = append(table.Rows, r)
	}
	return table
}

// FormatHeader renders an entry time with HeaderLayout. Values that do not
// parse are returned unchanged.
func FormatHeader(raw string) string {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(HeaderLayout)
		}
	}
	return raw
}

func newCell(row metricRow, v *float64) Cell {
	return Cell{Text: formatValue(v, row.unit), Label: severity.Classify(row.metric, v)}
}

func formatValue(v *float64, unit string) string {
	if v == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + unit
}
