package views

import (
	"strconv"

	"cragcast/internal/modules/crags/types"
)

// DefaultMapZoom is the Leaflet zoom level of the crag map.
const DefaultMapZoom = 13

// MapConfig is everything static/js/map.js needs to draw the crag map. It is
// rendered as data attributes on the #map element.
type MapConfig struct {
	Lat         float64
	Lon         float64
	Zoom        int
	Label       string
	TileURL     string
	Attribution string
}

func NewMapConfig(crag types.Crag, tileURL, attribution string) MapConfig {
	return MapConfig{
		Lat:         crag.Latitude,
		Lon:         crag.Longitude,
		Zoom:        DefaultMapZoom,
		Label:       crag.Name,
		TileURL:     tileURL,
		Attribution: attribution,
	}
}

// FilterOption is one choice of a multi-select filter. ClearURL drops just
// this value from the current query.
type FilterOption struct {
	Value    string
	Selected bool
	ClearURL string
}

// FilterGroup is a multi-select control of the index filter form.
// static/js/filters.js enhances it and submits the form on change.
type FilterGroup struct {
	Name        string
	Label       string
	Placeholder string
	Options     []FilterOption
	// ClearURL drops every value of this filter.
	ClearURL string
}

// Selected returns the chosen options in option order.
func (g FilterGroup) Selected() []FilterOption {
	var out []FilterOption
	for _, o := range g.Options {
		if o.Selected {
			out = append(out, o)
		}
	}
	return out
}

// PaginationItem is one entry in the pagination bar: either a page number or an ellipsis.
type PaginationItem struct {
	Page     int
	Ellipsis bool
	Current  bool
	URL      string
}

type SortHeader struct {
	Field  types.SortField
	Label  string
	URL    string
	Active bool
	Order  types.SortOrder
}

type CragRow struct {
	types.Crag
	URL        string
	WeatherURL string
}

type IndexData struct {
	Search      string
	SortBy      types.SortField
	SortOrder   types.SortOrder
	PerPage     int
	Filters     []FilterGroup
	Headers     []SortHeader
	Crags       []CragRow
	Total       int
	CurrentPage int
	TotalPages  int
	PageItems   []PaginationItem
	PrevURL     string
	NextURL     string
	ClearAllURL string
}

// HasActiveFilters reports whether any filter value is selected.
func (d *IndexData) HasActiveFilters() bool {
	for _, g := range d.Filters {
		if len(g.Selected()) > 0 {
			return true
		}
	}
	return false
}

// RouteListData is the route table fragment. The controls outside the
// fragment post q and per_page back to Endpoint; Prev/Next URLs carry page.
type RouteListData struct {
	Endpoint    string
	Search      string
	PageSize    int
	PageSizes   []int
	Routes      []types.Route
	Total       int
	FilteredLen int
	CurrentPage int
	TotalPages  int
	IsFirst     bool
	IsLast      bool
	PrevURL     string
	NextURL     string
}

type CragPageData struct {
	Crag        types.Crag
	Map         MapConfig
	ForecastURL string
	Routes      RouteListData
}

// CragURL is the detail page of a crag.
func CragURL(id int64) string {
	return "/crags/" + strconv.FormatInt(id, 10)
}

// CurrentPanelURL is the lazily loaded current-conditions fragment for a coordinate.
func CurrentPanelURL(lat, lon float64) string {
	return "/partials/weather/" + coord(lat) + "/" + coord(lon)
}

// ForecastPanelURL is the forecast table fragment for a coordinate.
func ForecastPanelURL(lat, lon float64) string {
	return "/partials/forecast/" + coord(lat) + "/" + coord(lon)
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
