package types

type Crag struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	County      string  `json:"county"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	RockType    string  `json:"rocktype"`
	RoutesCount int     `json:"routesCount"`
}

// Route is one climbing route. Position is its place in the crag's list.
type Route struct {
	Position    int    `json:"position"`
	Sector      string `json:"sector"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Grade       string `json:"grade"`
	SafetyGrade string `json:"safetyGrade"`
}

// CragWithRoutes is the unit the importer writes.
type CragWithRoutes struct {
	Crag
	Routes []Route
}

type SortField string

const (
	SortByName        SortField = "crag_name"
	SortByCountry     SortField = "country"
	SortByCounty      SortField = "county"
	SortByRockType    SortField = "rocktype"
	SortByRoutesCount SortField = "routes_count"
)

// ParseSortField falls back to SortByName for unknown input.
func ParseSortField(s string) SortField {
	switch f := SortField(s); f {
	case SortByName, SortByCountry, SortByCounty, SortByRockType, SortByRoutesCount:
		return f
	default:
		return SortByName
	}
}

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ParseSortOrder falls back to Asc for anything but "desc".
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == Desc {
		return Desc
	}
	return Asc
}

// Toggle returns the order a sort header link should request when field is
// clicked while the list is sorted by current.
func (o SortOrder) Toggle(current, field SortField) SortOrder {
	if current == field && o == Asc {
		return Desc
	}
	return Asc
}

// CragFilter selects crags for the index page. Empty slices mean "no filter".
type CragFilter struct {
	Search     string
	Countries  []string
	Counties   []string
	RockTypes  []string
	RouteTypes []string
	SortBy     SortField
	SortOrder  SortOrder
	Limit      int
	Offset     int
}

// FilterOptions holds the distinct values offered by the index filters.
type FilterOptions struct {
	Countries  []string
	Counties   []string
	RockTypes  []string
	RouteTypes []string
}
