package controller

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"cragcast/internal/modules/crags/routelist"
	"cragcast/internal/modules/crags/types"
	"cragcast/internal/modules/crags/views"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100

	defaultRoutePageSize = 10
	// pagination bar shows this many pages either side of the current one
	pageWindow = 2
)

var routePageSizes = []int{10, 20, 50}

// Query parameter names of the multi-select filters, in form order.
const (
	paramCountry  = "country"
	paramCounty   = "county"
	paramRockType = "rocktype"
	paramType     = "type"
)

// indexQuery is the parsed state of the index page. URLs for links on the
// page are derived from it so every link keeps the other filters.
type indexQuery struct {
	Search     string
	Countries  []string
	Counties   []string
	RockTypes  []string
	RouteTypes []string
	SortBy     types.SortField
	SortOrder  types.SortOrder
	Page       int
	PerPage    int
}

func parseIndexQuery(r *http.Request) indexQuery {
	q := r.URL.Query()
	return indexQuery{
		Search:     strings.TrimSpace(q.Get("search")),
		Countries:  selection(q[paramCountry]),
		Counties:   selection(q[paramCounty]),
		RockTypes:  selection(q[paramRockType]),
		RouteTypes: selection(q[paramType]),
		SortBy:     types.ParseSortField(q.Get("sort_by")),
		SortOrder:  types.ParseSortOrder(q.Get("sort_order")),
		Page:       parsePositive(q.Get("page"), 1, 0),
		PerPage:    parsePositive(q.Get("per_page"), defaultPerPage, maxPerPage),
	}
}

// selection drops the whole filter when the empty "any" value is chosen.
func selection(values []string) []string {
	if len(values) == 0 || slices.Contains(values, "") {
		return nil
	}
	return values
}

// parsePositive returns def for missing or non-positive input and caps the
// result at limit when limit > 0.
func parsePositive(s string, def, limit int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

func (q indexQuery) filter() types.CragFilter {
	return types.CragFilter{
		Search:     q.Search,
		Countries:  q.Countries,
		Counties:   q.Counties,
		RockTypes:  q.RockTypes,
		RouteTypes: q.RouteTypes,
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
		Limit:      q.PerPage,
		Offset:     (q.Page - 1) * q.PerPage,
	}
}

func (q indexQuery) values(name string) []string {
	switch name {
	case paramCountry:
		return q.Countries
	case paramCounty:
		return q.Counties
	case paramRockType:
		return q.RockTypes
	case paramType:
		return q.RouteTypes
	}
	return nil
}

func (q indexQuery) with(name string, values []string) indexQuery {
	switch name {
	case paramCountry:
		q.Countries = values
	case paramCounty:
		q.Counties = values
	case paramRockType:
		q.RockTypes = values
	case paramType:
		q.RouteTypes = values
	}
	return q
}

func (q indexQuery) url() string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	for _, name := range []string{paramCountry, paramCounty, paramRockType, paramType} {
		for _, value := range q.values(name) {
			v.Add(name, value)
		}
	}
	v.Set("sort_by", string(q.SortBy))
	v.Set("sort_order", string(q.SortOrder))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return "/?" + v.Encode()
}

func (q indexQuery) pageURL(page int) string {
	q.Page = page
	return q.url()
}

// sortURL links a column header: same column ascending flips to descending,
// anything else sorts ascending. Sorting returns to the first page.
func (q indexQuery) sortURL(field types.SortField) string {
	q.SortOrder = q.SortOrder.Toggle(q.SortBy, field)
	q.SortBy = field
	q.Page = 1
	return q.url()
}

// clearURL drops value from filter name, or every value when value is "".
func (q indexQuery) clearURL(name, value string) string {
	var kept []string
	if value != "" {
		for _, v := range q.values(name) {
			if v != value {
				kept = append(kept, v)
			}
		}
	}
	q = q.with(name, kept)
	q.Page = 1
	return q.url()
}

func (q indexQuery) clearAllURL() string {
	return indexQuery{
		Search:    q.Search,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Page:      1,
		PerPage:   q.PerPage,
	}.url()
}

func totalPages(total, perPage int) int {
	if perPage < 1 {
		return 1
	}
	return max(1, (total+perPage-1)/perPage)
}

// buildPageItems returns page numbers and ellipsis for the pagination bar:
// the first and last pages plus pageWindow pages around the current one.
func buildPageItems(totalPages, currentPage int, pageURL func(int) string) []views.PaginationItem {
	if totalPages <= 0 {
		return nil
	}
	show := map[int]bool{1: true, totalPages: true}
	for p := currentPage - pageWindow; p <= currentPage+pageWindow; p++ {
		if p >= 1 && p <= totalPages {
			show[p] = true
		}
	}
	var items []views.PaginationItem
	prev := 0
	for p := 1; p <= totalPages; p++ {
		if !show[p] {
			continue
		}
		if prev != 0 && p > prev+1 {
			items = append(items, views.PaginationItem{Ellipsis: true})
		}
		items = append(items, views.PaginationItem{Page: p, Current: p == currentPage, URL: pageURL(p)})
		prev = p
	}
	return items
}

type routeQuery struct {
	Search  string
	PerPage int
	Page    int
}

func parseRouteQuery(r *http.Request) routeQuery {
	q := r.URL.Query()
	return routeQuery{
		Search:  q.Get("q"),
		PerPage: parsePositive(q.Get("per_page"), defaultRoutePageSize, maxPerPage),
		Page:    parsePositive(q.Get("page"), 1, 0),
	}
}

// replay rebuilds the route list state a client reached by changing the page
// size, typing a search term and stepping forward page-1 times.
func (q routeQuery) replay(routes []types.Route) *routelist.List {
	l := routelist.New(routes, defaultRoutePageSize)
	l.SetPageSize(q.PerPage)
	l.SetSearchTerm(q.Search)
	for i := 1; i < q.Page && !l.IsLast(); i++ {
		l.Next()
	}
	return l
}

func routesURL(cragID int64, search string, perPage, page int) string {
	v := url.Values{}
	if search != "" {
		v.Set("q", search)
	}
	v.Set("per_page", strconv.Itoa(perPage))
	v.Set("page", strconv.Itoa(page))
	return views.CragURL(cragID) + "/routes?" + v.Encode()
}

func newRouteListData(cragID int64, l *routelist.List) views.RouteListData {
	page := l.CurrentPage()
	return views.RouteListData{
		Endpoint:    views.CragURL(cragID) + "/routes",
		Search:      l.SearchTerm(),
		PageSize:    l.PageSize(),
		PageSizes:   pageSizeOptions(l.PageSize()),
		Routes:      l.VisibleSlice(),
		Total:       l.Len(),
		FilteredLen: l.FilteredLen(),
		CurrentPage: page,
		TotalPages:  l.TotalPages(),
		IsFirst:     l.IsFirst(),
		IsLast:      l.IsLast(),
		PrevURL:     routesURL(cragID, l.SearchTerm(), l.PageSize(), max(1, page-1)),
		NextURL:     routesURL(cragID, l.SearchTerm(), l.PageSize(), min(l.TotalPages(), page+1)),
	}
}

// pageSizeOptions lists the selectable sizes, including a non-standard
// current size so the select shows it.
func pageSizeOptions(current int) []int {
	sizes := slices.Clone(routePageSizes)
	if !slices.Contains(sizes, current) {
		sizes = append(sizes, current)
		slices.Sort(sizes)
	}
	return sizes
}

func parseCragID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
