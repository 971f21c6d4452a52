package controller

import (
	"bytes"
	"io"
	"net/http"

	"cragcast/internal/modules/crags/types"
	"cragcast/internal/modules/crags/views"
)

var sortHeaders = []struct {
	field types.SortField
	label string
}{
	{types.SortByName, "Name"},
	{types.SortByCountry, "Country"},
	{types.SortByCounty, "County"},
	{types.SortByRockType, "Rock type"},
	{types.SortByRoutesCount, "Routes"},
}

var filterGroups = []struct {
	name        string
	label       string
	placeholder string
	options     func(types.FilterOptions) []string
}{
	{paramCountry, "Country", "Select countries", func(o types.FilterOptions) []string { return o.Countries }},
	{paramCounty, "County", "Select counties", func(o types.FilterOptions) []string { return o.Counties }},
	{paramRockType, "Rock type", "Select rock types", func(o types.FilterOptions) []string { return o.RockTypes }},
	{paramType, "Route type", "Select route types", func(o types.FilterOptions) []string { return o.RouteTypes }},
}

func (c *cragControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		c.renderNotFound(w, "There is nothing at "+r.URL.Path+".")
		return
	}
	ctx := r.Context()
	q := parseIndexQuery(r)

	total, err := c.repository.CountCrags(ctx, q.filter())
	if err != nil {
		c.logger.Error("index: count crags failed", "error", err)
		c.renderError(w, "The crag list could not be loaded.")
		return
	}
	pages := totalPages(total, q.PerPage)
	if q.Page > pages {
		q.Page = pages
	}

	crags, err := c.repository.ListCrags(ctx, q.filter())
	if err != nil {
		c.logger.Error("index: list crags failed", "error", err)
		c.renderError(w, "The crag list could not be loaded.")
		return
	}
	options, err := c.repository.FilterOptions(ctx)
	if err != nil {
		c.logger.Error("index: filter options failed", "error", err)
		c.renderError(w, "The crag filters could not be loaded.")
		return
	}

	data := views.IndexData{
		Search:      q.Search,
		SortBy:      q.SortBy,
		SortOrder:   q.SortOrder,
		PerPage:     q.PerPage,
		Filters:     buildFilterGroups(q, options),
		Headers:     buildSortHeaders(q),
		Crags:       make([]views.CragRow, 0, len(crags)),
		Total:       total,
		CurrentPage: q.Page,
		TotalPages:  pages,
		PageItems:   buildPageItems(pages, q.Page, q.pageURL),
		ClearAllURL: q.clearAllURL(),
	}
	if q.Page > 1 {
		data.PrevURL = q.pageURL(q.Page - 1)
	}
	if q.Page < pages {
		data.NextURL = q.pageURL(q.Page + 1)
	}
	for _, crag := range crags {
		data.Crags = append(data.Crags, views.CragRow{
			Crag:       crag,
			URL:        views.CragURL(crag.ID),
			WeatherURL: views.CurrentPanelURL(crag.Latitude, crag.Longitude),
		})
	}

	c.writeHTML(w, http.StatusOK, "index", func(buf *bytes.Buffer) error {
		return views.RenderIndex(buf, &data)
	})
}

func (c *cragControllerImpl) handleCrag(w http.ResponseWriter, r *http.Request) {
	crag, routes, ok := c.loadCrag(w, r)
	if !ok {
		return
	}
	l := parseRouteQuery(r).replay(routes)

	data := views.CragPageData{
		Crag:        crag,
		Map:         views.NewMapConfig(crag, c.mapTileURL, c.mapAttribution),
		ForecastURL: views.ForecastPanelURL(crag.Latitude, crag.Longitude),
		Routes:      newRouteListData(crag.ID, l),
	}
	c.writeHTML(w, http.StatusOK, "crag", func(buf *bytes.Buffer) error {
		return views.RenderCrag(buf, &data)
	})
}

func (c *cragControllerImpl) handleRoutes(w http.ResponseWriter, r *http.Request) {
	crag, routes, ok := c.loadCrag(w, r)
	if !ok {
		return
	}
	data := newRouteListData(crag.ID, parseRouteQuery(r).replay(routes))
	c.writeHTML(w, http.StatusOK, "routes", func(buf *bytes.Buffer) error {
		return views.RenderRoutesPartial(buf, &data)
	})
}

// loadCrag resolves {id} to a crag and its routes. On failure it has already
// written the response.
func (c *cragControllerImpl) loadCrag(w http.ResponseWriter, r *http.Request) (types.Crag, []types.Route, bool) {
	id, ok := parseCragID(r)
	if !ok {
		c.renderNotFound(w, "Crag not found.")
		return types.Crag{}, nil, false
	}

	crag, found, err := c.repository.GetCrag(r.Context(), id)
	if err != nil {
		c.logger.Error("get crag failed", "crag_id", id, "error", err)
		c.renderError(w, "This crag could not be loaded.")
		return types.Crag{}, nil, false
	}
	if !found {
		c.renderNotFound(w, "Crag not found.")
		return types.Crag{}, nil, false
	}

	routes, err := c.repository.ListRoutes(r.Context(), id)
	if err != nil {
		c.logger.Error("list routes failed", "crag_id", id, "error", err)
		c.renderError(w, "The routes of this crag could not be loaded.")
		return types.Crag{}, nil, false
	}
	return crag, routes, true
}

func (c *cragControllerImpl) renderNotFound(w http.ResponseWriter, message string) {
	c.writeHTML(w, http.StatusNotFound, "not found", func(buf *bytes.Buffer) error {
		return views.RenderNotFound(buf, message)
	})
}

func (c *cragControllerImpl) renderError(w http.ResponseWriter, message string) {
	c.writeHTML(w, http.StatusInternalServerError, "error", func(buf *bytes.Buffer) error {
		return views.RenderError(buf, message)
	})
}

// writeHTML renders into a buffer first so a template error can still become
// a clean 500 page.
func (c *cragControllerImpl) writeHTML(w http.ResponseWriter, status int, page string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		c.logger.Error("template render failed", "page", page, "error", err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := io.WriteString(w, views.FallbackErrorHTML); err != nil {
			c.logger.Error("write response failed", "page", page, "error", err)
		}
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		c.logger.Error("write response failed", "page", page, "error", err)
	}
}

func buildFilterGroups(q indexQuery, options types.FilterOptions) []views.FilterGroup {
	groups := make([]views.FilterGroup, 0, len(filterGroups))
	for _, fg := range filterGroups {
		selected := q.values(fg.name)
		group := views.FilterGroup{
			Name:        fg.name,
			Label:       fg.label,
			Placeholder: fg.placeholder,
			ClearURL:    q.clearURL(fg.name, ""),
		}
		for _, value := range fg.options(options) {
			opt := views.FilterOption{Value: value}
			for _, s := range selected {
				if s == value {
					opt.Selected = true
					opt.ClearURL = q.clearURL(fg.name, value)
					break
				}
			}
			group.Options = append(group.Options, opt)
		}
		groups = append(groups, group)
	}
	return groups
}

func buildSortHeaders(q indexQuery) []views.SortHeader {
	headers := make([]views.SortHeader, 0, len(sortHeaders))
	for _, h := range sortHeaders {
		headers = append(headers, views.SortHeader{
			Field:  h.field,
			Label:  h.label,
			URL:    q.sortURL(h.field),
			Active: q.SortBy == h.field,
			Order:  q.SortOrder,
		})
	}
	return headers
}
