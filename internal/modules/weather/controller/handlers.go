package controller

import (
	"bytes"
	"net/http"

	"cragcast/internal/modules/weather/views"
	"cragcast/internal/utils"
)

func (c *weatherControllerImpl) handleCurrent(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseCoordinates(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cond, err := c.service.Current(r.Context(), lat, lon)
	if err != nil {
		c.logger.Warn("current weather failed", "lat", lat, "lon", lon, "error", err)
		utils.WriteError(w, http.StatusBadGateway, "weather provider unavailable")
		return
	}
	utils.WriteJSON(w, http.StatusOK, views.CurrentPayload{Conditions: cond})
}

func (c *weatherControllerImpl) handleForecast(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseCoordinates(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := c.service.Forecast(r.Context(), lat, lon)
	if err != nil {
		c.logger.Warn("forecast failed", "lat", lat, "lon", lon, "error", err)
		utils.WriteError(w, http.StatusBadGateway, "weather provider unavailable")
		return
	}
	utils.WriteJSON(w, http.StatusOK, views.NewForecastPayload(entries))
}

func (c *weatherControllerImpl) handleCurrentPartial(w http.ResponseWriter, r *http.Request) {
	c.renderPanel(w, r, views.PanelCurrent)
}

func (c *weatherControllerImpl) handleForecastPartial(w http.ResponseWriter, r *http.Request) {
	c.renderPanel(w, r, views.PanelForecast)
}

// renderPanel always answers 200 with a fragment: the panel, or its
// unavailable placeholder when anything on the way fails. HTMX only swaps
// successful responses.
func (c *weatherControllerImpl) renderPanel(w http.ResponseWriter, r *http.Request, panel views.Panel) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var buf bytes.Buffer
	lat, lon, err := parseCoordinates(r)
	if err == nil {
		err = views.RenderFromSource(r.Context(), &buf, c.source, panel, lat, lon)
	}
	if err != nil {
		c.logger.Warn("weather panel unavailable", "panel", panel, "path", r.URL.Path, "error", err)
		if c.metrics != nil {
			c.metrics.PanelFailures.WithLabelValues(string(panel)).Inc()
		}
		buf.Reset()
		if err := views.RenderUnavailable(&buf, panel); err != nil {
			c.logger.Error("render unavailable fragment failed", "panel", panel, "error", err)
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		c.logger.Error("weather panel: write response failed", "panel", panel, "error", err)
	}
}
