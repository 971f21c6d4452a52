package views

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates
var viewsFS embed.FS

var panelTmpl *template.Template

// Panel identifies one of the two weather panels.
type Panel string

const (
	PanelCurrent  Panel = "current"
	PanelForecast Panel = "forecast"
)

// Unavailable fragments are plain markup so they can be written even when the
// templates failed to load.
const (
	currentUnavailableHTML  = `<div class="weather-cell weather-unavailable">Weather data unavailable</div>`
	forecastUnavailableHTML = `<div class="forecast-unavailable">Unable to load forecast data.</div>`
)

// loadTemplatesFromFS loads the panel partials from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	panelTmpl, err = template.ParseFS(sub, "partials/*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads the embedded panel templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// RenderCurrentPanel executes the current-conditions card into w.
func RenderCurrentPanel(w io.Writer, card CurrentCard) error {
	if panelTmpl == nil {
		return errors.New("weather panel template not loaded: call views.LoadTemplates during startup")
	}
	return panelTmpl.ExecuteTemplate(w, "partials/current.html", card)
}

// RenderForecastPanel executes the forecast table into w.
func RenderForecastPanel(w io.Writer, table ForecastTable) error {
	if panelTmpl == nil {
		return errors.New("weather panel template not loaded: call views.LoadTemplates during startup")
	}
	return panelTmpl.ExecuteTemplate(w, "partials/forecast.html", table)
}

// RenderUnavailable writes the static failure fragment for panel.
func RenderUnavailable(w io.Writer, panel Panel) error {
	var html string
	switch panel {
	case PanelCurrent:
		html = currentUnavailableHTML
	case PanelForecast:
		html = forecastUnavailableHTML
	default:
		return fmt.Errorf("unknown weather panel %q", panel)
	}
	_, err := io.WriteString(w, html)
	return err
}

// RenderFromSource fetches the payload for panel from src, classifies it and
// renders the panel into w. Nothing is written to w on failure.
func RenderFromSource(ctx context.Context, w io.Writer, src Source, panel Panel, lat, lon float64) error {
	var buf bytes.Buffer
	switch panel {
	case PanelCurrent:
		body, err := src.Current(ctx, lat, lon)
		if err != nil {
			return err
		}
		payload, err := DecodeCurrent(bytes.NewReader(body))
		if err != nil {
			return err
		}
		if err := RenderCurrentPanel(&buf, NewCurrentCard(payload)); err != nil {
			return err
		}
	case PanelForecast:
		body, err := src.Forecast(ctx, lat, lon)
		if err != nil {
			return err
		}
		payload, err := DecodeForecast(bytes.NewReader(body))
		if err != nil {
			return err
		}
		if err := RenderForecastPanel(&buf, NewForecastTable(payload)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown weather panel %q", panel)
	}
	_, err := buf.WriteTo(w)
	return err
}
