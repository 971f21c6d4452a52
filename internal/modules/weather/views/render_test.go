package views

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"

	"cragcast/internal/modules/weather/types"
)

func loadTemplates(t *testing.T) {
	t.Helper()
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestLoadTemplates(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		if err := LoadTemplates(); err != nil {
			t.Fatalf("LoadTemplates() error = %v", err)
		}
		if panelTmpl == nil {
			t.Fatal("panelTmpl is nil after LoadTemplates")
		}
	})

	t.Run("failure_no_partials", func(t *testing.T) {
		if err := loadTemplatesFromFS(fstest.MapFS{}, "templates"); err == nil {
			t.Fatal("loadTemplatesFromFS() error = nil, want error for empty fs")
		}
	})

	t.Run("failure_parse", func(t *testing.T) {
		fsys := fstest.MapFS{
			"templates/partials/broken.html": {Data: []byte("{{ .")},
		}
		if err := loadTemplatesFromFS(fsys, "templates"); err == nil {
			t.Fatal("loadTemplatesFromFS() error = nil, want parse error")
		}
	})
}

func TestRender_NotLoaded(t *testing.T) {
	orig := panelTmpl
	panelTmpl = nil
	t.Cleanup(func() { panelTmpl = orig })

	var buf bytes.Buffer
	if err := RenderCurrentPanel(&buf, CurrentCard{}); err == nil || !strings.Contains(err.Error(), "not loaded") {
		t.Errorf("RenderCurrentPanel() error = %v, want not loaded", err)
	}
	if err := RenderForecastPanel(&buf, ForecastTable{}); err == nil || !strings.Contains(err.Error(), "not loaded") {
		t.Errorf("RenderForecastPanel() error = %v, want not loaded", err)
	}
}

func TestRenderCurrentPanel(t *testing.T) {
	loadTemplates(t)

	card := NewCurrentCard(CurrentPayload{Conditions: types.Conditions{
		Temperature: f(32),
		Humidity:    f(80),
		Windspeed:   f(45),
	}})
	var buf bytes.Buffer
	if err := RenderCurrentPanel(&buf, card); err != nil {
		t.Fatalf("RenderCurrentPanel() error = %v", err)
	}

	doc := parseHTML(t, buf.String())
	metrics := doc.Find(".weather-metric")
	if metrics.Length() != 4 {
		t.Fatalf("found %d .weather-metric, want 4", metrics.Length())
	}

	want := map[string]struct{ class, text string }{
		"temperature":   {"badge-bad", "32℃"},
		"humidity":      {"badge-bad", "80%"},
		"precipitation": {"badge-default", "N/A"},
		"windspeed":     {"badge-bad", "45 km/h"},
	}
	metrics.Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("data-metric")
		w, ok := want[name]
		if !ok {
			t.Errorf("unexpected metric %q", name)
			return
		}
		badge := s.Find("span.badge")
		if !badge.HasClass(w.class) {
			t.Errorf("%s badge class = %q, want %s", name, badge.AttrOr("class", ""), w.class)
		}
		if got := strings.TrimSpace(badge.Text()); got != w.text {
			t.Errorf("%s text = %q, want %q", name, got, w.text)
		}
	})
}

func TestRenderForecastPanel(t *testing.T) {
	loadTemplates(t)

	table := NewForecastTable(ForecastPayload{Forecast: []types.ForecastEntry{
		{Time: "2025-06-01T09:00", Conditions: types.Conditions{Temperature: f(18)}},
		{Time: "2025-06-01T10:00", Conditions: types.Conditions{Temperature: f(9), Precipitation: f(1.2)}},
	}})
	var buf bytes.Buffer
	if err := RenderForecastPanel(&buf, table); err != nil {
		t.Fatalf("RenderForecastPanel() error = %v", err)
	}

	doc := parseHTML(t, buf.String())
	headers := doc.Find("thead th.forecast-time")
	if headers.Length() != 2 {
		t.Fatalf("found %d time headers, want 2", headers.Length())
	}
	if got := headers.Eq(1).Text(); got != "01/06/2025, 10:00" {
		t.Errorf("second header = %q", got)
	}

	rows := doc.Find("tbody tr")
	if rows.Length() != 4 {
		t.Fatalf("found %d rows, want 4", rows.Length())
	}
	temp := doc.Find(`tbody tr[data-metric="temperature"] td.badge`)
	if !temp.Eq(0).HasClass("badge-good") || !temp.Eq(1).HasClass("badge-bad") {
		t.Errorf("temperature classes = %q, %q", temp.Eq(0).AttrOr("class", ""), temp.Eq(1).AttrOr("class", ""))
	}
	hum := doc.Find(`tbody tr[data-metric="humidity"] td.badge`)
	if hum.Eq(0).Text() != "N/A" || !hum.Eq(0).HasClass("badge-default") {
		t.Errorf("absent humidity cell = %q (%s)", hum.Eq(0).Text(), hum.Eq(0).AttrOr("class", ""))
	}
}

func TestRenderForecastPanel_EmptyForecast(t *testing.T) {
	loadTemplates(t)

	var buf bytes.Buffer
	if err := RenderForecastPanel(&buf, NewForecastTable(NewForecastPayload(nil))); err != nil {
		t.Fatalf("RenderForecastPanel() error = %v", err)
	}
	doc := parseHTML(t, buf.String())
	if n := doc.Find("thead th").Length(); n != 1 {
		t.Errorf("found %d header cells, want only the metric column", n)
	}
	if n := doc.Find("tbody td.badge").Length(); n != 0 {
		t.Errorf("found %d value cells, want 0", n)
	}
}

func TestRenderUnavailable(t *testing.T) {
	tests := []struct {
		panel Panel
		want  string
	}{
		{PanelCurrent, "Weather data unavailable"},
		{PanelForecast, "Unable to load forecast data."},
	}
	for _, tt := range tests {
		t.Run(string(tt.panel), func(t *testing.T) {
			var buf bytes.Buffer
			if err := RenderUnavailable(&buf, tt.panel); err != nil {
				t.Fatalf("RenderUnavailable() error = %v", err)
			}
			if got := parseHTML(t, buf.String()).Text(); got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}

	if err := RenderUnavailable(&bytes.Buffer{}, Panel("radar")); err == nil {
		t.Error("RenderUnavailable(radar) error = nil, want error")
	}
}

type stubSource struct {
	current  []byte
	forecast []byte
	err      error
}

func (s stubSource) Current(context.Context, float64, float64) ([]byte, error) {
	return s.current, s.err
}

func (s stubSource) Forecast(context.Context, float64, float64) ([]byte, error) {
	return s.forecast, s.err
}

func TestRenderFromSource(t *testing.T) {
	loadTemplates(t)
	ctx := context.Background()

	t.Run("current", func(t *testing.T) {
		var buf bytes.Buffer
		src := stubSource{current: []byte(`{"temperature":20,"humidity":30,"precipitation":0,"windspeed":5}`)}
		if err := RenderFromSource(ctx, &buf, src, PanelCurrent, 53.1, -6.2); err != nil {
			t.Fatalf("RenderFromSource() error = %v", err)
		}
		if n := parseHTML(t, buf.String()).Find(".badge-good").Length(); n != 4 {
			t.Errorf("found %d good badges, want 4", n)
		}
	})

	t.Run("forecast", func(t *testing.T) {
		var buf bytes.Buffer
		src := stubSource{forecast: []byte(`{"forecast":[{"time":"2025-06-01T09:00","temperature":20}]}`)}
		if err := RenderFromSource(ctx, &buf, src, PanelForecast, 53.1, -6.2); err != nil {
			t.Fatalf("RenderFromSource() error = %v", err)
		}
		if !strings.Contains(buf.String(), "01/06/2025, 09:00") {
			t.Errorf("body missing formatted header: %s", buf.String())
		}
	})

	failures := []struct {
		name  string
		src   stubSource
		panel Panel
		want  error
	}{
		{"source error", stubSource{err: ErrUpstream}, PanelCurrent, ErrUpstream},
		{"upstream error body", stubSource{current: []byte(`{"error":"boom"}`)}, PanelCurrent, ErrUpstream},
		{"missing forecast", stubSource{forecast: []byte(`{}`)}, PanelForecast, ErrMissingField},
		{"garbage", stubSource{forecast: []byte(`nope`)}, PanelForecast, ErrPayload},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := RenderFromSource(ctx, &buf, tt.src, tt.panel, 0, 0)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if buf.Len() != 0 {
				t.Errorf("wrote %q on failure, want nothing", buf.String())
			}
		})
	}
}
