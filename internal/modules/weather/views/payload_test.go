package views

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeCurrent(t *testing.T) {
	t.Run("all metrics", func(t *testing.T) {
		p, err := DecodeCurrent(strings.NewReader(`{"temperature":18.5,"humidity":40,"precipitation":0,"windspeed":12}`))
		if err != nil {
			t.Fatalf("DecodeCurrent() error = %v", err)
		}
		if p.Temperature == nil || *p.Temperature != 18.5 {
			t.Errorf("temperature = %v, want 18.5", p.Temperature)
		}
		if p.Precipitation == nil || *p.Precipitation != 0 {
			t.Errorf("precipitation = %v, want 0 (present)", p.Precipitation)
		}
	})

	t.Run("null and absent stay nil", func(t *testing.T) {
		p, err := DecodeCurrent(strings.NewReader(`{"temperature":null,"humidity":55}`))
		if err != nil {
			t.Fatalf("DecodeCurrent() error = %v", err)
		}
		if p.Temperature != nil || p.Precipitation != nil || p.Windspeed != nil {
			t.Errorf("want nil metrics, got %+v", p.Conditions)
		}
		if p.Humidity == nil || *p.Humidity != 55 {
			t.Errorf("humidity = %v, want 55", p.Humidity)
		}
	})

	t.Run("empty error string is ignored", func(t *testing.T) {
		if _, err := DecodeCurrent(strings.NewReader(`{"error":"","temperature":3}`)); err != nil {
			t.Errorf("DecodeCurrent() error = %v, want nil", err)
		}
	})

	tests := []struct {
		name string
		body string
		want error
	}{
		{name: "upstream error", body: `{"error":"Bad Gateway","message":"open-meteo down"}`, want: ErrUpstream},
		{name: "not json", body: `<html>oops</html>`, want: ErrPayload},
		{name: "null body", body: `null`, want: ErrPayload},
		{name: "array body", body: `[1,2]`, want: ErrPayload},
		{name: "string metric", body: `{"temperature":"warm"}`, want: ErrPayload},
		{name: "empty body", body: ``, want: ErrPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCurrent(strings.NewReader(tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeCurrent(%q) error = %v, want %v", tt.body, err, tt.want)
			}
		})
	}
}

func TestDecodeForecast(t *testing.T) {
	t.Run("entries keep received order", func(t *testing.T) {
		body := `{"forecast":[
			{"time":"2025-06-02T10:00","temperature":20},
			{"time":"2025-06-01T09:00","temperature":null,"windspeed":31}
		]}`
		p, err := DecodeForecast(strings.NewReader(body))
		if err != nil {
			t.Fatalf("DecodeForecast() error = %v", err)
		}
		if len(p.Forecast) != 2 {
			t.Fatalf("len = %d, want 2", len(p.Forecast))
		}
		if p.Forecast[0].Time != "2025-06-02T10:00" || p.Forecast[1].Time != "2025-06-01T09:00" {
			t.Errorf("order changed: %q, %q", p.Forecast[0].Time, p.Forecast[1].Time)
		}
		if p.Forecast[1].Temperature != nil {
			t.Errorf("null temperature decoded as %v", *p.Forecast[1].Temperature)
		}
	})

	t.Run("empty list is valid", func(t *testing.T) {
		p, err := DecodeForecast(strings.NewReader(`{"forecast":[]}`))
		if err != nil {
			t.Fatalf("DecodeForecast() error = %v", err)
		}
		if p.Forecast == nil || len(p.Forecast) != 0 {
			t.Errorf("Forecast = %#v, want empty non-nil slice", p.Forecast)
		}
	})

	tests := []struct {
		name string
		body string
		want error
	}{
		{name: "missing forecast", body: `{}`, want: ErrMissingField},
		{name: "null forecast", body: `{"forecast":null}`, want: ErrMissingField},
		{name: "upstream error", body: `{"error":"Bad Gateway"}`, want: ErrUpstream},
		{name: "forecast not a list", body: `{"forecast":{"time":"x"}}`, want: ErrPayload},
		{name: "truncated", body: `{"forecast":[{"time":`, want: ErrPayload},
		{name: "null body", body: `null`, want: ErrPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeForecast(strings.NewReader(tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeForecast(%q) error = %v, want %v", tt.body, err, tt.want)
			}
		})
	}
}
