package views

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cragcast/internal/modules/weather/types"
)

// maxPayloadBytes caps how much of a weather response is read.
const maxPayloadBytes = 1 << 20

// Source yields the raw JSON payloads the panels render.
type Source interface {
	Current(ctx context.Context, lat, lon float64) ([]byte, error)
	Forecast(ctx context.Context, lat, lon float64) ([]byte, error)
}

// HTTPSource fetches payloads from the weather JSON endpoints of a running
// server. Requests are not retried.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Current(ctx context.Context, lat, lon float64) ([]byte, error) {
	return s.get(ctx, "/api/weather/"+coordPath(lat, lon))
}

func (s *HTTPSource) Forecast(ctx context.Context, lat, lon float64) ([]byte, error) {
	return s.get(ctx, "/api/forecast/"+coordPath(lat, lon))
}

// get returns the body whatever the status code: error responses carry an
// {"error": ...} body that the decoders report as ErrUpstream.
func (s *HTTPSource) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}

func coordPath(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "/" + strconv.FormatFloat(lon, 'f', -1, 64)
}

// WeatherService is the in-process weather API, implemented by service.Service.
type WeatherService interface {
	Current(ctx context.Context, lat, lon float64) (types.Conditions, error)
	Forecast(ctx context.Context, lat, lon float64) ([]types.ForecastEntry, error)
}

// ServiceSource encodes the weather service's results into the same JSON the
// HTTP endpoints serve, skipping the network round trip.
type ServiceSource struct {
	svc WeatherService
}

func NewServiceSource(svc WeatherService) *ServiceSource {
	return &ServiceSource{svc: svc}
}

func (s *ServiceSource) Current(ctx context.Context, lat, lon float64) ([]byte, error) {
	cond, err := s.svc.Current(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return json.Marshal(CurrentPayload{Conditions: cond})
}

func (s *ServiceSource) Forecast(ctx context.Context, lat, lon float64) ([]byte, error) {
	entries, err := s.svc.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return json.Marshal(NewForecastPayload(entries))
}
