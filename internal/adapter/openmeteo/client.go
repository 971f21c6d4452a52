// Package openmeteo fetches current conditions and hourly forecasts from the
// Open-Meteo API.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"cragcast/internal/modules/weather/types"
	"cragcast/internal/observability"
)

const (
	hourlyVars  = "temperature_2m,relative_humidity_2m,precipitation,windspeed_10m"
	currentVars = hourlyVars
	dateLayout  = "2006-01-02"
)

// ErrUpstream wraps every failure reported by Open-Meteo itself (non-200 status
// or an error body), as opposed to transport or decoding failures.
var ErrUpstream = errors.New("open-meteo error")

type Client struct {
	httpClient   *http.Client
	baseURL      string
	forecastDays int
	clock        clockwork.Clock
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewClient creates an Open-Meteo client. baseURL is the API root, e.g.
// "https://api.open-meteo.com/v1".
func NewClient(baseURL string, timeout time.Duration, forecastDays int, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		forecastDays: forecastDays,
		clock:        clock,
		metrics:      metrics,
		logger:       logger,
	}
}

// Current returns the conditions Open-Meteo reports for now at the coordinate.
func (c *Client) Current(ctx context.Context, lat, lon float64) (types.Conditions, error) {
	params := c.baseParams(lat, lon)
	params.Set("current", currentVars)

	var resp currentResponse
	if err := c.get(ctx, "current", params, &resp); err != nil {
		return types.Conditions{}, err
	}
	if resp.Current == nil {
		return types.Conditions{}, fmt.Errorf("%w: response has no current block", ErrUpstream)
	}
	return types.Conditions{
		Temperature:   resp.Current.Temperature,
		Humidity:      resp.Current.Humidity,
		Precipitation: resp.Current.Precipitation,
		Windspeed:     resp.Current.Windspeed,
	}, nil
}

// Forecast returns hourly entries from today (UTC) through today plus the
// configured number of days, in the order Open-Meteo lists them.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) ([]types.ForecastEntry, error) {
	today := c.clock.Now().UTC()
	params := c.baseParams(lat, lon)
	params.Set("hourly", hourlyVars)
	params.Set("start_date", today.Format(dateLayout))
	params.Set("end_date", today.AddDate(0, 0, c.forecastDays).Format(dateLayout))

	var resp forecastResponse
	if err := c.get(ctx, "forecast", params, &resp); err != nil {
		return nil, err
	}
	return zipHourly(resp.Hourly), nil
}

func (c *Client) baseParams(lat, lon float64) url.Values {
	return url.Values{
		"latitude":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(lon, 'f', -1, 64)},
		"timezone":  {"auto"},
	}
}

func (c *Client) get(ctx context.Context, kind string, params url.Values, out any) (err error) {
	start := c.clock.Now()
	defer func() {
		c.observe(kind, start, err)
	}()

	fullURL := c.baseURL + "/forecast?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", kind, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Reason != "" {
			return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, apiErr.Reason)
		}
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", kind, err)
	}
	return nil
}

func (c *Client) observe(kind string, start time.Time, err error) {
	elapsed := c.clock.Since(start)
	outcome := "success"
	if err != nil {
		outcome = "error"
		c.logger.Warn("open-meteo request failed", "kind", kind, "error", err, "duration_ms", elapsed.Milliseconds())
	} else {
		c.logger.Debug("open-meteo request", "kind", kind, "duration_ms", elapsed.Milliseconds())
	}
	if c.metrics != nil {
		c.metrics.UpstreamRequests.WithLabelValues(kind, outcome).Inc()
		c.metrics.UpstreamDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}

// zipHourly pairs the parallel hourly arrays by index. A series shorter than
// the time axis leaves the remaining values absent.
func zipHourly(h hourly) []types.ForecastEntry {
	out := make([]types.ForecastEntry, len(h.Time))
	for i, t := range h.Time {
		out[i] = types.ForecastEntry{
			Time: t,
			Conditions: types.Conditions{
				Temperature:   at(h.Temperature, i),
				Humidity:      at(h.Humidity, i),
				Precipitation: at(h.Precipitation, i),
				Windspeed:     at(h.Windspeed, i),
			},
		}
	}
	return out
}

func at(series []*float64, i int) *float64 {
	if i >= len(series) {
		return nil
	}
	return series[i]
}

// Open-Meteo API response types.

type forecastResponse struct {
	Hourly hourly `json:"hourly"`
}

type hourly struct {
	Time          []string   `json:"time"`
	Temperature   []*float64 `json:"temperature_2m"`
	Humidity      []*float64 `json:"relative_humidity_2m"`
	Precipitation []*float64 `json:"precipitation"`
	Windspeed     []*float64 `json:"windspeed_10m"`
}

type currentResponse struct {
	Current *current `json:"current"`
}

type current struct {
	Time          string   `json:"time"`
	Temperature   *float64 `json:"temperature_2m"`
	Humidity      *float64 `json:"relative_humidity_2m"`
	Precipitation *float64 `json:"precipitation"`
	Windspeed     *float64 `json:"windspeed_10m"`
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}
