package views

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"cragcast/internal/modules/weather/types"
)

var (
	// ErrPayload means the body was not a JSON object of the expected shape.
	ErrPayload = errors.New("weather payload is malformed")
	// ErrUpstream means the payload carried a non-empty "error" field.
	ErrUpstream = errors.New("weather source reported an error")
	// ErrMissingField means the forecast payload had no "forecast" list.
	ErrMissingField = errors.New("weather payload is missing the forecast field")
)

// CurrentPayload is the body of GET /api/weather/{lat}/{lon}.
type CurrentPayload struct {
	types.Conditions
}

// ForecastPayload is the body of GET /api/forecast/{lat}/{lon}.
type ForecastPayload struct {
	Forecast []types.ForecastEntry `json:"forecast"`
}

// NewForecastPayload wraps entries so that an empty forecast encodes as [] and
// not null.
func NewForecastPayload(entries []types.ForecastEntry) ForecastPayload {
	if entries == nil {
		entries = []types.ForecastEntry{}
	}
	return ForecastPayload{Forecast: entries}
}

type currentEnvelope struct {
	Error *string `json:"error"`
	types.Conditions
}

type forecastEnvelope struct {
	Error    *string                `json:"error"`
	Forecast *[]types.ForecastEntry `json:"forecast"`
}

// DecodeCurrent parses a single-reading payload. Absent or null metrics stay nil.
func DecodeCurrent(r io.Reader) (CurrentPayload, error) {
	var env *currentEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return CurrentPayload{}, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	if env == nil {
		return CurrentPayload{}, fmt.Errorf("%w: null body", ErrPayload)
	}
	if env.Error != nil && *env.Error != "" {
		return CurrentPayload{}, fmt.Errorf("%w: %s", ErrUpstream, *env.Error)
	}
	return CurrentPayload{Conditions: env.Conditions}, nil
}

// DecodeForecast parses a forecast payload. An empty list is valid; a missing
// or null list is ErrMissingField.
func DecodeForecast(r io.Reader) (ForecastPayload, error) {
	var env *forecastEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return ForecastPayload{}, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	if env == nil {
		return ForecastPayload{}, fmt.Errorf("%w: null body", ErrPayload)
	}
	if env.Error != nil && *env.Error != "" {
		return ForecastPayload{}, fmt.Errorf("%w: %s", ErrUpstream, *env.Error)
	}
	if env.Forecast == nil {
		return ForecastPayload{}, ErrMissingField
	}
	return NewForecastPayload(*env.Forecast), nil
}
