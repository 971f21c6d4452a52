package controller

import (
	"log/slog"
	"net/http"

	"cragcast/internal/modules/weather/views"
	"cragcast/internal/observability"
)

type WeatherController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type weatherControllerImpl struct {
	service views.WeatherService
	source  views.Source
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWeatherController serves the weather JSON endpoints from service and the
// HTML panels from source. metrics may be nil.
func NewWeatherController(service views.WeatherService, source views.Source, metrics *observability.Metrics, logger *slog.Logger) WeatherController {
	if logger == nil {
		logger = slog.Default()
	}
	return &weatherControllerImpl{
		service: service,
		source:  source,
		metrics: metrics,
		logger:  logger.With("component", "weather-http"),
	}
}

func (c *weatherControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/weather/{lat}/{lon}", c.handleCurrent)
	mux.HandleFunc("GET /api/forecast/{lat}/{lon}", c.handleForecast)
	mux.HandleFunc("GET /partials/weather/{lat}/{lon}", c.handleCurrentPartial)
	mux.HandleFunc("GET /partials/forecast/{lat}/{lon}", c.handleForecastPartial)
}
