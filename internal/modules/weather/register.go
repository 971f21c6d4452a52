package weather

import (
	"database/sql"
	"net/http"

	"cragcast/internal/modules/weather/controller"
	"cragcast/internal/modules/weather/repository"
	"cragcast/internal/modules/weather/service"
	"cragcast/internal/modules/weather/views"
)

// RegisterFeature wires the weather module onto mux. The returned service is
// what the refresh scheduler and the CLI drive.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, provider service.Provider, opts service.Options) *service.Service {
	weatherRepository := repository.NewRepository(db)
	weatherService := service.NewService(provider, weatherRepository, opts)
	weatherController := controller.NewWeatherController(weatherService, views.NewServiceSource(weatherService), opts.Metrics, opts.Logger)
	weatherController.RegisterRoutes(mux)
	return weatherService
}
