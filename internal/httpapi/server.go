package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"cragcast/internal/config"
	"cragcast/internal/observability"
)

func NewServer(cfg config.Config, mux *http.ServeMux, logger *slog.Logger, metrics *observability.Metrics) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(mux, logger, metrics),
		ReadHeaderTimeout: 10 * time.Second,
		// Partial handlers may wait on Open-Meteo for the full client timeout.
		WriteTimeout: cfg.OpenMeteoTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
