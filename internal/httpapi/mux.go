package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMux returns the base mux with operational endpoints and static assets.
// Feature modules register their own routes on it.
func NewMux(db *sql.DB, staticDir string, ready ReadinessChecker, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, ready, logger)
	mux.Handle("GET /metrics", promhttp.Handler())
	if staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	return mux
}
