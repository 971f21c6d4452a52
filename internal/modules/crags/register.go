package crags

import (
	"database/sql"
	"net/http"

	"cragcast/internal/modules/crags/controller"
	"cragcast/internal/modules/crags/repository"
)

// RegisterFeature wires the crag pages onto mux. The returned repository also
// lists crag locations for the weather refresh job.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, opts controller.Options) repository.CragRepository {
	cragRepository := repository.NewRepository(db)
	cragController := controller.NewCragController(cragRepository, opts)
	cragController.RegisterRoutes(mux)
	return cragRepository
}
