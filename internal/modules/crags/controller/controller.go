package controller

import (
	"log/slog"
	"net/http"

	"cragcast/internal/modules/crags/repository"
)

type CragController interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Options configure the crag pages. Empty map settings fall back to
// OpenStreetMap tiles.
type Options struct {
	MapTileURL     string
	MapAttribution string
	Logger         *slog.Logger
}

type cragControllerImpl struct {
	repository     repository.CragRepository
	mapTileURL     string
	mapAttribution string
	logger         *slog.Logger
}

func NewCragController(repository repository.CragRepository, opts Options) CragController {
	if opts.MapTileURL == "" {
		opts.MapTileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	}
	if opts.MapAttribution == "" {
		opts.MapAttribution = "© OpenStreetMap contributors"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &cragControllerImpl{
		repository:     repository,
		mapTileURL:     opts.MapTileURL,
		mapAttribution: opts.MapAttribution,
		logger:         opts.Logger.With("component", "crags-http"),
	}
}

func (c *cragControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleIndex)
	mux.HandleFunc("GET /crags/{id}", c.handleCrag)
	mux.HandleFunc("GET /crags/{id}/routes", c.handleRoutes)
}
