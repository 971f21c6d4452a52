package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"cragcast/internal/modules/crags/types"
	weathertypes "cragcast/internal/modules/weather/types"
)

//go:embed sql/list-crags.sql
var listCragsSQL string

//go:embed sql/count-crags.sql
var countCragsSQL string

//go:embed sql/get-crag.sql
var getCragSQL string

//go:embed sql/list-routes.sql
var listRoutesSQL string

//go:embed sql/filter-options.sql
var filterOptionsSQL string

//go:embed sql/list-locations.sql
var listLocationsSQL string

//go:embed sql/insert-crag.sql
var insertCragSQL string

//go:embed sql/insert-route.sql
var insertRouteSQL string

//go:embed sql/delete-catalogue.sql
var deleteCatalogueSQL string

type CragRepository interface {
	ListCrags(ctx context.Context, filter types.CragFilter) ([]types.Crag, error)
	CountCrags(ctx context.Context, filter types.CragFilter) (int, error)
	FilterOptions(ctx context.Context) (types.FilterOptions, error)
	// GetCrag returns ok=false when no crag has the id.
	GetCrag(ctx context.Context, id int64) (crag types.Crag, ok bool, err error)
	// ListRoutes returns the crag's named routes in catalogue order.
	ListRoutes(ctx context.Context, cragID int64) ([]types.Route, error)
	// ReplaceAll swaps the whole catalogue in one transaction.
	ReplaceAll(ctx context.Context, crags []types.CragWithRoutes) error
	// Locations lists the distinct crag coordinates, one per location key.
	Locations(ctx context.Context) ([]weathertypes.Location, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) CragRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) ListCrags(ctx context.Context, filter types.CragFilter) ([]types.Crag, error) {
	where, args := buildWhere(filter)
	query := listCragsSQL + where + buildOrderBy(filter)
	if filter.Limit > 0 {
		query += "\nLIMIT ? OFFSET ?"
		args = append(args, filter.Limit, max(filter.Offset, 0))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list crags: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close crags rows", "error", err)
		}
	}()

	var out []types.Crag
	for rows.Next() {
		var c types.Crag
		if err := scanCrag(rows, &c); err != nil {
			return nil, fmt.Errorf("scan crag: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) CountCrags(ctx context.Context, filter types.CragFilter) (int, error) {
	where, args := buildWhere(filter)
	var n int
	if err := r.db.QueryRowContext(ctx, countCragsSQL+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count crags: %w", err)
	}
	return n, nil
}

func (r *repositoryImpl) FilterOptions(ctx context.Context) (types.FilterOptions, error) {
	rows, err := r.db.QueryContext(ctx, filterOptionsSQL)
	if err != nil {
		return types.FilterOptions{}, fmt.Errorf("filter options: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close filter option rows", "error", err)
		}
	}()

	var opts types.FilterOptions
	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return types.FilterOptions{}, fmt.Errorf("scan filter option: %w", err)
		}
		switch kind {
		case "country":
			opts.Countries = append(opts.Countries, value)
		case "county":
			opts.Counties = append(opts.Counties, value)
		case "rocktype":
			opts.RockTypes = append(opts.RockTypes, value)
		case "type":
			opts.RouteTypes = append(opts.RouteTypes, value)
		}
	}
	return opts, rows.Err()
}

func (r *repositoryImpl) GetCrag(ctx context.Context, id int64) (types.Crag, bool, error) {
	var c types.Crag
	err := scanCrag(r.db.QueryRowContext(ctx, getCragSQL, id), &c)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Crag{}, false, nil
	}
	if err != nil {
		return types.Crag{}, false, fmt.Errorf("get crag %d: %w", id, err)
	}
	return c, true, nil
}

func (r *repositoryImpl) ListRoutes(ctx context.Context, cragID int64) ([]types.Route, error) {
	rows, err := r.db.QueryContext(ctx, listRoutesSQL, cragID)
	if err != nil {
		return nil, fmt.Errorf("list routes of crag %d: %w", cragID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close routes rows", "error", err)
		}
	}()

	var out []types.Route
	for rows.Next() {
		var rt types.Route
		if err := rows.Scan(&rt.Position, &rt.Sector, &rt.Name, &rt.Type, &rt.Grade, &rt.SafetyGrade); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) ReplaceAll(ctx context.Context, crags []types.CragWithRoutes) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("rollback import", "error", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteCatalogueSQL); err != nil {
		return fmt.Errorf("clear catalogue: %w", err)
	}

	cragStmt, err := tx.PrepareContext(ctx, insertCragSQL)
	if err != nil {
		return fmt.Errorf("prepare crag insert: %w", err)
	}
	defer cragStmt.Close()
	routeStmt, err := tx.PrepareContext(ctx, insertRouteSQL)
	if err != nil {
		return fmt.Errorf("prepare route insert: %w", err)
	}
	defer routeStmt.Close()

	for _, c := range crags {
		if _, err = cragStmt.ExecContext(ctx, c.ID, c.Name, c.Country, c.County, c.Latitude, c.Longitude, c.RockType); err != nil {
			return fmt.Errorf("insert crag %d: %w", c.ID, err)
		}
		for _, rt := range c.Routes {
			if _, err = routeStmt.ExecContext(ctx, c.ID, rt.Position, rt.Sector, rt.Name, rt.Type, rt.Grade, rt.SafetyGrade); err != nil {
				return fmt.Errorf("insert route %q of crag %d: %w", rt.Name, c.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func (r *repositoryImpl) Locations(ctx context.Context) ([]weathertypes.Location, error) {
	rows, err := r.db.QueryContext(ctx, listLocationsSQL)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close location rows", "error", err)
		}
	}()

	seen := make(map[string]bool)
	var out []weathertypes.Location
	for rows.Next() {
		var loc weathertypes.Location
		if err := rows.Scan(&loc.Latitude, &loc.Longitude); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		if seen[loc.Key()] {
			continue
		}
		seen[loc.Key()] = true
		out = append(out, loc)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCrag(s scanner, c *types.Crag) error {
	return s.Scan(&c.ID, &c.Name, &c.Country, &c.County, &c.Latitude, &c.Longitude, &c.RockType, &c.RoutesCount)
}
