// Package importer loads the crag catalogue from the crag CSV export: one row
// per route with the crag columns repeated on every row.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"cragcast/internal/modules/crags/types"
)

// Columns of the CSV export. The first four are required.
const (
	colCragID      = "crag_id"
	colCragName    = "crag_name"
	colLatitude    = "latitude"
	colLongitude   = "longitude"
	colCountry     = "country"
	colCounty      = "county"
	colRockType    = "rocktype"
	colSector      = "sector_name"
	colRouteName   = "route_name"
	colRouteType   = "type"
	colGrade       = "difficulty_grade"
	colSafetyGrade = "safety_grade"
)

var requiredColumns = []string{colCragID, colCragName, colLatitude, colLongitude}

// nameColumns are taken verbatim; a crag or route may really be called "Nan".
var nameColumns = map[string]bool{colCragName: true, colRouteName: true}

var ErrMissingColumn = errors.New("csv is missing a required column")

// CatalogueWriter replaces the stored catalogue, implemented by the crag repository.
type CatalogueWriter interface {
	ReplaceAll(ctx context.Context, crags []types.CragWithRoutes) error
}

type Result struct {
	Crags  int
	Routes int
}

type Importer struct {
	writer CatalogueWriter
	logger *slog.Logger
}

func NewImporter(writer CatalogueWriter, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{writer: writer, logger: logger.With("component", "importer")}
}

func (i *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return i.Import(ctx, f)
}

// Import parses the CSV and replaces the catalogue with it. Nothing is written
// when parsing fails.
func (i *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	crags, err := Parse(r)
	if err != nil {
		return Result{}, err
	}

	res := Result{Crags: len(crags)}
	for _, c := range crags {
		res.Routes += len(c.Routes)
	}
	if err := i.writer.ReplaceAll(ctx, crags); err != nil {
		return Result{}, err
	}
	i.logger.Info("catalogue imported", "crags", res.Crags, "routes", res.Routes)
	return res, nil
}

// Parse groups route rows by crag_id, keeping crags and their routes in file
// order. Crag attributes come from the crag's first row.
func Parse(r io.Reader) ([]types.CragWithRoutes, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var (
		out   []types.CragWithRoutes
		index = make(map[int64]int)
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		row := rowReader{cols: cols, record: record}

		id, err := parseID(row.get(colCragID))
		if err != nil {
			return nil, fmt.Errorf("line %d: crag_id: %w", line, err)
		}

		pos, seen := index[id]
		if !seen {
			crag, err := parseCrag(id, row)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			pos = len(out)
			index[id] = pos
			out = append(out, types.CragWithRoutes{Crag: crag})
		}

		routes := out[pos].Routes
		out[pos].Routes = append(routes, types.Route{
			Position:    len(routes),
			Sector:      row.get(colSector),
			Name:        row.get(colRouteName),
			Type:        row.get(colRouteType),
			Grade:       row.get(colGrade),
			SafetyGrade: row.get(colSafetyGrade),
		})
	}
	return out, nil
}

func parseCrag(id int64, row rowReader) (types.Crag, error) {
	lat, err := parseCoordinate(row.get(colLatitude), 90)
	if err != nil {
		return types.Crag{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := parseCoordinate(row.get(colLongitude), 180)
	if err != nil {
		return types.Crag{}, fmt.Errorf("longitude: %w", err)
	}
	name := row.get(colCragName)
	if name == "" {
		return types.Crag{}, errors.New("crag_name is empty")
	}
	return types.Crag{
		ID:        id,
		Name:      name,
		Country:   row.get(colCountry),
		County:    row.get(colCounty),
		Latitude:  lat,
		Longitude: lon,
		RockType:  row.get(colRockType),
	}, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

type rowReader struct {
	cols   map[string]int
	record []string
}

// get returns the trimmed cell, or "" when the column or cell is absent. The
// missing-value markers "nan" and "NaN" also read as "" outside nameColumns.
func (r rowReader) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	v := strings.TrimSpace(r.record[i])
	if (v == "nan" || v == "NaN") && !nameColumns[col] {
		return ""
	}
	return v
}

// parseID accepts integer ids, including float renderings such as "12.0".
func parseID(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
	if math.Abs(f) >= 1<<63 {
		return 0, fmt.Errorf("out of range: %q", s)
	}
	return int64(f), nil
}

func parseCoordinate(s string, limit float64) (float64, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.Abs(v) > limit {
		return 0, fmt.Errorf("%v out of range", v)
	}
	return v, nil
}
