package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/jonboulle/clockwork"

	"cragcast/internal/config"
	db "cragcast/internal/db"
	"cragcast/internal/modules/crags/importer"
	cragrepository "cragcast/internal/modules/crags/repository"
	weatherrepository "cragcast/internal/modules/weather/repository"
	"cragcast/internal/modules/weather/service"
	weatherviews "cragcast/internal/modules/weather/views"
)

// Migrate applies pending schema migrations and exits.
func Migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	dbConn, err := openAndMigrate(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return db.Close(dbConn)
}

// Import replaces the crag catalogue with the rows of a CSV export.
func Import(ctx context.Context, cfg config.Config, logger *slog.Logger, path string) (importer.Result, error) {
	dbConn, err := openAndMigrate(ctx, cfg, logger)
	if err != nil {
		return importer.Result{}, err
	}
	defer func() { _ = db.Close(dbConn) }()

	imp := importer.NewImporter(cragrepository.NewRepository(dbConn), logger)
	return imp.ImportFile(ctx, path)
}

type ConditionsOptions struct {
	Lat      float64
	Lon      float64
	Forecast bool
	// APIURL points at a running server; empty queries Open-Meteo in-process.
	APIURL string
}

// Conditions prints the classified current reading or forecast for a
// coordinate. The payload goes through the same decoder as the page panels.
func Conditions(ctx context.Context, cfg config.Config, logger *slog.Logger, w io.Writer, opts ConditionsOptions) error {
	var src weatherviews.Source
	if opts.APIURL != "" {
		src = weatherviews.NewHTTPSource(opts.APIURL, cfg.OpenMeteoTimeout)
	} else {
		dbConn, err := openAndMigrate(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close(dbConn) }()

		// No metrics for one-shot commands.
		clock := clockwork.NewRealClock()
		svc := service.NewService(newProvider(cfg, clock, nil, logger), weatherrepository.NewRepository(dbConn), service.Options{
			SnapshotMaxAge: cfg.WeatherSnapshotMaxAge,
			Clock:          clock,
			Logger:         logger,
		})
		src = weatherviews.NewServiceSource(svc)
	}

	if opts.Forecast {
		body, err := src.Forecast(ctx, opts.Lat, opts.Lon)
		if err != nil {
			return err
		}
		payload, err := weatherviews.DecodeForecast(bytes.NewReader(body))
		if err != nil {
			return err
		}
		return printForecast(w, weatherviews.NewForecastTable(payload))
	}

	body, err := src.Current(ctx, opts.Lat, opts.Lon)
	if err != nil {
		return err
	}
	payload, err := weatherviews.DecodeCurrent(bytes.NewReader(body))
	if err != nil {
		return err
	}
	return printCurrent(w, weatherviews.NewCurrentCard(payload))
}

func printCurrent(w io.Writer, card weatherviews.CurrentCard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range card.Metrics {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Title, m.Cell.Text, m.Cell.Label)
	}
	return tw.Flush()
}

func printForecast(w io.Writer, table weatherviews.ForecastTable) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "Time")
	for _, row := range table.Rows {
		fmt.Fprintf(tw, "\t%s", row.Title)
	}
	fmt.Fprintln(tw)
	for i, header := range table.Headers {
		fmt.Fprint(tw, header)
		for _, row := range table.Rows {
			cell := row.Cells[i]
			fmt.Fprintf(tw, "\t%s (%s)", cell.Text, cell.Label)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
