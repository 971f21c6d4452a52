package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"cragcast/internal/adapter/openmeteo"
	"cragcast/internal/config"
	db "cragcast/internal/db"
	httpapi "cragcast/internal/httpapi"
	"cragcast/internal/migrate"
	crags "cragcast/internal/modules/crags"
	cragcontroller "cragcast/internal/modules/crags/controller"
	cragviews "cragcast/internal/modules/crags/views"
	weather "cragcast/internal/modules/weather"
	"cragcast/internal/modules/weather/service"
	weatherviews "cragcast/internal/modules/weather/views"
	"cragcast/internal/mqtt"
	"cragcast/internal/observability"
)

// Run serves the site until ctx is cancelled, then shuts down the refresh job,
// the MQTT publisher and the HTTP server in that order.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"openMeteoBaseURL", cfg.OpenMeteoBaseURL,
		"forecastDays", cfg.ForecastDays,
		"weatherCacheTTL", cfg.WeatherCacheTTL,
		"weatherRefreshCron", cfg.WeatherRefreshCron,
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
	)

	dbConn, err := openAndMigrate(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if err := weatherviews.LoadTemplates(); err != nil {
		return err
	}
	if err := cragviews.LoadTemplates(); err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	var publisher *mqtt.Publisher
	if cfg.MQTTEnabled {
		publisher = mqtt.NewPublisher(cfg, logger)
		// Short timeout so a missing broker does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err := publisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	ready := httpapi.ReadinessFunc(func(ctx context.Context) error {
		if err := dbConn.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if publisher != nil && !publisher.IsConnected() {
			return errors.New("mqtt not connected")
		}
		return nil
	})
	mux := httpapi.NewMux(dbConn, cfg.StaticDir, ready, logger)

	cragRepository := crags.RegisterFeature(mux, dbConn, cragcontroller.Options{
		MapTileURL:     cfg.MapTileURL,
		MapAttribution: cfg.MapAttribution,
		Logger:         logger,
	})

	opts := service.Options{
		SnapshotMaxAge: cfg.WeatherSnapshotMaxAge,
		FetchTimeout:   cfg.OpenMeteoTimeout,
		Locations:      cragRepository,
		Clock:          clock,
		Metrics:        metrics,
		Logger:         logger,
	}
	if publisher != nil {
		opts.Publisher = publisher
	}
	weatherService := weather.RegisterFeature(mux, dbConn, newProvider(cfg, clock, metrics, logger), opts)

	var scheduler *service.Scheduler
	if cfg.WeatherRefreshCron != "" {
		scheduler, err = service.NewScheduler(weatherService, cfg.WeatherRefreshCron, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
	}

	srv := httpapi.NewServer(cfg, mux, logger, metrics)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		logger.Info("weather refresh stopping")
		scheduler.Stop(shutdownCtx)
	}

	if publisher != nil {
		logger.Info("mqtt disconnecting")
		publisher.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// newProvider is the Open-Meteo client behind the in-memory forecast cache.
func newProvider(cfg config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) service.Provider {
	client := openmeteo.NewClient(cfg.OpenMeteoBaseURL, cfg.OpenMeteoTimeout, cfg.ForecastDays, clock, metrics, logger)
	return openmeteo.NewCachedProvider(client, cfg.WeatherCacheSize, cfg.WeatherCacheTTL, clock, metrics)
}

func openAndMigrate(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	applied, err := migrate.Run(ctx, dbConn, logger)
	if err != nil {
		_ = db.Close(dbConn)
		return nil, err
	}
	logger.Info("database ready", "migrationsApplied", applied)
	return dbConn, nil
}
