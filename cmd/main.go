package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cragcast/internal/app"
	"cragcast/internal/config"
	"cragcast/internal/logging"
)

const (
	appName = "cragcast"
	// Default version is "dev" if not set with -ldflags "-X main.version=..."
	version = "dev"
)

func main() {
	// A missing .env is fine; real environment variables always win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           appName,
		Short:         "Crag catalogue with live climbing conditions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve, newMigrateCmd(), newImportCmd(), newConditionsCmd())
	return root
}

// setup loads the environment config and installs the process logger.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config error: %w", err)
	}
	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI and weather API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			logger.Info("starting",
				"app", appName,
				"version", version,
				"env", cfg.AppEnv,
				"log_level", cfg.LogLevel.String(),
			)
			err = app.Run(cmd.Context(), cfg, logger)
			logger.Info("shutting down")
			return err
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			return app.Migrate(cmd.Context(), cfg, logger)
		},
	}
}

func newImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the crag catalogue from a CSV export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			res, err := app.Import(cmd.Context(), cfg, logger, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d crags, %d routes\n", res.Crags, res.Routes)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the crag CSV")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newConditionsCmd() *cobra.Command {
	var opts app.ConditionsOptions
	cmd := &cobra.Command{
		Use:   "conditions",
		Short: "Print classified conditions for a coordinate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			return app.Conditions(cmd.Context(), cfg, logger, cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().Float64Var(&opts.Lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&opts.Lon, "lon", 0, "longitude in degrees")
	cmd.Flags().BoolVar(&opts.Forecast, "forecast", false, "print the hourly forecast instead of current conditions")
	cmd.Flags().StringVar(&opts.APIURL, "api", "", "base URL of a running server, e.g. http://localhost:8080")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
