// Package cmd defines the automuseums-gpx command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/automuseums-gpx/internal/app"
	"github.com/JakeFAU/automuseums-gpx/internal/clock"
	"github.com/JakeFAU/automuseums-gpx/internal/config"
	"github.com/JakeFAU/automuseums-gpx/internal/id/uuid"
	"github.com/JakeFAU/automuseums-gpx/internal/logging"
	"github.com/JakeFAU/automuseums-gpx/internal/metrics"
)

// newLogger is replaced in tests.
var newLogger = logging.New

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "automuseums-gpx",
		Short: "Export automuseums.info museums as GPX waypoints, one file per country.",
		Long: `automuseums-gpx reads the country list, the paginated museum listings and
every museum page of automuseums.info, caching each page on disk, and writes
one GPX waypoint document per country.

Cached pages are reused until they reach their tier's max age, so reruns only
download what went stale.

--country is checked against the homepage's country list. If the cached
homepage is missing or stale it is downloaded first, even when the name turns
out to be unknown.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runScrape,
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file (default is ./automuseums.yaml or ~/.automuseums-gpx/automuseums.yaml)")
	pf.String("cache-dir", "cache", "directory of cached pages")
	pf.Int("homepage-ttl", 55, "max age of the cached country list, in minutes")
	pf.Bool("verbose", false, "log listings and museum details")

	f := cmd.Flags()
	f.String("country", "", "only refresh this country")
	f.Bool("lowprofile", false, "only refresh the country with the oldest listing cache")
	f.Int("index-ttl", 24, "max age of cached listing pages, in hours")
	f.Int("museum-ttl", 48, "max age of cached museum pages, in hours")
	f.String("output-dir", "output", "directory of the GPX documents")
	f.String("metrics-textfile", "", "write run metrics to this node_exporter textfile")

	cmd.AddCommand(newCountriesCmd())
	return cmd
}

// setup loads the configuration for cmd and builds the logger.
func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(logging.Options{
		Development: cfg.Logging.Development,
		Verbose:     cfg.Logging.Verbose,
	})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runID := uuid.New().MustRunID()
	runner, err := app.New(cfg, clock.New(), metrics.New(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	report, err := runner.Run(cmd.Context(), runID)
	if err != nil {
		if app.IsUserError(err) {
			return err
		}
		return fmt.Errorf("%d of %d countries had failures: %w", report.Failed(), len(report.Countries), err)
	}
	return nil
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
