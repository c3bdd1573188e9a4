package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/automuseums-gpx/internal/cache"
	"github.com/JakeFAU/automuseums-gpx/internal/clock"
	"github.com/JakeFAU/automuseums-gpx/internal/config"
	"github.com/JakeFAU/automuseums-gpx/internal/directory"
	gpxexport "github.com/JakeFAU/automuseums-gpx/internal/export/gpx"
	collyfetcher "github.com/JakeFAU/automuseums-gpx/internal/fetcher/colly"
	"github.com/JakeFAU/automuseums-gpx/internal/metrics"
	"github.com/JakeFAU/automuseums-gpx/internal/policy/ratelimit"
)

// NewDirectory builds the on-disk cache, the rate limited fetcher and the
// directory on top of them.
func NewDirectory(cfg config.Config, clk clock.Clock, m *metrics.Metrics, logger *zap.Logger) (*directory.Directory, error) {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := cache.NewOnDisk(cfg.Cache.Dir, clk, logger.Named("cache"), m)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.Site.RequestsPerSecond,
		Burst:             cfg.Site.Burst,
	})
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Site.UserAgent,
		RespectRobots: cfg.Site.RespectRobots,
		Timeout:       cfg.Site.Timeout(),
	}, limiter, m, logger.Named("fetcher"))

	return directory.New(directory.Config{
		BaseURL:       cfg.Site.BaseURL,
		HomepageTTL:   cfg.Cache.HomepageTTL(),
		IndexTTL:      cfg.Cache.IndexTTL(),
		MuseumTTL:     cfg.Cache.MuseumTTL(),
		MaxIndexPages: cfg.Cache.MaxIndexPages,
	}, store, fetcher, logger.Named("directory")), nil
}

// New builds a Runner backed by the disk cache and output directory.
func New(cfg config.Config, clk clock.Clock, m *metrics.Metrics, logger *zap.Logger) (*Runner, error) {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dir, err := NewDirectory(cfg, clk, m, logger)
	if err != nil {
		return nil, err
	}
	exporter, err := gpxexport.NewOnDisk(cfg.Output.Dir, gpxexport.Config{
		SiteName: cfg.Site.Name,
		Creator:  cfg.Output.Creator,
	}, logger.Named("export"), m)
	if err != nil {
		return nil, fmt.Errorf("init exporter: %w", err)
	}

	return NewRunner(dir, exporter, Options{
		Selection: directory.Selection{
			Country:    cfg.Run.Country,
			LowProfile: cfg.Run.LowProfile,
		},
		MetricsTextfile: cfg.Metrics.Textfile,
	}, clk, m, logger), nil
}
