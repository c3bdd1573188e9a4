package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/JakeFAU/automuseums-gpx/internal/clock"
	"github.com/JakeFAU/automuseums-gpx/internal/directory"
	gpxexport "github.com/JakeFAU/automuseums-gpx/internal/export/gpx"
	"github.com/JakeFAU/automuseums-gpx/internal/metrics"
	"github.com/JakeFAU/automuseums-gpx/internal/model"
)

const (
	museumOK     = "ok"
	museumFailed = "failed"
)

// Source loads the directory through the cache.
type Source interface {
	Countries(ctx context.Context) ([]model.Country, error)
	Index(ctx context.Context, country model.Country) ([]model.MuseumListing, error)
	IndexTime(country model.Country) (time.Time, error)
	Museum(ctx context.Context, country model.Country, listing model.MuseumListing, slug string) (model.Museum, error)
}

// Sink writes a country document.
type Sink interface {
	Write(index model.CountryIndex, generated time.Time) (gpxexport.Result, error)
}

// Options tune a run.
type Options struct {
	Selection directory.Selection
	// MetricsTextfile, when set, receives the run metrics after the run.
	MetricsTextfile string
}

// CountryReport is the outcome of one country.
type CountryReport struct {
	Country  string
	Listings int
	Museums  int
	Failed   int
	Output   gpxexport.Result
	Err      error
}

// Report summarizes a run.
type Report struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Countries []CountryReport
}

// Failed counts countries that reported an error.
func (r Report) Failed() int {
	n := 0
	for _, c := range r.Countries {
		if c.Err != nil {
			n++
		}
	}
	return n
}

// Runner executes scrapes sequentially, one country at a time.
type Runner struct {
	source  Source
	sink    Sink
	opts    Options
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRunner wires a Runner. clk, m and logger may be nil.
func NewRunner(source Source, sink Sink, opts Options, clk clock.Clock, m *metrics.Metrics, logger *zap.Logger) *Runner {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		source:  source,
		sink:    sink,
		opts:    opts,
		clock:   clk,
		metrics: m,
		logger:  logger,
	}
}

// Run scrapes the selected countries. Failures of single museums or
// countries do not stop the run; they are combined into the returned error
// while healthy countries are still written.
//
// An unknown country fails before any listing or museum is requested. The
// valid names come from the homepage, so when its cache is missing or stale
// that one page is still downloaded before the name is rejected.
func (r *Runner) Run(ctx context.Context, runID string) (Report, error) {
	logger := r.logger.With(zap.String("run_id", runID))
	report := Report{RunID: runID, Started: r.clock.Now()}

	countries, err := r.source.Countries(ctx)
	if err != nil {
		return r.finish(report, logger, fmt.Errorf("load countries: %w", err))
	}
	selected, err := directory.Select(countries, r.opts.Selection)
	if err != nil {
		return r.finish(report, logger, err)
	}
	if r.opts.Selection.LowProfile && r.opts.Selection.Country == "" {
		logger.Info("low profile mode", zap.String("country", selected[0].Name))
	}
	logger.Info("selected countries", zap.Int("count", len(selected)), zap.Int("available", len(countries)))

	var errs error
	for _, country := range selected {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		cr := r.country(ctx, country, logger.With(zap.String("country", country.Name)))
		report.Countries = append(report.Countries, cr)
		errs = multierr.Append(errs, cr.Err)
	}
	return r.finish(report, logger, errs)
}

func (r *Runner) finish(report Report, logger *zap.Logger, err error) (Report, error) {
	report.Finished = r.clock.Now()
	r.metrics.ObserveRun(report.Started, report.Finished, err == nil)
	if werr := r.metrics.WriteTextfile(r.opts.MetricsTextfile); werr != nil {
		logger.Warn("metrics textfile not written", zap.Error(werr))
	}

	fields := []zap.Field{
		zap.Int("countries", len(report.Countries)),
		zap.Int("failed_countries", report.Failed()),
		zap.Duration("elapsed", report.Finished.Sub(report.Started)),
	}
	if err != nil {
		logger.Error("run finished with failures", append(fields, zap.Errors("failures", multierr.Errors(err)))...)
		return report, err
	}
	logger.Info("run finished", fields...)
	return report, nil
}

// country processes one country. Museum failures are collected and do not
// prevent the document from being written.
func (r *Runner) country(ctx context.Context, country model.Country, logger *zap.Logger) CountryReport {
	cr := CountryReport{Country: country.Name}

	all, err := r.source.Index(ctx, country)
	if err != nil {
		logger.Error("index failed, country skipped", zap.Error(err))
		cr.Err = fmt.Errorf("%s: %w", country.Name, err)
		return cr
	}
	listings := directory.Dedupe(all)
	cr.Listings = len(listings)
	logger.Info("listed museums", zap.Int("listings", len(all)), zap.Int("unique", len(listings)))
	logger.Debug("listings", zap.Any("listings", listings))

	index := model.CountryIndex{Country: country}
	slugs := directory.NewSlugSet()
	var errs error
	for i, listing := range listings {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		museum, err := r.source.Museum(ctx, country, listing, slugs.Assign(listing.RelativeURL))
		if err != nil {
			r.metrics.ObserveMuseum(museumFailed)
			cr.Failed++
			logger.Warn("museum skipped", zap.String("museum", listing.Name), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		r.metrics.ObserveMuseum(museumOK)
		index.Museums = append(index.Museums, museum)
		logger.Debug("museum",
			zap.Int("n", i+1),
			zap.Int("of", len(listings)),
			zap.Any("museum", museum),
		)
	}
	cr.Museums = len(index.Museums)
	logger.Info("loaded museums",
		zap.Int("museums", cr.Museums),
		zap.Int("failed", cr.Failed),
		zap.Int("coordinates", index.Waypoints()),
	)

	generated, err := r.documentTime(country)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	out, err := r.sink.Write(index, generated)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	cr.Output = out
	if errs != nil {
		cr.Err = fmt.Errorf("%s: %w", country.Name, errs)
	}
	return cr
}

// documentTime stamps a document with the listing download time, so
// documents built from the same cache are identical.
func (r *Runner) documentTime(country model.Country) (time.Time, error) {
	stamp, err := r.source.IndexTime(country)
	if err != nil {
		return r.clock.Now(), fmt.Errorf("listing time of %s: %w", country.Name, err)
	}
	if stamp.IsZero() {
		return r.clock.Now(), nil
	}
	return stamp, nil
}

// IsUserError reports whether err comes from invalid input rather than a
// failed download.
func IsUserError(err error) bool {
	return errors.Is(err, directory.ErrUnknownCountry)
}
