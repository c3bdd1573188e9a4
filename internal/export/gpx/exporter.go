// Package gpxexport writes one GPX waypoint document per country.
//
// Every coordinate of a museum becomes its own waypoint, so museums with
// several locations appear once per location. Museums without coordinates
// are skipped.
package gpxexport

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/tkrajina/gpxgo/gpx"
	"go.uber.org/zap"

	"github.com/JakeFAU/automuseums-gpx/internal/hash/sha256"
	"github.com/JakeFAU/automuseums-gpx/internal/metrics"
	"github.com/JakeFAU/automuseums-gpx/internal/model"
)

// WaypointSymbol is the GPX symbol of every museum waypoint.
const WaypointSymbol = "Museum"

// Config describes the document-level metadata.
type Config struct {
	// SiteName prefixes each document title.
	SiteName string
	// Creator is the URL of the generating tool.
	Creator string
}

// Result summarizes one written document.
type Result struct {
	Path      string
	Waypoints int
	// Skipped counts museums without coordinates.
	Skipped int
	// Unchanged is set when the file already held identical content.
	Unchanged bool
}

// Exporter renders and writes country documents.
type Exporter struct {
	fs      afero.Fs
	cfg     Config
	hasher  *sha256.Hasher
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates an Exporter writing into fsys.
func New(fsys afero.Fs, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		fs:      fsys,
		cfg:     cfg,
		hasher:  sha256.New(),
		logger:  logger,
		metrics: m,
	}
}

// NewOnDisk creates an Exporter writing into dir, creating it if needed.
func NewOnDisk(dir string, cfg Config, logger *zap.Logger, m *metrics.Metrics) (*Exporter, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return New(afero.NewBasePathFs(osFs, dir), cfg, logger, m), nil
}

// Document builds the GPX document of a country. generated is recorded as the
// document time.
func (e *Exporter) Document(index model.CountryIndex, generated time.Time) (*gpx.GPX, int) {
	stamp := generated.UTC()
	doc := &gpx.GPX{
		Version:     "1.1",
		Creator:     e.cfg.Creator,
		Name:        fmt.Sprintf("%s: %s", e.cfg.SiteName, index.Country.Name),
		Description: "Generated using " + e.cfg.Creator,
		Link:        index.Country.AbsoluteURL,
		Time:        &stamp,
	}

	skipped := 0
	for _, museum := range index.Museums {
		if len(museum.Detail.Coordinates) == 0 {
			skipped++
			e.logger.Warn("museum has no coordinates, no waypoint written",
				zap.String("country", index.Country.Name),
				zap.String("museum", museum.Listing.Name),
			)
			continue
		}
		for _, c := range museum.Detail.Coordinates {
			doc.Waypoints = append(doc.Waypoints, gpx.GPXPoint{
				Point: gpx.Point{
					Latitude:  c.Lat,
					Longitude: c.Lon,
				},
				Name:        museum.Listing.Name,
				Description: museum.Detail.Description,
				Source:      museum.Listing.AbsoluteURL,
				Symbol:      WaypointSymbol,
			})
		}
	}
	return doc, skipped
}

// Write renders the country document to "<country>.gpx". When the file
// already has the same content it is left untouched.
func (e *Exporter) Write(index model.CountryIndex, generated time.Time) (Result, error) {
	doc, skipped := e.Document(index, generated)
	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return Result{}, fmt.Errorf("render %s gpx: %w", index.Country.Name, err)
	}

	result := Result{
		Path:      FileName(index.Country.Name),
		Waypoints: len(doc.Waypoints),
		Skipped:   skipped,
	}
	existing, err := afero.ReadFile(e.fs, result.Path)
	switch {
	case err == nil && e.hasher.Equal(existing, data):
		result.Unchanged = true
	case err == nil || errors.Is(err, fs.ErrNotExist):
		if err := afero.WriteFile(e.fs, result.Path, data, 0o644); err != nil {
			return Result{}, fmt.Errorf("write %s: %w", result.Path, err)
		}
	default:
		return Result{}, fmt.Errorf("read existing %s: %w", result.Path, err)
	}

	e.metrics.ObserveWaypoints(index.Country.Name, result.Waypoints)
	e.logger.Info("generated",
		zap.String("file", result.Path),
		zap.Int("waypoints", result.Waypoints),
		zap.Int("skipped", result.Skipped),
		zap.Bool("unchanged", result.Unchanged),
	)
	return result, nil
}

// FileName is the output file of a country.
func FileName(country string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(country) + ".gpx"
}
