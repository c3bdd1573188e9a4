package directory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/automuseums-gpx/internal/cache"
	"github.com/JakeFAU/automuseums-gpx/internal/model"
	"github.com/JakeFAU/automuseums-gpx/internal/parser"
)

const (
	homepageKey   = "homepage.html"
	homepagePath  = "/homepage"
	countriesRoot = "countries"
	museumsDir    = "museums"
	pagePattern   = "[0-9]*.html"

	tierHomepage = "homepage"
	tierIndex    = "index"
	tierMuseum   = "museum"
)

// Fetcher downloads a page body.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Config holds the site root and per-tier cache policy.
type Config struct {
	BaseURL       string
	HomepageTTL   time.Duration
	IndexTTL      time.Duration
	MuseumTTL     time.Duration
	MaxIndexPages int
}

// Directory loads countries, listings and museums through the cache.
type Directory struct {
	cfg     Config
	store   *cache.Store
	fetcher Fetcher
	logger  *zap.Logger
}

// New creates a Directory.
func New(cfg Config, store *cache.Store, fetcher Fetcher, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxIndexPages <= 0 {
		cfg.MaxIndexPages = 100
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Directory{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Countries loads the homepage and returns its countries in page order, each
// with the modification time of its first listing page cache file.
func (d *Directory) Countries(ctx context.Context) ([]model.Country, error) {
	body, state, err := d.store.GetOrFetch(ctx, homepageKey, d.cfg.HomepageTTL,
		d.download(d.cfg.BaseURL+homepagePath),
		cache.WithTier(tierHomepage),
	)
	if err != nil {
		return nil, fmt.Errorf("load homepage: %w", err)
	}
	d.logger.Info("loaded country list", zap.Stringer("cache", state))

	countries, err := parser.Countries(body, d.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse homepage: %w", err)
	}
	for i := range countries {
		c := &countries[i]
		c.CachePath = countryDir(c.Name)
		modTime, ok, err := d.store.ModTime(firstPageKey(c.CachePath))
		if err != nil {
			return nil, fmt.Errorf("probe %s listing cache: %w", c.Name, err)
		}
		if ok {
			c.CacheTimestamp = modTime
		}
	}
	return countries, nil
}

// Index returns every listing of the country across all its pages, in page
// order and not deduplicated.
func (d *Directory) Index(ctx context.Context, country model.Country) ([]model.MuseumListing, error) {
	if country.CachePath == "" {
		country.CachePath = countryDir(country.Name)
	}
	logger := d.logger.With(zap.String("country", country.Name))
	if err := d.store.EnsureDir(country.CachePath); err != nil {
		return nil, err
	}

	opts := []cache.Option{cache.WithTier(tierIndex)}
	if !country.NeverCached() {
		opts = append(opts, cache.WithTimestamp(country.CacheTimestamp))
	}
	state, age, err := d.store.Freshness(firstPageKey(country.CachePath), d.cfg.IndexTTL, opts...)
	if err != nil {
		return nil, err
	}

	if state == cache.StateFresh {
		listings, n, err := d.cachedIndex(country)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			logger.Info("loaded cached index",
				zap.Int("pages", n),
				zap.Duration("age", age.Truncate(time.Minute)),
			)
			return listings, nil
		}
	}

	logger.Info("downloading index", zap.Stringer("cache", state))
	return d.downloadIndex(ctx, country, logger)
}

// IndexTime is the modification time of the country's first listing page
// cache file, or the zero time when the listing was never cached.
func (d *Directory) IndexTime(country model.Country) (time.Time, error) {
	if country.CachePath == "" {
		country.CachePath = countryDir(country.Name)
	}
	modTime, ok, err := d.store.ModTime(firstPageKey(country.CachePath))
	if err != nil || !ok {
		return time.Time{}, err
	}
	return modTime, nil
}

// Museum loads and parses a museum page cached under slug.
func (d *Directory) Museum(
	ctx context.Context,
	country model.Country,
	listing model.MuseumListing,
	slug string,
) (model.Museum, error) {
	if country.CachePath == "" {
		country.CachePath = countryDir(country.Name)
	}
	key := museumKey(country.CachePath, slug)
	body, state, err := d.store.GetOrFetch(ctx, key, d.cfg.MuseumTTL,
		d.download(listing.AbsoluteURL),
		cache.WithTier(tierMuseum),
	)
	if err != nil {
		return model.Museum{}, fmt.Errorf("load museum %q: %w", listing.Name, err)
	}
	detail, err := parser.Museum(body)
	if err != nil {
		return model.Museum{}, fmt.Errorf("parse museum %q (%s): %w", listing.Name, key, err)
	}
	d.logger.Debug("loaded museum",
		zap.String("country", country.Name),
		zap.String("museum", listing.Name),
		zap.Stringer("cache", state),
		zap.Int("coordinates", len(detail.Coordinates)),
	)
	return model.Museum{Listing: listing, Detail: detail, CachePath: key}, nil
}

func (d *Directory) cachedIndex(country model.Country) ([]model.MuseumListing, int, error) {
	keys, err := d.store.Glob(country.CachePath + "/" + pagePattern)
	if err != nil {
		return nil, 0, err
	}
	sortPageKeys(keys)
	var listings []model.MuseumListing
	for _, key := range keys {
		body, err := d.store.Read(key)
		if err != nil {
			return nil, 0, err
		}
		page, err := parser.Listings(body, d.cfg.BaseURL)
		if err != nil {
			return nil, 0, fmt.Errorf("parse %s: %w", key, err)
		}
		listings = append(listings, page.Listings...)
	}
	return listings, len(keys), nil
}

func (d *Directory) downloadIndex(
	ctx context.Context,
	country model.Country,
	logger *zap.Logger,
) ([]model.MuseumListing, error) {
	removed, err := d.store.RemoveGlob(country.CachePath + "/" + pagePattern)
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		logger.Debug("deleted old index pages", zap.Int("count", removed))
	}

	var listings []model.MuseumListing
	pages := 0
	for page, err := range Pages(ctx, d.cfg.MaxIndexPages, d.loadIndexPage(country)) {
		if errors.Is(err, ErrPageLimit) {
			logger.Warn("stopped following next page links", zap.Error(err))
			break
		}
		if err != nil {
			return nil, fmt.Errorf("download %s index: %w", country.Name, err)
		}
		pages++
		listings = append(listings, page.Listings...)
	}
	logger.Info("downloaded index", zap.Int("pages", pages), zap.Int("listings", len(listings)))
	return listings, nil
}

func (d *Directory) loadIndexPage(country model.Country) PageFunc {
	return func(ctx context.Context, n int) (Page, error) {
		target, err := pageURL(country.AbsoluteURL, n)
		if err != nil {
			return Page{}, err
		}
		body, err := d.fetcher.Get(ctx, target)
		if err != nil {
			return Page{}, err
		}
		if err := d.store.Write(pageKey(country.CachePath, n), body); err != nil {
			return Page{}, err
		}
		parsed, err := parser.Listings(body, d.cfg.BaseURL)
		if err != nil {
			return Page{}, err
		}
		return Page{Number: n, Listings: parsed.Listings, HasNext: parsed.HasNext}, nil
	}
}

func (d *Directory) download(rawURL string) cache.FetchFunc {
	return func(ctx context.Context) ([]byte, error) {
		return d.fetcher.Get(ctx, rawURL)
	}
}

func pageURL(listingURL string, n int) (string, error) {
	u, err := url.Parse(listingURL)
	if err != nil {
		return "", fmt.Errorf("parse listing url %q: %w", listingURL, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// countryDir is the cache directory of a country. Path separators in the
// name would split it into nested directories.
func countryDir(name string) string {
	return countriesRoot + "/" + strings.NewReplacer("/", "_", `\`, "_").Replace(name)
}

func pageKey(countryDir string, n int) string {
	return fmt.Sprintf("%s/%02d.html", countryDir, n)
}

// pageNumber parses the page number of a numbered page key.
func pageNumber(key string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSuffix(path.Base(key), ".html"))
	return n, err == nil
}

// sortPageKeys orders page keys by page number. Past page 99 the numbers
// outgrow the zero padding and string order no longer matches.
func sortPageKeys(keys []string) {
	slices.SortStableFunc(keys, func(a, b string) int {
		na, okA := pageNumber(a)
		nb, okB := pageNumber(b)
		switch {
		case okA && okB:
			return cmp.Compare(na, nb)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
}

func firstPageKey(countryDir string) string {
	return pageKey(countryDir, 0)
}

func museumKey(countryDir, slug string) string {
	return countryDir + "/" + museumsDir + "/" + slug + ".html"
}
