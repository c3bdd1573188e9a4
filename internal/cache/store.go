package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/JakeFAU/automuseums-gpx/internal/clock"
	"github.com/JakeFAU/automuseums-gpx/internal/metrics"
)

// State is the freshness of a cached artifact.
type State int

const (
	// StateAbsent means no artifact exists for the key.
	StateAbsent State = iota
	// StateFresh means the artifact is younger than the max age.
	StateFresh
	// StateStale means the artifact reached the max age.
	StateStale
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	default:
		return "absent"
	}
}

// FetchFunc produces new content for a key on a miss.
type FetchFunc func(ctx context.Context) ([]byte, error)

// ErrInvalidKey is returned for empty keys and keys escaping the cache root.
var ErrInvalidKey = errors.New("invalid cache key")

type lookup struct {
	tier         string
	timestamp    time.Time
	hasTimestamp bool
}

// Option adjusts a single lookup.
type Option func(*lookup)

// WithTimestamp judges age from t instead of the artifact's modification
// time. A zero t means the artifact is treated as absent.
func WithTimestamp(t time.Time) Option {
	return func(l *lookup) {
		l.timestamp = t
		l.hasTimestamp = true
	}
}

// WithTier labels the lookup in logs and metrics.
func WithTier(tier string) Option {
	return func(l *lookup) {
		l.tier = tier
	}
}

// Store is a filesystem-backed cache. Keys are slash separated paths relative
// to the filesystem root.
type Store struct {
	fs      afero.Fs
	clock   clock.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a Store on top of fsys.
func New(fsys afero.Fs, clk clock.Clock, logger *zap.Logger, m *metrics.Metrics) *Store {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		fs:      fsys,
		clock:   clk,
		logger:  logger,
		metrics: m,
	}
}

// NewOnDisk creates a Store rooted at dir on the local filesystem, creating
// the directory and checking it is writable.
func NewOnDisk(dir string, clk clock.Clock, logger *zap.Logger, m *metrics.Metrics) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	osFs := afero.NewOsFs()
	info, err := osFs.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if mkErr := osFs.MkdirAll(dir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat cache directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("cache path %s is not a directory", dir)
	}

	testFile := filepath.Join(dir, ".writable_test")
	if err := afero.WriteFile(osFs, testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("cache directory is not writable: %w", err)
	}
	if err := osFs.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return New(afero.NewBasePathFs(osFs, dir), clk, logger, m), nil
}

// Freshness classifies the artifact at key against maxAge. The returned age
// is zero for absent artifacts.
func (s *Store) Freshness(key string, maxAge time.Duration, opts ...Option) (State, time.Duration, error) {
	name, err := cleanKey(key)
	if err != nil {
		return StateAbsent, 0, err
	}
	l := lookup{tier: "default"}
	for _, opt := range opts {
		opt(&l)
	}

	modTime := l.timestamp
	if !l.hasTimestamp {
		var ok bool
		modTime, ok, err = s.modTime(name)
		if err != nil {
			return StateAbsent, 0, err
		}
		if !ok {
			modTime = time.Time{}
		}
	}

	state := StateAbsent
	var age time.Duration
	if !modTime.IsZero() {
		age = s.clock.Now().Sub(modTime)
		state = StateStale
		if age < maxAge {
			state = StateFresh
		}
	}

	s.metrics.ObserveCache(l.tier, state.String())
	s.logger.Debug("cache lookup",
		zap.String("tier", l.tier),
		zap.String("key", key),
		zap.Stringer("state", state),
		zap.Duration("age", age.Truncate(time.Second)),
		zap.Duration("max_age", maxAge),
	)
	return state, age, nil
}

// GetOrFetch returns the cached content for key when it is fresh. Otherwise it
// calls fetch, persists the result under key and returns it along with the
// state the lookup found.
func (s *Store) GetOrFetch(
	ctx context.Context,
	key string,
	maxAge time.Duration,
	fetch FetchFunc,
	opts ...Option,
) ([]byte, State, error) {
	state, _, err := s.Freshness(key, maxAge, opts...)
	if err != nil {
		return nil, state, err
	}
	if state == StateFresh {
		data, err := s.Read(key)
		if err == nil {
			return data, state, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, state, err
		}
		// A pre-sampled timestamp can outlive the file it described.
		state = StateAbsent
	}

	data, err := fetch(ctx)
	if err != nil {
		return nil, state, fmt.Errorf("fetch %s: %w", key, err)
	}
	if err := s.Write(key, data); err != nil {
		return nil, state, err
	}
	return data, state, nil
}

// Read returns the content stored under key.
func (s *Store) Read(key string) ([]byte, error) {
	name, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, name)
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", key, err)
	}
	return data, nil
}

// Write stores data under key, creating parent directories on demand.
func (s *Store) Write(key string, data []byte) error {
	name, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(name), 0o750); err != nil {
		return fmt.Errorf("creating cache dir for %s: %w", key, err)
	}
	if err := afero.WriteFile(s.fs, name, data, 0o600); err != nil {
		return fmt.Errorf("writing cache %s: %w", key, err)
	}
	return nil
}

// EnsureDir creates the directory key and its parents.
func (s *Store) EnsureDir(key string) error {
	name, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(name, 0o750); err != nil {
		return fmt.Errorf("creating cache dir %s: %w", key, err)
	}
	return nil
}

// ModTime returns the modification time of key and whether it exists.
func (s *Store) ModTime(key string) (time.Time, bool, error) {
	name, err := cleanKey(key)
	if err != nil {
		return time.Time{}, false, err
	}
	return s.modTime(name)
}

// Glob returns the keys matching pattern in ascending order.
func (s *Store) Glob(pattern string) ([]string, error) {
	name, err := cleanKey(pattern)
	if err != nil {
		return nil, err
	}
	matches, err := afero.Glob(s.fs, name)
	if err != nil {
		return nil, fmt.Errorf("glob cache %s: %w", pattern, err)
	}
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		keys = append(keys, filepath.ToSlash(m))
	}
	sort.Strings(keys)
	return keys, nil
}

// RemoveGlob deletes every key matching pattern and returns how many were removed.
func (s *Store) RemoveGlob(pattern string) (int, error) {
	keys, err := s.Glob(pattern)
	if err != nil {
		return 0, err
	}
	for i, key := range keys {
		s.logger.Debug("deleting old cache file", zap.String("key", key))
		if err := s.fs.Remove(filepath.FromSlash(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return i, fmt.Errorf("remove cache %s: %w", key, err)
		}
	}
	return len(keys), nil
}

func (s *Store) modTime(name string) (time.Time, bool, error) {
	info, err := s.fs.Stat(name)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("stat cache %s: %w", name, err)
	}
	if info.IsDir() {
		return time.Time{}, false, fmt.Errorf("cache key %s is a directory", name)
	}
	return info.ModTime(), true, nil
}

// cleanKey converts a slash separated key to a filesystem name and rejects
// keys that escape the cache root.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	cleaned := path.Clean(filepath.ToSlash(key))
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q escapes cache root", ErrInvalidKey, key)
	}
	return filepath.FromSlash(cleaned), nil
}
