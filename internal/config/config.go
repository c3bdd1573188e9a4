// Package config loads and validates scraper configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config captures all configuration knobs of a run.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Output  OutputConfig  `mapstructure:"output"`
	Run     RunConfig     `mapstructure:"run"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// SiteConfig describes the directory site and how politely to crawl it.
type SiteConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	Name              string  `mapstructure:"name"`
	UserAgent         string  `mapstructure:"user_agent"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	RespectRobots     bool    `mapstructure:"respect_robots"`
}

// CacheConfig sets the cache location and the max age of each tier.
type CacheConfig struct {
	Dir                string `mapstructure:"dir"`
	HomepageTTLMinutes int    `mapstructure:"homepage_ttl_minutes"`
	IndexTTLHours      int    `mapstructure:"index_ttl_hours"`
	MuseumTTLHours     int    `mapstructure:"museum_ttl_hours"`
	MaxIndexPages      int    `mapstructure:"max_index_pages"`
}

// OutputConfig controls where GPX documents go.
type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	Creator string `mapstructure:"creator"`
}

// RunConfig selects the countries of a run.
type RunConfig struct {
	Country    string `mapstructure:"country"`
	LowProfile bool   `mapstructure:"low_profile"`
}

// LoggingConfig toggles zap development features and debug dumps.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
	Verbose     bool `mapstructure:"verbose"`
}

// MetricsConfig points at an optional node_exporter textfile.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"country":          "run.country",
	"lowprofile":       "run.low_profile",
	"homepage-ttl":     "cache.homepage_ttl_minutes",
	"index-ttl":        "cache.index_ttl_hours",
	"museum-ttl":       "cache.museum_ttl_hours",
	"verbose":          "logging.verbose",
	"cache-dir":        "cache.dir",
	"output-dir":       "output.dir",
	"metrics-textfile": "metrics.textfile",
}

// Load builds a Config from defaults, a config file, the environment and the
// given flags, in increasing precedence. With an empty path, automuseums.*
// is looked up in the working directory and ~/.automuseums-gpx and may be
// absent. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AUTOMUSEUMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("automuseums")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.automuseums-gpx")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}
	if err := bindFlags(v, flags); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", "https://automuseums.info")
	v.SetDefault("site.name", "Automuseums.info")
	v.SetDefault("site.user_agent", "automuseums-gpx/1.0 (+https://github.com/JakeFAU/automuseums-gpx)")
	v.SetDefault("site.timeout_seconds", 30)
	v.SetDefault("site.requests_per_second", 1.0)
	v.SetDefault("site.burst", 1)
	v.SetDefault("site.respect_robots", true)
	v.SetDefault("cache.dir", "cache")
	v.SetDefault("cache.homepage_ttl_minutes", 55)
	v.SetDefault("cache.index_ttl_hours", 24)
	v.SetDefault("cache.museum_ttl_hours", 48)
	v.SetDefault("cache.max_index_pages", 100)
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.creator", "https://github.com/JakeFAU/automuseums-gpx")
	v.SetDefault("run.country", "")
	v.SetDefault("run.low_profile", false)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.verbose", false)
	v.SetDefault("metrics.textfile", "")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute URL, got %q", c.Site.BaseURL)
	}
	if c.Site.TimeoutSeconds <= 0 {
		return fmt.Errorf("site.timeout_seconds must be > 0")
	}
	if c.Site.RequestsPerSecond < 0 {
		return fmt.Errorf("site.requests_per_second must be >= 0")
	}
	if strings.TrimSpace(c.Cache.Dir) == "" {
		return fmt.Errorf("cache.dir must be set")
	}
	if c.Cache.HomepageTTLMinutes <= 0 {
		return fmt.Errorf("cache.homepage_ttl_minutes must be > 0")
	}
	if c.Cache.IndexTTLHours <= 0 {
		return fmt.Errorf("cache.index_ttl_hours must be > 0")
	}
	if c.Cache.MuseumTTLHours <= 0 {
		return fmt.Errorf("cache.museum_ttl_hours must be > 0")
	}
	if c.Cache.MaxIndexPages <= 0 || c.Cache.MaxIndexPages > 1000 {
		return fmt.Errorf("cache.max_index_pages must be between 1 and 1000")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir must be set")
	}
	return nil
}

// HomepageTTL is the max age of the cached homepage.
func (c CacheConfig) HomepageTTL() time.Duration {
	return time.Duration(c.HomepageTTLMinutes) * time.Minute
}

// IndexTTL is the max age of a country's cached listing pages.
func (c CacheConfig) IndexTTL() time.Duration {
	return time.Duration(c.IndexTTLHours) * time.Hour
}

// MuseumTTL is the max age of a cached museum page.
func (c CacheConfig) MuseumTTL() time.Duration {
	return time.Duration(c.MuseumTTLHours) * time.Hour
}

// Timeout is the per-request HTTP timeout.
func (c SiteConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
