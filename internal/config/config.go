// # internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nisedo/Trackidity/internal/facts"
)

type Config struct {
	Version       int           `toml:"version"`
	FactsPath     string        `toml:"facts_path"`
	Analysis      Analysis      `toml:"analysis"`
	Dependencies  Dependencies  `toml:"dependencies"`
	Watch         Watch         `toml:"watch"`
	Output        Output        `toml:"output"`
	Alerts        Alerts        `toml:"alerts"`
	Observability Observability `toml:"observability"`
}

type Analysis struct {
	MaxDepth            int      `toml:"max_depth"`
	ExcludeDependencies *bool    `toml:"exclude_dependencies"`
	ExpandDependencies  bool     `toml:"expand_dependencies"`
	FilterPaths         []string `toml:"filter_paths"`
	Workers             int      `toml:"workers"`
}

type Dependencies struct {
	Dirs  []string `toml:"dirs"`
	Paths []string `toml:"paths"`
}

type Watch struct {
	Debounce  time.Duration `toml:"debounce"`
	RateLimit float64       `toml:"rate_limit"` // analysis runs per second
	RateBurst int           `toml:"rate_burst"`
}

type Output struct {
	Result   string `toml:"result"` // empty or "-" writes to stdout
	Pretty   bool   `toml:"pretty"`
	DOT      string `toml:"dot"`
	Mermaid  string `toml:"mermaid"`
	TSV      string `toml:"tsv"`
	PlantUML string `toml:"plantuml"`
}

type Alerts struct {
	Beep     bool `toml:"beep"`
	Terminal bool `toml:"terminal"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// ExcludeDeps reports whether dependency contracts are excluded from
// analysis. Absent means excluded.
func (a Analysis) ExcludeDeps() bool {
	if a.ExcludeDependencies == nil {
		return true
	}
	return *a.ExcludeDependencies
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateAnalysis(&cfg); err != nil {
		return nil, err
	}
	if err := validateDependencies(&cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, err
	}
	if err := validateObservability(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.FactsPath) == "" {
		cfg.FactsPath = "facts.json"
	}

	if cfg.Analysis.MaxDepth == 0 {
		cfg.Analysis.MaxDepth = facts.DefaultMaxDepth
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RateLimit == 0 {
		cfg.Watch.RateLimit = 2
	}
	if cfg.Watch.RateBurst == 0 {
		cfg.Watch.RateBurst = 1
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "trackidity"
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; only version 1 is supported", cfg.Version)
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.MaxDepth < 1 {
		return fmt.Errorf("analysis.max_depth must be >= 1, got %d", cfg.Analysis.MaxDepth)
	}
	if cfg.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must be >= 0, got %d", cfg.Analysis.Workers)
	}
	for _, p := range cfg.Analysis.FilterPaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("analysis.filter_paths must not include empty values")
		}
	}
	return nil
}

func validateDependencies(cfg *Config) error {
	for _, d := range cfg.Dependencies.Dirs {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("dependencies.dirs must not include empty values")
		}
	}
	for _, p := range cfg.Dependencies.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("dependencies.paths must not include empty values")
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.RateLimit < 0 {
		return fmt.Errorf("watch.rate_limit must not be negative")
	}
	if cfg.Watch.RateBurst < 1 {
		return fmt.Errorf("watch.rate_burst must be >= 1, got %d", cfg.Watch.RateBurst)
	}
	return nil
}

func validateObservability(cfg *Config) error {
	addr := strings.TrimSpace(cfg.Observability.MetricsAddr)
	if addr != "" && !strings.Contains(addr, ":") {
		return fmt.Errorf("observability.metrics_addr must be host:port, got %q", addr)
	}
	return nil
}

// Options maps the analysis configuration onto engine options.
func (c *Config) Options() facts.Options {
	return facts.Options{
		MaxDepth:            c.Analysis.MaxDepth,
		ExcludeDependencies: c.Analysis.ExcludeDeps(),
		ExpandDependencies:  c.Analysis.ExpandDependencies,
		DependencyDirs:      c.Dependencies.Dirs,
		DependencyPaths:     c.Dependencies.Paths,
		FilterPaths:         c.Analysis.FilterPaths,
		Workers:             c.Analysis.Workers,
	}
}
