package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Pattern: TRACKIDITY_[SECTION]_[KEY]
// (e.g., TRACKIDITY_ANALYSIS_MAX_DEPTH). Values that fail to parse
// are ignored.
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.FactsPath, "TRACKIDITY_FACTS_PATH")

	// Analysis
	setEnvInt(&cfg.Analysis.MaxDepth, "TRACKIDITY_ANALYSIS_MAX_DEPTH")
	setEnvBoolPtr(&cfg.Analysis.ExcludeDependencies, "TRACKIDITY_ANALYSIS_EXCLUDE_DEPENDENCIES")
	setEnvBool(&cfg.Analysis.ExpandDependencies, "TRACKIDITY_ANALYSIS_EXPAND_DEPENDENCIES")
	setEnvInt(&cfg.Analysis.Workers, "TRACKIDITY_ANALYSIS_WORKERS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "TRACKIDITY_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.RateLimit, "TRACKIDITY_WATCH_RATE_LIMIT")
	setEnvInt(&cfg.Watch.RateBurst, "TRACKIDITY_WATCH_RATE_BURST")

	// Output
	setEnvString(&cfg.Output.Result, "TRACKIDITY_OUTPUT_RESULT")
	setEnvBool(&cfg.Output.Pretty, "TRACKIDITY_OUTPUT_PRETTY")
	setEnvString(&cfg.Output.DOT, "TRACKIDITY_OUTPUT_DOT")
	setEnvString(&cfg.Output.Mermaid, "TRACKIDITY_OUTPUT_MERMAID")
	setEnvString(&cfg.Output.TSV, "TRACKIDITY_OUTPUT_TSV")
	setEnvString(&cfg.Output.PlantUML, "TRACKIDITY_OUTPUT_PLANTUML")

	// Alerts
	setEnvBool(&cfg.Alerts.Beep, "TRACKIDITY_ALERTS_BEEP")
	setEnvBool(&cfg.Alerts.Terminal, "TRACKIDITY_ALERTS_TERMINAL")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "TRACKIDITY_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "TRACKIDITY_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "TRACKIDITY_OBSERVABILITY_SERVICE_NAME")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = d
		}
	}
}
