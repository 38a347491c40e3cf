// # cmd/trackidity/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nisedo/Trackidity/internal/app"
	"github.com/nisedo/Trackidity/internal/config"
	"github.com/nisedo/Trackidity/internal/shared/observability"
)

var (
	configPath  = flag.String("config", "./trackidity.toml", "Path to config file")
	factsPath   = flag.String("facts", "", "Facts JSON path; - reads stdin (overrides config)")
	outPath     = flag.String("out", "", "Result JSON path; - writes stdout (overrides config)")
	maxDepth    = flag.Int("max-depth", 0, "Call tree depth bound (overrides config)")
	excludeDeps = flag.Bool("exclude-deps", true, "Hide dependency-owned listings and writers")
	expandDeps  = flag.Bool("expand-deps", false, "Expand call trees through dependency code")
	workers     = flag.Int("workers", 0, "Concurrent contract analyses; 0 uses one per CPU")
	watch       = flag.Bool("watch", false, "Re-run whenever the facts file changes")
	pretty      = flag.Bool("pretty", false, "Indent the result JSON")
	summary     = flag.Bool("summary", false, "Print the run summary to the terminal")
	metricsAddr = flag.String("metrics-addr", "", "Listen address for /metrics and /health in watch mode")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("trackidity v%s\n", VERSION)
		os.Exit(0)
	}

	// Setup logging. The result document owns stdout, so every log
	// line goes to stderr.
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg := loadConfig()
	config.ApplyEnvOverrides(cfg)
	applyFlagOverrides(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	a := app.New(cfg)

	var obsServer *app.ObservabilityServer
	if cfg.Observability.MetricsAddr != "" {
		obsServer = app.NewObservabilityServer(cfg.Observability.MetricsAddr, a)
		if err := obsServer.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			os.Exit(1)
		}
	}

	exitCode := 0
	if res, err := a.RunOnce(ctx); err != nil || !res.OK {
		// The error document is already written; the exit code tells
		// scripts the run failed.
		exitCode = 1
	}

	if *watch {
		// Watch mode outlives a failed first pass; the next facts
		// rebuild gets a fresh run.
		exitCode = 0
		if err := a.Watch(ctx); err != nil {
			slog.Error("watch failed", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("observability server shutdown failed", "error", err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Warn("tracing shutdown failed", "error", err)
	}

	os.Exit(exitCode)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(*configPath)
	if err == nil {
		slog.Debug("loaded config", "path", *configPath)
		return cfg
	}
	if !os.IsNotExist(err) {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if flagWasSet("config") {
		slog.Error("config file not found", "path", *configPath)
		os.Exit(1)
	}
	slog.Debug("no config file; using defaults", "path", *configPath)
	return config.Default()
}

// applyFlagOverrides lets command line flags win over config file and
// environment values. Only flags the user actually set are applied.
func applyFlagOverrides(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "facts":
			cfg.FactsPath = *factsPath
		case "out":
			cfg.Output.Result = *outPath
		case "max-depth":
			cfg.Analysis.MaxDepth = *maxDepth
		case "exclude-deps":
			cfg.Analysis.ExcludeDependencies = excludeDeps
		case "expand-deps":
			cfg.Analysis.ExpandDependencies = *expandDeps
		case "workers":
			cfg.Analysis.Workers = *workers
		case "pretty":
			cfg.Output.Pretty = *pretty
		case "summary":
			cfg.Alerts.Terminal = *summary
		case "metrics-addr":
			cfg.Observability.MetricsAddr = *metricsAddr
		}
	})
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
