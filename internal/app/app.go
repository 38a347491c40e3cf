// # internal/app/app.go
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/nisedo/Trackidity/internal/config"
	"github.com/nisedo/Trackidity/internal/engine/report"
	"github.com/nisedo/Trackidity/internal/facts"
	"github.com/nisedo/Trackidity/internal/output"
	"github.com/nisedo/Trackidity/internal/shared/observability"
	"github.com/nisedo/Trackidity/internal/shared/util"
	"github.com/nisedo/Trackidity/internal/watcher"
)

// App drives the analysis pipeline: load a facts document, assemble
// the write-reachability result, write the JSON document and any
// configured diagram artifacts. One App serves both single runs and
// watch mode.
type App struct {
	Config *config.Config

	limiter  *rate.Limiter
	watching atomic.Bool

	// Serializes analysis runs; watch events and manual runs never
	// interleave.
	runMu sync.Mutex

	lastMu  sync.RWMutex
	lastRun *report.Result
}

func New(cfg *config.Config) *App {
	return &App{
		Config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.Watch.RateLimit), cfg.Watch.RateBurst),
	}
}

// RunOnce executes a single analysis pass. The returned result is
// always non-nil and already written to the configured destination;
// on failure it carries the error document instead of listings.
func (a *App) RunOnce(ctx context.Context) (*report.Result, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) (*report.Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.run",
		trace.WithAttributes(attribute.String("facts.path", a.Config.FactsPath)))
	defer span.End()

	start := time.Now()

	res, stats, unit, runErr := a.analyze(ctx)
	a.setLastRun(res)

	if err := a.WriteResult(res); err != nil {
		return res, err
	}
	if runErr != nil {
		a.printSummary(res, stats, time.Since(start))
		return res, runErr
	}
	if err := a.GenerateArtifacts(res, unit); err != nil {
		return res, err
	}

	a.printSummary(res, stats, time.Since(start))
	slog.Info("analysis complete",
		"contracts", stats.Contracts,
		"analyzed", stats.Analyzed,
		"entrypoints", stats.EntryPoints,
		"variables", stats.Variables,
		"truncated", stats.TruncatedTraces,
		"warnings", stats.Warnings,
		"duration", time.Since(start),
		"heap_mb", util.HeapAllocMB())
	return res, nil
}

// analyze loads the facts and assembles the result. Failures come back
// as an error document so callers always have something to write.
func (a *App) analyze(ctx context.Context) (*report.Result, report.Stats, *facts.Unit, error) {
	unit, err := a.loadFacts()
	if err != nil {
		observability.RunsTotal.WithLabelValues("error").Inc()
		slog.Error("failed to load facts", "path", a.Config.FactsPath, "error", err)
		return report.Failure(err), report.Stats{}, nil, err
	}

	res, stats, err := report.Assemble(ctx, unit, a.Config.Options())
	if err != nil {
		observability.RunsTotal.WithLabelValues("error").Inc()
		slog.Error("analysis failed", "error", err)
		return report.Failure(err), stats, unit, err
	}

	observability.RunsTotal.WithLabelValues("ok").Inc()
	return res, stats, unit, nil
}

// loadFacts reads the facts document from the configured path. Empty
// or "-" selects stdin.
func (a *App) loadFacts() (*facts.Unit, error) {
	start := time.Now()
	defer func() {
		observability.FactsLoadDuration.Observe(time.Since(start).Seconds())
	}()

	path := strings.TrimSpace(a.Config.FactsPath)
	if path == "" || path == "-" {
		return facts.Read(os.Stdin)
	}
	return facts.Load(path)
}

// WriteResult encodes the result document and writes it to the
// configured destination. Empty or "-" selects stdout.
func (a *App) WriteResult(res *report.Result) error {
	var (
		data []byte
		err  error
	)
	if a.Config.Output.Pretty {
		data, err = json.MarshalIndent(res, "", "  ")
	} else {
		data, err = json.Marshal(res)
	}
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	data = append(data, '\n')

	dest := strings.TrimSpace(a.Config.Output.Result)
	if dest == "" || dest == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := util.WriteFileWithDirs(dest, data, 0o644); err != nil {
		return fmt.Errorf("write result %q: %w", dest, err)
	}
	return nil
}

// GenerateArtifacts renders the configured diagram and table outputs.
// Artifacts are only written for successful runs; a failed run leaves
// the previous artifacts in place.
func (a *App) GenerateArtifacts(res *report.Result, unit *facts.Unit) error {
	if res == nil || !res.OK {
		return nil
	}
	out := a.Config.Output

	if out.DOT != "" {
		dot, err := output.NewDOTGenerator(res).Generate()
		if err != nil {
			return fmt.Errorf("generate DOT output: %w", err)
		}
		if err := util.WriteFileWithDirs(out.DOT, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write DOT output %q: %w", out.DOT, err)
		}
	}

	if out.Mermaid != "" {
		mmd, err := output.NewMermaidGenerator(res).Generate()
		if err != nil {
			return fmt.Errorf("generate Mermaid output: %w", err)
		}
		if err := util.WriteFileWithDirs(out.Mermaid, []byte(mmd), 0o644); err != nil {
			return fmt.Errorf("write Mermaid output %q: %w", out.Mermaid, err)
		}
	}

	if out.TSV != "" {
		tsv, err := output.NewTSVGenerator(res).Generate()
		if err != nil {
			return fmt.Errorf("generate TSV output: %w", err)
		}
		if err := util.WriteFileWithDirs(out.TSV, []byte(tsv), 0o644); err != nil {
			return fmt.Errorf("write TSV output %q: %w", out.TSV, err)
		}
	}

	if out.PlantUML != "" {
		pc, err := a.Config.Options().Classifier()
		if err != nil {
			return fmt.Errorf("generate PlantUML output: %w", err)
		}
		uml, err := output.NewPlantUMLGenerator(unit, pc).Generate()
		if err != nil {
			return fmt.Errorf("generate PlantUML output: %w", err)
		}
		if err := util.WriteFileWithDirs(out.PlantUML, []byte(uml), 0o644); err != nil {
			return fmt.Errorf("write PlantUML output %q: %w", out.PlantUML, err)
		}
	}

	return nil
}

// HandleChange reruns the analysis after the facts file is rewritten.
// Event bursts beyond the configured rate are dropped, not queued.
func (a *App) HandleChange(paths []string) {
	if !a.limiter.Allow() {
		observability.WatcherRunsSkippedTotal.Inc()
		slog.Debug("change dropped by rate limit", "count", len(paths))
		return
	}

	slog.Info("facts changed", "count", len(paths))
	if _, err := a.RunOnce(context.Background()); err != nil {
		slog.Error("watch run failed", "error", err)
	}
}

// Watch reruns the analysis whenever the facts file changes and blocks
// until the context is cancelled.
func (a *App) Watch(ctx context.Context) error {
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.HandleChange)
	if err != nil {
		return err
	}
	if err := w.Watch([]string{a.Config.FactsPath}); err != nil {
		w.Close()
		return err
	}
	a.watching.Store(true)
	defer a.watching.Store(false)

	slog.Info("watching facts file",
		"path", a.Config.FactsPath,
		"debounce", a.Config.Watch.Debounce,
		"rate_limit", a.Config.Watch.RateLimit)

	<-ctx.Done()
	return w.Close()
}

func (a *App) setLastRun(res *report.Result) {
	a.lastMu.Lock()
	a.lastRun = res
	a.lastMu.Unlock()
}

// LastRun returns the most recent result, or nil before the first run.
func (a *App) LastRun() *report.Result {
	a.lastMu.RLock()
	defer a.lastMu.RUnlock()
	return a.lastRun
}

func (a *App) printSummary(res *report.Result, stats report.Stats, duration time.Duration) {
	if a.Config.Alerts.Beep && (!res.OK || stats.TruncatedTraces > 0 || stats.Warnings > 0) {
		fmt.Print("\a")
	}
	if !a.Config.Alerts.Terminal {
		return
	}

	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Analyzed %d of %d contracts in %v\n", stats.Analyzed, stats.Contracts, duration)

	if !res.OK {
		fmt.Printf("❌ ANALYSIS FAILED: %s\n", res.Error)
		fmt.Println(strings.Repeat("-", 40))
		return
	}

	fmt.Printf("🔎 %d entry points across %d files\n", stats.EntryPoints, len(res.Files))
	fmt.Printf("✍️  %d state variables with writers\n", stats.Variables)

	if stats.TruncatedTraces > 0 {
		fmt.Printf("⚠️  %d TRACES TRUNCATED at depth %d; raise analysis.max_depth for full call paths\n",
			stats.TruncatedTraces, a.Config.Analysis.MaxDepth)
	} else {
		fmt.Println("✅ No truncated traces.")
	}

	if stats.Warnings > 0 {
		fmt.Printf("❓ %d RESOLUTION WARNINGS; see logs for missing bases\n", stats.Warnings)
	}
	if stats.DroppedEdges > 0 {
		fmt.Printf("🧹 %d unresolved call edges dropped\n", stats.DroppedEdges)
	}
	fmt.Println(strings.Repeat("-", 40))
}
