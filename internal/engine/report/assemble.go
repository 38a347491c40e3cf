// # internal/engine/report/assemble.go
package report

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nisedo/Trackidity/internal/engine/graph"
	"github.com/nisedo/Trackidity/internal/engine/inherit"
	"github.com/nisedo/Trackidity/internal/errors"
	"github.com/nisedo/Trackidity/internal/facts"
	"github.com/nisedo/Trackidity/internal/shared/observability"
	"github.com/nisedo/Trackidity/internal/shared/util"
)

// contractJob carries one analyzed contract through the parallel phase.
// Traces and trees land in index slots so output order never depends on
// goroutine scheduling.
type contractJob struct {
	eff    *inherit.Effective
	eps    []inherit.EntryPoint
	g      *graph.Graph
	traces []graph.Trace
	trees  [][]*graph.CallNode
}

// Assemble runs the full analysis over one facts document: resolve
// inheritance, classify entry points, trace writes per contract, and
// fold everything into the result document. Inheritance cycles and
// invalid path patterns fail the whole run; everything else degrades
// into warnings or dropped edges.
func Assemble(ctx context.Context, unit *facts.Unit, opts facts.Options) (*Result, Stats, error) {
	var stats Stats

	pc, err := opts.Classifier()
	if err != nil {
		return nil, stats, errors.Wrap(err, errors.CodeInvalidFacts, "compile path patterns")
	}
	unit = pc.FilterUnit(unit)
	stats.Contracts = len(unit.Contracts)

	resolveStart := time.Now()
	res := inherit.NewResolver(unit).ResolveAll()
	observability.AnalysisDuration.WithLabelValues("resolve").Observe(time.Since(resolveStart).Seconds())

	stats.Warnings = len(res.Warnings)
	for _, w := range res.Warnings {
		slog.Warn("Resolution warning", "contract", w.Contract, "subject", w.Subject, "message", w.Message)
	}
	if len(res.Cycles) > 0 {
		parts := make([]string, 0, len(res.Cycles))
		for _, cycle := range res.Cycles {
			parts = append(parts, inherit.FormatCycle(cycle))
		}
		return nil, stats, errors.Newf(errors.CodeInheritanceCycle, "inheritance cycle: %s", strings.Join(parts, "; "))
	}

	jobs := planJobs(res, pc, opts)
	stats.Analyzed = len(jobs)

	maxDepth := opts.EffectiveMaxDepth()
	builder := graph.NewBuilder(res, pc)

	traceStart := time.Now()
	eg, ctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	eg.SetLimit(workers)
	for _, job := range jobs {
		job := job
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			job.run(builder, maxDepth, opts)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, stats, errors.Wrap(err, errors.CodeInternal, "trace entry points")
	}
	observability.AnalysisDuration.WithLabelValues("trace").Observe(time.Since(traceStart).Seconds())

	assembleStart := time.Now()
	result := &Result{Version: Version, OK: true, Files: []FileEntry{}, Variables: []VariableGroup{}}
	buildFiles(result, jobs, &stats)
	buildVariables(result, jobs, opts, &stats)
	observability.AnalysisDuration.WithLabelValues("assemble").Observe(time.Since(assembleStart).Seconds())

	for _, job := range jobs {
		stats.DroppedEdges += len(job.g.Dropped)
		for _, d := range job.g.Dropped {
			slog.Debug("Dropped during graph construction", "from", d.From, "target", d.Target, "reason", d.Reason)
		}
	}

	observability.ContractsAnalyzed.Set(float64(stats.Analyzed))
	observability.EntryPointsListed.Set(float64(stats.EntryPoints))
	observability.VariablesListed.Set(float64(stats.Variables))
	observability.TruncatedTraces.Set(float64(stats.TruncatedTraces))
	observability.DroppedEdgesTotal.Add(float64(stats.DroppedEdges))

	return result, stats, nil
}

// planJobs selects the contracts worth analyzing: concrete, outside
// dependency code when dependencies are excluded, and exposing at least
// one entry point.
func planJobs(res *inherit.Resolution, pc *facts.PathClassifier, opts facts.Options) []*contractJob {
	var jobs []*contractJob
	for _, eff := range res.Effectives {
		if !eff.Contract.IsConcrete() {
			continue
		}
		if opts.ExcludeDependencies && pc.IsDependency(eff.Contract.File) {
			continue
		}
		eps := inherit.Classify(eff, pc, opts.ExcludeDependencies)
		if len(eps) == 0 {
			continue
		}
		jobs = append(jobs, &contractJob{eff: eff, eps: eps})
	}
	return jobs
}

func (j *contractJob) run(builder *graph.Builder, maxDepth int, opts facts.Options) {
	j.g = builder.Build(j.eff)
	tracer := graph.NewTracer(j.g)
	ser := graph.NewSerializer(j.g, maxDepth, opts.ExcludeDependencies, opts.ExpandDependencies)

	j.traces = make([]graph.Trace, len(j.eps))
	j.trees = make([][]*graph.CallNode, len(j.eps))
	for i, ep := range j.eps {
		id, ok := j.g.NodeByKey(ep.Canonical)
		if !ok {
			continue
		}
		j.traces[i] = tracer.Trace(id, maxDepth)
		if ep.Listed {
			j.trees[i] = ser.Serialize(id)
		}
	}
}

type fileRow struct {
	row       EntryPointRow
	inherited bool
	line      int
	label     string
}

// buildFiles folds listed entry points into the per-file view. Files
// sort by path; rows within a file put the contract's own declarations
// before inherited ones, then order by source line and label.
func buildFiles(result *Result, jobs []*contractJob, stats *Stats) {
	byFile := make(map[string][]fileRow)
	for _, job := range jobs {
		for i, ep := range job.eps {
			if !ep.Listed {
				continue
			}
			tree := job.trees[i]
			if tree == nil {
				tree = []*graph.CallNode{}
			}
			truncated := job.traces[i].Truncated
			if truncated {
				stats.TruncatedTraces++
			}
			row := EntryPointRow{
				FlowID:        FlowID(ep.FlowKey),
				Label:         ep.Label,
				Contract:      ep.Contract,
				Tooltip:       ep.Canonical + " • " + ep.File,
				Inherited:     ep.Inherited,
				InheritedFrom: ep.InheritedFrom,
				Truncated:     truncated,
				Location:      graph.NewSourceRef(ep.Location),
				Calls:         tree,
			}
			byFile[ep.File] = append(byFile[ep.File], fileRow{row: row, inherited: ep.Inherited, line: ep.Location.Line, label: ep.Label})
			stats.EntryPoints++
		}
	}

	for _, path := range util.SortedKeys(byFile) {
		rows := byFile[path]
		sort.SliceStable(rows, func(a, b int) bool {
			if rows[a].inherited != rows[b].inherited {
				return !rows[a].inherited
			}
			if rows[a].line != rows[b].line {
				return rows[a].line < rows[b].line
			}
			return rows[a].label < rows[b].label
		})
		entry := FileEntry{Path: path, EntryPoints: make([]EntryPointRow, 0, len(rows))}
		for _, r := range rows {
			entry.EntryPoints = append(entry.EntryPoints, r.row)
		}
		result.Files = append(result.Files, entry)
	}
}

type varRow struct {
	row  VariableRow
	line int
	name string
}

// buildVariables inverts the per-entry-point traces into the variable
// view: one group per analyzed contract, one row per written variable,
// writers deduplicated by flow id. Variables whose every write sits in
// dependency code stay hidden unless dependency expansion is on.
func buildVariables(result *Result, jobs []*contractJob, opts facts.Options, stats *Stats) {
	for _, job := range jobs {
		c := job.eff.Contract

		writers := make(map[string][]WriterRow)
		for i, ep := range job.eps {
			flowID := FlowID(ep.FlowKey)
			for _, w := range job.traces[i].Writes {
				if !w.ProjectSite && !opts.ExpandDependencies {
					continue
				}
				writers[w.Key] = append(writers[w.Key], WriterRow{
					FlowID:    flowID,
					Label:     ep.Label,
					Contract:  ep.Contract,
					Direct:    w.Direct,
					Truncated: w.Truncated,
					Location:  graph.NewSourceRef(ep.Location),
				})
			}
		}
		if len(writers) == 0 {
			continue
		}

		var rows []varRow
		for _, name := range job.eff.VariableOrder {
			decl := job.eff.Variables[name]
			if decl.Var.IsConstant || decl.Var.IsImmutable {
				continue
			}
			ws := dedupWriters(writers[decl.Owner.Name+"."+decl.Var.Name])
			if len(ws) == 0 {
				continue
			}
			sort.SliceStable(ws, func(a, b int) bool {
				if ws[a].Contract != ws[b].Contract {
					return ws[a].Contract < ws[b].Contract
				}
				return ws[a].Label < ws[b].Label
			})
			row := VariableRow{
				VarID:    VarID(c.File + "::" + c.Name + "." + decl.Var.Name),
				Name:     decl.Var.Name,
				Type:     decl.Var.Type,
				Contract: c.Name,
				Location: graph.NewSourceRef(decl.Var.Location),
				Writers:  ws,
			}
			if decl.Owner != c {
				row.Inherited = true
				row.InheritedFrom = decl.Owner.Name
			}
			rows = append(rows, varRow{row: row, line: decl.Var.Location.Line, name: decl.Var.Name})
			stats.Variables++
		}
		if len(rows) == 0 {
			continue
		}

		sort.SliceStable(rows, func(a, b int) bool {
			aLoc, bLoc := rows[a].line > 0, rows[b].line > 0
			if aLoc != bLoc {
				return aLoc
			}
			if rows[a].line != rows[b].line {
				return rows[a].line < rows[b].line
			}
			return rows[a].name < rows[b].name
		})
		group := VariableGroup{Path: c.File, Contract: c.Name, Vars: make([]VariableRow, 0, len(rows))}
		for _, r := range rows {
			group.Vars = append(group.Vars, r.row)
		}
		result.Variables = append(result.Variables, group)
	}

	sort.SliceStable(result.Variables, func(a, b int) bool {
		if result.Variables[a].Path != result.Variables[b].Path {
			return result.Variables[a].Path < result.Variables[b].Path
		}
		return result.Variables[a].Contract < result.Variables[b].Contract
	})
}

func dedupWriters(ws []WriterRow) []WriterRow {
	if len(ws) < 2 {
		return ws
	}
	seen := make(map[string]bool, len(ws))
	out := make([]WriterRow, 0, len(ws))
	for _, w := range ws {
		if seen[w.FlowID] {
			continue
		}
		seen[w.FlowID] = true
		out = append(out, w)
	}
	return out
}
