// # internal/output/dot.go
package output

import (
	"fmt"
	"strings"

	"github.com/nisedo/Trackidity/internal/engine/report"
)

type DOTGenerator struct {
	result *report.Result
}

func NewDOTGenerator(result *report.Result) *DOTGenerator {
	return &DOTGenerator{result: result}
}

// Generate renders the write-reachability view: entry points grouped by
// file on the left, state variables on the right, one edge per writer
// relation.
func (d *DOTGenerator) Generate() (string, error) {
	if d.result == nil || !d.result.OK {
		return "", fmt.Errorf("cannot render a failed analysis")
	}

	var buf strings.Builder

	buf.WriteString("digraph writes {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.5;\n")
	buf.WriteString("  splines=polyline;\n\n")

	known := make(map[string]bool)

	// Entry points clustered by file
	for i, file := range d.result.Files {
		buf.WriteString(fmt.Sprintf("  subgraph cluster_file_%d {\n", i))
		buf.WriteString(fmt.Sprintf("    label=%q;\n", file.Path))
		buf.WriteString("    style=filled;\n")
		buf.WriteString("    color=\"whitesmoke\";\n")
		buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")

		for _, ep := range file.EntryPoints {
			known[ep.FlowID] = true
			label := ep.Contract + "\\n" + ep.Label
			if ep.Inherited {
				label += "\\n(from " + ep.InheritedFrom + ")"
			}

			switch {
			case ep.Truncated:
				buf.WriteString(fmt.Sprintf("    %q [label=\"%s\", fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", ep.FlowID, label))
			case ep.Inherited:
				buf.WriteString(fmt.Sprintf("    %q [label=\"%s\", fillcolor=\"lightyellow\", color=\"darkslategrey\"];\n", ep.FlowID, label))
			default:
				buf.WriteString(fmt.Sprintf("    %q [label=\"%s\", color=\"darkslategrey\"];\n", ep.FlowID, label))
			}
		}
		buf.WriteString("  }\n\n")
	}

	// State variables
	buf.WriteString("  // State variables\n")
	buf.WriteString("  node [shape=cylinder, fillcolor=\"aliceblue\", style=\"filled\", color=\"steelblue\"];\n")
	for _, group := range d.result.Variables {
		for _, v := range group.Vars {
			label := group.Contract + "." + v.Name
			if v.Type != "" {
				label += "\\n" + escapeDOTLabel(v.Type)
			}
			if v.Inherited {
				label += "\\n(from " + v.InheritedFrom + ")"
			}
			buf.WriteString(fmt.Sprintf("  %q [label=\"%s\"];\n", v.VarID, label))
		}
	}
	buf.WriteString("\n")

	// Writer edges
	for _, group := range d.result.Variables {
		for _, v := range group.Vars {
			for _, w := range v.Writers {
				if !known[w.FlowID] {
					continue
				}
				switch {
				case w.Truncated:
					buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"darkorange\", style=dashed, label=\"beyond depth\"];\n", w.FlowID, v.VarID))
				case w.Direct:
					buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"forestgreen\", penwidth=1.8, label=\"direct\"];\n", w.FlowID, v.VarID))
				default:
					buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"grey40\"];\n", w.FlowID, v.VarID))
				}
			}
		}
	}

	// Legend
	buf.WriteString("\n  subgraph cluster_legend {\n")
	buf.WriteString("    label=\"Legend\";\n")
	buf.WriteString("    style=dashed;\n")
	buf.WriteString("    legend_entry [label=\"Entry Point\", fillcolor=\"white\", style=\"rounded,filled\", shape=box];\n")
	buf.WriteString("    legend_inherited [label=\"Inherited Entry Point\", fillcolor=\"lightyellow\", style=\"rounded,filled\", shape=box];\n")
	buf.WriteString("    legend_truncated [label=\"Truncated Trace\", fillcolor=\"mistyrose\", color=\"red\", style=\"rounded,filled\", shape=box];\n")
	buf.WriteString("    legend_var [label=\"State Variable\", shape=cylinder, fillcolor=\"aliceblue\", style=\"filled\"];\n")
	buf.WriteString("    legend_direct [label=\"direct write\", shape=plaintext, fontcolor=\"forestgreen\"];\n")
	buf.WriteString("    legend_transitive [label=\"transitive write\", shape=plaintext, fontcolor=\"grey40\"];\n")
	buf.WriteString("  }\n")

	buf.WriteString("}\n")

	return buf.String(), nil
}

func escapeDOTLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return strings.ReplaceAll(s, "\"", "\\\"")
}
