package output

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nisedo/Trackidity/internal/engine/graph"
	"github.com/nisedo/Trackidity/internal/engine/report"
)

type MermaidGenerator struct {
	result *report.Result
}

func NewMermaidGenerator(result *report.Result) *MermaidGenerator {
	return &MermaidGenerator{result: result}
}

// Generate renders every listed entry point's call tree as one
// flowchart, grouped by source file. Node ids are positional, so two
// occurrences of the same callee in different trees stay distinct.
func (m *MermaidGenerator) Generate() (string, error) {
	if m.result == nil || !m.result.OK {
		return "", fmt.Errorf("cannot render a failed analysis")
	}

	var b strings.Builder
	b.WriteString("%%{init: {'flowchart': {'nodeSpacing': 60, 'rankSpacing': 90, 'curve': 'basis'}}}%%\n")
	b.WriteString("flowchart LR\n")

	w := &mermaidWriter{
		classes: make(map[string][]string),
	}

	for _, file := range m.result.Files {
		b.WriteString(fmt.Sprintf("  subgraph file_%s[\"%s\"]\n", sanitizeMermaidID(file.Path), escapeMermaidLabel(file.Path)))
		for _, ep := range file.EntryPoints {
			epID := w.nextID()
			label := ep.Contract + "." + ep.Label
			if ep.Inherited {
				label += "\\n(from " + ep.InheritedFrom + ")"
			}
			b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", epID, escapeMermaidLabel(label)))

			switch {
			case ep.Truncated:
				w.addClass("entryTruncated", epID)
			case ep.Inherited:
				w.addClass("entryInherited", epID)
			default:
				w.addClass("entryNode", epID)
			}

			w.walk(&b, epID, ep.Calls)
		}
		b.WriteString("  end\n")
	}

	b.WriteString("\n")
	w.writeClassDefs(&b)

	b.WriteString("\n")
	for _, edge := range w.edges {
		b.WriteString(edge)
	}

	b.WriteString("\n")
	b.WriteString("  subgraph legend_info[\"Legend\"]\n")
	b.WriteString("    legend_nodes[\"Node line 1: contract.function\\nstyles: modifier, base constructor, library, external, builtin\"]\n")
	b.WriteString("    legend_leaves[\"Leaf markers: cycle=repeated on path, truncated=cut by depth bound, shared=expanded elsewhere\"]\n")
	b.WriteString("  end\n")
	b.WriteString("  classDef legendNode fill:#fff8dc,stroke:#b8a24c,stroke-width:1px;\n")
	b.WriteString("  class legend_nodes,legend_leaves legendNode;\n")

	return b.String(), nil
}

type mermaidWriter struct {
	counter int
	classes map[string][]string
	edges   []string
}

func (w *mermaidWriter) nextID() string {
	id := fmt.Sprintf("n%d", w.counter)
	w.counter++
	return id
}

func (w *mermaidWriter) addClass(class, id string) {
	w.classes[class] = append(w.classes[class], id)
}

// walk emits one node per call-tree position and queues the edges; the
// edge list is flushed after the subgraphs so grouping stays intact.
func (w *mermaidWriter) walk(b *strings.Builder, parentID string, calls []*graph.CallNode) {
	for _, call := range calls {
		id := w.nextID()
		label := call.Label
		if call.Contract != "" {
			label = call.Contract + "." + call.Label
		}
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, escapeMermaidLabel(label)))
		w.addClass(classForCall(call), id)

		edge := fmt.Sprintf("  %s --> %s\n", parentID, id)
		switch {
		case call.Cycle:
			edge = fmt.Sprintf("  %s -->|cycle| %s\n", parentID, id)
		case call.Truncated:
			edge = fmt.Sprintf("  %s -->|truncated| %s\n", parentID, id)
		case call.Shared:
			edge = fmt.Sprintf("  %s -->|shared| %s\n", parentID, id)
		}
		w.edges = append(w.edges, edge)

		w.walk(b, id, call.Calls)
	}
}

func classForCall(call *graph.CallNode) string {
	switch {
	case call.Cycle:
		return "cycleNode"
	case call.Truncated:
		return "truncatedNode"
	case call.Shared:
		return "sharedNode"
	}
	switch call.Kind {
	case graph.KindModifier:
		return "modifierNode"
	case graph.KindBaseConstructor:
		return "baseCtorNode"
	case graph.KindLibrary:
		return "libraryNode"
	case graph.KindExternal:
		return "externalNode"
	case graph.KindSolidity:
		return "solidityNode"
	default:
		return "internalNode"
	}
}

var mermaidClassDefs = []struct {
	name  string
	style string
}{
	{"entryNode", "fill:#f7fbff,stroke:#4d6480,stroke-width:1px"},
	{"entryInherited", "fill:#fffbe6,stroke:#8a6d00,stroke-width:1px"},
	{"entryTruncated", "fill:#ffecec,stroke:#cc0000,stroke-width:2px"},
	{"internalNode", "fill:#ffffff,stroke:#666666"},
	{"modifierNode", "fill:#f3e8ff,stroke:#7c3aed"},
	{"baseCtorNode", "fill:#e8f4ff,stroke:#1e6091"},
	{"libraryNode", "fill:#ecfdf5,stroke:#047857"},
	{"externalNode", "fill:#efefef,stroke:#808080,stroke-dasharray:4 3"},
	{"solidityNode", "fill:#f5f5f4,stroke:#a8a29e,stroke-dasharray:2 2"},
	{"cycleNode", "fill:#ffecec,stroke:#cc0000,stroke-width:2px"},
	{"truncatedNode", "fill:#fff4e5,stroke:#cc6600,stroke-dasharray:5 3"},
	{"sharedNode", "fill:#eef2ff,stroke:#4f46e5,stroke-dasharray:3 3"},
}

func (w *mermaidWriter) writeClassDefs(b *strings.Builder) {
	for _, def := range mermaidClassDefs {
		ids := w.classes[def.name]
		if len(ids) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  classDef %s %s;\n", def.name, def.style))
		b.WriteString(fmt.Sprintf("  class %s %s;\n", strings.Join(ids, ","), def.name))
	}
}

func sanitizeMermaidID(name string) string {
	if name == "" {
		return "m"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if out == "" {
		return "m"
	}
	if unicode.IsDigit(rune(out[0])) {
		return "m_" + out
	}
	return out
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
