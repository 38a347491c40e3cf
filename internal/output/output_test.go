// # internal/output/output_test.go
package output

import (
	"strings"
	"testing"

	"github.com/nisedo/Trackidity/internal/engine/graph"
	"github.com/nisedo/Trackidity/internal/engine/report"
	"github.com/nisedo/Trackidity/internal/facts"
)

func sampleResult() *report.Result {
	return &report.Result{
		Version: report.Version,
		OK:      true,
		Files: []report.FileEntry{
			{
				Path: "src/Logic.sol",
				EntryPoints: []report.EntryPointRow{
					{
						FlowID:   "flow-bump",
						Label:    "bump()",
						Contract: "Logic",
						Tooltip:  "Logic.bump() • src/Logic.sol",
						Calls: []*graph.CallNode{
							{
								Label:    "setX(uint256)",
								Contract: "Storage",
								Kind:     graph.KindInternal,
								Tooltip:  "Storage.setX(uint256)",
								Calls: []*graph.CallNode{
									{
										Label:    "bump()",
										Contract: "Logic",
										Kind:     graph.KindInternal,
										Tooltip:  "Logic.bump()",
										Cycle:    true,
										Calls:    []*graph.CallNode{},
									},
								},
							},
						},
					},
					{
						FlowID:        "flow-setx",
						Label:         "setX(uint256)",
						Contract:      "Logic",
						Inherited:     true,
						InheritedFrom: "Storage",
						Truncated:     true,
						Calls:         []*graph.CallNode{},
					},
					{
						FlowID:        "flow-reset",
						Label:         "reset()",
						Contract:      "Logic",
						Inherited:     true,
						InheritedFrom: "Storage",
						Calls:         []*graph.CallNode{},
					},
				},
			},
		},
		Variables: []report.VariableGroup{
			{
				Path:     "src/Logic.sol",
				Contract: "Logic",
				Vars: []report.VariableRow{
					{
						VarID:         "var-x",
						Name:          "x",
						Type:          "uint256",
						Contract:      "Logic",
						Inherited:     true,
						InheritedFrom: "Storage",
						Writers: []report.WriterRow{
							{FlowID: "flow-bump", Label: "bump()", Contract: "Logic"},
							{FlowID: "flow-setx", Label: "setX(uint256)", Contract: "Logic", Direct: true},
						},
					},
				},
			},
		},
	}
}

func TestDOTGenerator(t *testing.T) {
	dot, err := NewDOTGenerator(sampleResult()).Generate()
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(dot, "digraph writes") {
		t.Error("DOT output missing digraph header")
	}
	if !strings.Contains(dot, `"flow-bump" -> "var-x"`) {
		t.Error("DOT output missing writer edge flow-bump -> var-x")
	}
	if !strings.Contains(dot, `"flow-setx" -> "var-x" [color="forestgreen", penwidth=1.8, label="direct"]`) {
		t.Error("DOT output missing direct writer edge styling")
	}
	if !strings.Contains(dot, "(from Storage)") {
		t.Error("DOT output missing inherited origin in label")
	}
	if !strings.Contains(dot, "mistyrose") {
		t.Error("DOT output missing truncated entry point styling")
	}
	if !strings.Contains(dot, `label="src/Logic.sol"`) {
		t.Error("DOT output missing file cluster label")
	}
}

func TestDOTGeneratorRejectsFailure(t *testing.T) {
	failed := &report.Result{Version: report.Version, OK: false, Error: "no facts"}
	if _, err := NewDOTGenerator(failed).Generate(); err == nil {
		t.Error("Expected error for failed result")
	}
}

func TestMermaidGenerator(t *testing.T) {
	mmd, err := NewMermaidGenerator(sampleResult()).Generate()
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(mmd, "flowchart LR") {
		t.Error("Mermaid output missing flowchart header")
	}
	if !strings.Contains(mmd, `subgraph file_src_Logic_sol["src/Logic.sol"]`) {
		t.Error("Mermaid output missing file subgraph")
	}
	if !strings.Contains(mmd, `["Logic.bump()"]`) {
		t.Error("Mermaid output missing entry point node")
	}
	if !strings.Contains(mmd, `["Storage.setX(uint256)"]`) {
		t.Error("Mermaid output missing callee node")
	}
	if !strings.Contains(mmd, "-->|cycle|") {
		t.Error("Mermaid output missing cycle edge label")
	}
	if !strings.Contains(mmd, "classDef entryInherited") {
		t.Error("Mermaid output missing inherited entry class")
	}
	if !strings.Contains(mmd, "classDef entryTruncated") {
		t.Error("Mermaid output missing truncated entry class")
	}
}

func TestTSVGenerator(t *testing.T) {
	tsv, err := NewTSVGenerator(sampleResult()).Generate()
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines in TSV, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "File\tContract\tVariable") {
		t.Errorf("Unexpected TSV header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "src/Logic.sol\tLogic\tx\tuint256\ttrue\tbump()\tLogic\tfalse\tfalse") {
		t.Errorf("Unexpected TSV row: %s", lines[1])
	}
	if !strings.Contains(lines[2], "setX(uint256)\tLogic\ttrue\tfalse") {
		t.Errorf("Unexpected TSV row: %s", lines[2])
	}
}

func TestPlantUMLGenerator(t *testing.T) {
	pc, err := facts.NewPathClassifier(nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	unit := &facts.Unit{
		Version: 1,
		Contracts: []facts.Contract{
			{Name: "ERC20", File: "lib/openzeppelin/ERC20.sol", Kind: facts.KindContract},
			{Name: "Token", File: "src/Token.sol", Kind: facts.KindContract, Bases: []string{"ERC20", "Ownable"}},
		},
	}

	uml, err := NewPlantUMLGenerator(unit, pc).Generate()
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(uml, "@startuml") || !strings.Contains(uml, "@enduml") {
		t.Error("PlantUML output missing document markers")
	}
	if !strings.Contains(uml, `package "src/Token.sol"`) {
		t.Error("PlantUML output missing file package")
	}
	if !strings.Contains(uml, "#DDDDDD") {
		t.Error("PlantUML output missing dependency contract styling")
	}
	if !strings.Contains(uml, "Token --> ERC20") {
		t.Error("PlantUML output missing inheritance edge")
	}
	if !strings.Contains(uml, "-[#cc0000,dashed]-> Ownable") {
		t.Error("PlantUML output missing unresolved base edge")
	}
	if !strings.Contains(uml, "(unresolved)") {
		t.Error("PlantUML output missing unresolved base component")
	}
}
