// # internal/engine/report/result.go
package report

import (
	"encoding/json"

	"github.com/nisedo/Trackidity/internal/engine/graph"
)

// Version identifies the result document format.
const Version = 1

// Result is the single JSON document produced by an analysis run. On
// success Files and Variables are always present (possibly empty); on
// failure only Error is set so clients can branch on OK alone.
type Result struct {
	Version   int             `json:"version"`
	OK        bool            `json:"ok"`
	Error     string          `json:"error,omitempty"`
	Files     []FileEntry     `json:"files,omitempty"`
	Variables []VariableGroup `json:"variables,omitempty"`
}

// MarshalJSON keeps the two document forms distinct: a successful run
// always carries files and variables, even empty, while the failure
// form stays down to version, ok and error.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	if !r.OK {
		r.Files = nil
		r.Variables = nil
		return json.Marshal(alias(r))
	}
	if r.Files == nil {
		r.Files = []FileEntry{}
	}
	if r.Variables == nil {
		r.Variables = []VariableGroup{}
	}
	return json.Marshal(struct {
		alias
		Files     []FileEntry     `json:"files"`
		Variables []VariableGroup `json:"variables"`
	}{alias(r), r.Files, r.Variables})
}

// FileEntry groups the entry points listed under one source file.
type FileEntry struct {
	Path        string          `json:"path"`
	EntryPoints []EntryPointRow `json:"entrypoints"`
}

// EntryPointRow is one externally reachable function together with its
// serialized call tree.
type EntryPointRow struct {
	FlowID        string            `json:"flowId"`
	Label         string            `json:"label"`
	Contract      string            `json:"contract"`
	Tooltip       string            `json:"tooltip"`
	Inherited     bool              `json:"inherited"`
	InheritedFrom string            `json:"inheritedFrom,omitempty"`
	Truncated     bool              `json:"truncated"`
	Location      *graph.SourceRef  `json:"location,omitempty"`
	Calls         []*graph.CallNode `json:"calls"`
}

// VariableGroup holds the written state variables of one analyzed
// contract, keyed by the contract's defining file.
type VariableGroup struct {
	Path     string        `json:"path"`
	Contract string        `json:"contract"`
	Vars     []VariableRow `json:"vars"`
}

// VariableRow is one state variable and the entry points that can
// reach a write to it. The writer list keeps its historical JSON key.
type VariableRow struct {
	VarID         string           `json:"varId"`
	Name          string           `json:"name"`
	Type          string           `json:"type"`
	Contract      string           `json:"contract"`
	Inherited     bool             `json:"inherited"`
	InheritedFrom string           `json:"inheritedFrom,omitempty"`
	Location      *graph.SourceRef `json:"location,omitempty"`
	Writers       []WriterRow      `json:"modifiers"`
}

// WriterRow names one entry point that reaches a write. Direct means
// the write happens in the entry point's own body or an attached
// modifier; Truncated means the write lies beyond the traversal bound
// and was recovered from the reachability closure.
type WriterRow struct {
	FlowID    string           `json:"flowId"`
	Label     string           `json:"label"`
	Contract  string           `json:"contract"`
	Direct    bool             `json:"direct"`
	Truncated bool             `json:"truncated"`
	Location  *graph.SourceRef `json:"location,omitempty"`
}

// Failure wraps an error into the failure form of the result document.
func Failure(err error) *Result {
	return &Result{Version: Version, OK: false, Error: err.Error()}
}

// Stats summarizes one analysis run for logging and metrics.
type Stats struct {
	Contracts       int
	Analyzed        int
	EntryPoints     int
	Variables       int
	TruncatedTraces int
	DroppedEdges    int
	Warnings        int
}
