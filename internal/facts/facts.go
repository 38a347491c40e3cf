// # internal/facts/facts.go
package facts

import "strings"

// Version of the facts document format this engine accepts.
const SupportedVersion = 1

type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityExternal Visibility = "external"
	VisibilityInternal Visibility = "internal"
	VisibilityPrivate  Visibility = "private"
)

type Mutability string

const (
	MutabilityPure       Mutability = "pure"
	MutabilityView       Mutability = "view"
	MutabilityPayable    Mutability = "payable"
	MutabilityNonPayable Mutability = "nonpayable"
)

type ContractKind string

const (
	KindContract  ContractKind = "contract"
	KindAbstract  ContractKind = "abstract"
	KindInterface ContractKind = "interface"
	KindLibrary   ContractKind = "library"
)

// Location points into a Solidity source file. Line and Column are 1-based
// as produced by the extraction front end.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Column == 0
}

// CallRef is a single call site inside a function or modifier body.
// TargetContract is empty for free functions and language built-ins.
type CallRef struct {
	TargetContract string `json:"targetContract"`
	TargetName     string `json:"targetName"`
}

// WriteRef is a state variable assignment inside a function or modifier
// body. Variable is the bare name as written in source.
type WriteRef struct {
	Variable string `json:"variable"`
}

type Function struct {
	Name          string     `json:"name"`
	Label         string     `json:"label,omitempty"`
	Visibility    Visibility `json:"visibility"`
	Mutability    Mutability `json:"mutability"`
	IsConstructor bool       `json:"isConstructor,omitempty"`
	IsReceive     bool       `json:"isReceive,omitempty"`
	IsFallback    bool       `json:"isFallback,omitempty"`
	Implemented   *bool      `json:"implemented,omitempty"`
	ModifierRefs  []string   `json:"modifierRefs,omitempty"`
	Calls         []CallRef  `json:"calls,omitempty"`
	Writes        []WriteRef `json:"writes,omitempty"`
	Location      Location   `json:"location"`
}

// IsImplemented defaults to true when the front end omits the field, so
// plain function facts without bodies elided are treated as concrete.
func (f *Function) IsImplemented() bool {
	if f.Implemented == nil {
		return true
	}
	return *f.Implemented
}

type Modifier struct {
	Name     string     `json:"name"`
	Label    string     `json:"label,omitempty"`
	Calls    []CallRef  `json:"calls,omitempty"`
	Writes   []WriteRef `json:"writes,omitempty"`
	Location Location   `json:"location"`
}

type StateVariable struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	IsConstant  bool     `json:"isConstant,omitempty"`
	IsImmutable bool     `json:"isImmutable,omitempty"`
	Location    Location `json:"location"`
}

type Contract struct {
	Name           string          `json:"name"`
	File           string          `json:"file"`
	Kind           ContractKind    `json:"kind"`
	Bases          []string        `json:"bases,omitempty"`
	Functions      []Function      `json:"functions,omitempty"`
	Modifiers      []Modifier      `json:"modifiers,omitempty"`
	StateVariables []StateVariable `json:"stateVariables,omitempty"`
	Location       Location        `json:"location"`
}

// IsConcrete reports whether the contract can be deployed on its own and
// therefore owns an entry point listing.
func (c *Contract) IsConcrete() bool {
	return c.Kind == KindContract || c.Kind == KindLibrary
}

// Unit is one decoded facts document: every contract of a codebase
// snapshot, in extraction order.
type Unit struct {
	Version   int        `json:"version"`
	Root      string     `json:"root,omitempty"`
	Contracts []Contract `json:"contracts"`
}

// BaseName strips the parameter list from a canonical function name,
// "transfer(address,uint256)" becomes "transfer".
func BaseName(name string) string {
	if i := strings.IndexByte(name, '('); i >= 0 {
		return name[:i]
	}
	return name
}
