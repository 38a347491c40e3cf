// # internal/engine/inherit/resolver.go
package inherit

import (
	"strings"

	"github.com/nisedo/Trackidity/internal/facts"
)

// FunctionDecl pairs a function with the contract that declares it.
type FunctionDecl struct {
	Fn    *facts.Function
	Owner *facts.Contract
}

type ModifierDecl struct {
	Mod   *facts.Modifier
	Owner *facts.Contract
}

type VariableDecl struct {
	Var   *facts.StateVariable
	Owner *facts.Contract
}

// Effective is one contract's resolved view after inheritance: its
// linearization and the winning declaration for every function, modifier
// and state variable name visible in it.
type Effective struct {
	Contract      *facts.Contract
	Linearization []*facts.Contract

	Functions     map[string]FunctionDecl
	FunctionOrder []string

	// Constructors are kept out of the name maps: every ancestor's
	// constructor stays visible, most derived first, because base
	// constructors run during deployment regardless of shadowing.
	Constructors []FunctionDecl

	Modifiers     map[string]ModifierDecl
	ModifierOrder []string

	Variables     map[string]VariableDecl
	VariableOrder []string

	lineage map[string]bool
}

// InLineage reports whether the named contract appears in this
// contract's linearization.
func (e *Effective) InLineage(name string) bool {
	return e.lineage[name]
}

// Constructor returns the constructor declared by the named ancestor.
func (e *Effective) Constructor(owner string) (FunctionDecl, bool) {
	for _, decl := range e.Constructors {
		if decl.Owner.Name == owner {
			return decl, true
		}
	}
	return FunctionDecl{}, false
}

// Function resolves a call target name. Exact names win; a bare name
// without a parameter list resolves only when it is unambiguous.
func (e *Effective) Function(name string) (FunctionDecl, bool) {
	if decl, ok := e.Functions[name]; ok {
		return decl, true
	}
	base := facts.BaseName(name)
	var found FunctionDecl
	count := 0
	for _, n := range e.FunctionOrder {
		if facts.BaseName(n) == base {
			found = e.Functions[n]
			count++
		}
	}
	if count == 1 {
		return found, true
	}
	return FunctionDecl{}, false
}

// Modifier resolves an attached modifier reference the same way.
func (e *Effective) Modifier(name string) (ModifierDecl, bool) {
	if decl, ok := e.Modifiers[name]; ok {
		return decl, true
	}
	base := facts.BaseName(name)
	var found ModifierDecl
	count := 0
	for _, n := range e.ModifierOrder {
		if facts.BaseName(n) == base {
			found = e.Modifiers[n]
			count++
		}
	}
	if count == 1 {
		return found, true
	}
	return ModifierDecl{}, false
}

// Warning records a recoverable resolution defect: the run continues
// without the offending piece.
type Warning struct {
	Contract string
	Subject  string
	Message  string
}

// Resolution is the outcome over a whole unit. Contracts tainted by an
// inheritance cycle are absent from Effectives and reported in Cycles;
// the caller decides whether that fails the run.
type Resolution struct {
	Effectives []*Effective
	ByName     map[string]*Effective
	Cycles     [][]string
	Warnings   []Warning
}

// FormatCycle renders a cycle as "A -> B -> A" for diagnostics.
func FormatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return strings.Join(append(append([]string{}, cycle...), cycle[0]), " -> ")
}

type Resolver struct {
	byName    map[string]*facts.Contract
	order     []*facts.Contract
	memo      map[string][]*facts.Contract
	failed    map[string]bool
	cycles    [][]string
	cycleSeen map[string]bool
	warnings  []Warning
}

func NewResolver(unit *facts.Unit) *Resolver {
	r := &Resolver{
		byName:    make(map[string]*facts.Contract, len(unit.Contracts)),
		memo:      make(map[string][]*facts.Contract),
		failed:    make(map[string]bool),
		cycleSeen: make(map[string]bool),
	}
	for i := range unit.Contracts {
		c := &unit.Contracts[i]
		if _, dup := r.byName[c.Name]; dup {
			r.warnings = append(r.warnings, Warning{
				Contract: c.Name,
				Subject:  c.File,
				Message:  "duplicate contract name, keeping first declaration",
			})
			continue
		}
		r.byName[c.Name] = c
		r.order = append(r.order, c)
	}
	return r
}

// ResolveAll linearizes every contract in input order. Cycle members and
// contracts inheriting through them are skipped, not resolved partially.
func (r *Resolver) ResolveAll() *Resolution {
	res := &Resolution{ByName: make(map[string]*Effective, len(r.order))}
	for _, c := range r.order {
		lin, ok := r.linearize(c, make(map[string]bool), nil)
		if !ok {
			continue
		}
		eff := buildEffective(c, lin)
		res.Effectives = append(res.Effectives, eff)
		res.ByName[c.Name] = eff
	}
	res.Cycles = r.cycles
	res.Warnings = r.warnings
	return res
}

// linearize computes depth-first, most-derived-first, left-to-right
// order with first-occurrence dedup. The first listed base and its
// ancestors therefore win name clashes between sibling bases.
func (r *Resolver) linearize(c *facts.Contract, onStack map[string]bool, path []string) ([]*facts.Contract, bool) {
	if lin, done := r.memo[c.Name]; done {
		return lin, true
	}
	if r.failed[c.Name] {
		return nil, false
	}

	onStack[c.Name] = true
	path = append(path, c.Name)

	out := []*facts.Contract{c}
	seen := map[string]bool{c.Name: true}
	ok := true

	for _, baseName := range c.Bases {
		if onStack[baseName] {
			r.recordCycle(path, baseName)
			ok = false
			continue
		}
		base, exists := r.byName[baseName]
		if !exists {
			r.warnings = append(r.warnings, Warning{
				Contract: c.Name,
				Subject:  baseName,
				Message:  "base contract not found",
			})
			continue
		}
		baseLin, baseOK := r.linearize(base, onStack, path)
		if !baseOK {
			ok = false
			continue
		}
		for _, anc := range baseLin {
			if !seen[anc.Name] {
				seen[anc.Name] = true
				out = append(out, anc)
			}
		}
	}

	delete(onStack, c.Name)

	if !ok {
		r.failed[c.Name] = true
		return nil, false
	}
	r.memo[c.Name] = out
	return out, true
}

func (r *Resolver) recordCycle(path []string, repeated string) {
	start := -1
	for i, name := range path {
		if name == repeated {
			start = i
			break
		}
	}
	if start < 0 {
		return
	}
	cycle := normalizeCycle(path[start:])
	key := strings.Join(cycle, "\x00")
	if r.cycleSeen[key] {
		return
	}
	r.cycleSeen[key] = true
	r.cycles = append(r.cycles, cycle)
}

// normalizeCycle rotates the cycle so its lexicographically smallest
// member comes first, making repeated discoveries comparable.
func normalizeCycle(cycle []string) []string {
	if len(cycle) == 0 {
		return nil
	}
	min := 0
	for i, name := range cycle {
		if name < cycle[min] {
			min = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[min:]...)
	out = append(out, cycle[:min]...)
	return out
}

func buildEffective(c *facts.Contract, lin []*facts.Contract) *Effective {
	eff := &Effective{
		Contract:      c,
		Linearization: lin,
		Functions:     make(map[string]FunctionDecl),
		Modifiers:     make(map[string]ModifierDecl),
		Variables:     make(map[string]VariableDecl),
		lineage:       make(map[string]bool, len(lin)),
	}
	for _, anc := range lin {
		eff.lineage[anc.Name] = true
		for i := range anc.Functions {
			fn := &anc.Functions[i]
			if fn.IsConstructor {
				eff.Constructors = append(eff.Constructors, FunctionDecl{Fn: fn, Owner: anc})
				continue
			}
			if _, taken := eff.Functions[fn.Name]; taken {
				continue
			}
			eff.Functions[fn.Name] = FunctionDecl{Fn: fn, Owner: anc}
			eff.FunctionOrder = append(eff.FunctionOrder, fn.Name)
		}
		for i := range anc.Modifiers {
			mod := &anc.Modifiers[i]
			if _, taken := eff.Modifiers[mod.Name]; taken {
				continue
			}
			eff.Modifiers[mod.Name] = ModifierDecl{Mod: mod, Owner: anc}
			eff.ModifierOrder = append(eff.ModifierOrder, mod.Name)
		}
		for i := range anc.StateVariables {
			v := &anc.StateVariables[i]
			if _, taken := eff.Variables[v.Name]; taken {
				continue
			}
			eff.Variables[v.Name] = VariableDecl{Var: v, Owner: anc}
			eff.VariableOrder = append(eff.VariableOrder, v.Name)
		}
	}
	return eff
}
