package inherit

import "github.com/nisedo/Trackidity/internal/facts"

// EntryPoint is one externally reachable state-changing callable as seen
// from a concrete contract. Every effective entry point is listed under
// the contract that exposes it; declarations won from an ancestor carry
// the inherited flag and their origin.
type EntryPoint struct {
	Name          string
	Label         string
	Canonical     string
	FlowKey       string
	Contract      string
	Owner         string
	File          string
	Inherited     bool
	InheritedFrom string
	Listed        bool
	IsConstructor bool
	Location      facts.Location
}

// IsEntryFunction reports whether a single declaration qualifies as an
// entry point: implemented, state changing, and either externally
// visible or a constructor/receive/fallback, which are reachable during
// deployment or via plain transfers regardless of declared visibility.
func IsEntryFunction(fn *facts.Function) bool {
	if !fn.IsImplemented() {
		return false
	}
	if fn.Mutability == facts.MutabilityView || fn.Mutability == facts.MutabilityPure {
		return false
	}
	if fn.IsConstructor || fn.IsReceive || fn.IsFallback {
		return true
	}
	return fn.Visibility == facts.VisibilityPublic || fn.Visibility == facts.VisibilityExternal
}

// Classify computes the entry points of one concrete contract: the
// state-changing slice of its effective surface, plus every ancestor
// constructor, which all run when the contract is deployed.
func Classify(eff *Effective, pc *facts.PathClassifier, excludeDeps bool) []EntryPoint {
	var out []EntryPoint
	for _, name := range eff.FunctionOrder {
		decl := eff.Functions[name]
		if !IsEntryFunction(decl.Fn) {
			continue
		}
		out = append(out, entryRow(eff.Contract, decl, pc, excludeDeps))
	}
	for _, decl := range eff.Constructors {
		if !IsEntryFunction(decl.Fn) {
			continue
		}
		ep := entryRow(eff.Contract, decl, pc, excludeDeps)
		ep.IsConstructor = true
		out = append(out, ep)
	}
	return out
}

func entryRow(c *facts.Contract, decl FunctionDecl, pc *facts.PathClassifier, excludeDeps bool) EntryPoint {
	canonical := decl.Owner.Name + "." + decl.Fn.Name
	if decl.Owner == c {
		file := declFile(decl)
		return EntryPoint{
			Name:      decl.Fn.Name,
			Label:     decl.Fn.Label,
			Canonical: canonical,
			FlowKey:   file + "::" + canonical,
			Contract:  c.Name,
			Owner:     decl.Owner.Name,
			File:      file,
			Listed:    !(excludeDeps && pc.IsDependency(file)),
			Location:  decl.Fn.Location,
		}
	}
	return EntryPoint{
		Name:          decl.Fn.Name,
		Label:         decl.Fn.Label,
		Canonical:     canonical,
		FlowKey:       c.File + "::" + c.Name + "." + decl.Fn.Name + "::from::" + decl.Owner.Name,
		Contract:      c.Name,
		Owner:         decl.Owner.Name,
		File:          c.File,
		Inherited:     true,
		InheritedFrom: decl.Owner.Name,
		Listed:        true,
		Location:      decl.Fn.Location,
	}
}

func declFile(decl FunctionDecl) string {
	if decl.Fn.Location.File != "" {
		return decl.Fn.Location.File
	}
	return decl.Owner.File
}
