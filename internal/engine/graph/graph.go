// # internal/engine/graph/graph.go
package graph

import (
	"github.com/nisedo/Trackidity/internal/engine/inherit"
	"github.com/nisedo/Trackidity/internal/facts"
)

// Kind classifies how a callable is reached from the analyzed contract.
type Kind string

const (
	KindInternal        Kind = "Internal"
	KindModifier        Kind = "Modifier"
	KindBaseConstructor Kind = "BaseConstructor"
	KindLibrary         Kind = "Library"
	KindExternal        Kind = "External"
	KindSolidity        Kind = "Solidity"
)

// SourceRef is the output-side location shape: zero-based line and
// character, ready for editor consumption.
type SourceRef struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Character int    `json:"character"`
}

// NewSourceRef converts a one-based facts location. Unknown locations
// map to nil so they serialize as an absent field.
func NewSourceRef(loc facts.Location) *SourceRef {
	if loc.IsZero() {
		return nil
	}
	line := loc.Line - 1
	if line < 0 {
		line = 0
	}
	ch := loc.Column - 1
	if ch < 0 {
		ch = 0
	}
	return &SourceRef{File: loc.File, Line: line, Character: ch}
}

// Write is one resolved state variable write owned by a node.
type Write struct {
	Key            string
	Name           string
	Owner          string
	Var            *facts.StateVariable
	SiteDependency bool
}

// Node is one callable unit in a per-contract call graph. Out edges are
// ordered: modifier attachments first, then deduplicated base
// constructor calls, then body calls in source order.
type Node struct {
	ID         int
	Key        string
	Canonical  string
	Label      string
	Contract   string
	Kind       Kind
	Dependency bool
	Location   facts.Location
	Writes     []Write
	Out        []int
}

// Drop records a recoverable resolution failure: the edge or write is
// skipped, the rest of the graph stands.
type Drop struct {
	From   string
	Target string
	Reason string
}

// Graph is the call graph as seen from one analyzed contract. Nodes from
// the analyzed lineage resolve their calls through that contract's
// overrides; foreign nodes resolve through their own contract.
type Graph struct {
	Owner   *inherit.Effective
	Nodes   []*Node
	Dropped []Drop

	index map[string]int
}

// NodeByKey returns the node id for a canonical key.
func (g *Graph) NodeByKey(key string) (int, bool) {
	id, ok := g.index[key]
	return id, ok
}

type Builder struct {
	res *inherit.Resolution
	pc  *facts.PathClassifier
}

func NewBuilder(res *inherit.Resolution, pc *facts.PathClassifier) *Builder {
	return &Builder{res: res, pc: pc}
}

// Build constructs the analyzed contract's graph. Construction order is
// deterministic: the contract's own effective surface first, then
// discovered targets in edge order.
func (b *Builder) Build(eff *inherit.Effective) *Graph {
	g := &Graph{Owner: eff, index: make(map[string]int)}

	var queue []int
	for _, name := range eff.FunctionOrder {
		queue = append(queue, b.functionNode(g, eff.Functions[name], KindInternal))
	}
	for _, decl := range eff.Constructors {
		kind := KindInternal
		if decl.Owner != eff.Contract {
			kind = KindBaseConstructor
		}
		queue = append(queue, b.functionNode(g, decl, kind))
	}
	for _, name := range eff.ModifierOrder {
		queue = append(queue, b.modifierNode(g, eff.Modifiers[name]))
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		queue = append(queue, b.resolveEdges(g, g.Nodes[id])...)
	}
	return g
}

// nodeContext picks the effective view governing a node's call
// resolution: lineage members inherit the analyzed contract's overrides,
// everything else resolves against its own contract.
func (b *Builder) nodeContext(g *Graph, n *Node) *inherit.Effective {
	if g.Owner.InLineage(n.Contract) {
		return g.Owner
	}
	return b.res.ByName[n.Contract]
}

func (b *Builder) functionNode(g *Graph, decl inherit.FunctionDecl, kind Kind) int {
	key := decl.Owner.Name + "." + decl.Fn.Name
	if id, ok := g.index[key]; ok {
		return id
	}
	file := decl.Fn.Location.File
	if file == "" {
		file = decl.Owner.File
	}
	n := &Node{
		ID:         len(g.Nodes),
		Key:        key,
		Canonical:  key,
		Label:      decl.Fn.Label,
		Contract:   decl.Owner.Name,
		Kind:       kind,
		Dependency: b.pc.IsDependency(file),
		Location:   decl.Fn.Location,
	}
	g.index[key] = n.ID
	g.Nodes = append(g.Nodes, n)
	n.Writes = b.resolveWrites(g, n, decl.Fn.Writes, file)
	return n.ID
}

func (b *Builder) modifierNode(g *Graph, decl inherit.ModifierDecl) int {
	key := decl.Owner.Name + "." + decl.Mod.Name
	if id, ok := g.index[key]; ok {
		return id
	}
	file := decl.Mod.Location.File
	if file == "" {
		file = decl.Owner.File
	}
	n := &Node{
		ID:         len(g.Nodes),
		Key:        key,
		Canonical:  key,
		Label:      decl.Mod.Label,
		Contract:   decl.Owner.Name,
		Kind:       KindModifier,
		Dependency: b.pc.IsDependency(file),
		Location:   decl.Mod.Location,
	}
	g.index[key] = n.ID
	g.Nodes = append(g.Nodes, n)
	n.Writes = b.resolveWrites(g, n, decl.Mod.Writes, file)
	return n.ID
}

func (b *Builder) solidityNode(g *Graph, name string) int {
	key := "Solidity:" + name
	if id, ok := g.index[key]; ok {
		return id
	}
	n := &Node{
		ID:    len(g.Nodes),
		Key:   key,
		Label: name,
		Kind:  KindSolidity,
	}
	g.index[key] = n.ID
	g.Nodes = append(g.Nodes, n)
	return n.ID
}

// resolveEdges fills a node's ordered out-edge list and returns the ids
// of nodes created along the way so the builder can process them too.
func (b *Builder) resolveEdges(g *Graph, n *Node) []int {
	if n.Out != nil || n.Kind == KindSolidity {
		return nil
	}
	ctx := b.nodeContext(g, n)
	if ctx == nil {
		n.Out = []int{}
		return nil
	}

	fn, mod := b.declFor(n)
	var refs []string
	var calls []facts.CallRef
	switch {
	case fn != nil:
		refs = fn.ModifierRefs
		calls = fn.Calls
	case mod != nil:
		calls = mod.Calls
	default:
		n.Out = []int{}
		return nil
	}

	var created []int
	before := len(g.Nodes)
	appendNew := func() {
		for i := before; i < len(g.Nodes); i++ {
			created = append(created, i)
		}
		before = len(g.Nodes)
	}

	var modifierEdges, ctorEdges, bodyEdges []int
	seenCtor := make(map[string]bool)

	for _, ref := range refs {
		md, ok := ctx.Modifier(ref)
		if !ok {
			g.Dropped = append(g.Dropped, Drop{From: n.Key, Target: ref, Reason: "unresolved modifier"})
			continue
		}
		modifierEdges = append(modifierEdges, b.modifierNode(g, md))
		appendNew()
	}

	for _, call := range calls {
		target, isBaseCtor, ok := b.resolveCall(g, n, call)
		if !ok {
			continue
		}
		if isBaseCtor {
			owner := g.Nodes[target].Contract
			if seenCtor[owner] {
				continue
			}
			seenCtor[owner] = true
			ctorEdges = append(ctorEdges, target)
		} else {
			bodyEdges = append(bodyEdges, target)
		}
		appendNew()
	}

	out := make([]int, 0, len(modifierEdges)+len(ctorEdges)+len(bodyEdges))
	out = append(out, modifierEdges...)
	out = append(out, ctorEdges...)
	out = append(out, bodyEdges...)
	n.Out = out
	return created
}

// declFor finds the facts declaration behind a node. Node keys are
// "Contract.name", so the unit name is everything after the owner.
func (b *Builder) declFor(n *Node) (*facts.Function, *facts.Modifier) {
	owner := b.res.ByName[n.Contract]
	if owner == nil {
		return nil, nil
	}
	name := n.Key[len(n.Contract)+1:]
	c := owner.Contract
	for i := range c.Functions {
		if c.Functions[i].Name == name {
			return &c.Functions[i], nil
		}
	}
	for i := range c.Modifiers {
		if c.Modifiers[i].Name == name {
			return nil, &c.Modifiers[i]
		}
	}
	return nil, nil
}

// resolveCall maps one call reference to a target node. Targets inside
// the analyzed lineage go through the analyzed contract's overrides;
// constructor targets are exempt and always resolve to the named
// contract's own constructor; foreign targets resolve in their own
// contract's view.
func (b *Builder) resolveCall(g *Graph, from *Node, call facts.CallRef) (int, bool, bool) {
	if call.TargetContract == "" {
		return b.solidityNode(g, call.TargetName), false, true
	}

	tEff := b.res.ByName[call.TargetContract]
	if tEff == nil {
		g.Dropped = append(g.Dropped, Drop{
			From:   from.Key,
			Target: call.TargetContract + "." + call.TargetName,
			Reason: "unknown contract",
		})
		return 0, false, false
	}

	if facts.BaseName(call.TargetName) == "constructor" {
		decl, ok := tEff.Constructor(call.TargetContract)
		if !ok {
			g.Dropped = append(g.Dropped, Drop{
				From:   from.Key,
				Target: call.TargetContract + "." + call.TargetName,
				Reason: "no constructor declared",
			})
			return 0, false, false
		}
		inLineage := g.Owner.InLineage(call.TargetContract)
		kind := KindExternal
		if inLineage {
			kind = KindBaseConstructor
		}
		return b.functionNode(g, decl, kind), inLineage, true
	}

	if g.Owner.InLineage(call.TargetContract) {
		decl, ok := g.Owner.Function(call.TargetName)
		if !ok {
			g.Dropped = append(g.Dropped, Drop{
				From:   from.Key,
				Target: call.TargetContract + "." + call.TargetName,
				Reason: "unresolved target",
			})
			return 0, false, false
		}
		return b.functionNode(g, decl, KindInternal), false, true
	}

	decl, ok := tEff.Function(call.TargetName)
	if !ok {
		g.Dropped = append(g.Dropped, Drop{
			From:   from.Key,
			Target: call.TargetContract + "." + call.TargetName,
			Reason: "unresolved target",
		})
		return 0, false, false
	}
	kind := KindExternal
	if tEff.Contract.Kind == facts.KindLibrary {
		kind = KindLibrary
	}
	return b.functionNode(g, decl, kind), false, true
}

// resolveWrites maps write references to variable identities using the
// writing contract's own lineage. Writes to constants and immutables
// are ignored; unknown names are dropped and reported.
func (b *Builder) resolveWrites(g *Graph, n *Node, writes []facts.WriteRef, siteFile string) []Write {
	if len(writes) == 0 {
		return nil
	}
	ctx := b.res.ByName[n.Contract]
	if ctx == nil {
		return nil
	}
	siteDep := b.pc.IsDependency(siteFile)

	var out []Write
	for _, w := range writes {
		decl, ok := ctx.Variables[w.Variable]
		if !ok {
			g.Dropped = append(g.Dropped, Drop{From: n.Key, Target: w.Variable, Reason: "unknown variable"})
			continue
		}
		if decl.Var.IsConstant || decl.Var.IsImmutable {
			continue
		}
		out = append(out, Write{
			Key:            decl.Owner.Name + "." + decl.Var.Name,
			Name:           decl.Var.Name,
			Owner:          decl.Owner.Name,
			Var:            decl.Var,
			SiteDependency: siteDep,
		})
	}
	return out
}
