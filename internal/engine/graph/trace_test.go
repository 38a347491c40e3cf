package graph

import (
	"testing"

	"github.com/nisedo/Trackidity/internal/facts"
)

func traceFixture(t *testing.T, contracts ...facts.Contract) *Graph {
	t.Helper()
	b, res := fixture(t, contracts...)
	return b.Build(res.ByName[contracts[0].Name])
}

func findWrite(tr Trace, key string) (TraceWrite, bool) {
	for _, w := range tr.Writes {
		if w.Key == key {
			return w, true
		}
	}
	return TraceWrite{}, false
}

func TestTraceDirectAndTransitive(t *testing.T) {
	c := facts.Contract{
		Name: "Ledger",
		File: "src/Ledger.sol",
		Kind: facts.KindContract,
		Functions: []facts.Function{
			{
				Name:       "post()",
				Visibility: facts.VisibilityPublic,
				Mutability: facts.MutabilityNonPayable,
				Writes:     []facts.WriteRef{{Variable: "head"}},
				Calls:      []facts.CallRef{{TargetContract: "Ledger", TargetName: "_append()"}},
			},
			{
				Name:       "_append()",
				Visibility: facts.VisibilityInternal,
				Mutability: facts.MutabilityNonPayable,
				Writes:     []facts.WriteRef{{Variable: "entries"}},
			},
		},
		StateVariables: []facts.StateVariable{
			{Name: "head", Type: "uint256"},
			{Name: "entries", Type: "uint256[]"},
		},
	}

	g := traceFixture(t, c)
	entry, _ := g.NodeByKey("Ledger.post()")
	tr := NewTracer(g).Trace(entry, 10)

	if tr.Truncated {
		t.Errorf("Truncated = true, expected complete traversal")
	}
	head, ok := findWrite(tr, "Ledger.head")
	if !ok || !head.Direct || head.Depth != 0 {
		t.Errorf("head = %+v, expected direct write at depth 0", head)
	}
	entries, ok := findWrite(tr, "Ledger.entries")
	if !ok || entries.Direct || entries.Depth != 1 {
		t.Errorf("entries = %+v, expected transitive write at depth 1", entries)
	}
}

func TestTraceModifierWriteIsDirect(t *testing.T) {
	c := facts.Contract{
		Name: "Gate",
		File: "src/Gate.sol",
		Kind: facts.KindContract,
		Functions: []facts.Function{
			{
				Name:         "enter()",
				Visibility:   facts.VisibilityPublic,
				Mutability:   facts.MutabilityNonPayable,
				ModifierRefs: []string{"nonReentrant"},
			},
		},
		Modifiers: []facts.Modifier{
			{Name: "nonReentrant", Writes: []facts.WriteRef{{Variable: "locked"}}},
		},
		StateVariables: []facts.StateVariable{{Name: "locked", Type: "bool"}},
	}

	g := traceFixture(t, c)
	entry, _ := g.NodeByKey("Gate.enter()")
	tr := NewTracer(g).Trace(entry, 10)

	locked, ok := findWrite(tr, "Gate.locked")
	if !ok || !locked.Direct {
		t.Errorf("locked = %+v, expected attached modifier write to count as direct", locked)
	}
}

func TestTraceTerminatesOnCycles(t *testing.T) {
	c := facts.Contract{
		Name: "PingPong",
		File: "src/PingPong.sol",
		Kind: facts.KindContract,
		Functions: []facts.Function{
			{
				Name:       "ping()",
				Visibility: facts.VisibilityPublic,
				Mutability: facts.MutabilityNonPayable,
				Calls:      []facts.CallRef{{TargetContract: "PingPong", TargetName: "pong()"}},
			},
			{
				Name:       "pong()",
				Visibility: facts.VisibilityInternal,
				Mutability: facts.MutabilityNonPayable,
				Writes:     []facts.WriteRef{{Variable: "turns"}},
				Calls:      []facts.CallRef{{TargetContract: "PingPong", TargetName: "ping()"}},
			},
			{
				Name:       "echo()",
				Visibility: facts.VisibilityPublic,
				Mutability: facts.MutabilityNonPayable,
				Calls:      []facts.CallRef{{TargetContract: "PingPong", TargetName: "echo()"}},
			},
		},
		StateVariables: []facts.StateVariable{{Name: "turns", Type: "uint256"}},
	}

	g := traceFixture(t, c)
	tracer := NewTracer(g)

	ping, _ := g.NodeByKey("PingPong.ping()")
	tr := tracer.Trace(ping, 10)
	if tr.Truncated {
		t.Errorf("Truncated = true, expected a cycle not to count as truncation")
	}
	if _, ok := findWrite(tr, "PingPong.turns"); !ok {
		t.Errorf("turns not found, expected the write inside the cycle")
	}

	echo, _ := g.NodeByKey("PingPong.echo()")
	tr = tracer.Trace(echo, 10)
	if tr.Truncated || len(tr.Writes) != 0 {
		t.Errorf("self-recursive trace = %+v, expected clean empty result", tr)
	}
}

func TestTraceDepthTruncation(t *testing.T) {
	c := facts.Contract{
		Name: "Chain",
		File: "src/Chain.sol",
		Kind: facts.KindContract,
		Functions: []facts.Function{
			{
				Name:       "start()",
				Visibility: facts.VisibilityPublic,
				Mutability: facts.MutabilityNonPayable,
				Calls:      []facts.CallRef{{TargetContract: "Chain", TargetName: "mid()"}},
			},
			{
				Name:       "mid()",
				Visibility: facts.VisibilityInternal,
				Mutability: facts.MutabilityNonPayable,
				Calls:      []facts.CallRef{{TargetContract: "Chain", TargetName: "deep()"}},
			},
			{
				Name:       "deep()",
				Visibility: facts.VisibilityInternal,
				Mutability: facts.MutabilityNonPayable,
				Writes:     []facts.WriteRef{{Variable: "x"}},
			},
		},
		StateVariables: []facts.StateVariable{{Name: "x", Type: "uint256"}},
	}

	g := traceFixture(t, c)
	entry, _ := g.NodeByKey("Chain.start()")
	tracer := NewTracer(g)

	bounded := tracer.Trace(entry, 1)
	if !bounded.Truncated {
		t.Fatalf("Truncated = false, expected the depth bound to cut the walk")
	}
	x, ok := findWrite(bounded, "Chain.x")
	if !ok {
		t.Fatalf("x missing, expected a truncated write entry rather than silence")
	}
	if !x.Truncated || x.Depth != -1 {
		t.Errorf("x = %+v, expected truncated entry with unknown depth", x)
	}

	unbounded := tracer.Trace(entry, 10)
	if unbounded.Truncated {
		t.Errorf("Truncated = true, expected full traversal at depth 10")
	}
	x, _ = findWrite(unbounded, "Chain.x")
	if x.Truncated || x.Depth != 2 {
		t.Errorf("x = %+v, expected definite write at depth 2", x)
	}

	if len(bounded.Writes) != len(unbounded.Writes) {
		t.Errorf("bounded found %d writes, unbounded %d, expected the closure to cover the gap", len(bounded.Writes), len(unbounded.Writes))
	}
}

func TestTraceProjectSiteFlag(t *testing.T) {
	dep := facts.Contract{
		Name: "Base",
		File: "lib/oz/Base.sol",
		Kind: facts.KindContract,
		Functions: []facts.Function{
			{
				Name:       "_setOwner(address)",
				Visibility: facts.VisibilityInternal,
				Mutability: facts.MutabilityNonPayable,
				Writes:     []facts.WriteRef{{Variable: "owner"}},
			},
		},
		StateVariables: []facts.StateVariable{{Name: "owner", Type: "address"}},
	}
	app := facts.Contract{
		Name:  "App",
		File:  "src/App.sol",
		Kind:  facts.KindContract,
		Bases: []string{"Base"},
		Functions: []facts.Function{
			{
				Name:       "claim()",
				Visibility: facts.VisibilityPublic,
				Mutability: facts.MutabilityNonPayable,
				Calls:      []facts.CallRef{{TargetContract: "Base", TargetName: "_setOwner(address)"}},
			},
			{
				Name:       "tag()",
				Visibility: facts.VisibilityPublic,
				Mutability: facts.MutabilityNonPayable,
				Writes:     []facts.WriteRef{{Variable: "label"}},
			},
		},
		StateVariables: []facts.StateVariable{{Name: "label", Type: "string"}},
	}

	g := traceFixture(t, app, dep)
	tracer := NewTracer(g)

	claim, _ := g.NodeByKey("App.claim()")
	tr := tracer.Trace(claim, 10)
	owner, ok := findWrite(tr, "Base.owner")
	if !ok {
		t.Fatalf("Base.owner not reached")
	}
	if owner.ProjectSite {
		t.Errorf("ProjectSite = true, expected false when every write site is dependency code")
	}

	tag, _ := g.NodeByKey("App.tag()")
	tr = tracer.Trace(tag, 10)
	label, _ := findWrite(tr, "App.label")
	if !label.ProjectSite {
		t.Errorf("ProjectSite = false, expected true for a project write site")
	}
}
