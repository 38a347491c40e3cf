package inherit

import (
	"testing"

	"github.com/nisedo/Trackidity/internal/facts"
)

func boolPtr(b bool) *bool { return &b }

func TestIsEntryFunction(t *testing.T) {
	tests := []struct {
		name     string
		fn       facts.Function
		expected bool
	}{
		{
			"public nonpayable",
			facts.Function{Name: "set()", Visibility: facts.VisibilityPublic, Mutability: facts.MutabilityNonPayable},
			true,
		},
		{
			"external payable",
			facts.Function{Name: "buy()", Visibility: facts.VisibilityExternal, Mutability: facts.MutabilityPayable},
			true,
		},
		{
			"public view",
			facts.Function{Name: "get()", Visibility: facts.VisibilityPublic, Mutability: facts.MutabilityView},
			false,
		},
		{
			"external pure",
			facts.Function{Name: "calc()", Visibility: facts.VisibilityExternal, Mutability: facts.MutabilityPure},
			false,
		},
		{
			"internal nonpayable",
			facts.Function{Name: "move()", Visibility: facts.VisibilityInternal, Mutability: facts.MutabilityNonPayable},
			false,
		},
		{
			"private nonpayable",
			facts.Function{Name: "hide()", Visibility: facts.VisibilityPrivate, Mutability: facts.MutabilityNonPayable},
			false,
		},
		{
			"constructor bypasses visibility",
			facts.Function{Name: "constructor()", Visibility: facts.VisibilityInternal, Mutability: facts.MutabilityNonPayable, IsConstructor: true},
			true,
		},
		{
			"receive bypasses visibility",
			facts.Function{Name: "receive()", Visibility: facts.VisibilityInternal, Mutability: facts.MutabilityPayable, IsReceive: true},
			true,
		},
		{
			"fallback still bound by mutability",
			facts.Function{Name: "fallback()", Visibility: facts.VisibilityExternal, Mutability: facts.MutabilityView, IsFallback: true},
			false,
		},
		{
			"unimplemented public",
			facts.Function{Name: "abstractSet()", Visibility: facts.VisibilityPublic, Mutability: facts.MutabilityNonPayable, Implemented: boolPtr(false)},
			false,
		},
	}

	for _, tt := range tests {
		if got := IsEntryFunction(&tt.fn); got != tt.expected {
			t.Errorf("%s: IsEntryFunction() = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func classifierFixture(t *testing.T, contracts []facts.Contract, excludeDeps bool) map[string][]EntryPoint {
	t.Helper()
	pc, err := facts.NewPathClassifier(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewPathClassifier() returned error: %v", err)
	}
	unit := &facts.Unit{Version: 1, Contracts: contracts}
	facts.Normalize(unit)
	res := NewResolver(unit).ResolveAll()

	out := make(map[string][]EntryPoint)
	for _, eff := range res.Effectives {
		if eff.Contract.IsConcrete() {
			out[eff.Contract.Name] = Classify(eff, pc, excludeDeps)
		}
	}
	return out
}

func TestClassifyLocalDeclaration(t *testing.T) {
	c := contract("Vault")
	c.Functions = []facts.Function{
		{Name: "deposit()", Visibility: facts.VisibilityPublic, Mutability: facts.MutabilityPayable, Location: facts.Location{File: "src/Vault.sol", Line: 10, Column: 5}},
		{Name: "peek()", Visibility: facts.VisibilityPublic, Mutability: facts.MutabilityView},
	}

	eps := classifierFixture(t, []facts.Contract{c}, true)["Vault"]
	if len(eps) != 1 {
		t.Fatalf("len(eps) = %d, expected 1", len(eps))
	}
	ep := eps[0]
	if ep.Canonical != "Vault.deposit()" {
		t.Errorf("Canonical = %s, expected Vault.deposit()", ep.Canonical)
	}
	if ep.FlowKey != "src/Vault.sol::Vault.deposit()" {
		t.Errorf("FlowKey = %s, expected src/Vault.sol::Vault.deposit()", ep.FlowKey)
	}
	if !ep.Listed || ep.Inherited {
		t.Errorf("Listed = %v, Inherited = %v, expected listed local row", ep.Listed, ep.Inherited)
	}
}

func TestClassifyInheritedDeclarationRelisted(t *testing.T) {
	parent := contract("Storage")
	parent.Functions = []facts.Function{
		{Name: "setX(uint256)", Visibility: facts.VisibilityPublic, Mutability: facts.MutabilityNonPayable, Location: facts.Location{File: "src/Storage.sol", Line: 3, Column: 5}},
	}
	child := contract("Logic", "Storage")
	child.Functions = []facts.Function{
		{Name: "bump()", Visibility: facts.VisibilityPublic, Mutability: facts.MutabilityNonPayable, Location: facts.Location{File: "src/Logic.sol", Line: 4, Column: 5}},
	}

	byContract := classifierFixture(t, []facts.Contract{child, parent}, true)

	logicEPs := byContract["Logic"]
	if len(logicEPs) != 2 {
		t.Fatalf("len(Logic eps) = %d, expected bump and inherited setX", len(logicEPs))
	}

	var setX, bump *EntryPoint
	for i := range logicEPs {
		switch logicEPs[i].Label {
		case "setX":
			setX = &logicEPs[i]
		case "bump":
			bump = &logicEPs[i]
		}
	}
	if setX == nil || bump == nil {
		t.Fatalf("eps = %+v, expected setX and bump", logicEPs)
	}
	if !setX.Inherited || setX.InheritedFrom != "Storage" {
		t.Errorf("setX Inherited = %v from %s, expected re-listing with origin Storage", setX.Inherited, setX.InheritedFrom)
	}
	if setX.File != "src/Logic.sol" {
		t.Errorf("setX.File = %s, expected the listing contract's file", setX.File)
	}
	if setX.FlowKey != "src/Logic.sol::Logic.setX(uint256)::from::Storage" {
		t.Errorf("setX.FlowKey = %s, unexpected inherited key", setX.FlowKey)
	}
	if setX.Location.File != "src/Storage.sol" {
		t.Errorf("setX.Location.File = %s, expected the declaration site", setX.Location.File)
	}
	if bump.Inherited {
		t.Errorf("bump marked inherited, expected local row")
	}

	storageEPs := byContract["Storage"]
	if len(storageEPs) != 1 || storageEPs[0].Inherited {
		t.Fatalf("Storage eps = %+v, expected one local setX row", storageEPs)
	}
	if storageEPs[0].FlowKey == setX.FlowKey {
		t.Errorf("flow keys collide, expected per-contract identities")
	}
}

func TestClassifyOverrideSuppressesRelisting(t *testing.T) {
	parent := contract("Base")
	parent.Kind = facts.KindAbstract
	parent.Functions = []facts.Function{
		{Name: "setX(uint256)", Visibility: facts.VisibilityPublic, Mutability: facts.MutabilityNonPayable},
	}
	child := contract("Child", "Base")
	child.Functions = []facts.Function{
		{Name: "setX(uint256)", Visibility: facts.VisibilityPublic, Mutability: facts.MutabilityNonPayable},
	}

	eps := classifierFixture(t, []facts.Contract{child, parent}, true)["Child"]
	if len(eps) != 1 {
		t.Fatalf("len(eps) = %d, expected only the override", len(eps))
	}
	if eps[0].Inherited || eps[0].Owner != "Child" {
		t.Errorf("ep = %+v, expected the local override row", eps[0])
	}
}

func TestClassifyAbstractContractNotListed(t *testing.T) {
	abstract := contract("Base")
	abstract.Kind = facts.KindAbstract
	abstract.Functions = []facts.Function{
		{Name: "setX(uint256)", Visibility: facts.VisibilityPublic, Mutability: facts.MutabilityNonPayable},
	}

	byContract := classifierFixture(t, []facts.Contract{abstract}, true)
	if _, ok := byContract["Base"]; ok {
		t.Errorf("abstract contract classified, expected concrete contracts only")
	}
}

func TestClassifyDependencyDeclarations(t *testing.T) {
	dep := contract("ERC20")
	dep.File = "lib/openzeppelin/ERC20.sol"
	dep.Functions = []facts.Function{
		{Name: "transfer(address,uint256)", Visibility: facts.VisibilityPublic, Mutability: facts.MutabilityNonPayable, Location: facts.Location{File: "lib/openzeppelin/ERC20.sol", Line: 30, Column: 5}},
	}
	token := contract("Token", "ERC20")

	excluded := classifierFixture(t, []facts.Contract{token, dep}, true)
	tokenEPs := excluded["Token"]
	if len(tokenEPs) != 1 || !tokenEPs[0].Inherited {
		t.Fatalf("Token eps = %+v, expected the dependency declaration re-listed", tokenEPs)
	}
	if !tokenEPs[0].Listed {
		t.Errorf("inherited row unlisted, expected the deriving contract to keep it visible")
	}
	depEPs := excluded["ERC20"]
	if len(depEPs) != 1 || depEPs[0].Listed {
		t.Errorf("ERC20 eps = %+v, expected unlisted row while dependencies are excluded", depEPs)
	}

	included := classifierFixture(t, []facts.Contract{token, dep}, false)
	if !included["ERC20"][0].Listed {
		t.Errorf("ERC20 row unlisted although dependency listings are included")
	}
}

func TestClassifyParentConstructorRelisted(t *testing.T) {
	parent := contract("Base")
	parent.Functions = []facts.Function{
		{Name: "constructor()", Visibility: facts.VisibilityInternal, Mutability: facts.MutabilityNonPayable, IsConstructor: true},
	}
	child := contract("Child", "Base")
	child.Functions = []facts.Function{
		{Name: "constructor(uint256)", Visibility: facts.VisibilityPublic, Mutability: facts.MutabilityNonPayable, IsConstructor: true},
	}

	eps := classifierFixture(t, []facts.Contract{child, parent}, true)["Child"]
	if len(eps) != 2 {
		t.Fatalf("len(eps) = %d, expected own and inherited constructors", len(eps))
	}

	var own, inherited int
	for _, ep := range eps {
		if !ep.IsConstructor {
			t.Errorf("ep %s missing constructor flag", ep.Canonical)
		}
		if ep.Inherited {
			inherited++
		} else {
			own++
		}
	}
	if own != 1 || inherited != 1 {
		t.Errorf("own = %d, inherited = %d, expected 1 and 1", own, inherited)
	}
}
