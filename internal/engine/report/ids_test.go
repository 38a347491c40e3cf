package report

import "testing"

func TestFlowIDDeterministic(t *testing.T) {
	key := "src/Logic.sol::Logic.bump()"
	if FlowID(key) != FlowID(key) {
		t.Error("FlowID is not stable for identical keys")
	}
}

func TestFlowIDDistinctKeys(t *testing.T) {
	keys := []string{
		"src/Logic.sol::Logic.bump()",
		"src/Logic.sol::Logic.setX(uint256)::from::Storage",
		"src/Storage.sol::Storage.setX(uint256)",
	}
	seen := make(map[string]string)
	for _, key := range keys {
		id := FlowID(key)
		if prev, ok := seen[id]; ok {
			t.Errorf("FlowID collision: %q and %q both map to %s", prev, key, id)
		}
		seen[id] = key
	}
}

func TestVarIDDeterministic(t *testing.T) {
	key := "src/Storage.sol::Storage.x"
	if VarID(key) != VarID(key) {
		t.Error("VarID is not stable for identical keys")
	}
	if VarID(key) == VarID("src/Logic.sol::Logic.x") {
		t.Error("distinct var keys produced the same id")
	}
}
