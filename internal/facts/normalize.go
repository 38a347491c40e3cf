package facts

// solidityBuiltins are language-level callables the extraction front end
// may report as call targets. They never reach user code, so edges to
// them are dropped before analysis. Matching is on the name with any
// parameter list stripped.
var solidityBuiltins = map[string]struct{}{
	"require":                 {},
	"assert":                  {},
	"revert":                  {},
	"return":                  {},
	"abi.encode":              {},
	"abi.encodePacked":        {},
	"abi.encodeWithSelector":  {},
	"abi.encodeWithSignature": {},
	"abi.encodeCall":          {},
	"abi.decode":              {},
	"keccak256":               {},
	"sha256":                  {},
	"ripemd160":               {},
	"bytes.concat":            {},
	"string.concat":           {},
	"ecrecover":               {},
	"addmod":                  {},
	"mulmod":                  {},
	"blockhash":               {},
	"tload":                   {},
	"tstore":                  {},
	"mload":                   {},
	"mstore":                  {},
	"calldataload":            {},
	"sload":                   {},
	"sstore":                  {},
	"signextend":              {},
	"gasleft":                 {},
	"type":                    {},
}

// IsBuiltinCall reports whether a call target name refers to a language
// built-in rather than user code.
func IsBuiltinCall(name string) bool {
	_, ok := solidityBuiltins[BaseName(name)]
	return ok
}

// Normalize fills in defaults the front end is allowed to omit and drops
// call edges that can never reach user code.
func Normalize(unit *Unit) {
	for i := range unit.Contracts {
		c := &unit.Contracts[i]
		if c.Kind == "" {
			c.Kind = KindContract
		}
		for j := range c.Functions {
			normalizeFunction(&c.Functions[j])
		}
		for j := range c.Modifiers {
			m := &c.Modifiers[j]
			if m.Label == "" {
				m.Label = BaseName(m.Name)
			}
			m.Calls = dropBuiltinCalls(m.Calls)
		}
	}
}

func normalizeFunction(f *Function) {
	if f.Label == "" {
		f.Label = BaseName(f.Name)
	}
	if f.Visibility == "" {
		f.Visibility = VisibilityInternal
	}
	if f.Mutability == "" {
		f.Mutability = MutabilityNonPayable
	}
	f.Calls = dropBuiltinCalls(f.Calls)
}

func dropBuiltinCalls(calls []CallRef) []CallRef {
	kept := calls[:0]
	for _, call := range calls {
		if call.TargetContract == "" && IsBuiltinCall(call.TargetName) {
			continue
		}
		kept = append(kept, call)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
