package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestDomainErrorMessage(t *testing.T) {
	err := New(CodeInvalidFacts, "missing contracts array")
	if !strings.Contains(err.Error(), "INVALID_FACTS") {
		t.Errorf("Error() = %s, expected it to contain the code", err.Error())
	}
	if !strings.Contains(err.Error(), "missing contracts array") {
		t.Errorf("Error() = %s, expected it to contain the message", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("unexpected end of JSON input")
	err := Wrap(cause, CodeInvalidFacts, "decode facts")

	var de *DomainError
	if !asDomainError(err, &de) {
		t.Fatalf("Wrap() did not produce a DomainError")
	}
	if de.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, expected %v", de.Unwrap(), cause)
	}
	if !strings.Contains(err.Error(), "unexpected end of JSON input") {
		t.Errorf("Error() = %s, expected wrapped cause in message", err.Error())
	}
}

func asDomainError(err error, target **DomainError) bool {
	de, ok := err.(*DomainError)
	if ok {
		*target = de
	}
	return ok
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     ErrorCode
		expected bool
	}{
		{"matching code", New(CodeMissingBase, "base not found"), CodeMissingBase, true},
		{"different code", New(CodeMissingBase, "base not found"), CodeInheritanceCycle, false},
		{"wrapped domain error", fmt.Errorf("run: %w", New(CodeUnresolvedCall, "no target")), CodeUnresolvedCall, true},
		{"plain error", fmt.Errorf("plain"), CodeInternal, false},
	}

	for _, tt := range tests {
		if got := IsCode(tt.err, tt.code); got != tt.expected {
			t.Errorf("%s: IsCode() = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func TestIsStructural(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"invalid facts", New(CodeInvalidFacts, "bad version"), true},
		{"inheritance cycle", New(CodeInheritanceCycle, "A -> B -> A"), true},
		{"missing base", New(CodeMissingBase, "Base"), false},
		{"unresolved call", New(CodeUnresolvedCall, "target"), false},
	}

	for _, tt := range tests {
		if got := IsStructural(tt.err); got != tt.expected {
			t.Errorf("%s: IsStructural() = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func TestAddContext(t *testing.T) {
	err := New(CodeUnknownVariable, "no declaration")
	err = AddContext(err, CtxContract, "Vault")
	err = AddContext(err, CtxVariable, "totalSupply")

	var de *DomainError
	if !asDomainError(err, &de) {
		t.Fatalf("AddContext() did not preserve the DomainError")
	}
	if de.Context[CtxContract] != "Vault" {
		t.Errorf("Context[%s] = %v, expected Vault", CtxContract, de.Context[CtxContract])
	}
	if de.Context[CtxVariable] != "totalSupply" {
		t.Errorf("Context[%s] = %v, expected totalSupply", CtxVariable, de.Context[CtxVariable])
	}
}
