package facts

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nisedo/Trackidity/internal/errors"
)

// Load reads and decodes a facts document from disk.
func Load(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidFacts, "read facts file")
	}
	return Decode(data)
}

// Read decodes a facts document from a stream, typically stdin.
func Read(r io.Reader) (*Unit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidFacts, "read facts stream")
	}
	return Decode(data)
}

// Decode unmarshals, normalizes and validates a facts document. Any
// failure here is structural: the whole run must be rejected.
func Decode(data []byte) (*Unit, error) {
	var unit Unit
	if err := json.Unmarshal(data, &unit); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidFacts, "decode facts")
	}
	Normalize(&unit)
	if err := validate(&unit); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidFacts, "validate facts")
	}
	return &unit, nil
}

func validate(unit *Unit) error {
	if unit.Version != SupportedVersion {
		return fmt.Errorf("unsupported facts version %d, expected %d", unit.Version, SupportedVersion)
	}
	for i := range unit.Contracts {
		if err := validateContract(&unit.Contracts[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateContract(c *Contract) error {
	if c.Name == "" {
		return fmt.Errorf("contract name must not be empty")
	}
	if c.File == "" {
		return fmt.Errorf("contract %s: file must not be empty", c.Name)
	}
	switch c.Kind {
	case KindContract, KindAbstract, KindInterface, KindLibrary:
	default:
		return fmt.Errorf("contract %s: unknown kind %q", c.Name, c.Kind)
	}
	for _, b := range c.Bases {
		if b == "" {
			return fmt.Errorf("contract %s: base name must not be empty", c.Name)
		}
	}
	for i := range c.Functions {
		if err := validateFunction(c.Name, &c.Functions[i]); err != nil {
			return err
		}
	}
	for i := range c.Modifiers {
		if c.Modifiers[i].Name == "" {
			return fmt.Errorf("contract %s: modifier name must not be empty", c.Name)
		}
	}
	for i := range c.StateVariables {
		if c.StateVariables[i].Name == "" {
			return fmt.Errorf("contract %s: state variable name must not be empty", c.Name)
		}
	}
	return nil
}

func validateFunction(contract string, f *Function) error {
	if f.Name == "" {
		return fmt.Errorf("contract %s: function name must not be empty", contract)
	}
	switch f.Visibility {
	case VisibilityPublic, VisibilityExternal, VisibilityInternal, VisibilityPrivate:
	default:
		return fmt.Errorf("contract %s: function %s: unknown visibility %q", contract, f.Name, f.Visibility)
	}
	switch f.Mutability {
	case MutabilityPure, MutabilityView, MutabilityPayable, MutabilityNonPayable:
	default:
		return fmt.Errorf("contract %s: function %s: unknown mutability %q", contract, f.Name, f.Mutability)
	}
	return nil
}
