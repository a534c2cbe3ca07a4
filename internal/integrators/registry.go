package integrators

import (
	"fmt"

	"github.com/san-kum/edisim/internal/dynamo"
)

// Factory builds a fresh integrator. Steppers with scratch buffers must not
// be shared, so callers that copy a system keep the factory instead.
type Factory func() dynamo.Integrator

var registry = map[string]Factory{
	"euler": func() dynamo.Integrator { return NewEuler() },
	"rk4":   func() dynamo.Integrator { return NewRK4() },
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("integrator %q: %w", name, dynamo.ErrUnknownName)
	}
	return fn, nil
}

// New returns a fresh integrator by name.
func New(name string) (dynamo.Integrator, error) {
	fn, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return fn(), nil
}
