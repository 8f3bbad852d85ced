package eval

import (
	"errors"
	"fmt"

	"github.com/louisbranch/probify/internal/dist"
)

// ResultName is the binding a program uses to expose its output
// distribution.
const ResultName = "result"

// ErrMissingResult indicates a program completed without binding
// "result". It is a normal, recoverable outcome rather than an
// evaluation failure.
var ErrMissingResult = errors.New(`program bound no "result" variable`)

// Environment maps variable names to bound values for one program run.
// A fresh environment is seeded with the algebra builtins.
type Environment struct {
	bindings map[string]Value
}

// NewEnvironment returns an environment seeded with the roll builtin.
func NewEnvironment() *Environment {
	env := &Environment{bindings: make(map[string]Value)}
	env.Set("roll", &Builtin{Name: "roll", Fn: rollBuiltin})
	return env
}

// Get returns the value bound to name.
func (e *Environment) Get(name string) (Value, bool) {
	v, ok := e.bindings[name]
	return v, ok
}

// Set binds name to value, replacing any previous binding.
func (e *Environment) Set(name string, value Value) {
	e.bindings[name] = value
}

// Result returns the distribution bound to "result".
//
// A missing binding returns ErrMissingResult. A scalar binding is
// promoted to a degenerate distribution, matching how scalars mix with
// distributions everywhere else in the algebra.
func (e *Environment) Result() (dist.Dist, error) {
	v, ok := e.Get(ResultName)
	if !ok {
		return dist.Dist{}, ErrMissingResult
	}
	d, ok := asDist(v)
	if !ok {
		return dist.Dist{}, fmt.Errorf("%w: bound value is a %s", ErrMissingResult, describe(v))
	}
	return d, nil
}

// rollBuiltin constructs a distribution from dice notation text.
func rollBuiltin(args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: roll takes exactly one argument", ErrInvalidOperation)
	}
	notation, ok := args[0].(*Str)
	if !ok {
		return nil, fmt.Errorf("%w: roll argument must be notation text, got %s", ErrInvalidOperation, describe(args[0]))
	}
	d, err := dist.FromNotation(notation.Val)
	if err != nil {
		return nil, err
	}
	return &Distribution{Dist: d}, nil
}
