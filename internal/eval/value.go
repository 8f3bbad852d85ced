// Package eval executes a canonical notation tree against an environment
// of bound values, producing the program's output distribution.
package eval

import (
	"fmt"

	"github.com/louisbranch/probify/internal/dist"
)

// Value is a runtime value: an integer scalar, a string, a probability
// distribution, or a callable builtin.
type Value interface {
	valueNode()
}

// Scalar is an integer value.
type Scalar struct {
	Val int
}

// Str is a string value; dice notation reaches the roll builtin as one.
type Str struct {
	Val string
}

// Distribution wraps a probability distribution value.
type Distribution struct {
	Dist dist.Dist
}

// Builtin is a callable seeded into the environment.
type Builtin struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

func (*Scalar) valueNode()       {}
func (*Str) valueNode()          {}
func (*Distribution) valueNode() {}
func (*Builtin) valueNode()      {}

func describe(v Value) string {
	switch v := v.(type) {
	case *Scalar:
		return fmt.Sprintf("scalar %d", v.Val)
	case *Str:
		return fmt.Sprintf("string %q", v.Val)
	case *Distribution:
		return "distribution"
	case *Builtin:
		return fmt.Sprintf("builtin %s", v.Name)
	default:
		return fmt.Sprintf("%T", v)
	}
}

// asDist coerces a value to a distribution; scalars become degenerate
// single-outcome distributions.
func asDist(v Value) (dist.Dist, bool) {
	switch v := v.(type) {
	case *Distribution:
		return v.Dist, true
	case *Scalar:
		return dist.Constant(v.Val), true
	default:
		return dist.Dist{}, false
	}
}
