// Package dist implements exact probability distributions over integer
// outcomes and the algebra used to combine them.
//
// A Dist is a probability mass function: a mapping from signed integer
// outcome to probability, summing to 1 within floating tolerance. Every
// operation is pure and returns a fresh Dist; no operation mutates its
// receiver or arguments. Distributions are combined by convolution
// (pairwise outcome sums with multiplied probabilities), which models the
// sum of independent random variables and is the foundation for dice
// arithmetic.
package dist

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// ErrInvalidNotation indicates text that does not match <count>d<sides>.
var ErrInvalidNotation = errors.New("dice notation must match <count>d<sides>")

// ErrInvalidSides indicates a die with a non-positive number of sides.
var ErrInvalidSides = errors.New("die must have a positive number of sides")

var notationPattern = regexp.MustCompile(`^(\d+)d(\d+)$`)

// Spec describes parsed dice notation: Count independent rolls of a die
// with Sides faces.
type Spec struct {
	Count int
	Sides int
}

// ParseSpec parses dice notation such as "2d6" into a Spec.
//
// The notation must match <count>d<sides> exactly, with both parts
// non-negative integers. Anything else returns ErrInvalidNotation wrapped
// with the offending text. Positivity beyond the lexical shape is not
// enforced here: "0d6" parses to a zero-count Spec.
func ParseSpec(notation string) (Spec, error) {
	m := notationPattern.FindStringSubmatch(notation)
	if m == nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}
	count, err := strconv.Atoi(m[1])
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}
	return Spec{Count: count, Sides: sides}, nil
}

// String renders the spec back as dice notation.
func (s Spec) String() string {
	return fmt.Sprintf("%dd%d", s.Count, s.Sides)
}

// Dist is an exact probability mass function over signed integer outcomes.
//
// The zero value is an empty distribution carrying no mass; callers should
// build distributions through Constant, Uniform, FromNotation or the
// algebra operations, all of which preserve the sum-to-one invariant.
type Dist struct {
	pm map[int]float64
}

// fromMap wraps an outcome map without copying. The map must not be
// retained by the caller.
func fromMap(pm map[int]float64) Dist {
	return Dist{pm: pm}
}

// Constant returns the degenerate distribution that yields outcome with
// probability 1.
func Constant(outcome int) Dist {
	return fromMap(map[int]float64{outcome: 1})
}

// Uniform returns the distribution of a single fair die: outcomes
// 1..sides, each with probability 1/sides. Returns ErrInvalidSides when
// sides is not positive.
func Uniform(sides int) (Dist, error) {
	if sides <= 0 {
		return Dist{}, fmt.Errorf("%w: %d", ErrInvalidSides, sides)
	}
	pm := make(map[int]float64, sides)
	p := 1 / float64(sides)
	for face := 1; face <= sides; face++ {
		pm[face] = p
	}
	return fromMap(pm), nil
}

// FromSpec returns the distribution of the sum of spec.Count independent
// rolls of a spec.Sides die: the count-fold self-convolution of the
// uniform die. A zero count yields the identity distribution {0: 1}.
func FromSpec(spec Spec) (Dist, error) {
	if spec.Count == 0 {
		return Constant(0), nil
	}
	die, err := Uniform(spec.Sides)
	if err != nil {
		return Dist{}, err
	}
	return die.Repeat(spec.Count), nil
}

// FromNotation parses dice notation such as "3d8" and returns its
// distribution.
//
// Errors:
//
//   - ErrInvalidNotation when the text does not match <count>d<sides>.
//   - ErrInvalidSides when the sides part is zero and the count is not.
func FromNotation(notation string) (Dist, error) {
	spec, err := ParseSpec(notation)
	if err != nil {
		return Dist{}, err
	}
	return FromSpec(spec)
}

// Convolve returns the distribution of the sum of two independent random
// variables: for every outcome pair (x, y) the product of their
// probabilities accumulates at x+y. Convolution is commutative and
// associative, with Constant(0) as identity.
func (d Dist) Convolve(other Dist) Dist {
	pm := make(map[int]float64, len(d.pm)+len(other.pm))
	for x, p := range d.pm {
		for y, q := range other.pm {
			pm[x+y] += p * q
		}
	}
	return fromMap(pm)
}

// Repeat returns the distribution of the sum of times independent copies
// of d, built by iterative convolution from the identity distribution.
// Repeat(0) is Constant(0) for any d.
//
// The iterative form costs O(times) convolutions, each quadratic in the
// accumulated outcome range; practical for dice counts into the low
// hundreds.
func (d Dist) Repeat(times int) Dist {
	result := Constant(0)
	for i := 0; i < times; i++ {
		result = result.Convolve(d)
	}
	return result
}

// Shift returns d with every outcome increased by offset; probabilities
// are unchanged. Negative offsets model subtracting a constant.
func (d Dist) Shift(offset int) Dist {
	pm := make(map[int]float64, len(d.pm))
	for x, p := range d.pm {
		pm[x+offset] = p
	}
	return fromMap(pm)
}

// Reflect returns d with every outcome negated. Subtracting one
// distribution from another is a.Convolve(b.Reflect()).
func (d Dist) Reflect() Dist {
	pm := make(map[int]float64, len(d.pm))
	for x, p := range d.pm {
		pm[-x] = p
	}
	return fromMap(pm)
}

// ReplaceWhere models rerolling: outcomes matching pred are removed and
// their total probability mass is redistributed over replacement's
// outcomes, scaled by that mass. Outcomes not matching pred keep their
// probability unchanged. Callers replacing with a fixed value pass
// Constant(value).
func (d Dist) ReplaceWhere(pred func(outcome int) bool, replacement Dist) Dist {
	matched := 0.0
	pm := make(map[int]float64, len(d.pm)+len(replacement.pm))
	for x, p := range d.pm {
		if pred(x) {
			matched += p
			continue
		}
		pm[x] = p
	}
	for x, p := range replacement.pm {
		pm[x] += matched * p
	}
	return fromMap(pm)
}

// BranchOn models a two-way conditional: the probability mass of outcomes
// matching pred selects then, the remaining mass selects otherwise, and
// the result is the mixture of the two replacement distributions weighted
// by those masses. Only the matched mass matters, never the matched
// outcomes' values.
func (d Dist) BranchOn(pred func(outcome int) bool, then, otherwise Dist) Dist {
	pTrue := 0.0
	for x, p := range d.pm {
		if pred(x) {
			pTrue += p
		}
	}
	pFalse := 1 - pTrue
	pm := make(map[int]float64, len(then.pm)+len(otherwise.pm))
	for x, p := range then.pm {
		pm[x] += pTrue * p
	}
	for x, p := range otherwise.pm {
		pm[x] += pFalse * p
	}
	return fromMap(pm)
}

// Outcomes returns every outcome carrying mass, in ascending order.
func (d Dist) Outcomes() []int {
	outcomes := make([]int, 0, len(d.pm))
	for x := range d.pm {
		outcomes = append(outcomes, x)
	}
	sort.Ints(outcomes)
	return outcomes
}

// Prob returns the probability of outcome, or 0 when it carries no mass.
func (d Dist) Prob(outcome int) float64 {
	return d.pm[outcome]
}

// Len returns the number of distinct outcomes carrying mass.
func (d Dist) Len() int {
	return len(d.pm)
}

// Total returns the sum of all probabilities. For any distribution built
// from the constructors and algebra operations this is 1 within floating
// tolerance; it exists so callers can assert the invariant.
func (d Dist) Total() float64 {
	total := 0.0
	for _, p := range d.pm {
		total += p
	}
	return total
}

// Map returns a copy of the outcome-to-probability mapping.
func (d Dist) Map() map[int]float64 {
	pm := make(map[int]float64, len(d.pm))
	for x, p := range d.pm {
		pm[x] = p
	}
	return pm
}
