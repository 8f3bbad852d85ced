package eval

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/louisbranch/probify/internal/dist"
	"github.com/louisbranch/probify/internal/notation"
)

const tolerance = 1e-9

var approx = cmpopts.EquateApprox(0, tolerance)

// runProgram compiles and executes source, returning its result
// distribution.
func runProgram(t *testing.T, source string) dist.Dist {
	t.Helper()
	prog, err := notation.Compile(source)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	env := NewEnvironment()
	if err := Run(prog, env); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	d, err := env.Result()
	if err != nil {
		t.Fatalf("Result returned error: %v", err)
	}
	return d
}

func mean(d dist.Dist) float64 {
	m := 0.0
	for _, x := range d.Outcomes() {
		m += float64(x) * d.Prob(x)
	}
	return m
}

func TestRunDiceLiteral(t *testing.T) {
	got := runProgram(t, "result = 2d6")
	want, err := dist.FromNotation("2d6")
	if err != nil {
		t.Fatalf("FromNotation returned error: %v", err)
	}
	if diff := cmp.Diff(want.Map(), got.Map(), approx); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestRunDiceArithmetic(t *testing.T) {
	got := runProgram(t, "result = 1d6 + 1d6 + 2")
	want, err := dist.FromNotation("2d6")
	if err != nil {
		t.Fatalf("FromNotation returned error: %v", err)
	}
	if diff := cmp.Diff(want.Shift(2).Map(), got.Map(), approx); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestRunSubtraction(t *testing.T) {
	got := runProgram(t, "result = 1d6 - 1d6")
	if math.Abs(got.Prob(0)-6.0/36) > tolerance {
		t.Fatalf("P(0) = %v, want 6/36", got.Prob(0))
	}
	if math.Abs(mean(got)) > tolerance {
		t.Fatalf("mean = %v, want 0", mean(got))
	}
}

func TestRunScalarMinusDistribution(t *testing.T) {
	got := runProgram(t, "result = 7 - 1d6")
	for face := 1; face <= 6; face++ {
		if math.Abs(got.Prob(7-face)-1.0/6) > tolerance {
			t.Fatalf("P(%d) = %v, want 1/6", 7-face, got.Prob(7-face))
		}
	}
}

func TestRunLoopSugarEqualsRepeatedDice(t *testing.T) {
	source := `
result = 0
for _ in range(3):
    result += 1d6
`
	got := runProgram(t, source)
	want, err := dist.FromNotation("3d6")
	if err != nil {
		t.Fatalf("FromNotation returned error: %v", err)
	}
	if diff := cmp.Diff(want.Map(), got.Map(), approx); diff != "" {
		t.Fatalf("loop sugar mismatch (-want +got):\n%s", diff)
	}
	if math.Abs(mean(got)-10.5) > tolerance {
		t.Fatalf("mean = %v, want 10.5", mean(got))
	}
}

func TestRunRerollConditional(t *testing.T) {
	source := `
x = 1d6
if x < 3:
    x = 1d6
result = x
`
	got := runProgram(t, source)
	for face := 1; face <= 2; face++ {
		if math.Abs(got.Prob(face)-2.0/36) > tolerance {
			t.Fatalf("P(%d) = %v, want 2/36", face, got.Prob(face))
		}
	}
	for face := 3; face <= 6; face++ {
		if math.Abs(got.Prob(face)-8.0/36) > tolerance {
			t.Fatalf("P(%d) = %v, want 8/36", face, got.Prob(face))
		}
	}
}

func TestRunBranchConditional(t *testing.T) {
	source := `
x = 2d6
if x == 7:
    x = 100
else:
    x = 0
result = x
`
	got := runProgram(t, source)
	if math.Abs(got.Prob(100)-6.0/36) > tolerance {
		t.Fatalf("P(100) = %v, want 6/36", got.Prob(100))
	}
	if math.Abs(got.Prob(0)-30.0/36) > tolerance {
		t.Fatalf("P(0) = %v, want 30/36", got.Prob(0))
	}
}

func TestRunDeferredConditionalMatchesFusedForm(t *testing.T) {
	deferred := `
x = 1d6
if x < 3:
    y = 1d6
y = x
result = y
`
	fused := `
x = 1d6
if x < 3:
    x = 1d6
result = x
`
	got := runProgram(t, deferred)
	want := runProgram(t, fused)
	if diff := cmp.Diff(want.Map(), got.Map(), approx); diff != "" {
		t.Fatalf("deferred form mismatch (-want +got):\n%s", diff)
	}
}

func TestRunResidualScalarConditional(t *testing.T) {
	// The condition is not <var> <cmp> <const>, so the conditional passes
	// through the rewriter and executes over plain scalars.
	source := `
bonus = 0
if 1 + 1 == 2:
    bonus = 5
result = 1d4 + bonus
`
	got := runProgram(t, source)
	for face := 6; face <= 9; face++ {
		if math.Abs(got.Prob(face)-1.0/4) > tolerance {
			t.Fatalf("P(%d) = %v, want 1/4", face, got.Prob(face))
		}
	}
}

func TestRunResidualScalarLoop(t *testing.T) {
	// A loop body with two statements passes through and runs per
	// iteration over scalars.
	source := `
total = 0
step = 0
for i in range(4):
    step = i
    total += step
result = total
`
	got := runProgram(t, source)
	if math.Abs(got.Prob(6)-1) > tolerance {
		t.Fatalf("P(6) = %v, want 1", got.Prob(6))
	}
}

func TestRunScalarResultPromoted(t *testing.T) {
	got := runProgram(t, "result = 2 + 3")
	if diff := cmp.Diff(dist.Constant(5).Map(), got.Map(), approx); diff != "" {
		t.Fatalf("scalar result mismatch (-want +got):\n%s", diff)
	}
}

func TestRunMissingResult(t *testing.T) {
	prog, err := notation.Compile("x = 1d6")
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	env := NewEnvironment()
	if err := Run(prog, env); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, err := env.Result(); !errors.Is(err, ErrMissingResult) {
		t.Fatalf("Result error = %v, want %v", err, ErrMissingResult)
	}
}

func TestRunInvalidNotationAborts(t *testing.T) {
	prog, err := notation.Compile(`result = roll("6z6")`)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	env := NewEnvironment()
	if err := Run(prog, env); !errors.Is(err, dist.ErrInvalidNotation) {
		t.Fatalf("Run error = %v, want %v", err, dist.ErrInvalidNotation)
	}
}

func TestRunUnknownVariable(t *testing.T) {
	prog, err := notation.Compile("result = missing + 1")
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	env := NewEnvironment()
	if err := Run(prog, env); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("Run error = %v, want %v", err, ErrUnknownVariable)
	}
}

func TestRunInvalidOperations(t *testing.T) {
	tcs := []struct {
		name   string
		source string
	}{
		{"distribution times distribution", "result = 1d6 * 1d6"},
		{"distribution in residual condition", "x = 1d6\nif x + 0 == 7:\n    y = 1\nresult = 1"},
		{"distribution as loop count", "n = 1d4\nfor i in range(n):\n    x = 1\n    y = 2\nresult = 1"},
		{"calling a non-callable", "f = 3\nresult = f(1)"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			prog, err := notation.Compile(tc.source)
			if err != nil {
				t.Fatalf("Compile returned error: %v", err)
			}
			env := NewEnvironment()
			if err := Run(prog, env); !errors.Is(err, ErrInvalidOperation) {
				t.Fatalf("Run error = %v, want %v", err, ErrInvalidOperation)
			}
		})
	}
}

func TestRunAugAssignUnknownTarget(t *testing.T) {
	prog, err := notation.Compile("result += 1d6")
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	env := NewEnvironment()
	if err := Run(prog, env); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("Run error = %v, want %v", err, ErrUnknownVariable)
	}
}
