package eval

import (
	"errors"
	"fmt"

	"github.com/louisbranch/probify/internal/notation"
)

// ErrUnknownVariable indicates a reference to an unbound name.
var ErrUnknownVariable = errors.New("unknown variable")

// ErrInvalidOperation indicates an operation undefined for its operand
// types.
var ErrInvalidOperation = errors.New("invalid operation")

// Run executes the program's statements in order against env. Execution
// aborts on the first error; the environment keeps the bindings made up
// to that point.
func Run(prog *notation.Program, env *Environment) error {
	return runStmts(prog.Stmts, env)
}

func runStmts(stmts []notation.Stmt, env *Environment) error {
	for _, stmt := range stmts {
		if err := runStmt(stmt, env); err != nil {
			return err
		}
	}
	return nil
}

func runStmt(stmt notation.Stmt, env *Environment) error {
	switch s := stmt.(type) {
	case *notation.AssignStmt:
		v, err := evalExpr(s.Value, env)
		if err != nil {
			return err
		}
		env.Set(s.Target, v)
		return nil
	case *notation.AugAssignStmt:
		current, ok := env.Get(s.Target)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownVariable, s.Target)
		}
		v, err := evalExpr(s.Value, env)
		if err != nil {
			return err
		}
		sum, err := applyBinary(notation.OpAdd, current, v)
		if err != nil {
			return err
		}
		env.Set(s.Target, sum)
		return nil
	case *notation.IfStmt:
		return runIf(s, env)
	case *notation.ForStmt:
		return runFor(s, env)
	case *notation.ExprStmt:
		_, err := evalExpr(s.X, env)
		return err
	default:
		return fmt.Errorf("%w: statement %T", ErrInvalidOperation, stmt)
	}
}

// runIf executes a conditional that passed through the rewriter
// unrecognized. Its condition must evaluate over scalars; a distribution
// in a residual conditional has no defined truth value.
func runIf(s *notation.IfStmt, env *Environment) error {
	matched, err := evalCompare(s.Cond, env)
	if err != nil {
		return err
	}
	if matched {
		return runStmts(s.Then, env)
	}
	return runStmts(s.Else, env)
}

// runFor executes a loop that passed through the rewriter unrecognized,
// binding the loop variable to each index in turn.
func runFor(s *notation.ForStmt, env *Environment) error {
	count, err := evalExpr(s.Count, env)
	if err != nil {
		return err
	}
	n, ok := count.(*Scalar)
	if !ok {
		return fmt.Errorf("%w: loop count is a %s, want a scalar", ErrInvalidOperation, describe(count))
	}
	for i := 0; i < n.Val; i++ {
		env.Set(s.Var, &Scalar{Val: i})
		if err := runStmts(s.Body, env); err != nil {
			return err
		}
	}
	return nil
}

func evalCompare(c *notation.Compare, env *Environment) (bool, error) {
	left, err := evalExpr(c.Left, env)
	if err != nil {
		return false, err
	}
	right, err := evalExpr(c.Right, env)
	if err != nil {
		return false, err
	}
	l, lok := left.(*Scalar)
	r, rok := right.(*Scalar)
	if !lok || !rok {
		return false, fmt.Errorf("%w: cannot compare %s with %s", ErrInvalidOperation, describe(left), describe(right))
	}
	cond := notation.Condition{Op: c.Op, Threshold: r.Val}
	return cond.Matches(l.Val), nil
}

func evalExpr(expr notation.Expr, env *Environment) (Value, error) {
	switch x := expr.(type) {
	case *notation.IntLit:
		return &Scalar{Val: x.Value}, nil
	case *notation.StringLit:
		return &Str{Val: x.Value}, nil
	case *notation.Name:
		v, ok := env.Get(x.Ident)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, x.Ident)
		}
		return v, nil
	case *notation.BinaryExpr:
		left, err := evalExpr(x.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := evalExpr(x.Right, env)
		if err != nil {
			return nil, err
		}
		return applyBinary(x.Op, left, right)
	case *notation.CallExpr:
		return evalCall(x, env)
	case *notation.ReplaceExpr:
		return evalReplace(x, env)
	case *notation.BranchExpr:
		return evalBranch(x, env)
	default:
		return nil, fmt.Errorf("%w: expression %T", ErrInvalidOperation, expr)
	}
}

func evalCall(x *notation.CallExpr, env *Environment) (Value, error) {
	v, ok := env.Get(x.Func)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, x.Func)
	}
	builtin, ok := v.(*Builtin)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not callable", ErrInvalidOperation, x.Func)
	}
	args := make([]Value, len(x.Args))
	for i, arg := range x.Args {
		av, err := evalExpr(arg, env)
		if err != nil {
			return nil, err
		}
		args[i] = av
	}
	return builtin.Fn(args)
}

func evalReplace(x *notation.ReplaceExpr, env *Environment) (Value, error) {
	source, err := evalExpr(x.Source, env)
	if err != nil {
		return nil, err
	}
	d, ok := source.(*Distribution)
	if !ok {
		return nil, fmt.Errorf("%w: conditional reroll needs a distribution, got %s", ErrInvalidOperation, describe(source))
	}
	replacement, err := evalExpr(x.Replacement, env)
	if err != nil {
		return nil, err
	}
	repl, ok := asDist(replacement)
	if !ok {
		return nil, fmt.Errorf("%w: reroll replacement is a %s", ErrInvalidOperation, describe(replacement))
	}
	return &Distribution{Dist: d.Dist.ReplaceWhere(x.Cond.Matches, repl)}, nil
}

func evalBranch(x *notation.BranchExpr, env *Environment) (Value, error) {
	source, err := evalExpr(x.Source, env)
	if err != nil {
		return nil, err
	}
	d, ok := source.(*Distribution)
	if !ok {
		return nil, fmt.Errorf("%w: conditional branch needs a distribution, got %s", ErrInvalidOperation, describe(source))
	}
	thenValue, err := evalExpr(x.Then, env)
	if err != nil {
		return nil, err
	}
	then, ok := asDist(thenValue)
	if !ok {
		return nil, fmt.Errorf("%w: branch replacement is a %s", ErrInvalidOperation, describe(thenValue))
	}
	elseValue, err := evalExpr(x.Else, env)
	if err != nil {
		return nil, err
	}
	otherwise, ok := asDist(elseValue)
	if !ok {
		return nil, fmt.Errorf("%w: branch replacement is a %s", ErrInvalidOperation, describe(elseValue))
	}
	return &Distribution{Dist: d.Dist.BranchOn(x.Cond.Matches, then, otherwise)}, nil
}

// applyBinary implements arithmetic over scalars and distributions:
// addition and subtraction of distributions convolve (subtraction after
// reflection), constants shift, and multiplying a distribution by a
// scalar repeats it, modeling the sum of that many independent copies.
func applyBinary(op notation.BinaryOp, left, right Value) (Value, error) {
	if l, ok := left.(*Scalar); ok {
		if r, ok := right.(*Scalar); ok {
			return scalarArith(op, l.Val, r.Val)
		}
	}

	switch op {
	case notation.OpAdd:
		switch l := left.(type) {
		case *Distribution:
			switch r := right.(type) {
			case *Distribution:
				return &Distribution{Dist: l.Dist.Convolve(r.Dist)}, nil
			case *Scalar:
				return &Distribution{Dist: l.Dist.Shift(r.Val)}, nil
			}
		case *Scalar:
			if r, ok := right.(*Distribution); ok {
				return &Distribution{Dist: r.Dist.Shift(l.Val)}, nil
			}
		}
	case notation.OpSub:
		switch l := left.(type) {
		case *Distribution:
			switch r := right.(type) {
			case *Distribution:
				return &Distribution{Dist: l.Dist.Convolve(r.Dist.Reflect())}, nil
			case *Scalar:
				return &Distribution{Dist: l.Dist.Shift(-r.Val)}, nil
			}
		case *Scalar:
			if r, ok := right.(*Distribution); ok {
				return &Distribution{Dist: r.Dist.Reflect().Shift(l.Val)}, nil
			}
		}
	case notation.OpMul:
		switch l := left.(type) {
		case *Distribution:
			if r, ok := right.(*Scalar); ok {
				return &Distribution{Dist: l.Dist.Repeat(r.Val)}, nil
			}
		case *Scalar:
			if r, ok := right.(*Distribution); ok {
				return &Distribution{Dist: r.Dist.Repeat(l.Val)}, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s %s %s", ErrInvalidOperation, describe(left), op, describe(right))
}

func scalarArith(op notation.BinaryOp, l, r int) (Value, error) {
	switch op {
	case notation.OpAdd:
		return &Scalar{Val: l + r}, nil
	case notation.OpSub:
		return &Scalar{Val: l - r}, nil
	case notation.OpMul:
		return &Scalar{Val: l * r}, nil
	}
	return nil, fmt.Errorf("%w: operator %s", ErrInvalidOperation, op)
}
