package notation

// pendingRewrite records a deferred cross-variable conditional: a
// single-branch conditional on source that assigned to a different
// variable, waiting for a later plain copy from source to complete the
// pattern.
type pendingRewrite struct {
	source string
	cond   Condition
	repl   Expr
}

// Rewrite lowers the recognized surface patterns onto algebra nodes and
// returns the canonical tree.
//
// Recognized patterns, with <cmp> one of < <= > >= == != against an
// integer constant:
//
//   - if v <cmp> c: v = e            lowers to v = replace(v, cond, e)
//   - if v <cmp> c: w = e ... w = v  lowers the later copy to
//     w = replace(v, cond, e); the conditional itself is dropped
//   - if v <cmp> c: v = e1
//     else: v = e2                   lowers to v = branch(v, cond, e1, e2)
//   - for _ in range(k): acc += e    lowers to acc = acc + (e * k)
//
// The loop lowering relies on each iteration being independent and
// identically distributed; only the syntactic shape is checked. Anything
// not matching a pattern passes through unchanged, nested bodies
// included.
func Rewrite(prog *Program) *Program {
	r := &rewriter{pending: make(map[string]pendingRewrite)}
	return &Program{Stmts: r.rewriteStmts(prog.Stmts)}
}

// rewriter carries the pending-conditional table across one traversal.
type rewriter struct {
	pending map[string]pendingRewrite
}

func (r *rewriter) rewriteStmts(stmts []Stmt) []Stmt {
	out := make([]Stmt, 0, len(stmts))
	for _, stmt := range stmts {
		replacement, drop := r.rewriteStmt(stmt)
		if drop {
			continue
		}
		out = append(out, replacement)
	}
	return out
}

func (r *rewriter) rewriteStmt(stmt Stmt) (Stmt, bool) {
	switch s := stmt.(type) {
	case *IfStmt:
		return r.rewriteIf(s)
	case *ForStmt:
		return r.rewriteFor(s), false
	case *AssignStmt:
		return r.rewriteAssign(s), false
	default:
		return stmt, false
	}
}

func (r *rewriter) rewriteIf(s *IfStmt) (Stmt, bool) {
	source, cond, ok := restrictedCond(s.Cond)
	if !ok {
		return r.passThroughIf(s), false
	}

	then, thenOK := singleAssign(s.Then)

	// Two-branch conditional, both branches assigning the source variable.
	if len(s.Else) > 0 {
		elseAssign, elseOK := singleAssign(s.Else)
		if thenOK && elseOK && then.Target == source && elseAssign.Target == source {
			return &AssignStmt{
				Target: source,
				Value: &BranchExpr{
					Source: &Name{Ident: source},
					Cond:   cond,
					Then:   then.Value,
					Else:   elseAssign.Value,
				},
			}, false
		}
		return r.passThroughIf(s), false
	}

	if !thenOK {
		return r.passThroughIf(s), false
	}

	// Single-branch conditional reassigning its own source variable.
	if then.Target == source {
		return &AssignStmt{
			Target: source,
			Value: &ReplaceExpr{
				Source:      &Name{Ident: source},
				Cond:        cond,
				Replacement: then.Value,
			},
		}, false
	}

	// Single-branch conditional assigning a different variable: defer
	// until a plain copy from source completes the pattern. The
	// conditional itself contributes nothing to the canonical tree.
	r.pending[then.Target] = pendingRewrite{source: source, cond: cond, repl: then.Value}
	return nil, true
}

// passThroughIf keeps an unrecognized conditional intact while still
// visiting its bodies.
func (r *rewriter) passThroughIf(s *IfStmt) Stmt {
	s.Then = r.rewriteStmts(s.Then)
	s.Else = r.rewriteStmts(s.Else)
	return s
}

func (r *rewriter) rewriteFor(s *ForStmt) Stmt {
	count, countOK := s.Count.(*IntLit)
	if countOK && len(s.Body) == 1 {
		if aug, ok := s.Body[0].(*AugAssignStmt); ok {
			return &AssignStmt{
				Target: aug.Target,
				Value: &BinaryExpr{
					Op:   OpAdd,
					Left: &Name{Ident: aug.Target},
					Right: &BinaryExpr{
						Op:    OpMul,
						Left:  aug.Value,
						Right: &IntLit{Value: count.Value},
					},
				},
			}
		}
	}
	s.Body = r.rewriteStmts(s.Body)
	return s
}

// rewriteAssign completes a pending cross-variable conditional when the
// assignment is a plain copy from the recorded source variable.
func (r *rewriter) rewriteAssign(s *AssignStmt) Stmt {
	src, ok := s.Value.(*Name)
	if !ok {
		return s
	}
	p, ok := r.pending[s.Target]
	if !ok || p.source != src.Ident {
		return s
	}
	delete(r.pending, s.Target)
	return &AssignStmt{
		Target: s.Target,
		Value: &ReplaceExpr{
			Source:      &Name{Ident: p.source},
			Cond:        p.cond,
			Replacement: p.repl,
		},
	}
}

// restrictedCond extracts the <var> <cmp> <const> shape from a
// conditional header.
func restrictedCond(c *Compare) (source string, cond Condition, ok bool) {
	name, nameOK := c.Left.(*Name)
	lit, litOK := c.Right.(*IntLit)
	if !nameOK || !litOK {
		return "", Condition{}, false
	}
	return name.Ident, Condition{Op: c.Op, Threshold: lit.Value}, true
}

func singleAssign(stmts []Stmt) (*AssignStmt, bool) {
	if len(stmts) != 1 {
		return nil, false
	}
	assign, ok := stmts[0].(*AssignStmt)
	return assign, ok
}

// Compile runs the lexical dice substitution, parses the program, and
// rewrites it to canonical form.
func Compile(source string) (*Program, error) {
	prog, err := Parse(SubstituteDice(source))
	if err != nil {
		return nil, err
	}
	return Rewrite(prog), nil
}
