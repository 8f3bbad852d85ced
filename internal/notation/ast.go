// Package notation compiles the dice-rolling surface notation into a
// canonical syntax tree whose only foreign calls are distribution-algebra
// operations.
//
// Compilation runs two passes. A lexical pass replaces every dice literal
// such as 2d6 with a roll("2d6") call before any structural parsing. A
// rewrite pass then walks the parsed tree and lowers the recognized
// surface patterns (reroll conditionals, if/else branching, fixed-count
// summation loops) onto dedicated algebra nodes. Constructs that match no
// pattern pass through unchanged and keep their ordinary semantics at
// evaluation time.
package notation

import "fmt"

// Node is implemented by every syntax tree node.
type Node interface {
	node()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Program is a parsed notation program: statements in textual order.
type Program struct {
	Stmts []Stmt
}

// BinaryOp is a binary arithmetic operator.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
)

// CmpOp is a comparison operator usable in conditional headers.
type CmpOp string

const (
	OpLT CmpOp = "<"
	OpLE CmpOp = "<="
	OpGT CmpOp = ">"
	OpGE CmpOp = ">="
	OpEQ CmpOp = "=="
	OpNE CmpOp = "!="
)

// Condition is a comparison of an outcome against a literal threshold,
// produced when a conditional header is lowered to an algebra operation.
type Condition struct {
	Op        CmpOp
	Threshold int
}

// Matches reports whether outcome satisfies the condition.
func (c Condition) Matches(outcome int) bool {
	switch c.Op {
	case OpLT:
		return outcome < c.Threshold
	case OpLE:
		return outcome <= c.Threshold
	case OpGT:
		return outcome > c.Threshold
	case OpGE:
		return outcome >= c.Threshold
	case OpEQ:
		return outcome == c.Threshold
	case OpNE:
		return outcome != c.Threshold
	}
	return false
}

func (c Condition) String() string {
	return fmt.Sprintf("outcome %s %d", c.Op, c.Threshold)
}

// --- Expressions ---

// IntLit is an integer literal.
type IntLit struct {
	Value int
}

// StringLit is a string literal; the lexical dice substitution produces
// these as arguments to roll calls.
type StringLit struct {
	Value string
}

// Name is a variable reference.
type Name struct {
	Ident string
}

// BinaryExpr is a binary arithmetic expression.
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// CallExpr is a function call by name.
type CallExpr struct {
	Func string
	Args []Expr
}

// Compare is a comparison expression; it appears only in conditional
// headers.
type Compare struct {
	Left  Expr
	Op    CmpOp
	Right Expr
}

// ReplaceExpr is a canonical node lowered from a reroll conditional: the
// mass of Source outcomes matching Cond is replaced by Replacement.
type ReplaceExpr struct {
	Source      Expr
	Cond        Condition
	Replacement Expr
}

// BranchExpr is a canonical node lowered from an if/else conditional:
// the mass of Source matching Cond selects Then, the rest selects Else.
type BranchExpr struct {
	Source Expr
	Cond   Condition
	Then   Expr
	Else   Expr
}

func (*IntLit) node()      {}
func (*StringLit) node()   {}
func (*Name) node()        {}
func (*BinaryExpr) node()  {}
func (*CallExpr) node()    {}
func (*Compare) node()     {}
func (*ReplaceExpr) node() {}
func (*BranchExpr) node()  {}

func (*IntLit) exprNode()      {}
func (*StringLit) exprNode()   {}
func (*Name) exprNode()        {}
func (*BinaryExpr) exprNode()  {}
func (*CallExpr) exprNode()    {}
func (*Compare) exprNode()     {}
func (*ReplaceExpr) exprNode() {}
func (*BranchExpr) exprNode()  {}

// --- Statements ---

// AssignStmt binds the value of an expression to a name.
type AssignStmt struct {
	Target string
	Value  Expr
}

// AugAssignStmt is an augmented assignment: target += value.
type AugAssignStmt struct {
	Target string
	Value  Expr
}

// IfStmt is a conditional statement with an optional else block.
type IfStmt struct {
	Cond *Compare
	Then []Stmt
	Else []Stmt
}

// ForStmt is a fixed-count loop: for <var> in range(<count>).
type ForStmt struct {
	Var   string
	Count Expr
	Body  []Stmt
}

// ExprStmt is a bare expression evaluated for its effect.
type ExprStmt struct {
	X Expr
}

func (*AssignStmt) node()    {}
func (*AugAssignStmt) node() {}
func (*IfStmt) node()        {}
func (*ForStmt) node()       {}
func (*ExprStmt) node()      {}

func (*AssignStmt) stmtNode()    {}
func (*AugAssignStmt) stmtNode() {}
func (*IfStmt) stmtNode()        {}
func (*ForStmt) stmtNode()       {}
func (*ExprStmt) stmtNode()      {}
