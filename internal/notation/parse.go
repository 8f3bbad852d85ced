package notation

import (
	"fmt"
	"strings"
)

// Parse parses preprocessed program text into a syntax tree.
//
// Statements are newline separated. Conditional and loop bodies are
// either inline after the colon or indented on the following lines, one
// statement per line. Blank lines and # comments are ignored.
func Parse(source string) (*Program, error) {
	lines, err := splitLines(source)
	if err != nil {
		return nil, err
	}
	p := &parser{lines: lines}
	stmts, err := p.parseBlock(0)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if isKeyword(ln.tokens, "else") {
			return nil, &ParseError{Line: ln.num, Msg: "else without a matching if"}
		}
		return nil, &ParseError{Line: ln.num, Msg: "unexpected indentation"}
	}
	return &Program{Stmts: stmts}, nil
}

type srcLine struct {
	num    int
	indent int
	tokens []token
}

func splitLines(source string) ([]srcLine, error) {
	var lines []srcLine
	for i, raw := range strings.Split(source, "\n") {
		num := i + 1
		expanded := strings.ReplaceAll(raw, "\t", "    ")
		trimmed := strings.TrimLeft(expanded, " ")
		tokens, err := scanTokens(trimmed, num)
		if err != nil {
			return nil, err
		}
		if len(tokens) == 0 {
			continue
		}
		lines = append(lines, srcLine{
			num:    num,
			indent: len(expanded) - len(trimmed),
			tokens: tokens,
		})
	}
	return lines, nil
}

type parser struct {
	lines []srcLine
	pos   int
}

// parseBlock parses consecutive statements at exactly the given indent.
func (p *parser) parseBlock(indent int) ([]Stmt, error) {
	var stmts []Stmt
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.indent < indent {
			break
		}
		if ln.indent > indent {
			return nil, &ParseError{Line: ln.num, Msg: "unexpected indentation"}
		}
		if isKeyword(ln.tokens, "else") {
			break
		}
		stmt, err := p.parseStmt(indent)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *parser) parseStmt(indent int) (Stmt, error) {
	ln := p.lines[p.pos]
	switch {
	case isKeyword(ln.tokens, "if"):
		return p.parseIf(indent)
	case isKeyword(ln.tokens, "for"):
		return p.parseFor(indent)
	default:
		p.pos++
		return parseSimpleStmt(ln.tokens, ln.num)
	}
}

func (p *parser) parseIf(indent int) (Stmt, error) {
	ln := p.lines[p.pos]
	p.pos++

	header, inline, err := splitColon(ln.tokens, ln.num)
	if err != nil {
		return nil, err
	}
	ep := &exprParser{tokens: header[1:], line: ln.num}
	cond, err := ep.parseComparison()
	if err != nil {
		return nil, err
	}
	if err := ep.expectEnd(); err != nil {
		return nil, err
	}

	then, err := p.parseBody(inline, indent, ln.num)
	if err != nil {
		return nil, err
	}

	var elseStmts []Stmt
	if p.pos < len(p.lines) {
		next := p.lines[p.pos]
		if next.indent == indent && isKeyword(next.tokens, "else") {
			p.pos++
			elseHeader, elseInline, err := splitColon(next.tokens, next.num)
			if err != nil {
				return nil, err
			}
			if len(elseHeader) != 1 {
				return nil, &ParseError{Line: next.num, Msg: "malformed else clause"}
			}
			elseStmts, err = p.parseBody(elseInline, indent, next.num)
			if err != nil {
				return nil, err
			}
		}
	}

	return &IfStmt{Cond: cond, Then: then, Else: elseStmts}, nil
}

func (p *parser) parseFor(indent int) (Stmt, error) {
	ln := p.lines[p.pos]
	p.pos++

	header, inline, err := splitColon(ln.tokens, ln.num)
	if err != nil {
		return nil, err
	}
	// for <name> in range ( <expr> )
	ep := &exprParser{tokens: header[1:], line: ln.num}
	loopVar, err := ep.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := ep.expectKeyword("in"); err != nil {
		return nil, err
	}
	if err := ep.expectKeyword("range"); err != nil {
		return nil, err
	}
	if err := ep.expectOp("("); err != nil {
		return nil, err
	}
	count, err := ep.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := ep.expectOp(")"); err != nil {
		return nil, err
	}
	if err := ep.expectEnd(); err != nil {
		return nil, err
	}

	body, err := p.parseBody(inline, indent, ln.num)
	if err != nil {
		return nil, err
	}
	return &ForStmt{Var: loopVar, Count: count, Body: body}, nil
}

// parseBody parses an inline body after a header colon, or the indented
// block on the following lines when the header ends at the colon.
func (p *parser) parseBody(inline []token, indent, headerLine int) ([]Stmt, error) {
	if len(inline) > 0 {
		stmt, err := parseSimpleStmt(inline, headerLine)
		if err != nil {
			return nil, err
		}
		return []Stmt{stmt}, nil
	}
	if p.pos >= len(p.lines) || p.lines[p.pos].indent <= indent {
		return nil, &ParseError{Line: headerLine, Msg: "expected an indented block"}
	}
	return p.parseBlock(p.lines[p.pos].indent)
}

// splitColon splits a header line at its first colon.
func splitColon(tokens []token, lineNum int) (header, inline []token, err error) {
	for i, tok := range tokens {
		if tok.kind == tokenOp && tok.text == ":" {
			return tokens[:i], tokens[i+1:], nil
		}
	}
	return nil, nil, &ParseError{Line: lineNum, Msg: "expected ':'"}
}

func isKeyword(tokens []token, keyword string) bool {
	return len(tokens) > 0 && tokens[0].kind == tokenIdent && tokens[0].text == keyword
}

// parseSimpleStmt parses an assignment, augmented assignment, or bare
// expression statement from a full token line.
func parseSimpleStmt(tokens []token, lineNum int) (Stmt, error) {
	if len(tokens) == 0 {
		return nil, &ParseError{Line: lineNum, Msg: "empty statement"}
	}
	if isKeyword(tokens, "else") {
		return nil, &ParseError{Line: lineNum, Msg: "else without a matching if"}
	}
	if len(tokens) >= 2 && tokens[0].kind == tokenIdent && tokens[1].kind == tokenOp {
		switch tokens[1].text {
		case "=":
			value, err := parseExprTokens(tokens[2:], lineNum)
			if err != nil {
				return nil, err
			}
			return &AssignStmt{Target: tokens[0].text, Value: value}, nil
		case "+=":
			value, err := parseExprTokens(tokens[2:], lineNum)
			if err != nil {
				return nil, err
			}
			return &AugAssignStmt{Target: tokens[0].text, Value: value}, nil
		}
	}
	x, err := parseExprTokens(tokens, lineNum)
	if err != nil {
		return nil, err
	}
	return &ExprStmt{X: x}, nil
}

func parseExprTokens(tokens []token, lineNum int) (Expr, error) {
	ep := &exprParser{tokens: tokens, line: lineNum}
	x, err := ep.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := ep.expectEnd(); err != nil {
		return nil, err
	}
	return x, nil
}

// exprParser is a cursor over one statement's tokens.
type exprParser struct {
	tokens []token
	pos    int
	line   int
}

func (ep *exprParser) peek() token {
	if ep.pos >= len(ep.tokens) {
		return token{kind: tokenEOF}
	}
	return ep.tokens[ep.pos]
}

func (ep *exprParser) next() token {
	tok := ep.peek()
	if tok.kind != tokenEOF {
		ep.pos++
	}
	return tok
}

func (ep *exprParser) errorf(format string, args ...any) error {
	return &ParseError{Line: ep.line, Msg: fmt.Sprintf(format, args...)}
}

func (ep *exprParser) expectEnd() error {
	if tok := ep.peek(); tok.kind != tokenEOF {
		return ep.errorf("unexpected %q", tok.text)
	}
	return nil
}

func (ep *exprParser) expectIdent() (string, error) {
	tok := ep.next()
	if tok.kind != tokenIdent {
		return "", ep.errorf("expected identifier, got %q", tok.text)
	}
	return tok.text, nil
}

func (ep *exprParser) expectKeyword(keyword string) error {
	tok := ep.next()
	if tok.kind != tokenIdent || tok.text != keyword {
		return ep.errorf("expected %q, got %q", keyword, tok.text)
	}
	return nil
}

func (ep *exprParser) expectOp(op string) error {
	tok := ep.next()
	if tok.kind != tokenOp || tok.text != op {
		return ep.errorf("expected %q, got %q", op, tok.text)
	}
	return nil
}

var cmpOps = map[string]CmpOp{
	"<": OpLT, "<=": OpLE, ">": OpGT, ">=": OpGE, "==": OpEQ, "!=": OpNE,
}

// parseComparison parses <expr> <cmp> <expr> for conditional headers.
func (ep *exprParser) parseComparison() (*Compare, error) {
	left, err := ep.parseExpr()
	if err != nil {
		return nil, err
	}
	tok := ep.next()
	op, ok := cmpOps[tok.text]
	if tok.kind != tokenOp || !ok {
		return nil, ep.errorf("expected comparison operator, got %q", tok.text)
	}
	right, err := ep.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Compare{Left: left, Op: op, Right: right}, nil
}

func (ep *exprParser) parseExpr() (Expr, error) {
	return ep.parseAdditive()
}

func (ep *exprParser) parseAdditive() (Expr, error) {
	left, err := ep.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok := ep.peek()
		if tok.kind != tokenOp || (tok.text != "+" && tok.text != "-") {
			return left, nil
		}
		ep.next()
		right, err := ep.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: BinaryOp(tok.text), Left: left, Right: right}
	}
}

func (ep *exprParser) parseTerm() (Expr, error) {
	left, err := ep.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := ep.peek()
		if tok.kind != tokenOp || tok.text != "*" {
			return left, nil
		}
		ep.next()
		right, err := ep.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpMul, Left: left, Right: right}
	}
}

func (ep *exprParser) parseUnary() (Expr, error) {
	tok := ep.peek()
	if tok.kind == tokenOp && tok.text == "-" {
		ep.next()
		x, err := ep.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := x.(*IntLit); ok {
			return &IntLit{Value: -lit.Value}, nil
		}
		return &BinaryExpr{Op: OpSub, Left: &IntLit{}, Right: x}, nil
	}
	return ep.parsePrimary()
}

func (ep *exprParser) parsePrimary() (Expr, error) {
	tok := ep.next()
	switch tok.kind {
	case tokenInt:
		return &IntLit{Value: tok.val}, nil
	case tokenString:
		return &StringLit{Value: tok.text}, nil
	case tokenIdent:
		if next := ep.peek(); next.kind == tokenOp && next.text == "(" {
			ep.next()
			return ep.parseCallArgs(tok.text)
		}
		return &Name{Ident: tok.text}, nil
	case tokenOp:
		if tok.text == "(" {
			x, err := ep.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := ep.expectOp(")"); err != nil {
				return nil, err
			}
			return x, nil
		}
	}
	return nil, ep.errorf("unexpected %q in expression", tok.text)
}

func (ep *exprParser) parseCallArgs(funcName string) (Expr, error) {
	call := &CallExpr{Func: funcName}
	if next := ep.peek(); next.kind == tokenOp && next.text == ")" {
		ep.next()
		return call, nil
	}
	for {
		arg, err := ep.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		tok := ep.next()
		if tok.kind == tokenOp && tok.text == ")" {
			return call, nil
		}
		if tok.kind != tokenOp || tok.text != "," {
			return nil, ep.errorf("expected ',' or ')' in call arguments, got %q", tok.text)
		}
	}
}
