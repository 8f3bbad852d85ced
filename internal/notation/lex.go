package notation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var diceLiteral = regexp.MustCompile(`\b(\d+d\d+)\b`)

// SubstituteDice replaces every maximal dice literal such as 2d6 in the
// raw program text with a roll("2d6") call. The substitution is purely
// textual and runs before structural parsing, mirroring how the literal
// would otherwise be rejected by the tokenizer.
func SubstituteDice(source string) string {
	return diceLiteral.ReplaceAllString(source, `roll("$1")`)
}

// ParseError describes a syntax error at a source line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenInt
	tokenString
	tokenOp
)

type token struct {
	kind tokenKind
	text string
	val  int
}

// twoCharOps are scanned before single-character operators.
var twoCharOps = []string{"==", "!=", "<=", ">=", "+="}

const singleCharOps = "+-*(),:<>="

// scanTokens tokenizes one logical statement line.
func scanTokens(text string, lineNum int) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '#':
			i = len(text)
		case isIdentStart(c):
			start := i
			for i < len(text) && isIdentPart(text[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: text[start:i]})
		case c >= '0' && c <= '9':
			start := i
			for i < len(text) && text[i] >= '0' && text[i] <= '9' {
				i++
			}
			val, err := strconv.Atoi(text[start:i])
			if err != nil {
				return nil, &ParseError{Line: lineNum, Msg: fmt.Sprintf("bad integer literal %q", text[start:i])}
			}
			tokens = append(tokens, token{kind: tokenInt, text: text[start:i], val: val})
		case c == '"' || c == '\'':
			quote := c
			i++
			start := i
			for i < len(text) && text[i] != quote {
				i++
			}
			if i >= len(text) {
				return nil, &ParseError{Line: lineNum, Msg: "unterminated string literal"}
			}
			tokens = append(tokens, token{kind: tokenString, text: text[start:i]})
			i++
		default:
			if op, ok := matchOp(text[i:]); ok {
				tokens = append(tokens, token{kind: tokenOp, text: op})
				i += len(op)
				continue
			}
			return nil, &ParseError{Line: lineNum, Msg: fmt.Sprintf("unexpected character %q", string(c))}
		}
	}
	return tokens, nil
}

func matchOp(rest string) (string, bool) {
	for _, op := range twoCharOps {
		if strings.HasPrefix(rest, op) {
			return op, true
		}
	}
	if len(rest) > 0 && strings.IndexByte(singleCharOps, rest[0]) >= 0 {
		return rest[:1], true
	}
	return "", false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
