package parser

import "fmt"

// TokenType represents the type of a query token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenString
	TokenNumber
	TokenLeftParen
	TokenRightParen
	TokenComma
	TokenImplies
	TokenDot
)

// Token represents a lexical token of the query language
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return fmt.Sprintf("EOF[%d:%d]", t.Line, t.Col)
	case TokenIdent:
		return fmt.Sprintf("Ident[%d:%d]:%s", t.Line, t.Col, t.Value)
	case TokenString:
		return fmt.Sprintf("String[%d:%d]:%q", t.Line, t.Col, t.Value)
	case TokenNumber:
		return fmt.Sprintf("Number[%d:%d]:%s", t.Line, t.Col, t.Value)
	case TokenLeftParen:
		return fmt.Sprintf("LeftParen[%d:%d]", t.Line, t.Col)
	case TokenRightParen:
		return fmt.Sprintf("RightParen[%d:%d]", t.Line, t.Col)
	case TokenComma:
		return fmt.Sprintf("Comma[%d:%d]", t.Line, t.Col)
	case TokenImplies:
		return fmt.Sprintf("Implies[%d:%d]", t.Line, t.Col)
	case TokenDot:
		return fmt.Sprintf("Dot[%d:%d]", t.Line, t.Col)
	default:
		return fmt.Sprintf("Unknown[%d:%d]:%s", t.Line, t.Col, t.Value)
	}
}

// describe names the token for error messages
func (t Token) describe() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		if t.Value == "" {
			return "identifier"
		}
		return fmt.Sprintf("%q", t.Value)
	case TokenNumber:
		return fmt.Sprintf("%q", t.Value)
	case TokenString:
		return fmt.Sprintf("string %q", t.Value)
	case TokenLeftParen:
		return "'('"
	case TokenRightParen:
		return "')'"
	case TokenComma:
		return "','"
	case TokenImplies:
		return "':-'"
	case TokenDot:
		return "'.'"
	default:
		return t.Value
	}
}

// ParseError reports a syntax error at a position of the input
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

func errorAt(line, col int, format string, args ...interface{}) *ParseError {
	return &ParseError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}
