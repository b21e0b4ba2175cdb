package parser

import (
	"strings"
	"unicode"
)

// Lexer tokenizes conjunctive query text
type Lexer struct {
	input   string
	pos     int
	line    int
	col     int
	tokens  []Token
	current int
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
		col:   1,
	}
}

// Lex tokenizes the entire input
func (l *Lexer) Lex() error {
	for l.pos < len(l.input) {
		l.skipWhitespaceAndComments()
		if l.pos >= len(l.input) {
			break
		}

		startLine := l.line
		startCol := l.col

		ch := l.peek()
		switch {
		case ch == '\'' || ch == '"':
			str, err := l.readString(ch)
			if err != nil {
				return err
			}
			l.emit(TokenString, str, startLine, startCol)
		case ch == '(':
			l.advance()
			l.emit(TokenLeftParen, "", startLine, startCol)
		case ch == ')':
			l.advance()
			l.emit(TokenRightParen, "", startLine, startCol)
		case ch == ',':
			l.advance()
			l.emit(TokenComma, "", startLine, startCol)
		case ch == '.' && !isDigit(l.peekAt(1)):
			l.advance()
			l.emit(TokenDot, "", startLine, startCol)
		case ch == ':':
			if l.peekAt(1) != '-' {
				return errorAt(startLine, startCol, "expected ':-'")
			}
			l.advance()
			l.advance()
			l.emit(TokenImplies, "", startLine, startCol)
		case isDigit(ch) || ch == '.' || ((ch == '-' || ch == '+') && (isDigit(l.peekAt(1)) || l.peekAt(1) == '.')):
			l.emit(TokenNumber, l.readNumber(), startLine, startCol)
		case isIdentStart(ch):
			l.emit(TokenIdent, l.readIdent(), startLine, startCol)
		default:
			return errorAt(startLine, startCol, "unexpected character %q", rune(ch))
		}
	}

	// Add EOF token
	l.emit(TokenEOF, "", l.line, l.col)
	return nil
}

// Tokens returns every token read by Lex, EOF included
func (l *Lexer) Tokens() []Token { return l.tokens }

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	if l.current >= len(l.tokens) {
		return Token{Type: TokenEOF, Line: l.line, Col: l.col}
	}
	token := l.tokens[l.current]
	l.current++
	return token
}

// PeekToken returns the next token without advancing
func (l *Lexer) PeekToken() Token {
	if l.current >= len(l.tokens) {
		return Token{Type: TokenEOF, Line: l.line, Col: l.col}
	}
	return l.tokens[l.current]
}

func (l *Lexer) emit(t TokenType, value string, line, col int) {
	l.tokens = append(l.tokens, Token{Type: t, Value: value, Line: line, Col: col})
}

// peek returns the current character without advancing
func (l *Lexer) peek() byte {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

// advance moves to the next character
func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

// skipWhitespaceAndComments skips whitespace and % line comments
func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.peek()
		if unicode.IsSpace(rune(ch)) {
			l.advance()
		} else if ch == '%' {
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		} else {
			break
		}
	}
}

// readString reads a literal delimited by quote. A doubled quote or a
// backslash escapes the delimiter.
func (l *Lexer) readString(quote byte) (string, error) {
	var result strings.Builder
	startLine, startCol := l.line, l.col
	l.advance() // skip opening quote

	for l.pos < len(l.input) {
		ch := l.peek()
		switch {
		case ch == quote && l.peekAt(1) == quote:
			result.WriteByte(quote)
			l.advance()
			l.advance()
		case ch == quote:
			l.advance() // skip closing quote
			return result.String(), nil
		case ch == '\\':
			l.advance()
			if l.pos >= len(l.input) {
				return "", errorAt(l.line, l.col, "unexpected end of input in string")
			}
			escaped := l.peek()
			switch escaped {
			case 't':
				result.WriteByte('\t')
			case 'n':
				result.WriteByte('\n')
			case '\\', '\'', '"':
				result.WriteByte(escaped)
			default:
				return "", errorAt(l.line, l.col-1, "invalid escape sequence '\\%c'", escaped)
			}
			l.advance()
		default:
			result.WriteByte(ch)
			l.advance()
		}
	}

	return "", errorAt(startLine, startCol, "unterminated string")
}

// readNumber reads a decimal number with optional sign, fraction and
// exponent. Validation is left to the parser.
func (l *Lexer) readNumber() string {
	start := l.pos
	if ch := l.peek(); ch == '-' || ch == '+' {
		l.advance()
	}
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if ch := l.peek(); ch == 'e' || ch == 'E' {
		next := l.peekAt(1)
		if isDigit(next) || ((next == '-' || next == '+') && isDigit(l.peekAt(2))) {
			l.advance()
			l.advance()
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readIdent() string {
	start := l.pos
	for isIdentPart(l.peek()) {
		l.advance()
	}
	return l.input[start:l.pos]
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

func isIdentPart(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }
