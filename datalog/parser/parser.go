// Package parser reads conjunctive queries written in rule syntax:
//
//	Answer(x, y) :- Beers(u1, v, x, 'IPA'), Breweries(v, y, 5).
//
// Relation names start with an uppercase letter and variables with a
// lowercase one. Constants are quoted strings or numbers. Lines starting
// with % are comments.
package parser

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/query"
	"github.com/liammertens/conjunctive-queries/datalog/storage"
)

// RelationLookup resolves relation names while parsing. storage.Database
// satisfies it.
type RelationLookup interface {
	Relation(name string) (storage.Relation, error)
}

// Parser is a recursive-descent parser over a lexed token stream
type Parser struct {
	lexer  *Lexer
	lookup RelationLookup
}

// ParseQuery parses a single query. With a nil lookup the atoms carry no
// relation and arity is not checked.
func ParseQuery(input string, lookup RelationLookup) (*query.Query, error) {
	lexer := NewLexer(input)
	if err := lexer.Lex(); err != nil {
		return nil, err
	}
	p := &Parser{lexer: lexer, lookup: lookup}
	return p.parseQuery()
}

func (p *Parser) parseQuery() (*query.Query, error) {
	head, err := p.parseHead()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenImplies); err != nil {
		return nil, err
	}

	var body []*query.Atom
	if p.lexer.PeekToken().Type != TokenDot {
		for {
			atom, err := p.parseAtom()
			if err != nil {
				return nil, err
			}
			body = append(body, atom)
			if p.lexer.PeekToken().Type != TokenComma {
				break
			}
			p.lexer.NextToken()
		}
	}

	if _, err := p.expect(TokenDot); err != nil {
		return nil, err
	}
	if tok := p.lexer.PeekToken(); tok.Type != TokenEOF {
		return nil, errorAt(tok.Line, tok.Col, "unexpected %s after end of query", tok.describe())
	}
	return query.NewQuery(head, body...), nil
}

func (p *Parser) parseHead() (query.HeadAtom, error) {
	name, err := p.relationName()
	if err != nil {
		return query.HeadAtom{}, err
	}
	terms, err := p.parseTerms()
	if err != nil {
		return query.HeadAtom{}, err
	}

	vars := make([]string, 0, len(terms))
	for _, t := range terms {
		if !t.term.IsVariable() {
			return query.HeadAtom{}, errorAt(t.line, t.col, "head of %s may only contain variables, got %s", name, t.term)
		}
		vars = append(vars, t.term.String())
	}
	return query.NewHeadAtom(name, vars...), nil
}

func (p *Parser) parseAtom() (*query.Atom, error) {
	start := p.lexer.PeekToken()
	name, err := p.relationName()
	if err != nil {
		return nil, err
	}
	terms, err := p.parseTerms()
	if err != nil {
		return nil, err
	}

	var rel storage.Relation
	if p.lookup != nil {
		rel, err = p.lookup.Relation(name)
		if err != nil {
			return nil, fmt.Errorf("%d:%d: %w", start.Line, start.Col, err)
		}
	}

	ts := make([]query.Term, len(terms))
	for i, t := range terms {
		ts[i] = t.term
	}
	atom, err := query.NewAtom(name, rel, ts)
	if err != nil {
		return nil, fmt.Errorf("%d:%d: %w", start.Line, start.Col, err)
	}
	return atom, nil
}

type positionedTerm struct {
	term      query.Term
	line, col int
}

// parseTerms reads "(" [term {"," term}] ")"
func (p *Parser) parseTerms() ([]positionedTerm, error) {
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	var terms []positionedTerm
	if p.lexer.PeekToken().Type == TokenRightParen {
		p.lexer.NextToken()
		return terms, nil
	}

	for {
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)

		tok := p.lexer.NextToken()
		switch tok.Type {
		case TokenComma:
			continue
		case TokenRightParen:
			return terms, nil
		default:
			return nil, errorAt(tok.Line, tok.Col, "expected ',' or ')', got %s", tok.describe())
		}
	}
}

func (p *Parser) parseTerm() (positionedTerm, error) {
	tok := p.lexer.NextToken()
	pt := positionedTerm{line: tok.Line, col: tok.Col}

	switch tok.Type {
	case TokenString:
		pt.term = query.Const(datalog.String(tok.Value))
	case TokenNumber:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return pt, errorAt(tok.Line, tok.Col, "invalid number %q", tok.Value)
		}
		pt.term = query.Const(datalog.Number(f))
	case TokenIdent:
		if !isVariableName(tok.Value) {
			return pt, errorAt(tok.Line, tok.Col, "variable %q must start with a lowercase letter", tok.Value)
		}
		pt.term = query.Var(tok.Value)
	default:
		return pt, errorAt(tok.Line, tok.Col, "expected a variable or constant, got %s", tok.describe())
	}
	return pt, nil
}

func (p *Parser) relationName() (string, error) {
	tok, err := p.expect(TokenIdent)
	if err != nil {
		return "", err
	}
	if !unicode.IsUpper(rune(tok.Value[0])) {
		return "", errorAt(tok.Line, tok.Col, "relation name %q must start with an uppercase letter", tok.Value)
	}
	return tok.Value, nil
}

func (p *Parser) expect(t TokenType) (Token, error) {
	tok := p.lexer.NextToken()
	if tok.Type != t {
		want := Token{Type: t}
		return tok, errorAt(tok.Line, tok.Col, "expected %s, got %s", want.describe(), tok.describe())
	}
	return tok, nil
}

func isVariableName(s string) bool {
	return s != "" && unicode.IsLower(rune(s[0]))
}
