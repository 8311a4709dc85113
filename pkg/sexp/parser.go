package sexp

import (
	"io"

	"github.com/pkg/errors"
)

// Parser builds expressions from a token stream.
type Parser struct {
	lex     *lexer
	current token
}

// NewParser creates a parser reading from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{lex: newLexer(r)}
}

// ParseAll parses every top-level expression until EOF.
func (p *Parser) ParseAll() ([]Sexp, error) {
	var result []Sexp
	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.current.typ != tokenEOF {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		result = append(result, expr)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *Parser) parseExpr() (Sexp, error) {
	switch p.current.typ {
	case tokenLeftParen:
		return p.parseList()
	case tokenSymbol, tokenString:
		return Symbol(p.current.value), nil
	case tokenRightParen:
		return nil, errors.Errorf("line %d: unexpected ')'", p.current.line)
	default:
		return nil, errors.Errorf("line %d: unexpected end of input", p.current.line)
	}
}

func (p *Parser) parseList() (Sexp, error) {
	list := &List{Line: p.current.line}
	for {
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch p.current.typ {
		case tokenRightParen:
			return list, nil
		case tokenEOF:
			return nil, errors.Errorf("line %d: unclosed list", list.Line)
		}
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list.items = append(list.items, elem)
	}
}
