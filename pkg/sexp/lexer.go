package sexp

import (
	"bufio"
	"io"
	"unicode"

	"github.com/pkg/errors"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenLeftParen
	tokenRightParen
	tokenSymbol
	tokenString
)

type token struct {
	typ   tokenType
	value string
	line  int
}

type lexer struct {
	reader *bufio.Reader
	peeked *rune
	line   int
}

func newLexer(r io.Reader) *lexer {
	return &lexer{reader: bufio.NewReader(r), line: 1}
}

// next returns the next token, skipping whitespace and ';' or '#' comments.
func (l *lexer) next() (token, error) {
	for {
		ch, err := l.peek()
		if err == io.EOF {
			return token{typ: tokenEOF, line: l.line}, nil
		}
		if err != nil {
			return token{}, err
		}

		if unicode.IsSpace(ch) {
			l.read()
			continue
		}
		if ch == ';' || ch == '#' {
			for {
				c, err := l.read()
				if err != nil || c == '\n' {
					break
				}
			}
			continue
		}
		break
	}

	ch, _ := l.peek()
	switch ch {
	case '(':
		l.read()
		return token{typ: tokenLeftParen, value: "(", line: l.line}, nil
	case ')':
		l.read()
		return token{typ: tokenRightParen, value: ")", line: l.line}, nil
	case '"':
		return l.readString()
	default:
		return l.readSymbol()
	}
}

func (l *lexer) peek() (rune, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	ch, _, err := l.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	l.peeked = &ch
	return ch, nil
}

func (l *lexer) read() (rune, error) {
	var ch rune
	if l.peeked != nil {
		ch = *l.peeked
		l.peeked = nil
	} else {
		var err error
		ch, _, err = l.reader.ReadRune()
		if err != nil {
			return 0, err
		}
	}
	if ch == '\n' {
		l.line++
	}
	return ch, nil
}

func (l *lexer) readString() (token, error) {
	start := l.line
	l.read() // opening quote

	var result []rune
	for {
		ch, err := l.read()
		if err == io.EOF {
			return token{}, errors.Errorf("line %d: unterminated string", start)
		}
		if err != nil {
			return token{}, err
		}

		switch ch {
		case '"':
			return token{typ: tokenString, value: string(result), line: start}, nil
		case '\\':
			next, err := l.read()
			if err != nil {
				return token{}, errors.Errorf("line %d: unterminated escape", l.line)
			}
			switch next {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			default:
				result = append(result, next)
			}
		default:
			result = append(result, ch)
		}
	}
}

func (l *lexer) readSymbol() (token, error) {
	var result []rune
	for {
		ch, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return token{}, err
		}
		if unicode.IsSpace(ch) || ch == '(' || ch == ')' || ch == '"' {
			break
		}
		l.read()
		result = append(result, ch)
	}
	return token{typ: tokenSymbol, value: string(result), line: l.line}, nil
}
