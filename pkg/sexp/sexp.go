// Package sexp provides a small streaming S-expression reader used for design
// files and KiCad boards. Atoms and quoted strings are both returned as
// Symbols; lists keep the line they started on for error messages.
package sexp

import (
	"io"
	"strings"
)

// Sexp is an S-expression node: either a Symbol or a *List.
type Sexp interface {
	IsLeaf() bool
	String() string
}

// Symbol is an atom (identifier, number or quoted string).
type Symbol string

func (s Symbol) IsLeaf() bool   { return true }
func (s Symbol) String() string { return string(s) }

// List is a parenthesized sequence of expressions.
type List struct {
	Line  int
	items []Sexp
}

func (l *List) IsLeaf() bool { return false }

// Items returns the list elements, including the leading keyword.
func (l *List) Items() []Sexp {
	return l.items
}

// Len returns the number of elements in the list.
func (l *List) Len() int {
	return len(l.items)
}

// Get returns the element at index, or nil when out of range.
func (l *List) Get(index int) Sexp {
	if index < 0 || index >= len(l.items) {
		return nil
	}
	return l.items[index]
}

func (l *List) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, item := range l.items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(item.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Parse reads all top-level expressions from r.
func Parse(r io.Reader) ([]Sexp, error) {
	return NewParser(r).ParseAll()
}

// ParseString reads all top-level expressions from s.
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}
