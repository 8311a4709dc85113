package sexp

import (
	"strconv"

	"github.com/pkg/errors"
)

// Keyword returns the leading symbol of a list, or "" if there is none.
func Keyword(s Sexp) string {
	l, ok := s.(*List)
	if !ok || l.Len() == 0 {
		return ""
	}
	if sym, ok := l.items[0].(Symbol); ok {
		return string(sym)
	}
	return ""
}

// Find returns the first child list of s whose keyword is key.
// Example: Find(s, "at") finds (at 100 50).
func Find(s Sexp, key string) (*List, bool) {
	l, ok := s.(*List)
	if !ok {
		return nil, false
	}
	for _, item := range l.items {
		if Keyword(item) == key {
			return item.(*List), true
		}
	}
	return nil, false
}

// FindAll returns every child list of s whose keyword is key.
func FindAll(s Sexp, key string) []*List {
	l, ok := s.(*List)
	if !ok {
		return nil
	}
	var result []*List
	for _, item := range l.items {
		if Keyword(item) == key {
			result = append(result, item.(*List))
		}
	}
	return result
}

// Has reports whether s contains the bare symbol sym (e.g. "locked").
func Has(s Sexp, sym string) bool {
	l, ok := s.(*List)
	if !ok {
		return false
	}
	for _, item := range l.items[min(1, len(l.items)):] {
		if v, ok := item.(Symbol); ok && string(v) == sym {
			return true
		}
	}
	return false
}

// StringAt returns the symbol at index (0 is the keyword).
func StringAt(l *List, index int) (string, error) {
	item := l.Get(index)
	if item == nil {
		return "", errors.Errorf("line %d: (%s) has no element %d", l.Line, Keyword(l), index)
	}
	sym, ok := item.(Symbol)
	if !ok {
		return "", errors.Errorf("line %d: (%s) element %d is a list", l.Line, Keyword(l), index)
	}
	return string(sym), nil
}

// FloatAt parses the symbol at index as a float64.
func FloatAt(l *List, index int) (float64, error) {
	str, err := StringAt(l, index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, errors.Errorf("line %d: (%s) %q is not a number", l.Line, Keyword(l), str)
	}
	return v, nil
}

// IntAt parses the symbol at index as an int.
func IntAt(l *List, index int) (int, error) {
	str, err := StringAt(l, index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(str)
	if err != nil {
		return 0, errors.Errorf("line %d: (%s) %q is not an integer", l.Line, Keyword(l), str)
	}
	return v, nil
}

// Strings returns every symbol after the keyword, ignoring nested lists.
// Example: Strings((layers "F.Cu" "B.Cu")) returns ["F.Cu", "B.Cu"].
func Strings(l *List) []string {
	var result []string
	for _, item := range l.items[min(1, len(l.items)):] {
		if sym, ok := item.(Symbol); ok {
			result = append(result, string(sym))
		}
	}
	return result
}

// Value returns the first argument of the child (key ...), or def when absent.
func Value(s Sexp, key, def string) string {
	node, ok := Find(s, key)
	if !ok {
		return def
	}
	v, err := StringAt(node, 1)
	if err != nil {
		return def
	}
	return v
}
