// Package exempt holds the Exempted-Nets Table: a caller-supplied list of nets
// whose parasitics are either skipped (exclude sense) or the only ones
// extracted (include sense), each with an optional replacement capacitance.
package exempt

import (
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

// Entry is one exempted net.
type Entry struct {
	Cell string // empty matches the net in every cell
	Net  string

	Capacitance    float64 // fF
	HasCapacitance bool
}

type key struct {
	cell, net string
}

// Table maps nets to their exemption entries.
type Table struct {
	entries map[key]Entry
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[key]Entry)}
}

// Add registers or replaces an entry.
func (t *Table) Add(e Entry) {
	t.entries[key{e.Cell, e.Net}] = e
}

// Lookup finds the entry for a net in a cell. A cell-qualified entry wins
// over a bare one.
func (t *Table) Lookup(cell, net string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	if e, ok := t.entries[key{cell, net}]; ok {
		return e, true
	}
	e, ok := t.entries[key{"", net}]
	return e, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns all entries sorted by cell, then net.
func (t *Table) Entries() []Entry {
	result := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Cell != result[j].Cell {
			return result[i].Cell < result[j].Cell
		}
		return result[i].Net < result[j].Net
	})
	return result
}

// Parser reads exempted-nets files.
type Parser struct {
	parser *participle.Parser[file]
}

// NewParser builds the file grammar.
func NewParser() (*Parser, error) {
	p, err := participle.Build[file](
		participle.Lexer(fileLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.Unquote("String"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "exempt: failed to build parser")
	}
	return &Parser{parser: p}, nil
}

// Parse reads a table from r. name is used in error positions.
func (p *Parser) Parse(name string, r io.Reader) (*Table, error) {
	doc, err := p.parser.Parse(name, io.MultiReader(r, strings.NewReader("\n")))
	if err != nil {
		return nil, errors.Wrap(err, "exempt: parse error")
	}

	t := NewTable()
	for _, l := range doc.Entries {
		e := Entry{Net: l.First}
		if l.Net != nil {
			e.Cell = l.First
			e.Net = *l.Net
		}
		if l.Value != nil {
			v, err := strconv.ParseFloat(*l.Value, 64)
			if err != nil || v < 0 {
				return nil, errors.Errorf("exempt: %s: invalid capacitance %q for net %q", l.Pos, *l.Value, e.Net)
			}
			e.Capacitance = v
			e.HasCapacitance = true
		}
		t.Add(e)
	}
	return t, nil
}

// ParseString reads a table from a string.
func (p *Parser) ParseString(input string) (*Table, error) {
	return p.Parse("", strings.NewReader(input))
}

// LoadFile reads a table from disk.
func LoadFile(filename string) (*Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "exempt: failed to open file")
	}
	defer f.Close()

	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	return p.Parse(filename, f)
}
