package exempt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	input := `# nets with measured loads
clk 12.5
+5V
top:data 3e-1

"bus[3]" 0
inv:y`

	table, err := p.ParseString(input)
	require.NoError(t, err)
	assert.Equal(t, 5, table.Len())

	e, ok := table.Lookup("any", "clk")
	require.True(t, ok)
	assert.True(t, e.HasCapacitance)
	assert.Equal(t, 12.5, e.Capacitance)

	e, ok = table.Lookup("any", "+5V")
	require.True(t, ok)
	assert.False(t, e.HasCapacitance)

	e, ok = table.Lookup("top", "data")
	require.True(t, ok)
	assert.Equal(t, "top", e.Cell)
	assert.InDelta(t, 0.3, e.Capacitance, 1e-12)

	_, ok = table.Lookup("other", "data")
	assert.False(t, ok, "qualified entry must not match other cells")

	e, ok = table.Lookup("x", "bus[3]")
	require.True(t, ok)
	assert.True(t, e.HasCapacitance)
	assert.Equal(t, 0.0, e.Capacitance)

	_, ok = table.Lookup("inv", "y")
	assert.True(t, ok)
}

func TestLookupPrefersQualified(t *testing.T) {
	table := NewTable()
	table.Add(Entry{Net: "n", Capacitance: 1, HasCapacitance: true})
	table.Add(Entry{Cell: "c", Net: "n", Capacitance: 2, HasCapacitance: true})

	e, ok := table.Lookup("c", "n")
	require.True(t, ok)
	assert.Equal(t, 2.0, e.Capacitance)

	e, ok = table.Lookup("d", "n")
	require.True(t, ok)
	assert.Equal(t, 1.0, e.Capacitance)

	entries := table.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "", entries[0].Cell)
	assert.Equal(t, "c", entries[1].Cell)
}

func TestNilTable(t *testing.T) {
	var table *Table
	_, ok := table.Lookup("c", "n")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Len())
}

func TestParseErrors(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"two values", "clk 1 2\n", "parse error"},
		{"bad value", "clk abc\n", "invalid capacitance"},
		{"negative value", "clk -1\n", "invalid capacitance"},
		{"dangling colon", "top:\n", "parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseString(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	table, err := p.ParseString("\n# only comments\n\n")
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}
