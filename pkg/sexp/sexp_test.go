package sexp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	exprs, err := ParseString(`(segment (start 1 2) (end 3.5 4) (width 0.25) (layer "F.Cu") (net 3) locked)`)
	require.NoError(t, err)
	require.Len(t, exprs, 1)

	root := exprs[0]
	assert.False(t, root.IsLeaf())
	assert.Equal(t, "segment", Keyword(root))

	end, ok := Find(root, "end")
	require.True(t, ok)
	x, err := FloatAt(end, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.5, x)

	layer, ok := Find(root, "layer")
	require.True(t, ok)
	name, err := StringAt(layer, 1)
	require.NoError(t, err)
	assert.Equal(t, "F.Cu", name)

	net, _ := Find(root, "net")
	n, err := IntAt(net, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.True(t, Has(root, "locked"))
	assert.False(t, Has(root, "segment"))
	assert.Equal(t, "0.25", Value(root, "width", ""))
	assert.Equal(t, "def", Value(root, "missing", "def"))
}

func TestQuotedStrings(t *testing.T) {
	exprs, err := ParseString(`(net 1 "Net-(R1-Pad1)") (name "a \"quoted\" word\n")`)
	require.NoError(t, err)
	require.Len(t, exprs, 2)

	s, err := StringAt(exprs[0].(*List), 2)
	require.NoError(t, err)
	assert.Equal(t, "Net-(R1-Pad1)", s)

	s, err = StringAt(exprs[1].(*List), 1)
	require.NoError(t, err)
	assert.Equal(t, "a \"quoted\" word\n", s)
}

func TestComments(t *testing.T) {
	src := `; leading comment
(design "d" # trailing comment
  (cell "a"))`
	exprs, err := ParseString(src)
	require.NoError(t, err)
	require.Len(t, exprs, 1)

	cells := FindAll(exprs[0], "cell")
	require.Len(t, cells, 1)
	assert.Equal(t, 3, cells[0].Line)
}

func TestStrings(t *testing.T) {
	exprs, err := ParseString(`(layers "F.Cu" "B.Cu" (nested x))`)
	require.NoError(t, err)
	assert.Equal(t, []string{"F.Cu", "B.Cu"}, Strings(exprs[0].(*List)))
	assert.Equal(t, `(layers F.Cu B.Cu (nested x))`, exprs[0].String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unclosed list", "(a (b c)", "unclosed list"},
		{"stray paren", "a )", "unexpected ')'"},
		{"unterminated string", `(a "abc`, "unterminated string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAccessorErrors(t *testing.T) {
	exprs, err := ParseString(`(at x (y))`)
	require.NoError(t, err)
	l := exprs[0].(*List)

	_, err = FloatAt(l, 1)
	assert.ErrorContains(t, err, "not a number")
	_, err = StringAt(l, 2)
	assert.ErrorContains(t, err, "is a list")
	_, err = IntAt(l, 5)
	assert.ErrorContains(t, err, "no element 5")
}
