package report

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/parasitic"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/tech"
)

const sample = `
(design "rpt" (technology "t")
  (cell "c"
    (device "p0" (kind pin) (ports "p"))
    (device "p1" (kind pin) (ports "p"))
    (export "a" (terminal "p0" "p"))
    (wire "w" (from "p0" "p") (to "p1" "p") (length 10) (width 2) (layers "m1")))
  (cell "sch" (view schematic)
    (device "q" (kind pin) (ports "p"))))
`

func build(t *testing.T, minCap float64) *Report {
	t.Helper()
	lib, err := design.Load(strings.NewReader(sample))
	require.NoError(t, err)

	tc := tech.New("t", 1)
	tc.MinResistance = 1
	tc.MinCapacitance = minCap
	require.NoError(t, tc.AddLayer(tech.Layer{Name: "m1", Function: tech.FunctionMetal, SheetResistance: 5, AreaCap: 0.1, FringeCap: 0.05}))
	reg, err := tech.NewRegistry(tc)
	require.NoError(t, err)

	opts := parasitic.DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	x, err := parasitic.NewExtractor(reg, opts)
	require.NoError(t, err)
	require.NoError(t, x.Run(lib, ""))

	r, err := Build(x, lib, "")
	require.NoError(t, err)
	return r
}

func TestBuild(t *testing.T) {
	r := build(t, 0)

	require.Len(t, r.Cells, 2)
	c := r.Cells[0]
	assert.Equal(t, "c", c.Name)
	assert.True(t, c.Extracted)
	assert.Equal(t, "t", c.Technology)
	assert.Equal(t, []string{"a"}, c.ExtractedNets)
	require.Len(t, c.Resistors, 1)
	assert.Equal(t, Resistor{Wire: "w", From: "a", To: "a#1", Resistance: 25, Sections: 1}, c.Resistors[0])
	require.Len(t, c.Segments, 2)
	assert.False(t, c.Segments[0].BelowMinimum)

	assert.False(t, r.Cells[1].Extracted, "schematic cells are not extracted")

	assert.Equal(t, 1, r.Totals.Cells)
	assert.Equal(t, 1, r.Totals.Resistors)
	assert.InDelta(t, 25, r.Totals.Resistance, 1e-9)
	assert.InDelta(t, 3, r.Totals.Capacitance, 1e-9)
	assert.InDelta(t, 25, r.Totals.MaxResistance, 1e-9)
	assert.InDelta(t, 1.5, r.Totals.MaxCapacitance, 1e-9)
}

func TestBelowMinimum(t *testing.T) {
	r := build(t, 2)
	for _, s := range r.Cells[0].Segments {
		assert.True(t, s.BelowMinimum, s.Name)
	}
}

func TestJSON(t *testing.T) {
	data, err := build(t, 0).JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "rpt", decoded["design"])
	totals := decoded["totals"].(map[string]any)
	assert.Equal(t, 25.0, totals["resistance"])
	assert.Contains(t, string(data), `"wire": "w"`)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, build(t, 0).WriteText(&buf))
	out := buf.String()

	assert.Contains(t, out, "Design rpt")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "resistor")
	assert.Contains(t, out, "a - a#1")
	assert.Regexp(t, `sch\s+-`, out)
}
