package spice

import (
	"bytes"
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

const demoDesign = `
(design "demo" (technology "t")
  (cell "sub"
    (device "pa" (kind pin) (ports "p"))
    (device "pb" (kind pin) (ports "p"))
    (device "pc" (kind pin) (ports "p"))
    (export "e1" (terminal "pa" "p"))
    (export "e2" (terminal "pb" "p"))
    (export "e3" (terminal "pc" "p"))
    (wire "short" (from "pa" "p") (to "pb" "p") (length 10) (width 2) (layers "lo"))
    (wire "long" (from "pb" "p") (to "pc" "p") (length 10) (width 2) (layers "m1")))
  (cell "top"
    (device "q1" (kind pin) (ports "p"))
    (device "q3" (kind pin) (ports "p"))
    (device "m" (kind transistor) (function nmos) (ports "g" "g2" "s" "d"))
    (instance "x" (of "sub"))
    (export "in" (terminal "q1" "p"))
    (export "out" (terminal "q3" "p"))
    (wire "w1" (from "q1" "p") (to "x" "e1") (length 10) (width 2) (layers "m1"))
    (wire "w3" (from "x" "e3") (to "q3" "p") (length 10) (width 2) (layers "m1"))
    (wire "wg" (from "q3" "p") (to "m" "g") (length 1) (width 1) (layers "lo"))))
`

func demoTech(t *testing.T) *tech.Technology {
	t.Helper()
	tc := tech.New("t", 1)
	tc.MinResistance = 1
	require.NoError(t, tc.AddLayer(tech.Layer{Name: "m1", Function: tech.FunctionMetal, SheetResistance: 5, AreaCap: 0.1, FringeCap: 0.05}))
	require.NoError(t, tc.AddLayer(tech.Layer{Name: "lo", Function: tech.FunctionPoly, SheetResistance: 0.05, AreaCap: 0.1}))
	return tc
}

func extract(t *testing.T, tc *tech.Technology) (string, *design.Library) {
	t.Helper()
	lib, err := design.Load(strings.NewReader(demoDesign))
	require.NoError(t, err)
	reg, err := tech.NewRegistry(tc)
	require.NoError(t, err)

	opts := parasitic.DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	x, err := parasitic.NewExtractor(reg, opts)
	require.NoError(t, err)
	require.NoError(t, x.Run(lib, "top"))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, x, lib, "top"))
	return buf.String(), lib
}

func TestWrite(t *testing.T) {
	out, _ := extract(t, demoTech(t))
	lines := strings.Split(out, "\n")

	for _, want := range []string{
		".SUBCKT sub e1 e3",
		"R1 e1 e3 25",
		"C1 e1 0 3.5fF",
		"C2 e3 0 1.5fF",
		".ENDS sub",
		".SUBCKT top in out",
	} {
		assert.Contains(t, lines, want)
	}

	// Instance pins follow the sub-cell's pins, mapped to parent segments
	assert.Contains(t, lines, "Xx in#1 in#2 sub")
	assert.Contains(t, lines, "R1 in in#1 25")
	assert.Contains(t, lines, "R2 in#2 out 25")
	assert.Equal(t, ".END", lines[len(lines)-2])

	// Children before parents
	assert.Less(t, strings.Index(out, ".SUBCKT sub"), strings.Index(out, ".SUBCKT top"))
}

func TestWriteTransistor(t *testing.T) {
	out, lib := extract(t, demoTech(t))
	top, err := lib.Cell("top")
	require.NoError(t, err)

	nl := top.Netlist()
	m := top.Device("m")
	d := nl.NetOf(m.Port("d")).Name
	s := nl.NetOf(m.Port("s")).Name
	assert.Contains(t, out, "Mm "+d+" out "+s+" "+s+" nmos\n")
}

func TestWritePIModel(t *testing.T) {
	tc := demoTech(t)
	tc.MaxSeriesResistance = 10
	out, _ := extract(t, tc)

	// 25 Ω split into three sections with two internal nodes
	assert.Contains(t, out, "R1 e1 e1#long_1 8.33333\n")
	assert.Contains(t, out, "e1#long_1 0 1fF\n")
	assert.Contains(t, out, "R3 e1#long_2 e3 8.33333\n")
}

func TestWriteMinCapacitance(t *testing.T) {
	tc := demoTech(t)
	tc.MinCapacitance = 2
	out, _ := extract(t, tc)

	assert.Contains(t, out, "C1 e1 0 3.5fF\n")
	assert.NotContains(t, out, "1.5fF")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v    float64
		unit string
		want string
	}{
		{0, "F", "0F"},
		{25, "", "25"},
		{1500, "", "1.5k"},
		{2.2e6, "", "2.2Meg"},
		{1.5e-15, "F", "1.5fF"},
		{3.3e-12, "F", "3.3pF"},
		{4.7e-9, "", "4.7n"},
		{0.25, "", "250m"},
		{1e-18, "F", "1e-18F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.v, tt.unit), "FormatValue(%g)", tt.v)
	}
}
