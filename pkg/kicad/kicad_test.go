package kicad

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const board = `
(kicad_pcb (version 20221018) (generator pcbnew)
  (layers
    (0 "F.Cu" signal)
    (31 "B.Cu" signal)
    (44 "Edge.Cuts" user))
  (net 0 "")
  (net 1 "IN")
  (net 2 "GND")
  (footprint "Resistor_SMD:R_0603" (layer "F.Cu") (at 10 10)
    (property "Reference" "R1")
    (property "Value" "10k")
    (pad "1" smd rect (at -1 0) (size 1 1) (layers "F.Cu" "F.Paste") (net 1 "IN"))
    (pad "2" smd rect (at 1 0) (size 1 1) (layers "F.Cu") (net 2 "GND")))
  (footprint "Connector:J2" (layer "F.Cu") (at 0 10 90)
    (fp_text reference "J1" (at 0 0))
    (pad "1" thru_hole circle (at 0 0) (size 1.5 1.5) (layers "*.Cu") (net 1 "IN"))
    (pad "2" thru_hole circle (at 2 0) (size 1.5 1.5) (layers "*.Cu") (net 2 "GND"))
    (pad "" np_thru_hole circle (at 1 1) (size 1 1) (layers "*.Cu")))
  (segment (start 0 10) (end 4 10) (width 0.25) (layer "F.Cu") (net 1))
  (segment (start 4 10) (end 9 10) (width 0.25) (layer "F.Cu") (net 1))
  (segment (start 11 10) (end 11 5) (width 0.5) (layer "F.Cu") (net 2))
  (via (at 11 5) (size 0.8) (drill 0.4) (layers "F.Cu" "B.Cu") (net 2))
  (segment (start 11 5.2) (end 0 8) (width 0.5) (layer "B.Cu") (net 2))
  (segment (start 20 20) (end 20 20) (width 0.25) (layer "F.Cu") (net 0)))
`

func TestParse(t *testing.T) {
	b, err := Parse(strings.NewReader(board))
	require.NoError(t, err)

	assert.Equal(t, 20221018, b.Version)
	assert.Equal(t, "pcbnew", b.Generator)
	require.Len(t, b.Layers, 3)
	assert.True(t, b.Layers[0].IsCopper())
	assert.False(t, b.Layers[2].IsCopper())
	assert.Len(t, b.Nets, 3)

	require.Len(t, b.Footprints, 2)
	r1 := b.Footprints[0]
	assert.Equal(t, "R1", r1.Reference)
	assert.Equal(t, "10k", r1.Value)
	assert.Equal(t, "Resistor_SMD", r1.Library)
	assert.Equal(t, "R_0603", r1.Name)
	assert.InDelta(t, 9, r1.Pads[0].At.X, 1e-9)

	j1 := b.Footprints[1]
	assert.Equal(t, "J1", j1.Reference)
	assert.InDelta(t, 90, j1.Angle, 1e-9)
	// (2, 0) turned a quarter counterclockwise lands above the origin pad
	assert.InDelta(t, 0, j1.Pads[1].At.X, 1e-9)
	assert.InDelta(t, 8, j1.Pads[1].At.Y, 1e-9)

	require.Len(t, b.Tracks, 5)
	assert.Equal(t, "IN", b.Tracks[0].Net.Name)
	assert.Equal(t, "B.Cu", b.Tracks[3].Layer)
	require.Len(t, b.Vias, 1)
	assert.Equal(t, []string{"F.Cu", "B.Cu"}, b.Vias[0].Layers)
	assert.Equal(t, "GND", b.Vias[0].Net.Name)
}

func TestParseLegacyModule(t *testing.T) {
	src := `(kicad_pcb (version 20211014) (host pcbnew "6.0")
	  (net 0 "") (net 1 "A")
	  (module "R" (layer F.Cu) (at 5 5)
	    (fp_text reference R9 (at 0 0))
	    (pad 1 smd rect (at 0 0) (size 2 2) (layers F.Cu) (net 1 "A")))
	  (segment (start 5 5) (end 8 5) (width 0.2) (layer F.Cu) (net "A")))`
	b, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "pcbnew", b.Generator)
	require.Len(t, b.Footprints, 1)
	assert.Equal(t, "R9", b.Footprints[0].Reference)
	assert.Equal(t, "A", b.Footprints[0].Pads[0].Net.Name)
	assert.Equal(t, "A", b.Tracks[0].Net.Name, "nets may be referenced by name")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", ``, "empty file"},
		{"not a board", `(kicad_sch (version 20221018))`, "not a KiCad PCB file"},
		{"no version", `(kicad_pcb (generator pcbnew))`, "missing required 'version'"},
		{"too old", `(kicad_pcb (version 20171130))`, "unsupported version"},
		{"segment without layer", `(kicad_pcb (version 20221018) (segment (start 0 0) (end 1 1)))`, "missing required 'layer'"},
		{"pad without size", `(kicad_pcb (version 20221018) (footprint "x" (at 0 0) (pad "1" smd rect (at 0 0))))`, "missing required 'size'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestImport(t *testing.T) {
	b, err := Parse(strings.NewReader(board))
	require.NoError(t, err)

	lib, err := Import(b, ImportOptions{
		Technology: "pcb",
		Supply:     DefaultSupply,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	assert.Equal(t, "pcb", lib.Technology)

	c, err := lib.Cell("board")
	require.NoError(t, err)

	r1 := c.Device("R1")
	require.NotNil(t, r1)
	assert.Equal(t, "10k", r1.Function)
	assert.Len(t, r1.Ports(), 2)
	j1 := c.Device("J1")
	require.NotNil(t, j1)
	assert.Len(t, j1.Ports(), 2, "mechanical holes have no port")
	assert.NotNil(t, c.Device("via1"))
	assert.NotNil(t, c.Device("j1"))

	// The zero-length track is dropped
	require.Len(t, c.Wires, 4)
	assert.InDelta(t, 5, c.Wires[1].Length, 1e-9)
	assert.InDelta(t, 0.25, c.Wires[1].Width, 1e-9)
	assert.Equal(t, []string{"F.Cu"}, c.Wires[1].Layers)
	assert.Equal(t, "IN", c.Wires[1].NetName)

	nl := c.Netlist()
	in := nl.NetOf(r1.Port("1"))
	assert.Equal(t, "IN", in.Name)
	assert.Same(t, in, nl.NetOf(j1.Port("1")))
	assert.False(t, in.IsPowerGround())

	gnd := nl.NetOf(r1.Port("2"))
	assert.Equal(t, "GND", gnd.Name)
	assert.Same(t, gnd, nl.NetOf(j1.Port("2")), "through the via and the back layer")
	assert.Same(t, gnd, nl.NetOf(c.Device("via1").Port("p")))
	assert.True(t, gnd.IsPowerGround())
}

func TestImportDuplicateReference(t *testing.T) {
	src := `(kicad_pcb (version 20221018)
	  (footprint "a" (at 0 0) (property "Reference" "U1") (pad "1" smd rect (at 0 0) (size 1 1) (layers "F.Cu")))
	  (footprint "b" (at 5 0) (property "Reference" "U1") (pad "1" smd rect (at 0 0) (size 1 1) (layers "F.Cu")))
	  (footprint "c" (at 9 0) (pad "1" smd rect (at 0 0) (size 1 1) (layers "F.Cu"))))`
	b, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	lib, err := Import(b, ImportOptions{Name: "dup", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)
	c, err := lib.Cell("dup")
	require.NoError(t, err)
	assert.NotNil(t, c.Device("U1"))
	assert.NotNil(t, c.Device("U1_2"))
	assert.NotNil(t, c.Device("fp3"))
	assert.Equal(t, "c", c.Device("fp3").Function)
}

func TestImportRenamedReferenceTaken(t *testing.T) {
	src := `(kicad_pcb (version 20221018)
	  (footprint "a" (at 0 0) (property "Reference" "R1") (pad "1" smd rect (at 0 0) (size 1 1) (layers "F.Cu")))
	  (footprint "b" (at 5 0) (property "Reference" "R1") (pad "1" smd rect (at 0 0) (size 1 1) (layers "F.Cu")))
	  (footprint "c" (at 9 0) (property "Reference" "R1_2") (pad "1" smd rect (at 0 0) (size 1 1) (layers "F.Cu"))))`
	b, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	lib, err := Import(b, ImportOptions{Name: "dup", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)
	c, err := lib.Cell("dup")
	require.NoError(t, err)
	require.Len(t, c.Devices, 3)
	assert.Equal(t, "a", c.Device("R1").Function)
	assert.Equal(t, "b", c.Device("R1_2").Function)
	assert.Equal(t, "c", c.Device("R1_2_2").Function)
}

func TestDefaultSupply(t *testing.T) {
	for _, name := range []string{"GND", "/gnd", "VCC", "+5V", "3V3", "+3.3V", "VSS"} {
		assert.True(t, DefaultSupply.MatchString(name), name)
	}
	for _, name := range []string{"IN", "Net-(R1-Pad1)", "GNDA_SENSE"} {
		assert.False(t, DefaultSupply.MatchString(name), name)
	}
	assert.True(t, groundRe.MatchString("AGND"))
	assert.False(t, groundRe.MatchString("+5V"))
}
