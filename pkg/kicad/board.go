// Package kicad imports the copper of a KiCad .kicad_pcb board as a one-cell
// design: footprints become devices with one terminal per pad, vias and track
// junctions become pins, and every track segment becomes a wire.
package kicad

import (
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/sexp"
)

// MinSupportedVersion is the oldest board format read (KiCad 6.0).
const MinSupportedVersion = 20211014

// Point is a board position in millimeters.
type Point struct {
	X, Y float64
}

// Dist returns the distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Layer is one entry of the board's layer table.
type Layer struct {
	Number int
	Name   string // "F.Cu", "B.Cu", ...
	Type   string // signal, power, mixed, jumper, user
}

// IsCopper reports whether the layer carries current.
func (l Layer) IsCopper() bool {
	return strings.HasSuffix(l.Name, ".Cu")
}

// Net is a KiCad net.
type Net struct {
	Number int
	Name   string
}

// Track is a straight copper segment.
type Track struct {
	Start, End Point
	Width      float64
	Layer      string
	Net        *Net
}

// Via joins copper layers at one point.
type Via struct {
	At     Point
	Size   float64
	Drill  float64
	Layers []string
	Net    *Net
}

// Pad is a footprint pad with its position already on board coordinates.
type Pad struct {
	Number        string
	Type          string // smd, thru_hole, connect, np_thru_hole
	At            Point
	Width, Height float64
	Layers        []string
	Net           *Net
}

// OnLayer reports whether the pad exists on the copper layer.
func (p *Pad) OnLayer(layer string) bool {
	for _, l := range p.Layers {
		if l == layer || l == "*.Cu" || (l == "F&B.Cu" && (layer == "F.Cu" || layer == "B.Cu")) {
			return true
		}
	}
	return false
}

// Contains reports whether pt lies within the pad's bounding box.
func (p *Pad) Contains(pt Point) bool {
	return math.Abs(pt.X-p.At.X) <= p.Width/2 && math.Abs(pt.Y-p.At.Y) <= p.Height/2
}

// Footprint is a placed component.
type Footprint struct {
	Library   string
	Name      string
	Reference string
	Value     string
	Layer     string
	At        Point
	Angle     float64 // degrees
	Pads      []Pad
}

// Board is the copper content of a .kicad_pcb file.
type Board struct {
	Version    int
	Generator  string
	Layers     []Layer
	Nets       []Net
	Footprints []Footprint
	Tracks     []Track
	Vias       []Via
}

// ParseFile reads and parses a board file.
func ParseFile(filename string) (*Board, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "kicad: failed to open file")
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a board from r.
func Parse(r io.Reader) (*Board, error) {
	exprs, err := sexp.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "kicad: failed to parse s-expression")
	}
	if len(exprs) == 0 {
		return nil, errors.New("kicad: empty file")
	}
	root, ok := exprs[0].(*sexp.List)
	if !ok || sexp.Keyword(root) != "kicad_pcb" {
		return nil, errors.Errorf("kicad: not a KiCad PCB file: expected 'kicad_pcb', got %q", sexp.Keyword(exprs[0]))
	}

	b := &Board{Generator: "unknown"}
	versionNode, ok := sexp.Find(root, "version")
	if !ok {
		return nil, errors.New("kicad: missing required 'version' field")
	}
	if b.Version, err = sexp.IntAt(versionNode, 1); err != nil {
		return nil, errors.Wrap(err, "kicad: version")
	}
	if b.Version < MinSupportedVersion {
		return nil, errors.Errorf("kicad: unsupported version %d (minimum %d / KiCad 6.0)", b.Version, MinSupportedVersion)
	}
	if gen := sexp.Value(root, "generator", ""); gen != "" {
		b.Generator = gen
	} else if host := sexp.Value(root, "host", ""); host != "" {
		b.Generator = host
	}

	if layersNode, ok := sexp.Find(root, "layers"); ok {
		for _, item := range layersNode.Items()[1:] {
			l, ok := item.(*sexp.List)
			if !ok {
				continue
			}
			layer, err := parseLayer(l)
			if err != nil {
				return nil, err
			}
			b.Layers = append(b.Layers, layer)
		}
	}

	nets := make(map[int]*Net)
	byName := make(map[string]*Net)
	for _, n := range sexp.FindAll(root, "net") {
		num, err := sexp.IntAt(n, 1)
		if err != nil {
			return nil, errors.Wrap(err, "kicad: net")
		}
		name, _ := sexp.StringAt(n, 2)
		b.Nets = append(b.Nets, Net{Number: num, Name: name})
	}
	for i := range b.Nets {
		nets[b.Nets[i].Number] = &b.Nets[i]
		if b.Nets[i].Name != "" {
			byName[b.Nets[i].Name] = &b.Nets[i]
		}
	}
	netOf := func(node *sexp.List) *Net {
		ref, ok := sexp.Find(node, "net")
		if !ok {
			return nil
		}
		if num, err := sexp.IntAt(ref, 1); err == nil {
			return nets[num]
		}
		name, _ := sexp.StringAt(ref, 1)
		return byName[name]
	}

	for _, node := range sexp.FindAll(root, "segment") {
		t, err := parseTrack(node)
		if err != nil {
			return nil, err
		}
		t.Net = netOf(node)
		b.Tracks = append(b.Tracks, t)
	}
	for _, node := range sexp.FindAll(root, "via") {
		v, err := parseVia(node)
		if err != nil {
			return nil, err
		}
		v.Net = netOf(node)
		b.Vias = append(b.Vias, v)
	}

	fpNodes := append(sexp.FindAll(root, "footprint"), sexp.FindAll(root, "module")...)
	for _, node := range fpNodes {
		fp, err := parseFootprint(node, netOf)
		if err != nil {
			return nil, err
		}
		b.Footprints = append(b.Footprints, fp)
	}
	return b, nil
}

// parseLayer reads (0 "F.Cu" signal).
func parseLayer(l *sexp.List) (Layer, error) {
	num, err := sexp.IntAt(l, 0)
	if err != nil {
		return Layer{}, errors.Wrap(err, "kicad: layer number")
	}
	name, err := sexp.StringAt(l, 1)
	if err != nil {
		return Layer{}, errors.Wrap(err, "kicad: layer name")
	}
	typ, err := sexp.StringAt(l, 2)
	if err != nil {
		typ = "user"
	}
	return Layer{Number: num, Name: name, Type: typ}, nil
}

func point(node *sexp.List, key string) (Point, error) {
	ref, ok := sexp.Find(node, key)
	if !ok {
		return Point{}, errors.Errorf("kicad: line %d: (%s) missing required '%s'", node.Line, sexp.Keyword(node), key)
	}
	x, err := sexp.FloatAt(ref, 1)
	if err != nil {
		return Point{}, errors.Wrap(err, "kicad")
	}
	y, err := sexp.FloatAt(ref, 2)
	if err != nil {
		return Point{}, errors.Wrap(err, "kicad")
	}
	return Point{X: x, Y: y}, nil
}

func floatValue(node *sexp.List, key string, def float64) (float64, error) {
	ref, ok := sexp.Find(node, key)
	if !ok {
		return def, nil
	}
	v, err := sexp.FloatAt(ref, 1)
	if err != nil {
		return 0, errors.Wrap(err, "kicad")
	}
	return v, nil
}

// parseTrack reads (segment (start x y) (end x y) (width w) (layer "F.Cu") (net n)).
func parseTrack(node *sexp.List) (Track, error) {
	var t Track
	var err error
	if t.Start, err = point(node, "start"); err != nil {
		return t, err
	}
	if t.End, err = point(node, "end"); err != nil {
		return t, err
	}
	if t.Width, err = floatValue(node, "width", 0.15); err != nil {
		return t, err
	}
	if t.Layer = sexp.Value(node, "layer", ""); t.Layer == "" {
		return t, errors.Errorf("kicad: line %d: segment missing required 'layer'", node.Line)
	}
	return t, nil
}

// parseVia reads (via (at x y) (size d) (drill d) (layers "F.Cu" "B.Cu") (net n)).
func parseVia(node *sexp.List) (Via, error) {
	var v Via
	var err error
	if v.At, err = point(node, "at"); err != nil {
		return v, err
	}
	if v.Size, err = floatValue(node, "size", 0); err != nil {
		return v, err
	}
	if v.Drill, err = floatValue(node, "drill", 0); err != nil {
		return v, err
	}
	if layers, ok := sexp.Find(node, "layers"); ok {
		v.Layers = sexp.Strings(layers)
	} else {
		v.Layers = []string{"F.Cu", "B.Cu"}
	}
	return v, nil
}

// parseFootprint reads a footprint and places its pads on the board.
func parseFootprint(node *sexp.List, netOf func(*sexp.List) *Net) (Footprint, error) {
	var fp Footprint
	name, err := sexp.StringAt(node, 1)
	if err != nil {
		return fp, errors.Wrap(err, "kicad: footprint name")
	}
	if i := strings.IndexByte(name, ':'); i > 0 {
		fp.Library, fp.Name = name[:i], name[i+1:]
	} else {
		fp.Name = name
	}
	fp.Layer = sexp.Value(node, "layer", "F.Cu")

	if fp.At, err = point(node, "at"); err != nil {
		return fp, err
	}
	at, _ := sexp.Find(node, "at")
	if a, err := sexp.FloatAt(at, 3); err == nil {
		fp.Angle = a
	}

	// KiCad 6+ uses (property "Reference" "R1"), older files (fp_text reference R1)
	for _, p := range sexp.FindAll(node, "property") {
		key, _ := sexp.StringAt(p, 1)
		val, _ := sexp.StringAt(p, 2)
		switch key {
		case "Reference":
			fp.Reference = val
		case "Value":
			fp.Value = val
		}
	}
	for _, p := range sexp.FindAll(node, "fp_text") {
		kind, _ := sexp.StringAt(p, 1)
		val, _ := sexp.StringAt(p, 2)
		switch {
		case kind == "reference" && fp.Reference == "":
			fp.Reference = val
		case kind == "value" && fp.Value == "":
			fp.Value = val
		}
	}

	for _, p := range sexp.FindAll(node, "pad") {
		pad, err := parsePad(p, fp)
		if err != nil {
			return fp, errors.Wrapf(err, "footprint %q", fp.Reference)
		}
		pad.Net = netOf(p)
		fp.Pads = append(fp.Pads, pad)
	}
	return fp, nil
}

// parsePad reads (pad "1" smd rect (at x y [angle]) (size w h) (layers ...) (net n)).
// Pad positions are relative to the footprint and rotate with it.
func parsePad(node *sexp.List, fp Footprint) (Pad, error) {
	var pad Pad
	var err error
	if pad.Number, err = sexp.StringAt(node, 1); err != nil {
		return pad, err
	}
	pad.Type, _ = sexp.StringAt(node, 2)

	rel, err := point(node, "at")
	if err != nil {
		return pad, err
	}
	size, ok := sexp.Find(node, "size")
	if !ok {
		return pad, errors.Errorf("kicad: line %d: pad missing required 'size'", node.Line)
	}
	if pad.Width, err = sexp.FloatAt(size, 1); err != nil {
		return pad, err
	}
	if pad.Height, err = sexp.FloatAt(size, 2); err != nil {
		return pad, err
	}
	if layers, ok := sexp.Find(node, "layers"); ok {
		pad.Layers = sexp.Strings(layers)
	}

	// Angles turn counterclockwise on screen, where y points down
	theta := fp.Angle * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	pad.At = Point{
		X: fp.At.X + rel.X*cos + rel.Y*sin,
		Y: fp.At.Y - rel.X*sin + rel.Y*cos,
	}
	if math.Abs(math.Mod(fp.Angle, 180)) == 90 {
		pad.Width, pad.Height = pad.Height, pad.Width
	}
	return pad, nil
}

// key snaps a point to whole nanometers so coincident endpoints compare equal.
func key(layer string, p Point) string {
	return layer + "@" + strconv.FormatInt(int64(math.Round(p.X*1e6)), 10) + "," + strconv.FormatInt(int64(math.Round(p.Y*1e6)), 10)
}
