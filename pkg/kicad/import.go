package kicad

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
)

// DefaultSupply matches the usual names of power and ground nets.
var DefaultSupply = regexp.MustCompile(`(?i)^/?(gnd|agnd|dgnd|vss|vcc|vdd|\+?\d+v\d*|\+?\d+\.\d+v)$`)

var groundRe = regexp.MustCompile(`(?i)gnd|vss`)

// ImportOptions controls how a board becomes a design.
type ImportOptions struct {
	Name       string         // cell name, defaults to "board"
	Technology string         // technology the layer names resolve against
	Supply     *regexp.Regexp // nets treated as power or ground; nil for none
	Logger     *slog.Logger
}

// Import builds a one-cell library from the board's copper.
//
// Each footprint becomes a primitive device with one port per distinct pad
// number. Vias are pins. Track endpoints attach to the pad whose box contains
// them on the same layer, then to a via whose ring reaches them, and
// otherwise to a junction pin shared by every track ending at that point.
func Import(b *Board, opts ImportOptions) (*design.Library, error) {
	if opts.Name == "" {
		opts.Name = "board"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "kicad"))

	lib := design.NewLibrary(opts.Name, opts.Technology)
	c, err := lib.NewCell(opts.Name)
	if err != nil {
		return nil, err
	}
	im := &importer{cell: c, junctions: make(map[string]*design.Terminal)}

	used := make(map[string]bool)
	for i := range b.Footprints {
		fp := &b.Footprints[i]
		name := fp.Reference
		if name == "" || name == "REF**" {
			name = fmt.Sprintf("fp%d", i+1)
		}
		if used[name] {
			logger.Warn("duplicate footprint reference", slog.String("ref", name))
			base := name
			for k := 2; used[name]; k++ {
				name = fmt.Sprintf("%s_%d", base, k)
			}
		}
		used[name] = true

		var ports []string
		seen := make(map[string]bool)
		for _, p := range fp.Pads {
			// Unnumbered pads are mechanical
			if p.Number == "" || p.Type == "np_thru_hole" || seen[p.Number] {
				continue
			}
			seen[p.Number] = true
			ports = append(ports, p.Number)
		}
		function := fp.Value
		if function == "" {
			function = fp.Name
		}
		d, err := c.AddDevice(name, design.KindPrimitive, function, ports...)
		if err != nil {
			return nil, errors.Wrap(err, "kicad")
		}
		for j := range fp.Pads {
			p := &fp.Pads[j]
			if t := d.Port(p.Number); t != nil {
				im.pads = append(im.pads, padTerm{pad: p, term: t})
			}
		}
	}

	for i := range b.Vias {
		v := &b.Vias[i]
		d, err := c.AddDevice(fmt.Sprintf("via%d", i+1), design.KindPin, "via", "p")
		if err != nil {
			return nil, errors.Wrap(err, "kicad")
		}
		im.vias = append(im.vias, viaTerm{via: v, term: d.Port("p")})
	}

	supplies := make(map[string]bool)
	var skipped int
	for i := range b.Tracks {
		t := &b.Tracks[i]
		head, err := im.attach(t.Layer, t.Start)
		if err != nil {
			return nil, err
		}
		tail, err := im.attach(t.Layer, t.End)
		if err != nil {
			return nil, err
		}
		if head == tail {
			skipped++
			continue
		}
		w := &design.Wire{
			Name:   fmt.Sprintf("track%d", i+1),
			Head:   head,
			Tail:   tail,
			Length: t.Start.Dist(t.End),
			Width:  t.Width,
			Layers: []string{t.Layer},
		}
		if t.Net != nil {
			w.NetName = t.Net.Name
			if opts.Supply != nil && t.Net.Name != "" && opts.Supply.MatchString(t.Net.Name) {
				supplies[t.Net.Name] = true
			}
		}
		if err := c.AddWire(w); err != nil {
			return nil, errors.Wrap(err, "kicad")
		}
	}

	for _, n := range b.Nets {
		if !supplies[n.Name] {
			continue
		}
		char := design.CharPower
		if groundRe.MatchString(n.Name) {
			char = design.CharGround
		}
		if err := c.AddSupply(n.Name, char); err != nil {
			return nil, errors.Wrap(err, "kicad")
		}
	}

	logger.Info("imported board",
		slog.String("cell", c.Name),
		slog.Int("footprints", len(b.Footprints)),
		slog.Int("vias", len(b.Vias)),
		slog.Int("wires", len(c.Wires)),
		slog.Int("junctions", len(im.junctions)),
		slog.Int("degenerate", skipped))
	return lib, nil
}

type padTerm struct {
	pad  *Pad
	term *design.Terminal
}

type viaTerm struct {
	via  *Via
	term *design.Terminal
}

type importer struct {
	cell      *design.Cell
	pads      []padTerm
	vias      []viaTerm
	junctions map[string]*design.Terminal
}

// attach returns the terminal a track endpoint lands on, creating a junction
// pin when nothing else is there.
func (im *importer) attach(layer string, pt Point) (*design.Terminal, error) {
	for _, p := range im.pads {
		if p.pad.OnLayer(layer) && p.pad.Contains(pt) {
			return p.term, nil
		}
	}
	for _, v := range im.vias {
		if v.via.At.Dist(pt) <= v.via.Size/2 {
			return v.term, nil
		}
	}

	k := key(layer, pt)
	if t, ok := im.junctions[k]; ok {
		return t, nil
	}
	d, err := im.cell.AddDevice(fmt.Sprintf("j%d", len(im.junctions)+1), design.KindPin, "junction", "p")
	if err != nil {
		return nil, errors.Wrap(err, "kicad")
	}
	t := d.Port("p")
	im.junctions[k] = t
	return t, nil
}
