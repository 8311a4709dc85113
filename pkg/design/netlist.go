package design

import (
	"fmt"
	"regexp"

	"github.com/OpenTraceLab/OpenTraceRC/internal/uf"
)

// Net is a native electrical-equivalence class of terminals within one cell.
type Net struct {
	Index     int
	Name      string
	Terminals []*Terminal
	Exports   []*Export
	Supply    Characteristic // CharPower, CharGround or CharSignal
}

// IsPowerGround reports whether the net is a supply net.
func (n *Net) IsPowerGround() bool {
	return n.Supply.IsSupply()
}

// IsUnconnected reports whether the net holds a single terminal that is
// neither wired nor exported.
func (n *Net) IsUnconnected() bool {
	return len(n.Terminals) == 1 && len(n.Exports) == 0
}

// Netlist groups the terminals of a cell into native nets.
type Netlist struct {
	Cell *Cell
	Nets []*Net

	byTerminal []*Net
	byName     map[string]*Net
}

// NetOf returns the net containing t, or nil when t is not in this cell.
func (nl *Netlist) NetOf(t *Terminal) *Net {
	if t == nil || t.Device.Parent != nl.Cell || t.Index >= len(nl.byTerminal) {
		return nil
	}
	return nl.byTerminal[t.Index]
}

// Net looks up a net by name.
func (nl *Netlist) Net(name string) *Net {
	return nl.byName[name]
}

// IsPowerGround reports whether t sits on a power or ground net.
func (nl *Netlist) IsPowerGround(t *Terminal) bool {
	n := nl.NetOf(t)
	return n != nil && n.IsPowerGround()
}

// Netlist computes (or returns the cached) native nets of the cell. Nets of
// instantiated sub-cells are computed first so that terminals of one instance
// that share a sub-cell net land on the same net here.
func (c *Cell) Netlist() *Netlist {
	if c.netlist != nil {
		return c.netlist
	}

	forest := uf.New(len(c.Terminals))
	for _, w := range c.Wires {
		if w.Function == WireNonElectrical {
			continue
		}
		forest.Union(w.Head.Index, w.Tail.Index)
	}

	// Connect instance terminals that are internally the same sub-cell net
	supply := make(map[int]Characteristic)
	for _, d := range c.Devices {
		switch d.Kind {
		case KindPower:
			for _, t := range d.ports {
				supply[t.Index] = CharPower
			}
		case KindGround:
			for _, t := range d.ports {
				supply[t.Index] = CharGround
			}
		case KindTransistor:
			// Both ends of the gate poly are one conductor
			if g, g2 := d.GatePorts(); g != nil && g2 != nil {
				forest.Union(g.Index, g2.Index)
			}
		}
		if !d.IsInstance() {
			continue
		}
		sub := d.Proto.Netlist()
		first := make(map[int]*Terminal)
		for _, t := range d.ports {
			e := d.Proto.Export(t.Port)
			if e == nil {
				continue
			}
			subNet := sub.NetOf(e.Terminal)
			if subNet == nil {
				continue
			}
			if subNet.IsPowerGround() {
				supply[t.Index] = subNet.Supply
			}
			if prev, ok := first[subNet.Index]; ok {
				forest.Union(prev.Index, t.Index)
			} else {
				first[subNet.Index] = t
			}
		}
	}

	nl := &Netlist{
		Cell:       c,
		byTerminal: make([]*Net, len(c.Terminals)),
		byName:     make(map[string]*Net),
	}
	roots := make(map[int]*Net)
	for _, t := range c.Terminals {
		r := forest.Find(t.Index)
		n, ok := roots[r]
		if !ok {
			n = &Net{Index: len(nl.Nets)}
			roots[r] = n
			nl.Nets = append(nl.Nets, n)
		}
		n.Terminals = append(n.Terminals, t)
		nl.byTerminal[t.Index] = n
		if s, ok := supply[t.Index]; ok {
			n.Supply = s
		}
	}
	for _, e := range c.Exports {
		n := nl.byTerminal[e.Terminal.Index]
		n.Exports = append(n.Exports, e)
		if e.Characteristic.IsSupply() {
			n.Supply = e.Characteristic
		}
	}

	c.nameNets(nl)
	c.netlist = nl
	return nl
}

var autoNetRe = regexp.MustCompile(`^net-\d+$`)

// nameNets names every net. Export names win over wire net hints, which win
// over generated "net-NNN" names.
func (c *Cell) nameNets(nl *Netlist) {
	taken := make(map[string]bool)
	for _, n := range nl.Nets {
		if len(n.Exports) > 0 {
			n.Name = n.Exports[0].Name
			taken[n.Name] = true
		}
	}
	for _, w := range c.Wires {
		if w.NetName == "" || w.Function == WireNonElectrical {
			continue
		}
		n := nl.byTerminal[w.Head.Index]
		if n.Name != "" || taken[w.NetName] || autoNetRe.MatchString(w.NetName) {
			// Hints never displace an export name or another net's hint
			continue
		}
		n.Name = w.NetName
		taken[n.Name] = true
	}

	next := 1
	for _, n := range nl.Nets {
		if n.Name == "" {
			for {
				name := fmt.Sprintf("net-%03d", next)
				next++
				if !taken[name] {
					n.Name = name
					taken[name] = true
					break
				}
			}
		}
		if s, ok := c.supplies[n.Name]; ok && !n.IsPowerGround() {
			n.Supply = s
		}
		nl.byName[n.Name] = n
	}
}
