package parasitic

import (
	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/segment"
)

// SegmentedNets returns the finalized result of a cell, if it was extracted.
func (x *Extractor) SegmentedNets(c *design.Cell) (*segment.Nets, bool) {
	sn, ok := x.results[c]
	return sn, ok
}

func (x *Extractor) result(c *design.Cell) (Result, bool) {
	sn, ok := x.results[c]
	if !ok {
		return nil, false
	}
	return sn, true
}

// NodeName is the segment name of t in its cell, or the native net name when
// the cell has no result.
func (x *Extractor) NodeName(t *design.Terminal) string {
	if t == nil {
		return ""
	}
	c := t.Device.Parent
	if sn, ok := x.results[c]; ok {
		return sn.NetName(t)
	}
	if net := c.Netlist().NetOf(t); net != nil {
		return net.Name
	}
	return ""
}

// SubcircuitHeader returns the distinct segment names of the exports on a
// boundary net of c, in export order. Exports that ended up in one segment
// give a single pin.
func (x *Extractor) SubcircuitHeader(c *design.Cell, net *design.Net) []string {
	var pins []string
	seen := make(map[string]bool)
	for _, e := range net.Exports {
		if e.Terminal.Device.Parent != c {
			continue
		}
		name := x.NodeName(e.Terminal)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		pins = append(pins, name)
	}
	return pins
}

// ParasiticName returns, for each pin SubcircuitHeader gives for subNet of the
// instantiated cell, the segment name in the parent cell that the pin
// connects to. The two lists line up.
func (x *Extractor) ParasiticName(inst *design.Device, subNet *design.Net) []string {
	if !inst.IsInstance() {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	for _, e := range subNet.Exports {
		pin := x.NodeName(e.Terminal)
		if pin == "" || seen[pin] {
			continue
		}
		seen[pin] = true
		names = append(names, x.NodeName(inst.Port(e.Name)))
	}
	return names
}
