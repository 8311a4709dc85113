// Package spice writes an extracted design as SPICE subcircuits: one .SUBCKT
// per cell, children first, with the parasitic resistors and capacitors of
// every extracted net.
package spice

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/parasitic"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/segment"
)

// Ground is the SPICE reference node that capacitors return to.
const Ground = "0"

// Write emits top and all cells below it. An empty top writes every cell.
// The extractor must already have been run over the same cells.
func Write(out io.Writer, x *parasitic.Extractor, lib *design.Library, top string) error {
	cells, err := lib.BottomUp(top)
	if err != nil {
		return errors.Wrap(err, "spice")
	}
	bw := bufio.NewWriter(out)
	w := &writer{out: bw, x: x}
	w.printf("* %s: parasitic RC netlist\n", lib.Name)
	for _, c := range cells {
		w.cell(c)
	}
	w.printf(".END\n")
	if w.err != nil {
		return errors.Wrap(w.err, "spice")
	}
	return errors.Wrap(bw.Flush(), "spice")
}

type writer struct {
	out *bufio.Writer
	x   *parasitic.Extractor
	err error

	resistors, capacitors int
}

func (w *writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.out, format, args...)
}

// BoundaryNets returns the nets of c that carry exports, in the order their
// first export was declared. Subcircuit pins follow this order.
func BoundaryNets(c *design.Cell) []*design.Net {
	nl := c.Netlist()
	var nets []*design.Net
	seen := make(map[*design.Net]bool)
	for _, e := range c.Exports {
		n := nl.NetOf(e.Terminal)
		if n == nil || seen[n] {
			continue
		}
		seen[n] = true
		nets = append(nets, n)
	}
	return nets
}

func (w *writer) cell(c *design.Cell) {
	w.resistors, w.capacitors = 0, 0

	var pins []string
	for _, n := range BoundaryNets(c) {
		pins = append(pins, w.x.SubcircuitHeader(c, n)...)
	}
	w.printf("\n.SUBCKT %s %s\n", c.Name, strings.Join(pins, " "))

	for _, d := range c.Devices {
		switch {
		case d.Kind == design.KindTransistor:
			w.transistor(d)
		case d.IsInstance():
			w.instance(d)
		case d.Kind == design.KindPrimitive:
			w.printf("* %s %s %s\n", d.Name, d.Function, w.ports(d))
		}
	}

	if sn, ok := w.x.SegmentedNets(c); ok {
		minCap := 0.0
		if t, ok := w.x.Technology(c); ok {
			minCap = t.MinCapacitance
		}
		for _, r := range sn.Resistors() {
			w.resistor(r, sn.NetName(r.Wire.Head), sn.NetName(r.Wire.Tail), minCap)
		}
		for _, s := range sn.Segments() {
			if s.Net == nil || s.Net.IsPowerGround() {
				continue
			}
			w.capacitor(s.Name, s.Capacitance, minCap)
		}
	}
	w.printf(".ENDS %s\n", c.Name)
}

func (w *writer) ports(d *design.Device) string {
	var parts []string
	for _, t := range d.Ports() {
		parts = append(parts, t.Port+"="+w.x.NodeName(t))
	}
	return strings.Join(parts, " ")
}

// transistor writes an M card: drain gate source bulk model. The bulk ties to
// the source when the device has no "b" port; the function names the model.
func (w *writer) transistor(d *design.Device) {
	drain, gate, source := d.Port("d"), d.Port(design.PortGate), d.Port("s")
	if drain == nil || gate == nil || source == nil || d.Function == "" {
		w.printf("* %s %s %s\n", d.Name, d.Function, w.ports(d))
		return
	}
	bulk := d.Port("b")
	if bulk == nil {
		bulk = source
	}
	w.printf("M%s %s %s %s %s %s\n", d.Name,
		w.x.NodeName(drain), w.x.NodeName(gate), w.x.NodeName(source), w.x.NodeName(bulk), d.Function)
}

func (w *writer) instance(d *design.Device) {
	var nodes []string
	for _, n := range BoundaryNets(d.Proto) {
		nodes = append(nodes, w.x.ParasiticName(d, n)...)
	}
	w.printf("X%s %s %s\n", d.Name, strings.Join(nodes, " "), d.Proto.Name)
}

// resistor writes a wire's resistor chain. Internal nodes of a pi-model are
// named after the wire and carry their share of the wire capacitance.
func (w *writer) resistor(r *segment.Resistor, head, tail string, minCap float64) {
	value, nodeCap := r.Chain()
	prev := head
	for i := 1; i <= r.Sections; i++ {
		next := tail
		if i < r.Sections {
			next = fmt.Sprintf("%s#%s_%d", head, r.Wire.Name, i)
		}
		w.resistors++
		w.printf("R%d %s %s %s\n", w.resistors, prev, next, FormatValue(value, ""))
		if i < r.Sections {
			w.capacitor(next, nodeCap, minCap)
		}
		prev = next
	}
}

func (w *writer) capacitor(node string, value, minCap float64) {
	if value <= 0 || value < minCap {
		return
	}
	w.capacitors++
	w.printf("C%d %s %s %s\n", w.capacitors, node, Ground, FormatValue(value*1e-15, "F"))
}
