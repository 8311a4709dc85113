// Package segment tracks how the terminals of one cell are split into
// parasitic segments: which terminals were shorted together, how much
// capacitance sits on each segment, and which wires became resistors.
//
// A Nets value is owned by the extraction of a single cell. Once Finalize has
// been called it is read-only and may be shared with every cell that
// instantiates it.
package segment

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceRC/internal/uf"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
)

// ErrDuplicateResistor is returned when a wire is registered as a resistor twice.
var ErrDuplicateResistor = errors.New("segment: resistor already registered for wire")

// NumPISegments returns how many internal nodes a wire of resistance res
// needs so that no resistor exceeds maxSeries: ceil(res/maxSeries)-1, never
// negative. A non-positive maxSeries disables splitting.
func NumPISegments(res, maxSeries float64) int {
	if maxSeries <= 0 || res <= maxSeries {
		return 0
	}
	n := int(math.Ceil(res/maxSeries)) - 1
	if n < 0 {
		return 0
	}
	return n
}

// Resistor is a wire modeled as a resistor chain between two segments.
type Resistor struct {
	Wire       *design.Wire
	Resistance float64

	// Sections is the number of resistors in the chain (PISegments+1).
	Sections int

	// Capacitance is spread over the Sections-1 internal chain nodes.
	Capacitance float64
}

// Chain splits the resistor into its sections: the value of each series
// resistor and the capacitance on each internal node.
func (r *Resistor) Chain() (resistance float64, nodeCap float64) {
	resistance = r.Resistance / float64(r.Sections)
	if r.Sections > 1 {
		nodeCap = r.Capacitance / float64(r.Sections-1)
	}
	return resistance, nodeCap
}

// Segment is a named group of terminals after all shorts were applied.
type Segment struct {
	Name        string
	Net         *design.Net
	Terminals   []*design.Terminal
	Capacitance float64
}

// Nets is the per-cell segmentation state.
type Nets struct {
	cell    *design.Cell
	netlist *design.Netlist
	forest  *uf.Forest

	caps      []float64 // per terminal; summed per segment on demand
	resistors []*Resistor
	byWire    map[*design.Wire]*Resistor
	extracted map[int]bool // by net index
	shorted   [][]string

	names     map[int]string // segment root -> name, nil when stale
	finalized bool
}

// New creates the segmentation state for a cell. Every terminal starts in a
// segment of its own.
func New(cell *design.Cell) *Nets {
	return &Nets{
		cell:      cell,
		netlist:   cell.Netlist(),
		forest:    uf.New(len(cell.Terminals)),
		caps:      make([]float64, len(cell.Terminals)),
		byWire:    make(map[*design.Wire]*Resistor),
		extracted: make(map[int]bool),
	}
}

// Cell returns the cell this state belongs to.
func (n *Nets) Cell() *design.Cell {
	return n.cell
}

// Netlist returns the native nets of the cell.
func (n *Nets) Netlist() *design.Netlist {
	return n.netlist
}

func (n *Nets) mutate() {
	if n.finalized {
		panic(fmt.Sprintf("segment: cell %q is finalized", n.cell.Name))
	}
	n.names = nil
}

func (n *Nets) owns(t *design.Terminal) bool {
	return t != nil && t.Device.Parent == n.cell
}

// PutSegment adds capacitance to the segment that contains t.
func (n *Nets) PutSegment(t *design.Terminal, capacitance float64) {
	if !n.owns(t) {
		return
	}
	n.mutate()
	n.caps[t.Index] += capacitance
}

// ShortSegments merges the segments containing a and b. Shorting terminals
// that already share a segment is a no-op.
func (n *Nets) ShortSegments(a, b *design.Terminal) {
	if !n.owns(a) || !n.owns(b) {
		return
	}
	if n.forest.Same(a.Index, b.Index) {
		return
	}
	n.mutate()
	n.forest.Union(a.Index, b.Index)
}

// SameSegment reports whether a and b are in the same segment.
func (n *Nets) SameSegment(a, b *design.Terminal) bool {
	return n.owns(a) && n.owns(b) && n.forest.Same(a.Index, b.Index)
}

// AddArcRes registers w as a resistor between the segments of its ends.
func (n *Nets) AddArcRes(w *design.Wire, resistance float64) error {
	if _, dup := n.byWire[w]; dup {
		return errors.Wrapf(ErrDuplicateResistor, "%q", w.Name)
	}
	n.mutate()
	r := &Resistor{Wire: w, Resistance: resistance, Sections: 1}
	n.resistors = append(n.resistors, r)
	n.byWire[w] = r
	return nil
}

// AddArcCap marks w as a pi-model with piSegments internal nodes and adds
// capacitance to be spread over those nodes. The resistor must already be
// registered.
func (n *Nets) AddArcCap(w *design.Wire, capacitance float64, piSegments int) error {
	r, ok := n.byWire[w]
	if !ok {
		return errors.Errorf("segment: no resistor for wire %q", w.Name)
	}
	n.mutate()
	if piSegments+1 > r.Sections {
		r.Sections = piSegments + 1
	}
	r.Capacitance += capacitance
	return nil
}

// AddExtractedNet records that net carries parasitics in this cell.
func (n *Nets) AddExtractedNet(net *design.Net) {
	if net == nil || n.extracted[net.Index] {
		return
	}
	n.mutate()
	n.extracted[net.Index] = true
}

// IsExtractedNet reports whether net carries parasitics in this cell.
func (n *Nets) IsExtractedNet(net *design.Net) bool {
	return net != nil && n.extracted[net.Index]
}

// IsPowerGround reports whether t is on a power or ground net.
func (n *Nets) IsPowerGround(t *design.Terminal) bool {
	return n.netlist.IsPowerGround(t)
}

// AddShortedExports records a group of export names that share a segment.
// Groups with fewer than two names are ignored.
func (n *Nets) AddShortedExports(group []string) {
	if len(group) < 2 {
		return
	}
	if n.finalized {
		panic(fmt.Sprintf("segment: cell %q is finalized", n.cell.Name))
	}
	g := make([]string, len(group))
	copy(g, group)
	n.shorted = append(n.shorted, g)
}

// ShortedExports returns the registered groups of exports that ended up in
// the same segment.
func (n *Nets) ShortedExports() [][]string {
	return n.shorted
}

// Finalize records the shorted-export groups and freezes the state.
func (n *Nets) Finalize() {
	if n.finalized {
		return
	}
	for _, g := range n.ExportGroups() {
		n.AddShortedExports(g)
	}
	n.finalized = true
}

// Finalized reports whether Finalize was called.
func (n *Nets) Finalized() bool {
	return n.finalized
}

// ExportGroups groups the cell's export names by the segment name their
// terminals carry. Only groups of two or more are returned; names within a
// group and the groups themselves are sorted.
func (n *Nets) ExportGroups() [][]string {
	byName := make(map[string][]string)
	for _, e := range n.cell.Exports {
		name := n.NetName(e.Terminal)
		byName[name] = append(byName[name], e.Name)
	}
	var groups [][]string
	for _, g := range byName {
		if len(g) < 2 {
			continue
		}
		sort.Strings(g)
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

// NetName returns the externally visible name of the segment that contains
// t. Terminals of nets that were not extracted carry the native net name.
func (n *Nets) NetName(t *design.Terminal) string {
	net := n.netlist.NetOf(t)
	if net == nil {
		return ""
	}
	if !n.extracted[net.Index] {
		return net.Name
	}
	if n.names == nil {
		n.computeNames()
	}
	return n.names[n.forest.Find(t.Index)]
}

// computeNames names the segments of every extracted net. A net split into
// one segment keeps its name; otherwise a segment holding exports is named
// after the first export alphabetically and the rest are numbered net#1,
// net#2, ... in terminal order, skipping numbers whose name is already used
// by a net or an export of the cell.
func (n *Nets) computeNames() {
	n.names = make(map[int]string)

	taken := make(map[string]bool)
	for _, net := range n.netlist.Nets {
		taken[net.Name] = true
	}
	exportsByRoot := make(map[int][]string)
	for _, e := range n.cell.Exports {
		r := n.forest.Find(e.Terminal.Index)
		exportsByRoot[r] = append(exportsByRoot[r], e.Name)
		taken[e.Name] = true
	}

	for _, net := range n.netlist.Nets {
		if !n.extracted[net.Index] {
			continue
		}
		var roots []int
		seen := make(map[int]bool)
		for _, t := range net.Terminals {
			r := n.forest.Find(t.Index)
			if !seen[r] {
				seen[r] = true
				roots = append(roots, r)
			}
		}
		if len(roots) == 1 {
			n.names[roots[0]] = net.Name
			continue
		}
		count := 0
		for _, r := range roots {
			if exps := exportsByRoot[r]; len(exps) > 0 {
				sort.Strings(exps)
				n.names[r] = exps[0]
				continue
			}
			name := ""
			for name == "" || taken[name] {
				count++
				name = net.Name + "#" + strconv.Itoa(count)
			}
			taken[name] = true
			n.names[r] = name
		}
	}
}

// Segments returns every named segment with its terminals and accumulated
// capacitance, sorted by name. All terminals of a net that was not extracted
// form a single segment.
func (n *Nets) Segments() []*Segment {
	byName := make(map[string]*Segment)
	var order []string
	for _, t := range n.cell.Terminals {
		name := n.NetName(t)
		if name == "" {
			continue
		}
		s, ok := byName[name]
		if !ok {
			s = &Segment{Name: name, Net: n.netlist.NetOf(t)}
			byName[name] = s
			order = append(order, name)
		}
		s.Terminals = append(s.Terminals, t)
		s.Capacitance += n.caps[t.Index]
	}
	sort.Strings(order)
	result := make([]*Segment, len(order))
	for i, name := range order {
		result[i] = byName[name]
	}
	return result
}

// Capacitance returns the capacitance accumulated on the segment of t.
func (n *Nets) Capacitance(t *design.Terminal) float64 {
	name := n.NetName(t)
	var total float64
	for _, other := range n.cell.Terminals {
		if n.NetName(other) == name {
			total += n.caps[other.Index]
		}
	}
	return total
}

// Resistors returns the registered resistors whose ends are still in
// different segments, in registration order.
func (n *Nets) Resistors() []*Resistor {
	result := make([]*Resistor, 0, len(n.resistors))
	for _, r := range n.resistors {
		if n.NetName(r.Wire.Head) == n.NetName(r.Wire.Tail) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// Resistor returns the resistor registered for w, if any.
func (n *Nets) Resistor(w *design.Wire) (*Resistor, bool) {
	r, ok := n.byWire[w]
	return r, ok
}

// ExtractedNets returns the extracted nets in net order.
func (n *Nets) ExtractedNets() []*design.Net {
	var result []*design.Net
	for _, net := range n.netlist.Nets {
		if n.extracted[net.Index] {
			result = append(result, net)
		}
	}
	return result
}
