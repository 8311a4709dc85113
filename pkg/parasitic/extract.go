package parasitic

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/segment"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/tech"
)

// Stats counts what happened to the wires and devices of one cell.
type Stats struct {
	Wires     int `json:"wires"`     // wires visited
	Resistors int `json:"resistors"` // wires registered as resistors
	Shorted   int `json:"shorted"`   // wires merged into a single segment
	Skipped   int `json:"skipped"`   // power/ground, non-electrical or unresolved wires

	PISections int `json:"pi_sections"` // resistor sections added by pi-model splitting

	GatesElided       int `json:"gates_elided"`
	InstancesComposed int `json:"instances_composed"`
	InstancesSkipped  int `json:"instances_skipped"` // sub-cell without a result
}

// Extractor computes and caches the per-cell segmentation results of a run.
// It is not safe for concurrent use.
type Extractor struct {
	techs *tech.Registry
	opts  *Options
	log   *slog.Logger

	results  map[*design.Cell]*segment.Nets
	stats    map[*design.Cell]*Stats
	cellTech map[*design.Cell]*tech.Technology
}

// NewExtractor creates an extractor. A nil opts means DefaultOptions().
func NewExtractor(techs *tech.Registry, opts *Options) (*Extractor, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	x := &Extractor{
		techs:    techs,
		opts:     opts,
		log:      opts.Logger.With(slog.String("component", "parasitic")),
		results:  make(map[*design.Cell]*segment.Nets),
		stats:    make(map[*design.Cell]*Stats),
		cellTech: make(map[*design.Cell]*tech.Technology),
	}
	if !opts.ExtractResistance && !opts.ExtractCapacitance {
		x.log.Warn("resistance and capacitance extraction are both disabled")
	}
	return x, nil
}

// Options returns the options in effect.
func (x *Extractor) Options() *Options {
	return x.opts
}

// Run extracts top and everything below it, children first. An empty top
// extracts every cell of the library. Only a missing technology stops the
// run.
func (x *Extractor) Run(lib *design.Library, top string) error {
	cells, err := lib.BottomUp(top)
	if err != nil {
		return errors.Wrap(err, "parasitic")
	}
	for _, c := range cells {
		if _, err := x.ExtractCell(c); err != nil {
			return err
		}
	}
	return nil
}

// ExtractCell computes the segmentation of one cell. Sub-cells must have been
// extracted before; ExtractCell never recurses. The result is computed once
// per cell and then returned from the cache. Cells that are not layout views
// yield a nil result and no error.
func (x *Extractor) ExtractCell(c *design.Cell) (*segment.Nets, error) {
	if sn, ok := x.results[c]; ok {
		return sn, nil
	}
	log := x.log.With(slog.String("cell", c.Name))
	if c.View != design.ViewLayout {
		log.Debug("not a layout cell, no parasitics", slog.String("view", c.View.String()))
		return nil, nil
	}

	t, err := x.techs.Lookup(technologyOf(c))
	if err != nil {
		return nil, errors.Wrapf(err, "parasitic: cell %q", c.Name)
	}

	sn := segment.New(c)
	r := &cellRun{
		x:       x,
		cell:    c,
		tech:    t,
		seg:     sn,
		netlist: sn.Netlist(),
		log:     log,
		stats:   &Stats{},
	}
	r.gate = newGate(x.opts, c, sn, log)

	for _, w := range c.Wires {
		r.wire(w)
	}
	// Devices after wires so the set of extracted nets is complete
	for _, d := range c.Devices {
		switch {
		case d.Kind == design.KindTransistor:
			r.elideGate(d)
		case d.IsInstance():
			r.compose(d)
		}
	}

	sn.Finalize()
	x.results[c] = sn
	x.stats[c] = r.stats
	x.cellTech[c] = t
	log.Debug("extracted",
		slog.Int("wires", r.stats.Wires),
		slog.Int("resistors", r.stats.Resistors),
		slog.Int("shorted", r.stats.Shorted),
		slog.Int("extracted_nets", len(sn.ExtractedNets())))
	return sn, nil
}

func technologyOf(c *design.Cell) string {
	if c.Library != nil {
		return c.Library.TechnologyOf(c)
	}
	return c.Technology
}

// Stats returns the counters of an extracted cell.
func (x *Extractor) Stats(c *design.Cell) (Stats, bool) {
	s, ok := x.stats[c]
	if !ok {
		return Stats{}, false
	}
	return *s, true
}

// Technology returns the technology an extracted cell was processed with.
func (x *Extractor) Technology(c *design.Cell) (*tech.Technology, bool) {
	t, ok := x.cellTech[c]
	return t, ok
}

// cellRun is the state of one ExtractCell call.
type cellRun struct {
	x       *Extractor
	cell    *design.Cell
	tech    *tech.Technology
	seg     Segmenter
	netlist *design.Netlist
	gate    *gate
	log     *slog.Logger
	stats   *Stats
}

// wire feeds one wire through the gate and the estimator into the
// segmentation: either a short between its ends or a resistor, never both.
func (r *cellRun) wire(w *design.Wire) {
	r.stats.Wires++
	net := r.netlist.NetOf(w.Head)
	if net == nil {
		r.log.Warn("wire without a net, skipping", slog.String("wire", w.Name))
		r.stats.Skipped++
		return
	}

	v := r.gate.decide(w, net)
	if v == skipWire {
		r.stats.Skipped++
		return
	}

	var res, capacitance float64
	wt := r.tech
	if v == extractWire {
		wt = r.wireTech(w)
		var missing []string
		res, capacitance, missing = Estimate(w, wt, r.x.opts)
		if len(missing) > 0 {
			r.log.Warn("wire uses unknown layers",
				slog.String("wire", w.Name),
				slog.String("technology", wt.Name),
				slog.Any("layers", missing))
		}
		r.seg.AddExtractedNet(net)
	}

	// The cell's technology decides what counts as a short
	if res <= r.tech.MinResistance {
		r.seg.ShortSegments(w.Head, w.Tail)
		r.seg.PutSegment(w.Head, capacitance/2)
		r.seg.PutSegment(w.Tail, capacitance/2)
		r.stats.Shorted++
		return
	}

	if err := r.seg.AddArcRes(w, res); err != nil {
		r.log.Warn("cannot register resistor", slog.String("wire", w.Name), slog.Any("error", err))
		return
	}
	r.stats.Resistors++

	pi := segment.NumPISegments(res, wt.MaxSeriesResistance)
	end := capacitance / (2 * float64(pi+1))
	r.seg.PutSegment(w.Head, end)
	r.seg.PutSegment(w.Tail, end)
	if pi == 0 {
		return
	}
	if err := r.seg.AddArcCap(w, capacitance-2*end, pi); err != nil {
		r.log.Warn("cannot register pi-model", slog.String("wire", w.Name), slog.Any("error", err))
		return
	}
	r.stats.PISections += pi
}

// wireTech returns the technology whose layers describe w: its own when it
// names one the registry knows, the cell's otherwise.
func (r *cellRun) wireTech(w *design.Wire) *tech.Technology {
	if w.Technology == "" || w.Technology == r.tech.Name {
		return r.tech
	}
	t, err := r.x.techs.Lookup(w.Technology)
	if err != nil {
		r.log.Warn("wire technology unknown, using the cell's",
			slog.String("wire", w.Name),
			slog.String("technology", w.Technology))
		return r.tech
	}
	return t
}
