package parasitic

import (
	"log/slog"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
)

// verdict is what the extraction gate decided for one wire.
type verdict int

const (
	// skipWire contributes nothing: no merge, no resistor, no capacitance.
	skipWire verdict = iota

	// idealWire is treated as a zero-resistance connection on a net that is
	// not extracted.
	idealWire

	// extractWire goes through the estimator.
	extractWire
)

// gate decides per wire whether parasitics are extracted. It belongs to a
// single cell's processing; seen remembers the nets already reported so each
// appears in the log once per cell.
type gate struct {
	opts *Options
	cell *design.Cell
	seg  Segmenter
	log  *slog.Logger

	seen map[int]bool
}

func newGate(opts *Options, cell *design.Cell, seg Segmenter, log *slog.Logger) *gate {
	return &gate{
		opts: opts,
		cell: cell,
		seg:  seg,
		log:  log,
		seen: make(map[int]bool),
	}
}

// decide returns the verdict for w on net. In exclude sense the replacement
// capacitance of an exempted net is put on the net the first time the net is
// met in this cell.
func (g *gate) decide(w *design.Wire, net *design.Net) verdict {
	if g.seg.IsPowerGround(w.Head) || g.seg.IsPowerGround(w.Tail) {
		return skipWire
	}
	if w.Function == design.WireNonElectrical {
		return skipWire
	}
	if !g.opts.ExtractResistance && !g.opts.ExtractCapacitance {
		return idealWire
	}
	if !g.opts.UseExemptedNets {
		return extractWire
	}

	entry, listed := g.opts.Exempted.Lookup(g.cell.Name, net.Name)
	first := !g.seen[net.Index]
	g.seen[net.Index] = true

	if g.opts.ExemptedInvertSense {
		if !listed {
			return idealWire
		}
		if first {
			g.log.Info("extracting listed net", slog.String("net", net.Name))
		}
		return extractWire
	}

	if !listed {
		return extractWire
	}
	if first {
		attrs := []any{slog.String("net", net.Name)}
		if entry.HasCapacitance {
			g.seg.PutSegment(w.Head, entry.Capacitance)
			attrs = append(attrs, slog.Float64("capacitance", entry.Capacitance))
		}
		g.log.Info("not extracting exempted net", attrs...)
	}
	return idealWire
}
