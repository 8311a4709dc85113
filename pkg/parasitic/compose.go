package parasitic

import (
	"log/slog"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
)

// compose replays the shorted-export groups of the instantiated sub-cell onto
// the instance terminals. Terminals whose net is not extracted in this cell
// already share a name and are left alone.
func (r *cellRun) compose(inst *design.Device) {
	sub, ok := r.x.result(inst.Proto)
	if !ok {
		r.log.Warn("sub-cell has no parasitic result, instance not composed",
			slog.String("instance", inst.Name),
			slog.String("subcell", inst.Proto.Name))
		r.stats.InstancesSkipped++
		return
	}

	for _, group := range sub.ShortedExports() {
		var first *design.Terminal
		for _, name := range group {
			t := inst.Port(name)
			if t == nil {
				r.log.Warn("instance has no port for export",
					slog.String("instance", inst.Name),
					slog.String("export", name))
				continue
			}
			if !r.seg.IsExtractedNet(r.netlist.NetOf(t)) {
				continue
			}
			if first == nil {
				first = t
				continue
			}
			r.seg.ShortSegments(first, t)
		}
	}
	r.stats.InstancesComposed++
}

// elideGate shorts the two gate ends of a transistor so the poly between
// them is not modeled as a resistor.
func (r *cellRun) elideGate(d *design.Device) {
	g, g2 := d.GatePorts()
	if g == nil || g2 == nil || g == g2 {
		return
	}
	net := r.netlist.NetOf(g)
	if net == nil {
		r.log.Warn("transistor gate without a net", slog.String("device", d.Name))
		return
	}
	if len(net.Terminals) <= 2 && len(net.Exports) == 0 {
		r.log.Warn("transistor gate is not connected", slog.String("device", d.Name))
	}
	if !r.seg.IsExtractedNet(net) {
		return
	}
	r.seg.ShortSegments(g, g2)
	r.stats.GatesElided++
}
