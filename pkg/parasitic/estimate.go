package parasitic

import (
	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/tech"
)

// Estimate converts a wire's geometry into resistance (Ω) and capacitance
// (fF) using the layers of t. Length and width are scaled to microns; each
// non-diffusion layer contributes area*AreaCap + 2*length*FringeCap and
// (length/width)*SheetResistance. Layer names t does not know are returned in
// missing. Both results are never negative.
func Estimate(w *design.Wire, t *tech.Technology, opts *Options) (res, capacitance float64, missing []string) {
	length := w.Length * t.Scale
	width := w.Width * t.Scale
	area := length * width
	fringe := 2 * length

	var conductance float64
	ideal := false
	for _, name := range w.Layers {
		layer, ok := t.Layer(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if layer.IsDiffusion() {
			continue
		}

		var c, r float64
		if opts.ExtractCapacitance {
			c = area*layer.AreaCap + fringe*layer.FringeCap
		}
		if opts.ExtractResistance && width > 0 {
			r = length / width * layer.SheetResistance
		}

		if opts.LayerModel == LayerLastWins {
			capacitance, res = c, r
			continue
		}
		capacitance += c
		if !opts.ExtractResistance {
			continue
		}
		// A layer without resistance shorts the parallel stack
		if r <= 0 {
			ideal = true
			continue
		}
		conductance += 1 / r
	}

	if opts.LayerModel == LayerAdditive {
		res = 0
		if !ideal && conductance > 0 {
			res = 1 / conductance
		}
	}
	if res < 0 {
		res = 0
	}
	if capacitance < 0 {
		capacitance = 0
	}
	return res, capacitance, missing
}
