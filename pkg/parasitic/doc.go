// Package parasitic extracts a lumped RC network from the wires of a
// hierarchical design.
//
// # Overview
//
// Cells are processed bottom-up. For each cell:
//  1. Every wire goes through the extraction gate (power/ground, wire
//     function and the exempted-nets table) and, when it qualifies, through
//     the estimator, which turns its geometry into a resistance and a
//     capacitance.
//  2. A wire at or below the technology's minimum resistance shorts its two
//     terminals into one segment; any other wire becomes a resistor, split
//     into a pi-model chain when it exceeds the maximum series resistance.
//  3. Transistor gate ends are shorted together and the shorted-export
//     groups of every instantiated sub-cell are replayed onto the instance
//     terminals.
//  4. The per-cell result is finalized and cached for the parents.
//
// # Usage
//
//	techs, err := tech.LoadFile("cmos90.toml")
//	lib, err := design.LoadFile("chip.design")
//
//	opts := parasitic.DefaultOptions()
//	x, err := parasitic.NewExtractor(techs, opts)
//	if err := x.Run(lib, "top"); err != nil {
//		return err // only a missing technology is fatal
//	}
//
//	sn, ok := x.SegmentedNets(topCell)
//
// A result is absent for cells that were not extracted (schematic views);
// parents skip composition for those instances.
package parasitic
