// Package report summarizes an extraction run per cell: segments with their
// capacitance, resistors, shorted exports and totals. It renders as JSON or
// as a plain-text table.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/parasitic"
)

// Report is the result of one extraction run.
type Report struct {
	Design      string  `json:"design"`
	Top         string  `json:"top,omitempty"`
	Cells       []*Cell `json:"cells"`
	Totals      Totals  `json:"totals"`
	GeneratedBy string  `json:"generated_by"`
}

// Cell is the extraction result of one cell.
type Cell struct {
	Name       string `json:"name"`
	Technology string `json:"technology,omitempty"`
	Extracted  bool   `json:"extracted"`

	Stats          parasitic.Stats `json:"stats"`
	ExtractedNets  []string        `json:"extracted_nets,omitempty"`
	Segments       []Segment       `json:"segments,omitempty"`
	Resistors      []Resistor      `json:"resistors,omitempty"`
	ShortedExports [][]string      `json:"shorted_exports,omitempty"`

	Resistance  float64 `json:"resistance"`  // Ω, sum over resistors
	Capacitance float64 `json:"capacitance"` // fF, sum over segments and pi nodes
}

// Segment is one named group of terminals.
type Segment struct {
	Name         string  `json:"name"`
	Net          string  `json:"net"`
	Terminals    int     `json:"terminals"`
	Capacitance  float64 `json:"capacitance"`
	BelowMinimum bool    `json:"below_minimum,omitempty"`
}

// Resistor is one wire modeled as a resistor chain.
type Resistor struct {
	Wire        string  `json:"wire"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Resistance  float64 `json:"resistance"`
	Sections    int     `json:"sections"`
	Capacitance float64 `json:"capacitance,omitempty"` // on internal pi nodes
}

// Totals aggregates every extracted cell.
type Totals struct {
	Cells          int     `json:"cells"`
	Resistors      int     `json:"resistors"`
	Resistance     float64 `json:"resistance"`
	Capacitance    float64 `json:"capacitance"`
	MaxResistance  float64 `json:"max_resistance"`
	MaxCapacitance float64 `json:"max_capacitance"` // largest single segment
}

// Build collects the results of x for top and the cells below it.
func Build(x *parasitic.Extractor, lib *design.Library, top string) (*Report, error) {
	cells, err := lib.BottomUp(top)
	if err != nil {
		return nil, errors.Wrap(err, "report")
	}
	r := &Report{
		Design:      lib.Name,
		Top:         top,
		GeneratedBy: "otrc parasitic extraction",
	}

	var allRes, allSegCaps []float64
	for _, c := range cells {
		rc := &Cell{Name: c.Name}
		r.Cells = append(r.Cells, rc)

		sn, ok := x.SegmentedNets(c)
		if !ok {
			continue
		}
		rc.Extracted = true
		rc.Stats, _ = x.Stats(c)
		minCap := 0.0
		if t, ok := x.Technology(c); ok {
			rc.Technology = t.Name
			minCap = t.MinCapacitance
		}

		for _, n := range sn.ExtractedNets() {
			rc.ExtractedNets = append(rc.ExtractedNets, n.Name)
		}

		var caps, res []float64
		for _, s := range sn.Segments() {
			seg := Segment{
				Name:         s.Name,
				Terminals:    len(s.Terminals),
				Capacitance:  s.Capacitance,
				BelowMinimum: s.Capacitance > 0 && s.Capacitance < minCap,
			}
			if s.Net != nil {
				seg.Net = s.Net.Name
			}
			rc.Segments = append(rc.Segments, seg)
			caps = append(caps, s.Capacitance)
		}
		allSegCaps = append(allSegCaps, caps...)

		for _, e := range sn.Resistors() {
			rc.Resistors = append(rc.Resistors, Resistor{
				Wire:        e.Wire.Name,
				From:        sn.NetName(e.Wire.Head),
				To:          sn.NetName(e.Wire.Tail),
				Resistance:  e.Resistance,
				Sections:    e.Sections,
				Capacitance: e.Capacitance,
			})
			res = append(res, e.Resistance)
			caps = append(caps, e.Capacitance)
		}
		rc.ShortedExports = sn.ShortedExports()

		rc.Resistance = floats.Sum(res)
		rc.Capacitance = floats.Sum(caps)
		allRes = append(allRes, res...)

		r.Totals.Cells++
		r.Totals.Resistors += len(res)
		r.Totals.Resistance += rc.Resistance
		r.Totals.Capacitance += rc.Capacitance
	}
	if len(allRes) > 0 {
		r.Totals.MaxResistance = floats.Max(allRes)
	}
	if len(allSegCaps) > 0 {
		r.Totals.MaxCapacitance = floats.Max(allSegCaps)
	}
	return r, nil
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteText writes a human-readable summary: one table of cells, then the
// segments and resistors of every extracted cell.
func (r *Report) WriteText(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Design %s", r.Design)
	if r.Top != "" {
		fmt.Fprintf(tw, " (top %s)", r.Top)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CELL\tTECH\tWIRES\tRESISTORS\tSHORTED\tR (Ω)\tC (fF)")
	for _, c := range r.Cells {
		if !c.Extracted {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\n", c.Name)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.4g\t%.4g\n",
			c.Name, c.Technology, c.Stats.Wires, c.Stats.Resistors, c.Stats.Shorted,
			c.Resistance, c.Capacitance)
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%d\t\t%.4g\t%.4g\n",
		r.Totals.Resistors, r.Totals.Resistance, r.Totals.Capacitance)

	for _, c := range r.Cells {
		if !c.Extracted || (len(c.Resistors) == 0 && len(c.ExtractedNets) == 0) {
			continue
		}
		fmt.Fprintf(tw, "\n%s\n", c.Name)
		for _, s := range c.Segments {
			mark := ""
			if s.BelowMinimum {
				mark = "below minimum"
			}
			fmt.Fprintf(tw, "  segment\t%s\t%s\t%.4g fF\t%s\n", s.Name, s.Net, s.Capacitance, mark)
		}
		for _, e := range c.Resistors {
			fmt.Fprintf(tw, "  resistor\t%s\t%s - %s\t%.4g Ω\tx%d\n", e.Wire, e.From, e.To, e.Resistance, e.Sections)
		}
		for _, g := range c.ShortedExports {
			fmt.Fprintf(tw, "  shorted\t%v\n", g)
		}
	}
	return errors.Wrap(tw.Flush(), "report")
}
