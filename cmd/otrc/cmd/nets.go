package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/kicad"
)

var netsCell string

var netsCmd = &cobra.Command{
	Use:   "nets <design_file> [net_name]",
	Short: "Show native nets",
	Long: `Display the nets computed from wire connectivity, before extraction.

Without net_name: Lists the nets of every layout cell with terminal, export
and wire counts
With net_name: Shows the terminals and exports of that net`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runNets,
}

func init() {
	rootCmd.AddCommand(netsCmd)
	netsCmd.Flags().StringVar(&netsCell, "cell", "", "only this cell")
}

func runNets(cmd *cobra.Command, args []string) error {
	var lib *design.Library
	if strings.HasSuffix(args[0], ".kicad_pcb") {
		board, err := kicad.ParseFile(args[0])
		if err != nil {
			return err
		}
		if lib, err = kicad.Import(board, kicad.ImportOptions{Supply: kicad.DefaultSupply, Logger: logger}); err != nil {
			return err
		}
	} else {
		var err error
		if lib, err = design.LoadFile(args[0]); err != nil {
			return err
		}
	}

	cells := lib.Cells()
	if netsCell != "" {
		c, err := lib.Cell(netsCell)
		if err != nil {
			return err
		}
		cells = []*design.Cell{c}
	}

	if len(args) == 2 {
		for _, c := range cells {
			if n := c.Netlist().Net(args[1]); n != nil {
				showNet(c, n)
				return nil
			}
		}
		return errors.Errorf("net '%s' not found", args[1])
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CELL\tNET\tSUPPLY\tTERMINALS\tEXPORTS\tWIRES")
	for _, c := range cells {
		if c.View == design.ViewSchematic {
			continue
		}
		nl := c.Netlist()
		wires := make(map[*design.Net]int)
		for _, w := range c.Wires {
			wires[nl.NetOf(w.Head)]++
		}
		for _, n := range nl.Nets {
			if n.IsUnconnected() {
				continue
			}
			supply := "-"
			if n.IsPowerGround() {
				supply = n.Supply.String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n", c.Name, n.Name, supply, len(n.Terminals), len(n.Exports), wires[n])
		}
	}
	return tw.Flush()
}

func showNet(c *design.Cell, n *design.Net) {
	fmt.Printf("Net: %s in cell %s\n\n", n.Name, c.Name)
	if n.IsPowerGround() {
		fmt.Printf("Supply: %s\n\n", n.Supply)
	}

	fmt.Printf("Terminals (%d):\n", len(n.Terminals))
	for _, t := range n.Terminals {
		fmt.Printf("  %-20s %s\n", t, t.Device.Kind)
	}
	if len(n.Exports) > 0 {
		fmt.Printf("\nExports (%d):\n", len(n.Exports))
		for _, e := range n.Exports {
			fmt.Printf("  %-20s %s\n", e.Name, e.Characteristic)
		}
	}
}
