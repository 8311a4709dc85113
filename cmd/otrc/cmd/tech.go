package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/tech"
)

var techCmd = &cobra.Command{
	Use:   "tech <tech_file>",
	Short: "Show technology layers",
	Long:  `Loads a technology file and lists its thresholds and layer electrical data.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTech,
}

func init() {
	rootCmd.AddCommand(techCmd)
}

func runTech(cmd *cobra.Command, args []string) error {
	reg, err := tech.LoadFile(args[0])
	if err != nil {
		return err
	}

	for _, name := range reg.Names() {
		t, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Printf("Technology: %s (scale %g)\n", t.Name, t.Scale)
		fmt.Printf("  Min resistance: %g Ω\n", t.MinResistance)
		fmt.Printf("  Min capacitance: %g fF\n", t.MinCapacitance)
		if t.MaxSeriesResistance > 0 {
			fmt.Printf("  Max series resistance: %g Ω\n", t.MaxSeriesResistance)
		}
		fmt.Println()

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  LAYER\tFUNCTION\tΩ/□\tfF/µm²\tfF/µm")
		for _, l := range t.Layers() {
			fmt.Fprintf(tw, "  %s\t%s\t%g\t%g\t%g\n", l.Name, l.Function, l.SheetResistance, l.AreaCap, l.FringeCap)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}
