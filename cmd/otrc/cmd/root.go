package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	quiet   bool

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "otrc",
	Short: "OpenTraceRC - parasitic RC extraction",
	Long: `OpenTraceRC (otrc) estimates wire resistance and capacitance of a
hierarchical layout and writes the result as SPICE, JSON or a text report.

Designs are read from the s-expression design format or from KiCad boards
(.kicad_pcb). Layer electrical data comes from a TOML technology file.

Examples:
  otrc extract chip.design --tech tech.toml --top core
  otrc extract board.kicad_pcb --tech pcb.toml --format spice -o board.sp
  otrc nets chip.design --cell core
  otrc tech tech.toml`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		switch {
		case verbose:
			level = slog.LevelDebug
		case quiet:
			level = slog.LevelWarn
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "otrc:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only report warnings and errors")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}
