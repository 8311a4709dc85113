package cmd

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/exempt"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/kicad"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/parasitic"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/report"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/spice"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/tech"
)

var extractFlags struct {
	techFile     string
	technology   string
	top          string
	exemptFile   string
	exemptInvert bool
	noResistance bool
	noCap        bool
	layerModel   string
	supply       string
	format       string
	output       string
}

var extractCmd = &cobra.Command{
	Use:   "extract <design_file>",
	Short: "Extract parasitic resistance and capacitance",
	Long: `Runs parasitic extraction over a design, children before parents.

Design files ending in .kicad_pcb are imported as a single board cell whose
tracks become wires; everything else is read as an s-expression design.

Output formats:
  text   per-cell summary table (default)
  json   full report
  spice  subcircuit netlist with R and C cards`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	f := extractCmd.Flags()
	f.StringVarP(&extractFlags.techFile, "tech", "t", "", "technology file (TOML)")
	f.StringVar(&extractFlags.technology, "technology", "", "technology of an imported board (default: the only one in --tech)")
	f.StringVar(&extractFlags.top, "top", "", "top cell (default: every cell)")
	f.StringVar(&extractFlags.exemptFile, "exempt", "", "exempted nets file")
	f.BoolVar(&extractFlags.exemptInvert, "exempt-invert", false, "extract only the nets listed in --exempt")
	f.BoolVar(&extractFlags.noResistance, "no-resistance", false, "do not extract resistance")
	f.BoolVar(&extractFlags.noCap, "no-capacitance", false, "do not extract capacitance")
	f.StringVar(&extractFlags.layerModel, "layer-model", parasitic.LayerAdditive.String(), "how multi-layer wires combine: additive or last")
	f.StringVar(&extractFlags.supply, "supply", kicad.DefaultSupply.String(), "regexp of board nets treated as power or ground")
	f.StringVarP(&extractFlags.format, "format", "f", "text", "output format: text, json or spice")
	f.StringVarP(&extractFlags.output, "output", "o", "", "output file (default: stdout)")
	extractCmd.MarkFlagRequired("tech")
}

// createOutput opens the -o file.
var createOutput = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

func runExtract(cmd *cobra.Command, args []string) (err error) {
	reg, err := tech.LoadFile(extractFlags.techFile)
	if err != nil {
		return err
	}

	opts := parasitic.DefaultOptions()
	opts.Logger = logger
	opts.ExtractResistance = !extractFlags.noResistance
	opts.ExtractCapacitance = !extractFlags.noCap
	if opts.LayerModel, err = parasitic.ParseLayerModel(extractFlags.layerModel); err != nil {
		return err
	}
	if extractFlags.exemptFile != "" {
		if opts.Exempted, err = exempt.LoadFile(extractFlags.exemptFile); err != nil {
			return err
		}
		opts.UseExemptedNets = true
		opts.ExemptedInvertSense = extractFlags.exemptInvert
	} else if extractFlags.exemptInvert {
		return errors.New("--exempt-invert needs --exempt")
	}

	lib, top, err := loadDesign(args[0], reg)
	if err != nil {
		return err
	}

	x, err := parasitic.NewExtractor(reg, opts)
	if err != nil {
		return err
	}
	if err := x.Run(lib, top); err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if extractFlags.output != "" {
		file, err := createOutput(extractFlags.output)
		if err != nil {
			return errors.Wrap(err, "failed to create output")
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = errors.Wrap(cerr, "failed to write output")
			}
		}()
		out = file
	}

	switch extractFlags.format {
	case "spice":
		return spice.Write(out, x, lib, top)
	case "json", "text":
		r, err := report.Build(x, lib, top)
		if err != nil {
			return err
		}
		if extractFlags.format == "text" {
			return r.WriteText(out)
		}
		data, err := r.JSON()
		if err != nil {
			return errors.Wrap(err, "failed to encode report")
		}
		_, err = out.Write(append(data, '\n'))
		return err
	default:
		return errors.Errorf("unknown format %q", extractFlags.format)
	}
}

// loadDesign reads a design or imports a KiCad board. It returns the library
// and the top cell to extract.
func loadDesign(filename string, reg *tech.Registry) (*design.Library, string, error) {
	if !strings.HasSuffix(filename, ".kicad_pcb") {
		lib, err := design.LoadFile(filename)
		if err != nil {
			return nil, "", err
		}
		return lib, extractFlags.top, nil
	}

	technology := extractFlags.technology
	if technology == "" {
		names := reg.Names()
		if len(names) != 1 {
			return nil, "", errors.Errorf("%d technologies in %s: choose one with --technology", len(names), extractFlags.techFile)
		}
		technology = names[0]
	}
	var supply *regexp.Regexp
	if extractFlags.supply != "" {
		var err error
		if supply, err = regexp.Compile(extractFlags.supply); err != nil {
			return nil, "", errors.Wrap(err, "--supply")
		}
	}

	board, err := kicad.ParseFile(filename)
	if err != nil {
		return nil, "", err
	}
	name := strings.TrimSuffix(filepath.Base(filename), ".kicad_pcb")
	lib, err := kicad.Import(board, kicad.ImportOptions{
		Name:       name,
		Technology: technology,
		Supply:     supply,
		Logger:     logger,
	})
	if err != nil {
		return nil, "", err
	}
	return lib, name, nil
}
