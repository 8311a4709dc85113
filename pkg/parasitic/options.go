package parasitic

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/exempt"
)

// LayerModel selects how a wire crossing several layers is estimated.
type LayerModel int

const (
	// LayerAdditive sums capacitance over all layers and combines
	// resistance as parallel conductances.
	LayerAdditive LayerModel = iota

	// LayerLastWins keeps only the last qualifying layer's values.
	LayerLastWins
)

func (m LayerModel) String() string {
	if m == LayerLastWins {
		return "last"
	}
	return "additive"
}

// ParseLayerModel converts "additive" or "last" to a LayerModel.
func ParseLayerModel(s string) (LayerModel, error) {
	switch s {
	case "", "additive":
		return LayerAdditive, nil
	case "last", "last-wins":
		return LayerLastWins, nil
	}
	return LayerAdditive, errors.Errorf("unknown layer model %q", s)
}

// Options controls what the extractor computes.
type Options struct {
	// Which parasitics to estimate
	ExtractResistance  bool // default: true
	ExtractCapacitance bool // default: true

	// Exempted nets
	UseExemptedNets     bool          // consult Exempted (default: false)
	ExemptedInvertSense bool          // true: extract only the listed nets
	Exempted            *exempt.Table // may be nil when UseExemptedNets is false

	LayerModel LayerModel

	// Logger receives advisory messages. nil means slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns Options that extract both resistance and
// capacitance for every net.
func DefaultOptions() *Options {
	return &Options{
		ExtractResistance:  true,
		ExtractCapacitance: true,
		LayerModel:         LayerAdditive,
	}
}

// Validate checks the options and fills in defaults.
func (o *Options) Validate() error {
	if o.LayerModel != LayerAdditive && o.LayerModel != LayerLastWins {
		return errors.Errorf("parasitic: invalid layer model %d", o.LayerModel)
	}
	if o.UseExemptedNets && o.Exempted == nil {
		o.Exempted = exempt.NewTable()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return nil
}
