package tech

import (
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// file mirrors the TOML layout of a technology file:
//
//	[[technology]]
//	name = "cmos90"
//	scale = 0.045
//	min_resistance = 1.0
//	[[technology.layer]]
//	name = "metal1"
//	function = "metal"
//	sheet_resistance = 0.08
type file struct {
	Technology []techEntry `toml:"technology"`
}

type techEntry struct {
	Name                string       `toml:"name"`
	Scale               float64      `toml:"scale"`
	MinResistance       float64      `toml:"min_resistance"`
	MinCapacitance      float64      `toml:"min_capacitance"`
	MaxSeriesResistance float64      `toml:"max_series_resistance"`
	Layer               []layerEntry `toml:"layer"`
}

type layerEntry struct {
	Name            string  `toml:"name"`
	Function        string  `toml:"function"`
	SheetResistance float64 `toml:"sheet_resistance"`
	AreaCap         float64 `toml:"area_cap"`
	FringeCap       float64 `toml:"fringe_cap"`
}

// LoadFile reads a technology file from disk.
func LoadFile(filename string) (*Registry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "tech: failed to open file")
	}
	defer f.Close()

	return Load(f)
}

// Load decodes a technology file and builds a registry from it.
func Load(r io.Reader) (*Registry, error) {
	var doc file
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, errors.Wrap(err, "tech: failed to decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Errorf("tech: unknown keys: %s", strings.Join(keys, ", "))
	}
	if len(doc.Technology) == 0 {
		return nil, errors.New("tech: no [[technology]] defined")
	}

	reg := &Registry{techs: make(map[string]*Technology)}
	for _, entry := range doc.Technology {
		t := New(entry.Name, entry.Scale)
		t.MinResistance = entry.MinResistance
		t.MinCapacitance = entry.MinCapacitance
		t.MaxSeriesResistance = entry.MaxSeriesResistance

		for _, le := range entry.Layer {
			fn, err := ParseFunction(le.Function)
			if err != nil {
				return nil, errors.Wrapf(err, "tech %q: layer %q", entry.Name, le.Name)
			}
			err = t.AddLayer(Layer{
				Name:            le.Name,
				Function:        fn,
				SheetResistance: le.SheetResistance,
				AreaCap:         le.AreaCap,
				FringeCap:       le.FringeCap,
			})
			if err != nil {
				return nil, err
			}
		}

		if err := reg.Add(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
