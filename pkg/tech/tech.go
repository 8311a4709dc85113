// Package tech holds the electrical model of a process technology: per-layer
// sheet resistance and capacitance coefficients, plus the thresholds that
// decide when a wire is modeled as a resistor.
package tech

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoTechnology is returned when a technology's electrical model cannot be
// found. Extraction cannot proceed without it.
var ErrNoTechnology = errors.New("tech: no electrical model for technology")

// Function classifies what a layer is made of.
type Function int

const (
	FunctionOther Function = iota
	FunctionMetal
	FunctionPoly
	FunctionDiffusion
	FunctionVia
)

var functionNames = map[Function]string{
	FunctionOther:     "other",
	FunctionMetal:     "metal",
	FunctionPoly:      "poly",
	FunctionDiffusion: "diffusion",
	FunctionVia:       "via",
}

func (f Function) String() string {
	if s, ok := functionNames[f]; ok {
		return s
	}
	return "unknown"
}

// ParseFunction converts a layer function name ("metal", "poly", ...) to a Function.
func ParseFunction(s string) (Function, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FunctionOther, nil
	}
	for f, name := range functionNames {
		if name == s {
			return f, nil
		}
	}
	return FunctionOther, errors.Errorf("unknown layer function %q", s)
}

// Layer is the electrical model of one technology layer.
type Layer struct {
	Name            string
	Function        Function
	SheetResistance float64 // Ω per square
	AreaCap         float64 // fF per µm²
	FringeCap       float64 // fF per µm of edge
}

// IsDiffusion reports whether the layer is an active/diffusion layer.
func (l *Layer) IsDiffusion() bool {
	return l.Function == FunctionDiffusion
}

// Technology is the electrical model of one process.
type Technology struct {
	Name string

	// Scale converts design units to microns.
	Scale float64

	MinResistance       float64 // Ω; wires at or below are shorted
	MinCapacitance      float64 // fF; smaller segment caps are not emitted
	MaxSeriesResistance float64 // Ω; longest resistor before pi-splitting

	layers []*Layer
	byName map[string]*Layer
}

// New creates an empty technology with the given name and scale.
func New(name string, scale float64) *Technology {
	return &Technology{
		Name:   name,
		Scale:  scale,
		byName: make(map[string]*Layer),
	}
}

// AddLayer registers a layer. Names must be unique within the technology.
func (t *Technology) AddLayer(l Layer) error {
	if l.Name == "" {
		return errors.Errorf("tech %q: layer without a name", t.Name)
	}
	if _, dup := t.byName[l.Name]; dup {
		return errors.Errorf("tech %q: duplicate layer %q", t.Name, l.Name)
	}
	if l.SheetResistance < 0 || l.AreaCap < 0 || l.FringeCap < 0 {
		return errors.Errorf("tech %q: layer %q has a negative coefficient", t.Name, l.Name)
	}
	layer := l
	t.layers = append(t.layers, &layer)
	t.byName[l.Name] = &layer
	return nil
}

// Layer looks up a layer by name.
func (t *Technology) Layer(name string) (*Layer, bool) {
	l, ok := t.byName[name]
	return l, ok
}

// Layers returns the layers in declaration order.
func (t *Technology) Layers() []*Layer {
	return t.layers
}

// Validate checks the technology thresholds.
func (t *Technology) Validate() error {
	if t.Name == "" {
		return errors.New("tech: technology without a name")
	}
	if t.Scale <= 0 {
		return errors.Errorf("tech %q: scale must be positive, got %g", t.Name, t.Scale)
	}
	if t.MinResistance < 0 || t.MinCapacitance < 0 || t.MaxSeriesResistance < 0 {
		return errors.Errorf("tech %q: thresholds must not be negative", t.Name)
	}
	return nil
}

// Registry maps technology names to their electrical models.
type Registry struct {
	techs map[string]*Technology
}

// NewRegistry creates a registry from a list of technologies.
func NewRegistry(techs ...*Technology) (*Registry, error) {
	r := &Registry{techs: make(map[string]*Technology)}
	for _, t := range techs {
		if err := r.Add(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers a technology.
func (r *Registry) Add(t *Technology) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, dup := r.techs[t.Name]; dup {
		return errors.Errorf("tech: duplicate technology %q", t.Name)
	}
	r.techs[t.Name] = t
	return nil
}

// Lookup returns the named technology, or ErrNoTechnology.
func (r *Registry) Lookup(name string) (*Technology, error) {
	if r != nil {
		if t, ok := r.techs[name]; ok {
			return t, nil
		}
	}
	return nil, errors.Wrapf(ErrNoTechnology, "%q", name)
}

// Names returns the registered technology names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.techs))
	for name := range r.techs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
