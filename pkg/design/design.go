// Package design is the in-memory circuit database the extractor reads:
// cells made of devices and wires, terminals on devices, exports on cell
// boundaries and the native nets computed from wire connectivity.
package design

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoCell is returned when a cell name cannot be resolved.
var ErrNoCell = errors.New("design: no such cell")

// View says how a cell was drawn.
type View int

const (
	ViewLayout View = iota
	ViewSchematic
)

func (v View) String() string {
	if v == ViewSchematic {
		return "schematic"
	}
	return "layout"
}

// DeviceKind classifies a device instance.
type DeviceKind int

const (
	KindPrimitive DeviceKind = iota
	KindTransistor
	KindPin
	KindPower
	KindGround
	KindInstance
)

var kindNames = map[DeviceKind]string{
	KindPrimitive:  "primitive",
	KindTransistor: "transistor",
	KindPin:        "pin",
	KindPower:      "power",
	KindGround:     "ground",
	KindInstance:   "instance",
}

func (k DeviceKind) String() string {
	return kindNames[k]
}

// ParseKind converts a device kind name to a DeviceKind.
func ParseKind(s string) (DeviceKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindPrimitive, errors.Errorf("unknown device kind %q", s)
}

// WireFunction says whether a wire carries current.
type WireFunction int

const (
	WireElectrical WireFunction = iota
	WireNonElectrical
)

// Characteristic is the electrical role of an export.
type Characteristic int

const (
	CharSignal Characteristic = iota
	CharInput
	CharOutput
	CharBidir
	CharPower
	CharGround
)

var charNames = map[Characteristic]string{
	CharSignal: "signal",
	CharInput:  "input",
	CharOutput: "output",
	CharBidir:  "bidir",
	CharPower:  "power",
	CharGround: "ground",
}

func (c Characteristic) String() string {
	return charNames[c]
}

// IsSupply reports whether c is power or ground.
func (c Characteristic) IsSupply() bool {
	return c == CharPower || c == CharGround
}

// ParseCharacteristic converts a characteristic name to a Characteristic.
func ParseCharacteristic(s string) (Characteristic, error) {
	for c, name := range charNames {
		if name == s {
			return c, nil
		}
	}
	return CharSignal, errors.Errorf("unknown characteristic %q", s)
}

// Gate port names of a layout transistor: the main gate and the alternate
// gate on the opposite end of the poly.
const (
	PortGate    = "g"
	PortGateAlt = "g2"
)

// Terminal is a connection point on a device. Index is dense within the cell
// that owns the device.
type Terminal struct {
	Index  int
	Device *Device
	Port   string
}

func (t *Terminal) String() string {
	return t.Device.Name + "." + t.Port
}

// Device is a primitive or a sub-cell instance placed in a cell.
type Device struct {
	Name     string
	Kind     DeviceKind
	Function string
	Proto    *Cell // sub-cell, for KindInstance
	Parent   *Cell

	ports  []*Terminal
	byPort map[string]*Terminal
}

// Port returns the terminal for a port name, or nil.
func (d *Device) Port(name string) *Terminal {
	return d.byPort[name]
}

// Ports returns the device terminals in declaration order.
func (d *Device) Ports() []*Terminal {
	return d.ports
}

// IsInstance reports whether the device instantiates a sub-cell.
func (d *Device) IsInstance() bool {
	return d.Kind == KindInstance && d.Proto != nil
}

// GatePorts returns the main and alternate gate terminals of a transistor.
// Either may be nil.
func (d *Device) GatePorts() (main, alt *Terminal) {
	if d.Kind != KindTransistor {
		return nil, nil
	}
	return d.byPort[PortGate], d.byPort[PortGateAlt]
}

// Wire connects two terminals in the same cell. Length and Width are in
// design units.
type Wire struct {
	Name       string
	Head, Tail *Terminal
	Length     float64
	Width      float64
	Layers     []string
	Function   WireFunction
	Technology string // optional, overrides the cell's technology for layers
	NetName    string // optional native net name hint
}

// Export makes a terminal visible on the cell boundary.
type Export struct {
	Name           string
	Terminal       *Terminal
	Characteristic Characteristic
}

// Cell is a reusable circuit definition.
type Cell struct {
	Name       string
	View       View
	Technology string
	Library    *Library

	Devices   []*Device
	Wires     []*Wire
	Exports   []*Export
	Terminals []*Terminal

	supplies  map[string]Characteristic
	devByName map[string]*Device
	expByName map[string]*Export
	netlist   *Netlist
}

func newCell(lib *Library, name string) *Cell {
	return &Cell{
		Name:      name,
		Library:   lib,
		supplies:  make(map[string]Characteristic),
		devByName: make(map[string]*Device),
		expByName: make(map[string]*Export),
	}
}

// Device looks up a device by name.
func (c *Cell) Device(name string) *Device {
	return c.devByName[name]
}

// Export looks up an export by name.
func (c *Cell) Export(name string) *Export {
	return c.expByName[name]
}

// AddDevice places a primitive device with the given ports.
func (c *Cell) AddDevice(name string, kind DeviceKind, function string, ports ...string) (*Device, error) {
	if kind == KindInstance {
		return nil, errors.Errorf("cell %q: use Instantiate for instance %q", c.Name, name)
	}
	return c.addDevice(name, kind, function, nil, ports)
}

// Instantiate places an instance of proto. The instance gets one terminal per
// export of proto, named after the export.
func (c *Cell) Instantiate(name string, proto *Cell) (*Device, error) {
	if proto == nil {
		return nil, errors.Errorf("cell %q: instance %q of nil cell", c.Name, name)
	}
	if proto == c {
		return nil, errors.Errorf("cell %q: instance %q of itself", c.Name, name)
	}
	ports := make([]string, len(proto.Exports))
	for i, e := range proto.Exports {
		ports[i] = e.Name
	}
	return c.addDevice(name, KindInstance, proto.Name, proto, ports)
}

func (c *Cell) addDevice(name string, kind DeviceKind, function string, proto *Cell, ports []string) (*Device, error) {
	if name == "" {
		return nil, errors.Errorf("cell %q: device without a name", c.Name)
	}
	if _, dup := c.devByName[name]; dup {
		return nil, errors.Errorf("cell %q: duplicate device %q", c.Name, name)
	}
	d := &Device{
		Name:     name,
		Kind:     kind,
		Function: function,
		Proto:    proto,
		Parent:   c,
		byPort:   make(map[string]*Terminal, len(ports)),
	}
	for _, p := range ports {
		if _, dup := d.byPort[p]; dup {
			return nil, errors.Errorf("cell %q: device %q: duplicate port %q", c.Name, name, p)
		}
		t := &Terminal{Index: len(c.Terminals), Device: d, Port: p}
		c.Terminals = append(c.Terminals, t)
		d.ports = append(d.ports, t)
		d.byPort[p] = t
	}
	c.Devices = append(c.Devices, d)
	c.devByName[name] = d
	c.netlist = nil
	return d, nil
}

// Terminal resolves device.port within the cell.
func (c *Cell) Terminal(device, port string) (*Terminal, error) {
	d := c.devByName[device]
	if d == nil {
		return nil, errors.Errorf("cell %q: unknown device %q", c.Name, device)
	}
	t := d.Port(port)
	if t == nil {
		return nil, errors.Errorf("cell %q: device %q has no port %q", c.Name, device, port)
	}
	return t, nil
}

// AddWire connects two terminals of this cell.
func (c *Cell) AddWire(w *Wire) error {
	if w.Head == nil || w.Tail == nil {
		return errors.Errorf("cell %q: wire %q needs two terminals", c.Name, w.Name)
	}
	if w.Head.Device.Parent != c || w.Tail.Device.Parent != c {
		return errors.Errorf("cell %q: wire %q connects terminals of another cell", c.Name, w.Name)
	}
	if w.Length < 0 || w.Width < 0 {
		return errors.Errorf("cell %q: wire %q has negative geometry", c.Name, w.Name)
	}
	if w.Name == "" {
		w.Name = fmt.Sprintf("wire-%d", len(c.Wires))
	}
	c.Wires = append(c.Wires, w)
	c.netlist = nil
	return nil
}

// AddExport exports a terminal under name.
func (c *Cell) AddExport(name string, t *Terminal, char Characteristic) (*Export, error) {
	if name == "" {
		return nil, errors.Errorf("cell %q: export without a name", c.Name)
	}
	if _, dup := c.expByName[name]; dup {
		return nil, errors.Errorf("cell %q: duplicate export %q", c.Name, name)
	}
	if t == nil || t.Device.Parent != c {
		return nil, errors.Errorf("cell %q: export %q of a foreign terminal", c.Name, name)
	}
	e := &Export{Name: name, Terminal: t, Characteristic: char}
	c.Exports = append(c.Exports, e)
	c.expByName[name] = e
	c.netlist = nil
	return e, nil
}

// AddSupply declares that the net named net is a power or ground net.
func (c *Cell) AddSupply(net string, char Characteristic) error {
	if !char.IsSupply() {
		return errors.Errorf("cell %q: supply %q must be power or ground", c.Name, net)
	}
	c.supplies[net] = char
	c.netlist = nil
	return nil
}

// Library is a named collection of cells.
type Library struct {
	Name       string
	Technology string // default technology for cells that name none

	cells  []*Cell
	byName map[string]*Cell
}

// NewLibrary creates an empty library.
func NewLibrary(name, technology string) *Library {
	return &Library{
		Name:       name,
		Technology: technology,
		byName:     make(map[string]*Cell),
	}
}

// NewCell adds an empty layout cell.
func (l *Library) NewCell(name string) (*Cell, error) {
	if name == "" {
		return nil, errors.New("design: cell without a name")
	}
	if _, dup := l.byName[name]; dup {
		return nil, errors.Errorf("design: duplicate cell %q", name)
	}
	c := newCell(l, name)
	l.cells = append(l.cells, c)
	l.byName[name] = c
	return c, nil
}

// Cell looks up a cell by name.
func (l *Library) Cell(name string) (*Cell, error) {
	c, ok := l.byName[name]
	if !ok {
		return nil, errors.Wrapf(ErrNoCell, "%q", name)
	}
	return c, nil
}

// Cells returns the cells in declaration order.
func (l *Library) Cells() []*Cell {
	return l.cells
}

// TechnologyOf returns the technology name in effect for a cell.
func (l *Library) TechnologyOf(c *Cell) string {
	if c.Technology != "" {
		return c.Technology
	}
	return l.Technology
}
