package design

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceRC/pkg/sexp"
)

// LoadFile reads a design file from disk.
func LoadFile(filename string) (*Library, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "design: failed to open file")
	}
	defer f.Close()

	return Load(f)
}

// Load parses a design description:
//
//	(design "name" (technology "cmos90")
//	  (cell "inv" (view layout)
//	    (device "mn" (kind transistor) (function nmos) (ports "g" "g2" "s" "d"))
//	    (export "a" (terminal "mn" "g") (characteristic input))
//	    (wire "w1" (from "mn" "d") (to "mp" "d") (length 10) (width 2) (layers "metal1")))
//	  (cell "top" (instance "x1" (of "inv"))))
//
// Cells may be declared in any order; instantiated cells are built first.
func Load(r io.Reader) (*Library, error) {
	exprs, err := sexp.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "design: failed to parse")
	}
	if len(exprs) == 0 {
		return nil, errors.New("design: empty file")
	}
	root := exprs[0]
	if sexp.Keyword(root) != "design" {
		return nil, errors.Errorf("design: expected (design ...), got %q", sexp.Keyword(root))
	}
	rootList := root.(*sexp.List)
	name, _ := sexp.StringAt(rootList, 1)

	l := &loader{
		lib:   NewLibrary(name, sexp.Value(root, "technology", "")),
		nodes: make(map[string]*sexp.List),
		state: make(map[string]int),
	}

	cellNodes := sexp.FindAll(root, "cell")
	for _, node := range cellNodes {
		cellName, err := sexp.StringAt(node, 1)
		if err != nil {
			return nil, errors.Wrap(err, "design: cell name")
		}
		if _, err := l.lib.NewCell(cellName); err != nil {
			return nil, errors.Wrapf(err, "line %d", node.Line)
		}
		l.nodes[cellName] = node
	}
	for _, node := range cellNodes {
		cellName, _ := sexp.StringAt(node, 1)
		if err := l.build(cellName); err != nil {
			return nil, err
		}
	}
	return l.lib, nil
}

type loader struct {
	lib   *Library
	nodes map[string]*sexp.List
	state map[string]int // 1 = building, 2 = built
}

func (l *loader) build(name string) error {
	switch l.state[name] {
	case 1:
		return errors.Errorf("design: cell %q instantiates itself", name)
	case 2:
		return nil
	}
	l.state[name] = 1

	node := l.nodes[name]
	c, _ := l.lib.Cell(name)
	if err := l.buildCell(c, node); err != nil {
		return errors.Wrapf(err, "design: cell %q", name)
	}
	l.state[name] = 2
	return nil
}

func (l *loader) buildCell(c *Cell, node *sexp.List) error {
	if sexp.Value(node, "view", "layout") == "schematic" {
		c.View = ViewSchematic
	}
	c.Technology = sexp.Value(node, "technology", "")

	for _, item := range node.Items()[2:] {
		child, ok := item.(*sexp.List)
		if !ok {
			continue
		}
		var err error
		switch sexp.Keyword(child) {
		case "device":
			err = l.device(c, child)
		case "instance":
			err = l.instance(c, child)
		case "power", "ground":
			err = l.supply(c, child)
		}
		if err != nil {
			return errors.Wrapf(err, "line %d", child.Line)
		}
	}

	// Exports and wires refer to devices, so they are resolved second
	for _, item := range node.Items()[2:] {
		child, ok := item.(*sexp.List)
		if !ok {
			continue
		}
		var err error
		switch sexp.Keyword(child) {
		case "export":
			err = l.export(c, child)
		case "wire":
			err = l.wire(c, child)
		}
		if err != nil {
			return errors.Wrapf(err, "line %d", child.Line)
		}
	}
	return nil
}

func (l *loader) device(c *Cell, node *sexp.List) error {
	name, err := sexp.StringAt(node, 1)
	if err != nil {
		return err
	}
	kind, err := ParseKind(sexp.Value(node, "kind", "primitive"))
	if err != nil {
		return err
	}
	if kind == KindInstance {
		return errors.Errorf("device %q: declare instances with (instance ...)", name)
	}
	var ports []string
	if portsNode, ok := sexp.Find(node, "ports"); ok {
		ports = sexp.Strings(portsNode)
	}
	_, err = c.AddDevice(name, kind, sexp.Value(node, "function", ""), ports...)
	return err
}

func (l *loader) instance(c *Cell, node *sexp.List) error {
	name, err := sexp.StringAt(node, 1)
	if err != nil {
		return err
	}
	of := sexp.Value(node, "of", "")
	if _, ok := l.nodes[of]; !ok {
		return errors.Wrapf(ErrNoCell, "instance %q of %q", name, of)
	}
	if err := l.build(of); err != nil {
		return err
	}
	proto, _ := l.lib.Cell(of)
	_, err = c.Instantiate(name, proto)
	return err
}

func (l *loader) supply(c *Cell, node *sexp.List) error {
	char := CharPower
	if sexp.Keyword(node) == "ground" {
		char = CharGround
	}
	for _, net := range sexp.Strings(node) {
		if err := c.AddSupply(net, char); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) export(c *Cell, node *sexp.List) error {
	name, err := sexp.StringAt(node, 1)
	if err != nil {
		return err
	}
	t, err := terminalRef(c, node, "terminal")
	if err != nil {
		return errors.Wrapf(err, "export %q", name)
	}
	char, err := ParseCharacteristic(sexp.Value(node, "characteristic", "signal"))
	if err != nil {
		return errors.Wrapf(err, "export %q", name)
	}
	_, err = c.AddExport(name, t, char)
	return err
}

func (l *loader) wire(c *Cell, node *sexp.List) error {
	name, err := sexp.StringAt(node, 1)
	if err != nil {
		return err
	}
	w := &Wire{
		Name:       name,
		Technology: sexp.Value(node, "technology", ""),
		NetName:    sexp.Value(node, "net", ""),
	}
	if w.Head, err = terminalRef(c, node, "from"); err != nil {
		return errors.Wrapf(err, "wire %q", name)
	}
	if w.Tail, err = terminalRef(c, node, "to"); err != nil {
		return errors.Wrapf(err, "wire %q", name)
	}
	if n, ok := sexp.Find(node, "length"); ok {
		if w.Length, err = sexp.FloatAt(n, 1); err != nil {
			return errors.Wrapf(err, "wire %q", name)
		}
	}
	if n, ok := sexp.Find(node, "width"); ok {
		if w.Width, err = sexp.FloatAt(n, 1); err != nil {
			return errors.Wrapf(err, "wire %q", name)
		}
	}
	if n, ok := sexp.Find(node, "layers"); ok {
		w.Layers = sexp.Strings(n)
	}
	switch fn := sexp.Value(node, "function", "electrical"); fn {
	case "electrical":
	case "nonelectrical":
		w.Function = WireNonElectrical
	default:
		return errors.Errorf("wire %q: unknown function %q", name, fn)
	}
	return c.AddWire(w)
}

// terminalRef resolves (key "device" "port").
func terminalRef(c *Cell, node *sexp.List, key string) (*Terminal, error) {
	ref, ok := sexp.Find(node, key)
	if !ok {
		return nil, errors.Errorf("missing (%s device port)", key)
	}
	dev, err := sexp.StringAt(ref, 1)
	if err != nil {
		return nil, err
	}
	port, err := sexp.StringAt(ref, 2)
	if err != nil {
		return nil, err
	}
	return c.Terminal(dev, port)
}
