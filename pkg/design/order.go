package design

import "github.com/pkg/errors"

// BottomUp returns the cells reachable from top with every sub-cell listed
// before any cell that instantiates it. Each cell appears once. An empty top
// walks every cell of the library in declaration order.
func (l *Library) BottomUp(top string) ([]*Cell, error) {
	roots := l.cells
	if top != "" {
		c, err := l.Cell(top)
		if err != nil {
			return nil, err
		}
		roots = []*Cell{c}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*Cell]int)
	var order []*Cell

	var visit func(c *Cell, path []string) error
	visit = func(c *Cell, path []string) error {
		switch state[c] {
		case done:
			return nil
		case visiting:
			return errors.Errorf("design: recursive instantiation %v -> %s", path, c.Name)
		}
		state[c] = visiting
		for _, d := range c.Devices {
			if !d.IsInstance() {
				continue
			}
			if err := visit(d.Proto, append(path, c.Name)); err != nil {
				return err
			}
		}
		state[c] = done
		order = append(order, c)
		return nil
	}

	for _, c := range roots {
		if err := visit(c, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}
