package parasitic

import (
	"github.com/OpenTraceLab/OpenTraceRC/pkg/design"
	"github.com/OpenTraceLab/OpenTraceRC/pkg/segment"
)

// Segmenter is the per-cell segmentation state the extractor writes into
// while a cell is being processed.
type Segmenter interface {
	PutSegment(t *design.Terminal, capacitance float64)
	ShortSegments(a, b *design.Terminal)
	AddArcRes(w *design.Wire, resistance float64) error
	AddArcCap(w *design.Wire, capacitance float64, piSegments int) error
	AddExtractedNet(net *design.Net)
	IsExtractedNet(net *design.Net) bool
	IsPowerGround(t *design.Terminal) bool
	NetName(t *design.Terminal) string
}

// Result is a finalized per-cell segmentation as seen by a parent.
type Result interface {
	NetName(t *design.Terminal) string
	ShortedExports() [][]string
}

var (
	_ Segmenter = (*segment.Nets)(nil)
	_ Result    = (*segment.Nets)(nil)
)
