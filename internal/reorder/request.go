package reorder

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
)

// Op names a direct layout operation.
type Op string

const (
	OpColumns      Op = "columns"
	OpRows         Op = "rows"
	OpSections     Op = "sections"
	OpPair         Op = "pair"
	OpAddColumn    Op = "add-column"
	OpRemoveColumn Op = "remove-column"
)

// Request describes one direct layout operation. Columns and rows use
// From/To, sections use the A/B section names, pair uses Group and
// add-column uses Title.
type Request struct {
	Op    Op     `json:"kind"`
	From  int    `json:"from"`
	To    int    `json:"to"`
	A     string `json:"a"`
	B     string `json:"b"`
	Group string `json:"group"`
	Title string `json:"title"`
}

// Apply dispatches r to the matching swap. Unknown operations and unknown
// section or group names are ErrNotDraggable.
func (e *Engine) Apply(doc *html.Node, r Request) error {
	switch r.Op {
	case OpColumns:
		return e.SwapColumns(doc, r.From, r.To)
	case OpRows:
		return e.SwapRows(doc, r.From, r.To)
	case OpSections:
		a, okA := sections.ParseSection(r.A)
		b, okB := sections.ParseSection(r.B)
		if !okA || !okB {
			return fmt.Errorf("sections %q and %q: %w", r.A, r.B, ErrNotDraggable)
		}
		return e.SwapSections(doc, a, b)
	case OpPair:
		g, ok := sections.ParseGroup(r.Group)
		if !ok {
			return fmt.Errorf("group %q: %w", r.Group, ErrNotDraggable)
		}
		return e.SwapPair(doc, g)
	case OpAddColumn:
		return e.AddColumn(doc, r.Title)
	case OpRemoveColumn:
		return e.RemoveColumn(doc)
	}
	return fmt.Errorf("operation %q: %w", r.Op, ErrNotDraggable)
}
