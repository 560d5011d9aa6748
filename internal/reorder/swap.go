package reorder

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
)

var (
	// ErrRowReorderDisabled is returned for row moves while the policy
	// keeps rows fixed.
	ErrRowReorderDisabled = errors.New("row reordering is disabled")

	// ErrNotDraggable is returned when an element does not belong to any
	// swappable set of the requested kind.
	ErrNotDraggable = errors.New("element is not draggable")

	// ErrIndexOutOfRange is returned by the direct swap operations.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrColumnLimit is returned when removing a column would leave fewer
	// than two, or would remove the drag handle.
	ErrColumnLimit = errors.New("column cannot be removed")
)

// DefaultColumnTitle is the header text of an added column.
const DefaultColumnTitle = "New Column"

// =============================================================================
// PAIR METADATA
// =============================================================================

// memberWidths are the widths each pair member keeps wherever it sits.
var memberWidths = map[string]string{
	sections.CompanyInfo:   "60%",
	sections.PurchaseOrder: "40%",
	sections.VendorBlock:   "50%",
	sections.ShipTo:        "50%",
	sections.CommentsBlock: "70%",
	sections.TotalsBlock:   "30%",
}

// slotPadding is the gutter between the two cells of a group. The left
// slot pads on its right side and the right slot on its left side.
var slotPadding = map[sections.Group]string{
	sections.HeaderGroup:   "20px",
	sections.VendorGroup:   "10px",
	sections.CommentsGroup: "15px",
}

// syncPair rewrites data-section, width and padding of every cell in the
// group so that they describe the content now occupying each slot.
func syncPair(doc *html.Node, g sections.Group) {
	cells := sections.PairCells(doc, g)
	for slot, cell := range cells {
		member, ok := sections.MarkerSection(cell, g)
		if !ok {
			member = sections.CellSection(cell, g)
		}
		dom.SetAttr(cell, "data-section", member)

		if w, ok := memberWidths[member]; ok {
			dom.SetStyleProp(cell, "width", w)
		}
		pad := slotPadding[g]
		if slot == 0 {
			dom.RemoveStyleProp(cell, "padding-left")
			dom.SetStyleProp(cell, "padding-right", pad)
		} else {
			dom.RemoveStyleProp(cell, "padding-right")
			dom.SetStyleProp(cell, "padding-left", pad)
		}
	}
}

// groupOf reports which pair group holds n or its nearest pair-cell
// ancestor.
func groupOf(doc, n *html.Node) (sections.Group, bool) {
	for _, g := range []sections.Group{sections.HeaderGroup, sections.VendorGroup, sections.CommentsGroup} {
		if resolve(sections.PairCells(doc, g), n) != nil {
			return g, true
		}
	}
	return "", false
}

// =============================================================================
// DIRECT OPERATIONS
// =============================================================================

// SwapColumns swaps two item-table columns in the header and in every row
// with a matching cell count. Equal indices are a no-op.
func (e *Engine) SwapColumns(doc *html.Node, from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.swapColumns(doc, from, to); err != nil {
		return err
	}
	e.afterSwap(doc)
	return nil
}

func (e *Engine) swapColumns(doc *html.Node, from, to int) error {
	table := columns.ItemTable(doc)
	if table == nil {
		return fmt.Errorf("item table: %w", dom.ErrMissingAnchor)
	}
	header := dom.Cells(dom.HeaderRow(table))
	if from < 0 || to < 0 || from >= len(header) || to >= len(header) {
		return fmt.Errorf("column %d or %d of %d: %w", from, to, len(header), ErrIndexOutOfRange)
	}
	if from == to {
		return nil
	}
	cmap := e.mapper.MapColumns(doc)
	if cmap.KindAt(from) == columns.DragHandle || cmap.KindAt(to) == columns.DragHandle {
		return fmt.Errorf("drag handle column: %w", ErrNotDraggable)
	}

	for _, row := range dom.OwnedRows(table) {
		cells := dom.Cells(row)
		if len(cells) != len(header) {
			continue
		}
		if err := dom.Swap(cells[from], cells[to]); err != nil {
			return fmt.Errorf("swap columns: %w", err)
		}
	}
	e.logger.Info("swapped columns", zap.Int("from", from), zap.Int("to", to))
	return nil
}

// SwapRows swaps two line-item rows, subject to the row policy.
func (e *Engine) SwapRows(doc *html.Node, from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.policy.AllowRowReorder {
		return ErrRowReorderDisabled
	}
	table := columns.ItemTable(doc)
	if table == nil {
		return fmt.Errorf("item table: %w", dom.ErrMissingAnchor)
	}
	rows := dom.BodyRows(table)
	if from < 0 || to < 0 || from >= len(rows) || to >= len(rows) {
		return fmt.Errorf("row %d or %d of %d: %w", from, to, len(rows), ErrIndexOutOfRange)
	}
	if from == to {
		return nil
	}
	if err := dom.Swap(rows[from], rows[to]); err != nil {
		return fmt.Errorf("swap rows: %w", err)
	}
	e.logger.Info("swapped rows", zap.Int("from", from), zap.Int("to", to))
	e.afterSwap(doc)
	return nil
}

// SwapSections swaps two top-level blocks of the form.
func (e *Engine) SwapSections(doc *html.Node, a, b sections.Section) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a == b {
		return nil
	}
	elA := sections.SectionElement(doc, a)
	elB := sections.SectionElement(doc, b)
	if elA == nil || elB == nil {
		return fmt.Errorf("section %q or %q: %w", a, b, dom.ErrMissingAnchor)
	}
	if err := dom.Swap(elA, elB); err != nil {
		return fmt.Errorf("swap sections: %w", err)
	}
	e.logger.Info("swapped sections", zap.String("a", string(a)), zap.String("b", string(b)))
	e.afterSwap(doc)
	return nil
}

// SwapPair exchanges the left and right cell of a header, vendor or
// comments group.
func (e *Engine) SwapPair(doc *html.Node, g sections.Group) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cells := sections.PairCells(doc, g)
	if len(cells) < 2 {
		return fmt.Errorf("%s pair: %w", g, dom.ErrMissingAnchor)
	}
	if err := e.swapPair(doc, g, cells[0], cells[1]); err != nil {
		return err
	}
	e.afterSwap(doc)
	return nil
}

func (e *Engine) swapPair(doc *html.Node, g sections.Group, a, b *html.Node) error {
	if err := dom.Swap(a, b); err != nil {
		return fmt.Errorf("swap %s pair: %w", g, err)
	}
	syncPair(doc, g)
	order := sections.PairOrder(doc, g)
	e.logger.Info("swapped pair",
		zap.String("group", string(g)),
		zap.String("left", order.Left),
		zap.String("right", order.Right))
	return nil
}

// AddColumn appends a column to the item table: a draggable header cell and
// an empty editable cell in every body row.
func (e *Engine) AddColumn(doc *html.Node, title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	table := columns.ItemTable(doc)
	header := dom.HeaderRow(table)
	if header == nil {
		return fmt.Errorf("item table header: %w", dom.ErrMissingAnchor)
	}
	if title == "" {
		title = DefaultColumnTitle
	}

	th := dom.NewElement("th",
		html.Attribute{Key: "class", Val: "draggable-column"},
		html.Attribute{Key: "draggable", Val: "true"})
	dom.SetText(th, title)
	header.AppendChild(th)

	for _, row := range dom.BodyRows(table) {
		td := dom.NewElement("td")
		td.AppendChild(dom.NewElement("span",
			html.Attribute{Key: "class", Val: "editable-field"},
			html.Attribute{Key: "contenteditable", Val: "true"}))
		row.AppendChild(td)
	}
	e.logger.Info("added column", zap.String("title", title))
	return nil
}

// RemoveColumn removes the last item-table column. At least two columns
// always remain and the drag-handle column is never removed.
func (e *Engine) RemoveColumn(doc *html.Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	table := columns.ItemTable(doc)
	header := dom.HeaderRow(table)
	if header == nil {
		return fmt.Errorf("item table header: %w", dom.ErrMissingAnchor)
	}
	cells := dom.Cells(header)
	if len(cells) <= 2 {
		return fmt.Errorf("need at least 2 columns: %w", ErrColumnLimit)
	}
	last := cells[len(cells)-1]
	if columns.CleanHeaderText(dom.Text(last)) == "" {
		return fmt.Errorf("drag handle column: %w", ErrColumnLimit)
	}

	dom.Detach(last)
	for _, row := range dom.BodyRows(table) {
		if rc := dom.Cells(row); len(rc) > 0 {
			dom.Detach(rc[len(rc)-1])
		}
	}
	e.logger.Info("removed column", zap.String("title", dom.CollapseSpace(dom.Text(last))))
	e.afterSwap(doc)
	return nil
}
