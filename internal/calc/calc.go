// =============================================================================
// Purchase Order Form Engine - Calculations
// =============================================================================
//
// Line amounts and totals, computed from the live form. Column positions
// come from the Column Mapper on every call, so calculations stay correct
// after columns are reordered.
//
// OVERRIDE SEMANTICS:
//   A line amount is Quantity x Rate when auto-calculated. A value typed
//   directly into the amount cell is kept until the next quantity or rate
//   edit on that row recalculates it. Totals always re-sum what the amount
//   cells currently hold.
//
// =============================================================================

package calc

import (
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
	"github.com/ginjaninja78/purchase-order-xml/internal/currency"
	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

// Calculator performs form arithmetic.
type Calculator struct {
	mapper  *columns.Mapper
	locator *sections.Locator
	logger  *zap.Logger
}

// New creates a Calculator.
func New(mapper *columns.Mapper, locator *sections.Locator, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mapper == nil {
		mapper = columns.NewMapper(nil, logger)
	}
	if locator == nil {
		locator = sections.NewLocator(logger)
	}
	return &Calculator{mapper: mapper, locator: locator, logger: logger}
}

// formatNumber renders amounts the way the form stores them: two decimals,
// no symbol.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// cellField returns the editable field of a row for the given column.
func cellField(row *html.Node, cmap columns.ColumnMap, kind columns.Kind) *html.Node {
	idx := cmap.Index(kind)
	cells := dom.Cells(row)
	if idx < 0 || idx >= len(cells) {
		return nil
	}
	return dom.Find(cells[idx], dom.EditableField)
}

// =============================================================================
// LINE ITEMS
// =============================================================================

// LineAmount writes Quantity x Rate into the row's amount cell and returns
// the amount. Rows with neither quantity nor rate are left untouched.
func (c *Calculator) LineAmount(doc, row *html.Node) (float64, bool) {
	cmap := c.mapper.MapColumns(doc)
	qtyField := cellField(row, cmap, columns.Quantity)
	rateField := cellField(row, cmap, columns.Rate)
	amountField := cellField(row, cmap, columns.Amount)
	if qtyField == nil || rateField == nil || amountField == nil {
		c.logger.Warn("line item is missing quantity, rate or amount cell")
		return 0, false
	}

	rawQty := dom.CollapseSpace(dom.Text(qtyField))
	rawRate := dom.CollapseSpace(dom.Text(rateField))
	if rawQty == "" && rawRate == "" {
		return 0, false
	}

	amount := currency.Parse(rawQty) * currency.Parse(rawRate)
	dom.SetText(amountField, formatNumber(amount))
	c.logger.Debug("calculated line amount",
		zap.String("quantity", rawQty),
		zap.String("rate", rawRate),
		zap.Float64("amount", amount))
	return amount, true
}

// Subtotal sums the amount column of every line-item row.
func (c *Calculator) Subtotal(doc *html.Node) float64 {
	table := columns.ItemTable(doc)
	if table == nil {
		return 0
	}
	cmap := c.mapper.MapColumns(doc)
	var sum float64
	for _, row := range dom.BodyRows(table) {
		if f := cellField(row, cmap, columns.Amount); f != nil {
			sum += currency.Parse(dom.Text(f))
		}
	}
	return sum
}

// Total is the subtotal plus tax, shipping and other charges.
func (c *Calculator) Total(doc *html.Node) float64 {
	total := c.Subtotal(doc)
	for _, name := range []string{"tax", "shipping", "other"} {
		if f := c.field(doc, name); f != nil {
			total += currency.Parse(dom.Text(f))
		}
	}
	return total
}

// UpdateAllTotals writes the current subtotal and total into the form.
func (c *Calculator) UpdateAllTotals(doc *html.Node) {
	if f := c.field(doc, "subtotal"); f != nil {
		dom.SetText(f, formatNumber(c.Subtotal(doc)))
	}
	if f := c.field(doc, "total"); f != nil {
		dom.SetText(f, formatNumber(c.Total(doc)))
	}
}

// Refresh updates the totals after a layout change. A form with no amounts
// and blank totals is left untouched.
func (c *Calculator) Refresh(doc *html.Node) {
	if c.Subtotal(doc) == 0 && !c.anyTotalFilled(doc) {
		return
	}
	c.UpdateAllTotals(doc)
}

func (c *Calculator) anyTotalFilled(doc *html.Node) bool {
	for _, name := range []string{"subtotal", "tax", "shipping", "other", "total"} {
		if f := c.field(doc, name); f != nil && dom.CollapseSpace(dom.Text(f)) != "" {
			return true
		}
	}
	return false
}

// RecalculateAll recomputes every line amount and then the totals.
func (c *Calculator) RecalculateAll(doc *html.Node) {
	if table := columns.ItemTable(doc); table != nil {
		for _, row := range dom.BodyRows(table) {
			c.LineAmount(doc, row)
		}
	}
	c.UpdateAllTotals(doc)
}

func (c *Calculator) field(doc *html.Node, name string) *html.Node {
	spec, ok := types.LookupField(name)
	if !ok {
		return nil
	}
	return c.locator.FindFieldByLabel(doc, spec.Label, spec.Section)
}

// =============================================================================
// EDIT TRIGGERS
// =============================================================================

// FieldEdited applies the recalculation a field edit triggers:
//   - quantity or rate cell : recalculate that row, then totals
//   - amount cell           : keep the typed value, update totals
//   - tax/shipping/other    : update totals
// Any other field triggers nothing.
func (c *Calculator) FieldEdited(doc, field *html.Node) {
	if table := columns.ItemTable(doc); table != nil && dom.Contains(table, field) {
		row := dom.Closest(field, dom.Tag("tr"))
		cell := dom.Closest(field, dom.Any(dom.Tag("td"), dom.Tag("th")))
		if row == nil || cell == nil {
			return
		}
		cmap := c.mapper.MapColumns(doc)
		switch cmap.KindAt(dom.IndexOf(dom.Cells(row), cell)) {
		case columns.Quantity, columns.Rate:
			c.LineAmount(doc, row)
			c.UpdateAllTotals(doc)
		case columns.Amount:
			c.UpdateAllTotals(doc)
		}
		return
	}

	for _, name := range []string{"tax", "shipping", "other"} {
		if c.field(doc, name) == field {
			c.UpdateAllTotals(doc)
			return
		}
	}
}
