// =============================================================================
// Purchase Order Form Engine - Document State Extractor
// =============================================================================
//
// Builds a types.Snapshot from the live form. Label-mapped fields are found
// through the Section Locator; line items come from one Column Mapper pass
// applied to every body row of the item table.
//
// Values are returned as raw trimmed text. Currency formatting belongs to the
// XML exporter.
//
// =============================================================================

package extract

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

// ErrMissingAnchor is returned when the item table is absent.
var ErrMissingAnchor = dom.ErrMissingAnchor

var debugID = regexp.MustCompile(`(?s)ID:.*$`)

// Extractor reads snapshots from form documents.
type Extractor struct {
	mapper  *columns.Mapper
	locator *sections.Locator
	logger  *zap.Logger
}

// New creates an Extractor. Nil collaborators get defaults.
func New(mapper *columns.Mapper, locator *sections.Locator, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mapper == nil {
		mapper = columns.NewMapper(nil, logger)
	}
	if locator == nil {
		locator = sections.NewLocator(logger)
	}
	return &Extractor{mapper: mapper, locator: locator, logger: logger}
}

// Value returns the trimmed text of a field with debug-ID artifacts removed.
func Value(field *html.Node) string {
	if field == nil {
		return ""
	}
	return strings.TrimSpace(debugID.ReplaceAllString(dom.CollapseSpace(dom.Text(field)), ""))
}

// Extract reads the complete semantic state of the form.
func (x *Extractor) Extract(doc *html.Node) (*types.Snapshot, error) {
	table := columns.ItemTable(doc)
	if table == nil {
		return nil, fmt.Errorf("item table: %w", ErrMissingAnchor)
	}

	snap := &types.Snapshot{}
	for _, spec := range types.Fields {
		field := x.locator.FindFieldByLabel(doc, spec.Label, spec.Section)
		if field == nil {
			x.logger.Warn("unmapped field",
				zap.String("field", spec.Name),
				zap.String("section", spec.Section),
				zap.String("label", spec.Label))
			continue
		}
		*spec.Ref(snap) = Value(field)
	}

	snap.LineItems = x.lineItems(doc, table)
	x.logger.Debug("extracted snapshot",
		zap.String("po", snap.PONumber),
		zap.Int("line_items", len(snap.LineItems)))
	return snap, nil
}

// LineItems reads only the line items of the form.
func (x *Extractor) LineItems(doc *html.Node) ([]types.LineItem, error) {
	table := columns.ItemTable(doc)
	if table == nil {
		return nil, fmt.Errorf("item table: %w", ErrMissingAnchor)
	}
	return x.lineItems(doc, table), nil
}

func (x *Extractor) lineItems(doc, table *html.Node) []types.LineItem {
	cmap := x.mapper.MapColumns(doc)
	items := []types.LineItem{}
	for i, row := range dom.BodyRows(table) {
		if len(items) == types.MaxLineItems {
			x.logger.Warn("line items beyond the form limit were ignored",
				zap.Int("limit", types.MaxLineItems),
				zap.Int("row", i+1))
			break
		}
		var item types.LineItem
		for col, cell := range dom.Cells(row) {
			kind := cmap.KindAt(col)
			if !kind.IsData() {
				continue
			}
			item.SetValue(kind, Value(dom.Find(cell, dom.EditableField)))
		}
		if !item.IsEmpty() {
			items = append(items, item)
		}
	}
	return items
}
