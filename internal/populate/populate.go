// =============================================================================
// Purchase Order Form Engine - Field Population
// =============================================================================
//
// Writes field maps (field name -> value) into a live form. Label-located
// fields are resolved through the Section Locator; line-item cells through
// the Column Mapper, so population keeps working after any reorder.
//
// Keys outside the field vocabulary are never written. They are collected in
// the Report together with known fields the form has no cell for.
//
// =============================================================================

package populate

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
	"github.com/ginjaninja78/purchase-order-xml/internal/currency"
	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

// Report summarizes one Apply call. All lists are sorted.
type Report struct {
	// Applied lists fields whose value was written.
	Applied []string `json:"applied"`

	// Unknown lists keys that are not part of the field vocabulary.
	Unknown []string `json:"unknown"`

	// Missing lists known fields with no matching element in the form.
	Missing []string `json:"missing"`
}

// Populator writes field maps into forms.
type Populator struct {
	mapper  *columns.Mapper
	locator *sections.Locator
	logger  *zap.Logger
}

// New creates a Populator. Nil collaborators get defaults.
func New(mapper *columns.Mapper, locator *sections.Locator, logger *zap.Logger) *Populator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mapper == nil {
		mapper = columns.NewMapper(nil, logger)
	}
	if locator == nil {
		locator = sections.NewLocator(logger)
	}
	return &Populator{mapper: mapper, locator: locator, logger: logger}
}

// Locate returns the editable element holding the named field. Unknown
// names wrap types.ErrUnknownField; known fields the form lacks return
// dom.ErrMissingAnchor.
func (p *Populator) Locate(doc *html.Node, name string) (*html.Node, error) {
	return p.locate(doc, p.mapper.MapColumns(doc), name)
}

func (p *Populator) locate(doc *html.Node, cmap columns.ColumnMap, name string) (*html.Node, error) {
	if spec, ok := types.LookupField(name); ok {
		if el := p.locator.FindFieldByLabel(doc, spec.Label, spec.Section); el != nil {
			return el, nil
		}
		return nil, fmt.Errorf("field %q: %w", name, dom.ErrMissingAnchor)
	}

	row, kind, ok := types.ParseLineItemField(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownField, name)
	}
	table := columns.ItemTable(doc)
	if table == nil {
		return nil, fmt.Errorf("item table: %w", dom.ErrMissingAnchor)
	}
	rows := dom.BodyRows(table)
	col := cmap.Index(kind)
	if row > len(rows) || col < 0 {
		return nil, fmt.Errorf("field %q: %w", name, dom.ErrMissingAnchor)
	}
	cells := dom.Cells(rows[row-1])
	if col >= len(cells) {
		return nil, fmt.Errorf("field %q: %w", name, dom.ErrMissingAnchor)
	}
	el := dom.Find(cells[col], dom.EditableField)
	if el == nil {
		return nil, fmt.Errorf("field %q: %w", name, dom.ErrMissingAnchor)
	}
	return el, nil
}

// Apply writes every known field of fields into doc.
//
// PARAMETERS:
//   - doc: The live form.
//   - fields: Field name -> value, in the snapshot vocabulary.
//
// RETURNS:
//   - A Report of applied, unknown and missing fields.
//
// Doubled currency symbols are collapsed before writing.
func (p *Populator) Apply(doc *html.Node, fields map[string]string) Report {
	cmap := p.mapper.MapColumns(doc)
	rep := Report{Applied: []string{}, Unknown: []string{}, Missing: []string{}}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !types.IsKnownField(name) {
			rep.Unknown = append(rep.Unknown, name)
			continue
		}
		el, err := p.locate(doc, cmap, name)
		if err != nil {
			rep.Missing = append(rep.Missing, name)
			continue
		}
		dom.SetText(el, currency.FixDoubleSymbol(fields[name]))
		rep.Applied = append(rep.Applied, name)
	}

	if len(rep.Unknown) > 0 {
		p.logger.Warn("ignored unknown fields", zap.Strings("fields", rep.Unknown))
	}
	if len(rep.Missing) > 0 {
		p.logger.Warn("form has no element for fields", zap.Strings("fields", rep.Missing))
	}
	p.logger.Info("populated form", zap.Int("applied", len(rep.Applied)))
	return rep
}

// Clear empties every editable field of the form and returns how many were
// cleared.
func Clear(doc *html.Node) int {
	fields := dom.FindAll(doc, dom.EditableField)
	for _, f := range fields {
		dom.SetText(f, "")
	}
	return len(fields)
}
