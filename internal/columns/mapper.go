// =============================================================================
// Purchase Order Form Engine - Column Mapper
// =============================================================================
//
// Derives the position -> semantic column assignment of the line-item table
// from the header row of the live document. The map is never cached: the
// Reorder Engine moves header cells around and the text travels with them,
// so reading the header again is always correct.
//
// CLASSIFICATION ORDER:
//   1. Empty header or "::" decoration      -> dragHandle
//   2. Keyword rules, first matching wins   -> see DefaultRules
//   3. Canonical position (0..5)            -> dragHandle, item, description,
//                                              quantity, rate, amount
//   4. Anything else                        -> unknown
//
// =============================================================================

package columns

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
)

// =============================================================================
// COLUMN KINDS
// =============================================================================

// Kind is the semantic role of a line-item column.
type Kind string

const (
	Item        Kind = "item"
	Description Kind = "description"
	Quantity    Kind = "quantity"
	Rate        Kind = "rate"
	Amount      Kind = "amount"
	Options     Kind = "options"
	DragHandle  Kind = "dragHandle"
	Unknown     Kind = "unknown"
)

// DataKinds are the kinds that carry line-item values.
var DataKinds = []Kind{Item, Description, Quantity, Rate, Amount, Options}

// canonicalOrder is the physical layout assumed when header text is not
// recognized.
var canonicalOrder = []Kind{DragHandle, Item, Description, Quantity, Rate, Amount}

// IsData reports whether the kind holds a line-item value.
func (k Kind) IsData() bool {
	return k != DragHandle && k != Unknown && k != ""
}

// ParseKind resolves a kind name, including the legacy aliases
// "unitPrice" (rate), "total" (amount) and "itemName" (item).
func ParseKind(s string) (Kind, bool) {
	switch strings.TrimSpace(s) {
	case "item", "itemName":
		return Item, true
	case "description":
		return Description, true
	case "quantity":
		return Quantity, true
	case "rate", "unitPrice":
		return Rate, true
	case "amount", "total":
		return Amount, true
	case "options":
		return Options, true
	case "dragHandle":
		return DragHandle, true
	case "unknown":
		return Unknown, true
	}
	return Unknown, false
}

// =============================================================================
// KEYWORD RULES
// =============================================================================

// Rule maps a header keyword to a kind. Matching is case-insensitive
// substring containment.
type Rule struct {
	Keyword string
	Kind    Kind
}

// DefaultRules returns the built-in priority list. Two-word phrases sit
// ahead of their single words so "Total Price" is an amount and
// "Unit Price" is a rate, and "Description" wins over "Item" for
// "Item Description". A bare "Unit" ("Unit Cost") is a rate too.
func DefaultRules() []Rule {
	return []Rule{
		{"Unit Price", Rate},
		{"Total Price", Amount},
		{"Unit", Rate},
		{"Description", Description},
		{"Desc", Description},
		{"Item#", Item},
		{"Item", Item},
		{"Quantity", Quantity},
		{"Qty", Quantity},
		{"Rate", Rate},
		{"Price", Rate},
		{"Amount", Amount},
		{"Total", Amount},
		{"Options", Options},
		{"Option", Options},
	}
}

// =============================================================================
// COLUMN MAP
// =============================================================================

// ColumnMap assigns a kind to every zero-based header position.
type ColumnMap []Kind

// Index returns the first column holding kind, or -1.
func (m ColumnMap) Index(kind Kind) int {
	for i, k := range m {
		if k == kind {
			return i
		}
	}
	return -1
}

// KindAt returns the kind at position i, or Unknown when out of range.
func (m ColumnMap) KindAt(i int) Kind {
	if i < 0 || i >= len(m) {
		return Unknown
	}
	return m[i]
}

// Order returns the data kinds in physical order, skipping the drag handle
// and unrecognized columns.
func (m ColumnMap) Order() []Kind {
	out := make([]Kind, 0, len(m))
	for _, k := range m {
		if k.IsData() {
			out = append(out, k)
		}
	}
	return out
}

// =============================================================================
// MAPPER
// =============================================================================

var debugSuffix = regexp.MustCompile(`(?s)ID:.*$`)

// Mapper classifies line-item header cells.
type Mapper struct {
	rules  []Rule
	logger *zap.Logger
}

// NewMapper creates a Mapper. A nil or empty rule list uses DefaultRules.
func NewMapper(rules []Rule, logger *zap.Logger) *Mapper {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mapper{rules: rules, logger: logger}
}

// ItemTable returns the line-item table of the document.
func ItemTable(doc *html.Node) *html.Node {
	return dom.Find(doc, dom.All(dom.Tag("table"), dom.Class("itemtable")))
}

// HeaderCells returns the header cells of the line-item table.
func HeaderCells(doc *html.Node) []*html.Node {
	table := ItemTable(doc)
	if table == nil {
		return nil
	}
	return dom.Cells(dom.HeaderRow(table))
}

// CleanHeaderText strips debug suffixes and "::" decoration.
func CleanHeaderText(raw string) string {
	text := dom.CollapseSpace(debugSuffix.ReplaceAllString(raw, ""))
	text = strings.TrimSpace(strings.TrimPrefix(text, "::"))
	text = strings.TrimSpace(strings.TrimSuffix(text, "::"))
	return text
}

// MapColumns reads the header row and returns the current column map. It
// never fails; a missing table yields an empty map.
func (m *Mapper) MapColumns(doc *html.Node) ColumnMap {
	cells := HeaderCells(doc)
	out := make(ColumnMap, len(cells))
	for i, cell := range cells {
		out[i] = m.Classify(dom.Text(cell), i)
	}
	m.logger.Debug("mapped line-item columns", zap.Any("columns", out))
	return out
}

// Classify assigns a kind to one header text at the given position.
func (m *Mapper) Classify(raw string, index int) Kind {
	text := CleanHeaderText(raw)
	if text == "" {
		return DragHandle
	}

	upper := strings.ToUpper(text)
	for _, r := range m.rules {
		if r.Keyword != "" && strings.Contains(upper, strings.ToUpper(r.Keyword)) {
			return r.Kind
		}
	}

	if index >= 0 && index < len(canonicalOrder) {
		return canonicalOrder[index]
	}
	return Unknown
}
