// =============================================================================
// Purchase Order Form Engine - Section Locator
// =============================================================================
//
// Finds the editable element holding a labelled value inside a named section
// of the live form, wherever the user has dragged that section to.
//
// MATCHING STRATEGY (first hit wins):
//   1. Two-column row      : <td>LABEL</td><td><field/></td>
//   2. Combined cell       : <td>LABEL: <field/></td>
//   3. Stacked grid        : LABEL in a header row, field in the same column
//                            of the next row; then a whole-section scan for
//                            rows whose label starts with the wanted words
//   4. Exceptions          : PO number and date aliases, and sections that
//                            hold a single editable field (comments, footer)
//
// A result always belongs to the row the label was found in (or the row
// directly beneath it for stacked grids). Nil means "field absent".
//
// =============================================================================

package sections

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
)

var (
	isRow  = dom.Tag("tr")
	isCell = dom.Any(dom.Tag("td"), dom.Tag("th"))
)

// labelAliases lists alternative spellings tried once the primary label
// has failed.
var labelAliases = map[string][]string{
	"PO #":      {"PO#", "P.O. #", "PO NUMBER", "PO NO."},
	"PO#":       {"PO #", "P.O. #", "PO NUMBER"},
	"PO NUMBER": {"PO #", "PO#", "P.O. #"},
	"DATE":      {"PO DATE", "ORDER DATE"},
	"PO DATE":   {"DATE"},
	"COMMENTS":  {"COMMENTS OR SPECIAL INSTRUCTIONS"},
}

// Locator resolves labelled fields.
type Locator struct {
	logger *zap.Logger
}

// NewLocator creates a Locator. A nil logger discards output.
func NewLocator(logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{logger: logger}
}

// NormalizeLabel uppercases, trims, collapses whitespace and drops a
// trailing colon.
func NormalizeLabel(s string) string {
	s = strings.ToUpper(dom.CollapseSpace(s))
	s = strings.TrimSpace(strings.TrimSuffix(s, ":"))
	return s
}

// SectionRoot returns the element tagged data-section=name, falling back to
// a class named name or name+"-section".
func SectionRoot(doc *html.Node, name string) *html.Node {
	if n := dom.Find(doc, dom.AttrEquals("data-section", name)); n != nil {
		return n
	}
	if n := dom.Find(doc, dom.Class(name)); n != nil {
		return n
	}
	return dom.Find(doc, dom.Class(name+"-section"))
}

// FindFieldByLabel returns the editable element for label inside section,
// or nil when the field is absent.
func (l *Locator) FindFieldByLabel(doc *html.Node, label, section string) *html.Node {
	root := SectionRoot(doc, section)
	if root == nil {
		l.logger.Debug("section not found", zap.String("section", section))
		return nil
	}
	want := NormalizeLabel(label)
	if want == "" {
		return nil
	}

	if f := matchTwoColumn(root, want); f != nil {
		return f
	}
	if f := matchCombined(root, want); f != nil {
		return f
	}
	if f := matchStacked(root, want); f != nil {
		return f
	}
	if f := scanSection(root, want); f != nil {
		return f
	}

	for _, alias := range labelAliases[want] {
		if f := matchTwoColumn(root, alias); f != nil {
			return f
		}
		if f := matchCombined(root, alias); f != nil {
			return f
		}
		if f := matchStacked(root, alias); f != nil {
			return f
		}
	}

	if fields := dom.FindAll(root, dom.EditableField); len(fields) == 1 {
		return fields[0]
	}

	l.logger.Debug("label not found",
		zap.String("label", label),
		zap.String("section", section))
	return nil
}

// cellLabel is the normalized text of a cell outside its editable fields.
func cellLabel(cell *html.Node) string {
	return NormalizeLabel(dom.TextExcluding(cell, dom.EditableField))
}

func matchTwoColumn(root *html.Node, want string) *html.Node {
	for _, row := range dom.FindAll(root, isRow) {
		cells := dom.Cells(row)
		for i := 0; i+1 < len(cells); i++ {
			if dom.Find(cells[i], dom.EditableField) != nil {
				continue
			}
			if cellLabel(cells[i]) != want {
				continue
			}
			if f := dom.Find(cells[i+1], dom.EditableField); f != nil {
				return f
			}
		}
	}
	return nil
}

func matchCombined(root *html.Node, want string) *html.Node {
	for _, cell := range dom.FindAll(root, isCell) {
		fields := dom.FindAll(cell, dom.EditableField)
		if len(fields) != 1 {
			continue
		}
		if cellLabel(cell) == want {
			return fields[0]
		}
	}
	return nil
}

func matchStacked(root *html.Node, want string) *html.Node {
	for _, row := range dom.FindAll(root, isRow) {
		cells := dom.Cells(row)
		for k, cell := range cells {
			if dom.Find(cell, dom.EditableField) != nil || cellLabel(cell) != want {
				continue
			}
			next := nextRow(row)
			if next == nil {
				continue
			}
			below := dom.Cells(next)
			if k < len(below) {
				if f := dom.Find(below[k], dom.EditableField); f != nil {
					return f
				}
			}
		}
	}
	return nil
}

// scanSection walks every editable field and keeps the one whose own row
// label starts with the words of want, preferring the row with the fewest
// trailing words. A row with words ahead of want ("COMPANY NAME" for
// "NAME") labels a different field and never matches.
func scanSection(root *html.Node, want string) *html.Node {
	wantWords := labelWords(want)
	var best *html.Node
	bestExtra := -1
	for _, field := range dom.FindAll(root, dom.EditableField) {
		row := dom.Closest(field, isRow)
		if row == nil || !dom.Contains(root, row) {
			continue
		}
		words := labelWords(cellLabel(row))
		if !hasWordPrefix(words, wantWords) {
			continue
		}
		extra := len(words) - len(wantWords)
		if best == nil || extra < bestExtra {
			best, bestExtra = field, extra
		}
	}
	return best
}

func nextRow(row *html.Node) *html.Node {
	for n := row.NextSibling; n != nil; n = n.NextSibling {
		if isRow(n) {
			return n
		}
	}
	return nil
}

func labelWords(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ":,")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func hasWordPrefix(words, prefix []string) bool {
	if len(prefix) == 0 || len(prefix) > len(words) {
		return false
	}
	for i := range prefix {
		if words[i] != prefix[i] {
			return false
		}
	}
	return true
}
