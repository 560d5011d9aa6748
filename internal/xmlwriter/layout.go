package xmlwriter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
)

// =============================================================================
// LAYOUT
// =============================================================================

// Layout is the visual arrangement the XML mirrors.
type Layout struct {
	Sections    []sections.Section
	Header      sections.Pair
	Vendor      sections.Pair
	Comments    sections.Pair
	Columns     []columns.Kind
	HeaderColor string
}

// DefaultLayout is the arrangement of a fresh form.
func DefaultLayout() Layout {
	return Layout{
		Sections:    append([]sections.Section(nil), sections.DefaultSectionOrder...),
		Header:      sections.Pair{Left: sections.CompanyInfo, Right: sections.PurchaseOrder},
		Vendor:      sections.Pair{Left: sections.VendorBlock, Right: sections.ShipTo},
		Comments:    sections.Pair{Left: sections.CommentsBlock, Right: sections.TotalsBlock},
		Columns:     []columns.Kind{columns.Item, columns.Description, columns.Quantity, columns.Rate, columns.Amount},
		HeaderColor: DefaultHeaderColor,
	}
}

// normalized fills unset parts from DefaultLayout and repairs pairs that do
// not name both members.
func (l Layout) normalized() Layout {
	def := DefaultLayout()
	if len(l.Sections) == 0 {
		l.Sections = def.Sections
	}
	l.Header = validPair(l.Header, def.Header)
	l.Vendor = validPair(l.Vendor, def.Vendor)
	l.Comments = validPair(l.Comments, def.Comments)
	if len(l.Columns) == 0 {
		l.Columns = def.Columns
	}
	if l.HeaderColor == "" {
		l.HeaderColor = def.HeaderColor
	}
	return l
}

func validPair(p, def sections.Pair) sections.Pair {
	if p == def || (p.Left == def.Right && p.Right == def.Left) {
		return p
	}
	return def
}

// LayoutOf reads the current layout from the live form. A missing item
// table is reported as ErrMissingAnchor.
func LayoutOf(doc *html.Node, mapper *columns.Mapper, fallbackColor string) (Layout, error) {
	if columns.ItemTable(doc) == nil {
		return Layout{}, fmt.Errorf("item table: %w", ErrMissingAnchor)
	}
	if mapper == nil {
		mapper = columns.NewMapper(nil, nil)
	}
	return Layout{
		Sections:    sections.SectionOrder(doc),
		Header:      sections.HeaderOrder(doc),
		Vendor:      sections.VendorOrder(doc),
		Comments:    sections.CommentsOrder(doc),
		Columns:     mapper.MapColumns(doc).Order(),
		HeaderColor: HeaderColor(doc, fallbackColor),
	}, nil
}

// =============================================================================
// HEADER COLOR
// =============================================================================

var (
	hexColor = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)
	rgbColor = regexp.MustCompile(`(?i)rgba?\((\d+)\s*,\s*(\d+)\s*,\s*(\d+)(?:\s*,\s*([\d.]+))?\)`)
)

// colorSamples lists the elements whose background is the header color, in
// order of preference.
func colorSamples(doc *html.Node) []*html.Node {
	out := dom.FindAll(doc, dom.Class("section-header"))
	out = append(out, columns.HeaderCells(doc)...)
	for _, td := range dom.FindAll(doc, dom.Tag("td")) {
		if strings.EqualFold(dom.CollapseSpace(dom.Text(td)), "purchase order") {
			out = append(out, td)
		}
	}
	return out
}

// HeaderColor returns the inline background color of the header blocks as
// #RRGGBB, or fallback (DefaultHeaderColor when empty).
func HeaderColor(doc *html.Node, fallback string) string {
	if fallback == "" {
		fallback = DefaultHeaderColor
	}
	for _, n := range colorSamples(doc) {
		for _, prop := range []string{"background-color", "background"} {
			if hex := ColorToHex(dom.StyleProp(n, prop)); hex != "" {
				return hex
			}
		}
	}
	return fallback
}

// ColorToHex normalizes #RGB, #RRGGBB, rgb() and rgba() to uppercase
// #RRGGBB. Fully transparent and unrecognized values yield "".
func ColorToHex(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	m := rgbColor.FindStringSubmatch(s)
	if m == nil {
		for _, tok := range strings.Fields(s) {
			if hexColor.MatchString(tok) {
				hex := strings.ToUpper(tok[1:])
				if len(hex) == 3 {
					hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
				}
				return "#" + hex
			}
		}
		return ""
	}
	if m[4] != "" {
		if a, err := strconv.ParseFloat(m[4], 64); err == nil && a == 0 {
			return ""
		}
	}
	var out strings.Builder
	out.WriteByte('#')
	for _, c := range m[1:4] {
		v, _ := strconv.Atoi(c)
		v = max(0, min(255, v))
		fmt.Fprintf(&out, "%02X", v)
	}
	return out.String()
}
