package sections

import (
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
)

// =============================================================================
// SECTION ORDER
// =============================================================================
// Every function here reads the current document. Nothing is remembered
// between calls, so any sequence of drags is reflected immediately.

// Section names a top-level block of the form.
type Section string

const (
	Header   Section = "header"
	Vendor   Section = "vendor"
	Shipping Section = "shipping"
	Items    Section = "items"
	Comments Section = "comments"
)

// DefaultSectionOrder is the layout of a fresh form.
var DefaultSectionOrder = []Section{Header, Vendor, Shipping, Items, Comments}

// ParseSection resolves a top-level section name.
func ParseSection(s string) (Section, bool) {
	for _, sec := range DefaultSectionOrder {
		if string(sec) == s {
			return sec, true
		}
	}
	return "", false
}

// Container returns the cell holding the top-level blocks.
func Container(doc *html.Node) *html.Node {
	table := dom.Find(doc, dom.All(dom.Tag("table"), dom.Class("container")))
	if table == nil {
		return nil
	}
	return dom.Find(table, dom.Tag("td"))
}

// SectionOf identifies a top-level block from its data-section attribute,
// falling back to its class markers.
func SectionOf(el *html.Node) (Section, bool) {
	if s, ok := ParseSection(dom.GetAttr(el, "data-section")); ok {
		return s, true
	}
	switch {
	case dom.HasClass(el, "header-section"):
		return Header, true
	case dom.HasClass(el, "draggable-vendor-section"):
		return Vendor, true
	case dom.HasClass(el, "draggable-shipping-section"):
		return Shipping, true
	case dom.HasClass(el, "itemtable"):
		return Items, true
	case dom.Tag("table")(el) && dom.Find(el, dom.Class("draggable-comments-row")) != nil:
		return Comments, true
	}
	return "", false
}

// SectionElements returns the recognized top-level blocks in document order.
func SectionElements(doc *html.Node) []*html.Node {
	var out []*html.Node
	for _, child := range dom.ElementChildren(Container(doc)) {
		if _, ok := SectionOf(child); ok {
			out = append(out, child)
		}
	}
	return out
}

// SectionElement returns the block currently holding s.
func SectionElement(doc *html.Node, s Section) *html.Node {
	for _, el := range SectionElements(doc) {
		if got, _ := SectionOf(el); got == s {
			return el
		}
	}
	return nil
}

// SectionOrder returns the top-level order, or DefaultSectionOrder when the
// container is missing or holds nothing recognizable.
func SectionOrder(doc *html.Node) []Section {
	var out []Section
	for _, el := range SectionElements(doc) {
		s, _ := SectionOf(el)
		out = append(out, s)
	}
	if len(out) == 0 {
		return append([]Section(nil), DefaultSectionOrder...)
	}
	return out
}

// =============================================================================
// SWAPPABLE PAIRS
// =============================================================================

// Group names a left/right swappable pair.
type Group string

const (
	HeaderGroup   Group = "header"
	VendorGroup   Group = "vendor"
	CommentsGroup Group = "comments"
)

// Pair members.
const (
	CompanyInfo   = "company-info"
	PurchaseOrder = "purchase-order"
	VendorBlock   = "vendor"
	ShipTo        = "ship-to"
	CommentsBlock = "comments"
	TotalsBlock   = "totals"
)

// Pair is the content of the left and right slot of a group.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type marker struct {
	class   string
	section string
}

type groupSpec struct {
	cellClass string
	markers   []marker
	fallback  Pair
}

var groups = map[Group]groupSpec{
	HeaderGroup: {
		cellClass: "header-cell",
		markers:   []marker{{"company-info", CompanyInfo}, {"purchase-order", PurchaseOrder}},
		fallback:  Pair{Left: CompanyInfo, Right: PurchaseOrder},
	},
	VendorGroup: {
		cellClass: "vendor-cell",
		markers:   []marker{{"vendor-section", VendorBlock}, {"ship-to-section", ShipTo}},
		fallback:  Pair{Left: VendorBlock, Right: ShipTo},
	},
	CommentsGroup: {
		cellClass: "comments-cell",
		markers:   []marker{{"comments-section", CommentsBlock}, {"totals-section", TotalsBlock}},
		fallback:  Pair{Left: CommentsBlock, Right: TotalsBlock},
	},
}

// ParseGroup resolves a pair group name.
func ParseGroup(s string) (Group, bool) {
	g := Group(s)
	_, ok := groups[g]
	return g, ok
}

// PairCells returns the cells of a group in document order.
func PairCells(doc *html.Node, g Group) []*html.Node {
	spec, ok := groups[g]
	if !ok {
		return nil
	}
	return dom.FindAll(doc, dom.Class(spec.cellClass))
}

// CellSection resolves which member of the group a cell holds: the
// data-section attribute first, then the class markers, then the group's
// left member.
func CellSection(cell *html.Node, g Group) string {
	spec := groups[g]
	if cell == nil {
		return spec.fallback.Left
	}
	if v := dom.GetAttr(cell, "data-section"); v != "" {
		return v
	}
	for _, m := range spec.markers {
		if dom.HasClass(cell, m.class) {
			return m.section
		}
	}
	return spec.fallback.Left
}

// MarkerSection resolves a cell from its class markers only, ignoring
// data-section. The Reorder Engine uses it to resync the attribute.
func MarkerSection(cell *html.Node, g Group) (string, bool) {
	for _, m := range groups[g].markers {
		if dom.HasClass(cell, m.class) {
			return m.section, true
		}
	}
	return "", false
}

// PairOrder reads the current left/right content of a group.
func PairOrder(doc *html.Node, g Group) Pair {
	cells := PairCells(doc, g)
	if len(cells) < 2 {
		return groups[g].fallback
	}
	return Pair{Left: CellSection(cells[0], g), Right: CellSection(cells[1], g)}
}

// HeaderOrder reads the company-info / purchase-order placement.
func HeaderOrder(doc *html.Node) Pair { return PairOrder(doc, HeaderGroup) }

// VendorOrder reads the vendor / ship-to placement.
func VendorOrder(doc *html.Node) Pair { return PairOrder(doc, VendorGroup) }

// CommentsOrder reads the comments / totals placement.
func CommentsOrder(doc *html.Node) Pair { return PairOrder(doc, CommentsGroup) }
