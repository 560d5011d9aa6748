package sections_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/form"
	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

func newForm(t *testing.T) *html.Node {
	t.Helper()
	doc, err := form.New()
	require.NoError(t, err)
	return doc
}

func TestEveryFieldResolvesToItsOwnElement(t *testing.T) {
	doc := newForm(t)
	loc := sections.NewLocator(nil)

	seen := map[*html.Node]string{}
	for _, f := range types.Fields {
		el := loc.FindFieldByLabel(doc, f.Label, f.Section)
		require.NotNil(t, el, f.Name)
		if prev, dup := seen[el]; dup {
			t.Fatalf("%s and %s resolved to the same element", prev, f.Name)
		}
		seen[el] = f.Name
	}
}

func TestFieldsFollowSwappedPairs(t *testing.T) {
	doc := newForm(t)
	loc := sections.NewLocator(nil)

	before := loc.FindFieldByLabel(doc, "Company Name", "vendor")
	dom.SetText(before, "Vendor Co")

	cells := sections.PairCells(doc, sections.VendorGroup)
	require.Len(t, cells, 2)
	require.NoError(t, dom.Swap(cells[0], cells[1]))

	after := loc.FindFieldByLabel(doc, "Company Name", "vendor")
	assert.Same(t, before, after)
	assert.Equal(t, "Vendor Co", dom.Text(after))
	assert.Equal(t, sections.Pair{Left: sections.ShipTo, Right: sections.VendorBlock}, sections.VendorOrder(doc))
}

func TestLabelNormalization(t *testing.T) {
	assert.Equal(t, "CITY, ST ZIP", sections.NormalizeLabel("  city,   st zip: "))
	assert.Equal(t, "SUBTOTAL", sections.NormalizeLabel("Subtotal:"))
}

func TestNoFalsePositiveAcrossRows(t *testing.T) {
	doc := newForm(t)
	loc := sections.NewLocator(nil)

	assert.Nil(t, loc.FindFieldByLabel(doc, "Date", "vendor"))
	assert.Nil(t, loc.FindFieldByLabel(doc, "Email", "ship-to"))
	assert.Nil(t, loc.FindFieldByLabel(doc, "Zip Code", "vendor"))
	assert.Nil(t, loc.FindFieldByLabel(doc, "Website", "no-such-section"))

	// With the Name row gone, "Name" must not fall onto "Company Name".
	shipTo := sections.SectionRoot(doc, "ship-to")
	company := loc.FindFieldByLabel(doc, "Company Name", "ship-to")
	require.NotNil(t, company)
	dom.SetText(company, "Globex Receiving")
	name := loc.FindFieldByLabel(doc, "Name", "ship-to")
	require.NotNil(t, name)
	dom.Detach(dom.Closest(name, dom.Tag("tr")))
	require.True(t, dom.Contains(shipTo, company))

	assert.Nil(t, loc.FindFieldByLabel(doc, "Name", "ship-to"))
	assert.Same(t, company, loc.FindFieldByLabel(doc, "Company Name", "ship-to"))
}

func TestScanPrefersTightestRow(t *testing.T) {
	doc, err := dom.ParseString(`<table data-section="contact"><tr><td>
		<table>
		<tr><td>Vendor Phone</td><td><span class="editable-field">vendor</span></td></tr>
		<tr><td>Phone Ext 2</td><td><span class="editable-field">ext</span></td></tr>
		<tr><td>Phone Main</td><td><span class="editable-field">main</span></td></tr>
		</table></td></tr></table>`)
	require.NoError(t, err)

	el := sections.NewLocator(nil).FindFieldByLabel(doc, "Phone", "contact")
	require.NotNil(t, el)
	assert.Equal(t, "main", dom.Text(el))
}

func TestStackedGridAndClassFallback(t *testing.T) {
	doc, err := dom.ParseString(`<table class="terms-section">
		<tr><td>Carrier</td><td>Terms</td></tr>
		<tr><td><span class="editable-field">UPS</span></td><td><span class="editable-field">Net 30</span></td></tr>
	</table>`)
	require.NoError(t, err)

	loc := sections.NewLocator(nil)
	el := loc.FindFieldByLabel(doc, "terms", "terms")
	require.NotNil(t, el)
	assert.Equal(t, "Net 30", dom.Text(el))
}

func TestPoNumberAliases(t *testing.T) {
	doc, err := dom.ParseString(`<table data-section="purchase-order">
		<tr><td>PO Number</td><td><span class="editable-field">PO-1</span></td></tr>
		<tr><td>Order Date</td><td><span class="editable-field">01/02/2025</span></td></tr>
	</table>`)
	require.NoError(t, err)

	loc := sections.NewLocator(nil)
	assert.Equal(t, "PO-1", dom.Text(loc.FindFieldByLabel(doc, "PO #", "purchase-order")))
	assert.Equal(t, "01/02/2025", dom.Text(loc.FindFieldByLabel(doc, "Date", "purchase-order")))
}

func TestOrderDefaults(t *testing.T) {
	doc, err := dom.ParseString(`<p>empty</p>`)
	require.NoError(t, err)

	assert.Equal(t, sections.DefaultSectionOrder, sections.SectionOrder(doc))
	assert.Equal(t, sections.Pair{Left: sections.CompanyInfo, Right: sections.PurchaseOrder}, sections.HeaderOrder(doc))
	assert.Equal(t, sections.Pair{Left: sections.VendorBlock, Right: sections.ShipTo}, sections.VendorOrder(doc))
	assert.Equal(t, sections.Pair{Left: sections.CommentsBlock, Right: sections.TotalsBlock}, sections.CommentsOrder(doc))
}

func TestSectionOrderReadsDocument(t *testing.T) {
	doc := newForm(t)
	assert.Equal(t, sections.DefaultSectionOrder, sections.SectionOrder(doc))

	vendor := sections.SectionElement(doc, sections.Vendor)
	items := sections.SectionElement(doc, sections.Items)
	require.NoError(t, dom.Swap(vendor, items))

	assert.Equal(t,
		[]sections.Section{sections.Header, sections.Items, sections.Shipping, sections.Vendor, sections.Comments},
		sections.SectionOrder(doc))
}

func TestCellSectionFallsBackToClass(t *testing.T) {
	doc, err := dom.ParseString(`<table><tr>
		<td class="comments-cell totals-section">t</td>
		<td class="comments-cell comments-section">c</td>
	</tr></table>`)
	require.NoError(t, err)

	assert.Equal(t, sections.Pair{Left: sections.TotalsBlock, Right: sections.CommentsBlock}, sections.CommentsOrder(doc))
}

func TestSectionOfPrefersDataSection(t *testing.T) {
	doc, err := dom.ParseString(`<div>
		<table id="tagged" class="draggable-vendor-section" data-section="items"><tr><td></td></tr></table>
		<table id="classed" class="draggable-vendor-section" data-section="ship-to"><tr><td></td></tr></table>
	</div>`)
	require.NoError(t, err)

	s, ok := sections.SectionOf(dom.Find(doc, dom.ID("tagged")))
	require.True(t, ok)
	assert.Equal(t, sections.Items, s)

	s, ok = sections.SectionOf(dom.Find(doc, dom.ID("classed")))
	require.True(t, ok)
	assert.Equal(t, sections.Vendor, s)
}
