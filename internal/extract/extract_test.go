package extract_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/extract"
	"github.com/ginjaninja78/purchase-order-xml/internal/form"
	"github.com/ginjaninja78/purchase-order-xml/internal/reorder"
	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

func filledForm(t *testing.T) *html.Node {
	t.Helper()
	doc, err := form.New()
	require.NoError(t, err)

	// Totals are consistent with the line items so that recalculation after
	// a swap leaves them unchanged.
	money := map[string]string{
		"subtotal": "20.00",
		"tax":      "1.50",
		"shipping": "0.00",
		"other":    "0.00",
		"total":    "21.50",
	}
	loc := sections.NewLocator(nil)
	for _, f := range types.Fields {
		el := loc.FindFieldByLabel(doc, f.Label, f.Section)
		require.NotNil(t, el, f.Name)
		if v, ok := money[f.Name]; ok {
			dom.SetText(el, v)
			continue
		}
		dom.SetText(el, "  "+f.Name+" value ")
	}

	rows := dom.BodyRows(columns.ItemTable(doc))
	fill := func(row int, values ...string) {
		cells := dom.Cells(rows[row])
		for i, v := range values {
			dom.SetText(dom.Find(cells[i+1], dom.EditableField), v)
		}
	}
	fill(0, "1", "Widget", "2", "10.00", "20.00")
	fill(2, "7", "Gadget & Co <b>", "1", "$5", "")
	return doc
}

func TestExtractSnapshot(t *testing.T) {
	doc := filledForm(t)
	snap, err := extract.New(nil, nil, nil).Extract(doc)
	require.NoError(t, err)

	assert.Equal(t, "companyName value", snap.Company.Name)
	assert.Equal(t, "poNumber value", snap.PONumber)
	assert.Equal(t, "shipToFax value", snap.ShipTo.Fax)
	assert.Equal(t, "21.50", snap.Totals.Total)
	assert.Equal(t, "contactInfo value", snap.ContactInfo)

	want := []types.LineItem{
		{ItemName: "1", Description: "Widget", Quantity: "2", Rate: "10.00", Amount: "20.00"},
		{ItemName: "7", Description: "Gadget & Co <b>", Quantity: "1", Rate: "$5"},
	}
	if diff := cmp.Diff(want, snap.LineItems); diff != "" {
		t.Errorf("line items mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotSurvivesReordering(t *testing.T) {
	doc := filledForm(t)
	x := extract.New(nil, nil, nil)
	before, err := x.Extract(doc)
	require.NoError(t, err)

	e := reorder.New(reorder.DefaultPolicy(), nil, nil, nil)
	require.NoError(t, e.SwapColumns(doc, 3, 4))
	require.NoError(t, e.SwapColumns(doc, 1, 5))
	require.NoError(t, e.SwapPair(doc, sections.HeaderGroup))
	require.NoError(t, e.SwapPair(doc, sections.VendorGroup))
	require.NoError(t, e.SwapPair(doc, sections.CommentsGroup))
	require.NoError(t, e.SwapSections(doc, sections.Header, sections.Items))

	after, err := x.Extract(doc)
	require.NoError(t, err)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("snapshot changed after reordering (-before +after):\n%s", diff)
	}
}

func TestEmptyFormHasNoLineItems(t *testing.T) {
	doc, err := form.New()
	require.NoError(t, err)

	snap, err := extract.New(nil, nil, nil).Extract(doc)
	require.NoError(t, err)
	assert.Empty(t, snap.LineItems)
	assert.Empty(t, snap.Company.Name)
}

func TestDebugIDArtifactsAreStripped(t *testing.T) {
	doc, err := dom.ParseString(`<table class="itemtable">
		<thead><tr><th>::</th><th>Item ID: itemName</th><th>Qty ID: quantity</th></tr></thead>
		<tbody>
		<tr><td>::</td><td><span class="editable-field">ID: lineItem1Item</span></td><td><span class="editable-field"> </span></td></tr>
		<tr><td>::</td><td><span class="editable-field">A-1 ID: lineItem2Item</span></td><td><span class="editable-field">4</span></td></tr>
		</tbody></table>`)
	require.NoError(t, err)

	items, err := extract.New(nil, nil, nil).LineItems(doc)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, types.LineItem{ItemName: "A-1", Quantity: "4"}, items[0])
}

func TestLineItemLimit(t *testing.T) {
	body := ""
	for i := 0; i < 7; i++ {
		body += `<tr><td><span class="editable-field">x</span></td></tr>`
	}
	doc, err := dom.ParseString(`<table class="itemtable"><thead><tr><th>Item</th></tr></thead><tbody>` + body + `</tbody></table>`)
	require.NoError(t, err)

	items, err := extract.New(nil, nil, nil).LineItems(doc)
	require.NoError(t, err)
	assert.Len(t, items, types.MaxLineItems)
}

func TestMissingItemTable(t *testing.T) {
	doc, err := dom.ParseString(`<div>nothing here</div>`)
	require.NoError(t, err)

	_, err = extract.New(nil, nil, nil).Extract(doc)
	assert.ErrorIs(t, err, extract.ErrMissingAnchor)
}
