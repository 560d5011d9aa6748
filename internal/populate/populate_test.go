package populate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/extract"
	"github.com/ginjaninja78/purchase-order-xml/internal/form"
	"github.com/ginjaninja78/purchase-order-xml/internal/reorder"
	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

func TestApplyRoundTripsThroughExtract(t *testing.T) {
	doc, err := form.New()
	require.NoError(t, err)

	fields := map[string]string{
		"companyName":      "Acme Corp",
		"vendorPhone":      "555-0199",
		"shipToName":       "Dock 4",
		"poNumber":         "PO-123456",
		"tax":              "$$4.25",
		"lineItem1Item":    "A-1",
		"lineItem1Qty":     "3",
		"lineItem1Rate":    "2.50",
		"lineItem2Desc":    "Gizmo",
		"notAField":        "x",
		"lineItem1Options": "blue",
	}
	rep := New(nil, nil, nil).Apply(doc, fields)
	assert.Equal(t, []string{"notAField"}, rep.Unknown)
	assert.Equal(t, []string{"lineItem1Options"}, rep.Missing)
	assert.Len(t, rep.Applied, 9)

	snap, err := extract.New(nil, nil, nil).Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", snap.Company.Name)
	assert.Equal(t, "555-0199", snap.Vendor.Phone)
	assert.Equal(t, "Dock 4", snap.ShipTo.Name)
	assert.Equal(t, "$4.25", snap.Totals.Tax)
	require.Len(t, snap.LineItems, 2)
	assert.Equal(t, types.LineItem{ItemName: "A-1", Quantity: "3", Rate: "2.50"}, snap.LineItems[0])
	assert.Equal(t, "Gizmo", snap.LineItems[1].Description)
}

func TestApplyFollowsSwappedColumns(t *testing.T) {
	doc, err := form.New()
	require.NoError(t, err)
	require.NoError(t, reorder.New(reorder.DefaultPolicy(), nil, nil, nil).SwapColumns(doc, 1, 3))
	require.NoError(t, reorder.New(reorder.DefaultPolicy(), nil, nil, nil).SwapPair(doc, sections.VendorGroup))

	New(nil, nil, nil).Apply(doc, map[string]string{"lineItem1Qty": "7", "vendorCompany": "Globex"})

	snap, err := extract.New(nil, nil, nil).Extract(doc)
	require.NoError(t, err)
	require.Len(t, snap.LineItems, 1)
	assert.Equal(t, "7", snap.LineItems[0].Quantity)
	assert.Equal(t, "Globex", snap.Vendor.Company)
	assert.Empty(t, snap.ShipTo.Company)
}

func TestLocate(t *testing.T) {
	doc, err := form.New()
	require.NoError(t, err)
	p := New(nil, nil, nil)

	el, err := p.Locate(doc, "lineItem5Amount")
	require.NoError(t, err)
	assert.True(t, dom.HasClass(el, "editable-field"))

	_, err = p.Locate(doc, "bogus")
	assert.ErrorIs(t, err, types.ErrUnknownField)

	bare, err := dom.ParseString("<p>empty</p>")
	require.NoError(t, err)
	_, err = p.Locate(bare, "companyName")
	assert.ErrorIs(t, err, dom.ErrMissingAnchor)
	_, err = p.Locate(bare, "lineItem1Qty")
	assert.ErrorIs(t, err, dom.ErrMissingAnchor)
}

func TestClear(t *testing.T) {
	doc, err := form.New()
	require.NoError(t, err)
	New(nil, nil, nil).Apply(doc, map[string]string{"companyName": "Acme", "lineItem3Rate": "9"})

	n := Clear(doc)
	assert.Equal(t, len(dom.FindAll(doc, dom.EditableField)), n)

	snap, err := extract.New(nil, nil, nil).Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, &types.Snapshot{LineItems: []types.LineItem{}}, snap)
}
