package reorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
)

func TestApplyDispatches(t *testing.T) {
	doc := newForm(t)
	e := New(DefaultPolicy(), nil, nil, nil)

	require.NoError(t, e.Apply(doc, Request{Op: OpColumns, From: 3, To: 4}))
	assert.Equal(t, []string{"::", "Item#", "Description", "Rate", "Qty", "Amount"}, headerTexts(doc))

	require.NoError(t, e.Apply(doc, Request{Op: OpSections, A: "shipping", B: "items"}))
	assert.Equal(t,
		[]sections.Section{sections.Header, sections.Vendor, sections.Items, sections.Shipping, sections.Comments},
		sections.SectionOrder(doc))

	require.NoError(t, e.Apply(doc, Request{Op: OpPair, Group: "vendor"}))
	assert.Equal(t, sections.ShipTo, sections.VendorOrder(doc).Left)

	require.NoError(t, e.Apply(doc, Request{Op: OpAddColumn, Title: "Notes"}))
	assert.Equal(t, "Notes", headerTexts(doc)[6])
	require.NoError(t, e.Apply(doc, Request{Op: OpRemoveColumn}))
	assert.Len(t, headerTexts(doc), 6)
}

func TestApplyRejects(t *testing.T) {
	doc := newForm(t)
	e := New(DefaultPolicy(), nil, nil, nil)

	assert.ErrorIs(t, e.Apply(doc, Request{Op: OpRows, From: 0, To: 1}), ErrRowReorderDisabled)
	assert.ErrorIs(t, e.Apply(doc, Request{Op: OpSections, A: "header", B: "footer"}), ErrNotDraggable)
	assert.ErrorIs(t, e.Apply(doc, Request{Op: OpPair, Group: "items"}), ErrNotDraggable)
	assert.ErrorIs(t, e.Apply(doc, Request{Op: "rotate"}), ErrNotDraggable)
}
