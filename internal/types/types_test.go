package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
)

func TestSetAndGet(t *testing.T) {
	s := &Snapshot{}
	require.NoError(t, s.Set("vendorPhone", "555-0100"))
	require.NoError(t, s.Set("lineItem2Rate", "10.00"))

	assert.Equal(t, "555-0100", s.Vendor.Phone)
	require.Len(t, s.LineItems, 2)
	assert.Equal(t, "10.00", s.LineItems[1].Rate)
	assert.True(t, s.LineItems[0].IsEmpty())

	v, err := s.Get("lineItem2Rate")
	require.NoError(t, err)
	assert.Equal(t, "10.00", v)

	v, err = s.Get("lineItem4Qty")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestUnknownFieldsAreRejected(t *testing.T) {
	s := &Snapshot{}
	err := s.Set("favouriteColor", "blue")
	assert.True(t, errors.Is(err, ErrUnknownField))

	err = s.Set("lineItem6Qty", "1")
	assert.True(t, errors.Is(err, ErrUnknownField))

	_, err = s.Get("nope")
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestFromFields(t *testing.T) {
	s, unknown := FromFields(map[string]string{
		"companyName":   "Acme",
		"lineItem1Item": "W-1",
		"lineItem1Desc": "Widget",
		"madeUpField":   "x",
		"total":         "$20.00",
	})
	assert.Equal(t, []string{"madeUpField"}, unknown)
	assert.Equal(t, "Acme", s.Company.Name)
	assert.Equal(t, "$20.00", s.Totals.Total)
	require.Len(t, s.LineItems, 1)
	assert.Equal(t, "Widget", s.LineItems[0].Description)
}

func TestFieldsRoundTrip(t *testing.T) {
	s := &Snapshot{}
	require.NoError(t, s.Set("comments", "Rush"))
	require.NoError(t, s.Set("lineItem1Amount", "20.00"))

	back, unknown := FromFields(s.Fields())
	assert.Empty(t, unknown)
	assert.Equal(t, s, back)
}

func TestFieldNames(t *testing.T) {
	names := FieldNames()
	assert.Len(t, names, len(Fields)+MaxLineItems*6)
	for _, n := range names {
		assert.True(t, IsKnownField(n), n)
	}
}

func TestLineItemFieldNames(t *testing.T) {
	assert.Equal(t, "lineItem3Desc", LineItemField(3, columns.Description))
	row, kind, ok := ParseLineItemField("lineItem5Options")
	assert.True(t, ok)
	assert.Equal(t, 5, row)
	assert.Equal(t, columns.Options, kind)
	assert.Empty(t, LineItemField(1, columns.DragHandle))
}
