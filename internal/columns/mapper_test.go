package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/form"
)

func TestMapColumnsDefaultForm(t *testing.T) {
	doc, err := form.New()
	require.NoError(t, err)

	m := NewMapper(nil, nil)
	got := m.MapColumns(doc)
	assert.Equal(t, ColumnMap{DragHandle, Item, Description, Quantity, Rate, Amount}, got)
	assert.Equal(t, []Kind{Item, Description, Quantity, Rate, Amount}, got.Order())
	assert.Equal(t, 3, got.Index(Quantity))
	assert.Equal(t, -1, got.Index(Options))
}

func TestMapColumnsIsIdempotent(t *testing.T) {
	doc, err := form.New()
	require.NoError(t, err)

	m := NewMapper(nil, nil)
	assert.Equal(t, m.MapColumns(doc), m.MapColumns(doc))
}

func TestMapColumnsAmbiguousHeaders(t *testing.T) {
	doc, err := dom.ParseString(`<table class="itemtable"><thead><tr>
		<th>::</th><th>Item#</th><th>Item Description</th><th>Qty</th><th>Unit Price</th><th>Total Price</th>
	</tr></thead><tbody></tbody></table>`)
	require.NoError(t, err)

	got := NewMapper(nil, nil).MapColumns(doc)
	assert.Equal(t, ColumnMap{DragHandle, Item, Description, Quantity, Rate, Amount}, got)
}

func TestClassify(t *testing.T) {
	m := NewMapper(nil, nil)
	tests := []struct {
		text  string
		index int
		want  Kind
	}{
		{"", 4, DragHandle},
		{"::", 2, DragHandle},
		{":: Qty ::", 0, Quantity},
		{"Qty\nID: lineItem1Qty", 5, Quantity},
		{"QTY", 1, Quantity},
		{"Options", 1, Options},
		{"Rate", 0, Rate},
		{"Total", 0, Amount},
		{"Unit Cost", 5, Rate},
		{"Mystery", 3, Quantity},
		{"Mystery", 7, Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Classify(tt.text, tt.index), "%q@%d", tt.text, tt.index)
	}
}

func TestCustomRulesTakePriority(t *testing.T) {
	m := NewMapper([]Rule{{Keyword: "Cost", Kind: Rate}, {Keyword: "Sum", Kind: Amount}}, nil)
	assert.Equal(t, Rate, m.Classify("Cost Each", 0))
	assert.Equal(t, Amount, m.Classify("Sum", 0))
	// Built-in keywords are not consulted once custom rules are set.
	assert.Equal(t, Item, m.Classify("Qty", 1))
}

func TestMapColumnsWithoutTable(t *testing.T) {
	doc, err := dom.ParseString(`<p>no table</p>`)
	require.NoError(t, err)
	assert.Empty(t, NewMapper(nil, nil).MapColumns(doc))
}

func TestParseKindAliases(t *testing.T) {
	k, ok := ParseKind("unitPrice")
	assert.True(t, ok)
	assert.Equal(t, Rate, k)

	k, ok = ParseKind("total")
	assert.True(t, ok)
	assert.Equal(t, Amount, k)

	_, ok = ParseKind("weight")
	assert.False(t, ok)
}
