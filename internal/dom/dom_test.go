package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const sample = `<html><body>
<table class="outer"><tr><td>
  <table class="inner"><tr><td>nested</td></tr></table>
</td></tr></table>
<table class="grid">
  <thead><tr><th>A</th><th>B</th><th>C</th></tr></thead>
  <tbody>
    <tr><td>1</td><td>2</td><td>3</td></tr>
    <tr><td>4</td><td>5</td><td>6</td></tr>
  </tbody>
</table>
<div id="box" style="width: 50%; display: none;" class="one two">Phone: <span class="editable-field">555</span></div>
</body></html>`

func TestOwnedRowsSkipsNestedTables(t *testing.T) {
	root, err := ParseString(sample)
	require.NoError(t, err)

	outer := Find(root, Class("outer"))
	require.NotNil(t, outer)
	assert.Len(t, OwnedRows(outer), 1)

	grid := Find(root, Class("grid"))
	require.NotNil(t, grid)
	header := HeaderRow(grid)
	require.NotNil(t, header)
	assert.Len(t, Cells(header), 3)
	assert.Len(t, BodyRows(grid), 2)
}

func TestSwapAdjacentAndDistant(t *testing.T) {
	root, err := ParseString(sample)
	require.NoError(t, err)
	header := HeaderRow(Find(root, Class("grid")))

	cells := Cells(header)
	require.NoError(t, Swap(cells[0], cells[1]))
	assert.Equal(t, []string{"B", "A", "C"}, texts(Cells(header)))

	cells = Cells(header)
	require.NoError(t, Swap(cells[0], cells[2]))
	assert.Equal(t, []string{"C", "A", "B"}, texts(Cells(header)))

	cells = Cells(header)
	require.NoError(t, Swap(cells[2], cells[1]))
	assert.Equal(t, []string{"C", "B", "A"}, texts(Cells(header)))
}

func TestSwapRejectsAncestor(t *testing.T) {
	root, err := ParseString(sample)
	require.NoError(t, err)
	outer := Find(root, Class("outer"))
	inner := Find(root, Class("inner"))
	assert.Error(t, Swap(outer, inner))
}

func TestClassesAndStyle(t *testing.T) {
	root, err := ParseString(sample)
	require.NoError(t, err)
	box := Find(root, ID("box"))
	require.NotNil(t, box)

	AddClass(box, "two", "three")
	assert.Equal(t, "one two three", GetAttr(box, "class"))
	RemoveClass(box, "one", "three")
	assert.Equal(t, "two", GetAttr(box, "class"))
	RemoveClass(box, "two")
	_, ok := Attr(box, "class")
	assert.False(t, ok)

	assert.True(t, IsHidden(box))
	SetStyleProp(box, "display", "block")
	SetStyleProp(box, "padding-left", "20px")
	assert.Equal(t, "width: 50%; display: block; padding-left: 20px;", GetAttr(box, "style"))
	RemoveStyleProp(box, "padding-left")
	assert.Equal(t, "width: 50%; display: block;", GetAttr(box, "style"))
	assert.False(t, IsHidden(box))
}

func TestTextHelpers(t *testing.T) {
	root, err := ParseString(sample)
	require.NoError(t, err)
	box := Find(root, ID("box"))

	assert.Equal(t, "Phone: 555", CollapseSpace(Text(box)))
	assert.Equal(t, "Phone:", CollapseSpace(TextExcluding(box, EditableField)))

	field := Find(box, EditableField)
	SetText(field, "777")
	assert.Equal(t, "777", Text(field))
	SetText(field, "")
	assert.Nil(t, field.FirstChild)
}

func texts(nodes []*html.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = CollapseSpace(Text(n))
	}
	return out
}
