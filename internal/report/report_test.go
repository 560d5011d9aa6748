package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

func sampleSnapshot() *types.Snapshot {
	snap := &types.Snapshot{
		PONumber: "PO-424242",
		PODate:   "03/04/2025",
		Comments: "Deliver to the west dock. Café hours only.",
		LineItems: []types.LineItem{
			{ItemName: "A-1", Description: "Widget", Quantity: "2", Rate: "$10.50", Amount: "21.00"},
			{ItemName: "B-2", Description: "Gadget", Quantity: "1", Rate: "TBD"},
		},
		Totals: types.Totals{Subtotal: "21.00", Tax: "1.05", Total: "$22.05"},
	}
	snap.Company.Name = "Acme"
	snap.Vendor.Company = "Globex"
	snap.ShipTo.Name = "Dock 4"
	return snap
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(sampleSnapshot(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{OrderSheet, LineItemsSheet}, f.GetSheetList())

	name, err := f.GetCellValue(OrderSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "Acme", name)

	rows, err := f.GetRows(LineItemsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Widget", rows[1][2])
	assert.Equal(t, "TBD", rows[2][5])

	amount, err := f.GetCellValue(LineItemsSheet, "G2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "21", amount)
}

func TestWriteXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "po.xlsx")
	require.NoError(t, WriteXLSXFile(sampleSnapshot(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(OrderSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "companyName", v)

	assert.Error(t, WriteXLSX(nil, &bytes.Buffer{}))
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	opts := PDFOptions{HeaderColor: "#112233", Now: func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }}
	require.NoError(t, WritePDF(sampleSnapshot(), &buf, opts))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	path := filepath.Join(t.TempDir(), "po.pdf")
	require.NoError(t, WritePDFFile(&types.Snapshot{}, path, PDFOptions{}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, WritePDF(nil, &buf, opts))
}

func TestHexRGB(t *testing.T) {
	r, g, b := hexRGB("#102030")
	assert.Equal(t, []int{16, 32, 48}, []int{r, g, b})
	r, g, b = hexRGB("red")
	assert.Equal(t, []int{0x33, 0x33, 0x33}, []int{r, g, b})
}
