package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/ginjaninja78/purchase-order-xml/internal/currency"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

// PDFOptions configures the preview.
type PDFOptions struct {
	// HeaderColor is the #RRGGBB fill of the section bars. Default: #333333
	HeaderColor string

	// Now stamps the footer. Default: time.Now
	Now func() time.Time
}

// WritePDFFile writes the preview to path.
func WritePDFFile(snap *types.Snapshot, path string, opts PDFOptions) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create PDF: %w", err)
	}
	if err := WritePDF(snap, out, opts); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WritePDF renders a one-page A4 preview of the purchase order.
func WritePDF(snap *types.Snapshot, w io.Writer, opts PDFOptions) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r, g, b := hexRGB(opts.HeaderColor)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Title bar
	pdf.SetFillColor(r, g, b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(190, 12, "PURCHASE ORDER", "", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(120, 6, tr(snap.Company.Name))
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(70, 6, tr("Date: "+snap.PODate), "", 1, "R", false, 0, "")
	pdf.Cell(120, 5, tr(snap.Company.Address))
	pdf.CellFormat(70, 5, tr("PO #: "+snap.PONumber), "", 1, "R", false, 0, "")
	for _, line := range nonEmpty(snap.Company.CityState, phone("Phone: ", snap.Company.Phone), snap.Company.Website) {
		pdf.CellFormat(190, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section := func(x float64, width float64, title string) {
		pdf.SetX(x)
		pdf.SetFillColor(r, g, b)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(width, 6, title, "", 0, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	// Vendor and ship-to side by side
	y := pdf.GetY()
	section(10, 93, "VENDOR")
	section(107, 93, "SHIP TO")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	vendor := nonEmpty(snap.Vendor.Company, snap.Vendor.Contact, snap.Vendor.Address, snap.Vendor.CityState,
		phone("Phone: ", snap.Vendor.Phone), phone("Fax: ", snap.Vendor.Fax))
	shipTo := nonEmpty(snap.ShipTo.Name, snap.ShipTo.Company, snap.ShipTo.Address, snap.ShipTo.CityState,
		phone("Phone: ", snap.ShipTo.Phone), phone("Fax: ", snap.ShipTo.Fax))
	rows := max(len(vendor), len(shipTo))
	for i := 0; i < rows; i++ {
		pdf.SetX(10)
		pdf.Cell(97, 5, tr(at(vendor, i)))
		pdf.Cell(93, 5, tr(at(shipTo, i)))
		pdf.Ln(5)
	}
	pdf.SetY(max(pdf.GetY(), y+13) + 4)

	// Shipping row
	widths := []float64{50, 45, 45, 50}
	titles := []string{"REQUISITIONER", "SHIP VIA", "F.O.B.", "SHIPPING TERMS"}
	values := []string{snap.Shipping.Requisitioner, snap.Shipping.ShipVia, snap.Shipping.FOB, snap.Shipping.Terms}
	pdf.SetFillColor(r, g, b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 9)
	for i, t := range titles {
		pdf.CellFormat(widths[i], 6, t, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 9)
	for i, v := range values {
		pdf.CellFormat(widths[i], 6, tr(v), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(10)

	// Line items
	itemWidths := []float64{25, 85, 20, 30, 30}
	pdf.SetFillColor(r, g, b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 9)
	for i, t := range []string{"ITEM #", "DESCRIPTION", "QTY", "RATE", "AMOUNT"} {
		pdf.CellFormat(itemWidths[i], 7, t, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 9)
	for _, item := range snap.LineItems {
		pdf.CellFormat(itemWidths[0], 6, tr(item.ItemName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(itemWidths[1], 6, tr(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(itemWidths[2], 6, tr(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(itemWidths[3], 6, currency.Format(item.Rate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(itemWidths[4], 6, currency.Format(item.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	// Comments and totals
	y = pdf.GetY()
	section(10, 120, "Comments or Special Instructions")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 9)
	pdf.SetX(10)
	pdf.MultiCell(120, 5, tr(snap.Comments), "", "L", false)

	pdf.SetY(y)
	totals := []struct{ label, value string }{
		{"SUBTOTAL", snap.Totals.Subtotal},
		{"TAX", snap.Totals.Tax},
		{"SHIPPING", snap.Totals.Shipping},
		{"OTHER", snap.Totals.Other},
		{"TOTAL", snap.Totals.Total},
	}
	for _, t := range totals {
		style := ""
		if t.label == "TOTAL" {
			style = "B"
		}
		pdf.SetFont("Arial", style, 9)
		pdf.SetX(140)
		pdf.CellFormat(30, 6, t.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, currency.Format(t.value), "", 1, "R", false, 0, "")
	}

	if snap.ContactInfo != "" {
		pdf.SetY(-30)
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(190, 4, tr(snap.ContactInfo), "", "C", false)
	}
	pdf.SetY(-15)
	pdf.SetFont("Arial", "", 7)
	pdf.CellFormat(190, 4, "Generated "+opts.Now().Format("2006-01-02 15:04:05"), "", 0, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

func phone(label, v string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return label + v
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}

// hexRGB parses #RRGGBB; anything else yields the default #333333.
func hexRGB(hex string) (int, int, int) {
	var r, g, b int
	if _, err := fmt.Sscanf(strings.TrimPrefix(hex, "#"), "%02x%02x%02x", &r, &g, &b); err != nil || len(hex) != 7 {
		return 0x33, 0x33, 0x33
	}
	return r, g, b
}
