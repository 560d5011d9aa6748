// =============================================================================
// Purchase Order Form Engine - XML Writer Module
// =============================================================================
//
// This module generates the NetSuite PDF-report XML (big.faceless.org
// report-1.1 dialect) from a document snapshot and the current layout.
//
// XML STRUCTURE:
//   <?xml version="1.0"?><!DOCTYPE pdf PUBLIC "-//big.faceless.org//report" "report-1.1.dtd">
//   <pdf>
//   <head>
//       <meta .../>                      <!-- title, author, dates -->
//       <link name="NotoSans" .../>      <!-- ${nsfont.*} placeholders -->
//       <style>...</style>               <!-- header color injected -->
//   </head>
//   <body padding="0.5in" size="Letter">
//       header | vendor | shipping | items | comments   <!-- layout order -->
//       footer (contact info, authorized signature)
//   </body>
//   </pdf>
//
// FORMATTING RULES:
//   - Free text is XML-escaped (& < > " ').
//   - Totals go through currency.Format: one "$", grouping, two decimals.
//   - Line-item rate and amount are bare decimals (currency.FormatNumeric).
//   The tag names, class names and the totals/line-item asymmetry are part
//   of the downstream renderer's contract.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
	"github.com/ginjaninja78/purchase-order-xml/internal/currency"
	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

// ErrMissingAnchor is returned when a required form anchor is absent.
var ErrMissingAnchor = dom.ErrMissingAnchor

// DefaultHeaderColor is used when the form carries no readable color.
const DefaultHeaderColor = "#333333"

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// Options contains options for XML generation.
type Options struct {
	// Now stamps creationDate and modDate.
	// Default: time.Now()
	Now time.Time
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// GenerateXML creates the PDF-report XML for a snapshot.
//
// PARAMETERS:
//   - snap: The extracted document state.
//   - layout: Section order, pair placement, column order and header color.
//   - opts: Generation options.
//
// RETURNS:
//   - The complete XML document.
//   - An error if the snapshot is missing.
//
// GENERATION PROCESS:
//   1. Write the preamble, metadata, font link and style block
//   2. Emit each body block in layout.Sections order
//   3. Append the contact/signature footer
func GenerateXML(snap *types.Snapshot, layout Layout, opts Options) (string, error) {
	if snap == nil {
		return "", fmt.Errorf("generate xml: nil snapshot")
	}
	layout = layout.normalized()
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")

	var body bytes.Buffer
	for _, s := range layout.Sections {
		switch s {
		case sections.Header:
			body.WriteString(headerXML(snap, layout.Header))
		case sections.Vendor:
			body.WriteString(vendorXML(snap, layout.Vendor))
		case sections.Shipping:
			body.WriteString(shippingXML(snap))
		case sections.Items:
			body.WriteString(lineItemsXML(snap.LineItems, layout.Columns))
		case sections.Comments:
			body.WriteString(commentsXML(snap, layout.Comments))
		default:
			continue
		}
		body.WriteString("\n\n")
	}

	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, `<?xml version="1.0"?><!DOCTYPE pdf PUBLIC "-//big.faceless.org//report" "report-1.1.dtd">
<pdf>
<head>
    <meta name="title" value="Purchase Order"/>
    <meta name="author" value="Purchase Order Generator"/>
    <meta name="subject" value="Purchase Order"/>
    <meta name="creator" value="Purchase Order Generator"/>
    <meta name="producer" value="Purchase Order Generator"/>
    <meta name="creationDate" value="%[1]s"/>
    <meta name="modDate" value="%[1]s"/>
    <link name="NotoSans" type="font" subtype="truetype" src="${nsfont.NotoSans_Regular}" src-bold="${nsfont.NotoSans_Bold}" src-italic="${nsfont.NotoSans_Italic}" src-bolditalic="${nsfont.NotoSans_BoldItalic}" bytes="2" />
    <style>
        * { font-family: NotoSans, sans-serif; font-size: 9pt; }
        table { width: 100%%; border-collapse: collapse; }
        .header-company { font-size: 14pt; font-weight: bold; }
        .header-title { font-size: 20pt; font-weight: bold; background-color: %[2]s; color: #ffffff; padding: 6px; border: 1px solid #000; }
        .header-info { font-size: 10pt; }
        .section-header { background-color: %[2]s; color: #ffffff; font-weight: bold; padding: 6px; border: 1px solid #000; }
        .section-content { padding: 6px; border: 1px solid #000; vertical-align: top; }
        .item-header { background-color: %[2]s; color: #ffffff; font-weight: bold; padding: 8px; border: 1px solid #000; }
        .item-cell { padding: 6px; border: 1px solid #000; }
        .total-label { font-weight: bold; padding: 4px; }
        .total-amount { font-weight: bold; padding: 4px; background-color: #ffff99; }
        .comments-header { background-color: %[2]s; color: #ffffff; font-weight: bold; padding: 6px; border: 1px solid #000; }
        .comments-content { padding: 6px; border: 1px solid #000; min-height: 40px; }
        .contact-info { font-size: 8pt; }
    </style>
</head>
<body padding="0.5in" size="Letter">
    %[3]s

    <table style="margin-top: 20px;">
        <tr>
            <td class="contact-info" style="width: 70%%;">
                %[4]s
            </td>
            <td style="width: 30%%; text-align: center;">
                <table style="width: 100%%;">
                    <tr>
                        <td style="border-top: 1px solid #000; padding-top: 10px;">
                            Authorized Signature
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</pdf>`, stamp, layout.HeaderColor, body.String(),
		FormatContactInfo(snap.ContactInfo, snap.Company.Name, snap.Company.Phone))

	return buffer.String(), nil
}

// =============================================================================
// BODY BLOCKS
// =============================================================================

// pairSlots orders two rendered cells by the pair placement.
func pairSlots(p sections.Pair, first string, firstCell, secondCell string) (string, string) {
	if p.Left == first {
		return firstCell, secondCell
	}
	return secondCell, firstCell
}

func rowOf(left, right string) string {
	return `
        <tr>
            ` + left + `
            ` + right + `
        </tr>`
}

func headerXML(snap *types.Snapshot, order sections.Pair) string {
	company := companyInfoCell(snap, order.Left == sections.CompanyInfo)
	po := purchaseOrderCell(snap, order.Left == sections.PurchaseOrder)
	left, right := pairSlots(order, sections.CompanyInfo, company, po)
	return `
    <table>` + rowOf(left, right) + `
    </table>`
}

func companyInfoCell(snap *types.Snapshot, leftSide bool) string {
	align, textAlign, padding := ` align="right"`, "right", "padding-left: 110px;"
	if leftSide {
		align, textAlign, padding = "", "left", "padding-right: 20px;"
	}
	c := snap.Company
	return fmt.Sprintf(`
            <td style="width: 65%%; %[1]s"%[2]s>
                <table>
                    <tr>
                        <td class="header-company" style="text-align: %[3]s;">%[4]s</td>
                    </tr>
                    <tr>
                        <td style="text-align: %[3]s;">%[5]s</td>
                    </tr>
                    <tr>
                        <td style="text-align: %[3]s;">%[6]s</td>
                    </tr>
                    <tr>
                        <td style="text-align: %[3]s;">Phone: %[7]s</td>
                    </tr>
                    <tr>
                        <td style="text-align: %[3]s;">Fax: %[8]s</td>
                    </tr>
                    <tr>
                        <td style="text-align: %[3]s;">Website: %[9]s</td>
                    </tr>
                </table>
            </td>`, padding, align, textAlign,
		escapeXML(c.Name), escapeXML(c.Address), escapeXML(c.CityState),
		escapeXML(c.Phone), escapeXML(c.Fax), escapeXML(c.Website))
}

func purchaseOrderCell(snap *types.Snapshot, leftSide bool) string {
	align, textAlign, padding := ` align="right"`, "right", "padding-left: 20px;"
	if leftSide {
		align, textAlign, padding = "", "left", "padding-right: 30px;"
	}
	return fmt.Sprintf(`
            <td style="width: 35%%; %[1]s"%[2]s>
                <table>
                    <tr>
                        <td class="header-title" style="text-align: %[3]s;">PURCHASE ORDER</td>
                    </tr>
                    <tr>
                        <td style="text-align: %[3]s;">
                            <table style="width: 100%%;">
                                <tr>
                                    <td class="header-info" style="width: 30%%; text-align: left;"><b>DATE</b></td>
                                    <td class="header-info" style="width: 70%%; text-align: left;">%[4]s</td>
                                </tr>
                                <tr>
                                    <td class="header-info" style="width: 30%%; text-align: left;"><b>PO #</b></td>
                                    <td class="header-info" style="width: 70%%; text-align: left;">%[5]s</td>
                                </tr>
                            </table>
                        </td>
                    </tr>
                </table>
            </td>`, padding, align, textAlign, escapeXML(snap.PODate), escapeXML(snap.PONumber))
}

func vendorXML(snap *types.Snapshot, order sections.Pair) string {
	left, right := pairSlots(order, sections.VendorBlock, vendorCell(snap), shipToCell(snap))
	return `
    <table style="margin-top: 20px;">` + rowOf(left, right) + `
    </table>`
}

func addressCell(title string, lines [4]string, phone, fax string) string {
	return fmt.Sprintf(`
            <td style="width: 50%%;">
                <table>
                    <tr>
                        <td class="section-header">%s</td>
                    </tr>
                    <tr>
                        <td class="section-content">
                            %s<br/>
                            %s<br/>
                            %s<br/>
                            %s<br/>
                            Phone: %s<br/>
                            Fax: %s
                        </td>
                    </tr>
                </table>
            </td>`, title,
		escapeXML(lines[0]), escapeXML(lines[1]), escapeXML(lines[2]), escapeXML(lines[3]),
		escapeXML(phone), escapeXML(fax))
}

func vendorCell(snap *types.Snapshot) string {
	v := snap.Vendor
	return addressCell("VENDOR", [4]string{v.Company, v.Contact, v.Address, v.CityState}, v.Phone, v.Fax)
}

// shipToCell falls back to the company block for unset ship-to lines.
func shipToCell(snap *types.Snapshot) string {
	s, c := snap.ShipTo, snap.Company
	return addressCell("SHIP TO", [4]string{
		s.Name,
		orDefault(s.Company, c.Name),
		orDefault(s.Address, c.Address),
		orDefault(s.CityState, c.CityState),
	}, orDefault(s.Phone, c.Phone), s.Fax)
}

func shippingXML(snap *types.Snapshot) string {
	s := snap.Shipping
	return fmt.Sprintf(`    <table style="margin-top: 15px;">
        <tr>
            <td class="section-header" style="width: 25%%;">REQUISITIONER</td>
            <td class="section-header" style="width: 25%%;">SHIP VIA</td>
            <td class="section-header" style="width: 25%%;">F.O.B.</td>
            <td class="section-header" style="width: 25%%;">SHIPPING TERMS</td>
        </tr>
        <tr>
            <td class="section-content">%s</td>
            <td class="section-content">%s</td>
            <td class="section-content">%s</td>
            <td class="section-content">%s</td>
        </tr>
    </table>`, escapeXML(s.Requisitioner), escapeXML(s.ShipVia), escapeXML(s.FOB), escapeXML(s.Terms))
}

func commentsXML(snap *types.Snapshot, order sections.Pair) string {
	left, right := pairSlots(order, sections.CommentsBlock, commentsCell(snap), totalsCell(snap))
	return `
    <table style="margin-top: 15px;">` + rowOf(left, right) + `
    </table>`
}

func commentsCell(snap *types.Snapshot) string {
	return `
            <td style="width: 70%; vertical-align: top;">
                <table style="width: 100%; border: 1px solid #e5e7eb;">
                    <tr>
                        <td class="comments-header">Comments or Special Instructions</td>
                    </tr>
                    <tr>
                        <td class="comments-content" style="padding: 15px; height: 120px; vertical-align: top;">` + escapeXML(snap.Comments) + `</td>
                    </tr>
                </table>
            </td>`
}

func totalsCell(snap *types.Snapshot) string {
	t := snap.Totals
	rows := []struct {
		label, class, value string
	}{
		{"SUBTOTAL", "total-label", t.Subtotal},
		{"TAX", "total-label", t.Tax},
		{"SHIPPING", "total-label", t.Shipping},
		{"OTHER", "total-label", t.Other},
		{"TOTAL", "total-amount", t.Total},
	}

	var b strings.Builder
	b.WriteString(`
            <td style="width: 30%; padding: 0;">
                <table>`)
	for _, r := range rows {
		fmt.Fprintf(&b, `
                    <tr>
                        <td class="total-label" align="right">%s</td>
                        <td class="%s" align="right">%s</td>
                    </tr>`, r.label, r.class, escapeXML(currency.Format(r.value)))
	}
	b.WriteString(`
                </table>
            </td>`)
	return b.String()
}

// =============================================================================
// LINE ITEMS
// =============================================================================

var columnHeaders = map[columns.Kind]string{
	columns.Quantity:    "Quantity",
	columns.Item:        "Item",
	columns.Description: "Description",
	columns.Options:     "Options",
	columns.Rate:        "Rate",
	columns.Amount:      "Amount",
}

// ColumnAlignment returns the cell alignment for a header text.
func ColumnAlignment(headerText string) string {
	lower := strings.ToLower(headerText)
	for _, k := range []string{"rate", "amount", "price", "total"} {
		if strings.Contains(lower, k) {
			return "right"
		}
	}
	for _, k := range []string{"quantity", "qty", "options"} {
		if strings.Contains(lower, k) {
			return "center"
		}
	}
	return "left"
}

// ColumnSpan returns the colspan of a column kind.
func ColumnSpan(kind columns.Kind) int {
	switch kind {
	case columns.Item:
		return 3
	case columns.Description:
		return 12
	case columns.Quantity:
		return 2
	case columns.Rate, columns.Amount:
		return 3
	default:
		return 1
	}
}

func lineItemsXML(items []types.LineItem, order []columns.Kind) string {
	if len(items) == 0 {
		return ""
	}

	var headers strings.Builder
	for _, kind := range order {
		text := columnHeaders[kind]
		if text == "" {
			continue
		}
		fmt.Fprintf(&headers, `<td class="item-header" align="%s" colspan="%d">%s</td>`,
			ColumnAlignment(text), ColumnSpan(kind), escapeXML(strings.ToUpper(text)))
	}

	var rows strings.Builder
	for i := range items {
		rows.WriteString("\n        <tr>")
		for _, kind := range order {
			text := columnHeaders[kind]
			if text == "" {
				continue
			}
			value := items[i].Value(kind)
			if kind == columns.Rate || kind == columns.Amount {
				value = currency.FormatNumeric(value)
			}
			fmt.Fprintf(&rows, "\n            <td class=\"item-cell\" align=\"%s\" colspan=\"%d\">%s</td>",
				ColumnAlignment(text), ColumnSpan(kind), escapeXML(value))
		}
		rows.WriteString("\n        </tr>")
	}

	return `
    <table style="margin-top: 15px;">
        <tr>
            ` + headers.String() + `
        </tr>` + rows.String() + `
    </table>`
}

// =============================================================================
// CONTACT INFO
// =============================================================================

var (
	contactPattern    = regexp.MustCompile(`(?i)(For inquiries, contact)\s+([^at]+?)\s+at\s+([^or]+?)\s+or\s+(.+)`)
	emailPhonePattern = regexp.MustCompile(`(?i)(\S+@\S+\.\S+)\s*(or\s*)?(\d{3}[-.]?\d{3}[-.]?\d{4})`)
	phoneAtEnd        = regexp.MustCompile(`(.+)\s+(\d{3}[-.]?\d{3}[-.]?\d{4})$`)
)

// FormatContactInfo renders the footer contact text, breaking phone and
// email onto their own lines. Empty input yields a sentence built from the
// company name and phone.
func FormatContactInfo(contact, companyName, companyPhone string) string {
	contact = dom.CollapseSpace(contact)
	if contact == "" {
		fallback := "For questions about this purchase order, please contact " + orDefault(companyName, "us")
		if companyPhone != "" {
			fallback += " at " + companyPhone
		}
		return escapeXML(fallback)
	}

	switch {
	case contactPattern.MatchString(contact):
		contact = contactPattern.ReplaceAllStringFunc(contact, func(m string) string {
			g := contactPattern.FindStringSubmatch(m)
			return g[1] + " " + strings.TrimSpace(g[2]) + "<br/>at " + strings.TrimSpace(g[3]) + "<br/>or " + strings.TrimSpace(g[4])
		})
	case emailPhonePattern.MatchString(contact):
		contact = emailPhonePattern.ReplaceAllString(contact, "$1<br/>or $3")
	case phoneAtEnd.MatchString(contact):
		contact = phoneAtEnd.ReplaceAllString(contact, "$1<br/>$2")
	}

	return strings.ReplaceAll(escapeXML(contact), "&lt;br/&gt;", "<br/>")
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// escapeXML escapes special characters for XML and drops characters XML 1.0
// does not allow.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		case '\t', '\n', '\r':
			buffer.WriteRune(r)
		default:
			if r < 0x20 || r == 0xFFFE || r == 0xFFFF {
				continue
			}
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
