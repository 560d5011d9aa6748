// =============================================================================
// Purchase Order Form Engine - Shared Types
// =============================================================================
//
// This package contains the document snapshot and the field vocabulary shared
// across modules to avoid import cycles. Types defined here are used by:
//   - extract    (builds snapshots from the live form)
//   - populate   (writes field maps back into the form)
//   - xmlwriter  (serializes snapshots)
//   - validation (reports filled/empty fields)
//   - generator / llm / fieldsource (produce field maps)
//
// FIELD VOCABULARY:
//   Field names are a closed allow-list (see Fields and LineItemField).
//   Anything else handed to Snapshot.Set is rejected with ErrUnknownField.
//
// =============================================================================

package types

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
)

// MaxLineItems is the number of line-item rows the form carries.
const MaxLineItems = 5

// ErrUnknownField is returned for field names outside the vocabulary.
var ErrUnknownField = errors.New("unknown field")

// =============================================================================
// SNAPSHOT TYPES
// =============================================================================

// CompanyInfo is the issuing company block.
type CompanyInfo struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	CityState string `json:"cityState"`
	Phone     string `json:"phone"`
	Fax       string `json:"fax"`
	Website   string `json:"website"`
}

// VendorInfo is the vendor block.
type VendorInfo struct {
	Company   string `json:"company"`
	Contact   string `json:"contact"`
	Address   string `json:"address"`
	CityState string `json:"cityState"`
	Phone     string `json:"phone"`
	Fax       string `json:"fax"`
}

// ShipToInfo is the ship-to block.
type ShipToInfo struct {
	Name      string `json:"name"`
	Company   string `json:"company"`
	Address   string `json:"address"`
	CityState string `json:"cityState"`
	Phone     string `json:"phone"`
	Fax       string `json:"fax"`
}

// ShippingInfo is the requisitioner / ship via / F.O.B. / terms strip.
type ShippingInfo struct {
	Requisitioner string `json:"requisitioner"`
	ShipVia       string `json:"shipVia"`
	FOB           string `json:"fob"`
	Terms         string `json:"terms"`
}

// LineItem is one row of the item table. Rate and Amount hold raw
// monetary strings; Amount may be a manual override of Quantity x Rate.
type LineItem struct {
	Quantity    string `json:"quantity"`
	ItemName    string `json:"itemName"`
	Description string `json:"description"`
	Options     string `json:"options,omitempty"`
	Rate        string `json:"rate"`
	Amount      string `json:"amount"`
}

// Totals is the totals block.
type Totals struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Shipping string `json:"shipping"`
	Other    string `json:"other"`
	Total    string `json:"total"`
}

// Snapshot is the complete semantic state of one purchase order at the time
// it was read. It is rebuilt from the form on every export.
type Snapshot struct {
	Company     CompanyInfo  `json:"company"`
	PODate      string       `json:"poDate"`
	PONumber    string       `json:"poNumber"`
	Vendor      VendorInfo   `json:"vendor"`
	ShipTo      ShipToInfo   `json:"shipTo"`
	Shipping    ShippingInfo `json:"shipping"`
	LineItems   []LineItem   `json:"lineItems"`
	Totals      Totals       `json:"totals"`
	Comments    string       `json:"comments"`
	ContactInfo string       `json:"contactInfo"`
}

// Value returns the cell value for a column kind.
func (li *LineItem) Value(kind columns.Kind) string {
	if p := li.field(kind); p != nil {
		return *p
	}
	return ""
}

// SetValue stores the cell value for a column kind. Non-data kinds are
// ignored.
func (li *LineItem) SetValue(kind columns.Kind, v string) {
	if p := li.field(kind); p != nil {
		*p = v
	}
}

// IsEmpty reports whether every field of the line item is blank.
func (li *LineItem) IsEmpty() bool {
	for _, k := range columns.DataKinds {
		if li.Value(k) != "" {
			return false
		}
	}
	return true
}

func (li *LineItem) field(kind columns.Kind) *string {
	switch kind {
	case columns.Quantity:
		return &li.Quantity
	case columns.Item:
		return &li.ItemName
	case columns.Description:
		return &li.Description
	case columns.Options:
		return &li.Options
	case columns.Rate:
		return &li.Rate
	case columns.Amount:
		return &li.Amount
	}
	return nil
}

// =============================================================================
// FIELD VOCABULARY
// =============================================================================

// FieldSpec binds a label-located field to its place in the form.
type FieldSpec struct {
	// Name is the field name used in field maps ("vendorPhone").
	Name string

	// Section is the data-section of the containing block.
	Section string

	// Label is the visible label text next to the value.
	Label string

	// Monetary marks values that are currency amounts.
	Monetary bool

	ref func(*Snapshot) *string
}

// Fields lists every label-located field in canonical order.
var Fields = []FieldSpec{
	{Name: "companyName", Section: "company-info", Label: "Company Name", ref: func(s *Snapshot) *string { return &s.Company.Name }},
	{Name: "companyAddress", Section: "company-info", Label: "Street Address", ref: func(s *Snapshot) *string { return &s.Company.Address }},
	{Name: "companyCityState", Section: "company-info", Label: "City, ST ZIP", ref: func(s *Snapshot) *string { return &s.Company.CityState }},
	{Name: "companyPhone", Section: "company-info", Label: "Phone", ref: func(s *Snapshot) *string { return &s.Company.Phone }},
	{Name: "companyFax", Section: "company-info", Label: "Fax", ref: func(s *Snapshot) *string { return &s.Company.Fax }},
	{Name: "companyWebsite", Section: "company-info", Label: "Website", ref: func(s *Snapshot) *string { return &s.Company.Website }},

	{Name: "poDate", Section: "purchase-order", Label: "Date", ref: func(s *Snapshot) *string { return &s.PODate }},
	{Name: "poNumber", Section: "purchase-order", Label: "PO #", ref: func(s *Snapshot) *string { return &s.PONumber }},

	{Name: "vendorCompany", Section: "vendor", Label: "Company Name", ref: func(s *Snapshot) *string { return &s.Vendor.Company }},
	{Name: "vendorContact", Section: "vendor", Label: "Contact", ref: func(s *Snapshot) *string { return &s.Vendor.Contact }},
	{Name: "vendorAddress", Section: "vendor", Label: "Street Address", ref: func(s *Snapshot) *string { return &s.Vendor.Address }},
	{Name: "vendorCityState", Section: "vendor", Label: "City, ST ZIP", ref: func(s *Snapshot) *string { return &s.Vendor.CityState }},
	{Name: "vendorPhone", Section: "vendor", Label: "Phone", ref: func(s *Snapshot) *string { return &s.Vendor.Phone }},
	{Name: "vendorFax", Section: "vendor", Label: "Fax", ref: func(s *Snapshot) *string { return &s.Vendor.Fax }},

	{Name: "shipToName", Section: "ship-to", Label: "Name", ref: func(s *Snapshot) *string { return &s.ShipTo.Name }},
	{Name: "shipToCompany", Section: "ship-to", Label: "Company Name", ref: func(s *Snapshot) *string { return &s.ShipTo.Company }},
	{Name: "shipToAddress", Section: "ship-to", Label: "Street Address", ref: func(s *Snapshot) *string { return &s.ShipTo.Address }},
	{Name: "shipToCityState", Section: "ship-to", Label: "City, ST ZIP", ref: func(s *Snapshot) *string { return &s.ShipTo.CityState }},
	{Name: "shipToPhone", Section: "ship-to", Label: "Phone", ref: func(s *Snapshot) *string { return &s.ShipTo.Phone }},
	{Name: "shipToFax", Section: "ship-to", Label: "Fax", ref: func(s *Snapshot) *string { return &s.ShipTo.Fax }},

	{Name: "requisitioner", Section: "shipping", Label: "Requisitioner", ref: func(s *Snapshot) *string { return &s.Shipping.Requisitioner }},
	{Name: "shipVia", Section: "shipping", Label: "Ship Via", ref: func(s *Snapshot) *string { return &s.Shipping.ShipVia }},
	{Name: "fob", Section: "shipping", Label: "F.O.B.", ref: func(s *Snapshot) *string { return &s.Shipping.FOB }},
	{Name: "shippingTerms", Section: "shipping", Label: "Shipping Terms", ref: func(s *Snapshot) *string { return &s.Shipping.Terms }},

	{Name: "subtotal", Section: "totals", Label: "Subtotal", Monetary: true, ref: func(s *Snapshot) *string { return &s.Totals.Subtotal }},
	{Name: "tax", Section: "totals", Label: "Tax", Monetary: true, ref: func(s *Snapshot) *string { return &s.Totals.Tax }},
	{Name: "shipping", Section: "totals", Label: "Shipping", Monetary: true, ref: func(s *Snapshot) *string { return &s.Totals.Shipping }},
	{Name: "other", Section: "totals", Label: "Other", Monetary: true, ref: func(s *Snapshot) *string { return &s.Totals.Other }},
	{Name: "total", Section: "totals", Label: "Total", Monetary: true, ref: func(s *Snapshot) *string { return &s.Totals.Total }},

	{Name: "comments", Section: "comments", Label: "Comments", ref: func(s *Snapshot) *string { return &s.Comments }},
	{Name: "contactInfo", Section: "footer", Label: "Contact", ref: func(s *Snapshot) *string { return &s.ContactInfo }},
}

// LookupField returns the spec of a label-located field.
func LookupField(name string) (FieldSpec, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Ref returns a pointer to the field's storage inside s.
func (f FieldSpec) Ref(s *Snapshot) *string {
	return f.ref(s)
}

// lineItemSuffixes maps field-name suffixes to column kinds.
var lineItemSuffixes = []struct {
	suffix string
	kind   columns.Kind
}{
	{"Qty", columns.Quantity},
	{"Item", columns.Item},
	{"Desc", columns.Description},
	{"Options", columns.Options},
	{"Rate", columns.Rate},
	{"Amount", columns.Amount},
}

var lineItemPattern = regexp.MustCompile(`^lineItem([1-9][0-9]*)(Qty|Item|Desc|Options|Rate|Amount)$`)

// LineItemField builds the field name of a line-item cell (row is 1-based).
func LineItemField(row int, kind columns.Kind) string {
	for _, s := range lineItemSuffixes {
		if s.kind == kind {
			return "lineItem" + strconv.Itoa(row) + s.suffix
		}
	}
	return ""
}

// ParseLineItemField splits "lineItem3Rate" into (3, rate).
func ParseLineItemField(name string) (int, columns.Kind, bool) {
	m := lineItemPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, columns.Unknown, false
	}
	row, _ := strconv.Atoi(m[1])
	if row < 1 || row > MaxLineItems {
		return 0, columns.Unknown, false
	}
	for _, s := range lineItemSuffixes {
		if s.suffix == m[2] {
			return row, s.kind, true
		}
	}
	return 0, columns.Unknown, false
}

// IsKnownField reports whether name belongs to the field vocabulary.
func IsKnownField(name string) bool {
	if _, ok := LookupField(name); ok {
		return true
	}
	_, _, ok := ParseLineItemField(name)
	return ok
}

// FieldNames returns the full vocabulary in canonical order.
func FieldNames() []string {
	out := make([]string, 0, len(Fields)+MaxLineItems*len(lineItemSuffixes))
	for _, f := range Fields {
		out = append(out, f.Name)
	}
	for row := 1; row <= MaxLineItems; row++ {
		for _, s := range lineItemSuffixes {
			out = append(out, LineItemField(row, s.kind))
		}
	}
	return out
}

// =============================================================================
// FIELD MAP CONVERSION
// =============================================================================

// Get returns the value of a named field.
func (s *Snapshot) Get(name string) (string, error) {
	if f, ok := LookupField(name); ok {
		return *f.Ref(s), nil
	}
	if row, kind, ok := ParseLineItemField(name); ok {
		if row > len(s.LineItems) {
			return "", nil
		}
		return s.LineItems[row-1].Value(kind), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Set stores the value of a named field, growing the line-item list when a
// later row is addressed.
func (s *Snapshot) Set(name, value string) error {
	if f, ok := LookupField(name); ok {
		*f.Ref(s) = value
		return nil
	}
	if row, kind, ok := ParseLineItemField(name); ok {
		for len(s.LineItems) < row {
			s.LineItems = append(s.LineItems, LineItem{})
		}
		s.LineItems[row-1].SetValue(kind, value)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Fields returns the snapshot as a flat field map. Empty values are kept.
func (s *Snapshot) Fields() map[string]string {
	out := make(map[string]string, len(Fields)+len(s.LineItems)*len(lineItemSuffixes))
	for _, f := range Fields {
		out[f.Name] = *f.Ref(s)
	}
	for i := range s.LineItems {
		for _, suf := range lineItemSuffixes {
			out[LineItemField(i+1, suf.kind)] = s.LineItems[i].Value(suf.kind)
		}
	}
	return out
}

// FromFields builds a snapshot from a field map. Unknown keys are returned
// separately rather than silently dropped.
func FromFields(fields map[string]string) (*Snapshot, []string) {
	s := &Snapshot{}
	var unknown []string
	for _, name := range sortedKeys(fields) {
		if err := s.Set(name, fields[name]); err != nil {
			unknown = append(unknown, name)
		}
	}
	return s, unknown
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
