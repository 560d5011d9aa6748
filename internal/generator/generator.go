// =============================================================================
// Purchase Order Form Engine - Random Data Generator
// =============================================================================
//
// Produces plausible purchase order field maps for demos and tests. Output
// uses the field vocabulary of internal/types, so it can be handed straight
// to populate.Apply.
//
// Amounts are internally consistent: every line amount is Quantity x Rate,
// the subtotal is their sum and the total adds tax (5-12%), shipping and
// other charges.
//
// =============================================================================

package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

type city struct {
	name, state, zip string
}

type product struct {
	name, category string
	min, max       float64
}

var (
	companies = []string{
		"Acme Corporation", "Global Industries Inc", "Tech Solutions LLC", "Premier Manufacturing",
		"Elite Services Co", "Innovate Systems", "Metro Enterprises", "Alliance Group",
		"Summit Technologies", "Pacific Holdings", "Vertex Corp", "Nexus Industries",
		"Strategic Partners", "Dynamic Solutions", "Pinnacle Group", "Fusion Systems",
	}

	firstNames = []string{
		"John", "Sarah", "Michael", "Emily", "David", "Jessica", "Robert", "Ashley",
		"William", "Amanda", "James", "Jennifer", "Christopher", "Lisa", "Daniel", "Michelle",
	}

	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas",
	}

	streets = []string{
		"Main Street", "Oak Avenue", "Maple Drive", "Cedar Lane", "Pine Road",
		"First Street", "Second Avenue", "Park Place", "Washington Blvd", "Lincoln Way",
		"Jefferson Drive", "Madison Court", "Franklin Street", "Roosevelt Road", "Kennedy Avenue",
	}

	cities = []city{
		{"New York", "NY", "10001"},
		{"Los Angeles", "CA", "90210"},
		{"Chicago", "IL", "60601"},
		{"Houston", "TX", "77001"},
		{"Phoenix", "AZ", "85001"},
		{"Philadelphia", "PA", "19101"},
		{"San Antonio", "TX", "78201"},
		{"San Diego", "CA", "92101"},
		{"Dallas", "TX", "75201"},
		{"San Jose", "CA", "95101"},
		{"Austin", "TX", "73301"},
		{"Jacksonville", "FL", "32099"},
		{"Fort Worth", "TX", "76101"},
		{"Columbus", "OH", "43085"},
		{"Charlotte", "NC", "28201"},
	}

	products = []product{
		{"Office Chair", "Furniture", 150, 800},
		{"Standing Desk", "Furniture", 300, 1200},
		{"Laptop Computer", "Electronics", 800, 3000},
		{"Wireless Mouse", "Electronics", 25, 150},
		{"LED Monitor", "Electronics", 200, 800},
		{"Office Supplies Kit", "Supplies", 50, 200},
		{"Printer Paper", "Supplies", 15, 80},
		{"Conference Table", "Furniture", 500, 2500},
		{"Wireless Keyboard", "Electronics", 75, 300},
		{"Filing Cabinet", "Furniture", 100, 600},
		{"Webcam", "Electronics", 50, 250},
		{"Desk Lamp", "Furniture", 30, 150},
		{"Whiteboard", "Supplies", 75, 400},
		{"Ergonomic Keyboard", "Electronics", 100, 350},
		{"Storage Cabinet", "Furniture", 200, 800},
	}

	options = []string{"Standard", "Premium", "Deluxe", "Basic"}

	shippingMethods = []string{
		"FedEx Ground", "UPS Ground", "USPS Priority", "DHL Express",
		"FedEx Express", "UPS Next Day", "Standard Shipping", "Express Delivery",
	}

	fobTerms = []string{
		"Origin", "Destination", "FOB Shipping Point", "FOB Destination",
		"Prepaid", "Collect", "Freight Collect", "Freight Prepaid",
	}

	paymentTerms = []string{
		"Net 30", "Net 15", "Net 60", "2/10 Net 30", "1/10 Net 30",
		"Due on Receipt", "COD", "Net 45", "3/10 Net 30", "Prepaid",
	}

	comments = []string{
		"Please ensure all items are delivered by the requested date.",
		"Contact receiving department before delivery.",
		"All items must meet company quality standards.",
		"Delivery to loading dock on west side of building.",
		"Please provide tracking information once shipped.",
		"Items needed for upcoming project deadline.",
		"Confirm delivery date before processing order.",
		"Quality inspection required upon delivery.",
		"Rush order - expedited shipping preferred.",
		"Standard delivery during business hours only.",
	}

	poPrefixes = []string{"PO", "PUR", "ORD"}

	nonAlnum = regexp.MustCompile(`[^a-z0-9]`)
)

// Generator produces random field maps. It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
	now func() time.Time

	// LineItems is the number of line items to fill, capped at
	// types.MaxLineItems.
	LineItems int

	// WithOptions also fills the lineItemNOptions fields.
	WithOptions bool
}

// New returns a Generator seeded with seed.
func New(seed uint64) *Generator {
	return &Generator{
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:       time.Now,
		LineItems: types.MaxLineItems,
	}
}

// NewRandom returns a Generator with a random seed.
func NewRandom() *Generator {
	return New(rand.Uint64())
}

func (g *Generator) choice(list []string) string {
	return list[g.rng.IntN(len(list))]
}

// number returns an integer in [min, max].
func (g *Generator) number(min, max int) int {
	return min + g.rng.IntN(max-min+1)
}

// cents returns an amount in [min, max) rounded to cents.
func (g *Generator) cents(min, max float64) float64 {
	return round2(min + g.rng.Float64()*(max-min))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func money(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func (g *Generator) phone() string {
	return fmt.Sprintf("(%d) %d-%d", g.number(200, 999), g.number(200, 999), g.number(1000, 9999))
}

func (g *Generator) person() string {
	return g.choice(firstNames) + " " + g.choice(lastNames)
}

func (g *Generator) address() (street, cityState string) {
	c := cities[g.rng.IntN(len(cities))]
	return fmt.Sprintf("%d %s", g.number(100, 9999), g.choice(streets)),
		fmt.Sprintf("%s, %s %s", c.name, c.state, c.zip)
}

// Website derives a www domain from a company name.
func Website(company string) string {
	return "www." + nonAlnum.ReplaceAllString(strings.ToLower(company), "") + ".com"
}

// PONumber returns a PO-, PUR- or ORD- prefixed six digit number.
func (g *Generator) PONumber() string {
	return fmt.Sprintf("%s-%d", g.choice(poPrefixes), g.number(100000, 999999))
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate returns a complete field map.
func (g *Generator) Generate() map[string]string {
	out := make(map[string]string, len(types.FieldNames()))

	company := g.choice(companies)
	out["companyName"] = company
	out["companyAddress"], out["companyCityState"] = g.address()
	out["companyPhone"] = g.phone()
	out["companyFax"] = g.phone()
	out["companyWebsite"] = Website(company)
	out["poDate"] = g.now().Format("01/02/2006")
	out["poNumber"] = g.PONumber()

	out["vendorCompany"] = g.choice(companies)
	out["vendorContact"] = g.person()
	out["vendorAddress"], out["vendorCityState"] = g.address()
	out["vendorPhone"] = g.phone()
	out["vendorFax"] = g.phone()

	out["shipToName"] = g.person()
	out["shipToCompany"] = g.choice(companies)
	out["shipToAddress"], out["shipToCityState"] = g.address()
	out["shipToPhone"] = g.phone()
	out["shipToFax"] = g.phone()

	out["requisitioner"] = g.person()
	out["shipVia"] = g.choice(shippingMethods)
	out["fob"] = g.choice(fobTerms)
	out["shippingTerms"] = g.choice(paymentTerms)

	subtotal := g.lineItems(out)
	tax := round2(subtotal * (0.05 + g.rng.Float64()*0.07))
	shipping := g.cents(15, 75)
	other := g.cents(0, 25)
	out["subtotal"] = money(subtotal)
	out["tax"] = money(tax)
	out["shipping"] = money(shipping)
	out["other"] = money(other)
	out["total"] = money(subtotal + tax + shipping + other)

	out["comments"] = g.choice(comments)
	out["contactInfo"] = fmt.Sprintf("For questions regarding this order, contact %s at %s", g.person(), g.phone())
	return out
}

// lineItems fills the line-item fields and returns the subtotal.
func (g *Generator) lineItems(out map[string]string) float64 {
	count := min(max(g.LineItems, 0), types.MaxLineItems)
	var subtotal float64
	for i := 1; i <= count; i++ {
		p := products[g.rng.IntN(len(products))]
		qty := g.number(1, 10)
		rate := g.cents(p.min, p.max)
		amount := round2(float64(qty) * rate)

		out[types.LineItemField(i, columns.Quantity)] = strconv.Itoa(qty)
		out[types.LineItemField(i, columns.Item)] = p.name
		out[types.LineItemField(i, columns.Description)] = p.category + " - " + p.name
		out[types.LineItemField(i, columns.Rate)] = money(rate)
		out[types.LineItemField(i, columns.Amount)] = money(amount)
		if g.WithOptions {
			out[types.LineItemField(i, columns.Options)] = g.choice(options)
		}
		subtotal += amount
	}
	return round2(subtotal)
}
