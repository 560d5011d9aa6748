// =============================================================================
// Purchase Order Form Engine - Form Template Loader
// =============================================================================
//
// The default purchase-order form ships embedded in the binary. Callers either
// start from it (New) or load a previously edited form from disk (Load).
// Everything downstream assumes the form contract described in the template:
//
//   - table.container td          : holds the top-level swappable blocks
//   - .header-cell / .vendor-cell : left/right swappable pairs
//   - .comments-cell              : comments/totals pair
//   - table.itemtable             : thead header row + tbody line-item rows
//   - [data-section]              : semantic identity of each block
//   - #xmlModal / #xmlOutput      : export preview container
//
// =============================================================================

package form

import (
	_ "embed"
	"fmt"
	"os"

	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
)

//go:embed templates/purchase-order.html
var defaultTemplate string

// Default returns the raw HTML of the embedded form.
func Default() string {
	return defaultTemplate
}

// New parses a fresh copy of the embedded form.
func New() (*html.Node, error) {
	return dom.ParseString(defaultTemplate)
}

// Load parses a form document from disk.
func Load(path string) (*html.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open form file: %w", err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Save renders doc and writes it to path.
func Save(doc *html.Node, path string) error {
	out, err := dom.Render(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	return nil
}
