// =============================================================================
// Purchase Order Form Engine - Main Entry Point
// =============================================================================
//
// USAGE:
//   poform process    - Export every form in the input directory
//   poform export     - Export one form to XML
//   poform reorder    - Swap columns, rows, sections or pairs
//   poform populate   - Fill a form from a field source
//   poform validate   - Validate the configuration and a form
//   poform serve      - Serve the HTTP editor API
//
// ARCHITECTURE:
//   - cmd/       : Cobra command definitions
//   - internal/  : Form engine, export and editor API
//   - pkg/       : File management utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/purchase-order-xml/cmd"
)

func main() {
	cmd.Execute()
}
