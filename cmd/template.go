// =============================================================================
// Purchase Order Form Engine - Template Command
// =============================================================================
//
// COMMAND USAGE:
//   poform template blank.html     write the embedded blank form
//   poform template fields.xlsx    write a field workbook for --fields
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/purchase-order-xml/internal/fieldsource"
	"github.com/ginjaninja78/purchase-order-xml/internal/form"
	"github.com/ginjaninja78/purchase-order-xml/internal/generator"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

// templateSample pre-fills the field workbook with generated values.
var templateSample bool

var templateCmd = &cobra.Command{
	Use:   "template <path>",
	Short: "Write a blank form (.html) or a field workbook (.xlsx)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTemplate(args[0])
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().BoolVar(&templateSample, "sample", false, "Pre-fill the field workbook with generated values")
}

func runTemplate(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		if err := os.WriteFile(path, []byte(form.Default()), 0644); err != nil {
			return fmt.Errorf("failed to write form: %w", err)
		}
	case ".xlsx":
		var sample map[string]string
		if templateSample {
			sample = generator.NewRandom().Generate()
		}
		if err := fieldsource.WriteTemplate(path, types.FieldNames(), sample); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%s: %w", path, fieldsource.ErrUnsupportedFormat)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
