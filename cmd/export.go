// =============================================================================
// Purchase Order Form Engine - Export Command
// =============================================================================
//
// COMMAND USAGE:
//   poform export <form.html> [flags]
//
// FLAGS:
//   -o, --output : XML destination (default stdout)
//   --xlsx       : Also write an XLSX summary next to the XML
//   --pdf        : Also write a PDF preview next to the XML
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/form"
	"github.com/ginjaninja78/purchase-order-xml/internal/report"
	"github.com/ginjaninja78/purchase-order-xml/internal/validation"
	"github.com/ginjaninja78/purchase-order-xml/pkg/utils"
)

var (
	exportOutput string
	exportXLSX   bool
	exportPDF    bool
)

var exportCmd = &cobra.Command{
	Use:   "export <form.html>",
	Short: "Export one form to XML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(args[0])
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "XML destination (default stdout)")
	exportCmd.Flags().BoolVar(&exportXLSX, "xlsx", false, "Also write an XLSX summary next to the XML")
	exportCmd.Flags().BoolVar(&exportPDF, "pdf", false, "Also write a PDF preview next to the XML")
}

func runExport(formPath string) error {
	if (exportXLSX || exportPDF) && exportOutput == "" {
		return fmt.Errorf("--xlsx and --pdf need --output")
	}

	exporter, err := newExporter()
	if err != nil {
		return err
	}
	doc, err := form.Load(formPath)
	if err != nil {
		return err
	}
	out, err := exporter.Export(doc)
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", formPath, err)
	}

	result := validation.Validate(out.Snapshot)
	for _, w := range result.Errors {
		logger.Warn("validation", zap.String("field", w.Field), zap.String("message", w.Message))
	}

	if exportOutput == "" {
		_, err := fmt.Fprint(os.Stdout, out.XML)
		return err
	}
	if err := os.WriteFile(exportOutput, []byte(out.XML), 0644); err != nil {
		return fmt.Errorf("failed to write XML: %w", err)
	}
	if exportXLSX {
		if err := report.WriteXLSXFile(out.Snapshot, utils.SiblingPath(exportOutput, ".xlsx")); err != nil {
			return err
		}
	}
	if exportPDF {
		opts := report.PDFOptions{HeaderColor: out.Layout.HeaderColor}
		if err := report.WritePDFFile(out.Snapshot, utils.SiblingPath(exportOutput, ".pdf"), opts); err != nil {
			return err
		}
	}
	logger.Info("exported form",
		zap.String("form", formPath),
		zap.String("output", exportOutput),
		zap.Int("line_items", len(out.Snapshot.LineItems)))
	return nil
}

// =============================================================================
// SHARED FORM I/O
// =============================================================================

// loadForm reads path, or the default form when path is empty.
func loadForm(path string) (*html.Node, error) {
	if path == "" {
		return form.New()
	}
	return form.Load(path)
}

// writeForm saves doc to path, or prints it when path is empty.
func writeForm(doc *html.Node, path string) error {
	if path != "" {
		return form.Save(doc, path)
	}
	out, err := dom.Render(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, out)
	return err
}
