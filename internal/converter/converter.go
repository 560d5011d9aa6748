// =============================================================================
// Purchase Order Form Engine - Converter Module
// =============================================================================
//
// This module contains the export pipeline. The Exporter turns a live form
// document into the PDF-report XML; the Converter runs that export for one
// form file on disk.
//
// CONVERSION PIPELINE (Converter.Run):
//   1. Load the form file
//   2. Extract the snapshot and read the layout
//   3. Apply the configured field transforms
//   4. Validate the snapshot (warnings only)
//   5. Generate the XML document
//   6. Write the output file and optional XLSX/PDF side outputs
//   7. Archive the processed files
//
// CONCURRENCY:
//   An Exporter holds no per-document state and may be shared by the
//   goroutines of a batch run. Each form gets its own Converter.
//
// =============================================================================

package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
	"github.com/ginjaninja78/purchase-order-xml/internal/config"
	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/extract"
	"github.com/ginjaninja78/purchase-order-xml/internal/form"
	"github.com/ginjaninja78/purchase-order-xml/internal/report"
	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
	"github.com/ginjaninja78/purchase-order-xml/internal/validation"
	"github.com/ginjaninja78/purchase-order-xml/internal/xmlwriter"
	"github.com/ginjaninja78/purchase-order-xml/pkg/utils"
)

// Preview container anchors.
const (
	PreviewModalID  = "xmlModal"
	PreviewOutputID = "xmlOutput"
)

// =============================================================================
// EXPORTER
// =============================================================================

// Output is the product of one export.
type Output struct {
	XML      string
	Snapshot *types.Snapshot
	Layout   xmlwriter.Layout
}

// Exporter turns form documents into XML.
type Exporter struct {
	mapper      *columns.Mapper
	locator     *sections.Locator
	extractor   *extract.Extractor
	transformer *Transformer
	cfg         config.ExportConfig
	logger      *zap.Logger

	// now stamps creationDate/modDate. Default: time.Now
	now func() time.Time
}

// NewExporter builds an Exporter from the export and column settings.
//
// PARAMETERS:
//   - cfg: The main configuration; nil uses the defaults.
//   - logger: Nil means no logging.
//
// RETURNS:
//   - An error if the column rules or field transforms are invalid.
func NewExporter(cfg *config.MainConfig, logger *zap.Logger) (*Exporter, error) {
	if cfg == nil {
		cfg = config.DefaultMainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rules, err := cfg.ColumnRules()
	if err != nil {
		return nil, err
	}
	transformer, err := NewTransformer(cfg.Export.Transforms)
	if err != nil {
		return nil, err
	}

	mapper := columns.NewMapper(rules, logger)
	locator := sections.NewLocator(logger)
	return &Exporter{
		mapper:      mapper,
		locator:     locator,
		extractor:   extract.New(mapper, locator, logger),
		transformer: transformer,
		cfg:         cfg.Export,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Mapper returns the column mapper shared with the editor components.
func (e *Exporter) Mapper() *columns.Mapper { return e.mapper }

// Locator returns the section locator shared with the editor components.
func (e *Exporter) Locator() *sections.Locator { return e.locator }

// Extract reads the form state as it is, without field transforms.
func (e *Exporter) Extract(doc *html.Node) (*types.Snapshot, error) {
	return e.extractor.Extract(doc)
}

// Snapshot extracts the form state and applies the field transforms.
func (e *Exporter) Snapshot(doc *html.Node) (*types.Snapshot, error) {
	snap, err := e.extractor.Extract(doc)
	if err != nil {
		return nil, err
	}
	if err := e.transformer.Apply(snap); err != nil {
		return nil, fmt.Errorf("failed to apply transformations: %w", err)
	}
	return snap, nil
}

// Export generates the XML for the current state of doc.
//
// RETURNS:
//   - The XML with the snapshot and layout it was built from.
//   - ErrMissingAnchor (wrapped) if the item table is missing, or the
//     preview container is missing while it is required.
func (e *Exporter) Export(doc *html.Node) (*Output, error) {
	if e.cfg.RequirePreviewAnchor {
		if _, _, err := previewAnchors(doc); err != nil {
			return nil, err
		}
	}

	layout, err := xmlwriter.LayoutOf(doc, e.mapper, e.cfg.DefaultHeaderColor)
	if err != nil {
		return nil, err
	}
	snap, err := e.Snapshot(doc)
	if err != nil {
		return nil, err
	}

	xml, err := xmlwriter.GenerateXML(snap, layout, xmlwriter.Options{Now: e.now()})
	if err != nil {
		return nil, fmt.Errorf("failed to generate XML: %w", err)
	}

	e.logger.Debug("exported form",
		zap.String("po", snap.PONumber),
		zap.Int("line_items", len(snap.LineItems)),
		zap.String("header_color", layout.HeaderColor))
	return &Output{XML: xml, Snapshot: snap, Layout: layout}, nil
}

// RefreshPreview re-renders the XML into #xmlOutput while #xmlModal is
// open. A closed modal, or a form without the container, is left alone
// unless the container is required.
func (e *Exporter) RefreshPreview(doc *html.Node) error {
	modal, output, err := previewAnchors(doc)
	if err != nil {
		if e.cfg.RequirePreviewAnchor {
			return err
		}
		return nil
	}
	if dom.IsHidden(modal) {
		return nil
	}

	out, err := e.Export(doc)
	if err != nil {
		return err
	}
	dom.SetText(output, out.XML)
	e.logger.Debug("preview refreshed", zap.Int("bytes", len(out.XML)))
	return nil
}

func previewAnchors(doc *html.Node) (modal, output *html.Node, err error) {
	modal = dom.Find(doc, dom.ID(PreviewModalID))
	if modal == nil {
		return nil, nil, fmt.Errorf("preview container #%s: %w", PreviewModalID, xmlwriter.ErrMissingAnchor)
	}
	output = dom.Find(modal, dom.ID(PreviewOutputID))
	if output == nil {
		return nil, nil, fmt.Errorf("preview container #%s: %w", PreviewOutputID, xmlwriter.ErrMissingAnchor)
	}
	return modal, output, nil
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single form file.
type Result struct {
	// FilePath is the path to the form that was processed.
	FilePath string

	// OutputFile is the path to the generated XML file.
	// This is empty if processing failed.
	OutputFile string

	// SideOutputs lists the XLSX/PDF files written next to the XML.
	SideOutputs []string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// PONumber is the PO number read from the form.
	PONumber string

	// LineItems is the number of line items exported.
	LineItems int

	// FilledFields is the number of filled header and totals fields.
	FilledFields int

	// ValidationWarnings counts warnings; they never block the export.
	ValidationWarnings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter exports a single form file.
type Converter struct {
	formPath   string
	exporter   *Exporter
	mainConfig *config.MainConfig
	files      *utils.FileManager
	logger     *zap.Logger
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - formPath: The path to the form file.
//   - exporter: The shared exporter.
//   - mainConfig: The main application configuration.
//   - files: Output naming and archival.
//   - logger: Nil means no logging.
func New(formPath string, exporter *Exporter, mainConfig *config.MainConfig, files *utils.FileManager, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		formPath:   formPath,
		exporter:   exporter,
		mainConfig: mainConfig,
		files:      files,
		logger:     logger.With(zap.String("file", filepath.Base(formPath))),
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (c *Converter) Run() (result Result) {
	startTime := time.Now()
	result.FilePath = c.formPath
	defer func() { result.Stats.ProcessingTime = time.Since(startTime) }()

	// =========================================================================
	// STEP 1: LOAD FORM
	// =========================================================================

	c.logger.Info("processing form")

	doc, err := form.Load(c.formPath)
	if err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 2-5: EXTRACT, TRANSFORM, GENERATE
	// =========================================================================

	out, err := c.exporter.Export(doc)
	if err != nil {
		result.Error = fmt.Errorf("failed to export form: %w", err)
		return result
	}

	validationResult := validation.Validate(out.Snapshot)
	result.Stats.PONumber = out.Snapshot.PONumber
	result.Stats.LineItems = len(out.Snapshot.LineItems)
	result.Stats.FilledFields = validationResult.FilledCount
	result.Stats.ValidationWarnings = validationResult.WarningCount
	for _, ve := range validationResult.Errors {
		c.logger.Warn("validation", zap.String("rule", ve.Rule), zap.String("field", ve.Field), zap.String("message", ve.Message))
	}

	// =========================================================================
	// STEP 6: WRITE OUTPUT FILES
	// =========================================================================

	outputPath, err := c.writeOutput(out)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}
	result.OutputFile = outputPath
	c.logger.Info("wrote output", zap.String("output", outputPath))

	side, err := c.writeSideOutputs(out, outputPath)
	result.SideOutputs = side
	if err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 7: ARCHIVE FILES
	// =========================================================================

	if err := c.archiveFiles(append([]string{outputPath}, side...)); err != nil {
		// Archival failures do not fail the export.
		c.logger.Warn("failed to archive files", zap.Error(err))
	}

	result.Success = true
	return result
}

// writeOutput writes the XML under a name built from output_name_format.
func (c *Converter) writeOutput(out *Output) (string, error) {
	name := strings.TrimSuffix(filepath.Base(c.formPath), filepath.Ext(c.formPath))
	fileName := c.files.OutputFileName(c.mainConfig.OutputNameFormat, map[string]string{
		"po":   out.Snapshot.PONumber,
		"name": name,
	})
	outputPath := filepath.Join(c.files.OutputDir, fileName)

	if err := os.WriteFile(outputPath, []byte(out.XML), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return outputPath, nil
}

// writeSideOutputs writes the XLSX workbook and PDF preview when enabled.
func (c *Converter) writeSideOutputs(out *Output, outputPath string) ([]string, error) {
	var written []string
	if c.mainConfig.Export.WriteXLSX {
		path := utils.SiblingPath(outputPath, ".xlsx")
		if err := report.WriteXLSXFile(out.Snapshot, path); err != nil {
			return written, fmt.Errorf("failed to write workbook: %w", err)
		}
		written = append(written, path)
	}
	if c.mainConfig.Export.WritePDF {
		path := utils.SiblingPath(outputPath, ".pdf")
		if err := report.WritePDFFile(out.Snapshot, path, report.PDFOptions{HeaderColor: out.Layout.HeaderColor}); err != nil {
			return written, fmt.Errorf("failed to write PDF: %w", err)
		}
		written = append(written, path)
	}
	return written, nil
}

// archiveFiles copies the outputs to the output archive and moves the form
// to the input archive.
func (c *Converter) archiveFiles(outputs []string) error {
	for _, path := range outputs {
		if _, err := c.files.ArchiveOutputFile(path); err != nil {
			return err
		}
	}
	if _, err := c.files.ArchiveInputFile(c.formPath); err != nil {
		return fmt.Errorf("failed to archive input file: %w", err)
	}
	return nil
}
