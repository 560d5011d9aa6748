package converter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/config"
	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/extract"
	"github.com/ginjaninja78/purchase-order-xml/internal/form"
	"github.com/ginjaninja78/purchase-order-xml/internal/populate"
	"github.com/ginjaninja78/purchase-order-xml/internal/reorder"
	"github.com/ginjaninja78/purchase-order-xml/internal/xmlwriter"
	"github.com/ginjaninja78/purchase-order-xml/pkg/utils"
)

var sampleFields = map[string]string{
	"companyName":   "Acme Corp",
	"poNumber":      "1001",
	"poDate":        "01/15/2025",
	"vendorCompany": "globex supply",
	"lineItem1Item": "A-1",
	"lineItem1Desc": "Widget",
	"lineItem1Qty":  "2",
	"lineItem1Rate": "10.50",
}

func filledForm(t *testing.T, e *Exporter) *html.Node {
	t.Helper()
	doc, err := form.New()
	require.NoError(t, err)
	rep := populate.New(e.Mapper(), e.Locator(), nil).Apply(doc, sampleFields)
	require.Empty(t, rep.Unknown)
	return doc
}

func newExporter(t *testing.T, cfg *config.MainConfig) *Exporter {
	t.Helper()
	e, err := NewExporter(cfg, nil)
	require.NoError(t, err)
	e.now = func() time.Time { return time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC) }
	return e
}

func TestExport(t *testing.T) {
	e := newExporter(t, nil)
	doc := filledForm(t, e)

	out, err := e.Export(doc)
	require.NoError(t, err)
	assert.Equal(t, "1001", out.Snapshot.PONumber)
	assert.Contains(t, out.XML, "Acme Corp")
	assert.Contains(t, out.XML, "2025-01-15T09:00:00.000Z")
	assert.True(t, strings.HasPrefix(out.Layout.HeaderColor, "#"))
}

func TestExportAppliesTransforms(t *testing.T) {
	cfg := config.DefaultMainConfig()
	cfg.Export.Transforms = []config.TransformationRule{
		{Field: "poNumber", Actions: []config.TransformationAction{
			{Type: "pad_zeros_to_length", Value: "6"},
			{Type: "prepend_string", Value: "PO-"},
		}},
		{Field: "vendorCompany", Actions: []config.TransformationAction{{Type: "title_case"}}},
		{Field: "shipToCompany", Actions: []config.TransformationAction{{Type: "if_empty_use_field", Value: "companyName"}}},
	}
	e := newExporter(t, cfg)
	doc := filledForm(t, e)

	out, err := e.Export(doc)
	require.NoError(t, err)
	assert.Equal(t, "PO-001001", out.Snapshot.PONumber)
	assert.Equal(t, "Globex Supply", out.Snapshot.Vendor.Company)
	assert.Equal(t, "Acme Corp", out.Snapshot.ShipTo.Company)
	assert.Contains(t, out.XML, "PO-001001")

	// The form itself is untouched.
	raw, err := extract.New(nil, nil, nil).Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "1001", raw.PONumber)
	assert.Equal(t, "globex supply", raw.Vendor.Company)
}

func TestExportTransformKeepsEmptyRowsOut(t *testing.T) {
	cfg := config.DefaultMainConfig()
	cfg.Export.Transforms = []config.TransformationRule{
		{Field: "lineItem1Desc", Actions: []config.TransformationAction{{Type: "uppercase"}}},
		{Field: "lineItem3Desc", Actions: []config.TransformationAction{{Type: "uppercase"}}},
		{Field: "lineItem4Qty", Actions: []config.TransformationAction{{Type: "if_empty_use_default", Value: "1"}}},
	}
	e := newExporter(t, cfg)
	doc := filledForm(t, e)

	out, err := e.Export(doc)
	require.NoError(t, err)
	require.Len(t, out.Snapshot.LineItems, 1)
	assert.Equal(t, "WIDGET", out.Snapshot.LineItems[0].Description)
	assert.Equal(t, strings.Count(out.XML, `class="item-header"`), strings.Count(out.XML, `class="item-cell"`))
}

func TestExportMissingAnchors(t *testing.T) {
	e := newExporter(t, nil)
	doc, err := dom.ParseString("<html><body><p>no table</p></body></html>")
	require.NoError(t, err)
	_, err = e.Export(doc)
	assert.ErrorIs(t, err, xmlwriter.ErrMissingAnchor)

	cfg := config.DefaultMainConfig()
	cfg.Export.RequirePreviewAnchor = true
	strict := newExporter(t, cfg)
	doc = filledForm(t, strict)
	dom.Detach(dom.Find(doc, dom.ID(PreviewModalID)))

	_, err = strict.Export(doc)
	assert.ErrorIs(t, err, xmlwriter.ErrMissingAnchor)
	assert.ErrorIs(t, strict.RefreshPreview(doc), xmlwriter.ErrMissingAnchor)

	_, err = e.Export(doc)
	assert.NoError(t, err)
	assert.NoError(t, e.RefreshPreview(doc))
}

func TestRefreshPreviewOnlyWhenOpen(t *testing.T) {
	e := newExporter(t, nil)
	doc := filledForm(t, e)
	modal := dom.Find(doc, dom.ID(PreviewModalID))
	output := dom.Find(doc, dom.ID(PreviewOutputID))

	require.NoError(t, e.RefreshPreview(doc))
	assert.Empty(t, dom.Text(output))

	dom.SetStyleProp(modal, "display", "block")
	require.NoError(t, e.RefreshPreview(doc))
	assert.True(t, strings.HasPrefix(dom.Text(output), "<?xml"))
}

func TestReorderRefreshesOpenPreview(t *testing.T) {
	e := newExporter(t, nil)
	doc := filledForm(t, e)
	dom.SetStyleProp(dom.Find(doc, dom.ID(PreviewModalID)), "display", "block")

	engine := reorder.New(reorder.DefaultPolicy(), e.Mapper(), nil, nil)
	engine.SetPreviewer(e)
	require.NoError(t, engine.SwapColumns(doc, 3, 4))

	preview := dom.Text(dom.Find(doc, dom.ID(PreviewOutputID)))
	require.NotEmpty(t, preview)
	assert.Less(t, strings.Index(preview, ">RATE<"), strings.Index(preview, ">QUANTITY<"))
}

func TestNewExporterRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultMainConfig()
	cfg.Columns.Rules = []config.ColumnRule{{Keyword: "sku", Kind: "widget"}}
	_, err := NewExporter(cfg, nil)
	assert.Error(t, err)
}

// =============================================================================
// BATCH CONVERTER
// =============================================================================

func batchConfig(t *testing.T) (*config.MainConfig, *utils.FileManager) {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultMainConfig()
	cfg.InputDir = filepath.Join(root, "input")
	cfg.OutputDir = filepath.Join(root, "output")
	cfg.InputArchiveDir = filepath.Join(root, "input_archive")
	cfg.OutputArchiveDir = filepath.Join(root, "output_archive")
	cfg.OutputNameFormat = "{po}_{name}"
	require.NoError(t, cfg.EnsureDirectories())

	files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	return cfg, files
}

func TestConverterRun(t *testing.T) {
	cfg, files := batchConfig(t)
	cfg.Export.WriteXLSX = true
	cfg.Export.WritePDF = true
	e := newExporter(t, cfg)

	formPath := filepath.Join(cfg.InputDir, "order.html")
	require.NoError(t, form.Save(filledForm(t, e), formPath))

	result := New(formPath, e, cfg, files, nil).Run()
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "1001_order.xml"), result.OutputFile)
	assert.Equal(t, []string{
		filepath.Join(cfg.OutputDir, "1001_order.xlsx"),
		filepath.Join(cfg.OutputDir, "1001_order.pdf"),
	}, result.SideOutputs)
	assert.Equal(t, "1001", result.Stats.PONumber)
	assert.Equal(t, 1, result.Stats.LineItems)
	assert.Positive(t, result.Stats.ProcessingTime)

	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Widget")

	assert.NoFileExists(t, formPath)
	assert.FileExists(t, filepath.Join(cfg.InputArchiveDir, "order.html"))
	for _, name := range []string{"1001_order.xml", "1001_order.xlsx", "1001_order.pdf"} {
		assert.FileExists(t, filepath.Join(cfg.OutputArchiveDir, name))
	}
}

func TestConverterRunFailureKeepsForm(t *testing.T) {
	cfg, files := batchConfig(t)
	e := newExporter(t, cfg)

	formPath := filepath.Join(cfg.InputDir, "broken.html")
	require.NoError(t, os.WriteFile(formPath, []byte("<html><body></body></html>"), 0o644))

	result := New(formPath, e, cfg, files, nil).Run()
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, xmlwriter.ErrMissingAnchor)
	assert.Empty(t, result.OutputFile)
	assert.FileExists(t, formPath)

	result = New(filepath.Join(cfg.InputDir, "missing.html"), e, cfg, files, nil).Run()
	assert.Error(t, result.Error)
}
