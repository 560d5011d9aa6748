// Package report renders purchase order snapshots as side outputs of an
// export: an XLSX workbook and a printable PDF preview.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/purchase-order-xml/internal/currency"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

// Sheet names of the workbook.
const (
	OrderSheet     = "Purchase Order"
	LineItemsSheet = "Line Items"
)

var lineItemHeaders = []any{"#", "Item", "Description", "Options", "Quantity", "Rate", "Amount"}

// WriteXLSXFile writes the workbook to path.
func WriteXLSXFile(snap *types.Snapshot, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	if err := WriteXLSX(snap, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteXLSX writes a two-sheet workbook: every header field on the
// Purchase Order sheet and one row per line item on the Line Items sheet.
// Monetary values that parse are stored as numbers.
func WriteXLSX(snap *types.Snapshot, w io.Writer) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), OrderSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(LineItemsSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"333333"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeOrderSheet(f, snap, bold, money); err != nil {
		return err
	}
	if err := writeLineItemsSheet(f, snap, bold, money); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeOrderSheet(f *excelize.File, snap *types.Snapshot, header, money int) error {
	if err := f.SetSheetRow(OrderSheet, "A1", &[]any{"Section", "Field", "Value"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(OrderSheet, "A1", "C1", header); err != nil {
		return err
	}
	for i, spec := range types.Fields {
		row := i + 2
		value := *spec.Ref(snap)
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(OrderSheet, cell, &[]any{spec.Section, spec.Name, cellValue(value, spec.Monetary)}); err != nil {
			return fmt.Errorf("failed to write %s: %w", spec.Name, err)
		}
		if _, ok := currency.ParseStrict(value); ok && spec.Monetary {
			valueCell, _ := excelize.CoordinatesToCellName(3, row)
			if err := f.SetCellStyle(OrderSheet, valueCell, valueCell, money); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(OrderSheet, "A", "B", 18); err != nil {
		return err
	}
	return f.SetColWidth(OrderSheet, "C", "C", 48)
}

func writeLineItemsSheet(f *excelize.File, snap *types.Snapshot, header, money int) error {
	if err := f.SetSheetRow(LineItemsSheet, "A1", &lineItemHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(LineItemsSheet, "A1", "G1", header); err != nil {
		return err
	}
	for i, item := range snap.LineItems {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			i + 1,
			item.ItemName,
			item.Description,
			item.Options,
			cellValue(item.Quantity, true),
			cellValue(item.Rate, true),
			cellValue(item.Amount, true),
		}
		if err := f.SetSheetRow(LineItemsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write line item %d: %w", i+1, err)
		}
	}
	if len(snap.LineItems) > 0 {
		last, _ := excelize.CoordinatesToCellName(7, len(snap.LineItems)+1)
		if err := f.SetCellStyle(LineItemsSheet, "F2", last, money); err != nil {
			return err
		}
	}
	return f.SetColWidth(LineItemsSheet, "B", "C", 28)
}

// cellValue stores parseable numeric values as numbers.
func cellValue(s string, numeric bool) any {
	if numeric {
		if f, ok := currency.ParseStrict(s); ok {
			return f
		}
	}
	return s
}
