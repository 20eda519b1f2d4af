// Package report renders the import history as an Excel workbook for
// bookkeeping review.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/PremSaiBollamoni/tallybridge/internal/store"
)

const sheetName = "Imports"

var headers = []string{
	"Timestamp", "Invoice Number", "Vendor", "Total Amount", "Voucher", "Invoice JSON", "Voucher XML",
}

// Build renders history entries into a workbook, one row per import, newest
// first as provided. The caller owns the returned file and must Close it.
func Build(entries []store.HistoryEntry) (*excelize.File, error) {
	f := excelize.NewFile()

	if _, err := f.NewSheet(sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("report: create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("report: drop default sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}

	missingStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "9A0511"},
	})

	for i, entry := range entries {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), entry.Timestamp)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), entry.InvoiceNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), entry.VendorName)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), entry.TotalAmount)
		if entry.VoucherXML != "" {
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), "generated")
		} else {
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), "missing")
			f.SetCellStyle(sheetName, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), missingStyle)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), entry.InvoiceJSON)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), entry.VoucherXML)
	}

	f.SetColWidth(sheetName, "A", "A", 18)
	f.SetColWidth(sheetName, "B", "C", 28)
	f.SetColWidth(sheetName, "F", "G", 30)

	return f, nil
}

// WriteFile builds the workbook and saves it to path.
func WriteFile(path string, entries []store.HistoryEntry) error {
	f, err := Build(entries)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}
