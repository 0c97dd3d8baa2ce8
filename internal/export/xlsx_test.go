package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
)

func strPtr(s string) *string   { return &s }
func numPtr(f float64) *float64 { return &f }

func TestReceiptsXLSX(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	unit := 5000.0
	total := 10000.0
	records := []domain.Receipt{
		{
			ID:          "r-1",
			Vendor:      strPtr("Alfamart"),
			Amount:      numPtr(10000),
			Currency:    "IDR",
			Category:    strPtr("groceries"),
			ExpenseDate: &date,
			Items: []domain.Item{
				{Name: "Teh Botol", Quantity: 2, UnitPrice: &unit, TotalPrice: &total},
			},
		},
		{
			ID:       "r-2",
			Vendor:   strPtr("Warung"),
			Currency: "IDR",
		},
	}

	data, err := NewService(nil).ReceiptsXLSX(records)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer workbook.Close()

	rows, err := workbook.GetRows("Receipts")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Expense Date" || rows[0][1] != "Vendor" {
		t.Fatalf("unexpected header %v", rows[0])
	}

	first := rows[1]
	if first[0] != "2026-03-14" || first[1] != "Alfamart" || first[2] != "groceries" {
		t.Fatalf("unexpected first row %v", first)
	}
	if first[4] != "IDR" {
		t.Fatalf("expected currency column, got %v", first)
	}
	if first[5] != "2x Teh Botol (10000.00)" {
		t.Fatalf("unexpected items summary %q", first[5])
	}

	// Absent amount must come out as an empty cell, not zero.
	amount, err := workbook.GetCellValue("Receipts", "D3")
	if err != nil {
		t.Fatalf("read amount cell: %v", err)
	}
	if amount != "" {
		t.Fatalf("expected empty cell for absent amount, got %q", amount)
	}
}

func TestReceiptsXLSXEmpty(t *testing.T) {
	data, err := NewService(nil).ReceiptsXLSX(nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer workbook.Close()

	rows, err := workbook.GetRows("Receipts")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
