// Package export renders receipt views as XLSX workbooks.
package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
)

const sheetName = "Receipts"

// Service turns a sequence of canonical records into workbook bytes.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ReceiptsXLSX writes one row per receipt, in the order given. Absent
// amounts export as empty cells, not zeros, for the same reason the
// normalizer keeps them absent.
func (s *Service) ReceiptsXLSX(records []domain.Receipt) ([]byte, error) {
	started := time.Now()

	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []string{
		"Expense Date",
		"Vendor",
		"Category",
		"Amount",
		"Currency",
		"Items",
		"Deleted",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for rowIdx, rec := range records {
		row := rowIdx + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}

		if rec.ExpenseDate != nil {
			write(1, rec.ExpenseDate.Format("2006-01-02"))
		}
		if rec.Vendor != nil {
			write(2, *rec.Vendor)
		}
		if rec.Category != nil {
			write(3, *rec.Category)
		}
		if rec.Amount != nil {
			write(4, *rec.Amount)
		}
		write(5, rec.Currency)
		write(6, itemsSummary(rec.Items))
		write(7, rec.Deleted)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	s.logger.Debug("export.xlsx.done", "records", len(records), "elapsed", time.Since(started).String())
	return buf.Bytes(), nil
}

func itemsSummary(items []domain.Item) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		part := fmt.Sprintf("%dx %s", it.Quantity, it.Name)
		if it.TotalPrice != nil {
			part += fmt.Sprintf(" (%.2f)", *it.TotalPrice)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}
