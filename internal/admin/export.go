package admin

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"quotes-backend/internal/quotes"
)

// ExportXLSX renders the filtered quotes as an XLSX workbook.
func (s *Service) ExportXLSX(ctx context.Context, filter quotes.AdminFilter) ([]byte, error) {
	items, err := s.ListItems(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Cotizaciones"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Número",
		"Fecha Emisión",
		"Vendedor",
		"Cliente",
		"Total",
		"Moneda",
		"Estado",
		"Resumen",
		"Eventos",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, item := range items {
		q := item.Quote
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, q.QuoteNumber)
		write(2, q.IssueDate.Format("2006-01-02"))
		vendorName := item.VendorName
		if vendorName == "" {
			vendorName = q.Salesperson
		}
		write(3, vendorName)
		write(4, q.Customer)
		write(5, float64(q.Total.Cents)/100)
		write(6, q.Total.Currency)
		write(7, q.Status)
		write(8, q.Summary)
		write(9, len(q.Events))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 16)
	_ = f.SetColWidth(sheet, "B", "B", 14)
	_ = f.SetColWidth(sheet, "C", "D", 28)
	_ = f.SetColWidth(sheet, "E", "F", 12)
	_ = f.SetColWidth(sheet, "G", "G", 12)
	_ = f.SetColWidth(sheet, "H", "H", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
