package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/snikitin/parts-bot/internal/core/domain"
)

var headers = []string{"Название", "Количество", "ФИО", "Тип", "Дата"}

// ExcelRenderer renders ledger rows into an xlsx workbook: a header row
// followed by one row per ledger entry.
type ExcelRenderer struct{}

func NewExcelRenderer() *ExcelRenderer {
	return &ExcelRenderer{}
}

func (r *ExcelRenderer) Render(rows []domain.ReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, row := range rows {
		values := []any{
			row.PartName,
			row.Quantity,
			row.TakenBy,
			string(row.Kind),
			row.Date.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
