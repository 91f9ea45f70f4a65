package port

import "github.com/snikitin/parts-bot/internal/core/domain"

type ReportRenderer interface {
	// Render produces a spreadsheet from the given rows
	Render(rows []domain.ReportRow) ([]byte, error)
}
