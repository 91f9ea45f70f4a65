package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/snikitin/parts-bot/internal/core/domain"
	"github.com/snikitin/parts-bot/internal/port"
)

// ReportService renders the ledger for the current calendar month into
// a spreadsheet document.
type ReportService struct {
	ledger   port.LedgerRepository
	renderer port.ReportRenderer
}

func NewReportService(ledger port.LedgerRepository, renderer port.ReportRenderer) *ReportService {
	return &ReportService{ledger: ledger, renderer: renderer}
}

// MonthlyReport returns the report for the month containing now, or nil
// when the month has no ledger entries.
func (s *ReportService) MonthlyReport(ctx context.Context, now time.Time) (*domain.ReportFile, error) {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	rows, err := s.ledger.QueryByPeriod(ctx, from, to)
	if err != nil {
		return nil, storeErr(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	data, err := s.renderer.Render(rows)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	return &domain.ReportFile{
		Name:    fmt.Sprintf("report-%s.xlsx", uuid.New().String()),
		Caption: msgReportCaption,
		Data:    data,
	}, nil
}
