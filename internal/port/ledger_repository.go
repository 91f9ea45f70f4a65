package port

import (
	"context"
	"time"

	"github.com/snikitin/parts-bot/internal/core/domain"
)

type LedgerRepository interface {
	// Append adds a ledger entry. This is the only write operation; entries
	// are never updated or deleted. The issue path appends inside the
	// inventory transaction instead of calling this directly.
	Append(ctx context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error)

	// QueryByPeriod returns entries with from <= date < to, joined with the
	// part name, ordered by date then ID
	QueryByPeriod(ctx context.Context, from, to time.Time) ([]domain.ReportRow, error)
}
