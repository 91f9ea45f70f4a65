package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/snikitin/parts-bot/internal/core/domain"
)

// timeLayout is the stored timestamp format, always UTC. A plain
// sortable text form keeps the sqlite and mysql drivers behaving
// identically for range queries.
const timeLayout = "2006-01-02 15:04:05"

// SQLAdapter implements both the inventory and ledger repositories on a
// database/sql handle. Works with the sqlite and mysql drivers; the
// placeholder syntax and timestamp handling are shared.
type SQLAdapter struct {
	db *sql.DB
}

func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

func (s *SQLAdapter) CreatePart(ctx context.Context, name string, quantity int) (domain.Part, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO parts (name, quantity) VALUES (?, ?)`, name, quantity)
	if err != nil {
		return domain.Part{}, fmt.Errorf("insert part: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Part{}, fmt.Errorf("part id: %w", err)
	}

	return domain.Part{ID: id, Name: name, Quantity: quantity}, nil
}

func (s *SQLAdapter) ListParts(ctx context.Context) ([]domain.Part, error) {
	return s.selectParts(ctx,
		`SELECT id, name, quantity FROM parts ORDER BY id`)
}

func (s *SQLAdapter) AvailableParts(ctx context.Context) ([]domain.Part, error) {
	return s.selectParts(ctx,
		`SELECT id, name, quantity FROM parts WHERE quantity > 0 ORDER BY id`)
}

func (s *SQLAdapter) selectParts(ctx context.Context, query string) ([]domain.Part, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query parts: %w", err)
	}
	defer rows.Close()

	var parts []domain.Part
	for rows.Next() {
		var p domain.Part
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		parts = append(parts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parts: %w", err)
	}
	return parts, nil
}

func (s *SQLAdapter) GetPart(ctx context.Context, id int64) (domain.Part, error) {
	var p domain.Part
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, quantity FROM parts WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Quantity)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Part{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Part{}, fmt.Errorf("query part: %w", err)
	}
	return p, nil
}

// IssuePart decrements stock and appends the issue ledger entry as one
// transaction. The conditional UPDATE is the authoritative stock check:
// it only matches while quantity covers the request, so two concurrent
// issues against the same part can never drive it negative, whichever
// interleaving the database picks.
func (s *SQLAdapter) IssuePart(ctx context.Context, partID int64, quantity int, recipient string) (domain.Part, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Part{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE parts SET quantity = quantity - ? WHERE id = ? AND quantity >= ?`,
		quantity, partID, quantity)
	if err != nil {
		return domain.Part{}, fmt.Errorf("update quantity: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		// Distinguish a missing part from insufficient stock without
		// leaving the transaction.
		var current int
		err := tx.QueryRowContext(ctx,
			`SELECT quantity FROM parts WHERE id = ?`, partID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Part{}, domain.ErrNotFound
		}
		if err != nil {
			return domain.Part{}, fmt.Errorf("query part: %w", err)
		}
		return domain.Part{}, domain.ErrInsufficientStock
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (part_id, quantity, taken_by, transaction_type, date) VALUES (?, ?, ?, ?, ?)`,
		partID, quantity, recipient, string(domain.EntryKindIssue), now.Format(timeLayout))
	if err != nil {
		return domain.Part{}, fmt.Errorf("insert transaction: %w", err)
	}

	var p domain.Part
	err = tx.QueryRowContext(ctx,
		`SELECT id, name, quantity FROM parts WHERE id = ?`, partID,
	).Scan(&p.ID, &p.Name, &p.Quantity)
	if err != nil {
		return domain.Part{}, fmt.Errorf("query part: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Part{}, fmt.Errorf("commit tx: %w", err)
	}
	return p, nil
}

// Append writes a ledger entry outside the issue path (add entries).
func (s *SQLAdapter) Append(ctx context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	date := entry.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = date.UTC().Truncate(time.Second)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (part_id, quantity, taken_by, transaction_type, date) VALUES (?, ?, ?, ?, ?)`,
		entry.PartID, entry.Quantity, entry.TakenBy, string(entry.Kind), date.Format(timeLayout))
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("transaction id: %w", err)
	}

	entry.ID = id
	entry.Date = date
	return entry, nil
}

func (s *SQLAdapter) QueryByPeriod(ctx context.Context, from, to time.Time) ([]domain.ReportRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, t.quantity, t.taken_by, t.transaction_type, t.date
		FROM transactions t
		JOIN parts p ON t.part_id = p.id
		WHERE t.date >= ? AND t.date < ?
		ORDER BY t.date, t.id`,
		from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var report []domain.ReportRow
	for rows.Next() {
		var (
			r    domain.ReportRow
			kind string
			date string
		)
		if err := rows.Scan(&r.PartName, &r.Quantity, &r.TakenBy, &kind, &date); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		r.Kind = domain.EntryKind(kind)
		r.Date, err = parseTimestamp(date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		report = append(report, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return report, nil
}

// parseTimestamp accepts the stored layout plus RFC 3339, which
// database/sql produces when a driver hands back time.Time values.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
