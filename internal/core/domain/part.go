package domain

import "time"

type EntryKind string

const (
	EntryKindAdd   EntryKind = "add"
	EntryKindIssue EntryKind = "issue"
)

// Part is a stock-keeping unit. Quantity never goes below zero;
// the only mutation paths are the atomic issue decrement and restock.
type Part struct {
	ID       int64
	Name     string
	Quantity int
}

// LedgerEntry is an immutable record of a quantity change. Entries are
// append-only: no update, no delete.
type LedgerEntry struct {
	ID       int64
	PartID   int64
	Quantity int
	TakenBy  string
	Kind     EntryKind
	Date     time.Time
}

// ReportRow is a ledger entry joined with its part name, as exported
// in the monthly report.
type ReportRow struct {
	PartName string
	Quantity int
	TakenBy  string
	Kind     EntryKind
	Date     time.Time
}

// ReportFile is a rendered report ready to be sent as a document.
type ReportFile struct {
	Name    string
	Caption string
	Data    []byte
}
