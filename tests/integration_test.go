package tests

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"

	"github.com/snikitin/parts-bot/internal/adapter/report"
	"github.com/snikitin/parts-bot/internal/adapter/storage"
	"github.com/snikitin/parts-bot/internal/core/domain"
	"github.com/snikitin/parts-bot/internal/core/service"
)

func setupSQLite(t *testing.T) *storage.SQLAdapter {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "parts.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := storage.EnsureSchema(context.Background(), db, storage.DriverSQLite); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return storage.NewSQLAdapter(db)
}

func setupConversation(store *storage.SQLAdapter) *service.ConversationService {
	inventory := service.NewInventoryService(store, store, true)
	reports := service.NewReportService(store, report.NewExcelRenderer())
	return service.NewConversationService(inventory, storage.NewMemorySessionStore(0), reports)
}

// Drives the full stack minus the transport: add a part through the
// conversation, issue it, hit the insufficient-stock rejection, pull
// the report, and check the ledger reconciles.
func TestIntegration_FullBotFlow(t *testing.T) {
	store := setupSQLite(t)
	conv := setupConversation(store)
	ctx := context.Background()

	// Add "Filter" with quantity 5
	conv.HandleMessage(ctx, 1, "storekeeper", service.CmdAddPart)
	conv.HandleMessage(ctx, 1, "storekeeper", "Filter")
	reply := conv.HandleMessage(ctx, 1, "storekeeper", "5")
	if !strings.Contains(reply.Text, "Filter") || !strings.Contains(reply.Text, "5") {
		t.Fatalf("unexpected add confirmation: %q", reply.Text)
	}

	// Issue 3 to Smith
	conv.HandleMessage(ctx, 1, "storekeeper", service.CmdIssuePart)
	conv.HandleMessage(ctx, 1, "storekeeper", "1")
	conv.HandleMessage(ctx, 1, "storekeeper", "3")
	reply = conv.HandleMessage(ctx, 1, "storekeeper", "Smith")
	if !strings.Contains(reply.Text, "Smith") {
		t.Fatalf("unexpected issue confirmation: %q", reply.Text)
	}

	part, err := store.GetPart(ctx, 1)
	if err != nil {
		t.Fatalf("get part: %v", err)
	}
	if part.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", part.Quantity)
	}

	// Issuing 3 again must be rejected, quantity unchanged
	conv.HandleMessage(ctx, 1, "storekeeper", service.CmdIssuePart)
	conv.HandleMessage(ctx, 1, "storekeeper", "1")
	reply = conv.HandleMessage(ctx, 1, "storekeeper", "3")
	if !strings.Contains(reply.Text, "Недостаточно") {
		t.Errorf("expected rejection, got %q", reply.Text)
	}
	part, _ = store.GetPart(ctx, 1)
	if part.Quantity != 2 {
		t.Errorf("rejected issue mutated stock: %d", part.Quantity)
	}

	// Ledger reconciliation: one add of 5, one issue of 3
	now := time.Now().UTC()
	rows, err := store.QueryByPeriod(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("query ledger: %v", err)
	}
	added, issued := 0, 0
	for _, r := range rows {
		switch r.Kind {
		case domain.EntryKindAdd:
			added += r.Quantity
		case domain.EntryKindIssue:
			issued += r.Quantity
		}
	}
	if added != 5 || issued != 3 {
		t.Errorf("unexpected ledger sums: add %d, issue %d", added, issued)
	}
	if part.Quantity != added-issued {
		t.Errorf("ledger does not reconcile: %d != %d - %d", part.Quantity, added, issued)
	}

	// Monthly report contains both transactions
	reply = conv.HandleMessage(ctx, 1, "storekeeper", service.CmdReport)
	if reply.Document == nil {
		t.Fatal("expected report document")
	}
	f, err := excelize.OpenReader(bytes.NewReader(reply.Document.Data))
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()
	sheetRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if len(sheetRows) != 3 { // header + add + issue
		t.Errorf("expected 3 report rows, got %d", len(sheetRows))
	}
}

// Concurrent sessions in different chats race to issue the same part;
// stock never goes negative and every accepted issue has exactly one
// ledger entry.
func TestIntegration_ConcurrentIssues(t *testing.T) {
	store := setupSQLite(t)
	conv := setupConversation(store)
	ctx := context.Background()

	initialStock := 20
	totalChats := 50

	part, err := store.CreatePart(ctx, "Filter", initialStock)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}

	var successCount, rejectCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalChats; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			conv.HandleMessage(ctx, chatID, "user", service.CmdIssuePart)
			conv.HandleMessage(ctx, chatID, "user", strconv.FormatInt(part.ID, 10))
			conv.HandleMessage(ctx, chatID, "user", "1")
			reply := conv.HandleMessage(ctx, chatID, "user", fmt.Sprintf("recipient-%d", chatID))
			if strings.Contains(reply.Text, "Выдано") {
				successCount.Add(1)
			} else {
				rejectCount.Add(1)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	if successCount.Load() != int32(initialStock) {
		t.Errorf("expected %d successes, got %d", initialStock, successCount.Load())
	}
	if rejectCount.Load() != int32(totalChats-initialStock) {
		t.Errorf("expected %d rejections, got %d", totalChats-initialStock, rejectCount.Load())
	}

	final, err := store.GetPart(ctx, part.ID)
	if err != nil {
		t.Fatalf("get part: %v", err)
	}
	if final.Quantity != 0 {
		t.Errorf("expected quantity 0, got %d", final.Quantity)
	}
	if final.Quantity < 0 {
		t.Errorf("stock went negative: %d", final.Quantity)
	}

	now := time.Now().UTC()
	rows, err := store.QueryByPeriod(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("query ledger: %v", err)
	}
	issued := 0
	for _, r := range rows {
		if r.Kind == domain.EntryKindIssue {
			issued += r.Quantity
		}
	}
	if issued != initialStock {
		t.Errorf("expected %d issued in ledger, got %d", initialStock, issued)
	}
}

// Same adapter against MySQL when available, exercising the conditional
// UPDATE under the other driver.
func TestIntegration_MySQLIssueRace(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	ctx := context.Background()
	if err := storage.EnsureSchema(ctx, db, storage.DriverMySQL); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	store := storage.NewSQLAdapter(db)

	part, err := store.CreatePart(ctx, fmt.Sprintf("race-part-%d", time.Now().UnixNano()), 10)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.IssuePart(ctx, part.ID, 6, "Smith")
			if err == nil {
				successCount.Add(1)
			} else if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 success, got %d", successCount.Load())
	}
	final, err := store.GetPart(ctx, part.ID)
	if err != nil {
		t.Fatalf("get part: %v", err)
	}
	if final.Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", final.Quantity)
	}
}
