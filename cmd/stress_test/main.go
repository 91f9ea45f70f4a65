package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/snikitin/parts-bot/internal/adapter/storage"
	"github.com/snikitin/parts-bot/internal/core/domain"
)

const (
	initialStock  = 20
	totalRequests = 50
	issueQuantity = 1
)

// Hammers the atomic issue path with concurrent requests against a
// throwaway sqlite database and verifies that stock never goes negative
// and the ledger reconciles with the final quantity.
func main() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "parts-stress-")
	if err != nil {
		log.Fatalf("temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	db, err := sql.Open("sqlite", filepath.Join(dir, "stress.db"))
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := storage.EnsureSchema(ctx, db, storage.DriverSQLite); err != nil {
		log.Fatalf("schema: %v", err)
	}

	store := storage.NewSQLAdapter(db)
	part, err := store.CreatePart(ctx, "stress-part", initialStock)
	if err != nil {
		log.Fatalf("create part: %v", err)
	}

	var (
		successCount atomic.Int32
		rejectCount  atomic.Int32
		errorCount   atomic.Int32
		wg           sync.WaitGroup
	)

	start := time.Now()
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			recipient := fmt.Sprintf("worker-%d", n)
			_, err := store.IssuePart(ctx, part.ID, issueQuantity, recipient)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejectCount.Add(1)
			default:
				errorCount.Add(1)
				log.Printf("request %d: %v", n, err)
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	final, err := store.GetPart(ctx, part.ID)
	if err != nil {
		log.Fatalf("get part: %v", err)
	}

	from := time.Now().UTC().Add(-time.Hour)
	rows, err := store.QueryByPeriod(ctx, from, from.Add(2*time.Hour))
	if err != nil {
		log.Fatalf("query ledger: %v", err)
	}

	issued := 0
	for _, r := range rows {
		if r.Kind == domain.EntryKindIssue {
			issued += r.Quantity
		}
	}

	fmt.Printf("requests:     %d\n", totalRequests)
	fmt.Printf("succeeded:    %d\n", successCount.Load())
	fmt.Printf("rejected:     %d\n", rejectCount.Load())
	fmt.Printf("errors:       %d\n", errorCount.Load())
	fmt.Printf("elapsed:      %v\n", elapsed)
	fmt.Printf("final stock:  %d\n", final.Quantity)
	fmt.Printf("ledger total: %d\n", issued)

	if final.Quantity < 0 {
		log.Fatalf("FAIL: stock went negative: %d", final.Quantity)
	}
	if initialStock-issued != final.Quantity {
		log.Fatalf("FAIL: ledger does not reconcile: %d - %d != %d", initialStock, issued, final.Quantity)
	}
	if int(successCount.Load())*issueQuantity != issued {
		log.Fatalf("FAIL: accepted issues (%d) do not match ledger entries (%d)", successCount.Load(), issued)
	}
	fmt.Println("OK: stock and ledger consistent")
}
