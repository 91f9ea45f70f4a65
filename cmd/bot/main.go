package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/snikitin/parts-bot/internal/adapter/handler"
	"github.com/snikitin/parts-bot/internal/adapter/report"
	"github.com/snikitin/parts-bot/internal/adapter/storage"
	"github.com/snikitin/parts-bot/internal/core/service"
	"github.com/snikitin/parts-bot/internal/port"
)

type config struct {
	botToken          string
	storageDriver     string
	sqlitePath        string
	mysqlDSN          string
	redisAddr         string
	sessionTTL        time.Duration
	recordAddInLedger bool
}

func loadConfig() (config, error) {
	cfg := config{
		botToken:          os.Getenv("BOT_TOKEN"),
		storageDriver:     envOr("STORAGE_DRIVER", storage.DriverSQLite),
		sqlitePath:        envOr("SQLITE_PATH", "parts.db"),
		mysqlDSN:          envOr("MYSQL_DSN", "root:root@tcp(localhost:3306)/parts?parseTime=true"),
		redisAddr:         os.Getenv("REDIS_ADDR"),
		recordAddInLedger: true,
	}

	if cfg.botToken == "" {
		return config{}, errors.New("BOT_TOKEN is not set")
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return config{}, errors.New("SESSION_TTL is not a valid duration")
		}
		cfg.sessionTTL = ttl
	}

	if v := os.Getenv("RECORD_ADD_IN_LEDGER"); v != "" {
		flag, err := strconv.ParseBool(v)
		if err != nil {
			return config{}, errors.New("RECORD_ADD_IN_LEDGER is not a valid bool")
		}
		cfg.recordAddInLedger = flag
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	if err := storage.EnsureSchema(ctx, db, cfg.storageDriver); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}
	log.Printf("connected to %s storage", cfg.storageDriver)

	// Initialize session store
	var (
		sessions port.SessionRepository
		rdb      *redis.Client
	)
	if cfg.redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.redisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		sessions = storage.NewRedisSessionStore(rdb, cfg.sessionTTL)
		log.Println("using redis session store")
	} else {
		sessions = storage.NewMemorySessionStore(cfg.sessionTTL)
		log.Println("using in-memory session store")
	}

	// Initialize services
	store := storage.NewSQLAdapter(db)
	inventory := service.NewInventoryService(store, store, cfg.recordAddInLedger)
	reports := service.NewReportService(store, report.NewExcelRenderer())
	conv := service.NewConversationService(inventory, sessions, reports)

	// Initialize Telegram transport
	api, err := tgbotapi.NewBotAPI(cfg.botToken)
	if err != nil {
		log.Fatalf("failed to connect telegram: %v", err)
	}
	log.Printf("authorized as @%s", api.Self.UserName)

	h := handler.NewTelegramHandler(api, conv)
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	cancel()
	<-done
	log.Println("handler stopped")

	if rdb != nil {
		rdb.Close()
	}
	db.Close()
	log.Println("connections closed")
}

func openDatabase(cfg config) (*sql.DB, error) {
	switch cfg.storageDriver {
	case storage.DriverSQLite:
		db, err := sql.Open("sqlite", cfg.sqlitePath)
		if err != nil {
			return nil, err
		}
		// One connection serializes write transactions; sqlite allows a
		// single writer anyway and this avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		return db, nil
	case storage.DriverMySQL:
		db, err := sql.Open("mysql", cfg.mysqlDSN)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		return db, nil
	default:
		return nil, errors.New("unknown STORAGE_DRIVER " + cfg.storageDriver)
	}
}
