package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/receipt-ingest/internal/blob"
	"github.com/joseph-ayodele/receipt-ingest/internal/common"
	"github.com/joseph-ayodele/receipt-ingest/internal/export"
	"github.com/joseph-ayodele/receipt-ingest/internal/extract"
	"github.com/joseph-ayodele/receipt-ingest/internal/llm"
	"github.com/joseph-ayodele/receipt-ingest/internal/pipeline"
	"github.com/joseph-ayodele/receipt-ingest/internal/repository"
	"github.com/joseph-ayodele/receipt-ingest/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, dialect, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, pool, logger)

	if err := repository.HealthCheck(ctx, db, cfg.Database.DialTimeout, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	if err := repository.InitSchema(ctx, db); err != nil {
		logger.Error("initializing schema", "error", err)
		os.Exit(1)
	}

	blobs, err := blob.NewFSStore(cfg.Blob.Dir)
	if err != nil {
		logger.Error("initializing upload storage", "error", err)
		os.Exit(1)
	}

	gemini, err := llm.NewGemini(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout, logger)
	if err != nil {
		logger.Error("initializing gemini client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := gemini.Close(); err != nil {
			logger.Warn("closing gemini client", "error", err)
		}
	}()

	registry := repository.NewDocumentRegistry(db, dialect, logger)
	receipts := repository.NewReceiptStore(db, dialect, logger)
	svc := pipeline.NewService(registry, receipts, blobs, extract.NewPDFExtractor(logger), gemini, logger)
	exporter := export.NewService(receipts, logger)

	router := server.NewRouter(svc, exporter, cfg.Server.MaxUploadBytes, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("stopped")
}

// openDatabase picks the backend from the DSN: postgres URLs go through the
// pgx pool, anything else is treated as a SQLite file path.
func openDatabase(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*sql.DB, *pgxpool.Pool, repository.Dialect, error) {
	dsn := cfg.Database.DSN
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, pool, err := repository.Open(ctx, repository.Config{
			DSN:              dsn,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
		return db, pool, repository.Postgres, err
	}

	db, err := repository.OpenSQLite(strings.TrimPrefix(dsn, "sqlite://"))
	return db, nil, repository.SQLite, err
}
