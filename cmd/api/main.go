package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/bank-ledger/internal/audit"
	"github.com/josh-kwaku/bank-ledger/internal/config"
	"github.com/josh-kwaku/bank-ledger/internal/handler"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/middleware"
	"github.com/josh-kwaku/bank-ledger/internal/repository"
	"github.com/josh-kwaku/bank-ledger/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init("bank-ledger", cfg.LogLevel, cfg.AppEnv)

	trail, err := audit.Open(cfg.AuditLogPath)
	if err != nil {
		return err
	}

	store, err := repository.NewFileStore(cfg.DataDir, trail)
	if err != nil {
		return err
	}

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	err = store.LoadAll(loadCtx)
	cancelLoad()
	if err != nil {
		return err
	}

	store.StartAutosave(time.Duration(cfg.AutosaveIntervalS) * time.Second)

	// The final flush must run on every exit path, not just the happy one.
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}()

	bank := service.NewBank(store, trail)
	bh := handler.NewBankHandler(bank)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("POST /api/v1/accounts", bh.CreateAccount)
	mux.HandleFunc("GET /api/v1/accounts", bh.ListAccounts)
	mux.HandleFunc("GET /api/v1/accounts/{id}", bh.GetAccount)
	mux.HandleFunc("PATCH /api/v1/accounts/{id}", bh.RenameAccount)
	mux.HandleFunc("GET /api/v1/accounts/{id}/balance", bh.GetBalance)
	mux.HandleFunc("POST /api/v1/accounts/{id}/deposits", bh.Deposit)
	mux.HandleFunc("POST /api/v1/accounts/{id}/withdrawals", bh.Withdraw)
	mux.HandleFunc("POST /api/v1/accounts/{id}/interest", bh.ChargeInterest)
	mux.HandleFunc("POST /api/v1/transfers", bh.Transfer)
	mux.HandleFunc("GET /api/v1/transactions", bh.ListTransactions)
	mux.HandleFunc("GET /api/v1/transactions/{id}", bh.GetTransaction)

	root := middleware.Logging(middleware.Recovery(mux))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
