package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/audit"
	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/repository"
)

// NewAuditLogger returns a trail backed by a file in a per-test temp dir.
func NewAuditLogger(t *testing.T) *audit.Logger {
	t.Helper()

	trail, err := audit.Open(filepath.Join(t.TempDir(), "logs.txt"))
	if err != nil {
		t.Fatalf("open audit trail: %v", err)
	}
	return trail
}

// NewFileStore initializes a store in dir (its own temp dir when dir is
// empty) and loads whatever is already on disk.
func NewFileStore(t *testing.T, dir string) *repository.FileStore {
	t.Helper()

	if dir == "" {
		dir = t.TempDir()
	}
	store, err := repository.NewFileStore(dir, NewAuditLogger(t))
	if err != nil {
		t.Fatalf("init file store: %v", err)
	}
	if err := store.LoadAll(context.Background()); err != nil {
		t.Fatalf("load store: %v", err)
	}
	return store
}

// Money parses a decimal literal, failing the test on bad input.
func Money(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

// Account builds an account of the given kind with a policy-checked starting
// balance.
func Account(t *testing.T, kind domain.AccountKind, balance string) *domain.Account {
	t.Helper()

	acct, err := domain.NewAccount("Test Holder", kind)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	b := Money(t, balance)
	if !b.IsZero() {
		if err := acct.SetBalance(b); err != nil && !domain.IsOverdraftAdvisory(err) {
			t.Fatalf("set starting balance: %v", err)
		}
	}
	return acct
}
