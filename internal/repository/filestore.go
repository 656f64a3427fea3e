// Package repository keeps the durable mirror of the ledger: two
// record-oriented files (accounts, transactions) plus the in-memory cache that
// is the source of truth while the process runs. Creates append one line,
// updates rewrite the whole file, and a background autosave periodically
// rewrites both files from the cache.
package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

type auditLog interface {
	Event(msg string)
}

// FileStore owns accounts.csv and transactions.csv under its data directory.
// Each file and its cache side form one lock domain; an account persist and
// its transaction append are two independent critical sections, so a reader
// can observe one without the other.
type FileStore struct {
	accountsPath     string
	transactionsPath string
	audit            auditLog

	accountsMu     sync.Mutex
	transactionsMu sync.Mutex
	ledger         *ledger

	autosaveStop chan struct{}
	autosaveDone chan struct{}
	closeOnce    sync.Once
}

// NewFileStore ensures the data directory and both backing files exist.
// Existing content is never overwritten; fresh files get only their header.
func NewFileStore(dir string, trail auditLog) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewFileStore: %w", err)
	}

	s := &FileStore{
		accountsPath:     filepath.Join(dir, "accounts.csv"),
		transactionsPath: filepath.Join(dir, "transactions.csv"),
		audit:            trail,
		ledger:           newLedger(),
	}

	if err := ensureFile(s.accountsPath, accountsHeader); err != nil {
		return nil, fmt.Errorf("NewFileStore: %w", err)
	}
	if err := ensureFile(s.transactionsPath, transactionsHeader); err != nil {
		return nil, fmt.Errorf("NewFileStore: %w", err)
	}
	return s, nil
}

func ensureFile(path, header string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(header+"\n"), 0o644)
}

// LoadAll parses both files into the cache. Lines whose fields fail to parse
// are skipped, not fatal; a transaction referencing an unknown account is
// dropped the same way.
func (s *FileStore) LoadAll(ctx context.Context) error {
	if err := s.loadAccounts(); err != nil {
		return fmt.Errorf("LoadAll: %w", err)
	}
	if err := s.loadTransactions(ctx); err != nil {
		return fmt.Errorf("LoadAll: %w", err)
	}
	return nil
}

func (s *FileStore) loadAccounts() error {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	lines, err := readDataLines(s.accountsPath, accountsHeader)
	if err != nil {
		return fmt.Errorf("loadAccounts: %w", err)
	}

	for _, line := range lines {
		a, err := decodeAccount(line)
		if err != nil {
			slog.Warn("skipping unreadable account record", "error", err)
			continue
		}
		s.ledger.addAccount(a)
	}
	return nil
}

func (s *FileStore) loadTransactions(ctx context.Context) error {
	s.transactionsMu.Lock()
	defer s.transactionsMu.Unlock()

	lines, err := readDataLines(s.transactionsPath, transactionsHeader)
	if err != nil {
		return fmt.Errorf("loadTransactions: %w", err)
	}

	for _, line := range lines {
		rec, err := decodeTransactionRecord(line)
		if err != nil {
			slog.Warn("skipping unreadable transaction record", "error", err)
			continue
		}

		t, err := s.resolveRecord(ctx, rec)
		if err != nil {
			slog.Warn("skipping transaction with unresolvable account", "transaction_id", rec.id, "error", err)
			continue
		}
		s.ledger.addTransaction(t)
	}
	return nil
}

// resolveRecord turns the raw row back into a Transaction with full account
// references, looking each id up cache-first then by file scan.
func (s *FileStore) resolveRecord(ctx context.Context, rec transactionRecord) (*domain.Transaction, error) {
	t := &domain.Transaction{ID: rec.id, Amount: rec.amount}

	if rec.senderID != nullToken {
		id, err := uuid.Parse(rec.senderID)
		if err != nil {
			return nil, fmt.Errorf("resolveRecord: sender: %w", err)
		}
		sender, err := s.GetAccount(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolveRecord: sender: %w", err)
		}
		t.Sender = sender
	}

	if rec.recipientID != nullToken {
		id, err := uuid.Parse(rec.recipientID)
		if err != nil {
			return nil, fmt.Errorf("resolveRecord: recipient: %w", err)
		}
		recipient, err := s.GetAccount(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolveRecord: recipient: %w", err)
		}
		t.Recipient = recipient
	}

	if t.Sender == nil && t.Recipient == nil {
		return nil, fmt.Errorf("resolveRecord: no sender or recipient")
	}
	return t, nil
}

// CreateAccount appends one record line and adds the account to the cache.
func (s *FileStore) CreateAccount(_ context.Context, a *domain.Account) error {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	if err := appendLine(s.accountsPath, encodeAccount(a)); err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}
	s.ledger.addAccount(a)
	return nil
}

// UpdateAccount rewrites the whole file, replacing the line whose leading id
// field matches. The lock is held for the full scan-modify-rewrite cycle.
func (s *FileStore) UpdateAccount(_ context.Context, a *domain.Account) error {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	lines, err := readDataLines(s.accountsPath, accountsHeader)
	if err != nil {
		return fmt.Errorf("UpdateAccount: %w", err)
	}

	id := a.ID.String()
	for i, line := range lines {
		if leadingField(line) == id {
			lines[i] = encodeAccount(a)
		}
	}

	if err := writeAll(s.accountsPath, accountsHeader, lines); err != nil {
		return fmt.Errorf("UpdateAccount: %w", err)
	}
	s.ledger.addAccount(a)
	return nil
}

// GetAccount looks the id up in the cache first and falls back to a linear
// scan of the file.
func (s *FileStore) GetAccount(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	if a, ok := s.ledger.account(id); ok {
		return a, nil
	}

	lines, err := readDataLines(s.accountsPath, accountsHeader)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}

	want := id.String()
	for _, line := range lines {
		if leadingField(line) != want {
			continue
		}
		a, err := decodeAccount(line)
		if err != nil {
			continue
		}
		return a, nil
	}
	return nil, fmt.Errorf("GetAccount: %s: %w", id, domain.ErrMissingAccount)
}

// CreateTransaction appends one record line and adds the transaction to the
// cache.
func (s *FileStore) CreateTransaction(_ context.Context, t *domain.Transaction) error {
	s.transactionsMu.Lock()
	defer s.transactionsMu.Unlock()

	if err := appendLine(s.transactionsPath, encodeTransaction(t)); err != nil {
		return fmt.Errorf("CreateTransaction: %w", err)
	}
	s.ledger.addTransaction(t)
	return nil
}

// UpdateTransaction exists for repair and migration use only; the id is
// preserved and the matching line rewritten in place.
func (s *FileStore) UpdateTransaction(_ context.Context, t *domain.Transaction) error {
	s.transactionsMu.Lock()
	defer s.transactionsMu.Unlock()

	lines, err := readDataLines(s.transactionsPath, transactionsHeader)
	if err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}

	id := t.ID.String()
	for i, line := range lines {
		if leadingField(line) == id {
			lines[i] = encodeTransaction(t)
		}
	}

	if err := writeAll(s.transactionsPath, transactionsHeader, lines); err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}
	s.ledger.addTransaction(t)
	return nil
}

// GetTransaction scans cache then file; sender and recipient ids embedded in
// a file row are resolved back into full accounts.
func (s *FileStore) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	s.transactionsMu.Lock()

	if t, ok := s.ledger.transaction(id); ok {
		s.transactionsMu.Unlock()
		return t, nil
	}

	lines, err := readDataLines(s.transactionsPath, transactionsHeader)
	s.transactionsMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}

	want := id.String()
	for _, line := range lines {
		if leadingField(line) != want {
			continue
		}
		rec, err := decodeTransactionRecord(line)
		if err != nil {
			continue
		}
		t, err := s.resolveRecord(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("GetTransaction: %w", err)
		}
		return t, nil
	}
	return nil, fmt.Errorf("GetTransaction: %s: %w", id, domain.ErrMissingTransaction)
}

// Accounts returns a snapshot of the cached account set in insertion order.
func (s *FileStore) Accounts() []*domain.Account {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()
	return s.ledger.accountList()
}

// Transactions returns a snapshot of the cached transaction set in insertion
// order.
func (s *FileStore) Transactions() []*domain.Transaction {
	s.transactionsMu.Lock()
	defer s.transactionsMu.Unlock()
	return s.ledger.transactionList()
}

// Flush rewrites both files completely from the cache. The autosave timer
// calls this on its interval; tests and shutdown call it directly.
func (s *FileStore) Flush(ctx context.Context) error {
	if err := s.saveAccounts(); err != nil {
		return fmt.Errorf("Flush: %w", err)
	}
	if err := s.saveTransactions(); err != nil {
		return fmt.Errorf("Flush: %w", err)
	}
	return nil
}

func (s *FileStore) saveAccounts() error {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	accounts := s.ledger.accountList()
	lines := make([]string, 0, len(accounts))
	for _, a := range accounts {
		lines = append(lines, encodeAccount(a))
	}

	if err := writeAll(s.accountsPath, accountsHeader, lines); err != nil {
		return fmt.Errorf("saveAccounts: %w", err)
	}
	s.audit.Event(fmt.Sprintf("[AUTOSAVE] SAVED %d ACCOUNTS", len(accounts)))
	return nil
}

func (s *FileStore) saveTransactions() error {
	s.transactionsMu.Lock()
	defer s.transactionsMu.Unlock()

	transactions := s.ledger.transactionList()
	lines := make([]string, 0, len(transactions))
	for _, t := range transactions {
		lines = append(lines, encodeTransaction(t))
	}

	if err := writeAll(s.transactionsPath, transactionsHeader, lines); err != nil {
		return fmt.Errorf("saveTransactions: %w", err)
	}
	s.audit.Event(fmt.Sprintf("[AUTOSAVE] SAVED %d TRANSACTIONS", len(transactions)))
	return nil
}

// StartAutosave launches the periodic flush task. It competes for the same
// two lock domains as foreground operations. Stop it through Close.
func (s *FileStore) StartAutosave(interval time.Duration) {
	if s.autosaveStop != nil {
		return
	}
	s.autosaveStop = make(chan struct{})
	s.autosaveDone = make(chan struct{})

	go func() {
		defer close(s.autosaveDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Flush(context.Background()); err != nil {
					slog.Error("autosave failed", "error", err)
				}
			case <-s.autosaveStop:
				return
			}
		}
	}()
}

// Close stops the autosave task and runs one final flush. Safe to call more
// than once; the host calls it on every exit path.
func (s *FileStore) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		if s.autosaveStop != nil {
			close(s.autosaveStop)
			<-s.autosaveDone
		}
		err = s.Flush(ctx)
		if err == nil {
			s.audit.Event("[SHUTDOWN] FINAL SAVE OF THE DATA STORES COMPLETE")
		}
	})
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}

func leadingField(line string) string {
	if i := strings.Index(line, fieldSep); i >= 0 {
		return line[:i]
	}
	return line
}

func readDataLines(path, header string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line == header {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(line + "\n")
	return err
}

func writeAll(path, header string, lines []string) error {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
