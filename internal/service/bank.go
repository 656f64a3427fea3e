package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
)

type ledgerStore interface {
	CreateAccount(ctx context.Context, a *domain.Account) error
	UpdateAccount(ctx context.Context, a *domain.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	Accounts() []*domain.Account
	Transactions() []*domain.Transaction
}

type auditLog interface {
	Event(msg string)
}

// Bank orchestrates account mutations against the ledger store. Every
// mutating operation is multi-step: mutate in memory, persist the account,
// append the transaction, record the audit event. The steps are separately
// locked, so a failure partway leaves earlier steps committed; callers must
// treat partial completion as a possible outcome.
type Bank struct {
	store ledgerStore
	audit auditLog
}

func NewBank(store ledgerStore, trail auditLog) *Bank {
	return &Bank{store: store, audit: trail}
}

// CreateAccount builds an account of the requested kind and persists it. The
// initial balance goes through the balance policy, so a negative initial
// balance can return the created account together with an advisory overdraft
// error.
func (b *Bank) CreateAccount(ctx context.Context, name string, kind domain.AccountKind, initialBalance decimal.Decimal) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	acct, err := domain.NewAccount(name, kind)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	var warn error
	if !initialBalance.IsZero() {
		warn = acct.SetBalance(initialBalance)
		if warn != nil && !domain.IsOverdraftAdvisory(warn) {
			return nil, fmt.Errorf("CreateAccount: %w", warn)
		}
	}

	if err := b.store.CreateAccount(ctx, acct); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	b.audit.Event(fmt.Sprintf("[NEW_ACCOUNT] NEW %s ACCOUNT, ID = %s", strings.ToUpper(kind.String()), acct.ID))
	log.Info("account created", "account_id", acct.ID, "kind", kind.String())

	if warn != nil {
		return acct, fmt.Errorf("CreateAccount: %w", warn)
	}
	return acct, nil
}

// Deposit credits amount to the account. The returned balance is valid even
// when an advisory overdraft error accompanies it.
func (b *Bank) Deposit(ctx context.Context, acct *domain.Account, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return acct.Balance(), fmt.Errorf("Deposit: %w", domain.ErrInvalidAmount)
	}

	warn := acct.SetBalance(acct.Balance().Add(amount))
	if warn != nil && !domain.IsOverdraftAdvisory(warn) {
		return acct.Balance(), fmt.Errorf("Deposit: %w", warn)
	}

	if err := b.persistMovement(ctx, acct, &domain.Transaction{
		ID:        uuid.New(),
		Recipient: acct,
		Amount:    amount,
	}); err != nil {
		return acct.Balance(), fmt.Errorf("Deposit: %w", err)
	}

	b.audit.Event(fmt.Sprintf("[DEPOSIT] DEPOSIT OF %s INTO ACCOUNT => %s", amount.StringFixed(2), acct.ID))

	if warn != nil {
		return acct.Balance(), fmt.Errorf("Deposit: %w", warn)
	}
	return acct.Balance(), nil
}

// Withdraw debits amount from the account. A ceiling breach rejects the whole
// operation; advisory overdraft errors commit and propagate alongside the new
// balance.
func (b *Bank) Withdraw(ctx context.Context, acct *domain.Account, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return acct.Balance(), fmt.Errorf("Withdraw: %w", domain.ErrInvalidAmount)
	}

	warn := acct.SetBalance(acct.Balance().Sub(amount))
	if warn != nil && !domain.IsOverdraftAdvisory(warn) {
		return acct.Balance(), fmt.Errorf("Withdraw: %w", warn)
	}

	if err := b.persistMovement(ctx, acct, &domain.Transaction{
		ID:     uuid.New(),
		Sender: acct,
		Amount: amount,
	}); err != nil {
		return acct.Balance(), fmt.Errorf("Withdraw: %w", err)
	}

	b.audit.Event(fmt.Sprintf("[WITHDRAWAL] WITHDRAWAL OF %s FROM ACCOUNT => %s", amount.StringFixed(2), acct.ID))

	if warn != nil {
		return acct.Balance(), fmt.Errorf("Withdraw: %w", warn)
	}
	return acct.Balance(), nil
}

// Transact moves amount from sender to recipient. The sender additionally
// pays amount * fee rate for its kind; the fee is absorbed, credited nowhere
// and recorded in no transaction row. Returns the sender's resulting balance.
func (b *Bank) Transact(ctx context.Context, sender, recipient *domain.Account, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return sender.Balance(), fmt.Errorf("Transact: %w", domain.ErrInvalidAmount)
	}

	fee := amount.Mul(sender.Policy().TransactionFee)

	warn := sender.SetBalance(sender.Balance().Sub(amount).Sub(fee))
	if warn != nil && !domain.IsOverdraftAdvisory(warn) {
		return sender.Balance(), fmt.Errorf("Transact: sender: %w", warn)
	}

	rwarn := recipient.SetBalance(recipient.Balance().Add(amount))
	if rwarn != nil && !domain.IsOverdraftAdvisory(rwarn) {
		// Sender is already debited at this point; partial completion is the
		// documented outcome.
		return sender.Balance(), fmt.Errorf("Transact: recipient: %w", rwarn)
	}

	if err := b.store.UpdateAccount(ctx, sender); err != nil {
		return sender.Balance(), fmt.Errorf("Transact: %w", err)
	}
	if err := b.store.UpdateAccount(ctx, recipient); err != nil {
		return sender.Balance(), fmt.Errorf("Transact: %w", err)
	}

	txn := &domain.Transaction{
		ID:        uuid.New(),
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}
	if err := b.store.CreateTransaction(ctx, txn); err != nil {
		return sender.Balance(), fmt.Errorf("Transact: %w", err)
	}

	b.audit.Event(fmt.Sprintf("[TRANSACTION] TRANSACTION OF %s, WITH A FEE OF %s FROM %s TO %s",
		amount.StringFixed(2), fee.Round(2).StringFixed(2), sender.ID, recipient.ID))

	if warn == nil {
		warn = rwarn
	}
	if warn != nil {
		return sender.Balance(), fmt.Errorf("Transact: %w", warn)
	}
	return sender.Balance(), nil
}

// ChargeInterest applies the account's current interest rate through the
// balance policy and records the movement. Positive interest is recorded as a
// credit to the account, negative interest as a debit of the absolute amount;
// zero interest records nothing.
func (b *Bank) ChargeInterest(ctx context.Context, acct *domain.Account) (decimal.Decimal, error) {
	interest, warn := acct.ChargeInterest()
	if warn != nil && !domain.IsOverdraftAdvisory(warn) {
		return decimal.Zero, fmt.Errorf("ChargeInterest: %w", warn)
	}

	if err := b.store.UpdateAccount(ctx, acct); err != nil {
		return interest, fmt.Errorf("ChargeInterest: %w", err)
	}

	if !interest.IsZero() {
		txn := &domain.Transaction{ID: uuid.New(), Amount: interest.Abs()}
		if interest.IsPositive() {
			txn.Recipient = acct
		} else {
			txn.Sender = acct
		}
		if err := b.store.CreateTransaction(ctx, txn); err != nil {
			return interest, fmt.Errorf("ChargeInterest: %w", err)
		}
	}

	b.audit.Event(fmt.Sprintf("[INTEREST] CHARGED INTEREST OF %s ON => %s", interest.Round(2).StringFixed(2), acct.ID))

	if warn != nil {
		return interest, fmt.Errorf("ChargeInterest: %w", warn)
	}
	return interest, nil
}

// Balance is a pure read; it only records the inspection in the audit trail.
func (b *Bank) Balance(_ context.Context, acct *domain.Account) decimal.Decimal {
	b.audit.Event(fmt.Sprintf("[BALANCE] SHOW BALANCE OF ACCOUNT => %s", acct.ID))
	return acct.Balance()
}

// RenameAccount updates the display name and persists it.
func (b *Bank) RenameAccount(ctx context.Context, acct *domain.Account, name string) error {
	old := acct.Name
	acct.Name = name
	if err := b.store.UpdateAccount(ctx, acct); err != nil {
		acct.Name = old
		return fmt.Errorf("RenameAccount: %w", err)
	}
	b.audit.Event(fmt.Sprintf("[RENAME] ACCOUNT %s RENAMED TO %q", acct.ID, name))
	return nil
}

// GetAccount resolves an id against the in-memory set, falling back to the
// durable store's scan. A miss propagates ErrMissingAccount.
func (b *Bank) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	acct, err := b.store.GetAccount(ctx, id)
	if err != nil {
		b.audit.Event(fmt.Sprintf("[ACCOUNT] COULD NOT FIND ACCOUNT => %s", id))
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	b.audit.Event(fmt.Sprintf("[ACCOUNT] FOUND ACCOUNT => %s", id))
	return acct, nil
}

// GetTransaction resolves a transaction id, including its account references.
func (b *Bank) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := b.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return txn, nil
}

// Accounts returns a snapshot of every account in the ledger.
func (b *Bank) Accounts() []*domain.Account {
	return b.store.Accounts()
}

// Transactions returns a snapshot of every recorded transaction.
func (b *Bank) Transactions() []*domain.Transaction {
	return b.store.Transactions()
}

// persistMovement is the shared persist-account-then-append-transaction tail
// of deposits and withdrawals. The two steps are independent critical
// sections, not one atomic unit.
func (b *Bank) persistMovement(ctx context.Context, acct *domain.Account, txn *domain.Transaction) error {
	if err := b.store.UpdateAccount(ctx, acct); err != nil {
		return err
	}
	if err := b.store.CreateTransaction(ctx, txn); err != nil {
		return err
	}
	return nil
}
