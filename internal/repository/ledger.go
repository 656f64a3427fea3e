package repository

import (
	"github.com/google/uuid"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

// ledger is the canonical in-memory record set: one authoritative map per
// collection plus insertion order, so file rewrites reproduce row order
// deterministically. It carries no locking of its own; the FileStore
// serializes access through its two lock domains.
type ledger struct {
	accounts     map[uuid.UUID]*domain.Account
	accountOrder []uuid.UUID

	transactions     map[uuid.UUID]*domain.Transaction
	transactionOrder []uuid.UUID
}

func newLedger() *ledger {
	return &ledger{
		accounts:     make(map[uuid.UUID]*domain.Account),
		transactions: make(map[uuid.UUID]*domain.Transaction),
	}
}

func (l *ledger) addAccount(a *domain.Account) {
	if _, ok := l.accounts[a.ID]; !ok {
		l.accountOrder = append(l.accountOrder, a.ID)
	}
	l.accounts[a.ID] = a
}

func (l *ledger) account(id uuid.UUID) (*domain.Account, bool) {
	a, ok := l.accounts[id]
	return a, ok
}

func (l *ledger) accountList() []*domain.Account {
	out := make([]*domain.Account, 0, len(l.accountOrder))
	for _, id := range l.accountOrder {
		out = append(out, l.accounts[id])
	}
	return out
}

func (l *ledger) addTransaction(t *domain.Transaction) {
	if _, ok := l.transactions[t.ID]; !ok {
		l.transactionOrder = append(l.transactionOrder, t.ID)
	}
	l.transactions[t.ID] = t
}

func (l *ledger) transaction(id uuid.UUID) (*domain.Transaction, bool) {
	t, ok := l.transactions[id]
	return t, ok
}

func (l *ledger) transactionList() []*domain.Transaction {
	out := make([]*domain.Transaction, 0, len(l.transactionOrder))
	for _, id := range l.transactionOrder {
		out = append(out, l.transactions[id])
	}
	return out
}
