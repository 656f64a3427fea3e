package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

// Record lines are bare semicolon-delimited fields with no quoting; an absent
// account reference is the literal token "null". The account type column is
// the AccountKind ordinal.
const (
	fieldSep  = ";"
	nullToken = "null"

	accountsHeader     = "ID;Name;Type;Balance"
	transactionsHeader = "ID;Sender;Recipient;Amount"
)

func encodeAccount(a *domain.Account) string {
	return strings.Join([]string{
		a.ID.String(),
		a.Name,
		strconv.Itoa(int(a.Kind)),
		a.Balance().StringFixed(2),
	}, fieldSep)
}

func decodeAccount(line string) (*domain.Account, error) {
	values := strings.Split(line, fieldSep)
	if len(values) != 4 {
		return nil, fmt.Errorf("decodeAccount: want 4 fields, got %d", len(values))
	}

	id, err := uuid.Parse(values[0])
	if err != nil {
		return nil, fmt.Errorf("decodeAccount: id: %w", err)
	}

	ordinal, err := strconv.Atoi(values[2])
	if err != nil {
		return nil, fmt.Errorf("decodeAccount: type: %w", err)
	}
	kind := domain.AccountKind(ordinal)
	if !kind.IsValid() {
		return nil, fmt.Errorf("decodeAccount: type ordinal %d: %w", ordinal, domain.ErrMissingAccountType)
	}

	balance, err := decimal.NewFromString(values[3])
	if err != nil {
		return nil, fmt.Errorf("decodeAccount: balance: %w", err)
	}

	return domain.RestoreAccount(id, values[1], kind, balance), nil
}

func encodeTransaction(t *domain.Transaction) string {
	sender, recipient := nullToken, nullToken
	if id := t.SenderID(); id != nil {
		sender = id.String()
	}
	if id := t.RecipientID(); id != nil {
		recipient = id.String()
	}
	return strings.Join([]string{
		t.ID.String(),
		sender,
		recipient,
		t.Amount.Round(2).StringFixed(2),
	}, fieldSep)
}

// transactionRecord is the raw decoded row; account references are still ids
// and get resolved against the account store afterwards.
type transactionRecord struct {
	id          uuid.UUID
	senderID    string
	recipientID string
	amount      decimal.Decimal
}

func decodeTransactionRecord(line string) (transactionRecord, error) {
	values := strings.Split(line, fieldSep)
	if len(values) != 4 {
		return transactionRecord{}, fmt.Errorf("decodeTransactionRecord: want 4 fields, got %d", len(values))
	}

	id, err := uuid.Parse(values[0])
	if err != nil {
		return transactionRecord{}, fmt.Errorf("decodeTransactionRecord: id: %w", err)
	}

	amount, err := decimal.NewFromString(values[3])
	if err != nil {
		return transactionRecord{}, fmt.Errorf("decodeTransactionRecord: amount: %w", err)
	}

	return transactionRecord{
		id:          id,
		senderID:    values[1],
		recipientID: values[2],
		amount:      amount,
	}, nil
}
