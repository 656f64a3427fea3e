package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction records one money movement. At least one of Sender or Recipient
// is set: pure credits (initial funding, interest) have no sender, pure debits
// no recipient. Records are append-only; Amount is the principal moved and
// never includes transfer fees.
type Transaction struct {
	ID        uuid.UUID
	Sender    *Account
	Recipient *Account
	Amount    decimal.Decimal
}

func (t *Transaction) SenderID() *uuid.UUID {
	if t.Sender == nil {
		return nil
	}
	return &t.Sender.ID
}

func (t *Transaction) RecipientID() *uuid.UUID {
	if t.Recipient == nil {
		return nil
	}
	return &t.Recipient.ID
}
