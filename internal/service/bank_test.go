package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/testutil"
)

func newTestBank(t *testing.T) (*Bank, context.Context) {
	t.Helper()

	store := testutil.NewFileStore(t, "")
	return NewBank(store, testutil.NewAuditLogger(t)), context.Background()
}

func TestCreateAccount(t *testing.T) {
	b, ctx := newTestBank(t)

	acct, err := b.CreateAccount(ctx, "Alice", domain.KindConsumer, decimal.Zero)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, acct.ID)
	assert.Equal(t, domain.KindConsumer, acct.Kind)
	assert.True(t, acct.Balance().IsZero())

	// The account is durably recorded and retrievable.
	got, err := b.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestCreateAccountUnknownKind(t *testing.T) {
	b, ctx := newTestBank(t)

	_, err := b.CreateAccount(ctx, "Nobody", domain.AccountKind(9), decimal.Zero)
	require.ErrorIs(t, err, domain.ErrMissingAccountType)
	assert.Empty(t, b.Accounts())
}

func TestDeposit(t *testing.T) {
	b, ctx := newTestBank(t)

	acct, err := b.CreateAccount(ctx, "Alice", domain.KindConsumer, decimal.Zero)
	require.NoError(t, err)

	balance, err := b.Deposit(ctx, acct, testutil.Money(t, "100"))
	require.NoError(t, err)
	assert.Equal(t, "100.00", balance.StringFixed(2))

	txns := b.Transactions()
	require.Len(t, txns, 1)
	assert.Nil(t, txns[0].Sender)
	require.NotNil(t, txns[0].Recipient)
	assert.Equal(t, acct.ID, txns[0].Recipient.ID)
	assert.Equal(t, "100.00", txns[0].Amount.StringFixed(2))
}

func TestDepositInvalidAmount(t *testing.T) {
	b, ctx := newTestBank(t)
	acct, err := b.CreateAccount(ctx, "Alice", domain.KindConsumer, testutil.Money(t, "50"))
	require.NoError(t, err)

	for _, amount := range []string{"0", "-1"} {
		_, err := b.Deposit(ctx, acct, testutil.Money(t, amount))
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	}
	assert.Equal(t, "50.00", acct.Balance().StringFixed(2))
	assert.Empty(t, b.Transactions())
}

func TestWithdraw(t *testing.T) {
	b, ctx := newTestBank(t)
	acct, err := b.CreateAccount(ctx, "Alice", domain.KindChecking, testutil.Money(t, "1000"))
	require.NoError(t, err)

	balance, err := b.Withdraw(ctx, acct, testutil.Money(t, "300"))
	require.NoError(t, err)
	assert.Equal(t, "700.00", balance.StringFixed(2))

	txns := b.Transactions()
	require.Len(t, txns, 1)
	require.NotNil(t, txns[0].Sender)
	assert.Equal(t, acct.ID, txns[0].Sender.ID)
	assert.Nil(t, txns[0].Recipient)
}

func TestWithdrawPastCeilingIsRejected(t *testing.T) {
	b, ctx := newTestBank(t)
	acct, err := b.CreateAccount(ctx, "Alice", domain.KindChecking, testutil.Money(t, "1000"))
	require.NoError(t, err)

	// 1000 - 4000 = -3000, below the -2500 checking ceiling: hard stop.
	balance, err := b.Withdraw(ctx, acct, testutil.Money(t, "4000"))
	require.ErrorIs(t, err, domain.ErrOverdraftCeilingReached)
	assert.Equal(t, "1000.00", balance.StringFixed(2))
	assert.Equal(t, "1000.00", acct.Balance().StringFixed(2))
	assert.Empty(t, b.Transactions(), "rejected withdrawal records nothing")
}

func TestWithdrawIntoOverdraftCommitsWithAdvisory(t *testing.T) {
	b, ctx := newTestBank(t)
	acct, err := b.CreateAccount(ctx, "Alice", domain.KindChecking, testutil.Money(t, "1000"))
	require.NoError(t, err)

	// 1000 - 3000 = -2000, inside the permitted band: committed, flagged.
	balance, err := b.Withdraw(ctx, acct, testutil.Money(t, "3000"))
	require.ErrorIs(t, err, domain.ErrOverdraftStarted)
	assert.Equal(t, "-2000.00", balance.StringFixed(2))
	assert.Len(t, b.Transactions(), 1, "advisory overdraft still records the movement")
}

func TestTransactConsumerPaysNoFee(t *testing.T) {
	b, ctx := newTestBank(t)
	sender, err := b.CreateAccount(ctx, "Alice", domain.KindConsumer, testutil.Money(t, "1000"))
	require.NoError(t, err)
	recipient, err := b.CreateAccount(ctx, "Bob", domain.KindConsumer, decimal.Zero)
	require.NoError(t, err)

	balance, err := b.Transact(ctx, sender, recipient, testutil.Money(t, "200"))
	require.NoError(t, err)
	assert.Equal(t, "800.00", balance.StringFixed(2))
	assert.Equal(t, "200.00", recipient.Balance().StringFixed(2))

	txns := b.Transactions()
	require.Len(t, txns, 1)
	assert.Equal(t, "200.00", txns[0].Amount.StringFixed(2), "fee is never part of the recorded amount")
}

func TestTransactSenderPaysFee(t *testing.T) {
	b, ctx := newTestBank(t)
	sender, err := b.CreateAccount(ctx, "Alice", domain.KindSavings, testutil.Money(t, "1000"))
	require.NoError(t, err)
	recipient, err := b.CreateAccount(ctx, "Bob", domain.KindConsumer, decimal.Zero)
	require.NoError(t, err)

	// Savings fee is 0.125%: 400 * 0.00125 = 0.50, absorbed.
	balance, err := b.Transact(ctx, sender, recipient, testutil.Money(t, "400"))
	require.NoError(t, err)
	assert.Equal(t, "599.50", balance.StringFixed(2))
	assert.Equal(t, "400.00", recipient.Balance().StringFixed(2))
}

func TestTransactInvalidAmount(t *testing.T) {
	b, ctx := newTestBank(t)
	sender, err := b.CreateAccount(ctx, "Alice", domain.KindConsumer, testutil.Money(t, "100"))
	require.NoError(t, err)
	recipient, err := b.CreateAccount(ctx, "Bob", domain.KindConsumer, decimal.Zero)
	require.NoError(t, err)

	_, err = b.Transact(ctx, sender, recipient, decimal.Zero)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Equal(t, "100.00", sender.Balance().StringFixed(2))
	assert.True(t, recipient.Balance().IsZero())
}

func TestChargeInterestSavingsMidTier(t *testing.T) {
	b, ctx := newTestBank(t)
	acct, err := b.CreateAccount(ctx, "Alice", domain.KindSavings, testutil.Money(t, "60000"))
	require.NoError(t, err)

	interest, err := b.ChargeInterest(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, "1200.00", interest.StringFixed(2))
	assert.Equal(t, "61200.00", acct.Balance().StringFixed(2))

	// One interest credit row per charge: account creation records none,
	// so the charge is the only transaction.
	txns := b.Transactions()
	require.Len(t, txns, 1)
	assert.Nil(t, txns[0].Sender)
	require.NotNil(t, txns[0].Recipient)
	assert.Equal(t, acct.ID, txns[0].Recipient.ID)
	assert.Equal(t, "1200.00", txns[0].Amount.StringFixed(2))
}

func TestChargeInterestOnDebtRecordsDebit(t *testing.T) {
	b, ctx := newTestBank(t)
	// From zero straight into the permitted band: committed without advisory.
	acct, err := b.CreateAccount(ctx, "Alice", domain.KindConsumer, testutil.Money(t, "-1000"))
	require.NoError(t, err)
	require.NotNil(t, acct)

	interest, err := b.ChargeInterest(ctx, acct)
	require.Error(t, err)
	require.True(t, domain.IsOverdraftAdvisory(err))
	assert.Equal(t, "-200.00", interest.StringFixed(2))
	assert.Equal(t, "-1200.00", acct.Balance().StringFixed(2))

	txns := b.Transactions()
	require.Len(t, txns, 1)
	require.NotNil(t, txns[0].Sender, "negative interest is a debit")
	assert.Equal(t, "200.00", txns[0].Amount.StringFixed(2))
}

func TestBalanceIsPureRead(t *testing.T) {
	b, ctx := newTestBank(t)
	acct, err := b.CreateAccount(ctx, "Alice", domain.KindConsumer, testutil.Money(t, "12.345"))
	require.NoError(t, err)

	first := b.Balance(ctx, acct)
	second := b.Balance(ctx, acct)
	assert.Equal(t, "12.35", first.StringFixed(2))
	assert.True(t, first.Equal(second))
	assert.Empty(t, b.Transactions())
}

func TestGetAccountMissingLeavesStoreUnchanged(t *testing.T) {
	b, ctx := newTestBank(t)
	_, err := b.CreateAccount(ctx, "Alice", domain.KindConsumer, decimal.Zero)
	require.NoError(t, err)

	_, err = b.GetAccount(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrMissingAccount)
	assert.Len(t, b.Accounts(), 1)
	assert.Empty(t, b.Transactions())
}

func TestRenameAccountPersists(t *testing.T) {
	b, ctx := newTestBank(t)
	acct, err := b.CreateAccount(ctx, "Alice", domain.KindConsumer, decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, b.RenameAccount(ctx, acct, "Alice Smith"))

	got, err := b.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", got.Name)
}

func TestConcurrentDepositsOnDistinctAccounts(t *testing.T) {
	const n = 16

	b, ctx := newTestBank(t)
	accounts := make([]*domain.Account, n)
	for i := range accounts {
		acct, err := b.CreateAccount(ctx, "Holder", domain.KindConsumer, decimal.Zero)
		require.NoError(t, err)
		accounts[i] = acct
	}

	ten := testutil.Money(t, "10")
	done := make(chan error, n)
	for _, acct := range accounts {
		go func(acct *domain.Account) {
			_, err := b.Deposit(ctx, acct, ten)
			done <- err
		}(acct)
	}
	for range accounts {
		require.NoError(t, <-done)
	}

	for _, acct := range accounts {
		got, err := b.GetAccount(ctx, acct.ID)
		require.NoError(t, err)
		assert.Equal(t, "10.00", got.Balance().StringFixed(2))
	}
	assert.Len(t, b.Transactions(), n)
}
