package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountKind values double as the on-disk type ordinal, so the order here is
// part of the file format.
type AccountKind int

const (
	KindConsumer AccountKind = iota
	KindChecking
	KindSavings
)

func (k AccountKind) IsValid() bool {
	return k >= KindConsumer && k <= KindSavings
}

func (k AccountKind) String() string {
	switch k {
	case KindConsumer:
		return "consumer"
	case KindChecking:
		return "checking"
	case KindSavings:
		return "savings"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func ParseAccountKind(s string) (AccountKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "consumer":
		return KindConsumer, nil
	case "checking":
		return KindChecking, nil
	case "savings":
		return KindSavings, nil
	default:
		return 0, fmt.Errorf("ParseAccountKind: %q: %w", s, ErrMissingAccountType)
	}
}

// KindPolicy holds the rules an account kind imposes on its balance. Interest
// rate may depend on the current balance, so policies are derived per read,
// never stored.
type KindPolicy struct {
	InterestRate    decimal.Decimal
	TransactionFee  decimal.Decimal
	NegativeCeiling decimal.Decimal
}

var (
	consumerRatePositive = decimal.RequireFromString("0.001")
	consumerRateNegative = decimal.RequireFromString("0.2")
	checkingRate         = decimal.RequireFromString("0.005")
	savingsRateLow       = decimal.RequireFromString("0.01")
	savingsRateMid       = decimal.RequireFromString("0.02")
	savingsRateHigh      = decimal.RequireFromString("0.03")

	checkingFee = decimal.RequireFromString("0.001")
	savingsFee  = decimal.RequireFromString("0.00125")

	consumerCeiling = decimal.NewFromInt(-25000)
	checkingCeiling = decimal.NewFromInt(-2500)

	savingsMidFloor = decimal.NewFromInt(50000)
	savingsMidCap   = decimal.NewFromInt(100000)
)

// PolicyFor is the single lookup table for kind-indexed behavior.
func PolicyFor(kind AccountKind, balance decimal.Decimal) KindPolicy {
	switch kind {
	case KindChecking:
		return KindPolicy{
			InterestRate:    checkingRate,
			TransactionFee:  checkingFee,
			NegativeCeiling: checkingCeiling,
		}
	case KindSavings:
		rate := savingsRateLow
		if balance.GreaterThan(savingsMidCap) {
			rate = savingsRateHigh
		} else if balance.GreaterThanOrEqual(savingsMidFloor) {
			rate = savingsRateMid
		}
		return KindPolicy{
			InterestRate:    rate,
			TransactionFee:  savingsFee,
			NegativeCeiling: decimal.Zero,
		}
	default: // KindConsumer
		rate := consumerRateNegative
		if balance.IsPositive() {
			rate = consumerRatePositive
		}
		return KindPolicy{
			InterestRate:    rate,
			TransactionFee:  decimal.Zero,
			NegativeCeiling: consumerCeiling,
		}
	}
}

type Account struct {
	ID   uuid.UUID
	Name string
	Kind AccountKind

	balance decimal.Decimal
}

func NewAccount(name string, kind AccountKind) (*Account, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("NewAccount: %w", ErrMissingAccountType)
	}
	return &Account{ID: uuid.New(), Name: name, Kind: kind}, nil
}

// RestoreAccount rebuilds an account from its persisted fields without running
// the balance policy; the stored balance is trusted as-is.
func RestoreAccount(id uuid.UUID, name string, kind AccountKind, balance decimal.Decimal) *Account {
	return &Account{ID: id, Name: name, Kind: kind, balance: balance}
}

// Balance rounds half away from zero to 2 digits on every read.
func (a *Account) Balance() decimal.Decimal {
	return a.balance.Round(2)
}

func (a *Account) Policy() KindPolicy {
	return PolicyFor(a.Kind, a.balance)
}

// SetBalance applies the overdraft policy. The branches that return an
// advisory error still commit the new value first; only a ceiling breach
// leaves the balance untouched.
func (a *Account) SetBalance(v decimal.Decimal) error {
	old := a.balance
	ceiling := PolicyFor(a.Kind, old).NegativeCeiling

	switch {
	case v.IsNegative() && old.IsPositive() && v.GreaterThan(ceiling):
		a.balance = v
		return fmt.Errorf("in debt of %s: %w", v.Round(2).StringFixed(2), ErrOverdraftStarted)

	case v.IsNegative() && old.IsNegative() && v.LessThan(old) && v.GreaterThan(ceiling):
		a.balance = v
		return fmt.Errorf("debt grew to %s: %w", v.Round(2).StringFixed(2), ErrOverdraftWorsened)

	case v.IsNegative() && old.IsNegative() && v.GreaterThan(old) && v.GreaterThan(ceiling):
		a.balance = v
		return fmt.Errorf("debt reduced to %s: %w", v.Round(2).StringFixed(2), ErrOverdraftImproving)

	case v.LessThan(ceiling):
		if old.IsPositive() {
			return fmt.Errorf("ceiling is %s, balance is %s: %w",
				ceiling.StringFixed(2), old.Round(2).StringFixed(2), ErrOverdraftCeilingReached)
		}
		return fmt.Errorf("ceiling is %s, current debt is %s: %w",
			ceiling.StringFixed(2), old.Round(2).StringFixed(2), ErrOverdraftCeilingReached)

	default:
		a.balance = v
		return nil
	}
}

// ChargeInterest credits balance * interest rate through the balance policy
// and returns the interest applied. A ceiling rejection returns zero with the
// error; advisory overdraft errors accompany the applied amount.
func (a *Account) ChargeInterest() (decimal.Decimal, error) {
	interest := a.Balance().Mul(a.Policy().InterestRate)
	if err := a.SetBalance(a.balance.Add(interest)); err != nil {
		if !IsOverdraftAdvisory(err) {
			return decimal.Zero, fmt.Errorf("ChargeInterest: %w", err)
		}
		return interest, fmt.Errorf("ChargeInterest: %w", err)
	}
	return interest, nil
}
