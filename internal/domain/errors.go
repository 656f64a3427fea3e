package domain

import "errors"

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrMissingAccount     = errors.New("account not found")
	ErrMissingTransaction = errors.New("transaction not found")
	ErrMissingAccountType = errors.New("unknown account type")

	// The first three overdraft errors are advisory: the balance change has
	// already been committed when they are returned. Only
	// ErrOverdraftCeilingReached means the mutation was discarded.
	ErrOverdraftStarted        = errors.New("account overdrafted")
	ErrOverdraftWorsened       = errors.New("overdraft worsened")
	ErrOverdraftImproving      = errors.New("overdraft reduced but still in debt")
	ErrOverdraftCeilingReached = errors.New("overdraft ceiling reached")
)

// IsOverdraftAdvisory reports whether err signals a permitted negative-balance
// transition. Callers may surface these as warnings instead of aborting.
func IsOverdraftAdvisory(err error) bool {
	return errors.Is(err, ErrOverdraftStarted) ||
		errors.Is(err, ErrOverdraftWorsened) ||
		errors.Is(err, ErrOverdraftImproving)
}
