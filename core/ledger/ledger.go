// Package ledger reads and debits user token balances.
//
// The ledger never caches balances: every operation goes through the
// user store, and check-and-debit is one atomic unit at the storage
// layer (a conditional decrement), so two concurrent debits cannot
// overspend a balance.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"tokengraph/adapters/storage"
	"tokengraph/internal/errors"
)

// Ledger mediates balance reads and mutations over the user store.
type Ledger struct {
	users storage.UserStore
}

// New creates a ledger over the given user store
func New(users storage.UserStore) *Ledger {
	return &Ledger{users: users}
}

// CheckBalance reports whether the user's balance covers the cost.
// It never mutates the balance.
func (l *Ledger) CheckBalance(ctx context.Context, email string, cost decimal.Decimal) (bool, error) {
	user, err := l.users.GetUser(ctx, email)
	if err != nil {
		return false, err
	}
	return user.TokenBalance.GreaterThanOrEqual(cost), nil
}

// Debit subtracts amount from the user's balance, failing with
// INSUFFICIENT_BALANCE when the result would go negative. The store
// performs the check and the decrement as one unit.
func (l *Ledger) Debit(ctx context.Context, email string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.InvalidInput("debit amount must be non-negative")
	}
	return l.users.DebitBalance(ctx, email, amount)
}

// Refill sets the user's balance to an absolute value. Authorization
// (admin only) is the caller's responsibility.
func (l *Ledger) Refill(ctx context.Context, email string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return errors.InvalidInput("balance must be non-negative")
	}
	return l.users.SetBalance(ctx, email, balance)
}
