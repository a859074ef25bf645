package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"tokengraph/adapters/storage"
	"tokengraph/core/types"
	"tokengraph/internal/errors"
)

func newTestLedger(t *testing.T, balance string) (*Ledger, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	user := &types.User{
		Email:        "alice@example.com",
		Name:         "Alice",
		Role:         types.RoleUser,
		TokenBalance: decimal.RequireFromString(balance),
	}
	if err := store.SaveUser(context.Background(), user); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	return New(store), store
}

func balanceOf(t *testing.T, store storage.Store, email string) decimal.Decimal {
	t.Helper()
	user, err := store.GetUser(context.Background(), email)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	return user.TokenBalance
}

// TestCheckBalance proves the check is read-only and compares with >=
func TestCheckBalance(t *testing.T) {
	l, store := newTestLedger(t, "0.40")
	ctx := context.Background()

	ok, err := l.CheckBalance(ctx, "alice@example.com", decimal.RequireFromString("0.40"))
	if err != nil {
		t.Fatalf("CheckBalance: %v", err)
	}
	if !ok {
		t.Error("balance equal to cost must pass")
	}

	ok, err = l.CheckBalance(ctx, "alice@example.com", decimal.RequireFromString("0.47"))
	if err != nil {
		t.Fatalf("CheckBalance: %v", err)
	}
	if ok {
		t.Error("balance below cost must fail")
	}

	if got := balanceOf(t, store, "alice@example.com"); !got.Equal(decimal.RequireFromString("0.40")) {
		t.Errorf("CheckBalance mutated the balance: %s", got)
	}
}

func TestCheckBalanceUnknownUser(t *testing.T) {
	l, _ := newTestLedger(t, "1")

	_, err := l.CheckBalance(context.Background(), "nobody@example.com", decimal.NewFromInt(1))
	if !errors.IsType(err, errors.TypeUserNotFound) {
		t.Errorf("want USER_NOT_FOUND, got %v", err)
	}
}

// TestDebit proves a successful debit leaves the exact remainder
func TestDebit(t *testing.T) {
	l, store := newTestLedger(t, "10")
	ctx := context.Background()

	if err := l.Debit(ctx, "alice@example.com", decimal.RequireFromString("0.47")); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if got := balanceOf(t, store, "alice@example.com"); !got.Equal(decimal.RequireFromString("9.53")) {
		t.Errorf("balance after debit = %s, want 9.53", got)
	}
}

// TestDebitInsufficient proves a failing debit leaves the balance untouched
func TestDebitInsufficient(t *testing.T) {
	l, store := newTestLedger(t, "0.40")
	ctx := context.Background()

	err := l.Debit(ctx, "alice@example.com", decimal.RequireFromString("0.47"))
	if !errors.IsType(err, errors.TypeInsufficientBalance) {
		t.Fatalf("want INSUFFICIENT_BALANCE, got %v", err)
	}
	if got := balanceOf(t, store, "alice@example.com"); !got.Equal(decimal.RequireFromString("0.40")) {
		t.Errorf("failed debit changed the balance: %s", got)
	}

	// Debiting the full remainder succeeds and lands exactly on zero.
	if err := l.Debit(ctx, "alice@example.com", decimal.RequireFromString("0.40")); err != nil {
		t.Fatalf("Debit to zero: %v", err)
	}
	if got := balanceOf(t, store, "alice@example.com"); !got.IsZero() {
		t.Errorf("balance after full debit = %s, want 0", got)
	}
}

func TestDebitNegativeAmount(t *testing.T) {
	l, _ := newTestLedger(t, "10")

	err := l.Debit(context.Background(), "alice@example.com", decimal.NewFromInt(-1))
	if !errors.IsType(err, errors.TypeInvalidInput) {
		t.Errorf("want INVALID_INPUT, got %v", err)
	}
}

// TestRefill proves refill sets an absolute balance, not an increment
func TestRefill(t *testing.T) {
	l, store := newTestLedger(t, "3.14")
	ctx := context.Background()

	if err := l.Refill(ctx, "alice@example.com", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("Refill: %v", err)
	}
	if got := balanceOf(t, store, "alice@example.com"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance after refill = %s, want 100", got)
	}

	if err := l.Refill(ctx, "alice@example.com", decimal.NewFromInt(-5)); !errors.IsType(err, errors.TypeInvalidInput) {
		t.Errorf("negative refill: want INVALID_INPUT, got %v", err)
	}
	if err := l.Refill(ctx, "nobody@example.com", decimal.NewFromInt(1)); !errors.IsType(err, errors.TypeUserNotFound) {
		t.Errorf("unknown user refill: want USER_NOT_FOUND, got %v", err)
	}
}
