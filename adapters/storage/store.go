// Package storage provides the persistence ports consumed by the core
// and their backends (in-memory and PostgreSQL).
//
// Two consistency requirements the core delegates to this layer live
// here: the at-most-one-pending-request-per-model invariant is enforced
// at insert time, and check-and-debit of a token balance is a single
// conditional decrement so concurrent debits cannot overspend.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tokengraph/core/types"
	"tokengraph/internal/errors"
)

// UserStore reads user records and mutates token balances.
type UserStore interface {
	// GetUser returns the user with the given email
	GetUser(ctx context.Context, email string) (*types.User, error)

	// SaveUser inserts or replaces a user record
	SaveUser(ctx context.Context, user *types.User) error

	// DebitBalance atomically subtracts amount from the user's balance.
	// It fails with INSUFFICIENT_BALANCE when the result would go
	// negative, leaving the balance untouched.
	DebitBalance(ctx context.Context, email string, amount decimal.Decimal) error

	// SetBalance unconditionally sets the balance to an absolute value
	SetBalance(ctx context.Context, email string, balance decimal.Decimal) error
}

// ModelStore persists graph models.
type ModelStore interface {
	// CreateModel inserts a model, assigning an ID if empty
	CreateModel(ctx context.Context, model *types.Model) error

	// GetModel resolves a model by ID or by name
	GetModel(ctx context.Context, ref string) (*types.Model, error)

	// SaveModel replaces an existing model record
	SaveModel(ctx context.Context, model *types.Model) error

	// ListModelsByStatus returns models in the given status
	ListModelsByStatus(ctx context.Context, status types.ModelStatus) ([]*types.Model, error)
}

// UpdateRequestStore persists update requests.
type UpdateRequestStore interface {
	// CreateRequest inserts a request, assigning an ID if empty.
	// Inserting a pending request fails with DUPLICATE_REQUEST when the
	// model already has one; the check and the insert are one unit.
	CreateRequest(ctx context.Context, req *types.UpdateRequest) error

	// GetRequest returns the request with the given ID
	GetRequest(ctx context.Context, id string) (*types.UpdateRequest, error)

	// SaveRequest replaces an existing request record
	SaveRequest(ctx context.Context, req *types.UpdateRequest) error

	// PendingForModel returns the model's pending request, or nil
	PendingForModel(ctx context.Context, modelID string) (*types.UpdateRequest, error)

	// ListByModel returns a model's requests, newest first, filtered
	ListByModel(ctx context.Context, modelID string, filter HistoryFilter) ([]*types.UpdateRequest, error)

	// ListRequestsByStatus returns requests in the given status
	ListRequestsByStatus(ctx context.Context, status types.RequestStatus) ([]*types.UpdateRequest, error)
}

// HistoryFilter bounds an update-history listing.
type HistoryFilter struct {
	// After keeps requests created at or after the bound
	After *time.Time

	// Before keeps requests created at or before the bound
	Before *time.Time

	// Status keeps requests in the given status when non-empty
	Status types.RequestStatus
}

// Matches reports whether a request passes the filter.
func (f HistoryFilter) Matches(req *types.UpdateRequest) bool {
	if f.After != nil && req.CreatedAt.Before(*f.After) {
		return false
	}
	if f.Before != nil && req.CreatedAt.After(*f.Before) {
		return false
	}
	if f.Status != "" && req.Status != f.Status {
		return false
	}
	return true
}

// Store bundles the three ports behind one backend.
type Store interface {
	UserStore
	ModelStore
	UpdateRequestStore

	// Close releases backend resources
	Close() error
}

// Open creates a store by backend name ("memory" or "postgres").
func Open(ctx context.Context, backend, dsn string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return OpenPostgres(ctx, dsn)
	default:
		return nil, errors.InvalidInput("unsupported storage backend: " + backend)
	}
}
