// Package types defines the records shared across the service core.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is a user role
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ModelStatus is the lifecycle status of a model
type ModelStatus string

const (
	ModelApproved ModelStatus = "approved"
	ModelPending  ModelStatus = "pending"
	ModelRejected ModelStatus = "rejected"
)

// RequestStatus is the lifecycle status of an update request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Terminal reports whether the status can no longer change
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// User is a registered account holding a token balance.
// Users are created by the registration collaborator; the core only
// reads them and mutates the balance through the ledger.
type User struct {
	// Email is the unique account key
	Email string `json:"email"`

	// Name is the display name
	Name string `json:"name"`

	// Role is either user or admin
	Role Role `json:"role"`

	// TokenBalance is the spendable token amount. Costs are fractional,
	// so the balance accumulates fractional remainders after debits.
	TokenBalance decimal.Decimal `json:"token_balance"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Model is a named weighted graph owned by a user.
//
// Edges maps edge keys "i-j" (node indices in [0, NodeCount)) to real
// weights. Edge weights are mutated only through the update workflow.
type Model struct {
	// ID is the unique model identifier
	ID string `json:"id"`

	// Name is the unique model name
	Name string `json:"name"`

	// OwnerEmail is the creating user's email
	OwnerEmail string `json:"owner_email"`

	// NodeCount is the number of nodes, indexed 0..NodeCount-1
	NodeCount int `json:"node_count"`

	// Edges maps edge key "i-j" to weight
	Edges map[string]float64 `json:"edges"`

	// Status is the model lifecycle status
	Status ModelStatus `json:"status"`

	// CreatedAt is the creation timestamp
	CreatedAt time.Time `json:"created_at"`
}

// EdgeCount returns the number of declared edges
func (m *Model) EdgeCount() int {
	return len(m.Edges)
}

// UpdateRequest is a proposal to change edge weights of a model.
// At most one pending request exists per model at any time.
type UpdateRequest struct {
	// ID is the unique request identifier
	ID string `json:"id"`

	// ModelID references the target model
	ModelID string `json:"model_id"`

	// RequesterEmail is the proposing user's email
	RequesterEmail string `json:"requester_email"`

	// Status is pending until explicitly approved or rejected
	Status RequestStatus `json:"status"`

	// ProposedWeights maps edge key "i-j" to the proposed new weight
	ProposedWeights map[string]float64 `json:"proposed_weights"`

	// CreatedAt is the submission timestamp
	CreatedAt time.Time `json:"created_at"`
}

// ExecutionResult is the outcome of a billed shortest-path run.
type ExecutionResult struct {
	// Path is the ordered node sequence from start to goal
	Path []string `json:"path"`

	// PathWeight is the summed edge weight along Path
	PathWeight float64 `json:"path_weight"`

	// TokenCost is the amount debited for the execution
	TokenCost decimal.Decimal `json:"token_cost"`

	// ExecutionTimeMs is the wall-clock duration of the path search,
	// recorded for reporting only
	ExecutionTimeMs int64 `json:"execution_time_ms"`
}
