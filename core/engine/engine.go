// Package engine exposes the service operations to the surrounding
// transport layer.
//
// Every operation loads what it needs from storage, computes, and
// writes back; no graph or balance state lives in the process between
// calls. Failures come back as typed errors from internal/errors, never
// as transport formatting. Token debits and model saves always run
// after every precondition has passed, because nothing here can undo a
// half-applied mutation.
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tokengraph/adapters/storage"
	"tokengraph/core/cost"
	"tokengraph/core/graph"
	"tokengraph/core/ledger"
	"tokengraph/core/path"
	"tokengraph/core/types"
	"tokengraph/core/workflow"
	"tokengraph/internal/errors"
)

// dateLayout is the accepted format for history date bounds.
const dateLayout = "2006-01-02"

// Engine wires the core components over one storage backend.
type Engine struct {
	store    storage.Store
	ledger   *ledger.Ledger
	workflow *workflow.Workflow
}

// New creates an engine with the given smoothing constant
func New(store storage.Store, alpha float64) (*Engine, error) {
	l := ledger.New(store)
	w, err := workflow.New(alpha, store, store, l)
	if err != nil {
		return nil, err
	}
	return &Engine{store: store, ledger: l, workflow: w}, nil
}

// Ledger returns the token ledger for balance operations
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// CreateModelInput is a validated model-creation request.
type CreateModelInput struct {
	Name       string
	OwnerEmail string
	NodeCount  int
	Edges      map[string]float64
}

// CreateModel validates the graph specification, debits the creation
// cost and persists the model. Validation and the debit both precede
// the insert, so a failed request costs nothing and stores nothing.
func (e *Engine) CreateModel(ctx context.Context, in CreateModelInput) (*types.Model, decimal.Decimal, error) {
	if in.Name == "" || in.OwnerEmail == "" {
		return nil, decimal.Zero, errors.InvalidInput("model name and owner email are required")
	}

	if _, err := graph.Build(in.NodeCount, in.Edges); err != nil {
		return nil, decimal.Zero, err
	}

	creationCost := cost.ModelCreationCost(in.NodeCount, len(in.Edges))

	if _, err := e.store.GetUser(ctx, in.OwnerEmail); err != nil {
		return nil, decimal.Zero, err
	}
	if err := e.ledger.Debit(ctx, in.OwnerEmail, creationCost); err != nil {
		return nil, decimal.Zero, err
	}

	model := &types.Model{
		Name:       in.Name,
		OwnerEmail: in.OwnerEmail,
		NodeCount:  in.NodeCount,
		Edges:      in.Edges,
		Status:     types.ModelApproved,
	}
	if err := e.store.CreateModel(ctx, model); err != nil {
		return nil, decimal.Zero, err
	}

	return model, creationCost, nil
}

// ExecuteModel runs a billed shortest-path search on a model.
//
// Steps, each short-circuiting on failure: resolve the model, build the
// graph, run the search (timed for reporting), re-derive the token cost
// from the current graph size, resolve the requester, debit. The debit
// is last, so a failed search never costs tokens. A caller-imposed
// deadline that expires before the debit reports EXECUTION_TIMEOUT and
// leaves the balance untouched.
func (e *Engine) ExecuteModel(ctx context.Context, modelRef, startNode, goalNode, requester string) (*types.ExecutionResult, error) {
	model, err := e.store.GetModel(ctx, modelRef)
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(model.NodeCount, model.Edges)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := path.ShortestPath(g.Adjacency(), startNode, goalNode)
	elapsed := time.Since(started)
	if err != nil {
		return nil, err
	}

	executionCost := cost.ModelCreationCost(g.NodeCount(), g.EdgeCount())

	if _, err := e.store.GetUser(ctx, requester); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.TypeExecutionTimeout, "execution deadline exceeded before debit", err)
	}
	if err := e.ledger.Debit(ctx, requester, executionCost); err != nil {
		return nil, err
	}

	return &types.ExecutionResult{
		Path:            result.Path,
		PathWeight:      result.Cost,
		TokenCost:       executionCost,
		ExecutionTimeMs: elapsed.Milliseconds(),
	}, nil
}

// SubmitUpdate proposes edge-weight changes on a model
func (e *Engine) SubmitUpdate(ctx context.Context, modelRef, requester string, proposed map[string]float64) (*types.UpdateRequest, *types.Model, error) {
	return e.workflow.Submit(ctx, modelRef, requester, proposed)
}

// ApproveUpdate approves a pending update request
func (e *Engine) ApproveUpdate(ctx context.Context, requestID string) (*types.Model, error) {
	return e.workflow.Approve(ctx, requestID)
}

// RejectUpdate rejects a pending update request
func (e *Engine) RejectUpdate(ctx context.Context, requestID string) (*types.Model, error) {
	return e.workflow.Reject(ctx, requestID)
}

// Refill sets a user's balance to an absolute value. Only admins may
// refill; the requester's role is the one boolean authorization check
// the core performs itself.
func (e *Engine) Refill(ctx context.Context, requesterEmail, targetEmail string, balance decimal.Decimal) error {
	requester, err := e.store.GetUser(ctx, requesterEmail)
	if err != nil {
		return err
	}
	if !requester.IsAdmin() {
		return errors.Forbidden("only admins may refill token balances")
	}
	if _, err := e.store.GetUser(ctx, targetEmail); err != nil {
		return err
	}
	return e.ledger.Refill(ctx, targetEmail, balance)
}

// PendingState is the set of models and requests awaiting resolution.
type PendingState struct {
	Models   []*types.Model         `json:"models"`
	Requests []*types.UpdateRequest `json:"requests"`
}

// PendingModels lists models and update requests currently pending
func (e *Engine) PendingModels(ctx context.Context) (*PendingState, error) {
	models, err := e.store.ListModelsByStatus(ctx, types.ModelPending)
	if err != nil {
		return nil, err
	}
	requests, err := e.store.ListRequestsByStatus(ctx, types.RequestPending)
	if err != nil {
		return nil, err
	}
	return &PendingState{Models: models, Requests: requests}, nil
}

// UpdateHistory lists a model's update requests, optionally bounded by
// created-at dates (YYYY-MM-DD) and filtered by status. A malformed
// date fails with INVALID_DATE; an unknown status with INVALID_INPUT.
func (e *Engine) UpdateHistory(ctx context.Context, modelRef, after, before, status string) ([]*types.UpdateRequest, error) {
	model, err := e.store.GetModel(ctx, modelRef)
	if err != nil {
		return nil, err
	}

	var filter storage.HistoryFilter
	if after != "" {
		t, err := time.Parse(dateLayout, after)
		if err != nil {
			return nil, errors.Newf(errors.TypeInvalidDate, "invalid date %q, want YYYY-MM-DD", after)
		}
		filter.After = &t
	}
	if before != "" {
		t, err := time.Parse(dateLayout, before)
		if err != nil {
			return nil, errors.Newf(errors.TypeInvalidDate, "invalid date %q, want YYYY-MM-DD", before)
		}
		// Inclusive upper bound: keep everything created on that day.
		t = t.Add(24*time.Hour - time.Nanosecond)
		filter.Before = &t
	}
	switch types.RequestStatus(status) {
	case "", types.RequestPending, types.RequestApproved, types.RequestRejected:
		filter.Status = types.RequestStatus(status)
	default:
		return nil, errors.InvalidInput("unknown request status: " + status)
	}

	return e.store.ListByModel(ctx, model.ID, filter)
}
