// Package workflow implements the update-request state machine.
//
// A request moves Submit → pending → approved/rejected. Owners
// self-approve: their edits are smoothed with an exponential moving
// average and the model goes straight to approved. Non-owner edits are
// applied raw but leave the model pending until a reviewer resolves the
// request. Approved and rejected are terminal per request.
//
// All edge validation happens before any mutation or save: there is no
// undo step, so a request that fails leaves the model byte-identical.
package workflow

import (
	"context"

	"tokengraph/adapters/storage"
	"tokengraph/core/cost"
	"tokengraph/core/graph"
	"tokengraph/core/ledger"
	"tokengraph/core/types"
	"tokengraph/internal/errors"
)

// Workflow governs update-request submission and resolution.
type Workflow struct {
	alpha    float64
	models   storage.ModelStore
	requests storage.UpdateRequestStore
	ledger   *ledger.Ledger
}

// New creates a workflow with the given smoothing constant.
// alpha must be in [0,1]; it weighs the previous edge weight in the
// owner-update moving average.
func New(alpha float64, models storage.ModelStore, requests storage.UpdateRequestStore, l *ledger.Ledger) (*Workflow, error) {
	if alpha < 0 || alpha > 1 {
		return nil, errors.InvalidInput("smoothing constant must be in [0,1]")
	}
	return &Workflow{alpha: alpha, models: models, requests: requests, ledger: l}, nil
}

// Submit proposes new weights for a model's edges.
//
// The duplicate-pending gate runs first, then every proposed edge is
// checked for existence, then the branch applies:
//
//   - owner: each edge is set to alpha*previous + (1-alpha)*proposed and
//     the model self-approves;
//   - non-owner: each edge is set to the raw proposed weight and the
//     model turns pending until the request is resolved.
//
// The requester's balance must cover the update cost; the cost is a
// precondition, verified like the original service does, not debited.
// On success the model is saved and a request record is created
// reflecting the resulting status.
func (w *Workflow) Submit(ctx context.Context, modelRef, requester string, proposed map[string]float64) (*types.UpdateRequest, *types.Model, error) {
	if len(proposed) == 0 {
		return nil, nil, errors.InvalidInput("no edge updates proposed")
	}

	model, err := w.models.GetModel(ctx, modelRef)
	if err != nil {
		return nil, nil, err
	}

	pending, err := w.requests.PendingForModel(ctx, model.ID)
	if err != nil {
		return nil, nil, err
	}
	if pending != nil {
		return nil, nil, errors.DuplicateRequest(model.ID)
	}

	ok, err := w.ledger.CheckBalance(ctx, requester, cost.UpdateCost(len(proposed)))
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, errors.InsufficientBalance(requester)
	}

	g, err := graph.Build(model.NodeCount, model.Edges)
	if err != nil {
		return nil, nil, err
	}

	// Validate every proposed edge before touching any weight.
	for key := range proposed {
		if !g.EdgeExists(key) {
			return nil, nil, errors.EdgeNotFound(key)
		}
	}

	status := types.RequestPending
	if requester == model.OwnerEmail {
		status = types.RequestApproved
		for key, weight := range proposed {
			previous := model.Edges[key]
			model.Edges[key] = w.alpha*previous + (1-w.alpha)*weight
		}
		model.Status = types.ModelApproved
	} else {
		for key, weight := range proposed {
			model.Edges[key] = weight
		}
		model.Status = types.ModelPending
	}

	req := &types.UpdateRequest{
		ModelID:         model.ID,
		RequesterEmail:  requester,
		Status:          status,
		ProposedWeights: proposed,
	}
	// Create the request before saving the model: if a concurrent
	// submit won the pending slot, the storage-level uniqueness check
	// fails here and the model is left untouched.
	if err := w.requests.CreateRequest(ctx, req); err != nil {
		return nil, nil, err
	}
	if err := w.models.SaveModel(ctx, model); err != nil {
		return nil, nil, err
	}

	return req, model, nil
}

// Approve resolves a pending request, approving the target model.
func (w *Workflow) Approve(ctx context.Context, requestID string) (*types.Model, error) {
	return w.resolve(ctx, requestID, types.RequestApproved, types.ModelApproved)
}

// Reject resolves a pending request, rejecting the target model.
func (w *Workflow) Reject(ctx context.Context, requestID string) (*types.Model, error) {
	return w.resolve(ctx, requestID, types.RequestRejected, types.ModelRejected)
}

func (w *Workflow) resolve(ctx context.Context, requestID string, reqStatus types.RequestStatus, modelStatus types.ModelStatus) (*types.Model, error) {
	req, err := w.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, errors.RequestResolved(requestID)
	}

	model, err := w.models.GetModel(ctx, req.ModelID)
	if err != nil {
		return nil, err
	}

	req.Status = reqStatus
	if err := w.requests.SaveRequest(ctx, req); err != nil {
		return nil, err
	}

	model.Status = modelStatus
	if err := w.models.SaveModel(ctx, model); err != nil {
		return nil, err
	}

	return model, nil
}
