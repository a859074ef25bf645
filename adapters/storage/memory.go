package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tokengraph/core/types"
	"tokengraph/internal/errors"
)

// MemoryStore is an in-memory backend used for tests and local runs.
// All records are stored and returned by value so callers never share
// mutable state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]types.User
	models   map[string]types.Model
	requests map[string]types.UpdateRequest
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]types.User),
		models:   make(map[string]types.Model),
		requests: make(map[string]types.UpdateRequest),
	}
}

func (s *MemoryStore) GetUser(ctx context.Context, email string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return nil, errors.UserNotFound(email)
	}
	return &user, nil
}

func (s *MemoryStore) SaveUser(ctx context.Context, user *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.Email] = *user
	return nil
}

func (s *MemoryStore) DebitBalance(ctx context.Context, email string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return errors.UserNotFound(email)
	}
	if user.TokenBalance.LessThan(amount) {
		return errors.InsufficientBalance(email)
	}
	user.TokenBalance = user.TokenBalance.Sub(amount)
	s.users[email] = user
	return nil
}

func (s *MemoryStore) SetBalance(ctx context.Context, email string, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return errors.UserNotFound(email)
	}
	user.TokenBalance = balance
	s.users[email] = user
	return nil
}

func (s *MemoryStore) CreateModel(ctx context.Context, model *types.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if model.ID == "" {
		model.ID = uuid.New().String()
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	s.models[model.ID] = cloneModel(model)
	return nil
}

func (s *MemoryStore) GetModel(ctx context.Context, ref string) (*types.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if model, ok := s.models[ref]; ok {
		m := cloneModel(&model)
		return &m, nil
	}
	for _, model := range s.models {
		if model.Name == ref {
			m := cloneModel(&model)
			return &m, nil
		}
	}
	return nil, errors.ModelNotFound(ref)
}

func (s *MemoryStore) SaveModel(ctx context.Context, model *types.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[model.ID]; !ok {
		return errors.ModelNotFound(model.ID)
	}
	s.models[model.ID] = cloneModel(model)
	return nil
}

func (s *MemoryStore) ListModelsByStatus(ctx context.Context, status types.ModelStatus) ([]*types.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Model
	for _, model := range s.models {
		if model.Status == status {
			m := cloneModel(&model)
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateRequest(ctx context.Context, req *types.UpdateRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The pending-per-model invariant is enforced under the same lock
	// as the insert, so concurrent submits cannot both pass the check.
	if req.Status == types.RequestPending {
		for _, existing := range s.requests {
			if existing.ModelID == req.ModelID && existing.Status == types.RequestPending {
				return errors.DuplicateRequest(req.ModelID)
			}
		}
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (s *MemoryStore) GetRequest(ctx context.Context, id string) (*types.UpdateRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, errors.RequestNotFound(id)
	}
	r := cloneRequest(&req)
	return &r, nil
}

func (s *MemoryStore) SaveRequest(ctx context.Context, req *types.UpdateRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.ID]; !ok {
		return errors.RequestNotFound(req.ID)
	}
	s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (s *MemoryStore) PendingForModel(ctx context.Context, modelID string) (*types.UpdateRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, req := range s.requests {
		if req.ModelID == modelID && req.Status == types.RequestPending {
			r := cloneRequest(&req)
			return &r, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListByModel(ctx context.Context, modelID string, filter HistoryFilter) ([]*types.UpdateRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.UpdateRequest
	for _, req := range s.requests {
		if req.ModelID != modelID {
			continue
		}
		r := cloneRequest(&req)
		if !filter.Matches(&r) {
			continue
		}
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListRequestsByStatus(ctx context.Context, status types.RequestStatus) ([]*types.UpdateRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.UpdateRequest
	for _, req := range s.requests {
		if req.Status == status {
			r := cloneRequest(&req)
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneModel(m *types.Model) types.Model {
	out := *m
	out.Edges = make(map[string]float64, len(m.Edges))
	for k, v := range m.Edges {
		out.Edges[k] = v
	}
	return out
}

func cloneRequest(r *types.UpdateRequest) types.UpdateRequest {
	out := *r
	out.ProposedWeights = make(map[string]float64, len(r.ProposedWeights))
	for k, v := range r.ProposedWeights {
		out.ProposedWeights[k] = v
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
