package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengraph/core/types"
	"tokengraph/internal/errors"
)

func TestMemoryUserStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	t.Run("get unknown user", func(t *testing.T) {
		_, err := store.GetUser(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeUserNotFound))
	})

	t.Run("save and get", func(t *testing.T) {
		user := &types.User{Email: "a@example.com", Name: "A", Role: types.RoleUser, TokenBalance: decimal.NewFromInt(5)}
		require.NoError(t, store.SaveUser(ctx, user))

		got, err := store.GetUser(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, "A", got.Name)
		assert.True(t, got.TokenBalance.Equal(decimal.NewFromInt(5)))
	})

	t.Run("returned record is a copy", func(t *testing.T) {
		got, err := store.GetUser(ctx, "a@example.com")
		require.NoError(t, err)
		got.TokenBalance = decimal.NewFromInt(999)

		again, err := store.GetUser(ctx, "a@example.com")
		require.NoError(t, err)
		assert.True(t, again.TokenBalance.Equal(decimal.NewFromInt(5)))
	})

	t.Run("conditional debit", func(t *testing.T) {
		err := store.DebitBalance(ctx, "a@example.com", decimal.NewFromInt(6))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeInsufficientBalance))

		require.NoError(t, store.DebitBalance(ctx, "a@example.com", decimal.NewFromInt(5)))
		got, err := store.GetUser(ctx, "a@example.com")
		require.NoError(t, err)
		assert.True(t, got.TokenBalance.IsZero())
	})

	t.Run("set balance", func(t *testing.T) {
		require.NoError(t, store.SetBalance(ctx, "a@example.com", decimal.NewFromInt(42)))
		got, err := store.GetUser(ctx, "a@example.com")
		require.NoError(t, err)
		assert.True(t, got.TokenBalance.Equal(decimal.NewFromInt(42)))

		err = store.SetBalance(ctx, "nobody@example.com", decimal.NewFromInt(1))
		assert.True(t, errors.IsType(err, errors.TypeUserNotFound))
	})
}

// TestMemoryConcurrentDebits proves the conditional decrement never
// overspends: with balance 10 and twenty debits of 1, exactly ten pass.
func TestMemoryConcurrentDebits(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SaveUser(ctx, &types.User{Email: "a@example.com", TokenBalance: decimal.NewFromInt(10)}))

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.DebitBalance(ctx, "a@example.com", decimal.NewFromInt(1))
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, failed int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.True(t, errors.IsType(err, errors.TypeInsufficientBalance))
			failed++
		}
	}
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 10, failed)

	user, err := store.GetUser(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, user.TokenBalance.IsZero())
}

func TestMemoryModelStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	model := &types.Model{
		Name:       "routes",
		OwnerEmail: "a@example.com",
		NodeCount:  2,
		Edges:      map[string]float64{"0-1": 1},
		Status:     types.ModelApproved,
	}
	require.NoError(t, store.CreateModel(ctx, model))
	require.NotEmpty(t, model.ID, "create assigns an ID")
	require.False(t, model.CreatedAt.IsZero(), "create assigns a timestamp")

	t.Run("get by id and by name", func(t *testing.T) {
		byID, err := store.GetModel(ctx, model.ID)
		require.NoError(t, err)
		assert.Equal(t, "routes", byID.Name)

		byName, err := store.GetModel(ctx, "routes")
		require.NoError(t, err)
		assert.Equal(t, model.ID, byName.ID)

		_, err = store.GetModel(ctx, "missing")
		assert.True(t, errors.IsType(err, errors.TypeModelNotFound))
	})

	t.Run("edges are copied on read", func(t *testing.T) {
		got, err := store.GetModel(ctx, model.ID)
		require.NoError(t, err)
		got.Edges["0-1"] = 99

		again, err := store.GetModel(ctx, model.ID)
		require.NoError(t, err)
		assert.Equal(t, 1.0, again.Edges["0-1"])
	})

	t.Run("save replaces", func(t *testing.T) {
		got, err := store.GetModel(ctx, model.ID)
		require.NoError(t, err)
		got.Status = types.ModelPending
		require.NoError(t, store.SaveModel(ctx, got))

		again, err := store.GetModel(ctx, model.ID)
		require.NoError(t, err)
		assert.Equal(t, types.ModelPending, again.Status)

		err = store.SaveModel(ctx, &types.Model{ID: "missing"})
		assert.True(t, errors.IsType(err, errors.TypeModelNotFound))
	})

	t.Run("list by status", func(t *testing.T) {
		pending, err := store.ListModelsByStatus(ctx, types.ModelPending)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, model.ID, pending[0].ID)

		rejected, err := store.ListModelsByStatus(ctx, types.ModelRejected)
		require.NoError(t, err)
		assert.Empty(t, rejected)
	})
}

func TestMemoryRequestStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	req := &types.UpdateRequest{
		ModelID:         "m1",
		RequesterEmail:  "a@example.com",
		Status:          types.RequestPending,
		ProposedWeights: map[string]float64{"0-1": 2},
	}
	require.NoError(t, store.CreateRequest(ctx, req))
	require.NotEmpty(t, req.ID)

	t.Run("pending lookup", func(t *testing.T) {
		pending, err := store.PendingForModel(ctx, "m1")
		require.NoError(t, err)
		require.NotNil(t, pending)
		assert.Equal(t, req.ID, pending.ID)

		none, err := store.PendingForModel(ctx, "other")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("second pending insert rejected", func(t *testing.T) {
		err := store.CreateRequest(ctx, &types.UpdateRequest{
			ModelID: "m1",
			Status:  types.RequestPending,
		})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeDuplicateRequest))
	})

	t.Run("terminal insert allowed alongside pending", func(t *testing.T) {
		err := store.CreateRequest(ctx, &types.UpdateRequest{
			ModelID: "m1",
			Status:  types.RequestApproved,
		})
		assert.NoError(t, err)
	})

	t.Run("resolve frees the pending slot", func(t *testing.T) {
		got, err := store.GetRequest(ctx, req.ID)
		require.NoError(t, err)
		got.Status = types.RequestApproved
		require.NoError(t, store.SaveRequest(ctx, got))

		pending, err := store.PendingForModel(ctx, "m1")
		require.NoError(t, err)
		assert.Nil(t, pending)

		err = store.CreateRequest(ctx, &types.UpdateRequest{ModelID: "m1", Status: types.RequestPending})
		assert.NoError(t, err)
	})

	t.Run("unknown request", func(t *testing.T) {
		_, err := store.GetRequest(ctx, "missing")
		assert.True(t, errors.IsType(err, errors.TypeRequestNotFound))

		err = store.SaveRequest(ctx, &types.UpdateRequest{ID: "missing"})
		assert.True(t, errors.IsType(err, errors.TypeRequestNotFound))
	})
}

// TestMemoryConcurrentPendingInserts proves the pending-per-model gate
// holds under concurrency: exactly one of N parallel inserts wins.
func TestMemoryConcurrentPendingInserts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.CreateRequest(ctx, &types.UpdateRequest{
				ModelID: "m1",
				Status:  types.RequestPending,
			})
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.True(t, errors.IsType(err, errors.TypeDuplicateRequest))
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestMemoryListByModel(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return d.Add(12 * time.Hour)
	}
	seed := []*types.UpdateRequest{
		{ID: "r1", ModelID: "m1", Status: types.RequestApproved, CreatedAt: day("2026-08-01")},
		{ID: "r2", ModelID: "m1", Status: types.RequestRejected, CreatedAt: day("2026-08-10")},
		{ID: "r3", ModelID: "m1", Status: types.RequestPending, CreatedAt: day("2026-08-20")},
		{ID: "r4", ModelID: "other", Status: types.RequestPending, CreatedAt: day("2026-08-20")},
	}
	for _, r := range seed {
		require.NoError(t, store.CreateRequest(ctx, r))
	}

	t.Run("newest first, other models excluded", func(t *testing.T) {
		out, err := store.ListByModel(ctx, "m1", HistoryFilter{})
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, "r3", out[0].ID)
		assert.Equal(t, "r1", out[2].ID)
	})

	t.Run("after bound", func(t *testing.T) {
		after := day("2026-08-05")
		out, err := store.ListByModel(ctx, "m1", HistoryFilter{After: &after})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "r3", out[0].ID)
	})

	t.Run("before bound", func(t *testing.T) {
		before := day("2026-08-10")
		out, err := store.ListByModel(ctx, "m1", HistoryFilter{Before: &before})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "r2", out[0].ID)
	})

	t.Run("status filter", func(t *testing.T) {
		out, err := store.ListByModel(ctx, "m1", HistoryFilter{Status: types.RequestRejected})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "r2", out[0].ID)
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, "memory", "")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(ctx, "", "")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = Open(ctx, "cassandra", "")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
}
