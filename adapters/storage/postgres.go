package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"tokengraph/core/types"
	"tokengraph/internal/errors"
)

// pqUniqueViolation is the postgres error code raised when an insert
// hits the pending-per-model partial unique index.
const pqUniqueViolation = "23505"

// PostgresStore is the durable backend. The schema carries the two
// storage-level consistency guarantees the core relies on: a partial
// unique index keeps at most one pending request per model, and debits
// run as a guarded UPDATE.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to postgres and ensures the schema exists
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Internal("failed to open postgres connection", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Internal("failed to reach postgres", err)
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			email      TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			role       TEXT NOT NULL DEFAULT 'user',
			balance    NUMERIC NOT NULL DEFAULT 0 CHECK (balance >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS models (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			owner_email TEXT NOT NULL REFERENCES users(email),
			node_count  INTEGER NOT NULL CHECK (node_count >= 0),
			edges       JSONB NOT NULL DEFAULT '{}',
			status      TEXT NOT NULL DEFAULT 'approved',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS update_requests (
			id              TEXT PRIMARY KEY,
			model_id        TEXT NOT NULL REFERENCES models(id),
			requester_email TEXT NOT NULL,
			status          TEXT NOT NULL,
			proposed        JSONB NOT NULL DEFAULT '{}',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		// At most one pending request per model, across all service
		// instances.
		`CREATE UNIQUE INDEX IF NOT EXISTS update_requests_one_pending
			ON update_requests (model_id) WHERE status = 'pending'`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Internal("failed to ensure schema", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, email string) (*types.User, error) {
	var user types.User
	var balance string
	err := s.db.QueryRowContext(ctx,
		`SELECT email, name, role, balance FROM users WHERE email = $1`, email).
		Scan(&user.Email, &user.Name, &user.Role, &balance)
	if err == sql.ErrNoRows {
		return nil, errors.UserNotFound(email)
	}
	if err != nil {
		return nil, errors.Internal("failed to load user", err)
	}
	user.TokenBalance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, errors.Internal("failed to parse balance", err)
	}
	return &user, nil
}

func (s *PostgresStore) SaveUser(ctx context.Context, user *types.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, role, balance) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE SET name = $2, role = $3, balance = $4`,
		user.Email, user.Name, user.Role, user.TokenBalance.String())
	if err != nil {
		return errors.Internal("failed to save user", err)
	}
	return nil
}

func (s *PostgresStore) DebitBalance(ctx context.Context, email string, amount decimal.Decimal) error {
	// Check and debit in one statement; concurrent debits serialize on
	// the row and the second one fails the guard instead of overspending.
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET balance = balance - $2 WHERE email = $1 AND balance >= $2`,
		email, amount.String())
	if err != nil {
		return errors.Internal("failed to debit balance", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Internal("failed to debit balance", err)
	}
	if n == 0 {
		if _, err := s.GetUser(ctx, email); err != nil {
			return err
		}
		return errors.InsufficientBalance(email)
	}
	return nil
}

func (s *PostgresStore) SetBalance(ctx context.Context, email string, balance decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET balance = $2 WHERE email = $1`, email, balance.String())
	if err != nil {
		return errors.Internal("failed to set balance", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Internal("failed to set balance", err)
	}
	if n == 0 {
		return errors.UserNotFound(email)
	}
	return nil
}

func (s *PostgresStore) CreateModel(ctx context.Context, model *types.Model) error {
	if model.ID == "" {
		model.ID = uuid.New().String()
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	edges, err := json.Marshal(model.Edges)
	if err != nil {
		return errors.Internal("failed to encode edges", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO models (id, name, owner_email, node_count, edges, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		model.ID, model.Name, model.OwnerEmail, model.NodeCount, edges, model.Status, model.CreatedAt)
	if err != nil {
		return errors.Internal("failed to create model", err)
	}
	return nil
}

func (s *PostgresStore) GetModel(ctx context.Context, ref string) (*types.Model, error) {
	var model types.Model
	var edges []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_email, node_count, edges, status, created_at
		 FROM models WHERE id = $1 OR name = $1`, ref).
		Scan(&model.ID, &model.Name, &model.OwnerEmail, &model.NodeCount, &edges, &model.Status, &model.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.ModelNotFound(ref)
	}
	if err != nil {
		return nil, errors.Internal("failed to load model", err)
	}
	if err := json.Unmarshal(edges, &model.Edges); err != nil {
		return nil, errors.Internal("failed to decode edges", err)
	}
	return &model, nil
}

func (s *PostgresStore) SaveModel(ctx context.Context, model *types.Model) error {
	edges, err := json.Marshal(model.Edges)
	if err != nil {
		return errors.Internal("failed to encode edges", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE models SET name = $2, owner_email = $3, node_count = $4, edges = $5, status = $6
		 WHERE id = $1`,
		model.ID, model.Name, model.OwnerEmail, model.NodeCount, edges, model.Status)
	if err != nil {
		return errors.Internal("failed to save model", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Internal("failed to save model", err)
	}
	if n == 0 {
		return errors.ModelNotFound(model.ID)
	}
	return nil
}

func (s *PostgresStore) ListModelsByStatus(ctx context.Context, status types.ModelStatus) ([]*types.Model, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, owner_email, node_count, edges, status, created_at
		 FROM models WHERE status = $1 ORDER BY created_at`, status)
	if err != nil {
		return nil, errors.Internal("failed to list models", err)
	}
	defer rows.Close()

	var out []*types.Model
	for rows.Next() {
		var model types.Model
		var edges []byte
		if err := rows.Scan(&model.ID, &model.Name, &model.OwnerEmail, &model.NodeCount, &edges, &model.Status, &model.CreatedAt); err != nil {
			return nil, errors.Internal("failed to scan model", err)
		}
		if err := json.Unmarshal(edges, &model.Edges); err != nil {
			return nil, errors.Internal("failed to decode edges", err)
		}
		out = append(out, &model)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("failed to list models", err)
	}
	return out, nil
}

func (s *PostgresStore) CreateRequest(ctx context.Context, req *types.UpdateRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	proposed, err := json.Marshal(req.ProposedWeights)
	if err != nil {
		return errors.Internal("failed to encode proposed weights", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO update_requests (id, model_id, requester_email, status, proposed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		req.ID, req.ModelID, req.RequesterEmail, req.Status, proposed, req.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return errors.DuplicateRequest(req.ModelID)
		}
		return errors.Internal("failed to create update request", err)
	}
	return nil
}

func (s *PostgresStore) GetRequest(ctx context.Context, id string) (*types.UpdateRequest, error) {
	req, err := s.scanRequestRow(s.db.QueryRowContext(ctx,
		`SELECT id, model_id, requester_email, status, proposed, created_at
		 FROM update_requests WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, errors.RequestNotFound(id)
	}
	return req, err
}

func (s *PostgresStore) SaveRequest(ctx context.Context, req *types.UpdateRequest) error {
	proposed, err := json.Marshal(req.ProposedWeights)
	if err != nil {
		return errors.Internal("failed to encode proposed weights", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE update_requests SET status = $2, proposed = $3 WHERE id = $1`,
		req.ID, req.Status, proposed)
	if err != nil {
		return errors.Internal("failed to save update request", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Internal("failed to save update request", err)
	}
	if n == 0 {
		return errors.RequestNotFound(req.ID)
	}
	return nil
}

func (s *PostgresStore) PendingForModel(ctx context.Context, modelID string) (*types.UpdateRequest, error) {
	req, err := s.scanRequestRow(s.db.QueryRowContext(ctx,
		`SELECT id, model_id, requester_email, status, proposed, created_at
		 FROM update_requests WHERE model_id = $1 AND status = 'pending'`, modelID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return req, err
}

func (s *PostgresStore) ListByModel(ctx context.Context, modelID string, filter HistoryFilter) ([]*types.UpdateRequest, error) {
	query := `SELECT id, model_id, requester_email, status, proposed, created_at
		 FROM update_requests WHERE model_id = $1`
	args := []interface{}{modelID}
	if filter.After != nil {
		args = append(args, *filter.After)
		query += ` AND created_at >= $` + itoa(len(args))
	}
	if filter.Before != nil {
		args = append(args, *filter.Before)
		query += ` AND created_at <= $` + itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	return s.queryRequests(ctx, query, args...)
}

func (s *PostgresStore) ListRequestsByStatus(ctx context.Context, status types.RequestStatus) ([]*types.UpdateRequest, error) {
	return s.queryRequests(ctx,
		`SELECT id, model_id, requester_email, status, proposed, created_at
		 FROM update_requests WHERE status = $1 ORDER BY created_at`, status)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *PostgresStore) scanRequestRow(row rowScanner) (*types.UpdateRequest, error) {
	var req types.UpdateRequest
	var proposed []byte
	err := row.Scan(&req.ID, &req.ModelID, &req.RequesterEmail, &req.Status, &proposed, &req.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.Internal("failed to load update request", err)
	}
	if err := json.Unmarshal(proposed, &req.ProposedWeights); err != nil {
		return nil, errors.Internal("failed to decode proposed weights", err)
	}
	return &req, nil
}

func (s *PostgresStore) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*types.UpdateRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Internal("failed to list update requests", err)
	}
	defer rows.Close()

	var out []*types.UpdateRequest
	for rows.Next() {
		req, err := s.scanRequestRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("failed to list update requests", err)
	}
	return out, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

var _ Store = (*PostgresStore)(nil)
