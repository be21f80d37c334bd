// Package postgres implements the suspension Store on a Postgres database.
//
// Records are stored as jsonb documents alongside the columns the queries
// need. The one-active-per-city rule is enforced under a per-city advisory
// lock so two concurrent issuers serialize instead of both passing the
// existence check.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalasag-ph/suspension-engine/internal/domain"
	"github.com/kalasag-ph/suspension-engine/internal/suspension"
)

// Store wraps a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &domain.UpstreamError{Source: "postgres", Err: err}
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

var _ suspension.Store = (*Store)(nil)

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return &domain.UpstreamError{Source: "postgres", Err: err}
	}
	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS suspensions (
    id              text PRIMARY KEY,
    city            text NOT NULL,
    status          text NOT NULL,
    issued_at       timestamptz NOT NULL,
    effective_from  timestamptz NOT NULL,
    effective_until timestamptz NOT NULL,
    version         bigint NOT NULL,
    doc             jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS suspensions_city_idx ON suspensions (lower(city));
CREATE INDEX IF NOT EXISTS suspensions_open_idx ON suspensions (status) WHERE status IN ('scheduled', 'active');

CREATE TABLE IF NOT EXISTS suspension_requests (
    id         text PRIMARY KEY,
    city       text NOT NULL,
    status     text NOT NULL,
    created_at timestamptz NOT NULL,
    version    bigint NOT NULL,
    doc        jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS suspension_requests_city_idx ON suspension_requests (lower(city));
CREATE INDEX IF NOT EXISTS suspension_requests_status_idx ON suspension_requests (status);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return &domain.UpstreamError{Source: "postgres", Err: err}
	}
	return nil
}

// openOverlapSQL covers the one-active-per-city window check: an open row
// (scheduled or active, not yet past effective_until at $2) conflicts when
// its window intersects the candidate [$3, $4) window. Expired rows fail
// the $2 predicate without ever being rewritten, and scheduled rows block
// conflicting issues before their window opens.
const openOverlapSQL = `
    SELECT EXISTS (
        SELECT 1 FROM suspensions
        WHERE lower(city) = lower($1)
          AND status IN ('scheduled', 'active')
          AND effective_until >= $2
          AND effective_from < $4
          AND effective_until > $3
    )
`

const insertSuspensionSQL = `
    INSERT INTO suspensions (id, city, status, issued_at, effective_from, effective_until, version, doc)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// IssueSuspension inserts the record after taking a per-city advisory lock
// and re-checking that no open record's window overlaps the new one.
func (s *Store) IssueSuspension(ctx context.Context, rec *domain.SuspensionRecord) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := insertSuspensionTx(ctx, tx, rec); err != nil {
			return err
		}
		rec.Version = 1
		return nil
	})
}

// insertSuspensionTx holds the city advisory lock for the rest of the
// transaction, so callers composing it with other writes stay serialized.
func insertSuspensionTx(ctx context.Context, tx pgx.Tx, rec *domain.SuspensionRecord) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext(lower($1)))`, rec.City); err != nil {
		return &domain.UpstreamError{Source: "postgres", Err: err}
	}

	now := domain.Clock().Now()
	var exists bool
	if err := tx.QueryRow(ctx, openOverlapSQL,
		rec.City, now, rec.EffectiveFrom, rec.EffectiveUntil,
	).Scan(&exists); err != nil {
		return &domain.UpstreamError{Source: "postgres", Err: err}
	}
	if exists {
		return domain.ErrCityAlreadySuspended
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal suspension: %w", err)
	}
	if _, err := tx.Exec(ctx, insertSuspensionSQL,
		rec.ID, rec.City, string(rec.Status), rec.IssuedAt,
		rec.EffectiveFrom, rec.EffectiveUntil, int64(1), doc,
	); err != nil {
		return &domain.UpstreamError{Source: "postgres", Err: err}
	}
	return nil
}

func (s *Store) GetSuspension(ctx context.Context, id string) (*domain.SuspensionRecord, error) {
	var (
		doc     []byte
		version int64
	)
	err := s.pool.QueryRow(ctx, `SELECT doc, version FROM suspensions WHERE id = $1`, id).Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.UpstreamError{Source: "postgres", Err: err}
	}
	return unmarshalSuspension(doc, version)
}

const updateSuspensionSQL = `
    UPDATE suspensions
    SET city = $2, status = $3, effective_from = $4, effective_until = $5,
        version = version + 1, doc = $6
    WHERE id = $1 AND version = $7
`

// UpdateSuspension applies an optimistic-concurrency update keyed on the
// caller's Version.
func (s *Store) UpdateSuspension(ctx context.Context, rec *domain.SuspensionRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal suspension: %w", err)
	}

	tag, err := s.pool.Exec(ctx, updateSuspensionSQL,
		rec.ID, rec.City, string(rec.Status), rec.EffectiveFrom, rec.EffectiveUntil, doc, rec.Version)
	if err != nil {
		return &domain.UpstreamError{Source: "postgres", Err: err}
	}
	if tag.RowsAffected() == 1 {
		rec.Version++
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suspensions WHERE id = $1)`, rec.ID).Scan(&exists); err != nil {
		return &domain.UpstreamError{Source: "postgres", Err: err}
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConcurrencyConflict
}

func (s *Store) ListOpenSuspensions(ctx context.Context, city string) ([]*domain.SuspensionRecord, error) {
	query := `SELECT doc, version FROM suspensions WHERE status IN ('scheduled', 'active')`
	args := []any{}
	if city != "" {
		query += ` AND lower(city) = lower($1)`
		args = append(args, city)
	}
	return s.querySuspensions(ctx, query, args...)
}

func (s *Store) ListHistory(ctx context.Context, city string, limit int) ([]*domain.SuspensionRecord, error) {
	query := `SELECT doc, version FROM suspensions`
	args := []any{}
	if city != "" {
		query += ` WHERE lower(city) = lower($1)`
		args = append(args, city)
	}
	query += ` ORDER BY issued_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}
	return s.querySuspensions(ctx, query, args...)
}

func (s *Store) querySuspensions(ctx context.Context, query string, args ...any) ([]*domain.SuspensionRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &domain.UpstreamError{Source: "postgres", Err: err}
	}
	defer rows.Close()

	var out []*domain.SuspensionRecord
	for rows.Next() {
		var (
			doc     []byte
			version int64
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, &domain.UpstreamError{Source: "postgres", Err: err}
		}
		rec, err := unmarshalSuspension(doc, version)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.UpstreamError{Source: "postgres", Err: err}
	}
	return out, nil
}

const insertRequestSQL = `
    INSERT INTO suspension_requests (id, city, status, created_at, version, doc)
    VALUES ($1, $2, $3, $4, $5, $6)
`

func (s *Store) CreateRequest(ctx context.Context, req *domain.SuspensionRequest) error {
	doc, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	if _, err := s.pool.Exec(ctx, insertRequestSQL,
		req.ID, req.City, string(req.Status), req.CreatedAt, int64(1), doc); err != nil {
		return &domain.UpstreamError{Source: "postgres", Err: err}
	}
	req.Version = 1
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (*domain.SuspensionRequest, error) {
	var (
		doc     []byte
		version int64
	)
	err := s.pool.QueryRow(ctx, `SELECT doc, version FROM suspension_requests WHERE id = $1`, id).Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.UpstreamError{Source: "postgres", Err: err}
	}
	return unmarshalRequest(doc, version)
}

const updateRequestSQL = `
    UPDATE suspension_requests
    SET status = $2, version = version + 1, doc = $3
    WHERE id = $1 AND version = $4
`

func (s *Store) UpdateRequest(ctx context.Context, req *domain.SuspensionRequest) error {
	doc, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	tag, err := s.pool.Exec(ctx, updateRequestSQL, req.ID, string(req.Status), doc, req.Version)
	if err != nil {
		return &domain.UpstreamError{Source: "postgres", Err: err}
	}
	if tag.RowsAffected() == 1 {
		req.Version++
		return nil
	}
	return s.requestUpdateFailure(ctx, req.ID)
}

func (s *Store) ListRequests(ctx context.Context, f suspension.RequestFilter) ([]*domain.SuspensionRequest, error) {
	query := `SELECT doc, version FROM suspension_requests`
	var (
		conds []string
		args  []any
	)
	if f.City != "" {
		args = append(args, f.City)
		conds = append(conds, fmt.Sprintf(`lower(city) = lower($%d)`, len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf(`status = $%d`, len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &domain.UpstreamError{Source: "postgres", Err: err}
	}
	defer rows.Close()

	var out []*domain.SuspensionRequest
	for rows.Next() {
		var (
			doc     []byte
			version int64
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, &domain.UpstreamError{Source: "postgres", Err: err}
		}
		req, err := unmarshalRequest(doc, version)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.UpstreamError{Source: "postgres", Err: err}
	}
	return out, nil
}

// ApproveRequestAndIssue persists the approved request and the issued
// suspension in one transaction: the insert's advisory lock plus the
// request's version check make the pair atomic.
func (s *Store) ApproveRequestAndIssue(ctx context.Context, req *domain.SuspensionRequest, rec *domain.SuspensionRecord) error {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if err := insertSuspensionTx(ctx, tx, rec); err != nil {
			return err
		}

		doc, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		tag, err := tx.Exec(ctx, updateRequestSQL, req.ID, string(req.Status), doc, req.Version)
		if err != nil {
			return &domain.UpstreamError{Source: "postgres", Err: err}
		}
		if tag.RowsAffected() != 1 {
			return s.requestUpdateFailure(ctx, req.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	rec.Version = 1
	req.Version++
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return &domain.UpstreamError{Source: "postgres", Err: err}
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &domain.UpstreamError{Source: "postgres", Err: err}
	}
	return nil
}

// requestUpdateFailure distinguishes a missing request from a lost
// optimistic-concurrency race.
func (s *Store) requestUpdateFailure(ctx context.Context, id string) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suspension_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return &domain.UpstreamError{Source: "postgres", Err: err}
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConcurrencyConflict
}

func unmarshalSuspension(doc []byte, version int64) (*domain.SuspensionRecord, error) {
	var rec domain.SuspensionRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal suspension: %w", err)
	}
	rec.Version = version
	return &rec, nil
}

func unmarshalRequest(doc []byte, version int64) (*domain.SuspensionRequest, error) {
	var req domain.SuspensionRequest
	if err := json.Unmarshal(doc, &req); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	req.Version = version
	return &req, nil
}
