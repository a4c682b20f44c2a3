// Package postgres provides a PostgreSQL implementation of storage.UsageStore.
// It uses pgx/v5 for connection pooling and embedded SQL migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/debug"
	"github.com/rhuss/chatwire/pkg/storage"
)

const recordColumns = `id, request_id, account, provider, model, streamed, outcome,
	finish_reasons, prompt_tokens, completion_tokens, total_tokens, created_at`

// Store is a PostgreSQL-backed UsageStore.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.UsageStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	if _, set := poolCfg.ConnConfig.RuntimeParams["application_name"]; !set {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// SaveUsage inserts rec, attributing it to the context account unless the
// record already names one.
func (s *Store) SaveUsage(ctx context.Context, rec storage.UsageRecord) error {
	if rec.ID == "" {
		return storage.ErrInvalidRecord
	}
	if rec.Account == "" {
		rec.Account = storage.GetAccount(ctx)
	}
	reasons := rec.FinishReasons
	if reasons == nil {
		reasons = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO usage_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		rec.ID, rec.RequestID, rec.Account, rec.Provider, rec.Model, rec.Streamed, string(rec.Outcome),
		reasons, rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens, rec.CreatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", storage.ErrConflict, rec.ID)
		}
		return fmt.Errorf("inserting usage record: %w", err)
	}

	debug.Log(debug.Ledger, "usage recorded", "id", rec.ID, "total_tokens", rec.TotalTokens)
	return nil
}

// GetUsage retrieves a record by ID, scoped to the context account.
func (s *Store) GetUsage(ctx context.Context, id string) (storage.UsageRecord, error) {
	q := newQuery()
	q.where("id", "=", id)
	q.account(ctx)

	row := s.pool.QueryRow(ctx, "SELECT "+recordColumns+" FROM usage_records"+q.clause(), q.args...)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.UsageRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.UsageRecord{}, fmt.Errorf("querying usage record: %w", err)
	}
	return rec, nil
}

// ListUsage returns a page of matching records using keyset pagination on
// (created_at, id).
func (s *Store) ListUsage(ctx context.Context, opts storage.ListOptions) (*storage.UsageList, error) {
	q := newQuery()
	q.account(ctx)
	q.filters(opts)

	dir, cmp := "DESC", "<"
	if opts.Order == "asc" {
		dir, cmp = "ASC", ">"
	}
	if opts.After != "" {
		n := q.arg(opts.After)
		q.conds = append(q.conds, fmt.Sprintf(
			"(created_at, id) %s (SELECT created_at, id FROM usage_records WHERE id = %s)", cmp, n))
	}

	limit := opts.PageSize()
	sql := fmt.Sprintf("SELECT %s FROM usage_records%s ORDER BY created_at %s, id %s LIMIT %d",
		recordColumns, q.clause(), dir, dir, limit+1)

	rows, err := s.pool.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, fmt.Errorf("listing usage records: %w", err)
	}
	defer rows.Close()

	var records []storage.UsageRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning usage record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing usage records: %w", err)
	}

	// The cursor is already applied in SQL.
	opts.After = ""
	return storage.NewList(records, opts), nil
}

// Totals sums the matching records.
func (s *Store) Totals(ctx context.Context, opts storage.ListOptions) (storage.Totals, error) {
	q := newQuery()
	q.account(ctx)
	q.filters(opts)

	var t storage.Totals
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       COALESCE(sum(prompt_tokens), 0),
		       COALESCE(sum(completion_tokens), 0),
		       COALESCE(sum(total_tokens), 0)
		FROM usage_records`+q.clause(), q.args...,
	).Scan(&t.Requests, &t.PromptTokens, &t.CompletionTokens, &t.TotalTokens)
	if err != nil {
		return storage.Totals{}, fmt.Errorf("summing usage records: %w", err)
	}
	return t, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanRecord(row pgx.Row) (storage.UsageRecord, error) {
	var rec storage.UsageRecord
	var outcome string
	err := row.Scan(
		&rec.ID, &rec.RequestID, &rec.Account, &rec.Provider, &rec.Model, &rec.Streamed, &outcome,
		&rec.FinishReasons, &rec.PromptTokens, &rec.CompletionTokens, &rec.TotalTokens, &rec.CreatedAt,
	)
	rec.Outcome = api.StreamState(outcome)
	if len(rec.FinishReasons) == 0 {
		rec.FinishReasons = nil
	}
	return rec, err
}

// query accumulates WHERE conditions with positional arguments.
type query struct {
	conds []string
	args  []any
}

func newQuery() *query { return &query{} }

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *query) where(column, op string, v any) {
	q.conds = append(q.conds, column+" "+op+" "+q.arg(v))
}

func (q *query) account(ctx context.Context) {
	if account := storage.GetAccount(ctx); account != "" {
		q.where("account", "=", account)
	}
}

func (q *query) filters(opts storage.ListOptions) {
	if opts.Provider != "" {
		q.where("provider", "=", opts.Provider)
	}
	if opts.Model != "" {
		q.where("model", "=", opts.Model)
	}
	if !opts.Since.IsZero() {
		q.where("created_at", ">=", opts.Since)
	}
}

func (q *query) clause() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
