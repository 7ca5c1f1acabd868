package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// ActivityStore implements domain.ActivityStore using PostgreSQL. Token legs
// are stored as JSONB; everything the aggregator filters on is a proper
// column.
type ActivityStore struct {
	pool *pgxpool.Pool
}

// NewActivityStore creates an ActivityStore backed by the given pool.
func NewActivityStore(pool *pgxpool.Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

const activitySelectCols = `id, vault_id, type, time, value, tokens, reason, tx_hash`

func scanActivityRows(rows pgx.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanActivity(row pgx.Row) (domain.Transaction, error) {
	var (
		tx         domain.Transaction
		vaultID    string
		tokensJSON []byte
	)
	if err := row.Scan(
		&tx.ID, &vaultID, &tx.Type, &tx.Time, &tx.Value, &tokensJSON, &tx.Reason, &tx.TxHash,
	); err != nil {
		return domain.Transaction{}, err
	}
	if tokensJSON != nil {
		if err := json.Unmarshal(tokensJSON, &tx.Tokens); err != nil {
			return domain.Transaction{}, fmt.Errorf("unmarshal tokens for %s: %w", tx.ID, err)
		}
	}
	return tx, nil
}

// UpsertBatch inserts activities efficiently using pgx Batch. Rows whose ID
// already exists are silently skipped via ON CONFLICT DO NOTHING, so
// re-ingesting an overlapping page is harmless.
func (s *ActivityStore) UpsertBatch(ctx context.Context, vaultID string, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO activities (
			id, vault_id, type, time, value, tokens, reason, tx_hash
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) ON CONFLICT (id) DO NOTHING`

	for i := range txs {
		tx := &txs[i]
		tokensJSON, err := json.Marshal(tx.Tokens)
		if err != nil {
			return fmt.Errorf("postgres: marshal tokens for %s: %w", tx.ID, err)
		}
		batch.Queue(query,
			tx.ID, vaultID, tx.Type, tx.Time, tx.Value, tokensJSON, tx.Reason, tx.TxHash,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range txs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert activity batch item %d: %w", i, err)
		}
	}
	return nil
}

// GetByID returns one activity row. It returns domain.ErrNotFound when the
// ID does not exist.
func (s *ActivityStore) GetByID(ctx context.Context, id string) (domain.Transaction, error) {
	query := `SELECT ` + activitySelectCols + ` FROM activities WHERE id = $1`
	tx, err := scanActivity(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Transaction{}, domain.ErrNotFound
		}
		return domain.Transaction{}, fmt.Errorf("postgres: get activity %s: %w", id, err)
	}
	return tx, nil
}

// ListByVault returns a vault's activities, newest first, with pagination
// and optional type/time filtering.
func (s *ActivityStore) ListByVault(ctx context.Context, vaultID string, opts domain.ListOpts) ([]domain.Transaction, error) {
	query := `SELECT ` + activitySelectCols + ` FROM activities WHERE vault_id = $1`
	args := []any{vaultID}
	argIdx := 2

	if opts.ActionType != "" {
		query += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, opts.ActionType)
		argIdx++
	}
	if opts.Since != nil {
		query += fmt.Sprintf(" AND time >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND time <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY time DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list activities for %s: %w", vaultID, err)
	}
	defer rows.Close()

	txs, err := scanActivityRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan activities for %s: %w", vaultID, err)
	}
	return txs, nil
}

// CountByVault returns the number of matching activities for a vault.
func (s *ActivityStore) CountByVault(ctx context.Context, vaultID string, opts domain.ListOpts) (int64, error) {
	query := `SELECT COUNT(*) FROM activities WHERE vault_id = $1`
	args := []any{vaultID}
	argIdx := 2

	if opts.ActionType != "" {
		query += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, opts.ActionType)
		argIdx++
	}
	if opts.Since != nil {
		query += fmt.Sprintf(" AND time >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND time <= $%d", argIdx)
		args = append(args, *opts.Until)
	}

	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count activities for %s: %w", vaultID, err)
	}
	return count, nil
}

// GetLastTime returns the most recent activity timestamp for a vault, or the
// zero time when the vault has no rows.
func (s *ActivityStore) GetLastTime(ctx context.Context, vaultID string) (time.Time, error) {
	var ts *time.Time
	err := s.pool.QueryRow(ctx,
		"SELECT MAX(time) FROM activities WHERE vault_id = $1", vaultID).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("postgres: get last activity time for %s: %w", vaultID, err)
	}
	if ts == nil {
		return time.Time{}, nil
	}
	return *ts, nil
}

// ListBefore returns all activities strictly older than the cutoff, oldest
// first, for archiving.
func (s *ActivityStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Transaction, error) {
	query := `SELECT ` + activitySelectCols + ` FROM activities WHERE time < $1 ORDER BY time ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list activities before: %w", err)
	}
	defer rows.Close()
	return scanActivityRows(rows)
}

// DeleteBefore removes activities older than the cutoff and returns the
// number deleted.
func (s *ActivityStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM activities WHERE time < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete activities before: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.ActivityStore = (*ActivityStore)(nil)
